package attendance

import (
	"testing"
	"time"

	"github.com/phillip-england/attendance/internal/apiclient"
)

func TestIntervals(t *testing.T) {
	cases := map[int]Interval{1: FirstInterval, 10: FirstInterval, 11: SecondInterval, 20: SecondInterval, 21: ThirdInterval, 31: ThirdInterval}
	for day, want := range cases {
		if got := IntervalOf(day); got != want {
			t.Fatalf("IntervalOf(%d) = %d, want %d", day, got, want)
		}
	}
	if got := ThirdInterval.Label(2024, time.February); got != "21日-29日" {
		t.Fatalf("unexpected leap february label %q", got)
	}
	if got := SecondInterval.Label(2023, time.April); got != "11日-20日" {
		t.Fatalf("unexpected label %q", got)
	}
	if ParseInterval("7", SecondInterval) != SecondInterval || ParseInterval("2", FirstInterval) != ThirdInterval {
		t.Fatalf("ParseInterval misbehaves")
	}
}

func TestPunctuality(t *testing.T) {
	if ArrivalStatus("10:30") != OnTime || ArrivalStatus("10:31") != Late || ArrivalStatus("00:00") != Missing || ArrivalStatus(NoTime) != Missing {
		t.Fatalf("arrival thresholds wrong")
	}
	if DepartureStatus("18:00") != OnTime || DepartureStatus("17:59") != Early || DepartureStatus("") != Missing {
		t.Fatalf("departure thresholds wrong")
	}
}

func TestBuildTimesheetFiltersAndSorts(t *testing.T) {
	days := []apiclient.TimesheetDay{
		{WorkDay: "2024-05-13", ComeTime: "09:00", LeaveTime: "18:10", TotalHours: "9"},
		{WorkDay: "2024-05-02", ComeTime: "10:45", LeaveTime: "17:00", TotalHours: "6.25"},
		{WorkDay: "2024-05-01T00:00:00Z", ComeTime: "00:00", LeaveTime: "00:00"},
		{WorkDay: "2024-04-03", ComeTime: "09:00"},
	}
	rows := BuildTimesheet(days, 2024, time.May, FirstInterval)
	if len(rows) != 2 {
		t.Fatalf("expected 2 rows, got %d", len(rows))
	}
	if rows[0].Date.Day() != 1 || rows[1].Date.Day() != 2 {
		t.Fatalf("rows not sorted: %+v", rows)
	}
	if rows[0].Arrival != Missing || rows[1].Arrival != Late || rows[1].Departure != Early {
		t.Fatalf("unexpected punctuality %+v", rows)
	}
	if rows[1].Weekday != "木" {
		t.Fatalf("2024-05-02 is a Thursday, got %q", rows[1].Weekday)
	}

	s := Summarize(days)
	if s.PresentDays != 3 || s.LateArrivals != 1 || s.EarlyLeaves != 1 || s.TotalHours != 15.25 {
		t.Fatalf("unexpected summary %+v", s)
	}
}
