package attendance

import (
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/phillip-england/attendance/internal/apiclient"
)

// Interval is one of the three blocks a month is split into: days 1-10, 11-20, 21-end.
type Interval int

const (
	FirstInterval Interval = iota
	SecondInterval
	ThirdInterval
)

var Intervals = []Interval{FirstInterval, SecondInterval, ThirdInterval}

func IntervalOf(day int) Interval {
	switch {
	case day <= 10:
		return FirstInterval
	case day <= 20:
		return SecondInterval
	default:
		return ThirdInterval
	}
}

func DefaultInterval(now time.Time) Interval {
	return IntervalOf(now.Day())
}

// ParseInterval returns fallback for anything but 0, 1 or 2.
func ParseInterval(raw string, fallback Interval) Interval {
	switch strings.TrimSpace(raw) {
	case "0":
		return FirstInterval
	case "1":
		return SecondInterval
	case "2":
		return ThirdInterval
	}
	return fallback
}

func DaysInMonth(year int, month time.Month) int {
	return time.Date(year, month+1, 0, 0, 0, 0, 0, time.UTC).Day()
}

func (i Interval) Bounds(year int, month time.Month) (int, int) {
	switch i {
	case FirstInterval:
		return 1, 10
	case SecondInterval:
		return 11, 20
	default:
		return 21, DaysInMonth(year, month)
	}
}

func (i Interval) Label(year int, month time.Month) string {
	first, last := i.Bounds(year, month)
	return fmt.Sprintf("%d日-%d日", first, last)
}

type Punctuality string

const (
	OnTime  Punctuality = "on-time"
	Late    Punctuality = "late"
	Early   Punctuality = "early"
	Missing Punctuality = "missing"
)

const (
	arrivalDeadline = 10*60 + 30
	departureStart  = 18 * 60
)

// ArrivalStatus is on time up to and including 10:30.
func ArrivalStatus(clock string) Punctuality {
	m, ok := minutesOf(clock)
	if !ok {
		return Missing
	}
	if m <= arrivalDeadline {
		return OnTime
	}
	return Late
}

// DepartureStatus is on time from 18:00 on.
func DepartureStatus(clock string) Punctuality {
	m, ok := minutesOf(clock)
	if !ok {
		return Missing
	}
	if m >= departureStart {
		return OnTime
	}
	return Early
}

// minutesOf treats an empty value and the backend's 00:00 placeholder as missing.
func minutesOf(clock string) (int, bool) {
	t, err := time.Parse("15:04", clock)
	if err != nil {
		return 0, false
	}
	m := t.Hour()*60 + t.Minute()
	if m == 0 {
		return 0, false
	}
	return m, true
}

type TimesheetRow struct {
	Date       time.Time
	Weekday    string
	ComeTime   string
	LeaveTime  string
	TotalHours string
	Arrival    Punctuality
	Departure  Punctuality
}

var weekdaysJA = [...]string{"日", "月", "火", "水", "木", "金", "土"}

// BuildTimesheet keeps the days of month that fall inside interval, oldest first.
func BuildTimesheet(days []apiclient.TimesheetDay, year int, month time.Month, interval Interval) []TimesheetRow {
	rows := make([]TimesheetRow, 0, 11)
	for _, d := range days {
		date, ok := parseWorkDay(d.WorkDay)
		if !ok || date.Year() != year || date.Month() != month || IntervalOf(date.Day()) != interval {
			continue
		}
		come := ClockTime(d.ComeTime)
		leave := ClockTime(d.LeaveTime)
		rows = append(rows, TimesheetRow{
			Date:       date,
			Weekday:    weekdaysJA[date.Weekday()],
			ComeTime:   come,
			LeaveTime:  leave,
			TotalHours: Hours(d.TotalHours),
			Arrival:    ArrivalStatus(come),
			Departure:  DepartureStatus(leave),
		})
	}
	sort.Slice(rows, func(i, j int) bool { return rows[i].Date.Before(rows[j].Date) })
	return rows
}

type Summary struct {
	PresentDays  int
	LateArrivals int
	EarlyLeaves  int
	TotalHours   float64
}

func Summarize(days []apiclient.TimesheetDay) Summary {
	var s Summary
	for _, d := range days {
		come := ClockTime(d.ComeTime)
		arrival := ArrivalStatus(come)
		if arrival == Missing {
			continue
		}
		s.PresentDays++
		if arrival == Late {
			s.LateArrivals++
		}
		if DepartureStatus(ClockTime(d.LeaveTime)) == Early {
			s.EarlyLeaves++
		}
		s.TotalHours += d.TotalHours.Float()
	}
	return s
}

func parseWorkDay(raw string) (time.Time, bool) {
	raw = strings.TrimSpace(raw)
	if len(raw) >= 10 {
		if t, err := time.Parse("2006-01-02", raw[:10]); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}
