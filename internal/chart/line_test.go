package chart

import (
	"strings"
	"testing"

	"github.com/phillip-england/attendance/internal/apiclient"
)

func TestEmptyGraphFallsBackToTenZeroDays(t *testing.T) {
	line := Build(nil, 1, 400, 200)
	if len(line.Points) != 10 {
		t.Fatalf("expected 10 placeholder points, got %d", len(line.Points))
	}
	if line.Points[0].Label != "11日" || line.Points[9].Label != "20日" {
		t.Fatalf("unexpected labels %q..%q", line.Points[0].Label, line.Points[9].Label)
	}
	for _, p := range line.Points {
		if p.Value != 0 || p.Y != 200-line.Padding {
			t.Fatalf("placeholder point not on the zero line: %+v", p)
		}
	}
}

func TestBuildScalesPercentages(t *testing.T) {
	line := Build([]apiclient.GraphPoint{
		{WorkDay: "2024-05-01", Percentage: 100},
		{WorkDay: "2024-05-02", Percentage: 50},
		{WorkDay: "2024-05-03", Percentage: 140},
	}, 0, 264, 164)
	if line.Points[0].Label != "1日" || line.Points[0].Y != 32 {
		t.Fatalf("unexpected first point %+v", line.Points[0])
	}
	if line.Points[1].Y != 82 || line.Points[1].X != 132 {
		t.Fatalf("unexpected middle point %+v", line.Points[1])
	}
	if line.Points[2].Value != 100 {
		t.Fatalf("value not clamped: %+v", line.Points[2])
	}
	if !strings.HasPrefix(line.Path, "32.0,32.0 132.0,82.0") {
		t.Fatalf("unexpected path %q", line.Path)
	}
	if len(line.Ticks) != 5 {
		t.Fatalf("expected 5 ticks")
	}
}
