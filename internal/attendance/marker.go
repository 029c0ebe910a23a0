// Package attendance implements the employee-side marking flow and the
// reporting helpers (timesheet intervals, punctuality, the admin table).
package attendance

import (
	"context"
	"errors"
	"time"

	"golang.org/x/text/message"

	"github.com/phillip-england/attendance/internal/apiclient"
	"github.com/phillip-england/attendance/internal/geo"
	"github.com/phillip-england/attendance/internal/i18n"
)

// RadiusErrorText is what the backend answers when it disagrees about the office radius.
const RadiusErrorText = "distance from office is greater than office radius"

const NoTime = "--:--"

var ErrNotCheckedIn = errors.New("no check-in recorded")

type API interface {
	CheckInByPhone(ctx context.Context, in apiclient.MarkRequest) (*apiclient.Mark, error)
	CheckOutByPhone(ctx context.Context, in apiclient.MarkRequest) (*apiclient.Mark, error)
}

type Tone string

const (
	ToneNeutral Tone = "neutral"
	ToneSuccess Tone = "success"
	ToneError   Tone = "error"
)

// State is today's attendance as shown on the employee dashboard.
type State struct {
	CheckInTime  string
	CheckOutTime string
	TotalHours   string
}

func (s State) CheckedIn() bool {
	return s.CheckInTime != "" && s.CheckInTime != NoTime
}

type Outcome struct {
	Message    string
	Tone       Tone
	Sent       bool
	DistanceKM float64
	Err        error
}

type Marker struct {
	API     API
	Gate    geo.Gate
	Timeout time.Duration
}

func (m *Marker) CheckIn(ctx context.Context, p *message.Printer, st *State, employeeID string, loc geo.Locator) Outcome {
	pos, out, ok := m.locate(ctx, p, loc, i18n.CheckInOutOfRange)
	if !ok {
		return out
	}

	mark, err := m.API.CheckInByPhone(ctx, apiclient.MarkRequest{EmployeeID: employeeID, Latitude: pos.Lat, Longitude: pos.Lon})
	if err != nil {
		return failure(p, err, i18n.CheckInFailed, out.DistanceKM)
	}
	st.CheckInTime = ClockTime(mark.ComeTime)
	if mark.LeaveTime != "" {
		st.CheckOutTime = ClockTime(mark.LeaveTime)
	}
	return Outcome{
		Message:    p.Sprintf(i18n.CheckedIn, st.CheckInTime),
		Tone:       ToneSuccess,
		Sent:       true,
		DistanceKM: out.DistanceKM,
	}
}

// CheckOut refuses to send anything until st holds a check-in time.
func (m *Marker) CheckOut(ctx context.Context, p *message.Printer, st *State, employeeID string, loc geo.Locator) Outcome {
	if !st.CheckedIn() {
		return Outcome{Message: p.Sprintf(i18n.CheckInFirst), Tone: ToneError, Err: ErrNotCheckedIn}
	}
	pos, out, ok := m.locate(ctx, p, loc, i18n.CheckOutOutOfRange)
	if !ok {
		return out
	}

	mark, err := m.API.CheckOutByPhone(ctx, apiclient.MarkRequest{EmployeeID: employeeID, Latitude: pos.Lat, Longitude: pos.Lon})
	if err != nil {
		return failure(p, err, i18n.CheckOutFailed, out.DistanceKM)
	}
	st.CheckOutTime = ClockTime(mark.LeaveTime)
	st.TotalHours = Hours(mark.TotalHours)
	return Outcome{
		Message:    p.Sprintf(i18n.CheckedOut, st.CheckOutTime),
		Tone:       ToneSuccess,
		Sent:       true,
		DistanceKM: out.DistanceKM,
	}
}

func (m *Marker) locate(ctx context.Context, p *message.Printer, loc geo.Locator, outOfRange string) (geo.Position, Outcome, bool) {
	pos, err := geo.Acquire(ctx, loc, m.Timeout)
	if err != nil {
		key := i18n.GenericFailure
		switch {
		case errors.Is(err, geo.ErrUnsupported):
			key = i18n.GeoUnsupported
		case geo.Unavailable(err):
			key = i18n.GeoUnavailable
		}
		return pos, Outcome{Message: p.Sprintf(key), Tone: ToneError, Err: err}, false
	}
	d, err := m.Gate.Check(pos)
	if err != nil {
		return pos, Outcome{Message: p.Sprintf(outOfRange, d), Tone: ToneError, DistanceKM: d, Err: err}, false
	}
	return pos, Outcome{DistanceKM: d}, true
}

func failure(p *message.Printer, err error, fallbackKey string, distance float64) Outcome {
	tone := ToneError
	var apiErr *apiclient.Error
	if errors.As(err, &apiErr) && apiErr.Message != RadiusErrorText {
		tone = ToneNeutral
	}
	return Outcome{
		Message:    apiclient.Message(err, p.Sprintf(fallbackKey)),
		Tone:       tone,
		Sent:       true,
		DistanceKM: distance,
		Err:        err,
	}
}

// Seed replaces st with the backend's dashboard summary.
func Seed(st *State, mark *apiclient.Mark) {
	if mark == nil {
		return
	}
	st.CheckInTime = ClockTime(mark.ComeTime)
	st.CheckOutTime = ClockTime(mark.LeaveTime)
	st.TotalHours = Hours(mark.TotalHours)
}

var clockLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
	"2006-01-02 15:04",
	"15:04:05",
	"15:04",
}

// ClockTime renders a backend time value as HH:MM, or NoTime when empty.
func ClockTime(raw apiclient.Text) string {
	s := raw.String()
	if s == "" {
		return NoTime
	}
	for _, layout := range clockLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t.Format("15:04")
		}
	}
	return s
}

// Hours renders a total-hours value, or NoTime when empty.
func Hours(raw apiclient.Text) string {
	if raw == "" {
		return NoTime
	}
	return raw.String()
}
