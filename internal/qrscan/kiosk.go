package qrscan

import (
	"context"
	"strings"
	"sync"
	"time"

	"golang.org/x/text/message"

	"github.com/phillip-england/attendance/internal/apiclient"
	"github.com/phillip-england/attendance/internal/geo"
	"github.com/phillip-england/attendance/internal/i18n"
)

const (
	DefaultDisplay = 5 * time.Second
	ScanInterval   = 500 * time.Millisecond
)

type Kind string

const (
	KindCheckIn  Kind = "check-in"
	KindCheckOut Kind = "check-out"
	KindUnknown  Kind = ""
)

// Classify maps the server greeting to arrival or departure.
func Classify(msg string) Kind {
	lower := strings.ToLower(msg)
	switch {
	case strings.Contains(lower, "welcome"):
		return KindCheckIn
	case strings.Contains(lower, "get home safely"), strings.Contains(lower, "goodbye"):
		return KindCheckOut
	}
	return KindUnknown
}

type Phase string

const (
	Scanning   Phase = "scanning"
	Processing Phase = "processing"
	Showing    Phase = "showing"
)

type Result struct {
	EmployeeID string `json:"employee_id"`
	FullName   string `json:"full_name"`
	Message    string `json:"message"`
	Kind       Kind   `json:"kind"`
	Failed     bool   `json:"failed"`
}

type Snapshot struct {
	Phase    Phase     `json:"phase"`
	Result   *Result   `json:"result,omitempty"`
	ResumeAt time.Time `json:"resume_at,omitzero"`
}

// Kiosk is the scan state of one kiosk screen. Frames are only accepted while
// scanning; a result stays on screen for the display window, after which the
// kiosk goes back to scanning and forgets it.
type Kiosk struct {
	mu      sync.Mutex
	phase   Phase
	result  *Result
	until   time.Time
	display time.Duration
	now     func() time.Time
}

func NewKiosk(display time.Duration) *Kiosk {
	if display <= 0 {
		display = DefaultDisplay
	}
	return &Kiosk{phase: Scanning, display: display, now: time.Now}
}

func (k *Kiosk) Snapshot() Snapshot {
	k.mu.Lock()
	defer k.mu.Unlock()
	k.expireLocked()
	return k.snapshotLocked()
}

func (k *Kiosk) begin() bool {
	k.mu.Lock()
	defer k.mu.Unlock()
	k.expireLocked()
	if k.phase != Scanning {
		return false
	}
	k.phase = Processing
	return true
}

func (k *Kiosk) abort() {
	k.mu.Lock()
	defer k.mu.Unlock()
	k.phase = Scanning
}

func (k *Kiosk) finish(r Result) Snapshot {
	k.mu.Lock()
	defer k.mu.Unlock()
	k.phase = Showing
	k.result = &r
	k.until = k.now().Add(k.display)
	return k.snapshotLocked()
}

func (k *Kiosk) expireLocked() {
	if k.phase == Showing && !k.now().Before(k.until) {
		k.phase = Scanning
		k.result = nil
		k.until = time.Time{}
	}
}

func (k *Kiosk) snapshotLocked() Snapshot {
	s := Snapshot{Phase: k.phase}
	if k.result != nil {
		r := *k.result
		s.Result = &r
	}
	if k.phase == Showing {
		s.ResumeAt = k.until
	}
	return s
}

type Marker interface {
	MarkByQRCode(ctx context.Context, in apiclient.MarkRequest) (*apiclient.QRMark, error)
}

// Scanner ties a kiosk to the backend.
type Scanner struct {
	API     Marker
	Timeout time.Duration
}

// HandleFrame decodes frame and, when it carries an employee id, submits the
// mark with the position from loc. Frames arriving outside the scanning phase
// are ignored and only the current snapshot is returned.
func (s *Scanner) HandleFrame(ctx context.Context, k *Kiosk, p *message.Printer, frame []byte, loc geo.Locator) (Snapshot, error) {
	if !k.begin() {
		return k.Snapshot(), nil
	}
	employeeID, err := DecodeFrame(frame)
	if err != nil {
		k.abort()
		return k.Snapshot(), err
	}

	pos, err := geo.Acquire(ctx, loc, s.Timeout)
	if err != nil {
		return k.finish(Result{EmployeeID: employeeID, Message: p.Sprintf(i18n.QRRecordFailed), Failed: true}), err
	}
	mark, err := s.API.MarkByQRCode(ctx, apiclient.MarkRequest{EmployeeID: employeeID, Latitude: pos.Lat, Longitude: pos.Lon})
	if err != nil {
		return k.finish(Result{EmployeeID: employeeID, Message: p.Sprintf(i18n.QRRecordFailed), Failed: true}), err
	}
	return k.finish(Result{
		EmployeeID: mark.EmployeeID,
		FullName:   mark.FullName,
		Message:    mark.Message,
		Kind:       Classify(mark.Message),
	}), nil
}
