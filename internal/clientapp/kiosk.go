package clientapp

import (
	"errors"
	"io"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/phillip-england/attendance/internal/geo"
	"github.com/phillip-england/attendance/internal/i18n"
	"github.com/phillip-england/attendance/internal/qrscan"
	"github.com/phillip-england/attendance/internal/session"
)

const maxFrameBytes = 8 << 20

// kioskRegistry holds one kiosk screen per signed-in session. Entries live
// as long as their session and are swept on access once it has expired.
type kioskRegistry struct {
	mu      sync.Mutex
	display time.Duration
	now     func() time.Time
	kiosks  map[string]kioskEntry
}

type kioskEntry struct {
	kiosk   *qrscan.Kiosk
	expires time.Time
}

func newKioskRegistry(display time.Duration, now func() time.Time) *kioskRegistry {
	return &kioskRegistry{display: display, now: now, kiosks: map[string]kioskEntry{}}
}

func (k *kioskRegistry) get(sess *session.Session) *qrscan.Kiosk {
	k.mu.Lock()
	defer k.mu.Unlock()
	k.sweepLocked(k.now())
	e, ok := k.kiosks[sess.ID]
	if !ok {
		e.kiosk = qrscan.NewKiosk(k.display)
	}
	e.expires = sess.ExpiresAt
	k.kiosks[sess.ID] = e
	return e.kiosk
}

func (k *kioskRegistry) drop(id string) {
	k.mu.Lock()
	defer k.mu.Unlock()
	delete(k.kiosks, id)
}

func (k *kioskRegistry) sweepLocked(now time.Time) {
	for id, e := range k.kiosks {
		if !now.Before(e.expires) {
			delete(k.kiosks, id)
		}
	}
}

func (s *server) kioskPage(w http.ResponseWriter, r *http.Request) {
	sess := currentSession(r)
	data := s.newPageData(r, sess, "QR kiosk")
	data.Kiosk = s.kiosks.get(sess).Snapshot()
	data.ScanInterval = qrscan.ScanInterval.Milliseconds()
	data.GeoTimeout = s.geoTimeout.Milliseconds()
	s.render(w, r, s.kioskTmpl, data)
}

func (s *server) kioskState(w http.ResponseWriter, r *http.Request) {
	sess := currentSession(r)
	writeJSON(w, http.StatusOK, s.kiosks.get(sess).Snapshot())
}

// kioskFrame accepts one camera frame as a multipart "frame" file, or as the
// raw request body, together with the kiosk's last known position.
func (s *server) kioskFrame(w http.ResponseWriter, r *http.Request) {
	sess := currentSession(r)
	p := i18n.FromRequest(r)
	r.Body = http.MaxBytesReader(w, r.Body, maxFrameBytes)

	frame, err := readFrame(r)
	if err != nil || len(frame) == 0 {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": p.Sprintf(i18n.QRNotDecoded)})
		return
	}

	scanner := qrscan.Scanner{API: s.apiFor(sess), Timeout: s.geoTimeout}
	snap, err := scanner.HandleFrame(r.Context(), s.kiosks.get(sess), p, frame, formLocator(r))
	switch {
	case err == nil:
		if snap.Result != nil {
			s.logger.Info("qr attendance marked",
				slog.String("employee_id", snap.Result.EmployeeID),
				slog.String("kind", string(snap.Result.Kind)),
			)
		}
	case errors.Is(err, qrscan.ErrNoCode):
	default:
		s.logger.Warn("qr attendance failed", slog.Any("error", err))
	}
	writeJSON(w, http.StatusOK, snap)
}

func readFrame(r *http.Request) ([]byte, error) {
	if err := r.ParseMultipartForm(maxFrameBytes); err == nil {
		file, _, err := r.FormFile("frame")
		if err != nil {
			return nil, err
		}
		defer file.Close()
		return io.ReadAll(file)
	} else if !errors.Is(err, http.ErrNotMultipart) {
		return nil, err
	}
	return io.ReadAll(r.Body)
}

// formLocator reads the position the kiosk posted alongside the frame, from
// the form fields or the query string.
func formLocator(r *http.Request) geo.Locator {
	_ = r.ParseForm()
	return geo.FromForm(r.Form)
}
