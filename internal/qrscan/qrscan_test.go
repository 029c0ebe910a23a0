package qrscan

import (
	"bytes"
	"context"
	"encoding/base64"
	"errors"
	"image"
	"image/color"
	"image/png"
	"testing"
	"time"

	xdraw "golang.org/x/image/draw"
	"golang.org/x/text/language"

	"github.com/phillip-england/attendance/internal/apiclient"
	"github.com/phillip-england/attendance/internal/geo"
	"github.com/phillip-england/attendance/internal/i18n"
)

func TestBadgeRoundTrip(t *testing.T) {
	raw, err := Badge("E0042", 256)
	if err != nil {
		t.Fatalf("badge: %v", err)
	}
	got, err := DecodeFrame(raw)
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if got != "E0042" {
		t.Fatalf("expected E0042, got %q", got)
	}

	dataURL := "data:image/png;base64," + base64.StdEncoding.EncodeToString(raw)
	if got, err := DecodeFrame([]byte(dataURL)); err != nil || got != "E0042" {
		t.Fatalf("data url decode: %q %v", got, err)
	}
}

func TestDecodeLargeFrameIsDownscaled(t *testing.T) {
	raw, err := Badge("E0077", 400)
	if err != nil {
		t.Fatalf("badge: %v", err)
	}
	small, err := png.Decode(bytes.NewReader(raw))
	if err != nil {
		t.Fatalf("png: %v", err)
	}
	big := image.NewRGBA(image.Rect(0, 0, 2000, 2000))
	xdraw.Draw(big, big.Bounds(), image.NewUniform(color.White), image.Point{}, xdraw.Src)
	xdraw.NearestNeighbor.Scale(big, image.Rect(400, 400, 1600, 1600), small, small.Bounds(), xdraw.Over, nil)

	got, err := DecodeImage(big)
	if err != nil || got != "E0077" {
		t.Fatalf("expected E0077, got %q (%v)", got, err)
	}
}

func TestDecodeBlankFrame(t *testing.T) {
	blank := image.NewGray(image.Rect(0, 0, 64, 64))
	var buf bytes.Buffer
	if err := png.Encode(&buf, blank); err != nil {
		t.Fatalf("encode: %v", err)
	}
	if _, err := DecodeFrame(buf.Bytes()); !errors.Is(err, ErrNoCode) {
		t.Fatalf("expected ErrNoCode, got %v", err)
	}
}

func TestClassify(t *testing.T) {
	cases := map[string]Kind{
		"Welcome, Aziz!":           KindCheckIn,
		"WELCOME back":             KindCheckIn,
		"Get home safely, Aziz":    KindCheckOut,
		"Goodbye!":                 KindCheckOut,
		"Attendance already taken": KindUnknown,
	}
	for msg, want := range cases {
		if got := Classify(msg); got != want {
			t.Fatalf("Classify(%q) = %q, want %q", msg, got, want)
		}
	}
}

type fakeMarker struct {
	calls []apiclient.MarkRequest
	mark  apiclient.QRMark
	err   error
}

func (f *fakeMarker) MarkByQRCode(ctx context.Context, in apiclient.MarkRequest) (*apiclient.QRMark, error) {
	f.calls = append(f.calls, in)
	if f.err != nil {
		return nil, f.err
	}
	m := f.mark
	return &m, nil
}

func TestScannerCycle(t *testing.T) {
	frame, err := Badge("E0042", 256)
	if err != nil {
		t.Fatalf("badge: %v", err)
	}
	now := time.Date(2024, 5, 2, 9, 0, 0, 0, time.UTC)
	k := NewKiosk(5 * time.Second)
	k.now = func() time.Time { return now }

	api := &fakeMarker{mark: apiclient.QRMark{EmployeeID: "E0042", FullName: "Aziz", Message: "Welcome, Aziz!"}}
	s := &Scanner{API: api, Timeout: time.Second}
	p := i18n.NewPrinter(language.English)
	office := geo.LocatorFunc(func(ctx context.Context) (geo.Position, error) {
		return geo.Position{Lat: geo.OfficeLat, Lon: geo.OfficeLon}, nil
	})

	snap, err := s.HandleFrame(context.Background(), k, p, frame, office)
	if err != nil {
		t.Fatalf("handle frame: %v", err)
	}
	if snap.Phase != Showing || snap.Result == nil || snap.Result.Kind != KindCheckIn || snap.Result.FullName != "Aziz" {
		t.Fatalf("unexpected snapshot %+v", snap)
	}
	if len(api.calls) != 1 || api.calls[0].EmployeeID != "E0042" || api.calls[0].Latitude != geo.OfficeLat {
		t.Fatalf("unexpected calls %+v", api.calls)
	}

	// frames during the display window are ignored
	now = now.Add(4 * time.Second)
	if snap, _ := s.HandleFrame(context.Background(), k, p, frame, office); snap.Phase != Showing {
		t.Fatalf("expected still showing, got %s", snap.Phase)
	}
	if len(api.calls) != 1 {
		t.Fatalf("frame during display window was submitted")
	}

	now = now.Add(time.Second)
	snap = k.Snapshot()
	if snap.Phase != Scanning || snap.Result != nil {
		t.Fatalf("expected reset to scanning, got %+v", snap)
	}
}

func TestScannerFailureShowsError(t *testing.T) {
	frame, _ := Badge("E0042", 256)
	k := NewKiosk(time.Second)
	api := &fakeMarker{err: errors.New("boom")}
	s := &Scanner{API: api, Timeout: time.Second}
	p := i18n.NewPrinter(language.English)
	office := geo.LocatorFunc(func(ctx context.Context) (geo.Position, error) {
		return geo.Position{Lat: geo.OfficeLat, Lon: geo.OfficeLon}, nil
	})

	snap, err := s.HandleFrame(context.Background(), k, p, frame, office)
	if err == nil || snap.Phase != Showing || !snap.Result.Failed || snap.Result.Message != "Error creating record" {
		t.Fatalf("unexpected snapshot %+v (%v)", snap, err)
	}
}

func TestScannerNoCodeKeepsScanning(t *testing.T) {
	blank := image.NewGray(image.Rect(0, 0, 32, 32))
	var buf bytes.Buffer
	_ = png.Encode(&buf, blank)
	k := NewKiosk(time.Second)
	api := &fakeMarker{}
	s := &Scanner{API: api, Timeout: time.Second}

	snap, err := s.HandleFrame(context.Background(), k, i18n.NewPrinter(language.English), buf.Bytes(), nil)
	if !errors.Is(err, ErrNoCode) || snap.Phase != Scanning || len(api.calls) != 0 {
		t.Fatalf("unexpected result %+v %v", snap, err)
	}
}
