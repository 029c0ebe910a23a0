// Package geo holds the office radius check used before an attendance mark is
// sent, and the plumbing that turns a browser-reported fix into a Position.
package geo

import (
	"context"
	"errors"
	"fmt"
	"math"
	"net/url"
	"strconv"
	"strings"
	"time"
)

const (
	EarthRadiusKM = 6371.0

	OfficeLat      = 41.3171712
	OfficeLon      = 69.3108736
	OfficeRadiusKM = 1.0

	DefaultTimeout = 5 * time.Second
)

var (
	ErrUnsupported     = errors.New("geolocation is not supported")
	ErrDenied          = errors.New("geolocation permission denied")
	ErrTimeout         = errors.New("geolocation timed out")
	ErrInvalidPosition = errors.New("invalid position")
	ErrOutOfRange      = errors.New("outside office radius")
)

type Position struct {
	Lat      float64
	Lon      float64
	Accuracy float64
}

// Haversine returns the great-circle distance in kilometres.
func Haversine(lat1, lon1, lat2, lon2 float64) float64 {
	dLat := toRad(lat2 - lat1)
	dLon := toRad(lon2 - lon1)
	a := math.Sin(dLat/2)*math.Sin(dLat/2) +
		math.Cos(toRad(lat1))*math.Cos(toRad(lat2))*math.Sin(dLon/2)*math.Sin(dLon/2)
	c := 2 * math.Atan2(math.Sqrt(a), math.Sqrt(1-a))
	return EarthRadiusKM * c
}

func Distance(a, b Position) float64 {
	return Haversine(a.Lat, a.Lon, b.Lat, b.Lon)
}

func toRad(deg float64) float64 {
	return deg * math.Pi / 180
}

// RangeError reports how far a position was from the office.
type RangeError struct {
	DistanceKM float64
	RadiusKM   float64
}

func (e *RangeError) Error() string {
	return fmt.Sprintf("%.2f km from office, radius %.2f km", e.DistanceKM, e.RadiusKM)
}

func (e *RangeError) Unwrap() error { return ErrOutOfRange }

type Gate struct {
	Office   Position
	RadiusKM float64
}

func DefaultGate() Gate {
	return Gate{Office: Position{Lat: OfficeLat, Lon: OfficeLon}, RadiusKM: OfficeRadiusKM}
}

// Check returns the distance to the office and a *RangeError when it exceeds the radius.
func (g Gate) Check(p Position) (float64, error) {
	d := Distance(p, g.Office)
	if d > g.RadiusKM {
		return d, &RangeError{DistanceKM: d, RadiusKM: g.RadiusKM}
	}
	return d, nil
}

type Locator interface {
	Locate(ctx context.Context) (Position, error)
}

type LocatorFunc func(ctx context.Context) (Position, error)

func (f LocatorFunc) Locate(ctx context.Context) (Position, error) { return f(ctx) }

// Acquire asks loc for a position and gives up after timeout.
func Acquire(ctx context.Context, loc Locator, timeout time.Duration) (Position, error) {
	if loc == nil {
		return Position{}, ErrUnsupported
	}
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	type result struct {
		pos Position
		err error
	}
	ch := make(chan result, 1)
	go func() {
		pos, err := loc.Locate(ctx)
		ch <- result{pos, err}
	}()

	select {
	case <-ctx.Done():
		if errors.Is(ctx.Err(), context.DeadlineExceeded) {
			return Position{}, ErrTimeout
		}
		return Position{}, ctx.Err()
	case res := <-ch:
		if res.err != nil {
			return Position{}, res.err
		}
		if err := validate(res.pos); err != nil {
			return Position{}, err
		}
		return res.pos, nil
	}
}

// Unavailable reports whether err means no position could be obtained at all.
func Unavailable(err error) bool {
	return errors.Is(err, ErrUnsupported) || errors.Is(err, ErrDenied) ||
		errors.Is(err, ErrTimeout) || errors.Is(err, ErrInvalidPosition)
}

func validate(p Position) error {
	if math.IsNaN(p.Lat) || math.IsNaN(p.Lon) || p.Lat < -90 || p.Lat > 90 || p.Lon < -180 || p.Lon > 180 {
		return fmt.Errorf("%w: %v,%v", ErrInvalidPosition, p.Lat, p.Lon)
	}
	return nil
}

// Reported is a fix the browser already resolved and posted with a form.
type Reported struct {
	pos Position
	err error
}

// FromForm reads lat, lon, accuracy and geo_error (unsupported, denied or timeout).
func FromForm(values url.Values) Reported {
	switch strings.ToLower(strings.TrimSpace(values.Get("geo_error"))) {
	case "":
	case "unsupported":
		return Reported{err: ErrUnsupported}
	case "timeout":
		return Reported{err: ErrTimeout}
	default:
		return Reported{err: ErrDenied}
	}

	lat, latErr := strconv.ParseFloat(strings.TrimSpace(values.Get("lat")), 64)
	lon, lonErr := strconv.ParseFloat(strings.TrimSpace(values.Get("lon")), 64)
	if latErr != nil || lonErr != nil {
		return Reported{err: ErrDenied}
	}
	acc, _ := strconv.ParseFloat(strings.TrimSpace(values.Get("accuracy")), 64)
	return Reported{pos: Position{Lat: lat, Lon: lon, Accuracy: acc}}
}

func (r Reported) Locate(ctx context.Context) (Position, error) {
	if err := ctx.Err(); err != nil {
		return Position{}, err
	}
	return r.pos, r.err
}
