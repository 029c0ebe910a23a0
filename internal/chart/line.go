// Package chart lays out the admin attendance line chart as SVG coordinates.
package chart

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/phillip-england/attendance/internal/apiclient"
)

const emptyDays = 10

type Point struct {
	Label string
	Value float64
	X     float64
	Y     float64
}

type Line struct {
	Width   float64
	Height  float64
	Padding float64
	Points  []Point
	// Path is the polyline "points" attribute.
	Path  string
	Ticks []Tick
}

type Tick struct {
	Label string
	Y     float64
}

// Labels returns the ten placeholder day labels drawn when the graph is empty.
func Labels(interval int) []string {
	start := 1 + interval*emptyDays
	out := make([]string, emptyDays)
	for i := range out {
		out[i] = fmt.Sprintf("%d日", start+i)
	}
	return out
}

// Build places the percentages (0..100) on a width x height canvas.
func Build(points []apiclient.GraphPoint, interval int, width, height float64) Line {
	const padding = 32
	line := Line{Width: width, Height: height, Padding: padding}

	if len(points) == 0 {
		for _, label := range Labels(interval) {
			line.Points = append(line.Points, Point{Label: label})
		}
	} else {
		for _, p := range points {
			line.Points = append(line.Points, Point{Label: dayLabel(p.WorkDay), Value: clamp(p.Percentage)})
		}
	}

	plotW := width - 2*padding
	plotH := height - 2*padding
	step := 0.0
	if n := len(line.Points); n > 1 {
		step = plotW / float64(n-1)
	}
	coords := make([]string, 0, len(line.Points))
	for i := range line.Points {
		p := &line.Points[i]
		p.X = padding + step*float64(i)
		if len(line.Points) == 1 {
			p.X = padding + plotW/2
		}
		p.Y = padding + plotH*(1-p.Value/100)
		coords = append(coords, fmt.Sprintf("%.1f,%.1f", p.X, p.Y))
	}
	line.Path = strings.Join(coords, " ")

	for _, v := range []float64{0, 25, 50, 75, 100} {
		line.Ticks = append(line.Ticks, Tick{Label: strconv.Itoa(int(v)) + "%", Y: padding + plotH*(1-v/100)})
	}
	return line
}

func dayLabel(workDay string) string {
	if len(workDay) >= 10 {
		if t, err := time.Parse("2006-01-02", workDay[:10]); err == nil {
			return fmt.Sprintf("%d日", t.Day())
		}
	}
	return workDay
}

func clamp(v float64) float64 {
	switch {
	case v < 0:
		return 0
	case v > 100:
		return 100
	}
	return v
}
