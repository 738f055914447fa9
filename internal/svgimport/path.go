package svgimport

import (
	"fmt"
	"math"
	"regexp"
	"strconv"
	"strings"
)

// ============================================================
// Path Parser
// ============================================================

type Point struct {
	X, Y float64
}

var pathCommand = regexp.MustCompile(`([MmLlHhVvZz])([^MmLlHhVvZz]*)`)

// ParsePath парсит SVG path в список точек. Поддерживаются только
// прямые сегменты: M, L, H, V, Z (и относительные варианты).
func ParsePath(d string) ([]Point, error) {
	d = strings.TrimSpace(d)
	if d == "" {
		return nil, fmt.Errorf("empty path")
	}

	var points []Point
	var cur Point

	for _, match := range pathCommand.FindAllStringSubmatch(d, -1) {
		cmd := match[1]
		coords := parseCoords(match[2])

		switch cmd {
		case "M", "L":
			// повторные пары после M трактуются как L
			for i := 0; i+1 < len(coords); i += 2 {
				cur = Point{X: coords[i], Y: coords[i+1]}
				points = append(points, cur)
			}

		case "m", "l":
			for i := 0; i+1 < len(coords); i += 2 {
				cur = Point{X: cur.X + coords[i], Y: cur.Y + coords[i+1]}
				points = append(points, cur)
			}

		case "H", "h", "V", "v":
			for _, c := range coords {
				switch cmd {
				case "H":
					cur.X = c
				case "h":
					cur.X += c
				case "V":
					cur.Y = c
				case "v":
					cur.Y += c
				}
				points = append(points, cur)
			}

		case "Z", "z":
			if len(points) > 0 {
				cur = points[0]
				points = append(points, cur)
			}
		}
	}

	if len(points) == 0 {
		return nil, fmt.Errorf("path %q has no line segments", d)
	}
	return points, nil
}

func parseCoords(s string) []float64 {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil
	}

	parts := strings.Fields(strings.ReplaceAll(s, ",", " "))
	coords := make([]float64, 0, len(parts))
	for _, part := range parts {
		if val, err := strconv.ParseFloat(part, 64); err == nil {
			coords = append(coords, val)
		}
	}
	return coords
}

// pathRect возвращает рамку контура, если он - прямоугольник,
// выровненный по осям: все сегменты горизонтальные или вертикальные
// и все точки лежат на углах рамки.
func pathRect(points []Point) (x, y, width, height float64, ok bool) {
	if len(points) < 4 {
		return 0, 0, 0, 0, false
	}

	minX, minY := math.Inf(1), math.Inf(1)
	maxX, maxY := math.Inf(-1), math.Inf(-1)
	for _, p := range points {
		minX, maxX = math.Min(minX, p.X), math.Max(maxX, p.X)
		minY, maxY = math.Min(minY, p.Y), math.Max(maxY, p.Y)
	}
	if maxX-minX <= 0 || maxY-minY <= 0 {
		return 0, 0, 0, 0, false
	}

	corners := map[Point]bool{}
	for i, p := range points {
		onX := almostEqual(p.X, minX) || almostEqual(p.X, maxX)
		onY := almostEqual(p.Y, minY) || almostEqual(p.Y, maxY)
		if !onX || !onY {
			return 0, 0, 0, 0, false
		}
		corners[Point{X: snapTo(p.X, minX, maxX), Y: snapTo(p.Y, minY, maxY)}] = true

		if i > 0 {
			prev := points[i-1]
			if !almostEqual(prev.X, p.X) && !almostEqual(prev.Y, p.Y) {
				return 0, 0, 0, 0, false
			}
		}
	}
	if len(corners) != 4 {
		return 0, 0, 0, 0, false
	}
	return minX, minY, maxX - minX, maxY - minY, true
}

func almostEqual(a, b float64) bool {
	return math.Abs(a-b) < 1e-6
}

func snapTo(v, lo, hi float64) float64 {
	if almostEqual(v, lo) {
		return lo
	}
	return hi
}
