package svgimport

import (
	"encoding/xml"
	"errors"
	"fmt"
	"io"
	"math"
	"strings"

	"floorplan/internal/editor"
)

// ============================================================
// XML Structures
// ============================================================

type Rect struct {
	ID       string  `xml:"id,attr"`
	Class    string  `xml:"class,attr"`
	DataType string  `xml:"data-type,attr"`
	X        float64 `xml:"x,attr"`
	Y        float64 `xml:"y,attr"`
	Width    float64 `xml:"width,attr"`
	Height   float64 `xml:"height,attr"`
}

// pathElement - <path>, который импортируется, если это прямоугольник.
type pathElement struct {
	ID       string `xml:"id,attr"`
	Class    string `xml:"class,attr"`
	DataType string `xml:"data-type,attr"`
	D        string `xml:"d,attr"`
}

var ErrNoShapes = errors.New("svg contains no room or hallway rects")

// ============================================================
// Parser
// ============================================================

// ParseRects собирает все <rect> документа, включая вложенные в <g>,
// и прямоугольные <path>.
func ParseRects(r io.Reader) ([]Rect, error) {
	decoder := xml.NewDecoder(r)
	var rects []Rect
	sawRoot := false

	for {
		tok, err := decoder.Token()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("decode svg: %w", err)
		}

		start, ok := tok.(xml.StartElement)
		if !ok {
			continue
		}
		if !sawRoot {
			if start.Name.Local != "svg" {
				return nil, fmt.Errorf("decode svg: root element is <%s>", start.Name.Local)
			}
			sawRoot = true
			continue
		}
		switch start.Name.Local {
		case "rect":
			var rect Rect
			if err := decoder.DecodeElement(&rect, &start); err != nil {
				return nil, fmt.Errorf("decode rect: %w", err)
			}
			rects = append(rects, rect)

		case "path":
			var path pathElement
			if err := decoder.DecodeElement(&path, &start); err != nil {
				return nil, fmt.Errorf("decode path: %w", err)
			}
			if rect, ok := path.rect(); ok {
				rects = append(rects, rect)
			}
		}
	}

	if !sawRoot {
		return nil, fmt.Errorf("decode svg: empty document")
	}
	return rects, nil
}

func (p pathElement) rect() (Rect, bool) {
	points, err := ParsePath(p.D)
	if err != nil {
		return Rect{}, false
	}
	x, y, w, h, ok := pathRect(points)
	if !ok {
		return Rect{}, false
	}
	return Rect{ID: p.ID, Class: p.Class, DataType: p.DataType, X: x, Y: y, Width: w, Height: h}, true
}

// Import превращает SVG в граф с узлами, пригодный для LoadShapes.
// Рёбра не вычисляются: их строит редактор при экспорте.
func Import(r io.Reader) (*editor.Graph, error) {
	rects, err := ParseRects(r)
	if err != nil {
		return nil, err
	}

	type pending struct {
		rect Rect
		kind editor.ShapeType
	}
	var shapes []pending
	maxID := 0
	used := map[string]bool{}
	for _, rect := range rects {
		kind := classify(rect)
		if kind == "" {
			continue
		}
		shapes = append(shapes, pending{rect: rect, kind: kind})
		if n, ok := editor.ParseShapeID(rect.ID); ok {
			maxID = max(maxID, n)
		}
	}
	if len(shapes) == 0 {
		return nil, ErrNoShapes
	}

	g := &editor.Graph{Nodes: make([]editor.Node, 0, len(shapes)), Edges: []editor.Edge{}}
	for _, p := range shapes {
		id := p.rect.ID
		if _, ok := editor.ParseShapeID(id); !ok || used[id] {
			maxID++
			id = editor.ShapeID(maxID)
		}
		used[id] = true

		g.Nodes = append(g.Nodes, editor.Node{
			ID:     id,
			Type:   p.kind,
			X:      int(math.Round(p.rect.X)),
			Y:      int(math.Round(p.rect.Y)),
			Width:  int(math.Round(p.rect.Width)),
			Height: int(math.Round(p.rect.Height)),
		})
	}
	return g, nil
}

// classify определяет тип фигуры: data-type, затем id и class.
func classify(r Rect) editor.ShapeType {
	if t, err := editor.ParseShapeType(strings.ToLower(strings.TrimSpace(r.DataType))); err == nil {
		return t
	}
	for _, s := range []string{r.ID, r.Class} {
		s = strings.ToLower(s)
		switch {
		case strings.Contains(s, "hallway"), strings.Contains(s, "corridor"):
			return editor.Hallway
		case strings.Contains(s, "room"):
			return editor.Room
		}
	}
	return ""
}
