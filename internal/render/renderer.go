package render

import (
	"fmt"
	"html"
	"strconv"
	"strings"

	"floorplan/internal/editor"
)

// ============================================================
// Renderer
// ============================================================

const (
	gridStroke  = "#e5e5e5"
	nodeRadius  = 30
	roomColor   = "red"
	hallColor   = "blue"
	edgeStroke  = "black"
	labelColor  = "black"
	nodeLabelFG = "white"
)

type View string

const (
	ViewPlan  View = "plan"
	ViewGraph View = "graph"
)

// ParseView разбирает параметр view; пустая строка - план.
func ParseView(s string) (View, error) {
	switch View(s) {
	case "", ViewPlan:
		return ViewPlan, nil
	case ViewGraph:
		return ViewGraph, nil
	}
	return "", fmt.Errorf("unknown view %q", s)
}

type Renderer struct {
	width    int
	height   int
	gridUnit int
}

func NewRenderer(width, height, gridUnit int) *Renderer {
	if width <= 0 {
		width = editor.DefaultCanvasWidth
	}
	if height <= 0 {
		height = editor.DefaultCanvasHeight
	}
	return &Renderer{width: width, height: height, gridUnit: gridUnit}
}

// Render выбирает представление по view.
func (r *Renderer) Render(g *editor.Graph, view View) (string, error) {
	if view == ViewGraph {
		return r.RenderGraph(g)
	}
	return r.RenderPlan(g)
}

// RenderPlan рисует холст редактора: сетку и прямоугольники с подписями.
func (r *Renderer) RenderPlan(g *editor.Graph) (string, error) {
	if g == nil {
		return "", fmt.Errorf("graph is nil")
	}

	var elements []string
	elements = append(elements, r.renderGrid()...)
	for _, n := range g.Nodes {
		elements = append(elements, r.renderShape(n)...)
	}
	return r.document(elements), nil
}

// RenderGraph рисует граф смежности: узлы в центрах фигур и рёбра между ними.
func (r *Renderer) RenderGraph(g *editor.Graph) (string, error) {
	if g == nil {
		return "", fmt.Errorf("graph is nil")
	}

	centers := make(map[string][2]float64, len(g.Nodes))
	for _, n := range g.Nodes {
		centers[n.ID] = [2]float64{
			float64(n.X) + float64(n.Width)/2,
			float64(n.Y) + float64(n.Height)/2,
		}
	}

	var elements []string
	for _, e := range g.Edges {
		from, ok1 := centers[e.From]
		to, ok2 := centers[e.To]
		if !ok1 || !ok2 {
			continue
		}
		elements = append(elements, fmt.Sprintf(`<line x1="%s" y1="%s" x2="%s" y2="%s" stroke="%s" stroke-width="2" />`,
			formatFloat(from[0]), formatFloat(from[1]), formatFloat(to[0]), formatFloat(to[1]), edgeStroke))
	}

	for _, n := range g.Nodes {
		c := centers[n.ID]
		fill := roomColor
		if n.Type == editor.Hallway {
			fill = hallColor
		}
		elements = append(elements,
			fmt.Sprintf(`<circle id="node-%s" cx="%s" cy="%s" r="%d" fill="%s" />`,
				escape(n.ID), formatFloat(c[0]), formatFloat(c[1]), nodeRadius, fill),
			fmt.Sprintf(`<text x="%s" y="%s" font-size="12" fill="%s" text-anchor="middle" dominant-baseline="middle">%s</text>`,
				formatFloat(c[0]), formatFloat(c[1]), nodeLabelFG, escape(n.ID)),
		)
	}

	return r.document(elements), nil
}

// ============================================================
// Element renderers
// ============================================================

func (r *Renderer) renderGrid() []string {
	if r.gridUnit <= 0 {
		return nil
	}

	var out []string
	for x := 0; x < r.width; x += r.gridUnit {
		out = append(out, fmt.Sprintf(`<line x1="%d" y1="0" x2="%d" y2="%d" stroke="%s" stroke-width="1" />`,
			x, x, r.height, gridStroke))
	}
	for y := 0; y < r.height; y += r.gridUnit {
		out = append(out, fmt.Sprintf(`<line x1="0" y1="%d" x2="%d" y2="%d" stroke="%s" stroke-width="1" />`,
			y, r.width, y, gridStroke))
	}
	return out
}

func (r *Renderer) renderShape(n editor.Node) []string {
	style := editor.DefaultStyle()
	cx := float64(n.X) + float64(n.Width)/2
	cy := float64(n.Y) + float64(n.Height)/2

	return []string{
		fmt.Sprintf(`<rect id="%s" data-type="%s" x="%d" y="%d" width="%d" height="%d" fill="%s" stroke="%s" stroke-width="%d" />`,
			escape(n.ID), n.Type, n.X, n.Y, n.Width, n.Height, style.Fill, style.Stroke, style.StrokeWidth),
		fmt.Sprintf(`<text id="text-%s" x="%s" y="%s" font-size="12" fill="%s" text-anchor="middle" dominant-baseline="middle">%s</text>`,
			escape(n.ID), formatFloat(cx), formatFloat(cy), labelColor, n.Type.Label()),
	}
}

func (r *Renderer) document(elements []string) string {
	var builder strings.Builder
	builder.WriteString(`<?xml version="1.0" encoding="UTF-8"?>` + "\n")
	builder.WriteString(fmt.Sprintf(`<svg xmlns="http://www.w3.org/2000/svg" width="%d" height="%d" viewBox="0 0 %d %d">`,
		r.width, r.height, r.width, r.height))
	builder.WriteString("\n")

	for _, elem := range elements {
		builder.WriteString("  ")
		builder.WriteString(elem)
		builder.WriteString("\n")
	}

	builder.WriteString(`</svg>`)
	return builder.String()
}

func formatFloat(val float64) string {
	return strconv.FormatFloat(val, 'f', -1, 64)
}

func escape(s string) string {
	return html.EscapeString(s)
}
