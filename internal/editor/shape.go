package editor

import (
	"errors"
	"fmt"
)

// ============================================================
// Shape Types
// ============================================================

type ShapeType string

const (
	Room    ShapeType = "room"
	Hallway ShapeType = "hallway"
)

// ParseShapeType проверяет тип фигуры из внешних данных.
func ParseShapeType(s string) (ShapeType, error) {
	switch ShapeType(s) {
	case Room, Hallway:
		return ShapeType(s), nil
	}
	return "", fmt.Errorf("unknown shape type %q", s)
}

// defaultSize возвращает размер новой фигуры по типу. Сторона 50 не кратна
// шагу сетки 20: размер по умолчанию живёт до первого resize.
func (t ShapeType) defaultSize() (width, height int) {
	if t == Hallway {
		return 50, 100
	}
	return 100, 50
}

// Label - подпись фигуры на холсте.
func (t ShapeType) Label() string {
	if t == Hallway {
		return "Hallway"
	}
	return "Room"
}

// ============================================================
// Shape
// ============================================================

type Style struct {
	Fill        string `json:"fill"`
	Stroke      string `json:"stroke"`
	StrokeWidth int    `json:"strokeWidth"`
}

// DefaultStyle - оформление, которое получают новые и загруженные фигуры.
func DefaultStyle() Style {
	return Style{Fill: "white", Stroke: "black", StrokeWidth: 4}
}

type Shape struct {
	ID     string    `json:"id"`
	Type   ShapeType `json:"type"`
	X      int       `json:"x"`
	Y      int       `json:"y"`
	Width  int       `json:"width"`
	Height int       `json:"height"`
	Style
}

func (s Shape) node() Node {
	return Node{
		ID:     s.ID,
		Type:   s.Type,
		X:      s.X,
		Y:      s.Y,
		Width:  s.Width,
		Height: s.Height,
	}
}

// touches - замкнутая проверка пересечения прямоугольников:
// касание по общей границе тоже считается смежностью.
func (s Shape) touches(o Shape) bool {
	touchingX := s.X+s.Width >= o.X && s.X <= o.X+o.Width
	touchingY := s.Y+s.Height >= o.Y && s.Y <= o.Y+o.Height
	return touchingX && touchingY
}

// ============================================================
// Graph
// ============================================================

type Node struct {
	ID     string    `json:"id"`
	Type   ShapeType `json:"type"`
	X      int       `json:"x"`
	Y      int       `json:"y"`
	Width  int       `json:"width"`
	Height int       `json:"height"`
}

type Edge struct {
	From string `json:"from"`
	To   string `json:"to"`
}

// Graph - снимок узлов и рёбер. Nodes == nil означает, что
// в исходных данных не было поля nodes.
type Graph struct {
	Nodes []Node `json:"nodes"`
	Edges []Edge `json:"edges"`
}

// Clone возвращает независимую копию графа.
func (g *Graph) Clone() *Graph {
	if g == nil {
		return nil
	}
	out := &Graph{}
	if g.Nodes != nil {
		out.Nodes = append([]Node{}, g.Nodes...)
	}
	if g.Edges != nil {
		out.Edges = append([]Edge{}, g.Edges...)
	}
	return out
}

// ============================================================
// Errors
// ============================================================

var (
	// ErrInvalidLayoutData - загруженные данные не содержат корректных nodes.
	ErrInvalidLayoutData = errors.New("invalid layout data")
	// ErrEmptyLayout - попытка сохранить пустую раскладку.
	ErrEmptyLayout = errors.New("cannot save an empty layout")
)
