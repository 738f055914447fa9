// Package editor holds the shape-state model of a floor-plan editing session
// and the adjacency graph derived from it.
package editor

import (
	"fmt"
	"math/rand/v2"
	"slices"
)

// ============================================================
// Shape Store
// ============================================================

const (
	DefaultCanvasWidth  = 800
	DefaultCanvasHeight = 600
)

// Store - состояние одной сессии редактирования. Не потокобезопасен:
// владелец сессии сам упорядочивает вызовы.
type Store struct {
	gridUnit     int
	canvasWidth  int
	canvasHeight int
	rng          Rand

	shapes   []Shape
	counter  int
	selected string
	graph    *Graph
}

type Option func(*Store)

func WithGridUnit(unit int) Option {
	return func(s *Store) {
		if unit > 0 {
			s.gridUnit = unit
		}
	}
}

func WithCanvas(width, height int) Option {
	return func(s *Store) {
		if width > 0 && height > 0 {
			s.canvasWidth = width
			s.canvasHeight = height
		}
	}
}

func WithRand(rng Rand) Option {
	return func(s *Store) {
		if rng != nil {
			s.rng = rng
		}
	}
}

func NewStore(opts ...Option) *Store {
	s := &Store{
		gridUnit:     DefaultGridUnit,
		canvasWidth:  DefaultCanvasWidth,
		canvasHeight: DefaultCanvasHeight,
		rng:          rand.New(rand.NewPCG(rand.Uint64(), rand.Uint64())),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *Store) GridUnit() int { return s.gridUnit }

// Shapes возвращает копию фигур в порядке хранения.
func (s *Store) Shapes() []Shape {
	return append([]Shape{}, s.shapes...)
}

func (s *Store) Len() int { return len(s.shapes) }

func (s *Store) IsEmpty() bool { return len(s.shapes) == 0 }

// Shape ищет фигуру по id.
func (s *Store) Shape(id string) (Shape, bool) {
	if i := s.index(id); i >= 0 {
		return s.shapes[i], true
	}
	return Shape{}, false
}

func (s *Store) index(id string) int {
	return slices.IndexFunc(s.shapes, func(sh Shape) bool { return sh.ID == id })
}

// ============================================================
// Mutations
// ============================================================

// AddShape создаёт фигуру в случайной точке сетки внутри холста.
func (s *Store) AddShape(t ShapeType) Shape {
	width, height := t.defaultSize()
	s.counter++
	shape := Shape{
		ID:     ShapeID(s.counter),
		Type:   t,
		X:      ClampedRandomGridPosition(s.canvasWidth, width, s.gridUnit, s.rng),
		Y:      ClampedRandomGridPosition(s.canvasHeight, height, s.gridUnit, s.rng),
		Width:  width,
		Height: height,
		Style:  DefaultStyle(),
	}
	s.shapes = append(s.shapes, shape)
	s.selected = ""
	return shape
}

// MoveShape переносит фигуру. Отсутствующий id - не ошибка: перетаскивание
// может прийти после удаления фигуры.
func (s *Store) MoveShape(id string, x, y float64) {
	i := s.index(id)
	if i < 0 {
		return
	}
	s.shapes[i].X = SnapToGrid(x, s.gridUnit)
	s.shapes[i].Y = SnapToGrid(y, s.gridUnit)
}

// ResizeShape задаёт новые границы фигуры; ширина и высота не меньше шага сетки.
// Отсутствующий id игнорируется так же, как в MoveShape.
func (s *Store) ResizeShape(id string, x, y, width, height float64) {
	i := s.index(id)
	if i < 0 {
		return
	}
	sh := &s.shapes[i]
	sh.X = SnapToGrid(x, s.gridUnit)
	sh.Y = SnapToGrid(y, s.gridUnit)
	sh.Width = max(s.gridUnit, SnapToGrid(width, s.gridUnit))
	sh.Height = max(s.gridUnit, SnapToGrid(height, s.gridUnit))
}

func (s *Store) DeleteShape(id string) {
	i := s.index(id)
	if i < 0 {
		return
	}
	s.shapes = slices.Delete(s.shapes, i, i+1)
	if s.selected == id {
		s.selected = ""
	}
}

// Clear очищает фигуры, выделение и производный граф.
func (s *Store) Clear() {
	s.shapes = nil
	s.selected = ""
	s.graph = nil
}

// LoadShapes заменяет содержимое стора узлами загруженного графа.
// Геометрия сохраняется как есть: к сетке её приводят следующие move/resize.
// При ошибке стор не меняется.
func (s *Store) LoadShapes(data *Graph) error {
	if data == nil || data.Nodes == nil {
		return fmt.Errorf("%w: nodes missing", ErrInvalidLayoutData)
	}

	shapes := make([]Shape, 0, len(data.Nodes))
	seen := make(map[string]struct{}, len(data.Nodes))
	counter := 0
	for _, n := range data.Nodes {
		t, err := ParseShapeType(string(n.Type))
		if err != nil {
			return fmt.Errorf("%w: node %q: %v", ErrInvalidLayoutData, n.ID, err)
		}
		if n.ID == "" {
			return fmt.Errorf("%w: node without id", ErrInvalidLayoutData)
		}
		if _, dup := seen[n.ID]; dup {
			return fmt.Errorf("%w: duplicate node id %q", ErrInvalidLayoutData, n.ID)
		}
		seen[n.ID] = struct{}{}

		if num, ok := ParseShapeID(n.ID); ok && num > counter {
			counter = num
		}

		if n.Width <= 0 || n.Height <= 0 {
			return fmt.Errorf("%w: node %q has size %dx%d", ErrInvalidLayoutData, n.ID, n.Width, n.Height)
		}

		shapes = append(shapes, Shape{
			ID:     n.ID,
			Type:   t,
			X:      n.X,
			Y:      n.Y,
			Width:  n.Width,
			Height: n.Height,
			Style:  DefaultStyle(),
		})
	}

	s.shapes = shapes
	s.counter = counter
	s.selected = ""
	s.graph = &Graph{Nodes: s.nodes(), Edges: append([]Edge{}, data.Edges...)}
	return nil
}

// ============================================================
// Selection
// ============================================================

// Select переключает выделение: повторный выбор той же фигуры снимает его.
func (s *Store) Select(id string) {
	if s.selected == id {
		s.selected = ""
		return
	}
	if s.index(id) < 0 {
		return
	}
	s.selected = id
}

func (s *Store) Deselect() { s.selected = "" }

func (s *Store) Selected() (string, bool) {
	return s.selected, s.selected != ""
}

// ============================================================
// Export
// ============================================================

// Export строит граф по текущим фигурам и запоминает его как текущий.
func (s *Store) Export() *Graph {
	g := DeriveGraph(s.shapes)
	s.graph = g
	return g.Clone()
}

// SetGraph запоминает уже построенный граф, например после успешного сохранения.
func (s *Store) SetGraph(g *Graph) {
	s.graph = g.Clone()
}

// Graph возвращает последний построенный или загруженный граф.
func (s *Store) Graph() (*Graph, bool) {
	if s.graph == nil {
		return nil, false
	}
	return s.graph.Clone(), true
}

func (s *Store) nodes() []Node {
	nodes := make([]Node, 0, len(s.shapes))
	for _, sh := range s.shapes {
		nodes = append(nodes, sh.node())
	}
	return nodes
}
