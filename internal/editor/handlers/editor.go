package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"reflect"
	"strings"

	"floorplan/internal/editor"
	"floorplan/internal/editor/service"
	"floorplan/internal/layouts"
	"floorplan/internal/render"
	"floorplan/internal/svgimport"

	"github.com/gofiber/fiber/v3"
	"go.uber.org/zap"
)

// ============================================================
// Editor Handler
// ============================================================

// templatesLimit - сколько последних раскладок показывать как шаблоны.
const templatesLimit = 5

// LayoutStore - внешний сервис раскладок.
type LayoutStore interface {
	Create(ctx context.Context, name string, data editor.Graph) (string, error)
	List(ctx context.Context, limit int) ([]layouts.Summary, error)
	Fetch(ctx context.Context, id string) (*layouts.Layout, error)
}

type EditorHandler struct {
	sessions *service.SessionManager
	layouts  LayoutStore
	renderer *render.Renderer
	log      *zap.Logger
}

func NewEditorHandler(sessions *service.SessionManager, store LayoutStore, renderer *render.Renderer, log *zap.Logger) *EditorHandler {
	return &EditorHandler{
		sessions: sessions,
		layouts:  store,
		renderer: renderer,
		log:      log.Named("editor"),
	}
}

// Register подключает маршруты редактора.
func (h *EditorHandler) Register(r fiber.Router) {
	r.Post("/render", h.Render)

	r.Post("/sessions", h.CreateSession)
	r.Get("/sessions/:id", h.GetSession)
	r.Delete("/sessions/:id", h.DeleteSession)

	r.Post("/sessions/:id/shapes", h.AddShape)
	r.Put("/sessions/:id/shapes/:shapeID/position", h.MoveShape)
	r.Put("/sessions/:id/shapes/:shapeID/bounds", h.ResizeShape)
	r.Delete("/sessions/:id/shapes/:shapeID", h.DeleteShape)

	r.Post("/sessions/:id/selection", h.Select)
	r.Delete("/sessions/:id/selection", h.Deselect)
	r.Post("/sessions/:id/clear", h.Clear)

	r.Post("/sessions/:id/export", h.Export)
	r.Get("/sessions/:id/svg", h.SessionSVG)
	r.Post("/sessions/:id/save", h.Save)
	r.Post("/sessions/:id/load/:layoutID", h.Load)
	r.Get("/sessions/:id/templates", h.Templates)
	r.Post("/sessions/:id/import", h.ImportSVG)
}

type stateResponse struct {
	ID       string         `json:"id"`
	Shapes   []editor.Shape `json:"shapes"`
	Selected *string        `json:"selected"`
	Graph    *editor.Graph  `json:"graph"`
}

func state(id string, st *editor.Store) stateResponse {
	resp := stateResponse{ID: id, Shapes: st.Shapes()}
	if sel, ok := st.Selected(); ok {
		resp.Selected = &sel
	}
	if g, ok := st.Graph(); ok {
		resp.Graph = g
	}
	return resp
}

func errorJSON(c fiber.Ctx, status int, msg string) error {
	return c.Status(status).JSON(fiber.Map{"error": msg})
}

// session достаёт сессию из :id или отвечает 404.
func (h *EditorHandler) session(c fiber.Ctx) (*service.Session, error) {
	sess, err := h.sessions.Get(c.Params("id"))
	if err != nil {
		return nil, errorJSON(c, http.StatusNotFound, "session not found")
	}
	return sess, nil
}

// mutate выполняет операцию над стором и отвечает новым состоянием.
func (h *EditorHandler) mutate(c fiber.Ctx, fn func(*editor.Store)) error {
	sess, err := h.session(c)
	if sess == nil {
		return err
	}
	var resp stateResponse
	_ = sess.Do(func(st *editor.Store) error {
		fn(st)
		resp = state(sess.ID, st)
		return nil
	})
	return c.JSON(resp)
}

// ============================================================
// Sessions
// ============================================================

// CreateSession создаёт сессию. С ?from=latest она заполняется последней
// сохранённой раскладкой; при сбое сервиса раскладок сессия остаётся пустой.
func (h *EditorHandler) CreateSession(c fiber.Ctx) error {
	from := c.Query("from")
	if from != "" && from != "latest" {
		return errorJSON(c, http.StatusBadRequest, "unknown from: "+from)
	}

	sess := h.sessions.Create()
	resp := fiber.Map{"id": sess.ID}
	if from == "latest" {
		layoutID, err := h.loadLatest(c.Context(), sess)
		switch {
		case err != nil:
			h.log.Warn("load latest layout", zap.String("session", sess.ID), zap.Error(err))
		case layoutID != "":
			resp["layout"] = layoutID
		}
	}

	h.log.Info("session created", zap.String("session", sess.ID), zap.Any("layout", resp["layout"]))
	return c.Status(http.StatusCreated).JSON(resp)
}

// loadLatest загружает в сессию последнюю раскладку и возвращает её id.
// Пустой id без ошибки - сохранённых раскладок нет.
func (h *EditorHandler) loadLatest(ctx context.Context, sess *service.Session) (string, error) {
	items, err := h.layouts.List(ctx, 1)
	if err != nil || len(items) == 0 {
		return "", err
	}
	layout, err := h.layouts.Fetch(ctx, items[0].ID)
	if err != nil {
		return "", err
	}
	if err := sess.Do(func(st *editor.Store) error {
		return st.LoadShapes(&layout.Data)
	}); err != nil {
		return "", err
	}
	return layout.ID, nil
}

func (h *EditorHandler) GetSession(c fiber.Ctx) error {
	return h.mutate(c, func(*editor.Store) {})
}

func (h *EditorHandler) DeleteSession(c fiber.Ctx) error {
	if err := h.sessions.Delete(c.Params("id")); err != nil {
		return errorJSON(c, http.StatusNotFound, "session not found")
	}
	return c.SendStatus(http.StatusNoContent)
}

// ============================================================
// Shapes
// ============================================================

type addShapeRequest struct {
	Type string `json:"type"`
}

type positionRequest struct {
	X *float64 `json:"x"`
	Y *float64 `json:"y"`
}

type boundsRequest struct {
	X      *float64 `json:"x"`
	Y      *float64 `json:"y"`
	Width  *float64 `json:"width"`
	Height *float64 `json:"height"`
}

type selectRequest struct {
	ID string `json:"id"`
}

// AddShape добавляет комнату или коридор в случайную точку сетки.
func (h *EditorHandler) AddShape(c fiber.Ctx) error {
	var req addShapeRequest
	if err := json.Unmarshal(c.Body(), &req); err != nil {
		return errorJSON(c, http.StatusBadRequest, "invalid json")
	}
	t, err := editor.ParseShapeType(req.Type)
	if err != nil {
		return errorJSON(c, http.StatusBadRequest, err.Error())
	}

	sess, err := h.session(c)
	if sess == nil {
		return err
	}
	var shape editor.Shape
	_ = sess.Do(func(st *editor.Store) error {
		shape = st.AddShape(t)
		return nil
	})
	return c.Status(http.StatusCreated).JSON(shape)
}

// MoveShape - конец перетаскивания. Неизвестная фигура игнорируется.
func (h *EditorHandler) MoveShape(c fiber.Ctx) error {
	var req positionRequest
	if err := json.Unmarshal(c.Body(), &req); err != nil {
		return errorJSON(c, http.StatusBadRequest, "invalid json")
	}
	if req.X == nil || req.Y == nil {
		return errorJSON(c, http.StatusBadRequest, "x and y required")
	}
	shapeID := c.Params("shapeID")
	return h.mutate(c, func(st *editor.Store) {
		st.MoveShape(shapeID, *req.X, *req.Y)
	})
}

// ResizeShape - конец трансформации. Неизвестная фигура игнорируется.
func (h *EditorHandler) ResizeShape(c fiber.Ctx) error {
	var req boundsRequest
	if err := json.Unmarshal(c.Body(), &req); err != nil {
		return errorJSON(c, http.StatusBadRequest, "invalid json")
	}
	if req.X == nil || req.Y == nil || req.Width == nil || req.Height == nil {
		return errorJSON(c, http.StatusBadRequest, "x, y, width and height required")
	}
	shapeID := c.Params("shapeID")
	return h.mutate(c, func(st *editor.Store) {
		st.ResizeShape(shapeID, *req.X, *req.Y, *req.Width, *req.Height)
	})
}

func (h *EditorHandler) DeleteShape(c fiber.Ctx) error {
	shapeID := c.Params("shapeID")
	return h.mutate(c, func(st *editor.Store) {
		st.DeleteShape(shapeID)
	})
}

// Select переключает выделение фигуры.
func (h *EditorHandler) Select(c fiber.Ctx) error {
	var req selectRequest
	if err := json.Unmarshal(c.Body(), &req); err != nil || req.ID == "" {
		return errorJSON(c, http.StatusBadRequest, "id required")
	}
	return h.mutate(c, func(st *editor.Store) {
		st.Select(req.ID)
	})
}

func (h *EditorHandler) Deselect(c fiber.Ctx) error {
	return h.mutate(c, func(st *editor.Store) {
		st.Deselect()
	})
}

func (h *EditorHandler) Clear(c fiber.Ctx) error {
	return h.mutate(c, func(st *editor.Store) {
		st.Clear()
	})
}

// ============================================================
// Graph
// ============================================================

// Export строит граф смежности и запоминает его в сессии.
func (h *EditorHandler) Export(c fiber.Ctx) error {
	sess, err := h.session(c)
	if sess == nil {
		return err
	}
	var g *editor.Graph
	_ = sess.Do(func(st *editor.Store) error {
		g = st.Export()
		return nil
	})
	return c.JSON(g)
}

// SessionSVG рисует текущее состояние сессии.
func (h *EditorHandler) SessionSVG(c fiber.Ctx) error {
	view, err := render.ParseView(c.Query("view"))
	if err != nil {
		return errorJSON(c, http.StatusBadRequest, err.Error())
	}
	sess, err := h.session(c)
	if sess == nil {
		return err
	}
	var g *editor.Graph
	_ = sess.Do(func(st *editor.Store) error {
		g = editor.DeriveGraph(st.Shapes())
		return nil
	})
	return h.sendSVG(c, g, view)
}

// Render рисует переданный граф без сессии.
func (h *EditorHandler) Render(c fiber.Ctx) error {
	view, err := render.ParseView(c.Query("view"))
	if err != nil {
		return errorJSON(c, http.StatusBadRequest, err.Error())
	}
	if len(c.Body()) == 0 {
		return errorJSON(c, http.StatusBadRequest, "body required")
	}
	var g editor.Graph
	if err := json.Unmarshal(c.Body(), &g); err != nil {
		return errorJSON(c, http.StatusBadRequest, "invalid JSON payload")
	}
	return h.sendSVG(c, &g, view)
}

func (h *EditorHandler) sendSVG(c fiber.Ctx, g *editor.Graph, view render.View) error {
	svg, err := h.renderer.Render(g, view)
	if err != nil {
		h.log.Error("render", zap.Error(err))
		return errorJSON(c, http.StatusInternalServerError, err.Error())
	}
	c.Set("Content-Type", "image/svg+xml")
	return c.SendString(svg)
}

// ============================================================
// Persistence
// ============================================================

type saveRequest struct {
	Name string `json:"name"`
}

// Save сохраняет граф в сервисе раскладок. Граф сессии обновляется
// только после успешного ответа.
func (h *EditorHandler) Save(c fiber.Ctx) error {
	var req saveRequest
	if err := json.Unmarshal(c.Body(), &req); err != nil {
		return errorJSON(c, http.StatusBadRequest, "invalid json")
	}
	name := strings.TrimSpace(req.Name)
	if name == "" {
		return errorJSON(c, http.StatusBadRequest, "name required")
	}

	sess, err := h.session(c)
	if sess == nil {
		return err
	}

	var g *editor.Graph
	err = sess.Do(func(st *editor.Store) error {
		if st.IsEmpty() {
			return editor.ErrEmptyLayout
		}
		g = editor.DeriveGraph(st.Shapes())
		return nil
	})
	if errors.Is(err, editor.ErrEmptyLayout) {
		return errorJSON(c, http.StatusBadRequest, err.Error())
	}

	id, err := h.layouts.Create(c.Context(), name, *g)
	if err != nil {
		h.log.Error("save layout", zap.String("session", sess.ID), zap.Error(err))
		return errorJSON(c, http.StatusBadGateway, "Error saving layout: "+err.Error())
	}

	// пока шёл запрос, фигуры могли измениться: устаревший граф не записываем
	_ = sess.Do(func(st *editor.Store) error {
		if reflect.DeepEqual(editor.DeriveGraph(st.Shapes()), g) {
			st.SetGraph(g)
		} else {
			h.log.Debug("shapes changed during save, graph not recorded", zap.String("session", sess.ID))
		}
		return nil
	})
	h.log.Info("layout saved", zap.String("session", sess.ID), zap.String("layout", id), zap.String("name", name))
	return c.Status(http.StatusCreated).JSON(fiber.Map{"id": id})
}

// Load заменяет фигуры сессии узлами сохранённой раскладки.
func (h *EditorHandler) Load(c fiber.Ctx) error {
	sess, err := h.session(c)
	if sess == nil {
		return err
	}

	layout, err := h.layouts.Fetch(c.Context(), c.Params("layoutID"))
	if errors.Is(err, layouts.ErrNotFound) {
		return errorJSON(c, http.StatusNotFound, "Layout not found")
	}
	if err != nil {
		h.log.Error("fetch layout", zap.String("layout", c.Params("layoutID")), zap.Error(err))
		return errorJSON(c, http.StatusBadGateway, "Error loading template: "+err.Error())
	}

	return h.replace(c, sess, &layout.Data)
}

// Templates - последние сохранённые раскладки.
func (h *EditorHandler) Templates(c fiber.Ctx) error {
	if sess, err := h.session(c); sess == nil {
		return err
	}
	items, err := h.layouts.List(c.Context(), templatesLimit)
	if err != nil {
		h.log.Error("list templates", zap.Error(err))
		return errorJSON(c, http.StatusBadGateway, "Error fetching templates: "+err.Error())
	}
	if items == nil {
		items = []layouts.Summary{}
	}
	return c.JSON(items)
}

// ImportSVG загружает фигуры из SVG файла (multipart поле file).
func (h *EditorHandler) ImportSVG(c fiber.Ctx) error {
	sess, err := h.session(c)
	if sess == nil {
		return err
	}

	file, err := c.FormFile("file")
	if err != nil {
		return errorJSON(c, http.StatusBadRequest, "file required in multipart/form-data")
	}
	f, err := file.Open()
	if err != nil {
		return errorJSON(c, http.StatusInternalServerError, "failed to open file")
	}
	defer f.Close()

	g, err := svgimport.Import(f)
	if errors.Is(err, svgimport.ErrNoShapes) {
		return errorJSON(c, http.StatusUnprocessableEntity, err.Error())
	}
	if err != nil {
		return errorJSON(c, http.StatusBadRequest, err.Error())
	}

	h.log.Info("svg imported", zap.String("session", sess.ID), zap.String("file", file.Filename), zap.Int("shapes", len(g.Nodes)))
	return h.replace(c, sess, g)
}

func (h *EditorHandler) replace(c fiber.Ctx, sess *service.Session, g *editor.Graph) error {
	var resp stateResponse
	err := sess.Do(func(st *editor.Store) error {
		if err := st.LoadShapes(g); err != nil {
			return err
		}
		resp = state(sess.ID, st)
		return nil
	})
	if errors.Is(err, editor.ErrInvalidLayoutData) {
		return errorJSON(c, http.StatusUnprocessableEntity, err.Error())
	}
	if err != nil {
		return errorJSON(c, http.StatusInternalServerError, err.Error())
	}
	return c.JSON(resp)
}
