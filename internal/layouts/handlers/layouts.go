package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"strings"

	"floorplan/internal/editor"
	"floorplan/internal/layouts"

	"github.com/gofiber/fiber/v3"
	"go.uber.org/zap"
)

// ============================================================
// Layout Handler
// ============================================================

type LayoutHandler struct {
	repo layouts.Repository
	log  *zap.Logger
}

func NewLayoutHandler(repo layouts.Repository, log *zap.Logger) *LayoutHandler {
	return &LayoutHandler{repo: repo, log: log.Named("layouts")}
}

// Register подключает маршруты CRUD раскладок.
func (h *LayoutHandler) Register(r fiber.Router) {
	r.Post("/api/layouts", h.Create)
	r.Get("/api/layouts", h.List)
	r.Get("/api/layouts/:id", h.Get)
	r.Delete("/api/layouts/:id", h.Delete)
}

type createRequest struct {
	Name string        `json:"name"`
	Data *editor.Graph `json:"data"`
}

type createResponse struct {
	Message string `json:"message"`
	ID      string `json:"id"`
}

// Create сохраняет раскладку.
func (h *LayoutHandler) Create(c fiber.Ctx) error {
	if len(c.Body()) == 0 {
		return c.Status(http.StatusBadRequest).JSON(fiber.Map{"error": "empty body"})
	}

	var req createRequest
	if err := json.Unmarshal(c.Body(), &req); err != nil {
		return c.Status(http.StatusBadRequest).JSON(fiber.Map{"error": "invalid json"})
	}

	name := strings.TrimSpace(req.Name)
	if name == "" {
		return c.Status(http.StatusBadRequest).JSON(fiber.Map{"error": "name required"})
	}
	if req.Data == nil || req.Data.Nodes == nil {
		return c.Status(http.StatusBadRequest).JSON(fiber.Map{"error": editor.ErrInvalidLayoutData.Error()})
	}
	if len(req.Data.Nodes) == 0 {
		return c.Status(http.StatusBadRequest).JSON(fiber.Map{"error": editor.ErrEmptyLayout.Error()})
	}

	layout, err := h.repo.Create(c.Context(), name, *req.Data)
	if err != nil {
		h.log.Error("save layout", zap.String("name", name), zap.Error(err))
		return c.Status(http.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to save layout"})
	}

	h.log.Info("layout saved",
		zap.String("id", layout.ID),
		zap.String("name", layout.Name),
		zap.Int("nodes", len(layout.Data.Nodes)),
		zap.Int("edges", len(layout.Data.Edges)))

	return c.Status(http.StatusCreated).JSON(createResponse{Message: "Layout saved", ID: layout.ID})
}

// List отдаёт краткие описания раскладок, новые первыми.
func (h *LayoutHandler) List(c fiber.Ctx) error {
	limit := 0
	if raw := c.Query("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 0 {
			return c.Status(http.StatusBadRequest).JSON(fiber.Map{"error": "invalid limit"})
		}
		limit = n
	}

	items, err := h.repo.List(c.Context(), limit)
	if err != nil {
		h.log.Error("list layouts", zap.Error(err))
		return c.Status(http.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to fetch layouts"})
	}
	return c.JSON(items)
}

// Get отдаёт раскладку целиком.
func (h *LayoutHandler) Get(c fiber.Ctx) error {
	layout, err := h.repo.Get(c.Context(), c.Params("id"))
	if errors.Is(err, layouts.ErrNotFound) {
		return c.Status(http.StatusNotFound).JSON(fiber.Map{"error": "Layout not found"})
	}
	if err != nil {
		h.log.Error("get layout", zap.String("id", c.Params("id")), zap.Error(err))
		return c.Status(http.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to fetch layout"})
	}
	return c.JSON(layout)
}

func (h *LayoutHandler) Delete(c fiber.Ctx) error {
	err := h.repo.Delete(c.Context(), c.Params("id"))
	if errors.Is(err, layouts.ErrNotFound) {
		return c.Status(http.StatusNotFound).JSON(fiber.Map{"error": "Layout not found"})
	}
	if err != nil {
		h.log.Error("delete layout", zap.String("id", c.Params("id")), zap.Error(err))
		return c.Status(http.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to delete layout"})
	}
	return c.SendStatus(http.StatusNoContent)
}
