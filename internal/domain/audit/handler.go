package audit

import (
	"net/http"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	"github.com/openlis/lis/internal/platform/auth"
	"github.com/openlis/lis/pkg/pagination"
)

type Handler struct {
	svc *Service
}

func NewHandler(svc *Service) *Handler {
	return &Handler{svc: svc}
}

func (h *Handler) RegisterRoutes(api *echo.Group) {
	g := api.Group("", auth.RequireRole("admin", "supervisor", "pathologist"))
	g.GET("/audit-events", h.ListEvents)
	g.GET("/audit-events/:entityType/:entityId", h.ListByEntity)
}

func (h *Handler) ListEvents(c echo.Context) error {
	pg := pagination.FromContext(c)
	action := c.QueryParam("action")
	if action == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "action query parameter is required")
	}
	items, total, err := h.svc.ListByAction(c.Request().Context(), action, pg.Limit, pg.Offset)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	return c.JSON(http.StatusOK, pagination.NewResponse(items, total, pg.Limit, pg.Offset))
}

func (h *Handler) ListByEntity(c echo.Context) error {
	entityID, err := uuid.Parse(c.Param("entityId"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid entity id")
	}
	pg := pagination.FromContext(c)
	items, total, err := h.svc.ListByEntity(c.Request().Context(), c.Param("entityType"), entityID, pg.Limit, pg.Offset)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	return c.JSON(http.StatusOK, pagination.NewResponse(items, total, pg.Limit, pg.Offset))
}
