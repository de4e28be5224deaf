package role

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
)

type Handler struct {
	svc *Service
}

func NewHandler(svc *Service) *Handler {
	return &Handler{svc: svc}
}

func (h *Handler) RegisterRoutes(api *echo.Group) {
	api.GET("/roles", h.ListRoles)
	api.GET("/roles/:id", h.GetRole)
	api.POST("/roles", h.SaveRole)
	api.PUT("/roles/:id", h.UpdateRole)
	api.POST("/roles/:id/retire", h.RetireRole)
	api.POST("/roles/:id/unretire", h.UnretireRole)
	api.DELETE("/roles/:id", h.DeleteRole)
	api.GET("/roles/:id/relationship-types", h.RelationshipTypesForRole)
	api.GET("/roles/:id/supervisors", h.RolesSupervising)
	api.GET("/relationship-types", h.ListRelationshipTypes)
	api.GET("/relationship-types/provider", h.AllProviderRelationshipTypes)
}

func (h *Handler) ListRoles(c echo.Context) error {
	includeRetired, _ := strconv.ParseBool(c.QueryParam("include_retired"))
	roles, err := h.svc.ListRoles(c.Request().Context(), includeRetired)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	return c.JSON(http.StatusOK, roles)
}

func (h *Handler) GetRole(c echo.Context) error {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid id")
	}
	r, err := h.svc.GetRole(c.Request().Context(), id)
	if err != nil {
		return echo.NewHTTPError(http.StatusNotFound, "role not found")
	}
	return c.JSON(http.StatusOK, r)
}

func (h *Handler) SaveRole(c echo.Context) error {
	var r Role
	if err := c.Bind(&r); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	if err := h.svc.SaveRole(c.Request().Context(), &r); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	return c.JSON(http.StatusCreated, r)
}

func (h *Handler) UpdateRole(c echo.Context) error {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid id")
	}
	var r Role
	if err := c.Bind(&r); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	r.ID = id
	if err := h.svc.SaveRole(c.Request().Context(), &r); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	return c.JSON(http.StatusOK, r)
}

func (h *Handler) RetireRole(c echo.Context) error {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid id")
	}
	if err := h.svc.RetireRole(c.Request().Context(), id, c.QueryParam("reason")); err != nil {
		if errors.Is(err, ErrRoleNotFound) {
			return echo.NewHTTPError(http.StatusNotFound, "role not found")
		}
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	return c.NoContent(http.StatusNoContent)
}

func (h *Handler) UnretireRole(c echo.Context) error {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid id")
	}
	if err := h.svc.UnretireRole(c.Request().Context(), id); err != nil {
		if errors.Is(err, ErrRoleNotFound) {
			return echo.NewHTTPError(http.StatusNotFound, "role not found")
		}
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	return c.NoContent(http.StatusNoContent)
}

func (h *Handler) DeleteRole(c echo.Context) error {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid id")
	}
	if err := h.svc.DeleteRole(c.Request().Context(), id); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	return c.NoContent(http.StatusNoContent)
}

func (h *Handler) RelationshipTypesForRole(c echo.Context) error {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid id")
	}
	includeRetired, _ := strconv.ParseBool(c.QueryParam("include_retired"))
	types, err := h.svc.RelationshipTypesForRole(c.Request().Context(), id, includeRetired)
	if err != nil {
		if errors.Is(err, ErrRoleNotFound) {
			return echo.NewHTTPError(http.StatusNotFound, "role not found")
		}
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	return c.JSON(http.StatusOK, types)
}

func (h *Handler) RolesSupervising(c echo.Context) error {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid id")
	}
	roles, err := h.svc.RolesSupervising(c.Request().Context(), id)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	return c.JSON(http.StatusOK, roles)
}

func (h *Handler) AllProviderRelationshipTypes(c echo.Context) error {
	includeRetired, _ := strconv.ParseBool(c.QueryParam("include_retired"))
	types, err := h.svc.AllProviderRelationshipTypes(c.Request().Context(), includeRetired)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	return c.JSON(http.StatusOK, types)
}

func (h *Handler) ListRelationshipTypes(c echo.Context) error {
	includeRetired, _ := strconv.ParseBool(c.QueryParam("include_retired"))
	types, err := h.svc.ListRelationshipTypes(c.Request().Context(), includeRetired)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	return c.JSON(http.StatusOK, types)
}
