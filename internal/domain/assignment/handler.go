package assignment

import (
	"errors"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	"github.com/carehq/careassign/internal/domain/person"
	"github.com/carehq/careassign/internal/domain/role"
)

type Handler struct {
	svc *Service
}

func NewHandler(svc *Service) *Handler {
	return &Handler{svc: svc}
}

func (h *Handler) RegisterRoutes(api *echo.Group) {
	api.POST("/assignments", h.AssignPatient)
	api.POST("/assignments/unassign", h.UnassignPatient)
	api.GET("/providers/:id/patients", h.Patients)
	api.POST("/providers/:id/unassign-all", h.UnassignAllPatients)
	api.POST("/providers/:id/transfer", h.TransferAllPatients)
	api.POST("/providers/:id/roles", h.AssignRole)
	api.DELETE("/providers/:id/roles/:roleId", h.UnassignRole)
	api.GET("/providers/by-role/:roleId", h.ProvidersByRole)
	api.GET("/providers/by-relationship-type/:typeId", h.ProvidersByRelationshipType)
	api.GET("/providers/by-supervisee-role/:roleId", h.ProvidersBySuperviseeRole)
}

// httpError maps engine failure kinds onto HTTP statuses: missing
// entities are 404, state conflicts 409, business-rule violations 422,
// consistency violations 500.
func httpError(err error) *echo.HTTPError {
	switch {
	case IsConsistencyError(err):
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	case errors.Is(err, person.ErrPersonNotFound),
		errors.Is(err, role.ErrRoleNotFound),
		errors.Is(err, ErrTypeNotFound):
		return echo.NewHTTPError(http.StatusNotFound, err.Error())
	case errors.Is(err, ErrAlreadyAssigned),
		errors.Is(err, ErrNotAssigned):
		return echo.NewHTTPError(http.StatusConflict, err.Error())
	case errors.Is(err, ErrNotProvider),
		errors.Is(err, ErrRoleNotSupported),
		errors.Is(err, ErrInvalidRelationshipType),
		errors.Is(err, ErrSameProvider),
		errors.Is(err, person.ErrPersonVoided),
		errors.Is(err, person.ErrNotAPatient):
		return echo.NewHTTPError(http.StatusUnprocessableEntity, err.Error())
	case errors.Is(err, ErrNoRoles),
		errors.Is(err, ErrIdentifierRequired):
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
}

func parseDate(c echo.Context) (time.Time, error) {
	raw := c.QueryParam("date")
	if raw == "" {
		return time.Time{}, nil
	}
	return time.Parse("2006-01-02", raw)
}

type assignRequest struct {
	PatientID  uuid.UUID `json:"patient_id"`
	ProviderID uuid.UUID `json:"provider_id"`
	TypeID     uuid.UUID `json:"type_id"`
	Date       string    `json:"date,omitempty"`
}

func (req *assignRequest) date() (time.Time, error) {
	if req.Date == "" {
		return time.Time{}, nil
	}
	return time.Parse("2006-01-02", req.Date)
}

func (h *Handler) AssignPatient(c echo.Context) error {
	var req assignRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	on, err := req.date()
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid date, want YYYY-MM-DD")
	}
	rel, err := h.svc.AssignPatient(c.Request().Context(), req.PatientID, req.ProviderID, req.TypeID, on)
	if err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusCreated, rel)
}

func (h *Handler) UnassignPatient(c echo.Context) error {
	var req assignRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	on, err := req.date()
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid date, want YYYY-MM-DD")
	}
	if err := h.svc.UnassignPatient(c.Request().Context(), req.PatientID, req.ProviderID, req.TypeID, on); err != nil {
		return httpError(err)
	}
	return c.NoContent(http.StatusNoContent)
}

// typeIDParam reads the optional type_id query parameter; absent means
// all provider/patient types.
func typeIDParam(c echo.Context) (uuid.UUID, error) {
	raw := c.QueryParam("type_id")
	if raw == "" {
		return uuid.Nil, nil
	}
	return uuid.Parse(raw)
}

func (h *Handler) Patients(c echo.Context) error {
	providerID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid id")
	}
	typeID, err := typeIDParam(c)
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid type_id")
	}
	on, err := parseDate(c)
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid date, want YYYY-MM-DD")
	}
	patients, err := h.svc.Patients(c.Request().Context(), providerID, typeID, on)
	if err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusOK, patients)
}

func (h *Handler) UnassignAllPatients(c echo.Context) error {
	providerID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid id")
	}
	typeID, err := typeIDParam(c)
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid type_id")
	}
	if err := h.svc.UnassignAllPatients(c.Request().Context(), providerID, typeID); err != nil {
		return httpError(err)
	}
	return c.NoContent(http.StatusNoContent)
}

type transferRequest struct {
	DestinationID uuid.UUID `json:"destination_id"`
	TypeID        uuid.UUID `json:"type_id,omitempty"`
}

func (h *Handler) TransferAllPatients(c echo.Context) error {
	sourceID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid id")
	}
	var req transferRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	if err := h.svc.TransferAllPatients(c.Request().Context(), sourceID, req.DestinationID, req.TypeID); err != nil {
		return httpError(err)
	}
	return c.NoContent(http.StatusNoContent)
}

type assignRoleRequest struct {
	RoleID     uuid.UUID `json:"role_id"`
	Identifier string    `json:"identifier"`
}

func (h *Handler) AssignRole(c echo.Context) error {
	personID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid id")
	}
	var req assignRoleRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	if err := h.svc.AssignRoleToProvider(c.Request().Context(), personID, req.RoleID, req.Identifier); err != nil {
		return httpError(err)
	}
	return c.NoContent(http.StatusNoContent)
}

func (h *Handler) UnassignRole(c echo.Context) error {
	personID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid id")
	}
	roleID, err := uuid.Parse(c.Param("roleId"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid role id")
	}
	if err := h.svc.UnassignRoleFromProvider(c.Request().Context(), personID, roleID); err != nil {
		return httpError(err)
	}
	return c.NoContent(http.StatusNoContent)
}

func (h *Handler) ProvidersByRole(c echo.Context) error {
	roleID, err := uuid.Parse(c.Param("roleId"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid role id")
	}
	persons, err := h.svc.ProvidersByRole(c.Request().Context(), roleID)
	if err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusOK, persons)
}

func (h *Handler) ProvidersByRelationshipType(c echo.Context) error {
	typeID, err := uuid.Parse(c.Param("typeId"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid type id")
	}
	persons, err := h.svc.ProvidersByRelationshipType(c.Request().Context(), typeID)
	if err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusOK, persons)
}

func (h *Handler) ProvidersBySuperviseeRole(c echo.Context) error {
	roleID, err := uuid.Parse(c.Param("roleId"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid role id")
	}
	persons, err := h.svc.ProvidersBySuperviseeRole(c.Request().Context(), roleID)
	if err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusOK, persons)
}
