package familyhealth

import (
	"errors"
	"net/http"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	"github.com/healthmate/healthmate/internal/domain/family"
	"github.com/healthmate/healthmate/internal/platform/auth"
)

type Handler struct {
	svc *Service
}

func NewHandler(svc *Service) *Handler {
	return &Handler{svc: svc}
}

func (h *Handler) RegisterRoutes(api *echo.Group) {
	role := auth.RequireRole("patient", "family")
	g := api.Group("/family/members/:id/health", role)

	g.GET("", h.GetOverview)
	g.GET("/vitals", h.GetVitals)
	g.GET("/prescriptions", h.GetPrescriptions)
	g.GET("/reports", h.GetReports)
}

func httpError(err error) error {
	switch {
	case errors.Is(err, family.ErrMemberNotFound):
		return echo.NewHTTPError(http.StatusNotFound, err.Error())
	case errors.Is(err, family.ErrNotAuthorized):
		return echo.NewHTTPError(http.StatusForbidden, err.Error())
	default:
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
}

func memberID(c echo.Context) (uuid.UUID, error) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return uuid.Nil, echo.NewHTTPError(http.StatusBadRequest, "invalid member id")
	}
	return id, nil
}

func (h *Handler) GetOverview(c echo.Context) error {
	id, err := memberID(c)
	if err != nil {
		return err
	}
	ctx := c.Request().Context()
	ov, err := h.svc.GetOverview(ctx, auth.AccountIDFromContext(ctx), id)
	if err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusOK, ov)
}

func (h *Handler) GetVitals(c echo.Context) error {
	id, err := memberID(c)
	if err != nil {
		return err
	}
	ctx := c.Request().Context()
	v, err := h.svc.GetVitals(ctx, auth.AccountIDFromContext(ctx), id)
	if err != nil {
		return httpError(err)
	}
	if v == nil {
		return echo.NewHTTPError(http.StatusNotFound, "no vitals available")
	}
	return c.JSON(http.StatusOK, v)
}

func (h *Handler) GetPrescriptions(c echo.Context) error {
	id, err := memberID(c)
	if err != nil {
		return err
	}
	ctx := c.Request().Context()
	items, err := h.svc.GetPrescriptions(ctx, auth.AccountIDFromContext(ctx), id)
	if err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusOK, items)
}

func (h *Handler) GetReports(c echo.Context) error {
	id, err := memberID(c)
	if err != nil {
		return err
	}
	ctx := c.Request().Context()
	items, err := h.svc.GetReports(ctx, auth.AccountIDFromContext(ctx), id)
	if err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusOK, items)
}
