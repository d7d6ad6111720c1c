package emergency

import (
	"errors"
	"net/http"
	"strconv"

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
	g := api.Group("/emergency", role)

	g.POST("/alerts", h.RaiseAlert)
	g.POST("/alerts/:id/resolve", h.ResolveAlert)
	g.GET("/alerts", h.OwnAlerts)
	g.GET("/alerts/family", h.FamilyFeed)

	g.POST("/contacts", h.AddContact)
	g.GET("/contacts", h.OwnContacts)
	g.GET("/contacts/:patientUid", h.PatientContacts)
	g.DELETE("/contacts/:id", h.RemoveContact)
}

func httpError(err error) error {
	switch {
	case errors.Is(err, ErrNotFound):
		return echo.NewHTTPError(http.StatusNotFound, err.Error())
	case errors.Is(err, family.ErrNotAuthorized):
		return echo.NewHTTPError(http.StatusForbidden, err.Error())
	default:
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
}

func limitParam(c echo.Context) int {
	n, _ := strconv.Atoi(c.QueryParam("limit"))
	return n
}

type raiseAlertRequest struct {
	PatientName string   `json:"patient_name"`
	Message     string   `json:"message"`
	Latitude    *float64 `json:"latitude"`
	Longitude   *float64 `json:"longitude"`
}

func (h *Handler) RaiseAlert(c echo.Context) error {
	var req raiseAlertRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	ctx := c.Request().Context()
	a, err := h.svc.RaiseAlert(ctx, auth.AccountIDFromContext(ctx),
		req.PatientName, req.Message, req.Latitude, req.Longitude)
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	return c.JSON(http.StatusCreated, a)
}

func (h *Handler) ResolveAlert(c echo.Context) error {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid id")
	}
	ctx := c.Request().Context()
	a, err := h.svc.ResolveAlert(ctx, auth.AccountIDFromContext(ctx), id)
	if err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusOK, a)
}

func (h *Handler) OwnAlerts(c echo.Context) error {
	ctx := c.Request().Context()
	items, err := h.svc.OwnAlerts(ctx, auth.AccountIDFromContext(ctx), limitParam(c))
	if err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusOK, items)
}

func (h *Handler) FamilyFeed(c echo.Context) error {
	ctx := c.Request().Context()
	items, err := h.svc.FamilyFeed(ctx, auth.AccountIDFromContext(ctx), limitParam(c))
	if err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusOK, items)
}

func (h *Handler) AddContact(c echo.Context) error {
	var contact Contact
	if err := c.Bind(&contact); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	ctx := c.Request().Context()
	if err := h.svc.AddContact(ctx, auth.AccountIDFromContext(ctx), &contact); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	return c.JSON(http.StatusCreated, contact)
}

func (h *Handler) OwnContacts(c echo.Context) error {
	ctx := c.Request().Context()
	accountID := auth.AccountIDFromContext(ctx)
	items, err := h.svc.ContactsFor(ctx, accountID, accountID)
	if err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusOK, items)
}

func (h *Handler) PatientContacts(c echo.Context) error {
	ctx := c.Request().Context()
	items, err := h.svc.ContactsFor(ctx, auth.AccountIDFromContext(ctx), c.Param("patientUid"))
	if err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusOK, items)
}

func (h *Handler) RemoveContact(c echo.Context) error {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid id")
	}
	ctx := c.Request().Context()
	if err := h.svc.RemoveContact(ctx, auth.AccountIDFromContext(ctx), id); err != nil {
		return httpError(err)
	}
	return c.NoContent(http.StatusNoContent)
}
