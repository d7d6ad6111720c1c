package family

import (
	"errors"
	"net/http"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	"github.com/healthmate/healthmate/internal/platform/auth"
	"github.com/healthmate/healthmate/pkg/pagination"
)

type Handler struct {
	svc *Service
}

func NewHandler(svc *Service) *Handler {
	return &Handler{svc: svc}
}

func (h *Handler) RegisterRoutes(api *echo.Group) {
	role := auth.RequireRole("patient", "family")
	g := api.Group("/family", role)

	g.POST("/members", h.Invite)
	g.GET("/members", h.ListMembers)
	g.DELETE("/members/:id", h.RemoveMember)
	g.PUT("/members/:id/permissions", h.UpdatePermissions)

	g.GET("/invitations", h.ListPendingInvitations)
	g.POST("/invitations/accept", h.AcceptInvitation)
	g.POST("/invitations/reject", h.RejectInvitation)

	g.GET("/relationships", h.ListRelationships)
	g.GET("/permissions/:patientUid", h.GetPermissions)
}

// httpError maps domain errors to HTTP status codes.
func httpError(err error) error {
	var ve *ValidationError
	switch {
	case errors.As(err, &ve):
		return echo.NewHTTPError(http.StatusBadRequest, ve.Error())
	case errors.Is(err, ErrInviteNotFound), errors.Is(err, ErrMemberNotFound):
		return echo.NewHTTPError(http.StatusNotFound, err.Error())
	case errors.Is(err, ErrNotAuthorized):
		return echo.NewHTTPError(http.StatusForbidden, err.Error())
	default:
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
}

func (h *Handler) Invite(c echo.Context) error {
	var req InviteRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	ctx := c.Request().Context()
	m, err := h.svc.Invite(ctx, auth.AccountIDFromContext(ctx), auth.EmailFromContext(ctx), req)
	if err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusCreated, m)
}

func (h *Handler) ListMembers(c echo.Context) error {
	pg := pagination.FromContext(c)
	ctx := c.Request().Context()
	items, total, err := h.svc.ListForPatient(ctx, auth.AccountIDFromContext(ctx), pg.Limit, pg.Offset)
	if err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusOK, pagination.NewResponse(items, total, pg.Limit, pg.Offset))
}

func (h *Handler) RemoveMember(c echo.Context) error {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid id")
	}
	ctx := c.Request().Context()
	if err := h.svc.Remove(ctx, auth.AccountIDFromContext(ctx), id); err != nil {
		return httpError(err)
	}
	return c.NoContent(http.StatusNoContent)
}

func (h *Handler) UpdatePermissions(c echo.Context) error {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid id")
	}
	var perms AccessPermissions
	if err := c.Bind(&perms); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	ctx := c.Request().Context()
	if err := h.svc.UpdatePermissions(ctx, auth.AccountIDFromContext(ctx), id, perms); err != nil {
		return httpError(err)
	}
	return c.NoContent(http.StatusNoContent)
}

func (h *Handler) ListPendingInvitations(c echo.Context) error {
	ctx := c.Request().Context()
	items, err := h.svc.ListPendingForEmail(ctx, auth.EmailFromContext(ctx))
	if err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusOK, items)
}

type tokenRequest struct {
	InviteToken string `json:"invite_token"`
}

func (h *Handler) AcceptInvitation(c echo.Context) error {
	var req tokenRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	ctx := c.Request().Context()
	m, rel, err := h.svc.Accept(ctx, req.InviteToken, auth.AccountIDFromContext(ctx))
	if err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusOK, map[string]interface{}{
		"member":       m,
		"relationship": rel,
	})
}

func (h *Handler) RejectInvitation(c echo.Context) error {
	var req tokenRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	if err := h.svc.Reject(c.Request().Context(), req.InviteToken); err != nil {
		return httpError(err)
	}
	return c.NoContent(http.StatusNoContent)
}

func (h *Handler) ListRelationships(c echo.Context) error {
	ctx := c.Request().Context()
	items, err := h.svc.RelationshipsFor(ctx, auth.AccountIDFromContext(ctx))
	if err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusOK, items)
}

func (h *Handler) GetPermissions(c echo.Context) error {
	ctx := c.Request().Context()
	perms, ok, err := h.svc.PermissionsFor(ctx, auth.AccountIDFromContext(ctx), c.Param("patientUid"))
	if err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusOK, map[string]interface{}{
		"has_access":  ok,
		"permissions": perms,
	})
}
