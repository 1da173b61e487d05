package httpapi

import (
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/d1sturb/refkeeper/internal/errs"
	"github.com/d1sturb/refkeeper/internal/model"
	"github.com/d1sturb/refkeeper/internal/service"
)

// APIHandler serves the mini-app endpoints.
type APIHandler struct {
	auth     service.AuthService
	referral service.ReferralService
}

// NewAPIHandler creates the handler over the application services.
func NewAPIHandler(auth service.AuthService, referral service.ReferralService) *APIHandler {
	return &APIHandler{auth: auth, referral: referral}
}

// Register mounts the API routes on the Echo instance.
func (h *APIHandler) Register(e *echo.Echo) {
	e.GET("/health", h.Health)
	e.POST("/api/auth", h.Auth)
	e.POST("/api/ref/link", h.RefLink)
	e.POST("/api/ref/register_visit", h.RegisterVisit)
	e.GET("/api/me", h.Me)
	e.GET("/api/ref/stats", h.RefStats)
}

// CredentialRequest is the body shared by all credential-bearing endpoints.
type CredentialRequest struct {
	InitData string `json:"init_data"`
}

// UserPayload mirrors the stored profile in responses.
type UserPayload struct {
	ID        int64  `json:"id"`
	FirstName string `json:"first_name,omitempty"`
	Username  string `json:"username,omitempty"`
	PhotoURL  string `json:"photo_url,omitempty"`
}

func userPayload(p *model.Principal) UserPayload {
	return UserPayload{ID: p.ID, FirstName: p.FirstName, Username: p.Username, PhotoURL: p.PhotoURL}
}

// Health reports liveness.
func (h *APIHandler) Health(c echo.Context) error {
	return c.JSON(http.StatusOK, map[string]bool{"ok": true})
}

// Auth verifies the credential string, upserts the profile and issues a
// session token for later requests.
func (h *APIHandler) Auth(c echo.Context) error {
	var req CredentialRequest
	if err := c.Bind(&req); err != nil {
		return fail(c, errs.ErrMalformedCredential)
	}

	tokens, p, err := h.auth.AuthenticateWithIP(c.Request().Context(), req.InitData, c.RealIP())
	if err != nil {
		return fail(c, err)
	}
	return c.JSON(http.StatusOK, map[string]any{
		"ok":         true,
		"token":      tokens.SessionToken,
		"expires_at": tokens.ExpiresAt.Format(time.RFC3339),
		"user":       userPayload(p),
	})
}

// RefLink verifies the credential string and returns the caller's personal
// referral link.
func (h *APIHandler) RefLink(c echo.Context) error {
	claim, err := h.verified(c)
	if err != nil {
		return fail(c, err)
	}
	link, err := h.referral.Link(c.Request().Context(), claim.ID)
	if err != nil {
		return fail(c, err)
	}
	return c.JSON(http.StatusOK, map[string]any{"ok": true, "link": link})
}

// RegisterVisit verifies the credential string and opportunistically records
// an attributed visit.
func (h *APIHandler) RegisterVisit(c echo.Context) error {
	claim, err := h.verified(c)
	if err != nil {
		return fail(c, err)
	}
	registered, err := h.referral.RegisterVisit(c.Request().Context(), claim)
	if err != nil {
		return fail(c, err)
	}
	return c.JSON(http.StatusOK, map[string]any{"ok": true, "registered": registered})
}

// Me returns the stored profile for the session token bearer.
func (h *APIHandler) Me(c echo.Context) error {
	id, err := h.sessionPrincipal(c)
	if err != nil {
		return fail(c, err)
	}
	p, err := h.auth.Principal(c.Request().Context(), id)
	if err != nil {
		return fail(c, err)
	}
	return c.JSON(http.StatusOK, map[string]any{"ok": true, "user": userPayload(p)})
}

// RefStats returns how many visitors the session bearer has brought in.
func (h *APIHandler) RefStats(c echo.Context) error {
	id, err := h.sessionPrincipal(c)
	if err != nil {
		return fail(c, err)
	}
	visits, err := h.referral.Visits(c.Request().Context(), id)
	if err != nil {
		return fail(c, err)
	}
	return c.JSON(http.StatusOK, map[string]any{"ok": true, "invited": len(visits)})
}

// verified binds the credential body and runs full verification under the
// shared per-IP failure budget. Ref endpoints accept only the platform
// credential, never a session token: a visit attribution needs the fresh
// attribution hint the credential carries.
func (h *APIHandler) verified(c echo.Context) (model.PrincipalClaim, error) {
	var req CredentialRequest
	if err := c.Bind(&req); err != nil {
		return model.PrincipalClaim{}, errs.ErrMalformedCredential
	}
	return h.auth.VerifyWithIP(c.Request().Context(), req.InitData, c.RealIP())
}

func (h *APIHandler) sessionPrincipal(c echo.Context) (int64, error) {
	auth := c.Request().Header.Get(echo.HeaderAuthorization)
	token, ok := strings.CutPrefix(auth, "Bearer ")
	if !ok || token == "" {
		return 0, errs.ErrInvalidSession
	}
	return h.auth.ReadSession(token)
}

// fail maps an error kind to its HTTP status and machine-readable reason.
func fail(c echo.Context, err error) error {
	status, reason := http.StatusInternalServerError, "internal"
	switch {
	case errors.Is(err, errs.ErrMalformedCredential):
		status, reason = http.StatusUnauthorized, "malformed_credential"
	case errors.Is(err, errs.ErrBadSignature):
		status, reason = http.StatusUnauthorized, "bad_signature"
	case errors.Is(err, errs.ErrStaleCredential):
		status, reason = http.StatusUnauthorized, "stale_credential"
	case errors.Is(err, errs.ErrMalformedClaims):
		status, reason = http.StatusUnauthorized, "malformed_claims"
	case errors.Is(err, errs.ErrInvalidSession):
		status, reason = http.StatusUnauthorized, "invalid_session"
	case errors.Is(err, errs.ErrRateLimited):
		status, reason = http.StatusTooManyRequests, "rate_limited"
	case errors.Is(err, errs.ErrNotFound):
		status, reason = http.StatusNotFound, "not_found"
	case errors.Is(err, errs.ErrConfigMissing):
		status, reason = http.StatusInternalServerError, "configuration_missing"
	case errors.Is(err, errs.ErrStorageUnavailable):
		status, reason = http.StatusServiceUnavailable, "storage_unavailable"
	}
	return c.JSON(status, map[string]any{"ok": false, "error": reason})
}
