package auth

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/labstack/echo/v4"
)

const testSigningKey = "test-signing-key-for-unit-tests"

func signToken(t *testing.T, claims *Claims) string {
	t.Helper()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString([]byte(testSigningKey))
	if err != nil {
		t.Fatalf("sign token: %v", err)
	}
	return signed
}

func TestJWTMiddleware_ValidToken(t *testing.T) {
	e := echo.New()
	mw := JWTMiddleware(JWTConfig{SigningKey: []byte(testSigningKey)})

	claims := &Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   "acct-123",
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
		},
		Email: "Jane@Example.com",
		Roles: []string{"patient"},
	}

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Authorization", "Bearer "+signToken(t, claims))
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)

	var gotID, gotEmail string
	handler := mw(func(c echo.Context) error {
		gotID = AccountIDFromContext(c.Request().Context())
		gotEmail = EmailFromContext(c.Request().Context())
		return c.NoContent(http.StatusOK)
	})
	if err := handler(c); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if gotID != "acct-123" {
		t.Errorf("expected account id acct-123, got %q", gotID)
	}
	if gotEmail != "jane@example.com" {
		t.Errorf("expected lower-cased email, got %q", gotEmail)
	}
}

func TestJWTMiddleware_MissingHeader(t *testing.T) {
	e := echo.New()
	mw := JWTMiddleware(JWTConfig{SigningKey: []byte(testSigningKey)})
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	c := e.NewContext(req, httptest.NewRecorder())

	handler := mw(func(c echo.Context) error { return nil })
	err := handler(c)
	he, ok := err.(*echo.HTTPError)
	if !ok || he.Code != http.StatusUnauthorized {
		t.Errorf("expected 401, got %v", err)
	}
}

func TestJWTMiddleware_ExpiredToken(t *testing.T) {
	e := echo.New()
	mw := JWTMiddleware(JWTConfig{SigningKey: []byte(testSigningKey)})

	claims := &Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   "acct-123",
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(-time.Hour)),
		},
	}
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Authorization", "Bearer "+signToken(t, claims))
	c := e.NewContext(req, httptest.NewRecorder())

	handler := mw(func(c echo.Context) error { return nil })
	err := handler(c)
	he, ok := err.(*echo.HTTPError)
	if !ok || he.Code != http.StatusUnauthorized {
		t.Errorf("expected 401 for expired token, got %v", err)
	}
}

func TestDevAuthMiddleware_Defaults(t *testing.T) {
	e := echo.New()
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	c := e.NewContext(req, httptest.NewRecorder())

	var gotID string
	var gotRoles []string
	handler := DevAuthMiddleware()(func(c echo.Context) error {
		gotID = AccountIDFromContext(c.Request().Context())
		gotRoles = RolesFromContext(c.Request().Context())
		return nil
	})
	if err := handler(c); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if gotID != "dev-user" {
		t.Errorf("expected dev-user, got %q", gotID)
	}
	if len(gotRoles) != 1 || gotRoles[0] != "admin" {
		t.Errorf("expected admin role, got %v", gotRoles)
	}
}

func TestDevAuthMiddleware_HeaderOverride(t *testing.T) {
	e := echo.New()
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("X-Dev-Account", "acct-f")
	req.Header.Set("X-Dev-Email", "Fam@Example.com")
	req.Header.Set("X-Dev-Role", "family")
	c := e.NewContext(req, httptest.NewRecorder())

	var gotID, gotEmail string
	handler := DevAuthMiddleware()(func(c echo.Context) error {
		gotID = AccountIDFromContext(c.Request().Context())
		gotEmail = EmailFromContext(c.Request().Context())
		return nil
	})
	if err := handler(c); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if gotID != "acct-f" {
		t.Errorf("expected acct-f, got %q", gotID)
	}
	if gotEmail != "fam@example.com" {
		t.Errorf("expected lower-cased email, got %q", gotEmail)
	}
}

func TestAccessorsOnEmptyContext(t *testing.T) {
	ctx := context.Background()
	if AccountIDFromContext(ctx) != "" {
		t.Error("expected empty account id")
	}
	if EmailFromContext(ctx) != "" {
		t.Error("expected empty email")
	}
	if RolesFromContext(ctx) != nil {
		t.Error("expected nil roles")
	}
}
