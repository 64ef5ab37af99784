package identity

import (
	"context"
	"net/http/httptest"
	"testing"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	"github.com/quickdesk/quickdesk/internal/config"
	"github.com/quickdesk/quickdesk/internal/domain"
	"github.com/quickdesk/quickdesk/pkg/util/errorutil"
)

type stubResolver struct {
	account *domain.Account
	err     error
	calls   int
}

func (r *stubResolver) ResolveOrCreate(context.Context, *Claims) (*domain.Account, error) {
	r.calls++
	return r.account, r.err
}

func newAuthApp(t *testing.T, resolver *stubResolver) *fiber.App {
	t.Helper()
	verifier := NewVerifier(config.IdentityConfig{JWTSecret: testSecret})
	cache := NewPrincipalCache(nil, 0)

	app := fiber.New(fiber.Config{
		ErrorHandler: func(c *fiber.Ctx, err error) error {
			de := errorutil.ToDomainError(err)
			return c.Status(de.HTTPStatus).JSON(fiber.Map{"success": false, "message": de.Message})
		},
	})
	app.Get("/me", Middleware(verifier, resolver, cache, zap.NewNop()), func(c *fiber.Ctx) error {
		principal := PrincipalFromContext(c)
		return c.JSON(fiber.Map{"id": principal.ID})
	})
	return app
}

func activeAccount() *domain.Account {
	return &domain.Account{
		ID:        "acct-1",
		SubjectID: "sub-123",
		Email:     "jane@example.com",
		Name:      "Jane Doe",
		Role:      domain.RoleEndUser,
		Active:    true,
	}
}

func TestMiddlewareAuthenticatesBearerToken(t *testing.T) {
	resolver := &stubResolver{account: activeAccount()}
	app := newAuthApp(t, resolver)

	req := httptest.NewRequest("GET", "/me", nil)
	req.Header.Set("Authorization", "Bearer "+signToken(t, testSecret, baseClaims()))
	resp, err := app.Test(req)
	if err != nil {
		t.Fatal(err)
	}
	if resp.StatusCode != fiber.StatusOK {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}
	if resolver.calls != 1 {
		t.Fatalf("expected one resolver call, got %d", resolver.calls)
	}
}

func TestMiddlewareRejectsMissingOrMalformedHeader(t *testing.T) {
	app := newAuthApp(t, &stubResolver{account: activeAccount()})

	for _, header := range []string{"", "Token abc", "Bearer"} {
		req := httptest.NewRequest("GET", "/me", nil)
		if header != "" {
			req.Header.Set("Authorization", header)
		}
		resp, err := app.Test(req)
		if err != nil {
			t.Fatal(err)
		}
		if resp.StatusCode != fiber.StatusUnauthorized {
			t.Fatalf("header %q: expected 401, got %d", header, resp.StatusCode)
		}
	}
}

func TestMiddlewareRejectsDeactivatedAccount(t *testing.T) {
	account := activeAccount()
	account.Active = false
	app := newAuthApp(t, &stubResolver{account: account})

	req := httptest.NewRequest("GET", "/me", nil)
	req.Header.Set("Authorization", "Bearer "+signToken(t, testSecret, baseClaims()))
	resp, err := app.Test(req)
	if err != nil {
		t.Fatal(err)
	}
	if resp.StatusCode != fiber.StatusForbidden {
		t.Fatalf("expected 403 for deactivated account, got %d", resp.StatusCode)
	}
}

func TestRoleGates(t *testing.T) {
	app := fiber.New(fiber.Config{
		ErrorHandler: func(c *fiber.Ctx, err error) error {
			de := errorutil.ToDomainError(err)
			return c.Status(de.HTTPStatus).SendString(de.Message)
		},
	})
	inject := func(role domain.Role) fiber.Handler {
		return func(c *fiber.Ctx) error {
			c.Locals(principalLocalKey, &domain.Account{ID: "a", Role: role, Active: true})
			return c.Next()
		}
	}
	ok := func(c *fiber.Ctx) error { return c.SendStatus(fiber.StatusOK) }
	app.Get("/staff-as-user", inject(domain.RoleEndUser), RequireStaff(), ok)
	app.Get("/staff-as-agent", inject(domain.RoleAgent), RequireStaff(), ok)
	app.Get("/admin-as-agent", inject(domain.RoleAgent), RequireAdmin(), ok)
	app.Get("/admin-as-admin", inject(domain.RoleAdmin), RequireAdmin(), ok)

	cases := []struct {
		path   string
		status int
	}{
		{"/staff-as-user", fiber.StatusForbidden},
		{"/staff-as-agent", fiber.StatusOK},
		{"/admin-as-agent", fiber.StatusForbidden},
		{"/admin-as-admin", fiber.StatusOK},
	}
	for _, tc := range cases {
		resp, err := app.Test(httptest.NewRequest("GET", tc.path, nil))
		if err != nil {
			t.Fatal(err)
		}
		if resp.StatusCode != tc.status {
			t.Fatalf("%s: expected %d, got %d", tc.path, tc.status, resp.StatusCode)
		}
	}
}
