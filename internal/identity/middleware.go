package identity

import (
	"context"
	"strings"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	"github.com/quickdesk/quickdesk/internal/domain"
	"github.com/quickdesk/quickdesk/pkg/util/errorutil"
)

const principalLocalKey = "principal"

// AccountResolver materializes a local account for verified claims. The
// account service implements it; the indirection keeps this package free
// of service dependencies.
type AccountResolver interface {
	ResolveOrCreate(ctx context.Context, claims *Claims) (*domain.Account, error)
}

// Middleware authenticates requests. It verifies the bearer token,
// resolves the calling account (through the principal cache when warm)
// and stores it on the request context. Deactivated accounts are rejected
// even when their token is still valid.
func Middleware(verifier *Verifier, resolver AccountResolver, cache *PrincipalCache, logger *zap.Logger) fiber.Handler {
	return func(c *fiber.Ctx) error {
		token, err := bearerToken(c)
		if err != nil {
			return err
		}

		claims, err := verifier.Verify(token)
		if err != nil {
			return err
		}

		account := cache.Get(c.UserContext(), claims.Subject)
		if account == nil {
			account, err = resolver.ResolveOrCreate(c.UserContext(), claims)
			if err != nil {
				logger.Warn("principal resolution failed",
					zap.String("subject", claims.Subject), zap.Error(err))
				return err
			}
			cache.Set(c.UserContext(), account)
		}

		if !account.Active {
			return errorutil.NewForbidden("account is deactivated")
		}

		c.Locals(principalLocalKey, account)
		return c.Next()
	}
}

func bearerToken(c *fiber.Ctx) (string, error) {
	header := c.Get(fiber.HeaderAuthorization)
	if header == "" {
		return "", errorutil.NewUnauthorized("missing authorization header")
	}
	parts := strings.SplitN(header, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") || parts[1] == "" {
		return "", errorutil.NewUnauthorized("malformed authorization header")
	}
	return parts[1], nil
}

// PrincipalFromContext returns the authenticated account, or nil when the
// request skipped authentication.
func PrincipalFromContext(c *fiber.Ctx) *domain.Account {
	account, _ := c.Locals(principalLocalKey).(*domain.Account)
	return account
}
