package identity

import (
	"strings"

	"github.com/golang-jwt/jwt/v5"

	"github.com/quickdesk/quickdesk/internal/config"
	"github.com/quickdesk/quickdesk/pkg/util/errorutil"
)

// Claims is the set of identity-provider assertions the service consumes.
// The provider owns authentication; the service only verifies the token
// signature and lifts these fields into a local account.
type Claims struct {
	Email   string `json:"email"`
	Name    string `json:"name"`
	Picture string `json:"picture,omitempty"`
	jwt.RegisteredClaims
}

// Verifier validates identity-provider tokens.
type Verifier struct {
	secret []byte
	issuer string
}

// NewVerifier builds a Verifier from identity configuration.
func NewVerifier(cfg config.IdentityConfig) *Verifier {
	return &Verifier{secret: []byte(cfg.JWTSecret), issuer: cfg.Issuer}
}

// Verify parses and validates a bearer token, returning its claims. Any
// failure surfaces as an authentication error so callers map straight to
// a 401 response.
func (v *Verifier) Verify(tokenString string) (*Claims, error) {
	claims := &Claims{}
	opts := []jwt.ParserOption{jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()})}
	if v.issuer != "" {
		opts = append(opts, jwt.WithIssuer(v.issuer))
	}

	token, err := jwt.ParseWithClaims(tokenString, claims, func(t *jwt.Token) (any, error) {
		return v.secret, nil
	}, opts...)
	if err != nil || !token.Valid {
		return nil, errorutil.NewUnauthorized("invalid or expired token")
	}
	if claims.Subject == "" {
		return nil, errorutil.NewUnauthorized("token missing subject")
	}
	if strings.TrimSpace(claims.Email) == "" {
		return nil, errorutil.NewUnauthorized("token missing email")
	}
	return claims, nil
}
