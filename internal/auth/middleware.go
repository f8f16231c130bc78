package auth

import (
	"strings"

	"github.com/gofiber/fiber/v2"

	util "github.com/spec-kit/support-desk/pkg/util"
)

const identityKey = "auth_identity"

// Middleware validates bearer tokens and stores the caller identity on
// the request. The gate is a pure function of the credential and the
// shared signing secret; no lookups happen here.
type Middleware struct {
	tokens *TokenManager
}

// NewMiddleware constructs middleware.
func NewMiddleware(tokens *TokenManager) *Middleware {
	return &Middleware{tokens: tokens}
}

// Handle enforces authentication for protected routes.
func (m *Middleware) Handle(c *fiber.Ctx) error {
	authHeader := c.Get("Authorization")
	if authHeader == "" {
		return util.NewUnauthenticated("missing authorization header")
	}

	parts := strings.SplitN(authHeader, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
		return util.NewUnauthenticated("invalid authorization header")
	}

	identity, err := m.tokens.ParseToken(parts[1])
	if err != nil {
		return util.NewUnauthenticated("invalid or expired token")
	}

	c.Locals(identityKey, identity)
	return c.Next()
}

// IdentityFromContext retrieves the authenticated caller.
func IdentityFromContext(c *fiber.Ctx) (*Identity, bool) {
	val := c.Locals(identityKey)
	if val == nil {
		return nil, false
	}
	identity, ok := val.(*Identity)
	return identity, ok
}
