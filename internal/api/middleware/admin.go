package middleware

import (
	"log/slog"
	"strings"

	"github.com/gofiber/fiber/v2"

	"github.com/saturnino-fabrica-de-software/onlyfachas/internal/admin"
	"github.com/saturnino-fabrica-de-software/onlyfachas/internal/domain"
)

// LocalOperator is the key to retrieve the authenticated operator from context
const LocalOperator = "operator"

// OperatorAuthDependencies contains dependencies for operator authentication
type OperatorAuthDependencies struct {
	JWTService *admin.JWTService
	Logger     *slog.Logger
}

// OperatorAuth guards the emergency endpoints with a Bearer JWT carrying role operator
func OperatorAuth(deps OperatorAuthDependencies) fiber.Handler {
	return func(c *fiber.Ctx) error {
		token := extractBearerToken(c)
		if token == "" {
			deps.Logger.Debug("missing authorization header for operator")
			return domain.ErrUnauthorized
		}

		claims, err := deps.JWTService.ValidateToken(token)
		if err != nil {
			deps.Logger.Warn("invalid JWT token", "error", err)
			return domain.ErrUnauthorized
		}

		if claims.Role != admin.RoleOperator {
			deps.Logger.Warn("insufficient privileges", "role", claims.Role, "required", admin.RoleOperator)
			return domain.ErrForbidden
		}

		c.Locals(LocalOperator, claims.Operator)
		deps.Logger.Debug("operator authenticated", "operator", claims.Operator)

		return c.Next()
	}
}

// GetOperator retrieves the operator set by OperatorAuth
func GetOperator(c *fiber.Ctx) (string, error) {
	operator, ok := c.Locals(LocalOperator).(string)
	if !ok {
		return "", domain.ErrUnauthorized
	}
	return operator, nil
}

func extractBearerToken(c *fiber.Ctx) string {
	auth := c.Get(fiber.HeaderAuthorization)
	if auth == "" {
		return ""
	}

	parts := strings.SplitN(auth, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "bearer") {
		return ""
	}

	return strings.TrimSpace(parts[1])
}
