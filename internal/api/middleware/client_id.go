package middleware

import (
	"errors"
	"regexp"
	"strings"

	"github.com/gofiber/fiber/v2"

	"github.com/saturnino-fabrica-de-software/onlyfachas/internal/domain"
)

const (
	// HeaderClientID carries the opaque id a browser generates once and keeps
	HeaderClientID = "X-Client-ID"
	// LocalClientID is the key to retrieve the client id from context
	LocalClientID = "client_id"
)

var clientIDPattern = regexp.MustCompile(`^[A-Za-z0-9_-]{1,64}$`)

// ipClientPrefix marks ids derived from the caller IP; browsers may not claim it
const ipClientPrefix = "ip-"

// ClientID resolves who "this browser" is. Requests without the header are
// scoped by caller IP; a malformed header is rejected.
func ClientID() fiber.Handler {
	return func(c *fiber.Ctx) error {
		id := strings.TrimSpace(c.Get(HeaderClientID))
		if id == "" {
			id = ipClientID(c.IP())
		} else if !clientIDPattern.MatchString(id) {
			return domain.ErrBadRequest.WithError(errors.New("malformed " + HeaderClientID))
		} else if len(id) >= len(ipClientPrefix) && strings.EqualFold(id[:len(ipClientPrefix)], ipClientPrefix) {
			return domain.ErrBadRequest.WithError(errors.New(HeaderClientID + " must not start with " + ipClientPrefix))
		}

		c.Locals(LocalClientID, id)
		return c.Next()
	}
}

// ipClientID maps an IPv4/IPv6 address onto the client id alphabet
func ipClientID(ip string) string {
	id := ipClientPrefix + strings.Map(func(r rune) rune {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9':
			return r
		default:
			return '_'
		}
	}, ip)
	if len(id) > 64 {
		id = id[:64]
	}
	return id
}

// GetClientID retrieves the client id set by ClientID
func GetClientID(c *fiber.Ctx) (string, error) {
	id, ok := c.Locals(LocalClientID).(string)
	if !ok || id == "" {
		return "", domain.ErrBadRequest
	}
	return id, nil
}
