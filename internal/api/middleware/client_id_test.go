package middleware

import (
	"io"
	"log/slog"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestClientID(t *testing.T) {
	app := newTestApp(slog.New(slog.DiscardHandler))
	app.Use(ClientID())
	app.Get("/whoami", func(c *fiber.Ctx) error {
		id, err := GetClientID(c)
		if err != nil {
			return err
		}
		return c.SendString(id)
	})

	tests := []struct {
		name       string
		header     string
		wantStatus int
		wantID     string
	}{
		{name: "header is used", header: "abc_DEF-123", wantStatus: 200, wantID: "abc_DEF-123"},
		{name: "falls back to ip", header: "", wantStatus: 200, wantID: "ip-"},
		{name: "rejects bad characters", header: "abc/def", wantStatus: 400},
		{name: "rejects long ids", header: strings.Repeat("a", 65), wantStatus: 400},
		{name: "rejects ids reserved for ip callers", header: "ip-10_0_0_1", wantStatus: 400},
		{name: "reserved prefix is case insensitive", header: "IP-10_0_0_1", wantStatus: 400},
		{name: "ip inside the id is fine", header: "zip-code", wantStatus: 200, wantID: "zip-code"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest("GET", "/whoami", nil)
			if tt.header != "" {
				req.Header.Set(HeaderClientID, tt.header)
			}
			resp, err := app.Test(req)
			require.NoError(t, err)
			assert.Equal(t, tt.wantStatus, resp.StatusCode)

			if tt.wantID != "" {
				body, _ := io.ReadAll(resp.Body)
				assert.True(t, strings.HasPrefix(string(body), tt.wantID), string(body))
			}
		})
	}
}

func TestIPClientID(t *testing.T) {
	assert.Equal(t, "ip-10_0_0_1", ipClientID("10.0.0.1"))
	assert.Equal(t, "ip-__1", ipClientID("::1"))
	assert.True(t, clientIDPattern.MatchString(ipClientID("2001:db8::ff00:42:8329")))
}
