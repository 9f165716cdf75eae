package api

import (
	"bytes"
	"encoding/json"
	"io"
	"log/slog"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"net/textproto"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/saturnino-fabrica-de-software/onlyfachas/internal/admin"
	"github.com/saturnino-fabrica-de-software/onlyfachas/internal/caller"
	"github.com/saturnino-fabrica-de-software/onlyfachas/internal/domain"
	"github.com/saturnino-fabrica-de-software/onlyfachas/internal/emergency"
	"github.com/saturnino-fabrica-de-software/onlyfachas/internal/leaderboard"
	"github.com/saturnino-fabrica-de-software/onlyfachas/internal/provider/mock"
	"github.com/saturnino-fabrica-de-software/onlyfachas/internal/service"
	"github.com/saturnino-fabrica-de-software/onlyfachas/internal/store"
	"github.com/saturnino-fabrica-de-software/onlyfachas/internal/ws"
)

const testSecret = "router-test-secret"

func setupRouter(t *testing.T, defaults domain.EmergencyConfig) *Router {
	t.Helper()

	logger := slog.New(slog.DiscardHandler)
	st := store.NewMemoryStore()
	hub := ws.NewHub()
	go hub.Run()
	t.Cleanup(hub.Stop)

	controls := emergency.NewControls(st, defaults, emergency.WithLogger(logger))
	c := caller.New(mock.New(), mock.New(), st, caller.WithAdmission(controls), caller.WithLogger(logger))
	lb := leaderboard.New(st, leaderboard.WithLogger(logger))
	svc := service.NewFachaService(controls, c, lb, st).WithPublisher(hub).WithLogger(logger)

	r := NewRouter(logger, &Dependencies{
		Service:    svc,
		Store:      st,
		Hub:        hub,
		JWTService: admin.NewJWTService(testSecret, "onlyfachas", time.Hour),
	})
	r.Setup()
	t.Cleanup(func() { _ = r.Shutdown() })
	return r
}

func analyzeRequest(t *testing.T, clientID string) *http.Request {
	t.Helper()

	body := &bytes.Buffer{}
	writer := multipart.NewWriter(body)
	h := make(textproto.MIMEHeader)
	h.Set("Content-Disposition", `form-data; name="image"; filename="me.png"`)
	h.Set("Content-Type", "image/png")
	part, err := writer.CreatePart(h)
	require.NoError(t, err)
	_, _ = part.Write([]byte("\x89PNG\r\n\x1a\nfake-png-body"))
	require.NoError(t, writer.Close())

	req := httptest.NewRequest("POST", "/v1/analyze", body)
	req.Header.Set("Content-Type", writer.FormDataContentType())
	req.Header.Set("X-Client-ID", clientID)
	return req
}

func TestRouter_Health(t *testing.T) {
	r := setupRouter(t, domain.EmergencyConfig{})

	for _, path := range []string{"/health", "/ready"} {
		resp, err := r.App().Test(httptest.NewRequest("GET", path, nil))
		require.NoError(t, err)
		assert.Equal(t, 200, resp.StatusCode, path)
	}
}

func TestRouter_AnalyzeThenCooldown(t *testing.T) {
	r := setupRouter(t, domain.EmergencyConfig{MaxRequestsPerHour: 10})

	resp, err := r.App().Test(analyzeRequest(t, "flow-client"))
	require.NoError(t, err)
	require.Equal(t, 200, resp.StatusCode)

	var result domain.AnalysisResult
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&result))
	assert.Equal(t, domain.KindSingle, result.Kind)
	require.NotNil(t, result.Single)
	assert.GreaterOrEqual(t, result.Single.Rating, 1.0)

	resp, err = r.App().Test(analyzeRequest(t, "flow-client"))
	require.NoError(t, err)
	assert.Equal(t, 429, resp.StatusCode)
	assert.NotEmpty(t, resp.Header.Get("Retry-After"))

	// another client is not affected
	resp, err = r.App().Test(analyzeRequest(t, "other-client"))
	require.NoError(t, err)
	assert.Equal(t, 200, resp.StatusCode)

	req := httptest.NewRequest("GET", "/v1/results/last", nil)
	req.Header.Set("X-Client-ID", "flow-client")
	resp, err = r.App().Test(req)
	require.NoError(t, err)
	assert.Equal(t, 200, resp.StatusCode)
}

func TestRouter_Maintenance(t *testing.T) {
	r := setupRouter(t, domain.EmergencyConfig{MaintenanceMode: true})

	resp, err := r.App().Test(analyzeRequest(t, "client"))
	require.NoError(t, err)
	assert.Equal(t, 503, resp.StatusCode)
}

func TestRouter_LeaderboardRoundTrip(t *testing.T) {
	r := setupRouter(t, domain.EmergencyConfig{})

	payload := `{"name":"Juan","image":"","rating":8.3,"comment":"ok","strengths":["a","b","c"],"advice":["x","y","z"]}`
	req := httptest.NewRequest("POST", "/v1/leaderboard", strings.NewReader(payload))
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-Client-ID", "lb-client")
	resp, err := r.App().Test(req)
	require.NoError(t, err)
	assert.Equal(t, 201, resp.StatusCode)

	req = httptest.NewRequest("GET", "/v1/leaderboard", nil)
	req.Header.Set("X-Client-ID", "lb-client")
	resp, err = r.App().Test(req)
	require.NoError(t, err)

	var body struct {
		Entries []domain.LeaderboardEntry `json:"entries"`
	}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	require.Len(t, body.Entries, 1)
	assert.Equal(t, "Juan", body.Entries[0].Name)

	req = httptest.NewRequest("DELETE", "/v1/data", nil)
	req.Header.Set("X-Client-ID", "lb-client")
	resp, err = r.App().Test(req)
	require.NoError(t, err)
	assert.Equal(t, 204, resp.StatusCode)

	req = httptest.NewRequest("GET", "/v1/leaderboard", nil)
	req.Header.Set("X-Client-ID", "lb-client")
	resp, err = r.App().Test(req)
	require.NoError(t, err)
	raw, _ := io.ReadAll(resp.Body)
	assert.JSONEq(t, `{"entries":[]}`, string(raw))
}

func TestRouter_AdminEmergency(t *testing.T) {
	r := setupRouter(t, domain.EmergencyConfig{MaxRequestsPerHour: 10})

	resp, err := r.App().Test(httptest.NewRequest("GET", "/v1/admin/emergency", nil))
	require.NoError(t, err)
	assert.Equal(t, 401, resp.StatusCode)

	token, err := admin.NewJWTService(testSecret, "onlyfachas", time.Hour).GenerateToken("ops", admin.RoleOperator)
	require.NoError(t, err)

	req := httptest.NewRequest("PUT", "/v1/admin/emergency",
		strings.NewReader(`{"maintenanceMode":true,"maxRequestsPerHour":10,"requestDelaySeconds":0}`))
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+token)
	resp, err = r.App().Test(req)
	require.NoError(t, err)
	assert.Equal(t, 200, resp.StatusCode)

	resp, err = r.App().Test(analyzeRequest(t, "client"))
	require.NoError(t, err)
	assert.Equal(t, 503, resp.StatusCode)
}

func TestRouter_RejectsMalformedClientID(t *testing.T) {
	r := setupRouter(t, domain.EmergencyConfig{})

	req := httptest.NewRequest("GET", "/v1/status", nil)
	req.Header.Set("X-Client-ID", "../../etc")
	resp, err := r.App().Test(req)
	require.NoError(t, err)
	assert.Equal(t, 400, resp.StatusCode)
}
