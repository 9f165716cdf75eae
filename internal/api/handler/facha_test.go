package handler

import (
	"bytes"
	"context"
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

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/saturnino-fabrica-de-software/onlyfachas/internal/api/middleware"
	"github.com/saturnino-fabrica-de-software/onlyfachas/internal/caller"
	"github.com/saturnino-fabrica-de-software/onlyfachas/internal/domain"
	"github.com/saturnino-fabrica-de-software/onlyfachas/internal/emergency"
	"github.com/saturnino-fabrica-de-software/onlyfachas/internal/leaderboard"
	"github.com/saturnino-fabrica-de-software/onlyfachas/internal/service"
)

const testClientID = "client-abc"

// pngHeader is enough for http.DetectContentType to answer image/png
var pngHeader = []byte("\x89PNG\r\n\x1a\n0000IHDR")

// MockFachaService is a mock implementation of FachaService
type MockFachaService struct {
	mock.Mock
}

func (m *MockFachaService) Analyze(ctx context.Context, clientID string, req caller.Request) (*domain.AnalysisResult, error) {
	args := m.Called(ctx, clientID, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.AnalysisResult), args.Error(1)
}

func (m *MockFachaService) Status(ctx context.Context, clientID string) (*service.ClientStatus, error) {
	args := m.Called(ctx, clientID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*service.ClientStatus), args.Error(1)
}

func (m *MockFachaService) LastResult(ctx context.Context, clientID string) (*service.LastResult, error) {
	args := m.Called(ctx, clientID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*service.LastResult), args.Error(1)
}

func (m *MockFachaService) Leaderboard(ctx context.Context, clientID string) ([]domain.LeaderboardEntry, error) {
	args := m.Called(ctx, clientID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.LeaderboardEntry), args.Error(1)
}

func (m *MockFachaService) SubmitScore(ctx context.Context, clientID, name, image string, single domain.SingleResult) (*leaderboard.SubmitResult, error) {
	args := m.Called(ctx, clientID, name, image, single)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*leaderboard.SubmitResult), args.Error(1)
}

func (m *MockFachaService) ClearLeaderboard(ctx context.Context, clientID string) error {
	return m.Called(ctx, clientID).Error(0)
}

func (m *MockFachaService) ClearLocalData(ctx context.Context, clientID string) error {
	return m.Called(ctx, clientID).Error(0)
}

func createTestApp(h *FachaHandler) *fiber.App {
	app := fiber.New(fiber.Config{ErrorHandler: middleware.ErrorHandler(slog.New(slog.DiscardHandler))})
	app.Use(middleware.ClientID())

	app.Post("/v1/analyze", h.Analyze)
	app.Post("/v1/battle", h.Battle)
	app.Post("/v1/enhance", h.Enhance)
	app.Get("/v1/status", h.Status)
	app.Get("/v1/results/last", h.LastResult)
	app.Get("/v1/leaderboard", h.Leaderboard)
	app.Post("/v1/leaderboard", h.SubmitScore)
	app.Delete("/v1/leaderboard", h.ClearLeaderboard)
	app.Delete("/v1/data", h.ClearLocalData)
	return app
}

type filePart struct {
	field       string
	contentType string
	content     []byte
}

func createMultipartRequest(t *testing.T, path string, fields map[string]string, files ...filePart) *http.Request {
	t.Helper()

	body := &bytes.Buffer{}
	writer := multipart.NewWriter(body)
	for k, v := range fields {
		require.NoError(t, writer.WriteField(k, v))
	}
	for _, f := range files {
		h := make(textproto.MIMEHeader)
		h.Set("Content-Disposition", `form-data; name="`+f.field+`"; filename="photo"`)
		if f.contentType != "" {
			h.Set("Content-Type", f.contentType)
		}
		part, err := writer.CreatePart(h)
		require.NoError(t, err)
		_, _ = part.Write(f.content)
	}
	require.NoError(t, writer.Close())

	req := httptest.NewRequest("POST", path, body)
	req.Header.Set("Content-Type", writer.FormDataContentType())
	req.Header.Set(middleware.HeaderClientID, testClientID)
	return req
}

func singleResult() *domain.AnalysisResult {
	return &domain.AnalysisResult{
		Kind: domain.KindSingle,
		Single: &domain.SingleResult{
			Rating:    8.3,
			Comment:   "Facha nivel dios",
			Strengths: []string{"a", "b", "c"},
			Advice:    []string{"x", "y", "z"},
		},
	}
}

func decodeError(t *testing.T, body io.Reader) string {
	t.Helper()
	var payload struct {
		Error struct {
			Code string `json:"code"`
		} `json:"error"`
	}
	require.NoError(t, json.NewDecoder(body).Decode(&payload))
	return payload.Error.Code
}

func TestFachaHandler_Analyze(t *testing.T) {
	jpeg := append([]byte{0xFF, 0xD8, 0xFF, 0xE0}, make([]byte, 64)...)

	tests := []struct {
		name       string
		fields     map[string]string
		files      []filePart
		setupMock  func(*MockFachaService)
		wantStatus int
		wantCode   string
	}{
		{
			name:   "declared media type and creativo mode",
			fields: map[string]string{"mode": "creativo"},
			files:  []filePart{{field: "image", contentType: "image/jpeg", content: jpeg}},
			setupMock: func(m *MockFachaService) {
				m.On("Analyze", mock.Anything, testClientID, caller.SingleRequest{
					Image: domain.Image{Data: jpeg, MediaType: "image/jpeg"},
					Mode:  domain.ModeCreativo,
				}).Return(singleResult(), nil)
			},
			wantStatus: 200,
		},
		{
			name:  "sniffs media type when part is octet-stream",
			files: []filePart{{field: "image", contentType: "application/octet-stream", content: pngHeader}},
			setupMock: func(m *MockFachaService) {
				m.On("Analyze", mock.Anything, testClientID, caller.SingleRequest{
					Image: domain.Image{Data: pngHeader, MediaType: "image/png"},
					Mode:  domain.ModeRapido,
				}).Return(singleResult(), nil)
			},
			wantStatus: 200,
		},
		{
			name:       "missing image",
			setupMock:  func(m *MockFachaService) {},
			wantStatus: 422,
			wantCode:   "VALIDATION_FAILED",
		},
		{
			name:       "not an image",
			files:      []filePart{{field: "image", contentType: "text/plain", content: []byte("hello there")}},
			setupMock:  func(m *MockFachaService) {},
			wantStatus: 422,
			wantCode:   "INVALID_IMAGE",
		},
		{
			name:       "unknown mode",
			fields:     map[string]string{"mode": "lento"},
			files:      []filePart{{field: "image", contentType: "image/jpeg", content: jpeg}},
			setupMock:  func(m *MockFachaService) {},
			wantStatus: 422,
			wantCode:   "VALIDATION_FAILED",
		},
		{
			name:  "cooldown",
			files: []filePart{{field: "image", contentType: "image/jpeg", content: jpeg}},
			setupMock: func(m *MockFachaService) {
				m.On("Analyze", mock.Anything, testClientID, mock.Anything).Return(nil, domain.NewCooldownError(5*time.Second))
			},
			wantStatus: 429,
			wantCode:   "RATE_LIMITED",
		},
		{
			name:  "maintenance",
			files: []filePart{{field: "image", contentType: "image/jpeg", content: jpeg}},
			setupMock: func(m *MockFachaService) {
				m.On("Analyze", mock.Anything, testClientID, mock.Anything).Return(nil, domain.ErrMaintenanceMode)
			},
			wantStatus: 503,
			wantCode:   "MAINTENANCE_MODE",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc := new(MockFachaService)
			tt.setupMock(svc)
			app := createTestApp(NewFachaHandler(svc, slog.New(slog.DiscardHandler)))

			resp, err := app.Test(createMultipartRequest(t, "/v1/analyze", tt.fields, tt.files...))
			require.NoError(t, err)
			assert.Equal(t, tt.wantStatus, resp.StatusCode)

			if tt.wantCode != "" {
				assert.Equal(t, tt.wantCode, decodeError(t, resp.Body))
			} else {
				var result domain.AnalysisResult
				require.NoError(t, json.NewDecoder(resp.Body).Decode(&result))
				assert.Equal(t, domain.KindSingle, result.Kind)
				assert.Equal(t, 8.3, result.Single.Rating)
			}
			svc.AssertExpectations(t)
		})
	}
}

func TestFachaHandler_Cooldown_SetsRetryAfter(t *testing.T) {
	svc := new(MockFachaService)
	svc.On("Analyze", mock.Anything, testClientID, mock.Anything).Return(nil, domain.NewCooldownError(4200*time.Millisecond))
	app := createTestApp(NewFachaHandler(svc, slog.New(slog.DiscardHandler)))

	req := createMultipartRequest(t, "/v1/analyze", nil, filePart{field: "image", contentType: "image/png", content: pngHeader})
	resp, err := app.Test(req)
	require.NoError(t, err)
	assert.Equal(t, 429, resp.StatusCode)
	assert.Equal(t, "5", resp.Header.Get("Retry-After"))
}

func TestFachaHandler_Battle(t *testing.T) {
	svc := new(MockFachaService)
	svc.On("Analyze", mock.Anything, testClientID, mock.MatchedBy(func(req caller.Request) bool {
		battle, ok := req.(caller.BattleRequest)
		return ok && battle.First.MediaType == "image/png" && battle.Second.MediaType == "image/png"
	})).Return(&domain.AnalysisResult{
		Kind: domain.KindBattle,
		Battle: &domain.BattleResult{
			Rating1: 8.3, Rating2: 6.1, Winner: 1, Comment: "gana la 1",
			WinnerExplanation: []string{"a", "b", "c", "d"},
		},
	}, nil)
	app := createTestApp(NewFachaHandler(svc, slog.New(slog.DiscardHandler)))

	req := createMultipartRequest(t, "/v1/battle", nil,
		filePart{field: "image1", contentType: "image/png", content: pngHeader},
		filePart{field: "image2", contentType: "image/png", content: pngHeader},
	)
	resp, err := app.Test(req)
	require.NoError(t, err)
	assert.Equal(t, 200, resp.StatusCode)

	var result domain.AnalysisResult
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&result))
	assert.Equal(t, 1, result.Battle.Winner)
	svc.AssertExpectations(t)
}

func TestFachaHandler_Battle_MissingSecondImage(t *testing.T) {
	svc := new(MockFachaService)
	app := createTestApp(NewFachaHandler(svc, slog.New(slog.DiscardHandler)))

	req := createMultipartRequest(t, "/v1/battle", nil, filePart{field: "image1", contentType: "image/png", content: pngHeader})
	resp, err := app.Test(req)
	require.NoError(t, err)
	assert.Equal(t, 422, resp.StatusCode)
	svc.AssertNotCalled(t, "Analyze", mock.Anything, mock.Anything, mock.Anything)
}

func TestFachaHandler_Enhance(t *testing.T) {
	svc := new(MockFachaService)
	svc.On("Analyze", mock.Anything, testClientID, mock.AnythingOfType("caller.EnhanceRequest")).Return(&domain.AnalysisResult{
		Kind:    domain.KindEnhance,
		Enhance: &domain.EnhanceResult{Image: domain.Image{Data: pngHeader, MediaType: "image/png"}, Comment: "listo"},
	}, nil)
	app := createTestApp(NewFachaHandler(svc, slog.New(slog.DiscardHandler)))

	req := createMultipartRequest(t, "/v1/enhance", nil, filePart{field: "image", contentType: "image/png", content: pngHeader})
	resp, err := app.Test(req)
	require.NoError(t, err)
	assert.Equal(t, 200, resp.StatusCode)
	svc.AssertExpectations(t)
}

func TestFachaHandler_Status(t *testing.T) {
	svc := new(MockFachaService)
	svc.On("Status", mock.Anything, testClientID).Return(&service.ClientStatus{
		Status:                   emergency.Status{RemainingRequestsThisHour: 7},
		CooldownSeconds:          15,
		CooldownRemainingSeconds: 3,
	}, nil)
	app := createTestApp(NewFachaHandler(svc, slog.New(slog.DiscardHandler)))

	req := httptest.NewRequest("GET", "/v1/status", nil)
	req.Header.Set(middleware.HeaderClientID, testClientID)
	resp, err := app.Test(req)
	require.NoError(t, err)
	assert.Equal(t, 200, resp.StatusCode)

	var body map[string]any
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	assert.Equal(t, float64(7), body["remaining_requests_this_hour"])
	assert.Equal(t, float64(3), body["cooldown_remaining_seconds"])
	assert.Equal(t, false, body["maintenance_mode"])
}

func TestFachaHandler_LastResult_NotFound(t *testing.T) {
	svc := new(MockFachaService)
	svc.On("LastResult", mock.Anything, testClientID).Return(nil, domain.ErrNoCachedResult)
	app := createTestApp(NewFachaHandler(svc, slog.New(slog.DiscardHandler)))

	req := httptest.NewRequest("GET", "/v1/results/last", nil)
	req.Header.Set(middleware.HeaderClientID, testClientID)
	resp, err := app.Test(req)
	require.NoError(t, err)
	assert.Equal(t, 404, resp.StatusCode)
	assert.Equal(t, "NO_CACHED_RESULT", decodeError(t, resp.Body))
}

func TestFachaHandler_Leaderboard(t *testing.T) {
	svc := new(MockFachaService)
	svc.On("Leaderboard", mock.Anything, testClientID).Return(nil, nil)
	app := createTestApp(NewFachaHandler(svc, slog.New(slog.DiscardHandler)))

	req := httptest.NewRequest("GET", "/v1/leaderboard", nil)
	req.Header.Set(middleware.HeaderClientID, testClientID)
	resp, err := app.Test(req)
	require.NoError(t, err)
	assert.Equal(t, 200, resp.StatusCode)

	body, _ := io.ReadAll(resp.Body)
	assert.JSONEq(t, `{"entries":[]}`, string(body))
}

func TestFachaHandler_SubmitScore(t *testing.T) {
	tests := []struct {
		name       string
		result     *leaderboard.SubmitResult
		err        error
		wantStatus int
	}{
		{name: "accepted", result: &leaderboard.SubmitResult{Accepted: true, Reason: leaderboard.ReasonAccepted, Rank: 1}, wantStatus: 201},
		{name: "below minimum", result: &leaderboard.SubmitResult{Reason: leaderboard.ReasonBelowMinimum}, wantStatus: 200},
		{name: "invalid name", err: domain.ErrValidationFailed, wantStatus: 422},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc := new(MockFachaService)
			single := domain.SingleResult{Rating: 8.5, Comment: "ok", Strengths: []string{"a", "b", "c"}, Advice: []string{"x", "y", "z"}}
			if tt.result != nil {
				svc.On("SubmitScore", mock.Anything, testClientID, "Juan", "data:image/png;base64,AA", single).Return(tt.result, nil)
			} else {
				svc.On("SubmitScore", mock.Anything, testClientID, "Juan", "data:image/png;base64,AA", single).Return(nil, tt.err)
			}
			app := createTestApp(NewFachaHandler(svc, slog.New(slog.DiscardHandler)))

			payload := `{"name":"Juan","image":"data:image/png;base64,AA","rating":8.5,"comment":"ok","strengths":["a","b","c"],"advice":["x","y","z"]}`
			req := httptest.NewRequest("POST", "/v1/leaderboard", strings.NewReader(payload))
			req.Header.Set("Content-Type", "application/json")
			req.Header.Set(middleware.HeaderClientID, testClientID)

			resp, err := app.Test(req)
			require.NoError(t, err)
			assert.Equal(t, tt.wantStatus, resp.StatusCode)
			svc.AssertExpectations(t)
		})
	}
}

func TestFachaHandler_SubmitScore_BadJSON(t *testing.T) {
	svc := new(MockFachaService)
	app := createTestApp(NewFachaHandler(svc, slog.New(slog.DiscardHandler)))

	req := httptest.NewRequest("POST", "/v1/leaderboard", strings.NewReader(`{"name":`))
	req.Header.Set("Content-Type", "application/json")
	resp, err := app.Test(req)
	require.NoError(t, err)
	assert.Equal(t, 400, resp.StatusCode)
}

func TestFachaHandler_Deletes(t *testing.T) {
	svc := new(MockFachaService)
	svc.On("ClearLeaderboard", mock.Anything, testClientID).Return(nil)
	svc.On("ClearLocalData", mock.Anything, testClientID).Return(nil)
	app := createTestApp(NewFachaHandler(svc, slog.New(slog.DiscardHandler)))

	for _, path := range []string{"/v1/leaderboard", "/v1/data"} {
		req := httptest.NewRequest("DELETE", path, nil)
		req.Header.Set(middleware.HeaderClientID, testClientID)
		resp, err := app.Test(req)
		require.NoError(t, err)
		assert.Equal(t, 204, resp.StatusCode, path)
	}
	svc.AssertExpectations(t)
}
