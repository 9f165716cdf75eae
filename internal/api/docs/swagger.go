package docs

import (
	"github.com/go-swagno/swagno"
	"github.com/go-swagno/swagno/components/endpoint"
	"github.com/go-swagno/swagno/components/http/response"
	"github.com/go-swagno/swagno/components/mime"
	"github.com/go-swagno/swagno/components/parameter"
)

// SingleResultData is the score of one photo
type SingleResultData struct {
	Rating    float64  `json:"rating" example:"8.3"`
	Comment   string   `json:"comment" example:"Tremenda facha, mirada de protagonista"`
	Strengths []string `json:"strengths" example:"sonrisa,pose,luz"`
	Advice    []string `json:"advice" example:"menos filtro,fondo limpio,mas angulo"`
}

// BattleResultData compares two photos
type BattleResultData struct {
	Rating1           float64  `json:"rating1" example:"8.3"`
	Rating2           float64  `json:"rating2" example:"6.1"`
	Winner            int      `json:"winner" example:"1"`
	Tie               bool     `json:"tie" example:"false"`
	Comment           string   `json:"comment" example:"La foto 1 gana por goleada"`
	WinnerExplanation []string `json:"winner_explanation" example:"pose,luz,consejo 1,consejo 2"`
}

// ImageData is an encoded picture
type ImageData struct {
	Data      string `json:"data" example:"iVBORw0KGgo="`
	MediaType string `json:"media_type" example:"image/png"`
}

// EnhanceResultData carries the transformed picture
type EnhanceResultData struct {
	Image   ImageData `json:"image"`
	Comment string    `json:"comment" example:"Ahora si, version deluxe"`
}

// AnalysisResponse is the tagged result of analyze, battle and enhance
type AnalysisResponse struct {
	Kind    string             `json:"kind" example:"single"`
	IsMock  bool               `json:"is_mock" example:"false"`
	Single  *SingleResultData  `json:"single,omitempty"`
	Battle  *BattleResultData  `json:"battle,omitempty"`
	Enhance *EnhanceResultData `json:"enhance,omitempty"`
}

// LastResultResponse is the cached last result
type LastResultResponse struct {
	Result    AnalysisResponse `json:"result"`
	CreatedAt string           `json:"created_at" example:"2026-01-01T00:00:00Z"`
}

// StatusResponse reports the gate as seen by one client
type StatusResponse struct {
	MaintenanceMode           bool `json:"maintenance_mode" example:"false"`
	RemainingRequestsThisHour int  `json:"remaining_requests_this_hour" example:"7"`
	ArtificialDelaySeconds    int  `json:"artificial_delay_seconds" example:"0"`
	CooldownSeconds           int  `json:"cooldown_seconds" example:"15"`
	CooldownRemainingSeconds  int  `json:"cooldown_remaining_seconds" example:"4"`
}

// LeaderboardEntryData is one stored score
type LeaderboardEntryData struct {
	ID        string   `json:"id" example:"550e8400-e29b-41d4-a716-446655440000"`
	Name      string   `json:"name" example:"Juan"`
	Image     string   `json:"image" example:"data:image/jpeg;base64,/9j/4AAQ"`
	CreatedAt string   `json:"created_at" example:"2026-01-01T00:00:00Z"`
	Rating    float64  `json:"rating" example:"8.3"`
	Comment   string   `json:"comment" example:"Facha nivel dios"`
	Strengths []string `json:"strengths" example:"sonrisa,pose,luz"`
	Advice    []string `json:"advice" example:"menos filtro,fondo limpio,mas angulo"`
}

// LeaderboardResponse lists the entries best first
type LeaderboardResponse struct {
	Entries []LeaderboardEntryData `json:"entries"`
}

// SubmitScoreRequest offers a single result to the leaderboard
type SubmitScoreRequest struct {
	Name      string   `json:"name" example:"Juan"`
	Image     string   `json:"image" example:"data:image/jpeg;base64,/9j/4AAQ"`
	Rating    float64  `json:"rating" example:"8.3"`
	Comment   string   `json:"comment" example:"Facha nivel dios"`
	Strengths []string `json:"strengths" example:"sonrisa,pose,luz"`
	Advice    []string `json:"advice" example:"menos filtro,fondo limpio,mas angulo"`
}

// SubmitScoreResponse is the outcome of a submission
type SubmitScoreResponse struct {
	Accepted bool                   `json:"accepted" example:"true"`
	Reason   string                 `json:"reason" example:"accepted"`
	Rank     int                    `json:"rank" example:"2"`
	Evicted  *LeaderboardEntryData  `json:"evicted,omitempty"`
	Entries  []LeaderboardEntryData `json:"entries"`
}

// EmergencyConfigData is the operator document
type EmergencyConfigData struct {
	MaintenanceMode     bool `json:"maintenanceMode" example:"false"`
	MaxRequestsPerHour  int  `json:"maxRequestsPerHour" example:"10"`
	RequestDelaySeconds int  `json:"requestDelaySeconds" example:"0"`
}

// ErrorResponse represents a standard error response
type ErrorResponse struct {
	Code    string `json:"code" example:"VALIDATION_FAILED"`
	Message string `json:"message" example:"Request validation failed"`
}

// RetryErrorResponse is returned with a Retry-After header
type RetryErrorResponse struct {
	Code              string `json:"code" example:"RATE_LIMITED"`
	Message           string `json:"message" example:"Please wait 9 seconds before requesting another analysis"`
	RetryAfterSeconds int    `json:"retry_after_seconds" example:"9"`
}

// EmptyResponse represents no content response (204)
type EmptyResponse struct{}

var clientIDHeader = parameter.StrParam("X-Client-ID", parameter.Header,
	parameter.WithDescription("Opaque client id, [A-Za-z0-9_-]{1,64}. Falls back to the caller IP"))

func analysisErrors() []response.Response {
	return []response.Response{
		response.New(ErrorResponse{Code: "BAD_REQUEST", Message: "Invalid request"}, "400", "Bad Request"),
		response.New(ErrorResponse{Code: "INVALID_IMAGE", Message: "Invalid image format or corrupted file"}, "422", "Unprocessable Entity"),
		response.New(ErrorResponse{Code: "VALIDATION_FAILED", Message: "Request validation failed"}, "422", "Unprocessable Entity"),
		response.New(RetryErrorResponse{}, "429", "Cooldown pending or hourly quota exhausted"),
		response.New(ErrorResponse{Code: "MAINTENANCE_MODE", Message: "OnlyFachas is under maintenance, come back soon"}, "503", "Service Unavailable"),
	}
}

// NewSwagger creates and configures the Swagger documentation
func NewSwagger() *swagno.Swagger {
	sw := swagno.New(swagno.Config{
		Title:       "OnlyFachas API",
		Version:     "v1.0.0",
		Description: "Facha scoring, photo battles and a local top-5 leaderboard, scoped per client",
		Host:        "localhost:3000",
		Path:        "/v1",
	})

	endpoints := []*endpoint.EndPoint{
		// POST /v1/analyze
		endpoint.New(
			endpoint.POST,
			"/analyze",
			endpoint.WithTags("Analysis"),
			endpoint.WithSummary("Score one photo"),
			endpoint.WithDescription("Multipart field image plus optional mode (rapido|creativo). Backend failures return a local result with is_mock=true."),
			endpoint.WithConsume([]mime.MIME{mime.MIME("multipart/form-data")}),
			endpoint.WithProduce([]mime.MIME{mime.JSON}),
			endpoint.WithParams(clientIDHeader, parameter.StrParam("mode", parameter.Form)),
			endpoint.WithSuccessfulReturns([]response.Response{
				response.New(AnalysisResponse{}, "200", "Photo scored"),
			}),
			endpoint.WithErrors(analysisErrors()),
		),

		// POST /v1/battle
		endpoint.New(
			endpoint.POST,
			"/battle",
			endpoint.WithTags("Analysis"),
			endpoint.WithSummary("Compare two photos"),
			endpoint.WithDescription("Multipart fields image1 and image2. Ties go to contestant 2 and set tie=true."),
			endpoint.WithConsume([]mime.MIME{mime.MIME("multipart/form-data")}),
			endpoint.WithProduce([]mime.MIME{mime.JSON}),
			endpoint.WithParams(clientIDHeader, parameter.StrParam("mode", parameter.Form)),
			endpoint.WithSuccessfulReturns([]response.Response{
				response.New(AnalysisResponse{}, "200", "Battle decided"),
			}),
			endpoint.WithErrors(analysisErrors()),
		),

		// POST /v1/enhance
		endpoint.New(
			endpoint.POST,
			"/enhance",
			endpoint.WithTags("Analysis"),
			endpoint.WithSummary("Enhance one photo"),
			endpoint.WithConsume([]mime.MIME{mime.MIME("multipart/form-data")}),
			endpoint.WithProduce([]mime.MIME{mime.JSON}),
			endpoint.WithParams(clientIDHeader),
			endpoint.WithSuccessfulReturns([]response.Response{
				response.New(AnalysisResponse{}, "200", "Photo enhanced"),
			}),
			endpoint.WithErrors(analysisErrors()),
		),

		// GET /v1/status
		endpoint.New(
			endpoint.GET,
			"/status",
			endpoint.WithTags("Client"),
			endpoint.WithSummary("Emergency status and cooldown for the client"),
			endpoint.WithProduce([]mime.MIME{mime.JSON}),
			endpoint.WithParams(clientIDHeader),
			endpoint.WithSuccessfulReturns([]response.Response{
				response.New(StatusResponse{}, "200", "Status"),
			}),
		),

		// GET /v1/results/last
		endpoint.New(
			endpoint.GET,
			"/results/last",
			endpoint.WithTags("Client"),
			endpoint.WithSummary("Last analysis result"),
			endpoint.WithDescription("Results older than 24 hours are discarded"),
			endpoint.WithProduce([]mime.MIME{mime.JSON}),
			endpoint.WithParams(clientIDHeader),
			endpoint.WithSuccessfulReturns([]response.Response{
				response.New(LastResultResponse{}, "200", "Cached result"),
			}),
			endpoint.WithErrors([]response.Response{
				response.New(ErrorResponse{Code: "NO_CACHED_RESULT", Message: "No recent analysis result for this client"}, "404", "Not Found"),
			}),
		),

		// DELETE /v1/data
		endpoint.New(
			endpoint.DELETE,
			"/data",
			endpoint.WithTags("Client"),
			endpoint.WithSummary("Clear all data kept for the client"),
			endpoint.WithParams(clientIDHeader),
			endpoint.WithSuccessfulReturns([]response.Response{
				response.New(EmptyResponse{}, "204", "Cleared"),
			}),
		),

		// GET /v1/leaderboard
		endpoint.New(
			endpoint.GET,
			"/leaderboard",
			endpoint.WithTags("Leaderboard"),
			endpoint.WithSummary("Top scores, best first"),
			endpoint.WithProduce([]mime.MIME{mime.JSON}),
			endpoint.WithParams(clientIDHeader),
			endpoint.WithSuccessfulReturns([]response.Response{
				response.New(LeaderboardResponse{}, "200", "Entries"),
			}),
		),

		// POST /v1/leaderboard
		endpoint.New(
			endpoint.POST,
			"/leaderboard",
			endpoint.WithTags("Leaderboard"),
			endpoint.WithSummary("Offer a single result to the leaderboard"),
			endpoint.WithDescription("201 when the entry made it, 200 with reason below_minimum otherwise"),
			endpoint.WithConsume([]mime.MIME{mime.JSON}),
			endpoint.WithProduce([]mime.MIME{mime.JSON}),
			endpoint.WithParams(clientIDHeader),
			endpoint.WithBody(SubmitScoreRequest{}),
			endpoint.WithSuccessfulReturns([]response.Response{
				response.New(SubmitScoreResponse{}, "201", "Accepted"),
				response.New(SubmitScoreResponse{}, "200", "Below minimum"),
			}),
			endpoint.WithErrors([]response.Response{
				response.New(ErrorResponse{Code: "VALIDATION_FAILED", Message: "Request validation failed"}, "422", "Unprocessable Entity"),
			}),
		),

		// DELETE /v1/leaderboard
		endpoint.New(
			endpoint.DELETE,
			"/leaderboard",
			endpoint.WithTags("Leaderboard"),
			endpoint.WithSummary("Clear the leaderboard"),
			endpoint.WithParams(clientIDHeader),
			endpoint.WithSuccessfulReturns([]response.Response{
				response.New(EmptyResponse{}, "204", "Cleared"),
			}),
		),

		// GET /v1/admin/emergency
		endpoint.New(
			endpoint.GET,
			"/admin/emergency",
			endpoint.WithTags("Admin"),
			endpoint.WithSummary("Current emergency config"),
			endpoint.WithProduce([]mime.MIME{mime.JSON}),
			endpoint.WithSuccessfulReturns([]response.Response{
				response.New(EmergencyConfigData{}, "200", "Config"),
			}),
			endpoint.WithErrors([]response.Response{
				response.New(ErrorResponse{Code: "UNAUTHORIZED", Message: "Invalid or missing credentials"}, "401", "Unauthorized"),
				response.New(ErrorResponse{Code: "FORBIDDEN", Message: "Access denied"}, "403", "Forbidden"),
			}),
			endpoint.WithSecurity([]map[string][]string{{"BearerAuth": {}}}),
		),

		// PUT /v1/admin/emergency
		endpoint.New(
			endpoint.PUT,
			"/admin/emergency",
			endpoint.WithTags("Admin"),
			endpoint.WithSummary("Replace the emergency config"),
			endpoint.WithConsume([]mime.MIME{mime.JSON}),
			endpoint.WithProduce([]mime.MIME{mime.JSON}),
			endpoint.WithBody(EmergencyConfigData{}),
			endpoint.WithSuccessfulReturns([]response.Response{
				response.New(EmergencyConfigData{}, "200", "Config stored"),
			}),
			endpoint.WithErrors([]response.Response{
				response.New(ErrorResponse{Code: "UNAUTHORIZED", Message: "Invalid or missing credentials"}, "401", "Unauthorized"),
				response.New(ErrorResponse{Code: "FORBIDDEN", Message: "Access denied"}, "403", "Forbidden"),
				response.New(ErrorResponse{Code: "VALIDATION_FAILED", Message: "requestDelaySeconds must be between 0 and 60"}, "422", "Unprocessable Entity"),
			}),
			endpoint.WithSecurity([]map[string][]string{{"BearerAuth": {}}}),
		),
	}

	sw.AddEndpoints(endpoints)

	return sw
}
