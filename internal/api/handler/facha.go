package handler

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"mime/multipart"
	"net/http"
	"strings"

	"github.com/gofiber/fiber/v2"

	"github.com/saturnino-fabrica-de-software/onlyfachas/internal/api/middleware"
	"github.com/saturnino-fabrica-de-software/onlyfachas/internal/caller"
	"github.com/saturnino-fabrica-de-software/onlyfachas/internal/domain"
	"github.com/saturnino-fabrica-de-software/onlyfachas/internal/leaderboard"
	"github.com/saturnino-fabrica-de-software/onlyfachas/internal/service"
)

// FachaService is the part of service.FachaService the client endpoints use
type FachaService interface {
	Analyze(ctx context.Context, clientID string, req caller.Request) (*domain.AnalysisResult, error)
	Status(ctx context.Context, clientID string) (*service.ClientStatus, error)
	LastResult(ctx context.Context, clientID string) (*service.LastResult, error)
	Leaderboard(ctx context.Context, clientID string) ([]domain.LeaderboardEntry, error)
	SubmitScore(ctx context.Context, clientID, name, image string, single domain.SingleResult) (*leaderboard.SubmitResult, error)
	ClearLeaderboard(ctx context.Context, clientID string) error
	ClearLocalData(ctx context.Context, clientID string) error
}

// FachaHandler serves analyses, leaderboard and local data of one client
type FachaHandler struct {
	service FachaService
	logger  *slog.Logger
}

func NewFachaHandler(service FachaService, logger *slog.Logger) *FachaHandler {
	return &FachaHandler{
		service: service,
		logger:  logger,
	}
}

// LeaderboardResponse wraps the entries of GET /v1/leaderboard
type LeaderboardResponse struct {
	Entries []domain.LeaderboardEntry `json:"entries"`
}

// SubmitScoreRequest is the body of POST /v1/leaderboard
type SubmitScoreRequest struct {
	Name      string   `json:"name"`
	Image     string   `json:"image"`
	Rating    float64  `json:"rating"`
	Comment   string   `json:"comment"`
	Strengths []string `json:"strengths"`
	Advice    []string `json:"advice"`
}

// Analyze POST /v1/analyze - score one photo
func (h *FachaHandler) Analyze(c *fiber.Ctx) error {
	clientID, err := middleware.GetClientID(c)
	if err != nil {
		return err
	}

	mode, err := domain.ParseMode(c.FormValue("mode"))
	if err != nil {
		return err
	}
	img, err := extractImage(c, "image")
	if err != nil {
		return err
	}

	result, err := h.service.Analyze(c.UserContext(), clientID, caller.SingleRequest{Image: img, Mode: mode})
	if err != nil {
		return err
	}
	return c.JSON(result)
}

// Battle POST /v1/battle - compare two photos
func (h *FachaHandler) Battle(c *fiber.Ctx) error {
	clientID, err := middleware.GetClientID(c)
	if err != nil {
		return err
	}

	mode, err := domain.ParseMode(c.FormValue("mode"))
	if err != nil {
		return err
	}
	first, err := extractImage(c, "image1")
	if err != nil {
		return err
	}
	second, err := extractImage(c, "image2")
	if err != nil {
		return err
	}

	result, err := h.service.Analyze(c.UserContext(), clientID, caller.BattleRequest{First: first, Second: second, Mode: mode})
	if err != nil {
		return err
	}
	return c.JSON(result)
}

// Enhance POST /v1/enhance - transform one photo
func (h *FachaHandler) Enhance(c *fiber.Ctx) error {
	clientID, err := middleware.GetClientID(c)
	if err != nil {
		return err
	}

	img, err := extractImage(c, "image")
	if err != nil {
		return err
	}

	result, err := h.service.Analyze(c.UserContext(), clientID, caller.EnhanceRequest{Image: img})
	if err != nil {
		return err
	}
	return c.JSON(result)
}

// Status GET /v1/status
func (h *FachaHandler) Status(c *fiber.Ctx) error {
	clientID, err := middleware.GetClientID(c)
	if err != nil {
		return err
	}

	status, err := h.service.Status(c.UserContext(), clientID)
	if err != nil {
		return err
	}
	return c.JSON(status)
}

// LastResult GET /v1/results/last
func (h *FachaHandler) LastResult(c *fiber.Ctx) error {
	clientID, err := middleware.GetClientID(c)
	if err != nil {
		return err
	}

	last, err := h.service.LastResult(c.UserContext(), clientID)
	if err != nil {
		return err
	}
	return c.JSON(last)
}

// Leaderboard GET /v1/leaderboard
func (h *FachaHandler) Leaderboard(c *fiber.Ctx) error {
	clientID, err := middleware.GetClientID(c)
	if err != nil {
		return err
	}

	entries, err := h.service.Leaderboard(c.UserContext(), clientID)
	if err != nil {
		return err
	}
	if entries == nil {
		entries = []domain.LeaderboardEntry{}
	}
	return c.JSON(LeaderboardResponse{Entries: entries})
}

// SubmitScore POST /v1/leaderboard
func (h *FachaHandler) SubmitScore(c *fiber.Ctx) error {
	clientID, err := middleware.GetClientID(c)
	if err != nil {
		return err
	}

	var req SubmitScoreRequest
	if err := c.BodyParser(&req); err != nil {
		return domain.ErrBadRequest.WithError(err)
	}

	result, err := h.service.SubmitScore(c.UserContext(), clientID, req.Name, req.Image, domain.SingleResult{
		Rating:    req.Rating,
		Comment:   req.Comment,
		Strengths: req.Strengths,
		Advice:    req.Advice,
	})
	if err != nil {
		return err
	}

	status := fiber.StatusOK
	if result.Accepted {
		status = fiber.StatusCreated
	}
	return c.Status(status).JSON(result)
}

// ClearLeaderboard DELETE /v1/leaderboard
func (h *FachaHandler) ClearLeaderboard(c *fiber.Ctx) error {
	clientID, err := middleware.GetClientID(c)
	if err != nil {
		return err
	}

	if err := h.service.ClearLeaderboard(c.UserContext(), clientID); err != nil {
		return err
	}
	return c.SendStatus(fiber.StatusNoContent)
}

// ClearLocalData DELETE /v1/data - forget everything kept for the client
func (h *FachaHandler) ClearLocalData(c *fiber.Ctx) error {
	clientID, err := middleware.GetClientID(c)
	if err != nil {
		return err
	}

	if err := h.service.ClearLocalData(c.UserContext(), clientID); err != nil {
		return err
	}
	return c.SendStatus(fiber.StatusNoContent)
}

// extractImage reads a multipart file field. The media type comes from the part
// header and falls back to content sniffing.
func extractImage(c *fiber.Ctx, field string) (domain.Image, error) {
	file, err := c.FormFile(field)
	if err != nil {
		return domain.Image{}, domain.ErrValidationFailed.WithError(errors.New(field + " is required"))
	}
	if file.Size == 0 || file.Size > domain.MaxImageSize {
		return domain.Image{}, domain.ErrInvalidImage.WithError(errors.New(field + " size out of range"))
	}

	data, err := readFile(file)
	if err != nil {
		return domain.Image{}, domain.ErrInvalidImage.WithError(err)
	}

	img := domain.Image{Data: data, MediaType: mediaType(file.Header.Get(fiber.HeaderContentType), data)}
	if err := img.Validate(); err != nil {
		return domain.Image{}, err
	}
	return img, nil
}

func readFile(file *multipart.FileHeader) ([]byte, error) {
	f, err := file.Open()
	if err != nil {
		return nil, err
	}
	defer func() {
		_ = f.Close()
	}()

	return io.ReadAll(f)
}

func mediaType(declared string, data []byte) string {
	declared = strings.ToLower(strings.TrimSpace(strings.Split(declared, ";")[0]))
	if declared == "image/jpg" {
		declared = "image/jpeg"
	}
	if domain.IsValidMediaType(declared) {
		return declared
	}
	return http.DetectContentType(data)
}
