package handler

import (
	"context"
	"log/slog"

	"github.com/gofiber/fiber/v2"

	"github.com/saturnino-fabrica-de-software/onlyfachas/internal/api/middleware"
	"github.com/saturnino-fabrica-de-software/onlyfachas/internal/domain"
)

// EmergencyService reads and rewrites the operator switches
type EmergencyService interface {
	EmergencyConfig(ctx context.Context) domain.EmergencyConfig
	UpdateEmergencyConfig(ctx context.Context, cfg domain.EmergencyConfig, operator string) error
}

type EmergencyHandler struct {
	service EmergencyService
	logger  *slog.Logger
}

func NewEmergencyHandler(service EmergencyService, logger *slog.Logger) *EmergencyHandler {
	return &EmergencyHandler{
		service: service,
		logger:  logger,
	}
}

// Get GET /v1/admin/emergency
func (h *EmergencyHandler) Get(c *fiber.Ctx) error {
	return c.JSON(h.service.EmergencyConfig(c.UserContext()))
}

// Update PUT /v1/admin/emergency - replace the whole document
func (h *EmergencyHandler) Update(c *fiber.Ctx) error {
	operator, err := middleware.GetOperator(c)
	if err != nil {
		return err
	}

	var cfg domain.EmergencyConfig
	if err := c.BodyParser(&cfg); err != nil {
		return domain.ErrBadRequest.WithError(err)
	}

	if err := h.service.UpdateEmergencyConfig(c.UserContext(), cfg, operator); err != nil {
		return err
	}

	h.logger.Info("emergency config replaced", "operator", operator)
	return c.JSON(cfg)
}
