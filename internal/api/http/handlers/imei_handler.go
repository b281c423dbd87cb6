package handlers

import (
	"errors"

	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/imei-service/internal/api/dto"
	"github.com/spec-kit/imei-service/internal/auth"
	"github.com/spec-kit/imei-service/internal/service"
	apperrors "github.com/spec-kit/imei-service/pkg/util"
)

// IMEIHandler exposes the check-imei endpoint.
type IMEIHandler struct {
	checks *service.CheckService
	tokens *auth.TokenManager
}

// NewIMEIHandler constructs handler.
func NewIMEIHandler(checks *service.CheckService, tokens *auth.TokenManager) *IMEIHandler {
	return &IMEIHandler{checks: checks, tokens: tokens}
}

// Check handles GET /api/check-imei. Invalid IMEIs are reported with 200 and
// status "invalid"; only auth and upstream failures change the status code.
func (h *IMEIHandler) Check(c *fiber.Ctx) error {
	if !c.Context().QueryArgs().Has("imei") {
		return apperrors.NewMissingQuery("imei")
	}
	raw := c.Query("imei")

	token, ok := auth.TokenFromContext(c)
	if !ok {
		return apperrors.NewUnauthenticated()
	}
	subject, err := h.tokens.Verify(token)
	if err != nil {
		if errors.Is(err, auth.ErrTokenExpired) {
			return apperrors.NewTokenExpired(err)
		}
		return apperrors.NewTokenInvalid(err)
	}

	result, err := h.checks.Check(c.UserContext(), subject, raw)
	if err != nil {
		return apperrors.NewUpstreamUnavailable(err)
	}

	if !result.Valid {
		return c.JSON(dto.InvalidIMEIResponse{
			Status:  dto.StatusInvalid,
			IMEI:    result.IMEI,
			Message: result.Message,
		})
	}

	var user *string
	if subject != "" {
		user = &subject
	}
	return c.JSON(dto.ValidIMEIResponse{
		Status:  dto.StatusValid,
		IMEI:    result.IMEI,
		Message: result.Message,
		User:    user,
		Details: result.Details,
	})
}
