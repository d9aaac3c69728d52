package middleware

import (
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/yigit/cms/internal/app/models/dto"
	"github.com/yigit/cms/internal/pkg/apperrors"
	"github.com/yigit/cms/internal/pkg/logger"
)

// HandleAPIError maps err to a status code and writes the error envelope.
// Internal errors are logged and never echoed to the client.
func HandleAPIError(c *gin.Context, err error) {
	HandleAPIErrorWithMessage(c, err, "")
}

// HandleAPIErrorWithMessage is HandleAPIError with a human-readable message
// replacing the generic one for client errors.
func HandleAPIErrorWithMessage(c *gin.Context, err error, message string) {
	status, detail := classify(err)
	if message != "" && status < http.StatusInternalServerError {
		detail.Message = message
	}
	if status >= http.StatusInternalServerError {
		logger.Error().Err(err).
			Str("method", c.Request.Method).
			Str("path", c.Request.URL.Path).
			Msg("Request failed")
	}
	c.JSON(status, dto.APIResponse{
		Success:   false,
		Message:   detail.Message,
		Error:     detail,
		Timestamp: time.Now(),
	})
}

func classify(err error) (int, *dto.ErrorDetail) {
	switch {
	case errors.Is(err, apperrors.ErrResourceNotFound):
		detail := dto.NewErrorDetail(dto.ErrorCodeResourceNotFound, "Resource not found")
		var custom *apperrors.CustomError
		if errors.As(err, &custom) && custom.Code != "" {
			detail = detail.WithDetails(custom.Code)
		}
		return http.StatusNotFound, detail
	case errors.Is(err, apperrors.ErrPermissionDenied):
		return http.StatusForbidden, dto.NewErrorDetail(dto.ErrorCodeForbidden, "Permission denied")
	case errors.Is(err, apperrors.ErrTokenExpired):
		return http.StatusUnauthorized, dto.NewErrorDetail(dto.ErrorCodeExpiredToken, "Token expired")
	case errors.Is(err, apperrors.ErrTokenInvalid), errors.Is(err, apperrors.ErrInvalidFormat):
		return http.StatusUnauthorized, dto.NewErrorDetail(dto.ErrorCodeInvalidToken, "Invalid token")
	case errors.Is(err, apperrors.ErrValidationFailed), errors.Is(err, apperrors.ErrBadRequest):
		return http.StatusBadRequest, dto.NewErrorDetail(dto.ErrorCodeValidationFailed, "Validation failed").WithDetails(err.Error())
	case errors.Is(err, apperrors.ErrConflict):
		return http.StatusConflict, dto.NewErrorDetail(dto.ErrorCodeConflict, "Conflict")
	default:
		return http.StatusInternalServerError, dto.NewErrorDetail(dto.ErrorCodeInternalServer, "Internal server error")
	}
}
