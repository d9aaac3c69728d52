package middleware

import (
	"net/http"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"

	"github.com/yigit/cms/internal/app/models/dto"
	"github.com/yigit/cms/internal/pkg/logger"
	"github.com/yigit/cms/internal/pkg/validation"
)

var registerRules sync.Once

func ensureRules() {
	registerRules.Do(func() {
		v, ok := binding.Validator.Engine().(*validator.Validate)
		if !ok {
			logger.Warn().Msg("Unexpected binding validator engine, custom rules not registered")
			return
		}
		if err := validation.Register(v); err != nil {
			logger.Error().Err(err).Msg("Failed to register validation rules")
		}
	})
}

// BindJSON binds the request body into obj using gin's validator. On failure
// it writes a 400 with the failed fields and returns false.
func BindJSON(c *gin.Context, obj interface{}) bool {
	ensureRules()
	if err := c.ShouldBindJSON(obj); err != nil {
		errorDetail := dto.HandleValidationError(err)
		c.AbortWithStatusJSON(http.StatusBadRequest, dto.APIResponse{
			Success:   false,
			Message:   errorDetail.Message,
			Error:     errorDetail,
			Timestamp: time.Now(),
		})
		return false
	}
	return true
}
