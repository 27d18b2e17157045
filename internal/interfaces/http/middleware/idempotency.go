package middleware

import (
	"context"
	"net/http"
	"strings"

	"github.com/erp/procurement/internal/domain/shared"
	"github.com/erp/procurement/internal/interfaces/http/dto"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// IdempotencyKeyHeader carries the client generated submission key
const IdempotencyKeyHeader = "Idempotency-Key"

// maxIdempotencyKeyLength bounds the header so it cannot bloat the store
const maxIdempotencyKeyLength = 200

// Idempotency rejects a repeated submission carrying an already seen
// Idempotency-Key with DUPLICATE_REQUEST. The key is freed again when the
// request fails so the client can retry. Requests without the header pass.
func Idempotency(store shared.IdempotencyStore, cfg shared.IdempotencyConfig, logger *zap.Logger) gin.HandlerFunc {
	if logger == nil {
		logger = zap.NewNop()
	}
	return func(c *gin.Context) {
		key := strings.TrimSpace(c.GetHeader(IdempotencyKeyHeader))
		if !cfg.Enabled || store == nil || key == "" {
			c.Next()
			return
		}
		if len(key) > maxIdempotencyKeyLength {
			c.AbortWithStatusJSON(http.StatusBadRequest, dto.NewErrorResponseWithRequestID(
				dto.ErrCodeInvalidInput, "Idempotency-Key is too long", getRequestID(c)))
			return
		}

		scoped := idempotencyScope(c, key)
		ctx := c.Request.Context()

		reserved, err := store.Reserve(ctx, scoped, cfg.TTL)
		if err != nil {
			// store outage must not block deliveries
			logger.Warn("Idempotency store unavailable, processing without key",
				zap.String("key", scoped), zap.Error(err))
			c.Next()
			return
		}
		if !reserved {
			c.AbortWithStatusJSON(http.StatusConflict, dto.NewErrorResponseWithRequestID(
				dto.ErrCodeDuplicateRequest,
				"This submission has already been received",
				getRequestID(c),
			))
			return
		}

		c.Next()

		if c.Writer.Status() >= http.StatusBadRequest {
			if err := store.Release(context.WithoutCancel(ctx), scoped); err != nil {
				logger.Warn("Failed to release idempotency key", zap.String("key", scoped), zap.Error(err))
			}
		}
	}
}

// idempotencyScope binds the key to the caller and the route target
func idempotencyScope(c *gin.Context, key string) string {
	return GetJWTUserID(c) + ":" + c.Request.Method + ":" + c.Request.URL.Path + ":" + key
}
