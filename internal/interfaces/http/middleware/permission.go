package middleware

import (
	"net/http"

	"github.com/erp/procurement/internal/domain/procurement"
	"github.com/erp/procurement/internal/interfaces/http/dto"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// PermissionConfig holds configuration for permission middleware
type PermissionConfig struct {
	Logger *zap.Logger
}

// RequireCapability lets the request through if the caller holds any of
// the capabilities. Admins always pass.
func RequireCapability(capabilities ...procurement.Capability) gin.HandlerFunc {
	return RequireCapabilityWithConfig(PermissionConfig{}, capabilities...)
}

// RequireCapabilityWithConfig is RequireCapability with logging
func RequireCapabilityWithConfig(cfg PermissionConfig, capabilities ...procurement.Capability) gin.HandlerFunc {
	required := make([]string, len(capabilities))
	for i, c := range capabilities {
		required[i] = string(c)
	}

	return func(c *gin.Context) {
		claims := GetJWTClaims(c)
		if claims == nil {
			denyPermission(c, cfg, required, "no authentication claims")
			return
		}
		if claims.HasRole(procurement.RoleAdmin) {
			c.Next()
			return
		}
		for _, capability := range required {
			if claims.HasCapability(capability) {
				c.Next()
				return
			}
		}
		denyPermission(c, cfg, required, "missing capability")
	}
}

// RequireRole lets the request through only if the caller holds the role
func RequireRole(role string) gin.HandlerFunc {
	return RequireRoleWithConfig(PermissionConfig{}, role)
}

// RequireRoleWithConfig is RequireRole with logging
func RequireRoleWithConfig(cfg PermissionConfig, role string) gin.HandlerFunc {
	return func(c *gin.Context) {
		claims := GetJWTClaims(c)
		if claims == nil || !claims.HasRole(role) {
			denyPermission(c, cfg, []string{"role:" + role}, "missing role")
			return
		}
		c.Next()
	}
}

func denyPermission(c *gin.Context, cfg PermissionConfig, required []string, reason string) {
	if cfg.Logger != nil {
		cfg.Logger.Warn("Permission denied",
			zap.String("user_id", GetJWTUserID(c)),
			zap.Strings("required", required),
			zap.String("reason", reason),
			zap.String("path", c.Request.URL.Path),
		)
	}
	c.AbortWithStatusJSON(http.StatusForbidden, dto.NewErrorResponseWithRequestID(
		dto.ErrCodeForbidden,
		"You do not have permission to perform this action",
		getRequestID(c),
	))
}
