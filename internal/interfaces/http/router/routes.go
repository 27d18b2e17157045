package router

import (
	"github.com/erp/procurement/internal/domain/procurement"
	"github.com/erp/procurement/internal/interfaces/http/handler"
	"github.com/erp/procurement/internal/interfaces/http/middleware"
	"github.com/gin-gonic/gin"
)

// Handlers are the HTTP handlers mounted under /api/v1
type Handlers struct {
	Auth    *handler.AuthHandler
	Catalog *handler.CatalogHandler
	Orders  *handler.PurchaseOrderHandler
	System  *handler.SystemHandler
}

// Guards are the route-specific middleware. Nil guards are skipped.
type Guards struct {
	LoginRateLimit gin.HandlerFunc
	Idempotency    gin.HandlerFunc
	Permission     middleware.PermissionConfig
}

func chain(guard gin.HandlerFunc, h gin.HandlerFunc) []gin.HandlerFunc {
	if guard == nil {
		return []gin.HandlerFunc{h}
	}
	return []gin.HandlerFunc{guard, h}
}

// ProcurementGroups builds the route groups of the procurement API
func ProcurementGroups(h Handlers, g Guards) []RouteRegistrar {
	manageCatalog := middleware.RequireCapabilityWithConfig(g.Permission, procurement.CapManageCatalog)
	adminOnly := middleware.RequireRoleWithConfig(g.Permission, procurement.RoleAdmin)

	authRoutes := NewDomainGroup("auth", "/auth")
	authRoutes.POST("/login", chain(g.LoginRateLimit, h.Auth.Login)...)
	authRoutes.POST("/refresh", h.Auth.RefreshToken)
	authRoutes.GET("/me", h.Auth.GetCurrentUser)
	authRoutes.PUT("/password", h.Auth.ChangePassword)

	catalogRoutes := NewDomainGroup("catalog", "/catalog-items")
	catalogRoutes.GET("", h.Catalog.List)
	catalogRoutes.POST("", manageCatalog, h.Catalog.Create)
	catalogRoutes.GET("/:id", h.Catalog.GetByID)
	catalogRoutes.PATCH("/:id/active", manageCatalog, h.Catalog.SetActive)

	orderRoutes := NewDomainGroup("purchase-orders", "/purchase-orders")
	orderRoutes.POST("", h.Orders.Create)
	orderRoutes.GET("", h.Orders.List)
	orderRoutes.GET("/stats/summary", h.Orders.GetStatusSummary)
	orderRoutes.GET("/number/:display_id", h.Orders.GetByDisplayID)
	orderRoutes.GET("/:id", h.Orders.GetByID)
	orderRoutes.DELETE("/:id", h.Orders.Delete)
	orderRoutes.POST("/:id/submit", h.Orders.Submit)
	orderRoutes.POST("/:id/approve", h.Orders.Approve)
	orderRoutes.POST("/:id/reject", h.Orders.Reject)
	orderRoutes.POST("/:id/link-concur", h.Orders.LinkConcur)
	orderRoutes.POST("/:id/approve-variance", h.Orders.ApproveVariance)
	orderRoutes.POST("/:id/complete", h.Orders.Complete)
	orderRoutes.POST("/:id/override", adminOnly, h.Orders.Override)
	orderRoutes.PUT("/:id/lines", h.Orders.SaveLines)
	orderRoutes.POST("/:id/deliveries/preview", h.Orders.PreviewDelivery)
	orderRoutes.POST("/:id/deliveries", chain(g.Idempotency, h.Orders.RecordDelivery)...)
	orderRoutes.PATCH("/:id/deliveries/:delivery_id", h.Orders.UpdateDelivery)
	orderRoutes.PATCH("/:id/deliveries/:delivery_id/lines/:line_id", h.Orders.UpdateDeliveryLineFinance)
	orderRoutes.GET("/:id/export/concur", h.Orders.ExportConcur)

	systemRoutes := NewDomainGroup("system", "")
	systemRoutes.GET("/ping", h.System.Ping)

	return []RouteRegistrar{authRoutes, catalogRoutes, orderRoutes, systemRoutes}
}
