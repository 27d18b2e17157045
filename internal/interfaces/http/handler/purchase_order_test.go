package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	poapp "github.com/erp/procurement/internal/application/procurement"
	"github.com/erp/procurement/internal/domain/procurement"
	"github.com/erp/procurement/internal/domain/shared"
	"github.com/erp/procurement/internal/infrastructure/auth"
	"github.com/erp/procurement/internal/interfaces/http/dto"
	"github.com/erp/procurement/internal/interfaces/http/middleware"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func init() {
	middleware.SetupValidator()
}

type mockOrderService struct {
	mock.Mock
}

func (m *mockOrderService) order(args mock.Arguments) (*poapp.PurchaseOrderResponse, error) {
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*poapp.PurchaseOrderResponse), args.Error(1)
}

func (m *mockOrderService) Create(ctx context.Context, actor procurement.Actor, req poapp.CreatePurchaseOrderRequest) (*poapp.PurchaseOrderResponse, error) {
	return m.order(m.Called(ctx, actor, req))
}

func (m *mockOrderService) GetByID(ctx context.Context, id uuid.UUID) (*poapp.PurchaseOrderResponse, error) {
	return m.order(m.Called(ctx, id))
}

func (m *mockOrderService) GetByDisplayID(ctx context.Context, displayID string) (*poapp.PurchaseOrderResponse, error) {
	return m.order(m.Called(ctx, displayID))
}

func (m *mockOrderService) List(ctx context.Context, filter poapp.PurchaseOrderListFilter) ([]poapp.PurchaseOrderListItemResponse, int64, error) {
	args := m.Called(ctx, filter)
	if args.Get(0) == nil {
		return nil, 0, args.Error(2)
	}
	return args.Get(0).([]poapp.PurchaseOrderListItemResponse), args.Get(1).(int64), args.Error(2)
}

func (m *mockOrderService) GetStatusSummary(ctx context.Context) (*poapp.StatusSummaryResponse, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*poapp.StatusSummaryResponse), args.Error(1)
}

func (m *mockOrderService) Delete(ctx context.Context, actor procurement.Actor, id uuid.UUID, version int) error {
	return m.Called(ctx, actor, id, version).Error(0)
}

func (m *mockOrderService) Submit(ctx context.Context, actor procurement.Actor, id uuid.UUID, req poapp.ActionRequest) (*poapp.PurchaseOrderResponse, error) {
	return m.order(m.Called(ctx, actor, id, req))
}

func (m *mockOrderService) Approve(ctx context.Context, actor procurement.Actor, id uuid.UUID, req poapp.ActionRequest) (*poapp.PurchaseOrderResponse, error) {
	return m.order(m.Called(ctx, actor, id, req))
}

func (m *mockOrderService) Reject(ctx context.Context, actor procurement.Actor, id uuid.UUID, req poapp.ActionRequest) (*poapp.PurchaseOrderResponse, error) {
	return m.order(m.Called(ctx, actor, id, req))
}

func (m *mockOrderService) LinkConcur(ctx context.Context, actor procurement.Actor, id uuid.UUID, req poapp.LinkConcurRequest) (*poapp.PurchaseOrderResponse, error) {
	return m.order(m.Called(ctx, actor, id, req))
}

func (m *mockOrderService) ApproveVariance(ctx context.Context, actor procurement.Actor, id uuid.UUID, req poapp.ActionRequest) (*poapp.PurchaseOrderResponse, error) {
	return m.order(m.Called(ctx, actor, id, req))
}

func (m *mockOrderService) Complete(ctx context.Context, actor procurement.Actor, id uuid.UUID, req poapp.ActionRequest) (*poapp.PurchaseOrderResponse, error) {
	return m.order(m.Called(ctx, actor, id, req))
}

func (m *mockOrderService) Override(ctx context.Context, actor procurement.Actor, id uuid.UUID, req poapp.OverrideStatusRequest) (*poapp.PurchaseOrderResponse, error) {
	return m.order(m.Called(ctx, actor, id, req))
}

func (m *mockOrderService) PreviewDelivery(ctx context.Context, actor procurement.Actor, id uuid.UUID, in poapp.DeliverySubmissionInput) (*poapp.ReconciliationResponse, error) {
	args := m.Called(ctx, actor, id, in)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*poapp.ReconciliationResponse), args.Error(1)
}

func (m *mockOrderService) RecordDelivery(ctx context.Context, actor procurement.Actor, id uuid.UUID, req poapp.RecordDeliveryRequest) (*poapp.DeliveryResultResponse, error) {
	args := m.Called(ctx, actor, id, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*poapp.DeliveryResultResponse), args.Error(1)
}

func (m *mockOrderService) SaveLines(ctx context.Context, actor procurement.Actor, id uuid.UUID, req poapp.SaveLinesRequest) (*poapp.PurchaseOrderResponse, error) {
	return m.order(m.Called(ctx, actor, id, req))
}

func (m *mockOrderService) UpdateDelivery(ctx context.Context, actor procurement.Actor, id, deliveryID uuid.UUID, req poapp.UpdateDeliveryRequest) (*poapp.PurchaseOrderResponse, error) {
	return m.order(m.Called(ctx, actor, id, deliveryID, req))
}

func (m *mockOrderService) UpdateDeliveryLineFinance(ctx context.Context, actor procurement.Actor, id, deliveryID, lineID uuid.UUID, req poapp.UpdateDeliveryLineFinanceRequest) (*poapp.PurchaseOrderResponse, error) {
	return m.order(m.Called(ctx, actor, id, deliveryID, lineID, req))
}

func (m *mockOrderService) ExportConcurCSV(ctx context.Context, id uuid.UUID) (*poapp.ExportFile, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*poapp.ExportFile), args.Error(1)
}

var testActorID = uuid.MustParse("7a1f3c9e-2b4d-4e6f-8a0b-1c2d3e4f5a6b")

func testClaims(caps ...string) *auth.Claims {
	return &auth.Claims{
		UserID:       testActorID.String(),
		Username:     "riley",
		DisplayName:  "Riley Requester",
		Roles:        []string{"requester"},
		Capabilities: caps,
	}
}

func setupOrderRouter(svc PurchaseOrderService, claims *auth.Claims) *gin.Engine {
	r := gin.New()
	r.Use(func(c *gin.Context) {
		if claims != nil {
			c.Set(middleware.JWTClaimsKey, claims)
		}
		c.Next()
	})

	h := NewPurchaseOrderHandler(svc)
	orders := r.Group("/purchase-orders")
	orders.POST("", h.Create)
	orders.GET("", h.List)
	orders.GET("/stats/summary", h.GetStatusSummary)
	orders.GET("/number/:display_id", h.GetByDisplayID)
	orders.GET("/:id", h.GetByID)
	orders.DELETE("/:id", h.Delete)
	orders.POST("/:id/submit", h.Submit)
	orders.POST("/:id/approve", h.Approve)
	orders.POST("/:id/reject", h.Reject)
	orders.POST("/:id/link-concur", h.LinkConcur)
	orders.POST("/:id/approve-variance", h.ApproveVariance)
	orders.POST("/:id/complete", h.Complete)
	orders.POST("/:id/override", h.Override)
	orders.PUT("/:id/lines", h.SaveLines)
	orders.POST("/:id/deliveries/preview", h.PreviewDelivery)
	orders.POST("/:id/deliveries", h.RecordDelivery)
	orders.PATCH("/:id/deliveries/:delivery_id", h.UpdateDelivery)
	orders.PATCH("/:id/deliveries/:delivery_id/lines/:line_id", h.UpdateDeliveryLineFinance)
	orders.GET("/:id/export/concur", h.ExportConcur)
	return r
}

func jsonBody(t *testing.T, body any) *bytes.Buffer {
	t.Helper()
	var buf bytes.Buffer
	require.NoError(t, json.NewEncoder(&buf).Encode(body))
	return &buf
}

func doJSON(r http.Handler, method, path string, body any) *httptest.ResponseRecorder {
	var buf bytes.Buffer
	if body != nil {
		_ = json.NewEncoder(&buf).Encode(body)
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func actorWithID(id uuid.UUID) any {
	return mock.MatchedBy(func(a procurement.Actor) bool { return a.ID == id })
}

func TestPurchaseOrderHandler_Create(t *testing.T) {
	itemID := uuid.New()

	t.Run("created", func(t *testing.T) {
		svc := new(mockOrderService)
		r := setupOrderRouter(svc, testClaims())
		created := &poapp.PurchaseOrderResponse{ID: uuid.New(), DisplayID: "PO-2026-00001", Status: "PENDING"}
		svc.On("Create", mock.Anything, actorWithID(testActorID), mock.MatchedBy(func(req poapp.CreatePurchaseOrderRequest) bool {
			return req.Site == "Brisbane" && len(req.Lines) == 1 && req.Lines[0].Quantity == 4
		})).Return(created, nil)

		w := doJSON(r, http.MethodPost, "/purchase-orders", map[string]any{
			"site":          "Brisbane",
			"supplier_name": "Acme Supplies",
			"lines":         []map[string]any{{"item_id": itemID, "quantity": 4}},
		})

		assert.Equal(t, http.StatusCreated, w.Code)
		resp := decodeResponse(t, w)
		assert.True(t, resp.Success)
		assert.Equal(t, "PO-2026-00001", resp.Data.(map[string]any)["display_id"])
		svc.AssertExpectations(t)
	})

	t.Run("validation failure lists fields", func(t *testing.T) {
		svc := new(mockOrderService)
		r := setupOrderRouter(svc, testClaims())

		w := doJSON(r, http.MethodPost, "/purchase-orders", map[string]any{
			"site":  "Brisbane",
			"lines": []map[string]any{{"item_id": itemID, "quantity": 0}},
		})

		assert.Equal(t, http.StatusBadRequest, w.Code)
		resp := decodeResponse(t, w)
		require.NotNil(t, resp.Error)
		assert.Equal(t, dto.ErrCodeValidation, resp.Error.Code)
		fields := make([]string, 0, len(resp.Error.Details))
		for _, d := range resp.Error.Details {
			fields = append(fields, d.Field)
		}
		assert.Contains(t, fields, "supplier_name")
		assert.Contains(t, fields, "lines[0].quantity")
		svc.AssertNotCalled(t, "Create", mock.Anything, mock.Anything, mock.Anything)
	})

	t.Run("unauthenticated", func(t *testing.T) {
		svc := new(mockOrderService)
		r := setupOrderRouter(svc, nil)

		w := doJSON(r, http.MethodPost, "/purchase-orders", map[string]any{})

		assert.Equal(t, http.StatusUnauthorized, w.Code)
	})
}

func TestPurchaseOrderHandler_Get(t *testing.T) {
	t.Run("by id", func(t *testing.T) {
		svc := new(mockOrderService)
		r := setupOrderRouter(svc, testClaims())
		id := uuid.New()
		svc.On("GetByID", mock.Anything, id).Return(&poapp.PurchaseOrderResponse{ID: id, Version: 3}, nil)

		w := doJSON(r, http.MethodGet, "/purchase-orders/"+id.String(), nil)

		assert.Equal(t, http.StatusOK, w.Code)
		resp := decodeResponse(t, w)
		assert.Equal(t, float64(3), resp.Data.(map[string]any)["version"])
	})

	t.Run("invalid id", func(t *testing.T) {
		svc := new(mockOrderService)
		r := setupOrderRouter(svc, testClaims())

		w := doJSON(r, http.MethodGet, "/purchase-orders/not-a-uuid", nil)

		assert.Equal(t, http.StatusBadRequest, w.Code)
		assert.Equal(t, dto.ErrCodeInvalidInput, decodeResponse(t, w).Error.Code)
	})

	t.Run("not found", func(t *testing.T) {
		svc := new(mockOrderService)
		r := setupOrderRouter(svc, testClaims())
		id := uuid.New()
		svc.On("GetByID", mock.Anything, id).Return(nil, shared.NewDomainError("ORDER_NOT_FOUND", "Purchase order not found"))

		w := doJSON(r, http.MethodGet, "/purchase-orders/"+id.String(), nil)

		assert.Equal(t, http.StatusNotFound, w.Code)
		assert.Equal(t, "ORDER_NOT_FOUND", decodeResponse(t, w).Error.Code)
	})

	t.Run("by display id", func(t *testing.T) {
		svc := new(mockOrderService)
		r := setupOrderRouter(svc, testClaims())
		svc.On("GetByDisplayID", mock.Anything, "PO-2026-00042").Return(&poapp.PurchaseOrderResponse{DisplayID: "PO-2026-00042"}, nil)

		w := doJSON(r, http.MethodGet, "/purchase-orders/number/PO-2026-00042", nil)

		assert.Equal(t, http.StatusOK, w.Code)
		svc.AssertExpectations(t)
	})
}

func TestPurchaseOrderHandler_List(t *testing.T) {
	t.Run("defaults pagination", func(t *testing.T) {
		svc := new(mockOrderService)
		r := setupOrderRouter(svc, testClaims())
		items := []poapp.PurchaseOrderListItemResponse{{DisplayID: "PO-2026-00001"}, {DisplayID: "PO-2026-00002"}}
		svc.On("List", mock.Anything, mock.MatchedBy(func(f poapp.PurchaseOrderListFilter) bool {
			return f.Page == 1 && f.PageSize == 20 && f.Status == "PENDING"
		})).Return(items, int64(42), nil)

		w := doJSON(r, http.MethodGet, "/purchase-orders?status=PENDING", nil)

		assert.Equal(t, http.StatusOK, w.Code)
		resp := decodeResponse(t, w)
		require.NotNil(t, resp.Meta)
		assert.Equal(t, int64(42), resp.Meta.Total)
		assert.Equal(t, 3, resp.Meta.TotalPages)
		assert.Len(t, resp.Data, 2)
	})

	t.Run("rejects oversize page", func(t *testing.T) {
		svc := new(mockOrderService)
		r := setupOrderRouter(svc, testClaims())

		w := doJSON(r, http.MethodGet, "/purchase-orders?page_size=500", nil)

		assert.Equal(t, http.StatusBadRequest, w.Code)
	})

	t.Run("status summary", func(t *testing.T) {
		svc := new(mockOrderService)
		r := setupOrderRouter(svc, testClaims())
		svc.On("GetStatusSummary", mock.Anything).Return(&poapp.StatusSummaryResponse{
			Counts: map[string]int64{"PENDING": 2}, Total: 2,
		}, nil)

		w := doJSON(r, http.MethodGet, "/purchase-orders/stats/summary", nil)

		assert.Equal(t, http.StatusOK, w.Code)
		assert.Equal(t, float64(2), decodeResponse(t, w).Data.(map[string]any)["total"])
	})
}

func TestPurchaseOrderHandler_Delete(t *testing.T) {
	id := uuid.New()

	t.Run("requires version", func(t *testing.T) {
		svc := new(mockOrderService)
		r := setupOrderRouter(svc, testClaims())

		w := doJSON(r, http.MethodDelete, "/purchase-orders/"+id.String(), nil)

		assert.Equal(t, http.StatusBadRequest, w.Code)
	})

	t.Run("deleted", func(t *testing.T) {
		svc := new(mockOrderService)
		r := setupOrderRouter(svc, testClaims())
		svc.On("Delete", mock.Anything, actorWithID(testActorID), id, 2).Return(nil)

		w := doJSON(r, http.MethodDelete, "/purchase-orders/"+id.String()+"?version=2", nil)

		assert.Equal(t, http.StatusNoContent, w.Code)
		svc.AssertExpectations(t)
	})

	t.Run("stale version", func(t *testing.T) {
		svc := new(mockOrderService)
		r := setupOrderRouter(svc, testClaims())
		svc.On("Delete", mock.Anything, mock.Anything, id, 1).Return(shared.ErrConcurrentModification)

		w := doJSON(r, http.MethodDelete, "/purchase-orders/"+id.String()+"?version=1", nil)

		assert.Equal(t, http.StatusConflict, w.Code)
		assert.Equal(t, dto.ErrCodeConcurrentModification, decodeResponse(t, w).Error.Code)
	})
}

func TestPurchaseOrderHandler_Actions(t *testing.T) {
	id := uuid.New()
	body := map[string]any{"version": 3, "comments": "ok"}
	req := poapp.ActionRequest{Version: 3, Comments: "ok"}

	tests := []struct {
		name   string
		path   string
		method string
	}{
		{"submit", "/submit", "Submit"},
		{"approve", "/approve", "Approve"},
		{"reject", "/reject", "Reject"},
		{"approve variance", "/approve-variance", "ApproveVariance"},
		{"complete", "/complete", "Complete"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc := new(mockOrderService)
			r := setupOrderRouter(svc, testClaims("po:approve"))
			svc.On(tt.method, mock.Anything, actorWithID(testActorID), id, req).
				Return(&poapp.PurchaseOrderResponse{ID: id, Version: 4}, nil)

			w := doJSON(r, http.MethodPost, "/purchase-orders/"+id.String()+tt.path, body)

			assert.Equal(t, http.StatusOK, w.Code)
			svc.AssertExpectations(t)
		})
	}

	t.Run("missing version", func(t *testing.T) {
		svc := new(mockOrderService)
		r := setupOrderRouter(svc, testClaims())

		w := doJSON(r, http.MethodPost, "/purchase-orders/"+id.String()+"/approve", map[string]any{})

		assert.Equal(t, http.StatusBadRequest, w.Code)
	})

	t.Run("forbidden from domain", func(t *testing.T) {
		svc := new(mockOrderService)
		r := setupOrderRouter(svc, testClaims())
		svc.On("Approve", mock.Anything, mock.Anything, id, req).Return(nil, shared.ErrForbidden)

		w := doJSON(r, http.MethodPost, "/purchase-orders/"+id.String()+"/approve", body)

		assert.Equal(t, http.StatusForbidden, w.Code)
	})

	t.Run("wrong state", func(t *testing.T) {
		svc := new(mockOrderService)
		r := setupOrderRouter(svc, testClaims())
		svc.On("Complete", mock.Anything, mock.Anything, id, req).Return(nil, shared.ErrInvalidState)

		w := doJSON(r, http.MethodPost, "/purchase-orders/"+id.String()+"/complete", body)

		assert.Equal(t, http.StatusUnprocessableEntity, w.Code)
	})

	t.Run("link concur", func(t *testing.T) {
		svc := new(mockOrderService)
		r := setupOrderRouter(svc, testClaims("po:link_concur"))
		svc.On("LinkConcur", mock.Anything, mock.Anything, id, mock.MatchedBy(func(req poapp.LinkConcurRequest) bool {
			return req.ConcurPONumber == "C-1001" && len(req.LineIDs) == 0
		})).Return(&poapp.PurchaseOrderResponse{ID: id}, nil)

		w := doJSON(r, http.MethodPost, "/purchase-orders/"+id.String()+"/link-concur", map[string]any{
			"version": 1, "concur_po_number": "C-1001",
		})

		assert.Equal(t, http.StatusOK, w.Code)
		svc.AssertExpectations(t)
	})

	t.Run("override requires reason", func(t *testing.T) {
		svc := new(mockOrderService)
		r := setupOrderRouter(svc, testClaims())

		w := doJSON(r, http.MethodPost, "/purchase-orders/"+id.String()+"/override", map[string]any{
			"version": 1, "status": "COMPLETE",
		})

		assert.Equal(t, http.StatusBadRequest, w.Code)
	})
}

func TestPurchaseOrderHandler_Deliveries(t *testing.T) {
	id := uuid.New()
	lineID := uuid.New()
	submission := map[string]any{
		"date":          "2026-03-14",
		"docket_number": "D-77",
		"lines":         []map[string]any{{"line_id": lineID, "quantity": 5}},
	}

	t.Run("preview", func(t *testing.T) {
		svc := new(mockOrderService)
		r := setupOrderRouter(svc, testClaims("po:receive"))
		svc.On("PreviewDelivery", mock.Anything, actorWithID(testActorID), id, mock.MatchedBy(func(in poapp.DeliverySubmissionInput) bool {
			return in.DocketNumber == "D-77" && in.Lines[0].LineID == lineID
		})).Return(&poapp.ReconciliationResponse{RequiresApproval: true, SubmitLabel: "Submit for Approval"}, nil)

		w := doJSON(r, http.MethodPost, "/purchase-orders/"+id.String()+"/deliveries/preview", submission)

		assert.Equal(t, http.StatusOK, w.Code)
		assert.Equal(t, true, decodeResponse(t, w).Data.(map[string]any)["requires_approval"])
	})

	t.Run("preview needs an actor", func(t *testing.T) {
		svc := new(mockOrderService)
		r := setupOrderRouter(svc, nil)

		w := doJSON(r, http.MethodPost, "/purchase-orders/"+id.String()+"/deliveries/preview", submission)

		assert.Equal(t, http.StatusUnauthorized, w.Code)
		svc.AssertNotCalled(t, "PreviewDelivery", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
	})

	t.Run("preview of a forbidden order", func(t *testing.T) {
		svc := new(mockOrderService)
		r := setupOrderRouter(svc, testClaims())
		svc.On("PreviewDelivery", mock.Anything, actorWithID(testActorID), id, mock.Anything).
			Return(nil, shared.NewDomainError("FORBIDDEN", "You do not have permission to record deliveries"))

		w := doJSON(r, http.MethodPost, "/purchase-orders/"+id.String()+"/deliveries/preview", submission)

		assert.Equal(t, http.StatusForbidden, w.Code)
	})

	t.Run("bad date", func(t *testing.T) {
		svc := new(mockOrderService)
		r := setupOrderRouter(svc, testClaims("po:receive"))

		w := doJSON(r, http.MethodPost, "/purchase-orders/"+id.String()+"/deliveries/preview", map[string]any{
			"date":  "14/03/2026",
			"lines": []map[string]any{{"line_id": lineID, "quantity": 5}},
		})

		assert.Equal(t, http.StatusBadRequest, w.Code)
	})

	t.Run("record", func(t *testing.T) {
		svc := new(mockOrderService)
		r := setupOrderRouter(svc, testClaims("po:receive"))
		svc.On("RecordDelivery", mock.Anything, actorWithID(testActorID), id, mock.MatchedBy(func(req poapp.RecordDeliveryRequest) bool {
			return req.Version == 2 && req.Date == "2026-03-14"
		})).Return(&poapp.DeliveryResultResponse{}, nil)

		w := doJSON(r, http.MethodPost, "/purchase-orders/"+id.String()+"/deliveries", map[string]any{
			"version":       2,
			"date":          "2026-03-14",
			"docket_number": "D-77",
			"lines":         []map[string]any{{"line_id": lineID, "quantity": 5}},
		})

		assert.Equal(t, http.StatusCreated, w.Code)
		svc.AssertExpectations(t)
	})

	t.Run("update header", func(t *testing.T) {
		svc := new(mockOrderService)
		r := setupOrderRouter(svc, testClaims("po:manage_deliveries"))
		deliveryID := uuid.New()
		svc.On("UpdateDelivery", mock.Anything, mock.Anything, id, deliveryID, mock.MatchedBy(func(req poapp.UpdateDeliveryRequest) bool {
			return req.DocketNumber != nil && *req.DocketNumber == "D-78" && req.Date == nil
		})).Return(&poapp.PurchaseOrderResponse{ID: id}, nil)

		w := doJSON(r, http.MethodPatch, "/purchase-orders/"+id.String()+"/deliveries/"+deliveryID.String(), map[string]any{
			"version": 4, "docket_number": "D-78",
		})

		assert.Equal(t, http.StatusOK, w.Code)
		svc.AssertExpectations(t)
	})

	t.Run("update line finance", func(t *testing.T) {
		svc := new(mockOrderService)
		r := setupOrderRouter(svc, testClaims("po:finance"))
		deliveryID := uuid.New()
		svc.On("UpdateDeliveryLineFinance", mock.Anything, mock.Anything, id, deliveryID, lineID, mock.MatchedBy(func(req poapp.UpdateDeliveryLineFinanceRequest) bool {
			return req.IsCapitalised != nil && *req.IsCapitalised && *req.CapitalisedDate == "2026-04-01"
		})).Return(&poapp.PurchaseOrderResponse{ID: id}, nil)

		w := doJSON(r, http.MethodPatch,
			"/purchase-orders/"+id.String()+"/deliveries/"+deliveryID.String()+"/lines/"+lineID.String(),
			map[string]any{"version": 4, "is_capitalised": true, "capitalised_date": "2026-04-01"})

		assert.Equal(t, http.StatusOK, w.Code)
		svc.AssertExpectations(t)
	})

	t.Run("bad delivery id", func(t *testing.T) {
		svc := new(mockOrderService)
		r := setupOrderRouter(svc, testClaims())

		w := doJSON(r, http.MethodPatch, "/purchase-orders/"+id.String()+"/deliveries/x", map[string]any{"version": 1})

		assert.Equal(t, http.StatusBadRequest, w.Code)
		assert.Contains(t, decodeResponse(t, w).Error.Message, "delivery_id")
	})
}

func TestPurchaseOrderHandler_SaveLines(t *testing.T) {
	id := uuid.New()
	lineID := uuid.New()
	svc := new(mockOrderService)
	r := setupOrderRouter(svc, testClaims())
	svc.On("SaveLines", mock.Anything, mock.Anything, id, mock.MatchedBy(func(req poapp.SaveLinesRequest) bool {
		return len(req.Lines) == 1 && *req.Lines[0].LineID == lineID && req.Comments == nil
	})).Return(&poapp.PurchaseOrderResponse{ID: id}, nil)

	w := doJSON(r, http.MethodPut, "/purchase-orders/"+id.String()+"/lines", map[string]any{
		"version": 1,
		"lines":   []map[string]any{{"line_id": lineID, "quantity": 2}},
	})

	assert.Equal(t, http.StatusOK, w.Code)
	svc.AssertExpectations(t)
}

func TestPurchaseOrderHandler_ExportConcur(t *testing.T) {
	id := uuid.New()
	svc := new(mockOrderService)
	r := setupOrderRouter(svc, testClaims())
	svc.On("ExportConcurCSV", mock.Anything, id).Return(&poapp.ExportFile{
		Filename:    "PO-2026-00001-concur.csv",
		ContentType: "text/csv",
		Content:     []byte("SKU,Quantity\n"),
	}, nil)

	w := doJSON(r, http.MethodGet, "/purchase-orders/"+id.String()+"/export/concur", nil)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, `attachment; filename="PO-2026-00001-concur.csv"`, w.Header().Get("Content-Disposition"))
	assert.Equal(t, "text/csv", w.Header().Get("Content-Type"))
	assert.Equal(t, "SKU,Quantity\n", w.Body.String())
}
