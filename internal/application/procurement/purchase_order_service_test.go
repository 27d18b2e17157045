package procurement

import (
	"context"
	"errors"
	"testing"

	"github.com/erp/procurement/internal/domain/procurement"
	"github.com/erp/procurement/internal/domain/shared"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

// MockPurchaseOrderRepository is a mock implementation of PurchaseOrderRepository
type MockPurchaseOrderRepository struct {
	mock.Mock
}

func (m *MockPurchaseOrderRepository) FindByID(ctx context.Context, id uuid.UUID) (*procurement.PurchaseOrder, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*procurement.PurchaseOrder), args.Error(1)
}

func (m *MockPurchaseOrderRepository) FindByDisplayID(ctx context.Context, displayID string) (*procurement.PurchaseOrder, error) {
	args := m.Called(ctx, displayID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*procurement.PurchaseOrder), args.Error(1)
}

func (m *MockPurchaseOrderRepository) FindAll(ctx context.Context, filter shared.Filter) ([]procurement.PurchaseOrder, error) {
	args := m.Called(ctx, filter)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]procurement.PurchaseOrder), args.Error(1)
}

func (m *MockPurchaseOrderRepository) Count(ctx context.Context, filter shared.Filter) (int64, error) {
	args := m.Called(ctx, filter)
	return args.Get(0).(int64), args.Error(1)
}

func (m *MockPurchaseOrderRepository) CountByStatus(ctx context.Context) (map[procurement.Status]int64, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(map[procurement.Status]int64), args.Error(1)
}

func (m *MockPurchaseOrderRepository) Create(ctx context.Context, order *procurement.PurchaseOrder) error {
	args := m.Called(ctx, order)
	return args.Error(0)
}

func (m *MockPurchaseOrderRepository) SaveWithLock(ctx context.Context, order *procurement.PurchaseOrder) error {
	args := m.Called(ctx, order)
	return args.Error(0)
}

func (m *MockPurchaseOrderRepository) Delete(ctx context.Context, id uuid.UUID, expectedVersion int) error {
	args := m.Called(ctx, id, expectedVersion)
	return args.Error(0)
}

func (m *MockPurchaseOrderRepository) GenerateDisplayID(ctx context.Context) (string, error) {
	args := m.Called(ctx)
	return args.String(0), args.Error(1)
}

// MockCatalogRepository is a mock implementation of CatalogRepository
type MockCatalogRepository struct {
	mock.Mock
}

func (m *MockCatalogRepository) FindByID(ctx context.Context, id uuid.UUID) (*procurement.CatalogItem, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*procurement.CatalogItem), args.Error(1)
}

func (m *MockCatalogRepository) FindBySKU(ctx context.Context, sku string) (*procurement.CatalogItem, error) {
	args := m.Called(ctx, sku)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*procurement.CatalogItem), args.Error(1)
}

func (m *MockCatalogRepository) FindAll(ctx context.Context, filter shared.Filter) ([]procurement.CatalogItem, error) {
	args := m.Called(ctx, filter)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]procurement.CatalogItem), args.Error(1)
}

func (m *MockCatalogRepository) Count(ctx context.Context, filter shared.Filter) (int64, error) {
	args := m.Called(ctx, filter)
	return args.Get(0).(int64), args.Error(1)
}

func (m *MockCatalogRepository) Save(ctx context.Context, item *procurement.CatalogItem) error {
	args := m.Called(ctx, item)
	return args.Error(0)
}

func (m *MockCatalogRepository) ExistsBySKU(ctx context.Context, sku string) (bool, error) {
	args := m.Called(ctx, sku)
	return args.Bool(0), args.Error(1)
}

// MockEventPublisher records published events
type MockEventPublisher struct {
	mock.Mock
}

func (m *MockEventPublisher) Publish(ctx context.Context, events ...shared.DomainEvent) error {
	args := m.Called(ctx, events)
	return args.Error(0)
}

// MockExportArchiver is a mock implementation of ExportArchiver
type MockExportArchiver struct {
	mock.Mock
}

func (m *MockExportArchiver) Archive(ctx context.Context, filename string, content []byte, contentType string) error {
	args := m.Called(ctx, filename, content, contentType)
	return args.Error(0)
}

var (
	requester = procurement.Actor{ID: uuid.New(), Name: "Riley Requester"}
	approver  = procurement.Actor{
		ID:           uuid.New(),
		Name:         "Avery Approver",
		Capabilities: []procurement.Capability{procurement.CapApproveRequests},
	}
	admin = procurement.Actor{ID: uuid.New(), Name: "Admin", Roles: []string{procurement.RoleAdmin}}
)

func newTestService() (*PurchaseOrderService, *MockPurchaseOrderRepository, *MockCatalogRepository) {
	orderRepo := new(MockPurchaseOrderRepository)
	catalogRepo := new(MockCatalogRepository)
	return NewPurchaseOrderService(orderRepo, catalogRepo, zap.NewNop()), orderRepo, catalogRepo
}

func newCatalogItem(t *testing.T, sku string, price string) *procurement.CatalogItem {
	t.Helper()
	item, err := procurement.NewCatalogItem(sku, "Item "+sku, decimal.RequireFromString(price))
	require.NoError(t, err)
	return item
}

// newOrder builds a persisted-looking order with the given lines in DRAFT
func newOrder(t *testing.T, items ...*procurement.CatalogItem) *procurement.PurchaseOrder {
	t.Helper()
	order, err := procurement.NewPurchaseOrder("PO-2026-00001", requester, procurement.OrderHeader{
		Site:         "Brisbane",
		SupplierName: "Acme Supplies",
	})
	require.NoError(t, err)
	for _, item := range items {
		_, err := order.AddLine(item, 10, item.DefaultPrice)
		require.NoError(t, err)
	}
	order.Version = 1
	order.ClearDomainEvents()
	return order
}

func newPendingOrder(t *testing.T, items ...*procurement.CatalogItem) *procurement.PurchaseOrder {
	t.Helper()
	order := newOrder(t, items...)
	require.NoError(t, order.Submit(requester))
	order.ClearDomainEvents()
	return order
}

func newActiveOrder(t *testing.T, items ...*procurement.CatalogItem) *procurement.PurchaseOrder {
	t.Helper()
	order := newPendingOrder(t, items...)
	require.NoError(t, order.Approve(approver, ""))
	require.NoError(t, order.LinkConcur(requester, "CONCUR-1", nil))
	order.ClearDomainEvents()
	return order
}

func TestPurchaseOrderService_Create(t *testing.T) {
	ctx := context.Background()

	t.Run("creates and submits order with catalog defaults", func(t *testing.T) {
		svc, orderRepo, catalogRepo := newTestService()
		publisher := new(MockEventPublisher)
		svc.SetEventPublisher(publisher)

		widget := newCatalogItem(t, "WID-1", "12.50")
		bolt := newCatalogItem(t, "BOLT-1", "0.75")
		override := decimal.RequireFromString("0.60")

		orderRepo.On("GenerateDisplayID", mock.Anything).Return("PO-2026-00042", nil)
		catalogRepo.On("FindByID", mock.Anything, widget.ID).Return(widget, nil)
		catalogRepo.On("FindByID", mock.Anything, bolt.ID).Return(bolt, nil)
		orderRepo.On("Create", mock.Anything, mock.AnythingOfType("*procurement.PurchaseOrder")).Return(nil)
		publisher.On("Publish", mock.Anything, mock.Anything).Return(nil)

		resp, err := svc.Create(ctx, requester, CreatePurchaseOrderRequest{
			Site:         "Brisbane",
			SupplierName: "Acme Supplies",
			Lines: []CreateLineInput{
				{ItemID: widget.ID, Quantity: 2},
				{ItemID: bolt.ID, Quantity: 100, UnitPrice: &override},
			},
		})

		require.NoError(t, err)
		assert.Equal(t, "PO-2026-00042", resp.DisplayID)
		assert.Equal(t, string(procurement.StatusPendingApproval), resp.Status)
		require.Len(t, resp.Lines, 2)
		assert.True(t, resp.TotalAmount.Equal(decimal.RequireFromString("85")))

		publisher.AssertCalled(t, "Publish", mock.Anything, mock.MatchedBy(func(events []shared.DomainEvent) bool {
			return len(events) == 2 &&
				events[0].EventType() == procurement.EventTypePurchaseOrderCreated &&
				events[1].EventType() == procurement.EventTypePurchaseOrderSubmitted
		}))
		orderRepo.AssertExpectations(t)
	})

	t.Run("keeps draft when requested", func(t *testing.T) {
		svc, orderRepo, catalogRepo := newTestService()
		widget := newCatalogItem(t, "WID-1", "12.50")

		orderRepo.On("GenerateDisplayID", mock.Anything).Return("PO-2026-00043", nil)
		catalogRepo.On("FindByID", mock.Anything, widget.ID).Return(widget, nil)
		orderRepo.On("Create", mock.Anything, mock.Anything).Return(nil)

		resp, err := svc.Create(ctx, requester, CreatePurchaseOrderRequest{
			Site:         "Brisbane",
			SupplierName: "Acme Supplies",
			SaveAsDraft:  true,
			Lines:        []CreateLineInput{{ItemID: widget.ID, Quantity: 1}},
		})

		require.NoError(t, err)
		assert.Equal(t, string(procurement.StatusDraft), resp.Status)
	})

	t.Run("maps missing catalog item to INVALID_ITEM", func(t *testing.T) {
		svc, orderRepo, catalogRepo := newTestService()
		missing := uuid.New()

		orderRepo.On("GenerateDisplayID", mock.Anything).Return("PO-2026-00044", nil)
		catalogRepo.On("FindByID", mock.Anything, missing).Return(nil, shared.ErrNotFound)

		_, err := svc.Create(ctx, requester, CreatePurchaseOrderRequest{
			Site:         "Brisbane",
			SupplierName: "Acme Supplies",
			Lines:        []CreateLineInput{{ItemID: missing, Quantity: 1}},
		})

		var domainErr *shared.DomainError
		require.True(t, errors.As(err, &domainErr))
		assert.Equal(t, "INVALID_ITEM", domainErr.Code)
		orderRepo.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
	})

	t.Run("rejects duplicate sku", func(t *testing.T) {
		svc, orderRepo, catalogRepo := newTestService()
		widget := newCatalogItem(t, "WID-1", "12.50")

		orderRepo.On("GenerateDisplayID", mock.Anything).Return("PO-2026-00045", nil)
		catalogRepo.On("FindByID", mock.Anything, widget.ID).Return(widget, nil)

		_, err := svc.Create(ctx, requester, CreatePurchaseOrderRequest{
			Site:         "Brisbane",
			SupplierName: "Acme Supplies",
			Lines: []CreateLineInput{
				{ItemID: widget.ID, Quantity: 1},
				{ItemID: widget.ID, Quantity: 2},
			},
		})

		assert.ErrorIs(t, err, shared.NewDomainError("DUPLICATE_SKU", ""))
	})
}

func TestPurchaseOrderService_Approve(t *testing.T) {
	ctx := context.Background()

	t.Run("approves pending order", func(t *testing.T) {
		svc, orderRepo, _ := newTestService()
		order := newPendingOrder(t, newCatalogItem(t, "WID-1", "10"))

		orderRepo.On("FindByID", mock.Anything, order.ID).Return(order, nil)
		orderRepo.On("SaveWithLock", mock.Anything, order).Return(nil)

		resp, err := svc.Approve(ctx, approver, order.ID, ActionRequest{Version: 1, Comments: "ok"})

		require.NoError(t, err)
		assert.Equal(t, string(procurement.StatusApprovedPendingConcur), resp.Status)
		assert.Empty(t, order.GetDomainEvents())
	})

	t.Run("stale version is a concurrent modification", func(t *testing.T) {
		svc, orderRepo, _ := newTestService()
		order := newPendingOrder(t, newCatalogItem(t, "WID-1", "10"))
		order.Version = 3

		orderRepo.On("FindByID", mock.Anything, order.ID).Return(order, nil)

		_, err := svc.Approve(ctx, approver, order.ID, ActionRequest{Version: 2})

		assert.ErrorIs(t, err, shared.ErrConcurrentModification)
		orderRepo.AssertNotCalled(t, "SaveWithLock", mock.Anything, mock.Anything)
	})

	t.Run("lost race on save is surfaced", func(t *testing.T) {
		svc, orderRepo, _ := newTestService()
		order := newPendingOrder(t, newCatalogItem(t, "WID-1", "10"))

		orderRepo.On("FindByID", mock.Anything, order.ID).Return(order, nil)
		orderRepo.On("SaveWithLock", mock.Anything, order).Return(shared.ErrConcurrentModification)

		_, err := svc.Approve(ctx, approver, order.ID, ActionRequest{Version: 1})

		assert.ErrorIs(t, err, shared.ErrConcurrentModification)
	})

	t.Run("requester cannot approve", func(t *testing.T) {
		svc, orderRepo, _ := newTestService()
		order := newPendingOrder(t, newCatalogItem(t, "WID-1", "10"))

		orderRepo.On("FindByID", mock.Anything, order.ID).Return(order, nil)

		_, err := svc.Approve(ctx, requester, order.ID, ActionRequest{Version: 1})

		assert.ErrorIs(t, err, shared.ErrForbidden)
	})

	t.Run("publish failure does not fail the request", func(t *testing.T) {
		svc, orderRepo, _ := newTestService()
		publisher := new(MockEventPublisher)
		svc.SetEventPublisher(publisher)
		order := newPendingOrder(t, newCatalogItem(t, "WID-1", "10"))

		orderRepo.On("FindByID", mock.Anything, order.ID).Return(order, nil)
		orderRepo.On("SaveWithLock", mock.Anything, order).Return(nil)
		publisher.On("Publish", mock.Anything, mock.Anything).Return(errors.New("bus down"))

		_, err := svc.Approve(ctx, approver, order.ID, ActionRequest{Version: 1})

		require.NoError(t, err)
		publisher.AssertNumberOfCalls(t, "Publish", 1)
	})
}

func TestPurchaseOrderService_RecordDelivery(t *testing.T) {
	ctx := context.Background()

	t.Run("partial receipt", func(t *testing.T) {
		svc, orderRepo, _ := newTestService()
		order := newActiveOrder(t, newCatalogItem(t, "WID-1", "10"))
		lineID := order.Lines[0].ID

		orderRepo.On("FindByID", mock.Anything, order.ID).Return(order, nil)
		orderRepo.On("SaveWithLock", mock.Anything, order).Return(nil)

		resp, err := svc.RecordDelivery(ctx, requester, order.ID, RecordDeliveryRequest{
			Version: 1,
			DeliverySubmissionInput: DeliverySubmissionInput{
				Date:         "2026-03-01",
				DocketNumber: "DK-1",
				Lines:        []ReceiptLineInput{{LineID: lineID, Quantity: 4}},
			},
		})

		require.NoError(t, err)
		assert.Equal(t, string(procurement.StatusPartiallyReceived), resp.Order.Status)
		assert.False(t, resp.Reconciliation.RequiresApproval)
		require.Len(t, resp.Order.Deliveries, 1)
		assert.Equal(t, "2026-03-01", resp.Order.Deliveries[0].Date)
	})

	t.Run("over receipt goes to variance pending", func(t *testing.T) {
		svc, orderRepo, _ := newTestService()
		order := newActiveOrder(t, newCatalogItem(t, "WID-1", "10"))
		lineID := order.Lines[0].ID

		orderRepo.On("FindByID", mock.Anything, order.ID).Return(order, nil)
		orderRepo.On("SaveWithLock", mock.Anything, order).Return(nil)

		resp, err := svc.RecordDelivery(ctx, requester, order.ID, RecordDeliveryRequest{
			Version: 1,
			DeliverySubmissionInput: DeliverySubmissionInput{
				Date:         "2026-03-01",
				DocketNumber: "DK-1",
				Lines:        []ReceiptLineInput{{LineID: lineID, Quantity: 12, Close: true}},
			},
		})

		require.NoError(t, err)
		assert.Equal(t, string(procurement.StatusVariancePending), resp.Order.Status)
		assert.True(t, resp.Reconciliation.RequiresApproval)
		assert.Equal(t, "Submit for Approval", resp.Reconciliation.SubmitLabel)
		assert.Empty(t, resp.Reconciliation.ClosedLineIDs)
	})

	t.Run("malformed date", func(t *testing.T) {
		svc, orderRepo, _ := newTestService()

		_, err := svc.RecordDelivery(ctx, requester, uuid.New(), RecordDeliveryRequest{
			Version:                 1,
			DeliverySubmissionInput: DeliverySubmissionInput{Date: "01/03/2026"},
		})

		assert.ErrorIs(t, err, shared.NewDomainError("INVALID_DATE", ""))
		orderRepo.AssertNotCalled(t, "FindByID", mock.Anything, mock.Anything)
	})
}

func TestPurchaseOrderService_PreviewDelivery(t *testing.T) {
	ctx := context.Background()

	t.Run("classifies before a docket is entered", func(t *testing.T) {
		svc, orderRepo, _ := newTestService()
		order := newActiveOrder(t, newCatalogItem(t, "WID-1", "10"))
		lineID := order.Lines[0].ID
		orderRepo.On("FindByID", mock.Anything, order.ID).Return(order, nil)

		resp, err := svc.PreviewDelivery(ctx, requester, order.ID, DeliverySubmissionInput{
			Date:  "2026-03-01",
			Lines: []ReceiptLineInput{{LineID: lineID, Quantity: 6, Close: true}},
		})

		require.NoError(t, err)
		assert.True(t, resp.RequiresApproval)
		assert.Equal(t, "Submit for Approval", resp.SubmitLabel)
		assert.True(t, resp.DocketRequired)
		require.Len(t, resp.Variances, 1)
		assert.Equal(t, "SHORT", resp.Variances[0].Kind)
		assert.Equal(t, 4, resp.Variances[0].Quantity)
		assert.Equal(t, procurement.StatusActive, order.Status)
		assert.Equal(t, 0, order.Lines[0].QuantityReceived)
		orderRepo.AssertNotCalled(t, "SaveWithLock", mock.Anything, mock.Anything)
	})

	t.Run("docket entered", func(t *testing.T) {
		svc, orderRepo, _ := newTestService()
		order := newActiveOrder(t, newCatalogItem(t, "WID-1", "10"))
		orderRepo.On("FindByID", mock.Anything, order.ID).Return(order, nil)

		resp, err := svc.PreviewDelivery(ctx, requester, order.ID, DeliverySubmissionInput{
			Date:         "2026-03-01",
			DocketNumber: "DN-1",
			Lines:        []ReceiptLineInput{{LineID: order.Lines[0].ID, Quantity: 10}},
		})

		require.NoError(t, err)
		assert.False(t, resp.RequiresApproval)
		assert.Equal(t, "Record Delivery", resp.SubmitLabel)
		assert.False(t, resp.DocketRequired)
	})

	t.Run("actor who cannot receive goods", func(t *testing.T) {
		svc, orderRepo, _ := newTestService()
		order := newActiveOrder(t, newCatalogItem(t, "WID-1", "10"))
		orderRepo.On("FindByID", mock.Anything, order.ID).Return(order, nil)
		outsider := procurement.Actor{ID: uuid.New(), Name: "Olly Outsider"}

		_, err := svc.PreviewDelivery(ctx, outsider, order.ID, DeliverySubmissionInput{
			Date:  "2026-03-01",
			Lines: []ReceiptLineInput{{LineID: order.Lines[0].ID, Quantity: 2}},
		})

		assert.ErrorIs(t, err, shared.ErrForbidden)
	})
}

func TestPurchaseOrderService_SaveLines(t *testing.T) {
	ctx := context.Background()

	t.Run("replays edits and saves once", func(t *testing.T) {
		svc, orderRepo, catalogRepo := newTestService()
		widget := newCatalogItem(t, "WID-1", "10")
		bolt := newCatalogItem(t, "BOLT-1", "2")
		nut := newCatalogItem(t, "NUT-1", "1.5")
		order := newPendingOrder(t, widget, bolt)
		widgetLine := order.Lines[0].ID
		price := decimal.RequireFromString("9")
		customer := "Big Customer"

		orderRepo.On("FindByID", mock.Anything, order.ID).Return(order, nil)
		catalogRepo.On("FindByID", mock.Anything, nut.ID).Return(nut, nil)
		orderRepo.On("SaveWithLock", mock.Anything, order).Return(nil).Once()

		resp, err := svc.SaveLines(ctx, requester, order.ID, SaveLinesRequest{
			Version: 1,
			Lines: []EditLineInput{
				{LineID: &widgetLine, Quantity: 3, UnitPrice: &price},
				{ItemID: &nut.ID, Quantity: 4},
			},
			CustomerName: &customer,
		})

		require.NoError(t, err)
		require.Len(t, resp.Lines, 2)
		assert.Equal(t, "Big Customer", resp.CustomerName)
		assert.True(t, order.TotalAmount.Equal(decimal.RequireFromString("33")))
		orderRepo.AssertNumberOfCalls(t, "SaveWithLock", 1)
	})

	t.Run("line without id or item is invalid", func(t *testing.T) {
		svc, orderRepo, _ := newTestService()
		order := newPendingOrder(t, newCatalogItem(t, "WID-1", "10"))

		orderRepo.On("FindByID", mock.Anything, order.ID).Return(order, nil)

		_, err := svc.SaveLines(ctx, requester, order.ID, SaveLinesRequest{
			Version: 1,
			Lines:   []EditLineInput{{Quantity: 1}},
		})

		assert.ErrorIs(t, err, shared.ErrInvalidInput)
		orderRepo.AssertNotCalled(t, "SaveWithLock", mock.Anything, mock.Anything)
	})
}

func TestPurchaseOrderService_Delete(t *testing.T) {
	ctx := context.Background()

	t.Run("requester deletes pending order", func(t *testing.T) {
		svc, orderRepo, _ := newTestService()
		order := newPendingOrder(t, newCatalogItem(t, "WID-1", "10"))

		orderRepo.On("FindByID", mock.Anything, order.ID).Return(order, nil)
		orderRepo.On("Delete", mock.Anything, order.ID, 1).Return(nil)

		require.NoError(t, svc.Delete(ctx, requester, order.ID, 1))
	})

	t.Run("active order cannot be deleted", func(t *testing.T) {
		svc, orderRepo, _ := newTestService()
		order := newActiveOrder(t, newCatalogItem(t, "WID-1", "10"))

		orderRepo.On("FindByID", mock.Anything, order.ID).Return(order, nil)

		err := svc.Delete(ctx, admin, order.ID, 1)

		require.Error(t, err)
		orderRepo.AssertNotCalled(t, "Delete", mock.Anything, mock.Anything, mock.Anything)
	})
}

func TestPurchaseOrderService_List(t *testing.T) {
	ctx := context.Background()

	t.Run("applies defaults and filters", func(t *testing.T) {
		svc, orderRepo, _ := newTestService()
		order := newPendingOrder(t, newCatalogItem(t, "WID-1", "10"))

		matchFilter := mock.MatchedBy(func(f shared.Filter) bool {
			return f.Page == 1 && f.PageSize == 20 && f.OrderBy == "created_at" &&
				f.Filters["status"] == "PENDING_APPROVAL" && f.Filters["site"] == "Brisbane"
		})
		orderRepo.On("FindAll", mock.Anything, matchFilter).Return([]procurement.PurchaseOrder{*order}, nil)
		orderRepo.On("Count", mock.Anything, matchFilter).Return(int64(1), nil)

		items, total, err := svc.List(ctx, PurchaseOrderListFilter{Status: "pending_approval", Site: "Brisbane"})

		require.NoError(t, err)
		assert.Equal(t, int64(1), total)
		require.Len(t, items, 1)
		assert.Equal(t, "Pending Approval", items[0].StatusLabel)
	})

	t.Run("unknown status", func(t *testing.T) {
		svc, _, _ := newTestService()

		_, _, err := svc.List(ctx, PurchaseOrderListFilter{Status: "SHIPPED"})

		assert.ErrorIs(t, err, shared.NewDomainError("INVALID_STATUS", ""))
	})
}

func TestPurchaseOrderService_GetStatusSummary(t *testing.T) {
	ctx := context.Background()
	svc, orderRepo, _ := newTestService()

	orderRepo.On("CountByStatus", mock.Anything).Return(map[procurement.Status]int64{
		procurement.StatusPendingApproval: 3,
		procurement.StatusClosed:          2,
	}, nil)

	summary, err := svc.GetStatusSummary(ctx)

	require.NoError(t, err)
	assert.Equal(t, int64(5), summary.Total)
	assert.Equal(t, int64(0), summary.Counts["DRAFT"])
	assert.Len(t, summary.Counts, len(procurement.AllStatuses()))
}

func TestPurchaseOrderService_Override(t *testing.T) {
	ctx := context.Background()
	svc, orderRepo, _ := newTestService()
	order := newActiveOrder(t, newCatalogItem(t, "WID-1", "10"))

	orderRepo.On("FindByID", mock.Anything, order.ID).Return(order, nil)
	orderRepo.On("SaveWithLock", mock.Anything, order).Return(nil)

	resp, err := svc.Override(ctx, admin, order.ID, OverrideStatusRequest{Version: 1, Status: "received", Reason: "paper docket"})

	require.NoError(t, err)
	assert.Equal(t, string(procurement.StatusReceived), resp.Status)
	require.Len(t, resp.Deliveries, 1)
	last := resp.ApprovalHistory[len(resp.ApprovalHistory)-1]
	assert.Equal(t, "Status forced from ACTIVE to RECEIVED: paper docket", last.Comments)
}

func TestPurchaseOrderService_ExportConcurCSV(t *testing.T) {
	ctx := context.Background()

	t.Run("archives a copy", func(t *testing.T) {
		svc, orderRepo, _ := newTestService()
		archiver := new(MockExportArchiver)
		svc.SetExportArchiver(archiver)
		order := newActiveOrder(t, newCatalogItem(t, "WID-1", "10"))

		orderRepo.On("FindByID", mock.Anything, order.ID).Return(order, nil)
		archiver.On("Archive", mock.Anything, "PO-2026-00001_concur_export.csv", mock.Anything, "text/csv; charset=utf-8").Return(nil)

		file, err := svc.ExportConcurCSV(ctx, order.ID)

		require.NoError(t, err)
		assert.Equal(t, "PO-2026-00001_concur_export.csv", file.Filename)
		assert.Contains(t, string(file.Content), "CONCUR-1")
		archiver.AssertExpectations(t)
	})

	t.Run("archive failure still returns the file", func(t *testing.T) {
		svc, orderRepo, _ := newTestService()
		archiver := new(MockExportArchiver)
		svc.SetExportArchiver(archiver)
		order := newActiveOrder(t, newCatalogItem(t, "WID-1", "10"))

		orderRepo.On("FindByID", mock.Anything, order.ID).Return(order, nil)
		archiver.On("Archive", mock.Anything, mock.Anything, mock.Anything, mock.Anything).Return(errors.New("s3 unavailable"))

		file, err := svc.ExportConcurCSV(ctx, order.ID)

		require.NoError(t, err)
		assert.NotEmpty(t, file.Content)
	})
}
