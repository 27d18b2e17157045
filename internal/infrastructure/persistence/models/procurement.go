package models

import (
	"time"

	"github.com/erp/procurement/internal/domain/procurement"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// PurchaseOrderModel is the persistence model for the PurchaseOrder aggregate root
type PurchaseOrderModel struct {
	AggregateModel
	DisplayID        string                       `gorm:"type:varchar(20);not null;uniqueIndex"`
	RequestDate      time.Time                    `gorm:"not null"`
	RequesterID      uuid.UUID                    `gorm:"type:uuid;not null;index"`
	RequesterName    string                       `gorm:"type:varchar(200);not null"`
	Site             string                       `gorm:"type:varchar(100);not null;index"`
	SupplierID       string                       `gorm:"type:varchar(100);index"`
	SupplierName     string                       `gorm:"type:varchar(200);not null"`
	Status           procurement.Status           `gorm:"type:varchar(30);not null;index"`
	TotalAmount      decimal.Decimal              `gorm:"type:decimal(18,2);not null;default:0"`
	CustomerName     string                       `gorm:"type:varchar(200)"`
	ReasonForRequest procurement.ReasonForRequest `gorm:"type:varchar(30);not null"`
	Comments         string                       `gorm:"type:text"`
	Lines            []LineItemModel              `gorm:"foreignKey:OrderID;references:ID"`
	Deliveries       []DeliveryHeaderModel        `gorm:"foreignKey:OrderID;references:ID"`
	ApprovalHistory  []ApprovalEventModel         `gorm:"foreignKey:OrderID;references:ID"`
}

// TableName returns the table name for GORM
func (PurchaseOrderModel) TableName() string {
	return "purchase_orders"
}

// ToDomain converts the persistence model to a domain PurchaseOrder.
// Children that were not preloaded come back as empty slices.
func (m *PurchaseOrderModel) ToDomain() *procurement.PurchaseOrder {
	o := &procurement.PurchaseOrder{
		BaseAggregateRoot: m.ToDomainAggregateRoot(),
		DisplayID:         m.DisplayID,
		RequestDate:       m.RequestDate,
		RequesterID:       m.RequesterID,
		RequesterName:     m.RequesterName,
		Site:              m.Site,
		SupplierID:        m.SupplierID,
		SupplierName:      m.SupplierName,
		Status:            m.Status,
		TotalAmount:       m.TotalAmount,
		CustomerName:      m.CustomerName,
		ReasonForRequest:  m.ReasonForRequest,
		Comments:          m.Comments,
		Lines:             make([]procurement.LineItem, len(m.Lines)),
		Deliveries:        make([]procurement.DeliveryHeader, len(m.Deliveries)),
		ApprovalHistory:   make([]procurement.ApprovalEvent, len(m.ApprovalHistory)),
	}
	for i := range m.Lines {
		o.Lines[i] = m.Lines[i].ToDomain()
	}
	for i := range m.Deliveries {
		o.Deliveries[i] = m.Deliveries[i].ToDomain()
	}
	for i := range m.ApprovalHistory {
		o.ApprovalHistory[i] = m.ApprovalHistory[i].ToDomain()
	}
	return o
}

// PurchaseOrderModelFromDomain creates the header model only; children are
// written separately by the repository
func PurchaseOrderModelFromDomain(o *procurement.PurchaseOrder) *PurchaseOrderModel {
	m := &PurchaseOrderModel{
		DisplayID:        o.DisplayID,
		RequestDate:      o.RequestDate,
		RequesterID:      o.RequesterID,
		RequesterName:    o.RequesterName,
		Site:             o.Site,
		SupplierID:       o.SupplierID,
		SupplierName:     o.SupplierName,
		Status:           o.Status,
		TotalAmount:      o.TotalAmount,
		CustomerName:     o.CustomerName,
		ReasonForRequest: o.ReasonForRequest,
		Comments:         o.Comments,
	}
	m.FromDomainAggregateRoot(o.BaseAggregateRoot)
	return m
}

// LineItemModel is the persistence model for an order line
type LineItemModel struct {
	ID               uuid.UUID       `gorm:"type:uuid;primary_key"`
	OrderID          uuid.UUID       `gorm:"type:uuid;not null;index"`
	LineNumber       int             `gorm:"not null"`
	ItemID           uuid.UUID       `gorm:"type:uuid;not null"`
	ItemName         string          `gorm:"type:varchar(200);not null"`
	SKU              string          `gorm:"type:varchar(50);not null"`
	QuantityOrdered  int             `gorm:"not null"`
	QuantityReceived int             `gorm:"not null;default:0"`
	UnitPrice        decimal.Decimal `gorm:"type:decimal(18,2);not null"`
	TotalPrice       decimal.Decimal `gorm:"type:decimal(18,2);not null"`
	ConcurPONumber   string          `gorm:"column:concur_po_number;type:varchar(100)"`
	IsForceClosed    bool            `gorm:"not null;default:false"`
	CreatedAt        time.Time       `gorm:"not null"`
	UpdatedAt        time.Time       `gorm:"not null"`
}

// TableName returns the table name for GORM
func (LineItemModel) TableName() string {
	return "purchase_order_lines"
}

// ToDomain converts the persistence model to a domain LineItem
func (m *LineItemModel) ToDomain() procurement.LineItem {
	return procurement.LineItem{
		ID:               m.ID,
		OrderID:          m.OrderID,
		ItemID:           m.ItemID,
		ItemName:         m.ItemName,
		SKU:              m.SKU,
		QuantityOrdered:  m.QuantityOrdered,
		QuantityReceived: m.QuantityReceived,
		UnitPrice:        m.UnitPrice,
		TotalPrice:       m.TotalPrice,
		ConcurPONumber:   m.ConcurPONumber,
		IsForceClosed:    m.IsForceClosed,
		CreatedAt:        m.CreatedAt,
		UpdatedAt:        m.UpdatedAt,
	}
}

// LineItemModelFromDomain creates a persistence model from a domain LineItem
func LineItemModelFromDomain(orderID uuid.UUID, lineNumber int, l procurement.LineItem) LineItemModel {
	return LineItemModel{
		ID:               l.ID,
		OrderID:          orderID,
		LineNumber:       lineNumber,
		ItemID:           l.ItemID,
		ItemName:         l.ItemName,
		SKU:              l.SKU,
		QuantityOrdered:  l.QuantityOrdered,
		QuantityReceived: l.QuantityReceived,
		UnitPrice:        l.UnitPrice,
		TotalPrice:       l.TotalPrice,
		ConcurPONumber:   l.ConcurPONumber,
		IsForceClosed:    l.IsForceClosed,
		CreatedAt:        l.CreatedAt,
		UpdatedAt:        l.UpdatedAt,
	}
}

// DeliveryHeaderModel is the persistence model for a goods-received record
type DeliveryHeaderModel struct {
	ID           uuid.UUID           `gorm:"type:uuid;primary_key"`
	OrderID      uuid.UUID           `gorm:"type:uuid;not null;index"`
	Date         time.Time           `gorm:"type:date;not null"`
	DocketNumber string              `gorm:"type:varchar(100);not null"`
	ReceivedBy   string              `gorm:"type:varchar(200)"`
	Lines        []DeliveryLineModel `gorm:"foreignKey:DeliveryID;references:ID"`
	CreatedAt    time.Time           `gorm:"not null"`
}

// TableName returns the table name for GORM
func (DeliveryHeaderModel) TableName() string {
	return "delivery_headers"
}

// ToDomain converts the persistence model to a domain DeliveryHeader
func (m *DeliveryHeaderModel) ToDomain() procurement.DeliveryHeader {
	d := procurement.DeliveryHeader{
		ID:           m.ID,
		OrderID:      m.OrderID,
		Date:         m.Date,
		DocketNumber: m.DocketNumber,
		ReceivedBy:   m.ReceivedBy,
		CreatedAt:    m.CreatedAt,
		Lines:        make([]procurement.DeliveryLineItem, len(m.Lines)),
	}
	for i, l := range m.Lines {
		d.Lines[i] = procurement.DeliveryLineItem{
			ID:              l.ID,
			DeliveryID:      l.DeliveryID,
			POLineID:        l.POLineID,
			Quantity:        l.Quantity,
			InvoiceNumber:   l.InvoiceNumber,
			IsCapitalised:   l.IsCapitalised,
			CapitalisedDate: l.CapitalisedDate,
		}
	}
	return d
}

// DeliveryHeaderModelFromDomain creates a persistence model with its lines
func DeliveryHeaderModelFromDomain(orderID uuid.UUID, d procurement.DeliveryHeader) DeliveryHeaderModel {
	m := DeliveryHeaderModel{
		ID:           d.ID,
		OrderID:      orderID,
		Date:         d.Date,
		DocketNumber: d.DocketNumber,
		ReceivedBy:   d.ReceivedBy,
		CreatedAt:    d.CreatedAt,
		Lines:        make([]DeliveryLineModel, len(d.Lines)),
	}
	for i, l := range d.Lines {
		m.Lines[i] = DeliveryLineModel{
			ID:              l.ID,
			DeliveryID:      d.ID,
			POLineID:        l.POLineID,
			Quantity:        l.Quantity,
			InvoiceNumber:   l.InvoiceNumber,
			IsCapitalised:   l.IsCapitalised,
			CapitalisedDate: l.CapitalisedDate,
		}
	}
	return m
}

// DeliveryLineModel is the persistence model for one received line
type DeliveryLineModel struct {
	ID              uuid.UUID  `gorm:"type:uuid;primary_key"`
	DeliveryID      uuid.UUID  `gorm:"type:uuid;not null;index"`
	POLineID        uuid.UUID  `gorm:"column:po_line_id;type:uuid;not null;index"`
	Quantity        int        `gorm:"not null"`
	InvoiceNumber   string     `gorm:"type:varchar(100)"`
	IsCapitalised   bool       `gorm:"not null;default:false"`
	CapitalisedDate *time.Time `gorm:"type:date"`
}

// TableName returns the table name for GORM
func (DeliveryLineModel) TableName() string {
	return "delivery_lines"
}

// ApprovalEventModel is the persistence model for an approval history entry
type ApprovalEventModel struct {
	ID           uuid.UUID                  `gorm:"type:uuid;primary_key"`
	OrderID      uuid.UUID                  `gorm:"type:uuid;not null;index"`
	ApproverID   uuid.UUID                  `gorm:"type:uuid;not null"`
	ApproverName string                     `gorm:"type:varchar(200);not null"`
	Date         time.Time                  `gorm:"not null"`
	Action       procurement.ApprovalAction `gorm:"type:varchar(30);not null"`
	Comments     string                     `gorm:"type:text"`
}

// TableName returns the table name for GORM
func (ApprovalEventModel) TableName() string {
	return "approval_events"
}

// ToDomain converts the persistence model to a domain ApprovalEvent
func (m *ApprovalEventModel) ToDomain() procurement.ApprovalEvent {
	return procurement.ApprovalEvent{
		ID:           m.ID,
		OrderID:      m.OrderID,
		ApproverID:   m.ApproverID,
		ApproverName: m.ApproverName,
		Date:         m.Date,
		Action:       m.Action,
		Comments:     m.Comments,
	}
}

// ApprovalEventModelFromDomain creates a persistence model from a domain ApprovalEvent
func ApprovalEventModelFromDomain(orderID uuid.UUID, e procurement.ApprovalEvent) ApprovalEventModel {
	return ApprovalEventModel{
		ID:           e.ID,
		OrderID:      orderID,
		ApproverID:   e.ApproverID,
		ApproverName: e.ApproverName,
		Date:         e.Date,
		Action:       e.Action,
		Comments:     e.Comments,
	}
}

// CatalogItemModel is the persistence model for a catalog item
type CatalogItemModel struct {
	BaseModel
	SKU          string          `gorm:"type:varchar(50);not null;uniqueIndex"`
	Name         string          `gorm:"type:varchar(200);not null"`
	DefaultPrice decimal.Decimal `gorm:"type:decimal(18,2);not null;default:0"`
	Active       bool            `gorm:"not null"`
}

// TableName returns the table name for GORM
func (CatalogItemModel) TableName() string {
	return "catalog_items"
}

// ToDomain converts the persistence model to a domain CatalogItem
func (m *CatalogItemModel) ToDomain() *procurement.CatalogItem {
	return &procurement.CatalogItem{
		BaseEntity:   m.BaseModel.ToDomain(),
		SKU:          m.SKU,
		Name:         m.Name,
		DefaultPrice: m.DefaultPrice,
		Active:       m.Active,
	}
}

// CatalogItemModelFromDomain creates a persistence model from a domain CatalogItem
func CatalogItemModelFromDomain(c *procurement.CatalogItem) *CatalogItemModel {
	m := &CatalogItemModel{
		SKU:          c.SKU,
		Name:         c.Name,
		DefaultPrice: c.DefaultPrice,
		Active:       c.Active,
	}
	m.FromDomainBaseEntity(c.BaseEntity)
	return m
}
