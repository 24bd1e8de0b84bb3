package service

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"saleservice/pkg/sale/domain/model"
)

type CreateSaleRequest struct {
	ClientSaleID *string              `json:"clientSaleId,omitempty"`
	StoreID      uuid.UUID            `json:"storeId"`
	PosID        *uuid.UUID           `json:"posId,omitempty"`
	OperatorID   *uuid.UUID           `json:"operatorId,omitempty"`
	SaleDateTime *time.Time           `json:"saleDateTime,omitempty"`
	Items        []SaleItemRequest    `json:"items"`
	Payments     []SalePaymentRequest `json:"payments,omitempty"`
}

type SaleItemRequest struct {
	ProductID      uuid.UUID       `json:"productId"`
	Quantity       decimal.Decimal `json:"quantity"`
	UnitPrice      decimal.Decimal `json:"unitPrice"`
	DiscountAmount decimal.Decimal `json:"discountAmount"`
}

type SalePaymentRequest struct {
	PaymentMethodID   uuid.UUID        `json:"paymentMethodId"`
	Amount            decimal.Decimal  `json:"amount"`
	AcquirerTxnID     *string          `json:"acquirerTxnId,omitempty"`
	AuthorizationCode *string          `json:"authorizationCode,omitempty"`
	ChangeAmount      *decimal.Decimal `json:"changeAmount,omitempty"`
}

type UpdateSaleRequest struct {
	Status        *string `json:"status,omitempty"`
	PaymentStatus *string `json:"paymentStatus,omitempty"`
}

type CancelSaleRequest struct {
	Reason           string           `json:"reason"`
	Source           string           `json:"source,omitempty"`
	CancellationType string           `json:"cancellationType,omitempty"`
	RefundAmount     *decimal.Decimal `json:"refundAmount,omitempty"`
	OperatorID       *uuid.UUID       `json:"operatorId,omitempty"`
}

type SyncSalesRequest struct {
	Sales []CreateSaleRequest `json:"sales"`
}

type ListSalesQuery struct {
	StoreID      *uuid.UUID
	PosID        *uuid.UUID
	OperatorID   *uuid.UUID
	DateFrom     *time.Time
	DateTo       *time.Time
	Status       *string
	ClientSaleID *string
	Page         int
	PageSize     int
}

type SaleView struct {
	ID             uuid.UUID             `json:"id"`
	OrderNumber    int64                 `json:"orderNumber"`
	ClientSaleID   *string               `json:"clientSaleId,omitempty"`
	StoreID        uuid.UUID             `json:"storeId"`
	PosID          *uuid.UUID            `json:"posId,omitempty"`
	OperatorID     *uuid.UUID            `json:"operatorId,omitempty"`
	SaleDateTime   time.Time             `json:"saleDateTime"`
	Status         string                `json:"status"`
	Subtotal       decimal.Decimal       `json:"subtotal"`
	DiscountTotal  decimal.Decimal       `json:"discountTotal"`
	TaxTotal       decimal.Decimal       `json:"taxTotal"`
	Total          decimal.Decimal       `json:"total"`
	PaymentStatus  string                `json:"paymentStatus"`
	Version        int                   `json:"version"`
	CreatedAt      time.Time             `json:"createdAt"`
	UpdatedAt      time.Time             `json:"updatedAt"`
	Items          []SaleItemView        `json:"items"`
	Payments       []SalePaymentView     `json:"payments"`
	Cancellation   *SaleCancellationView `json:"cancellation,omitempty"`
}

type SaleItemView struct {
	ID             uuid.UUID       `json:"id"`
	ProductID      uuid.UUID       `json:"productId"`
	Sku            string          `json:"sku"`
	Description    string          `json:"description"`
	UnitOfMeasure  string          `json:"unitOfMeasure"`
	Quantity       decimal.Decimal `json:"quantity"`
	UnitPrice      decimal.Decimal `json:"unitPrice"`
	DiscountAmount decimal.Decimal `json:"discountAmount"`
	TaxAmount      decimal.Decimal `json:"taxAmount"`
	Total          decimal.Decimal `json:"total"`
	Taxes          []SaleTaxView   `json:"taxes"`
}

type SaleTaxView struct {
	ID         uuid.UUID       `json:"id"`
	TaxTypeID  uuid.UUID       `json:"taxTypeId"`
	TaxRuleID  *uuid.UUID      `json:"taxRuleId,omitempty"`
	BaseAmount decimal.Decimal `json:"baseAmount"`
	Rate       decimal.Decimal `json:"rate"`
	Amount     decimal.Decimal `json:"amount"`
}

type SalePaymentView struct {
	ID                uuid.UUID        `json:"id"`
	PaymentMethodID   uuid.UUID        `json:"paymentMethodId"`
	Amount            decimal.Decimal  `json:"amount"`
	AcquirerTxnID     *string          `json:"acquirerTxnId,omitempty"`
	AuthorizationCode *string          `json:"authorizationCode,omitempty"`
	ChangeAmount      *decimal.Decimal `json:"changeAmount,omitempty"`
	Status            string           `json:"status"`
	ProcessedAt       *time.Time       `json:"processedAt,omitempty"`
	CreatedAt         time.Time        `json:"createdAt"`
}

type SaleCancellationView struct {
	ID               uuid.UUID        `json:"id"`
	OperatorID       *uuid.UUID       `json:"operatorId,omitempty"`
	Reason           string           `json:"reason"`
	Source           string           `json:"source"`
	CancellationType string           `json:"cancellationType"`
	RefundAmount     *decimal.Decimal `json:"refundAmount,omitempty"`
	CanceledAt       time.Time        `json:"canceledAt"`
}

type SaleListView struct {
	Data       []SaleView `json:"data"`
	Pagination Pagination `json:"pagination"`
}

type Pagination struct {
	Page       int `json:"page"`
	PageSize   int `json:"pageSize"`
	TotalCount int `json:"totalCount"`
	TotalPages int `json:"totalPages"`
}

// CreateSaleResult reports whether the sale was created by this call or already existed.
type CreateSaleResult struct {
	Sale      SaleView
	Duplicate bool
}

const (
	SyncCreated = "created"
	SyncIgnored = "ignored"
	SyncFailed  = "failed"
)

type SyncResult struct {
	ClientSaleID   *string    `json:"clientSaleId,omitempty"`
	SaleID         *uuid.UUID `json:"saleId,omitempty"`
	Status         string     `json:"status"`
	Message        string     `json:"message,omitempty"`
	HTTPStatusCode int        `json:"httpStatusCode"`
}

type SyncSummary struct {
	Total   int `json:"total"`
	Created int `json:"created"`
	Ignored int `json:"ignored"`
	Errors  int `json:"errors"`
}

type SyncSalesResponse struct {
	Results []SyncResult `json:"results"`
	Summary SyncSummary  `json:"summary"`
}

type SyncStatusView struct {
	ClientSaleID string     `json:"clientSaleId"`
	Exists       bool       `json:"exists"`
	SaleID       *uuid.UUID `json:"saleId,omitempty"`
	Status       *string    `json:"status,omitempty"`
	CreatedAt    *time.Time `json:"createdAt,omitempty"`
}

func toSaleView(sale *model.Sale) SaleView {
	view := SaleView{
		ID:            sale.ID(),
		OrderNumber:   sale.OrderNumber(),
		ClientSaleID:  sale.ClientSaleID(),
		StoreID:       sale.StoreID(),
		PosID:         sale.PosID(),
		OperatorID:    sale.OperatorID(),
		SaleDateTime:  sale.SaleDateTime(),
		Status:        string(sale.Status()),
		Subtotal:      sale.Subtotal(),
		DiscountTotal: sale.DiscountTotal(),
		TaxTotal:      sale.TaxTotal(),
		Total:         sale.Total(),
		PaymentStatus: string(sale.PaymentStatus()),
		Version:       sale.Version(),
		CreatedAt:     sale.CreatedAt(),
		UpdatedAt:     sale.UpdatedAt(),
		Items:         []SaleItemView{},
		Payments:      []SalePaymentView{},
	}
	for _, item := range sale.Items() {
		itemView := SaleItemView{
			ID:             item.ID(),
			ProductID:      item.ProductID(),
			Sku:            item.Sku(),
			Description:    item.Description(),
			UnitOfMeasure:  item.UnitOfMeasure(),
			Quantity:       item.Quantity(),
			UnitPrice:      item.UnitPrice(),
			DiscountAmount: item.DiscountAmount(),
			TaxAmount:      item.TaxAmount(),
			Total:          item.Total(),
			Taxes:          []SaleTaxView{},
		}
		for _, tax := range item.Taxes() {
			itemView.Taxes = append(itemView.Taxes, SaleTaxView{
				ID:         tax.ID(),
				TaxTypeID:  tax.TaxTypeID(),
				TaxRuleID:  tax.TaxRuleID(),
				BaseAmount: tax.BaseAmount(),
				Rate:       tax.Rate(),
				Amount:     tax.Amount(),
			})
		}
		view.Items = append(view.Items, itemView)
	}
	for _, payment := range sale.Payments() {
		view.Payments = append(view.Payments, SalePaymentView{
			ID:                payment.ID(),
			PaymentMethodID:   payment.PaymentMethodID(),
			Amount:            payment.Amount(),
			AcquirerTxnID:     payment.AcquirerTxnID(),
			AuthorizationCode: payment.AuthorizationCode(),
			ChangeAmount:      payment.ChangeAmount(),
			Status:            string(payment.Status()),
			ProcessedAt:       payment.ProcessedAt(),
			CreatedAt:         payment.CreatedAt(),
		})
	}
	if c := sale.Cancellation(); c != nil {
		view.Cancellation = &SaleCancellationView{
			ID:               c.ID(),
			OperatorID:       c.OperatorID(),
			Reason:           c.Reason(),
			Source:           string(c.Source()),
			CancellationType: string(c.CancellationType()),
			RefundAmount:     c.RefundAmount(),
			CanceledAt:       c.CanceledAt(),
		}
	}
	return view
}
