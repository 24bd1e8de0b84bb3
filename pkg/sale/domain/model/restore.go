package model

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// The Restore* functions rebuild an aggregate from stored rows. Stored totals were derived
// and checked when they were written, so they are taken as they are.

type SaleSnapshot struct {
	ID             uuid.UUID
	ClientSaleID   *string
	IdempotencyKey *string
	OrderNumber    int64
	StoreID        uuid.UUID
	PosID          *uuid.UUID
	OperatorID     *uuid.UUID
	SaleDateTime   time.Time
	Status         SaleStatus
	Subtotal       decimal.Decimal
	DiscountTotal  decimal.Decimal
	TaxTotal       decimal.Decimal
	Total          decimal.Decimal
	PaymentStatus  PaymentStatus
	Version        int
	CreatedAt      time.Time
	UpdatedAt      time.Time
}

func RestoreSale(s SaleSnapshot, items []*SaleItem, payments []*SalePayment, cancellation *SaleCancellation) *Sale {
	return &Sale{
		id:             s.ID,
		clientSaleID:   s.ClientSaleID,
		idempotencyKey: s.IdempotencyKey,
		orderNumber:    s.OrderNumber,
		storeID:        s.StoreID,
		posID:          s.PosID,
		operatorID:     s.OperatorID,
		saleDateTime:   s.SaleDateTime,
		status:         s.Status,
		subtotal:       s.Subtotal,
		discountTotal:  s.DiscountTotal,
		taxTotal:       s.TaxTotal,
		total:          s.Total,
		paymentStatus:  s.PaymentStatus,
		items:          items,
		payments:       payments,
		cancellation:   cancellation,
		itemsClosed:    true,
		version:        s.Version,
		createdAt:      s.CreatedAt,
		updatedAt:      s.UpdatedAt,
	}
}

type SaleItemSnapshot struct {
	ID             uuid.UUID
	SaleID         uuid.UUID
	ProductID      uuid.UUID
	Sku            string
	Description    string
	UnitOfMeasure  string
	Quantity       decimal.Decimal
	UnitPrice      decimal.Decimal
	DiscountAmount decimal.Decimal
	TaxAmount      decimal.Decimal
	Total          decimal.Decimal
	CreatedAt      time.Time
}

func RestoreSaleItem(s SaleItemSnapshot, taxes []*SaleTax) *SaleItem {
	return &SaleItem{
		id:             s.ID,
		saleID:         s.SaleID,
		productID:      s.ProductID,
		sku:            s.Sku,
		description:    s.Description,
		unitOfMeasure:  s.UnitOfMeasure,
		quantity:       s.Quantity,
		unitPrice:      s.UnitPrice,
		discountAmount: s.DiscountAmount,
		taxAmount:      s.TaxAmount,
		total:          s.Total,
		taxes:          taxes,
		attached:       true,
		createdAt:      s.CreatedAt,
	}
}

type SaleTaxSnapshot struct {
	ID         uuid.UUID
	SaleItemID uuid.UUID
	TaxTypeID  uuid.UUID
	TaxRuleID  *uuid.UUID
	BaseAmount decimal.Decimal
	Rate       decimal.Decimal
	Amount     decimal.Decimal
	CreatedAt  time.Time
}

func RestoreSaleTax(s SaleTaxSnapshot) *SaleTax {
	return &SaleTax{
		id:         s.ID,
		saleItemID: s.SaleItemID,
		taxTypeID:  s.TaxTypeID,
		taxRuleID:  s.TaxRuleID,
		baseAmount: s.BaseAmount,
		rate:       s.Rate,
		amount:     s.Amount,
		createdAt:  s.CreatedAt,
	}
}

type SalePaymentSnapshot struct {
	ID                uuid.UUID
	SaleID            uuid.UUID
	PaymentMethodID   uuid.UUID
	Amount            decimal.Decimal
	AcquirerTxnID     *string
	AuthorizationCode *string
	ChangeAmount      *decimal.Decimal
	Status            PaymentRecordStatus
	ProcessedAt       *time.Time
	CreatedAt         time.Time
}

func RestoreSalePayment(s SalePaymentSnapshot) *SalePayment {
	return &SalePayment{
		id:                s.ID,
		saleID:            s.SaleID,
		paymentMethodID:   s.PaymentMethodID,
		amount:            s.Amount,
		acquirerTxnID:     s.AcquirerTxnID,
		authorizationCode: s.AuthorizationCode,
		changeAmount:      s.ChangeAmount,
		status:            s.Status,
		processedAt:       s.ProcessedAt,
		attached:          true,
		createdAt:         s.CreatedAt,
	}
}

type SaleCancellationSnapshot struct {
	ID               uuid.UUID
	SaleID           uuid.UUID
	OperatorID       *uuid.UUID
	Reason           string
	Source           CancellationSource
	CancellationType CancellationType
	RefundAmount     *decimal.Decimal
	CanceledAt       time.Time
}

func RestoreSaleCancellation(s SaleCancellationSnapshot) *SaleCancellation {
	return &SaleCancellation{
		id:               s.ID,
		saleID:           s.SaleID,
		operatorID:       s.OperatorID,
		reason:           s.Reason,
		source:           s.Source,
		cancellationType: s.CancellationType,
		refundAmount:     s.RefundAmount,
		canceledAt:       s.CanceledAt,
	}
}
