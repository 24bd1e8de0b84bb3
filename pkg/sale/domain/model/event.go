package model

import (
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

type SaleCreated struct {
	SaleID       uuid.UUID
	StoreID      uuid.UUID
	ClientSaleID *string
}

func (e SaleCreated) Type() string { return "SaleCreated" }

type SaleItemAdded struct {
	SaleID    uuid.UUID
	ItemID    uuid.UUID
	ProductID uuid.UUID
	Total     decimal.Decimal
}

func (e SaleItemAdded) Type() string { return "SaleItemAdded" }

type PaymentAdded struct {
	SaleID        uuid.UUID
	PaymentID     uuid.UUID
	Amount        decimal.Decimal
	PaymentStatus PaymentStatus
}

func (e PaymentAdded) Type() string { return "PaymentAdded" }

type SaleStatusChanged struct {
	SaleID    uuid.UUID
	OldStatus SaleStatus
	NewStatus SaleStatus
}

func (e SaleStatusChanged) Type() string { return "SaleStatusChanged" }

type SaleCancellationCreated struct {
	SaleID uuid.UUID
	Reason string
	Source CancellationSource
}

func (e SaleCancellationCreated) Type() string { return "SaleCancellationCreated" }
