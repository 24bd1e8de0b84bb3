package model

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

type SalePayment struct {
	id                uuid.UUID
	saleID            uuid.UUID
	paymentMethodID   uuid.UUID
	amount            decimal.Decimal
	acquirerTxnID     *string
	authorizationCode *string
	changeAmount      *decimal.Decimal
	status            PaymentRecordStatus
	processedAt       *time.Time
	createdAt         time.Time
	attached          bool
}

type PaymentParams struct {
	PaymentMethodID   uuid.UUID
	Amount            decimal.Decimal
	AcquirerTxnID     *string
	AuthorizationCode *string
	ChangeAmount      *decimal.Decimal
}

// NewSalePayment records a payment. No gateway is involved, so the payment is processed at once.
func NewSalePayment(p PaymentParams) (*SalePayment, error) {
	if p.PaymentMethodID == uuid.Nil {
		return nil, ErrPaymentMethodRequired
	}
	if !p.Amount.IsPositive() {
		return nil, ErrInvalidPaymentAmount
	}
	if p.ChangeAmount != nil && p.ChangeAmount.IsNegative() {
		return nil, ErrInvalidChangeAmount
	}
	acquirerTxnID := optionalString(p.AcquirerTxnID)
	authorizationCode := optionalString(p.AuthorizationCode)
	if tooLong(acquirerTxnID, MaxPaymentReferenceLength) || tooLong(authorizationCode, MaxPaymentReferenceLength) {
		return nil, ErrPaymentReferenceLong
	}

	now := time.Now().UTC()
	return &SalePayment{
		id:                uuid.New(),
		paymentMethodID:   p.PaymentMethodID,
		amount:            p.Amount,
		acquirerTxnID:     acquirerTxnID,
		authorizationCode: authorizationCode,
		changeAmount:      p.ChangeAmount,
		status:            PaymentRecordProcessed,
		processedAt:       &now,
		createdAt:         now,
	}, nil
}

func (p *SalePayment) ID() uuid.UUID                  { return p.id }
func (p *SalePayment) SaleID() uuid.UUID              { return p.saleID }
func (p *SalePayment) PaymentMethodID() uuid.UUID     { return p.paymentMethodID }
func (p *SalePayment) Amount() decimal.Decimal        { return p.amount }
func (p *SalePayment) AcquirerTxnID() *string         { return p.acquirerTxnID }
func (p *SalePayment) AuthorizationCode() *string     { return p.authorizationCode }
func (p *SalePayment) ChangeAmount() *decimal.Decimal { return p.changeAmount }
func (p *SalePayment) Status() PaymentRecordStatus    { return p.status }
func (p *SalePayment) ProcessedAt() *time.Time        { return p.processedAt }
func (p *SalePayment) CreatedAt() time.Time           { return p.createdAt }

type SaleCancellation struct {
	id               uuid.UUID
	saleID           uuid.UUID
	operatorID       *uuid.UUID
	reason           string
	source           CancellationSource
	cancellationType CancellationType
	refundAmount     *decimal.Decimal
	canceledAt       time.Time
}

func (c *SaleCancellation) ID() uuid.UUID                      { return c.id }
func (c *SaleCancellation) SaleID() uuid.UUID                  { return c.saleID }
func (c *SaleCancellation) OperatorID() *uuid.UUID             { return c.operatorID }
func (c *SaleCancellation) Reason() string                     { return c.reason }
func (c *SaleCancellation) Source() CancellationSource         { return c.source }
func (c *SaleCancellation) CancellationType() CancellationType { return c.cancellationType }
func (c *SaleCancellation) RefundAmount() *decimal.Decimal     { return c.refundAmount }
func (c *SaleCancellation) CanceledAt() time.Time              { return c.canceledAt }
