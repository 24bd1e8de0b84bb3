package model

import (
	"strings"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"saleservice/pkg/common/domain"
)

// Text limits match the column sizes of the sales tables.
const (
	MaxIdempotencyKeyLength     = 255
	MaxClientSaleIDLength       = 100
	MaxCancellationReasonLength = 500
	MaxPaymentReferenceLength   = 100
)

// Sale is the aggregate root. Monetary totals and the payment status are derived from the
// owned items and payments and are never set from outside.
type Sale struct {
	id             uuid.UUID
	clientSaleID   *string
	idempotencyKey *string
	orderNumber    int64
	storeID        uuid.UUID
	posID          *uuid.UUID
	operatorID     *uuid.UUID
	saleDateTime   time.Time
	status         SaleStatus
	subtotal       decimal.Decimal
	discountTotal  decimal.Decimal
	taxTotal       decimal.Decimal
	total          decimal.Decimal
	paymentStatus  PaymentStatus
	items          []*SaleItem
	payments       []*SalePayment
	cancellation   *SaleCancellation
	itemsClosed    bool
	version        int
	createdAt      time.Time
	updatedAt      time.Time

	events []domain.Event
}

type SaleParams struct {
	StoreID        uuid.UUID
	PosID          *uuid.UUID
	OperatorID     *uuid.UUID
	ClientSaleID   *string
	IdempotencyKey *string
	SaleDateTime   *time.Time
}

func NewSale(p SaleParams) (*Sale, error) {
	if p.StoreID == uuid.Nil {
		return nil, ErrStoreIDRequired
	}
	idempotencyKey := optionalString(p.IdempotencyKey)
	if tooLong(idempotencyKey, MaxIdempotencyKeyLength) {
		return nil, ErrIdempotencyKeyTooLong
	}
	clientSaleID := optionalString(p.ClientSaleID)
	if tooLong(clientSaleID, MaxClientSaleIDLength) {
		return nil, ErrClientSaleIDTooLong
	}

	now := time.Now().UTC()
	saleDateTime := now
	if p.SaleDateTime != nil && !p.SaleDateTime.IsZero() {
		saleDateTime = p.SaleDateTime.UTC()
	}

	sale := &Sale{
		id:             uuid.New(),
		clientSaleID:   clientSaleID,
		idempotencyKey: idempotencyKey,
		storeID:        p.StoreID,
		posID:          p.PosID,
		operatorID:     p.OperatorID,
		saleDateTime:   saleDateTime,
		status:         SaleOpen,
		subtotal:       decimal.Zero,
		discountTotal:  decimal.Zero,
		taxTotal:       decimal.Zero,
		total:          decimal.Zero,
		paymentStatus:  PaymentPending,
		version:        1,
		createdAt:      now,
		updatedAt:      now,
	}
	sale.recordEvent(SaleCreated{SaleID: sale.id, StoreID: sale.storeID, ClientSaleID: sale.clientSaleID})
	return sale, nil
}

// AddItem appends an item while the sale is being built. Sales loaded from the store are closed
// for new items.
func (s *Sale) AddItem(item *SaleItem) error {
	if item == nil {
		return ErrProductIDRequired
	}
	if s.itemsClosed || s.status != SaleOpen {
		return ErrItemsClosed
	}
	if item.attached {
		return ErrItemAlreadyAttached
	}

	item.saleID = s.id
	item.attached = true
	s.items = append(s.items, item)
	s.recalculate()
	s.touch()
	s.recordEvent(SaleItemAdded{SaleID: s.id, ItemID: item.id, ProductID: item.productID, Total: item.total})
	return nil
}

// AddPayment appends a payment and re-derives the payment status. Overpayment is accepted.
// A canceled sale takes no further payments.
func (s *Sale) AddPayment(payment *SalePayment) error {
	if payment == nil {
		return ErrPaymentMethodRequired
	}
	if payment.attached {
		return ErrPaymentAlreadyAttached
	}
	if s.status == SaleCanceled {
		return ErrPaymentOnCanceledSale
	}

	payment.saleID = s.id
	payment.attached = true
	s.payments = append(s.payments, payment)
	s.paymentStatus = derivePaymentStatus(s.PaidAmount(), s.total)
	s.touch()
	s.recordEvent(PaymentAdded{SaleID: s.id, PaymentID: payment.id, Amount: payment.amount, PaymentStatus: s.paymentStatus})
	return nil
}

// UpdateStatus moves the sale along its lifecycle. Setting the current status again is a no-op.
// Canceling needs a cancellation record and therefore goes through Cancel.
func (s *Sale) UpdateStatus(status SaleStatus) error {
	if _, err := ParseSaleStatus(string(status)); err != nil {
		return err
	}
	if s.status == SaleCanceled {
		return ErrSaleAlreadyCanceled
	}
	if status == SaleCanceled {
		return ErrCancelThroughCancel
	}
	if status == s.status {
		return nil
	}
	if !s.status.CanTransitionTo(status) {
		return ErrIllegalStatusTransition
	}

	old := s.status
	s.status = status
	s.touch()
	s.recordEvent(SaleStatusChanged{SaleID: s.id, OldStatus: old, NewStatus: status})
	return nil
}

type CancellationParams struct {
	Reason       string
	Source       CancellationSource
	Type         CancellationType
	RefundAmount *decimal.Decimal
	OperatorID   *uuid.UUID
}

func (s *Sale) Cancel(p CancellationParams) error {
	if s.cancellation != nil {
		return ErrCancellationExists
	}
	if s.status == SaleCanceled {
		return ErrSaleAlreadyCanceled
	}
	reason := strings.TrimSpace(p.Reason)
	if reason == "" {
		return ErrCancellationReason
	}
	if utf8.RuneCountInString(reason) > MaxCancellationReasonLength {
		return ErrReasonTooLong
	}
	if _, err := ParseCancellationSource(string(p.Source)); err != nil {
		return err
	}
	if _, err := ParseCancellationType(string(p.Type)); err != nil {
		return err
	}
	if p.RefundAmount != nil && (p.RefundAmount.IsNegative() || p.RefundAmount.GreaterThan(s.total)) {
		return ErrInvalidRefundAmount
	}

	old := s.status
	s.cancellation = &SaleCancellation{
		id:               uuid.New(),
		saleID:           s.id,
		operatorID:       p.OperatorID,
		reason:           reason,
		source:           p.Source,
		cancellationType: p.Type,
		refundAmount:     p.RefundAmount,
		canceledAt:       time.Now().UTC(),
	}
	s.status = SaleCanceled
	s.touch()
	s.recordEvent(SaleStatusChanged{SaleID: s.id, OldStatus: old, NewStatus: SaleCanceled})
	s.recordEvent(SaleCancellationCreated{SaleID: s.id, Reason: reason, Source: p.Source})
	return nil
}

// PaidAmount is the sum of all recorded payments.
func (s *Sale) PaidAmount() decimal.Decimal {
	paid := decimal.Zero
	for _, payment := range s.payments {
		paid = paid.Add(payment.amount)
	}
	return paid
}

// MarkStored is called by the store after a successful write with the values it assigned.
func (s *Sale) MarkStored(orderNumber int64, version int) {
	s.orderNumber = orderNumber
	s.version = version
	s.itemsClosed = true
}

// Events returns the events recorded since the last call and clears them.
func (s *Sale) Events() []domain.Event {
	events := s.events
	s.events = nil
	return events
}

func (s *Sale) ID() uuid.UUID                   { return s.id }
func (s *Sale) ClientSaleID() *string           { return s.clientSaleID }
func (s *Sale) IdempotencyKey() *string         { return s.idempotencyKey }
func (s *Sale) OrderNumber() int64              { return s.orderNumber }
func (s *Sale) StoreID() uuid.UUID              { return s.storeID }
func (s *Sale) PosID() *uuid.UUID               { return s.posID }
func (s *Sale) OperatorID() *uuid.UUID          { return s.operatorID }
func (s *Sale) SaleDateTime() time.Time         { return s.saleDateTime }
func (s *Sale) Status() SaleStatus              { return s.status }
func (s *Sale) Subtotal() decimal.Decimal       { return s.subtotal }
func (s *Sale) DiscountTotal() decimal.Decimal  { return s.discountTotal }
func (s *Sale) TaxTotal() decimal.Decimal       { return s.taxTotal }
func (s *Sale) Total() decimal.Decimal          { return s.total }
func (s *Sale) PaymentStatus() PaymentStatus    { return s.paymentStatus }
func (s *Sale) Cancellation() *SaleCancellation { return s.cancellation }
func (s *Sale) Version() int                    { return s.version }
func (s *Sale) CreatedAt() time.Time            { return s.createdAt }
func (s *Sale) UpdatedAt() time.Time            { return s.updatedAt }
func (s *Sale) Items() []*SaleItem              { return append([]*SaleItem(nil), s.items...) }
func (s *Sale) Payments() []*SalePayment        { return append([]*SalePayment(nil), s.payments...) }

func (s *Sale) recalculate() {
	subtotal, discountTotal, taxTotal := decimal.Zero, decimal.Zero, decimal.Zero
	for _, item := range s.items {
		subtotal = subtotal.Add(item.GrossAmount())
		discountTotal = discountTotal.Add(item.discountAmount)
		taxTotal = taxTotal.Add(item.taxAmount)
	}
	s.subtotal = subtotal
	s.discountTotal = discountTotal
	s.taxTotal = taxTotal
	s.total = subtotal.Sub(discountTotal).Add(taxTotal)
	s.paymentStatus = derivePaymentStatus(s.PaidAmount(), s.total)
}

func (s *Sale) touch() {
	s.updatedAt = time.Now().UTC()
}

func (s *Sale) recordEvent(event domain.Event) {
	s.events = append(s.events, event)
}

func derivePaymentStatus(paid, total decimal.Decimal) PaymentStatus {
	switch {
	case !paid.IsPositive():
		return PaymentPending
	case paid.GreaterThanOrEqual(total):
		return PaymentPaid
	default:
		return PaymentPartial
	}
}

// NormalizeOptional trims s and maps blank values to nil, the form in which optional
// identifiers are stored and looked up.
func NormalizeOptional(s *string) *string {
	return optionalString(s)
}

// tooLong counts characters, as VARCHAR limits do.
func tooLong(s *string, limit int) bool {
	return s != nil && utf8.RuneCountInString(*s) > limit
}

func optionalString(s *string) *string {
	if s == nil {
		return nil
	}
	trimmed := strings.TrimSpace(*s)
	if trimmed == "" {
		return nil
	}
	return &trimmed
}
