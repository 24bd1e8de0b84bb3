package model

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// SaleItem is a line of a sale. Sku, description and unit of measure are a snapshot of the
// product taken when the sale was created and never change afterwards.
type SaleItem struct {
	id             uuid.UUID
	saleID         uuid.UUID
	productID      uuid.UUID
	sku            string
	description    string
	unitOfMeasure  string
	quantity       decimal.Decimal
	unitPrice      decimal.Decimal
	discountAmount decimal.Decimal
	taxAmount      decimal.Decimal
	total          decimal.Decimal
	taxes          []*SaleTax
	attached       bool
	createdAt      time.Time
}

func NewSaleItem(product Product, quantity, unitPrice, discountAmount decimal.Decimal) (*SaleItem, error) {
	if product.ID == uuid.Nil {
		return nil, ErrProductIDRequired
	}
	if !quantity.IsPositive() {
		return nil, ErrInvalidQuantity
	}
	if unitPrice.IsNegative() {
		return nil, ErrInvalidUnitPrice
	}
	if discountAmount.IsNegative() {
		return nil, ErrInvalidDiscount
	}
	if discountAmount.GreaterThan(quantity.Mul(unitPrice)) {
		return nil, ErrDiscountExceedsGross
	}

	item := &SaleItem{
		id:             uuid.New(),
		productID:      product.ID,
		sku:            product.Sku,
		description:    product.Description,
		unitOfMeasure:  product.UnitOfMeasure,
		quantity:       quantity,
		unitPrice:      unitPrice,
		discountAmount: discountAmount,
		createdAt:      time.Now().UTC(),
	}
	item.recalculate()
	return item, nil
}

// AddTax attaches a tax line. Items are frozen once they belong to a sale so that sale totals
// cannot drift from item totals.
func (i *SaleItem) AddTax(tax *SaleTax) error {
	if tax == nil {
		return ErrTaxRequired
	}
	if i.attached {
		return ErrItemAlreadyAttached
	}
	tax.saleItemID = i.id
	i.taxes = append(i.taxes, tax)
	i.recalculate()
	return nil
}

// GrossAmount is quantity times unit price.
func (i *SaleItem) GrossAmount() decimal.Decimal {
	return i.quantity.Mul(i.unitPrice)
}

// TaxBase is the amount taxes are calculated on: gross amount minus discount.
func (i *SaleItem) TaxBase() decimal.Decimal {
	return i.GrossAmount().Sub(i.discountAmount)
}

func (i *SaleItem) recalculate() {
	taxAmount := decimal.Zero
	for _, tax := range i.taxes {
		taxAmount = taxAmount.Add(tax.amount)
	}
	i.taxAmount = taxAmount
	i.total = i.TaxBase().Add(taxAmount)
}

func (i *SaleItem) ID() uuid.UUID                   { return i.id }
func (i *SaleItem) SaleID() uuid.UUID               { return i.saleID }
func (i *SaleItem) ProductID() uuid.UUID            { return i.productID }
func (i *SaleItem) Sku() string                     { return i.sku }
func (i *SaleItem) Description() string             { return i.description }
func (i *SaleItem) UnitOfMeasure() string           { return i.unitOfMeasure }
func (i *SaleItem) Quantity() decimal.Decimal       { return i.quantity }
func (i *SaleItem) UnitPrice() decimal.Decimal      { return i.unitPrice }
func (i *SaleItem) DiscountAmount() decimal.Decimal { return i.discountAmount }
func (i *SaleItem) TaxAmount() decimal.Decimal      { return i.taxAmount }
func (i *SaleItem) Total() decimal.Decimal          { return i.total }
func (i *SaleItem) CreatedAt() time.Time            { return i.createdAt }

// Taxes returns a copy of the item's tax lines.
func (i *SaleItem) Taxes() []*SaleTax {
	return append([]*SaleTax(nil), i.taxes...)
}

// SaleTax is one calculated tax line of an item. It is immutable once created.
type SaleTax struct {
	id         uuid.UUID
	saleItemID uuid.UUID
	taxTypeID  uuid.UUID
	taxRuleID  *uuid.UUID
	baseAmount decimal.Decimal
	rate       decimal.Decimal
	amount     decimal.Decimal
	createdAt  time.Time
}

// NewSaleTax creates a tax line. taxRuleID is nil when the line was not derived from a rule.
func NewSaleTax(taxTypeID uuid.UUID, taxRuleID *uuid.UUID, baseAmount, rate, amount decimal.Decimal) (*SaleTax, error) {
	if taxTypeID == uuid.Nil {
		return nil, ErrTaxTypeRequired
	}
	if baseAmount.IsNegative() {
		return nil, ErrInvalidTaxBase
	}
	if rate.IsNegative() {
		return nil, ErrInvalidTaxRate
	}
	if amount.IsNegative() {
		return nil, ErrInvalidTaxAmount
	}
	return &SaleTax{
		id:         uuid.New(),
		taxTypeID:  taxTypeID,
		taxRuleID:  taxRuleID,
		baseAmount: baseAmount,
		rate:       rate,
		amount:     amount,
		createdAt:  time.Now().UTC(),
	}, nil
}

func (t *SaleTax) ID() uuid.UUID               { return t.id }
func (t *SaleTax) SaleItemID() uuid.UUID       { return t.saleItemID }
func (t *SaleTax) TaxTypeID() uuid.UUID        { return t.taxTypeID }
func (t *SaleTax) TaxRuleID() *uuid.UUID       { return t.taxRuleID }
func (t *SaleTax) BaseAmount() decimal.Decimal { return t.baseAmount }
func (t *SaleTax) Rate() decimal.Decimal       { return t.rate }
func (t *SaleTax) Amount() decimal.Decimal     { return t.amount }
func (t *SaleTax) CreatedAt() time.Time        { return t.createdAt }
