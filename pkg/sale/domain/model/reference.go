package model

import "github.com/google/uuid"

// Product is the read-only view of a catalog product used to snapshot item data at sale time.
type Product struct {
	ID            uuid.UUID
	Sku           string
	Description   string
	UnitOfMeasure string
	Active        bool
}

// CheckSellable reports whether the product may be added to a new sale.
func (p Product) CheckSellable() error {
	if !p.Active {
		return ErrProductInactive
	}
	return nil
}

type PaymentType string

const (
	PaymentTypeCash        PaymentType = "cash"
	PaymentTypeCreditCard  PaymentType = "credit_card"
	PaymentTypeDebitCard   PaymentType = "debit_card"
	PaymentTypePix         PaymentType = "pix"
	PaymentTypeVoucher     PaymentType = "voucher"
	PaymentTypeStoreCredit PaymentType = "store_credit"
	PaymentTypeUnknown     PaymentType = "unknown"
)

// ParsePaymentType never fails: unrecognised codes map to PaymentTypeUnknown.
func ParsePaymentType(code string) PaymentType {
	switch t := PaymentType(code); t {
	case PaymentTypeCash, PaymentTypeCreditCard, PaymentTypeDebitCard,
		PaymentTypePix, PaymentTypeVoucher, PaymentTypeStoreCredit:
		return t
	default:
		return PaymentTypeUnknown
	}
}

type PaymentMethod struct {
	ID          uuid.UUID
	TypeCode    string
	Description string
	Active      bool
}

func (m PaymentMethod) Type() PaymentType {
	return ParsePaymentType(m.TypeCode)
}

// CheckAcceptable reports whether a payment may be recorded with this method.
func (m PaymentMethod) CheckAcceptable() error {
	if !m.Active {
		return ErrPaymentMethodInactive
	}
	if m.Type() == PaymentTypeUnknown {
		return ErrUnknownPaymentType
	}
	return nil
}
