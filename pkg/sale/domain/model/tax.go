package model

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

type CalculationKind string

const (
	CalculationPercentage  CalculationKind = "percentage"
	CalculationFixed       CalculationKind = "fixed"
	CalculationMVA         CalculationKind = "mva"
	CalculationReducedBase CalculationKind = "reduced_base"
	CalculationUnknown     CalculationKind = "unknown"
)

// ParseCalculationKind maps unrecognised or empty kinds to CalculationUnknown,
// which is calculated as a percentage.
func ParseCalculationKind(s string) CalculationKind {
	switch kind := CalculationKind(s); kind {
	case CalculationPercentage, CalculationFixed, CalculationMVA, CalculationReducedBase:
		return kind
	default:
		return CalculationUnknown
	}
}

type TaxType struct {
	ID          uuid.UUID
	Code        string
	Calculation CalculationKind
}

type TaxRule struct {
	ID        uuid.UUID
	TaxTypeID uuid.UUID
	// ProductID and Jurisdiction are nil for rules that apply more broadly.
	ProductID         *uuid.UUID
	Jurisdiction      *string
	Rate              decimal.Decimal
	BaseReductionRate *decimal.Decimal
	MVARate           *decimal.Decimal
	ActiveFrom        time.Time
	ActiveTo          *time.Time
}

// ActiveAt reports whether the rule's validity window contains t.
func (r TaxRule) ActiveAt(t time.Time) bool {
	if r.ActiveFrom.After(t) {
		return false
	}
	return r.ActiveTo == nil || !r.ActiveTo.Before(t)
}

// TaxTypeRules groups an active tax type with its candidate rules.
type TaxTypeRules struct {
	TaxType TaxType
	Rules   []TaxRule
}
