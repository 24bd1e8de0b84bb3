package model

type SaleStatus string

const (
	SaleOpen      SaleStatus = "open"
	SaleCompleted SaleStatus = "completed"
	SaleCanceled  SaleStatus = "canceled"
)

// saleTransitions lists every legal status change. Canceled has no way out.
var saleTransitions = map[SaleStatus][]SaleStatus{
	SaleOpen:      {SaleCompleted, SaleCanceled},
	SaleCompleted: {SaleCanceled},
}

func ParseSaleStatus(s string) (SaleStatus, error) {
	switch status := SaleStatus(s); status {
	case SaleOpen, SaleCompleted, SaleCanceled:
		return status, nil
	default:
		return "", ErrInvalidStatus
	}
}

func (s SaleStatus) CanTransitionTo(next SaleStatus) bool {
	for _, allowed := range saleTransitions[s] {
		if allowed == next {
			return true
		}
	}
	return false
}

type PaymentStatus string

const (
	PaymentPending PaymentStatus = "pending"
	PaymentPartial PaymentStatus = "partial"
	PaymentPaid    PaymentStatus = "paid"
)

func ParsePaymentStatus(s string) (PaymentStatus, error) {
	switch status := PaymentStatus(s); status {
	case PaymentPending, PaymentPartial, PaymentPaid:
		return status, nil
	default:
		return "", ErrInvalidPaymentStatus
	}
}

// PaymentRecordStatus is the status of a single recorded payment. Payments are recorded,
// not processed against a gateway, so they are always created as processed.
type PaymentRecordStatus string

const PaymentRecordProcessed PaymentRecordStatus = "processed"

type CancellationSource string

const (
	CancelSourceAPI    CancellationSource = "api"
	CancelSourcePOS    CancellationSource = "pos"
	CancelSourceSystem CancellationSource = "system"
	CancelSourceAdmin  CancellationSource = "admin"
)

func ParseCancellationSource(s string) (CancellationSource, error) {
	switch source := CancellationSource(s); source {
	case CancelSourceAPI, CancelSourcePOS, CancelSourceSystem, CancelSourceAdmin:
		return source, nil
	default:
		return "", ErrInvalidCancelSource
	}
}

type CancellationType string

const (
	CancelTotal   CancellationType = "total"
	CancelPartial CancellationType = "partial"
)

func ParseCancellationType(s string) (CancellationType, error) {
	switch kind := CancellationType(s); kind {
	case CancelTotal, CancelPartial:
		return kind, nil
	default:
		return "", ErrInvalidCancelType
	}
}
