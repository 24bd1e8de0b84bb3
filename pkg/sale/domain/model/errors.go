package model

import "errors"

// Validation errors: bad input shape or values.
var (
	ErrStoreIDRequired        = errors.New("store id is required")
	ErrProductIDRequired      = errors.New("product id is required")
	ErrInvalidQuantity        = errors.New("quantity must be greater than zero")
	ErrInvalidUnitPrice       = errors.New("unit price cannot be negative")
	ErrInvalidDiscount        = errors.New("discount cannot be negative")
	ErrDiscountExceedsGross   = errors.New("discount cannot exceed quantity times unit price")
	ErrInvalidTaxBase         = errors.New("tax base amount cannot be negative")
	ErrInvalidTaxRate         = errors.New("tax rate cannot be negative")
	ErrInvalidTaxAmount       = errors.New("tax amount cannot be negative")
	ErrTaxTypeRequired        = errors.New("tax type id is required")
	ErrPaymentMethodRequired  = errors.New("payment method id is required")
	ErrInvalidPaymentAmount   = errors.New("payment amount must be greater than zero")
	ErrInvalidChangeAmount    = errors.New("change amount cannot be negative")
	ErrUnknownPaymentType     = errors.New("payment method has an unknown payment type")
	ErrSaleMustHaveItems      = errors.New("sale must have at least one item")
	ErrCancellationReason     = errors.New("cancellation reason is required")
	ErrInvalidCancelSource    = errors.New("cancellation source must be one of api, pos, system, admin")
	ErrInvalidCancelType      = errors.New("cancellation type must be one of total, partial")
	ErrInvalidRefundAmount    = errors.New("refund amount must be between zero and the sale total")
	ErrInvalidStatus          = errors.New("unknown sale status")
	ErrInvalidPaymentStatus   = errors.New("unknown payment status")
	ErrPaymentStatusIsDerived = errors.New("payment status is derived from payments and cannot be set")
	ErrStatusRequired         = errors.New("status is required")
	ErrClientSaleIDRequired   = errors.New("client sale id is required")
	ErrSyncBatchEmpty         = errors.New("sync batch must contain at least one sale")
	ErrSyncBatchTooLarge      = errors.New("sync batch exceeds the maximum number of sales")
	ErrInvalidPagination      = errors.New("page and page size must be positive")
	ErrInvalidDateRange       = errors.New("date from must not be after date to")
	ErrIdempotencyKeyTooLong  = errors.New("idempotency key is too long")
	ErrClientSaleIDTooLong    = errors.New("client sale id is too long")
	ErrReasonTooLong          = errors.New("cancellation reason is too long")
	ErrPaymentReferenceLong   = errors.New("acquirer transaction id and authorization code are limited in length")
	ErrTaxRequired            = errors.New("tax line is required")
)

// Not-found errors.
var (
	ErrSaleNotFound          = errors.New("sale not found")
	ErrProductNotFound       = errors.New("product not found")
	ErrPaymentMethodNotFound = errors.New("payment method not found")
)

// Business-rule violations.
var (
	ErrIllegalStatusTransition = errors.New("illegal sale status transition")
	ErrSaleAlreadyCanceled     = errors.New("sale is already canceled")
	ErrCancellationExists      = errors.New("sale already has a cancellation")
	ErrPaymentOnCanceledSale   = errors.New("cannot add a payment to a canceled sale")
	ErrCancelThroughCancel     = errors.New("use cancel to cancel a sale")
	ErrItemsClosed             = errors.New("items can only be added while the sale is being created")
	ErrItemAlreadyAttached     = errors.New("taxes cannot be added to an item that belongs to a sale")
	ErrPaymentMethodInactive   = errors.New("payment method is inactive")
	ErrProductInactive         = errors.New("product is inactive")
	ErrPaymentAlreadyAttached  = errors.New("payment already belongs to a sale")
)

// Conflicts raised by the store.
var (
	ErrOptimisticLock      = errors.New("sale has been modified by another transaction")
	ErrDuplicateClientSale = errors.New("sale with this client sale id already exists")
	ErrDuplicateIdempotent = errors.New("sale with this idempotency key already exists")
)

var validationErrors = []error{
	ErrStoreIDRequired, ErrProductIDRequired, ErrInvalidQuantity, ErrInvalidUnitPrice,
	ErrInvalidDiscount, ErrDiscountExceedsGross, ErrInvalidTaxBase, ErrInvalidTaxRate,
	ErrInvalidTaxAmount, ErrTaxTypeRequired, ErrPaymentMethodRequired, ErrInvalidPaymentAmount,
	ErrInvalidChangeAmount, ErrUnknownPaymentType, ErrSaleMustHaveItems, ErrCancellationReason,
	ErrInvalidCancelSource, ErrInvalidCancelType, ErrInvalidRefundAmount, ErrInvalidStatus,
	ErrInvalidPaymentStatus, ErrPaymentStatusIsDerived, ErrStatusRequired, ErrClientSaleIDRequired,
	ErrSyncBatchEmpty, ErrSyncBatchTooLarge, ErrInvalidPagination, ErrInvalidDateRange,
	ErrIdempotencyKeyTooLong, ErrClientSaleIDTooLong, ErrReasonTooLong, ErrPaymentReferenceLong,
	ErrTaxRequired,
}

var notFoundErrors = []error{
	ErrSaleNotFound, ErrProductNotFound, ErrPaymentMethodNotFound,
}

var businessRuleErrors = []error{
	ErrIllegalStatusTransition, ErrSaleAlreadyCanceled, ErrCancellationExists,
	ErrPaymentOnCanceledSale, ErrCancelThroughCancel, ErrItemsClosed, ErrItemAlreadyAttached,
	ErrPaymentMethodInactive, ErrProductInactive, ErrPaymentAlreadyAttached,
}

var conflictErrors = []error{
	ErrOptimisticLock, ErrDuplicateClientSale, ErrDuplicateIdempotent,
}

func IsValidation(err error) bool   { return isAny(err, validationErrors) }
func IsNotFound(err error) bool     { return isAny(err, notFoundErrors) }
func IsBusinessRule(err error) bool { return isAny(err, businessRuleErrors) }
func IsConflict(err error) bool     { return isAny(err, conflictErrors) }

func isAny(err error, targets []error) bool {
	for _, target := range targets {
		if errors.Is(err, target) {
			return true
		}
	}
	return false
}
