package model

import (
	"context"
	"time"

	"github.com/google/uuid"

	"saleservice/pkg/common/tenant"
)

type SaleFilter struct {
	StoreID      *uuid.UUID
	PosID        *uuid.UUID
	OperatorID   *uuid.UUID
	DateFrom     *time.Time
	DateTo       *time.Time
	Status       *SaleStatus
	ClientSaleID *string
	Page         int
	PageSize     int
}

// Offset is the number of rows skipped before the requested page.
func (f SaleFilter) Offset() int {
	return (f.Page - 1) * f.PageSize
}

type SaleRepository interface {
	// Save writes a new sale with all its children in one transaction. A sale whose client sale id
	// or idempotency key is already taken fails with ErrDuplicateClientSale or ErrDuplicateIdempotent.
	Save(ctx context.Context, t tenant.Tenant, sale *Sale) error
	// Update writes the mutable sale fields and any payments and cancellation not yet stored.
	// It fails with ErrOptimisticLock when the stored version moved on.
	Update(ctx context.Context, t tenant.Tenant, sale *Sale) error
	FindByID(ctx context.Context, t tenant.Tenant, id uuid.UUID) (*Sale, error)
	FindByClientSaleID(ctx context.Context, t tenant.Tenant, clientSaleID string) (*Sale, error)
	FindByIdempotencyKey(ctx context.Context, t tenant.Tenant, key string) (*Sale, error)
	List(ctx context.Context, t tenant.Tenant, filter SaleFilter) ([]*Sale, int, error)
}

type ReferenceRepository interface {
	FindProduct(ctx context.Context, t tenant.Tenant, id uuid.UUID) (Product, error)
	FindPaymentMethod(ctx context.Context, t tenant.Tenant, id uuid.UUID) (PaymentMethod, error)
}

type TaxRuleRepository interface {
	// FindCandidates returns every active tax type with the rules that could apply to the product
	// in the jurisdiction at the given time. Picking the winning rule is up to the caller.
	FindCandidates(ctx context.Context, t tenant.Tenant, productID uuid.UUID, jurisdiction string, at time.Time) ([]TaxTypeRules, error)
}
