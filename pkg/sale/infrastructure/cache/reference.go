package cache

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/hashicorp/golang-lru/v2/expirable"

	"saleservice/pkg/common/tenant"
	"saleservice/pkg/sale/domain/model"
)

type paymentMethodKey struct {
	schema string
	id     uuid.UUID
}

// NewReferenceRepository caches payment method lookups of the wrapped repository for ttl.
// Products are always read through since their active flag gates every sale.
func NewReferenceRepository(next model.ReferenceRepository, size int, ttl time.Duration) model.ReferenceRepository {
	return &referenceRepository{
		next:           next,
		paymentMethods: expirable.NewLRU[paymentMethodKey, model.PaymentMethod](size, nil, ttl),
	}
}

type referenceRepository struct {
	next           model.ReferenceRepository
	paymentMethods *expirable.LRU[paymentMethodKey, model.PaymentMethod]
}

func (r *referenceRepository) FindProduct(ctx context.Context, t tenant.Tenant, id uuid.UUID) (model.Product, error) {
	return r.next.FindProduct(ctx, t, id)
}

func (r *referenceRepository) FindPaymentMethod(ctx context.Context, t tenant.Tenant, id uuid.UUID) (model.PaymentMethod, error) {
	key := paymentMethodKey{schema: t.Schema(), id: id}
	if method, ok := r.paymentMethods.Get(key); ok {
		return method, nil
	}

	method, err := r.next.FindPaymentMethod(ctx, t, id)
	if err != nil {
		return model.PaymentMethod{}, err
	}
	r.paymentMethods.Add(key, method)
	return method, nil
}
