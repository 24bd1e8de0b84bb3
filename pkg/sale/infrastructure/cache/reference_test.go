package cache

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"saleservice/pkg/common/tenant"
	"saleservice/pkg/sale/domain/model"
)

func TestReferenceRepository(t *testing.T) {
	acme, err := tenant.Parse("acme")
	require.NoError(t, err)
	globex, err := tenant.Parse("globex")
	require.NoError(t, err)

	methodID := uuid.New()
	productID := uuid.New()
	next := &countingReferenceRepository{
		methods:  map[uuid.UUID]model.PaymentMethod{methodID: {ID: methodID, TypeCode: "pix", Active: true}},
		products: map[uuid.UUID]model.Product{productID: {ID: productID, Sku: "SKU-1", Active: true}},
	}
	repo := NewReferenceRepository(next, 16, time.Minute)
	ctx := context.Background()

	t.Run("Payment methods are cached per tenant", func(t *testing.T) {
		for i := 0; i < 3; i++ {
			method, err := repo.FindPaymentMethod(ctx, acme, methodID)
			require.NoError(t, err)
			assert.Equal(t, "pix", method.TypeCode)
		}
		assert.Equal(t, 1, next.methodCalls)

		_, err := repo.FindPaymentMethod(ctx, globex, methodID)
		require.NoError(t, err)
		assert.Equal(t, 2, next.methodCalls)
	})

	t.Run("Misses are not cached", func(t *testing.T) {
		missing := uuid.New()
		calls := next.methodCalls
		for i := 0; i < 2; i++ {
			_, err := repo.FindPaymentMethod(ctx, acme, missing)
			assert.ErrorIs(t, err, model.ErrPaymentMethodNotFound)
		}
		assert.Equal(t, calls+2, next.methodCalls)
	})

	t.Run("Products read through", func(t *testing.T) {
		for i := 0; i < 2; i++ {
			product, err := repo.FindProduct(ctx, acme, productID)
			require.NoError(t, err)
			assert.Equal(t, "SKU-1", product.Sku)
		}
		assert.Equal(t, 2, next.productCalls)
	})
}

type countingReferenceRepository struct {
	methods      map[uuid.UUID]model.PaymentMethod
	products     map[uuid.UUID]model.Product
	methodCalls  int
	productCalls int
}

func (m *countingReferenceRepository) FindProduct(_ context.Context, _ tenant.Tenant, id uuid.UUID) (model.Product, error) {
	m.productCalls++
	product, ok := m.products[id]
	if !ok {
		return model.Product{}, model.ErrProductNotFound
	}
	return product, nil
}

func (m *countingReferenceRepository) FindPaymentMethod(_ context.Context, _ tenant.Tenant, id uuid.UUID) (model.PaymentMethod, error) {
	m.methodCalls++
	method, ok := m.methods[id]
	if !ok {
		return model.PaymentMethod{}, model.ErrPaymentMethodNotFound
	}
	return method, nil
}
