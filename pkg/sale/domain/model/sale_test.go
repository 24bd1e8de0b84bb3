package model_test

import (
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"saleservice/pkg/sale/domain/model"
)

func dec(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func assertDecimal(t *testing.T, expected string, actual decimal.Decimal) {
	t.Helper()
	assert.Truef(t, dec(expected).Equal(actual), "expected %s, got %s", expected, actual.String())
}

func assertTotalInvariant(t *testing.T, sale *model.Sale) {
	t.Helper()
	expected := sale.Subtotal().Sub(sale.DiscountTotal()).Add(sale.TaxTotal())
	assert.Truef(t, expected.Equal(sale.Total()), "total %s != subtotal - discount + tax = %s", sale.Total(), expected)
}

func newSale(t *testing.T) *model.Sale {
	t.Helper()
	sale, err := model.NewSale(model.SaleParams{StoreID: uuid.New()})
	require.NoError(t, err)
	return sale
}

func newItem(t *testing.T, quantity, unitPrice, discount string, taxAmounts ...string) *model.SaleItem {
	t.Helper()
	product := model.Product{ID: uuid.New(), Sku: "SKU-1", Description: "Coffee", UnitOfMeasure: "UN", Active: true}
	item, err := model.NewSaleItem(product, dec(quantity), dec(unitPrice), dec(discount))
	require.NoError(t, err)
	for _, amount := range taxAmounts {
		tax, err := model.NewSaleTax(uuid.New(), nil, item.TaxBase(), dec("10"), dec(amount))
		require.NoError(t, err)
		require.NoError(t, item.AddTax(tax))
	}
	return item
}

func newPayment(t *testing.T, amount string) *model.SalePayment {
	t.Helper()
	payment, err := model.NewSalePayment(model.PaymentParams{PaymentMethodID: uuid.New(), Amount: dec(amount)})
	require.NoError(t, err)
	return payment
}

func TestNewSale(t *testing.T) {
	t.Run("Defaults", func(t *testing.T) {
		before := time.Now().UTC()
		sale := newSale(t)

		assert.Equal(t, model.SaleOpen, sale.Status())
		assert.Equal(t, model.PaymentPending, sale.PaymentStatus())
		assert.True(t, sale.Total().IsZero())
		assert.Equal(t, 1, sale.Version())
		assert.False(t, sale.SaleDateTime().Before(before))

		events := sale.Events()
		require.Len(t, events, 1)
		_, ok := events[0].(model.SaleCreated)
		assert.True(t, ok)
		assert.Empty(t, sale.Events())
	})

	t.Run("Keeps supplied sale time and trims client sale id", func(t *testing.T) {
		at := time.Date(2024, 5, 1, 10, 0, 0, 0, time.UTC)
		clientSaleID := "  pos-1-0001 "
		sale, err := model.NewSale(model.SaleParams{StoreID: uuid.New(), ClientSaleID: &clientSaleID, SaleDateTime: &at})

		require.NoError(t, err)
		assert.Equal(t, at, sale.SaleDateTime())
		require.NotNil(t, sale.ClientSaleID())
		assert.Equal(t, "pos-1-0001", *sale.ClientSaleID())
	})

	t.Run("Blank client sale id is treated as absent", func(t *testing.T) {
		blank := "   "
		sale, err := model.NewSale(model.SaleParams{StoreID: uuid.New(), ClientSaleID: &blank})

		require.NoError(t, err)
		assert.Nil(t, sale.ClientSaleID())
	})

	t.Run("Fail without store", func(t *testing.T) {
		_, err := model.NewSale(model.SaleParams{})
		assert.ErrorIs(t, err, model.ErrStoreIDRequired)
		assert.True(t, model.IsValidation(err))
	})

	t.Run("Client sale id fits its column", func(t *testing.T) {
		fits := strings.Repeat("é", model.MaxClientSaleIDLength)
		sale, err := model.NewSale(model.SaleParams{StoreID: uuid.New(), ClientSaleID: &fits})
		require.NoError(t, err)
		assert.Equal(t, fits, *sale.ClientSaleID())

		long := strings.Repeat("x", model.MaxClientSaleIDLength+1)
		_, err = model.NewSale(model.SaleParams{StoreID: uuid.New(), ClientSaleID: &long})
		assert.ErrorIs(t, err, model.ErrClientSaleIDTooLong)
		assert.True(t, model.IsValidation(err))
	})

	t.Run("Idempotency key fits its column", func(t *testing.T) {
		long := strings.Repeat("k", model.MaxIdempotencyKeyLength+1)
		_, err := model.NewSale(model.SaleParams{StoreID: uuid.New(), IdempotencyKey: &long})
		assert.ErrorIs(t, err, model.ErrIdempotencyKeyTooLong)
		assert.True(t, model.IsValidation(err))
	})
}

func TestNewSaleItem(t *testing.T) {
	product := model.Product{ID: uuid.New(), Sku: "SKU-1"}

	testCases := []struct {
		name     string
		product  model.Product
		quantity string
		price    string
		discount string
		err      error
	}{
		{"Missing product", model.Product{}, "1", "1", "0", model.ErrProductIDRequired},
		{"Zero quantity", product, "0", "1", "0", model.ErrInvalidQuantity},
		{"Negative quantity", product, "-1", "1", "0", model.ErrInvalidQuantity},
		{"Negative price", product, "1", "-0.01", "0", model.ErrInvalidUnitPrice},
		{"Negative discount", product, "1", "1", "-1", model.ErrInvalidDiscount},
		{"Discount above gross", product, "2", "1.50", "3.01", model.ErrDiscountExceedsGross},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := model.NewSaleItem(tc.product, dec(tc.quantity), dec(tc.price), dec(tc.discount))
			assert.ErrorIs(t, err, tc.err)
		})
	}

	t.Run("Snapshots product and computes totals", func(t *testing.T) {
		item := newItem(t, "3", "5.00", "1.00", "1.40")

		assert.Equal(t, "SKU-1", item.Sku())
		assert.Equal(t, "UN", item.UnitOfMeasure())
		assertDecimal(t, "15.00", item.GrossAmount())
		assertDecimal(t, "14.00", item.TaxBase())
		assertDecimal(t, "1.40", item.TaxAmount())
		assertDecimal(t, "15.40", item.Total())
		require.Len(t, item.Taxes(), 1)
		assert.Equal(t, item.ID(), item.Taxes()[0].SaleItemID())
	})
}

func TestAddTax(t *testing.T) {
	item := newItem(t, "1", "10.00", "0", "1.00")

	err := item.AddTax(nil)
	assert.ErrorIs(t, err, model.ErrTaxRequired)
	assert.True(t, model.IsValidation(err))
	assert.Len(t, item.Taxes(), 1)
	assertDecimal(t, "1.00", item.TaxAmount())
}

func TestAddItem(t *testing.T) {
	sale := newSale(t)

	require.NoError(t, sale.AddItem(newItem(t, "2", "10.00", "0", "2.00")))
	require.NoError(t, sale.AddItem(newItem(t, "1", "7.50", "0.50", "0.70", "0.35")))

	assertDecimal(t, "27.50", sale.Subtotal())
	assertDecimal(t, "0.50", sale.DiscountTotal())
	assertDecimal(t, "3.05", sale.TaxTotal())
	assertDecimal(t, "30.05", sale.Total())
	assertTotalInvariant(t, sale)
	require.Len(t, sale.Items(), 2)
	assert.Equal(t, sale.ID(), sale.Items()[0].SaleID())

	t.Run("Attached item is frozen", func(t *testing.T) {
		item := sale.Items()[0]
		tax, err := model.NewSaleTax(uuid.New(), nil, dec("1"), dec("1"), dec("1"))
		require.NoError(t, err)

		assert.ErrorIs(t, item.AddTax(tax), model.ErrItemAlreadyAttached)
		assert.ErrorIs(t, item.AddTax(nil), model.ErrTaxRequired)
		assert.ErrorIs(t, sale.AddItem(item), model.ErrItemAlreadyAttached)
		assertDecimal(t, "30.05", sale.Total())
	})

	t.Run("Stored sale takes no new items", func(t *testing.T) {
		sale.MarkStored(1, 1)
		assert.ErrorIs(t, sale.AddItem(newItem(t, "1", "1", "0")), model.ErrItemsClosed)
		assert.Len(t, sale.Items(), 2)
	})
}

func TestAddPayment(t *testing.T) {
	sale := newSale(t)
	require.NoError(t, sale.AddItem(newItem(t, "1", "100.00", "0")))

	require.NoError(t, sale.AddPayment(newPayment(t, "40.00")))
	assert.Equal(t, model.PaymentPartial, sale.PaymentStatus())

	require.NoError(t, sale.AddPayment(newPayment(t, "60.00")))
	assert.Equal(t, model.PaymentPaid, sale.PaymentStatus())

	require.NoError(t, sale.AddPayment(newPayment(t, "5.00")))
	assert.Equal(t, model.PaymentPaid, sale.PaymentStatus(), "overpayment is still paid")
	assertDecimal(t, "105.00", sale.PaidAmount())
	assert.Equal(t, model.SaleOpen, sale.Status(), "full payment does not complete the sale")
	assertTotalInvariant(t, sale)

	t.Run("Same payment cannot be added twice", func(t *testing.T) {
		sale := newSale(t)
		require.NoError(t, sale.AddItem(newItem(t, "1", "100.00", "0")))
		payment := newPayment(t, "40.00")
		require.NoError(t, sale.AddPayment(payment))

		err := sale.AddPayment(payment)
		assert.ErrorIs(t, err, model.ErrPaymentAlreadyAttached)
		assert.True(t, model.IsBusinessRule(err))
		assert.Len(t, sale.Payments(), 1)
		assertDecimal(t, "40.00", sale.PaidAmount())
		assert.Equal(t, model.PaymentPartial, sale.PaymentStatus())

		other := newSale(t)
		assert.ErrorIs(t, other.AddPayment(payment), model.ErrPaymentAlreadyAttached)
		assert.Empty(t, other.Payments())
	})

	t.Run("Nil payment", func(t *testing.T) {
		sale := newSale(t)
		assert.ErrorIs(t, sale.AddPayment(nil), model.ErrPaymentMethodRequired)
		assert.Empty(t, sale.Payments())
	})

	t.Run("Payment references fit their columns", func(t *testing.T) {
		long := strings.Repeat("a", model.MaxPaymentReferenceLength+1)
		fits := strings.Repeat("a", model.MaxPaymentReferenceLength)

		_, err := model.NewSalePayment(model.PaymentParams{PaymentMethodID: uuid.New(), Amount: dec("1"), AcquirerTxnID: &long})
		assert.ErrorIs(t, err, model.ErrPaymentReferenceLong)
		assert.True(t, model.IsValidation(err))

		_, err = model.NewSalePayment(model.PaymentParams{PaymentMethodID: uuid.New(), Amount: dec("1"), AuthorizationCode: &long})
		assert.ErrorIs(t, err, model.ErrPaymentReferenceLong)

		payment, err := model.NewSalePayment(model.PaymentParams{PaymentMethodID: uuid.New(), Amount: dec("1"), AcquirerTxnID: &fits})
		require.NoError(t, err)
		assert.Equal(t, fits, *payment.AcquirerTxnID())
	})

	t.Run("Invalid payments", func(t *testing.T) {
		_, err := model.NewSalePayment(model.PaymentParams{Amount: dec("1")})
		assert.ErrorIs(t, err, model.ErrPaymentMethodRequired)

		_, err = model.NewSalePayment(model.PaymentParams{PaymentMethodID: uuid.New(), Amount: dec("0")})
		assert.ErrorIs(t, err, model.ErrInvalidPaymentAmount)

		change := dec("-1")
		_, err = model.NewSalePayment(model.PaymentParams{PaymentMethodID: uuid.New(), Amount: dec("1"), ChangeAmount: &change})
		assert.ErrorIs(t, err, model.ErrInvalidChangeAmount)
	})

	t.Run("New payment is processed", func(t *testing.T) {
		payment := newPayment(t, "1")
		assert.Equal(t, model.PaymentRecordProcessed, payment.Status())
		assert.NotNil(t, payment.ProcessedAt())
	})
}

func TestPaymentStatusDerivation(t *testing.T) {
	testCases := []struct {
		name     string
		payments []string
		expected model.PaymentStatus
	}{
		{"No payments", nil, model.PaymentPending},
		{"Partial", []string{"10.00"}, model.PaymentPartial},
		{"Exact", []string{"10.00", "12.00"}, model.PaymentPaid},
		{"Over", []string{"50.00"}, model.PaymentPaid},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			sale := newSale(t)
			require.NoError(t, sale.AddItem(newItem(t, "2", "10.00", "0", "2.00")))
			for _, amount := range tc.payments {
				require.NoError(t, sale.AddPayment(newPayment(t, amount)))
			}
			assert.Equal(t, tc.expected, sale.PaymentStatus())
		})
	}
}

func TestUpdateStatus(t *testing.T) {
	t.Run("Open to completed", func(t *testing.T) {
		sale := newSale(t)
		_ = sale.Events()

		require.NoError(t, sale.UpdateStatus(model.SaleCompleted))
		assert.Equal(t, model.SaleCompleted, sale.Status())

		events := sale.Events()
		require.Len(t, events, 1)
		changed := events[0].(model.SaleStatusChanged)
		assert.Equal(t, model.SaleOpen, changed.OldStatus)
		assert.Equal(t, model.SaleCompleted, changed.NewStatus)
	})

	t.Run("Same status is a no-op", func(t *testing.T) {
		sale := newSale(t)
		_ = sale.Events()

		require.NoError(t, sale.UpdateStatus(model.SaleOpen))
		assert.Empty(t, sale.Events())
	})

	t.Run("Completed cannot reopen", func(t *testing.T) {
		sale := newSale(t)
		require.NoError(t, sale.UpdateStatus(model.SaleCompleted))

		err := sale.UpdateStatus(model.SaleOpen)
		assert.ErrorIs(t, err, model.ErrIllegalStatusTransition)
		assert.True(t, model.IsBusinessRule(err))
		assert.Equal(t, model.SaleCompleted, sale.Status())
	})

	t.Run("Cancel goes through Cancel", func(t *testing.T) {
		sale := newSale(t)
		assert.ErrorIs(t, sale.UpdateStatus(model.SaleCanceled), model.ErrCancelThroughCancel)
		assert.Nil(t, sale.Cancellation())
	})

	t.Run("Unknown status", func(t *testing.T) {
		sale := newSale(t)
		assert.ErrorIs(t, sale.UpdateStatus(model.SaleStatus("archived")), model.ErrInvalidStatus)
	})

	t.Run("Canceled is terminal", func(t *testing.T) {
		sale := newSale(t)
		require.NoError(t, sale.Cancel(model.CancellationParams{Reason: "customer left", Source: model.CancelSourcePOS, Type: model.CancelTotal}))

		assert.ErrorIs(t, sale.UpdateStatus(model.SaleOpen), model.ErrSaleAlreadyCanceled)
		assert.ErrorIs(t, sale.UpdateStatus(model.SaleCompleted), model.ErrSaleAlreadyCanceled)
		assert.Equal(t, model.SaleCanceled, sale.Status())
	})
}

func TestCancel(t *testing.T) {
	params := model.CancellationParams{Reason: "wrong items", Source: model.CancelSourceAPI, Type: model.CancelTotal}

	t.Run("Success", func(t *testing.T) {
		sale := newSale(t)
		require.NoError(t, sale.AddItem(newItem(t, "1", "10.00", "0")))
		require.NoError(t, sale.UpdateStatus(model.SaleCompleted))
		_ = sale.Events()
		refund := dec("10.00")
		p := params
		p.RefundAmount = &refund

		require.NoError(t, sale.Cancel(p))

		assert.Equal(t, model.SaleCanceled, sale.Status())
		require.NotNil(t, sale.Cancellation())
		assert.Equal(t, "wrong items", sale.Cancellation().Reason())
		assert.Equal(t, sale.ID(), sale.Cancellation().SaleID())
		assertTotalInvariant(t, sale)

		events := sale.Events()
		require.Len(t, events, 2)
		_, ok := events[1].(model.SaleCancellationCreated)
		assert.True(t, ok)
	})

	t.Run("Second cancel fails", func(t *testing.T) {
		sale := newSale(t)
		require.NoError(t, sale.Cancel(params))

		err := sale.Cancel(params)
		assert.ErrorIs(t, err, model.ErrCancellationExists)
		assert.True(t, model.IsBusinessRule(err))
	})

	t.Run("Payment after cancel is rejected", func(t *testing.T) {
		sale := newSale(t)
		require.NoError(t, sale.AddItem(newItem(t, "1", "10.00", "0")))
		require.NoError(t, sale.Cancel(params))

		err := sale.AddPayment(newPayment(t, "10.00"))
		assert.ErrorIs(t, err, model.ErrPaymentOnCanceledSale)
		assert.Empty(t, sale.Payments())
		assert.Equal(t, model.PaymentPending, sale.PaymentStatus())
	})

	t.Run("Validation leaves the sale untouched", func(t *testing.T) {
		sale := newSale(t)
		require.NoError(t, sale.AddItem(newItem(t, "1", "10.00", "0")))
		tooMuch := dec("10.01")

		testCases := []struct {
			name   string
			params model.CancellationParams
			err    error
		}{
			{"Blank reason", model.CancellationParams{Reason: "  ", Source: model.CancelSourceAPI, Type: model.CancelTotal}, model.ErrCancellationReason},
			{"Bad source", model.CancellationParams{Reason: "x", Source: "web", Type: model.CancelTotal}, model.ErrInvalidCancelSource},
			{"Bad type", model.CancellationParams{Reason: "x", Source: model.CancelSourceAPI, Type: "half"}, model.ErrInvalidCancelType},
			{"Refund above total", model.CancellationParams{Reason: "x", Source: model.CancelSourceAPI, Type: model.CancelTotal, RefundAmount: &tooMuch}, model.ErrInvalidRefundAmount},
			{"Reason too long", model.CancellationParams{Reason: strings.Repeat("r", model.MaxCancellationReasonLength+1), Source: model.CancelSourceAPI, Type: model.CancelTotal}, model.ErrReasonTooLong},
		}
		for _, tc := range testCases {
			t.Run(tc.name, func(t *testing.T) {
				err := sale.Cancel(tc.params)
				assert.ErrorIs(t, err, tc.err)
				assert.True(t, model.IsValidation(err))
				assert.Equal(t, model.SaleOpen, sale.Status())
				assert.Nil(t, sale.Cancellation())
			})
		}
	})
}

func TestSaleEndToEnd(t *testing.T) {
	sale := newSale(t)
	product := model.Product{ID: uuid.New(), Sku: "SKU-42", Description: "Notebook", UnitOfMeasure: "UN", Active: true}
	item, err := model.NewSaleItem(product, dec("2"), dec("10.00"), dec("0"))
	require.NoError(t, err)
	ruleID := uuid.New()
	tax, err := model.NewSaleTax(uuid.New(), &ruleID, item.TaxBase(), dec("10"), dec("2.00"))
	require.NoError(t, err)
	require.NoError(t, item.AddTax(tax))
	require.NoError(t, sale.AddItem(item))

	assertDecimal(t, "20.00", sale.Subtotal())
	assertDecimal(t, "2.00", sale.TaxTotal())
	assertDecimal(t, "22.00", sale.Total())

	require.NoError(t, sale.AddPayment(newPayment(t, "22.00")))
	assert.Equal(t, model.PaymentPaid, sale.PaymentStatus())
	assertTotalInvariant(t, sale)
}

func TestRestoreSale(t *testing.T) {
	saleID := uuid.New()
	item := model.RestoreSaleItem(model.SaleItemSnapshot{ID: uuid.New(), SaleID: saleID, ProductID: uuid.New(), Quantity: dec("1"), UnitPrice: dec("5"), Total: dec("5")}, nil)
	sale := model.RestoreSale(model.SaleSnapshot{
		ID:            saleID,
		StoreID:       uuid.New(),
		Status:        model.SaleOpen,
		Subtotal:      dec("5"),
		DiscountTotal: decimal.Zero,
		TaxTotal:      decimal.Zero,
		Total:         dec("5"),
		PaymentStatus: model.PaymentPending,
		Version:       3,
	}, []*model.SaleItem{item}, nil, nil)

	assert.Equal(t, 3, sale.Version())
	assert.Empty(t, sale.Events())
	assert.ErrorIs(t, sale.AddItem(newItem(t, "1", "1", "0")), model.ErrItemsClosed)

	require.NoError(t, sale.AddPayment(newPayment(t, "5")))
	assert.Equal(t, model.PaymentPaid, sale.PaymentStatus())
}
