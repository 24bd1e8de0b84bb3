package metrics

import (
	"testing"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/shopspring/decimal"
	log "github.com/sirupsen/logrus"
	logtest "github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"saleservice/pkg/common/domain"
	"saleservice/pkg/sale/domain/model"
)

func TestEventDispatcher(t *testing.T) {
	logger, hook := logtest.NewNullLogger()
	logger.SetLevel(log.DebugLevel)
	registry := prometheus.NewRegistry()

	dispatcher, err := NewEventDispatcher(registry, logger)
	require.NoError(t, err)

	saleID := uuid.New()
	events := []domain.Event{
		model.SaleCreated{SaleID: saleID},
		model.PaymentAdded{SaleID: saleID, Amount: decimal.RequireFromString("12.50"), PaymentStatus: model.PaymentPartial},
		model.PaymentAdded{SaleID: saleID, Amount: decimal.RequireFromString("7.50"), PaymentStatus: model.PaymentPaid},
		model.SaleStatusChanged{SaleID: saleID, OldStatus: model.SaleOpen, NewStatus: model.SaleCanceled},
		model.SaleCancellationCreated{SaleID: saleID, Source: model.CancelSourcePOS},
	}
	for _, event := range events {
		require.NoError(t, dispatcher.Dispatch(event))
	}

	assert.Equal(t, 1.0, testutil.ToFloat64(dispatcher.events.WithLabelValues("SaleCreated")))
	assert.Equal(t, 2.0, testutil.ToFloat64(dispatcher.events.WithLabelValues("PaymentAdded")))
	assert.Equal(t, 20.0, testutil.ToFloat64(dispatcher.paymentsAmount))
	assert.Equal(t, 1.0, testutil.ToFloat64(dispatcher.cancellations.WithLabelValues("pos")))

	require.Len(t, hook.AllEntries(), len(events))
	last := hook.LastEntry()
	assert.Equal(t, "SaleCancellationCreated", last.Data["event"])
	assert.Equal(t, saleID, last.Data["saleId"])

	t.Run("Registering twice fails", func(t *testing.T) {
		_, err := NewEventDispatcher(registry, logger)
		assert.Error(t, err)
	})
}
