package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	log "github.com/sirupsen/logrus"

	"saleservice/pkg/common/domain"
	"saleservice/pkg/sale/domain/model"
)

// EventDispatcher turns sale domain events into Prometheus series and a log line each.
type EventDispatcher struct {
	events         *prometheus.CounterVec
	paymentsAmount prometheus.Counter
	cancellations  *prometheus.CounterVec
	logger         log.FieldLogger
}

func NewEventDispatcher(registerer prometheus.Registerer, logger log.FieldLogger) (*EventDispatcher, error) {
	d := &EventDispatcher{
		events: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "sale",
			Name:      "events_total",
			Help:      "Sale domain events by type.",
		}, []string{"type"}),
		paymentsAmount: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "sale",
			Name:      "payments_amount_total",
			Help:      "Sum of recorded payment amounts.",
		}),
		cancellations: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "sale",
			Name:      "cancellations_total",
			Help:      "Sale cancellations by source.",
		}, []string{"source"}),
		logger: logger,
	}

	for _, collector := range []prometheus.Collector{d.events, d.paymentsAmount, d.cancellations} {
		if err := registerer.Register(collector); err != nil {
			return nil, err
		}
	}
	return d, nil
}

func (d *EventDispatcher) Dispatch(event domain.Event) error {
	d.events.WithLabelValues(event.Type()).Inc()

	fields := log.Fields{"event": event.Type()}
	switch e := event.(type) {
	case model.SaleCreated:
		fields["saleId"] = e.SaleID
	case model.SaleItemAdded:
		fields["saleId"] = e.SaleID
		fields["productId"] = e.ProductID
	case model.PaymentAdded:
		fields["saleId"] = e.SaleID
		fields["paymentStatus"] = e.PaymentStatus
		d.paymentsAmount.Add(e.Amount.InexactFloat64())
	case model.SaleStatusChanged:
		fields["saleId"] = e.SaleID
		fields["from"] = e.OldStatus
		fields["to"] = e.NewStatus
	case model.SaleCancellationCreated:
		fields["saleId"] = e.SaleID
		d.cancellations.WithLabelValues(string(e.Source)).Inc()
	}
	d.logger.WithFields(fields).Debug("sale event")
	return nil
}
