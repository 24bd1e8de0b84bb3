package transport

import (
	"net/http"

	"github.com/gorilla/mux"
	"github.com/pkg/errors"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	log "github.com/sirupsen/logrus"

	"saleservice/pkg/common/tenant"
	appservice "saleservice/pkg/sale/application/service"
)

const (
	tenantHeader         = "X-Tenant-Subdomain"
	roleHeader           = "X-User-Role"
	idempotencyKeyHeader = "Idempotency-Key"
)

var privilegedRoles = map[string]struct{}{
	"admin":   {},
	"manager": {},
}

type Handler struct {
	service appservice.SaleService
	logger  log.FieldLogger
}

func Router(service appservice.SaleService, gatherer prometheus.Gatherer, logger log.FieldLogger) http.Handler {
	handler := &Handler{
		service: service,
		logger:  logger,
	}

	r := mux.NewRouter()
	r.HandleFunc("/health", handler.health).Methods(http.MethodGet)
	r.Handle("/metrics", promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{})).Methods(http.MethodGet)

	s := r.PathPrefix("/api/sales").Subrouter()
	s.Use(handler.tenantMiddleware)
	s.HandleFunc("", handler.createSale).Methods(http.MethodPost)
	s.HandleFunc("", handler.listSales).Methods(http.MethodGet)
	s.HandleFunc("/sync", handler.syncSales).Methods(http.MethodPost)
	s.HandleFunc("/sync/status", handler.syncStatus).Methods(http.MethodGet)
	s.HandleFunc("/{id}", handler.getSale).Methods(http.MethodGet)
	s.Handle("/{id}", handler.requireRole(http.HandlerFunc(handler.updateSale))).Methods(http.MethodPatch)
	s.HandleFunc("/{id}/payments", handler.addPayment).Methods(http.MethodPost)
	s.Handle("/{id}/cancel", handler.requireRole(http.HandlerFunc(handler.cancelSale))).Methods(http.MethodPost)

	return handler.logMiddleware(r)
}

func (h *Handler) logMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		h.logger.WithFields(log.Fields{
			"method":     r.Method,
			"url":        r.URL,
			"remoteAddr": r.RemoteAddr,
			"userAgent":  r.UserAgent(),
		}).Info("got a new request")
		next.ServeHTTP(w, r)
	})
}

// tenantMiddleware resolves the tenant once per request; handlers read it from the context.
func (h *Handler) tenantMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t, err := tenant.Parse(r.Header.Get(tenantHeader))
		switch {
		case errors.Is(err, tenant.ErrTenantRequired):
			h.writeError(w, http.StatusUnauthorized, err.Error())
			return
		case err != nil:
			h.writeError(w, http.StatusBadRequest, err.Error())
			return
		}
		next.ServeHTTP(w, r.WithContext(tenant.WithContext(r.Context(), t)))
	})
}

// requireRole lets through callers whose role was set to admin or manager by the auth gateway.
func (h *Handler) requireRole(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if _, ok := privilegedRoles[r.Header.Get(roleHeader)]; !ok {
			h.writeError(w, http.StatusForbidden, "operation requires admin or manager role")
			return
		}
		next.ServeHTTP(w, r)
	})
}

func (h *Handler) health(w http.ResponseWriter, _ *http.Request) {
	h.writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}
