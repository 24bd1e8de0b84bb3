package transport

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/pkg/errors"
	"github.com/prometheus/client_golang/prometheus"
	logtest "github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"saleservice/pkg/common/tenant"
	appservice "saleservice/pkg/sale/application/service"
	"saleservice/pkg/sale/domain/model"
)

func setup() (http.Handler, *stubSaleService) {
	logger, _ := logtest.NewNullLogger()
	service := &stubSaleService{}
	return Router(service, prometheus.NewRegistry(), logger), service
}

func do(handler http.Handler, method, target, body string, headers map[string]string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, target, strings.NewReader(body))
	req.Header.Set(tenantHeader, "acme")
	for name, value := range headers {
		req.Header.Set(name, value)
	}
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	return rec
}

func decodeError(t *testing.T, rec *httptest.ResponseRecorder) string {
	t.Helper()
	var body errorResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	return body.Error
}

func TestTenantMiddleware(t *testing.T) {
	handler, service := setup()

	t.Run("Missing tenant", func(t *testing.T) {
		rec := do(handler, http.MethodGet, "/api/sales", "", map[string]string{tenantHeader: ""})
		assert.Equal(t, http.StatusUnauthorized, rec.Code)
	})

	t.Run("Invalid tenant", func(t *testing.T) {
		rec := do(handler, http.MethodGet, "/api/sales", "", map[string]string{tenantHeader: "acme; drop schema"})
		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})

	t.Run("Tenant reaches the service", func(t *testing.T) {
		rec := do(handler, http.MethodGet, "/api/sales", "", map[string]string{tenantHeader: "Acme"})
		assert.Equal(t, http.StatusOK, rec.Code)
		assert.Equal(t, "acme", service.tenant.Subdomain())
	})

	t.Run("Health needs no tenant", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/health", nil)
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, req)
		assert.Equal(t, http.StatusOK, rec.Code)
	})
}

func TestCreateSaleHandler(t *testing.T) {
	handler, service := setup()
	storeID := uuid.New()
	body := `{"clientSaleId":"POS-1","storeId":"` + storeID.String() + `","items":[{"productId":"` +
		uuid.NewString() + `","quantity":2,"unitPrice":"10.50","discountAmount":0}]}`

	t.Run("Created", func(t *testing.T) {
		rec := do(handler, http.MethodPost, "/api/sales", body, map[string]string{idempotencyKeyHeader: "key-1"})
		assert.Equal(t, http.StatusCreated, rec.Code)
		assert.Equal(t, "key-1", service.idempotencyKey)
		require.Len(t, service.created.Items, 1)
		assert.Equal(t, "10.5", service.created.Items[0].UnitPrice.String())
		assert.Equal(t, storeID, service.created.StoreID)

		var view appservice.SaleView
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &view))
		assert.Equal(t, storeID, view.StoreID)
	})

	t.Run("Replay", func(t *testing.T) {
		service.duplicate = true
		defer func() { service.duplicate = false }()

		rec := do(handler, http.MethodPost, "/api/sales", body, nil)
		assert.Equal(t, http.StatusOK, rec.Code)
	})

	t.Run("Malformed body", func(t *testing.T) {
		rec := do(handler, http.MethodPost, "/api/sales", `{"storeId":`, nil)
		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})

	t.Run("Service errors are mapped", func(t *testing.T) {
		cases := map[error]int{
			model.ErrSaleMustHaveItems:                       http.StatusBadRequest,
			errors.Wrap(model.ErrProductNotFound, "product"): http.StatusNotFound,
			model.ErrPaymentMethodInactive:                   http.StatusBadRequest,
			model.ErrDuplicateIdempotent:                     http.StatusConflict,
			errors.New("connection refused"):                 http.StatusInternalServerError,
		}
		for err, status := range cases {
			service.err = err
			rec := do(handler, http.MethodPost, "/api/sales", body, nil)
			assert.Equal(t, status, rec.Code, err.Error())
			if status == http.StatusInternalServerError {
				assert.Equal(t, "internal server error", decodeError(t, rec))
			} else {
				assert.Equal(t, err.Error(), decodeError(t, rec))
			}
		}
		service.err = nil
	})
}

func TestSyncHandlers(t *testing.T) {
	handler, service := setup()

	rec := do(handler, http.MethodPost, "/api/sales/sync", `{"sales":[{"storeId":"`+uuid.NewString()+`"}]}`, nil)
	assert.Equal(t, http.StatusMultiStatus, rec.Code)
	require.Len(t, service.synced.Sales, 1)

	rec = do(handler, http.MethodGet, "/api/sales/sync/status?clientSaleId=POS-9", "", nil)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "POS-9", service.clientSaleID)
}

func TestListSalesHandler(t *testing.T) {
	handler, service := setup()
	storeID := uuid.New()

	rec := do(handler, http.MethodGet,
		"/api/sales?storeId="+storeID.String()+"&dateFrom=2024-01-01&dateTo=2024-01-31T23:59:59Z&status=open&page=2&pageSize=5",
		"", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	query := service.query
	require.NotNil(t, query.StoreID)
	assert.Equal(t, storeID, *query.StoreID)
	require.NotNil(t, query.DateFrom)
	assert.Equal(t, time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC), *query.DateFrom)
	require.NotNil(t, query.DateTo)
	assert.Equal(t, time.Date(2024, 1, 31, 23, 59, 59, 0, time.UTC), *query.DateTo)
	require.NotNil(t, query.Status)
	assert.Equal(t, "open", *query.Status)
	assert.Equal(t, 2, query.Page)
	assert.Equal(t, 5, query.PageSize)
	assert.Nil(t, query.PosID)

	for _, target := range []string{
		"/api/sales?storeId=nope",
		"/api/sales?dateFrom=yesterday",
		"/api/sales?page=two",
	} {
		rec := do(handler, http.MethodGet, target, "", nil)
		assert.Equal(t, http.StatusBadRequest, rec.Code, target)
	}
}

func TestSaleHandlers(t *testing.T) {
	handler, service := setup()
	saleID := uuid.New()
	target := "/api/sales/" + saleID.String()

	t.Run("Get", func(t *testing.T) {
		rec := do(handler, http.MethodGet, target, "", nil)
		assert.Equal(t, http.StatusOK, rec.Code)
		assert.Equal(t, saleID, service.saleID)

		rec = do(handler, http.MethodGet, "/api/sales/not-a-uuid", "", nil)
		assert.Equal(t, http.StatusBadRequest, rec.Code)

		service.err = model.ErrSaleNotFound
		rec = do(handler, http.MethodGet, target, "", nil)
		assert.Equal(t, http.StatusNotFound, rec.Code)
		service.err = nil
	})

	t.Run("Payments are open to every role", func(t *testing.T) {
		rec := do(handler, http.MethodPost, target+"/payments", `{"paymentMethodId":"`+uuid.NewString()+`","amount":"5"}`, nil)
		assert.Equal(t, http.StatusOK, rec.Code)
		assert.Equal(t, "5", service.payment.Amount.String())
	})

	t.Run("Update requires a privileged role", func(t *testing.T) {
		body := `{"status":"completed"}`
		rec := do(handler, http.MethodPatch, target, body, nil)
		assert.Equal(t, http.StatusForbidden, rec.Code)

		rec = do(handler, http.MethodPatch, target, body, map[string]string{roleHeader: "cashier"})
		assert.Equal(t, http.StatusForbidden, rec.Code)

		rec = do(handler, http.MethodPatch, target, body, map[string]string{roleHeader: "manager"})
		assert.Equal(t, http.StatusOK, rec.Code)
		require.NotNil(t, service.update.Status)
		assert.Equal(t, "completed", *service.update.Status)
	})

	t.Run("Cancel requires a privileged role", func(t *testing.T) {
		body := `{"reason":"customer gave up","source":"pos"}`
		rec := do(handler, http.MethodPost, target+"/cancel", body, nil)
		assert.Equal(t, http.StatusForbidden, rec.Code)

		rec = do(handler, http.MethodPost, target+"/cancel", body, map[string]string{roleHeader: "admin"})
		assert.Equal(t, http.StatusOK, rec.Code)
		assert.Equal(t, "customer gave up", service.cancel.Reason)
		assert.Equal(t, "pos", service.cancel.Source)

		service.err = model.ErrOptimisticLock
		rec = do(handler, http.MethodPost, target+"/cancel", body, map[string]string{roleHeader: "admin"})
		assert.Equal(t, http.StatusConflict, rec.Code)
		service.err = nil
	})
}

type stubSaleService struct {
	err            error
	duplicate      bool
	tenant         tenant.Tenant
	idempotencyKey string
	created        appservice.CreateSaleRequest
	synced         appservice.SyncSalesRequest
	clientSaleID   string
	query          appservice.ListSalesQuery
	saleID         uuid.UUID
	update         appservice.UpdateSaleRequest
	payment        appservice.SalePaymentRequest
	cancel         appservice.CancelSaleRequest
}

func (s *stubSaleService) CreateSale(_ context.Context, t tenant.Tenant, req appservice.CreateSaleRequest, idempotencyKey string) (appservice.CreateSaleResult, error) {
	s.tenant, s.created, s.idempotencyKey = t, req, idempotencyKey
	if s.err != nil {
		return appservice.CreateSaleResult{}, s.err
	}
	return appservice.CreateSaleResult{
		Sale:      appservice.SaleView{ID: uuid.New(), StoreID: req.StoreID, Status: string(model.SaleOpen)},
		Duplicate: s.duplicate,
	}, nil
}

func (s *stubSaleService) SyncSales(_ context.Context, t tenant.Tenant, req appservice.SyncSalesRequest) (appservice.SyncSalesResponse, error) {
	s.tenant, s.synced = t, req
	return appservice.SyncSalesResponse{Summary: appservice.SyncSummary{Total: len(req.Sales)}}, s.err
}

func (s *stubSaleService) GetSyncStatus(_ context.Context, t tenant.Tenant, clientSaleID string) (appservice.SyncStatusView, error) {
	s.tenant, s.clientSaleID = t, clientSaleID
	return appservice.SyncStatusView{ClientSaleID: clientSaleID}, s.err
}

func (s *stubSaleService) GetSale(_ context.Context, t tenant.Tenant, saleID uuid.UUID) (appservice.SaleView, error) {
	s.tenant, s.saleID = t, saleID
	return appservice.SaleView{ID: saleID}, s.err
}

func (s *stubSaleService) ListSales(_ context.Context, t tenant.Tenant, query appservice.ListSalesQuery) (appservice.SaleListView, error) {
	s.tenant, s.query = t, query
	return appservice.SaleListView{}, s.err
}

func (s *stubSaleService) UpdateSale(_ context.Context, t tenant.Tenant, saleID uuid.UUID, req appservice.UpdateSaleRequest) (appservice.SaleView, error) {
	s.tenant, s.saleID, s.update = t, saleID, req
	return appservice.SaleView{ID: saleID}, s.err
}

func (s *stubSaleService) AddPayment(_ context.Context, t tenant.Tenant, saleID uuid.UUID, req appservice.SalePaymentRequest) (appservice.SaleView, error) {
	s.tenant, s.saleID, s.payment = t, saleID, req
	return appservice.SaleView{ID: saleID}, s.err
}

func (s *stubSaleService) CancelSale(_ context.Context, t tenant.Tenant, saleID uuid.UUID, req appservice.CancelSaleRequest) (appservice.SaleView, error) {
	s.tenant, s.saleID, s.cancel = t, saleID, req
	return appservice.SaleView{ID: saleID}, s.err
}
