package transport

import (
	"encoding/json"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/mux"
	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"

	"saleservice/pkg/common/tenant"
	appservice "saleservice/pkg/sale/application/service"
)

type errorResponse struct {
	Error string `json:"error"`
}

func (h *Handler) createSale(w http.ResponseWriter, r *http.Request) {
	var req appservice.CreateSaleRequest
	if !h.decode(w, r, &req) {
		return
	}

	result, err := h.service.CreateSale(r.Context(), requestTenant(r), req, r.Header.Get(idempotencyKeyHeader))
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}

	status := http.StatusCreated
	if result.Duplicate {
		status = http.StatusOK
	}
	h.writeJSON(w, status, result.Sale)
}

func (h *Handler) syncSales(w http.ResponseWriter, r *http.Request) {
	var req appservice.SyncSalesRequest
	if !h.decode(w, r, &req) {
		return
	}

	response, err := h.service.SyncSales(r.Context(), requestTenant(r), req)
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}
	h.writeJSON(w, http.StatusMultiStatus, response)
}

func (h *Handler) syncStatus(w http.ResponseWriter, r *http.Request) {
	view, err := h.service.GetSyncStatus(r.Context(), requestTenant(r), r.URL.Query().Get("clientSaleId"))
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}
	h.writeJSON(w, http.StatusOK, view)
}

func (h *Handler) listSales(w http.ResponseWriter, r *http.Request) {
	query, err := parseListQuery(r.URL.Query())
	if err != nil {
		h.writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	view, err := h.service.ListSales(r.Context(), requestTenant(r), query)
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}
	h.writeJSON(w, http.StatusOK, view)
}

func (h *Handler) getSale(w http.ResponseWriter, r *http.Request) {
	saleID, ok := h.saleID(w, r)
	if !ok {
		return
	}

	view, err := h.service.GetSale(r.Context(), requestTenant(r), saleID)
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}
	h.writeJSON(w, http.StatusOK, view)
}

func (h *Handler) updateSale(w http.ResponseWriter, r *http.Request) {
	saleID, ok := h.saleID(w, r)
	if !ok {
		return
	}
	var req appservice.UpdateSaleRequest
	if !h.decode(w, r, &req) {
		return
	}

	view, err := h.service.UpdateSale(r.Context(), requestTenant(r), saleID, req)
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}
	h.writeJSON(w, http.StatusOK, view)
}

func (h *Handler) addPayment(w http.ResponseWriter, r *http.Request) {
	saleID, ok := h.saleID(w, r)
	if !ok {
		return
	}
	var req appservice.SalePaymentRequest
	if !h.decode(w, r, &req) {
		return
	}

	view, err := h.service.AddPayment(r.Context(), requestTenant(r), saleID, req)
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}
	h.writeJSON(w, http.StatusOK, view)
}

func (h *Handler) cancelSale(w http.ResponseWriter, r *http.Request) {
	saleID, ok := h.saleID(w, r)
	if !ok {
		return
	}
	var req appservice.CancelSaleRequest
	if !h.decode(w, r, &req) {
		return
	}

	view, err := h.service.CancelSale(r.Context(), requestTenant(r), saleID, req)
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}
	h.writeJSON(w, http.StatusOK, view)
}

func requestTenant(r *http.Request) tenant.Tenant {
	t, _ := tenant.FromContext(r.Context())
	return t
}

func (h *Handler) saleID(w http.ResponseWriter, r *http.Request) (uuid.UUID, bool) {
	id, err := uuid.Parse(mux.Vars(r)["id"])
	if err != nil {
		h.writeError(w, http.StatusBadRequest, "sale id must be a valid uuid")
		return uuid.Nil, false
	}
	return id, true
}

func (h *Handler) decode(w http.ResponseWriter, r *http.Request, dst interface{}) bool {
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		h.writeError(w, http.StatusBadRequest, "invalid request body: "+err.Error())
		return false
	}
	return true
}

func parseListQuery(values url.Values) (appservice.ListSalesQuery, error) {
	var (
		query appservice.ListSalesQuery
		err   error
	)
	if query.StoreID, err = optionalUUID(values, "storeId"); err != nil {
		return query, err
	}
	if query.PosID, err = optionalUUID(values, "posId"); err != nil {
		return query, err
	}
	if query.OperatorID, err = optionalUUID(values, "operatorId"); err != nil {
		return query, err
	}
	if query.DateFrom, err = optionalTime(values, "dateFrom"); err != nil {
		return query, err
	}
	if query.DateTo, err = optionalTime(values, "dateTo"); err != nil {
		return query, err
	}
	if query.Page, err = optionalInt(values, "page"); err != nil {
		return query, err
	}
	if query.PageSize, err = optionalInt(values, "pageSize"); err != nil {
		return query, err
	}
	if status := values.Get("status"); status != "" {
		query.Status = &status
	}
	if clientSaleID := values.Get("clientSaleId"); clientSaleID != "" {
		query.ClientSaleID = &clientSaleID
	}
	return query, nil
}

func optionalUUID(values url.Values, name string) (*uuid.UUID, error) {
	raw := values.Get(name)
	if raw == "" {
		return nil, nil
	}
	id, err := uuid.Parse(raw)
	if err != nil {
		return nil, errors.Errorf("%s must be a valid uuid", name)
	}
	return &id, nil
}

// optionalTime accepts RFC 3339 timestamps and plain dates, which are read as UTC midnight.
func optionalTime(values url.Values, name string) (*time.Time, error) {
	raw := values.Get(name)
	if raw == "" {
		return nil, nil
	}
	for _, layout := range []string{time.RFC3339, time.DateOnly} {
		if t, err := time.Parse(layout, raw); err == nil {
			t = t.UTC()
			return &t, nil
		}
	}
	return nil, errors.Errorf("%s must be an RFC 3339 timestamp or a date", name)
}

func optionalInt(values url.Values, name string) (int, error) {
	raw := values.Get(name)
	if raw == "" {
		return 0, nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		return 0, errors.Errorf("%s must be an integer", name)
	}
	return n, nil
}

func (h *Handler) writeServiceError(w http.ResponseWriter, r *http.Request, err error) {
	status := appservice.HTTPStatus(err)
	if status == http.StatusInternalServerError {
		h.logger.WithError(err).WithFields(log.Fields{
			"method": r.Method,
			"url":    r.URL,
		}).Error("request failed")
		h.writeError(w, status, "internal server error")
		return
	}
	h.writeError(w, status, err.Error())
}

func (h *Handler) writeError(w http.ResponseWriter, status int, message string) {
	h.writeJSON(w, status, errorResponse{Error: message})
}

func (h *Handler) writeJSON(w http.ResponseWriter, status int, body interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(body); err != nil {
		h.logger.WithError(err).Error("write response")
	}
}
