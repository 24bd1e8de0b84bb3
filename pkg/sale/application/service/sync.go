package service

import (
	"context"
	"net/http"
	"strings"

	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"

	"saleservice/pkg/common/tenant"
	"saleservice/pkg/sale/domain/model"
)

// SyncSales creates every sale of the batch independently. A failing sale is reported in its
// result and does not affect the others. Once a sale has been started it is finished even if
// ctx is canceled; sales not started yet are reported as failed.
func (s *saleService) SyncSales(ctx context.Context, t tenant.Tenant, req SyncSalesRequest) (SyncSalesResponse, error) {
	if len(req.Sales) == 0 {
		return SyncSalesResponse{}, model.ErrSyncBatchEmpty
	}
	if s.config.MaxSyncBatchSize > 0 && len(req.Sales) > s.config.MaxSyncBatchSize {
		return SyncSalesResponse{}, model.ErrSyncBatchTooLarge
	}

	response := SyncSalesResponse{
		Results: make([]SyncResult, 0, len(req.Sales)),
		Summary: SyncSummary{Total: len(req.Sales)},
	}
	for _, saleReq := range req.Sales {
		result := SyncResult{ClientSaleID: saleReq.ClientSaleID}

		if err := ctx.Err(); err != nil {
			result.Status = SyncFailed
			result.Message = err.Error()
			result.HTTPStatusCode = HTTPStatus(err)
			response.Results = append(response.Results, result)
			response.Summary.Errors++
			continue
		}

		created, err := s.CreateSale(context.WithoutCancel(ctx), t, saleReq, "")
		switch {
		case err != nil:
			s.logger.WithError(err).WithFields(log.Fields{
				"tenant":       t.String(),
				"clientSaleId": stringValue(saleReq.ClientSaleID),
			}).Error("Failed to sync sale")
			result.Status = SyncFailed
			result.Message = err.Error()
			result.HTTPStatusCode = HTTPStatus(err)
			response.Summary.Errors++
		case created.Duplicate:
			result.SaleID = &created.Sale.ID
			result.Status = SyncIgnored
			result.Message = "Sale already synced"
			result.HTTPStatusCode = http.StatusOK
			response.Summary.Ignored++
		default:
			result.SaleID = &created.Sale.ID
			result.Status = SyncCreated
			result.Message = "Sale synced successfully"
			result.HTTPStatusCode = http.StatusCreated
			response.Summary.Created++
		}
		response.Results = append(response.Results, result)
	}
	return response, nil
}

func (s *saleService) GetSyncStatus(ctx context.Context, t tenant.Tenant, clientSaleID string) (SyncStatusView, error) {
	clientSaleID = strings.TrimSpace(clientSaleID)
	if clientSaleID == "" {
		return SyncStatusView{}, model.ErrClientSaleIDRequired
	}

	view := SyncStatusView{ClientSaleID: clientSaleID}
	sale, err := s.sales.FindByClientSaleID(ctx, t, clientSaleID)
	if errors.Is(err, model.ErrSaleNotFound) {
		return view, nil
	}
	if err != nil {
		return SyncStatusView{}, err
	}

	id, status, createdAt := sale.ID(), string(sale.Status()), sale.CreatedAt()
	view.Exists = true
	view.SaleID = &id
	view.Status = &status
	view.CreatedAt = &createdAt
	return view, nil
}

// HTTPStatus maps an error returned by SaleService to the HTTP status reported to clients.
func HTTPStatus(err error) int {
	switch {
	case err == nil:
		return http.StatusOK
	case model.IsValidation(err), model.IsBusinessRule(err):
		return http.StatusBadRequest
	case model.IsNotFound(err):
		return http.StatusNotFound
	case model.IsConflict(err):
		return http.StatusConflict
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

func stringValue(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
