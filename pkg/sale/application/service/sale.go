package service

import (
	"context"
	"math"
	"strings"
	"unicode/utf8"

	"github.com/google/uuid"
	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"

	"saleservice/pkg/common/domain"
	"saleservice/pkg/common/tenant"
	"saleservice/pkg/sale/domain/model"
	domainservice "saleservice/pkg/sale/domain/service"
)

const (
	defaultPageSize = 20
	maxPageSize     = 100
)

type SaleService interface {
	// CreateSale is idempotent on the client sale id and on the idempotency key: a repeated
	// request returns the stored sale with Duplicate set.
	CreateSale(ctx context.Context, t tenant.Tenant, req CreateSaleRequest, idempotencyKey string) (CreateSaleResult, error)
	SyncSales(ctx context.Context, t tenant.Tenant, req SyncSalesRequest) (SyncSalesResponse, error)
	GetSyncStatus(ctx context.Context, t tenant.Tenant, clientSaleID string) (SyncStatusView, error)
	GetSale(ctx context.Context, t tenant.Tenant, saleID uuid.UUID) (SaleView, error)
	ListSales(ctx context.Context, t tenant.Tenant, query ListSalesQuery) (SaleListView, error)
	UpdateSale(ctx context.Context, t tenant.Tenant, saleID uuid.UUID, req UpdateSaleRequest) (SaleView, error)
	AddPayment(ctx context.Context, t tenant.Tenant, saleID uuid.UUID, req SalePaymentRequest) (SaleView, error)
	CancelSale(ctx context.Context, t tenant.Tenant, saleID uuid.UUID, req CancelSaleRequest) (SaleView, error)
}

type Config struct {
	// DefaultJurisdiction is used for every tax lookup until jurisdictions are configured per store.
	DefaultJurisdiction string
	MaxSyncBatchSize    int
}

func NewSaleService(
	sales model.SaleRepository,
	references model.ReferenceRepository,
	taxes domainservice.TaxService,
	dispatcher domain.EventDispatcher,
	logger log.FieldLogger,
	config Config,
) SaleService {
	return &saleService{
		sales:      sales,
		references: references,
		taxes:      taxes,
		dispatcher: dispatcher,
		logger:     logger,
		config:     config,
	}
}

type saleService struct {
	sales      model.SaleRepository
	references model.ReferenceRepository
	taxes      domainservice.TaxService
	dispatcher domain.EventDispatcher
	logger     log.FieldLogger
	config     Config
}

func (s *saleService) CreateSale(ctx context.Context, t tenant.Tenant, req CreateSaleRequest, idempotencyKey string) (CreateSaleResult, error) {
	idempotencyKey = strings.TrimSpace(idempotencyKey)
	req.ClientSaleID = model.NormalizeOptional(req.ClientSaleID)
	if utf8.RuneCountInString(idempotencyKey) > model.MaxIdempotencyKeyLength {
		return CreateSaleResult{}, model.ErrIdempotencyKeyTooLong
	}
	if req.ClientSaleID != nil && utf8.RuneCountInString(*req.ClientSaleID) > model.MaxClientSaleIDLength {
		return CreateSaleResult{}, model.ErrClientSaleIDTooLong
	}
	if len(req.Items) == 0 {
		return CreateSaleResult{}, model.ErrSaleMustHaveItems
	}

	existing, err := s.findExisting(ctx, t, req.ClientSaleID, idempotencyKey)
	if err != nil {
		return CreateSaleResult{}, err
	}
	if existing != nil {
		return CreateSaleResult{Sale: toSaleView(existing), Duplicate: true}, nil
	}

	sale, err := s.buildSale(ctx, t, req, idempotencyKey)
	if err != nil {
		return CreateSaleResult{}, err
	}

	err = s.sales.Save(ctx, t, sale)
	if errors.Is(err, model.ErrDuplicateClientSale) || errors.Is(err, model.ErrDuplicateIdempotent) {
		// Lost a race with a concurrent request for the same sale.
		existing, findErr := s.findExisting(ctx, t, sale.ClientSaleID(), idempotencyKey)
		if findErr != nil {
			return CreateSaleResult{}, findErr
		}
		if existing != nil {
			return CreateSaleResult{Sale: toSaleView(existing), Duplicate: true}, nil
		}
	}
	if err != nil {
		return CreateSaleResult{}, err
	}

	s.dispatchEvents(sale.Events())
	s.logger.WithFields(log.Fields{
		"tenant": t.String(),
		"saleId": sale.ID(),
		"total":  sale.Total().String(),
	}).Info("Sale created")

	return CreateSaleResult{Sale: toSaleView(sale)}, nil
}

func (s *saleService) findExisting(ctx context.Context, t tenant.Tenant, clientSaleID *string, idempotencyKey string) (*model.Sale, error) {
	if clientSaleID != nil && *clientSaleID != "" {
		sale, err := s.sales.FindByClientSaleID(ctx, t, *clientSaleID)
		if err == nil {
			s.logger.WithFields(log.Fields{"tenant": t.String(), "clientSaleId": *clientSaleID}).Info("Sale already exists for client sale id")
			return sale, nil
		}
		if !errors.Is(err, model.ErrSaleNotFound) {
			return nil, err
		}
	}
	if idempotencyKey != "" {
		sale, err := s.sales.FindByIdempotencyKey(ctx, t, idempotencyKey)
		if err == nil {
			s.logger.WithFields(log.Fields{"tenant": t.String(), "idempotencyKey": idempotencyKey}).Info("Sale already exists for idempotency key")
			return sale, nil
		}
		if !errors.Is(err, model.ErrSaleNotFound) {
			return nil, err
		}
	}
	return nil, nil
}

func (s *saleService) buildSale(ctx context.Context, t tenant.Tenant, req CreateSaleRequest, idempotencyKey string) (*model.Sale, error) {
	var key *string
	if idempotencyKey != "" {
		key = &idempotencyKey
	}
	sale, err := model.NewSale(model.SaleParams{
		StoreID:        req.StoreID,
		PosID:          req.PosID,
		OperatorID:     req.OperatorID,
		ClientSaleID:   req.ClientSaleID,
		IdempotencyKey: key,
		SaleDateTime:   req.SaleDateTime,
	})
	if err != nil {
		return nil, err
	}

	for _, itemReq := range req.Items {
		item, err := s.buildItem(ctx, t, itemReq, sale)
		if err != nil {
			return nil, err
		}
		if err := sale.AddItem(item); err != nil {
			return nil, err
		}
	}

	for _, paymentReq := range req.Payments {
		payment, err := s.buildPayment(ctx, t, paymentReq)
		if err != nil {
			return nil, err
		}
		if err := sale.AddPayment(payment); err != nil {
			return nil, err
		}
	}
	return sale, nil
}

func (s *saleService) buildItem(ctx context.Context, t tenant.Tenant, req SaleItemRequest, sale *model.Sale) (*model.SaleItem, error) {
	if req.ProductID == uuid.Nil {
		return nil, model.ErrProductIDRequired
	}
	product, err := s.references.FindProduct(ctx, t, req.ProductID)
	if err != nil {
		return nil, errors.Wrapf(err, "product %s", req.ProductID)
	}
	if err := product.CheckSellable(); err != nil {
		return nil, errors.Wrapf(err, "product %s", product.ID)
	}

	item, err := model.NewSaleItem(product, req.Quantity, req.UnitPrice, req.DiscountAmount)
	if err != nil {
		return nil, err
	}

	taxes, err := s.taxes.CalculateTaxes(ctx, t, product.ID, item.TaxBase(), s.config.DefaultJurisdiction, sale.SaleDateTime())
	if err != nil {
		return nil, err
	}
	for _, tax := range taxes {
		if err := item.AddTax(tax); err != nil {
			return nil, err
		}
	}
	return item, nil
}

func (s *saleService) buildPayment(ctx context.Context, t tenant.Tenant, req SalePaymentRequest) (*model.SalePayment, error) {
	if req.PaymentMethodID == uuid.Nil {
		return nil, model.ErrPaymentMethodRequired
	}
	method, err := s.references.FindPaymentMethod(ctx, t, req.PaymentMethodID)
	if err != nil {
		return nil, errors.Wrapf(err, "payment method %s", req.PaymentMethodID)
	}
	if err := method.CheckAcceptable(); err != nil {
		return nil, err
	}

	return model.NewSalePayment(model.PaymentParams{
		PaymentMethodID:   method.ID,
		Amount:            req.Amount,
		AcquirerTxnID:     req.AcquirerTxnID,
		AuthorizationCode: req.AuthorizationCode,
		ChangeAmount:      req.ChangeAmount,
	})
}

func (s *saleService) GetSale(ctx context.Context, t tenant.Tenant, saleID uuid.UUID) (SaleView, error) {
	sale, err := s.sales.FindByID(ctx, t, saleID)
	if err != nil {
		return SaleView{}, err
	}
	return toSaleView(sale), nil
}

func (s *saleService) ListSales(ctx context.Context, t tenant.Tenant, query ListSalesQuery) (SaleListView, error) {
	filter, err := buildFilter(query)
	if err != nil {
		return SaleListView{}, err
	}

	sales, total, err := s.sales.List(ctx, t, filter)
	if err != nil {
		return SaleListView{}, err
	}

	view := SaleListView{
		Data: make([]SaleView, 0, len(sales)),
		Pagination: Pagination{
			Page:       filter.Page,
			PageSize:   filter.PageSize,
			TotalCount: total,
			TotalPages: int(math.Ceil(float64(total) / float64(filter.PageSize))),
		},
	}
	for _, sale := range sales {
		view.Data = append(view.Data, toSaleView(sale))
	}
	return view, nil
}

func buildFilter(query ListSalesQuery) (model.SaleFilter, error) {
	filter := model.SaleFilter{
		StoreID:      query.StoreID,
		PosID:        query.PosID,
		OperatorID:   query.OperatorID,
		DateFrom:     query.DateFrom,
		DateTo:       query.DateTo,
		ClientSaleID: query.ClientSaleID,
		Page:         query.Page,
		PageSize:     query.PageSize,
	}
	if filter.Page == 0 {
		filter.Page = 1
	}
	if filter.PageSize == 0 {
		filter.PageSize = defaultPageSize
	}
	if filter.Page < 1 || filter.PageSize < 1 {
		return model.SaleFilter{}, model.ErrInvalidPagination
	}
	if filter.PageSize > maxPageSize {
		filter.PageSize = maxPageSize
	}
	if filter.DateFrom != nil && filter.DateTo != nil && filter.DateFrom.After(*filter.DateTo) {
		return model.SaleFilter{}, model.ErrInvalidDateRange
	}
	if query.Status != nil && *query.Status != "" {
		status, err := model.ParseSaleStatus(*query.Status)
		if err != nil {
			return model.SaleFilter{}, err
		}
		filter.Status = &status
	}
	return filter, nil
}

func (s *saleService) UpdateSale(ctx context.Context, t tenant.Tenant, saleID uuid.UUID, req UpdateSaleRequest) (SaleView, error) {
	if req.PaymentStatus != nil {
		return SaleView{}, model.ErrPaymentStatusIsDerived
	}
	if req.Status == nil || *req.Status == "" {
		return SaleView{}, model.ErrStatusRequired
	}
	status, err := model.ParseSaleStatus(*req.Status)
	if err != nil {
		return SaleView{}, err
	}

	return s.executeOnSale(ctx, t, saleID, func(sale *model.Sale) error {
		return sale.UpdateStatus(status)
	})
}

func (s *saleService) AddPayment(ctx context.Context, t tenant.Tenant, saleID uuid.UUID, req SalePaymentRequest) (SaleView, error) {
	return s.executeOnSale(ctx, t, saleID, func(sale *model.Sale) error {
		payment, err := s.buildPayment(ctx, t, req)
		if err != nil {
			return err
		}
		return sale.AddPayment(payment)
	})
}

func (s *saleService) CancelSale(ctx context.Context, t tenant.Tenant, saleID uuid.UUID, req CancelSaleRequest) (SaleView, error) {
	if req.Source == "" {
		req.Source = string(model.CancelSourceAPI)
	}
	if req.CancellationType == "" {
		req.CancellationType = string(model.CancelTotal)
	}
	source, err := model.ParseCancellationSource(req.Source)
	if err != nil {
		return SaleView{}, err
	}
	cancellationType, err := model.ParseCancellationType(req.CancellationType)
	if err != nil {
		return SaleView{}, err
	}

	return s.executeOnSale(ctx, t, saleID, func(sale *model.Sale) error {
		return sale.Cancel(model.CancellationParams{
			Reason:       req.Reason,
			Source:       source,
			Type:         cancellationType,
			RefundAmount: req.RefundAmount,
			OperatorID:   req.OperatorID,
		})
	})
}

func (s *saleService) executeOnSale(ctx context.Context, t tenant.Tenant, saleID uuid.UUID, action func(sale *model.Sale) error) (SaleView, error) {
	sale, err := s.sales.FindByID(ctx, t, saleID)
	if err != nil {
		return SaleView{}, err
	}

	if err := action(sale); err != nil {
		return SaleView{}, err
	}

	if err := s.sales.Update(ctx, t, sale); err != nil {
		return SaleView{}, err
	}

	s.dispatchEvents(sale.Events())
	return toSaleView(sale), nil
}

func (s *saleService) dispatchEvents(events []domain.Event) {
	for _, event := range events {
		if err := s.dispatcher.Dispatch(event); err != nil {
			s.logger.WithError(err).WithField("event", event.Type()).Error("Failed to dispatch event")
		}
	}
}
