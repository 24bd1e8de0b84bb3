package postgres

import (
	"context"
	"database/sql"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/pkg/errors"

	"saleservice/pkg/common/tenant"
	"saleservice/pkg/sale/domain/model"
)

const (
	clientSaleIDConstraint   = "sales_client_sale_id_key"
	idempotencyKeyConstraint = "sales_idempotency_key_key"
)

const saleColumns = `id, order_number, client_sale_id, idempotency_key, store_id, pos_id, operator_id,
	sale_datetime, status, subtotal, discount_total, tax_total, total, payment_status, version,
	created_at, updated_at`

const insertSaleQuery = `INSERT INTO sales (
	id, client_sale_id, idempotency_key, store_id, pos_id, operator_id, sale_datetime, status,
	subtotal, discount_total, tax_total, total, payment_status, version, created_at, updated_at
) VALUES (
	:id, :client_sale_id, :idempotency_key, :store_id, :pos_id, :operator_id, :sale_datetime, :status,
	:subtotal, :discount_total, :tax_total, :total, :payment_status, :version, :created_at, :updated_at
) RETURNING order_number`

const insertItemsQuery = `INSERT INTO sale_items (
	id, sale_id, line_number, product_id, sku, description, unit_of_measure,
	quantity, unit_price, discount_amount, tax_amount, total, created_at
) VALUES (
	:id, :sale_id, :line_number, :product_id, :sku, :description, :unit_of_measure,
	:quantity, :unit_price, :discount_amount, :tax_amount, :total, :created_at
)`

const insertTaxesQuery = `INSERT INTO sale_taxes (
	id, sale_item_id, tax_type_id, tax_rule_id, base_amount, rate, amount, created_at
) VALUES (
	:id, :sale_item_id, :tax_type_id, :tax_rule_id, :base_amount, :rate, :amount, :created_at
)`

const insertPaymentQuery = `INSERT INTO sale_payments (
	id, sale_id, payment_method_id, amount, acquirer_txn_id, authorization_code, change_amount,
	status, processed_at, created_at
) VALUES (
	:id, :sale_id, :payment_method_id, :amount, :acquirer_txn_id, :authorization_code, :change_amount,
	:status, :processed_at, :created_at
)`

const insertCancellationQuery = `INSERT INTO sale_cancellations (
	id, sale_id, operator_id, reason, source, cancellation_type, refund_amount, canceled_at
) VALUES (
	:id, :sale_id, :operator_id, :reason, :source, :cancellation_type, :refund_amount, :canceled_at
) ON CONFLICT (sale_id) DO NOTHING`

const updateSaleQuery = `UPDATE sales SET
	status = $1, payment_status = $2, subtotal = $3, discount_total = $4, tax_total = $5, total = $6,
	updated_at = $7, version = version + 1
WHERE id = $8 AND version = $9`

func NewSaleRepository(db *sqlx.DB) model.SaleRepository {
	return &saleRepository{db: db}
}

type saleRepository struct {
	db *sqlx.DB
}

func (r *saleRepository) Save(ctx context.Context, t tenant.Tenant, sale *model.Sale) error {
	var orderNumber int64
	err := inTenantTx(ctx, r.db, t, false, func(tx *sqlx.Tx) error {
		stmt, err := tx.PrepareNamedContext(ctx, insertSaleQuery)
		if err != nil {
			return errors.Wrap(err, "prepare sale insert")
		}
		defer stmt.Close()

		if err := stmt.GetContext(ctx, &orderNumber, newSaleRow(sale)); err != nil {
			return mapInsertError(err)
		}

		items, taxes := newSaleItemRows(sale)
		if len(items) > 0 {
			if _, err := tx.NamedExecContext(ctx, insertItemsQuery, items); err != nil {
				return errors.Wrap(err, "insert sale items")
			}
		}
		if len(taxes) > 0 {
			if _, err := tx.NamedExecContext(ctx, insertTaxesQuery, taxes); err != nil {
				return errors.Wrap(err, "insert sale taxes")
			}
		}
		for _, payment := range sale.Payments() {
			if _, err := tx.NamedExecContext(ctx, insertPaymentQuery, newSalePaymentRow(payment)); err != nil {
				return errors.Wrap(err, "insert sale payment")
			}
		}
		if c := sale.Cancellation(); c != nil {
			if _, err := tx.NamedExecContext(ctx, insertCancellationQuery, newSaleCancellationRow(c)); err != nil {
				return errors.Wrap(err, "insert sale cancellation")
			}
		}
		return nil
	})
	if err != nil {
		return err
	}

	sale.MarkStored(orderNumber, sale.Version())
	return nil
}

func mapInsertError(err error) error {
	constraint, ok := uniqueConstraint(err)
	switch {
	case ok && constraint == clientSaleIDConstraint:
		return errors.WithStack(model.ErrDuplicateClientSale)
	case ok && constraint == idempotencyKeyConstraint:
		return errors.WithStack(model.ErrDuplicateIdempotent)
	default:
		return errors.Wrap(err, "insert sale")
	}
}

func (r *saleRepository) Update(ctx context.Context, t tenant.Tenant, sale *model.Sale) error {
	err := inTenantTx(ctx, r.db, t, false, func(tx *sqlx.Tx) error {
		result, err := tx.ExecContext(ctx, updateSaleQuery,
			string(sale.Status()),
			string(sale.PaymentStatus()),
			sale.Subtotal(),
			sale.DiscountTotal(),
			sale.TaxTotal(),
			sale.Total(),
			sale.UpdatedAt(),
			sale.ID(),
			sale.Version(),
		)
		if err != nil {
			return errors.Wrap(err, "update sale")
		}
		affected, err := result.RowsAffected()
		if err != nil {
			return errors.Wrap(err, "update sale")
		}
		if affected == 0 {
			return model.ErrOptimisticLock
		}

		var stored []uuid.UUID
		if err := tx.SelectContext(ctx, &stored, `SELECT id FROM sale_payments WHERE sale_id = $1`, sale.ID()); err != nil {
			return errors.Wrap(err, "select stored payments")
		}
		storedPayments := make(map[uuid.UUID]struct{}, len(stored))
		for _, id := range stored {
			storedPayments[id] = struct{}{}
		}
		for _, payment := range sale.Payments() {
			if _, ok := storedPayments[payment.ID()]; ok {
				continue
			}
			if _, err := tx.NamedExecContext(ctx, insertPaymentQuery, newSalePaymentRow(payment)); err != nil {
				return errors.Wrap(err, "insert sale payment")
			}
		}

		if c := sale.Cancellation(); c != nil {
			if _, err := tx.NamedExecContext(ctx, insertCancellationQuery, newSaleCancellationRow(c)); err != nil {
				return errors.Wrap(err, "insert sale cancellation")
			}
		}
		return nil
	})
	if err != nil {
		return err
	}

	sale.MarkStored(sale.OrderNumber(), sale.Version()+1)
	return nil
}

func (r *saleRepository) FindByID(ctx context.Context, t tenant.Tenant, id uuid.UUID) (*model.Sale, error) {
	return r.findOne(ctx, t, `id = $1`, id)
}

func (r *saleRepository) FindByClientSaleID(ctx context.Context, t tenant.Tenant, clientSaleID string) (*model.Sale, error) {
	return r.findOne(ctx, t, `client_sale_id = $1`, clientSaleID)
}

func (r *saleRepository) FindByIdempotencyKey(ctx context.Context, t tenant.Tenant, key string) (*model.Sale, error) {
	return r.findOne(ctx, t, `idempotency_key = $1`, key)
}

func (r *saleRepository) findOne(ctx context.Context, t tenant.Tenant, condition string, arg interface{}) (*model.Sale, error) {
	var sale *model.Sale
	err := inTenantTx(ctx, r.db, t, true, func(tx *sqlx.Tx) error {
		var row saleRow
		err := tx.GetContext(ctx, &row, `SELECT `+saleColumns+` FROM sales WHERE `+condition, arg)
		if errors.Is(err, sql.ErrNoRows) {
			return model.ErrSaleNotFound
		}
		if err != nil {
			return errors.Wrap(err, "select sale")
		}
		sale, err = loadAggregate(ctx, tx, row)
		return err
	})
	return sale, err
}

func (r *saleRepository) List(ctx context.Context, t tenant.Tenant, filter model.SaleFilter) ([]*model.Sale, int, error) {
	var (
		sales []*model.Sale
		total int
	)
	err := inTenantTx(ctx, r.db, t, true, func(tx *sqlx.Tx) error {
		where, args := whereClause(filter)
		if err := tx.GetContext(ctx, &total, `SELECT COUNT(*) FROM sales`+where, args...); err != nil {
			return errors.Wrap(err, "count sales")
		}

		page, pageArgs := pageClause(filter, args)
		var rows []saleRow
		if err := tx.SelectContext(ctx, &rows, `SELECT `+saleColumns+` FROM sales`+where+page, pageArgs...); err != nil {
			return errors.Wrap(err, "select sales")
		}

		sales = make([]*model.Sale, 0, len(rows))
		for _, row := range rows {
			sale, err := loadAggregate(ctx, tx, row)
			if err != nil {
				return err
			}
			sales = append(sales, sale)
		}
		return nil
	})
	if err != nil {
		return nil, 0, err
	}
	return sales, total, nil
}

func loadAggregate(ctx context.Context, tx *sqlx.Tx, row saleRow) (*model.Sale, error) {
	var itemRows []saleItemRow
	err := tx.SelectContext(ctx, &itemRows, `
		SELECT si.id, si.sale_id, si.line_number, si.product_id, si.sku, si.description,
			COALESCE(NULLIF(si.unit_of_measure, ''), u.code, '') AS unit_of_measure,
			si.quantity, si.unit_price, si.discount_amount, si.tax_amount, si.total, si.created_at
		FROM sale_items si
		LEFT JOIN products p ON p.id = si.product_id
		LEFT JOIN unit_of_measures u ON u.id = p.unit_of_measure_id
		WHERE si.sale_id = $1
		ORDER BY si.line_number`, row.ID)
	if err != nil {
		return nil, errors.Wrap(err, "select sale items")
	}

	var taxRows []saleTaxRow
	err = tx.SelectContext(ctx, &taxRows, `
		SELECT st.id, st.sale_item_id, st.tax_type_id, st.tax_rule_id, st.base_amount, st.rate, st.amount, st.created_at
		FROM sale_taxes st
		JOIN sale_items si ON si.id = st.sale_item_id
		WHERE si.sale_id = $1
		ORDER BY st.created_at, st.id`, row.ID)
	if err != nil {
		return nil, errors.Wrap(err, "select sale taxes")
	}
	taxesByItem := make(map[uuid.UUID][]*model.SaleTax)
	for _, taxRow := range taxRows {
		taxesByItem[taxRow.SaleItemID] = append(taxesByItem[taxRow.SaleItemID], taxRow.restore())
	}

	items := make([]*model.SaleItem, 0, len(itemRows))
	for _, itemRow := range itemRows {
		items = append(items, itemRow.restore(taxesByItem[itemRow.ID]))
	}

	var paymentRows []salePaymentRow
	err = tx.SelectContext(ctx, &paymentRows, `
		SELECT id, sale_id, payment_method_id, amount, acquirer_txn_id, authorization_code, change_amount,
			status, processed_at, created_at
		FROM sale_payments
		WHERE sale_id = $1
		ORDER BY created_at, id`, row.ID)
	if err != nil {
		return nil, errors.Wrap(err, "select sale payments")
	}
	payments := make([]*model.SalePayment, 0, len(paymentRows))
	for _, paymentRow := range paymentRows {
		payments = append(payments, paymentRow.restore())
	}

	var cancellation *model.SaleCancellation
	var cancellationRow saleCancellationRow
	err = tx.GetContext(ctx, &cancellationRow, `
		SELECT id, sale_id, operator_id, reason, source, cancellation_type, refund_amount, canceled_at
		FROM sale_cancellations
		WHERE sale_id = $1`, row.ID)
	switch {
	case err == nil:
		cancellation = cancellationRow.restore()
	case !errors.Is(err, sql.ErrNoRows):
		return nil, errors.Wrap(err, "select sale cancellation")
	}

	return model.RestoreSale(row.snapshot(), items, payments, cancellation), nil
}
