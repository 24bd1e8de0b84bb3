package postgres

import (
	"database/sql"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"saleservice/pkg/sale/domain/model"
)

type saleRow struct {
	ID             uuid.UUID       `db:"id"`
	OrderNumber    int64           `db:"order_number"`
	ClientSaleID   sql.NullString  `db:"client_sale_id"`
	IdempotencyKey sql.NullString  `db:"idempotency_key"`
	StoreID        uuid.UUID       `db:"store_id"`
	PosID          uuid.NullUUID   `db:"pos_id"`
	OperatorID     uuid.NullUUID   `db:"operator_id"`
	SaleDateTime   time.Time       `db:"sale_datetime"`
	Status         string          `db:"status"`
	Subtotal       decimal.Decimal `db:"subtotal"`
	DiscountTotal  decimal.Decimal `db:"discount_total"`
	TaxTotal       decimal.Decimal `db:"tax_total"`
	Total          decimal.Decimal `db:"total"`
	PaymentStatus  string          `db:"payment_status"`
	Version        int             `db:"version"`
	CreatedAt      time.Time       `db:"created_at"`
	UpdatedAt      time.Time       `db:"updated_at"`
}

type saleItemRow struct {
	ID             uuid.UUID       `db:"id"`
	SaleID         uuid.UUID       `db:"sale_id"`
	LineNumber     int             `db:"line_number"`
	ProductID      uuid.UUID       `db:"product_id"`
	Sku            string          `db:"sku"`
	Description    string          `db:"description"`
	UnitOfMeasure  string          `db:"unit_of_measure"`
	Quantity       decimal.Decimal `db:"quantity"`
	UnitPrice      decimal.Decimal `db:"unit_price"`
	DiscountAmount decimal.Decimal `db:"discount_amount"`
	TaxAmount      decimal.Decimal `db:"tax_amount"`
	Total          decimal.Decimal `db:"total"`
	CreatedAt      time.Time       `db:"created_at"`
}

type saleTaxRow struct {
	ID         uuid.UUID       `db:"id"`
	SaleItemID uuid.UUID       `db:"sale_item_id"`
	TaxTypeID  uuid.UUID       `db:"tax_type_id"`
	TaxRuleID  uuid.NullUUID   `db:"tax_rule_id"`
	BaseAmount decimal.Decimal `db:"base_amount"`
	Rate       decimal.Decimal `db:"rate"`
	Amount     decimal.Decimal `db:"amount"`
	CreatedAt  time.Time       `db:"created_at"`
}

type salePaymentRow struct {
	ID                uuid.UUID           `db:"id"`
	SaleID            uuid.UUID           `db:"sale_id"`
	PaymentMethodID   uuid.UUID           `db:"payment_method_id"`
	Amount            decimal.Decimal     `db:"amount"`
	AcquirerTxnID     sql.NullString      `db:"acquirer_txn_id"`
	AuthorizationCode sql.NullString      `db:"authorization_code"`
	ChangeAmount      decimal.NullDecimal `db:"change_amount"`
	Status            string              `db:"status"`
	ProcessedAt       sql.NullTime        `db:"processed_at"`
	CreatedAt         time.Time           `db:"created_at"`
}

type saleCancellationRow struct {
	ID               uuid.UUID           `db:"id"`
	SaleID           uuid.UUID           `db:"sale_id"`
	OperatorID       uuid.NullUUID       `db:"operator_id"`
	Reason           string              `db:"reason"`
	Source           string              `db:"source"`
	CancellationType string              `db:"cancellation_type"`
	RefundAmount     decimal.NullDecimal `db:"refund_amount"`
	CanceledAt       time.Time           `db:"canceled_at"`
}

func newSaleRow(sale *model.Sale) saleRow {
	return saleRow{
		ID:             sale.ID(),
		ClientSaleID:   nullString(sale.ClientSaleID()),
		IdempotencyKey: nullString(sale.IdempotencyKey()),
		StoreID:        sale.StoreID(),
		PosID:          nullUUID(sale.PosID()),
		OperatorID:     nullUUID(sale.OperatorID()),
		SaleDateTime:   sale.SaleDateTime(),
		Status:         string(sale.Status()),
		Subtotal:       sale.Subtotal(),
		DiscountTotal:  sale.DiscountTotal(),
		TaxTotal:       sale.TaxTotal(),
		Total:          sale.Total(),
		PaymentStatus:  string(sale.PaymentStatus()),
		Version:        sale.Version(),
		CreatedAt:      sale.CreatedAt(),
		UpdatedAt:      sale.UpdatedAt(),
	}
}

func newSaleItemRows(sale *model.Sale) ([]saleItemRow, []saleTaxRow) {
	var (
		items []saleItemRow
		taxes []saleTaxRow
	)
	for i, item := range sale.Items() {
		items = append(items, saleItemRow{
			ID:             item.ID(),
			SaleID:         sale.ID(),
			LineNumber:     i + 1,
			ProductID:      item.ProductID(),
			Sku:            item.Sku(),
			Description:    item.Description(),
			UnitOfMeasure:  item.UnitOfMeasure(),
			Quantity:       item.Quantity(),
			UnitPrice:      item.UnitPrice(),
			DiscountAmount: item.DiscountAmount(),
			TaxAmount:      item.TaxAmount(),
			Total:          item.Total(),
			CreatedAt:      item.CreatedAt(),
		})
		for _, tax := range item.Taxes() {
			taxes = append(taxes, saleTaxRow{
				ID:         tax.ID(),
				SaleItemID: item.ID(),
				TaxTypeID:  tax.TaxTypeID(),
				TaxRuleID:  nullUUID(tax.TaxRuleID()),
				BaseAmount: tax.BaseAmount(),
				Rate:       tax.Rate(),
				Amount:     tax.Amount(),
				CreatedAt:  tax.CreatedAt(),
			})
		}
	}
	return items, taxes
}

func newSalePaymentRow(payment *model.SalePayment) salePaymentRow {
	row := salePaymentRow{
		ID:                payment.ID(),
		SaleID:            payment.SaleID(),
		PaymentMethodID:   payment.PaymentMethodID(),
		Amount:            payment.Amount(),
		AcquirerTxnID:     nullString(payment.AcquirerTxnID()),
		AuthorizationCode: nullString(payment.AuthorizationCode()),
		ChangeAmount:      nullDecimal(payment.ChangeAmount()),
		Status:            string(payment.Status()),
		CreatedAt:         payment.CreatedAt(),
	}
	if processedAt := payment.ProcessedAt(); processedAt != nil {
		row.ProcessedAt = sql.NullTime{Time: *processedAt, Valid: true}
	}
	return row
}

func newSaleCancellationRow(c *model.SaleCancellation) saleCancellationRow {
	return saleCancellationRow{
		ID:               c.ID(),
		SaleID:           c.SaleID(),
		OperatorID:       nullUUID(c.OperatorID()),
		Reason:           c.Reason(),
		Source:           string(c.Source()),
		CancellationType: string(c.CancellationType()),
		RefundAmount:     nullDecimal(c.RefundAmount()),
		CanceledAt:       c.CanceledAt(),
	}
}

func (r saleRow) snapshot() model.SaleSnapshot {
	return model.SaleSnapshot{
		ID:             r.ID,
		ClientSaleID:   stringPtr(r.ClientSaleID),
		IdempotencyKey: stringPtr(r.IdempotencyKey),
		OrderNumber:    r.OrderNumber,
		StoreID:        r.StoreID,
		PosID:          uuidPtr(r.PosID),
		OperatorID:     uuidPtr(r.OperatorID),
		SaleDateTime:   r.SaleDateTime.UTC(),
		Status:         model.SaleStatus(r.Status),
		Subtotal:       r.Subtotal,
		DiscountTotal:  r.DiscountTotal,
		TaxTotal:       r.TaxTotal,
		Total:          r.Total,
		PaymentStatus:  model.PaymentStatus(r.PaymentStatus),
		Version:        r.Version,
		CreatedAt:      r.CreatedAt.UTC(),
		UpdatedAt:      r.UpdatedAt.UTC(),
	}
}

func (r saleItemRow) restore(taxes []*model.SaleTax) *model.SaleItem {
	return model.RestoreSaleItem(model.SaleItemSnapshot{
		ID:             r.ID,
		SaleID:         r.SaleID,
		ProductID:      r.ProductID,
		Sku:            r.Sku,
		Description:    r.Description,
		UnitOfMeasure:  r.UnitOfMeasure,
		Quantity:       r.Quantity,
		UnitPrice:      r.UnitPrice,
		DiscountAmount: r.DiscountAmount,
		TaxAmount:      r.TaxAmount,
		Total:          r.Total,
		CreatedAt:      r.CreatedAt.UTC(),
	}, taxes)
}

func (r saleTaxRow) restore() *model.SaleTax {
	return model.RestoreSaleTax(model.SaleTaxSnapshot{
		ID:         r.ID,
		SaleItemID: r.SaleItemID,
		TaxTypeID:  r.TaxTypeID,
		TaxRuleID:  uuidPtr(r.TaxRuleID),
		BaseAmount: r.BaseAmount,
		Rate:       r.Rate,
		Amount:     r.Amount,
		CreatedAt:  r.CreatedAt.UTC(),
	})
}

func (r salePaymentRow) restore() *model.SalePayment {
	var processedAt *time.Time
	if r.ProcessedAt.Valid {
		t := r.ProcessedAt.Time.UTC()
		processedAt = &t
	}
	return model.RestoreSalePayment(model.SalePaymentSnapshot{
		ID:                r.ID,
		SaleID:            r.SaleID,
		PaymentMethodID:   r.PaymentMethodID,
		Amount:            r.Amount,
		AcquirerTxnID:     stringPtr(r.AcquirerTxnID),
		AuthorizationCode: stringPtr(r.AuthorizationCode),
		ChangeAmount:      decimalPtr(r.ChangeAmount),
		Status:            model.PaymentRecordStatus(r.Status),
		ProcessedAt:       processedAt,
		CreatedAt:         r.CreatedAt.UTC(),
	})
}

func (r saleCancellationRow) restore() *model.SaleCancellation {
	return model.RestoreSaleCancellation(model.SaleCancellationSnapshot{
		ID:               r.ID,
		SaleID:           r.SaleID,
		OperatorID:       uuidPtr(r.OperatorID),
		Reason:           r.Reason,
		Source:           model.CancellationSource(r.Source),
		CancellationType: model.CancellationType(r.CancellationType),
		RefundAmount:     decimalPtr(r.RefundAmount),
		CanceledAt:       r.CanceledAt.UTC(),
	})
}

func nullString(s *string) sql.NullString {
	if s == nil {
		return sql.NullString{}
	}
	return sql.NullString{String: *s, Valid: true}
}

func stringPtr(s sql.NullString) *string {
	if !s.Valid {
		return nil
	}
	return &s.String
}

func nullUUID(id *uuid.UUID) uuid.NullUUID {
	if id == nil {
		return uuid.NullUUID{}
	}
	return uuid.NullUUID{UUID: *id, Valid: true}
}

func uuidPtr(id uuid.NullUUID) *uuid.UUID {
	if !id.Valid {
		return nil
	}
	return &id.UUID
}

func nullDecimal(d *decimal.Decimal) decimal.NullDecimal {
	if d == nil {
		return decimal.NullDecimal{}
	}
	return decimal.NullDecimal{Decimal: *d, Valid: true}
}

func decimalPtr(d decimal.NullDecimal) *decimal.Decimal {
	if !d.Valid {
		return nil
	}
	return &d.Decimal
}
