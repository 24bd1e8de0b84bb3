package postgres

import (
	"context"
	"database/sql"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/pkg/errors"
	"github.com/shopspring/decimal"

	"saleservice/pkg/common/tenant"
	"saleservice/pkg/sale/domain/model"
)

func NewReferenceRepository(db *sqlx.DB) model.ReferenceRepository {
	return &referenceRepository{db: db}
}

type referenceRepository struct {
	db *sqlx.DB
}

type productRow struct {
	ID            uuid.UUID `db:"id"`
	Sku           string    `db:"sku"`
	Description   string    `db:"description"`
	UnitOfMeasure string    `db:"unit_of_measure"`
	Active        bool      `db:"active"`
}

type paymentMethodRow struct {
	ID          uuid.UUID `db:"id"`
	TypeCode    string    `db:"type_code"`
	Description string    `db:"description"`
	Active      bool      `db:"active"`
}

func (r *referenceRepository) FindProduct(ctx context.Context, t tenant.Tenant, id uuid.UUID) (model.Product, error) {
	var row productRow
	err := inTenantTx(ctx, r.db, t, true, func(tx *sqlx.Tx) error {
		err := tx.GetContext(ctx, &row, `
			SELECT p.id, p.internal_code AS sku, p.description, COALESCE(u.code, '') AS unit_of_measure, p.active
			FROM products p
			LEFT JOIN unit_of_measures u ON u.id = p.unit_of_measure_id
			WHERE p.id = $1`, id)
		if errors.Is(err, sql.ErrNoRows) {
			return model.ErrProductNotFound
		}
		return errors.Wrap(err, "select product")
	})
	if err != nil {
		return model.Product{}, err
	}
	return model.Product(row), nil
}

func (r *referenceRepository) FindPaymentMethod(ctx context.Context, t tenant.Tenant, id uuid.UUID) (model.PaymentMethod, error) {
	var row paymentMethodRow
	err := inTenantTx(ctx, r.db, t, true, func(tx *sqlx.Tx) error {
		err := tx.GetContext(ctx, &row, `
			SELECT pm.id, pt.code AS type_code, pm.description, pm.active
			FROM payment_methods pm
			JOIN payment_types pt ON pt.id = pm.payment_type_id
			WHERE pm.id = $1`, id)
		if errors.Is(err, sql.ErrNoRows) {
			return model.ErrPaymentMethodNotFound
		}
		return errors.Wrap(err, "select payment method")
	})
	if err != nil {
		return model.PaymentMethod{}, err
	}
	return model.PaymentMethod(row), nil
}

func NewTaxRuleRepository(db *sqlx.DB) model.TaxRuleRepository {
	return &taxRuleRepository{db: db}
}

type taxRuleRepository struct {
	db *sqlx.DB
}

// taxCandidateRow is one tax type joined with at most one of its rules.
// Rule columns are null for an active tax type without a matching rule.
type taxCandidateRow struct {
	TaxTypeID         uuid.UUID           `db:"tax_type_id"`
	TaxTypeCode       string              `db:"tax_type_code"`
	CalculationType   string              `db:"calculation_type"`
	RuleID            uuid.NullUUID       `db:"rule_id"`
	ProductID         uuid.NullUUID       `db:"product_id"`
	State             sql.NullString      `db:"state"`
	Rate              decimal.NullDecimal `db:"rate"`
	BaseReductionRate decimal.NullDecimal `db:"base_reduction_rate"`
	MVARate           decimal.NullDecimal `db:"mva_rate"`
	ActiveFrom        sql.NullTime        `db:"active_from"`
	ActiveTo          sql.NullTime        `db:"active_to"`
}

const taxCandidatesQuery = `
	SELECT tt.id AS tax_type_id, tt.code AS tax_type_code, tt.calculation_type,
		tr.id AS rule_id, tr.product_id, tr.state, tr.rate, tr.base_reduction_rate, tr.mva_rate,
		tr.active_from, tr.active_to
	FROM tax_types tt
	LEFT JOIN tax_rules tr ON tr.tax_type_id = tt.id
		AND tr.active
		AND tr.active_from <= $3
		AND (tr.active_to IS NULL OR tr.active_to >= $3)
		AND (
			(tr.product_id = $1 AND upper(tr.state) = upper($2))
			OR (tr.product_id IS NULL AND upper(tr.state) = upper($2))
			OR (tr.product_id IS NULL AND tr.state IS NULL)
		)
	WHERE tt.active
	ORDER BY tt.code, tr.active_from DESC`

func (r *taxRuleRepository) FindCandidates(
	ctx context.Context,
	t tenant.Tenant,
	productID uuid.UUID,
	jurisdiction string,
	at time.Time,
) ([]model.TaxTypeRules, error) {
	var rows []taxCandidateRow
	err := inTenantTx(ctx, r.db, t, true, func(tx *sqlx.Tx) error {
		return errors.Wrap(tx.SelectContext(ctx, &rows, taxCandidatesQuery, productID, jurisdiction, at), "select tax candidates")
	})
	if err != nil {
		return nil, err
	}
	return groupTaxCandidates(rows), nil
}

// groupTaxCandidates folds joined rows into one entry per tax type, keeping query order.
func groupTaxCandidates(rows []taxCandidateRow) []model.TaxTypeRules {
	var result []model.TaxTypeRules
	index := make(map[uuid.UUID]int)
	for _, row := range rows {
		i, ok := index[row.TaxTypeID]
		if !ok {
			i = len(result)
			index[row.TaxTypeID] = i
			result = append(result, model.TaxTypeRules{
				TaxType: model.TaxType{
					ID:          row.TaxTypeID,
					Code:        row.TaxTypeCode,
					Calculation: model.ParseCalculationKind(row.CalculationType),
				},
			})
		}
		if !row.RuleID.Valid {
			continue
		}
		result[i].Rules = append(result[i].Rules, row.rule())
	}
	return result
}

func (r taxCandidateRow) rule() model.TaxRule {
	rule := model.TaxRule{
		ID:                r.RuleID.UUID,
		TaxTypeID:         r.TaxTypeID,
		ProductID:         uuidPtr(r.ProductID),
		Jurisdiction:      stringPtr(r.State),
		Rate:              r.Rate.Decimal,
		BaseReductionRate: decimalPtr(r.BaseReductionRate),
		MVARate:           decimalPtr(r.MVARate),
		ActiveFrom:        r.ActiveFrom.Time.UTC(),
	}
	if r.ActiveTo.Valid {
		activeTo := r.ActiveTo.Time.UTC()
		rule.ActiveTo = &activeTo
	}
	return rule
}
