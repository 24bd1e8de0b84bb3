package service

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/pkg/errors"
	"github.com/shopspring/decimal"
	log "github.com/sirupsen/logrus"

	"saleservice/pkg/common/tenant"
	"saleservice/pkg/sale/domain/model"
)

var hundred = decimal.NewFromInt(100)

type TaxService interface {
	// CalculateTaxes returns one tax line per active tax type that has an applicable rule.
	// Tax types without a rule are skipped.
	CalculateTaxes(ctx context.Context, t tenant.Tenant, productID uuid.UUID, baseAmount decimal.Decimal, jurisdiction string, at time.Time) ([]*model.SaleTax, error)
}

func NewTaxService(repo model.TaxRuleRepository, logger log.FieldLogger) TaxService {
	return &taxService{repo: repo, logger: logger}
}

type taxService struct {
	repo   model.TaxRuleRepository
	logger log.FieldLogger
}

func (s *taxService) CalculateTaxes(
	ctx context.Context,
	t tenant.Tenant,
	productID uuid.UUID,
	baseAmount decimal.Decimal,
	jurisdiction string,
	at time.Time,
) ([]*model.SaleTax, error) {
	candidates, err := s.repo.FindCandidates(ctx, t, productID, jurisdiction, at)
	if err != nil {
		return nil, errors.Wrap(err, "find tax rule candidates")
	}

	var taxes []*model.SaleTax
	for _, candidate := range candidates {
		rule, ok := SelectRule(candidate.Rules, productID, jurisdiction, at)
		if !ok {
			s.logger.WithFields(log.Fields{
				"tenant":       t.String(),
				"productId":    productID,
				"taxType":      candidate.TaxType.Code,
				"jurisdiction": jurisdiction,
			}).Warn("No applicable tax rule, skipping tax type")
			continue
		}

		ruleID := rule.ID
		amount := CalculateAmount(candidate.TaxType.Calculation, rule, baseAmount)
		tax, err := model.NewSaleTax(candidate.TaxType.ID, &ruleID, baseAmount, rule.Rate, amount)
		if err != nil {
			return nil, err
		}
		taxes = append(taxes, tax)
	}
	return taxes, nil
}

// SelectRule picks the most specific rule active at the given time: product and jurisdiction,
// then jurisdiction only, then generic. Ties go to the most recently activated rule.
func SelectRule(rules []model.TaxRule, productID uuid.UUID, jurisdiction string, at time.Time) (model.TaxRule, bool) {
	var (
		best      model.TaxRule
		bestScore = -1
	)
	for _, rule := range rules {
		if !rule.ActiveAt(at) {
			continue
		}
		score := specificity(rule, productID, jurisdiction)
		if score < 0 {
			continue
		}
		if score > bestScore || (score == bestScore && rule.ActiveFrom.After(best.ActiveFrom)) {
			best, bestScore = rule, score
		}
	}
	return best, bestScore >= 0
}

// specificity returns -1 for rules that do not apply.
func specificity(rule model.TaxRule, productID uuid.UUID, jurisdiction string) int {
	jurisdictionMatches := rule.Jurisdiction != nil && strings.EqualFold(*rule.Jurisdiction, jurisdiction)
	switch {
	case rule.ProductID != nil && *rule.ProductID == productID && jurisdictionMatches:
		return 2
	case rule.ProductID == nil && jurisdictionMatches:
		return 1
	case rule.ProductID == nil && rule.Jurisdiction == nil:
		return 0
	default:
		return -1
	}
}

// CalculateAmount computes a tax line rounded half away from zero to two places.
// Kinds that lack their extra rate are calculated as a plain percentage.
func CalculateAmount(kind model.CalculationKind, rule model.TaxRule, base decimal.Decimal) decimal.Decimal {
	switch {
	case kind == model.CalculationFixed:
		return rule.Rate
	case kind == model.CalculationMVA && rule.MVARate != nil:
		adjusted := base.Mul(hundred.Add(*rule.MVARate)).Div(hundred)
		return percentOf(adjusted, rule.Rate)
	case kind == model.CalculationReducedBase && rule.BaseReductionRate != nil:
		reduced := base.Mul(hundred.Sub(*rule.BaseReductionRate)).Div(hundred)
		return percentOf(reduced, rule.Rate)
	default:
		return percentOf(base, rule.Rate)
	}
}

func percentOf(base, rate decimal.Decimal) decimal.Decimal {
	return base.Mul(rate).Div(hundred).Round(2)
}
