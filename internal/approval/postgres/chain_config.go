package postgres

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/frahmantamala/hr-approvals/internal/approval"
	approvalDatamodel "github.com/frahmantamala/hr-approvals/internal/core/datamodel/approval"
	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// ChainConfigRepository implements approval.ConfigRepository using GORM
type ChainConfigRepository struct {
	db *gorm.DB
}

func NewChainConfigRepository(db *gorm.DB) approval.ConfigRepository {
	return &ChainConfigRepository{db: db}
}

func (r *ChainConfigRepository) GetChainConfig(ctx context.Context, companyID string, requestType approval.RequestType) (*approval.ChainConfig, error) {
	var row approvalDatamodel.ChainConfig
	err := r.db.WithContext(ctx).
		Where("company_id = ? AND request_type = ?", companyID, string(requestType)).
		First(&row).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, approval.ErrChainConfigNotFound
		}
		return nil, err
	}
	return fromRow(&row)
}

func (r *ChainConfigRepository) UpsertChainConfig(ctx context.Context, cfg *approval.ChainConfig) error {
	row := toRow(cfg)
	return r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "company_id"}, {Name: "request_type"}},
		DoUpdates: clause.AssignmentColumns([]string{
			"base_steps",
			"finance_amount_threshold",
			"ceo_amount_threshold",
			"finance_days_threshold",
			"ceo_days_threshold",
			"updated_by",
			"updated_at",
		}),
	}).Create(row).Error
}

func toRow(cfg *approval.ChainConfig) *approvalDatamodel.ChainConfig {
	steps := make([]string, len(cfg.BaseSteps))
	for i, s := range cfg.BaseSteps {
		steps[i] = string(s)
	}
	return &approvalDatamodel.ChainConfig{
		ID:                     uuid.NewString(),
		CompanyID:              cfg.CompanyID,
		RequestType:            string(cfg.RequestType),
		BaseSteps:              strings.Join(steps, ","),
		FinanceAmountThreshold: cfg.FinanceAmountThreshold,
		CEOAmountThreshold:     cfg.CEOAmountThreshold,
		FinanceDaysThreshold:   cfg.FinanceDaysThreshold,
		CEODaysThreshold:       cfg.CEODaysThreshold,
		UpdatedBy:              cfg.UpdatedBy,
		UpdatedAt:              cfg.UpdatedAt,
	}
}

// fromRow validates the stored steps; a bad row surfaces as approval.ErrMalformedChain.
func fromRow(row *approvalDatamodel.ChainConfig) (*approval.ChainConfig, error) {
	var steps []approval.Step
	for _, raw := range strings.Split(row.BaseSteps, ",") {
		if strings.TrimSpace(raw) == "" {
			continue
		}
		s, err := approval.ParseStep(raw)
		if err != nil {
			return nil, approval.ErrMalformedChain.WithMessage(fmt.Sprintf("stored chain for %s has unknown step %q", row.RequestType, raw))
		}
		steps = append(steps, s)
	}
	if err := approval.ValidateBase(steps); err != nil {
		return nil, err
	}
	return &approval.ChainConfig{
		CompanyID:              row.CompanyID,
		RequestType:            approval.RequestType(row.RequestType),
		BaseSteps:              steps,
		FinanceAmountThreshold: row.FinanceAmountThreshold,
		CEOAmountThreshold:     row.CEOAmountThreshold,
		FinanceDaysThreshold:   row.FinanceDaysThreshold,
		CEODaysThreshold:       row.CEODaysThreshold,
		UpdatedBy:              row.UpdatedBy,
		UpdatedAt:              row.UpdatedAt,
	}, nil
}
