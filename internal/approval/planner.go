package approval

import (
	"context"
	"errors"
	"log/slog"
	"time"
)

// Context is the planning input derived from a request at creation time.
type Context struct {
	RequestType RequestType
	CompanyID   string
	Amount      *int64
	Days        *int
}

// ChainConfig is a company's chain setup for one request type. BaseSteps holds
// the actionable steps only. Nil thresholds mean no escalation.
type ChainConfig struct {
	CompanyID              string      `json:"company_id"`
	RequestType            RequestType `json:"request_type"`
	BaseSteps              []Step      `json:"base_steps"`
	FinanceAmountThreshold *int64      `json:"finance_amount_threshold,omitempty"`
	CEOAmountThreshold     *int64      `json:"ceo_amount_threshold,omitempty"`
	FinanceDaysThreshold   *int        `json:"finance_days_threshold,omitempty"`
	CEODaysThreshold       *int        `json:"ceo_days_threshold,omitempty"`
	UpdatedBy              string      `json:"updated_by,omitempty"`
	UpdatedAt              time.Time   `json:"updated_at"`
}

func (c *ChainConfig) Validate() error {
	if c.CompanyID == "" {
		return ErrMalformedChain.WithMessage("chain configuration needs a company")
	}
	if c.RequestType == "" {
		return ErrUnknownRequestType
	}
	if err := ValidateBase(c.BaseSteps); err != nil {
		return err
	}
	if c.FinanceAmountThreshold != nil && *c.FinanceAmountThreshold < 0 {
		return ErrMalformedChain.WithMessage("finance amount threshold cannot be negative")
	}
	if c.CEOAmountThreshold != nil && *c.CEOAmountThreshold < 0 {
		return ErrMalformedChain.WithMessage("ceo amount threshold cannot be negative")
	}
	if c.FinanceDaysThreshold != nil && *c.FinanceDaysThreshold < 0 {
		return ErrMalformedChain.WithMessage("finance days threshold cannot be negative")
	}
	if c.CEODaysThreshold != nil && *c.CEODaysThreshold < 0 {
		return ErrMalformedChain.WithMessage("ceo days threshold cannot be negative")
	}
	return nil
}

// ConfigRepository persists chain configuration per company and request type.
type ConfigRepository interface {
	GetChainConfig(ctx context.Context, companyID string, requestType RequestType) (*ChainConfig, error)
	UpsertChainConfig(ctx context.Context, cfg *ChainConfig) error
}

var fallbackBase = []Step{StepManager, StepHR}

// DefaultBases is used when a company has no configuration for a request type.
var DefaultBases = map[RequestType][]Step{
	RequestTypeAdvance: {StepManager, StepHR},
	RequestTypeRaise:   {StepManager, StepHR},
	RequestTypeLetter:  {StepManager, StepHR},
	RequestTypeLeave:   {StepManager, StepHR},
}

type Planner struct {
	repo   ConfigRepository
	logger *slog.Logger
}

func NewPlanner(repo ConfigRepository, logger *slog.Logger) *Planner {
	return &Planner{
		repo:   repo,
		logger: logger,
	}
}

// Plan returns the chain for a request. Missing or malformed configuration
// falls back to the request type's default base without escalation; only
// storage failures are returned.
func (p *Planner) Plan(ctx context.Context, pc Context) (Chain, error) {
	cfg, err := p.EffectiveConfig(ctx, pc.CompanyID, pc.RequestType)
	if err != nil {
		return nil, err
	}

	base := append([]Step(nil), cfg.BaseSteps...)
	escalateFinance := exceeds64(pc.Amount, cfg.FinanceAmountThreshold) || exceeds(pc.Days, cfg.FinanceDaysThreshold)
	escalateCEO := exceeds64(pc.Amount, cfg.CEOAmountThreshold) || exceeds(pc.Days, cfg.CEODaysThreshold)

	if escalateFinance && !contains(base, StepFinance) {
		base = append(base, StepFinance)
	}
	if escalateCEO && !contains(base, StepCEO) {
		base = append(base, StepCEO)
	}

	chain, err := NewChain(base...)
	if err != nil {
		// EffectiveConfig already validated the base; this only trips on a programming error.
		return nil, err
	}

	p.logger.Debug("approval chain planned",
		"company_id", pc.CompanyID,
		"request_type", pc.RequestType,
		"chain", chain.String())

	return chain, nil
}

// EffectiveConfig returns the stored configuration, or the default one when
// none is stored or the stored one does not validate.
func (p *Planner) EffectiveConfig(ctx context.Context, companyID string, requestType RequestType) (*ChainConfig, error) {
	cfg, err := p.repo.GetChainConfig(ctx, companyID, requestType)
	switch {
	case errors.Is(err, ErrChainConfigNotFound):
		return defaultConfig(companyID, requestType, p.logger), nil
	case errors.Is(err, ErrMalformedChain):
		p.logger.Warn("stored approval chain is malformed, using default",
			"company_id", companyID,
			"request_type", requestType,
			"error", err)
		return defaultConfig(companyID, requestType, p.logger), nil
	case err != nil:
		p.logger.Error("failed to load approval chain config",
			"company_id", companyID,
			"request_type", requestType,
			"error", err)
		return nil, err
	}

	if err := cfg.Validate(); err != nil {
		p.logger.Warn("approval chain config is invalid, using default",
			"company_id", companyID,
			"request_type", requestType,
			"error", err)
		return defaultConfig(companyID, requestType, p.logger), nil
	}
	return cfg, nil
}

// Configure validates and stores a company's chain configuration.
func (p *Planner) Configure(ctx context.Context, cfg *ChainConfig) error {
	if err := cfg.Validate(); err != nil {
		p.logger.Warn("rejected approval chain config",
			"company_id", cfg.CompanyID,
			"request_type", cfg.RequestType,
			"error", err)
		return err
	}
	cfg.UpdatedAt = time.Now()
	if err := p.repo.UpsertChainConfig(ctx, cfg); err != nil {
		p.logger.Error("failed to store approval chain config",
			"company_id", cfg.CompanyID,
			"request_type", cfg.RequestType,
			"error", err)
		return err
	}
	p.logger.Info("approval chain config stored",
		"company_id", cfg.CompanyID,
		"request_type", cfg.RequestType,
		"base_steps", cfg.BaseSteps)
	return nil
}

func defaultConfig(companyID string, requestType RequestType, logger *slog.Logger) *ChainConfig {
	base, ok := DefaultBases[requestType]
	if !ok {
		logger.Warn("no default approval chain for request type, using fallback",
			"request_type", requestType)
		base = fallbackBase
	}
	return &ChainConfig{
		CompanyID:   companyID,
		RequestType: requestType,
		BaseSteps:   append([]Step(nil), base...),
	}
}

func exceeds64(value, threshold *int64) bool {
	return value != nil && threshold != nil && *value > *threshold
}

func exceeds(value, threshold *int) bool {
	return value != nil && threshold != nil && *value > *threshold
}

func contains(steps []Step, s Step) bool {
	for _, step := range steps {
		if step == s {
			return true
		}
	}
	return false
}
