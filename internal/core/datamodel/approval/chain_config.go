package approval

import "time"

type ChainConfig struct {
	ID                     string    `gorm:"primaryKey;size:36"`
	CompanyID              string    `gorm:"column:company_id;size:36;not null;uniqueIndex:idx_chain_config_company_type"`
	RequestType            string    `gorm:"column:request_type;size:32;not null;uniqueIndex:idx_chain_config_company_type"`
	BaseSteps              string    `gorm:"column:base_steps;not null"`
	FinanceAmountThreshold *int64    `gorm:"column:finance_amount_threshold"`
	CEOAmountThreshold     *int64    `gorm:"column:ceo_amount_threshold"`
	FinanceDaysThreshold   *int      `gorm:"column:finance_days_threshold"`
	CEODaysThreshold       *int      `gorm:"column:ceo_days_threshold"`
	UpdatedBy              string    `gorm:"column:updated_by;size:36"`
	CreatedAt              time.Time `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt              time.Time `gorm:"column:updated_at;autoUpdateTime"`
}

func (ChainConfig) TableName() string {
	return "approval_chain_configs"
}
