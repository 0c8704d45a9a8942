package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// Plan duration units.
const (
	DurationUnitDays   = "days"
	DurationUnitMonths = "months"
	DurationUnitYears  = "years"
)

// InvestmentPlan is an admin-maintained catalog entry. Interest is the total
// percentage earned over the full duration, not an annualized rate. Editing a
// plan never touches open positions: duration and ROI are snapshotted onto the
// transaction and tracker at purchase time.
type InvestmentPlan struct {
	ID            uint            `gorm:"primaryKey" json:"id"`
	AdminID       int64           `gorm:"not null" json:"admin_id"`
	Name          string          `gorm:"column:investment_plan;type:varchar(50);not null" json:"investment_plan"`
	Type          string          `gorm:"column:investment_type;type:varchar(20);not null;default:'personal'" json:"investment_type"`
	DurationValue int             `gorm:"not null" json:"duration_value"`
	DurationUnit  string          `gorm:"type:varchar(10);not null;default:'days'" json:"duration_unit"`
	Interest      decimal.Decimal `gorm:"type:decimal(7,2);not null" json:"interest"`
	MinAmount     decimal.Decimal `gorm:"type:decimal(15,2);not null" json:"min_amount"`
	MaxAmount     decimal.Decimal `gorm:"type:decimal(15,2);not null" json:"max_amount"`
	CreatedAt     time.Time       `json:"created_at"`
	UpdatedAt     time.Time       `json:"updated_at"`
}

func (InvestmentPlan) TableName() string {
	return "investment_plans"
}

// DurationDays normalizes the plan duration to days (months as 30 days, years
// as 365).
func (p *InvestmentPlan) DurationDays() int {
	switch p.DurationUnit {
	case DurationUnitMonths:
		return p.DurationValue * 30
	case DurationUnitYears:
		return p.DurationValue * 365
	default:
		return p.DurationValue
	}
}

// AmountInRange reports whether amount sits inside the plan's bounds.
func (p *InvestmentPlan) AmountInRange(amount decimal.Decimal) bool {
	return amount.GreaterThanOrEqual(p.MinAmount) && amount.LessThanOrEqual(p.MaxAmount)
}
