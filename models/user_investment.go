package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// UserInvestment statuses.
const (
	InvStatusActive    = "active"
	InvStatusCompleted = "completed"
	InvStatusCancelled = "cancelled"
)

// UserInvestment is one funded plan instance. Amount, interest and duration
// are snapshotted from the plan at purchase so later plan edits cannot change
// an open position. AccruedInterest only grows while the position is active;
// it is flushed into the wallet exactly once at the transition to completed.
// LastRoiCreditedAt is the accrual watermark: days before it have already been
// credited and are never credited again.
type UserInvestment struct {
	ID                uint            `gorm:"primaryKey" json:"id"`
	UserID            uint            `gorm:"not null;index" json:"user_id"`
	PlanID            uint            `gorm:"not null;index" json:"plan_id"`
	Amount            decimal.Decimal `gorm:"type:decimal(15,2);not null" json:"amount"`
	Interest          decimal.Decimal `gorm:"type:decimal(7,2);not null" json:"interest"`
	DurationDays      int             `gorm:"not null" json:"duration_days"`
	StartDate         time.Time       `gorm:"not null" json:"start_date"`
	MaturityDate      time.Time       `gorm:"not null;index" json:"maturity_date"`
	Status            string          `gorm:"type:varchar(20);not null;default:'active';index" json:"status"`
	AccruedInterest   decimal.Decimal `gorm:"type:decimal(15,2);not null;default:0.00" json:"accrued_interest"`
	LastRoiCreditedAt *time.Time      `json:"last_roi_credited_at,omitempty"`
	Reference         string          `gorm:"type:varchar(191);not null;uniqueIndex" json:"reference"`
	CreatedAt         time.Time       `json:"created_at"`
	UpdatedAt         time.Time       `json:"-"`

	Plan *InvestmentPlan `gorm:"foreignKey:PlanID" json:"plan,omitempty"`
}

func (UserInvestment) TableName() string {
	return "user_investments"
}
