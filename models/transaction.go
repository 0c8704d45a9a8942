package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// Transaction types.
const (
	TxTypeDeposit    = "deposit"
	TxTypeWithdrawal = "withdrawal"
	TxTypeEarning    = "earning"
	TxTypeTransfer   = "transfer"
	TxTypeInvestment = "investment"
)

// Transaction statuses. Status transitions are monotone and type-specific:
// deposits and withdrawals go pending -> accepted|rejected via the approval
// gate; investments are created accepted (funds move in the same database
// transaction) and go completed at maturity; earnings are created accepted.
const (
	TxStatusPending   = "pending"
	TxStatusAccepted  = "accepted"
	TxStatusRejected  = "rejected"
	TxStatusCompleted = "completed"
)

// Transaction is the append-only audit record for every funds-affecting
// event. Amount and Reference are immutable after creation; rows are never
// deleted.
type Transaction struct {
	ID                 uint             `gorm:"primaryKey" json:"id"`
	UserID             uint             `gorm:"not null;index" json:"user_id"`
	Type               string           `gorm:"type:varchar(20);not null;index" json:"type"`
	Method             string           `gorm:"type:varchar(20);not null" json:"method"`
	Amount             decimal.Decimal  `gorm:"type:decimal(15,2);not null" json:"amount"`
	Status             string           `gorm:"type:varchar(20);not null;default:'pending';index" json:"status"`
	InvestmentPlanID   *uint            `gorm:"index" json:"investment_plan_id,omitempty"`
	InvestmentDuration *int             `json:"investment_duration,omitempty"`
	ReturnOnInvestment *decimal.Decimal `gorm:"type:decimal(7,2)" json:"return_on_investment,omitempty"`
	LastRoiCreditedAt  *time.Time       `json:"last_roi_credited_at,omitempty"`
	WalletAddress      *string          `gorm:"type:varchar(191)" json:"wallet_address,omitempty"`
	Reference          string           `gorm:"type:varchar(191);not null;uniqueIndex" json:"reference"`
	ApprovedBy         *int64           `json:"approved_by,omitempty"`
	Message            *string          `gorm:"type:text" json:"message,omitempty"`
	CreatedAt          time.Time        `json:"created_at"`
	UpdatedAt          time.Time        `json:"-"`
}

func (Transaction) TableName() string {
	return "transactions"
}

// IsResolved reports whether the approval gate has already acted on this
// transaction.
func (t *Transaction) IsResolved() bool {
	return t.Status != TxStatusPending
}
