package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// Wallet is the per-user balance record. One wallet per user, created at
// account activation. The six money buckets are only ever mutated through the
// ledger package; nothing else writes these columns.
type Wallet struct {
	ID                 uint            `gorm:"primaryKey" json:"id"`
	UserID             uint            `gorm:"not null;uniqueIndex" json:"user_id"`
	Currency           string          `gorm:"type:varchar(10);not null;default:'USD'" json:"currency"`
	AvailableBalance   decimal.Decimal `gorm:"type:decimal(15,2);not null;default:0.00" json:"available_balance"`
	InvestedBalance    decimal.Decimal `gorm:"type:decimal(15,2);not null;default:0.00" json:"invested_balance"`
	PendingDeposits    decimal.Decimal `gorm:"type:decimal(15,2);not null;default:0.00" json:"pending_deposits"`
	PendingWithdrawals decimal.Decimal `gorm:"type:decimal(15,2);not null;default:0.00" json:"pending_withdrawals"`
	AccruedInterest    decimal.Decimal `gorm:"type:decimal(15,2);not null;default:0.00" json:"accrued_interest"`
	TotalEarnings      decimal.Decimal `gorm:"type:decimal(15,2);not null;default:0.00" json:"total_earnings"`
	AvgROI             decimal.Decimal `gorm:"column:avg_roi;type:decimal(7,2);not null;default:0.00" json:"avg_roi"`
	LastTransactionAt  *time.Time      `json:"last_transaction_at,omitempty"`
	CreatedAt          time.Time       `json:"-"`
	UpdatedAt          time.Time       `json:"-"`
}

func (Wallet) TableName() string {
	return "wallets"
}

// TotalValue is the user-facing net worth: everything except funds already on
// their way out of the system.
func (w *Wallet) TotalValue() decimal.Decimal {
	return w.AvailableBalance.
		Add(w.InvestedBalance).
		Add(w.PendingDeposits).
		Add(w.AccruedInterest)
}
