// Package ledger owns every mutation of wallet balance buckets. All other
// components (controllers, the accrual scheduler, the approval gate) move
// funds exclusively through the operations here, each invoked inside a
// database transaction owned by the caller so the wallet mutation and the
// matching transaction/tracker status change commit or roll back together.
package ledger

import (
	"errors"
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/JacksonEjeh/truststock-api/models"
)

// lockWallet loads the user's wallet under a row lock. The wallet row is the
// unit of mutual exclusion: only one multi-bucket mutation commits against a
// given wallet at a time.
func lockWallet(tx *gorm.DB, userID uint) (*models.Wallet, error) {
	q := tx
	// sqlite (used by the test suite) serializes writes on its own and does
	// not speak SELECT ... FOR UPDATE.
	if tx.Dialector.Name() == "mysql" {
		q = q.Clauses(clause.Locking{Strength: "UPDATE"})
	}
	var w models.Wallet
	if err := q.Where("user_id = ?", userID).First(&w).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrWalletNotFound
		}
		return nil, err
	}
	return &w, nil
}

func saveBuckets(tx *gorm.DB, w *models.Wallet) error {
	now := time.Now()
	w.LastTransactionAt = &now
	return tx.Model(w).Updates(map[string]interface{}{
		"available_balance":   w.AvailableBalance,
		"invested_balance":    w.InvestedBalance,
		"pending_deposits":    w.PendingDeposits,
		"pending_withdrawals": w.PendingWithdrawals,
		"accrued_interest":    w.AccruedInterest,
		"total_earnings":      w.TotalEarnings,
		"last_transaction_at": w.LastTransactionAt,
	}).Error
}

func requirePositive(amount decimal.Decimal) error {
	if !amount.IsPositive() {
		return ValidationError("amount must be greater than zero")
	}
	return nil
}

// CreateWallet provisions the single wallet for a user at account activation.
func CreateWallet(tx *gorm.DB, userID uint, currency string) (*models.Wallet, error) {
	if currency == "" {
		currency = "USD"
	}
	w := &models.Wallet{
		UserID:             userID,
		Currency:           currency,
		AvailableBalance:   decimal.Zero,
		InvestedBalance:    decimal.Zero,
		PendingDeposits:    decimal.Zero,
		PendingWithdrawals: decimal.Zero,
		AccruedInterest:    decimal.Zero,
		TotalEarnings:      decimal.Zero,
		AvgROI:             decimal.Zero,
	}
	if err := tx.Create(w).Error; err != nil {
		return nil, err
	}
	return w, nil
}

// GetWallet reads the user's wallet without locking it.
func GetWallet(db *gorm.DB, userID uint) (*models.Wallet, error) {
	var w models.Wallet
	if err := db.Where("user_id = ?", userID).First(&w).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrWalletNotFound
		}
		return nil, err
	}
	return &w, nil
}

// ReserveForDeposit records an announced inbound amount: pendingDeposits grows
// by amount. Nothing is spendable until the approval gate settles it.
func ReserveForDeposit(tx *gorm.DB, userID uint, amount decimal.Decimal) error {
	if err := requirePositive(amount); err != nil {
		return err
	}
	w, err := lockWallet(tx, userID)
	if err != nil {
		return err
	}
	w.PendingDeposits = models.RoundMoney(w.PendingDeposits.Add(amount))
	return saveBuckets(tx, w)
}

// SettleDeposit resolves a reserved deposit. Approved funds enter the system:
// pendingDeposits shrinks and availableBalance grows by amount. Rejected
// deposits only release the pending bucket.
func SettleDeposit(tx *gorm.DB, userID uint, amount decimal.Decimal, approved bool) error {
	if err := requirePositive(amount); err != nil {
		return err
	}
	w, err := lockWallet(tx, userID)
	if err != nil {
		return err
	}
	if w.PendingDeposits.LessThan(amount) {
		return ErrInsufficientPending
	}
	w.PendingDeposits = models.RoundMoney(w.PendingDeposits.Sub(amount))
	if approved {
		w.AvailableBalance = models.RoundMoney(w.AvailableBalance.Add(amount))
	}
	return saveBuckets(tx, w)
}

// ReserveForWithdrawal moves amount from availableBalance into
// pendingWithdrawals. The balance check happens under the row lock, before
// any debit commits.
func ReserveForWithdrawal(tx *gorm.DB, userID uint, amount decimal.Decimal) error {
	if err := requirePositive(amount); err != nil {
		return err
	}
	w, err := lockWallet(tx, userID)
	if err != nil {
		return err
	}
	if w.AvailableBalance.LessThan(amount) {
		return ErrInsufficientFunds
	}
	w.AvailableBalance = models.RoundMoney(w.AvailableBalance.Sub(amount))
	w.PendingWithdrawals = models.RoundMoney(w.PendingWithdrawals.Add(amount))
	return saveBuckets(tx, w)
}

// SettleWithdrawal resolves a reserved withdrawal. Approved funds leave the
// system (no bucket is credited); rejected funds return to availableBalance.
func SettleWithdrawal(tx *gorm.DB, userID uint, amount decimal.Decimal, approved bool) error {
	if err := requirePositive(amount); err != nil {
		return err
	}
	w, err := lockWallet(tx, userID)
	if err != nil {
		return err
	}
	if w.PendingWithdrawals.LessThan(amount) {
		return ErrInsufficientPending
	}
	w.PendingWithdrawals = models.RoundMoney(w.PendingWithdrawals.Sub(amount))
	if !approved {
		w.AvailableBalance = models.RoundMoney(w.AvailableBalance.Add(amount))
	}
	return saveBuckets(tx, w)
}

// MoveToInvested locks amount into an investment: availableBalance shrinks,
// investedBalance grows.
func MoveToInvested(tx *gorm.DB, userID uint, amount decimal.Decimal) error {
	if err := requirePositive(amount); err != nil {
		return err
	}
	w, err := lockWallet(tx, userID)
	if err != nil {
		return err
	}
	if w.AvailableBalance.LessThan(amount) {
		return ErrInsufficientFunds
	}
	w.AvailableBalance = models.RoundMoney(w.AvailableBalance.Sub(amount))
	w.InvestedBalance = models.RoundMoney(w.InvestedBalance.Add(amount))
	return saveBuckets(tx, w)
}

// ReleaseFromInvested returns a matured position to the available bucket.
// accruedShare is the interest already credited to the wallet's
// accruedInterest bucket for this position; finalInterest is the closing
// pro-rated interest that was never credited day-by-day. availableBalance
// receives principal + accruedShare + finalInterest; the position's share of
// accruedInterest is released; only finalInterest still needs to be added to
// totalEarnings (the daily credits already counted the rest).
func ReleaseFromInvested(tx *gorm.DB, userID uint, principal, accruedShare, finalInterest decimal.Decimal) error {
	if err := requirePositive(principal); err != nil {
		return err
	}
	if accruedShare.IsNegative() || finalInterest.IsNegative() {
		return ValidationError("interest must not be negative")
	}
	w, err := lockWallet(tx, userID)
	if err != nil {
		return err
	}
	if w.InvestedBalance.LessThan(principal) {
		return ErrInsufficientFunds
	}
	w.InvestedBalance = models.RoundMoney(w.InvestedBalance.Sub(principal))
	w.AvailableBalance = models.RoundMoney(w.AvailableBalance.Add(principal).Add(accruedShare).Add(finalInterest))
	released := w.AccruedInterest.Sub(accruedShare)
	if released.IsNegative() {
		released = decimal.Zero
	}
	w.AccruedInterest = models.RoundMoney(released)
	w.TotalEarnings = models.RoundMoney(w.TotalEarnings.Add(finalInterest))
	return saveBuckets(tx, w)
}

// CreditAccrual records interest recognized on an active position but not yet
// matured: accruedInterest and totalEarnings grow, availableBalance does not.
func CreditAccrual(tx *gorm.DB, userID uint, amount decimal.Decimal) error {
	if err := requirePositive(amount); err != nil {
		return err
	}
	w, err := lockWallet(tx, userID)
	if err != nil {
		return err
	}
	w.AccruedInterest = models.RoundMoney(w.AccruedInterest.Add(amount))
	w.TotalEarnings = models.RoundMoney(w.TotalEarnings.Add(amount))
	return saveBuckets(tx, w)
}

// CreditEarning realizes interest straight into the spendable balance. Used
// for plan-attached deposits, whose principal never leaves availableBalance.
func CreditEarning(tx *gorm.DB, userID uint, amount decimal.Decimal) error {
	if err := requirePositive(amount); err != nil {
		return err
	}
	w, err := lockWallet(tx, userID)
	if err != nil {
		return err
	}
	w.AvailableBalance = models.RoundMoney(w.AvailableBalance.Add(amount))
	w.TotalEarnings = models.RoundMoney(w.TotalEarnings.Add(amount))
	return saveBuckets(tx, w)
}

// UpdateAvgROI stores the derived average ROI for a wallet: accrued interest
// across the user's active positions over invested principal, as a
// percentage. Recomputed by the scheduler on every run.
func UpdateAvgROI(tx *gorm.DB, userID uint, avg decimal.Decimal) error {
	res := tx.Model(&models.Wallet{}).Where("user_id = ?", userID).
		Update("avg_roi", models.RoundMoney(avg))
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrWalletNotFound
	}
	return nil
}
