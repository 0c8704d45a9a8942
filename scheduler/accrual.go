// Package scheduler runs the periodic ROI accrual pass. It is independent of
// request handling: main.go starts it on a fixed interval, and the cron
// endpoint can invoke a single pass on demand. Every qualifying position is
// processed in its own database transaction so a failure on one position
// never touches the others, and a crashed run can simply be re-invoked: the
// accrual watermark makes already-credited days a no-op.
package scheduler

import (
	"context"
	"errors"
	"log"
	"sync"
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/JacksonEjeh/truststock-api/ledger"
	"github.com/JacksonEjeh/truststock-api/models"
	"github.com/JacksonEjeh/truststock-api/utils"
)

// Scheduler owns the daily accrual job.
type Scheduler struct {
	db       *gorm.DB
	interval time.Duration

	// mu serializes passes within this process: the ticker and the manual
	// cron endpoint share one Scheduler.
	mu sync.Mutex

	// now is swappable so tests can drive the clock.
	now func() time.Time
}

// errStaleRow aborts a per-position transaction when its compare-and-commit
// write matches zero rows: another pass has advanced the watermark since the
// snapshot was read. The rollback undoes the ledger credit, so the position
// is simply skipped.
var errStaleRow = errors.New("row advanced by a concurrent pass")

// Report summarizes one accrual pass.
type Report struct {
	Credited int `json:"credited"`
	Matured  int `json:"matured"`
	Skipped  int `json:"skipped"`
	Failed   int `json:"failed"`
}

func New(db *gorm.DB, interval time.Duration) *Scheduler {
	if interval <= 0 {
		interval = 24 * time.Hour
	}
	return &Scheduler{db: db, interval: interval, now: time.Now}
}

// Start runs the accrual pass once per interval until ctx is cancelled.
func (s *Scheduler) Start(ctx context.Context) {
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()
	log.Printf("[scheduler] accrual job started, interval %s", s.interval)
	for {
		select {
		case <-ctx.Done():
			log.Println("[scheduler] accrual job stopped")
			return
		case <-ticker.C:
			report := s.RunOnce(ctx)
			log.Printf("[scheduler] accrual pass done: credited=%d matured=%d skipped=%d failed=%d",
				report.Credited, report.Matured, report.Skipped, report.Failed)
		}
	}
}

// RunOnce performs a single accrual pass over all active tracker positions
// and all accepted plan-attached deposits, then recomputes per-wallet average
// ROI. Per-position errors are logged and skipped, never retried within the
// run; the next pass picks them up via the watermark.
func (s *Scheduler) RunOnce(ctx context.Context) Report {
	s.mu.Lock()
	defer s.mu.Unlock()

	var report Report

	var positions []models.UserInvestment
	if err := s.db.WithContext(ctx).
		Where("status = ?", models.InvStatusActive).
		Find(&positions).Error; err != nil {
		log.Printf("[scheduler] loading active investments: %v", err)
		return report
	}
	for i := range positions {
		outcome, err := s.processPosition(ctx, &positions[i])
		if err != nil {
			report.Failed++
			log.Printf("[scheduler] investment %d: %v", positions[i].ID, err)
			continue
		}
		switch outcome {
		case outcomeCredited:
			report.Credited++
		case outcomeMatured:
			report.Matured++
		default:
			report.Skipped++
		}
	}

	var deposits []models.Transaction
	if err := s.db.WithContext(ctx).
		Where("type = ? AND status = ? AND investment_plan_id IS NOT NULL", models.TxTypeDeposit, models.TxStatusAccepted).
		Find(&deposits).Error; err != nil {
		log.Printf("[scheduler] loading plan deposits: %v", err)
		return report
	}
	for i := range deposits {
		outcome, err := s.processPlanDeposit(ctx, &deposits[i])
		if err != nil {
			report.Failed++
			log.Printf("[scheduler] deposit txn %d: %v", deposits[i].ID, err)
			continue
		}
		switch outcome {
		case outcomeCredited:
			report.Credited++
		case outcomeMatured:
			report.Matured++
		default:
			report.Skipped++
		}
	}

	if err := s.refreshAvgROI(ctx); err != nil {
		log.Printf("[scheduler] refreshing avg ROI: %v", err)
	}
	return report
}

type outcome int

const (
	outcomeSkipped outcome = iota
	outcomeCredited
	outcomeMatured
)

// elapsedDays counts whole days between two instants, never negative.
func elapsedDays(from, to time.Time) int {
	if !to.After(from) {
		return 0
	}
	return int(to.Sub(from).Hours() / 24)
}

// processPosition credits a tracker position for the days elapsed since its
// watermark, or matures it once the maturity date has passed. The ledger
// credit and the watermark advance are one atomic unit: neither happens
// without the other.
func (s *Scheduler) processPosition(ctx context.Context, inv *models.UserInvestment) (outcome, error) {
	now := s.now()
	watermark := inv.StartDate
	if inv.LastRoiCreditedAt != nil {
		watermark = *inv.LastRoiCreditedAt
	}

	matured := !now.Before(inv.MaturityDate)
	if !matured && elapsedDays(watermark, now) <= 0 {
		return outcomeSkipped, nil
	}

	if matured {
		// Full interest over the plan duration, minus the share the daily
		// passes already credited.
		total := models.Accrue(inv.Amount, inv.Interest, inv.DurationDays, inv.DurationDays)
		accruedShare := inv.AccruedInterest
		final := total.Sub(accruedShare)
		if final.IsNegative() {
			final = decimal.Zero
		}
		err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
			if err := ledger.ReleaseFromInvested(tx, inv.UserID, inv.Amount, accruedShare, final); err != nil {
				return err
			}
			msg := "Investment matured: principal and interest released"
			earning := models.Transaction{
				UserID:    inv.UserID,
				Type:      models.TxTypeEarning,
				Method:    "system",
				Amount:    total,
				Status:    models.TxStatusAccepted,
				Reference: utils.GenerateReference(),
				Message:   &msg,
			}
			if err := tx.Create(&earning).Error; err != nil {
				return err
			}
			// Compare-and-commit against the snapshot: if another pass
			// already matured or credited this position, match nothing and
			// roll the release back.
			res := tx.Model(&models.UserInvestment{}).
				Where("id = ? AND status = ? AND accrued_interest = ?",
					inv.ID, models.InvStatusActive, inv.AccruedInterest).
				Updates(map[string]interface{}{
					"status":               models.InvStatusCompleted,
					"accrued_interest":     total,
					"last_roi_credited_at": now,
				})
			if res.Error != nil {
				return res.Error
			}
			if res.RowsAffected == 0 {
				return errStaleRow
			}
			return nil
		})
		if errors.Is(err, errStaleRow) {
			return outcomeSkipped, nil
		}
		if err != nil {
			return outcomeSkipped, err
		}
		inv.Status = models.InvStatusCompleted
		inv.AccruedInterest = total
		inv.LastRoiCreditedAt = &now
		return outcomeMatured, nil
	}

	// Accrue against the cumulative target for total elapsed days, so the sum
	// of incremental credits telescopes to the lump-sum figure regardless of
	// how often the pass runs.
	totalElapsed := elapsedDays(inv.StartDate, now)
	if totalElapsed > inv.DurationDays {
		totalElapsed = inv.DurationDays
	}
	target := models.Accrue(inv.Amount, inv.Interest, totalElapsed, inv.DurationDays)
	delta := target.Sub(inv.AccruedInterest)
	if !delta.IsPositive() {
		return outcomeSkipped, nil
	}
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := ledger.CreditAccrual(tx, inv.UserID, delta); err != nil {
			return err
		}
		// delta was derived from the snapshot's accrued_interest, so commit
		// only if that value is still current; otherwise another pass already
		// credited these days and the rollback undoes our credit.
		res := tx.Model(&models.UserInvestment{}).
			Where("id = ? AND status = ? AND accrued_interest = ?",
				inv.ID, models.InvStatusActive, inv.AccruedInterest).
			Updates(map[string]interface{}{
				"accrued_interest":     target,
				"last_roi_credited_at": now,
			})
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return errStaleRow
		}
		return nil
	})
	if errors.Is(err, errStaleRow) {
		return outcomeSkipped, nil
	}
	if err != nil {
		return outcomeSkipped, err
	}
	inv.AccruedInterest = target
	inv.LastRoiCreditedAt = &now
	return outcomeCredited, nil
}

// processPlanDeposit credits ROI on an accepted deposit that carries an
// investment plan. Principal never left availableBalance for these, so
// realized interest goes straight to the spendable balance. Credited days are
// derived from the watermark and capped at the plan duration; the credit
// telescopes between day targets so no day is ever counted twice.
func (s *Scheduler) processPlanDeposit(ctx context.Context, txn *models.Transaction) (outcome, error) {
	if txn.InvestmentDuration == nil || txn.ReturnOnInvestment == nil {
		return outcomeSkipped, nil
	}
	duration := *txn.InvestmentDuration
	roi := *txn.ReturnOnInvestment
	if duration <= 0 {
		return outcomeSkipped, nil
	}

	now := s.now()
	start := txn.CreatedAt
	watermark := start
	if txn.LastRoiCreditedAt != nil {
		watermark = *txn.LastRoiCreditedAt
	}

	daysSoFar := elapsedDays(start, watermark)
	if daysSoFar >= duration {
		// Fully credited; close the position out. Conditional on the status
		// so an overlapping pass closes it exactly once.
		res := s.db.WithContext(ctx).Model(&models.Transaction{}).
			Where("id = ? AND status = ?", txn.ID, models.TxStatusAccepted).
			Update("status", models.TxStatusCompleted)
		if res.Error != nil {
			return outcomeSkipped, res.Error
		}
		if res.RowsAffected == 0 {
			return outcomeSkipped, nil
		}
		txn.Status = models.TxStatusCompleted
		return outcomeMatured, nil
	}

	totalElapsed := elapsedDays(start, now)
	if totalElapsed <= daysSoFar {
		return outcomeSkipped, nil
	}
	creditUpTo := totalElapsed
	if creditUpTo > duration {
		creditUpTo = duration
	}

	interest := models.Accrue(txn.Amount, roi, creditUpTo, duration).
		Sub(models.Accrue(txn.Amount, roi, daysSoFar, duration))
	if !interest.IsPositive() {
		return outcomeSkipped, nil
	}

	finished := creditUpTo >= duration
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := ledger.CreditEarning(tx, txn.UserID, interest); err != nil {
			return err
		}
		msg := "Daily ROI on plan deposit " + txn.Reference
		earning := models.Transaction{
			UserID:    txn.UserID,
			Type:      models.TxTypeEarning,
			Method:    "system",
			Amount:    interest,
			Status:    models.TxStatusAccepted,
			Reference: utils.GenerateReference(),
			Message:   &msg,
		}
		if err := tx.Create(&earning).Error; err != nil {
			return err
		}
		updates := map[string]interface{}{"last_roi_credited_at": now}
		if finished {
			updates["status"] = models.TxStatusCompleted
		}
		// Commit only against the watermark this credit was computed from;
		// a concurrent pass that advanced it rolls this credit back.
		q := tx.Model(&models.Transaction{}).
			Where("id = ? AND status = ?", txn.ID, models.TxStatusAccepted)
		if txn.LastRoiCreditedAt == nil {
			q = q.Where("last_roi_credited_at IS NULL")
		} else {
			q = q.Where("last_roi_credited_at = ?", *txn.LastRoiCreditedAt)
		}
		res := q.Updates(updates)
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return errStaleRow
		}
		return nil
	})
	if errors.Is(err, errStaleRow) {
		return outcomeSkipped, nil
	}
	if err != nil {
		return outcomeSkipped, err
	}
	txn.LastRoiCreditedAt = &now
	if finished {
		txn.Status = models.TxStatusCompleted
		return outcomeMatured, nil
	}
	return outcomeCredited, nil
}

// refreshAvgROI recomputes the derived average ROI per wallet: accrued
// interest over invested principal across the user's active positions.
// Wallets with no remaining active positions are reset to zero.
func (s *Scheduler) refreshAvgROI(ctx context.Context) error {
	type roiAgg struct {
		UserID    uint
		Accrued   decimal.Decimal
		Principal decimal.Decimal
	}
	var aggs []roiAgg
	if err := s.db.WithContext(ctx).Model(&models.UserInvestment{}).
		Select("user_id, SUM(accrued_interest) AS accrued, SUM(amount) AS principal").
		Where("status = ?", models.InvStatusActive).
		Group("user_id").
		Scan(&aggs).Error; err != nil {
		return err
	}
	active := make([]uint, 0, len(aggs))
	for _, agg := range aggs {
		active = append(active, agg.UserID)
		if !agg.Principal.IsPositive() {
			continue
		}
		avg := agg.Accrued.Div(agg.Principal).Mul(decimal.NewFromInt(100))
		if err := ledger.UpdateAvgROI(s.db.WithContext(ctx), agg.UserID, avg); err != nil {
			log.Printf("[scheduler] avg ROI for user %d: %v", agg.UserID, err)
		}
	}
	reset := s.db.WithContext(ctx).Model(&models.Wallet{}).
		Where("avg_roi <> 0")
	if len(active) > 0 {
		reset = reset.Where("user_id NOT IN ?", active)
	}
	return reset.Update("avg_roi", decimal.Zero).Error
}
