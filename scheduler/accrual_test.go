package scheduler

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/JacksonEjeh/truststock-api/ledger"
	"github.com/JacksonEjeh/truststock-api/models"
	"github.com/JacksonEjeh/truststock-api/utils"
)

func d(s string) decimal.Decimal {
	v, err := decimal.NewFromString(s)
	if err != nil {
		panic(err)
	}
	return v
}

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", t.Name())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(
		&models.Wallet{}, &models.Transaction{},
		&models.InvestmentPlan{}, &models.UserInvestment{},
	))
	t.Cleanup(func() {
		sqlDB, _ := db.DB()
		_ = sqlDB.Close()
	})
	return db
}

// newFundedScheduler builds a scheduler with a frozen clock and a wallet that
// already holds amount in the invested bucket, as CreateInvestmentHandler
// would leave it.
func newFundedScheduler(t *testing.T, db *gorm.DB, invested decimal.Decimal) *Scheduler {
	t.Helper()
	require.NoError(t, db.Transaction(func(tx *gorm.DB) error {
		if _, err := ledger.CreateWallet(tx, 1, "USD"); err != nil {
			return err
		}
		if err := ledger.ReserveForDeposit(tx, 1, invested); err != nil {
			return err
		}
		if err := ledger.SettleDeposit(tx, 1, invested, true); err != nil {
			return err
		}
		return ledger.MoveToInvested(tx, 1, invested)
	}))
	return New(db, time.Hour)
}

func activePosition(t *testing.T, db *gorm.DB, start time.Time, amount, interest decimal.Decimal, days int) *models.UserInvestment {
	t.Helper()
	inv := &models.UserInvestment{
		UserID:       1,
		PlanID:       1,
		Amount:       amount,
		Interest:     interest,
		DurationDays: days,
		StartDate:    start,
		MaturityDate: start.AddDate(0, 0, days),
		Status:       models.InvStatusActive,
		Reference:    utils.GenerateReference(),
	}
	require.NoError(t, db.Create(inv).Error)
	return inv
}

func wallet(t *testing.T, db *gorm.DB) *models.Wallet {
	t.Helper()
	w, err := ledger.GetWallet(db, 1)
	require.NoError(t, err)
	return w
}

func TestElapsedDays(t *testing.T) {
	base := time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)
	require.Equal(t, 0, elapsedDays(base, base))
	require.Equal(t, 0, elapsedDays(base, base.Add(23*time.Hour)))
	require.Equal(t, 1, elapsedDays(base, base.Add(24*time.Hour)))
	require.Equal(t, 2, elapsedDays(base, base.Add(49*time.Hour)))
	require.Equal(t, 0, elapsedDays(base, base.Add(-time.Hour)))
}

func TestDailyAccrualCreditsProRata(t *testing.T) {
	db := newTestDB(t)
	s := newFundedScheduler(t, db, d("1000"))
	start := time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)
	activePosition(t, db, start, d("1000"), d("5"), 30)

	s.now = func() time.Time { return start.AddDate(0, 0, 1) }
	report := s.RunOnce(context.Background())
	require.Equal(t, 1, report.Credited)
	require.Equal(t, 0, report.Failed)

	// 1000 * 5% * 1/30 = 1.67
	w := wallet(t, db)
	require.True(t, w.AccruedInterest.Equal(d("1.67")), "got %s", w.AccruedInterest)
	require.True(t, w.TotalEarnings.Equal(d("1.67")))
	require.True(t, w.AvailableBalance.IsZero())
}

func TestSameDayRerunDoesNotDoubleCredit(t *testing.T) {
	db := newTestDB(t)
	s := newFundedScheduler(t, db, d("1000"))
	start := time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)
	activePosition(t, db, start, d("1000"), d("5"), 30)

	s.now = func() time.Time { return start.Add(24*time.Hour + 2*time.Hour) }
	first := s.RunOnce(context.Background())
	require.Equal(t, 1, first.Credited)

	second := s.RunOnce(context.Background())
	require.Equal(t, 0, second.Credited)
	require.Equal(t, 1, second.Skipped)

	w := wallet(t, db)
	require.True(t, w.AccruedInterest.Equal(d("1.67")), "got %s", w.AccruedInterest)
}

func TestMissedRunsCatchUp(t *testing.T) {
	db := newTestDB(t)
	s := newFundedScheduler(t, db, d("1000"))
	start := time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)
	activePosition(t, db, start, d("1000"), d("5"), 30)

	// Nothing ran for 10 days; a single pass credits all of them.
	s.now = func() time.Time { return start.AddDate(0, 0, 10) }
	report := s.RunOnce(context.Background())
	require.Equal(t, 1, report.Credited)

	w := wallet(t, db)
	require.True(t, w.AccruedInterest.Equal(d("16.67")), "got %s", w.AccruedInterest)
}

func TestDailyCreditsSumToLumpSum(t *testing.T) {
	db := newTestDB(t)
	s := newFundedScheduler(t, db, d("1234.56"))
	start := time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)
	activePosition(t, db, start, d("1234.56"), d("7.25"), 30)

	for day := 1; day < 30; day++ {
		now := start.AddDate(0, 0, day)
		s.now = func() time.Time { return now }
		s.RunOnce(context.Background())
	}

	w := wallet(t, db)
	lump := models.Accrue(d("1234.56"), d("7.25"), 29, 30)
	require.True(t, w.AccruedInterest.Equal(lump),
		"29 daily credits %s != lump-sum %s", w.AccruedInterest, lump)
}

func TestMaturityReleasesPrincipalAndInterest(t *testing.T) {
	db := newTestDB(t)
	s := newFundedScheduler(t, db, d("1000"))
	start := time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)
	inv := activePosition(t, db, start, d("1000"), d("5"), 30)

	// Accrue a few days first, then jump past maturity.
	s.now = func() time.Time { return start.AddDate(0, 0, 12) }
	s.RunOnce(context.Background())
	s.now = func() time.Time { return start.AddDate(0, 0, 30) }
	report := s.RunOnce(context.Background())
	require.Equal(t, 1, report.Matured)

	w := wallet(t, db)
	require.True(t, w.AvailableBalance.Equal(d("1050")), "got %s", w.AvailableBalance)
	require.True(t, w.InvestedBalance.IsZero())
	require.True(t, w.AccruedInterest.IsZero())
	require.True(t, w.TotalEarnings.Equal(d("50")), "got %s", w.TotalEarnings)

	var reloaded models.UserInvestment
	require.NoError(t, db.First(&reloaded, inv.ID).Error)
	require.Equal(t, models.InvStatusCompleted, reloaded.Status)
	require.True(t, reloaded.AccruedInterest.Equal(d("50")))

	// The maturity pass records one earning transaction for the full interest.
	var earning models.Transaction
	require.NoError(t, db.Where("user_id = ? AND type = ?", 1, models.TxTypeEarning).First(&earning).Error)
	require.True(t, earning.Amount.Equal(d("50")))
	require.Equal(t, models.TxStatusAccepted, earning.Status)
}

func TestMaturedPositionIsNotProcessedAgain(t *testing.T) {
	db := newTestDB(t)
	s := newFundedScheduler(t, db, d("1000"))
	start := time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)
	activePosition(t, db, start, d("1000"), d("5"), 30)

	s.now = func() time.Time { return start.AddDate(0, 0, 31) }
	first := s.RunOnce(context.Background())
	require.Equal(t, 1, first.Matured)

	second := s.RunOnce(context.Background())
	require.Equal(t, 0, second.Matured)
	require.Equal(t, 0, second.Credited)

	w := wallet(t, db)
	require.True(t, w.AvailableBalance.Equal(d("1050")))
	require.True(t, w.TotalEarnings.Equal(d("50")))
}

func TestFailedPositionDoesNotBlockOthers(t *testing.T) {
	db := newTestDB(t)
	s := newFundedScheduler(t, db, d("1000"))
	start := time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)
	activePosition(t, db, start, d("1000"), d("5"), 30)
	// User 2 has a position but no wallet; that unit fails alone.
	orphan := &models.UserInvestment{
		UserID: 2, PlanID: 1, Amount: d("500"), Interest: d("5"),
		DurationDays: 30, StartDate: start, MaturityDate: start.AddDate(0, 0, 30),
		Status: models.InvStatusActive, Reference: utils.GenerateReference(),
	}
	require.NoError(t, db.Create(orphan).Error)

	s.now = func() time.Time { return start.AddDate(0, 0, 1) }
	report := s.RunOnce(context.Background())
	require.Equal(t, 1, report.Credited)
	require.Equal(t, 1, report.Failed)

	w := wallet(t, db)
	require.True(t, w.AccruedInterest.Equal(d("1.67")))
}

func TestOverlappingPassesCreditOnce(t *testing.T) {
	db := newTestDB(t)
	s := newFundedScheduler(t, db, d("1000"))
	start := time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)
	inv := activePosition(t, db, start, d("1000"), d("5"), 30)
	s.now = func() time.Time { return start.AddDate(0, 0, 1) }

	// Two passes each working from their own stale read of the position, as
	// the ticker and the cron endpoint can when their runs overlap. Only the
	// first commit may land; the second must roll its credit back.
	var copyA, copyB models.UserInvestment
	require.NoError(t, db.First(&copyA, inv.ID).Error)
	require.NoError(t, db.First(&copyB, inv.ID).Error)

	outA, err := s.processPosition(context.Background(), &copyA)
	require.NoError(t, err)
	require.Equal(t, outcomeCredited, outA)

	outB, err := s.processPosition(context.Background(), &copyB)
	require.NoError(t, err)
	require.Equal(t, outcomeSkipped, outB)

	w := wallet(t, db)
	require.True(t, w.AccruedInterest.Equal(d("1.67")), "got %s", w.AccruedInterest)
	require.True(t, w.TotalEarnings.Equal(d("1.67")), "got %s", w.TotalEarnings)

	var reloaded models.UserInvestment
	require.NoError(t, db.First(&reloaded, inv.ID).Error)
	require.True(t, reloaded.AccruedInterest.Equal(d("1.67")))
}

func TestOverlappingPassesMatureOnce(t *testing.T) {
	db := newTestDB(t)
	s := newFundedScheduler(t, db, d("1000"))
	start := time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)
	inv := activePosition(t, db, start, d("1000"), d("5"), 30)
	s.now = func() time.Time { return start.AddDate(0, 0, 30) }

	var copyA, copyB models.UserInvestment
	require.NoError(t, db.First(&copyA, inv.ID).Error)
	require.NoError(t, db.First(&copyB, inv.ID).Error)

	outA, err := s.processPosition(context.Background(), &copyA)
	require.NoError(t, err)
	require.Equal(t, outcomeMatured, outA)

	// The second release must not commit: principal would leave the invested
	// bucket twice.
	outB, err := s.processPosition(context.Background(), &copyB)
	require.NoError(t, err)
	require.Equal(t, outcomeSkipped, outB)

	w := wallet(t, db)
	require.True(t, w.AvailableBalance.Equal(d("1050")), "got %s", w.AvailableBalance)
	require.True(t, w.InvestedBalance.IsZero())
	require.True(t, w.TotalEarnings.Equal(d("50")))

	var earnings int64
	require.NoError(t, db.Model(&models.Transaction{}).
		Where("user_id = ? AND type = ?", 1, models.TxTypeEarning).
		Count(&earnings).Error)
	require.Equal(t, int64(1), earnings)
}

func TestOverlappingPlanDepositPassesCreditOnce(t *testing.T) {
	db := newTestDB(t)
	require.NoError(t, db.Transaction(func(tx *gorm.DB) error {
		if _, err := ledger.CreateWallet(tx, 1, "USD"); err != nil {
			return err
		}
		if err := ledger.ReserveForDeposit(tx, 1, d("1000")); err != nil {
			return err
		}
		return ledger.SettleDeposit(tx, 1, d("1000"), true)
	}))
	s := New(db, time.Hour)

	planID := uint(1)
	duration := 30
	roi := d("5")
	txn := &models.Transaction{
		UserID: 1, Type: models.TxTypeDeposit, Method: "btc",
		Amount: d("1000"), Status: models.TxStatusAccepted,
		InvestmentPlanID: &planID, InvestmentDuration: &duration,
		ReturnOnInvestment: &roi, Reference: utils.GenerateReference(),
	}
	require.NoError(t, db.Create(txn).Error)

	var copyA, copyB models.Transaction
	require.NoError(t, db.First(&copyA, txn.ID).Error)
	require.NoError(t, db.First(&copyB, txn.ID).Error)
	s.now = func() time.Time { return copyA.CreatedAt.AddDate(0, 0, 1) }

	outA, err := s.processPlanDeposit(context.Background(), &copyA)
	require.NoError(t, err)
	require.Equal(t, outcomeCredited, outA)

	outB, err := s.processPlanDeposit(context.Background(), &copyB)
	require.NoError(t, err)
	require.Equal(t, outcomeSkipped, outB)

	w := wallet(t, db)
	require.True(t, w.AvailableBalance.Equal(d("1001.67")), "got %s", w.AvailableBalance)
	require.True(t, w.TotalEarnings.Equal(d("1.67")))
}

func TestPlanDepositCreditsToAvailable(t *testing.T) {
	db := newTestDB(t)
	require.NoError(t, db.Transaction(func(tx *gorm.DB) error {
		if _, err := ledger.CreateWallet(tx, 1, "USD"); err != nil {
			return err
		}
		if err := ledger.ReserveForDeposit(tx, 1, d("1000")); err != nil {
			return err
		}
		return ledger.SettleDeposit(tx, 1, d("1000"), true)
	}))
	s := New(db, time.Hour)

	planID := uint(1)
	duration := 30
	roi := d("5")
	txn := &models.Transaction{
		UserID: 1, Type: models.TxTypeDeposit, Method: "btc",
		Amount: d("1000"), Status: models.TxStatusAccepted,
		InvestmentPlanID: &planID, InvestmentDuration: &duration,
		ReturnOnInvestment: &roi, Reference: utils.GenerateReference(),
	}
	require.NoError(t, db.Create(txn).Error)
	var created models.Transaction
	require.NoError(t, db.First(&created, txn.ID).Error)

	s.now = func() time.Time { return created.CreatedAt.AddDate(0, 0, 1) }
	report := s.RunOnce(context.Background())
	require.Equal(t, 1, report.Credited)

	// Principal never left availableBalance; interest lands on top of it.
	w := wallet(t, db)
	require.True(t, w.AvailableBalance.Equal(d("1001.67")), "got %s", w.AvailableBalance)
	require.True(t, w.TotalEarnings.Equal(d("1.67")))
	require.True(t, w.AccruedInterest.IsZero())
}

func TestPlanDepositCompletesAtDuration(t *testing.T) {
	db := newTestDB(t)
	require.NoError(t, db.Transaction(func(tx *gorm.DB) error {
		if _, err := ledger.CreateWallet(tx, 1, "USD"); err != nil {
			return err
		}
		if err := ledger.ReserveForDeposit(tx, 1, d("1000")); err != nil {
			return err
		}
		return ledger.SettleDeposit(tx, 1, d("1000"), true)
	}))
	s := New(db, time.Hour)

	planID := uint(1)
	duration := 30
	roi := d("5")
	txn := &models.Transaction{
		UserID: 1, Type: models.TxTypeDeposit, Method: "btc",
		Amount: d("1000"), Status: models.TxStatusAccepted,
		InvestmentPlanID: &planID, InvestmentDuration: &duration,
		ReturnOnInvestment: &roi, Reference: utils.GenerateReference(),
	}
	require.NoError(t, db.Create(txn).Error)
	var created models.Transaction
	require.NoError(t, db.First(&created, txn.ID).Error)

	s.now = func() time.Time { return created.CreatedAt.AddDate(0, 0, 45) }
	report := s.RunOnce(context.Background())
	require.Equal(t, 1, report.Matured)

	w := wallet(t, db)
	require.True(t, w.AvailableBalance.Equal(d("1050")), "got %s", w.AvailableBalance)
	require.True(t, w.TotalEarnings.Equal(d("50")))

	var reloaded models.Transaction
	require.NoError(t, db.First(&reloaded, txn.ID).Error)
	require.Equal(t, models.TxStatusCompleted, reloaded.Status)

	// Days past the duration never accrue.
	second := s.RunOnce(context.Background())
	require.Equal(t, 0, second.Credited)
	w = wallet(t, db)
	require.True(t, w.AvailableBalance.Equal(d("1050")))
}

func TestRefreshAvgROI(t *testing.T) {
	db := newTestDB(t)
	s := newFundedScheduler(t, db, d("1000"))
	start := time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)
	inv := activePosition(t, db, start, d("1000"), d("5"), 30)

	s.now = func() time.Time { return start.AddDate(0, 0, 15) }
	s.RunOnce(context.Background())

	// 25.00 accrued on 1000 invested = 2.50%
	w := wallet(t, db)
	require.True(t, w.AvgROI.Equal(d("2.50")), "got %s", w.AvgROI)

	// Once the position matures, the wallet has no active positions and the
	// average resets.
	s.now = func() time.Time { return start.AddDate(0, 0, 30) }
	s.RunOnce(context.Background())
	w = wallet(t, db)
	require.True(t, w.AvgROI.IsZero(), "got %s", w.AvgROI)

	var reloaded models.UserInvestment
	require.NoError(t, db.First(&reloaded, inv.ID).Error)
	require.Equal(t, models.InvStatusCompleted, reloaded.Status)
}
