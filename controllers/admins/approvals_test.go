package admins

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gorilla/mux"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/JacksonEjeh/truststock-api/database"
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

func setupDB(t *testing.T) *gorm.DB {
	t.Helper()
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", strings.ReplaceAll(t.Name(), "/", "_"))
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(
		&models.User{}, &models.Wallet{}, &models.Transaction{},
	))
	prev := database.DB
	database.DB = db
	t.Cleanup(func() {
		database.DB = prev
		sqlDB, _ := db.DB()
		_ = sqlDB.Close()
	})
	return db
}

// pendingTxn seeds a user with a wallet and one pending transaction, with the
// matching bucket already reserved as the initiation handlers would leave it.
func pendingTxn(t *testing.T, db *gorm.DB, txType string, amount decimal.Decimal) *models.Transaction {
	t.Helper()
	user := &models.User{Username: "alice", Email: "alice@example.com", Password: "x", Status: "Active"}
	require.NoError(t, db.Create(user).Error)
	require.NoError(t, db.Transaction(func(tx *gorm.DB) error {
		if _, err := ledger.CreateWallet(tx, user.ID, "USD"); err != nil {
			return err
		}
		switch txType {
		case models.TxTypeDeposit:
			return ledger.ReserveForDeposit(tx, user.ID, amount)
		case models.TxTypeWithdrawal:
			if err := ledger.ReserveForDeposit(tx, user.ID, amount); err != nil {
				return err
			}
			if err := ledger.SettleDeposit(tx, user.ID, amount, true); err != nil {
				return err
			}
			return ledger.ReserveForWithdrawal(tx, user.ID, amount)
		}
		return nil
	}))
	txn := &models.Transaction{
		UserID: user.ID, Type: txType, Method: "btc",
		Amount: amount, Status: models.TxStatusPending,
		Reference: utils.GenerateReference(),
	}
	require.NoError(t, db.Create(txn).Error)
	return txn
}

func resolveRequest(t *testing.T, path, body string) *http.Request {
	t.Helper()
	req := httptest.NewRequest(http.MethodPost, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	return req.WithContext(context.WithValue(req.Context(), utils.AdminIDKey, int64(7)))
}

func newRouter() *mux.Router {
	r := mux.NewRouter()
	r.HandleFunc("/admin/deposits/{id:[0-9]+}/resolve", ResolveDepositHandler).Methods(http.MethodPost)
	r.HandleFunc("/admin/withdrawals/{id:[0-9]+}/resolve", ResolveWithdrawalHandler).Methods(http.MethodPost)
	return r
}

func TestResolveDepositApprove(t *testing.T) {
	db := setupDB(t)
	txn := pendingTxn(t, db, models.TxTypeDeposit, d("500"))

	rec := httptest.NewRecorder()
	newRouter().ServeHTTP(rec, resolveRequest(t,
		fmt.Sprintf("/admin/deposits/%d/resolve", txn.ID), `{"action":"approve"}`))
	require.Equal(t, http.StatusOK, rec.Code)

	w, err := ledger.GetWallet(db, txn.UserID)
	require.NoError(t, err)
	require.True(t, w.AvailableBalance.Equal(d("500")))
	require.True(t, w.PendingDeposits.IsZero())

	var reloaded models.Transaction
	require.NoError(t, db.First(&reloaded, txn.ID).Error)
	require.Equal(t, models.TxStatusAccepted, reloaded.Status)
	require.NotNil(t, reloaded.ApprovedBy)
	require.Equal(t, int64(7), *reloaded.ApprovedBy)
}

func TestResolveDepositReject(t *testing.T) {
	db := setupDB(t)
	txn := pendingTxn(t, db, models.TxTypeDeposit, d("500"))

	rec := httptest.NewRecorder()
	newRouter().ServeHTTP(rec, resolveRequest(t,
		fmt.Sprintf("/admin/deposits/%d/resolve", txn.ID), `{"action":"reject","message":"source of funds unclear"}`))
	require.Equal(t, http.StatusOK, rec.Code)

	w, err := ledger.GetWallet(db, txn.UserID)
	require.NoError(t, err)
	require.True(t, w.AvailableBalance.IsZero())
	require.True(t, w.PendingDeposits.IsZero())

	var reloaded models.Transaction
	require.NoError(t, db.First(&reloaded, txn.ID).Error)
	require.Equal(t, models.TxStatusRejected, reloaded.Status)
	require.NotNil(t, reloaded.Message)
	require.Equal(t, "source of funds unclear", *reloaded.Message)
}

func TestResolveIsIdempotentGuarded(t *testing.T) {
	db := setupDB(t)
	txn := pendingTxn(t, db, models.TxTypeDeposit, d("500"))

	path := fmt.Sprintf("/admin/deposits/%d/resolve", txn.ID)
	rec := httptest.NewRecorder()
	newRouter().ServeHTTP(rec, resolveRequest(t, path, `{"action":"approve"}`))
	require.Equal(t, http.StatusOK, rec.Code)

	// Second resolution is refused and the wallet stays put.
	rec = httptest.NewRecorder()
	newRouter().ServeHTTP(rec, resolveRequest(t, path, `{"action":"approve"}`))
	require.Equal(t, http.StatusConflict, rec.Code)

	w, err := ledger.GetWallet(db, txn.UserID)
	require.NoError(t, err)
	require.True(t, w.AvailableBalance.Equal(d("500")))
}

func TestResolveTypeMismatch(t *testing.T) {
	db := setupDB(t)
	txn := pendingTxn(t, db, models.TxTypeDeposit, d("500"))

	// A deposit routed through the withdrawal resolver is refused.
	rec := httptest.NewRecorder()
	newRouter().ServeHTTP(rec, resolveRequest(t,
		fmt.Sprintf("/admin/withdrawals/%d/resolve", txn.ID), `{"action":"approve"}`))
	require.Equal(t, http.StatusConflict, rec.Code)

	var reloaded models.Transaction
	require.NoError(t, db.First(&reloaded, txn.ID).Error)
	require.Equal(t, models.TxStatusPending, reloaded.Status)
}

func TestResolveWithdrawalReject(t *testing.T) {
	db := setupDB(t)
	txn := pendingTxn(t, db, models.TxTypeWithdrawal, d("300"))

	rec := httptest.NewRecorder()
	newRouter().ServeHTTP(rec, resolveRequest(t,
		fmt.Sprintf("/admin/withdrawals/%d/resolve", txn.ID), `{"action":"reject"}`))
	require.Equal(t, http.StatusOK, rec.Code)

	// Rejected withdrawals restore the spendable balance.
	w, err := ledger.GetWallet(db, txn.UserID)
	require.NoError(t, err)
	require.True(t, w.AvailableBalance.Equal(d("300")))
	require.True(t, w.PendingWithdrawals.IsZero())
}

func TestResolveUnknownTransaction(t *testing.T) {
	setupDB(t)
	rec := httptest.NewRecorder()
	newRouter().ServeHTTP(rec, resolveRequest(t, "/admin/deposits/9999/resolve", `{"action":"approve"}`))
	require.Equal(t, http.StatusNotFound, rec.Code)
}

func TestResolveInvalidAction(t *testing.T) {
	db := setupDB(t)
	txn := pendingTxn(t, db, models.TxTypeDeposit, d("500"))

	rec := httptest.NewRecorder()
	newRouter().ServeHTTP(rec, resolveRequest(t,
		fmt.Sprintf("/admin/deposits/%d/resolve", txn.ID), `{"action":"maybe"}`))
	require.Equal(t, http.StatusBadRequest, rec.Code)
}
