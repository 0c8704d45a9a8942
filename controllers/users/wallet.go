package users

import (
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"strconv"
	"strings"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/JacksonEjeh/truststock-api/database"
	"github.com/JacksonEjeh/truststock-api/ledger"
	"github.com/JacksonEjeh/truststock-api/models"
	"github.com/JacksonEjeh/truststock-api/utils"
)

// Payment methods accepted for deposits and withdrawals.
var validMethods = map[string]bool{
	"btc": true, "ltc": true, "usdt": true, "bank": true, "crypto": true,
}

var minTransactionAmount = decimal.NewFromInt(100)

type DepositRequest struct {
	Amount string `json:"amount" validate:"required"`
	Method string `json:"method" validate:"required"`
	// PlanID attaches the deposit to an investment plan. Once the deposit is
	// approved, the accrual scheduler pays the plan's interest onto the
	// principal while it stays in availableBalance.
	PlanID uint `json:"plan_id"`
}

type WithdrawalRequest struct {
	Amount        string `json:"amount" validate:"required"`
	Method        string `json:"method" validate:"required"`
	WalletAddress string `json:"wallet_address" validate:"required"`
}

// GET /users/wallet
func GetWalletHandler(w http.ResponseWriter, r *http.Request) {
	uid, ok := utils.GetUserID(r)
	if !ok || uid == 0 {
		utils.WriteJSON(w, http.StatusUnauthorized, utils.APIResponse{Success: false, Message: "Unauthorized"})
		return
	}
	wallet, err := ledger.GetWallet(database.DB.WithContext(r.Context()), uid)
	if err != nil {
		utils.WriteDomainError(w, err)
		return
	}
	utils.WriteJSON(w, http.StatusOK, utils.APIResponse{Success: true, Message: "Successfully", Data: map[string]interface{}{
		"wallet":      wallet,
		"total_value": wallet.TotalValue(),
	}})
}

// parseAmount validates a money amount string: a valid decimal, positive, and
// not below the platform minimum.
func parseAmount(raw string) (decimal.Decimal, error) {
	amount, err := models.MoneyFromString(strings.TrimSpace(raw))
	if err != nil {
		return decimal.Zero, ledger.ValidationError("amount must be a valid number")
	}
	if !amount.IsPositive() {
		return decimal.Zero, ledger.ValidationError("amount must be greater than zero")
	}
	if amount.LessThan(minTransactionAmount) {
		return decimal.Zero, ledger.ValidationError("minimum amount is $%s", models.FormatMoney(minTransactionAmount))
	}
	return amount, nil
}

// POST /users/wallet/deposit
// Creates a pending deposit transaction and reserves the amount in the
// pendingDeposits bucket, atomically. Funds become spendable only after the
// approval gate accepts the deposit.
func InitiateDepositHandler(w http.ResponseWriter, r *http.Request) {
	uid, ok := utils.GetUserID(r)
	if !ok || uid == 0 {
		utils.WriteJSON(w, http.StatusUnauthorized, utils.APIResponse{Success: false, Message: "Unauthorized"})
		return
	}

	var req DepositRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		utils.WriteJSON(w, http.StatusBadRequest, utils.APIResponse{Success: false, Message: "Not valid JSON"})
		return
	}
	if err := utils.ValidateStruct(&req); err != nil {
		utils.WriteJSON(w, http.StatusBadRequest, utils.APIResponse{Success: false, Message: "Amount and method are required"})
		return
	}
	if !validMethods[strings.ToLower(req.Method)] {
		utils.WriteJSON(w, http.StatusBadRequest, utils.APIResponse{Success: false, Message: "Unsupported payment method"})
		return
	}
	amount, err := parseAmount(req.Amount)
	if err != nil {
		utils.WriteDomainError(w, err)
		return
	}

	var txn models.Transaction
	err = database.DB.WithContext(r.Context()).Transaction(func(tx *gorm.DB) error {
		if err := ledger.ReserveForDeposit(tx, uid, amount); err != nil {
			return err
		}
		txn = models.Transaction{
			UserID:    uid,
			Type:      models.TxTypeDeposit,
			Method:    strings.ToLower(req.Method),
			Amount:    amount,
			Status:    models.TxStatusPending,
			Reference: utils.GenerateReference(),
		}
		if req.PlanID != 0 {
			// Snapshot the plan's terms onto the transaction so later plan
			// edits never change what an existing deposit pays.
			var plan models.InvestmentPlan
			if err := tx.First(&plan, req.PlanID).Error; err != nil {
				if errors.Is(err, gorm.ErrRecordNotFound) {
					return ledger.ErrPlanNotFound
				}
				return err
			}
			if !plan.AmountInRange(amount) {
				return ledger.ValidationError("amount must be between $%s and $%s for this plan",
					models.FormatMoney(plan.MinAmount), models.FormatMoney(plan.MaxAmount))
			}
			duration := plan.DurationDays()
			txn.InvestmentPlanID = &plan.ID
			txn.InvestmentDuration = &duration
			txn.ReturnOnInvestment = &plan.Interest
		}
		return ledger.WrapDBError(tx.Create(&txn).Error)
	})
	if err != nil {
		var de *ledger.Error
		if errors.As(err, &de) {
			utils.WriteDomainError(w, de)
			return
		}
		log.Printf("[wallet] initiating deposit for user %d: %v", uid, err)
		utils.WriteJSON(w, http.StatusInternalServerError, utils.APIResponse{Success: false, Message: "Internal server error"})
		return
	}

	utils.WriteJSON(w, http.StatusCreated, utils.APIResponse{
		Success: true,
		Message: "Deposit initiated. Awaiting approval.",
		Data:    txn,
	})
}

// POST /users/wallet/withdraw
// Runs behind the compliance gate. Reserves funds out of availableBalance
// into pendingWithdrawals and records the pending transaction as one atomic
// unit; the balance check happens inside, under the wallet row lock.
func InitiateWithdrawalHandler(w http.ResponseWriter, r *http.Request) {
	uid, ok := utils.GetUserID(r)
	if !ok || uid == 0 {
		utils.WriteJSON(w, http.StatusUnauthorized, utils.APIResponse{Success: false, Message: "Unauthorized"})
		return
	}

	var req WithdrawalRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		utils.WriteJSON(w, http.StatusBadRequest, utils.APIResponse{Success: false, Message: "Not valid JSON"})
		return
	}
	if err := utils.ValidateStruct(&req); err != nil {
		utils.WriteJSON(w, http.StatusBadRequest, utils.APIResponse{Success: false, Message: "Amount, method and wallet address are required"})
		return
	}
	if !validMethods[strings.ToLower(req.Method)] {
		utils.WriteJSON(w, http.StatusBadRequest, utils.APIResponse{Success: false, Message: "Unsupported payment method"})
		return
	}
	amount, err := parseAmount(req.Amount)
	if err != nil {
		utils.WriteDomainError(w, err)
		return
	}

	walletAddress := strings.TrimSpace(req.WalletAddress)
	var txn models.Transaction
	err = database.DB.WithContext(r.Context()).Transaction(func(tx *gorm.DB) error {
		if err := ledger.ReserveForWithdrawal(tx, uid, amount); err != nil {
			return err
		}
		txn = models.Transaction{
			UserID:        uid,
			Type:          models.TxTypeWithdrawal,
			Method:        strings.ToLower(req.Method),
			Amount:        amount,
			Status:        models.TxStatusPending,
			WalletAddress: &walletAddress,
			Reference:     utils.GenerateReference(),
		}
		return ledger.WrapDBError(tx.Create(&txn).Error)
	})
	if err != nil {
		var de *ledger.Error
		if errors.As(err, &de) {
			utils.WriteDomainError(w, de)
			return
		}
		log.Printf("[wallet] initiating withdrawal for user %d: %v", uid, err)
		utils.WriteJSON(w, http.StatusInternalServerError, utils.APIResponse{Success: false, Message: "Internal server error"})
		return
	}

	utils.WriteJSON(w, http.StatusCreated, utils.APIResponse{
		Success: true,
		Message: "Withdrawal initiated. Awaiting approval.",
		Data:    txn,
	})
}

// GET /users/wallet/transactions
func GetTransactionsHandler(w http.ResponseWriter, r *http.Request) {
	uid, ok := utils.GetUserID(r)
	if !ok || uid == 0 {
		utils.WriteJSON(w, http.StatusUnauthorized, utils.APIResponse{Success: false, Message: "Unauthorized"})
		return
	}

	page, _ := strconv.Atoi(r.URL.Query().Get("page"))
	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))
	if page < 1 {
		page = 1
	}
	if limit < 1 || limit > 100 {
		limit = 20
	}

	db := database.DB.WithContext(r.Context())
	query := db.Model(&models.Transaction{}).Where("user_id = ?", uid)
	if txType := r.URL.Query().Get("type"); txType != "" {
		query = query.Where("type = ?", txType)
	}
	if status := r.URL.Query().Get("status"); status != "" {
		query = query.Where("status = ?", status)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		utils.WriteJSON(w, http.StatusInternalServerError, utils.APIResponse{Success: false, Message: "Internal server error"})
		return
	}
	var txns []models.Transaction
	if err := query.Order("created_at DESC").Offset((page - 1) * limit).Limit(limit).Find(&txns).Error; err != nil {
		utils.WriteJSON(w, http.StatusInternalServerError, utils.APIResponse{Success: false, Message: "Internal server error"})
		return
	}

	utils.WriteJSON(w, http.StatusOK, utils.APIResponse{Success: true, Message: "Successfully", Data: map[string]interface{}{
		"transactions": txns,
		"total":        total,
		"page":         page,
		"limit":        limit,
	}})
}
