package admins

import (
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"net/http"
	"strconv"

	"github.com/gorilla/mux"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/JacksonEjeh/truststock-api/database"
	"github.com/JacksonEjeh/truststock-api/ledger"
	"github.com/JacksonEjeh/truststock-api/models"
	"github.com/JacksonEjeh/truststock-api/utils"
)

type ResolveRequest struct {
	Action  string `json:"action" validate:"required,oneof=approve reject"`
	Message string `json:"message"`
}

// POST /admin/deposits/{id}/resolve
func ResolveDepositHandler(w http.ResponseWriter, r *http.Request) {
	resolveTransaction(w, r, models.TxTypeDeposit)
}

// POST /admin/withdrawals/{id}/resolve
func ResolveWithdrawalHandler(w http.ResponseWriter, r *http.Request) {
	resolveTransaction(w, r, models.TxTypeWithdrawal)
}

// resolveTransaction is the approval gate. The status check, the wallet
// settlement and the status write happen under one database transaction with
// the row locked, so a transaction can be resolved exactly once.
func resolveTransaction(w http.ResponseWriter, r *http.Request, wantType string) {
	adminID, ok := utils.GetAdminID(r)
	if !ok || adminID == 0 {
		utils.WriteJSON(w, http.StatusUnauthorized, utils.APIResponse{Success: false, Message: "Unauthorized"})
		return
	}
	txnID, err := strconv.ParseUint(mux.Vars(r)["id"], 10, 64)
	if err != nil {
		utils.WriteDomainError(w, ledger.ValidationError("invalid transaction id"))
		return
	}

	var req ResolveRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		utils.WriteJSON(w, http.StatusBadRequest, utils.APIResponse{Success: false, Message: "Not valid JSON"})
		return
	}
	if err := utils.ValidateStruct(&req); err != nil {
		utils.WriteJSON(w, http.StatusBadRequest, utils.APIResponse{Success: false, Message: "Action must be approve or reject"})
		return
	}
	approved := req.Action == "approve"

	var txn models.Transaction
	err = database.DB.WithContext(r.Context()).Transaction(func(tx *gorm.DB) error {
		q := tx
		if tx.Dialector.Name() == "mysql" {
			q = q.Clauses(clause.Locking{Strength: "UPDATE"})
		}
		if err := q.First(&txn, txnID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ledger.ErrTransactionNotFound
			}
			return err
		}
		if txn.Type != wantType {
			return ledger.ErrTypeMismatch
		}
		if txn.IsResolved() {
			return ledger.ErrAlreadyResolved
		}

		switch wantType {
		case models.TxTypeDeposit:
			if err := ledger.SettleDeposit(tx, txn.UserID, txn.Amount, approved); err != nil {
				return err
			}
		case models.TxTypeWithdrawal:
			if err := ledger.SettleWithdrawal(tx, txn.UserID, txn.Amount, approved); err != nil {
				return err
			}
		}

		status := models.TxStatusAccepted
		if !approved {
			status = models.TxStatusRejected
		}
		updates := map[string]interface{}{
			"status":      status,
			"approved_by": adminID,
		}
		if req.Message != "" {
			updates["message"] = req.Message
		}
		if err := tx.Model(&txn).Updates(updates).Error; err != nil {
			return err
		}
		txn.Status = status
		txn.ApprovedBy = &adminID
		return nil
	})
	if err != nil {
		var de *ledger.Error
		if errors.As(err, &de) {
			utils.WriteDomainError(w, de)
			return
		}
		log.Printf("[approvals] resolving %s %d: %v", wantType, txnID, err)
		utils.WriteJSON(w, http.StatusInternalServerError, utils.APIResponse{Success: false, Message: "Internal server error"})
		return
	}

	notifyResolution(&txn, approved)

	utils.WriteJSON(w, http.StatusOK, utils.APIResponse{Success: true, Message: "Transaction resolved", Data: txn})
}

func notifyResolution(txn *models.Transaction, approved bool) {
	var user models.User
	if err := database.DB.First(&user, txn.UserID).Error; err != nil {
		log.Printf("[approvals] loading user %d for notification: %v", txn.UserID, err)
		return
	}
	verdict := "approved"
	if !approved {
		verdict = "rejected"
	}
	subject := fmt.Sprintf("Your %s has been %s", txn.Type, verdict)
	body := fmt.Sprintf(
		"Hello %s,\n\nYour %s of $%s (reference %s) has been %s.\n\nTruststock Team",
		user.Username, txn.Type, models.FormatMoney(txn.Amount), txn.Reference, verdict,
	)
	utils.NotifyAsync(user.Email, subject, body)
}

// GET /admin/transactions
func ListTransactionsHandler(w http.ResponseWriter, r *http.Request) {
	if _, ok := utils.GetAdminID(r); !ok {
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

	query := database.DB.WithContext(r.Context()).Model(&models.Transaction{})
	if txType := r.URL.Query().Get("type"); txType != "" {
		query = query.Where("type = ?", txType)
	}
	if status := r.URL.Query().Get("status"); status != "" {
		query = query.Where("status = ?", status)
	}
	if userID := r.URL.Query().Get("user_id"); userID != "" {
		query = query.Where("user_id = ?", userID)
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
