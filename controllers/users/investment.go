package users

import (
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"time"

	"gorm.io/gorm"

	"github.com/JacksonEjeh/truststock-api/database"
	"github.com/JacksonEjeh/truststock-api/ledger"
	"github.com/JacksonEjeh/truststock-api/models"
	"github.com/JacksonEjeh/truststock-api/utils"
)

type CreateInvestmentRequest struct {
	PlanID uint   `json:"plan_id" validate:"required"`
	Amount string `json:"amount" validate:"required"`
}

// GET /users/plans
func GetPlansHandler(w http.ResponseWriter, r *http.Request) {
	var plans []models.InvestmentPlan
	if err := database.DB.WithContext(r.Context()).Order("min_amount ASC").Find(&plans).Error; err != nil {
		log.Printf("[investment] listing plans: %v", err)
		utils.WriteJSON(w, http.StatusInternalServerError, utils.APIResponse{Success: false, Message: "Internal server error"})
		return
	}
	utils.WriteJSON(w, http.StatusOK, utils.APIResponse{Success: true, Message: "Successfully", Data: plans})
}

// POST /users/investments
// Moves principal from availableBalance into totalInvested, snapshots the plan
// terms into a new position and records the accepted investment transaction,
// all in one database transaction.
func CreateInvestmentHandler(w http.ResponseWriter, r *http.Request) {
	uid, ok := utils.GetUserID(r)
	if !ok || uid == 0 {
		utils.WriteJSON(w, http.StatusUnauthorized, utils.APIResponse{Success: false, Message: "Unauthorized"})
		return
	}

	var req CreateInvestmentRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		utils.WriteJSON(w, http.StatusBadRequest, utils.APIResponse{Success: false, Message: "Not valid JSON"})
		return
	}
	if err := utils.ValidateStruct(&req); err != nil {
		utils.WriteJSON(w, http.StatusBadRequest, utils.APIResponse{Success: false, Message: "Plan and amount are required"})
		return
	}
	amount, err := models.MoneyFromString(req.Amount)
	if err != nil || !amount.IsPositive() {
		utils.WriteDomainError(w, ledger.ValidationError("amount must be a positive number"))
		return
	}

	var plan models.InvestmentPlan
	if err := database.DB.WithContext(r.Context()).First(&plan, req.PlanID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			utils.WriteDomainError(w, ledger.ErrPlanNotFound)
			return
		}
		utils.WriteJSON(w, http.StatusInternalServerError, utils.APIResponse{Success: false, Message: "Internal server error"})
		return
	}
	if !plan.AmountInRange(amount) {
		utils.WriteDomainError(w, ledger.ValidationError(
			"amount must be between $%s and $%s for the %s plan",
			models.FormatMoney(plan.MinAmount), models.FormatMoney(plan.MaxAmount), plan.Name))
		return
	}

	durationDays := plan.DurationDays()
	now := time.Now().UTC()
	position := models.UserInvestment{
		UserID:       uid,
		PlanID:       plan.ID,
		Amount:       amount,
		Interest:     plan.Interest,
		DurationDays: durationDays,
		StartDate:    now,
		MaturityDate: now.AddDate(0, 0, durationDays),
		Status:       models.InvStatusActive,
		Reference:    utils.GenerateReference(),
	}

	err = database.DB.WithContext(r.Context()).Transaction(func(tx *gorm.DB) error {
		if err := ledger.MoveToInvested(tx, uid, amount); err != nil {
			return err
		}
		if err := ledger.WrapDBError(tx.Create(&position).Error); err != nil {
			return err
		}
		txn := models.Transaction{
			UserID:             uid,
			Type:               models.TxTypeInvestment,
			Method:             "wallet",
			Amount:             amount,
			Status:             models.TxStatusAccepted,
			InvestmentPlanID:   &plan.ID,
			InvestmentDuration: &durationDays,
			ReturnOnInvestment: &plan.Interest,
			Reference:          position.Reference,
		}
		return ledger.WrapDBError(tx.Create(&txn).Error)
	})
	if err != nil {
		var de *ledger.Error
		if errors.As(err, &de) {
			utils.WriteDomainError(w, de)
			return
		}
		log.Printf("[investment] creating position for user %d plan %d: %v", uid, plan.ID, err)
		utils.WriteJSON(w, http.StatusInternalServerError, utils.APIResponse{Success: false, Message: "Internal server error"})
		return
	}

	position.Plan = &plan
	utils.WriteJSON(w, http.StatusCreated, utils.APIResponse{
		Success: true,
		Message: "Investment created",
		Data:    position,
	})
}

// GET /users/investments
func GetInvestmentsHandler(w http.ResponseWriter, r *http.Request) {
	uid, ok := utils.GetUserID(r)
	if !ok || uid == 0 {
		utils.WriteJSON(w, http.StatusUnauthorized, utils.APIResponse{Success: false, Message: "Unauthorized"})
		return
	}

	query := database.DB.WithContext(r.Context()).
		Preload("Plan").
		Where("user_id = ?", uid)
	if status := r.URL.Query().Get("status"); status != "" {
		query = query.Where("status = ?", status)
	}

	var positions []models.UserInvestment
	if err := query.Order("created_at DESC").Find(&positions).Error; err != nil {
		log.Printf("[investment] listing positions for user %d: %v", uid, err)
		utils.WriteJSON(w, http.StatusInternalServerError, utils.APIResponse{Success: false, Message: "Internal server error"})
		return
	}
	utils.WriteJSON(w, http.StatusOK, utils.APIResponse{Success: true, Message: "Successfully", Data: positions})
}
