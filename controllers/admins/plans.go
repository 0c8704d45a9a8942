package admins

import (
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"strconv"

	"github.com/gorilla/mux"
	"gorm.io/gorm"

	"github.com/JacksonEjeh/truststock-api/database"
	"github.com/JacksonEjeh/truststock-api/ledger"
	"github.com/JacksonEjeh/truststock-api/models"
	"github.com/JacksonEjeh/truststock-api/utils"
)

type PlanRequest struct {
	Name          string `json:"investment_plan" validate:"required,max=50"`
	Type          string `json:"investment_type" validate:"omitempty,oneof=personal retirement joint corporate"`
	DurationValue int    `json:"duration_value" validate:"required,gt=0"`
	DurationUnit  string `json:"duration_unit" validate:"required,oneof=days months years"`
	Interest      string `json:"interest" validate:"required"`
	MinAmount     string `json:"min_amount" validate:"required"`
	MaxAmount     string `json:"max_amount" validate:"required"`
}

// toPlan validates the money fields and builds the catalog entry.
func (req *PlanRequest) toPlan(adminID int64) (*models.InvestmentPlan, error) {
	interest, err := models.MoneyFromString(req.Interest)
	if err != nil || !interest.IsPositive() {
		return nil, ledger.ValidationError("interest must be a positive percentage")
	}
	minAmount, err := models.MoneyFromString(req.MinAmount)
	if err != nil || !minAmount.IsPositive() {
		return nil, ledger.ValidationError("min_amount must be a positive number")
	}
	maxAmount, err := models.MoneyFromString(req.MaxAmount)
	if err != nil || maxAmount.LessThan(minAmount) {
		return nil, ledger.ValidationError("max_amount must be at least min_amount")
	}
	planType := req.Type
	if planType == "" {
		planType = "personal"
	}
	return &models.InvestmentPlan{
		AdminID:       adminID,
		Name:          req.Name,
		Type:          planType,
		DurationValue: req.DurationValue,
		DurationUnit:  req.DurationUnit,
		Interest:      interest,
		MinAmount:     minAmount,
		MaxAmount:     maxAmount,
	}, nil
}

// POST /admin/plans
func CreatePlanHandler(w http.ResponseWriter, r *http.Request) {
	adminID, ok := utils.GetAdminID(r)
	if !ok || adminID == 0 {
		utils.WriteJSON(w, http.StatusUnauthorized, utils.APIResponse{Success: false, Message: "Unauthorized"})
		return
	}

	var req PlanRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		utils.WriteJSON(w, http.StatusBadRequest, utils.APIResponse{Success: false, Message: "Not valid JSON"})
		return
	}
	if err := utils.ValidateStruct(&req); err != nil {
		utils.WriteJSON(w, http.StatusBadRequest, utils.APIResponse{Success: false, Message: "Invalid plan payload"})
		return
	}
	plan, err := req.toPlan(adminID)
	if err != nil {
		utils.WriteDomainError(w, err)
		return
	}

	if err := database.DB.WithContext(r.Context()).Create(plan).Error; err != nil {
		log.Printf("[plans] creating plan: %v", err)
		utils.WriteJSON(w, http.StatusInternalServerError, utils.APIResponse{Success: false, Message: "Internal server error"})
		return
	}
	utils.WriteJSON(w, http.StatusCreated, utils.APIResponse{Success: true, Message: "Plan created", Data: plan})
}

// PUT /admin/plans/{id}
// Edits the catalog entry only. Open positions keep the terms snapshotted at
// purchase.
func UpdatePlanHandler(w http.ResponseWriter, r *http.Request) {
	adminID, ok := utils.GetAdminID(r)
	if !ok || adminID == 0 {
		utils.WriteJSON(w, http.StatusUnauthorized, utils.APIResponse{Success: false, Message: "Unauthorized"})
		return
	}
	planID, err := strconv.ParseUint(mux.Vars(r)["id"], 10, 64)
	if err != nil {
		utils.WriteDomainError(w, ledger.ValidationError("invalid plan id"))
		return
	}

	var req PlanRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		utils.WriteJSON(w, http.StatusBadRequest, utils.APIResponse{Success: false, Message: "Not valid JSON"})
		return
	}
	if err := utils.ValidateStruct(&req); err != nil {
		utils.WriteJSON(w, http.StatusBadRequest, utils.APIResponse{Success: false, Message: "Invalid plan payload"})
		return
	}
	updated, err := req.toPlan(adminID)
	if err != nil {
		utils.WriteDomainError(w, err)
		return
	}

	db := database.DB.WithContext(r.Context())
	var plan models.InvestmentPlan
	if err := db.First(&plan, planID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			utils.WriteDomainError(w, ledger.ErrPlanNotFound)
			return
		}
		utils.WriteJSON(w, http.StatusInternalServerError, utils.APIResponse{Success: false, Message: "Internal server error"})
		return
	}

	updates := map[string]interface{}{
		"investment_plan": updated.Name,
		"investment_type": updated.Type,
		"duration_value":  updated.DurationValue,
		"duration_unit":   updated.DurationUnit,
		"interest":        updated.Interest,
		"min_amount":      updated.MinAmount,
		"max_amount":      updated.MaxAmount,
	}
	if err := db.Model(&plan).Updates(updates).Error; err != nil {
		log.Printf("[plans] updating plan %d: %v", planID, err)
		utils.WriteJSON(w, http.StatusInternalServerError, utils.APIResponse{Success: false, Message: "Internal server error"})
		return
	}
	utils.WriteJSON(w, http.StatusOK, utils.APIResponse{Success: true, Message: "Plan updated", Data: plan})
}

// DELETE /admin/plans/{id}
// Refused while any active position references the plan; positions snapshot
// their terms but still join back to the catalog row for display.
func DeletePlanHandler(w http.ResponseWriter, r *http.Request) {
	adminID, ok := utils.GetAdminID(r)
	if !ok || adminID == 0 {
		utils.WriteJSON(w, http.StatusUnauthorized, utils.APIResponse{Success: false, Message: "Unauthorized"})
		return
	}
	planID, err := strconv.ParseUint(mux.Vars(r)["id"], 10, 64)
	if err != nil {
		utils.WriteDomainError(w, ledger.ValidationError("invalid plan id"))
		return
	}

	db := database.DB.WithContext(r.Context())
	var active int64
	if err := db.Model(&models.UserInvestment{}).
		Where("plan_id = ? AND status = ?", planID, models.InvStatusActive).
		Count(&active).Error; err != nil {
		utils.WriteJSON(w, http.StatusInternalServerError, utils.APIResponse{Success: false, Message: "Internal server error"})
		return
	}
	if active > 0 {
		utils.WriteDomainError(w, ledger.ValidationError("plan has %d active investments and cannot be deleted", active))
		return
	}

	res := db.Delete(&models.InvestmentPlan{}, planID)
	if res.Error != nil {
		log.Printf("[plans] deleting plan %d: %v", planID, res.Error)
		utils.WriteJSON(w, http.StatusInternalServerError, utils.APIResponse{Success: false, Message: "Internal server error"})
		return
	}
	if res.RowsAffected == 0 {
		utils.WriteDomainError(w, ledger.ErrPlanNotFound)
		return
	}
	utils.WriteJSON(w, http.StatusOK, utils.APIResponse{Success: true, Message: "Plan deleted"})
}

// GET /admin/plans
func ListPlansHandler(w http.ResponseWriter, r *http.Request) {
	if _, ok := utils.GetAdminID(r); !ok {
		utils.WriteJSON(w, http.StatusUnauthorized, utils.APIResponse{Success: false, Message: "Unauthorized"})
		return
	}
	var plans []models.InvestmentPlan
	if err := database.DB.WithContext(r.Context()).Order("id ASC").Find(&plans).Error; err != nil {
		utils.WriteJSON(w, http.StatusInternalServerError, utils.APIResponse{Success: false, Message: "Internal server error"})
		return
	}
	utils.WriteJSON(w, http.StatusOK, utils.APIResponse{Success: true, Message: "Successfully", Data: plans})
}
