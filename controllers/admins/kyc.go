package admins

import (
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"net/http"
	"strconv"
	"time"

	"github.com/gorilla/mux"
	"gorm.io/gorm"

	"github.com/JacksonEjeh/truststock-api/database"
	"github.com/JacksonEjeh/truststock-api/ledger"
	"github.com/JacksonEjeh/truststock-api/models"
	"github.com/JacksonEjeh/truststock-api/utils"
)

type ReviewKycRequest struct {
	Verdict string `json:"verdict" validate:"required,oneof=verified rejected"`
	Notes   string `json:"notes"`
}

// POST /admin/kyc/{user_id}/review
func ReviewKycHandler(w http.ResponseWriter, r *http.Request) {
	adminID, ok := utils.GetAdminID(r)
	if !ok || adminID == 0 {
		utils.WriteJSON(w, http.StatusUnauthorized, utils.APIResponse{Success: false, Message: "Unauthorized"})
		return
	}
	userID, err := strconv.ParseUint(mux.Vars(r)["user_id"], 10, 64)
	if err != nil {
		utils.WriteDomainError(w, ledger.ValidationError("invalid user id"))
		return
	}

	var req ReviewKycRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		utils.WriteJSON(w, http.StatusBadRequest, utils.APIResponse{Success: false, Message: "Not valid JSON"})
		return
	}
	if err := utils.ValidateStruct(&req); err != nil {
		utils.WriteJSON(w, http.StatusBadRequest, utils.APIResponse{Success: false, Message: "Verdict must be verified or rejected"})
		return
	}

	db := database.DB.WithContext(r.Context())
	var user models.User
	if err := db.First(&user, userID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			utils.WriteJSON(w, http.StatusNotFound, utils.APIResponse{Success: false, Message: "User not found"})
			return
		}
		utils.WriteJSON(w, http.StatusInternalServerError, utils.APIResponse{Success: false, Message: "Internal server error"})
		return
	}

	now := time.Now().UTC()
	updates := map[string]interface{}{
		"kyc_status":      req.Verdict,
		"kyc_reviewed_by": adminID,
		"kyc_reviewed_at": now,
	}
	if req.Notes != "" {
		updates["kyc_notes"] = req.Notes
	}
	if err := db.Model(&user).Updates(updates).Error; err != nil {
		log.Printf("[kyc] reviewing user %d: %v", userID, err)
		utils.WriteJSON(w, http.StatusInternalServerError, utils.APIResponse{Success: false, Message: "Internal server error"})
		return
	}

	subject := "Your identity verification was approved"
	body := fmt.Sprintf("Hello %s,\n\nYour identity verification has been approved. Withdrawals are now enabled on your account.\n\nTruststock Team", user.Username)
	if req.Verdict == models.KycStatusRejected {
		subject = "Your identity verification needs attention"
		body = fmt.Sprintf("Hello %s,\n\nYour identity verification was not approved. Please re-submit your documents.\n\nTruststock Team", user.Username)
		if req.Notes != "" {
			body = fmt.Sprintf("Hello %s,\n\nYour identity verification was not approved: %s\nPlease re-submit your documents.\n\nTruststock Team", user.Username, req.Notes)
		}
	}
	utils.NotifyAsync(user.Email, subject, body)

	user.KycStatus = req.Verdict
	utils.WriteJSON(w, http.StatusOK, utils.APIResponse{Success: true, Message: "KYC review recorded", Data: user})
}

// GET /admin/kyc/pending
// Lists users waiting for review along with their submitted documents.
func ListPendingKycHandler(w http.ResponseWriter, r *http.Request) {
	if _, ok := utils.GetAdminID(r); !ok {
		utils.WriteJSON(w, http.StatusUnauthorized, utils.APIResponse{Success: false, Message: "Unauthorized"})
		return
	}

	db := database.DB.WithContext(r.Context())
	var users []models.User
	if err := db.Where("kyc_status = ?", models.KycStatusPending).
		Order("created_at ASC").Find(&users).Error; err != nil {
		utils.WriteJSON(w, http.StatusInternalServerError, utils.APIResponse{Success: false, Message: "Internal server error"})
		return
	}

	type pendingReview struct {
		User      models.User          `json:"user"`
		Documents []models.KycDocument `json:"documents"`
	}
	reviews := make([]pendingReview, 0, len(users))
	for _, u := range users {
		var docs []models.KycDocument
		if err := db.Where("user_id = ?", u.ID).Order("created_at DESC").Find(&docs).Error; err != nil {
			utils.WriteJSON(w, http.StatusInternalServerError, utils.APIResponse{Success: false, Message: "Internal server error"})
			return
		}
		reviews = append(reviews, pendingReview{User: u, Documents: docs})
	}

	utils.WriteJSON(w, http.StatusOK, utils.APIResponse{Success: true, Message: "Successfully", Data: reviews})
}
