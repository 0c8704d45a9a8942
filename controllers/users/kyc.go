package users

import (
	"encoding/json"
	"log"
	"net/http"
	"strings"

	"github.com/JacksonEjeh/truststock-api/database"
	"github.com/JacksonEjeh/truststock-api/middleware"
	"github.com/JacksonEjeh/truststock-api/models"
	"github.com/JacksonEjeh/truststock-api/utils"
)

type SubmitKycDocumentRequest struct {
	Kind      string `json:"kind" validate:"required,oneof=id selfie"`
	Reference string `json:"reference" validate:"required"`
}

// POST /users/kyc/documents
// Records a compliance capture already stored with the external document
// service. Re-submitting after a rejection moves the user back to pending
// review.
func SubmitKycDocumentHandler(w http.ResponseWriter, r *http.Request) {
	uid, ok := utils.GetUserID(r)
	if !ok || uid == 0 {
		utils.WriteJSON(w, http.StatusUnauthorized, utils.APIResponse{Success: false, Message: "Unauthorized"})
		return
	}

	var req SubmitKycDocumentRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		utils.WriteJSON(w, http.StatusBadRequest, utils.APIResponse{Success: false, Message: "Not valid JSON"})
		return
	}
	if err := utils.ValidateStruct(&req); err != nil {
		utils.WriteJSON(w, http.StatusBadRequest, utils.APIResponse{Success: false, Message: "Kind must be id or selfie and reference is required"})
		return
	}

	db := database.DB.WithContext(r.Context())
	doc := models.KycDocument{
		UserID:    uid,
		Kind:      req.Kind,
		Reference: strings.TrimSpace(req.Reference),
	}
	if err := db.Create(&doc).Error; err != nil {
		log.Printf("[kyc] saving document for user %d: %v", uid, err)
		utils.WriteJSON(w, http.StatusInternalServerError, utils.APIResponse{Success: false, Message: "Internal server error"})
		return
	}

	// A fresh submission after rejection reopens the review.
	if err := db.Model(&models.User{}).
		Where("id = ? AND kyc_status = ?", uid, models.KycStatusRejected).
		Update("kyc_status", models.KycStatusPending).Error; err != nil {
		log.Printf("[kyc] reopening review for user %d: %v", uid, err)
	}

	utils.WriteJSON(w, http.StatusCreated, utils.APIResponse{Success: true, Message: "Document submitted", Data: doc})
}

// GET /users/kyc/status
func GetKycStatusHandler(w http.ResponseWriter, r *http.Request) {
	uid, ok := utils.GetUserID(r)
	if !ok || uid == 0 {
		utils.WriteJSON(w, http.StatusUnauthorized, utils.APIResponse{Success: false, Message: "Unauthorized"})
		return
	}

	db := database.DB.WithContext(r.Context())
	var user models.User
	if err := db.First(&user, uid).Error; err != nil {
		utils.WriteJSON(w, http.StatusNotFound, utils.APIResponse{Success: false, Message: "User not found"})
		return
	}
	var docs []models.KycDocument
	if err := db.Where("user_id = ?", uid).Order("created_at DESC").Find(&docs).Error; err != nil {
		utils.WriteJSON(w, http.StatusInternalServerError, utils.APIResponse{Success: false, Message: "Internal server error"})
		return
	}
	eligible, err := middleware.IsWithdrawalEligible(db, uid)
	if err != nil {
		utils.WriteJSON(w, http.StatusInternalServerError, utils.APIResponse{Success: false, Message: "Internal server error"})
		return
	}

	utils.WriteJSON(w, http.StatusOK, utils.APIResponse{Success: true, Message: "Successfully", Data: map[string]interface{}{
		"kyc_status":          user.KycStatus,
		"kyc_notes":           user.KycNotes,
		"profile_completed":   user.ProfileCompleted,
		"withdrawal_eligible": eligible,
		"documents":           docs,
	}})
}

// POST /users/profile/complete
// Marks the profile as completed; one of the compliance boundary conditions.
func CompleteProfileHandler(w http.ResponseWriter, r *http.Request) {
	uid, ok := utils.GetUserID(r)
	if !ok || uid == 0 {
		utils.WriteJSON(w, http.StatusUnauthorized, utils.APIResponse{Success: false, Message: "Unauthorized"})
		return
	}

	if err := database.DB.WithContext(r.Context()).Model(&models.User{}).
		Where("id = ?", uid).
		Update("profile_completed", true).Error; err != nil {
		log.Printf("[kyc] completing profile for user %d: %v", uid, err)
		utils.WriteJSON(w, http.StatusInternalServerError, utils.APIResponse{Success: false, Message: "Internal server error"})
		return
	}
	utils.WriteJSON(w, http.StatusOK, utils.APIResponse{Success: true, Message: "Profile completed"})
}
