package auth

import (
	"encoding/json"
	"log"
	"net/http"
	"strings"

	"gorm.io/gorm"

	"github.com/JacksonEjeh/truststock-api/database"
	"github.com/JacksonEjeh/truststock-api/ledger"
	"github.com/JacksonEjeh/truststock-api/models"
	"github.com/JacksonEjeh/truststock-api/utils"
)

type RegisterRequest struct {
	Username string `json:"username" validate:"required,min=3,max=100"`
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required,min=8"`
}

// POST /auth/register
// Creates the user and their single wallet in one transaction; the wallet
// exists from activation so the first funding request never races creation.
func RegisterHandler(w http.ResponseWriter, r *http.Request) {
	var req RegisterRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		utils.WriteJSON(w, http.StatusBadRequest, utils.APIResponse{Success: false, Message: "Not valid JSON"})
		return
	}
	if err := utils.ValidateStruct(&req); err != nil {
		utils.WriteJSON(w, http.StatusBadRequest, utils.APIResponse{Success: false, Message: "Username, valid email and a password of at least 8 characters are required"})
		return
	}

	db := database.DB
	var existing models.User
	if err := db.Where("email = ? OR username = ?", strings.ToLower(req.Email), req.Username).First(&existing).Error; err == nil {
		utils.WriteJSON(w, http.StatusConflict, utils.APIResponse{Success: false, Message: "Email or username already registered"})
		return
	}

	user := models.User{
		Username:  req.Username,
		Email:     strings.ToLower(req.Email),
		Password:  req.Password,
		Role:      "user",
		KycStatus: models.KycStatusPending,
	}
	if err := user.HashPassword(); err != nil {
		utils.WriteJSON(w, http.StatusInternalServerError, utils.APIResponse{Success: false, Message: "Internal server error"})
		return
	}

	err := db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(&user).Error; err != nil {
			return err
		}
		_, err := ledger.CreateWallet(tx, user.ID, "USD")
		return err
	})
	if err != nil {
		log.Printf("[auth] registering %s: %v", req.Email, err)
		utils.WriteJSON(w, http.StatusInternalServerError, utils.APIResponse{Success: false, Message: "Registration failed"})
		return
	}

	utils.NotifyAsync(user.Email, "Welcome to Truststock",
		"<p>Dear "+user.Username+",</p><p>Your account has been created. Complete your profile and KYC verification to enable withdrawals.</p>")

	utils.WriteJSON(w, http.StatusCreated, utils.APIResponse{
		Success: true,
		Message: "Account created",
		Data:    user,
	})
}
