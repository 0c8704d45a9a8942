package admins

import (
	"encoding/json"
	"net/http"
	"strings"

	"github.com/JacksonEjeh/truststock-api/database"
	"github.com/JacksonEjeh/truststock-api/models"
	"github.com/JacksonEjeh/truststock-api/utils"
)

type LoginRequest struct {
	Username string `json:"username" validate:"required"`
	Password string `json:"password" validate:"required"`
}

// POST /admin/login
func LoginHandler(w http.ResponseWriter, r *http.Request) {
	var req LoginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		utils.WriteJSON(w, http.StatusBadRequest, utils.APIResponse{Success: false, Message: "Not valid JSON"})
		return
	}
	if err := utils.ValidateStruct(&req); err != nil {
		utils.WriteJSON(w, http.StatusBadRequest, utils.APIResponse{Success: false, Message: "Username and password are required"})
		return
	}

	admin, err := models.GetAdminByUsername(database.DB.WithContext(r.Context()), strings.TrimSpace(req.Username))
	if err != nil || !admin.ValidatePassword(req.Password) {
		utils.WriteJSON(w, http.StatusUnauthorized, utils.APIResponse{Success: false, Message: "Invalid credentials"})
		return
	}

	token, err := utils.GenerateAccessToken(admin.ID, "admin")
	if err != nil {
		utils.WriteJSON(w, http.StatusInternalServerError, utils.APIResponse{Success: false, Message: "Internal server error"})
		return
	}

	utils.WriteJSON(w, http.StatusOK, utils.APIResponse{Success: true, Message: "Login successful", Data: map[string]interface{}{
		"token": token,
		"admin": admin,
	}})
}
