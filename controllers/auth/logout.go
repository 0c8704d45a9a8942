package auth

import (
	"net/http"
	"strings"
	"time"

	"github.com/JacksonEjeh/truststock-api/utils"
)

// POST /auth/logout
// Revokes the presented token's jti until its natural expiry. Best-effort:
// without a configured Redis the short token lifetime bounds the exposure.
func LogoutHandler(w http.ResponseWriter, r *http.Request) {
	authz := r.Header.Get("Authorization")
	if authz == "" || !strings.HasPrefix(authz, "Bearer ") {
		utils.WriteJSON(w, http.StatusUnauthorized, utils.APIResponse{Success: false, Message: "Unauthorized"})
		return
	}
	tokenStr := strings.TrimSpace(strings.TrimPrefix(authz, "Bearer "))
	claims, err := utils.ValidateAccessToken(tokenStr)
	if err != nil {
		utils.WriteJSON(w, http.StatusUnauthorized, utils.APIResponse{Success: false, Message: "Invalid token"})
		return
	}

	jti, _ := claims["jti"].(string)
	var until time.Time
	if exp, err := claims.GetExpirationTime(); err == nil && exp != nil {
		until = exp.Time
	} else {
		until = time.Now().Add(24 * time.Hour)
	}
	_ = utils.RevokeToken(r.Context(), jti, until)

	utils.WriteJSON(w, http.StatusOK, utils.APIResponse{Success: true, Message: "Logged out"})
}
