package middleware

import (
	"net/http"

	"gorm.io/gorm"

	"github.com/JacksonEjeh/truststock-api/ledger"
	"github.com/JacksonEjeh/truststock-api/models"
	"github.com/JacksonEjeh/truststock-api/utils"
)

// IsWithdrawalEligible answers the compliance boundary query: a completed
// profile, at least one ID document, at least two selfie captures, and a
// verified KYC status.
func IsWithdrawalEligible(db *gorm.DB, userID uint) (bool, error) {
	var user models.User
	if err := db.First(&user, userID).Error; err != nil {
		return false, err
	}
	if !user.ProfileCompleted || user.KycStatus != models.KycStatusVerified {
		return false, nil
	}

	var idDocs, selfies int64
	if err := db.Model(&models.KycDocument{}).
		Where("user_id = ? AND kind = ?", userID, models.KycDocKindID).
		Count(&idDocs).Error; err != nil {
		return false, err
	}
	if err := db.Model(&models.KycDocument{}).
		Where("user_id = ? AND kind = ?", userID, models.KycDocKindSelfie).
		Count(&selfies).Error; err != nil {
		return false, err
	}
	return idDocs >= 1 && selfies >= 2, nil
}

// ComplianceGate blocks withdrawal requests from users who have not cleared
// KYC. Runs after AuthMiddleware; the wallet is untouched on refusal.
func ComplianceGate(db *gorm.DB) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			uid, ok := utils.GetUserID(r)
			if !ok || uid == 0 {
				utils.WriteJSON(w, http.StatusUnauthorized, utils.APIResponse{Success: false, Message: "Unauthorized"})
				return
			}
			eligible, err := IsWithdrawalEligible(db, uid)
			if err != nil {
				utils.WriteJSON(w, http.StatusInternalServerError, utils.APIResponse{Success: false, Message: "Internal server error"})
				return
			}
			if !eligible {
				utils.WriteDomainError(w, ledger.ErrComplianceBlocked)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
