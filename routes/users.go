package routes

import (
	"net/http"
	"time"

	"github.com/gorilla/mux"

	"github.com/JacksonEjeh/truststock-api/controllers/auth"
	"github.com/JacksonEjeh/truststock-api/controllers/users"
	"github.com/JacksonEjeh/truststock-api/database"
	"github.com/JacksonEjeh/truststock-api/middleware"
)

// UsersRoutes registers all user-facing routes on the given subrouter.
func UsersRoutes(api *mux.Router) {
	// Rate limiter for login/register: 60 per IP per 5 minutes
	loginLimiter := middleware.NewIPRateLimiter(60, 5*time.Minute)

	// Register & Login
	api.Handle("/register", loginLimiter.Middleware(http.HandlerFunc(auth.RegisterHandler))).Methods(http.MethodPost)
	api.Handle("/login", loginLimiter.Middleware(http.HandlerFunc(auth.LoginHandler))).Methods(http.MethodPost)
	api.Handle("/logout", middleware.AuthMiddleware(http.HandlerFunc(auth.LogoutHandler))).Methods(http.MethodPost)

	// Wallet
	api.Handle("/users/wallet", middleware.AuthMiddleware(http.HandlerFunc(users.GetWalletHandler))).Methods(http.MethodGet)
	api.Handle("/users/wallet/deposit", middleware.AuthMiddleware(http.HandlerFunc(users.InitiateDepositHandler))).Methods(http.MethodPost)
	api.Handle("/users/wallet/transactions", middleware.AuthMiddleware(http.HandlerFunc(users.GetTransactionsHandler))).Methods(http.MethodGet)

	// Withdrawals run behind the compliance gate
	complianceGate := middleware.ComplianceGate(database.DB)
	api.Handle("/users/wallet/withdraw",
		middleware.AuthMiddleware(complianceGate(http.HandlerFunc(users.InitiateWithdrawalHandler)))).Methods(http.MethodPost)

	// Plans & investments
	api.Handle("/users/plans", middleware.AuthMiddleware(http.HandlerFunc(users.GetPlansHandler))).Methods(http.MethodGet)
	api.Handle("/users/investments", middleware.AuthMiddleware(http.HandlerFunc(users.CreateInvestmentHandler))).Methods(http.MethodPost)
	api.Handle("/users/investments", middleware.AuthMiddleware(http.HandlerFunc(users.GetInvestmentsHandler))).Methods(http.MethodGet)

	// Compliance
	api.Handle("/users/kyc/documents", middleware.AuthMiddleware(http.HandlerFunc(users.SubmitKycDocumentHandler))).Methods(http.MethodPost)
	api.Handle("/users/kyc/status", middleware.AuthMiddleware(http.HandlerFunc(users.GetKycStatusHandler))).Methods(http.MethodGet)
	api.Handle("/users/profile/complete", middleware.AuthMiddleware(http.HandlerFunc(users.CompleteProfileHandler))).Methods(http.MethodPost)
}
