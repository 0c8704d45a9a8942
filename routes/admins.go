package routes

import (
	"net/http"
	"time"

	"github.com/gorilla/mux"

	"github.com/JacksonEjeh/truststock-api/controllers/admins"
	"github.com/JacksonEjeh/truststock-api/middleware"
)

func SetAdminRoutes(api *mux.Router) {
	// Rate limiter for admin login: 5 attempts per IP per minute
	adminLoginLimiter := middleware.NewIPRateLimiter(5, time.Minute)

	// Public admin routes
	api.Handle("/admin/login", adminLoginLimiter.Middleware(http.HandlerFunc(admins.LoginHandler))).Methods(http.MethodPost)

	// Protected admin routes
	adminRouter := api.PathPrefix("/admin").Subrouter()
	adminRouter.Use(middleware.AdminAuthMiddleware)

	// Approval gate
	adminRouter.Handle("/deposits/{id:[0-9]+}/resolve", http.HandlerFunc(admins.ResolveDepositHandler)).Methods(http.MethodPost)
	adminRouter.Handle("/withdrawals/{id:[0-9]+}/resolve", http.HandlerFunc(admins.ResolveWithdrawalHandler)).Methods(http.MethodPost)
	adminRouter.Handle("/transactions", http.HandlerFunc(admins.ListTransactionsHandler)).Methods(http.MethodGet)

	// Plan catalog management
	adminRouter.Handle("/plans", http.HandlerFunc(admins.ListPlansHandler)).Methods(http.MethodGet)
	adminRouter.Handle("/plans", http.HandlerFunc(admins.CreatePlanHandler)).Methods(http.MethodPost)
	adminRouter.Handle("/plans/{id:[0-9]+}", http.HandlerFunc(admins.UpdatePlanHandler)).Methods(http.MethodPut)
	adminRouter.Handle("/plans/{id:[0-9]+}", http.HandlerFunc(admins.DeletePlanHandler)).Methods(http.MethodDelete)

	// KYC review
	adminRouter.Handle("/kyc/pending", http.HandlerFunc(admins.ListPendingKycHandler)).Methods(http.MethodGet)
	adminRouter.Handle("/kyc/{user_id:[0-9]+}/review", http.HandlerFunc(admins.ReviewKycHandler)).Methods(http.MethodPost)
}
