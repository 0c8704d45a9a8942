package controllers

import (
	"log"
	"net/http"
	"os"

	"github.com/JacksonEjeh/truststock-api/scheduler"
	"github.com/JacksonEjeh/truststock-api/utils"
)

// CronAccrualHandler triggers one accrual sweep on demand. The internal
// scheduler already runs the sweep daily; this endpoint exists for external
// cron services and operators, protected by the X-CRON-KEY header.
func CronAccrualHandler(s *scheduler.Scheduler) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		key := os.Getenv("CRON_KEY")
		if key == "" || r.Header.Get("X-CRON-KEY") != key {
			utils.WriteJSON(w, http.StatusUnauthorized, utils.APIResponse{Success: false, Message: "Unauthorized"})
			return
		}

		report := s.RunOnce(r.Context())
		log.Printf("[cron] accrual sweep: credited=%d matured=%d skipped=%d failed=%d",
			report.Credited, report.Matured, report.Skipped, report.Failed)

		utils.WriteJSON(w, http.StatusOK, utils.APIResponse{Success: true, Message: "Accrual sweep completed", Data: report})
	}
}
