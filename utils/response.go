package utils

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/JacksonEjeh/truststock-api/ledger"
)

type APIResponse struct {
	Success bool        `json:"success"`
	Message string      `json:"message"`
	Kind    string      `json:"kind,omitempty"`
	Data    interface{} `json:"data,omitempty"`
}

func WriteJSON(w http.ResponseWriter, status int, resp APIResponse) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(resp)
}

// WriteDomainError maps a ledger error kind to an HTTP status and writes the
// structured envelope. Unrecognized errors become an opaque 500.
func WriteDomainError(w http.ResponseWriter, err error) {
	var de *ledger.Error
	if !errors.As(err, &de) {
		WriteJSON(w, http.StatusInternalServerError, APIResponse{Success: false, Message: "Internal server error"})
		return
	}
	status := http.StatusInternalServerError
	switch de.Kind {
	case ledger.KindValidation:
		status = http.StatusBadRequest
	case ledger.KindNotFound:
		status = http.StatusNotFound
	case ledger.KindInsufficientFunds, ledger.KindInsufficientPending:
		status = http.StatusBadRequest
	case ledger.KindComplianceBlocked:
		status = http.StatusForbidden
	case ledger.KindAlreadyResolved, ledger.KindNotPending, ledger.KindTypeMismatch, ledger.KindDuplicateReference:
		status = http.StatusConflict
	case ledger.KindAuthorization:
		status = http.StatusForbidden
	}
	WriteJSON(w, status, APIResponse{Success: false, Message: de.Message, Kind: string(de.Kind)})
}
