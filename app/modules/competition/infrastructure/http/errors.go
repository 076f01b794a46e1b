package competitionhttp

import (
	"encoding/json"
	"errors"
	"net/http"

	competitionservice "github.com/Black-And-White-Club/stride-league/app/modules/competition/application"
	competitiondomain "github.com/Black-And-White-Club/stride-league/app/modules/competition/domain"
)

type errorBody struct {
	Error string `json:"error"`
}

var conflictErrors = []error{
	competitionservice.ErrScoreLocked,
	competitionservice.ErrCompetitionNotActive,
	competitionservice.ErrCompetitionCompleted,
	competitionservice.ErrPrizePoolExists,
	competitionservice.ErrPrizePoolNotActive,
	competitionservice.ErrPayoutExpired,
	competitionservice.ErrPayoutAlreadyClaimed,
}

var validationErrors = []error{
	competitionservice.ErrInvalidScore,
	competitionservice.ErrInvalidPayoutStructure,
	competitionservice.ErrBuyInMismatch,
	competitionservice.ErrInvalidPaymentRef,
	competitiondomain.ErrInvalidPoolAmount,
	competitiondomain.ErrInvalidPoolType,
}

// statusFor maps a business failure to its HTTP status.
func statusFor(err error) int {
	switch {
	case errors.Is(err, competitionservice.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, competitionservice.ErrNotAuthorized):
		return http.StatusForbidden
	}
	for _, target := range conflictErrors {
		if errors.Is(err, target) {
			return http.StatusConflict
		}
	}
	for _, target := range validationErrors {
		if errors.Is(err, target) {
			return http.StatusBadRequest
		}
	}
	return http.StatusUnprocessableEntity
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, errorBody{Error: msg})
}
