package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"

	"github.com/billbatista/splitmate/ledger"
	"github.com/billbatista/splitmate/middleware"
	"github.com/billbatista/splitmate/sharelink"
	"github.com/go-playground/validator/v10"
)

var ErrInvalidBody = errors.New("invalid request body")

// maxBodySize caps request payloads, including whole events posted to /settle.
const maxBodySize = 1 << 20

var badRequestErrors = []error{
	ErrInvalidBody,
	ledger.ErrEmptyName,
	ledger.ErrInvalidAmount,
	ledger.ErrEmptyDescription,
	ledger.ErrNegativeShare,
	ledger.ErrUnknownSplitMethod,
	ledger.ErrNoSplits,
	sharelink.ErrInvalidToken,
}

var notFoundErrors = []error{
	ledger.ErrEventNotFound,
	ledger.ErrExpenseNotFound,
	ledger.ErrParticipantNotFound,
}

func (a *API) writeError(w http.ResponseWriter, err error) {
	var (
		validationErrs validator.ValidationErrors
		integrityErr   *ledger.ReferentialIntegrityError
	)

	switch {
	case errors.As(err, &validationErrs):
		messages := make([]string, 0, len(validationErrs))
		for _, fe := range validationErrs {
			messages = append(messages, fe.Translate(a.translator))
		}
		middleware.Error(w, http.StatusBadRequest, "validation", strings.Join(messages, "; "))
	case errors.As(err, &integrityErr), errors.Is(err, ledger.ErrParticipantIsPayer):
		middleware.Error(w, http.StatusUnprocessableEntity, "unprocessable", err.Error())
	case isAny(err, notFoundErrors):
		middleware.Error(w, http.StatusNotFound, "not_found", err.Error())
	case isAny(err, badRequestErrors):
		middleware.Error(w, http.StatusBadRequest, "bad_request", err.Error())
	default:
		slog.Error("request failed", "error", err)
		middleware.Error(w, http.StatusInternalServerError, "internal", "Internal server error")
	}
}

func isAny(err error, targets []error) bool {
	for _, target := range targets {
		if errors.Is(err, target) {
			return true
		}
	}
	return false
}

// decode reads a JSON body into dst and validates it when dst is a struct
// with validation tags.
func (a *API) decode(w http.ResponseWriter, r *http.Request, dst any) error {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodySize))
	if err := dec.Decode(dst); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidBody, err)
	}
	return a.validator.Struct(dst)
}
