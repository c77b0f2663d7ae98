package middleware

import (
	"context"
	"errors"
	"log/slog"
	"net/http"

	"github.com/billbatista/splitmate/ledger"
	"github.com/go-chi/chi/v5"
)

type contextKey string

const EventKey contextKey = "event"

type EventGetter interface {
	GetEvent(ctx context.Context, eventID string) (ledger.Event, error)
}

// EventCtx loads the event named by the {eventID} URL parameter into the
// request context.
func EventCtx(store EventGetter) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			eventID := chi.URLParam(r, "eventID")
			event, err := store.GetEvent(r.Context(), eventID)
			if err != nil {
				if errors.Is(err, ledger.ErrEventNotFound) {
					Error(w, http.StatusNotFound, "not_found", err.Error())
					return
				}
				slog.Error("failed to load event", "error", err, "event_id", eventID)
				Error(w, http.StatusInternalServerError, "internal", "Internal server error")
				return
			}

			ctx := context.WithValue(r.Context(), EventKey, event)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// EventFrom extracts the event loaded by EventCtx
func EventFrom(ctx context.Context) (ledger.Event, bool) {
	event, ok := ctx.Value(EventKey).(ledger.Event)
	return event, ok
}
