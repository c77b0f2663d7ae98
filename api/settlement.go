package api

import (
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"github.com/billbatista/splitmate/activity"
	"github.com/billbatista/splitmate/ledger"
	"github.com/billbatista/splitmate/middleware"
	"github.com/billbatista/splitmate/sharelink"
	"github.com/go-chi/chi/v5"
)

const (
	defaultActivityLimit = 50
	maxActivityLimit     = 200
)

type shareResponse struct {
	Token string `json:"token"`
	URL   string `json:"url"`
}

type importRequest struct {
	Token string `json:"token" validate:"required"`
}

// settlement answers 304 when the client's ETag still matches the
// event's digest.
func (a *API) settlement(w http.ResponseWriter, r *http.Request) {
	event := currentEvent(r)

	digest, err := sharelink.Digest(event)
	if err != nil {
		a.writeError(w, err)
		return
	}
	etag := `"` + digest + `"`
	w.Header().Set("ETag", etag)
	if matchesETag(r.Header.Get("If-None-Match"), etag) {
		w.WriteHeader(http.StatusNotModified)
		return
	}

	a.writeSettlement(w, event)
}

func matchesETag(header, etag string) bool {
	for _, candidate := range strings.Split(header, ",") {
		candidate = strings.TrimPrefix(strings.TrimSpace(candidate), "W/")
		if candidate == etag || candidate == "*" {
			return true
		}
	}
	return false
}

func (a *API) writeSettlement(w http.ResponseWriter, event ledger.Event) {
	settlement, err := ledger.Settle(event)
	if err != nil {
		a.writeError(w, err)
		return
	}
	middleware.JSON(w, http.StatusOK, settlement)
}

func (a *API) summary(w http.ResponseWriter, r *http.Request) {
	middleware.JSON(w, http.StatusOK, ledger.Summarize(currentEvent(r), a.now()))
}

func (a *API) listActivity(w http.ResponseWriter, r *http.Request) {
	limit := defaultActivityLimit
	if v := r.URL.Query().Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 1 || n > maxActivityLimit {
			middleware.Error(w, http.StatusBadRequest, "bad_request", fmt.Sprintf("limit must be between 1 and %d", maxActivityLimit))
			return
		}
		limit = n
	}

	entries, err := a.history.ListByEvent(r.Context(), currentEvent(r).ID, limit)
	if err != nil {
		a.writeError(w, err)
		return
	}
	middleware.JSON(w, http.StatusOK, entries)
}

func (a *API) share(w http.ResponseWriter, r *http.Request) {
	token, err := sharelink.Encode(currentEvent(r))
	if err != nil {
		a.writeError(w, err)
		return
	}
	middleware.JSON(w, http.StatusOK, shareResponse{
		Token: token,
		URL:   a.publicURL + "/shared/" + token,
	})
}

// settle computes a settlement for an event posted in the body without
// storing anything.
func (a *API) settle(w http.ResponseWriter, r *http.Request) {
	var event ledger.Event
	if err := a.decode(w, r, &event); err != nil {
		a.writeError(w, err)
		return
	}
	a.writeSettlement(w, event)
}

func (a *API) getShared(w http.ResponseWriter, r *http.Request) {
	event, err := sharelink.Decode(chi.URLParam(r, "token"))
	if err != nil {
		a.writeError(w, err)
		return
	}
	middleware.JSON(w, http.StatusOK, event)
}

func (a *API) sharedSettlement(w http.ResponseWriter, r *http.Request) {
	event, err := sharelink.Decode(chi.URLParam(r, "token"))
	if err != nil {
		a.writeError(w, err)
		return
	}
	a.writeSettlement(w, event)
}

// importShared stores a shared event as a new event. Ids are reissued so
// the same link can be imported more than once.
func (a *API) importShared(w http.ResponseWriter, r *http.Request) {
	var req importRequest
	if err := a.decode(w, r, &req); err != nil {
		a.writeError(w, err)
		return
	}

	shared, err := sharelink.Decode(req.Token)
	if err != nil {
		a.writeError(w, err)
		return
	}
	if err := shared.Validate(); err != nil {
		a.writeError(w, err)
		return
	}

	event := shared.Duplicate()
	if err := a.store.CreateEvent(r.Context(), event); err != nil {
		a.writeError(w, err)
		return
	}

	a.record(r, activity.TypeEventImported, event.ID, map[string]string{
		"event_id":        event.ID,
		"source_event_id": shared.ID,
	})
	middleware.JSON(w, http.StatusCreated, event)
}
