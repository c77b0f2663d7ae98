package api

import (
	"net/http"

	"github.com/billbatista/splitmate/activity"
	"github.com/billbatista/splitmate/ledger"
	"github.com/billbatista/splitmate/middleware"
)

type createEventRequest struct {
	Title        string   `json:"title" validate:"max=120"`
	Currency     string   `json:"currency" validate:"omitempty,len=3,alpha"`
	Participants []string `json:"participants" validate:"max=100,dive,required,max=80"`
}

type updateEventRequest struct {
	Title    string `json:"title" validate:"max=120"`
	Currency string `json:"currency" validate:"omitempty,len=3,alpha"`
}

func (a *API) listEvents(w http.ResponseWriter, r *http.Request) {
	events, err := a.store.ListEvents(r.Context())
	if err != nil {
		a.writeError(w, err)
		return
	}
	middleware.JSON(w, http.StatusOK, events)
}

func (a *API) createEvent(w http.ResponseWriter, r *http.Request) {
	var req createEventRequest
	if err := a.decode(w, r, &req); err != nil {
		a.writeError(w, err)
		return
	}

	event := ledger.NewEvent(req.Title, req.Currency)
	for _, name := range req.Participants {
		var err error
		event, _, err = event.AddParticipant(name)
		if err != nil {
			a.writeError(w, err)
			return
		}
	}

	if err := a.store.CreateEvent(r.Context(), event); err != nil {
		a.writeError(w, err)
		return
	}

	a.record(r, activity.TypeEventCreated, event.ID, ledger.EventCreated{
		EventID:  event.ID,
		Title:    event.Title,
		Currency: event.Currency,
	})
	middleware.JSON(w, http.StatusCreated, event)
}

func (a *API) getEvent(w http.ResponseWriter, r *http.Request) {
	middleware.JSON(w, http.StatusOK, currentEvent(r))
}

func (a *API) updateEvent(w http.ResponseWriter, r *http.Request) {
	var req updateEventRequest
	if err := a.decode(w, r, &req); err != nil {
		a.writeError(w, err)
		return
	}

	event := currentEvent(r).WithMeta(req.Title, req.Currency)
	if err := a.store.UpdateMeta(r.Context(), event.ID, event.Title, event.Currency); err != nil {
		a.writeError(w, err)
		return
	}

	a.record(r, activity.TypeEventUpdated, event.ID, ledger.EventUpdated{
		EventID:  event.ID,
		Title:    event.Title,
		Currency: event.Currency,
	})
	middleware.JSON(w, http.StatusOK, event)
}

func (a *API) deleteEvent(w http.ResponseWriter, r *http.Request) {
	event := currentEvent(r)
	if err := a.store.DeleteEvent(r.Context(), event.ID); err != nil {
		a.writeError(w, err)
		return
	}

	a.record(r, activity.TypeEventDeleted, event.ID, map[string]string{"event_id": event.ID})
	w.WriteHeader(http.StatusNoContent)
}
