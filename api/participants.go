package api

import (
	"net/http"

	"github.com/billbatista/splitmate/activity"
	"github.com/billbatista/splitmate/ledger"
	"github.com/billbatista/splitmate/middleware"
	"github.com/go-chi/chi/v5"
)

type addParticipantRequest struct {
	Name string `json:"name" validate:"required,max=80"`
}

func (a *API) addParticipant(w http.ResponseWriter, r *http.Request) {
	var req addParticipantRequest
	if err := a.decode(w, r, &req); err != nil {
		a.writeError(w, err)
		return
	}

	event := currentEvent(r)
	_, participant, err := event.AddParticipant(req.Name)
	if err != nil {
		a.writeError(w, err)
		return
	}

	if err := a.store.AddParticipant(r.Context(), event.ID, participant); err != nil {
		a.writeError(w, err)
		return
	}

	a.record(r, activity.TypeParticipantAdded, event.ID, ledger.ParticipantChanged{
		EventID:       event.ID,
		ParticipantID: participant.ID,
		Name:          participant.Name,
	})
	middleware.JSON(w, http.StatusCreated, participant)
}

// removeParticipant also drops the participant from every split it was in.
func (a *API) removeParticipant(w http.ResponseWriter, r *http.Request) {
	event := currentEvent(r)
	participantID := chi.URLParam(r, "participantID")

	participant, _ := event.Participant(participantID)
	if _, err := event.RemoveParticipant(participantID); err != nil {
		a.writeError(w, err)
		return
	}

	if err := a.store.RemoveParticipant(r.Context(), event.ID, participantID); err != nil {
		a.writeError(w, err)
		return
	}

	a.record(r, activity.TypeParticipantRemoved, event.ID, ledger.ParticipantChanged{
		EventID:       event.ID,
		ParticipantID: participantID,
		Name:          participant.Name,
	})
	w.WriteHeader(http.StatusNoContent)
}
