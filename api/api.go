package api

import (
	"fmt"
	"net/http"
	"time"

	"github.com/billbatista/splitmate/activity"
	"github.com/billbatista/splitmate/ledger"
	"github.com/billbatista/splitmate/middleware"
	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-playground/locales/en"
	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"
	en_translations "github.com/go-playground/validator/v10/translations/en"
)

type Deps struct {
	Store     ledger.Repository
	History   activity.Recorder
	Activity  activity.Logger
	PublicURL string
}

type API struct {
	store     ledger.Repository
	history   activity.Recorder
	activity  activity.Logger
	publicURL string
	now       func() time.Time

	validator  *validator.Validate
	translator ut.Translator
}

func New(deps Deps) (*API, error) {
	a := &API{
		store:     deps.Store,
		history:   deps.History,
		activity:  deps.Activity,
		publicURL: deps.PublicURL,
		now:       time.Now,
		validator: validator.New(validator.WithRequiredStructEnabled()),
	}

	eng := en.New()
	uni := ut.New(eng, eng)
	var found bool
	a.translator, found = uni.GetTranslator("en")
	if !found {
		return nil, fmt.Errorf("translator not found")
	}
	if err := en_translations.RegisterDefaultTranslations(a.validator, a.translator); err != nil {
		return nil, fmt.Errorf("registering translations: %w", err)
	}

	return a, nil
}

func (a *API) Router() http.Handler {
	router := chi.NewRouter()
	router.Use(chimiddleware.RequestID)
	router.Use(chimiddleware.Logger)
	router.Use(chimiddleware.Recoverer)

	router.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		middleware.JSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})

	router.Post("/settle", a.settle)

	router.Route("/shared", func(r chi.Router) {
		r.Post("/import", a.importShared)
		r.Get("/{token}", a.getShared)
		r.Get("/{token}/settlement", a.sharedSettlement)
	})

	router.Route("/events", func(r chi.Router) {
		r.Get("/", a.listEvents)
		r.Post("/", a.createEvent)

		r.Route("/{eventID}", func(r chi.Router) {
			r.Use(middleware.EventCtx(a.store))

			r.Get("/", a.getEvent)
			r.Patch("/", a.updateEvent)
			r.Delete("/", a.deleteEvent)

			r.Post("/participants", a.addParticipant)
			r.Delete("/participants/{participantID}", a.removeParticipant)

			r.Post("/expenses", a.addExpense)
			r.Delete("/expenses/{expenseID}", a.removeExpense)

			r.Get("/settlement", a.settlement)
			r.Get("/summary", a.summary)
			r.Get("/activity", a.listActivity)
			r.Get("/share", a.share)
		})
	})

	return router
}

// record queues an activity entry tagged with the request id.
func (a *API) record(r *http.Request, entryType, eventID string, data any) {
	if a.activity == nil {
		return
	}
	opts := []activity.EntryOption{
		activity.WithType(entryType),
		activity.WithEvent(eventID),
		activity.WithData(data),
	}
	if reqID := chimiddleware.GetReqID(r.Context()); reqID != "" {
		opts = append(opts, activity.WithMetadata("request_id", reqID))
	}
	a.activity.Log(activity.NewEntry(opts...))
}

// currentEvent is only called behind EventCtx.
func currentEvent(r *http.Request) ledger.Event {
	event, _ := middleware.EventFrom(r.Context())
	return event
}
