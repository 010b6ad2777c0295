package web

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/gorilla/mux"
	"github.com/kotrzina/skolmaten/pkg/prometheus"
	"github.com/kotrzina/skolmaten/pkg/scheduler"
	"github.com/kotrzina/skolmaten/pkg/store"
	"github.com/kotrzina/skolmaten/pkg/utils"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/sirupsen/logrus"
)

type StatusProvider interface {
	Status() scheduler.Status
}

type HandlerRepository struct {
	scheduler StatusProvider
	store     store.Storage
	monitor   *prometheus.Monitor
	logger    *logrus.Logger
}

func NewHandlerRepository(
	scheduler StatusProvider,
	storage store.Storage,
	monitor *prometheus.Monitor,
	logger *logrus.Logger,
) *HandlerRepository {
	return &HandlerRepository{
		scheduler: scheduler,
		store:     storage,
		monitor:   monitor,
		logger:    logger,
	}
}

// metricsHandler returns HTTP handler for metrics endpoint
func (hr *HandlerRepository) metricsHandler() http.Handler {
	return promhttp.HandlerFor(
		hr.monitor.Registry,
		promhttp.HandlerOpts{
			EnableOpenMetrics: true,
			Registry:          hr.monitor.Registry,
		},
	)
}

func (hr *HandlerRepository) homepageHandler() func(http.ResponseWriter, *http.Request) {
	return func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		if _, err := w.Write(utils.GetOkJSON()); err != nil {
			hr.logger.Errorf("Could not write response: %v", err)
		}
	}
}

func (hr *HandlerRepository) menusHandler() func(http.ResponseWriter, *http.Request) {
	return func(w http.ResponseWriter, _ *http.Request) {
		snapshots, err := hr.store.GetSnapshots()
		if err != nil {
			hr.logger.Errorf("Could not load snapshots: %v", err)
			http.Error(w, "Could not load menus", http.StatusInternalServerError)
			return
		}

		hr.writeJSON(w, snapshots)
	}
}

func (hr *HandlerRepository) menuHandler() func(http.ResponseWriter, *http.Request) {
	return func(w http.ResponseWriter, r *http.Request) {
		slug := mux.Vars(r)["slug"]

		snapshot, err := hr.store.GetSnapshot(slug)
		if errors.Is(err, store.ErrNotFound) {
			http.Error(w, "Unknown school", http.StatusNotFound)
			return
		}
		if err != nil {
			hr.logger.Errorf("Could not load snapshot of %s: %v", slug, err)
			http.Error(w, "Could not load menu", http.StatusInternalServerError)
			return
		}

		hr.writeJSON(w, snapshot)
	}
}

func (hr *HandlerRepository) statusHandler() func(http.ResponseWriter, *http.Request) {
	return func(w http.ResponseWriter, _ *http.Request) {
		hr.writeJSON(w, hr.scheduler.Status())
	}
}

func (hr *HandlerRepository) eventsHandler() func(http.ResponseWriter, *http.Request) {
	return func(w http.ResponseWriter, _ *http.Request) {
		events, err := hr.store.GetEvents()
		if err != nil {
			hr.logger.Errorf("Could not load events: %v", err)
			http.Error(w, "Could not load events", http.StatusInternalServerError)
			return
		}
		if events == nil {
			events = []string{}
		}

		hr.writeJSON(w, events)
	}
}

func (hr *HandlerRepository) writeJSON(w http.ResponseWriter, data interface{}) {
	res, err := json.Marshal(data)
	if err != nil {
		http.Error(w, "Could not marshal data to JSON", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	if _, err = w.Write(res); err != nil {
		hr.logger.Errorf("Could not write response: %v", err)
	}
}
