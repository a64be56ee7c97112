package api

import (
	"errors"
	"net/http"
	"os"
	"strings"
	"time"

	"hero-analyzer/internal/db"
	"hero-analyzer/internal/publisher"
	"hero-analyzer/internal/report"

	json "github.com/goccy/go-json"
	"github.com/gorilla/mux"
	"github.com/sirupsen/logrus"
)

// Handler contains dependencies for HTTP handlers
type Handler struct {
	src Source
	log logrus.FieldLogger
}

// NewHandler creates a new handler
func NewHandler(src Source, log logrus.FieldLogger) *Handler {
	if log == nil {
		log = logrus.StandardLogger()
	}
	return &Handler{src: src, log: log}
}

// HealthCheck handles health check requests
func (h *Handler) HealthCheck(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, map[string]string{
		"status":  "healthy",
		"service": "hero-analyzer",
	})
}

// GetHeroes returns the hero stats table.
// Query: sort=<column> (default usage_rate), order=asc|desc (default desc).
func (h *Handler) GetHeroes(w http.ResponseWriter, r *http.Request) {
	sortBy := r.URL.Query().Get("sort")
	if sortBy == "" {
		sortBy = report.ColumnUsageRate
	}

	descending := true
	switch strings.ToLower(r.URL.Query().Get("order")) {
	case "", "desc":
	case "asc":
		descending = false
	default:
		respondError(w, http.StatusBadRequest, "order must be asc or desc", nil)
		return
	}

	if !validColumn(sortBy) {
		respondError(w, http.StatusBadRequest, "unknown sort column", nil)
		return
	}

	rows, err := h.src.Heroes(r.Context(), sortBy, descending)
	if err != nil {
		if noReport(err) {
			respondError(w, http.StatusServiceUnavailable, "No report available yet", err)
			return
		}
		h.log.Errorf("[API] Failed to fetch heroes: %v", err)
		respondError(w, http.StatusInternalServerError, "Failed to fetch heroes", err)
		return
	}

	respondJSON(w, http.StatusOK, map[string]interface{}{
		"count":  len(rows),
		"heroes": rows,
	})
}

// GetHero returns one hero row by short name
func (h *Handler) GetHero(w http.ResponseWriter, r *http.Request) {
	name := mux.Vars(r)["name"]

	row, err := h.src.Hero(r.Context(), name)
	if errors.Is(err, db.ErrHeroNotFound) {
		respondError(w, http.StatusNotFound, "Hero not found", nil)
		return
	}
	if err != nil {
		if noReport(err) {
			respondError(w, http.StatusServiceUnavailable, "No report available yet", err)
			return
		}
		h.log.Errorf("[API] Failed to fetch hero %s: %v", name, err)
		respondError(w, http.StatusInternalServerError, "Failed to fetch hero", err)
		return
	}

	respondJSON(w, http.StatusOK, row)
}

// RecoveryMiddleware turns handler panics into 500 responses
func (h *Handler) RecoveryMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		defer func() {
			if rec := recover(); rec != nil {
				h.log.Errorf("[API] Panic serving %s: %v", r.URL.Path, rec)
				respondError(w, http.StatusInternalServerError, "Internal server error", nil)
			}
		}()
		next.ServeHTTP(w, r)
	})
}

// LoggingMiddleware logs every request at debug level
func (h *Handler) LoggingMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		next.ServeHTTP(w, r)
		h.log.WithFields(logrus.Fields{
			"method":   r.Method,
			"path":     r.URL.Path,
			"duration": time.Since(start),
		}).Debug("[API] Request")
	})
}

// noReport reports whether err means no reducer run has produced a report yet
func noReport(err error) bool {
	return errors.Is(err, os.ErrNotExist) || errors.Is(err, publisher.ErrNoReport)
}

func validColumn(column string) bool {
	for _, c := range report.Columns {
		if c == column {
			return true
		}
	}
	return false
}

// respondJSON writes a JSON response
func respondJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

// respondError writes an error response
func respondError(w http.ResponseWriter, status int, message string, err error) {
	response := map[string]interface{}{
		"error":  message,
		"status": status,
	}
	if err != nil {
		response["details"] = err.Error()
	}
	respondJSON(w, status, response)
}
