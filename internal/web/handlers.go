package web

import (
	"encoding/json"
	"errors"
	"log"
	"net/http"

	"github.com/income-clean/internal/diagnostics"
	"github.com/income-clean/internal/pipeline"
	"github.com/income-clean/internal/record"
)

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	if err := s.db.PingContext(r.Context()); err != nil {
		writeError(w, http.StatusServiceUnavailable, "database unreachable")
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) handleDuplicateReport(w http.ResponseWriter, r *http.Request) {
	groups, err := diagnostics.DuplicateReport(r.Context(), s.db)
	if err != nil {
		log.Printf("duplicate report failed: %v", err)
		writeError(w, http.StatusInternalServerError, "report failed")
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"groups": groups,
		"total":  len(groups),
	})
}

func (s *Server) handleCounts(w http.ResponseWriter, r *http.Request) {
	counts, err := diagnostics.RowCounts(r.Context(), s.db)
	if err != nil {
		log.Printf("row counts failed: %v", err)
		writeError(w, http.StatusInternalServerError, "report failed")
		return
	}
	writeJSON(w, http.StatusOK, counts)
}

func (s *Server) handleStateCounts(w http.ResponseWriter, r *http.Request) {
	counts, err := diagnostics.CountByState(r.Context(), s.db)
	if err != nil {
		log.Printf("state counts failed: %v", err)
		writeError(w, http.StatusInternalServerError, "report failed")
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"states": counts})
}

// handleIngest appends one raw row and notifies the insertion hook. This is
// the "row inserted" event: the caller gets the stored row back immediately,
// cleaning happens behind the notification.
func (s *Server) handleIngest(w http.ResponseWriter, r *http.Request) {
	var raw record.RawRecord
	if err := json.NewDecoder(r.Body).Decode(&raw); err != nil {
		writeError(w, http.StatusBadRequest, "malformed JSON body")
		return
	}
	if err := record.Validate(raw); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	stored, err := s.raw.Append(r.Context(), raw)
	if err != nil {
		log.Printf("ingest failed: %v", err)
		writeError(w, http.StatusServiceUnavailable, "raw store unavailable")
		return
	}

	if s.inserts != nil {
		select {
		case s.inserts <- stored:
		default:
			// Hook backlog is full; the periodic run reconciles.
			log.Printf("insert notification dropped for row %d", stored.RowID)
		}
	}

	writeJSON(w, http.StatusCreated, stored)
}

func (s *Server) handleClean(w http.ResponseWriter, r *http.Request) {
	rep, err := s.pipe.TryRun(r.Context())
	if errors.Is(err, pipeline.ErrRunInFlight) {
		writeJSON(w, http.StatusConflict, map[string]string{"status": "run already in flight"})
		return
	}
	if err != nil {
		log.Printf("manual run failed: %v", err)
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, rep)
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Printf("failed to encode response: %v", err)
	}
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}
