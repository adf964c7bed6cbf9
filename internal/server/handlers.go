package server

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/hyperjump/pharmassist/internal/errs"
	"github.com/hyperjump/pharmassist/internal/models"
)

// maxBodyBytes bounds JSON request bodies.
const maxBodyBytes = 1 << 20

func (s *Server) handleAsk(w http.ResponseWriter, r *http.Request) {
	var req models.AskRequest
	if !s.decode(w, r, &req) {
		return
	}
	s.logger.Debug("ask request", zap.String("query", req.Query()), zap.String("language", req.Language))
	answer, err := s.assistant.Ask(r.Context(), req)
	if err != nil {
		s.respondErr(w, "ask failed", err)
		return
	}
	s.respondJSON(w, http.StatusOK, answer)
}

func (s *Server) handleSearchDrugs(w http.ResponseWriter, r *http.Request) {
	q := models.SearchQuery{Query: r.URL.Query().Get("q")}
	if raw := r.URL.Query().Get("limit"); raw != "" {
		limit, err := strconv.Atoi(raw)
		if err != nil {
			s.respondError(w, http.StatusBadRequest, "limit must be an integer")
			return
		}
		q.Limit = limit
	}
	resp, err := s.assistant.SearchDrugs(r.Context(), q)
	if err != nil {
		s.respondErr(w, "drug search failed", err)
		return
	}
	s.respondJSON(w, http.StatusOK, resp)
}

func (s *Server) handleInteractions(w http.ResponseWriter, r *http.Request) {
	var req models.InteractionRequest
	if !s.decode(w, r, &req) {
		return
	}
	report, err := s.assistant.CheckInteractions(r.Context(), req)
	if err != nil {
		s.respondErr(w, "interaction check failed", err)
		return
	}
	s.respondJSON(w, http.StatusOK, report)
}

func (s *Server) handleAddDocument(w http.ResponseWriter, r *http.Request) {
	var input models.DocumentInput
	if !s.decode(w, r, &input) {
		return
	}
	s.logger.Debug("add document request", zap.String("id", input.ID))
	doc, err := s.assistant.AddDocument(r.Context(), input)
	if err != nil {
		s.respondErr(w, "indexing failed", err)
		return
	}
	s.respondJSON(w, http.StatusCreated, map[string]string{"id": doc.ID, "status": "indexed"})
}

func (s *Server) handleGetDocument(w http.ResponseWriter, r *http.Request) {
	doc, err := s.assistant.GetDocument(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		s.respondErr(w, "get document failed", err)
		return
	}
	s.respondJSON(w, http.StatusOK, doc)
}

func (s *Server) handleClearIndex(w http.ResponseWriter, r *http.Request) {
	n, err := s.assistant.ClearIndex(r.Context())
	if err != nil {
		s.respondErr(w, "clear index failed", err)
		return
	}
	s.respondJSON(w, http.StatusOK, map[string]interface{}{"status": "cleared", "removed": n})
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	s.respondJSON(w, http.StatusOK, s.assistant.Health())
}

func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	st, err := s.assistant.Status(r.Context())
	if err != nil {
		s.respondErr(w, "status failed", err)
		return
	}
	s.respondJSON(w, http.StatusOK, st)
}

// decode reads a JSON body into v, responding 400 on failure.
func (s *Server) decode(w http.ResponseWriter, r *http.Request, v interface{}) bool {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			s.respondError(w, http.StatusRequestEntityTooLarge, "request body too large")
			return false
		}
		s.respondError(w, http.StatusBadRequest, "invalid request body")
		return false
	}
	return true
}

// respondErr maps err to a status through its kind. Internal faults are logged at error level.
func (s *Server) respondErr(w http.ResponseWriter, msg string, err error) {
	status := errs.HTTPStatus(err)
	if status >= http.StatusInternalServerError {
		s.logger.Error(msg, zap.Error(err))
	} else {
		s.logger.Debug(msg, zap.Error(err))
	}
	s.respondError(w, status, errs.Message(err))
}

func (s *Server) respondJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(data)
}

func (s *Server) respondError(w http.ResponseWriter, status int, message string) {
	s.respondJSON(w, status, map[string]string{"error": message})
}
