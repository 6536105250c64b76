package api

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/foxzi/listdash/internal/dashboard"
	"github.com/foxzi/listdash/internal/store"
)

// handleListDomains handles GET /api/v1/domains
func (s *Server) handleListDomains(w http.ResponseWriter, r *http.Request) {
	domains, err := s.service.Store().ListDomains(r.Context())
	if err != nil {
		s.logger.Error("failed to list domains", "error", err)
		sendError(w, http.StatusInternalServerError, "Failed to list domains")
		return
	}
	if domains == nil {
		domains = []*store.Domain{}
	}
	sendJSON(w, http.StatusOK, domains)
}

// handleCreateDomain handles POST /api/v1/domains
func (s *Server) handleCreateDomain(w http.ResponseWriter, r *http.Request) {
	var form dashboard.DomainForm
	if err := json.NewDecoder(r.Body).Decode(&form); err != nil {
		sendError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	d, err := s.service.CreateDomain(r.Context(), form)
	if err != nil {
		s.serviceError(w, "create domain", err)
		return
	}
	sendJSON(w, http.StatusCreated, d)
}

// handleListLists handles GET /api/v1/lists
func (s *Server) handleListLists(w http.ResponseWriter, r *http.Request) {
	lists, err := s.service.Store().ListLists(r.Context())
	if err != nil {
		s.logger.Error("failed to list lists", "error", err)
		sendError(w, http.StatusInternalServerError, "Failed to list lists")
		return
	}
	sendJSON(w, http.StatusOK, listResponses(lists))
}

// handleCreateList handles POST /api/v1/lists
func (s *Server) handleCreateList(w http.ResponseWriter, r *http.Request) {
	var form dashboard.ListForm
	if err := json.NewDecoder(r.Body).Decode(&form); err != nil {
		sendError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	l, err := s.service.CreateList(r.Context(), form)
	if err != nil {
		s.serviceError(w, "create list", err)
		return
	}
	sendJSON(w, http.StatusCreated, l)
}

// handleGetList handles GET /api/v1/lists/{list_id}
func (s *Server) handleGetList(w http.ResponseWriter, r *http.Request) {
	listID := chi.URLParam(r, "list_id")

	l, err := s.service.Store().GetList(r.Context(), listID)
	if err != nil {
		s.logger.Error("failed to get list", "list_id", listID, "error", err)
		sendError(w, http.StatusInternalServerError, "Failed to get list")
		return
	}
	if l == nil {
		sendError(w, http.StatusNotFound, "List not found")
		return
	}
	sendJSON(w, http.StatusOK, l)
}

// handleAddRole handles POST /api/v1/lists/{list_id}/{members,owners,moderators}
func (s *Server) handleAddRole(role store.Role) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var form dashboard.RosterForm
		if err := json.NewDecoder(r.Body).Decode(&form); err != nil {
			sendError(w, http.StatusBadRequest, "Invalid request body")
			return
		}

		l, err := s.service.AddRole(r.Context(), chi.URLParam(r, "list_id"), role, form)
		if err != nil {
			s.serviceError(w, "add role", err)
			return
		}
		sendJSON(w, http.StatusOK, l)
	}
}

// handleListRequests handles GET /api/v1/requests?kind=
func (s *Server) handleListRequests(w http.ResponseWriter, r *http.Request) {
	reqs, err := s.service.Requests(r.Context(), store.Kind(r.URL.Query().Get("kind")))
	if err != nil {
		s.serviceError(w, "list requests", err)
		return
	}
	if reqs == nil {
		reqs = []*store.Request{}
	}
	sendJSON(w, http.StatusOK, reqs)
}

// handleCreateRequest handles POST /api/v1/requests
func (s *Server) handleCreateRequest(w http.ResponseWriter, r *http.Request) {
	var form dashboard.RequestForm
	if err := json.NewDecoder(r.Body).Decode(&form); err != nil {
		sendError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	req, err := s.service.AddRequest(r.Context(), form)
	if err != nil {
		s.serviceError(w, "create request", err)
		return
	}
	sendJSON(w, http.StatusCreated, req)
}

// handleResolveRequest handles DELETE /api/v1/requests/{id}?action=
func (s *Server) handleResolveRequest(w http.ResponseWriter, r *http.Request) {
	action := r.URL.Query().Get("action")
	if action == "" {
		action = "discard"
	}

	id := chi.URLParam(r, "id")
	if err := s.service.ResolveRequest(r.Context(), "api", id, action); err != nil {
		s.serviceError(w, "resolve request", err)
		return
	}

	s.logger.Info("request resolved via API", "id", id, "action", action)
	w.WriteHeader(http.StatusNoContent)
}
