package http

import (
	"net/http"

	"github.com/go-chi/chi/v5"
)

func (s *Server) handleListClients(w http.ResponseWriter, r *http.Request) {
	clients, err := s.deps.Clients.ListClients(r.Context(), userID(r))
	if err != nil {
		respondError(w, r, err)
		return
	}
	NewResponse().JSON(map[string]any{"clients": clients, "count": len(clients)}).Write(w)
}

func (s *Server) handleSaveClient(w http.ResponseWriter, r *http.Request) {
	c, err := ParseClient(r)
	if err != nil {
		respondBadBody(w, err)
		return
	}
	saved, err := s.deps.Clients.SaveClient(r.Context(), userID(r), c)
	if err != nil {
		respondError(w, r, err)
		return
	}
	NewResponse().
		Status(http.StatusCreated).
		Trigger("client:saved", map[string]string{"id": saved.ID}).
		JSON(saved).
		Write(w)
}

func (s *Server) handleDeleteClient(w http.ResponseWriter, r *http.Request) {
	if err := s.deps.Clients.DeleteClient(r.Context(), userID(r), chi.URLParam(r, "id")); err != nil {
		respondError(w, r, err)
		return
	}
	NewResponse().Status(http.StatusNoContent).Write(w)
}
