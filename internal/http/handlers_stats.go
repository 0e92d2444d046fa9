package http

import "net/http"

func (s *Server) handleStatistics(w http.ResponseWriter, r *http.Request) {
	NewJSONResponse().JSON(s.store.Statistics()).Write(w)
}

func (s *Server) handleCategories(w http.ResponseWriter, r *http.Request) {
	NewJSONResponse().JSON(s.store.Categories()).Write(w)
}
