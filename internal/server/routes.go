package server

import "net/http"

// setupRoutes configures all HTTP routes
func (s *Server) setupRoutes() *http.ServeMux {
	mux := http.NewServeMux()

	// WebSocket event stream
	mux.HandleFunc("/ws", s.app.WSHandler.HandleWebSocket)

	// Question answering
	mux.HandleFunc("/api/ask", s.app.AskHandler.AskCorpusHandler)
	mux.HandleFunc("/api/ask/health", s.app.AskHandler.HealthHandler)

	// Documents
	mux.HandleFunc("/api/documents", s.app.DocumentHandler.CollectionHandler)
	mux.HandleFunc("/api/documents/stats", s.app.DocumentHandler.StatsHandler)
	mux.HandleFunc("/api/documents/", s.app.DocumentHandler.ItemHandler) // {id}, {id}/ask, {id}/export

	// System
	mux.HandleFunc("/api/version", s.app.APIHandler.VersionHandler)
	mux.HandleFunc("/api/health", s.app.APIHandler.HealthHandler)

	return mux
}
