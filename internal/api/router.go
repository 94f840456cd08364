package api

import (
	"database/sql"
	"net/http"
)

// NewRouter creates the admin API router. Every route requires a valid,
// unrevoked bearer token.
func NewRouter(db *sql.DB, jwtSecret string) http.Handler {
	mux := http.NewServeMux()

	authHandler := &AuthHandler{DB: db}
	toolsHandler := &ToolsHandler{DB: db}
	historyHandler := &HistoryHandler{DB: db}

	authMW := AuthMiddleware(jwtSecret, db)

	mux.Handle("GET /api/auth/whoami", authMW(http.HandlerFunc(authHandler.Whoami)))
	mux.Handle("POST /api/auth/logout", authMW(http.HandlerFunc(authHandler.Logout)))

	mux.Handle("GET /api/tools", authMW(http.HandlerFunc(toolsHandler.List)))
	mux.Handle("POST /api/tools", authMW(http.HandlerFunc(toolsHandler.Create)))
	mux.Handle("GET /api/tools/{id}", authMW(http.HandlerFunc(toolsHandler.Get)))
	mux.Handle("PUT /api/tools/{id}", authMW(http.HandlerFunc(toolsHandler.Update)))
	mux.Handle("DELETE /api/tools/{id}", authMW(http.HandlerFunc(toolsHandler.Delete)))
	mux.Handle("PUT /api/tools/{id}/custody", authMW(http.HandlerFunc(toolsHandler.SetCustody)))
	mux.Handle("PUT /api/tools/{id}/photo", authMW(http.HandlerFunc(toolsHandler.UploadPhoto)))
	mux.Handle("GET /api/tools/{id}/photo", authMW(http.HandlerFunc(toolsHandler.GetPhoto)))

	mux.Handle("GET /api/history", authMW(http.HandlerFunc(historyHandler.List)))

	return mux
}
