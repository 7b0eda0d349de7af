package app

import (
	"net/http"

	"github.com/gorilla/mux"

	"card-catalog/internal/common/logging"
	"card-catalog/internal/handlers"
	"card-catalog/internal/server"
)

// RunServer builds the HTTP server with all handlers configured
func (app *App) RunServer() (*server.Server, http.Handler) {
	h := handlers.New(app.Search, app.Store, logging.Component("handlers"))

	router := mux.NewRouter()
	SetupRoutes(router, h, app.InitializeRateLimiter(), app.Config.FrontendOrigins)

	return server.New(router, app.Config.Port), router
}
