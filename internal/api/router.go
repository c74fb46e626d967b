package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/kdimtricp/medannotate/internal/logging"
)

func NewRouter(app *App) http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(logging.RequestLogger(app.logger()))
	r.Use(middleware.Recoverer)

	r.Get("/ping", PingHandler)

	r.Route("/medical-text", func(r chi.Router) {
		r.Get("/", app.ListCandidatesHandler)
		r.Post("/", app.CreateTextsHandler)
		r.Get("/{id}", app.GetTextHandler)
		r.Put("/{id}", app.UpdateTextHandler)
	})

	return r
}
