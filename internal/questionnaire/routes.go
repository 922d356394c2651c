package questionnaire

import (
	"github.com/go-chi/chi/v5"
	"github.com/imadgeboyega/kiekky-matchmaking/internal/auth"
)

func RegisterRoutes(r chi.Router, handler *Handler, authMiddleware *auth.Middleware) {
	r.Group(func(r chi.Router) {
		r.Use(authMiddleware.Authenticate)

		r.Get("/api/v1/questionnaire", handler.GetQuestionnaire)
		r.Get("/api/v1/questionnaire/progress", handler.GetProgress)
		r.Put("/api/v1/questionnaire/{kind}", handler.SaveAnswers)
	})
}
