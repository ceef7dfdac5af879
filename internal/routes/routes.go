package routes

import (
	"github.com/go-chi/chi/v5"

	"github.com/arshmeetsingh/lego-collection/internal/handlers"
)

func SetupRoutes(r chi.Router, h *handlers.Handler) {
	r.Use(h.LoadSession)

	// Site pages
	r.Get("/", h.Home)
	r.Get("/about", h.About)
	r.Get("/health", h.Health)

	// Catalog routes
	r.Get("/lego/sets", h.ListSets)
	r.Get("/lego/sets/{setNum}", h.GetSet)

	// Catalog changes require a logged-in user
	r.Group(func(r chi.Router) {
		r.Use(h.EnsureLogin)

		r.Get("/lego/addSet", h.AddSetForm)
		r.Post("/lego/addSet", h.AddSet)
		r.Get("/lego/editSet/{setNum}", h.EditSetForm)
		r.Post("/lego/editSet", h.EditSet)
		r.Get("/lego/deleteSet/{setNum}", h.DeleteSet)
		r.Get("/userHistory", h.UserHistory)
	})

	// Auth routes
	r.Get("/login", h.LoginForm)
	r.Post("/login", h.Login)
	r.Get("/register", h.RegisterForm)
	r.Post("/register", h.Register)
	r.Get("/logout", h.Logout)

	r.NotFound(h.NotFound)
}
