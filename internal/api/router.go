package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/cors"

	"github.com/tradecrm/crm-backend/internal/api/handlers"
	"github.com/tradecrm/crm-backend/internal/config"
	"github.com/tradecrm/crm-backend/internal/metrics"
	"github.com/tradecrm/crm-backend/internal/middleware"
	"github.com/tradecrm/crm-backend/internal/services"
)

type Deps struct {
	Cfg        config.Config
	Auth       *middleware.AuthMiddleware
	AuthSvc    *services.AuthService
	Users      *services.UserService
	Companies  *services.CompanyService
	Contacts   *services.ContactService
	Deals      *services.DealService
	Activities *services.ActivityService
	Orders     *services.OrderService
	Shipments  *services.ShipmentService
}

func NewRouter(d Deps) http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID, middleware.Recover, middleware.HTTPMetrics, middleware.RateLimit(d.Cfg.RateRPS))
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: []string{"*"},
		AllowedMethods: []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders: []string{"*"},
	}))

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) { _, _ = w.Write([]byte("ok")) })
	r.Handle("/metrics", metrics.Handler())

	authH := handlers.NewAuthHandler(d.AuthSvc)
	usersH := handlers.NewUsersHandler(d.Users)
	companiesH := handlers.NewCompaniesHandler(d.Companies)
	contactsH := handlers.NewContactsHandler(d.Contacts)
	dealsH := handlers.NewDealsHandler(d.Deals)
	activitiesH := handlers.NewActivitiesHandler(d.Activities)
	ordersH := handlers.NewOrdersHandler(d.Orders)
	shipmentsH := handlers.NewShipmentsHandler(d.Shipments)

	r.Route("/api/v1", func(r chi.Router) {
		r.Post("/auth/login", authH.Login)
		r.Post("/auth/refresh", authH.Refresh)

		r.Group(func(r chi.Router) {
			r.Use(d.Auth.Auth)

			r.Post("/auth/logout", authH.Logout)
			r.Get("/users/me", usersH.Me)
			r.Get("/users/roles", usersH.Roles)

			r.Route("/users", func(r chi.Router) {
				r.Use(middleware.RequireRoles("admin"))
				r.Post("/", usersH.Create)
				r.Get("/", usersH.List)
				r.Get("/{id}", usersH.Get)
				r.Put("/{id}", usersH.Update)
				r.Delete("/{id}", usersH.Delete)
			})

			r.Route("/companies", func(r chi.Router) {
				r.Get("/", companiesH.List)
				r.Get("/stats", companiesH.Stats)
				r.Get("/{id}", companiesH.Get)
				r.Get("/{id}/history", companiesH.History)
				r.With(middleware.RequireRoles("manager", "sales", "support")).Post("/", companiesH.Create)
				r.With(middleware.RequireRoles("manager", "sales", "support")).Put("/{id}", companiesH.Update)
				r.With(middleware.RequireRoles("manager")).Delete("/{id}", companiesH.Delete)
			})

			r.Route("/contacts", func(r chi.Router) {
				r.Get("/", contactsH.List)
				r.Get("/stats", contactsH.Stats)
				r.Get("/{id}", contactsH.Get)
				r.Get("/{id}/communications", contactsH.Communications)
				r.Get("/{id}/notes", contactsH.Notes)
				r.Get("/{id}/history", contactsH.History)
				r.With(middleware.RequireRoles("manager", "sales", "support")).Post("/", contactsH.Create)
				r.With(middleware.RequireRoles("manager", "sales", "support")).Put("/{id}", contactsH.Update)
				r.With(middleware.RequireRoles("manager")).Delete("/{id}", contactsH.Delete)
			})

			r.Route("/deals", func(r chi.Router) {
				r.Get("/", dealsH.List)
				r.Get("/pipeline", dealsH.Pipeline)
				r.Get("/stats", dealsH.Stats)
				r.Get("/{id}", dealsH.Get)
				r.Get("/{id}/history", dealsH.History)
				r.With(middleware.RequireRoles("manager", "sales")).Post("/", dealsH.Create)
				r.With(middleware.RequireRoles("manager", "sales")).Put("/{id}", dealsH.Update)
				r.With(middleware.RequireRoles("manager")).Delete("/{id}", dealsH.Delete)
			})

			r.Route("/activities", func(r chi.Router) {
				r.Get("/", activitiesH.List)
				r.Get("/upcoming", activitiesH.Upcoming)
				r.Get("/overdue", activitiesH.Overdue)
				r.Get("/stats", activitiesH.Stats)
				r.Get("/{id}", activitiesH.Get)
				r.With(middleware.RequireRoles("manager", "sales", "support")).Post("/", activitiesH.Create)
				r.With(middleware.RequireRoles("manager", "sales", "support")).Put("/{id}", activitiesH.Update)
				r.With(middleware.RequireRoles("manager", "sales", "support")).Post("/{id}/complete", activitiesH.Complete)
				r.With(middleware.RequireRoles("manager")).Delete("/{id}", activitiesH.Delete)
			})

			r.Route("/orders", func(r chi.Router) {
				r.Get("/", ordersH.List)
				r.Get("/stats", ordersH.Stats)
				r.Get("/{id}", ordersH.Get)
				r.Get("/{id}/history", ordersH.History)
				r.With(middleware.RequireRoles("manager", "sales", "logistics")).Post("/", ordersH.Create)
				r.With(middleware.RequireRoles("manager", "sales", "logistics")).Put("/{id}", ordersH.Update)
			})

			r.Route("/shipments", func(r chi.Router) {
				r.Get("/", shipmentsH.List)
				r.Get("/stats", shipmentsH.Stats)
				r.Get("/{id}", shipmentsH.Get)
				r.Get("/{id}/track", shipmentsH.Track)
				r.With(middleware.RequireRoles("manager", "logistics")).Post("/", shipmentsH.Create)
				r.With(middleware.RequireRoles("manager", "logistics")).Put("/{id}", shipmentsH.Update)
			})
		})
	})

	return r
}
