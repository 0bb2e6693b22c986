package gateway

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
)

type RouterConfig struct {
	Orders         OrdersService
	Users          UsersService
	Catalog        Catalog
	Verifier       TokenVerifier
	RequestTimeout time.Duration
}

// NewRouter assembles the public HTTP surface. Auth endpoints and catalog
// reads are open, everything else sits behind the bearer-token middleware.
func NewRouter(cfg RouterConfig) http.Handler {
	ordersHandler := NewOrdersHandler(cfg.Orders, cfg.RequestTimeout)
	usersHandler := NewUsersHandler(cfg.Users, cfg.RequestTimeout)
	productHandler := NewProductHandler(cfg.Catalog, cfg.RequestTimeout)

	r := chi.NewRouter()

	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(middleware.RequestID)
	r.Use(RequestIDMiddleware)
	r.Use(middleware.Timeout(cfg.RequestTimeout))
	r.Use(middleware.Compress(5))

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		respondJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})

	r.Route("/auth", func(r chi.Router) {
		r.Post("/login", usersHandler.Login)
		r.Post("/register", usersHandler.Register)
	})

	r.Route("/products", func(r chi.Router) {
		r.Get("/", productHandler.List)
		r.Get("/{id}", productHandler.Get)
	})

	r.Group(func(r chi.Router) {
		r.Use(AuthMiddleware(cfg.Verifier))

		r.Route("/orders", func(r chi.Router) {
			r.Post("/", ordersHandler.CreateOrder)
			r.Get("/user/{userId}", ordersHandler.ListOrders)
			r.Get("/{id}", ordersHandler.GetOrder)
			r.Patch("/{id}", ordersHandler.UpdateStatus)
		})

		r.Route("/users", func(r chi.Router) {
			r.Get("/{id}", usersHandler.GetUser)
			r.Post("/{id}/add-funds", usersHandler.AddFunds)
			r.Post("/{id}/change-password", usersHandler.ChangePassword)
		})
	})

	return otelhttp.NewHandler(r, "gateway")
}
