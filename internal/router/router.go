package router

import (
	"net/http"

	"storefront/internal/handler"
	"storefront/internal/metrics"
	"storefront/internal/middleware"
	"storefront/internal/model"
	"storefront/internal/storage"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/rs/zerolog"
)

// Handlers groups the HTTP handlers mounted by the router.
type Handlers struct {
	Product    *handler.ProductHandler
	Order      *handler.OrderHandler
	Payment    *handler.PaymentHandler
	User       *handler.UserHandler
	Subscriber *handler.SubscriberHandler
	Upload     *handler.UploadHandler
}

// Options carries the non-handler dependencies of the router.
type Options struct {
	Authenticator middleware.Authenticator
	Metrics       *metrics.Metrics
	UploadDir     string
	Production    bool
}

// New creates a new HTTP router with all routes and middleware configured.
func New(h Handlers, opts Options, logger zerolog.Logger) http.Handler {
	r := chi.NewRouter()

	// Applied outermost first: RequestID -> Recovery -> Logging -> Metrics -> CORS
	r.Use(chimw.RequestID)
	r.Use(middleware.Recovery(logger, opts.Production))
	r.Use(middleware.Logging(logger))
	if opts.Metrics != nil {
		r.Use(opts.Metrics.Middleware)
	}
	r.Use(middleware.CORS)

	authenticate := middleware.Authenticate(opts.Authenticator, logger)
	optional := middleware.OptionalAuthenticate(opts.Authenticator, logger)
	adminOnly := middleware.RequireRole(model.RoleAdmin)

	r.Get("/health", handler.HealthHandler)
	if opts.Metrics != nil {
		r.Method(http.MethodGet, "/metrics", opts.Metrics.Handler())
	}
	if opts.UploadDir != "" {
		r.Handle(storage.PublicPrefix+"*", http.StripPrefix(storage.PublicPrefix, http.FileServer(http.Dir(opts.UploadDir))))
	}

	r.Route("/api/products", func(r chi.Router) {
		r.Get("/", h.Product.GetAll)
		r.Get("/{id}", h.Product.GetByID)
		r.With(authenticate, adminOnly).Post("/", h.Product.Create)
	})

	r.Route("/api/users", func(r chi.Router) {
		r.Post("/register", h.User.Register)
		r.Get("/verify/{token}", h.User.VerifyEmail)
		r.Post("/login", h.User.Login)
		r.Post("/forgot-password", h.User.ForgotPassword)
		r.Post("/reset-password/{token}", h.User.ResetPassword)
	})

	r.Route("/api/orders", func(r chi.Router) {
		r.With(optional).Post("/", h.Order.Create)
		r.Get("/guest/{email}", h.Order.ListGuest)
		r.Get("/paystack/verify/{reference}", h.Payment.Verify)
		r.Post("/paystack/webhook", h.Payment.Webhook)

		r.Group(func(r chi.Router) {
			r.Use(authenticate)
			r.Get("/myorders", h.Order.ListMine)
			r.Delete("/{id}", h.Order.Delete)
			r.With(adminOnly).Get("/admin", h.Order.ListAll)
			r.With(adminOnly).Put("/{id}/status", h.Order.UpdateStatus)
		})
	})

	r.Route("/api/subscribers", func(r chi.Router) {
		r.Post("/", h.Subscriber.Subscribe)
		r.With(authenticate, adminOnly).Post("/send-update", h.Subscriber.SendUpdate)
	})

	r.With(authenticate, adminOnly).Post("/api/uploads", h.Upload.Upload)

	return r
}
