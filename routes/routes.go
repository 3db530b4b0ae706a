package routes

import (
	"net/http"

	_ "github.com/Dosada05/wishly/docs" // регистрирует swagger-документ
	"github.com/Dosada05/wishly/handlers"
	"github.com/Dosada05/wishly/metrics"
	"github.com/Dosada05/wishly/middleware"
	"github.com/go-chi/chi/v5"
	chiMiddleware "github.com/go-chi/chi/v5/middleware" // Alias to avoid conflict
	"github.com/go-chi/cors"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	httpSwagger "github.com/swaggo/http-swagger"
)

type Handlers struct {
	Auth      *handlers.AuthHandler
	User      *handlers.UserHandler
	Occasion  *handlers.OccasionHandler
	Invite    *handlers.InviteHandler
	Wishlist  *handlers.WishlistHandler
	Match     *handlers.MatchHandler
	WebSocket *handlers.WebSocketHandler
}

type Options struct {
	JWTSecret      []byte
	AllowedOrigins []string
	Metrics        metrics.Collector
	// Gatherer для /metrics; nil отключает эндпоинт.
	Gatherer prometheus.Gatherer
}

func SetupRoutes(router chi.Router, h Handlers, opts Options) {
	collector := opts.Metrics
	if collector == nil {
		collector = metrics.NewNop()
	}

	router.Use(chiMiddleware.RequestID)
	router.Use(chiMiddleware.RealIP)
	router.Use(chiMiddleware.Logger)
	router.Use(chiMiddleware.Recoverer)
	router.Use(cors.Handler(cors.Options{
		AllowedOrigins:   opts.AllowedOrigins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		AllowCredentials: false,
		MaxAge:           300,
	}))
	router.Use(metrics.Middleware(collector))

	router.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
	if opts.Gatherer != nil {
		router.Handle("/metrics", promhttp.HandlerFor(opts.Gatherer, promhttp.HandlerOpts{}))
	}
	router.Get("/swagger/*", httpSwagger.Handler(httpSwagger.URL("/swagger/doc.json")))

	router.Route("/auth", func(r chi.Router) {
		r.Post("/register", h.Auth.Register)
		r.Post("/login", h.Auth.Login)
	})

	// Защищенные маршруты
	router.Group(func(r chi.Router) {
		r.Use(middleware.Authenticate(opts.JWTSecret))

		r.Route("/users", func(r chi.Router) {
			r.Get("/me", h.User.GetMe)
			r.Put("/me", h.User.UpdateMe)
			r.Post("/me/avatar", h.User.UploadAvatar)
			r.Get("/search", h.User.SearchByEmail)
		})

		r.Route("/occasions", func(r chi.Router) {
			r.Get("/", h.Occasion.ListMyOccasions)
			r.Post("/", h.Occasion.CreateOccasion)

			r.Route("/{occasionID}", func(r chi.Router) {
				r.Get("/", h.Occasion.GetOccasion)
				r.Put("/", h.Occasion.UpdateOccasion)
				r.Delete("/", h.Occasion.DeleteOccasion)

				r.Delete("/members/me", h.Occasion.LeaveOccasion)
				r.Delete("/members/{userID}", h.Occasion.RemoveMember)
				r.Get("/members/{userID}/items", h.Wishlist.ListMemberItems)

				r.Get("/invites", h.Invite.ListOccasionInvites)
				r.Post("/invites", h.Invite.SendInvite)

				r.Post("/items", h.Wishlist.AddItem)
				r.Get("/items/mine", h.Wishlist.ListMyItems)

				r.Post("/match", h.Match.MatchOccasion)
				r.Delete("/match", h.Match.ResetMatch)
				r.Get("/assignment", h.Match.GetMyAssignment)
			})
		})

		r.Route("/invites", func(r chi.Router) {
			r.Get("/", h.Invite.ListMyInvites)
			r.Get("/token/{token}", h.Invite.GetInviteByToken)
			r.Post("/token/{token}/accept", h.Invite.AcceptInviteByToken)
			r.Post("/{inviteID}/accept", h.Invite.AcceptInvite)
			r.Post("/{inviteID}/decline", h.Invite.DeclineInvite)
		})

		r.Route("/items", func(r chi.Router) {
			r.Get("/mine", h.Wishlist.ListAllMyItems)
			r.Put("/{itemID}", h.Wishlist.UpdateItem)
			r.Delete("/{itemID}", h.Wishlist.DeleteItem)
			r.Post("/{itemID}/image", h.Wishlist.UploadItemImage)
			r.Post("/{itemID}/purchase", h.Wishlist.MarkPurchased)
			r.Delete("/{itemID}/purchase", h.Wishlist.UnmarkPurchased)
		})

		r.Get("/ws/occasions/{occasionID}", h.WebSocket.ServeWs)
	})
}
