package api

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chiMiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/jwtauth/v5"
	"github.com/redis/go-redis/v9"

	"code_arena/internal/api/handler"
	"code_arena/internal/api/middleware"
	"code_arena/internal/app/service"
	"code_arena/internal/common/security"
)

func NewRouter(
	authService *service.AuthService,
	battleService *service.BattleService,
	submissionService *service.SubmissionService,
	rdb *redis.Client,
) http.Handler {
	r := chi.NewRouter()

	r.Use(chiMiddleware.RequestID)
	r.Use(chiMiddleware.RealIP)
	r.Use(chiMiddleware.Logger)
	r.Use(chiMiddleware.Recoverer)

	// Token lookup includes the query string so websocket clients, which
	// cannot set an Authorization header from the browser, can authenticate
	// with ?jwt=<token>.
	r.Use(jwtauth.Verify(security.TokenAuth, jwtauth.TokenFromHeader, jwtauth.TokenFromQuery, jwtauth.TokenFromCookie))

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("OK"))
	})

	r.Route("/api/v1", func(v1 chi.Router) {
		authHandler := handler.NewAuthHandler(authService)
		battleHandler := handler.NewBattleHandler(battleService)
		submissionHandler := handler.NewSubmissionHandler(submissionService)
		eventsHandler := handler.NewBattleEventsHandler(battleService, rdb)

		// Auth routes (public)
		v1.Group(func(publicAuth chi.Router) {
			publicAuth.Use(chiMiddleware.Timeout(60 * time.Second))
			authHandler.RegisterRoutes(publicAuth)
		})

		// Supported languages (public)
		v1.Group(func(public chi.Router) {
			public.Use(chiMiddleware.Timeout(60 * time.Second))
			submissionHandler.RegisterMetaRoutes(public)
		})

		// Everything battle-scoped requires a logged-in competitor. The event
		// stream stays outside the timeout middleware so websocket sessions
		// are not cut off mid-battle.
		v1.Route("/battles", func(b chi.Router) {
			b.Use(middleware.Authenticator)
			b.Group(func(rest chi.Router) {
				rest.Use(chiMiddleware.Timeout(60 * time.Second))
				battleHandler.RegisterRoutes(rest)
				submissionHandler.RegisterRoutes(rest)
			})
			eventsHandler.RegisterRoutes(b)
		})
	})

	return r
}
