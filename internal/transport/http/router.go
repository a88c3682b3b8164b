package http

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/cors"
	"golang.org/x/time/rate"

	"github.com/membergate/api/internal/application/member"
	"github.com/membergate/api/internal/application/session"
	"github.com/membergate/api/internal/application/verification"
	"github.com/membergate/api/internal/config"
	"github.com/membergate/api/internal/transport/http/handler"
	appmiddleware "github.com/membergate/api/internal/transport/http/middleware"
)

// NewRouter builds and returns the application router. Middleware order is
// the auth pipeline's ordering contract: trace/recover first, then the
// authenticate stage (blacklist check before token validation inside it),
// then per-route authorization.
func NewRouter(cfg *config.Config, deps *Deps) http.Handler {
	sessionSvc := session.NewService(deps.TokenStore, deps.Codec)
	verificationSvc := verification.NewService(deps.VerificationStore, deps.Mailer, verification.TTLs{
		Code:     cfg.CodeTTL,
		Cooldown: cfg.CooldownTTL,
		Verified: cfg.VerifiedTTL,
	})
	memberSvc := member.NewService(deps.MemberStore, sessionSvc, verificationSvc, deps.Codec, cfg.RefreshTTL)

	healthH := handler.NewHealthHandler()
	memberH := handler.NewMemberHandler(memberSvc, sessionSvc)
	emailH := handler.NewEmailHandler(verificationSvc)

	// 5 requests/second, burst of 10 — applied to sensitive public endpoints.
	sensitiveRL := appmiddleware.NewRateLimiter(rate.Limit(5), 10)

	r := chi.NewRouter()
	r.Use(appmiddleware.Trace(cfg.SlowRequestThreshold))
	r.Use(appmiddleware.Recover)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   cfg.AllowedOrigins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		AllowCredentials: false,
		MaxAge:           300,
	}))
	r.Use(appmiddleware.Authenticate(deps.Codec, sessionSvc, deps.MemberStore))

	r.Route("/api", func(r chi.Router) {
		r.Get("/health", healthH.Ping)

		// public, anonymous allowed
		r.With(sensitiveRL.Limit).Post("/email/send", emailH.SendCode)
		r.With(sensitiveRL.Limit).Post("/email/verify", emailH.VerifyCode)
		r.With(sensitiveRL.Limit).Post("/members/signup", memberH.Signup)
		r.With(sensitiveRL.Limit).Post("/members/login", memberH.Login)
		r.Group(func(r chi.Router) {
			r.Use(appmiddleware.RequireAuth)

			r.Get("/members/me", memberH.Me)
			r.Post("/members/logout", memberH.Logout)
			r.Post("/members/withdraw", memberH.Withdraw)
			r.Post("/members/change-password", memberH.ChangePassword)
			r.Post("/members/change-nickname", memberH.ChangeNickname)
		})
	})

	return r
}
