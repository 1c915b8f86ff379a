package declair

import (
	"log/slog"

	"github.com/go-chi/chi"
	"github.com/go-chi/chi/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	httpSwagger "github.com/swaggo/http-swagger"
	"golang.org/x/time/rate"

	"github.com/ainexo/declair/internal/config"
	"github.com/ainexo/declair/internal/http/handlers/accessstatus"
	"github.com/ainexo/declair/internal/http/handlers/auth/acceptinvite"
	"github.com/ainexo/declair/internal/http/handlers/auth/forgotpassword"
	"github.com/ainexo/declair/internal/http/handlers/auth/invite"
	"github.com/ainexo/declair/internal/http/handlers/auth/login"
	"github.com/ainexo/declair/internal/http/handlers/auth/register"
	"github.com/ainexo/declair/internal/http/handlers/auth/resetpassword"
	"github.com/ainexo/declair/internal/http/handlers/auth/verifyemail"
	"github.com/ainexo/declair/internal/http/handlers/billing/checkout"
	"github.com/ainexo/declair/internal/http/handlers/billing/sync"
	"github.com/ainexo/declair/internal/http/handlers/billing/webhook"
	"github.com/ainexo/declair/internal/http/handlers/chat/search"
	"github.com/ainexo/declair/internal/http/handlers/chatbot/settingsread"
	"github.com/ainexo/declair/internal/http/handlers/chatbot/settingsupdate"
	"github.com/ainexo/declair/internal/http/handlers/dashboard/stats"
	"github.com/ainexo/declair/internal/http/handlers/knowledge/faqcreate"
	"github.com/ainexo/declair/internal/http/handlers/knowledge/faqlist"
	"github.com/ainexo/declair/internal/http/handlers/knowledge/faqremove"
	"github.com/ainexo/declair/internal/http/handlers/knowledge/faqupdate"
	"github.com/ainexo/declair/internal/http/handlers/knowledge/filelist"
	"github.com/ainexo/declair/internal/http/handlers/knowledge/fileremove"
	"github.com/ainexo/declair/internal/http/handlers/knowledge/fileupload"
	"github.com/ainexo/declair/internal/http/handlers/knowledge/websitecreate"
	"github.com/ainexo/declair/internal/http/handlers/knowledge/websitelist"
	"github.com/ainexo/declair/internal/http/handlers/knowledge/websiteremove"
	"github.com/ainexo/declair/internal/http/handlers/knowledge/websiteupdate"
	notificationlist "github.com/ainexo/declair/internal/http/handlers/notification/list"
	"github.com/ainexo/declair/internal/http/handlers/notification/markread"
	projectcreate "github.com/ainexo/declair/internal/http/handlers/project/create"
	projectlist "github.com/ainexo/declair/internal/http/handlers/project/list"
	projectremove "github.com/ainexo/declair/internal/http/handlers/project/remove"
	projectupdate "github.com/ainexo/declair/internal/http/handlers/project/update"
	"github.com/ainexo/declair/internal/http/middlewarectx"
	"github.com/ainexo/declair/internal/models"
)

// RegisterRoutes регистрирует все маршруты приложения.
func RegisterRoutes(r chi.Router, logger *slog.Logger, cfg *config.Config, s *Services) {
	// Глобальные middleware
	r.Use(
		middleware.RequestID,
		middleware.Logger,
		middleware.Recoverer,
		middleware.URLFormat,
	)

	r.Route("/api/v1", func(r chi.Router) {
		// Открытые конечные точки
		r.Post("/auth/register", register.New(logger, s.Auth).ServeHTTP)
		r.Post("/auth/login", login.New(logger, s.Auth).ServeHTTP)
		r.Get("/auth/verify-email", verifyemail.New(logger, s.Auth).ServeHTTP)
		r.Post("/auth/forgot-password", forgotpassword.New(logger, s.Auth).ServeHTTP)
		r.Post("/auth/reset-password", resetpassword.New(logger, s.Auth).ServeHTTP)
		r.Post("/auth/accept-invite", acceptinvite.New(logger, s.Auth).ServeHTTP)

		// Webhook endpoint (без аутентификации, подпись проверяет Stripe)
		r.Post("/billing/webhook", webhook.New(logger, s.Billing, cfg.WebhookSecret).ServeHTTP)

		// Группа с JWT аутентификацией
		r.Group(func(r chi.Router) {
			r.Use(middlewarectx.JWTMiddleware(s.JWTMaker, logger))
			r.Use(middlewarectx.RateLimitMiddleware(logger, rate.Limit(10), 20))

			r.Post("/billing/sync", sync.New(logger, s.Billing).ServeHTTP)
			r.Post("/billing/checkout", checkout.New(logger, s.Billing).ServeHTTP)
			r.Get("/access/status", accessstatus.New(logger, s.Access).ServeHTTP)
			r.Get("/notifications", notificationlist.New(logger, s.Notification).ServeHTTP)
			r.Put("/notifications/{id}/read", markread.New(logger, s.Notification).ServeHTTP)

			r.Group(func(r chi.Router) {
				r.Use(middlewarectx.RequireRole(logger, models.RoleAdmin, models.RoleSuperuser))
				r.Post("/auth/invite", invite.New(logger, s.Auth).ServeHTTP)
			})

			// Контент доступен только при активной подписке или в пробном периоде
			r.Group(func(r chi.Router) {
				r.Use(middlewarectx.SubscriptionAccessMiddleware(logger, s.Access))

				r.Post("/knowledge/websites", websitecreate.New(logger, s.Knowledge).ServeHTTP)
				r.Get("/knowledge/websites", websitelist.New(logger, s.Knowledge).ServeHTTP)
				r.Put("/knowledge/websites/{id}", websiteupdate.New(logger, s.Knowledge).ServeHTTP)
				r.Delete("/knowledge/websites/{id}", websiteremove.New(logger, s.Knowledge).ServeHTTP)
				r.Post("/knowledge/faqs", faqcreate.New(logger, s.Knowledge).ServeHTTP)
				r.Get("/knowledge/faqs", faqlist.New(logger, s.Knowledge).ServeHTTP)
				r.Put("/knowledge/faqs/{id}", faqupdate.New(logger, s.Knowledge).ServeHTTP)
				r.Delete("/knowledge/faqs/{id}", faqremove.New(logger, s.Knowledge).ServeHTTP)
				r.Post("/knowledge/files", fileupload.New(logger, s.Knowledge).ServeHTTP)
				r.Get("/knowledge/files", filelist.New(logger, s.Knowledge).ServeHTTP)
				r.Delete("/knowledge/files/{id}", fileremove.New(logger, s.Knowledge).ServeHTTP)

				r.Post("/chat/search", search.New(logger, s.Chat).ServeHTTP)

				r.Post("/projects", projectcreate.New(logger, s.Project).ServeHTTP)
				r.Get("/projects", projectlist.New(logger, s.Project).ServeHTTP)
				r.Put("/projects/{id}", projectupdate.New(logger, s.Project).ServeHTTP)
				r.Delete("/projects/{id}", projectremove.New(logger, s.Project).ServeHTTP)

				r.Get("/chatbot/settings", settingsread.New(logger, s.Chatbot).ServeHTTP)
				r.Group(func(r chi.Router) {
					r.Use(middlewarectx.RequireRole(logger, models.RoleAdmin, models.RoleSuperuser))
					r.Put("/chatbot/settings", settingsupdate.New(logger, s.Chatbot).ServeHTTP)
				})

				r.Get("/dashboard/stats", stats.New(logger, s.Dashboard).ServeHTTP)
			})
		})
	})

	r.Handle("/metrics", promhttp.Handler())
	// Swagger docs endpoint
	r.Get("/docs/*", httpSwagger.WrapHandler)
}
