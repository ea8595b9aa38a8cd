package routers

import (
	"fmt"
	"medbridge-service/internal/app/config"
	"medbridge-service/internal/app/delivery/http/controllers"
	"medbridge-service/internal/app/delivery/http/middlewares"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/cors"
	"github.com/go-chi/httprate"
)

func SetupRoutes(
	router *chi.Mux,
	internalConfig *config.InternalConfig,
	mw *middlewares.Middlewares,
	providerHealthController *controllers.ProviderHealthController,
	flagController *controllers.FlagController,
	auditController *controllers.AuditController,
	ehrController *controllers.EhrController,
	chaosController *controllers.ChaosController,
) {
	corsOptions := cors.Options{
		AllowedOrigins:   []string{"*"},
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "X-Request-ID", "X-Actor-ID", "x-api-key"},
		ExposedHeaders:   []string{"X-Request-ID", "Retry-After"},
		AllowCredentials: true,
		MaxAge:           300,
	}
	router.Use(cors.Handler(corsOptions))

	router.Use(httprate.LimitByIP(internalConfig.App.MaxRequests, time.Second))

	router.Use(mw.RequestIDMiddleware)
	router.Use(mw.Logging(mw.Log))
	router.Use(mw.ErrorHandler)

	// Admin endpoints get a stricter per-IP budget on top of the global
	// one; a leaked admin URL should not allow key brute-forcing.
	adminLimiter := middlewares.NewRateLimiter(10, time.Second, time.Minute)

	endpointPrefix := fmt.Sprintf("/%s", internalConfig.App.EndpointPrefix)
	versionPrefix := fmt.Sprintf("/%s", internalConfig.App.Version)

	router.Route(endpointPrefix, func(r chi.Router) {
		r.Route(versionPrefix, func(r chi.Router) {
			r.Route("/providers/health", func(r chi.Router) {
				attachProviderHealthRoutes(r, providerHealthController)
			})

			r.Route("/ehr", func(r chi.Router) {
				attachEhrRoutes(r, mw, ehrController)
			})

			r.Route("/flags", func(r chi.Router) {
				r.Use(adminLimiter.Limit)
				r.Use(mw.AdminAPIKeyAuth)
				attachFlagRoutes(r, flagController)
			})

			r.Route("/audit", func(r chi.Router) {
				r.Use(adminLimiter.Limit)
				r.Use(mw.AdminAPIKeyAuth)
				attachAuditRoutes(r, auditController)
			})

			r.Route("/chaos", func(r chi.Router) {
				r.Use(adminLimiter.Limit)
				r.Use(mw.AdminAPIKeyAuth)
				attachChaosRoutes(r, chaosController)
			})
		})
	})
}
