package httpapi

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"

	"aelin/internal/api"
	"aelin/internal/chains"
	"aelin/internal/deal"
	"aelin/internal/metrics"
	"aelin/internal/nftmetadata"
	"aelin/pkg/config"
	"aelin/pkg/logger"
)

type Dependencies struct {
	Cfg         config.Config
	Log         *zap.Logger
	Deals       deal.Store
	Collections nftmetadata.Store
}

func NewRouter(deps Dependencies) http.Handler {
	log := deps.Log
	if log == nil {
		log = zap.L()
	}

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	// Outside Recoverer so a recovered panic is logged with its 500.
	r.Use(logger.Middleware(log))
	r.Use(middleware.Recoverer)
	r.Use(metrics.Middleware)
	r.Use(api.CORSMiddleware(api.CORSOptions{
		AllowedOrigins: deps.Cfg.AllowedOrigins,
		AllowedMethods: []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders: []string{"Content-Type", "Authorization", "X-Wallet-Address"},
		MaxAgeSeconds:  600,
	}))

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})
	r.Method(http.MethodGet, "/metrics", metrics.Handler())

	dealHandlers := deal.Handlers{Store: deps.Deals}
	nftHandlers := nftmetadata.Handlers{Store: deps.Collections}

	// v1
	r.Route("/v1", func(r chi.Router) {
		r.Get("/networks", chains.ListNetworks)
		r.Get("/networks/{chainId}", chains.GetNetwork)
		r.Get("/nft-collections", nftHandlers.List)

		// Stateless: the wizard calls this on every step change.
		r.Post("/deals/validate", dealHandlers.Validate)

		// Sponsor-scoped drafts
		r.Group(func(r chi.Router) {
			r.Use(api.SessionAuth(deps.Cfg))

			r.Post("/deals", dealHandlers.Create)
			r.Get("/deals", dealHandlers.List)
			r.Get("/deals/{id}", dealHandlers.Get)
			r.Get("/deals/{id}/history", dealHandlers.History)
		})
	})

	return r
}
