package router

import (
	"fmt"
	"net/http"

	"github.com/commonsfund/treasury/internal/admin"
	"github.com/commonsfund/treasury/internal/auth"
	"github.com/commonsfund/treasury/internal/events"
	"github.com/commonsfund/treasury/internal/payments"
	"github.com/commonsfund/treasury/internal/proposals"
	"github.com/commonsfund/treasury/internal/services/db"
	"github.com/commonsfund/treasury/internal/signers"
	"github.com/commonsfund/treasury/internal/transfers"
	"github.com/commonsfund/treasury/pkg/vault"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
)

type Router struct {
	apiKey string
	db     *db.DB
	vault  *vault.Vault
}

func NewServer(apiKey string, db *db.DB, v *vault.Vault) *Router {
	return &Router{
		apiKey,
		db,
		v,
	}
}

// implement the Server interface
func (r *Router) Start(port int) error {
	cr := chi.NewRouter()

	a := auth.New(r.apiKey)

	// configure middleware
	cr.Use(middleware.RequestID)
	cr.Use(middleware.Logger)

	// configure custom middleware
	cr.Use(OptionsMiddleware)
	cr.Use(HealthMiddleware)
	cr.Use(RequestSizeLimitMiddleware(1 << 20)) // Limit request bodies to 1MB
	cr.Use(a.AuthMiddleware)
	cr.Use(middleware.Compress(9))

	// instantiate handlers
	ad := admin.NewService(r.vault)
	sg := signers.NewService(r.vault)
	pr := proposals.NewService(r.vault)
	py := payments.NewService(r.vault)
	ev := events.NewService(r.db)
	tr := transfers.NewService(r.db)

	// configure routes
	cr.Post("/initialize", withSignature(ad.Initialize))

	cr.Route("/config", func(cr chi.Router) {
		cr.Get("/", ad.GetConfig)
		cr.Put("/", withSignature(ad.UpdateConfig))
	})

	cr.Route("/signers", func(cr chi.Router) {
		cr.Get("/", sg.List)
		cr.Route("/{signer_addr}", func(cr chi.Router) {
			cr.Post("/role", withSignature(sg.AssignRole))
			cr.Delete("/role", withSignature(sg.RevokeRole))
		})
	})

	cr.Route("/proposals", func(cr chi.Router) {
		cr.Get("/", pr.List)
		cr.Post("/", withSignature(pr.Propose))
		cr.Route("/{proposal_id}", func(cr chi.Router) {
			cr.Get("/", pr.Get)
			cr.Post("/approve", withSignature(pr.Approve))
			cr.Post("/reject", withSignature(pr.Reject))
			cr.Post("/execute", withSignature(pr.Execute))
		})
	})

	cr.Route("/payments", func(cr chi.Router) {
		cr.Get("/", py.List)
		cr.Post("/", withSignature(py.Schedule))
		cr.Route("/{payment_id}", func(cr chi.Router) {
			cr.Get("/", py.Get)
			cr.Get("/history", py.History)
			cr.Post("/pause", withSignature(py.Pause))
			cr.Post("/resume", withSignature(py.Resume))
			cr.Post("/cancel", withSignature(py.Cancel))
			cr.Post("/execute", withSignature(py.Execute))
		})
	})

	cr.Route("/events", func(cr chi.Router) {
		cr.Get("/", ev.List)
	})

	cr.Route("/transfers", func(cr chi.Router) {
		cr.Get("/", tr.List)
	})

	// start the server
	return http.ListenAndServe(fmt.Sprintf(":%v", port), cr)
}
