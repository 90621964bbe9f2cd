package http

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	"github.com/jvilaplana/cartera/internal/auth"
	"github.com/jvilaplana/cartera/internal/http/importcsv"
	"github.com/jvilaplana/cartera/internal/http/session"
	"github.com/jvilaplana/cartera/internal/http/summary"
	"github.com/jvilaplana/cartera/internal/http/transaction"
	"github.com/jvilaplana/cartera/internal/http/wallet"
)

func New(
	gate *auth.Gate,
	verifier *auth.Verifier,
	sessionV1 *session.Handler,
	walletsV1 *wallet.Handler,
	transactionsV1 *transaction.Handler,
	importV1 *importcsv.Handler,
	summaryV1 *summary.Handler,
) http.Handler {
	router := chi.NewRouter()

	router.Use(middleware.Logger)
	router.Use(middleware.Recoverer)
	router.Use(cors.Handler(cors.Options{
		AllowedOrigins: []string{"*"},
		AllowedMethods: []string{"GET", "POST", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders: []string{"Accept", "Accept-Language", "Authorization", "Content-Type"},
		MaxAge:         300,
	}))

	router.Route("/api/v1", func(r chi.Router) {
		r.Route("/session", func(r chi.Router) {
			r.Use(middleware.AllowContentType("application/json"))
			sessionV1.Routes(r)
		})

		r.Group(func(r chi.Router) {
			r.Use(Authenticate(gate, verifier))

			r.Route("/wallets", func(r chi.Router) {
				r.Use(middleware.AllowContentType("application/json"))
				walletsV1.Routes(r)
			})

			r.Route("/transactions", func(r chi.Router) {
				r.Use(middleware.AllowContentType("application/json"))
				transactionsV1.Routes(r)
			})

			r.Route("/import", importV1.Routes)

			r.Route("/summary", summaryV1.Routes)
		})
	})

	return router
}
