package api

import (
	"context"
	"errors"
	"net/http"

	"github.com/antonvlasov/papertrade/internal/common/config"
	"github.com/antonvlasov/papertrade/internal/common/domain"
	"github.com/antonvlasov/papertrade/internal/ledger"
	"github.com/antonvlasov/papertrade/pkg/errs"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
)

// Ledger is the part of the trading service the handlers need.
type Ledger interface {
	GetOrCreatePortfolio(ctx context.Context, userID string) (*domain.Portfolio, error)
	ExecuteTrade(ctx context.Context, userID string, request *ledger.TradeRequest) (*domain.Portfolio, *domain.Transaction, error)
	Reset(ctx context.Context, userID string) (*domain.Portfolio, error)
	Transactions(ctx context.Context, userID string) ([]*domain.Transaction, error)
}

// MarketData supplies the display prices for the market list.
type MarketData interface {
	Prices(ctx context.Context) ([]*domain.AssetPrice, error)
}

type Server struct {
	router *chi.Mux
	server *http.Server
	cfg    *config.Server

	deps *Dependencies
}

type Dependencies struct {
	ledger Ledger
	market MarketData
}

func New(cfg *config.Server, ledger Ledger, market MarketData) *Server {
	s := &Server{
		router: chi.NewRouter(),
		cfg:    cfg,
		deps: &Dependencies{
			ledger: ledger,
			market: market,
		},
	}

	s.setupMiddlewares()
	s.setupRoutes()

	s.server = &http.Server{
		Addr:    cfg.Address,
		Handler: s.router,
	}

	return s
}

func (s *Server) setupMiddlewares() {
	s.router.Use(
		s.recoveryMiddleware,
		s.loggingMiddleware,
		middleware.Timeout(s.cfg.RequestTimeout),
		cors.Handler(cors.Options{
			AllowedOrigins: []string{"*"},
			AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodOptions},
			AllowedHeaders: []string{"Content-Type"},
		}),
	)
}

func (s *Server) setupRoutes() {
	s.router.Route("/api", func(r chi.Router) {
		r.Get("/portfolio/{userID}", s.getPortfolioHandler)
		r.Get("/transactions/{userID}", s.getTransactionsHandler)
		r.Post("/trade", s.tradeHandler)
		r.Post("/reset/{userID}", s.resetHandler)
		r.Get("/prices", s.getPricesHandler)
	})
}

func (s *Server) Handler() http.Handler {
	return s.router
}

func (s *Server) Start() error {
	if err := s.server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return errs.NewStack(err)
	}

	return nil
}

func (s *Server) Stop(ctx context.Context) error {
	return s.server.Shutdown(ctx)
}
