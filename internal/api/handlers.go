package api

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"
)

func (s *Server) getPortfolioHandler(w http.ResponseWriter, r *http.Request) {
	userID := chi.URLParam(r, "userID")
	if userID == "" {
		writeError(w, http.StatusBadRequest, kindInvalidRequest, "userId is required")
		return
	}

	portfolio, err := s.deps.ledger.GetOrCreatePortfolio(r.Context(), userID)
	if err != nil {
		writeInternalError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, newPortfolioResponse(portfolio))
}

func (s *Server) getTransactionsHandler(w http.ResponseWriter, r *http.Request) {
	userID := chi.URLParam(r, "userID")
	if userID == "" {
		writeError(w, http.StatusBadRequest, kindInvalidRequest, "userId is required")
		return
	}

	transactions, err := s.deps.ledger.Transactions(r.Context(), userID)
	if err != nil {
		writeInternalError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, newTransactionsResponse(transactions))
}

func (s *Server) tradeHandler(w http.ResponseWriter, r *http.Request) {
	req := &tradeRequest{}
	if err := json.NewDecoder(r.Body).Decode(req); err != nil {
		writeError(w, http.StatusBadRequest, kindInvalidRequest, "invalid request body")
		return
	}

	if req.UserID == "" || req.Type == "" || req.AssetID == "" || req.Quantity == nil {
		writeError(w, http.StatusBadRequest, kindInvalidRequest,
			"userId, type, assetId and quantity are required")
		return
	}

	portfolio, transaction, err := s.deps.ledger.ExecuteTrade(r.Context(), req.UserID, req.CreateTradeRequest())
	if err != nil {
		writeTradeError(w, err)
		return
	}

	priceSource := priceSourceKraken
	if req.Price != nil {
		priceSource = priceSourceManual
	}

	writeJSON(w, http.StatusCreated, &tradeResponse{
		Portfolio:   newPortfolioResponse(portfolio),
		Transaction: newTransactionResponse(transaction),
		PriceSource: priceSource,
	})
}

func (s *Server) resetHandler(w http.ResponseWriter, r *http.Request) {
	userID := chi.URLParam(r, "userID")
	if userID == "" {
		writeError(w, http.StatusBadRequest, kindInvalidRequest, "userId is required")
		return
	}

	portfolio, err := s.deps.ledger.Reset(r.Context(), userID)
	if err != nil {
		writeInternalError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, newPortfolioResponse(portfolio))
}

func (s *Server) getPricesHandler(w http.ResponseWriter, r *http.Request) {
	prices, err := s.deps.market.Prices(r.Context())
	if err != nil {
		writeInternalError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, newPricesResponse(prices))
}
