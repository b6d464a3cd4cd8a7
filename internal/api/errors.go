package api

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/antonvlasov/papertrade/internal/tradeerrs"
	"github.com/antonvlasov/papertrade/pkg/errs"
	"github.com/antonvlasov/papertrade/pkg/log"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// Machine-distinguishable rejection kinds for API consumers.
const (
	kindInvalidRequest       = "INVALID_REQUEST"
	kindInvalidType          = "INVALID_TYPE"
	kindInvalidQuantity      = "INVALID_QUANTITY"
	kindInvalidPrice         = "INVALID_PRICE"
	kindInsufficientFunds    = "INSUFFICIENT_FUNDS"
	kindInsufficientHoldings = "INSUFFICIENT_HOLDINGS"
	kindPriceUnavailable     = "PRICE_UNAVAILABLE"
	kindInternal             = "INTERNAL"
)

type errorResponse struct {
	Error errorBody `json:"error"`
}

type errorBody struct {
	Kind    string `json:"kind"`
	Message string `json:"message"`

	Required  *decimal.Decimal `json:"required,omitempty"`
	Available *decimal.Decimal `json:"available,omitempty"`
}

func writeTradeError(w http.ResponseWriter, err error) {
	var insufficientFunds *tradeerrs.InsufficientFundsError
	var insufficientHoldings *tradeerrs.InsufficientHoldingsError
	var priceUnavailable *tradeerrs.PriceUnavailableError

	switch {
	case errors.Is(err, tradeerrs.ErrInvalidType):
		writeError(w, http.StatusBadRequest, kindInvalidType, err.Error())
	case errors.Is(err, tradeerrs.ErrInvalidQuantity):
		writeError(w, http.StatusBadRequest, kindInvalidQuantity, err.Error())
	case errors.Is(err, tradeerrs.ErrInvalidPrice):
		writeError(w, http.StatusBadRequest, kindInvalidPrice, err.Error())
	case errors.As(err, &insufficientFunds):
		writeErrorAmounts(w, http.StatusBadRequest, kindInsufficientFunds, err.Error(),
			insufficientFunds.Required, insufficientFunds.Available)
	case errors.As(err, &insufficientHoldings):
		writeErrorAmounts(w, http.StatusBadRequest, kindInsufficientHoldings, err.Error(),
			insufficientHoldings.Required, insufficientHoldings.Available)
	case errors.As(err, &priceUnavailable):
		writeError(w, http.StatusBadGateway, kindPriceUnavailable, err.Error())
	default:
		writeInternalError(w, err)
	}
}

func writeError(w http.ResponseWriter, status int, kind, message string) {
	writeJSON(w, status, &errorResponse{Error: errorBody{Kind: kind, Message: message}})
}

func writeErrorAmounts(w http.ResponseWriter, status int, kind, message string, required, available decimal.Decimal) {
	writeJSON(w, status, &errorResponse{Error: errorBody{
		Kind:      kind,
		Message:   message,
		Required:  &required,
		Available: &available,
	}})
}

// writeInternalError hides the cause from the response and logs it,
// with the stack recorded at the wrap site when the error carries one.
func writeInternalError(w http.ResponseWriter, err error) {
	log.Error("request failed", zap.Error(err), zap.String("trace", errs.Trace(err)))

	writeError(w, http.StatusInternalServerError, kindInternal, "internal error")
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)

	if err := json.NewEncoder(w).Encode(body); err != nil {
		log.Error("failed to write response", zap.Error(err))
	}
}
