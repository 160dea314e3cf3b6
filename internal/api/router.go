/**
 * @description
 * This file sets up the HTTP router for the exchange service. It defines the
 * API endpoints, associates them with their corresponding handlers, and
 * applies the gateway authentication middleware.
 *
 * @dependencies
 * - net/http: Standard Go library for HTTP functionality.
 * - github.com/go-chi/chi/v5: A lightweight and idiomatic router for Go.
 */

package api

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
)

// ExchangeRoutes creates and returns a new router for the exchange service.
func ExchangeRoutes(h *ExchangeHandlers, gatewaySecret string) http.Handler {
	r := chi.NewRouter()

	// Add standard middleware for logging, panic recovery, and timeouts.
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(60 * time.Second))

	// Health check endpoint
	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("healthy"))
	})

	// Group routes that require a gateway-issued token.
	r.Group(func(r chi.Router) {
		r.Use(GatewayAuthMiddleware(gatewaySecret))

		// Payment slot registry
		r.Put("/registry/slots/{slotType}/{slotIndex}", h.WriteSlotHandler)
		r.Delete("/registry/slots/{slotType}/{slotIndex}", h.ClearSlotHandler)
		r.Get("/registry/users/{userID}/slots/{slotType}/{slotIndex}", h.ReadSlotHandler)

		// Conversion rate table
		r.Get("/rates", h.RatesHandler)
		r.Post("/rates/convert", h.ConvertHandler)
		r.Put("/rates/{rateKind}", h.SetRateHandler)

		// Settlement confirmation workflow
		r.Post("/settlements", h.BeginSettlementHandler)
		r.Post("/settlements/{sessionID}/confirm", h.ConfirmSettlementHandler)
		r.Post("/settlements/{sessionID}/cancel", h.CancelSettlementHandler)

		// Settlement ledger
		r.Get("/ledger/{userID}", h.LedgerHandler)
		r.Post("/ledger/{userID}/adjust", h.AdjustLedgerHandler)

		// Help rendering
		r.Get("/commands", h.CommandsHandler)
	})

	return r
}
