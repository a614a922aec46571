package web

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"

	"orderflow/internal/app"
)

// Handler holds the ApplicationService and the chi router.
type Handler struct {
	svc       app.ApplicationService
	jwtSecret string
	log       zerolog.Logger
}

// NewHandler creates and wires the chi router with all routes.
func NewHandler(svc app.ApplicationService, allowedOrigins, jwtSecret string, log zerolog.Logger) http.Handler {
	h := &Handler{
		svc:       svc,
		jwtSecret: jwtSecret,
		log:       log,
	}

	r := chi.NewRouter()
	r.Use(RequestID)
	r.Use(Logger(log))
	r.Use(Recoverer(log))
	r.Use(CORS(allowedOrigins))

	// ── Health (public) ───────────────────────────────────────────────────────
	r.Get("/api/health", h.health)

	// ── Protected API routes (return 401 JSON if unauthenticated) ────────────
	r.Group(func(r chi.Router) {
		r.Use(h.RequireAuth)
		r.Use(RequestBodyLimit(1 << 20)) // 1 MB

		// ── Approval configuration ───────────────────────────────────────────
		r.Get("/api/companies/{companyID}/approval-config", h.apiGetApprovalConfig)
		r.Put("/api/companies/{companyID}/approval-config", h.apiSaveApprovalConfig)

		// ── Purchase orders ──────────────────────────────────────────────────
		r.Get("/api/companies/{companyID}/purchase-orders", h.apiListPurchaseOrders)
		r.Post("/api/companies/{companyID}/purchase-orders", h.apiCreatePurchaseOrder)
		r.Post("/api/companies/{companyID}/purchase-orders/confirm-batch", h.apiConfirmPurchaseOrderBatch)
		r.Get("/api/purchase-orders/{id}", h.apiGetPurchaseOrder)
		r.Put("/api/purchase-orders/{id}/lines", h.apiUpdatePurchaseOrderLines)
		r.Post("/api/purchase-orders/{id}/send", h.apiSendPurchaseOrder)
		r.Post("/api/purchase-orders/{id}/confirm", h.apiConfirmPurchaseOrder)
		r.Post("/api/purchase-orders/{id}/approve-level1", h.apiApprovePurchaseOrderLevel1)
		r.Post("/api/purchase-orders/{id}/approve-level2", h.apiApprovePurchaseOrderLevel2)
		r.Post("/api/purchase-orders/{id}/reject", h.apiRejectPurchaseOrder)
		r.Post("/api/purchase-orders/{id}/cancel", h.apiCancelPurchaseOrder)

		// ── Discount rules ───────────────────────────────────────────────────
		r.Get("/api/companies/{companyID}/discount-rules", h.apiListDiscountRules)
		r.Post("/api/companies/{companyID}/discount-rules", h.apiCreateDiscountRule)
		r.Get("/api/discount-rules/{id}", h.apiGetDiscountRule)
		r.Put("/api/discount-rules/{id}", h.apiUpdateDiscountRule)
		r.Delete("/api/discount-rules/{id}", h.apiDeactivateDiscountRule)

		// ── Sales orders ─────────────────────────────────────────────────────
		r.Get("/api/companies/{companyID}/sales-orders", h.apiListSaleOrders)
		r.Post("/api/companies/{companyID}/sales-orders", h.apiCreateSaleOrder)
		r.Get("/api/sales-orders/{id}", h.apiGetSaleOrder)
		r.Put("/api/sales-orders/{id}/lines", h.apiUpdateSaleOrderLines)
		r.Put("/api/sales-orders/{id}/advance-payment", h.apiSetAdvancePayment)
		r.Post("/api/sales-orders/{id}/send", h.apiSendSaleOrder)
		r.Post("/api/sales-orders/{id}/confirm", h.apiConfirmSaleOrder)
		r.Post("/api/sales-orders/{id}/cancel", h.apiCancelSaleOrder)
		r.Post("/api/sales-orders/{id}/apply-discounts", h.apiApplySaleOrderDiscounts)
		r.Post("/api/sales-orders/{id}/record-advance", h.apiRecordAdvancePayment)

		// ── Ledger ───────────────────────────────────────────────────────────
		r.Get("/api/journal-entries/{id}", h.apiGetJournalEntry)

		// ── Reporting ────────────────────────────────────────────────────────
		r.Get("/api/companies/{companyID}/reports/profitability", h.apiProfitabilityReport)
		r.Get("/api/companies/{companyID}/reports/profitability.xlsx", h.apiProfitabilityExcel)
		r.Get("/api/companies/{companyID}/reports/profitability.html", h.apiProfitabilityDocument)
	})

	return r
}

// health returns service status.
func (h *Handler) health(w http.ResponseWriter, r *http.Request) {
	type response struct {
		Status string `json:"status"`
	}
	writeJSON(w, response{Status: "ok"})
}

// intParam extracts a positive integer URL parameter; returns false and
// writes a 400 when it is missing or malformed.
func intParam(w http.ResponseWriter, r *http.Request, name string) (int, bool) {
	v, err := strconv.Atoi(chi.URLParam(r, name))
	if err != nil || v <= 0 {
		writeError(w, r, "invalid "+name+" parameter", "BAD_REQUEST", http.StatusBadRequest)
		return 0, false
	}
	return v, true
}

// decodeJSON decodes the request body into v and returns false + writes an appropriate
// error response on failure. Returns HTTP 413 when the body exceeds the size limit set
// by RequestBodyLimit middleware; HTTP 400 for all other decode errors.
func decodeJSON(w http.ResponseWriter, r *http.Request, v any) bool {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		var maxBytesErr *http.MaxBytesError
		if errors.As(err, &maxBytesErr) {
			writeError(w, r, "request body too large", "REQUEST_TOO_LARGE", http.StatusRequestEntityTooLarge)
			return false
		}
		writeError(w, r, "invalid JSON body: "+err.Error(), "BAD_REQUEST", http.StatusBadRequest)
		return false
	}
	return true
}
