package web

import (
	"net/http"

	"orderflow/internal/app"
	"orderflow/internal/core"
)

// ── Sales orders ──────────────────────────────────────────────────────────────

func (h *Handler) apiListSaleOrders(w http.ResponseWriter, r *http.Request) {
	companyID, ok := intParam(w, r, "companyID")
	if !ok {
		return
	}
	orders, err := h.svc.ListSaleOrders(r.Context(), companyID, r.URL.Query().Get("state"))
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, orders)
}

func (h *Handler) apiCreateSaleOrder(w http.ResponseWriter, r *http.Request) {
	companyID, ok := intParam(w, r, "companyID")
	if !ok {
		return
	}
	var in core.SaleOrderInput
	if !decodeJSON(w, r, &in) {
		return
	}
	in.CompanyID = companyID

	so, err := h.svc.CreateSaleOrder(r.Context(), in)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSONStatus(w, http.StatusCreated, so)
}

func (h *Handler) apiGetSaleOrder(w http.ResponseWriter, r *http.Request) {
	id, ok := intParam(w, r, "id")
	if !ok {
		return
	}
	so, err := h.svc.GetSaleOrder(r.Context(), id)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, so)
}

func (h *Handler) apiUpdateSaleOrderLines(w http.ResponseWriter, r *http.Request) {
	id, ok := intParam(w, r, "id")
	if !ok {
		return
	}
	var lines []core.SaleOrderLineInput
	if !decodeJSON(w, r, &lines) {
		return
	}
	so, err := h.svc.UpdateSaleOrderLines(r.Context(), id, lines)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, so)
}

func (h *Handler) apiSetAdvancePayment(w http.ResponseWriter, r *http.Request) {
	id, ok := intParam(w, r, "id")
	if !ok {
		return
	}
	var req app.SetAdvancePaymentRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	req.OrderID = id

	so, err := h.svc.SetAdvancePayment(r.Context(), req)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, so)
}

// soTransition wraps the simple state-change endpoints.
func (h *Handler) soTransition(action func(r *http.Request, id int) (*core.SaleOrder, error)) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, ok := intParam(w, r, "id")
		if !ok {
			return
		}
		so, err := action(r, id)
		if err != nil {
			writeServiceError(w, r, err)
			return
		}
		writeJSON(w, so)
	}
}

func (h *Handler) apiSendSaleOrder(w http.ResponseWriter, r *http.Request) {
	h.soTransition(func(r *http.Request, id int) (*core.SaleOrder, error) {
		return h.svc.SendSaleOrder(r.Context(), id)
	})(w, r)
}

func (h *Handler) apiConfirmSaleOrder(w http.ResponseWriter, r *http.Request) {
	h.soTransition(func(r *http.Request, id int) (*core.SaleOrder, error) {
		return h.svc.ConfirmSaleOrder(r.Context(), id)
	})(w, r)
}

func (h *Handler) apiCancelSaleOrder(w http.ResponseWriter, r *http.Request) {
	h.soTransition(func(r *http.Request, id int) (*core.SaleOrder, error) {
		return h.svc.CancelSaleOrder(r.Context(), id)
	})(w, r)
}

func (h *Handler) apiApplySaleOrderDiscounts(w http.ResponseWriter, r *http.Request) {
	h.soTransition(func(r *http.Request, id int) (*core.SaleOrder, error) {
		return h.svc.ApplySaleOrderDiscounts(r.Context(), id)
	})(w, r)
}

func (h *Handler) apiRecordAdvancePayment(w http.ResponseWriter, r *http.Request) {
	h.soTransition(func(r *http.Request, id int) (*core.SaleOrder, error) {
		return h.svc.RecordAdvancePayment(r.Context(), id)
	})(w, r)
}
