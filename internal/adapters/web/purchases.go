package web

import (
	"net/http"

	"orderflow/internal/app"
	"orderflow/internal/core"
)

// ── Approval configuration ────────────────────────────────────────────────────

func (h *Handler) apiGetApprovalConfig(w http.ResponseWriter, r *http.Request) {
	companyID, ok := intParam(w, r, "companyID")
	if !ok {
		return
	}
	cfg, err := h.svc.GetApprovalConfig(r.Context(), companyID)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, cfg)
}

func (h *Handler) apiSaveApprovalConfig(w http.ResponseWriter, r *http.Request) {
	companyID, ok := intParam(w, r, "companyID")
	if !ok {
		return
	}
	var in core.ApprovalConfigInput
	if !decodeJSON(w, r, &in) {
		return
	}
	in.CompanyID = companyID

	cfg, err := h.svc.SaveApprovalConfig(r.Context(), in)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, cfg)
}

// ── Purchase orders ───────────────────────────────────────────────────────────

func (h *Handler) apiListPurchaseOrders(w http.ResponseWriter, r *http.Request) {
	companyID, ok := intParam(w, r, "companyID")
	if !ok {
		return
	}
	orders, err := h.svc.ListPurchaseOrders(r.Context(), companyID, r.URL.Query().Get("state"))
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, orders)
}

func (h *Handler) apiCreatePurchaseOrder(w http.ResponseWriter, r *http.Request) {
	companyID, ok := intParam(w, r, "companyID")
	if !ok {
		return
	}
	var in core.PurchaseOrderInput
	if !decodeJSON(w, r, &in) {
		return
	}
	in.CompanyID = companyID

	po, err := h.svc.CreatePurchaseOrder(r.Context(), in)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSONStatus(w, http.StatusCreated, po)
}

func (h *Handler) apiGetPurchaseOrder(w http.ResponseWriter, r *http.Request) {
	id, ok := intParam(w, r, "id")
	if !ok {
		return
	}
	po, err := h.svc.GetPurchaseOrder(r.Context(), id)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, po)
}

func (h *Handler) apiUpdatePurchaseOrderLines(w http.ResponseWriter, r *http.Request) {
	id, ok := intParam(w, r, "id")
	if !ok {
		return
	}
	var lines []core.PurchaseOrderLineInput
	if !decodeJSON(w, r, &lines) {
		return
	}
	po, err := h.svc.UpdatePurchaseOrderLines(r.Context(), id, lines)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, po)
}

// poTransition wraps the simple state-change endpoints.
func (h *Handler) poTransition(action func(r *http.Request, id int) (*core.PurchaseOrder, error)) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, ok := intParam(w, r, "id")
		if !ok {
			return
		}
		po, err := action(r, id)
		if err != nil {
			writeServiceError(w, r, err)
			return
		}
		writeJSON(w, po)
	}
}

func (h *Handler) apiSendPurchaseOrder(w http.ResponseWriter, r *http.Request) {
	h.poTransition(func(r *http.Request, id int) (*core.PurchaseOrder, error) {
		return h.svc.SendPurchaseOrder(r.Context(), id)
	})(w, r)
}

func (h *Handler) apiConfirmPurchaseOrder(w http.ResponseWriter, r *http.Request) {
	h.poTransition(func(r *http.Request, id int) (*core.PurchaseOrder, error) {
		return h.svc.ConfirmPurchaseOrder(r.Context(), id)
	})(w, r)
}

func (h *Handler) apiApprovePurchaseOrderLevel1(w http.ResponseWriter, r *http.Request) {
	h.poTransition(func(r *http.Request, id int) (*core.PurchaseOrder, error) {
		return h.svc.ApprovePurchaseOrderLevel1(r.Context(), id, authFromContext(r.Context()).UserID)
	})(w, r)
}

func (h *Handler) apiApprovePurchaseOrderLevel2(w http.ResponseWriter, r *http.Request) {
	h.poTransition(func(r *http.Request, id int) (*core.PurchaseOrder, error) {
		return h.svc.ApprovePurchaseOrderLevel2(r.Context(), id, authFromContext(r.Context()).UserID)
	})(w, r)
}

func (h *Handler) apiRejectPurchaseOrder(w http.ResponseWriter, r *http.Request) {
	h.poTransition(func(r *http.Request, id int) (*core.PurchaseOrder, error) {
		return h.svc.RejectPurchaseOrder(r.Context(), id)
	})(w, r)
}

func (h *Handler) apiCancelPurchaseOrder(w http.ResponseWriter, r *http.Request) {
	h.poTransition(func(r *http.Request, id int) (*core.PurchaseOrder, error) {
		return h.svc.CancelPurchaseOrder(r.Context(), id)
	})(w, r)
}

func (h *Handler) apiConfirmPurchaseOrderBatch(w http.ResponseWriter, r *http.Request) {
	if _, ok := intParam(w, r, "companyID"); !ok {
		return
	}
	var req app.ConfirmBatchRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	if len(req.OrderIDs) == 0 {
		writeError(w, r, "order_ids must not be empty", "BAD_REQUEST", http.StatusBadRequest)
		return
	}
	writeJSON(w, h.svc.ConfirmPurchaseOrders(r.Context(), req.OrderIDs))
}
