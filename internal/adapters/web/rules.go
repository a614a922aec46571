package web

import (
	"net/http"

	"orderflow/internal/core"
)

// ── Discount rules ────────────────────────────────────────────────────────────

func (h *Handler) apiListDiscountRules(w http.ResponseWriter, r *http.Request) {
	companyID, ok := intParam(w, r, "companyID")
	if !ok {
		return
	}
	rules, err := h.svc.ListDiscountRules(r.Context(), companyID)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, rules)
}

func (h *Handler) apiCreateDiscountRule(w http.ResponseWriter, r *http.Request) {
	companyID, ok := intParam(w, r, "companyID")
	if !ok {
		return
	}
	var in core.DiscountRuleInput
	if !decodeJSON(w, r, &in) {
		return
	}
	in.CompanyID = companyID

	rule, err := h.svc.CreateDiscountRule(r.Context(), in)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSONStatus(w, http.StatusCreated, rule)
}

func (h *Handler) apiGetDiscountRule(w http.ResponseWriter, r *http.Request) {
	id, ok := intParam(w, r, "id")
	if !ok {
		return
	}
	rule, err := h.svc.GetDiscountRule(r.Context(), id)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, rule)
}

func (h *Handler) apiUpdateDiscountRule(w http.ResponseWriter, r *http.Request) {
	id, ok := intParam(w, r, "id")
	if !ok {
		return
	}
	var in core.DiscountRuleInput
	if !decodeJSON(w, r, &in) {
		return
	}
	rule, err := h.svc.UpdateDiscountRule(r.Context(), id, in)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, rule)
}

func (h *Handler) apiDeactivateDiscountRule(w http.ResponseWriter, r *http.Request) {
	id, ok := intParam(w, r, "id")
	if !ok {
		return
	}
	if err := h.svc.DeactivateDiscountRule(r.Context(), id); err != nil {
		writeServiceError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
