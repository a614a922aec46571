package web

import (
	"net/http"
	"strconv"
	"strings"

	"orderflow/internal/core"
	"orderflow/internal/report"
)

// ── Ledger ────────────────────────────────────────────────────────────────────

func (h *Handler) apiGetJournalEntry(w http.ResponseWriter, r *http.Request) {
	id, ok := intParam(w, r, "id")
	if !ok {
		return
	}
	entry, err := h.svc.GetJournalEntry(r.Context(), id)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, entry)
}

// ── Profitability ─────────────────────────────────────────────────────────────

func (h *Handler) apiProfitabilityReport(w http.ResponseWriter, r *http.Request) {
	rep, ok := h.buildReport(w, r)
	if !ok {
		return
	}
	writeJSON(w, rep)
}

func (h *Handler) apiProfitabilityExcel(w http.ResponseWriter, r *http.Request) {
	rep, ok := h.buildReport(w, r)
	if !ok {
		return
	}
	w.Header().Set("Content-Type", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
	w.Header().Set("Content-Disposition", `attachment; filename="profitability.xlsx"`)
	if err := report.WriteXLSX(w, rep); err != nil {
		h.log.Error().Err(err).Msg("writing xlsx report")
	}
}

func (h *Handler) apiProfitabilityDocument(w http.ResponseWriter, r *http.Request) {
	rep, ok := h.buildReport(w, r)
	if !ok {
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if err := report.RenderHTML(w, rep); err != nil {
		h.log.Error().Err(err).Msg("rendering html report")
	}
}

// buildReport assembles the filter from query parameters and runs the report.
func (h *Handler) buildReport(w http.ResponseWriter, r *http.Request) (*core.ProfitabilityReport, bool) {
	companyID, ok := intParam(w, r, "companyID")
	if !ok {
		return nil, false
	}
	q := r.URL.Query()

	customerIDs, err := intListParam(q.Get("customer_ids"))
	if err != nil {
		writeError(w, r, "invalid customer_ids parameter", "BAD_REQUEST", http.StatusBadRequest)
		return nil, false
	}
	categoryIDs, err := intListParam(q.Get("category_ids"))
	if err != nil {
		writeError(w, r, "invalid category_ids parameter", "BAD_REQUEST", http.StatusBadRequest)
		return nil, false
	}

	filter := core.ReportFilter{
		CompanyID:   companyID,
		DateFrom:    q.Get("date_from"),
		DateTo:      q.Get("date_to"),
		CustomerIDs: customerIDs,
		CategoryIDs: categoryIDs,
		States:      splitAndTrim(q.Get("states")),
	}

	rep, err := h.svc.BuildProfitabilityReport(r.Context(), filter)
	if err != nil {
		writeServiceError(w, r, err)
		return nil, false
	}
	return rep, true
}

// intListParam parses a comma-separated list of positive integers.
func intListParam(raw string) ([]int, error) {
	if strings.TrimSpace(raw) == "" {
		return nil, nil
	}
	parts := splitAndTrim(raw)
	ids := make([]int, 0, len(parts))
	for _, p := range parts {
		v, err := strconv.Atoi(p)
		if err != nil || v <= 0 {
			return nil, strconv.ErrSyntax
		}
		ids = append(ids, v)
	}
	return ids, nil
}
