package report

import (
	_ "embed"
	"fmt"
	"html/template"
	"io"

	"github.com/shopspring/decimal"

	"orderflow/internal/core"
)

//go:embed profitability.html.tmpl
var documentTemplate string

var documentTmpl = template.Must(
	template.New("profitability").Funcs(template.FuncMap{
		"money": func(d decimal.Decimal) string {
			return d.StringFixed(2)
		},
		"percent": func(d decimal.Decimal) string {
			return d.Mul(decimal.NewFromInt(100)).StringFixed(1) + "%"
		},
	}).Parse(documentTemplate),
)

// RenderHTML renders the report as a self-contained printable page.
func RenderHTML(w io.Writer, rep *core.ProfitabilityReport) error {
	if err := documentTmpl.Execute(w, rep); err != nil {
		return fmt.Errorf("render profitability document: %w", err)
	}
	return nil
}
