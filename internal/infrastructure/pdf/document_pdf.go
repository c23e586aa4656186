// Package pdf implementa la representação impressa de los documentos fiscales
// emitidos (Portaria n.º 195/2020: ATCUD sobre el QR, QR de al menos 30x30 mm).
//
// Layout de la página A4:
//
//	┌─────────────────────────────────────────────────────────────┐
//	│  HEADER: Emisor + NIF        │  Tipo AT + Nº + Fecha        │
//	│  ─────────────────────────────────────────────────────────  │
//	│  EMISOR: Morada / Tel / Email                               │
//	│  ADQUIRENTE: Nombre + NIF + País                            │
//	│  ─────────────────────────────────────────────────────────  │
//	│  TABLA: Taxa | Escalão | Base | IVA                         │
//	│  ─────────────────────────────────────────────────────────  │
//	│  TOTALES: Base / IVA / Selo / Retenção / TOTAL              │
//	│  ─────────────────────────────────────────────────────────  │
//	│  ATCUD + QR + Caracteres de hash y nº de certificado        │
//	└─────────────────────────────────────────────────────────────┘
package pdf

import (
	"context"
	"fmt"
	"strings"

	maroto "github.com/johnfercher/maroto/v2"
	"github.com/johnfercher/maroto/v2/pkg/components/code"
	"github.com/johnfercher/maroto/v2/pkg/components/col"
	"github.com/johnfercher/maroto/v2/pkg/components/line"
	"github.com/johnfercher/maroto/v2/pkg/components/row"
	"github.com/johnfercher/maroto/v2/pkg/components/text"
	"github.com/johnfercher/maroto/v2/pkg/config"
	"github.com/johnfercher/maroto/v2/pkg/consts/align"
	"github.com/johnfercher/maroto/v2/pkg/consts/fontstyle"
	"github.com/johnfercher/maroto/v2/pkg/consts/pagesize"
	"github.com/johnfercher/maroto/v2/pkg/core"
	"github.com/johnfercher/maroto/v2/pkg/props"
	"github.com/shopspring/decimal"

	"github.com/sun2dayo/portugal-compliance-sub001/internal/application/compliance"
	"github.com/sun2dayo/portugal-compliance-sub001/internal/domain"
	"github.com/sun2dayo/portugal-compliance-sub001/internal/domain/fiscal"
	"github.com/sun2dayo/portugal-compliance-sub001/pkg/at"
)

// ── Paleta de colores ─────────────────────────────────────────────────────────

var (
	colorPrimary = &props.Color{Red: 0, Green: 102, Blue: 51}
	colorGray    = &props.Color{Red: 100, Green: 100, Blue: 100}
)

// títulos impresos por código AT.
var documentTitles = map[string]string{
	at.DocTypeFatura:            "FATURA",
	at.DocTypeFaturaSimplif:     "FATURA SIMPLIFICADA",
	at.DocTypeFaturaRecibo:      "FATURA-RECIBO",
	at.DocTypeNotaCredito:       "NOTA DE CRÉDITO",
	at.DocTypeNotaDebito:        "NOTA DE DÉBITO",
	at.DocTypeFaturaConsignacao: "FATURA DE CONSIGNAÇÃO",
}

// etiquetas de los escalones en la tabla de resumen.
var bracketLabels = map[string]string{
	at.BracketExempt:       "Isento",
	at.BracketReduced:      "Taxa reduzida",
	at.BracketIntermediate: "Taxa intermédia",
	at.BracketNormal:       "Taxa normal",
}

// ── Generator ─────────────────────────────────────────────────────────────────

var _ compliance.PrintRenderer = (*MarotoRenderer)(nil)

// MarotoRenderer implementa compliance.PrintRenderer usando Maroto v2.
type MarotoRenderer struct{}

// NewMarotoRenderer construye el generador.
func NewMarotoRenderer() *MarotoRenderer { return &MarotoRenderer{} }

// RenderDocument genera el PDF y devuelve sus bytes. Un documento sin ATCUD o sin QR
// no se imprime: la impresión sin esos elementos no es válida ante la AT.
func (g *MarotoRenderer) RenderDocument(_ context.Context, p *compliance.PrintDocument) ([]byte, error) {
	if p == nil || p.Document == nil || p.Company == nil || p.Customer == nil {
		return nil, domain.ErrInvalidDocument.Msg("datos de impresión incompletos")
	}
	if p.Document.ATCUD == "" {
		return nil, domain.ErrInvalidDocument.With("atcud", "", "ATCUD asignado")
	}
	if p.QRPayload == "" {
		return nil, domain.ErrEmptyPayload
	}

	cfg := config.NewBuilder().
		WithPageSize(pagesize.A4).
		WithLeftMargin(10).WithRightMargin(10).
		WithTopMargin(10).WithBottomMargin(10).
		WithDefaultFont(&props.Font{Family: "helvetica", Size: 9}).
		WithTitle(title(p.ATDocumentType)+" "+p.Document.ID, true).
		WithAuthor(p.Company.Name, true).
		Build()

	m := maroto.New(cfg)

	m.AddRows(headerRow(p))
	m.AddRows(line.NewRow(1, props.Line{Color: colorPrimary, Thickness: 0.5}))
	m.AddRows(issuerRow(p))
	m.AddRows(customerRow(p))
	m.AddRows(line.NewRow(1, props.Line{Color: colorPrimary, Thickness: 0.3}))

	m.AddRows(tableHeaderRow())
	m.AddRows(bracketRows(p)...)

	m.AddRows(line.NewRow(1, props.Line{Color: colorPrimary, Thickness: 0.3}))
	m.AddRows(totalsRow(p))

	m.AddRows(line.NewRow(3))
	m.AddRows(line.NewRow(1, props.Line{Color: colorGray, Thickness: 0.3}))
	m.AddRows(fiscalFooterRows(p)...)

	doc, err := m.Generate()
	if err != nil {
		return nil, fmt.Errorf("pdf: generar documento: %w", err)
	}
	return doc.GetBytes(), nil
}

// ── Secciones ─────────────────────────────────────────────────────────────────

func headerRow(p *compliance.PrintDocument) core.Row {
	return row.New(18).Add(
		col.New(7).Add(
			text.New(p.Company.Name, props.Text{
				Style: fontstyle.Bold, Size: 13, Color: colorPrimary, Top: 1,
			}),
			text.New("NIF: "+p.Company.NIF, props.Text{
				Size: 9, Top: 9, Color: colorGray,
			}),
		),
		col.New(5).Add(
			text.New(title(p.ATDocumentType), props.Text{
				Style: fontstyle.Bold, Size: 8, Align: align.Right,
				Color: colorPrimary, Top: 1,
			}),
			text.New(p.ATDocumentType+" "+p.Document.ID, props.Text{
				Style: fontstyle.Bold, Size: 12, Align: align.Right, Top: 7,
			}),
			text.New("Data: "+fiscal.FormatDate(p.Document.PostingDate), props.Text{
				Size: 8, Align: align.Right, Top: 14, Color: colorGray,
			}),
		),
	)
}

func issuerRow(p *compliance.PrintDocument) core.Row {
	return row.New(12).Add(
		col.New(12).Add(
			text.New("EMITENTE", props.Text{
				Style: fontstyle.Bold, Size: 8, Color: colorPrimary, Top: 1,
			}),
			text.New(fmt.Sprintf("Morada: %s   |   Tel: %s   |   Email: %s",
				nonEmpty(p.Company.Address, "—"),
				nonEmpty(p.Company.Phone, "—"),
				nonEmpty(p.Company.Email, "—"),
			), props.Text{Size: 8, Top: 7, Color: colorGray}),
		),
	)
}

func customerRow(p *compliance.PrintDocument) core.Row {
	nif := nonEmpty(p.Document.CustomerNIF, p.Customer.TaxID)
	country := nonEmpty(p.Document.CustomerCountry, p.Customer.Country)
	return row.New(14).Add(
		col.New(12).Add(
			text.New("ADQUIRENTE", props.Text{
				Style: fontstyle.Bold, Size: 8, Color: colorPrimary, Top: 1,
			}),
			text.New(p.Customer.Name, props.Text{
				Style: fontstyle.Bold, Size: 10, Top: 6,
			}),
			text.New(fmt.Sprintf("NIF: %s   |   País: %s   |   Email: %s",
				nonEmpty(nif, at.ConsumerFinalNIF),
				nonEmpty(country, at.CountryPortugal),
				nonEmpty(p.Customer.Email, "—"),
			), props.Text{Size: 8, Top: 12, Color: colorGray}),
		),
	)
}

func tableHeaderRow() core.Row {
	h := func(label string, size int, a align.Type) core.Col {
		return col.New(size).Add(text.New(label, props.Text{
			Style: fontstyle.Bold, Size: 8, Align: a,
			Color: colorPrimary, Top: 2, Left: 1, Right: 1,
		}))
	}
	return row.New(8).Add(
		h("Escalão", 4, align.Left),
		h("Taxa", 2, align.Center),
		h("Incidência", 3, align.Right),
		h("IVA", 3, align.Right),
	)
}

// bracketRows una fila por escalón con base distinta de cero.
func bracketRows(p *compliance.PrintDocument) []core.Row {
	var out []core.Row
	for _, b := range at.Brackets {
		t := p.Totals.Get(b)
		if t.Base.IsZero() && t.Tax.IsZero() {
			continue
		}
		rate := decimal.Zero
		if p.Brackets != nil {
			rate = p.Brackets.Rate(b)
		}
		out = append(out, row.New(7).Add(
			col.New(4).Add(text.New(bracketLabels[b], props.Text{Size: 8, Top: 1, Left: 1})),
			col.New(2).Add(text.New(rate.String()+"%", props.Text{Size: 8, Align: align.Center, Top: 1})),
			col.New(3).Add(text.New(formatMoney(t.Base), props.Text{Size: 8, Align: align.Right, Top: 1, Right: 1})),
			col.New(3).Add(text.New(formatMoney(t.Tax), props.Text{Size: 8, Align: align.Right, Top: 1, Right: 1})),
		))
	}
	return out
}

func totalsRow(p *compliance.PrintDocument) core.Row {
	base, tax := decimal.Zero, decimal.Zero
	for _, b := range at.Brackets {
		t := p.Totals.Get(b)
		base = base.Add(t.Base)
		tax = tax.Add(t.Tax)
	}
	label := func(s string) core.Component {
		return text.New(s, props.Text{Style: fontstyle.Bold, Size: 9, Align: align.Right, Right: 2})
	}
	value := func(s string) core.Component {
		return text.New(s, props.Text{Size: 9, Align: align.Right, Right: 1})
	}
	return row.New(30).Add(
		col.New(6),
		col.New(3).Add(
			label("Total incidência:"),
			label("Total IVA:"),
			label("Imposto do selo:"),
			label("Retenção na fonte:"),
			text.New("TOTAL:", props.Text{
				Style: fontstyle.Bold, Size: 10, Align: align.Right, Color: colorPrimary, Right: 2, Top: 20,
			}),
		),
		col.New(3).Add(
			value(formatMoney(base)),
			value(formatMoney(tax)),
			value(formatMoney(p.Document.StampDutyTotal)),
			value(formatMoney(p.Document.WithholdingTotal)),
			text.New(formatMoney(p.Document.GrandTotal), props.Text{
				Style: fontstyle.Bold, Size: 10, Align: align.Right, Color: colorPrimary, Right: 1, Top: 20,
			}),
		),
	)
}

// fiscalFooterRows ATCUD inmediatamente sobre el QR y leyenda de certificación.
func fiscalFooterRows(p *compliance.PrintDocument) []core.Row {
	return []core.Row{
		row.New(6).Add(col.New(12).Add(
			text.New("ATCUD: "+p.Document.ATCUD, props.Text{
				Style: fontstyle.Bold, Size: 9, Top: 1,
			}),
		)),
		row.New(40).Add(
			col.New(3).Add(code.NewQr(p.QRPayload, props.Rect{
				Percent: 100,
				Center:  true,
			})),
			col.New(9).Add(
				text.New(p.Footer, props.Text{
					Size: 8, Top: 4, Left: 3, Color: colorGray,
				}),
				text.New("Hash anterior: "+truncate(p.Document.PreviousHash, 44), props.Text{
					Size: 6.5, Top: 12, Left: 3, Color: colorGray,
				}),
			),
		),
	}
}

// ── helpers ───────────────────────────────────────────────────────────────────

func title(atType string) string {
	if t, ok := documentTitles[atType]; ok {
		return t
	}
	return atType
}

func nonEmpty(s, fallback string) string {
	if s != "" {
		return s
	}
	return fallback
}

// formatMoney formato português: "1.234,56 €".
func formatMoney(d decimal.Decimal) string {
	s := d.Abs().StringFixed(2)
	intPart, frac, _ := strings.Cut(s, ".")
	n := len(intPart)
	buf := make([]byte, 0, n+n/3)
	for i, c := range []byte(intPart) {
		if i > 0 && (n-i)%3 == 0 {
			buf = append(buf, '.')
		}
		buf = append(buf, c)
	}
	sign := ""
	if d.IsNegative() {
		sign = "-"
	}
	return sign + string(buf) + "," + frac + " €"
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "…"
}
