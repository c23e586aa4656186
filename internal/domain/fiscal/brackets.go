package fiscal

import (
	"fmt"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/sun2dayo/portugal-compliance-sub001/internal/domain"
	"github.com/sun2dayo/portugal-compliance-sub001/internal/domain/entity"
	"github.com/sun2dayo/portugal-compliance-sub001/pkg/at"
)

// regionDefaults tasas vigentes (%) por región: continente, Açores y Madeira.
var regionDefaults = map[string]string{
	at.RegionContinental: "ISE:0,RED:6,INT:13,NOR:23",
	at.RegionAzores:      "ISE:0,RED:4,INT:9,NOR:16",
	at.RegionMadeira:     "ISE:0,RED:4,INT:12,NOR:22",
}

// BracketTable mapeo explícito tasa de IVA -> escalón AT para una región.
// Una tasa no mapeada es un error, nunca un cero silencioso.
type BracketTable struct {
	region string
	rates  map[string]decimal.Decimal // escalón -> tasa
}

// BracketTotal base imponible y cuota acumuladas de un escalón.
type BracketTotal struct {
	Base decimal.Decimal
	Tax  decimal.Decimal
}

// BracketTotals totales por escalón (ISE, RED, INT, NOR).
type BracketTotals map[string]BracketTotal

// Get devuelve el total del escalón (cero si no hay líneas).
func (t BracketTotals) Get(bracket string) BracketTotal {
	if v, ok := t[bracket]; ok {
		return v
	}
	return BracketTotal{Base: decimal.Zero, Tax: decimal.Zero}
}

// DefaultBrackets tabla por defecto de la región (PT, PT-AC, PT-MA).
func DefaultBrackets(region string) (*BracketTable, error) {
	def, ok := regionDefaults[strings.ToUpper(region)]
	if !ok {
		return nil, fmt.Errorf("fiscal: región fiscal desconocida %q", region)
	}
	return ParseBrackets(region, def)
}

// ParseBrackets interpreta una tabla "ISE:0,RED:6,INT:13,NOR:23". Deben estar los cuatro
// escalones y cada tasa debe ser única.
func ParseBrackets(region, s string) (*BracketTable, error) {
	rates := make(map[string]decimal.Decimal, len(at.Brackets))
	for _, part := range strings.Split(s, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		k, v, ok := strings.Cut(part, ":")
		if !ok {
			return nil, fmt.Errorf("fiscal: entrada de escalón inválida %q (esperado ESCALON:TASA)", part)
		}
		rate, err := decimal.NewFromString(strings.TrimSpace(v))
		if err != nil {
			return nil, fmt.Errorf("fiscal: tasa inválida en %q: %w", part, err)
		}
		rates[strings.ToUpper(strings.TrimSpace(k))] = rate
	}
	return NewBracketTable(region, rates)
}

// NewBracketTable valida y construye la tabla.
func NewBracketTable(region string, rates map[string]decimal.Decimal) (*BracketTable, error) {
	t := &BracketTable{region: strings.ToUpper(region), rates: make(map[string]decimal.Decimal, len(at.Brackets))}
	for k, r := range rates {
		if !isBracket(k) {
			return nil, fmt.Errorf("fiscal: escalón desconocido %q", k)
		}
		if r.IsNegative() {
			return nil, fmt.Errorf("fiscal: tasa negativa para %s", k)
		}
		t.rates[k] = r
	}
	for i, b := range at.Brackets {
		r, ok := t.rates[b]
		if !ok {
			return nil, fmt.Errorf("fiscal: falta el escalón %s en la tabla de %s", b, t.region)
		}
		for _, other := range at.Brackets[i+1:] {
			if o, ok := t.rates[other]; ok && o.Equal(r) {
				return nil, fmt.Errorf("fiscal: escalones %s y %s con la misma tasa %s", b, other, r.String())
			}
		}
	}
	return t, nil
}

// Region región de la tabla.
func (t *BracketTable) Region() string { return t.region }

// Rate tasa configurada para el escalón.
func (t *BracketTable) Rate(bracket string) decimal.Decimal { return t.rates[bracket] }

// Classify devuelve el escalón de la tasa dada.
func (t *BracketTable) Classify(rate decimal.Decimal) (string, error) {
	for _, b := range at.Brackets {
		if t.rates[b].Equal(rate) {
			return b, nil
		}
	}
	return "", domain.ErrUnknownTaxRate.With("rate", rate.String(), "tasa de la tabla "+t.String())
}

// Summarize clasifica cada línea y acumula base neta y cuota por escalón.
func (t *BracketTable) Summarize(lines []entity.TaxLine) (BracketTotals, error) {
	totals := make(BracketTotals, len(at.Brackets))
	for _, b := range at.Brackets {
		totals[b] = BracketTotal{Base: decimal.Zero, Tax: decimal.Zero}
	}
	for _, l := range lines {
		b, err := t.Classify(l.Rate)
		if err != nil {
			return nil, err
		}
		cur := totals[b]
		cur.Base = cur.Base.Add(l.NetBase)
		cur.Tax = cur.Tax.Add(l.TaxAmount)
		totals[b] = cur
	}
	return totals, nil
}

// String representación "REGION ISE:0,RED:6,INT:13,NOR:23".
func (t *BracketTable) String() string {
	parts := make([]string, 0, len(at.Brackets))
	for _, b := range at.Brackets {
		parts = append(parts, b+":"+t.rates[b].String())
	}
	return t.region + " " + strings.Join(parts, ",")
}

func isBracket(k string) bool {
	for _, b := range at.Brackets {
		if b == k {
			return true
		}
	}
	return false
}
