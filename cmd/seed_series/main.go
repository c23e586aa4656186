// seed_series genera un script SQL para cargar las series comunicadas a la AT a partir
// del CSV exportado del Portal das Finanças (separador ";", codificación ISO-8859-1).
//
// Uso: go run ./cmd/seed_series <series.csv> <company_id> [salida.sql]
// Sin archivo de salida escribe en stdout.
package main

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"
	"golang.org/x/text/encoding/charmap"
	"golang.org/x/text/transform"

	"github.com/sun2dayo/portugal-compliance-sub001/internal/domain/fiscal"
	"github.com/sun2dayo/portugal-compliance-sub001/pkg/at"
)

// seriesNamespace espacio UUIDv5: la misma serie genera siempre el mismo ID y el script es re-ejecutable.
var seriesNamespace = uuid.MustParse("6f1c5a2e-4d0b-5c8e-9a57-3b2f7e1d9c40")

type seriesRow struct {
	Prefix         string
	DocumentType   string
	ValidationCode string
	ValidFrom      time.Time
	Active         bool
}

// columnas reconocidas (cabecera normalizada sin acentos, en minúsculas).
var headerAliases = map[string]string{
	"identificador da serie":          "prefix",
	"serie":                           "prefix",
	"tipo do documento":               "type",
	"tipo de documento":               "type",
	"codigo de validacao":             "code",
	"data inicio prevista utilizacao": "from",
	"data de inicio":                  "from",
	"estado":                          "state",
}

func main() {
	if len(os.Args) < 3 {
		fmt.Fprintln(os.Stderr, "Uso: seed_series <series.csv> <company_id> [salida.sql]")
		os.Exit(2)
	}
	companyID := os.Args[2]
	if _, err := uuid.Parse(companyID); err != nil {
		fmt.Fprintf(os.Stderr, "company_id inválido: %v\n", err)
		os.Exit(2)
	}
	f, err := os.Open(os.Args[1])
	if err != nil {
		fmt.Fprintf(os.Stderr, "Abrir CSV: %v\n", err)
		os.Exit(1)
	}
	defer f.Close()

	rows, skipped, err := parseSeriesCSV(transform.NewReader(f, charmap.ISO8859_1.NewDecoder()))
	if err != nil {
		fmt.Fprintf(os.Stderr, "Leer CSV: %v\n", err)
		os.Exit(1)
	}

	var out io.Writer = os.Stdout
	if len(os.Args) > 3 {
		file, err := os.Create(os.Args[3])
		if err != nil {
			fmt.Fprintf(os.Stderr, "Crear archivo: %v\n", err)
			os.Exit(1)
		}
		defer file.Close()
		out = file
	}
	writeSQL(out, companyID, rows)
	fmt.Fprintf(os.Stderr, "Generadas %d series (%d filas ignoradas)\n", len(rows), skipped)
}

// parseSeriesCSV lee el CSV ya decodificado a UTF-8. Las filas con prefijo no alfanumérico,
// tipo de documento no soportado o código de validación inválido se cuentan como ignoradas.
func parseSeriesCSV(r io.Reader) ([]seriesRow, int, error) {
	cr := csv.NewReader(r)
	cr.Comma = ';'
	cr.FieldsPerRecord = -1
	cr.TrimLeadingSpace = true

	header, err := cr.Read()
	if err != nil {
		return nil, 0, fmt.Errorf("cabecera: %w", err)
	}
	idx := map[string]int{}
	for i, h := range header {
		if key, ok := headerAliases[normalizeHeader(h)]; ok {
			idx[key] = i
		}
	}
	for _, k := range []string{"prefix", "type", "code", "from"} {
		if _, ok := idx[k]; !ok {
			return nil, 0, fmt.Errorf("falta la columna %q", k)
		}
	}

	var rows []seriesRow
	skipped := 0
	for {
		rec, err := cr.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, 0, err
		}
		get := func(k string) string {
			i, ok := idx[k]
			if !ok || i >= len(rec) {
				return ""
			}
			return strings.TrimSpace(rec[i])
		}
		docType := strings.ToUpper(get("type"))
		code := fiscal.NormalizeValidationCode(get("code"))
		from, ferr := parseDate(get("from"))
		if fiscal.ValidateNamingSeries(get("prefix")) != nil || !at.IsValidDocumentTypeCode(docType) ||
			fiscal.ValidateValidationCode(code) != nil || ferr != nil {
			skipped++
			continue
		}
		state := strings.ToLower(get("state"))
		rows = append(rows, seriesRow{
			Prefix:         get("prefix"),
			DocumentType:   docType,
			ValidationCode: code,
			ValidFrom:      from,
			Active:         state == "" || strings.HasPrefix(state, "ativ"),
		})
	}
	sort.Slice(rows, func(i, j int) bool {
		if rows[i].DocumentType != rows[j].DocumentType {
			return rows[i].DocumentType < rows[j].DocumentType
		}
		return rows[i].ValidFrom.Before(rows[j].ValidFrom)
	})
	return rows, skipped, nil
}

func writeSQL(w io.Writer, companyID string, rows []seriesRow) {
	fmt.Fprintln(w, "-- Series AT comunicadas (generado por seed_series)")
	for _, r := range rows {
		id := uuid.NewSHA1(seriesNamespace, []byte(companyID+"|"+r.DocumentType+"|"+r.Prefix))
		fmt.Fprintf(w, "INSERT INTO fiscal_series (id, company_id, document_type, prefix, validation_code, valid_from, is_active, communicated_at, created_at, updated_at)\n")
		fmt.Fprintf(w, "VALUES ('%s', '%s', '%s', '%s', '%s', '%s', %t, now(), now(), now())\n",
			id, companyID, r.DocumentType, escapeSQL(r.Prefix), r.ValidationCode, r.ValidFrom.Format("2006-01-02"), r.Active)
		fmt.Fprintln(w, "ON CONFLICT DO NOTHING;")
	}
}

func parseDate(s string) (time.Time, error) {
	for _, layout := range []string{"2006-01-02", "02/01/2006", "02-01-2006"} {
		if t, err := time.Parse(layout, s); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("fecha inválida %q", s)
}

var accentReplacer = strings.NewReplacer(
	"á", "a", "à", "a", "ã", "a", "â", "a", "é", "e", "ê", "e", "í", "i",
	"ó", "o", "õ", "o", "ô", "o", "ú", "u", "ç", "c",
)

func normalizeHeader(h string) string {
	h = strings.ToLower(strings.TrimSpace(strings.TrimPrefix(h, "\uFEFF")))
	return strings.Join(strings.Fields(accentReplacer.Replace(h)), " ")
}

func escapeSQL(s string) string {
	return strings.ReplaceAll(s, "'", "''")
}
