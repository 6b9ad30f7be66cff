// seed_erp genera un script SQL para poblar el esquema erp (artículos y distintas) a partir
// de las exportaciones CSV del ERP (separador ';', codificación Windows-1252).
//
// Uso: go run ./cmd/seed_erp -company 1 -items articulos.csv -boms distintas.csv [-out archivo.sql]
// Sin -out escribe internal/infrastructure/postgres/migrations/seed/erp_<empresa>.sql
package main

import (
	"encoding/csv"
	"flag"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"

	"github.com/shopspring/decimal"
	"golang.org/x/text/encoding/charmap"
	"golang.org/x/text/transform"
)

// erpItem fila de articulos.csv: código;descripción;naturaleza;unidad
type erpItem struct {
	code, description, nature, uom string
}

// erpLine fila de distintas.csv: distinta;línea;componente;tipo;cantidad;unidad;notas
type erpLine struct {
	bomCode   string
	line      int
	component string
	compType  string
	quantity  decimal.Decimal
	uom       string
	notes     string
}

func main() {
	company := flag.Int("company", 0, "id de la empresa destino")
	itemsPath := flag.String("items", "articulos.csv", "CSV de artículos")
	bomsPath := flag.String("boms", "distintas.csv", "CSV de líneas de distinta")
	outPath := flag.String("out", "", "script SQL de salida")
	flag.Parse()

	if *company <= 0 {
		fmt.Fprintln(os.Stderr, "-company es obligatorio")
		os.Exit(2)
	}

	items, err := readItems(*itemsPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Leer artículos: %v\n", err)
		os.Exit(1)
	}
	lines, err := readLines(*bomsPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Leer distintas: %v\n", err)
		os.Exit(1)
	}

	if *outPath == "" {
		*outPath = filepath.Join(findModuleRoot(), "internal", "infrastructure", "postgres", "migrations", "seed",
			fmt.Sprintf("erp_%d.sql", *company))
	}
	if err := os.MkdirAll(filepath.Dir(*outPath), 0o755); err != nil {
		fmt.Fprintf(os.Stderr, "Crear directorio: %v\n", err)
		os.Exit(1)
	}
	out, err := os.Create(*outPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Crear archivo: %v\n", err)
		os.Exit(1)
	}
	defer out.Close()

	boms := writeSQL(out, *company, items, lines)
	fmt.Printf("Generado %s: %d artículos, %d distintas, %d líneas\n", *outPath, len(items), boms, len(lines))
}

// openCSV abre el archivo decodificando Windows-1252.
func openCSV(path string) (*csv.Reader, io.Closer, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, nil, err
	}
	r := csv.NewReader(transform.NewReader(f, charmap.Windows1252.NewDecoder()))
	r.Comma = ';'
	r.FieldsPerRecord = -1
	r.TrimLeadingSpace = true
	return r, f, nil
}

func readItems(path string) ([]erpItem, error) {
	r, c, err := openCSV(path)
	if err != nil {
		return nil, err
	}
	defer c.Close()
	return parseItems(r)
}

func parseItems(r *csv.Reader) ([]erpItem, error) {
	var out []erpItem
	for row := 1; ; row++ {
		rec, err := r.Read()
		if err == io.EOF {
			return out, nil
		}
		if err != nil {
			return nil, err
		}
		if row == 1 && isHeader(rec) {
			continue
		}
		if len(rec) < 2 || strings.TrimSpace(rec[0]) == "" {
			continue
		}
		it := erpItem{code: strings.TrimSpace(rec[0]), description: strings.TrimSpace(rec[1])}
		if len(rec) > 2 {
			it.nature = strings.ToLower(strings.TrimSpace(rec[2]))
		}
		if len(rec) > 3 {
			it.uom = strings.TrimSpace(rec[3])
		}
		out = append(out, it)
	}
}

func readLines(path string) ([]erpLine, error) {
	r, c, err := openCSV(path)
	if err != nil {
		return nil, err
	}
	defer c.Close()
	return parseLines(r)
}

func parseLines(r *csv.Reader) ([]erpLine, error) {
	var out []erpLine
	for row := 1; ; row++ {
		rec, err := r.Read()
		if err == io.EOF {
			return out, nil
		}
		if err != nil {
			return nil, err
		}
		if row == 1 && isHeader(rec) {
			continue
		}
		if len(rec) < 5 {
			return nil, fmt.Errorf("fila %d: se esperaban al menos 5 columnas", row)
		}
		line, err := strconv.Atoi(strings.TrimSpace(rec[1]))
		if err != nil {
			return nil, fmt.Errorf("fila %d: línea %q: %w", row, rec[1], err)
		}
		// El ERP exporta con coma decimal.
		qty, err := decimal.NewFromString(strings.ReplaceAll(strings.TrimSpace(rec[4]), ",", "."))
		if err != nil {
			return nil, fmt.Errorf("fila %d: cantidad %q: %w", row, rec[4], err)
		}
		l := erpLine{
			bomCode:   strings.TrimSpace(rec[0]),
			line:      line,
			component: strings.TrimSpace(rec[2]),
			compType:  strings.TrimSpace(rec[3]),
			quantity:  qty,
		}
		if len(rec) > 5 {
			l.uom = strings.TrimSpace(rec[5])
		}
		if len(rec) > 6 {
			l.notes = strings.TrimSpace(rec[6])
		}
		out = append(out, l)
	}
}

// isHeader la primera fila es cabecera si la columna de código dice "code" o "codigo".
func isHeader(rec []string) bool {
	if len(rec) == 0 {
		return false
	}
	h := strings.ToLower(strings.TrimSpace(rec[0]))
	return h == "code" || h == "codigo" || h == "código" || h == "bom" || h == "distinta"
}

// writeSQL escribe los INSERT idempotentes y devuelve cuántas distintas generó.
func writeSQL(w io.Writer, company int, items []erpItem, lines []erpLine) int {
	desc := make(map[string]erpItem, len(items))
	for _, it := range items {
		desc[strings.ToUpper(it.code)] = it
	}

	fmt.Fprintf(w, "-- Datos maestros ERP de la empresa %d\n", company)
	fmt.Fprintln(w, "-- Generado por cmd/seed_erp")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "BEGIN;")
	fmt.Fprintln(w)

	fmt.Fprintln(w, "-- 1. Artículos")
	for _, it := range items {
		fmt.Fprintf(w, "INSERT INTO erp.items (company_id, code, description, nature, base_uom) VALUES (%d, '%s', '%s', '%s', '%s')\n",
			company, escapeSQL(it.code), escapeSQL(it.description), escapeSQL(it.nature), escapeSQL(it.uom))
		fmt.Fprintln(w, "ON CONFLICT (company_id, code) DO UPDATE SET description = EXCLUDED.description, nature = EXCLUDED.nature, base_uom = EXCLUDED.base_uom;")
	}

	byBOM := map[string][]erpLine{}
	for _, l := range lines {
		byBOM[l.bomCode] = append(byBOM[l.bomCode], l)
	}
	codes := make([]string, 0, len(byBOM))
	for c := range byBOM {
		codes = append(codes, c)
	}
	sort.Strings(codes)

	fmt.Fprintln(w)
	fmt.Fprintln(w, "-- 2. Distintas")
	for _, code := range codes {
		parent := desc[strings.ToUpper(code)]
		fmt.Fprintf(w, "INSERT INTO erp.boms (company_id, code, description, uom) VALUES (%d, '%s', '%s', '%s')\n",
			company, escapeSQL(code), escapeSQL(parent.description), escapeSQL(parent.uom))
		fmt.Fprintln(w, "ON CONFLICT (company_id, code) DO UPDATE SET description = EXCLUDED.description, uom = EXCLUDED.uom;")
		fmt.Fprintf(w, "DELETE FROM erp.bom_components WHERE company_id = %d AND bom_code = '%s';\n", company, escapeSQL(code))
		rows := byBOM[code]
		sort.Slice(rows, func(i, j int) bool { return rows[i].line < rows[j].line })
		for _, l := range rows {
			fmt.Fprintf(w, "INSERT INTO erp.bom_components (company_id, bom_code, line, component_code, component_type, quantity, uom, notes) VALUES (%d, '%s', %d, '%s', '%s', %s, '%s', '%s');\n",
				company, escapeSQL(code), l.line, escapeSQL(l.component), escapeSQL(l.compType), l.quantity.String(), escapeSQL(l.uom), escapeSQL(l.notes))
		}
	}
	fmt.Fprintln(w)
	fmt.Fprintln(w, "COMMIT;")
	return len(codes)
}

func escapeSQL(s string) string {
	return strings.ReplaceAll(s, "'", "''")
}

func findModuleRoot() string {
	dir, _ := os.Getwd()
	for {
		if _, err := os.Stat(filepath.Join(dir, "go.mod")); err == nil {
			return dir
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			return dir
		}
		dir = parent
	}
}
