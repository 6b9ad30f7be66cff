package main

import (
	"bytes"
	"encoding/csv"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/text/encoding/charmap"
	"golang.org/x/text/transform"
)

func reader(t *testing.T, s string) *csv.Reader {
	t.Helper()
	r := csv.NewReader(strings.NewReader(s))
	r.Comma = ';'
	r.FieldsPerRecord = -1
	return r
}

func TestParseItems_SaltaCabeceraYFilasVacias(t *testing.T) {
	items, err := parseItems(reader(t, "codigo;descripcion;naturaleza;unidad\nA-1;Eje;PURCHASED;PZ\n;sin código\nB-2;Placa\n"))
	require.NoError(t, err)
	require.Len(t, items, 2)
	assert.Equal(t, erpItem{code: "A-1", description: "Eje", nature: "purchased", uom: "PZ"}, items[0])
	assert.Equal(t, "B-2", items[1].code)
	assert.Empty(t, items[1].uom)
}

func TestParseLines_ComaDecimal(t *testing.T) {
	lines, err := parseLines(reader(t, "distinta;linea;componente;tipo;cantidad\nP;20;B;normal;1,5\nP;10;A;;2\n"))
	require.NoError(t, err)
	require.Len(t, lines, 2)
	assert.Equal(t, "1.5", lines[0].quantity.String())
	assert.Equal(t, 10, lines[1].line)
}

func TestParseLines_Errores(t *testing.T) {
	_, err := parseLines(reader(t, "P;diez;A;;1\n"))
	assert.Error(t, err)
	_, err = parseLines(reader(t, "P;10;A\n"))
	assert.Error(t, err)
}

func TestWriteSQL(t *testing.T) {
	items := []erpItem{{code: "P", description: "Ensamble d'acero", uom: "PZ"}, {code: "A", description: "Eje"}}
	lines := []erpLine{
		{bomCode: "P", line: 20, component: "A"},
		{bomCode: "P", line: 10, component: "A"},
	}
	var buf bytes.Buffer
	n := writeSQL(&buf, 3, items, lines)
	assert.Equal(t, 1, n)

	sql := buf.String()
	assert.Contains(t, sql, "'Ensamble d''acero'")
	assert.Contains(t, sql, "DELETE FROM erp.bom_components WHERE company_id = 3 AND bom_code = 'P';")
	assert.Less(t, strings.Index(sql, "'P', 10,"), strings.Index(sql, "'P', 20,"), "líneas ordenadas")
	assert.True(t, strings.HasSuffix(strings.TrimSpace(sql), "COMMIT;"))
}

func TestWindows1252(t *testing.T) {
	raw, err := charmap.Windows1252.NewEncoder().String("Ñ-1;Tubería\n")
	require.NoError(t, err)
	r := csv.NewReader(transform.NewReader(strings.NewReader(raw), charmap.Windows1252.NewDecoder()))
	r.Comma = ';'
	items, err := parseItems(r)
	require.NoError(t, err)
	require.Len(t, items, 1)
	assert.Equal(t, "Tubería", items[0].description)
}
