package fetcher

import (
	"bytes"
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tealeg/xlsx/v2"
)

func TestStreamCSV(t *testing.T) {
	in := "\ufeffTeam_Name, Player_Name ,POS,rank\n" +
		"Alabama, Jalen Milroe ,QB,1\n" +
		"\n" +
		"Georgia,\"Etienne, Trevor\",RB\n"

	rows, err := Collect(StreamCSV(context.Background(), strings.NewReader(in), CSVOptions{}))
	require.NoError(t, err)
	require.Len(t, rows, 2)

	assert.Equal(t, Record{"team_name": "Alabama", "player_name": "Jalen Milroe", "pos": "QB", "rank": "1"}, rows[0])
	assert.Equal(t, "Etienne, Trevor", rows[1]["player_name"])
	assert.Equal(t, "", rows[1]["rank"], "short rows pad with blanks")
}

func TestStreamCSV_Delimiter(t *testing.T) {
	rows, err := Collect(StreamCSV(context.Background(), strings.NewReader("a;b\n1;2\n"), CSVOptions{Delimiter: ';'}))
	require.NoError(t, err)
	assert.Equal(t, []Record{{"a": "1", "b": "2"}}, rows)
}

func TestStreamCSV_HeaderOnly(t *testing.T) {
	rows, err := Collect(StreamCSV(context.Background(), strings.NewReader("a,b\n"), CSVOptions{}))
	require.NoError(t, err)
	assert.Empty(t, rows)
}

func TestStreamCSV_Cancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := Collect(StreamCSV(ctx, strings.NewReader("a\n1\n"), CSVOptions{}))
	require.Error(t, err)
}

func TestDecodeJSONRecords(t *testing.T) {
	in := `[
		{"Team_Name": "Alabama", "sp_off": 38.5, "rank": 3, "draftable": true, "notes": null},
		{"team_name": "Georgia", "sp_off": "41.2", "extra": {"k": 1}}
	]`

	rows, err := Collect(DecodeJSONRecords(context.Background(), strings.NewReader(in)))
	require.NoError(t, err)
	require.Len(t, rows, 2)

	assert.Equal(t, "Alabama", rows[0]["team_name"])
	assert.Equal(t, "38.5", rows[0]["sp_off"])
	assert.Equal(t, "3", rows[0]["rank"])
	assert.Equal(t, "true", rows[0]["draftable"])
	assert.Equal(t, "", rows[0]["notes"])
	assert.Equal(t, "41.2", rows[1]["sp_off"])
	assert.Equal(t, `{"k":1}`, rows[1]["extra"])
}

func TestDecodeJSONRecords_NotAnArray(t *testing.T) {
	_, err := Collect(DecodeJSONRecords(context.Background(), strings.NewReader(`{"a":1}`)))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "expected '['")
}

func TestDecodeJSONRecords_Malformed(t *testing.T) {
	rows, err := Collect(DecodeJSONRecords(context.Background(), strings.NewReader(`[{"a":1}, {"a":]`)))
	require.Error(t, err)
	assert.Len(t, rows, 1)
}

func TestDecodeJSONArray_Empty(t *testing.T) {
	rows, err := Collect(DecodeJSONArray[map[string]any](context.Background(), strings.NewReader("")))
	require.NoError(t, err)
	assert.Empty(t, rows)
}

func TestDecodeJSONObject(t *testing.T) {
	m, err := DecodeJSONObject[map[string]string](strings.NewReader(`{"Alabama":"alabama"}`))
	require.NoError(t, err)
	assert.Equal(t, "alabama", (*m)["Alabama"])

	_, err = DecodeJSONObject[map[string]string](strings.NewReader(`[`))
	require.Error(t, err)
}

func workbook(t *testing.T, sheets map[string][][]string, order ...string) []byte {
	t.Helper()
	f := xlsx.NewFile()
	for _, name := range order {
		sheet, err := f.AddSheet(name)
		require.NoError(t, err)
		for _, cells := range sheets[name] {
			row := sheet.AddRow()
			for _, v := range cells {
				row.AddCell().SetString(v)
			}
		}
	}
	var buf bytes.Buffer
	require.NoError(t, f.Write(&buf))
	return buf.Bytes()
}

func TestReadXLSX(t *testing.T) {
	data := workbook(t, map[string][][]string{
		"Depth": {
			{"", ""},
			{"Team", "Player", "Depth"},
			{"Texas", "Arch Manning", "1"},
			{"Texas", "Matthew Caldwell"},
		},
	}, "Depth")

	rows, err := ReadXLSX(bytes.NewReader(data), XLSXOptions{})
	require.NoError(t, err)
	require.Len(t, rows, 2)
	assert.Equal(t, Record{"team": "Texas", "player": "Arch Manning", "depth": "1"}, rows[0])
	assert.Equal(t, "", rows[1]["depth"])
}

func TestReadXLSX_SheetSelection(t *testing.T) {
	data := workbook(t, map[string][][]string{
		"First":  {{"a"}, {"1"}},
		"Second": {{"b"}, {"2"}, {"3"}},
	}, "First", "Second")

	rows, err := ReadXLSX(bytes.NewReader(data), XLSXOptions{SheetName: "Second"})
	require.NoError(t, err)
	assert.Len(t, rows, 2)

	rows, err = ReadXLSX(bytes.NewReader(data), XLSXOptions{SheetIndex: 1})
	require.NoError(t, err)
	assert.Equal(t, "2", rows[0]["b"])

	_, err = ReadXLSX(bytes.NewReader(data), XLSXOptions{SheetName: "Missing"})
	require.Error(t, err)

	_, err = ReadXLSX(bytes.NewReader(data), XLSXOptions{SheetIndex: 5})
	require.Error(t, err)
}

func TestReadXLSX_NotAWorkbook(t *testing.T) {
	_, err := ReadXLSX(strings.NewReader("plain text"), XLSXOptions{})
	require.Error(t, err)
}

func TestFormatOf(t *testing.T) {
	f, ok := FormatOf("ourlads_2025.CSV")
	assert.True(t, ok)
	assert.Equal(t, FormatCSV, f)

	f, ok = FormatOf("data/x.xlsx")
	assert.True(t, ok)
	assert.Equal(t, FormatXLSX, f)

	_, ok = FormatOf("notes.txt")
	assert.False(t, ok)
}

func TestDecodeRecords(t *testing.T) {
	rows, err := DecodeRecords(context.Background(), FormatJSON, strings.NewReader(`[{"a":"1"}]`))
	require.NoError(t, err)
	assert.Equal(t, []Record{{"a": "1"}}, rows)

	rows, err = DecodeRecords(context.Background(), FormatCSV, strings.NewReader("a\n2\n"))
	require.NoError(t, err)
	assert.Equal(t, []Record{{"a": "2"}}, rows)

	_, err = DecodeRecords(context.Background(), Format("xml"), strings.NewReader(""))
	require.Error(t, err)
}

func TestRecordFirst(t *testing.T) {
	r := Record{"name": " ", "player_name": "Arch Manning"}
	assert.Equal(t, "Arch Manning", r.First("name", "player_name"))
	assert.Equal(t, "", r.First("missing"))
}
