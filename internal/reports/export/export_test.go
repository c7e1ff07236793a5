package export

import (
	"bytes"
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
)

func sampleDataset() Dataset {
	return Dataset{
		Title:       "Stock Movement Register",
		GeneratedAt: time.Date(2026, 3, 14, 12, 0, 0, 0, time.UTC),
		Columns:     []string{"Item", "Type", "Qty"},
		Rows: [][]string{
			{"FAB-GREY-001", "IN", "1200"},
			{"FAB-DYED-002", "OUT", "300"},
		},
	}
}

func TestWriteCSV(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WriteCSV(&buf, sampleDataset()))

	lines := strings.Split(strings.TrimRight(buf.String(), "\r\n"), "\r\n")
	require.Len(t, lines, 4)
	require.Equal(t, "# Stock Movement Register (generated 2026-03-14 12:00)", lines[0])
	require.Equal(t, "Item,Type,Qty", lines[1])
	require.Equal(t, "FAB-GREY-001,IN,1200", lines[2])
	require.Equal(t, "FAB-DYED-002,OUT,300", lines[3])
}

func TestWriteCSVQuotesCommas(t *testing.T) {
	ds := sampleDataset()
	ds.Rows = [][]string{{"FAB-001", "IN", `note, with comma`}}

	var buf bytes.Buffer
	require.NoError(t, WriteCSV(&buf, ds))
	require.Contains(t, buf.String(), `"note, with comma"`)
}

func TestWriteXLSX(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WriteXLSX(&buf, sampleDataset()))

	f, err := excelize.OpenReader(bytes.NewReader(buf.Bytes()))
	require.NoError(t, err)
	defer func() {
		_ = f.Close()
	}()

	require.Equal(t, []string{sheetName}, f.GetSheetList())

	title, err := f.GetCellValue(sheetName, "A1")
	require.NoError(t, err)
	require.Equal(t, "Stock Movement Register", title)

	header, err := f.GetCellValue(sheetName, "B4")
	require.NoError(t, err)
	require.Equal(t, "Type", header)

	cell, err := f.GetCellValue(sheetName, "C6")
	require.NoError(t, err)
	require.Equal(t, "300", cell)
}

func TestPDFRendererPostsHTML(t *testing.T) {
	var gotPath string
	var gotBody []byte
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		require.NoError(t, r.ParseMultipartForm(1 << 20))
		file, _, err := r.FormFile("files")
		require.NoError(t, err)
		defer func() {
			_ = file.Close()
		}()
		gotBody, err = io.ReadAll(file)
		require.NoError(t, err)
		w.Header().Set("Content-Type", "application/pdf")
		_, _ = w.Write([]byte("%PDF-1.4 fake"))
	}))
	defer srv.Close()

	renderer := NewPDFRenderer(srv.URL)
	doc, err := renderer.Render(context.Background(), sampleDataset())
	require.NoError(t, err)
	require.Equal(t, []byte("%PDF-1.4 fake"), doc)
	require.Equal(t, "/forms/chromium/convert/html", gotPath)
	require.Contains(t, string(gotBody), "<h1>Stock Movement Register</h1>")
	require.Contains(t, string(gotBody), "<td>FAB-GREY-001</td>")
}

func TestPDFRendererSurfacesUpstreamFailure(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer srv.Close()

	renderer := NewPDFRenderer(srv.URL)
	_, err := renderer.Render(context.Background(), sampleDataset())
	require.Error(t, err)
	require.Contains(t, err.Error(), "503")
}
