package export

import (
	"bufio"
	"encoding/csv"
	"fmt"
	"io"
)

const csvBufferSize = 32 * 1024

// WriteCSV streams a dataset as RFC 4180 CSV with a title comment line.
func WriteCSV(w io.Writer, ds Dataset) error {
	buf := bufio.NewWriterSize(w, csvBufferSize)
	writer := csv.NewWriter(buf)
	writer.UseCRLF = true

	title := fmt.Sprintf("# %s (generated %s)\r\n", ds.Title, ds.GeneratedAt.Format("2006-01-02 15:04"))
	if _, err := buf.WriteString(title); err != nil {
		return err
	}
	if err := writer.Write(ds.Columns); err != nil {
		return err
	}
	for _, row := range ds.Rows {
		if err := writer.Write(row); err != nil {
			return err
		}
	}
	writer.Flush()
	if err := writer.Error(); err != nil {
		return err
	}
	return buf.Flush()
}
