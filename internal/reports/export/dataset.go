package export

import "time"

// Dataset is a rendered report: a title plus tabular rows. All writers in
// this package consume this shape, so adding a report kind needs no
// exporter changes.
type Dataset struct {
	Title       string     `json:"title"`
	GeneratedAt time.Time  `json:"generated_at"`
	Columns     []string   `json:"columns"`
	Rows        [][]string `json:"rows"`
}
