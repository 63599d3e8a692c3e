package main

import (
	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"
)

type columnAlignment int

const (
	alignLeft columnAlignment = iota
	alignRight
)

// column describes one table column. Cells wider than maxWidth are wrapped
// on word boundaries; zero leaves the column unbounded.
type column struct {
	title    string
	align    columnAlignment
	maxWidth int
}

// detailWidth bounds free-text columns such as errors and paths.
const detailWidth = 60

// renderTable renders rows under columns. A non-empty footer is rendered as
// a totals row below the body.
func renderTable(columns []column, rows [][]string, footer []string) string {
	if len(columns) == 0 {
		return ""
	}

	tw := table.NewWriter()
	tw.SetStyle(table.StyleRounded)
	tw.AppendHeader(tableRow(len(columns), func(i int) string { return columns[i].title }))
	for _, row := range rows {
		tw.AppendRow(tableRow(len(columns), cellOf(row)))
	}
	if len(footer) > 0 {
		tw.AppendFooter(tableRow(len(columns), cellOf(footer)))
	}

	configs := make([]table.ColumnConfig, 0, len(columns))
	for i, c := range columns {
		cfg := table.ColumnConfig{
			Number:      i + 1,
			Align:       text.AlignLeft,
			AlignHeader: text.AlignLeft,
			AlignFooter: text.AlignLeft,
		}
		if c.align == alignRight {
			cfg.Align = text.AlignRight
			cfg.AlignFooter = text.AlignRight
		}
		if c.maxWidth > 0 {
			cfg.WidthMax = c.maxWidth
			cfg.WidthMaxEnforcer = text.WrapSoft
		}
		configs = append(configs, cfg)
	}
	tw.SetColumnConfigs(configs)
	tw.Style().Format.Footer = text.FormatDefault

	return tw.Render() + "\n"
}

func tableRow(n int, cell func(int) string) table.Row {
	r := make(table.Row, n)
	for i := range n {
		r[i] = cell(i)
	}
	return r
}

func cellOf(values []string) func(int) string {
	return func(i int) string {
		if i < len(values) {
			return values[i]
		}
		return ""
	}
}
