package main

import (
	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"
)

// tableColumn describes one rendered column.
type tableColumn struct {
	header   string
	alignR   bool
	maxWidth int
}

// renderTable draws rows with the rounded style. Cells beyond the column
// count are dropped; missing cells render empty. When colorize is set the
// cells of statusCol are tinted by statusColor.
func renderTable(columns []tableColumn, rows [][]string, statusCol int, colorize bool) string {
	if len(columns) == 0 {
		return ""
	}

	tw := table.NewWriter()
	tw.SetStyle(table.StyleRounded)

	header := make(table.Row, len(columns))
	configs := make([]table.ColumnConfig, len(columns))
	for i, col := range columns {
		header[i] = col.header
		align := text.AlignLeft
		if col.alignR {
			align = text.AlignRight
		}
		configs[i] = table.ColumnConfig{
			Number:      i + 1,
			Align:       align,
			AlignHeader: text.AlignLeft,
			WidthMax:    col.maxWidth,
		}
		if colorize && i == statusCol {
			configs[i].Transformer = func(val any) string {
				s, _ := val.(string)
				return statusColor(s).Sprint(s)
			}
		}
	}
	tw.AppendHeader(header)
	tw.SetColumnConfigs(configs)

	for _, row := range rows {
		r := make(table.Row, len(columns))
		for i := range columns {
			if i < len(row) {
				r[i] = row[i]
			} else {
				r[i] = ""
			}
		}
		tw.AppendRow(r)
	}

	return tw.Render()
}

func statusColor(status string) text.Colors {
	switch status {
	case "updated":
		return statusOK.colors()
	case "planned":
		return statusInfo.colors()
	case "failed":
		return statusError.colors()
	default:
		return text.Colors{}
	}
}
