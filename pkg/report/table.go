package report

import (
	"io"
	"strconv"

	"github.com/olekukonko/tablewriter"

	"github.com/windowsadmins/wasetupreport/pkg/summary"
)

// PrintTable renders rows as a console table with the same columns as the workbook.
func PrintTable(out io.Writer, columns []string, rows []summary.Row) error {
	table := tablewriter.NewWriter(out)

	header := make([]any, 0, len(columns)+2)
	header = append(header, "Machine")
	for _, c := range columns {
		header = append(header, c)
	}
	header = append(header, "Total")
	table.Header(header...)

	for _, row := range rows {
		cells := make([]any, 0, len(columns)+2)
		cells = append(cells, row.Machine)
		for _, v := range row.Values {
			cells = append(cells, formatMs(v))
		}
		cells = append(cells, formatMs(row.Total))
		if err := table.Append(cells...); err != nil {
			return err
		}
	}

	return table.Render()
}

func formatMs(v *float64) string {
	if v == nil {
		return ""
	}
	return strconv.FormatFloat(*v, 'f', -1, 64)
}
