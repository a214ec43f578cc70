package outwriter

import (
	"fmt"
	"io"
	"strconv"

	"github.com/olekukonko/tablewriter"
	"github.com/olekukonko/tablewriter/tw"
)

// noMatrixMessage replaces the matrix of a predictor without counted instances.
const noMatrixMessage = "Cannot print the confusion matrix info"

// writeMatrixTable renders a confusion matrix with actual labels as rows,
// predicted labels as columns, and row and column totals.
func writeMatrixTable(w io.Writer, matrix [][]int, intFmt string) error {
	n := len(matrix)
	table := tablewriter.NewWriter(w)

	headers := make([]string, 0, n+2)
	headers = append(headers, "actual/predicted")
	for j := range n {
		headers = append(headers, strconv.Itoa(j))
	}
	headers = append(headers, "total")
	table.Header(headers)

	table.Configure(func(cfg *tablewriter.Config) {
		cfg.Row.Alignment.Global = tw.AlignRight
	})

	colTotals := make([]int, n)
	grand := 0
	data := make([][]string, 0, n+1)
	for i, row := range matrix {
		cells := make([]string, 0, n+2)
		cells = append(cells, strconv.Itoa(i))
		rowTotal := 0
		for j, v := range row {
			cells = append(cells, fmt.Sprintf(intFmt, v))
			rowTotal += v
			if j < n {
				colTotals[j] += v
			}
		}
		cells = append(cells, fmt.Sprintf(intFmt, rowTotal))
		grand += rowTotal
		data = append(data, cells)
	}

	totals := make([]string, 0, n+2)
	totals = append(totals, "total")
	for _, v := range colTotals {
		totals = append(totals, fmt.Sprintf(intFmt, v))
	}
	totals = append(totals, fmt.Sprintf(intFmt, grand))
	data = append(data, totals)

	if err := table.Bulk(data); err != nil {
		return err
	}
	return table.Render()
}
