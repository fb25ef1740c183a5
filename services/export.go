package services

import (
	"encoding/csv"
	"io"
	"strconv"
)

var reportCSVHeader = []string{"Item", "Quantity", "Total Price"}

// WriteReportCSV writes a finalized report, one row per menu item.
func WriteReportCSV(w io.Writer, lines []ReportLine) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(reportCSVHeader); err != nil {
		return err
	}
	for _, l := range lines {
		row := []string{l.Name, strconv.FormatInt(l.Quantity, 10), strconv.FormatInt(l.Amount, 10)}
		if err := cw.Write(row); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}
