package bot

import (
	"bytes"
	"fmt"

	"order-bot/services"
)

func reportFile(orderID int64, lines []services.ReportLine) (string, []byte, error) {
	var buf bytes.Buffer
	if err := services.WriteReportCSV(&buf, lines); err != nil {
		return "", nil, fmt.Errorf("write csv: %w", err)
	}
	return fmt.Sprintf("report_%d.csv", orderID), buf.Bytes(), nil
}
