package report

import (
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/workpulse-hr/punch-agent-go/internal/domain/punch"
	"github.com/xuri/excelize/v2"
)

const sheetName = "Punches"

var headers = []string{
	"attempt_id", "mode", "phase", "status", "reasons",
	"timestamp", "wifi_ssid", "wifi_bssid", "latitude", "longitude",
	"address", "device_info",
}

// WriteXLSX renders journal entries as a spreadsheet register, one attempt
// per row.
func WriteXLSX(entries []punch.JournalEntry, w io.Writer) error {
	f := excelize.NewFile()
	defer f.Close()

	index, err := f.NewSheet(sheetName)
	if err != nil {
		return fmt.Errorf("failed to create sheet: %w", err)
	}
	f.SetActiveSheet(index)
	if err := f.DeleteSheet("Sheet1"); err != nil {
		return fmt.Errorf("failed to drop default sheet: %w", err)
	}

	for col, header := range headers {
		cell, err := excelize.CoordinatesToCellName(col+1, 1)
		if err != nil {
			return err
		}
		if err := f.SetCellValue(sheetName, cell, header); err != nil {
			return err
		}
	}

	for i, entry := range entries {
		row := []interface{}{
			entry.AttemptID,
			string(entry.Mode),
			entry.Phase,
			entry.Status,
			strings.Join(entry.Reasons, ", "),
			entry.StartedAt.Format(time.RFC3339),
			entry.Wifi.SSID,
			entry.Wifi.BSSID,
			entry.Location.Latitude,
			entry.Location.Longitude,
			entry.Location.Address,
			entry.DeviceInfo,
		}
		for col, value := range row {
			cell, err := excelize.CoordinatesToCellName(col+1, i+2)
			if err != nil {
				return err
			}
			if err := f.SetCellValue(sheetName, cell, value); err != nil {
				return err
			}
		}
	}

	if err := f.Write(w); err != nil {
		return fmt.Errorf("failed to write workbook: %w", err)
	}
	return nil
}
