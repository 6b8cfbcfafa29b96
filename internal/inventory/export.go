package inventory

import (
	"encoding/csv"
	"errors"
	"io"
	"strconv"
	"strings"
	"time"

	"github.com/xuri/excelize/v2"

	"github.com/samarth126/SmartShelf/internal/models"
)

const (
	FormatCSV  = "csv"
	FormatXLSX = "xlsx"

	xlsxSheet = "Inventory"
)

var ErrUnknownFormat = errors.New("unknown export format")

var exportHeader = []string{
	"list_id",
	"list_name",
	"purpose",
	"created_at",
	"item_id",
	"item_name",
	"quantity",
	"brand",
}

// ContentType возвращает MIME-тип выгрузки.
func ContentType(format string) (string, error) {
	switch strings.ToLower(format) {
	case FormatCSV:
		return "text/csv; charset=utf-8", nil
	case FormatXLSX:
		return "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet", nil
	default:
		return "", ErrUnknownFormat
	}
}

// Export пишет позиции списка в выбранном формате.
func Export(w io.Writer, list models.InventoryList, format string) error {
	switch strings.ToLower(format) {
	case FormatCSV:
		return writeCSV(w, list)
	case FormatXLSX:
		return writeXLSX(w, list)
	default:
		return ErrUnknownFormat
	}
}

func exportRows(list models.InventoryList) [][]string {
	rows := make([][]string, 0, len(list.InventoryItems))
	for _, item := range list.InventoryItems {
		brand := ""
		if item.Brand != nil {
			brand = *item.Brand
		}

		rows = append(rows, []string{
			strconv.FormatInt(list.ID, 10),
			list.Name,
			list.Purpose,
			list.CreatedAt.Format(time.RFC3339),
			strconv.FormatInt(item.ID, 10),
			item.Name,
			item.Quantity,
			brand,
		})
	}
	return rows
}

func writeCSV(w io.Writer, list models.InventoryList) error {
	writer := csv.NewWriter(w)

	if err := writer.Write(exportHeader); err != nil {
		return err
	}

	for _, record := range exportRows(list) {
		if err := writer.Write(record); err != nil {
			return err
		}
	}

	writer.Flush()
	return writer.Error()
}

func writeXLSX(w io.Writer, list models.InventoryList) error {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName("Sheet1", xlsxSheet); err != nil {
		return err
	}

	rows := append([][]string{exportHeader}, exportRows(list)...)
	for i, row := range rows {
		cell, err := excelize.CoordinatesToCellName(1, i+1)
		if err != nil {
			return err
		}

		values := make([]interface{}, len(row))
		for j, value := range row {
			values[j] = value
		}

		if err := f.SetSheetRow(xlsxSheet, cell, &values); err != nil {
			return err
		}
	}

	return f.Write(w)
}
