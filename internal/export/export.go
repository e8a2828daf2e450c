// Package export renders stocktake data as CSV and XLSX downloads.
package export

import (
	"encoding/csv"
	"fmt"
	"io"
	"strconv"

	"github.com/xuri/excelize/v2"

	"stocktake/m/domain"
)

const (
	ContentTypeCSV  = "text/csv"
	ContentTypeXLSX = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

	lastUpdatedLayout = "2006-01-02 15:04"
	sheetName         = "Sheet1"
)

var recordHeader = []string{"drug_name", "packs", "singles", "expiry_date", "Last Updated"}

func recordCells(row domain.RecordRow) []string {
	expiry := ""
	if row.ExpiryDate != nil {
		expiry = *row.ExpiryDate
	}
	return []string{
		row.DrugName,
		strconv.FormatInt(row.Packs, 10),
		strconv.FormatInt(row.Singles, 10),
		expiry,
		row.LastUpdated.Format(lastUpdatedLayout),
	}
}

// RecordsCSV writes stocktake records with a header row.
func RecordsCSV(w io.Writer, rows []domain.RecordRow) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(recordHeader); err != nil {
		return err
	}
	for _, row := range rows {
		if err := cw.Write(recordCells(row)); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

// RecordsXLSX writes stocktake records as a single-sheet workbook. Counts stay numeric.
func RecordsXLSX(w io.Writer, rows []domain.RecordRow) error {
	f := excelize.NewFile()
	defer f.Close()

	header := make([]interface{}, len(recordHeader))
	for i, h := range recordHeader {
		header[i] = h
	}
	if err := f.SetSheetRow(sheetName, "A1", &header); err != nil {
		return fmt.Errorf("writing header: %w", err)
	}
	for i, row := range rows {
		cells := recordCells(row)
		values := []interface{}{cells[0], row.Packs, row.Singles, cells[3], cells[4]}
		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return err
		}
		if err := f.SetSheetRow(sheetName, cell, &values); err != nil {
			return fmt.Errorf("writing row %d: %w", i+2, err)
		}
	}
	if err := f.Write(w); err != nil {
		return fmt.Errorf("writing workbook: %w", err)
	}
	return nil
}

// DrugsCSV writes the drug catalog with a header row.
func DrugsCSV(w io.Writer, drugs []domain.Drug) error {
	cw := csv.NewWriter(w)
	if err := cw.Write([]string{"id", "drug_name", "department"}); err != nil {
		return err
	}
	for _, d := range drugs {
		department := ""
		if d.Department != nil {
			department = *d.Department
		}
		if err := cw.Write([]string{strconv.FormatInt(d.ID, 10), d.DrugName, department}); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}
