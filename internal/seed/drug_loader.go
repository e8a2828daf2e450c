package seed

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/xuri/excelize/v2"

	"stocktake/m/domain"
	"stocktake/m/internal/store"
)

// DrugNameColumn is the header of the spreadsheet column holding drug names.
const DrugNameColumn = "DRUG NAME"

type DrugCatalog interface {
	Count(ctx context.Context) (int64, error)
	Create(ctx context.Context, name string, department *string) (*domain.Drug, error)
}

type DrugImport struct {
	Inserted int
	Skipped  int
}

// ReadDrugNames returns the distinct, non-blank values of the DRUG NAME column of the
// first sheet, in file order.
func ReadDrugNames(path string) ([]string, error) {
	f, err := excelize.OpenFile(path)
	if err != nil {
		return nil, fmt.Errorf("opening %s: %w", path, err)
	}
	defer f.Close()

	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return nil, fmt.Errorf("%s has no sheets", path)
	}
	rows, err := f.GetRows(sheets[0])
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", sheets[0], err)
	}
	if len(rows) == 0 {
		return nil, fmt.Errorf("%s is empty", path)
	}

	col := -1
	for i, cell := range rows[0] {
		if strings.EqualFold(strings.TrimSpace(cell), DrugNameColumn) {
			col = i
			break
		}
	}
	if col < 0 {
		return nil, fmt.Errorf("%s has no %q column", path, DrugNameColumn)
	}

	seen := map[string]bool{}
	var names []string
	for _, row := range rows[1:] {
		if col >= len(row) {
			continue
		}
		name := strings.TrimSpace(row[col])
		if name == "" || seen[name] {
			continue
		}
		seen[name] = true
		names = append(names, name)
	}
	return names, nil
}

// LoadDrugs seeds an empty catalog from the spreadsheet at path. A catalog that already
// holds drugs is left alone. Names that already exist are skipped.
func LoadDrugs(ctx context.Context, catalog DrugCatalog, path string) (DrugImport, error) {
	var result DrugImport

	count, err := catalog.Count(ctx)
	if err != nil {
		return result, err
	}
	if count > 0 {
		return result, nil
	}

	names, err := ReadDrugNames(path)
	if err != nil {
		return result, err
	}
	for _, name := range names {
		if _, err := catalog.Create(ctx, name, nil); err != nil {
			if errors.Is(err, store.ErrDuplicate) {
				result.Skipped++
				continue
			}
			return result, fmt.Errorf("inserting drug %q: %w", name, err)
		}
		result.Inserted++
	}
	return result, nil
}
