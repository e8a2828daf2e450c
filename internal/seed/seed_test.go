package seed

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"stocktake/m/internal/store"
	"stocktake/m/internal/testdb"
)

func writeWorkbook(t *testing.T, rows [][]interface{}) string {
	t.Helper()
	f := excelize.NewFile()
	defer f.Close()
	for i, row := range rows {
		cell, err := excelize.CoordinatesToCellName(1, i+1)
		require.NoError(t, err)
		r := row
		require.NoError(t, f.SetSheetRow("Sheet1", cell, &r))
	}
	path := filepath.Join(t.TempDir(), "STOCK TAKE FILE.xlsx")
	require.NoError(t, f.SaveAs(path))
	return path
}

func TestReadDrugNames(t *testing.T) {
	path := writeWorkbook(t, [][]interface{}{
		{"NO", "DRUG NAME", "QTY"},
		{1, "Paracetamol", 10},
		{2, "  Ibuprofen ", 3},
		{3, "", 1},
		{4, "Paracetamol", 2},
		{5},
	})

	names, err := ReadDrugNames(path)
	require.NoError(t, err)
	assert.Equal(t, []string{"Paracetamol", "Ibuprofen"}, names)
}

func TestReadDrugNamesRequiresColumn(t *testing.T) {
	path := writeWorkbook(t, [][]interface{}{{"NAME"}, {"Paracetamol"}})

	_, err := ReadDrugNames(path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), DrugNameColumn)
}

func TestLoadDrugsOnlySeedsEmptyCatalog(t *testing.T) {
	ctx := context.Background()
	drugs := store.NewDrugs(testdb.Open(t))
	path := writeWorkbook(t, [][]interface{}{
		{"DRUG NAME"},
		{"Paracetamol"},
		{"Ibuprofen"},
		{"Amoxicillin"},
	})

	result, err := LoadDrugs(ctx, drugs, path)
	require.NoError(t, err)
	assert.Equal(t, DrugImport{Inserted: 3}, result)

	result, err = LoadDrugs(ctx, drugs, path)
	require.NoError(t, err)
	assert.Equal(t, DrugImport{}, result)

	n, err := drugs.Count(ctx)
	require.NoError(t, err)
	assert.EqualValues(t, 3, n)
}

func TestLoadAdminsSkipsExisting(t *testing.T) {
	ctx := context.Background()
	users := store.NewUsers(testdb.Open(t))
	admins := DefaultAdmins[:2]

	created, err := LoadAdmins(ctx, users, admins)
	require.NoError(t, err)
	assert.Equal(t, 2, created)

	created, err = LoadAdmins(ctx, users, admins)
	require.NoError(t, err)
	assert.Zero(t, created)

	user, err := users.Authenticate(ctx, "er_admin", "er_password123")
	require.NoError(t, err)
	assert.Equal(t, "ER", user.Department)
	assert.True(t, user.IsAdmin)
}
