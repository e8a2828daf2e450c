package main

import (
	"context"
	"flag"
	"os"

	"stocktake/m/internal/app"
	"stocktake/m/internal/logger"
	"stocktake/m/internal/seed"
	"stocktake/m/internal/store"
)

// stocktake-init creates the schema, the default admin accounts and, when the catalog is
// empty, the drug list from the stock take workbook.
func main() {
	drugFile := flag.String("drugs", "", "drug workbook to import (defaults to STOCKTAKE_DRUG_FILE)")
	skipAdmins := flag.Bool("skip-admins", false, "do not create the default admin accounts")
	flag.Parse()

	ctx := context.Background()
	a, err := app.Bootstrap(ctx, "stocktake-init")
	if err != nil {
		logger.New(logger.Options{ServiceName: "stocktake-init"}).Error(ctx, "failed to bootstrap", err)
		os.Exit(1)
	}
	defer a.Close()

	if !*skipAdmins {
		created, err := seed.LoadAdmins(ctx, store.NewUsers(a.DB), seed.DefaultAdmins)
		if err != nil {
			a.Logger.Error(ctx, "failed to seed admins", err)
			os.Exit(1)
		}
		a.Logger.Info(a.Logger.WithField(ctx, "created", created), "admins seeded")
	}

	path := *drugFile
	if path == "" {
		path = a.Config.Seed.DrugFile
	}
	result, err := seed.LoadDrugs(ctx, store.NewDrugs(a.DB), path)
	if err != nil {
		a.Logger.Error(a.Logger.WithField(ctx, "file", path), "failed to import drugs", err)
		os.Exit(1)
	}
	a.Logger.Info(a.Logger.WithFields(ctx, map[string]any{
		"file":     path,
		"inserted": result.Inserted,
		"skipped":  result.Skipped,
	}), "drug catalog ready")
}
