package main

import (
	"context"
	"fmt"
	"os"

	"nutrition-calculator/internal/infrastructure/config"
	"nutrition-calculator/internal/infrastructure/foodstore"
	"nutrition-calculator/internal/pkg/common"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var (
	seedFile      string
	seedDriver    string
	ensureIndexes bool
)

var rootCmd = &cobra.Command{
	Use:   "seed",
	Short: "Import reference foods into the nutrition store",
	Long: "Reads a JSON array of foods ({food_name, energy_kcal, protein_g, carb_g, fat_g, fibre_g}) " +
		"and upserts every entry into the configured MongoDB or SQLite store.",
	SilenceUsage: true,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.LoadConfig()
		if err != nil {
			return fmt.Errorf("failed to load config: %w", err)
		}
		if err := common.InitLogger(cfg.LogLevel); err != nil {
			return fmt.Errorf("failed to initialize logger: %w", err)
		}
		defer common.Sync()

		if seedDriver != "" {
			cfg.Store.Driver = seedDriver
		}
		if cfg.Store.Driver == config.StoreMemory {
			return fmt.Errorf("the memory store is not persistent; choose mongo or sqlite")
		}
		// the seed file is imported explicitly below
		cfg.Store.SeedFile = ""
		cfg.Store.NamesRefresh = ""

		ctx := cmd.Context()
		store, err := foodstore.Open(ctx, cfg.Store)
		if err != nil {
			return err
		}
		defer store.Close(context.Background())

		if ms, ok := store.Store.(*foodstore.MongoStore); ok && ensureIndexes {
			if err := ms.EnsureIndexes(ctx); err != nil {
				return fmt.Errorf("failed to create indexes: %w", err)
			}
		}

		n, err := foodstore.ImportFile(ctx, store, seedFile)
		if err != nil {
			return fmt.Errorf("imported %d foods before failing: %w", n, err)
		}

		common.LogInfo("seed completed",
			zap.String("driver", cfg.Store.Driver),
			zap.String("file", seedFile),
			zap.Int("foods", n),
		)
		fmt.Fprintf(cmd.OutOrStdout(), "imported %d foods into %s\n", n, cfg.Store.Driver)
		return nil
	},
}

func init() {
	rootCmd.Flags().StringVarP(&seedFile, "file", "f", "", "Path to the JSON seed file (required)")
	rootCmd.Flags().StringVar(&seedDriver, "driver", "", "Override store.driver (mongo or sqlite)")
	rootCmd.Flags().BoolVar(&ensureIndexes, "ensure-indexes", true, "Create the food_name index (mongo only)")
	_ = rootCmd.MarkFlagRequired("file")
}

func main() {
	if err := rootCmd.ExecuteContext(context.Background()); err != nil {
		os.Exit(1)
	}
}
