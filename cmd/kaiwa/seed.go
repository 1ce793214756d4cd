package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/hrygo/kaiwa/ai/preload"
)

func newSeedCommand() *cobra.Command {
	var (
		dir         string
		concurrency int
	)

	cmd := &cobra.Command{
		Use:   "seed",
		Short: "Load scenario seed files into the cache",
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()

			instanceProfile, err := loadProfile()
			if err != nil {
				return err
			}
			storeInstance, err := openStore(ctx, instanceProfile)
			if err != nil {
				return err
			}
			defer storeInstance.Close()

			seeder := preload.NewSeeder(storeInstance, concurrency, nil)
			summary, err := seeder.SeedDir(ctx, dir)
			if err != nil {
				return err
			}

			fmt.Printf("seeded %d file(s): %d pattern(s) created, %d skipped, %d response(s) created\n",
				summary.Files, summary.PatternsCreated, summary.PatternsSkipped, summary.ResponsesCreated)
			return nil
		},
	}

	cmd.Flags().StringVar(&dir, "dir", "seeds", "directory holding seed *.yaml files")
	cmd.Flags().IntVar(&concurrency, "concurrency", 4, "seed files loaded in parallel")

	return cmd
}
