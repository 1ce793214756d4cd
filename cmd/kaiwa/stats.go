package main

import (
	"fmt"
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/hrygo/kaiwa/ai/analytics"
)

func newStatsCommand() *cobra.Command {
	var (
		userID     string
		scenarioID string
		days       int
	)

	cmd := &cobra.Command{
		Use:   "stats",
		Short: "Show cache effectiveness over the trailing days",
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

			aggregator := analytics.New(storeInstance, analytics.Config{
				CostPerKTokensUSD: instanceProfile.CostPerKTokensUSD,
			}, slog.Default())

			var scenarioFilter *string
			if scenarioID != "" {
				scenarioFilter = &scenarioID
			}
			stats, err := aggregator.GetStats(ctx, userID, scenarioFilter, days)
			if err != nil {
				return err
			}

			fmt.Printf("requests:        %d\n", stats.TotalRequests)
			fmt.Printf("hits:            %d\n", stats.Hits)
			fmt.Printf("misses:          %d\n", stats.Misses)
			fmt.Printf("hit rate:        %.1f%%\n", stats.HitRate*100)
			fmt.Printf("avg similarity:  %.3f\n", stats.AvgSimilarity)
			fmt.Printf("avg latency:     %.1f ms\n", stats.AvgResponseTimeMs)
			fmt.Printf("tokens saved:    %d\n", stats.TokensSaved)
			fmt.Printf("est. cost saved: $%.4f\n", stats.EstimatedCostSaved)
			return nil
		},
	}

	cmd.Flags().StringVar(&userID, "user", "local", "user identifier")
	cmd.Flags().StringVar(&scenarioID, "scenario", "", "restrict to one scenario")
	cmd.Flags().IntVar(&days, "days", 7, "trailing window in days")

	return cmd
}
