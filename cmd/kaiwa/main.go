package main

import (
	"fmt"
	"os"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/hrygo/kaiwa/ai/observability/logging"
)

var rootCmd = &cobra.Command{
	Use:   "kaiwa",
	Short: `A response cache for Japanese conversation practice. Serves repeated utterances from cached patterns instead of calling the generation service.`,
	PersistentPreRunE: func(_ *cobra.Command, _ []string) error {
		// Try to load .env from the current directory; a missing file
		// is not an error.
		_ = godotenv.Load()
		logging.Setup(viper.GetString("mode"))
		return nil
	},
}

func init() {
	viper.SetDefault("mode", "dev")
	viper.SetDefault("driver", "sqlite")

	rootCmd.PersistentFlags().String("mode", "dev", `mode, can be "prod" or "dev"`)
	rootCmd.PersistentFlags().String("data", "", "data directory")
	rootCmd.PersistentFlags().String("driver", "sqlite", "database driver (sqlite, postgres)")
	rootCmd.PersistentFlags().String("dsn", "", "database source name (aka. DSN)")
	rootCmd.PersistentFlags().String("metrics-addr", "", "Prometheus listen address, e.g. :9090 (disabled when empty)")

	for _, key := range []string{"mode", "data", "driver", "dsn", "metrics-addr"} {
		if err := viper.BindPFlag(key, rootCmd.PersistentFlags().Lookup(key)); err != nil {
			panic(err)
		}
	}

	rootCmd.AddCommand(newChatCommand())
	rootCmd.AddCommand(newSeedCommand())
	rootCmd.AddCommand(newStatsCommand())
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
