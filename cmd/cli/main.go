// Command cli is the operator tool: it inspects the form catalogue and a bot's stored state
// without connecting to Discord.
package main

import (
	"os"

	"github.com/keshon/whisperling/internal/logging"
	v "github.com/keshon/whisperling/internal/version"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
)

func main() {
	logging.Setup(logging.Options{Level: os.Getenv("LOG_LEVEL"), Pretty: true})
	if err := newRootCmd().Execute(); err != nil {
		log.Error().Err(err).Msg("Command failed")
		os.Exit(1)
	}
}

type rootFlags struct {
	storagePath string
	redisAddr   string
	redisPrefix string
	format      string
}

func newRootCmd() *cobra.Command {
	flags := &rootFlags{}
	root := &cobra.Command{
		Use:           "whisperling",
		Short:         "Inspect Whisperling's forms and stored state",
		Version:       v.Version,
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.PersistentFlags().StringVar(&flags.storagePath, "storage", envOr("STORAGE_PATH", "data/datastore.json"), "datastore file")
	root.PersistentFlags().StringVar(&flags.redisAddr, "redis", "", "read mood snapshots from this Redis address instead of the datastore")
	root.PersistentFlags().StringVar(&flags.redisPrefix, "redis-prefix", envOr("REDIS_PREFIX", "whisperling"), "Redis key prefix")
	root.PersistentFlags().StringVarP(&flags.format, "output", "o", "yaml", "output format: yaml or json")

	root.AddCommand(
		newFormsCmd(),
		newRenderCmd(),
		newConfigCmd(flags),
		newMoodCmd(flags),
		newCommandsCmd(),
	)
	return root
}

func envOr(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}
