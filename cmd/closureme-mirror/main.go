package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/closureme/closureme/config"
)

var version = "dev"

var jsonOutput bool

var rootCmd = &cobra.Command{
	Version: version,
	Use:     "closureme-mirror",
	Short:   "Copy character assets between the bucket and this machine",
	Long: `closureme-mirror runs the asset mirror jobs: it downloads pending
images, memories, profiles, models and voices from the object store,
uploads finished FBX models, and writes the index file read by the
character runtime.

Configuration is read from ./config.json unless --config is given.
Environment variables use the CLOSUREME_ prefix; API_URL and the AWS_*
variables are honoured as well.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
		files, _ := cmd.Flags().GetStringSlice("config")

		cfg, err := config.Load(files, cmd.Flags())
		if err != nil {
			return fmt.Errorf("load config: %w", err)
		}

		setupLogging(cfg.Log.Level, os.Getenv("CLOSUREME_ENV"))
		cmd.SetContext(config.WithContext(cmd.Context(), cfg))
		return nil
	},
}

func init() {
	flags := rootCmd.PersistentFlags()
	flags.StringSlice("config", nil, "config file path, repeatable; later files override earlier ones (default: ./config.json)")
	flags.String("api-url", "", "character API URL (env: API_URL)")
	flags.String("storage", "", "object store backend: s3, stowry (default: s3)")
	flags.String("bucket", "", "S3 bucket (env: AWS_S3_BUCKET)")
	flags.String("region", "", "S3 region (env: AWS_REGION)")
	flags.String("endpoint", "", "object store endpoint, required for stowry")
	flags.Bool("ledger", false, "record transfers in the ledger database")
	flags.String("ledger-type", "", "ledger database type: sqlite, postgres (default: sqlite)")
	flags.String("ledger-dsn", "", "ledger connection string (default: closureme.db)")
	flags.String("transfer-table", "", "ledger table name (default: closureme_transfers)")
	flags.String("log-level", "", "log level: debug, info, warn, error (default: info)")
	flags.String("image-dir", "", "pending image download directory")
	flags.String("memory-dir", "", "memory download directory")
	flags.String("profile-dir", "", "profile download directory")
	flags.String("model-dir", "", "model download directory")
	flags.String("voice-dir", "", "voice download directory")
	flags.String("fbx-dir", "", "FBX upload directory")
	flags.String("index-dir", "", "index file directory")
	flags.BoolVar(&jsonOutput, "json", false, "output as JSON")
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
