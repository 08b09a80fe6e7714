package main

import (
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/closureme/closureme"
	"github.com/closureme/closureme/clientcli"
)

var (
	version = "dev"

	cfgFile      string
	profileName  string
	endpoint     string
	downloadsDir string
	token        string
	jsonOutput   bool
	quiet        bool
	logLevel     string
)

var rootCmd = &cobra.Command{
	Use:     "closureme",
	Version: version,
	Short:   "Client for the closureme character asset API",
	Long: `closureme - client for the closureme character asset API

Run without a command to start the interactive menu:
  1. Register   2. Login   3. Upload   4. Download
  5. Files      6. Delete  7. Rename   0. Exit

Every menu entry is also available as a command. Commands that need an
account read the token from --token, CLOSUREME_TOKEN or the active profile.`,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(_ *cobra.Command, _ []string) error {
		setupLogging(logLevel, os.Getenv("CLOSUREME_ENV"))
		return nil
	},
	RunE: runShell,
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&cfgFile, "config", "c", "", "config file (default: ~/.closureme/config.yaml, env: CLOSUREME_CONFIG)")
	rootCmd.PersistentFlags().StringVarP(&profileName, "profile", "p", "", "profile to use (env: CLOSUREME_PROFILE)")
	rootCmd.PersistentFlags().StringVarP(&endpoint, "endpoint", "e", "", "API origin (default: http://localhost:3000, env: CLOSUREME_ENDPOINT)")
	rootCmd.PersistentFlags().StringVarP(&downloadsDir, "downloads-dir", "d", "", "download directory (default: platform downloads folder, env: CLOSUREME_DOWNLOADS_DIR)")
	rootCmd.PersistentFlags().StringVarP(&token, "token", "t", "", "bearer token (env: CLOSUREME_TOKEN)")
	rootCmd.PersistentFlags().BoolVar(&jsonOutput, "json", false, "output as JSON")
	rootCmd.PersistentFlags().BoolVarP(&quiet, "quiet", "q", false, "suppress non-essential output")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "warn", "log level: debug, info, warn, error")

	rootCmd.AddCommand(registerCmd)
	rootCmd.AddCommand(loginCmd)
	rootCmd.AddCommand(uploadCmd)
	rootCmd.AddCommand(downloadCmd)
	rootCmd.AddCommand(filesCmd)
	rootCmd.AddCommand(deleteCmd)
	rootCmd.AddCommand(renameCmd)
	rootCmd.AddCommand(configureCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		_ = getFormatter().FormatError(os.Stderr, err)
		os.Exit(1)
	}
}

// getConfigPath resolves the config file path from flag, env, then default.
func getConfigPath() string {
	if cfgFile != "" {
		return cfgFile
	}
	if p := clientcli.ConfigPathFromEnv(); p != "" {
		return p
	}
	return clientcli.DefaultConfigPath()
}

// buildConfig merges config from file, env vars, and flags (flags take precedence).
func buildConfig() (*clientcli.Config, error) {
	var configs []*clientcli.Config

	// 1. Load from config file
	explicit := cfgFile != "" || clientcli.ConfigPathFromEnv() != ""
	name := profileName
	if name == "" {
		name = clientcli.ProfileFromEnv()
	}

	if configPath := getConfigPath(); configPath != "" {
		file, err := clientcli.LoadConfigFile(configPath)
		switch {
		case err == nil:
			profile, profileErr := file.GetProfile(name)
			if profileErr != nil && (name != "" || !errors.Is(profileErr, clientcli.ErrNoProfiles)) {
				return nil, profileErr
			}
			configs = append(configs, clientcli.ConfigFromProfile(profile))
		case explicit || name != "":
			// Only error if the user asked for a file or profile
			return nil, err
		}
	}

	// 2. Load from environment variables
	configs = append(configs, clientcli.ConfigFromEnv())

	// 3. Load from flags
	configs = append(configs, &clientcli.Config{
		Endpoint:     endpoint,
		DownloadsDir: downloadsDir,
		Token:        token,
	})

	return clientcli.MergeConfig(configs...), nil
}

// getFormatter returns the appropriate formatter based on flags.
func getFormatter() clientcli.Formatter {
	return clientcli.NewFormatter(jsonOutput, quiet)
}

// getClient creates a configured client and returns it with its config.
func getClient() (*clientcli.Client, *clientcli.Config, error) {
	cfg, err := buildConfig()
	if err != nil {
		return nil, nil, err
	}

	client, err := clientcli.New(cfg)
	if err != nil {
		return nil, nil, err
	}
	return client, cfg, nil
}

// requireSession returns the configured session or an error telling the
// user how to provide one.
func requireSession(cfg *clientcli.Config) (*clientcli.Session, error) {
	s := cfg.Session()
	if !s.Valid() {
		return nil, fmt.Errorf("%w: pass --token or run 'closureme login --save'", closureme.ErrNotLoggedIn)
	}
	return s, nil
}
