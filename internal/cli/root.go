package cli

import (
	"log/slog"
	"os"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/me/shelf/internal/api"
	"github.com/me/shelf/internal/catalog"
	"github.com/me/shelf/internal/config"
	"github.com/me/shelf/internal/logging"
	"github.com/me/shelf/internal/session"
)

var (
	flagServer      string
	flagConfig      string
	flagCredentials string
	flagDebug       bool
	flagLogLevel    string
	flagLogFormat   string

	cfg    config.Config
	logger *slog.Logger
	sess   *session.Store
	client *api.Client
	state  *catalog.State
)

// defaultServer returns the default server URL, checking SHELF_SERVER
// env var first.
func defaultServer() string {
	if s := os.Getenv("SHELF_SERVER"); s != "" {
		return s
	}
	return "http://localhost:8080"
}

// NewRootCmd creates the root cobra command for the shelf CLI.
func NewRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:   "shelf",
		Short: "shelf — product catalog manager",
		Long:  "Shelf browses, searches, and manages products and categories in a catalog backend.",
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			// Load .env if present (ignore errors).
			_ = godotenv.Load()

			configPath := flagConfig
			if configPath == "" {
				if p, err := config.DefaultPath(); err == nil {
					configPath = p
				}
			}
			var err error
			cfg, err = config.Load(configPath)
			if err != nil {
				return err
			}

			if cmd.Flags().Changed("server") || cfg.ServerURL == "" {
				cfg.ServerURL = flagServer
			}
			if flagDebug {
				flagLogLevel = "debug"
			}
			if cmd.Flags().Changed("log-level") {
				cfg.LogLevel = flagLogLevel
			}
			if cmd.Flags().Changed("log-format") {
				cfg.LogFormat = flagLogFormat
			}
			logger = logging.NewLogger(logging.ParseLevel(cfg.LogLevel), cfg.LogFormat)

			credPath := flagCredentials
			if credPath == "" {
				credPath, err = session.DefaultPath()
				if err != nil {
					return err
				}
			}
			sess = session.NewStore(credPath)

			client = api.NewClient(api.Config{
				BaseURL:    cfg.ServerURL,
				Timeout:    cfg.Timeout,
				MaxRetries: cfg.MaxRetries,
				RetryDelay: cfg.RetryDelay,
			}, sess, logger)
			state = catalog.New(client, cfg.PageSize, logger)
			return nil
		},
		SilenceUsage: true,
	}

	root.PersistentFlags().StringVar(&flagServer, "server", defaultServer(), "Catalog server URL (or SHELF_SERVER env)")
	root.PersistentFlags().StringVar(&flagConfig, "config", "", "Config file path (default ~/.shelf/config.yaml)")
	root.PersistentFlags().StringVar(&flagCredentials, "credentials", "", "Credentials file path (default ~/.shelf/credentials.json)")
	root.PersistentFlags().BoolVar(&flagDebug, "debug", false, "Enable debug logging")
	root.PersistentFlags().StringVar(&flagLogLevel, "log-level", "info", "Log level (debug, info, warn, error)")
	root.PersistentFlags().StringVar(&flagLogFormat, "log-format", "text", "Log format (text, json)")

	root.AddCommand(
		newLoginCmd(),
		newLogoutCmd(),
		newStatusCmd(),
		newProductsCmd(),
		newCategoriesCmd(),
	)

	return root
}
