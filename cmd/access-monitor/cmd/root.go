package cmd

import (
	"context"
	"os"

	"rotafacil/internal/client/adapters/httpapi"
	"rotafacil/internal/client/adapters/sessionstore"
	"rotafacil/internal/client/config"
	"rotafacil/internal/client/session"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
)

var (
	cfgFile   string
	serverURL string
	debug     bool

	cfg *config.Config
)

var rootCmd = &cobra.Command{
	Use:   "access-monitor",
	Short: "Keeps a Rota Fácil session inside its access schedule",
	Long: `access-monitor signs a user in to the Rota Fácil platform and, while the
session lasts, checks every minute that it is still inside the user's access
schedule. It warns when the window is about to close and signs out once the
server refuses access.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		zerolog.TimeFieldFormat = zerolog.TimeFormatUnix
		log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr})

		if cmd.Name() == initCmd.Name() {
			return nil
		}
		loaded, err := config.Load(cfgFile)
		if err != nil {
			return err
		}
		if serverURL != "" {
			loaded.ServerURL = serverURL
			if err := loaded.Validate(); err != nil {
				return err
			}
		}
		if debug {
			loaded.Debug = true
		}
		zerolog.SetGlobalLevel(zerolog.InfoLevel)
		if loaded.Debug {
			zerolog.SetGlobalLevel(zerolog.DebugLevel)
		}
		cfg = loaded
		return nil
	},
}

func Execute() {
	err := rootCmd.ExecuteContext(context.Background())
	if err != nil {
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default "+config.DefaultPath()+")")
	rootCmd.PersistentFlags().StringVar(&serverURL, "server", "", "API base URL, overrides server_url")
	rootCmd.PersistentFlags().BoolVar(&debug, "debug", false, "enable debug logging")
}

// newSessionManager wires the auth API and the local session store
func newSessionManager() (*session.Manager, *httpapi.Client) {
	client := httpapi.NewClient(cfg.ServerURL, cfg.RequestTimeout())
	return session.NewManager(client, sessionstore.New(cfg.SessionFile)), client
}
