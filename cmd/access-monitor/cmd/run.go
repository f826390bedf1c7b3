package cmd

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"rotafacil/internal/client/adapters/notify"
	"rotafacil/internal/client/adapters/ws"
	"rotafacil/internal/client/monitor"
	"rotafacil/internal/client/ports"
	"rotafacil/internal/client/runner"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
)

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Monitor the stored session until interrupted",
	Long: `Watches the session stored by "login". While a session exists its access
is checked immediately and then every interval; schedule changes pushed by the
server trigger an extra check. A denied session is signed out after a short
grace delay and the monitor waits for the next login.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		manager, client := newSessionManager()
		policy := cfg.Policy()
		ctrl := monitor.NewController(client, notify.NewLogger(log.Logger), manager, monitor.Options{Policy: &policy})

		push := runner.NewRunner(ws.NewClient(), manager.Current, ctrl, cfg.ServerURL)
		pushStop := make(chan struct{})
		go push.Start(pushStop)

		go func() {
			for {
				select {
				case <-ctx.Done():
					return
				case <-ctrl.LoggedOut():
					log.Warn().Msg("session ended by access schedule; waiting for next login")
					push.Reconnect()
				}
			}
		}()

		log.Info().Str("server", cfg.ServerURL).Str("session_file", cfg.SessionFile).Msg("access monitor running")

		lastCredential := ""
		manager.Watch(ctx, cfg.SessionPoll(), func(s *ports.Session) {
			ctrl.SessionChanged(ctx, s)
			credential := ""
			if s != nil {
				credential = s.Credential
			}
			if credential != lastCredential {
				lastCredential = credential
				push.Reconnect()
			}
		})

		ctrl.Stop()
		close(pushStop)
		log.Info().Msg("access monitor stopped")
		return nil
	},
}

func init() {
	rootCmd.AddCommand(runCmd)
}

func contextWithTimeout(cmd *cobra.Command, d time.Duration) (context.Context, context.CancelFunc) {
	return context.WithTimeout(cmd.Context(), d)
}
