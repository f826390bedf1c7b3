package cmd

import (
	"context"
	"database/sql"
	"fmt"
	"os"

	"github.com/jackc/pgx/v5/pgxpool"
	_ "github.com/lib/pq"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	pgrepo "rotafacil/internal/adapters/db/postgres"
	appaccess "rotafacil/internal/application/access"
	appauth "rotafacil/internal/application/auth"
	"rotafacil/internal/config"
	domainaccess "rotafacil/internal/domain/access"
	domainaudit "rotafacil/internal/domain/audit"
	domainauth "rotafacil/internal/domain/auth"
)

// actorID marks audit entries written from the command line
const actorID = "rotafacil-admin"

var cliMeta = domainaudit.Meta{UserAgent: "rotafacil-admin"}

var cfg *config.Config

var rootCmd = &cobra.Command{
	Use:   "rotafacil-admin",
	Short: "Operator tools for the Rota Fácil access database",
	Long: `Administrative commands that work directly on the Postgres database used by
the access server: schema migrations, account bootstrap and schedule
assignment. The connection comes from DB_DSN.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		zerolog.TimeFieldFormat = zerolog.TimeFormatUnix
		log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr})
		cfg = config.LoadConfig()
		return nil
	},
}

func Execute() {
	err := rootCmd.ExecuteContext(context.Background())
	if err != nil {
		os.Exit(1)
	}
}

// backend is the set of services commands operate on
type backend struct {
	users     domainauth.Repository
	schedules domainaccess.Repository
	auth      *appauth.Service
	access    *appaccess.Service
	close     func()
}

// openBackend is replaced in tests
var openBackend = openPostgres

func openPostgres(ctx context.Context) (*backend, error) {
	loc, err := cfg.Location()
	if err != nil {
		return nil, err
	}
	db, err := sql.Open("postgres", cfg.Database.DSN)
	if err != nil {
		return nil, fmt.Errorf("open postgres: %w", err)
	}
	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping postgres: %w", err)
	}
	pool, err := pgxpool.New(ctx, cfg.Database.DSN)
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("open postgres lock pool: %w", err)
	}

	users := pgrepo.NewUserRepository(db)
	schedules := pgrepo.NewScheduleRepository(db)
	audits := pgrepo.NewAuditRepository(db)
	accessService := appaccess.NewService(schedules, users, audits, pgrepo.NewLockManager(pool), loc)
	return &backend{
		users:     users,
		schedules: schedules,
		auth:      appauth.NewService(&cfg.Auth, users, accessService, audits),
		access:    accessService,
		close: func() {
			pool.Close()
			db.Close()
		},
	}, nil
}

// withBackend opens the backend for the duration of fn
func withBackend(cmd *cobra.Command, fn func(b *backend) error) error {
	b, err := openBackend(cmd.Context())
	if err != nil {
		return err
	}
	defer b.close()
	return fn(b)
}
