// CLI entry point for the NMR report checker.
package main

import (
	"context"
	"os"

	"github.com/turtacn/NMReportChecker/internal/application/analysis"
	"github.com/turtacn/NMReportChecker/internal/config"
	"github.com/turtacn/NMReportChecker/internal/infrastructure/database/postgres"
	"github.com/turtacn/NMReportChecker/internal/infrastructure/database/postgres/repositories"
	"github.com/turtacn/NMReportChecker/internal/infrastructure/monitoring/logging"
	"github.com/turtacn/NMReportChecker/internal/interfaces/cli"
)

// Build-time variables injected via ldflags.
var (
	version   = "dev"
	commit    = "unknown"
	buildDate = "unknown"
)

func init() {
	cli.Version = version
	cli.GitCommit = commit
	cli.BuildDate = buildDate
}

func main() {
	// Execute prints the error itself.
	if err := cli.Execute(serviceFactory); err != nil {
		os.Exit(1)
	}
}

// serviceFactory adds PostgreSQL history when the config enables it, so
// `nmrcheck history` and recorded analyses share the server's database.
func serviceFactory(ctx context.Context, cfg *config.Config, logger logging.Logger) (analysis.Service, func(), error) {
	if !cfg.Database.Enabled {
		return cli.DefaultServiceFactory(ctx, cfg, logger)
	}

	if cfg.Database.AutoMigrate {
		if err := postgres.RunMigrations(cfg.Database.DSN()); err != nil {
			return nil, nil, err
		}
	}
	pool, err := postgres.NewConnectionPool(cfg.Database, logger)
	if err != nil {
		return nil, nil, err
	}
	svc, err := analysis.NewService(analysis.ConfigFrom(cfg), analysis.Deps{
		Repository: repositories.NewAnalysisRepository(pool, logger),
		Logger:     logger,
	})
	if err != nil {
		postgres.Close(pool)
		return nil, nil, err
	}
	return svc, func() { postgres.Close(pool) }, nil
}

//Personal.AI order the ending
