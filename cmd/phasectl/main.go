package main

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"os"
	"time"

	"github.com/Dosada05/esports-tournament-engine/config"
	"github.com/Dosada05/esports-tournament-engine/db"
	"github.com/Dosada05/esports-tournament-engine/metrics"
	"github.com/Dosada05/esports-tournament-engine/notify"
	"github.com/Dosada05/esports-tournament-engine/repositories"
	"github.com/Dosada05/esports-tournament-engine/services"
	_ "github.com/lib/pq"
	"github.com/urfave/cli/v2"
	"go.opentelemetry.io/otel/trace/noop"
)

func main() {
	app := &cli.App{
		Name:  "phasectl",
		Usage: "operate tournament phase progression from the command line",
		Commands: []*cli.Command{
			advanceCommand(),
			standingsCommand(),
			seedCommand(),
		},
	}

	if err := app.Run(os.Args); err != nil {
		fmt.Fprintln(os.Stderr, "phasectl:", err)
		os.Exit(1)
	}
}

var (
	tournamentFlag = &cli.IntFlag{Name: "tournament", Aliases: []string{"t"}, Usage: "tournament ID", Required: true}
	phaseFlag      = &cli.StringFlag{Name: "phase", Aliases: []string{"p"}, Usage: "phase name", Required: true}
)

func advanceCommand() *cli.Command {
	return &cli.Command{
		Name:  "advance",
		Usage: "complete a phase and move qualified teams on",
		Flags: []cli.Flag{tournamentFlag, phaseFlag},
		Action: func(c *cli.Context) error {
			return withService(c, func(svc services.ProgressionService) error {
				result, err := svc.AdvancePhase(c.Context, c.Int("tournament"), c.String("phase"))
				if err != nil {
					return err
				}
				return printJSON(c.App.Writer, result)
			})
		},
	}
}

func standingsCommand() *cli.Command {
	return &cli.Command{
		Name:  "standings",
		Usage: "print live standings of a phase",
		Flags: []cli.Flag{tournamentFlag, phaseFlag},
		Action: func(c *cli.Context) error {
			return withService(c, func(svc services.ProgressionService) error {
				view, err := svc.PhaseStandings(c.Context, c.Int("tournament"), c.String("phase"))
				if err != nil {
					return err
				}
				return printJSON(c.App.Writer, view)
			})
		},
	}
}

func seedCommand() *cli.Command {
	return &cli.Command{
		Name:  "seed",
		Usage: "create a tournament and its reported matches from a YAML file",
		Flags: []cli.Flag{
			&cli.PathFlag{Name: "file", Aliases: []string{"f"}, Usage: "YAML tournament definition", Required: true},
		},
		Action: func(c *cli.Context) error {
			seed, err := loadSeedFile(c.Path("file"))
			if err != nil {
				return err
			}
			return withService(c, func(svc services.ProgressionService) error {
				created, err := svc.SeedTournament(c.Context, seed.Tournament, seed.Matches)
				if err != nil {
					return err
				}
				fmt.Fprintf(c.App.Writer, "created tournament %d (%s) with %d matches\n", created.ID, created.Name, len(seed.Matches))
				return nil
			})
		},
	}
}

// withService opens the database and builds a progression service for one command.
func withService(c *cli.Context, fn func(svc services.ProgressionService) error) error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}
	logger := slog.New(slog.NewTextHandler(c.App.ErrWriter, &slog.HandlerOptions{Level: cfg.LogLevel}))

	conn, err := db.Connect(cfg.DatabaseURL, 5*time.Second)
	if err != nil {
		return err
	}
	defer conn.Close()

	if err := db.EnsureSchema(c.Context, conn); err != nil {
		return err
	}

	var publishers []services.EventPublisher
	if cfg.NATSURL != "" {
		natsPublisher, err := notify.NewNATSPublisher(cfg.NATSURL, cfg.NATSSubject, logger)
		if err != nil {
			return err
		}
		defer natsPublisher.Close()
		publishers = append(publishers, natsPublisher)
	}

	return fn(newService(conn, publishers, logger, cfg.AdvanceTimeout))
}

func newService(conn *sql.DB, publishers []services.EventPublisher, logger *slog.Logger, timeout time.Duration) services.ProgressionService {
	return services.NewProgressionService(
		repositories.NewPostgresTxManager(conn),
		repositories.NewPostgresTournamentRepository(conn),
		repositories.NewPostgresMatchRepository(conn),
		publishers,
		nil,
		metrics.NoOpMetrics{},
		noop.NewTracerProvider().Tracer("phasectl"),
		logger,
		timeout,
	)
}

func printJSON(w io.Writer, v interface{}) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
