package main

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"github.com/spf13/pflag"

	"gamedash/internal/config"
	"gamedash/internal/database"
	"gamedash/internal/export"
	"gamedash/internal/logging"
	"gamedash/internal/models"
	"gamedash/internal/report"
	"gamedash/internal/repository"
	"gamedash/internal/service"
)

// app holds what every subcommand needs
type app struct {
	cfg     *config.Config
	db      *database.DB
	reports *report.Service
	users   *repository.UserRepository
	logger  *slog.Logger
}

func main() {
	if len(os.Args) < 2 {
		printUsage()
		os.Exit(1)
	}

	cfg := config.Load()
	logger := logging.New(os.Stderr, cfg.LogLevel, cfg.LogFormat)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cmd, args := os.Args[1], os.Args[2:]
	if cmd == "help" || cmd == "-h" || cmd == "--help" {
		printUsage()
		return
	}

	a, err := open(ctx, cfg, logger)
	if err != nil {
		logger.Error("startup failed", "error", err)
		os.Exit(1)
	}
	defer a.db.Close()

	switch cmd {
	case "global":
		err = a.global(ctx, args)
	case "errors":
		err = a.errors(ctx, args)
	case "digest":
		err = a.digest(ctx, args)
	case "export":
		err = a.exportBackup(ctx, args)
	case "import":
		err = a.importBackup(ctx, args)
	default:
		printUsage()
		os.Exit(1)
	}
	if err != nil {
		logger.Error(cmd+" failed", "error", err)
		os.Exit(1)
	}
}

func open(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*app, error) {
	db, err := database.InitializeWithConfig(cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize database: %w", err)
	}
	if err := db.RunMigrations(ctx, cfg.MigrationsPath); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to run migrations: %w", err)
	}

	users := repository.NewUserRepository(db)
	return &app{
		cfg:     cfg,
		db:      db,
		reports: report.NewService(repository.NewRecordRepository(db), users, repository.NewErrorPatternRepository(db), logger),
		users:   users,
		logger:  logger,
	}, nil
}

func (a *app) global(ctx context.Context, args []string) error {
	fs := pflag.NewFlagSet("global", pflag.ExitOnError)
	format := fs.String("format", "json", "output format: json or xlsx")
	output := fs.StringP("output", "o", "-", "output file, - for stdout")
	game := fs.String("game", "", "limit to one game type")
	start := fs.String("start", "", "first day, YYYY-MM-DD")
	end := fs.String("end", "", "last day, YYYY-MM-DD")
	_ = fs.Parse(args)

	now := time.Now()
	filter := report.GlobalFilter{GameType: models.GameType(*game)}
	var err error
	if filter.StartDate, err = parseDay(*start, false); err != nil {
		return err
	}
	if filter.EndDate, err = parseDay(*end, true); err != nil {
		return err
	}

	stats, err := a.reports.GlobalStats(ctx, now, filter)
	if err != nil {
		return err
	}

	switch *format {
	case "json":
		return writeOutput(*output, func(w io.Writer) error { return writeJSON(w, stats) })
	case "xlsx":
		if *output == "-" {
			return fmt.Errorf("xlsx output needs --output FILE")
		}
		return writeOutput(*output, func(w io.Writer) error { return export.WriteGlobal(w, stats, now) })
	default:
		return fmt.Errorf("unknown format %q", *format)
	}
}

func (a *app) errors(ctx context.Context, args []string) error {
	fs := pflag.NewFlagSet("errors", pflag.ExitOnError)
	output := fs.StringP("output", "o", "-", "output file, - for stdout")
	student := fs.String("student", "", "analyze one student")
	game := fs.String("game", "", "limit to one game type")
	start := fs.String("start", "", "first day, YYYY-MM-DD")
	end := fs.String("end", "", "last day, YYYY-MM-DD")
	limit := fs.Int("limit", 0, "maximum patterns to read, 0 for the default")
	_ = fs.Parse(args)

	filter := report.ErrorFilter{
		GameType:  models.GameType(*game),
		StudentID: *student,
		Limit:     *limit,
	}
	var err error
	if filter.StartDate, err = parseDay(*start, false); err != nil {
		return err
	}
	if filter.EndDate, err = parseDay(*end, true); err != nil {
		return err
	}

	analysis, err := a.reports.AnalyzeErrors(ctx, time.Now(), filter)
	if err != nil {
		return err
	}
	if analysis.Skipped > 0 {
		a.logger.Warn("malformed error data skipped", "count", analysis.Skipped)
	}
	return writeOutput(*output, func(w io.Writer) error { return writeJSON(w, analysis) })
}

func (a *app) digest(ctx context.Context, args []string) error {
	fs := pflag.NewFlagSet("digest", pflag.ExitOnError)
	dryRun := fs.Bool("dry-run", false, "print the digest instead of sending it")
	_ = fs.Parse(args)

	email, err := service.NewEmailService(ctx, a.cfg.AWSRegion, a.cfg.SESFromEmail, a.cfg.SESFromName, a.logger)
	if err != nil {
		return err
	}
	digests := service.NewDigestService(a.reports, a.users, email, a.cfg.AppBaseURL, a.logger)

	if *dryRun {
		d, err := digests.Build(ctx, time.Now())
		if err != nil {
			return err
		}
		subject, _, text, err := d.Render()
		if err != nil {
			return err
		}
		fmt.Printf("Subject: %s\n\n%s", subject, text)
		return nil
	}

	sent, err := digests.Send(ctx, time.Now())
	a.logger.Info("digest finished", "sent", sent)
	return err
}

func (a *app) exportBackup(ctx context.Context, args []string) error {
	fs := pflag.NewFlagSet("export", pflag.ExitOnError)
	output := fs.StringP("output", "o", "", "output file (default: backup_YYYYMMDD_HHMMSS.json)")
	_ = fs.Parse(args)

	if *output == "" {
		*output = fmt.Sprintf("backup_%s.json", time.Now().Format("20060102_150405"))
	}
	if dir := filepath.Dir(*output); dir != "." && dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("failed to create output directory: %w", err)
		}
	}

	backups := service.NewBackupService(a.db, a.logger)
	return writeOutput(*output, func(w io.Writer) error {
		_, err := backups.Export(ctx, w)
		return err
	})
}

func (a *app) importBackup(ctx context.Context, args []string) error {
	fs := pflag.NewFlagSet("import", pflag.ExitOnError)
	input := fs.StringP("input", "i", "", "backup file (required)")
	clearData := fs.Bool("clear", false, "delete existing data before import (destructive)")
	yes := fs.BoolP("yes", "y", false, "skip the confirmation prompt for --clear")
	_ = fs.Parse(args)

	if *input == "" {
		fs.PrintDefaults()
		return fmt.Errorf("--input is required")
	}
	f, err := os.Open(*input)
	if err != nil {
		return fmt.Errorf("failed to open backup: %w", err)
	}
	defer f.Close()

	if *clearData && !*yes {
		fmt.Print("WARNING: This will delete all existing data. Type 'yes' to confirm: ")
		answer, _ := bufio.NewReader(os.Stdin).ReadString('\n')
		if strings.TrimSpace(answer) != "yes" {
			a.logger.Info("import cancelled")
			return nil
		}
	}

	_, err = service.NewBackupService(a.db, a.logger).Import(ctx, f, *clearData)
	return err
}

// parseDay reads a YYYY-MM-DD day in local time. With endOfDay set the
// result is the last instant of that day.
func parseDay(value string, endOfDay bool) (*time.Time, error) {
	if value == "" {
		return nil, nil
	}
	t, err := time.ParseInLocation(time.DateOnly, value, time.Local)
	if err != nil {
		return nil, fmt.Errorf("invalid date %q: want YYYY-MM-DD", value)
	}
	if endOfDay {
		t = t.AddDate(0, 0, 1).Add(-time.Nanosecond)
	}
	return &t, nil
}

func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

// writeOutput runs write against stdout or a freshly created file
func writeOutput(path string, write func(io.Writer) error) error {
	if path == "-" {
		return write(os.Stdout)
	}

	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create %s: %w", path, err)
	}
	if err := write(f); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}

func printUsage() {
	fmt.Println("gamedash report tool")
	fmt.Println()
	fmt.Println("Usage:")
	fmt.Println("  reportctl global [--format json|xlsx] [-o FILE] [--game G] [--start D] [--end D]")
	fmt.Println("  reportctl errors [--student ID] [--game G] [--start D] [--end D] [--limit N] [-o FILE]")
	fmt.Println("  reportctl digest [--dry-run]")
	fmt.Println("  reportctl export [-o FILE]")
	fmt.Println("  reportctl import -i FILE [--clear] [-y]")
	fmt.Println()
	fmt.Println("Environment Variables:")
	fmt.Println("  DB_TYPE          Database type: sqlite, postgres, or mysql (default: sqlite)")
	fmt.Println("  DB_PATH          SQLite database path (default: ./gamedash.db)")
	fmt.Println("  DATABASE_URL     PostgreSQL or MySQL connection URL")
	fmt.Println("  SES_FROM_EMAIL   Sender address; the digest is skipped when unset")
}
