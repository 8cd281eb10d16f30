package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/alexedwards/scs/sqlite3store"
	"github.com/alexedwards/scs/v2"
	"github.com/tmduggan/Gordon-sub000/internal/catalog"
	"github.com/tmduggan/Gordon-sub000/internal/envstruct"
	"github.com/tmduggan/Gordon-sub000/internal/errors"
	"github.com/tmduggan/Gordon-sub000/internal/flightrecorder"
	"github.com/tmduggan/Gordon-sub000/internal/logging"
	"github.com/tmduggan/Gordon-sub000/internal/pprofserver"
	"github.com/tmduggan/Gordon-sub000/internal/profile"
	"github.com/tmduggan/Gordon-sub000/internal/score"
	"github.com/tmduggan/Gordon-sub000/internal/sqlite"
	"github.com/tmduggan/Gordon-sub000/internal/suggestion"
)

type application struct {
	logger            *slog.Logger
	sessionManager    *scs.SessionManager
	flightRecorder    *flightrecorder.Service
	catalogService    *catalog.Service
	scoreService      *score.Service
	profileService    *profile.Service
	suggestionService *suggestion.Service
}

type config struct {
	// Addr is the address to listen on. It's possible to choose the address dynamically with localhost:0.
	Addr string `env:"GORDON_ADDR" envDefault:"localhost:8080"`
	// SqliteURL is the URL to the SQLite database. You can use ":memory:" for an ethereal in-memory database.
	SqliteURL string `env:"GORDON_SQLITE_URL" envDefault:"./gordon.sqlite3"`
	// PProfAddr is the optional address to listen on for the pprof server.
	PProfAddr string `env:"GORDON_PPROF_ADDR" envDefault:""`
	// TracesDir enables the flight recorder and stores slow request traces in the given directory.
	TracesDir string `env:"GORDON_TRACES_DIR" envDefault:""`
}

func run(ctx context.Context, logger *slog.Logger, lookupEnv func(string) (string, bool)) error {
	var (
		cancel context.CancelFunc
		err    error
	)

	ctx, cancel = signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer cancel()

	var cfg config
	if err = envstruct.Populate(&cfg, lookupEnv); err != nil {
		return errors.Wrap(err, "populate config")
	}

	if cfg.PProfAddr != "" {
		pprofserver.Launch(ctx, cfg.PProfAddr, logger)
	}

	db, err := sqlite.NewDatabase(ctx, cfg.SqliteURL, logger)
	if err != nil {
		return errors.Wrap(err, "open db", slog.String("url", cfg.SqliteURL))
	}
	logger.LogAttrs(ctx, slog.LevelInfo, "connected to db")

	app := newApplication(db, logger)

	if cfg.TracesDir != "" {
		recorder, recorderErr := flightrecorder.New(logger, cfg.TracesDir)
		if recorderErr != nil {
			return errors.Wrap(recorderErr, "create flight recorder", slog.String("dir", cfg.TracesDir))
		}
		if err = recorder.Start(ctx); err != nil {
			return errors.Wrap(err, "start flight recorder")
		}
		defer recorder.Stop(ctx)
		app.flightRecorder = recorder
	}

	if err = app.configureAndStartServer(ctx, cfg.Addr); err != nil {
		return errors.Wrap(err, "start server")
	}
	return nil
}

func newApplication(db *sqlite.Database, logger *slog.Logger) *application {
	catalogService := catalog.NewService(db, logger)
	scoreService := score.NewService(db, catalogService, logger)
	profileService := profile.NewService(db, logger)
	suggestionService := suggestion.NewService(db, catalogService, scoreService, profileService, logger)

	return &application{
		logger:            logger,
		sessionManager:    initializeSessionManager(db),
		catalogService:    catalogService,
		scoreService:      scoreService,
		profileService:    profileService,
		suggestionService: suggestionService,
	}
}

func initializeSessionManager(db *sqlite.Database) *scs.SessionManager {
	sessionManager := scs.New()
	sessionManager.Store = sqlite3store.NewWithCleanupInterval(db.ReadWrite, 24*time.Hour) //nolint:mnd // day
	sessionManager.Lifetime = 12 * time.Hour                                               //nolint:mnd // half a day
	sessionManager.Cookie.Persist = true
	sessionManager.Cookie.Secure = true
	sessionManager.Cookie.HttpOnly = true
	sessionManager.Cookie.SameSite = http.SameSiteStrictMode
	return sessionManager
}

func main() {
	ctx := context.Background()
	loggerHandler := logging.NewContextHandler(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{
		AddSource:   false,
		Level:       slog.LevelDebug,
		ReplaceAttr: nil,
	}))
	logger := slog.New(loggerHandler)
	if err := run(ctx, logger, os.LookupEnv); err != nil {
		logger.LogAttrs(ctx, slog.LevelError, "failure starting application", errors.SlogError(err))
		os.Exit(1)
	}
}
