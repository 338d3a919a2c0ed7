package main

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi"
	"github.com/golang-migrate/migrate/v4"
	migratep "github.com/golang-migrate/migrate/v4/database/postgres"
	_ "github.com/golang-migrate/migrate/v4/source/file"
	"github.com/jessevdk/go-flags"
	_ "github.com/lib/pq"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"

	"github.com/Decentr-net/logrus/sentry"

	"github.com/monadsocial/agora/internal/autosave"
	"github.com/monadsocial/agora/internal/health"
	"github.com/monadsocial/agora/internal/server"
	"github.com/monadsocial/agora/internal/service"
	"github.com/monadsocial/agora/internal/service/impl"
	"github.com/monadsocial/agora/internal/storage"
	"github.com/monadsocial/agora/internal/storage/file"
	"github.com/monadsocial/agora/internal/storage/postgres"
	"github.com/monadsocial/agora/internal/storage/redis"
)

// nolint:lll,gochecknoglobals
var opts = struct {
	Host           string        `long:"http.host" env:"HTTP_HOST" default:"0.0.0.0" description:"IP to listen on"`
	Port           int           `long:"http.port" env:"HTTP_PORT" default:"8080" description:"port to listen on for insecure connections"`
	RequestTimeout time.Duration `long:"http.request-timeout" env:"HTTP_REQUEST_TIMEOUT" default:"45s" description:"request processing timeout"`

	Storage string `long:"storage" env:"STORAGE" default:"file" description:"snapshot storage backend" choice:"file" choice:"postgres" choice:"redis"`
	DataDir string `long:"data.dir" env:"DATA_DIR" default:"data" description:"directory for snapshot files"`

	Postgres                   string `long:"postgres" env:"POSTGRES" default:"host=localhost port=5432 user=postgres password=root sslmode=disable" description:"postgres dsn"`
	PostgresMaxOpenConnections int    `long:"postgres.max_open_connections" env:"POSTGRES_MAX_OPEN_CONNECTIONS" default:"0" description:"postgres maximal open connections count, 0 means unlimited"`
	PostgresMaxIdleConnections int    `long:"postgres.max_idle_connections" env:"POSTGRES_MAX_IDLE_CONNECTIONS" default:"5" description:"postgres maximal idle connections count"`
	PostgresMigrations         string `long:"postgres.migrations" env:"POSTGRES_MIGRATIONS" default:"scripts/migrations/postgres" description:"postgres migrations directory"`

	Redis       string `long:"redis" env:"REDIS" default:"localhost:6379" description:"redis address or redis:// url"`
	RedisPrefix string `long:"redis.prefix" env:"REDIS_PREFIX" default:"agora:snapshot:" description:"prefix of snapshot keys"`

	AutosaveInterval     time.Duration `long:"autosave.interval" env:"AUTOSAVE_INTERVAL" default:"30s" description:"interval between full flushes"`
	ShutdownFlushTimeout time.Duration `long:"shutdown.flush-timeout" env:"SHUTDOWN_FLUSH_TIMEOUT" default:"10s" description:"timeout of the final flush on exit"`

	LogLevel  string `long:"log.level" env:"LOG_LEVEL" default:"info" description:"Log level" choice:"debug" choice:"info" choice:"warning" choice:"error"`
	SentryDSN string `long:"sentry.dsn" env:"SENTRY_DSN" description:"sentry dsn"`
}{}

var errTerminated = errors.New("terminated")

func main() {
	parser := flags.NewParser(&opts, flags.Default)
	parser.ShortDescription = "Agora"
	parser.LongDescription = "Agora content store"

	_, err := parser.Parse()

	if err != nil {
		if flagsErr, ok := err.(*flags.Error); ok && flagsErr.Type == flags.ErrHelp {
			os.Exit(0)
		}
		logrus.WithError(err).Fatal("error occurred while parsing flags")
	}

	lvl, _ := logrus.ParseLevel(opts.LogLevel) // err will always be nil
	logrus.SetLevel(lvl)

	logrus.Infof("%+v", opts)

	if opts.SentryDSN != "" {
		hook, err := sentry.NewHook(sentry.Options{
			Dsn:              opts.SentryDSN,
			AttachStacktrace: true,
			Release:          health.GetVersion(),
			ServerName:       "agora",
		}, logrus.PanicLevel, logrus.FatalLevel, logrus.ErrorLevel)

		if err != nil {
			logrus.WithError(err).Fatal("failed to init sentry")
		}

		logrus.AddHook(hook)
	} else {
		logrus.Info("empty sentry dsn")
		logrus.Warn("skip sentry initialization")
	}

	st := mustGetStorage()

	srv := impl.New(st)
	if err := srv.Restore(context.Background()); err != nil {
		// an unreadable snapshot would be overwritten by the first autosave
		logrus.WithError(err).Fatal("failed to restore collections")
	}

	saver := autosave.New(srv, opts.AutosaveInterval, opts.ShutdownFlushTimeout)

	r := chi.NewMux()
	r.Get("/health", health.Handler(
		5*time.Second,
		health.SubjectPinger(opts.Storage, st.Ping),
		saver,
		health.MetaPinger("collections", collectionsMeta(srv)),
	))
	r.Handle("/metrics", promhttp.Handler())
	r.Group(func(r chi.Router) {
		server.SetupRouter(srv, r, opts.RequestTimeout)
	})

	httpSrv := http.Server{
		Addr:    fmt.Sprintf("%s:%d", opts.Host, opts.Port),
		Handler: r,
	}

	ctx, cancel := context.WithCancel(context.Background())

	gr, gctx := errgroup.WithContext(ctx)
	gr.Go(func() error {
		return saver.Run(gctx)
	})
	gr.Go(func() error {
		if err := httpSrv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	gr.Go(func() error {
		sigs := make(chan os.Signal, 1)
		signal.Notify(sigs, syscall.SIGINT, syscall.SIGTERM, syscall.SIGQUIT)

		select {
		case s := <-sigs:
			logrus.Infof("terminating by %s signal", s)
		case <-gctx.Done():
			logrus.Info("terminating after failure")
		}

		sctx, scancel := context.WithTimeout(context.Background(), opts.RequestTimeout)
		defer scancel()
		if err := httpSrv.Shutdown(sctx); err != nil {
			logrus.WithError(err).Error("failed to shutdown http server gracefully")
		}

		// stops autosave which does the final flush
		cancel()

		return errTerminated
	})

	logrus.Info("service started")

	if err := gr.Wait(); err != nil && !errors.Is(err, errTerminated) {
		logrus.WithError(err).Fatal("service unexpectedly closed")
	}

	logrus.Info("service stopped")
}

func collectionsMeta(s service.Service) func(ctx context.Context) (interface{}, error) {
	return func(ctx context.Context) (interface{}, error) {
		stats, err := s.Stats(ctx)
		if err != nil {
			return nil, err
		}

		return map[string]int{
			"posts":    stats.TotalPosts,
			"profiles": stats.TotalProfiles,
			"comments": stats.TotalComments,
			"polls":    stats.TotalPolls,
		}, nil
	}
}

func mustGetStorage() storage.Storage {
	switch opts.Storage {
	case "postgres":
		return postgres.New(mustGetDB())
	case "redis":
		c := redis.NewClient(opts.Redis)
		if err := c.Ping(context.Background()).Err(); err != nil {
			logrus.WithError(err).Fatal("failed to ping redis")
		}
		return redis.New(c, opts.RedisPrefix)
	default:
		s, err := file.New(opts.DataDir)
		if err != nil {
			logrus.WithError(err).Fatal("failed to create file storage")
		}
		return s
	}
}

func mustGetDB() *sql.DB {
	db, err := sql.Open("postgres", opts.Postgres)
	if err != nil {
		logrus.WithError(err).Fatal("failed to create postgres connection")
	}
	db.SetMaxOpenConns(opts.PostgresMaxOpenConnections)
	db.SetMaxIdleConns(opts.PostgresMaxIdleConnections)

	if err := db.PingContext(context.Background()); err != nil {
		logrus.WithError(err).Fatal("failed to ping postgres")
	}

	driver, err := migratep.WithInstance(db, &migratep.Config{})
	if err != nil {
		logrus.WithError(err).Fatal("failed to create database migrate driver")
	}

	migrator, err := migrate.NewWithDatabaseInstance(fmt.Sprintf("file://%s", opts.PostgresMigrations), "postgres", driver)
	if err != nil {
		logrus.WithError(err).Fatal("failed to create migrator")
	}

	switch v, d, err := migrator.Version(); err {
	case nil:
		logrus.Infof("database version %d with dirty state %t", v, d)
	case migrate.ErrNilVersion:
		logrus.Info("database version: nil")
	default:
		logrus.WithError(err).Fatal("failed to get version")
	}

	switch err := migrator.Up(); err {
	case nil:
		logrus.Info("database was migrated")
	case migrate.ErrNoChange:
		logrus.Info("database is up-to-date")
	default:
		logrus.WithError(err).Fatal("failed to migrate db")
	}

	return db
}
