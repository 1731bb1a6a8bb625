package bootstrap

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"path/filepath"
	"strconv"
	"strings"
	"syscall"

	"github.com/k-shtanenko/weather-app/weather-lookup/internal/application"
	"github.com/k-shtanenko/weather-app/weather-lookup/internal/config"
	"github.com/k-shtanenko/weather-app/weather-lookup/internal/domain/entities"
	"github.com/k-shtanenko/weather-app/weather-lookup/internal/domain/ports"
	"github.com/k-shtanenko/weather-app/weather-lookup/internal/infrastructure/api"
	"github.com/k-shtanenko/weather-app/weather-lookup/internal/infrastructure/console"
	"github.com/k-shtanenko/weather-app/weather-lookup/internal/infrastructure/excel"
	weatherhttp "github.com/k-shtanenko/weather-app/weather-lookup/internal/infrastructure/http"
	"github.com/k-shtanenko/weather-app/weather-lookup/internal/infrastructure/messaging"
	"github.com/k-shtanenko/weather-app/weather-lookup/internal/infrastructure/scheduler"
	"github.com/k-shtanenko/weather-app/weather-lookup/internal/infrastructure/storage"
	"github.com/k-shtanenko/weather-app/weather-lookup/internal/pkg/logger"
	"github.com/spf13/pflag"
)

// Version is overridden at build time with -ldflags "-X ...bootstrap.Version=...".
var Version = "dev"

const (
	exitOK      = 0
	exitFailure = 1
	exitUsage   = 2
)

const usageText = `Usage: weather-lookup [flags] <command> [args]

Commands:
  lookup <city>        current conditions, 5-day forecast and advisory for a city
  coords <lat> <lon>   current conditions at a coordinate pair
  here                 current conditions at the location of this machine
  history              recent searches
  export <city>        write an XLSX report for a city
  check                verify that configured dependencies are reachable
  serve                run the HTTP API

Flags:
`

type App struct {
	config *config.Config
	logger logger.Logger
	stdout io.Writer

	provider  *weatherhttp.OpenWeatherClient
	locator   *weatherhttp.IPAPILocator
	storage   ports.HistoryStorage
	history   *application.History
	publisher ports.EventPublisher
	workflow  *application.Workflow
	reports   *application.ReportService
	refresher *application.Refresher
	apiServer *api.APIServer
}

// Run parses args, executes one command and returns the process exit code.
func Run(args []string, stdout, stderr io.Writer) int {
	flags := pflag.NewFlagSet("weather-lookup", pflag.ContinueOnError)
	flags.SetOutput(stderr)
	config.RegisterFlags(flags)
	output := flags.StringP("output", "o", ".", "directory for exported reports")
	flags.Usage = func() {
		fmt.Fprint(stderr, usageText)
		flags.PrintDefaults()
	}

	if err := flags.Parse(args); err != nil {
		if errors.Is(err, pflag.ErrHelp) {
			return exitOK
		}
		return exitUsage
	}

	rest := flags.Args()
	if len(rest) == 0 {
		flags.Usage()
		return exitUsage
	}

	cfg, err := config.Load(flags)
	if err != nil {
		fmt.Fprintf(stderr, "Failed to load config: %v\n", err)
		return exitFailure
	}

	appLogger := logger.New(cfg.App.LogLevel, cfg.App.Env).WithField("service", cfg.App.Name)
	app := &App{config: cfg, logger: appLogger, stdout: stdout}
	defer app.shutdownComponents(context.Background())

	ctx, cancel := app.signalContext()
	defer cancel()

	command, params := rest[0], rest[1:]
	switch command {
	case "lookup":
		if len(params) == 0 {
			fmt.Fprintln(stderr, "lookup requires a city name")
			return exitUsage
		}
		err = app.runLookup(ctx, strings.Join(params, " "))
	case "coords":
		coords, perr := parseCoordinates(params)
		if perr != nil {
			fmt.Fprintln(stderr, perr)
			return exitUsage
		}
		err = app.runCoordinates(ctx, coords)
	case "here":
		err = app.runHere(ctx)
	case "history":
		err = app.runHistory(ctx)
	case "export":
		if len(params) == 0 {
			fmt.Fprintln(stderr, "export requires a city name")
			return exitUsage
		}
		err = app.runExport(ctx, strings.Join(params, " "), *output)
	case "check":
		err = app.runCheck(ctx)
	case "serve":
		err = app.runServe(ctx)
	default:
		fmt.Fprintf(stderr, "unknown command %q\n\n", command)
		flags.Usage()
		return exitUsage
	}

	if err != nil {
		appLogger.Debugf("Command %s failed: %v", command, err)
		fmt.Fprintf(stderr, "Error: %s\n", entities.UserMessage(err))
		return exitFailure
	}
	return exitOK
}

func parseCoordinates(params []string) (entities.Coordinates, error) {
	if len(params) != 2 {
		return entities.Coordinates{}, errors.New("coords requires <lat> <lon>")
	}
	lat, err := strconv.ParseFloat(params[0], 64)
	if err != nil {
		return entities.Coordinates{}, fmt.Errorf("invalid latitude %q", params[0])
	}
	lon, err := strconv.ParseFloat(params[1], 64)
	if err != nil {
		return entities.Coordinates{}, fmt.Errorf("invalid longitude %q", params[1])
	}
	return entities.Coordinates{Latitude: lat, Longitude: lon}, nil
}

func (a *App) signalContext() (context.Context, context.CancelFunc) {
	ctx, cancel := context.WithCancel(context.Background())

	signalChan := make(chan os.Signal, 1)
	signal.Notify(signalChan, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		select {
		case sig := <-signalChan:
			a.logger.Infof("Received signal: %v. Shutting down...", sig)
			cancel()
		case <-ctx.Done():
		}
	}()

	return ctx, func() {
		signal.Stop(signalChan)
		cancel()
	}
}

func (a *App) runLookup(ctx context.Context, city string) error {
	if err := a.initWorkflow(ctx, console.NewPresenter(a.stdout)); err != nil {
		return err
	}
	_, err := a.workflow.LookupByCity(ctx, city)
	return err
}

func (a *App) runCoordinates(ctx context.Context, coords entities.Coordinates) error {
	if err := a.initWorkflow(ctx, console.NewPresenter(a.stdout)); err != nil {
		return err
	}
	_, err := a.workflow.LookupByCoordinates(ctx, coords)
	return err
}

func (a *App) runHere(ctx context.Context) error {
	if err := a.initWorkflow(ctx, console.NewPresenter(a.stdout)); err != nil {
		return err
	}
	_, err := a.workflow.LookupCurrentLocation(ctx)
	return err
}

func (a *App) runHistory(ctx context.Context) error {
	if err := a.initHistory(ctx); err != nil {
		return err
	}
	console.NewPresenter(a.stdout).ShowHistory(a.history.Current())
	return nil
}

func (a *App) runExport(ctx context.Context, city, dir string) error {
	if err := a.initWorkflow(ctx, console.NewLogPresenter(a.logger)); err != nil {
		return err
	}

	data, name, err := a.reports.Export(ctx, city)
	if err != nil {
		return err
	}

	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("failed to create output directory: %w", err)
	}
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("failed to write report: %w", err)
	}

	fmt.Fprintf(a.stdout, "Report saved to %s\n", path)
	return nil
}

func (a *App) runCheck(ctx context.Context) error {
	if err := a.initWorkflow(ctx, console.NewLogPresenter(a.logger)); err != nil {
		return err
	}

	checker := NewHealthChecker(
		a.dependencies(),
		a.config.HealthCheck.Timeout,
		a.config.HealthCheck.RetryInterval,
		a.config.HealthCheck.MaxRetries,
		a.logger,
	)
	if err := checker.CheckAll(ctx); err != nil {
		return err
	}

	fmt.Fprintln(a.stdout, "All dependencies are healthy")
	return nil
}

func (a *App) runServe(ctx context.Context) error {
	if err := a.initWorkflow(ctx, console.NewLogPresenter(a.logger)); err != nil {
		return err
	}

	checks := make(map[string]api.HealthChecker)
	for _, dep := range a.dependencies() {
		checks[dep.Name] = healthFunc(dep.Check)
	}

	a.logger.Info("Initializing API server...")
	middleware := api.NewMiddleware(a.config.API.RateLimit, a.config.API.RateWindow, a.logger)
	handler := api.NewAPIHandler(a.workflow, a.reports, checks, Version, a.logger)
	a.apiServer = api.NewAPIServer(handler, middleware, a.config.API, a.config.App.Env, a.logger)

	if a.config.Scheduler.RefreshInterval > 0 {
		a.logger.Info("Initializing scheduler...")
		cron := scheduler.NewCronScheduler(a.config.Scheduler.Timeout, a.logger)
		a.refresher = application.NewRefresher(a.workflow, cron, a.logger)
		if err := a.refresher.Start(ctx, a.config.Scheduler.RefreshInterval); err != nil {
			return err
		}
	}

	if err := a.apiServer.Start(); err != nil {
		return fmt.Errorf("failed to start API server: %w", err)
	}

	<-ctx.Done()
	return nil
}

type healthFunc func(context.Context) error

func (f healthFunc) HealthCheck(ctx context.Context) error {
	return f(ctx)
}

func (a *App) dependencies() []Dependency {
	deps := []Dependency{
		{Name: "openweather", Check: a.provider.HealthCheck},
		{Name: "history", Check: a.storage.HealthCheck},
	}
	if a.config.Kafka.Enabled {
		deps = append(deps, Dependency{Name: "kafka", Check: a.publisher.HealthCheck})
	}
	return deps
}

func (a *App) initHistory(ctx context.Context) error {
	if a.history != nil {
		return nil
	}

	switch a.config.History.Backend {
	case "redis":
		a.logger.Info("Initializing Redis history storage...")
		st, err := storage.NewRedisHistoryStorage(ctx, storage.RedisOptions{
			Host:     a.config.Redis.Host,
			Port:     a.config.Redis.Port,
			Password: a.config.Redis.Password,
			DB:       a.config.Redis.DB,
			Key:      a.config.Redis.Key,
		}, a.logger)
		if err != nil {
			return fmt.Errorf("failed to create redis history storage: %w", err)
		}
		a.storage = st
	case "minio":
		a.logger.Info("Initializing Minio history storage...")
		st, err := storage.NewMinioHistoryStorage(ctx, storage.MinioOptions{
			Endpoint:  a.config.Minio.Endpoint,
			AccessKey: a.config.Minio.AccessKey,
			SecretKey: a.config.Minio.SecretKey,
			UseSSL:    a.config.Minio.UseSSL,
			Bucket:    a.config.Minio.Bucket,
			Object:    a.config.Minio.Object,
		}, a.logger)
		if err != nil {
			return fmt.Errorf("failed to create minio history storage: %w", err)
		}
		a.storage = st
	default:
		a.storage = storage.NewJSONFileStorage(a.config.History.File, a.logger)
	}

	a.history = application.NewHistory(ctx, a.storage, a.logger)
	return nil
}

func (a *App) initPublisher() error {
	if !a.config.Kafka.Enabled {
		a.publisher = messaging.NoopPublisher{}
		return nil
	}

	a.logger.Info("Initializing Kafka publisher...")
	publisher, err := messaging.NewKafkaPublisher(messaging.KafkaOptions{
		Broker:       a.config.Kafka.Broker,
		Topic:        a.config.Kafka.Topic,
		RequiredAcks: a.config.Kafka.RequiredAcks,
		MaxRetries:   a.config.Kafka.MaxRetries,
	}, a.logger)
	if err != nil {
		return fmt.Errorf("failed to create Kafka publisher: %w", err)
	}
	a.publisher = publisher
	return nil
}

func (a *App) initWorkflow(ctx context.Context, presenter application.Presenter) error {
	if err := a.config.RequireAPIKey(); err != nil {
		return err
	}
	if err := a.initHistory(ctx); err != nil {
		return err
	}
	if err := a.initPublisher(); err != nil {
		return err
	}

	a.provider = weatherhttp.NewOpenWeatherClient(weatherhttp.ClientOptions{
		BaseURL:           a.config.OpenWeather.BaseURL,
		APIKey:            a.config.OpenWeather.APIKey,
		Lang:              a.config.OpenWeather.Lang,
		Timeout:           a.config.OpenWeather.Timeout,
		RequestsPerSecond: a.config.OpenWeather.RequestsPerSecond,
		Burst:             a.config.OpenWeather.Burst,
		BreakerFailures:   a.config.OpenWeather.BreakerFailures,
		BreakerTimeout:    a.config.OpenWeather.BreakerTimeout,
	}, a.logger)
	a.locator = weatherhttp.NewIPAPILocator(a.config.Geolocation.URL, a.config.Geolocation.Timeout, a.logger)

	a.workflow = application.NewWorkflow(
		a.provider,
		a.locator,
		a.history,
		presenter,
		a.publisher,
		a.logger,
		application.WorkflowOptions{
			Timeout:                  a.config.Lookup.Timeout,
			HighTemperatureThreshold: a.config.Alerts.HighTemperatureThreshold,
		},
	)
	a.reports = application.NewReportService(a.workflow, excel.NewReportGenerator(a.logger), a.logger)
	return nil
}

func (a *App) shutdownComponents(ctx context.Context) {
	if a.apiServer != nil {
		if err := a.apiServer.Stop(ctx); err != nil {
			a.logger.Errorf("Failed to stop API server: %v", err)
		}
	}

	if a.refresher != nil {
		a.logger.Info("Stopping scheduler...")
		a.refresher.Stop()
	}

	if a.publisher != nil {
		if err := a.publisher.Close(); err != nil {
			a.logger.Errorf("Failed to close publisher: %v", err)
		}
	}

	if closer, ok := a.storage.(io.Closer); ok {
		if err := closer.Close(); err != nil {
			a.logger.Errorf("Failed to close history storage: %v", err)
		}
	}
}
