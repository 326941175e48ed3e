package main

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"net"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"runtime"
	"strings"
	"syscall"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/cwkr/personsd/internal/background"
	"github.com/cwkr/personsd/internal/fileutil"
	"github.com/cwkr/personsd/internal/persons"
	"github.com/cwkr/personsd/internal/server"
	"github.com/cwkr/personsd/middleware"
	"github.com/cwkr/personsd/settings"
	"github.com/hjson/hjson-go/v4"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

var version = "v0.1.x"

func main() {
	var (
		serverSettings   *settings.Server
		personStore      persons.Store
		err              error
		configFilename   string
		settingsFilename string
		setStoreURI      string
		saveSettings     bool
		printVersion     bool
		prettyLog        bool
		debugLog         bool
		setPort          int
	)

	flag.StringVar(&configFilename, "config", "", "config file name")
	flag.StringVar(&setStoreURI, "store-uri", "", "set person store uri")
	flag.BoolVar(&saveSettings, "save", false, "save config and exit")
	flag.BoolVar(&printVersion, "version", false, "print version and exit")
	flag.BoolVar(&prettyLog, "pretty", false, "human readable console log")
	flag.BoolVar(&debugLog, "debug", false, "log store statements")
	flag.IntVar(&setPort, "port", 8080, "http server port")
	flag.Parse()

	if printVersion {
		fmt.Println(version)
		os.Exit(0)
	}

	zerolog.SetGlobalLevel(zerolog.InfoLevel)
	if debugLog {
		zerolog.SetGlobalLevel(zerolog.DebugLevel)
	}
	if prettyLog {
		log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stdout, TimeFormat: time.RFC3339})
	} else {
		log.Logger = zerolog.New(os.Stdout).With().Timestamp().Logger()
	}

	log.Info().Msgf("Starting Persons Server %s built with %s", version, runtime.Version())

	// Set defaults
	serverSettings = settings.NewDefault(setPort)

	settingsFilename = fileutil.LocateSettingsFilename(configFilename)

	if fileutil.FileExists(settingsFilename) {
		log.Info().Msgf("Loading settings from %s", settingsFilename)
		if bytes, err := os.ReadFile(settingsFilename); err == nil {
			options := hjson.DefaultDecoderOptions()
			options.DisallowUnknownFields = true
			options.DisallowDuplicateKeys = true
			if err := hjson.UnmarshalWithOptions(bytes, serverSettings, options); err != nil {
				log.Fatal().Err(err).Msg("!!! malformed settings")
			}
		} else {
			log.Fatal().Err(err).Msg("!!! reading settings failed")
		}
	}

	if serverSettings.PersonStore == nil {
		serverSettings.PersonStore = &persons.StoreSettings{}
	}
	if err := env.ParseWithOptions(serverSettings, env.Options{Prefix: "PERSONS_"}); err != nil {
		log.Fatal().Err(err).Msg("!!! malformed environment")
	}

	if setStoreURI != "" {
		serverSettings.PersonStore.URI = setStoreURI
	}

	if setPort != 8080 {
		serverSettings.Port = setPort
	}

	if saveSettings {
		log.Info().Msgf("Saving settings to %s", settingsFilename)
		var configBytes []byte
		if filepath.Ext(strings.ToLower(settingsFilename)) == ".hjson" {
			options := hjson.DefaultOptions()
			options.QuoteAlways = true
			options.EmitRootBraces = false
			options.IndentBy = "  "
			configBytes, _ = hjson.MarshalWithOptions(serverSettings, options)
		} else {
			configBytes, _ = json.MarshalIndent(serverSettings, "", "  ")
		}
		if err := os.WriteFile(settingsFilename, configBytes, 0644); err != nil {
			log.Fatal().Err(err).Msg("!!! saving settings failed")
		}
		os.Exit(0)
	}

	if serverSettings.TickInterval <= 0 {
		log.Fatal().Msg("!!! tick_interval must be positive")
	}

	var connectCtx, cancelConnect = context.WithTimeout(context.Background(), 30*time.Second)
	personStore, err = persons.NewStore(connectCtx, serverSettings.Persons, serverSettings.PersonStore)
	cancelConnect()
	if err != nil {
		log.Fatal().Err(err).Msg("!!! person store unavailable")
	}
	defer personStore.Close()

	var runner = background.NewRunner(serverSettings.WriteTimeout.Std())
	var personService = persons.NewService(personStore, runner)

	var router = server.NewRouter(server.Routes(personService, serverSettings.TickInterval.Std(), version))

	var baseCtx, cancelBase = context.WithCancel(context.Background())
	defer cancelBase()

	var httpServer = &http.Server{
		Addr:        fmt.Sprintf(":%d", serverSettings.Port),
		Handler:     middleware.AccessLog(router),
		BaseContext: func(net.Listener) context.Context { return baseCtx },
	}
	// open SSE streams never go idle, end them when shutdown starts
	httpServer.RegisterOnShutdown(cancelBase)

	var serveErr = make(chan error, 1)
	go func() {
		log.Info().Msgf("Listening on http://localhost:%d/", serverSettings.Port)
		serveErr <- httpServer.ListenAndServe()
	}()

	var exit = make(chan os.Signal, 1)
	signal.Notify(exit, syscall.SIGINT, syscall.SIGTERM)

	select {
	case sig := <-exit:
		log.Info().Str("signal", sig.String()).Msg("Shutting down")
	case err := <-serveErr:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error().Err(err).Msg("!!! server listen failed")
		}
	}

	var shutdownCtx, cancel = context.WithTimeout(context.Background(), serverSettings.ShutdownTimeout.Std())
	defer cancel()

	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		log.Warn().Err(err).Msg("Graceful shutdown incomplete, closing connections")
		httpServer.Close()
	}
	if err := personService.Wait(shutdownCtx); err != nil {
		log.Warn().Err(err).Int64("in_flight", runner.InFlight()).Msg("Abandoning detached writes")
	}
}
