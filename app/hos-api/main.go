package main

import (
	"fmt"
	logger "log"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/ardanlabs/conf"
	"github.com/joho/godotenv"
	"github.com/nats-io/nats.go"
	"github.com/routehaul/hosplan/app/hos-api/webapi"
	"github.com/routehaul/hosplan/business/auth"
	"github.com/routehaul/hosplan/business/data/identity"
	"github.com/routehaul/hosplan/business/data/trips"
	"github.com/routehaul/hosplan/business/events"
	"github.com/routehaul/hosplan/business/hos"
	"github.com/routehaul/hosplan/business/routing"
	"github.com/routehaul/hosplan/foundation/database"
	"github.com/routehaul/hosplan/foundation/httpclient"
)

var build = "develop"

func main() {
	log := logger.New(os.Stdout, "HOS_API : ", logger.LstdFlags|logger.Lmicroseconds|logger.Lshortfile)
	if err := run(log); err != nil {
		log.Printf("main: error: %v", err)
		os.Exit(1)
	}
}

func run(log *logger.Logger) error {
	// .env is a local development convenience, absence is not an error
	_ = godotenv.Load()

	var cfg struct {
		conf.Version
		Args                   conf.Args
		HTTPListenAddr         string `conf:"default::8000"`
		DatabaseURL            string `conf:"required,noprint"`
		MaxOpenConns           int    `conf:"default:10"`
		AllowedOrigins         string `conf:"default:*"`
		AuthSigningKey         string `conf:"required,noprint"`
		AccessTokenTTLSeconds  int    `conf:"default:900"`
		RefreshTokenTTLSeconds int    `conf:"default:604800"`
		RequestDeadlineSeconds int    `conf:"default:30"`
		RouterAPIKey           string `conf:"noprint"`
		GeocoderURL            string `conf:"default:https://nominatim.openstreetmap.org"`
		RouterURL              string `conf:"default:https://api.openrouteservice.org"`
		RestStopURL            string `conf:"default:https://overpass-api.de/api/interpreter"`
		NatsURL                string
	}
	cfg.Version.SVN = build
	cfg.Version.Desc = "HOS compliant trip planning api"
	const prefix = ""
	if err := conf.Parse(os.Args[1:], prefix, &cfg); err != nil {
		switch err {
		case conf.ErrHelpWanted:
			usage, err := conf.Usage(prefix, &cfg)
			if err != nil {
				return fmt.Errorf("generating config usage: %w", err)
			}
			fmt.Println(usage)
			return nil
		case conf.ErrVersionWanted:
			version, err := conf.VersionString(prefix, &cfg)
			if err != nil {
				return fmt.Errorf("generating config version: %w", err)
			}
			fmt.Println(version)
			return nil
		}
		return fmt.Errorf("parsing config: %w", err)
	}

	// =========================================================================
	// App Starting

	log.Printf("main : Started : Application initializing : version %s", build)
	defer log.Println("main: Completed")

	out, err := conf.String(&cfg)
	if err != nil {
		return fmt.Errorf("generating config for output: %w", err)
	}
	log.Printf("main: Config :\n%v\n", out)

	// =========================================================================
	// Start Database

	log.Println("main: Initializing database support")

	db, err := database.Open(database.Config{
		URL:          cfg.DatabaseURL,
		MaxOpenConns: cfg.MaxOpenConns,
	})
	if err != nil {
		return fmt.Errorf("connecting to db: %w", err)
	}
	defer func() {
		log.Println("main: Database Stopping")
		if err := db.Close(); err != nil {
			log.Printf("main: error closing database: %v", err)
		}
	}()

	// =========================================================================
	// Routing adapters

	var geocoder routing.Geocoder
	var router routing.Router
	var locator hos.StopLocator
	if cfg.RouterAPIKey == "" {
		log.Println("main: no router api key configured, running with offline routing")
		geocoder = routing.OfflineGeocoder{}
		router = routing.OfflineRouter{}
		locator = routing.OfflineStopLocator{}
	} else {
		client := httpclient.New()
		geocoder = routing.NewNominatimGeocoder(client, cfg.GeocoderURL)
		router = routing.NewORSRouter(client, cfg.RouterURL, cfg.RouterAPIKey)
		locator = routing.NewOverpassLocator(client, cfg.RestStopURL)
	}

	// =========================================================================
	// Event publishing

	var destination events.Destination
	if cfg.NatsURL != "" {
		natsConn, err := nats.Connect(cfg.NatsURL)
		if err != nil {
			return fmt.Errorf("connecting to nats at %s: %w", cfg.NatsURL, err)
		}
		defer natsConn.Close()
		destination = events.NewNatsDestination(natsConn)
		log.Printf("main: publishing trip events to %s", cfg.NatsURL)
	} else {
		log.Println("main: no nats url configured, trip events disabled")
	}

	// =========================================================================
	// Start API Service

	tokens, err := auth.NewTokens(cfg.AuthSigningKey,
		time.Duration(cfg.AccessTokenTTLSeconds)*time.Second,
		time.Duration(cfg.RefreshTokenTTLSeconds)*time.Second)
	if err != nil {
		return fmt.Errorf("building token support: %w", err)
	}

	webConfig := webapi.Config{
		Log:            log,
		Planner:        hos.MakePlanner(hos.DefaultRules(), locator),
		Geocoder:       geocoder,
		Router:         router,
		TripStore:      trips.NewStore(db),
		IdentityStore:  identity.NewStore(db),
		Tokens:         tokens,
		Publisher:      events.MakePublisher(log, destination),
		RequestTimeout: time.Duration(cfg.RequestDeadlineSeconds) * time.Second,
		AllowedOrigins: webapi.SplitOrigins(cfg.AllowedOrigins),
	}

	// Make a channel to listen for an interrupt or terminate signal from the OS.
	// Use a buffered channel because the signal package requires it.
	shutdown := make(chan os.Signal, 1)
	signal.Notify(shutdown, os.Interrupt, syscall.SIGTERM)

	shutdownWebService := make(chan bool)
	wg := sync.WaitGroup{}
	go webapi.RunWebService(webConfig, &wg, cfg.HTTPListenAddr, shutdownWebService)

	sig := <-shutdown
	log.Printf("main: received signal %v, shutting down", sig)
	shutdownWebService <- true
	wg.Wait()

	return nil
}
