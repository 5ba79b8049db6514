// Package webapi exposes trip planning, trip history and account endpoints
// over HTTP.
package webapi

import (
	"context"
	logger "log"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/mux"
	"github.com/routehaul/hosplan/business/auth"
	"github.com/routehaul/hosplan/business/data/identity"
	"github.com/routehaul/hosplan/business/data/trips"
	"github.com/routehaul/hosplan/business/events"
	"github.com/routehaul/hosplan/business/hos"
	"github.com/routehaul/hosplan/business/routing"
)

//TripStore is the persistence the trip endpoints need.
type TripStore interface {
	Create(ctx context.Context, trip *trips.Trip) error
	GetByID(ctx context.Context, tripID, userID uuid.UUID) (*trips.Trip, error)
	ListByUser(ctx context.Context, userID uuid.UUID) ([]trips.Listing, error)
	Delete(ctx context.Context, tripID, userID uuid.UUID) error
}

//IdentityStore is the persistence the account endpoints need.
type IdentityStore interface {
	CreateUser(ctx context.Context, user *identity.User) error
	UserByEmail(ctx context.Context, email string) (*identity.User, error)
	UserByID(ctx context.Context, userID uuid.UUID) (*identity.User, error)
	SaveRefreshToken(ctx context.Context, token identity.RefreshToken) error
	RefreshTokenByID(ctx context.Context, tokenID uuid.UUID) (*identity.RefreshToken, error)
	RevokeRefreshToken(ctx context.Context, tokenID uuid.UUID) error
}

//Config collects everything the web service depends on.
type Config struct {
	Log            *logger.Logger
	Planner        hos.Planner
	Geocoder       routing.Geocoder
	Router         routing.Router
	TripStore      TripStore
	IdentityStore  IdentityStore
	Tokens         *auth.Tokens
	Publisher      *events.Publisher
	RequestTimeout time.Duration
	AllowedOrigins []string
}

//defaultHttpHandler answers the root path so load balancers can probe.
type defaultHttpHandler struct {
}

//ServeHTTP implements defaultHttpHandler http.Handler interface
func (h *defaultHttpHandler) ServeHTTP(w http.ResponseWriter, _ *http.Request) {
	w.Header().Add("Application-Status", "OK")
}

//NewRouter wires every endpoint with its middleware.
func NewRouter(cfg Config) http.Handler {
	tripHandler := makeTripHandler(cfg)
	authHandler := makeAuthHandler(cfg)
	authenticate := makeAuthMiddleware(cfg.Log, cfg.Tokens)

	r := mux.NewRouter()
	r.Handle("/", &defaultHttpHandler{})

	r.HandleFunc("/trips/calculate", authenticate(tripHandler.calculate)).Methods(http.MethodPost)
	r.HandleFunc("/trips", authenticate(tripHandler.list)).Methods(http.MethodGet)
	r.HandleFunc("/trips/{id}", authenticate(tripHandler.get)).Methods(http.MethodGet)
	r.HandleFunc("/trips/{id}", authenticate(tripHandler.delete)).Methods(http.MethodDelete)
	r.HandleFunc("/geocode", authenticate(tripHandler.geocode)).Methods(http.MethodGet)

	r.HandleFunc("/auth/register", authHandler.register).Methods(http.MethodPost)
	r.HandleFunc("/auth/login", authHandler.login).Methods(http.MethodPost)
	r.HandleFunc("/auth/refresh", authHandler.refresh).Methods(http.MethodPost)
	r.HandleFunc("/auth/logout", authHandler.logout).Methods(http.MethodPost)
	r.HandleFunc("/auth/me", authenticate(authHandler.me)).Methods(http.MethodGet)

	var handler http.Handler = r
	handler = deadlineMiddleware(cfg.RequestTimeout, handler)
	handler = corsMiddleware(cfg.AllowedOrigins, handler)
	return handler
}

//createServer creates a configured http.Server for the api.
func createServer(cfg Config, addr string) *http.Server {
	return &http.Server{
		Addr: addr,
		// Good practice to set timeouts to avoid Slowloris attacks.
		WriteTimeout: time.Second * 15,
		ReadTimeout:  time.Second * 15,
		IdleTimeout:  time.Second * 60,
		Handler:      NewRouter(cfg),
	}
}

//RunWebService starts the api server and terminates it on shutdown signal.
func RunWebService(cfg Config, wg *sync.WaitGroup, addr string, shutdownSignal chan bool) {
	wg.Add(1)
	defer wg.Done()
	srv := createServer(cfg, addr)
	cfg.Log.Printf("Starting server on %s", addr)
	go func() {
		if err := srv.ListenAndServe(); err != nil {
			cfg.Log.Printf("server ListenAndServe ended. %s", err)
		}
	}()

	<-shutdownSignal
	cfg.Log.Printf("ending webservice on shutdown signal")
	shutdownCtx, serverCancelFunc := context.WithTimeout(context.Background(), 5*time.Second)
	defer serverCancelFunc()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		cfg.Log.Printf("error shutting down webservice, error:%s", err)
	}
}

//SplitOrigins parses the comma separated CORS allowlist.
func SplitOrigins(origins string) []string {
	var out []string
	for _, origin := range strings.Split(origins, ",") {
		if origin = strings.TrimSpace(origin); origin != "" {
			out = append(out, origin)
		}
	}
	return out
}
