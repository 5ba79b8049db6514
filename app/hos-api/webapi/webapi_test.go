package webapi

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	logger "log"
	"net/http"
	"net/http/httptest"
	"os"
	"sort"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/matryer/is"
	"github.com/routehaul/hosplan/business/auth"
	"github.com/routehaul/hosplan/business/data/identity"
	"github.com/routehaul/hosplan/business/data/trips"
	"github.com/routehaul/hosplan/business/events"
	"github.com/routehaul/hosplan/business/hos"
	"github.com/routehaul/hosplan/business/routing"
	"github.com/routehaul/hosplan/foundation/apperror"
)

//memoryTripStore keeps trips in a map, newest first on listing.
type memoryTripStore struct {
	mu    sync.Mutex
	trips map[uuid.UUID]*trips.Trip
	order []uuid.UUID
}

func newMemoryTripStore() *memoryTripStore {
	return &memoryTripStore{trips: map[uuid.UUID]*trips.Trip{}}
}

func (m *memoryTripStore) Create(_ context.Context, trip *trips.Trip) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	copied := *trip
	m.trips[trip.ID] = &copied
	m.order = append(m.order, trip.ID)
	return nil
}

func (m *memoryTripStore) GetByID(_ context.Context, tripID, userID uuid.UUID) (*trips.Trip, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	trip, ok := m.trips[tripID]
	if !ok || trip.UserID != userID {
		return nil, apperror.Newf(apperror.NotFound, "trip %s not found", tripID)
	}
	copied := *trip
	return &copied, nil
}

func (m *memoryTripStore) ListByUser(_ context.Context, userID uuid.UUID) ([]trips.Listing, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	listings := make([]trips.Listing, 0)
	for _, id := range m.order {
		trip := m.trips[id]
		if trip.UserID != userID {
			continue
		}
		listings = append(listings, trips.Listing{
			ID:                 trip.ID,
			CurrentAddress:     trip.CurrentAddress,
			PickupAddress:      trip.PickupAddress,
			DropoffAddress:     trip.DropoffAddress,
			TotalDistanceMiles: trip.Summary.TotalDistanceMiles,
			TotalDrivingHours:  trip.Summary.TotalDrivingHours,
			TotalDays:          trip.Summary.TotalDays,
			StartTime:          trip.Summary.StartTime,
			EndTime:            trip.Summary.EndTime,
			CreatedAt:          trip.CreatedAt,
		})
	}
	sort.SliceStable(listings, func(i, j int) bool { return listings[i].CreatedAt.After(listings[j].CreatedAt) })
	return listings, nil
}

func (m *memoryTripStore) Delete(_ context.Context, tripID, userID uuid.UUID) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	trip, ok := m.trips[tripID]
	if !ok || trip.UserID != userID {
		return apperror.Newf(apperror.NotFound, "trip %s not found", tripID)
	}
	delete(m.trips, tripID)
	return nil
}

func (m *memoryTripStore) count() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.trips)
}

//memoryIdentityStore keeps users and refresh tokens in maps.
type memoryIdentityStore struct {
	mu     sync.Mutex
	users  map[uuid.UUID]*identity.User
	tokens map[uuid.UUID]*identity.RefreshToken
}

func newMemoryIdentityStore() *memoryIdentityStore {
	return &memoryIdentityStore{
		users:  map[uuid.UUID]*identity.User{},
		tokens: map[uuid.UUID]*identity.RefreshToken{},
	}
}

func (m *memoryIdentityStore) CreateUser(_ context.Context, user *identity.User) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	user.Email = strings.ToLower(strings.TrimSpace(user.Email))
	for _, existing := range m.users {
		if existing.Email == user.Email {
			return apperror.New(apperror.Conflict, "email already registered").
				WithDetail("field", "email")
		}
	}
	copied := *user
	m.users[user.ID] = &copied
	return nil
}

func (m *memoryIdentityStore) UserByEmail(_ context.Context, email string) (*identity.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	email = strings.ToLower(strings.TrimSpace(email))
	for _, user := range m.users {
		if user.Email == email {
			copied := *user
			return &copied, nil
		}
	}
	return nil, apperror.New(apperror.NotFound, "user not found")
}

func (m *memoryIdentityStore) UserByID(_ context.Context, userID uuid.UUID) (*identity.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	user, ok := m.users[userID]
	if !ok {
		return nil, apperror.New(apperror.NotFound, "user not found")
	}
	copied := *user
	return &copied, nil
}

func (m *memoryIdentityStore) SaveRefreshToken(_ context.Context, token identity.RefreshToken) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.tokens[token.ID] = &token
	return nil
}

func (m *memoryIdentityStore) RefreshTokenByID(_ context.Context, tokenID uuid.UUID) (*identity.RefreshToken, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	token, ok := m.tokens[tokenID]
	if !ok {
		return nil, apperror.New(apperror.Unauthenticated, "unknown refresh token")
	}
	copied := *token
	return &copied, nil
}

func (m *memoryIdentityStore) RevokeRefreshToken(_ context.Context, tokenID uuid.UUID) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if token, ok := m.tokens[tokenID]; ok {
		token.Revoked = true
	}
	return nil
}

//fixtureGeocoder answers from the offline table but fails for addresses it is
//told to miss, the way a live geocoder misses a bad address.
type fixtureGeocoder struct {
	missing map[string]bool
}

func (g fixtureGeocoder) Search(ctx context.Context, address string, limit int) ([]hos.NamedPlace, error) {
	if g.missing[address] {
		return nil, apperror.Newf(apperror.UpstreamInvalid, "no results for address %q", address)
	}
	return routing.OfflineGeocoder{}.Search(ctx, address, limit)
}

type testEnv struct {
	handler   http.Handler
	tripStore *memoryTripStore
	idStore   *memoryIdentityStore
	events    *memoryDestination
}

//memoryDestination collects published trip events.
type memoryDestination struct {
	mu       sync.Mutex
	payloads [][]byte
}

func (m *memoryDestination) Publish(_ string, payload []byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.payloads = append(m.payloads, payload)
	return nil
}

func (m *memoryDestination) count() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.payloads)
}

func newTestEnv(t *testing.T, geocoder routing.Geocoder) *testEnv {
	t.Helper()
	log := logger.New(os.Stdout, "TEST : ", logger.LstdFlags)
	tokens, err := auth.NewTokens("test-signing-key", 15*time.Minute, 7*24*time.Hour)
	if err != nil {
		t.Fatalf("NewTokens() error = %v", err)
	}

	tripStore := newMemoryTripStore()
	idStore := newMemoryIdentityStore()
	destination := &memoryDestination{}

	handler := NewRouter(Config{
		Log:            log,
		Planner:        hos.MakePlanner(hos.DefaultRules(), routing.OfflineStopLocator{}),
		Geocoder:       geocoder,
		Router:         routing.OfflineRouter{},
		TripStore:      tripStore,
		IdentityStore:  idStore,
		Tokens:         tokens,
		Publisher:      events.MakePublisher(log, destination),
		RequestTimeout: 30 * time.Second,
		AllowedOrigins: []string{"http://localhost:3000"},
	})
	return &testEnv{
		handler:   handler,
		tripStore: tripStore,
		idStore:   idStore,
		events:    destination,
	}
}

func (e *testEnv) do(t *testing.T, method, path, accessToken string, body interface{}) *httptest.ResponseRecorder {
	t.Helper()
	var reader *bytes.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			t.Fatalf("marshaling request body: %v", err)
		}
		reader = bytes.NewReader(payload)
	} else {
		reader = bytes.NewReader(nil)
	}
	req := httptest.NewRequest(method, path, reader)
	if accessToken != "" {
		req.Header.Set("Authorization", "Bearer "+accessToken)
	}
	recorder := httptest.NewRecorder()
	e.handler.ServeHTTP(recorder, req)
	return recorder
}

func (e *testEnv) registerDriver(t *testing.T, email string) (access, refresh string) {
	t.Helper()
	recorder := e.do(t, http.MethodPost, "/auth/register", "", registerRequest{
		Email:           email,
		Password:        "correct-horse-9",
		PasswordConfirm: "correct-horse-9",
		Name:            "Pat Driver",
		CompanyName:     "Routehaul Test Freight",
		TruckNumber:     "402",
	})
	if recorder.Code != http.StatusCreated {
		t.Fatalf("register status = %d, body %s", recorder.Code, recorder.Body.String())
	}
	var session sessionResponse
	if err := json.Unmarshal(recorder.Body.Bytes(), &session); err != nil {
		t.Fatalf("decoding session: %v", err)
	}
	return session.Tokens.Access, session.Tokens.Refresh
}

func calculateBody(cycleHours float64) calculateRequest {
	return calculateRequest{
		CurrentLocation:   "Chicago, IL",
		PickupLocation:    "Milwaukee, WI",
		DropoffLocation:   "Madison, WI",
		CurrentCycleHours: &cycleHours,
		StartTime:         "2026-01-17T06:30:00-06:00",
	}
}

func TestRegisterLoginMe(t *testing.T) {
	is := is.New(t)
	env := newTestEnv(t, fixtureGeocoder{})

	access, _ := env.registerDriver(t, "pat@example.com")

	recorder := env.do(t, http.MethodGet, "/auth/me", access, nil)
	is.Equal(recorder.Code, http.StatusOK)
	var profile identity.User
	is.NoErr(json.Unmarshal(recorder.Body.Bytes(), &profile))
	is.Equal(profile.Email, "pat@example.com")
	is.Equal(profile.Name, "Pat Driver")
	is.Equal(profile.TruckNumber, "402")

	//the hash must never appear in a response
	is.True(!bytes.Contains(recorder.Body.Bytes(), []byte("password")))

	recorder = env.do(t, http.MethodPost, "/auth/login", "", loginRequest{
		Email:    "PAT@example.com",
		Password: "correct-horse-9",
	})
	is.Equal(recorder.Code, http.StatusOK)

	recorder = env.do(t, http.MethodPost, "/auth/login", "", loginRequest{
		Email:    "pat@example.com",
		Password: "wrong",
	})
	is.Equal(recorder.Code, http.StatusUnauthorized)
}

func TestRegisterDuplicateEmail(t *testing.T) {
	is := is.New(t)
	env := newTestEnv(t, fixtureGeocoder{})

	env.registerDriver(t, "pat@example.com")
	recorder := env.do(t, http.MethodPost, "/auth/register", "", registerRequest{
		Email:           "pat@example.com",
		Password:        "correct-horse-9",
		PasswordConfirm: "correct-horse-9",
		Name:            "Another Pat",
	})
	is.Equal(recorder.Code, http.StatusConflict)

	var body errorResponse
	is.NoErr(json.Unmarshal(recorder.Body.Bytes(), &body))
	is.Equal(body.Code, "CONFLICT")
}

func TestRegisterValidation(t *testing.T) {
	env := newTestEnv(t, fixtureGeocoder{})

	tests := []struct {
		name string
		req  registerRequest
	}{
		{"bad email", registerRequest{Email: "not-an-email", Password: "long-enough-1", PasswordConfirm: "long-enough-1", Name: "Pat"}},
		{"missing name", registerRequest{Email: "a@b.com", Password: "long-enough-1", PasswordConfirm: "long-enough-1"}},
		{"short password", registerRequest{Email: "a@b.com", Password: "short", PasswordConfirm: "short", Name: "Pat"}},
		{"mismatched passwords", registerRequest{Email: "a@b.com", Password: "long-enough-1", PasswordConfirm: "long-enough-2", Name: "Pat"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			recorder := env.do(t, http.MethodPost, "/auth/register", "", tt.req)
			if recorder.Code != http.StatusBadRequest {
				t.Errorf("status = %d, want 400", recorder.Code)
			}
		})
	}
}

func TestRefreshRotation(t *testing.T) {
	is := is.New(t)
	env := newTestEnv(t, fixtureGeocoder{})

	_, refresh := env.registerDriver(t, "pat@example.com")

	recorder := env.do(t, http.MethodPost, "/auth/refresh", "", refreshRequest{Refresh: refresh})
	is.Equal(recorder.Code, http.StatusOK)
	var pair tokenPair
	is.NoErr(json.Unmarshal(recorder.Body.Bytes(), &pair))
	is.True(pair.Refresh != refresh)

	//the rotated-out token is blacklisted
	recorder = env.do(t, http.MethodPost, "/auth/refresh", "", refreshRequest{Refresh: refresh})
	is.Equal(recorder.Code, http.StatusUnauthorized)

	//the replacement still works
	recorder = env.do(t, http.MethodPost, "/auth/refresh", "", refreshRequest{Refresh: pair.Refresh})
	is.Equal(recorder.Code, http.StatusOK)
}

func TestLogoutBlacklistsRefreshToken(t *testing.T) {
	is := is.New(t)
	env := newTestEnv(t, fixtureGeocoder{})

	_, refresh := env.registerDriver(t, "pat@example.com")

	recorder := env.do(t, http.MethodPost, "/auth/logout", "", refreshRequest{Refresh: refresh})
	is.Equal(recorder.Code, http.StatusNoContent)

	recorder = env.do(t, http.MethodPost, "/auth/refresh", "", refreshRequest{Refresh: refresh})
	is.Equal(recorder.Code, http.StatusUnauthorized)
}

func TestCalculateShortTrip(t *testing.T) {
	is := is.New(t)
	env := newTestEnv(t, fixtureGeocoder{})
	access, _ := env.registerDriver(t, "pat@example.com")

	recorder := env.do(t, http.MethodPost, "/trips/calculate", access, calculateBody(10))
	is.Equal(recorder.Code, http.StatusOK)

	var resp calculateResponse
	is.NoErr(json.Unmarshal(recorder.Body.Bytes(), &resp))
	is.True(resp.TripID != uuid.Nil)

	//short trip: the four fixed stops and nothing else
	is.Equal(len(resp.Stops), 4)
	is.Equal(resp.Stops[0].Kind, hos.StopStart)
	is.Equal(resp.Stops[1].Kind, hos.StopPickup)
	is.Equal(resp.Stops[2].Kind, hos.StopDropoff)
	is.Equal(resp.Stops[3].Kind, hos.StopEndPostTrip)

	is.Equal(len(resp.Route.Segments), 2)
	is.Equal(resp.Route.Segments[0].From, "Chicago, Cook County, Illinois, USA")
	is.True(resp.Route.Polyline != "")

	is.Equal(len(resp.DailyLogs), 1)
	day := resp.DailyLogs[0]
	is.Equal(day.Date, "2026-01-17")
	is.Equal(day.Timezone, "America/Chicago")
	total := day.Hours.OffDuty + day.Hours.SleeperBerth + day.Hours.Driving + day.Hours.OnDuty
	is.True(total > 23.98 && total < 24.02)

	//every calculation is persisted and announced
	is.Equal(env.tripStore.count(), 1)
	is.Equal(env.events.count(), 1)
}

func TestCalculateValidation(t *testing.T) {
	env := newTestEnv(t, fixtureGeocoder{})
	access, _ := env.registerDriver(t, "pat@example.com")

	cycle := 10.0
	over := 75.0
	tests := []struct {
		name      string
		req       calculateRequest
		wantField string
	}{
		{
			name: "missing dropoff",
			req: calculateRequest{
				CurrentLocation:   "Chicago, IL",
				PickupLocation:    "Milwaukee, WI",
				CurrentCycleHours: &cycle,
			},
			wantField: "dropoff_location",
		},
		{
			name: "missing cycle hours",
			req: calculateRequest{
				CurrentLocation: "Chicago, IL",
				PickupLocation:  "Milwaukee, WI",
				DropoffLocation: "Madison, WI",
			},
			wantField: "current_cycle_hours",
		},
		{
			name: "cycle hours out of range",
			req: calculateRequest{
				CurrentLocation:   "Chicago, IL",
				PickupLocation:    "Milwaukee, WI",
				DropoffLocation:   "Madison, WI",
				CurrentCycleHours: &over,
			},
			wantField: "current_cycle_hours",
		},
		{
			name: "bad start time",
			req: calculateRequest{
				CurrentLocation:   "Chicago, IL",
				PickupLocation:    "Milwaukee, WI",
				DropoffLocation:   "Madison, WI",
				CurrentCycleHours: &cycle,
				StartTime:         "yesterday",
			},
			wantField: "start_time",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			recorder := env.do(t, http.MethodPost, "/trips/calculate", access, tt.req)
			if recorder.Code != http.StatusBadRequest {
				t.Fatalf("status = %d, want 400; body %s", recorder.Code, recorder.Body.String())
			}
			var body errorResponse
			if err := json.Unmarshal(recorder.Body.Bytes(), &body); err != nil {
				t.Fatalf("decoding error body: %v", err)
			}
			if body.Details["field"] != tt.wantField {
				t.Errorf("details.field = %v, want %q", body.Details["field"], tt.wantField)
			}
		})
	}
}

func TestCalculateGeocodeMiss(t *testing.T) {
	is := is.New(t)
	env := newTestEnv(t, fixtureGeocoder{missing: map[string]bool{"Madison, WI": true}})
	access, _ := env.registerDriver(t, "pat@example.com")

	recorder := env.do(t, http.MethodPost, "/trips/calculate", access, calculateBody(10))
	is.Equal(recorder.Code, http.StatusUnprocessableEntity)

	var body errorResponse
	is.NoErr(json.Unmarshal(recorder.Body.Bytes(), &body))
	is.Equal(body.Code, "UPSTREAM_INVALID")
	is.Equal(body.Details["field"], "dropoff_location")

	//a failed calculation persists nothing and announces nothing
	is.Equal(env.tripStore.count(), 0)
	is.Equal(env.events.count(), 0)
}

func TestCalculateRequiresAuth(t *testing.T) {
	is := is.New(t)
	env := newTestEnv(t, fixtureGeocoder{})

	recorder := env.do(t, http.MethodPost, "/trips/calculate", "", calculateBody(10))
	is.Equal(recorder.Code, http.StatusUnauthorized)

	recorder = env.do(t, http.MethodPost, "/trips/calculate", "not-a-token", calculateBody(10))
	is.Equal(recorder.Code, http.StatusUnauthorized)
}

func TestCalculateIsIdempotent(t *testing.T) {
	is := is.New(t)
	env := newTestEnv(t, fixtureGeocoder{})
	access, _ := env.registerDriver(t, "pat@example.com")

	first := env.do(t, http.MethodPost, "/trips/calculate", access, calculateBody(25))
	second := env.do(t, http.MethodPost, "/trips/calculate", access, calculateBody(25))
	is.Equal(first.Code, http.StatusOK)
	is.Equal(second.Code, http.StatusOK)

	var a, b calculateResponse
	is.NoErr(json.Unmarshal(first.Body.Bytes(), &a))
	is.NoErr(json.Unmarshal(second.Body.Bytes(), &b))
	is.True(a.TripID != b.TripID)

	//strip the generated ids; everything else must match byte for byte
	a.TripID, b.TripID = uuid.Nil, uuid.Nil
	aJSON, err := json.Marshal(a)
	is.NoErr(err)
	bJSON, err := json.Marshal(b)
	is.NoErr(err)
	is.Equal(string(aJSON), string(bJSON))
}

func TestTripListGetDelete(t *testing.T) {
	is := is.New(t)
	env := newTestEnv(t, fixtureGeocoder{})
	access, _ := env.registerDriver(t, "pat@example.com")
	otherAccess, _ := env.registerDriver(t, "other@example.com")

	recorder := env.do(t, http.MethodPost, "/trips/calculate", access, calculateBody(10))
	is.Equal(recorder.Code, http.StatusOK)
	var created calculateResponse
	is.NoErr(json.Unmarshal(recorder.Body.Bytes(), &created))

	recorder = env.do(t, http.MethodGet, "/trips", access, nil)
	is.Equal(recorder.Code, http.StatusOK)
	var listing struct {
		Trips []trips.Listing `json:"trips"`
	}
	is.NoErr(json.Unmarshal(recorder.Body.Bytes(), &listing))
	is.Equal(len(listing.Trips), 1)
	is.Equal(listing.Trips[0].ID, created.TripID)

	//full fetch round-trips the schedule
	recorder = env.do(t, http.MethodGet, "/trips/"+created.TripID.String(), access, nil)
	is.Equal(recorder.Code, http.StatusOK)
	var fetched trips.Trip
	is.NoErr(json.Unmarshal(recorder.Body.Bytes(), &fetched))
	is.Equal(len(fetched.Stops), len(created.Stops))
	is.Equal(len(fetched.DailyLogs), len(created.DailyLogs))
	is.Equal(fetched.Summary.TotalDistanceMiles, created.Summary.TotalDistanceMiles)

	//another owner sees nothing
	recorder = env.do(t, http.MethodGet, "/trips/"+created.TripID.String(), otherAccess, nil)
	is.Equal(recorder.Code, http.StatusNotFound)
	recorder = env.do(t, http.MethodDelete, "/trips/"+created.TripID.String(), otherAccess, nil)
	is.Equal(recorder.Code, http.StatusNotFound)

	recorder = env.do(t, http.MethodDelete, "/trips/"+created.TripID.String(), access, nil)
	is.Equal(recorder.Code, http.StatusNoContent)
	recorder = env.do(t, http.MethodGet, "/trips/"+created.TripID.String(), access, nil)
	is.Equal(recorder.Code, http.StatusNotFound)
}

func TestGeocodePassthrough(t *testing.T) {
	is := is.New(t)
	env := newTestEnv(t, fixtureGeocoder{})
	access, _ := env.registerDriver(t, "pat@example.com")

	recorder := env.do(t, http.MethodGet, "/geocode?address=madison", access, nil)
	is.Equal(recorder.Code, http.StatusOK)
	var body struct {
		Results []hos.NamedPlace `json:"results"`
	}
	is.NoErr(json.Unmarshal(recorder.Body.Bytes(), &body))
	is.True(len(body.Results) >= 1)

	recorder = env.do(t, http.MethodGet, "/geocode?address=m", access, nil)
	is.Equal(recorder.Code, http.StatusBadRequest)
}

func TestCORSPreflightAndHeaders(t *testing.T) {
	is := is.New(t)
	env := newTestEnv(t, fixtureGeocoder{})

	req := httptest.NewRequest(http.MethodOptions, "/trips", nil)
	req.Header.Set("Origin", "http://localhost:3000")
	recorder := httptest.NewRecorder()
	env.handler.ServeHTTP(recorder, req)
	is.Equal(recorder.Code, http.StatusNoContent)
	is.Equal(recorder.Header().Get("Access-Control-Allow-Origin"), "http://localhost:3000")

	req = httptest.NewRequest(http.MethodOptions, "/trips", nil)
	req.Header.Set("Origin", "http://evil.example.com")
	recorder = httptest.NewRecorder()
	env.handler.ServeHTTP(recorder, req)
	is.Equal(recorder.Header().Get("Access-Control-Allow-Origin"), "")
}

func TestCalculateMediumTripCompliance(t *testing.T) {
	is := is.New(t)
	env := newTestEnv(t, fixtureGeocoder{})
	access, _ := env.registerDriver(t, "pat@example.com")

	cycle := 5.0
	recorder := env.do(t, http.MethodPost, "/trips/calculate", access, calculateRequest{
		CurrentLocation:   "Chicago, IL",
		PickupLocation:    "Denver, CO",
		DropoffLocation:   "Los Angeles, CA",
		CurrentCycleHours: &cycle,
		StartTime:         "2026-03-02T08:00:00-06:00",
	})
	is.Equal(recorder.Code, http.StatusOK)

	var resp calculateResponse
	is.NoErr(json.Unmarshal(recorder.Body.Bytes(), &resp))

	counts := map[hos.StopKind]int{}
	for i, stop := range resp.Stops {
		counts[stop.Kind]++
		is.Equal(stop.Order, i+1)
		if i > 0 {
			is.True(!stop.Arrival.Before(resp.Stops[i-1].Departure))
		}
	}
	//a 1900+ mile trip needs breaks, overnight rests and a fuel stop
	is.True(counts[hos.StopBreak30Min] >= 1)
	is.True(counts[hos.StopRest10Hr] >= 1)
	is.True(counts[hos.StopFuel] >= 1)
	is.Equal(counts[hos.StopRestart34Hr], 0)

	for _, day := range resp.DailyLogs {
		total := day.Hours.OffDuty + day.Hours.SleeperBerth + day.Hours.Driving + day.Hours.OnDuty
		if total < 23.98 || total > 24.02 {
			t.Errorf("day %d hours sum to %v, want 24", day.Day, total)
		}
	}

	var driving float64
	for _, day := range resp.DailyLogs {
		driving += day.Hours.Driving
	}
	segTotal := resp.Route.Segments[0].DurationHours + resp.Route.Segments[1].DurationHours
	if diff := driving - segTotal; diff > 0.05 || diff < -0.05 {
		t.Errorf("driving hours over days = %v, segments total %v", driving, segTotal)
	}
}

func TestRootProbe(t *testing.T) {
	is := is.New(t)
	env := newTestEnv(t, fixtureGeocoder{})

	recorder := env.do(t, http.MethodGet, "/", "", nil)
	is.Equal(recorder.Code, http.StatusOK)
	is.Equal(recorder.Header().Get("Application-Status"), "OK")
}

func TestSplitOrigins(t *testing.T) {
	is := is.New(t)
	is.Equal(SplitOrigins("http://a.com, http://b.com ,"), []string{"http://a.com", "http://b.com"})
	is.Equal(len(SplitOrigins("")), 0)
}

func ExampleSplitOrigins() {
	fmt.Println(SplitOrigins("http://localhost:3000,https://app.example.com"))
	// Output: [http://localhost:3000 https://app.example.com]
}
