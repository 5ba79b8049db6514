package webapi

import (
	logger "log"
	"net/http"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/mux"
	"github.com/routehaul/hosplan/business/data/trips"
	"github.com/routehaul/hosplan/business/events"
	"github.com/routehaul/hosplan/business/hos"
	"github.com/routehaul/hosplan/business/routing"
	"github.com/routehaul/hosplan/foundation/apperror"
)

//geocodeSearchLimit caps results on the passthrough search endpoint.
const geocodeSearchLimit = 5

//tripHandler serves the trip planning and history endpoints.
type tripHandler struct {
	log       *logger.Logger
	planner   hos.Planner
	geocoder  routing.Geocoder
	router    routing.Router
	store     TripStore
	publisher *events.Publisher
}

func makeTripHandler(cfg Config) *tripHandler {
	return &tripHandler{
		log:       cfg.Log,
		planner:   cfg.Planner,
		geocoder:  cfg.Geocoder,
		router:    cfg.Router,
		store:     cfg.TripStore,
		publisher: cfg.Publisher,
	}
}

//calculateRequest is the body of POST /trips/calculate.
type calculateRequest struct {
	CurrentLocation   string   `json:"current_location"`
	PickupLocation    string   `json:"pickup_location"`
	DropoffLocation   string   `json:"dropoff_location"`
	CurrentCycleHours *float64 `json:"current_cycle_hours"`
	StartTime         string   `json:"start_time"`
}

//routeSegmentResponse is one leg in the calculate response.
type routeSegmentResponse struct {
	From          string  `json:"from"`
	To            string  `json:"to"`
	DistanceMiles float64 `json:"distance_miles"`
	DurationHours float64 `json:"duration_hours"`
}

//routeResponse is the route block of the calculate response.
type routeResponse struct {
	Polyline string                 `json:"polyline"`
	Segments []routeSegmentResponse `json:"segments"`
}

//calculateResponse is the body of a successful calculation.
type calculateResponse struct {
	TripID    uuid.UUID       `json:"trip_id"`
	Summary   hos.TripSummary `json:"summary"`
	Route     routeResponse   `json:"route"`
	Stops     []hos.Stop      `json:"stops"`
	DailyLogs []hos.DailyLog  `json:"daily_logs"`
}

//calculate geocodes the three addresses, routes both legs, runs the planner
//and persists the result. Every successful calculation is saved.
func (h *tripHandler) calculate(w http.ResponseWriter, r *http.Request) {
	userID, ok := userIDFrom(r.Context())
	if !ok {
		respondError(h.log, w, apperror.New(apperror.Unauthenticated, "missing access token"))
		return
	}

	var req calculateRequest
	if err := decodeBody(r, &req); err != nil {
		respondError(h.log, w, err)
		return
	}
	if err := validateCalculateRequest(req); err != nil {
		respondError(h.log, w, err)
		return
	}

	startTime := time.Now().UTC()
	if req.StartTime != "" {
		parsed, err := time.Parse(time.RFC3339, req.StartTime)
		if err != nil {
			respondError(h.log, w, apperror.Wrap(apperror.Validation, err,
				"start_time must be an ISO-8601 timestamp").WithDetail("field", "start_time"))
			return
		}
		startTime = parsed
	}

	start, pickup, dropoff, err := h.geocodeTrip(r, req)
	if err != nil {
		respondError(h.log, w, err)
		return
	}

	//routing needs the geocodes, so both legs sequence after them
	toPickup, err := h.router.Route(r.Context(), start, pickup)
	if err != nil {
		respondError(h.log, w, err)
		return
	}
	toDropoff, err := h.router.Route(r.Context(), pickup, dropoff)
	if err != nil {
		respondError(h.log, w, err)
		return
	}

	result, err := h.planner.Plan(r.Context(), hos.TripPlan{
		StartTime:         startTime,
		Start:             start,
		Pickup:            pickup,
		Dropoff:           dropoff,
		ToPickup:          toPickup,
		ToDropoff:         toDropoff,
		OpeningCycleHours: *req.CurrentCycleHours,
	})
	if err != nil {
		respondError(h.log, w, err)
		return
	}

	trip := &trips.Trip{
		ID:               uuid.New(),
		UserID:           userID,
		CurrentAddress:   req.CurrentLocation,
		PickupAddress:    req.PickupLocation,
		DropoffAddress:   req.DropoffLocation,
		StartingCycleHrs: *req.CurrentCycleHours,
		Polyline:         routing.EncodePath(routing.CombinePaths(toPickup.Path, toDropoff.Path)),
		CreatedAt:        time.Now().UTC(),
		Start:            start,
		Pickup:           pickup,
		Dropoff:          dropoff,
		Summary:          result.Schedule.Summary,
		Stops:            result.Schedule.Stops,
		DailyLogs:        result.DailyLogs,
	}
	if err := h.store.Create(r.Context(), trip); err != nil {
		respondError(h.log, w, err)
		return
	}

	h.publisher.TripCalculated(events.TripCalculated{
		TripID:             trip.ID,
		UserID:             userID,
		TotalDistanceMiles: trip.Summary.TotalDistanceMiles,
		TotalDrivingHours:  trip.Summary.TotalDrivingHours,
		TotalDays:          trip.Summary.TotalDays,
		StartTime:          trip.Summary.StartTime,
		EndTime:            trip.Summary.EndTime,
		CalculatedAt:       trip.CreatedAt,
	})

	respond(h.log, w, http.StatusOK, calculateResponse{
		TripID:  trip.ID,
		Summary: trip.Summary,
		Route: routeResponse{
			Polyline: trip.Polyline,
			Segments: []routeSegmentResponse{
				{From: start.Label(), To: pickup.Label(), DistanceMiles: toPickup.DistanceMiles, DurationHours: toPickup.DurationHours},
				{From: pickup.Label(), To: dropoff.Label(), DistanceMiles: toDropoff.DistanceMiles, DurationHours: toDropoff.DurationHours},
			},
		},
		Stops:     trip.Stops,
		DailyLogs: trip.DailyLogs,
	})
}

func validateCalculateRequest(req calculateRequest) error {
	fields := []struct {
		name  string
		value string
	}{
		{"current_location", req.CurrentLocation},
		{"pickup_location", req.PickupLocation},
		{"dropoff_location", req.DropoffLocation},
	}
	for _, f := range fields {
		if f.value == "" {
			return apperror.Newf(apperror.Validation, "%s is required", f.name).
				WithDetail("field", f.name)
		}
	}
	if req.CurrentCycleHours == nil {
		return apperror.New(apperror.Validation, "current_cycle_hours is required").
			WithDetail("field", "current_cycle_hours")
	}
	return nil
}

//geocodeTrip resolves the three addresses, overlapping the lookups. A miss
//fails the whole request naming the offending field.
func (h *tripHandler) geocodeTrip(r *http.Request, req calculateRequest) (start, pickup, dropoff hos.NamedPlace, err error) {
	type lookup struct {
		field   string
		address string
		place   *hos.NamedPlace
		err     error
	}
	lookups := []*lookup{
		{field: "current_location", address: req.CurrentLocation, place: &start},
		{field: "pickup_location", address: req.PickupLocation, place: &pickup},
		{field: "dropoff_location", address: req.DropoffLocation, place: &dropoff},
	}

	var wg sync.WaitGroup
	for _, l := range lookups {
		wg.Add(1)
		go func(l *lookup) {
			defer wg.Done()
			places, err := h.geocoder.Search(r.Context(), l.address, 1)
			if err != nil {
				l.err = err
				return
			}
			*l.place = places[0]
		}(l)
	}
	wg.Wait()

	for _, l := range lookups {
		if l.err != nil {
			return start, pickup, dropoff, apperror.Wrap(apperror.KindOf(l.err), l.err,
				apperror.MessageOf(l.err)).WithDetail("field", l.field)
		}
	}
	return start, pickup, dropoff, nil
}

//list returns the caller's trips newest first.
func (h *tripHandler) list(w http.ResponseWriter, r *http.Request) {
	userID, ok := userIDFrom(r.Context())
	if !ok {
		respondError(h.log, w, apperror.New(apperror.Unauthenticated, "missing access token"))
		return
	}
	listings, err := h.store.ListByUser(r.Context(), userID)
	if err != nil {
		respondError(h.log, w, err)
		return
	}
	respond(h.log, w, http.StatusOK, map[string]interface{}{"trips": listings})
}

//get returns one full trip with its daily logs.
func (h *tripHandler) get(w http.ResponseWriter, r *http.Request) {
	userID, ok := userIDFrom(r.Context())
	if !ok {
		respondError(h.log, w, apperror.New(apperror.Unauthenticated, "missing access token"))
		return
	}
	tripID, err := uuid.Parse(mux.Vars(r)["id"])
	if err != nil {
		respondError(h.log, w, apperror.New(apperror.NotFound, "trip not found"))
		return
	}
	trip, err := h.store.GetByID(r.Context(), tripID, userID)
	if err != nil {
		respondError(h.log, w, err)
		return
	}
	respond(h.log, w, http.StatusOK, trip)
}

//delete removes one trip and all of its dependent rows.
func (h *tripHandler) delete(w http.ResponseWriter, r *http.Request) {
	userID, ok := userIDFrom(r.Context())
	if !ok {
		respondError(h.log, w, apperror.New(apperror.Unauthenticated, "missing access token"))
		return
	}
	tripID, err := uuid.Parse(mux.Vars(r)["id"])
	if err != nil {
		respondError(h.log, w, apperror.New(apperror.NotFound, "trip not found"))
		return
	}
	if err := h.store.Delete(r.Context(), tripID, userID); err != nil {
		respondError(h.log, w, err)
		return
	}
	respond(h.log, w, http.StatusNoContent, nil)
}

//geocode is the address search passthrough.
func (h *tripHandler) geocode(w http.ResponseWriter, r *http.Request) {
	address := r.URL.Query().Get("address")
	if len(address) < 2 {
		respondError(h.log, w, apperror.New(apperror.Validation,
			"address must be at least 2 characters").WithDetail("field", "address"))
		return
	}
	places, err := h.geocoder.Search(r.Context(), address, geocodeSearchLimit)
	if err != nil {
		respondError(h.log, w, err)
		return
	}
	respond(h.log, w, http.StatusOK, map[string]interface{}{"results": places})
}
