// Package trips persists calculated trips and their stops and daily logs.
package trips

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/routehaul/hosplan/business/hos"
	"github.com/routehaul/hosplan/foundation/apperror"
	"github.com/routehaul/hosplan/foundation/database"
)

//Trip is one persisted calculation: the caller's inputs, the resolved places,
//the computed schedule and its daily logs. A trip is immutable once written;
//recalculating produces a new one.
type Trip struct {
	ID                uuid.UUID `db:"trip_id" json:"trip_id"`
	UserID            uuid.UUID `db:"user_id" json:"-"`
	CurrentAddress    string    `db:"current_address" json:"current_location"`
	PickupAddress     string    `db:"pickup_address" json:"pickup_location"`
	DropoffAddress    string    `db:"dropoff_address" json:"dropoff_location"`
	StartingCycleHrs  float64   `db:"starting_cycle_hours" json:"starting_cycle_hours"`
	Polyline          string    `db:"polyline" json:"polyline"`
	CreatedAt         time.Time `db:"created_at" json:"created_at"`

	Start   hos.NamedPlace `db:"-" json:"current_place"`
	Pickup  hos.NamedPlace `db:"-" json:"pickup_place"`
	Dropoff hos.NamedPlace `db:"-" json:"dropoff_place"`

	Summary   hos.TripSummary `db:"-" json:"summary"`
	Stops     []hos.Stop      `db:"-" json:"stops"`
	DailyLogs []hos.DailyLog  `db:"-" json:"daily_logs"`
}

//Listing is the truncated row the trip list endpoint returns.
type Listing struct {
	ID                 uuid.UUID `db:"trip_id" json:"trip_id"`
	CurrentAddress     string    `db:"current_address" json:"current_location"`
	PickupAddress      string    `db:"pickup_address" json:"pickup_location"`
	DropoffAddress     string    `db:"dropoff_address" json:"dropoff_location"`
	TotalDistanceMiles float64   `db:"total_distance_miles" json:"total_distance_miles"`
	TotalDrivingHours  float64   `db:"total_driving_hours" json:"total_driving_hours"`
	TotalDays          int       `db:"total_days" json:"total_days"`
	StartTime          time.Time `db:"start_time" json:"start_time"`
	EndTime            time.Time `db:"end_time" json:"end_time"`
	CreatedAt          time.Time `db:"created_at" json:"created_at"`
}

//Store reads and writes trips in postgres.
type Store struct {
	db *sqlx.DB
}

//NewStore builds a Store over db.
func NewStore(db *sqlx.DB) *Store {
	return &Store{db: db}
}

//tripRow is the flat trip table representation.
type tripRow struct {
	ID                 uuid.UUID `db:"trip_id"`
	UserID             uuid.UUID `db:"user_id"`
	CurrentAddress     string    `db:"current_address"`
	PickupAddress      string    `db:"pickup_address"`
	DropoffAddress     string    `db:"dropoff_address"`
	StartingCycleHrs   float64   `db:"starting_cycle_hours"`
	Polyline           string    `db:"polyline"`
	Places             []byte    `db:"places"`
	Summary            []byte    `db:"summary"`
	CreatedAt          time.Time `db:"created_at"`
}

//stopRow is one trip_stop table row.
type stopRow struct {
	TripID          uuid.UUID `db:"trip_id"`
	StopOrder       int       `db:"stop_order"`
	Kind            string    `db:"kind"`
	Name            string    `db:"name"`
	Address         string    `db:"address"`
	Lat             float64   `db:"lat"`
	Lng             float64   `db:"lng"`
	Arrival         time.Time `db:"arrival"`
	Departure       time.Time `db:"departure"`
	DurationMinutes int       `db:"duration_minutes"`
	Activity        string    `db:"activity"`
	DutyStatus      string    `db:"duty_status"`
	Trigger         string    `db:"trigger_limit"`
}

//dailyLogRow is one trip_daily_log table row. Entries and remarks are small
//ordered lists, stored as jsonb rather than a fourth table.
type dailyLogRow struct {
	TripID        uuid.UUID `db:"trip_id"`
	DayNumber     int       `db:"day_number"`
	LogDate       string    `db:"log_date"`
	Timezone      string    `db:"timezone"`
	Holiday       string    `db:"holiday"`
	StartLocation string    `db:"start_location"`
	EndLocation   string    `db:"end_location"`
	TotalMiles    float64   `db:"total_miles"`
	OffDutyHours  float64   `db:"off_duty_hours"`
	SleeperHours  float64   `db:"sleeper_hours"`
	DrivingHours  float64   `db:"driving_hours"`
	OnDutyHours   float64   `db:"on_duty_hours"`
	Entries       []byte    `db:"entries"`
	Remarks       []byte    `db:"remarks"`
}

//tripPlaces groups the three resolved places for the jsonb column.
type tripPlaces struct {
	Start   hos.NamedPlace `json:"start"`
	Pickup  hos.NamedPlace `json:"pickup"`
	Dropoff hos.NamedPlace `json:"dropoff"`
}

//Create writes a trip with its stops and daily logs in one transaction.
func (s *Store) Create(ctx context.Context, trip *Trip) error {
	row, err := makeTripRow(trip)
	if err != nil {
		return err
	}

	return database.Transact(ctx, s.db, func(tx *sqlx.Tx) error {
		statement := tx.Rebind("insert into trip (trip_id, user_id, current_address, pickup_address, " +
			"dropoff_address, starting_cycle_hours, polyline, places, summary, created_at) values " +
			"(:trip_id, :user_id, :current_address, :pickup_address, :dropoff_address, " +
			":starting_cycle_hours, :polyline, :places, :summary, :created_at)")
		if _, err := tx.NamedExecContext(ctx, statement, row); err != nil {
			return fmt.Errorf("inserting trip %s: %w", trip.ID, err)
		}

		stopStatement := tx.Rebind("insert into trip_stop (trip_id, stop_order, kind, name, address, " +
			"lat, lng, arrival, departure, duration_minutes, activity, duty_status, trigger_limit) values " +
			"(:trip_id, :stop_order, :kind, :name, :address, :lat, :lng, :arrival, :departure, " +
			":duration_minutes, :activity, :duty_status, :trigger_limit)")
		for _, stop := range trip.Stops {
			if _, err := tx.NamedExecContext(ctx, stopStatement, makeStopRow(trip.ID, stop)); err != nil {
				return fmt.Errorf("inserting stop %d of trip %s: %w", stop.Order, trip.ID, err)
			}
		}

		logStatement := tx.Rebind("insert into trip_daily_log (trip_id, day_number, log_date, timezone, " +
			"holiday, start_location, end_location, total_miles, off_duty_hours, sleeper_hours, " +
			"driving_hours, on_duty_hours, entries, remarks) values " +
			"(:trip_id, :day_number, :log_date, :timezone, :holiday, :start_location, :end_location, " +
			":total_miles, :off_duty_hours, :sleeper_hours, :driving_hours, :on_duty_hours, :entries, :remarks)")
		for _, daily := range trip.DailyLogs {
			logRow, err := makeDailyLogRow(trip.ID, daily)
			if err != nil {
				return err
			}
			if _, err := tx.NamedExecContext(ctx, logStatement, logRow); err != nil {
				return fmt.Errorf("inserting day %d of trip %s: %w", daily.Day, trip.ID, err)
			}
		}
		return nil
	})
}

//GetByID loads a full trip owned by userID. A trip that does not exist and a
//trip owned by someone else are the same not-found answer.
func (s *Store) GetByID(ctx context.Context, tripID, userID uuid.UUID) (*Trip, error) {
	var row tripRow
	statement := s.db.Rebind("select * from trip where trip_id = ? and user_id = ?")
	if err := s.db.GetContext(ctx, &row, statement, tripID, userID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, apperror.Newf(apperror.NotFound, "trip %s not found", tripID)
		}
		return nil, fmt.Errorf("loading trip %s: %w", tripID, err)
	}

	trip, err := tripFromRow(row)
	if err != nil {
		return nil, err
	}

	var stopRows []stopRow
	statement = s.db.Rebind("select * from trip_stop where trip_id = ? order by stop_order")
	if err := s.db.SelectContext(ctx, &stopRows, statement, tripID); err != nil {
		return nil, fmt.Errorf("loading stops of trip %s: %w", tripID, err)
	}
	trip.Stops = make([]hos.Stop, 0, len(stopRows))
	for _, sr := range stopRows {
		trip.Stops = append(trip.Stops, stopFromRow(sr))
	}

	var logRows []dailyLogRow
	statement = s.db.Rebind("select * from trip_daily_log where trip_id = ? order by day_number")
	if err := s.db.SelectContext(ctx, &logRows, statement, tripID); err != nil {
		return nil, fmt.Errorf("loading daily logs of trip %s: %w", tripID, err)
	}
	trip.DailyLogs = make([]hos.DailyLog, 0, len(logRows))
	for _, lr := range logRows {
		daily, err := dailyLogFromRow(lr)
		if err != nil {
			return nil, err
		}
		trip.DailyLogs = append(trip.DailyLogs, daily)
	}

	return trip, nil
}

//ListByUser returns the user's trips newest first, truncated for listing.
func (s *Store) ListByUser(ctx context.Context, userID uuid.UUID) ([]Listing, error) {
	statement := s.db.Rebind("select trip_id, current_address, pickup_address, dropoff_address, " +
		"(summary->>'total_distance_miles')::float8 as total_distance_miles, " +
		"(summary->>'total_driving_hours')::float8 as total_driving_hours, " +
		"(summary->>'total_days')::int as total_days, " +
		"(summary->>'start_time')::timestamptz as start_time, " +
		"(summary->>'end_time')::timestamptz as end_time, " +
		"created_at from trip where user_id = ? order by created_at desc")

	listings := make([]Listing, 0)
	if err := s.db.SelectContext(ctx, &listings, statement, userID); err != nil {
		return nil, fmt.Errorf("listing trips for user %s: %w", userID, err)
	}
	return listings, nil
}

//Delete removes a trip and, through the cascading foreign keys, its stops and
//daily logs.
func (s *Store) Delete(ctx context.Context, tripID, userID uuid.UUID) error {
	statement := s.db.Rebind("delete from trip where trip_id = ? and user_id = ?")
	result, err := s.db.ExecContext(ctx, statement, tripID, userID)
	if err != nil {
		return fmt.Errorf("deleting trip %s: %w", tripID, err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("deleting trip %s: %w", tripID, err)
	}
	if affected == 0 {
		return apperror.Newf(apperror.NotFound, "trip %s not found", tripID)
	}
	return nil
}

func makeTripRow(trip *Trip) (tripRow, error) {
	places, err := json.Marshal(tripPlaces{Start: trip.Start, Pickup: trip.Pickup, Dropoff: trip.Dropoff})
	if err != nil {
		return tripRow{}, fmt.Errorf("marshaling trip places: %w", err)
	}
	summary, err := json.Marshal(trip.Summary)
	if err != nil {
		return tripRow{}, fmt.Errorf("marshaling trip summary: %w", err)
	}
	return tripRow{
		ID:               trip.ID,
		UserID:           trip.UserID,
		CurrentAddress:   trip.CurrentAddress,
		PickupAddress:    trip.PickupAddress,
		DropoffAddress:   trip.DropoffAddress,
		StartingCycleHrs: trip.StartingCycleHrs,
		Polyline:         trip.Polyline,
		Places:           places,
		Summary:          summary,
		CreatedAt:        trip.CreatedAt,
	}, nil
}

func tripFromRow(row tripRow) (*Trip, error) {
	var places tripPlaces
	if err := json.Unmarshal(row.Places, &places); err != nil {
		return nil, fmt.Errorf("unmarshaling places of trip %s: %w", row.ID, err)
	}
	var summary hos.TripSummary
	if err := json.Unmarshal(row.Summary, &summary); err != nil {
		return nil, fmt.Errorf("unmarshaling summary of trip %s: %w", row.ID, err)
	}
	return &Trip{
		ID:               row.ID,
		UserID:           row.UserID,
		CurrentAddress:   row.CurrentAddress,
		PickupAddress:    row.PickupAddress,
		DropoffAddress:   row.DropoffAddress,
		StartingCycleHrs: row.StartingCycleHrs,
		Polyline:         row.Polyline,
		CreatedAt:        row.CreatedAt,
		Start:            places.Start,
		Pickup:           places.Pickup,
		Dropoff:          places.Dropoff,
		Summary:          summary,
	}, nil
}

func makeStopRow(tripID uuid.UUID, stop hos.Stop) stopRow {
	return stopRow{
		TripID:          tripID,
		StopOrder:       stop.Order,
		Kind:            string(stop.Kind),
		Name:            stop.Name,
		Address:         stop.Address,
		Lat:             stop.Coordinate.Lat,
		Lng:             stop.Coordinate.Lng,
		Arrival:         stop.Arrival,
		Departure:       stop.Departure,
		DurationMinutes: stop.DurationMinutes,
		Activity:        stop.Activity,
		DutyStatus:      string(stop.Status),
		Trigger:         string(stop.Trigger),
	}
}

func stopFromRow(row stopRow) hos.Stop {
	return hos.Stop{
		Order:           row.StopOrder,
		Kind:            hos.StopKind(row.Kind),
		Name:            row.Name,
		Address:         row.Address,
		Coordinate:      hos.Coordinate{Lat: row.Lat, Lng: row.Lng},
		Arrival:         row.Arrival,
		Departure:       row.Departure,
		DurationMinutes: row.DurationMinutes,
		Activity:        row.Activity,
		Status:          hos.DutyStatus(row.DutyStatus),
		Trigger:         hos.LimitTrigger(row.Trigger),
	}
}

func makeDailyLogRow(tripID uuid.UUID, daily hos.DailyLog) (dailyLogRow, error) {
	entries, err := json.Marshal(daily.Entries)
	if err != nil {
		return dailyLogRow{}, fmt.Errorf("marshaling entries of day %d: %w", daily.Day, err)
	}
	remarks, err := json.Marshal(daily.Remarks)
	if err != nil {
		return dailyLogRow{}, fmt.Errorf("marshaling remarks of day %d: %w", daily.Day, err)
	}
	return dailyLogRow{
		TripID:        tripID,
		DayNumber:     daily.Day,
		LogDate:       daily.Date,
		Timezone:      daily.Timezone,
		Holiday:       daily.Holiday,
		StartLocation: daily.StartLocation,
		EndLocation:   daily.EndLocation,
		TotalMiles:    daily.TotalMiles,
		OffDutyHours:  daily.Hours.OffDuty,
		SleeperHours:  daily.Hours.SleeperBerth,
		DrivingHours:  daily.Hours.Driving,
		OnDutyHours:   daily.Hours.OnDuty,
		Entries:       entries,
		Remarks:       remarks,
	}, nil
}

func dailyLogFromRow(row dailyLogRow) (hos.DailyLog, error) {
	var entries []hos.LogEntry
	if err := json.Unmarshal(row.Entries, &entries); err != nil {
		return hos.DailyLog{}, fmt.Errorf("unmarshaling entries of day %d: %w", row.DayNumber, err)
	}
	var remarks []hos.Remark
	if err := json.Unmarshal(row.Remarks, &remarks); err != nil {
		return hos.DailyLog{}, fmt.Errorf("unmarshaling remarks of day %d: %w", row.DayNumber, err)
	}
	return hos.DailyLog{
		Day:           row.DayNumber,
		Date:          row.LogDate,
		Timezone:      row.Timezone,
		Holiday:       row.Holiday,
		StartLocation: row.StartLocation,
		EndLocation:   row.EndLocation,
		TotalMiles:    row.TotalMiles,
		Hours: hos.DutyHours{
			OffDuty:      row.OffDutyHours,
			SleeperBerth: row.SleeperHours,
			Driving:      row.DrivingHours,
			OnDuty:       row.OnDutyHours,
		},
		Entries: entries,
		Remarks: remarks,
	}, nil
}
