package trips

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/routehaul/hosplan/business/hos"
)

func testTrip() *Trip {
	start := time.Date(2026, 1, 17, 12, 30, 0, 0, time.UTC)
	return &Trip{
		ID:               uuid.New(),
		UserID:           uuid.New(),
		CurrentAddress:   "Chicago, IL",
		PickupAddress:    "Milwaukee, WI",
		DropoffAddress:   "Madison, WI",
		StartingCycleHrs: 12.5,
		Polyline:         "_p~iF~ps|U",
		CreatedAt:        start,
		Start: hos.NamedPlace{
			Address:     "Chicago, IL",
			DisplayName: "Chicago, Cook County, Illinois, USA",
			Coordinate:  hos.Coordinate{Lat: 41.8781, Lng: -87.6298},
			Timezone:    "America/Chicago",
		},
		Summary: hos.TripSummary{
			TotalDistanceMiles: 204.2,
			TotalDrivingHours:  3.7,
			TotalDays:          1,
			StartTime:          start,
			EndTime:            start.Add(7 * time.Hour),
			StopCounts:         map[hos.StopKind]int{hos.StopStart: 1},
		},
	}
}

func TestTripRowRoundTrip(t *testing.T) {
	trip := testTrip()

	row, err := makeTripRow(trip)
	if err != nil {
		t.Fatalf("makeTripRow() error = %v", err)
	}
	got, err := tripFromRow(row)
	if err != nil {
		t.Fatalf("tripFromRow() error = %v", err)
	}

	if got.ID != trip.ID || got.UserID != trip.UserID {
		t.Errorf("ids changed: got %s/%s, want %s/%s", got.ID, got.UserID, trip.ID, trip.UserID)
	}
	if got.Start.Timezone != "America/Chicago" {
		t.Errorf("start place timezone = %q, want America/Chicago", got.Start.Timezone)
	}
	if got.Summary.TotalDistanceMiles != trip.Summary.TotalDistanceMiles {
		t.Errorf("summary distance = %v, want %v", got.Summary.TotalDistanceMiles, trip.Summary.TotalDistanceMiles)
	}
	if got.Summary.StopCounts[hos.StopStart] != 1 {
		t.Errorf("summary stop counts lost in the jsonb column: %v", got.Summary.StopCounts)
	}
}

func TestStopRowPreservesTrigger(t *testing.T) {
	tripID := uuid.New()
	stop := hos.Stop{
		Order:           3,
		Kind:            hos.StopRest10Hr,
		Name:            "Love's Travel Stop",
		Address:         "Rest Area near 40.1234, -98.5678",
		Coordinate:      hos.Coordinate{Lat: 40.1234, Lng: -98.5678},
		Arrival:         time.Date(2026, 1, 17, 22, 0, 0, 0, time.UTC),
		Departure:       time.Date(2026, 1, 18, 8, 0, 0, 0, time.UTC),
		DurationMinutes: 600,
		Activity:        "10-hour rest period",
		Status:          hos.OffDuty,
		Trigger:         hos.TriggerDutyWindow,
	}

	got := stopFromRow(makeStopRow(tripID, stop))
	if got != stop {
		t.Errorf("stop changed through row conversion:\ngot  %+v\nwant %+v", got, stop)
	}

	//fixed trip stops carry no trigger and must stay that way
	stop.Trigger = ""
	stop.Kind = hos.StopPickup
	if got := stopFromRow(makeStopRow(tripID, stop)); got.Trigger != "" {
		t.Errorf("empty trigger came back as %q", got.Trigger)
	}
}

func TestDailyLogRowRoundTrip(t *testing.T) {
	daily := hos.DailyLog{
		Day:           2,
		Date:          "2026-01-18",
		Timezone:      "America/Chicago",
		Holiday:       "",
		StartLocation: "Omaha, Douglas County, Nebraska, USA",
		EndLocation:   "Denver, Denver County, Colorado, USA",
		TotalMiles:    412.77,
		Hours:         hos.DutyHours{OffDuty: 9.5, SleeperBerth: 0, Driving: 10.25, OnDuty: 4.25},
		Entries: []hos.LogEntry{
			{Status: hos.OffDuty, Start: "00:00", End: "06:00", Location: "Omaha, Douglas County, Nebraska, USA"},
			{Status: hos.Driving, Start: "06:00", End: "14:15", Location: "Omaha, Douglas County, Nebraska, USA", Activity: "Driving to dropoff"},
		},
		Remarks: []hos.Remark{
			{Time: "06:00", Location: "Omaha, Douglas County, Nebraska, USA", Activity: "Driving to dropoff"},
		},
	}

	tripID := uuid.New()
	row, err := makeDailyLogRow(tripID, daily)
	if err != nil {
		t.Fatalf("makeDailyLogRow() error = %v", err)
	}
	if row.TripID != tripID || row.DayNumber != 2 || row.LogDate != "2026-01-18" {
		t.Fatalf("row keys wrong: %+v", row)
	}

	got, err := dailyLogFromRow(row)
	if err != nil {
		t.Fatalf("dailyLogFromRow() error = %v", err)
	}
	if got.Hours != daily.Hours {
		t.Errorf("hours = %+v, want %+v", got.Hours, daily.Hours)
	}
	if len(got.Entries) != 2 || got.Entries[1].Activity != "Driving to dropoff" {
		t.Errorf("entries lost in the jsonb column: %+v", got.Entries)
	}
	if len(got.Remarks) != 1 {
		t.Errorf("remarks lost in the jsonb column: %+v", got.Remarks)
	}
}
