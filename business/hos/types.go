package hos

import (
	"time"
)

//Coordinate is a position in decimal degrees, six fractional digits.
type Coordinate struct {
	Lat float64 `json:"lat"`
	Lng float64 `json:"lng"`
}

//NamedPlace is a resolved location: the address the caller supplied, the
//canonical display name the resolver produced, and its coordinate. Timezone
//carries the IANA zone name when the resolver knows it.
type NamedPlace struct {
	Address     string     `json:"address"`
	DisplayName string     `json:"display_name"`
	Coordinate  Coordinate `json:"coordinates"`
	Timezone    string     `json:"timezone,omitempty"`
}

//Label returns the best human readable name for the place.
func (p NamedPlace) Label() string {
	if p.DisplayName != "" {
		return p.DisplayName
	}
	return p.Address
}

//RouteSegment is one routed leg of the trip.
type RouteSegment struct {
	Origin        NamedPlace `json:"origin"`
	Destination   NamedPlace `json:"destination"`
	DistanceMiles float64    `json:"distance_miles"`
	DurationHours float64    `json:"duration_hours"`
	//Polyline is the encoded path, precision 5. Optional.
	Polyline string `json:"polyline,omitempty"`
	//Path is the decoded polyline, used to interpolate positions. Optional.
	Path []Coordinate `json:"-"`
}

//DutyStatus is one of the four statuses that partition a driver's day.
type DutyStatus string

const (
	OffDuty          DutyStatus = "OFF_DUTY"
	SleeperBerth     DutyStatus = "SLEEPER_BERTH"
	Driving          DutyStatus = "DRIVING"
	OnDutyNotDriving DutyStatus = "ON_DUTY_NOT_DRIVING"
)

//StopKind identifies what happens at a stop.
type StopKind string

const (
	StopStart       StopKind = "START"
	StopPickup      StopKind = "PICKUP"
	StopDropoff     StopKind = "DROPOFF"
	StopFuel        StopKind = "FUEL"
	StopBreak30Min  StopKind = "BREAK_30MIN"
	StopRest10Hr    StopKind = "REST_10HR"
	StopRestart34Hr StopKind = "RESTART_34HR"
	StopEndPostTrip StopKind = "END_POST_TRIP"
)

//LimitTrigger names the limit that forced an inserted compliance stop. Fixed
//trip stops carry no trigger. When the 14 hour window and the 11 hour driving
//limit bind at the same instant the window is recorded.
type LimitTrigger string

const (
	TriggerCycleLimit   LimitTrigger = "70hr_cycle"
	TriggerDutyWindow   LimitTrigger = "14hr_window"
	TriggerDrivingLimit LimitTrigger = "11hr_driving"
	TriggerBreakAfter   LimitTrigger = "8hr_driving"
	TriggerFuelInterval LimitTrigger = "fuel_interval"
)

//Stop is a named, time bounded event along the trip.
type Stop struct {
	Order           int          `json:"order"`
	Kind            StopKind     `json:"kind"`
	Name            string       `json:"name"`
	Address         string       `json:"address"`
	Coordinate      Coordinate   `json:"coordinates"`
	Arrival         time.Time    `json:"arrival"`
	Departure       time.Time    `json:"departure"`
	DurationMinutes int          `json:"duration_minutes"`
	Activity        string       `json:"activity"`
	Status          DutyStatus   `json:"duty_status"`
	Trigger         LimitTrigger `json:"trigger,omitempty"`
}

//Activity is a contiguous interval with a single duty status. The scheduler
//emits activities that tile the trip from first event to last with no gaps;
//the projector splits them at midnight. Miles is how far the truck moved
//during the interval, zero except for driving.
type Activity struct {
	Status      DutyStatus
	Start       time.Time
	End         time.Time
	Description string
	//Place anchors the activity at the location where it began.
	Place NamedPlace
	Miles float64
}

//TripPlan is the scheduler input: a routed two-segment trip with a start
//wall clock and the driver's already accrued cycle hours.
type TripPlan struct {
	StartTime         time.Time
	Start             NamedPlace
	Pickup            NamedPlace
	Dropoff           NamedPlace
	ToPickup          RouteSegment
	ToDropoff         RouteSegment
	OpeningCycleHours float64
}

//TripSummary aggregates the schedule. CycleHoursUsed is the opening value the
//driver arrived with; CycleHoursRemaining is the headroom left at trip end.
type TripSummary struct {
	TotalDistanceMiles  float64          `json:"total_distance_miles"`
	TotalDrivingHours   float64          `json:"total_driving_hours"`
	TotalOnDutyHours    float64          `json:"total_on_duty_hours"`
	TotalDays           int              `json:"total_days"`
	StartTime           time.Time        `json:"start_time"`
	EndTime             time.Time        `json:"end_time"`
	CycleHoursUsed      float64          `json:"cycle_hours_used"`
	CycleHoursRemaining float64          `json:"cycle_hours_remaining"`
	StopCounts          map[StopKind]int `json:"stop_counts"`
}

//Schedule is the scheduler output before daily projection. TotalDays on the
//summary is filled in once the daily logs exist.
type Schedule struct {
	Stops      []Stop
	Activities []Activity
	Summary    TripSummary
}

//DutyHours are one day's totals per duty status, in hours with two decimal
//places. The four always sum to 24 within a minute's rounding.
type DutyHours struct {
	OffDuty      float64 `json:"off_duty"`
	SleeperBerth float64 `json:"sleeper_berth"`
	Driving      float64 `json:"driving"`
	OnDuty       float64 `json:"on_duty"`
}

//LogEntry is one duty-status interval on a day's grid. Start and End are
//local clock times, "HH:MM"; the end of the day renders as "24:00".
type LogEntry struct {
	Status   DutyStatus `json:"status"`
	Start    string     `json:"start"`
	End      string     `json:"end"`
	Location string     `json:"location"`
	Activity string     `json:"activity,omitempty"`
}

//Remark is a log annotation at a status transition.
type Remark struct {
	Time     string `json:"time"`
	Location string `json:"location"`
	Activity string `json:"activity"`
}

//DailyLog is one calendar day's duty accounting in the trip's reference zone.
type DailyLog struct {
	Day           int        `json:"day"`
	Date          string     `json:"date"`
	Timezone      string     `json:"timezone"`
	Holiday       string     `json:"holiday,omitempty"`
	StartLocation string     `json:"start_location"`
	EndLocation   string     `json:"end_location"`
	TotalMiles    float64    `json:"total_miles"`
	Hours         DutyHours  `json:"hours"`
	Entries       []LogEntry `json:"entries"`
	Remarks       []Remark   `json:"remarks"`
}
