// Package hos builds FMCSA hours-of-service compliant schedules for planned
// pickup and delivery trips, and projects them into per-day duty logs.
package hos

import (
	"math"
	"time"
)

//Rules holds the property-carrying driver limits and the fixed activity
//durations the scheduler plans with. All durations are whole minutes.
type Rules struct {
	//DrivingLimit is the maximum driving time between 10 hour resets
	DrivingLimit time.Duration
	//OnDutyWindow is the elapsed span from window open inside which all driving must finish
	OnDutyWindow time.Duration
	//BreakAfter is the cumulative driving time that forces a 30 minute break
	BreakAfter    time.Duration
	BreakDuration time.Duration
	//OffDutyReset is the consecutive off-duty time that resets the daily counters
	OffDutyReset time.Duration
	//CycleLimit is the on-duty ceiling measured over CycleWindowDays
	CycleLimit      time.Duration
	CycleWindowDays int
	//RestartDuration is the consecutive off-duty time that zeroes the cycle
	RestartDuration   time.Duration
	FuelIntervalMiles float64

	PreTrip  time.Duration
	PostTrip time.Duration
	Pickup   time.Duration
	Dropoff  time.Duration
	Fueling  time.Duration
}

//DefaultRules returns the standard 70 hour / 8 day property-carrying rule set.
func DefaultRules() Rules {
	return Rules{
		DrivingLimit:      11 * time.Hour,
		OnDutyWindow:      14 * time.Hour,
		BreakAfter:        8 * time.Hour,
		BreakDuration:     30 * time.Minute,
		OffDutyReset:      10 * time.Hour,
		CycleLimit:        70 * time.Hour,
		CycleWindowDays:   8,
		RestartDuration:   34 * time.Hour,
		FuelIntervalMiles: 1000,
		PreTrip:           30 * time.Minute,
		PostTrip:          30 * time.Minute,
		Pickup:            time.Hour,
		Dropoff:           time.Hour,
		Fueling:           30 * time.Minute,
	}
}

//durationFromHours converts fractional hours into a whole-minute duration,
//rounding half to even so schedules are reproducible.
func durationFromHours(hours float64) time.Duration {
	return time.Duration(math.RoundToEven(hours*60)) * time.Minute
}

//roundHours reports a duration as hours with two decimal places.
func roundHours(d time.Duration) float64 {
	return math.Round(d.Minutes()/60*100) / 100
}

//roundMiles reports miles with two decimal places.
func roundMiles(miles float64) float64 {
	return math.Round(miles*100) / 100
}
