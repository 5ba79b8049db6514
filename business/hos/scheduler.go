package hos

import (
	"context"
	"fmt"
	"time"

	"github.com/routehaul/hosplan/foundation/apperror"
)

//StopLocator finds a plausible truck stop near a point along the route. The
//scheduler treats the locator as advisory: a failure falls back to a
//placeholder place and never fails the schedule.
type StopLocator interface {
	FindStop(ctx context.Context, near Coordinate, kind StopKind) (NamedPlace, error)
}

//defaultStopNames label inserted stops when the locator has nothing better.
var defaultStopNames = map[StopKind]string{
	StopFuel:        "Fuel Station",
	StopBreak30Min:  "Rest Area",
	StopRest10Hr:    "Truck Stop",
	StopRestart34Hr: "Home Terminal / Truck Stop",
}

//Scheduler builds compliant schedules from routed trip plans. It holds no
//mutable state and is safe for concurrent use.
type Scheduler struct {
	rules   Rules
	locator StopLocator
}

//MakeScheduler builds a Scheduler over a rule set. locator may be nil, in
//which case inserted stops carry placeholder names at interpolated positions.
func MakeScheduler(rules Rules, locator StopLocator) Scheduler {
	return Scheduler{
		rules:   rules,
		locator: locator,
	}
}

//BuildSchedule runs plan through the duty limits and returns the ordered
//stops, the activity tiling and the trip summary. The schedule is
//deterministic: the same plan and the same locator answers produce identical
//output.
func (s Scheduler) BuildSchedule(ctx context.Context, plan TripPlan) (*Schedule, error) {
	if err := validatePlan(plan, s.rules); err != nil {
		return nil, err
	}
	run := makeTripRun(s.rules, s.locator, plan)
	if err := run.execute(ctx); err != nil {
		return nil, err
	}
	return run.schedule(), nil
}

func validatePlan(plan TripPlan, rules Rules) error {
	if plan.StartTime.IsZero() {
		return apperror.New(apperror.Validation, "start_time is required").
			WithDetail("field", "start_time")
	}
	if plan.OpeningCycleHours < 0 || plan.OpeningCycleHours > rules.CycleLimit.Hours() {
		return apperror.Newf(apperror.Validation, "current_cycle_hours must be between 0 and %g",
			rules.CycleLimit.Hours()).
			WithDetail("field", "current_cycle_hours")
	}
	for _, seg := range []RouteSegment{plan.ToPickup, plan.ToDropoff} {
		if seg.DistanceMiles < 0 || seg.DurationHours < 0 {
			return apperror.New(apperror.Validation, "route segments must have non-negative distance and duration")
		}
		if seg.DistanceMiles > 0 && seg.DurationHours == 0 {
			return apperror.New(apperror.Validation, "route segment with positive distance needs a positive duration")
		}
	}
	return nil
}

//tripRun is the scheduler state machine for a single plan. All counters are
//whole minutes so every run of the same plan lands on the same instants.
type tripRun struct {
	rules   Rules
	locator StopLocator
	plan    TripPlan

	driveLimit  int
	windowLimit int
	breakAfter  int
	cycleLimit  int

	now             time.Time
	driveToday      int
	windowStart     *time.Time
	driveSinceBreak int
	cycleUsed       int
	milesSinceFuel  float64
	position        NamedPlace

	stops      []Stop
	activities []Activity

	driveMinutes  int
	onDutyMinutes int
	totalMiles    float64
}

func makeTripRun(rules Rules, locator StopLocator, plan TripPlan) *tripRun {
	return &tripRun{
		rules:       rules,
		locator:     locator,
		plan:        plan,
		driveLimit:  minutesOf(rules.DrivingLimit),
		windowLimit: minutesOf(rules.OnDutyWindow),
		breakAfter:  minutesOf(rules.BreakAfter),
		cycleLimit:  minutesOf(rules.CycleLimit),
		now:         plan.StartTime,
		cycleUsed:   minutesOf(durationFromHours(plan.OpeningCycleHours)),
		position:    plan.Start,
	}
}

//execute walks the fixed trip program: pre-trip, first segment, pickup,
//second segment, dropoff, post-trip. A driver who arrives with the cycle
//already at its ceiling cannot log any on-duty time, so the trip opens with a
//restart at the starting location.
func (r *tripRun) execute(ctx context.Context) error {
	if r.cycleUsed >= r.cycleLimit {
		r.addStop(StopRestart34Hr, defaultStopNames[StopRestart34Hr], r.plan.Start.Label(),
			r.plan.Start.Coordinate, "34-hour restart", r.rules.RestartDuration, OffDuty, TriggerCycleLimit)
		r.cycleUsed = 0
		r.resetDaily()
	}

	r.addStop(StopStart, "Starting Location", r.plan.Start.Label(),
		r.plan.Start.Coordinate, "Pre-trip inspection", r.rules.PreTrip, OnDutyNotDriving, "")

	if err := r.driveSegment(ctx, r.plan.ToPickup, "Driving to pickup"); err != nil {
		return err
	}
	r.addStop(StopPickup, "Pickup Location", r.plan.Pickup.Label(),
		r.plan.Pickup.Coordinate, "Loading", r.rules.Pickup, OnDutyNotDriving, "")

	if err := r.driveSegment(ctx, r.plan.ToDropoff, "Driving to dropoff"); err != nil {
		return err
	}
	r.addStop(StopDropoff, "Dropoff Location", r.plan.Dropoff.Label(),
		r.plan.Dropoff.Coordinate, "Unloading", r.rules.Dropoff, OnDutyNotDriving, "")
	r.addStop(StopEndPostTrip, "Dropoff Location", r.plan.Dropoff.Label(),
		r.plan.Dropoff.Coordinate, "Post-trip inspection", r.rules.PostTrip, OnDutyNotDriving, "")

	return nil
}

//driveSegment drives one routed leg, slicing the remaining time against
//whichever duty limit allows the least and inserting the mandated stop when
//nothing is allowed. Miles decrease in proportion to minutes at the
//segment's average speed; the final slice takes the exact remainder so the
//segment total survives float arithmetic.
func (r *tripRun) driveSegment(ctx context.Context, seg RouteSegment, description string) error {
	totalMinutes := minutesOf(durationFromHours(seg.DurationHours))
	if totalMinutes <= 0 {
		//a leg too short to schedule still moves the truck
		r.totalMiles += seg.DistanceMiles
		r.milesSinceFuel += seg.DistanceMiles
		return nil
	}

	remaining := totalMinutes
	milesLeft := seg.DistanceMiles
	covered := 0.0
	fueling := minutesOf(r.rules.Fueling)

	for remaining > 0 {
		if err := ctx.Err(); err != nil {
			return apperror.Wrap(apperror.UpstreamTimeout, err, "schedule build cancelled")
		}
		here := segmentPoint(seg, covered)

		avail := r.available()
		if avail <= 0 {
			r.relieveLimit(ctx, here)
			continue
		}

		if r.milesSinceFuel >= r.rules.FuelIntervalMiles && avail >= fueling {
			name, place := r.stopPlace(ctx, StopFuel, here)
			r.addStop(StopFuel, name, place.Address, place.Coordinate,
				"Fueling", r.rules.Fueling, OnDutyNotDriving, TriggerFuelInterval)
			r.milesSinceFuel = 0
			avail -= fueling
			if avail <= 0 {
				continue
			}
		}

		slice := avail
		if remaining < slice {
			slice = remaining
		}
		miles := milesLeft
		if slice < remaining {
			miles = seg.DistanceMiles * float64(slice) / float64(totalMinutes)
		}

		if r.windowStart == nil {
			anchor := r.now
			r.windowStart = &anchor
		}
		start := r.now
		end := start.Add(time.Duration(slice) * time.Minute)
		r.activities = append(r.activities, Activity{
			Status:      Driving,
			Start:       start,
			End:         end,
			Description: description,
			Place:       r.position,
			Miles:       miles,
		})

		r.now = end
		r.driveToday += slice
		r.driveSinceBreak += slice
		r.cycleUsed += slice
		r.milesSinceFuel += miles
		r.driveMinutes += slice
		r.onDutyMinutes += slice
		r.totalMiles += miles
		covered += miles
		milesLeft -= miles
		remaining -= slice
	}
	return nil
}

//relieveLimit inserts the stop mandated by whichever limit binds right now.
//Priority is fixed: the cycle forces a restart, the window or the driving
//limit force a 10 hour rest, and only then does the break rule get a say.
func (r *tripRun) relieveLimit(ctx context.Context, here Coordinate) {
	switch trigger := r.binding(); trigger {
	case TriggerCycleLimit:
		name, place := r.stopPlace(ctx, StopRestart34Hr, here)
		r.addStop(StopRestart34Hr, name, place.Address, place.Coordinate,
			"34-hour restart", r.rules.RestartDuration, OffDuty, trigger)
		r.cycleUsed = 0
		r.resetDaily()

	case TriggerDutyWindow, TriggerDrivingLimit:
		name, place := r.stopPlace(ctx, StopRest10Hr, here)
		r.addStop(StopRest10Hr, name, place.Address, place.Coordinate,
			"10-hour rest period", r.rules.OffDutyReset, OffDuty, trigger)
		r.resetDaily()

	default:
		name, place := r.stopPlace(ctx, StopBreak30Min, here)
		r.addStop(StopBreak30Min, name, place.Address, place.Coordinate,
			"30-minute break", r.rules.BreakDuration, OnDutyNotDriving, TriggerBreakAfter)
		r.driveSinceBreak = 0
	}
}

//binding names the limit that stops the truck. The window is checked ahead
//of the driving limit so a simultaneous exhaustion records the window as the
//proximate cause.
func (r *tripRun) binding() LimitTrigger {
	if r.cycleUsed >= r.cycleLimit {
		return TriggerCycleLimit
	}
	if r.windowStart != nil && int(r.now.Sub(*r.windowStart)/time.Minute) >= r.windowLimit {
		return TriggerDutyWindow
	}
	if r.driveToday >= r.driveLimit {
		return TriggerDrivingLimit
	}
	return TriggerBreakAfter
}

//available is the longest contiguous drive permitted right now, in minutes.
func (r *tripRun) available() int {
	avail := r.driveLimit - r.driveToday
	if w := r.windowRemaining(); w < avail {
		avail = w
	}
	if b := r.breakAfter - r.driveSinceBreak; b < avail {
		avail = b
	}
	if c := r.cycleLimit - r.cycleUsed; c < avail {
		avail = c
	}
	if avail < 0 {
		return 0
	}
	return avail
}

//windowRemaining reports the minutes left in the on-duty window, the full
//span while the window is closed.
func (r *tripRun) windowRemaining() int {
	if r.windowStart == nil {
		return r.windowLimit
	}
	return r.windowLimit - int(r.now.Sub(*r.windowStart)/time.Minute)
}

func (r *tripRun) resetDaily() {
	r.driveToday = 0
	r.driveSinceBreak = 0
	r.windowStart = nil
}

//addStop records a stop and its matching activity, advances the clock, and
//accrues cycle time for on-duty stops. The first on-duty event after a reset
//opens the 14 hour window.
func (r *tripRun) addStop(kind StopKind, name, address string, at Coordinate, activity string,
	d time.Duration, status DutyStatus, trigger LimitTrigger) {

	minutes := minutesOf(d)
	arrive := r.now
	depart := arrive.Add(d)

	if status != OffDuty && r.windowStart == nil {
		anchor := arrive
		r.windowStart = &anchor
	}
	if status == OnDutyNotDriving {
		r.cycleUsed += minutes
		r.onDutyMinutes += minutes
	}

	place := NamedPlace{Address: address, Coordinate: at}
	r.stops = append(r.stops, Stop{
		Order:           len(r.stops) + 1,
		Kind:            kind,
		Name:            name,
		Address:         address,
		Coordinate:      RoundCoordinate(at),
		Arrival:         arrive,
		Departure:       depart,
		DurationMinutes: minutes,
		Activity:        activity,
		Status:          status,
		Trigger:         trigger,
	})
	r.activities = append(r.activities, Activity{
		Status:      status,
		Start:       arrive,
		End:         depart,
		Description: activity,
		Place:       place,
	})

	r.now = depart
	r.position = place
}

//stopPlace resolves a name and a place for a stop inserted mid-route.
//Locator failures are swallowed, the schedule never depends on the locator
//answering.
func (r *tripRun) stopPlace(ctx context.Context, kind StopKind, near Coordinate) (string, NamedPlace) {
	name := defaultStopNames[kind]
	if r.locator != nil {
		place, err := r.locator.FindStop(ctx, near, kind)
		if err == nil {
			if place.DisplayName != "" {
				name = place.DisplayName
			}
			if place.Coordinate == (Coordinate{}) {
				place.Coordinate = near
			}
			if place.Address == "" {
				place.Address = placeholderAddress(near)
			}
			return name, place
		}
	}
	return name, NamedPlace{
		Address:    placeholderAddress(near),
		Coordinate: near,
	}
}

func placeholderAddress(at Coordinate) string {
	return fmt.Sprintf("Rest Area near %.4f, %.4f", at.Lat, at.Lng)
}

func (r *tripRun) schedule() *Schedule {
	counts := make(map[StopKind]int, len(r.stops))
	for _, st := range r.stops {
		counts[st.Kind]++
	}
	cycleLeft := r.cycleLimit - r.cycleUsed
	if cycleLeft < 0 {
		cycleLeft = 0
	}

	return &Schedule{
		Stops:      r.stops,
		Activities: r.activities,
		Summary: TripSummary{
			TotalDistanceMiles:  roundMiles(r.totalMiles),
			TotalDrivingHours:   roundHours(time.Duration(r.driveMinutes) * time.Minute),
			TotalOnDutyHours:    roundHours(time.Duration(r.onDutyMinutes) * time.Minute),
			StartTime:           r.plan.StartTime,
			EndTime:             r.now,
			CycleHoursUsed:      roundHours(durationFromHours(r.plan.OpeningCycleHours)),
			CycleHoursRemaining: roundHours(time.Duration(cycleLeft) * time.Minute),
			StopCounts:          counts,
		},
	}
}

//segmentPoint interpolates the truck's position after covering the given
//miles of a segment.
func segmentPoint(seg RouteSegment, coveredMiles float64) Coordinate {
	if seg.DistanceMiles <= 0 {
		return seg.Destination.Coordinate
	}
	return positionAlong(seg, coveredMiles/seg.DistanceMiles)
}

func minutesOf(d time.Duration) int {
	return int(d / time.Minute)
}
