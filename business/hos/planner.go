package hos

import (
	"context"
	"time"
)

//Planner runs the scheduler and the daily log projector as one unit.
type Planner struct {
	scheduler Scheduler
	holidays  *HolidayCalendar
}

//MakePlanner builds a Planner over a rule set. locator may be nil.
func MakePlanner(rules Rules, locator StopLocator) Planner {
	return Planner{
		scheduler: MakeScheduler(rules, locator),
		holidays:  MakeHolidayCalendar(),
	}
}

//PlanResult couples a schedule with its per-day duty logs.
type PlanResult struct {
	Schedule  *Schedule
	DailyLogs []DailyLog
}

//Plan builds the compliant schedule for plan and projects its daily logs in
//the start place's local zone, or UTC when no zone is known. Start times are
//pinned to whole minutes so repeated runs land on identical instants.
func (p Planner) Plan(ctx context.Context, plan TripPlan) (*PlanResult, error) {
	plan.StartTime = plan.StartTime.Truncate(time.Minute)

	schedule, err := p.scheduler.BuildSchedule(ctx, plan)
	if err != nil {
		return nil, err
	}

	loc, zone := referenceZone(plan.Start)
	logs, err := ProjectDailyLogs(schedule.Activities, loc, zone, p.holidays)
	if err != nil {
		return nil, err
	}
	schedule.Summary.TotalDays = len(logs)

	return &PlanResult{
		Schedule:  schedule,
		DailyLogs: logs,
	}, nil
}

//referenceZone picks the zone day boundaries are computed in.
func referenceZone(start NamedPlace) (*time.Location, string) {
	if start.Timezone != "" {
		if loc, err := time.LoadLocation(start.Timezone); err == nil {
			return loc, start.Timezone
		}
	}
	return time.UTC, "UTC"
}
