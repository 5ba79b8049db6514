package hos

import (
	"time"

	"github.com/routehaul/hosplan/foundation/apperror"
)

//ProjectDailyLogs splits the activity tiling at local midnight and builds one
//ledger per calendar day from trip start to trip end. Time before the first
//activity of the trip and after the last is filled with off-duty entries so
//each day's statuses account for the whole day. holidays may be nil.
func ProjectDailyLogs(activities []Activity, loc *time.Location, zone string, holidays *HolidayCalendar) ([]DailyLog, error) {
	if len(activities) == 0 {
		return nil, nil
	}

	tripStart := activities[0].Start.In(loc)
	tripEnd := activities[len(activities)-1].End.In(loc)

	var logs []DailyLog
	day := time.Date(tripStart.Year(), tripStart.Month(), tripStart.Day(), 0, 0, 0, 0, loc)
	for number := 1; day.Before(tripEnd); number++ {
		next := day.AddDate(0, 0, 1)
		daily, err := buildDay(activities, number, day, next, loc, zone, holidays)
		if err != nil {
			return nil, err
		}
		logs = append(logs, daily)
		day = next
	}
	return logs, nil
}

func buildDay(activities []Activity, number int, dayStart, dayEnd time.Time,
	loc *time.Location, zone string, holidays *HolidayCalendar) (DailyLog, error) {

	var entries []LogEntry
	var remarks []Remark
	var miles float64
	minutes := map[DutyStatus]int{}

	cursor := dayStart
	for _, act := range activities {
		start := act.Start.In(loc)
		end := act.End.In(loc)
		if !end.After(dayStart) || !start.Before(dayEnd) {
			continue
		}
		segStart := start
		if segStart.Before(dayStart) {
			segStart = dayStart
		}
		segEnd := end
		if segEnd.After(dayEnd) {
			segEnd = dayEnd
		}

		location := act.Place.Label()
		if segStart.After(cursor) {
			entries = append(entries, offDutyEntry(cursor, segStart, dayEnd, location))
			minutes[OffDuty] += int(segStart.Sub(cursor) / time.Minute)
		}

		segMinutes := int(segEnd.Sub(segStart) / time.Minute)
		entries = append(entries, LogEntry{
			Status:   act.Status,
			Start:    clock(segStart, dayEnd),
			End:      clock(segEnd, dayEnd),
			Location: location,
			Activity: act.Description,
		})
		minutes[act.Status] += segMinutes

		if act.Status == Driving && act.Miles > 0 {
			if total := int(end.Sub(start) / time.Minute); total > 0 {
				miles += act.Miles * float64(segMinutes) / float64(total)
			}
		}

		//a remark marks the transition into an activity, so only segments
		//that begin on this day produce one
		if segStart.Equal(start) && act.Description != "" {
			remarks = append(remarks, Remark{
				Time:     clock(segStart, dayEnd),
				Location: location,
				Activity: act.Description,
			})
		}
		cursor = segEnd
	}

	if len(entries) == 0 {
		return DailyLog{}, apperror.Newf(apperror.Internal, "daily log for %s has no activity",
			dayStart.Format("2006-01-02"))
	}
	if cursor.Before(dayEnd) {
		last := entries[len(entries)-1].Location
		entries = append(entries, offDutyEntry(cursor, dayEnd, dayEnd, last))
		minutes[OffDuty] += int(dayEnd.Sub(cursor) / time.Minute)
	}

	total := 0
	for _, m := range minutes {
		total += m
	}
	if dayMinutes := int(dayEnd.Sub(dayStart) / time.Minute); total != dayMinutes {
		return DailyLog{}, apperror.Newf(apperror.Internal, "daily log for %s accounts for %d minutes, want %d",
			dayStart.Format("2006-01-02"), total, dayMinutes)
	}

	holiday := ""
	if holidays != nil {
		holiday = holidays.Name(dayStart)
	}

	return DailyLog{
		Day:           number,
		Date:          dayStart.Format("2006-01-02"),
		Timezone:      zone,
		Holiday:       holiday,
		StartLocation: entries[0].Location,
		EndLocation:   entries[len(entries)-1].Location,
		TotalMiles:    roundMiles(miles),
		Hours: DutyHours{
			OffDuty:      roundHours(time.Duration(minutes[OffDuty]) * time.Minute),
			SleeperBerth: roundHours(time.Duration(minutes[SleeperBerth]) * time.Minute),
			Driving:      roundHours(time.Duration(minutes[Driving]) * time.Minute),
			OnDuty:       roundHours(time.Duration(minutes[OnDutyNotDriving]) * time.Minute),
		},
		Entries: entries,
		Remarks: remarks,
	}, nil
}

func offDutyEntry(from, to, dayEnd time.Time, location string) LogEntry {
	return LogEntry{
		Status:   OffDuty,
		Start:    clock(from, dayEnd),
		End:      clock(to, dayEnd),
		Location: location,
	}
}

//clock renders a local time of day, with the end of the day as "24:00" so an
//entry that runs through midnight closes its day's grid.
func clock(t, dayEnd time.Time) string {
	if !t.Before(dayEnd) {
		return "24:00"
	}
	return t.Format("15:04")
}
