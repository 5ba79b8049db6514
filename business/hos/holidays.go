package hos

import (
	"time"

	"github.com/rickar/cal/v2"
	"github.com/rickar/cal/v2/us"
)

//HolidayCalendar names the U.S. holidays a daily log falls on, so carriers
//reviewing a log sheet can tell at a glance why a terminal was closed.
type HolidayCalendar struct {
	calendar *cal.BusinessCalendar
}

//MakeHolidayCalendar builds a HolidayCalendar with the federally observed
//holidays.
func MakeHolidayCalendar() *HolidayCalendar {
	calendar := cal.NewBusinessCalendar()
	calendar.AddHoliday(
		us.NewYear,
		us.MlkDay,
		us.MemorialDay,
		us.IndependenceDay,
		us.LaborDay,
		us.ThanksgivingDay,
		us.ChristmasDay,
		us.Juneteenth,
	)
	return &HolidayCalendar{calendar: calendar}
}

//Name returns the holiday name when at falls on the actual holiday date, not
//the shifted observance, since log sheets record the calendar day itself.
func (h *HolidayCalendar) Name(at time.Time) string {
	actual, _, holiday := h.calendar.IsHoliday(at)
	if actual && holiday != nil {
		return holiday.Name
	}
	return ""
}
