package reminder

import (
	"fmt"
	"strings"
	"time"
	_ "time/tzdata"

	"github.com/medtrax-api/internal/domain"
)

// maxRangeDays bounds how many calendar days one reminder may span.
const maxRangeDays = 366

var weekdayNames = map[string]time.Weekday{
	"Sun": time.Sunday, "Mon": time.Monday, "Tue": time.Tuesday, "Wed": time.Wednesday,
	"Thu": time.Thursday, "Fri": time.Friday, "Sat": time.Saturday,
}

// OccurrenceID is the stable id of the slot-th delivery of a reminder on date.
func OccurrenceID(reminderID, date string, slot int) string {
	return fmt.Sprintf("%s#%s#%d", reminderID, date, slot)
}

// Expand materializes the deliveries of rem: one per matching calendar day in
// [StartDate, EndDate] and per non-empty time slot, evaluated in rem.Timezone.
// Deliveries strictly before from are dropped.
func Expand(rem *domain.Reminder, from time.Time) ([]domain.Occurrence, error) {
	loc, err := time.LoadLocation(rem.Timezone)
	if err != nil {
		return nil, fmt.Errorf("unknown timezone %q: %w", rem.Timezone, domain.ErrBadRequest)
	}
	start, end, err := parseRange(rem.StartDate, rem.EndDate, loc)
	if err != nil {
		return nil, err
	}
	days, err := weekdaySet(rem.Days)
	if err != nil {
		return nil, err
	}
	slots, err := clockSlots(rem.Times)
	if err != nil {
		return nil, err
	}

	title := "Medicine reminder"
	body := "Time to take " + rem.Name
	if rem.Notes != "" {
		body += ". " + rem.Notes
	}

	var occs []domain.Occurrence
	for d := start; !d.After(end); d = d.AddDate(0, 0, 1) {
		if len(days) > 0 && !days[d.Weekday()] {
			continue
		}
		date := d.Format(domain.DateLayout)
		for i, c := range slots {
			if c == nil {
				continue
			}
			fireAt := time.Date(d.Year(), d.Month(), d.Day(), c.hour, c.minute, 0, 0, loc)
			if fireAt.Before(from) {
				continue
			}
			occs = append(occs, domain.Occurrence{
				OccurrenceID: OccurrenceID(rem.ReminderID, date, i),
				ReminderID:   rem.ReminderID,
				UserID:       rem.UserID,
				Title:        title,
				Body:         body,
				FireAt:       fireAt.UTC(),
				Pending:      domain.PendingFlag,
			})
		}
	}
	return occs, nil
}

func parseRange(startDate, endDate string, loc *time.Location) (time.Time, time.Time, error) {
	start, err := time.ParseInLocation(domain.DateLayout, startDate, loc)
	if err != nil {
		return time.Time{}, time.Time{}, fmt.Errorf("startDate must be YYYY-MM-DD: %w", domain.ErrBadRequest)
	}
	end, err := time.ParseInLocation(domain.DateLayout, endDate, loc)
	if err != nil {
		return time.Time{}, time.Time{}, fmt.Errorf("endDate must be YYYY-MM-DD: %w", domain.ErrBadRequest)
	}
	if end.Before(start) {
		return time.Time{}, time.Time{}, fmt.Errorf("endDate is before startDate: %w", domain.ErrBadRequest)
	}
	if end.After(start.AddDate(0, 0, maxRangeDays-1)) {
		return time.Time{}, time.Time{}, fmt.Errorf("date range exceeds %d days: %w", maxRangeDays, domain.ErrBadRequest)
	}
	return start, end, nil
}

func weekdaySet(names []string) (map[time.Weekday]bool, error) {
	set := make(map[time.Weekday]bool, len(names))
	for _, n := range names {
		wd, ok := weekdayNames[n]
		if !ok {
			return nil, fmt.Errorf("unknown weekday %q: %w", n, domain.ErrBadRequest)
		}
		set[wd] = true
	}
	return set, nil
}

type clock struct{ hour, minute int }

// clockSlots parses each "HH:MM"; empty slots stay nil so slot indexes are preserved.
func clockSlots(times []string) ([]*clock, error) {
	slots := make([]*clock, len(times))
	n := 0
	for i, t := range times {
		t = strings.TrimSpace(t)
		if t == "" {
			continue
		}
		parsed, err := time.Parse("15:04", t)
		if err != nil {
			return nil, fmt.Errorf("time %q must be HH:MM: %w", t, domain.ErrBadRequest)
		}
		slots[i] = &clock{hour: parsed.Hour(), minute: parsed.Minute()}
		n++
	}
	if n == 0 {
		return nil, fmt.Errorf("at least one time is required: %w", domain.ErrBadRequest)
	}
	return slots, nil
}
