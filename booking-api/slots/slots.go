package slots

import (
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"

	"salon-booking/shared/models"
)

// Candidate slots always start on a fixed grid regardless of service
// length, so a 75-minute service still offers 10:00, 10:30, 11:00, ...
const stepMinutes = 30

// Generate derives the bookable slots of one calendar day from the
// stylists' working periods and the already-occupied time blocks.
//
// Slots are keyed by wall-clock time of day: when two stylists are free at
// the same time, the first working period in input order wins and the
// others are suppressed. The caller-visible answer is "is someone free at
// time T", with the free stylist auto-assigned. Blocks without a stylist id
// are a legacy shape and block every stylist.
//
// Pure function: no storage access, no shared state, safe to call
// concurrently. Malformed periods degrade to no slots, never to an error.
func Generate(date time.Time, periods []models.WorkingPeriod, busy []models.TimeBlock, serviceDurationMinutes int) []models.CandidateSlot {
	if serviceDurationMinutes <= 0 {
		return []models.CandidateSlot{}
	}

	duration := time.Duration(serviceDurationMinutes) * time.Minute
	step := stepMinutes * time.Minute

	seen := make(map[string]bool)
	result := []models.CandidateSlot{}

	for _, period := range periods {
		startH, startM, ok := parseClock(period.StartTime)
		if !ok {
			continue
		}
		endH, endM, ok := parseClock(period.EndTime)
		if !ok {
			continue
		}

		periodStart := time.Date(date.Year(), date.Month(), date.Day(), startH, startM, 0, 0, date.Location())
		periodEnd := time.Date(date.Year(), date.Month(), date.Day(), endH, endM, 0, 0, date.Location())

		for cursor := periodStart; !cursor.Add(duration).After(periodEnd); cursor = cursor.Add(step) {
			slotEnd := cursor.Add(duration)

			key := cursor.Format("15:04")
			if seen[key] {
				continue
			}
			if overlapsAny(cursor, slotEnd, period.StylistID, busy) {
				continue
			}

			seen[key] = true
			result = append(result, models.CandidateSlot{
				ID:          slotID(period.StylistID, cursor),
				StylistID:   period.StylistID,
				StartTime:   cursor,
				EndTime:     slotEnd,
				IsAvailable: true,
			})
		}
	}

	sort.Slice(result, func(i, j int) bool {
		return result[i].StartTime.Before(result[j].StartTime)
	})

	return result
}

// overlapsAny applies the half-open interval test: a block that merely
// touches a slot boundary does not count as overlap.
func overlapsAny(slotStart, slotEnd time.Time, stylistID uuid.UUID, busy []models.TimeBlock) bool {
	for _, block := range busy {
		if block.StylistID != nil && *block.StylistID != stylistID {
			continue
		}
		if slotStart.Before(block.EndTime) && block.StartTime.Before(slotEnd) {
			return true
		}
	}
	return false
}

// slotID is deterministic over stylist and start instant, so repeated
// generation of the same day yields identical ids.
func slotID(stylistID uuid.UUID, start time.Time) uuid.UUID {
	return uuid.NewSHA1(uuid.NameSpaceOID, []byte(stylistID.String()+"|"+start.UTC().Format(time.RFC3339)))
}

// parseClock accepts "HH:MM" and the "HH:MM:SS" shape Postgres returns for
// time columns.
func parseClock(s string) (hour, minute int, ok bool) {
	if len(s) > 5 {
		s = s[:5]
	}
	parts := strings.Split(s, ":")
	if len(parts) != 2 {
		return 0, 0, false
	}

	hour, err := strconv.Atoi(parts[0])
	if err != nil || hour < 0 || hour > 23 {
		return 0, 0, false
	}
	minute, err = strconv.Atoi(parts[1])
	if err != nil || minute < 0 || minute > 59 {
		return 0, 0, false
	}
	return hour, minute, true
}
