package slots

import (
	"testing"
	"time"

	"github.com/google/uuid"

	"salon-booking/shared/models"
)

var (
	stylistA = uuid.MustParse("11111111-1111-1111-1111-111111111111")
	stylistB = uuid.MustParse("22222222-2222-2222-2222-222222222222")
)

func day() time.Time {
	return time.Date(2026, time.February, 23, 0, 0, 0, 0, time.UTC)
}

func at(hour, minute int) time.Time {
	d := day()
	return time.Date(d.Year(), d.Month(), d.Day(), hour, minute, 0, 0, d.Location())
}

func period(stylist uuid.UUID, start, end string) models.WorkingPeriod {
	return models.WorkingPeriod{
		ID:          uuid.New(),
		StylistID:   stylist,
		Date:        day(),
		StartTime:   start,
		EndTime:     end,
		IsAvailable: true,
	}
}

func block(stylist *uuid.UUID, start, end time.Time) models.TimeBlock {
	return models.TimeBlock{ID: uuid.New(), StylistID: stylist, StartTime: start, EndTime: end}
}

func starts(result []models.CandidateSlot) []string {
	out := make([]string, 0, len(result))
	for _, s := range result {
		out = append(out, s.StartTime.Format("15:04"))
	}
	return out
}

func TestGenerateWalksPeriodInHalfHourSteps(t *testing.T) {
	result := Generate(day(), []models.WorkingPeriod{period(stylistA, "10:00", "12:00")}, nil, 60)

	want := []string{"10:00", "10:30", "11:00"}
	got := starts(result)
	if len(got) != len(want) {
		t.Fatalf("got slots %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("slot %d: got %s, want %s", i, got[i], want[i])
		}
	}
}

func TestGenerateNeverOverflowsPeriod(t *testing.T) {
	periods := []models.WorkingPeriod{period(stylistA, "09:00", "17:30")}

	for _, duration := range []int{30, 45, 60, 90, 120} {
		result := Generate(day(), periods, nil, duration)
		periodEnd := at(17, 30)
		for _, s := range result {
			if s.EndTime.After(periodEnd) {
				t.Errorf("duration %d: slot %s-%s overflows period end %s",
					duration, s.StartTime.Format("15:04"), s.EndTime.Format("15:04"), periodEnd.Format("15:04"))
			}
			if s.EndTime.Sub(s.StartTime) != time.Duration(duration)*time.Minute {
				t.Errorf("duration %d: slot length %s", duration, s.EndTime.Sub(s.StartTime))
			}
		}
	}
}

func TestGenerateRejectsOverlappingSlots(t *testing.T) {
	periods := []models.WorkingPeriod{period(stylistA, "10:00", "14:00")}
	busy := []models.TimeBlock{block(&stylistA, at(11, 0), at(12, 0))}

	result := Generate(day(), periods, busy, 60)

	for _, s := range result {
		if s.StartTime.Before(at(12, 0)) && at(11, 0).Before(s.EndTime) {
			t.Errorf("slot %s-%s overlaps busy 11:00-12:00", s.StartTime.Format("15:04"), s.EndTime.Format("15:04"))
		}
	}
	// 10:00 fits before the block, 12:00 onwards after it
	got := starts(result)
	want := []string{"10:00", "12:00", "12:30", "13:00"}
	if len(got) != len(want) {
		t.Fatalf("got %v, want %v", got, want)
	}
}

func TestBoundaryTouchIsNotOverlap(t *testing.T) {
	periods := []models.WorkingPeriod{period(stylistA, "10:00", "13:00")}
	// Busy ends exactly at 11:00 and another starts exactly at 12:00:
	// the 11:00-12:00 slot must survive.
	busy := []models.TimeBlock{
		block(&stylistA, at(10, 0), at(11, 0)),
		block(&stylistA, at(12, 0), at(13, 0)),
	}

	result := Generate(day(), periods, busy, 60)

	got := starts(result)
	if len(got) != 1 || got[0] != "11:00" {
		t.Fatalf("got %v, want exactly [11:00]", got)
	}
}

func TestBlockWithoutStylistBlocksEveryone(t *testing.T) {
	periods := []models.WorkingPeriod{
		period(stylistA, "10:00", "11:00"),
		period(stylistB, "10:00", "11:00"),
	}
	busy := []models.TimeBlock{block(nil, at(10, 0), at(11, 0))}

	result := Generate(day(), periods, busy, 30)
	if len(result) != 0 {
		t.Fatalf("expected no slots, got %v", starts(result))
	}
}

func TestTimeOfDayDedupAcrossStylists(t *testing.T) {
	periods := []models.WorkingPeriod{
		period(stylistA, "10:00", "11:00"),
		period(stylistB, "10:00", "11:00"),
	}

	result := Generate(day(), periods, nil, 60)

	if len(result) != 1 {
		t.Fatalf("expected one slot at 10:00, got %v", starts(result))
	}
	if result[0].StylistID != stylistA {
		t.Errorf("first period in input order should win, got stylist %s", result[0].StylistID)
	}
}

func TestDedupFallsThroughToFreeStylist(t *testing.T) {
	periods := []models.WorkingPeriod{
		period(stylistA, "10:00", "11:00"),
		period(stylistB, "10:00", "11:00"),
	}
	// A is busy at 10:00, so B's period should win that time of day.
	busy := []models.TimeBlock{block(&stylistA, at(10, 0), at(11, 0))}

	result := Generate(day(), periods, busy, 60)

	if len(result) != 1 {
		t.Fatalf("expected one slot, got %v", starts(result))
	}
	if result[0].StylistID != stylistB {
		t.Errorf("expected stylist B to win 10:00, got %s", result[0].StylistID)
	}
}

func TestGenerateEdgeCases(t *testing.T) {
	if got := Generate(day(), nil, nil, 60); len(got) != 0 {
		t.Errorf("no periods: expected empty result, got %d slots", len(got))
	}

	short := []models.WorkingPeriod{period(stylistA, "10:00", "10:30")}
	if got := Generate(day(), short, nil, 60); len(got) != 0 {
		t.Errorf("duration longer than period: expected empty result, got %d slots", len(got))
	}

	if got := Generate(day(), short, nil, 0); len(got) != 0 {
		t.Errorf("zero duration: expected empty result, got %d slots", len(got))
	}
}

func TestGenerateIsDeterministic(t *testing.T) {
	periods := []models.WorkingPeriod{
		period(stylistB, "12:00", "16:00"),
		period(stylistA, "09:00", "13:00"),
	}
	busy := []models.TimeBlock{block(&stylistA, at(10, 0), at(10, 45))}

	first := Generate(day(), periods, busy, 45)
	second := Generate(day(), periods, busy, 45)

	if len(first) != len(second) {
		t.Fatalf("runs differ in length: %d vs %d", len(first), len(second))
	}
	for i := range first {
		if first[i] != second[i] {
			t.Errorf("slot %d differs between runs: %+v vs %+v", i, first[i], second[i])
		}
	}

	for i := 1; i < len(first); i++ {
		if first[i].StartTime.Before(first[i-1].StartTime) {
			t.Errorf("output not sorted at index %d", i)
		}
	}
}
