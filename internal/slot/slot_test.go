package slot

import (
	"math"
	"testing"

	"studyflow/internal/clock"
)

func TestFindEarliest(t *testing.T) {
	tests := []struct {
		name     string
		windows  []string
		occupied []clock.Interval
		duration int
		minStart int
		step     int
		want     clock.Interval
		wantOK   bool
	}{
		{
			name:     "Given the first hour is taken When searching Then the next hour is returned",
			windows:  []string{"09:00-12:00"},
			occupied: []clock.Interval{{Start: 540, End: 600}},
			duration: 60, step: MoveStep,
			want: clock.Interval{Start: 600, End: 660}, wantOK: true,
		},
		{
			name:     "Given a fully occupied window When searching Then nothing fits",
			windows:  []string{"09:00-10:00"},
			occupied: []clock.Interval{{Start: 540, End: 600}},
			duration: 60, step: MoveStep,
		},
		{
			name:     "Given unsorted windows When searching Then the earliest window wins",
			windows:  []string{"15:00-17:00", "08:00-09:00"},
			duration: 60, step: BulkStep,
			want: clock.Interval{Start: 480, End: 540}, wantOK: true,
		},
		{
			name:     "Given a floor inside the window When searching Then start rounds up to the step",
			windows:  []string{"09:00-12:00"},
			duration: 60, minStart: 9*60 + 47, step: BulkStep,
			want: clock.Interval{Start: 600, End: 660}, wantOK: true,
		},
		{
			name:     "Given a floor inside the window When searching at move granularity Then start rounds to 5 minutes",
			windows:  []string{"09:00-12:00"},
			duration: 30, minStart: 9*60 + 47, step: MoveStep,
			want: clock.Interval{Start: 590, End: 620}, wantOK: true,
		},
		{
			name:     "Given a window entirely before the floor When searching Then it is skipped",
			windows:  []string{"08:00-09:00", "13:00-14:00"},
			duration: 60, minStart: 10 * 60, step: BulkStep,
			want: clock.Interval{Start: 780, End: 840}, wantOK: true,
		},
		{
			name:     "Given a window ending at 24:00 When searching for 90 minutes Then the slot fits before midnight",
			windows:  []string{"22:00-24:00"},
			duration: 90, step: MoveStep,
			want: clock.Interval{Start: 1320, End: 1410}, wantOK: true,
		},
		{
			name:     "Given a duration longer than every window When searching Then nothing fits",
			windows:  []string{"08:00-09:00", "13:00-14:30"},
			duration: 120, step: MoveStep,
		},
		{
			name:     "Given a duration near the int limit When searching Then nothing fits and nothing wraps",
			windows:  []string{"09:00-12:00"},
			duration: math.MaxInt, step: MoveStep,
		},
		{
			name:     "Given occupied intervals that only touch the candidate When searching Then it fits",
			windows:  []string{"09:00-11:00"},
			occupied: []clock.Interval{{Start: 480, End: 540}, {Start: 600, End: 660}},
			duration: 60, step: BulkStep,
			want: clock.Interval{Start: 540, End: 600}, wantOK: true,
		},
		{
			name:     "Given a blocker mid-window When sliding Then the first gap after it is used",
			windows:  []string{"09:00-12:00"},
			occupied: []clock.Interval{{Start: 550, End: 610}},
			duration: 45, step: MoveStep,
			want: clock.Interval{Start: 610, End: 655}, wantOK: true,
		},
		{
			name:     "Given malformed windows When searching Then they are ignored",
			windows:  []string{"bogus", "10:00-09:00", "14:00-15:00"},
			duration: 60, step: BulkStep,
			want: clock.Interval{Start: 840, End: 900}, wantOK: true,
		},
		{
			name:     "Given a zero duration When searching Then nothing is returned",
			windows:  []string{"09:00-10:00"},
			duration: 0, step: BulkStep,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := FindEarliestSlot(tt.windows, tt.occupied, tt.duration, tt.minStart, tt.step)
			if ok != tt.wantOK {
				t.Fatalf("ok = %v, want %v (got %v)", ok, tt.wantOK, got)
			}
			if ok && got != tt.want {
				t.Errorf("slot = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestFindEarliestNeverStartsBeforeFloor(t *testing.T) {
	windows := []clock.Interval{{Start: 0, End: 1439}}
	for floor := 0; floor < 1400; floor += 7 {
		for _, step := range []int{MoveStep, BulkStep} {
			got, ok := FindEarliest(windows, nil, 30, floor, step)
			if !ok {
				continue
			}
			if got.Start < floor {
				t.Fatalf("floor %d step %d: start %d precedes floor", floor, step, got.Start)
			}
			if got.Start%step != 0 {
				t.Fatalf("floor %d step %d: start %d off grid", floor, step, got.Start)
			}
		}
	}
}

func TestFindEarliestDoesNotReorderInput(t *testing.T) {
	windows := []clock.Interval{{Start: 900, End: 960}, {Start: 540, End: 600}}
	if _, ok := FindEarliest(windows, nil, 30, 0, BulkStep); !ok {
		t.Fatal("expected a slot")
	}
	if windows[0].Start != 900 {
		t.Error("input windows were reordered")
	}
}
