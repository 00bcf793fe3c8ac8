package clock

import "testing"

func TestToMinutes(t *testing.T) {
	tests := []struct {
		in   string
		want int
	}{
		{"00:00", 0},
		{"09:30", 570},
		{"23:59", 1439},
		{"9:05", 545},
		{"", 0},
		{"ab:cd", 0},
		{"10", 600},
		{"24:00", 1439},
		{"25:00", 1439},
		{"12:75", 795},
		{"-3:10", 0},
		{"0:-5", 0},
		{"99999999999999999:00", 1439},
		{" 08:15 ", 495},
	}
	for _, tt := range tests {
		if got := ToMinutes(tt.in); got != tt.want {
			t.Errorf("ToMinutes(%q) = %d, want %d", tt.in, got, tt.want)
		}
	}
}

func TestFromMinutesRoundTrip(t *testing.T) {
	for h := 0; h < 24; h++ {
		for m := 0; m < 60; m++ {
			s := FromMinutes(h*60 + m)
			if got := FromMinutes(ToMinutes(s)); got != s {
				t.Fatalf("round trip of %q gave %q", s, got)
			}
		}
	}
	if got := FromMinutes(-5); got != "00:00" {
		t.Errorf("FromMinutes(-5) = %q", got)
	}
	if got := FromMinutes(2000); got != "23:59" {
		t.Errorf("FromMinutes(2000) = %q", got)
	}
}

func TestParseInterval(t *testing.T) {
	tests := []struct {
		in     string
		want   Interval
		wantOK bool
	}{
		{"09:00 - 10:30", Interval{Start: 540, End: 630}, true},
		{"09:00-10:30", Interval{Start: 540, End: 630}, true},
		{"9:00 -10:30", Interval{Start: 540, End: 630}, true},
		{"22:00-24:00", Interval{Start: 1320, End: 1439}, true},
		{"10:00-09:00", Interval{}, false},
		{"10:00-10:00", Interval{}, false},
		{"10:00", Interval{}, false},
		{"10:00-", Interval{}, false},
		{"-10:00", Interval{}, false},
		{"08:00-09:00-10:00", Interval{}, false},
		{"", Interval{}, false},
	}
	for _, tt := range tests {
		got, ok := ParseInterval(tt.in)
		if ok != tt.wantOK || got != tt.want {
			t.Errorf("ParseInterval(%q) = %v, %v; want %v, %v", tt.in, got, ok, tt.want, tt.wantOK)
		}
	}
}

func TestOverlaps(t *testing.T) {
	tests := []struct {
		a, b Interval
		want bool
	}{
		{Interval{Start: 540, End: 600}, Interval{Start: 600, End: 660}, false},
		{Interval{Start: 540, End: 601}, Interval{Start: 600, End: 660}, true},
		{Interval{Start: 540, End: 720}, Interval{Start: 600, End: 660}, true},
		{Interval{Start: 600, End: 660}, Interval{Start: 540, End: 720}, true},
		{Interval{Start: 0, End: 60}, Interval{Start: 120, End: 180}, false},
	}
	for _, tt := range tests {
		if got := tt.a.Overlaps(tt.b); got != tt.want {
			t.Errorf("%v overlaps %v = %v, want %v", tt.a, tt.b, got, tt.want)
		}
	}
}

func TestIntervalFormatting(t *testing.T) {
	iv := Interval{Start: 545, End: 630}
	if got := iv.String(); got != "09:05-10:30" {
		t.Errorf("String() = %q", got)
	}
	if got := iv.Display(); got != "09:05 - 10:30" {
		t.Errorf("Display() = %q", got)
	}
	if got := Normalize("9:05 - 10:30"); got != "09:05-10:30" {
		t.Errorf("Normalize() = %q", got)
	}
	if got := Normalize("22:00 - 24:00"); got != "22:00-23:59" {
		t.Errorf("Normalize(22:00 - 24:00) = %q", got)
	}
	if got := Normalize("garbage"); got != "garbage" {
		t.Errorf("Normalize(garbage) = %q", got)
	}
}
