package service

import (
	"testing"
	"time"
)

func ts(s string) time.Time {
	t, err := time.Parse(time.RFC3339, s)
	if err != nil {
		panic(err)
	}
	return t
}

func TestGenerateTimeFramesTiling(t *testing.T) {
	start := ts("2025-01-01T08:30:00Z")
	end := ts("2025-01-02T08:00:00Z")

	frames := GenerateTimeFrames(start, end, 4)
	if len(frames) == 0 {
		t.Fatal("expected frames")
	}
	if !frames[0].Start.Equal(ts("2025-01-01T08:00:00Z")) {
		t.Fatalf("expected first frame truncated to top of hour, got %v", frames[0].Start)
	}
	for i := range frames {
		if got := frames[i].End.Sub(frames[i].Start); got != 4*time.Hour {
			t.Fatalf("frame %d has width %v", i, got)
		}
		if i > 0 && !frames[i].Start.Equal(frames[i-1].End) {
			t.Fatalf("gap or overlap between frame %d and %d", i-1, i)
		}
	}
	last := frames[len(frames)-1]
	if last.End.Before(end) {
		t.Fatalf("frames do not cover the range, last end %v", last.End)
	}
	if last.Start.After(end) || last.Start.Equal(end) {
		t.Fatalf("spurious frame past the range start %v", last.Start)
	}
}

func TestGenerateTimeFramesDegenerate(t *testing.T) {
	if frames := GenerateTimeFrames(ts("2025-01-01T08:00:00Z"), ts("2025-01-01T08:00:00Z"), 4); frames != nil {
		t.Fatalf("expected no frames for empty range, got %d", len(frames))
	}
	if frames := GenerateTimeFrames(ts("2025-01-01T08:00:00Z"), ts("2025-01-02T08:00:00Z"), 0); frames != nil {
		t.Fatalf("expected no frames for zero width, got %d", len(frames))
	}
}

func TestOverlapSeconds(t *testing.T) {
	cases := []struct {
		name                           string
		aStart, aEnd, bStart, bEnd     string
		want                           float64
	}{
		{"partial", "2025-01-01T08:00:00Z", "2025-01-01T16:00:00Z", "2025-01-01T14:00:00Z", "2025-01-01T20:00:00Z", 7200},
		{"disjoint", "2025-01-01T08:00:00Z", "2025-01-01T10:00:00Z", "2025-01-01T12:00:00Z", "2025-01-01T14:00:00Z", 0},
		{"touching", "2025-01-01T08:00:00Z", "2025-01-01T10:00:00Z", "2025-01-01T10:00:00Z", "2025-01-01T12:00:00Z", 0},
		{"contained", "2025-01-01T08:00:00Z", "2025-01-01T20:00:00Z", "2025-01-01T10:00:00Z", "2025-01-01T12:00:00Z", 7200},
	}
	for _, tc := range cases {
		got := OverlapSeconds(ts(tc.aStart), ts(tc.aEnd), ts(tc.bStart), ts(tc.bEnd))
		if got != tc.want {
			t.Fatalf("%s: expected %v, got %v", tc.name, tc.want, got)
		}
	}
}
