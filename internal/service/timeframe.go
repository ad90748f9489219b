package service

import (
	"fmt"
	"time"
)

// TimeFrame is one contiguous bucket ("franja") used for utilization
// aggregation. End is exclusive so consecutive frames tile without gaps.
type TimeFrame struct {
	Start time.Time
	End   time.Time
	Label string
}

// GenerateTimeFrames covers [start, end) with contiguous frames of
// frameHours, the first one truncated to the top of the hour.
func GenerateTimeFrames(start, end time.Time, frameHours int) []TimeFrame {
	if frameHours <= 0 || !end.After(start) {
		return nil
	}

	cursor := start.Truncate(time.Hour)
	step := time.Duration(frameHours) * time.Hour

	var out []TimeFrame
	for cursor.Before(end) {
		frameEnd := cursor.Add(step)
		out = append(out, TimeFrame{
			Start: cursor,
			End:   frameEnd,
			Label: fmt.Sprintf("%s - %s", cursor.Format("02/01 15:04"), frameEnd.Format("15:04")),
		})
		cursor = frameEnd
	}
	return out
}

// OverlapSeconds returns the length of the intersection of [aStart, aEnd)
// and [bStart, bEnd) in seconds, never negative.
func OverlapSeconds(aStart, aEnd, bStart, bEnd time.Time) float64 {
	lo := aStart
	if bStart.After(lo) {
		lo = bStart
	}
	hi := aEnd
	if bEnd.Before(hi) {
		hi = bEnd
	}
	if !hi.After(lo) {
		return 0
	}
	return hi.Sub(lo).Seconds()
}
