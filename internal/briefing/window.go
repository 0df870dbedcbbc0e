package briefing

import "time"

// KST is the Korea Standard Time location (UTC+9, no daylight saving).
var KST = time.FixedZone("KST", 9*3600)

// Briefing windows in KST, [start, end) hours.
const (
	MorningStart   = 8
	MorningEnd     = 10
	AfternoonStart = 15
	AfternoonEnd   = 17
)

// Kind is the briefing selected by the time of day.
type Kind string

const (
	KindNone      Kind = ""
	KindMorning   Kind = "morning"
	KindAfternoon Kind = "afternoon"
)

// Select returns the briefing due at t: the market regime in the morning
// window, top picks in the afternoon window, otherwise none.
func Select(t time.Time) Kind {
	h := t.In(KST).Hour()
	switch {
	case h >= MorningStart && h < MorningEnd:
		return KindMorning
	case h >= AfternoonStart && h < AfternoonEnd:
		return KindAfternoon
	}
	return KindNone
}
