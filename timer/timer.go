// Package timer converts millisecond Unix timestamps into calendar fields.
package timer

import "time"

// Layouts used for the string forms of a Moment.
const (
	DateLayout      = "2006-01-02"
	TimestampLayout = "2006-01-02 15:04:05"
)

// Moment is a UTC instant with its common string renderings.
type Moment struct {
	Time      time.Time
	Date      string // e.g. 2025-06-18
	Hour      int
	Timestamp string // e.g. 2025-06-18 18:50:43
}

// FromMillis converts milliseconds since the Unix epoch to a UTC Moment.
func FromMillis(ms int64) Moment {
	t := time.UnixMilli(ms).UTC()
	return Moment{
		Time:      t,
		Date:      t.Format(DateLayout),
		Hour:      t.Hour(),
		Timestamp: t.Format(TimestampLayout),
	}
}

// Day returns the moment truncated to midnight UTC.
func (m Moment) Day() time.Time {
	y, mo, d := m.Time.Date()
	return time.Date(y, mo, d, 0, 0, 0, 0, time.UTC)
}
