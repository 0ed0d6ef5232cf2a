package timer

import (
	"testing"
	"time"
)

func TestFromMillis(t *testing.T) {
	tests := []struct {
		name      string
		ms        int64
		wantDate  string
		wantHour  int
		wantStamp string
	}{
		{
			name:      "afternoon",
			ms:        1750272643000,
			wantDate:  "2025-06-18",
			wantHour:  18,
			wantStamp: "2025-06-18 18:50:43",
		},
		{
			name:      "epoch",
			ms:        0,
			wantDate:  "1970-01-01",
			wantHour:  0,
			wantStamp: "1970-01-01 00:00:00",
		},
		{
			name:      "sub-second is truncated",
			ms:        1750272643999,
			wantDate:  "2025-06-18",
			wantHour:  18,
			wantStamp: "2025-06-18 18:50:43",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m := FromMillis(tt.ms)
			if m.Date != tt.wantDate {
				t.Errorf("Date = %q, want %q", m.Date, tt.wantDate)
			}
			if m.Hour != tt.wantHour {
				t.Errorf("Hour = %d, want %d", m.Hour, tt.wantHour)
			}
			if m.Timestamp != tt.wantStamp {
				t.Errorf("Timestamp = %q, want %q", m.Timestamp, tt.wantStamp)
			}
			if m.Time.Location() != time.UTC {
				t.Errorf("Location = %v, want UTC", m.Time.Location())
			}
		})
	}
}

func TestMoment_Day(t *testing.T) {
	got := FromMillis(1750272643000).Day()
	want := time.Date(2025, 6, 18, 0, 0, 0, 0, time.UTC)
	if !got.Equal(want) {
		t.Errorf("Day() = %v, want %v", got, want)
	}
}
