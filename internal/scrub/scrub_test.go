package scrub

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"verify/internal/counter"
)

const (
	guidA = "6ba7b810-9dad-11d1-80b4-00c04fd430c8"
	guidB = "6ba7b811-9dad-11d1-80b4-00c04fd430c8"
)

func TestShared_TryNormalizeIdentifier(t *testing.T) {
	s := NewShared(counter.New(), DefaultOptions())

	got, ok := s.TryNormalizeIdentifier(guidA)
	assert.True(t, ok)
	assert.Equal(t, "Guid_1", got)

	got, ok = s.TryNormalizeIdentifier(guidB)
	assert.True(t, ok)
	assert.Equal(t, "Guid_2", got)

	got, _ = s.TryNormalizeIdentifier(guidA)
	assert.Equal(t, "Guid_1", got)

	_, ok = s.TryNormalizeIdentifier("not-a-guid")
	assert.False(t, ok)

	off := NewShared(nil, Options{ScrubDateTimes: true})
	_, ok = off.TryNormalizeIdentifier(guidA)
	assert.False(t, ok)
}

func TestShared_TryNormalizeDateTime(t *testing.T) {
	s := NewShared(nil, DefaultOptions())

	got, ok := s.TryNormalizeDateTime("2024-03-01T10:00:00Z")
	assert.True(t, ok)
	assert.Equal(t, "DateTime_1", got)

	got, ok = s.TryNormalizeDateTimeWithOffset("2024-03-01T12:00:00+02:00")
	assert.True(t, ok)
	assert.Equal(t, "DateTimeOffset_1", got)

	_, ok = s.TryNormalizeDateTime("yesterday")
	assert.False(t, ok)

	off := NewShared(nil, Options{ScrubGuids: true})
	_, ok = off.TryNormalizeDateTime("2024-03-01T10:00:00Z")
	assert.False(t, ok)
}

func TestShared_DateTime(t *testing.T) {
	s := NewShared(nil, DefaultOptions())
	utc := time.Date(2024, 3, 1, 10, 0, 0, 0, time.UTC)
	zoned := utc.In(time.FixedZone("CET", 3600))

	assert.Equal(t, "DateTime_1", s.DateTime(utc))
	assert.Equal(t, "DateTimeOffset_1", s.DateTime(zoned))

	raw := NewShared(nil, Options{})
	assert.Equal(t, "2024-03-01T10:00:00Z", raw.DateTime(utc))
}

func TestShared_DateAndClock(t *testing.T) {
	s := NewShared(nil, DefaultOptions())
	day := counter.Date{Year: 2024, Month: time.March, Day: 1}
	noon := counter.Clock(12 * time.Hour)

	assert.Equal(t, "Date_1", s.Date(day))
	assert.Equal(t, "Date_1", s.Date(day))
	assert.Equal(t, "Time_1", s.Clock(noon))

	raw := NewShared(nil, Options{ScrubGuids: true})
	assert.Equal(t, "2024-03-01", raw.Date(day))
	assert.Equal(t, "12:00:00", raw.Clock(noon))
	assert.Equal(t, "12:00:00.5", raw.Clock(noon+counter.Clock(500*time.Millisecond)))
}

func TestInlineGuids(t *testing.T) {
	s := NewShared(nil, DefaultOptions())
	text := "created " + guidA + " then " + guidB + " and again " + guidA

	got := s.InlineGuids()(text)
	assert.Equal(t, "created Guid_1 then Guid_2 and again Guid_1", got)
}

func TestInlineDateTimes(t *testing.T) {
	tests := []struct {
		name   string
		layout string
		text   string
		want   string
	}{
		{"date and clock", "2006-01-02 15:04:05", "at 2024-03-01 10:00:00 and 2024-03-02 11:00:00.", "at DateTime_1 and DateTime_2."},
		{"date only", "2006-01-02", "born 1990-05-17", "born Date_1"},
		{"clock only", "15:04:05", "alarm 07:30:00 snooze 07:30:00", "alarm Time_1 snooze Time_1"},
		{"no match", "2006-01-02", "nothing here", "nothing here"},
		{"short text", "2006-01-02", "x", "x"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := NewShared(nil, DefaultOptions())
			assert.Equal(t, tt.want, s.InlineDateTimes(tt.layout)(tt.text))
		})
	}
}

func TestNormalizeText(t *testing.T) {
	// "e" followed by a combining acute accent composes to a single rune.
	assert.Equal(t, "caf\u00e9", NormalizeText("cafe\u0301"))
	assert.Equal(t, "a\nb\nc", NormalizeText("a\r\nb\rc\n\n"))
}

func TestPaths(t *testing.T) {
	scrub := Paths("/home/dev/project/")
	assert.Equal(t, "{ProjectDirectory}/main.go", scrub("/home/dev/project/main.go"))
	assert.Equal(t, "wrote {TempPath}/out.txt", scrub("wrote /tmp/TestRun123/out.txt"))
}

func TestApply(t *testing.T) {
	got := Apply("keep\ndrop secret\nkeep too",
		RemoveLinesContaining("secret"),
		Replace("keep", "kept"),
	)
	assert.Equal(t, "kept\nkept too", got)
}
