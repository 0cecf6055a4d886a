package counter

import (
	"fmt"
	"time"

	"github.com/google/uuid"
)

// Date is a calendar date without a clock or zone.
type Date struct {
	Year  int
	Month time.Month
	Day   int
}

// DateOf returns the calendar date of t in t's own location.
func DateOf(t time.Time) Date {
	y, m, d := t.Date()
	return Date{Year: y, Month: m, Day: d}
}

func (d Date) String() string {
	return fmt.Sprintf("%04d-%02d-%02d", d.Year, int(d.Month), d.Day)
}

// Clock is a time of day, measured from midnight.
type Clock time.Duration

// ClockOf returns the time of day of t in t's own location.
func ClockOf(t time.Time) Clock {
	h, m, s := t.Clock()
	d := time.Duration(h)*time.Hour + time.Duration(m)*time.Minute +
		time.Duration(s)*time.Second + time.Duration(t.Nanosecond())
	return Clock(d)
}

// String formats the clock as 15:04:05 with a fractional part when present.
func (c Clock) String() string {
	return time.Time{}.Add(time.Duration(c)).Format("15:04:05.999999999")
}

// Counter holds the per-kind mappers of one verification session.
type Counter struct {
	guids           *Mapper[uuid.UUID]
	dateTimes       *Mapper[time.Time]
	dateTimeOffsets *Mapper[time.Time]
	dates           *Mapper[Date]
	times           *Mapper[Clock]
}

// New creates an empty Counter.
func New() *Counter {
	return &Counter{
		guids:           NewMapper[uuid.UUID]("Guid"),
		dateTimes:       NewMapper[time.Time]("DateTime"),
		dateTimeOffsets: NewMapper[time.Time]("DateTimeOffset"),
		dates:           NewMapper[Date]("Date"),
		times:           NewMapper[Clock]("Time"),
	}
}

// instant strips the monotonic reading and zone so equal instants share a key.
func instant(t time.Time) time.Time {
	return t.Round(0).UTC()
}

func (c *Counter) NextGuid(id uuid.UUID) int          { return c.guids.Next(id).Ordinal }
func (c *Counter) NextGuidString(id uuid.UUID) string { return c.guids.Next(id).Name }

func (c *Counter) NextDateTime(t time.Time) int          { return c.dateTimes.Next(instant(t)).Ordinal }
func (c *Counter) NextDateTimeString(t time.Time) string { return c.dateTimes.Next(instant(t)).Name }

func (c *Counter) NextDateTimeOffset(t time.Time) int {
	return c.dateTimeOffsets.Next(instant(t)).Ordinal
}

func (c *Counter) NextDateTimeOffsetString(t time.Time) string {
	return c.dateTimeOffsets.Next(instant(t)).Name
}

func (c *Counter) NextDate(d Date) int          { return c.dates.Next(d).Ordinal }
func (c *Counter) NextDateString(d Date) string { return c.dates.Next(d).Name }

func (c *Counter) NextTime(clock Clock) int          { return c.times.Next(clock).Ordinal }
func (c *Counter) NextTimeString(clock Clock) string { return c.times.Next(clock).Name }

// AddNamedGuid registers a fixed token for id.
func (c *Counter) AddNamedGuid(id uuid.UUID, name string) error {
	return c.guids.Register(id, name)
}

// AddNamedDateTime registers a fixed token for the instant t.
func (c *Counter) AddNamedDateTime(t time.Time, name string) error {
	return c.dateTimes.Register(instant(t), name)
}

// AddNamedDateTimeOffset registers a fixed token for the instant t.
func (c *Counter) AddNamedDateTimeOffset(t time.Time, name string) error {
	return c.dateTimeOffsets.Register(instant(t), name)
}

// AddNamedDate registers a fixed token for d.
func (c *Counter) AddNamedDate(d Date, name string) error {
	return c.dates.Register(d, name)
}

// AddNamedTime registers a fixed token for clock.
func (c *Counter) AddNamedTime(clock Clock, name string) error {
	return c.times.Register(clock, name)
}
