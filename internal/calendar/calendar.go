// Package calendar answers which days the New York Stock Exchange trades.
package calendar

import "time"

// Calendar resolves NYSE business days relative to the current date.
type Calendar struct {
	loc *time.Location
	now func() time.Time
}

// New returns a calendar anchored to the wall clock in New York time.
func New() *Calendar {
	loc, err := time.LoadLocation("America/New_York")
	if err != nil {
		loc = time.UTC
	}
	return &Calendar{loc: loc, now: time.Now}
}

// NewWithClock returns a calendar that reads "today" from now, in UTC.
func NewWithClock(now func() time.Time) *Calendar {
	return &Calendar{loc: time.UTC, now: now}
}

func (c *Calendar) today() time.Time {
	t := c.now().In(c.loc)
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}

// LastBusinessDay returns today if the exchange trades, otherwise the closest earlier trading day.
func (c *Calendar) LastBusinessDay() time.Time {
	return WalkBack(c.today())
}

// BusinessDayOneMonthAgo returns the trading day on or before 30 days ago.
func (c *Calendar) BusinessDayOneMonthAgo() time.Time {
	return WalkBack(c.today().AddDate(0, 0, -30))
}

// WalkBack moves day backwards until it lands on a trading day.
func WalkBack(day time.Time) time.Time {
	for !IsBusinessDay(day) {
		day = day.AddDate(0, 0, -1)
	}
	return day
}

// IsBusinessDay reports whether the exchange trades on the given date.
func IsBusinessDay(day time.Time) bool {
	switch day.Weekday() {
	case time.Saturday, time.Sunday:
		return false
	}
	return !IsHoliday(day)
}

// IsHoliday reports whether the date is an observed NYSE holiday.
func IsHoliday(day time.Time) bool {
	d := time.Date(day.Year(), day.Month(), day.Day(), 0, 0, 0, 0, time.UTC)
	for _, h := range Holidays(d.Year()) {
		if h.Equal(d) {
			return true
		}
	}
	return false
}

// Holidays returns the observed NYSE full-day closures for a year.
func Holidays(year int) []time.Time {
	holidays := make([]time.Time, 0, 10)

	// NYSE does not observe New Year's Day on the preceding Friday.
	newYear := date(year, time.January, 1)
	if newYear.Weekday() != time.Saturday {
		holidays = append(holidays, observeOnWeekday(newYear))
	}

	if year >= 1998 {
		holidays = append(holidays, findNthWeekday(year, time.January, time.Monday, 3))
	}
	holidays = append(holidays,
		findNthWeekday(year, time.February, time.Monday, 3),
		goodFriday(year),
		findLastWeekday(year, time.May, time.Monday),
	)
	if year >= 2022 {
		holidays = append(holidays, observeOnWeekday(date(year, time.June, 19)))
	}
	holidays = append(holidays,
		observeOnWeekday(date(year, time.July, 4)),
		findNthWeekday(year, time.September, time.Monday, 1),
		findNthWeekday(year, time.November, time.Thursday, 4),
		observeOnWeekday(date(year, time.December, 25)),
	)
	return holidays
}

func date(year int, month time.Month, day int) time.Time {
	return time.Date(year, month, day, 0, 0, 0, 0, time.UTC)
}

// easter uses the anonymous Gregorian computus.
func easter(year int) time.Time {
	a := year % 19
	b := year / 100
	c := year % 100
	d := b / 4
	e := b % 4
	f := (b + 8) / 25
	g := (b - f + 1) / 3
	h := (19*a + b - d - g + 15) % 30
	i := c / 4
	k := c % 4
	l := (32 + 2*e + 2*i - h - k) % 7
	m := (a + 11*h + 22*l) / 451

	month := (h + l - 7*m + 114) / 31
	day := ((h + l - 7*m + 114) % 31) + 1
	return date(year, time.Month(month), day)
}

func goodFriday(year int) time.Time {
	return easter(year).AddDate(0, 0, -2)
}

// findNthWeekday finds the nth occurrence of a weekday in a month (n starts at 1).
func findNthWeekday(year int, month time.Month, weekday time.Weekday, n int) time.Time {
	d := date(year, month, 1)
	offset := int(weekday - d.Weekday())
	if offset < 0 {
		offset += 7
	}
	return d.AddDate(0, 0, offset+(n-1)*7)
}

func findLastWeekday(year int, month time.Month, weekday time.Weekday) time.Time {
	d := date(year, month+1, 0)
	offset := int(d.Weekday() - weekday)
	if offset < 0 {
		offset += 7
	}
	return d.AddDate(0, 0, -offset)
}

// observeOnWeekday moves Saturday holidays to Friday and Sunday holidays to Monday.
func observeOnWeekday(d time.Time) time.Time {
	switch d.Weekday() {
	case time.Saturday:
		return d.AddDate(0, 0, -1)
	case time.Sunday:
		return d.AddDate(0, 0, 1)
	default:
		return d
	}
}
