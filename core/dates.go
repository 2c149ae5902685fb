package core

import (
	"strconv"
	"strings"
	"time"

	"cloud.google.com/go/civil"
	"github.com/pkg/errors"
)

// Date is a calendar date without a time of day. Upstream dates carry no zone,
// so every comparison happens on Dates rather than on time.Time.
type Date = civil.Date

var (
	NowFunc = time.Now // mockable

	// errors
	ErrInvalidOffset = errors.New("invalid relative offset")
	ErrInvalidDate   = errors.New("invalid date")
)

// upstream sends both "09/01/2022" and "9/1/2022", sometimes followed by a time of day.
const dateLayout = "1/2/2006"

// Today returns the current calendar date according to NowFunc.
func Today() Date {
	return civil.DateOf(NowFunc())
}

// ParseDate parses an upstream "MM/DD/YYYY" date, ignoring any trailing time part.
func ParseDate(s string) (Date, error) {
	s = CleanString(s)
	if i := strings.IndexByte(s, ' '); i >= 0 {
		s = s[:i]
	}
	t, err := time.Parse(dateLayout, s)
	if err != nil {
		return Date{}, errors.Wrapf(ErrInvalidDate, "%q", s)
	}
	return civil.DateOf(t), nil
}

// FormatDate formats d the way upstream does.
func FormatDate(d Date) string {
	return d.In(time.UTC).Format("01/02/2006")
}

// Offset is a relative duration such as "7d" or "1M".
type Offset struct {
	N    int
	Unit byte
}

// ParseOffset parses `<num><unit>` where unit is one of:
//   s seconds, m minutes, h hours, d days, w weeks, M months, y years
func ParseOffset(s string) (Offset, error) {
	s = CleanString(s)
	if len(s) < 2 {
		return Offset{}, errors.Wrapf(ErrInvalidOffset, "%q", s)
	}
	n, err := strconv.Atoi(s[:len(s)-1])
	if err != nil || n < 0 {
		return Offset{}, errors.Wrapf(ErrInvalidOffset, "%q", s)
	}
	unit := s[len(s)-1]
	switch unit {
	case 's', 'm', 'h', 'd', 'w', 'M', 'y':
	default:
		return Offset{}, errors.Wrapf(ErrInvalidOffset, "%q: unknown unit %q", s, unit)
	}
	return Offset{N: n, Unit: unit}, nil
}

// Before returns `now` minus the offset.
func (o Offset) Before(now time.Time) time.Time {
	switch o.Unit {
	case 's':
		return now.Add(-time.Duration(o.N) * time.Second)
	case 'm':
		return now.Add(-time.Duration(o.N) * time.Minute)
	case 'h':
		return now.Add(-time.Duration(o.N) * time.Hour)
	case 'd':
		return now.AddDate(0, 0, -o.N)
	case 'w':
		return now.AddDate(0, 0, -7*o.N)
	case 'M':
		return now.AddDate(0, -o.N, 0)
	case 'y':
		return now.AddDate(-o.N, 0, 0)
	}
	return now
}

func (o Offset) String() string {
	return strconv.Itoa(o.N) + string(o.Unit)
}

// OffsetDate resolves a relative offset against now, e.g. "7d" is the date 7 days ago.
func OffsetDate(s string, now time.Time) (Date, error) {
	o, err := ParseOffset(s)
	if err != nil {
		return Date{}, err
	}
	return civil.DateOf(o.Before(now)), nil
}

// ResolveCutoff accepts either an absolute date or a relative offset.
func ResolveCutoff(s string, now time.Time) (Date, error) {
	if strings.Contains(s, "/") {
		return ParseDate(s)
	}
	return OffsetDate(s, now)
}

// IsWeekend reports whether d falls on a Saturday or a Sunday.
func IsWeekend(d Date) bool {
	wd := d.In(time.UTC).Weekday()
	return wd == time.Saturday || wd == time.Sunday
}

// OnOrAfter reports whether d >= cutoff.
func OnOrAfter(d, cutoff Date) bool {
	return !d.Before(cutoff)
}

// Window is an inclusive range of dates.
type Window struct {
	Start Date `json:"start"`
	End   Date `json:"end"`
}

func NewWindow(start, end string) (Window, error) {
	s, err := ParseDate(start)
	if err != nil {
		return Window{}, errors.Wrap(err, "window start")
	}
	e, err := ParseDate(end)
	if err != nil {
		return Window{}, errors.Wrap(err, "window end")
	}
	return Window{Start: s, End: e}, nil
}

// Contains reports whether start <= d <= end.
func (w Window) Contains(d Date) bool {
	return !d.Before(w.Start) && !d.After(w.End)
}

func (w Window) IsZero() bool {
	return w.Start == (Date{}) && w.End == (Date{})
}
