package report

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	sq "github.com/Masterminds/squirrel"
)

var (
	ErrInvalidYear      = errors.New("year must be between 1970 and 9999")
	ErrInvalidMonth     = errors.New("month must be between 1 and 12")
	ErrMonthWithoutYear = errors.New("a month filter needs a year")
	ErrPeriodRequired   = errors.New("month (MM) and year (YYYY) are required")
)

// Period is an optional calendar filter. A zero Year means no filter; a
// zero Month with a Year covers the whole year.
type Period struct {
	Year  int
	Month int
}

// ParsePeriod reads the optional year/month query values.
func ParsePeriod(year, month string) (Period, error) {
	year = strings.TrimSpace(year)
	month = strings.TrimSpace(month)

	var p Period
	if year != "" {
		y, err := strconv.Atoi(year)
		if err != nil || y < 1970 || y > 9999 {
			return Period{}, ErrInvalidYear
		}
		p.Year = y
	}
	if month != "" {
		m, err := strconv.Atoi(month)
		if err != nil || m < 1 || m > 12 {
			return Period{}, ErrInvalidMonth
		}
		if p.Year == 0 {
			return Period{}, ErrMonthWithoutYear
		}
		p.Month = m
	}
	return p, nil
}

// ParseMonth is ParsePeriod with both values mandatory.
func ParseMonth(year, month string) (Period, error) {
	if strings.TrimSpace(year) == "" || strings.TrimSpace(month) == "" {
		return Period{}, ErrPeriodRequired
	}
	return ParsePeriod(year, month)
}

func (p Period) IsZero() bool {
	return p.Year == 0
}

// Range returns the half-open interval [from, to) in UTC.
func (p Period) Range() (from, to time.Time) {
	if p.Month == 0 {
		from = time.Date(p.Year, time.January, 1, 0, 0, 0, 0, time.UTC)
		return from, from.AddDate(1, 0, 0)
	}
	from = time.Date(p.Year, time.Month(p.Month), 1, 0, 0, 0, 0, time.UTC)
	return from, from.AddDate(0, 1, 0)
}

func (p Period) Contains(t time.Time) bool {
	if p.IsZero() {
		return true
	}
	from, to := p.Range()
	return !t.Before(from) && t.Before(to)
}

// Filter renders the period as bound conditions on column, or nil when
// the period is empty.
func (p Period) Filter(column string) sq.Sqlizer {
	if p.IsZero() {
		return nil
	}
	from, to := p.Range()
	return sq.And{
		sq.GtOrEq{column: from},
		sq.Lt{column: to},
	}
}

// Label is appended to report titles, e.g. "for June 2025".
func (p Period) Label() string {
	switch {
	case p.IsZero():
		return ""
	case p.Month == 0:
		return fmt.Sprintf("for %d", p.Year)
	default:
		return fmt.Sprintf("for %s %d", time.Month(p.Month), p.Year)
	}
}
