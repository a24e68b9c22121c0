package report

import (
	"testing"
	"time"

	sq "github.com/Masterminds/squirrel"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParsePeriod(t *testing.T) {
	tests := []struct {
		name        string
		year, month string
		want        Period
		wantErr     error
	}{
		{name: "empty", want: Period{}},
		{name: "year only", year: "2025", want: Period{Year: 2025}},
		{name: "year and month", year: "2025", month: "06", want: Period{Year: 2025, Month: 6}},
		{name: "month without year", month: "6", wantErr: ErrMonthWithoutYear},
		{name: "year too small", year: "1969", wantErr: ErrInvalidYear},
		{name: "year not a number", year: "twenty", wantErr: ErrInvalidYear},
		{name: "month zero", year: "2025", month: "0", wantErr: ErrInvalidMonth},
		{name: "month thirteen", year: "2025", month: "13", wantErr: ErrInvalidMonth},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParsePeriod(tt.year, tt.month)
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestParseMonth_RequiresBoth(t *testing.T) {
	_, err := ParseMonth("2025", "")
	assert.ErrorIs(t, err, ErrPeriodRequired)
	_, err = ParseMonth("", "06")
	assert.ErrorIs(t, err, ErrPeriodRequired)

	p, err := ParseMonth("2025", "12")
	require.NoError(t, err)
	from, to := p.Range()
	assert.Equal(t, time.Date(2025, time.December, 1, 0, 0, 0, 0, time.UTC), from)
	assert.Equal(t, time.Date(2026, time.January, 1, 0, 0, 0, 0, time.UTC), to)
}

func TestPeriodContainsIsHalfOpen(t *testing.T) {
	p := Period{Year: 2025, Month: 6}
	assert.True(t, p.Contains(time.Date(2025, time.June, 1, 0, 0, 0, 0, time.UTC)))
	assert.True(t, p.Contains(time.Date(2025, time.June, 30, 23, 59, 59, 0, time.UTC)))
	assert.False(t, p.Contains(time.Date(2025, time.July, 1, 0, 0, 0, 0, time.UTC)))
	assert.True(t, Period{}.Contains(time.Time{}))
}

func TestPeriodFilterBindsRange(t *testing.T) {
	assert.Nil(t, Period{}.Filter("created_at"))

	query, args, err := sq.Select("id").From("users").
		Where(Period{Year: 2024}.Filter("created_at")).
		PlaceholderFormat(sq.Dollar).
		ToSql()
	require.NoError(t, err)
	assert.Equal(t, "SELECT id FROM users WHERE (created_at >= $1 AND created_at < $2)", query)
	assert.Equal(t, []any{
		time.Date(2024, time.January, 1, 0, 0, 0, 0, time.UTC),
		time.Date(2025, time.January, 1, 0, 0, 0, 0, time.UTC),
	}, args)
}

func TestPeriodLabel(t *testing.T) {
	assert.Equal(t, "", Period{}.Label())
	assert.Equal(t, "for 2025", Period{Year: 2025}.Label())
	assert.Equal(t, "for June 2025", Period{Year: 2025, Month: 6}.Label())
}
