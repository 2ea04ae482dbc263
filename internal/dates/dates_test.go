package dates

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParse_FullPrecision(t *testing.T) {
	got := Parse("2020-06-15")
	require.NotNil(t, got)
	assert.Equal(t, time.Date(2020, 6, 15, 0, 0, 0, 0, time.UTC), *got)
}

func TestParse_YearMonth(t *testing.T) {
	got := Parse("2020-06")
	require.NotNil(t, got)
	assert.Equal(t, time.Date(2020, 6, 1, 0, 0, 0, 0, time.UTC), *got)
}

func TestParse_YearOnly(t *testing.T) {
	got := Parse("2020")
	require.NotNil(t, got)
	assert.Equal(t, time.Date(2020, 1, 1, 0, 0, 0, 0, time.UTC), *got)
}

func TestParse_Invalid(t *testing.T) {
	assert.Nil(t, Parse(""))
	assert.Nil(t, Parse("garbage"))
	assert.Nil(t, Parse("2020-13"))
	assert.Nil(t, Parse("15-06-2020"))
}

func TestFormat_RoundTrip(t *testing.T) {
	for _, s := range []string{"2020-06-15", "1999-12-31", "2024-02-29"} {
		assert.Equal(t, s, Format(Parse(s)))
	}
}

func TestFormat_Nil(t *testing.T) {
	assert.Equal(t, "", Format(nil))
	assert.Equal(t, "", FormatMonth(nil))
}

func TestFormatMonth(t *testing.T) {
	assert.Equal(t, "2020-06", FormatMonth(Parse("2020-06-15")))
}
