package pricing

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/avstrong/resortslots/internal/slot"
)

func jan(day int, p slot.Period) slot.Slot {
	return slot.Slot{Date: slot.Date(2026, time.January, day), Period: p}
}

func TestParseAmount(t *testing.T) {
	cases := map[string]Amount{
		"500":     50000,
		"500.00":  50000,
		"499.5":   49950,
		"0.01":    1,
		"1250.75": 125075,
		"12.340":  1234,

		"92233720368547757.99": 9223372036854775799,
	}

	for in, want := range cases {
		got, err := ParseAmount(in)
		require.NoError(t, err, in)
		assert.Equal(t, want, got, in)
	}

	for _, in := range []string{"", "abc", "-5", "+5", "1.234", ".5", "1.-2", "1.+5", "1. 5", "92233720368547758"} {
		_, err := ParseAmount(in)
		assert.Error(t, err, in)
	}
}

func TestAmount_String(t *testing.T) {
	assert.Equal(t, "1500.00", Amount(150000).String())
	assert.Equal(t, "0.05", Amount(5).String())
	assert.Equal(t, "-3.10", Amount(-310).String())
}

func TestAmount_JSON(t *testing.T) {
	var r Rates
	require.NoError(t, json.Unmarshal([]byte(`{"day_price":"500.00","night_price":null}`), &r))
	assert.Equal(t, Rates{Day: 50000}, r)

	require.NoError(t, json.Unmarshal([]byte(`{"day_price":450.5,"night_price":"300"}`), &r))
	assert.Equal(t, Rates{Day: 45050, Night: 30000}, r)

	b, err := json.Marshal(Amount(80000))
	require.NoError(t, err)
	assert.Equal(t, `"800.00"`, string(b))
}

func TestTotal(t *testing.T) {
	dayOnly := Rates{Day: MustParse("500")}
	assert.Equal(t, MustParse("1500"), Total([]slot.Slot{jan(10, slot.Day), jan(11, slot.Day), jan(12, slot.Day)}, dayOnly))

	split := Rates{Day: MustParse("500"), Night: MustParse("300")}
	assert.Equal(t, MustParse("800"), Total([]slot.Slot{jan(10, slot.Night), jan(11, slot.Day)}, split))

	// no distinct night rate
	assert.Equal(t, MustParse("1000"), Total([]slot.Slot{jan(10, slot.Day), jan(10, slot.Night)}, dayOnly))

	assert.Zero(t, Total(nil, split))
}

func TestTotal_Monotonic(t *testing.T) {
	r := Rates{Day: MustParse("500"), Night: MustParse("300")}

	var (
		slots []slot.Slot
		prev  Amount
	)

	for s := jan(1, slot.Day); s.Before(jan(8, slot.Day)); s = s.Next(false) {
		slots = append(slots, s)

		total := Total(slots, r)
		assert.GreaterOrEqual(t, int64(total), int64(prev))
		prev = total
	}
}

func TestTotal_NoDrift(t *testing.T) {
	r := Rates{Day: MustParse("0.10")}

	slots := make([]slot.Slot, 0, 30)
	for s := jan(1, slot.Day); len(slots) < 30; s = s.Next(true) {
		slots = append(slots, s)
	}

	assert.Equal(t, "3.00", Total(slots, r).String())
}

func TestSummarize(t *testing.T) {
	r := Rates{Day: MustParse("500"), Night: MustParse("300")}

	b := Summarize([]slot.Slot{jan(10, slot.Day), jan(10, slot.Night), jan(11, slot.Day)}, r)
	assert.Equal(t, Breakdown{DaySlots: 2, NightSlots: 1, Total: MustParse("1300"), Summary: "2 day + 1 night"}, b)

	assert.Equal(t, "No slots", Summarize(nil, r).Summary)
	assert.Equal(t, "1 night", Summarize([]slot.Slot{jan(3, slot.Night)}, r).Summary)
}
