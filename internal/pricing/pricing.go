package pricing

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/avstrong/resortslots/internal/slot"
)

var (
	ErrInvalidAmount = errors.New("invalid amount")
	ErrPrecision     = errors.New("amount has more than two fraction digits")
)

const minorPerUnit = 100

// Amount is money in minor units (centavos).
type Amount int64

func isDigits(s string) bool {
	for i := 0; i < len(s); i++ {
		if s[i] < '0' || s[i] > '9' {
			return false
		}
	}

	return true
}

func ParseAmount(s string) (Amount, error) {
	s = strings.TrimSpace(s)

	whole, frac, hasFrac := strings.Cut(s, ".")
	if whole == "" || !isDigits(whole) || !isDigits(frac) {
		return 0, fmt.Errorf("%q: %w", s, ErrInvalidAmount)
	}

	units, err := strconv.ParseInt(whole, 10, 64)
	if err != nil || units > (math.MaxInt64-minorPerUnit)/minorPerUnit {
		return 0, fmt.Errorf("%q: %w", s, ErrInvalidAmount)
	}

	var minor int64

	if hasFrac {
		frac = strings.TrimRight(frac, "0")
		if len(frac) > 2 { //nolint:gomnd
			return 0, fmt.Errorf("%q: %w", s, ErrPrecision)
		}

		if frac != "" {
			frac += strings.Repeat("0", 2-len(frac))

			minor, err = strconv.ParseInt(frac, 10, 64)
			if err != nil {
				return 0, fmt.Errorf("%q: %w", s, ErrInvalidAmount)
			}
		}
	}

	return Amount(units*minorPerUnit + minor), nil
}

func MustParse(s string) Amount {
	a, err := ParseAmount(s)
	if err != nil {
		panic(err)
	}

	return a
}

func (a Amount) String() string {
	sign := ""
	if a < 0 {
		sign = "-"
		a = -a
	}

	return fmt.Sprintf("%s%d.%02d", sign, a/minorPerUnit, a%minorPerUnit)
}

func (a Amount) MarshalJSON() ([]byte, error) {
	return json.Marshal(a.String()) //nolint:wrapcheck
}

// UnmarshalJSON accepts decimal strings and plain JSON numbers.
func (a *Amount) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	if bytes.Equal(b, []byte("null")) {
		*a = 0

		return nil
	}

	raw := string(b)
	if len(b) > 0 && b[0] == '"' {
		if err := json.Unmarshal(b, &raw); err != nil {
			return fmt.Errorf("decode amount: %w", err)
		}
	}

	parsed, err := ParseAmount(raw)
	if err != nil {
		return err
	}

	*a = parsed

	return nil
}

// Rates are the per-slot prices of one room. A zero Night rate means the room
// has no distinct night rate and night slots cost the day rate.
type Rates struct {
	Day   Amount `json:"day_price"`
	Night Amount `json:"night_price"`
}

func (r Rates) Of(p slot.Period) Amount {
	if p == slot.Night && r.Night > 0 {
		return r.Night
	}

	return r.Day
}

// Total sums the rate of every slot; no slots cost nothing.
func Total(slots []slot.Slot, r Rates) Amount {
	var total Amount

	for _, s := range slots {
		total += r.Of(s.Period)
	}

	return total
}

type Breakdown struct {
	DaySlots   int    `json:"day_slots"`
	NightSlots int    `json:"night_slots"`
	Total      Amount `json:"total"`
	Summary    string `json:"summary"`
}

func Summarize(slots []slot.Slot, r Rates) Breakdown {
	var b Breakdown

	for _, s := range slots {
		if s.Period == slot.Night {
			b.NightSlots++
		} else {
			b.DaySlots++
		}
	}

	b.Total = Total(slots, r)

	var parts []string
	if b.DaySlots > 0 {
		parts = append(parts, fmt.Sprintf("%d day", b.DaySlots))
	}

	if b.NightSlots > 0 {
		parts = append(parts, fmt.Sprintf("%d night", b.NightSlots))
	}

	b.Summary = "No slots"
	if len(parts) > 0 {
		b.Summary = strings.Join(parts, " + ")
	}

	return b
}
