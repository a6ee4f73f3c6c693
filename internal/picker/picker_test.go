package picker

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/avstrong/resortslots/internal/booking"
	"github.com/avstrong/resortslots/internal/calendar"
	"github.com/avstrong/resortslots/internal/pricing"
	"github.com/avstrong/resortslots/internal/slot"
)

type fakeGateway struct {
	availability *slot.Availability
	err          error
}

func (f *fakeGateway) RoomAvailability(_ context.Context, _ string) (*slot.Availability, error) {
	return f.availability, f.err
}

func datetime(year int, month time.Month, day, hour, min int) time.Time {
	return time.Date(year, month, day, hour, min, 0, 0, time.UTC)
}

func jan(day int, p slot.Period) slot.Slot {
	return slot.Slot{Date: slot.Date(2026, time.January, day), Period: p}
}

func fixed(t time.Time) Clock {
	return func() time.Time { return t }
}

func dayOnlyRoom() booking.Room {
	return booking.Room{ID: "1", Name: "Cabana", DayOnly: true, Rates: pricing.Rates{Day: pricing.MustParse("500")}}
}

func dayNightRoom() booking.Room {
	return booking.Room{
		ID:    "2",
		Name:  "Beach Villa",
		Rates: pricing.Rates{Day: pricing.MustParse("500"), Night: pricing.MustParse("300")},
	}
}

func readyPicker(t *testing.T, room booking.Room, booked []slot.Entry) *Picker {
	t.Helper()

	p := New(room, WithClock(fixed(datetime(2026, time.January, 1, 9, 0))))
	require.NoError(t, p.Load(context.Background(), &fakeGateway{availability: &slot.Availability{BookedSlots: booked}}))

	return p
}

func TestPicker_DayOnlyRange(t *testing.T) {
	p := readyPicker(t, dayOnlyRoom(), nil)

	assert.True(t, p.ClickSlot(jan(10, slot.Day)))
	assert.Equal(t, CheckInSet, p.Snapshot().State)

	assert.True(t, p.ClickSlot(jan(12, slot.Day)))

	s := p.Snapshot()
	assert.Equal(t, RangeSet, s.State)
	assert.Equal(t, []slot.Slot{jan(10, slot.Day), jan(11, slot.Day), jan(12, slot.Day)}, s.Selected)
	assert.Equal(t, pricing.MustParse("1500"), s.Breakdown.Total)
	assert.Empty(t, s.Notice)
}

func TestPicker_DayNightRange(t *testing.T) {
	p := readyPicker(t, dayNightRoom(), nil)

	p.ClickSlot(jan(10, slot.Night))
	p.ClickSlot(jan(11, slot.Day))

	s := p.Snapshot()
	assert.Equal(t, []slot.Slot{jan(10, slot.Night), jan(11, slot.Day)}, s.Selected)
	assert.Equal(t, pricing.MustParse("800"), s.Breakdown.Total)
	assert.Equal(t, "1 day + 1 night", s.Breakdown.Summary)
}

func TestPicker_Conflict(t *testing.T) {
	p := readyPicker(t, dayNightRoom(), []slot.Entry{{Date: "2026-01-11", Slot: "day", BookingID: "5"}})

	var changes []Change
	p.Subscribe(func(c Change) { changes = append(changes, c) })

	p.ClickSlot(jan(10, slot.Day))
	p.ClickSlot(jan(12, slot.Day))

	s := p.Snapshot()
	assert.Equal(t, RangeSet, s.State)
	assert.Empty(t, s.Selected)
	assert.Equal(t, []slot.Slot{jan(11, slot.Day)}, s.Conflicts)
	assert.Equal(t, "selection overlaps existing bookings: day on 2026-01-11", s.Notice)

	require.Len(t, changes, 2)
	assert.Equal(t, []slot.Slot{jan(10, slot.Day)}, changes[0].Slots)
	assert.Empty(t, changes[1].Slots)
	assert.Zero(t, changes[1].Total)
	assert.Equal(t, []slot.Slot{jan(11, slot.Day)}, changes[1].Conflicts)

	_, err := p.Request(2, "")
	conflict := IsConflictError(err)
	require.NotNil(t, conflict)
	assert.Equal(t, []slot.Slot{jan(11, slot.Day)}, conflict.Slots())

	// a new check-out keeps the check-in
	assert.True(t, p.ClickSlot(jan(10, slot.Night)))

	s = p.Snapshot()
	assert.Equal(t, RangeSet, s.State)
	assert.Equal(t, jan(10, slot.Day), *s.CheckIn)
	assert.Equal(t, []slot.Slot{jan(10, slot.Day), jan(10, slot.Night)}, s.Selected)
	assert.Empty(t, s.Conflicts)
}

func TestPicker_BookedAndPastClicksIgnored(t *testing.T) {
	p := New(dayNightRoom(), WithClock(fixed(datetime(2026, time.January, 10, 18, 0))))
	require.NoError(t, p.Load(context.Background(), &fakeGateway{availability: &slot.Availability{
		BookedSlots: []slot.Entry{{Date: "2026-01-12", Slot: "day"}},
	}}))

	assert.False(t, p.ClickSlot(jan(10, slot.Day)))
	assert.False(t, p.ClickSlot(jan(10, slot.Night)))
	assert.False(t, p.ClickSlot(jan(12, slot.Day)))
	assert.Equal(t, Empty, p.Snapshot().State)

	_, cells := p.Calendar()
	jan10 := cells[4+9]
	require.Equal(t, 10, jan10.Day)

	for _, ps := range jan10.Periods {
		assert.True(t, ps.Past)
		assert.False(t, ps.Selectable)
	}
}

func TestPicker_ClickAtOrBeforeCheckInRestarts(t *testing.T) {
	p := readyPicker(t, dayNightRoom(), nil)

	p.ClickSlot(jan(10, slot.Night))
	assert.True(t, p.ClickSlot(jan(10, slot.Day)))

	s := p.Snapshot()
	assert.Equal(t, CheckInSet, s.State)
	assert.Equal(t, jan(10, slot.Day), *s.CheckIn)
	assert.Nil(t, s.CheckOut)

	assert.True(t, p.ClickSlot(jan(10, slot.Day)))
	assert.Equal(t, CheckInSet, p.Snapshot().State)

	p.ClickSlot(jan(13, slot.Day))
	require.Equal(t, RangeSet, p.Snapshot().State)

	assert.True(t, p.ClickSlot(jan(8, slot.Night)))

	s = p.Snapshot()
	assert.Equal(t, CheckInSet, s.State)
	assert.Equal(t, jan(8, slot.Night), *s.CheckIn)
	assert.Nil(t, s.CheckOut)
	assert.Equal(t, []slot.Slot{jan(8, slot.Night)}, s.Selected)
}

func TestPicker_ClickAfterRangeRestarts(t *testing.T) {
	p := readyPicker(t, dayNightRoom(), nil)

	p.ClickSlot(jan(10, slot.Day))
	p.ClickSlot(jan(11, slot.Day))
	p.ClickSlot(jan(15, slot.Night))

	s := p.Snapshot()
	assert.Equal(t, CheckInSet, s.State)
	assert.Equal(t, jan(15, slot.Night), *s.CheckIn)
}

func TestPicker_ToggleInterior(t *testing.T) {
	p := readyPicker(t, dayNightRoom(), nil)

	p.ClickSlot(jan(10, slot.Day))
	p.ClickSlot(jan(13, slot.Day))

	full := p.Snapshot().Selected
	require.Len(t, full, 7)

	assert.True(t, p.ClickSlot(jan(11, slot.Night)))

	s := p.Snapshot()
	assert.Equal(t, RangeSet, s.State)
	assert.Equal(t, []slot.Slot{jan(11, slot.Night)}, s.Removed)
	assert.Equal(t, []slot.Slot{
		jan(10, slot.Day), jan(10, slot.Night), jan(11, slot.Day), jan(12, slot.Day), jan(12, slot.Night), jan(13, slot.Day),
	}, s.Selected)
	assert.Equal(t, pricing.MustParse("2600"), s.Breakdown.Total)

	assert.True(t, p.ClickSlot(jan(11, slot.Night)))
	assert.Equal(t, full, p.Snapshot().Selected)
	assert.Empty(t, p.Snapshot().Removed)
}

func TestPicker_EndpointsAreNotRemovable(t *testing.T) {
	p := readyPicker(t, dayNightRoom(), nil)

	p.ClickSlot(jan(10, slot.Day))
	p.ClickSlot(jan(13, slot.Day))
	p.ClickSlot(jan(13, slot.Day))

	s := p.Snapshot()
	assert.Equal(t, CheckInSet, s.State)
	assert.Equal(t, jan(13, slot.Day), *s.CheckIn)
	assert.Empty(t, s.Removed)
}

func TestPicker_Idempotent(t *testing.T) {
	p := readyPicker(t, dayNightRoom(), nil)

	p.ClickSlot(jan(10, slot.Day))
	p.ClickSlot(jan(12, slot.Night))
	p.ClickSlot(jan(11, slot.Day))

	assert.Equal(t, p.Snapshot(), p.Snapshot())
}

func TestPicker_ClickDate(t *testing.T) {
	p := readyPicker(t, dayNightRoom(), []slot.Entry{
		{Date: "2026-01-10", Slot: "day"},
		{Date: "2026-01-14", Slot: "night"},
		{Date: "2026-01-20", Slot: "day"},
		{Date: "2026-01-20", Slot: "night"},
	})

	// earliest selectable period starts the stay
	assert.True(t, p.ClickDate(slot.Date(2026, time.January, 10)))
	assert.Equal(t, jan(10, slot.Night), *p.Snapshot().CheckIn)

	// latest free period ends it
	assert.True(t, p.ClickDate(slot.Date(2026, time.January, 14)))

	s := p.Snapshot()
	assert.Equal(t, RangeSet, s.State)
	assert.Equal(t, jan(14, slot.Day), *s.CheckOut)
	assert.Len(t, s.Selected, 8)

	// fully booked date is a no-op
	assert.False(t, p.ClickDate(slot.Date(2026, time.January, 20)))
	assert.Equal(t, s, p.Snapshot())

	p.Clear()
	assert.False(t, p.ClickDate(slot.Date(2026, time.January, 20)))
	assert.Equal(t, Empty, p.Snapshot().State)
}

func TestPicker_RangeTooLong(t *testing.T) {
	p := readyPicker(t, dayNightRoom(), nil)

	p.ClickSlot(jan(2, slot.Day))
	p.ClickSlot(slot.Slot{Date: slot.Date(2026, time.December, 30), Period: slot.Day})

	s := p.Snapshot()
	assert.Equal(t, RangeSet, s.State)
	assert.Empty(t, s.Selected)
	assert.Contains(t, s.Notice, slot.ErrRangeTooLong.Error())

	_, err := p.Request(1, "")
	assert.ErrorIs(t, err, slot.ErrRangeTooLong)

	// narrowing the check-out recovers
	assert.True(t, p.ClickSlot(jan(4, slot.Day)))
	assert.Len(t, p.Snapshot().Selected, 5)
}

func TestPicker_Clear(t *testing.T) {
	p := readyPicker(t, dayNightRoom(), nil)

	var last Change
	p.Subscribe(func(c Change) { last = c })

	p.ClickSlot(jan(10, slot.Day))
	p.ClickSlot(jan(11, slot.Day))
	require.Len(t, last.Slots, 3)

	p.Clear()

	assert.Equal(t, Empty, p.Snapshot().State)
	assert.Empty(t, last.Slots)
}

func TestPicker_ViewKeepsSelection(t *testing.T) {
	p := readyPicker(t, dayNightRoom(), nil)

	p.ClickSlot(jan(30, slot.Day))
	p.NextMonth()
	p.ClickSlot(slot.Slot{Date: slot.Date(2026, time.February, 1), Period: slot.Day})

	s := p.Snapshot()
	assert.Equal(t, calendar.View{Year: 2026, Month: time.February}, s.View)
	assert.Len(t, s.Selected, 5)

	assert.Equal(t, calendar.View{Year: 2026, Month: time.January}, p.PrevMonth())
	assert.Len(t, p.Snapshot().Selected, 5)
}

func TestPicker_DayOnlyIgnoresNight(t *testing.T) {
	p := readyPicker(t, dayOnlyRoom(), nil)

	assert.False(t, p.ClickSlot(jan(10, slot.Night)))

	p.ClickSlot(jan(10, slot.Day))
	assert.True(t, p.ClickDate(slot.Date(2026, time.January, 11)))
	assert.Equal(t, jan(11, slot.Day), *p.Snapshot().CheckOut)
}

func TestPicker_FailClosed(t *testing.T) {
	p := New(dayNightRoom(), WithClock(fixed(datetime(2026, time.January, 1, 9, 0))))

	assert.Equal(t, Loading, p.Snapshot().Status)
	assert.False(t, p.ClickSlot(jan(10, slot.Day)))

	err := p.Load(context.Background(), &fakeGateway{err: errors.New("503")})
	require.Error(t, err)
	assert.Equal(t, Failed, p.Snapshot().Status)
	assert.False(t, p.ClickSlot(jan(10, slot.Day)))

	_, err = p.Request(1, "")
	assert.ErrorIs(t, err, ErrAvailabilityUnavailable)

	require.NoError(t, p.Load(context.Background(), &fakeGateway{availability: &slot.Availability{}}))
	assert.True(t, p.ClickSlot(jan(10, slot.Day)))
}

func TestPicker_MalformedAvailabilityFailsClosed(t *testing.T) {
	p := New(dayNightRoom(), WithClock(fixed(datetime(2026, time.January, 1, 9, 0))))

	err := p.Load(context.Background(), &fakeGateway{availability: &slot.Availability{
		BookedSlots: []slot.Entry{{Date: "2026-01-10", Slot: "afternoon"}},
	}})
	assert.ErrorIs(t, err, slot.ErrUnknownPeriod)
	assert.Equal(t, Failed, p.Snapshot().Status)
}

func TestPicker_ReloadKeepsSelectionAndDisablesIt(t *testing.T) {
	p := readyPicker(t, dayNightRoom(), nil)

	p.ClickSlot(jan(10, slot.Day))
	p.ClickSlot(jan(12, slot.Day))

	token := p.BeginLoad()
	s := p.Snapshot()
	assert.Equal(t, Loading, s.Status)
	assert.Empty(t, s.Selected)
	assert.Equal(t, RangeSet, s.State)

	idx, err := slot.NewIndex(slot.Availability{BookedSlots: []slot.Entry{{Date: "2026-01-11", Slot: "night"}}})
	require.NoError(t, err)
	require.True(t, p.Apply(token, idx, nil))

	assert.Equal(t, []slot.Slot{jan(11, slot.Night)}, p.Snapshot().Conflicts)
}

func TestPicker_StaleResults(t *testing.T) {
	p := New(dayNightRoom(), WithClock(fixed(datetime(2026, time.January, 1, 9, 0))))

	first := p.BeginLoad()
	second := p.BeginLoad()

	assert.False(t, p.Apply(first, &slot.Index{}, nil))
	assert.Equal(t, Loading, p.Snapshot().Status)

	p.Close()
	assert.False(t, p.Apply(second, &slot.Index{}, nil))
	assert.Equal(t, Closed, p.Snapshot().Status)
	assert.Zero(t, p.BeginLoad())
}

func TestPicker_Request(t *testing.T) {
	p := readyPicker(t, dayNightRoom(), nil)

	_, err := p.Request(1, "")
	assert.ErrorIs(t, err, ErrEmptySelection)

	p.ClickSlot(jan(10, slot.Night))
	p.ClickSlot(jan(11, slot.Day))

	req, err := p.Request(3, "late arrival")
	require.NoError(t, err)
	assert.Equal(t, &booking.Request{
		Room:            "2",
		Guests:          3,
		Slots:           []slot.Slot{jan(10, slot.Night), jan(11, slot.Day)},
		SpecialRequests: "late arrival",
	}, req)
}

func TestPicker_Unsubscribe(t *testing.T) {
	p := readyPicker(t, dayNightRoom(), nil)

	calls := 0
	cancel := p.Subscribe(func(Change) { calls++ })

	p.ClickSlot(jan(10, slot.Day))
	cancel()
	p.ClickSlot(jan(11, slot.Day))

	assert.Equal(t, 1, calls)
}

func TestPicker_NoNotificationWithoutChange(t *testing.T) {
	p := readyPicker(t, dayNightRoom(), nil)

	calls := 0
	p.Subscribe(func(Change) { calls++ })

	p.ClickSlot(jan(10, slot.Day))
	p.ClickSlot(jan(10, slot.Day))

	assert.Equal(t, 1, calls)
}

func TestPicker_SelectionElapsesAtCutoff(t *testing.T) {
	now := datetime(2026, time.January, 10, 16, 50)

	p := New(dayNightRoom(), WithClock(func() time.Time { return now }))
	require.NoError(t, p.Load(context.Background(), &fakeGateway{availability: &slot.Availability{}}))

	require.True(t, p.ClickSlot(jan(10, slot.Day)))
	require.True(t, p.ClickSlot(jan(11, slot.Day)))
	require.Len(t, p.Snapshot().Selected, 3)

	_, err := p.Request(2, "")
	require.NoError(t, err)

	now = datetime(2026, time.January, 10, 17, 30)

	s := p.Snapshot()
	assert.Equal(t, RangeSet, s.State)
	assert.Empty(t, s.Selected)
	assert.Zero(t, s.Breakdown.Total)
	assert.Equal(t, ErrSelectionElapsed.Error(), s.Notice)

	_, err = p.Request(2, "")
	assert.ErrorIs(t, err, ErrSelectionElapsed)

	// an interior slot no longer toggles, the click starts a new selection
	require.True(t, p.ClickSlot(jan(12, slot.Day)))

	s = p.Snapshot()
	assert.Equal(t, CheckInSet, s.State)
	assert.Equal(t, jan(12, slot.Day), *s.CheckIn)
	assert.Equal(t, []slot.Slot{jan(12, slot.Day)}, s.Selected)
	assert.Empty(t, s.Notice)
}

func TestPicker_ElapsedCheckInDateClickRestarts(t *testing.T) {
	now := datetime(2026, time.January, 10, 9, 0)

	p := New(dayNightRoom(), WithClock(func() time.Time { return now }))
	require.NoError(t, p.Load(context.Background(), &fakeGateway{availability: &slot.Availability{}}))

	require.True(t, p.ClickSlot(jan(10, slot.Night)))

	now = datetime(2026, time.January, 11, 8, 0)

	// without the restart this would become the check-out
	require.True(t, p.ClickDate(slot.Date(2026, time.January, 12)))

	s := p.Snapshot()
	assert.Equal(t, CheckInSet, s.State)
	assert.Equal(t, jan(12, slot.Day), *s.CheckIn)
}

func TestPicker_ListenersSeeChangesInOrder(t *testing.T) {
	p := readyPicker(t, dayOnlyRoom(), nil)

	var (
		mu      sync.Mutex
		changes []Change
	)

	p.Subscribe(func(c Change) {
		mu.Lock()
		defer mu.Unlock()

		changes = append(changes, c)
	})

	var wg sync.WaitGroup

	for i := 0; i < 40; i++ {
		wg.Add(1)

		go func(i int) {
			defer wg.Done()

			p.ClickSlot(jan(5+i%10, slot.Day))
		}(i)
	}

	wg.Wait()

	mu.Lock()
	defer mu.Unlock()

	require.NotEmpty(t, changes)

	for i, c := range changes {
		assert.Equal(t, uint64(i+1), c.Seq)
	}

	assert.Equal(t, p.Snapshot().Selected, changes[len(changes)-1].Slots)
}

func TestPicker_ListenerMayClickReentrantly(t *testing.T) {
	p := readyPicker(t, dayOnlyRoom(), nil)

	var seqs []uint64

	p.Subscribe(func(c Change) {
		seqs = append(seqs, c.Seq)

		if c.Seq == 1 {
			p.ClickSlot(jan(12, slot.Day))
		}
	})

	require.True(t, p.ClickSlot(jan(10, slot.Day)))

	assert.Equal(t, []uint64{1, 2}, seqs)
	assert.Len(t, p.Snapshot().Selected, 3)
}
