package picker

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"sync"
	"time"

	"github.com/avstrong/resortslots/internal/booking"
	"github.com/avstrong/resortslots/internal/calendar"
	"github.com/avstrong/resortslots/internal/pricing"
	"github.com/avstrong/resortslots/internal/slot"
)

type availabilityGateway interface {
	RoomAvailability(ctx context.Context, roomID string) (*slot.Availability, error)
}

// Change is delivered to listeners whenever the derived selection changes.
// Seq grows by one per change and listeners see changes in Seq order.
type Change struct {
	Seq       uint64
	Slots     []slot.Slot
	Total     pricing.Amount
	Conflicts []slot.Slot
	Err       error
}

type Listener func(Change)

type Clock func() time.Time

type Option func(*Picker)

func WithClock(c Clock) Option {
	return func(p *Picker) {
		p.now = c
	}
}

type derived struct {
	selected  []slot.Slot
	conflicts []slot.Slot
	err       error
}

type delivery struct {
	listeners []Listener
	change    Change
}

func (d derived) equal(o derived) bool {
	eq := func(a, b slot.Slot) bool { return a.Equal(b) }

	return slices.EqualFunc(d.selected, o.selected, eq) &&
		slices.EqualFunc(d.conflicts, o.conflicts, eq) &&
		errors.Is(d.err, o.err) && errors.Is(o.err, d.err)
}

// Picker is the selection controller of one room. Every transition runs to
// completion under its lock; listeners are called after the lock is released,
// one change at a time and in the order the transitions happened.
type Picker struct {
	mu sync.Mutex

	room   booking.Room
	now    Clock
	status Status
	gen    uint64
	index  *slot.Index

	checkIn  *slot.Slot
	checkOut *slot.Slot
	removed  map[string]slot.Slot

	view    calendar.View
	derived derived

	listeners map[int]Listener
	nextID    int

	seq        uint64
	outbox     []delivery
	delivering bool
}

func New(room booking.Room, opts ...Option) *Picker {
	//nolint:exhaustruct
	p := &Picker{
		room:      room,
		now:       time.Now,
		status:    Loading,
		removed:   make(map[string]slot.Slot),
		listeners: make(map[int]Listener),
	}

	for _, opt := range opts {
		opt(p)
	}

	p.view = calendar.ViewOf(p.now())
	p.derived = p.derive()

	return p
}

func (p *Picker) Room() booking.Room {
	return p.room
}

// Subscribe registers l for selection changes and returns its cancel func.
func (p *Picker) Subscribe(l Listener) func() {
	p.mu.Lock()
	defer p.mu.Unlock()

	id := p.nextID
	p.nextID++
	p.listeners[id] = l

	return func() {
		p.mu.Lock()
		defer p.mu.Unlock()

		delete(p.listeners, id)
	}
}

// BeginLoad starts an availability fetch and returns the token its result must carry.
func (p *Picker) BeginLoad() uint64 {
	p.mu.Lock()

	if p.status == Closed {
		p.mu.Unlock()

		return 0
	}

	p.gen++
	token := p.gen
	p.status = Loading
	p.index = nil

	p.finish()

	return token
}

// Apply installs the result of the fetch started with token. Results of
// superseded fetches, or arriving after Close, are dropped and false is returned.
// A failed fetch keeps the picker disabled until a later fetch succeeds.
func (p *Picker) Apply(token uint64, idx *slot.Index, fetchErr error) bool {
	p.mu.Lock()

	if p.status == Closed || token != p.gen {
		p.mu.Unlock()

		return false
	}

	if fetchErr != nil {
		p.status = Failed
		p.index = nil
	} else {
		p.status = Ready
		p.index = idx
	}

	p.finish()

	return true
}

// Load fetches the room's booked slots through gw and applies them.
func (p *Picker) Load(ctx context.Context, gw availabilityGateway) error {
	token := p.BeginLoad()
	if token == 0 {
		return ErrAvailabilityUnavailable
	}

	a, err := gw.RoomAvailability(ctx, p.room.ID)

	var idx *slot.Index

	switch {
	case err != nil:
	case a == nil:
		idx = &slot.Index{}
	default:
		idx, err = slot.NewIndex(*a)
	}

	p.Apply(token, idx, err)

	if err != nil {
		return fmt.Errorf("load availability of room %v: %w", p.room.ID, err)
	}

	return nil
}

// Close tears the picker down; late fetch results are discarded.
func (p *Picker) Close() {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.status = Closed
	p.gen++
	p.listeners = make(map[int]Listener)
	p.outbox = nil
}

// elapsed reports a check-in the clock has moved past. Later slots of the
// range elapse no earlier than the check-in does.
func (p *Picker) elapsed() bool {
	return p.checkIn != nil && calendar.Elapsed(p.checkIn.Date, p.now())
}

func (p *Picker) state() State {
	switch {
	case p.checkIn == nil:
		return Empty
	case p.checkOut == nil:
		return CheckInSet
	default:
		return RangeSet
	}
}

func (p *Picker) offered(s slot.Slot) bool {
	return !p.room.DayOnly || s.Period == slot.Day
}

func (p *Picker) selectable(s slot.Slot) bool {
	return p.offered(s) && calendar.StateOf(s, p.now(), p.index).Selectable
}

func (p *Picker) freeCheckOut(s slot.Slot) bool {
	return p.offered(s) && !p.index.IsBooked(s.Date, s.Period)
}

// blocked reports a range that cannot be submitted as it stands.
func (p *Picker) blocked() bool {
	d := p.derive()

	return len(d.conflicts) > 0 || d.err != nil
}

// clickState is the state clicks act on. A selection whose check-in has
// elapsed is treated as empty so the next click starts over.
func (p *Picker) clickState() State {
	if p.elapsed() {
		return Empty
	}

	return p.state()
}

func (p *Picker) setCheckIn(s slot.Slot) {
	p.checkIn = &s
	p.checkOut = nil
	p.removed = make(map[string]slot.Slot)
}

func (p *Picker) setCheckOut(s slot.Slot) {
	p.checkOut = &s

	for k, r := range p.removed {
		if !r.Between(*p.checkIn, s) {
			delete(p.removed, k)
		}
	}
}

func (p *Picker) toggle(s slot.Slot) {
	if _, ok := p.removed[s.Key()]; ok {
		delete(p.removed, s.Key())

		return
	}

	p.removed[s.Key()] = s
}

func (p *Picker) clickSlot(s slot.Slot) bool {
	if p.status != Ready || !p.offered(s) {
		return false
	}

	switch p.clickState() {
	case CheckInSet:
		if s.After(*p.checkIn) {
			if !p.freeCheckOut(s) {
				return false
			}

			p.setCheckOut(s)

			return true
		}
	case RangeSet:
		blocked := p.blocked()

		if !blocked && s.Between(*p.checkIn, *p.checkOut) {
			p.toggle(s)

			return true
		}

		if blocked && s.After(*p.checkIn) {
			if !p.freeCheckOut(s) {
				return false
			}

			p.setCheckOut(s)

			return true
		}
	case Empty:
	}

	if !p.selectable(s) {
		return false
	}

	p.setCheckIn(s)

	return true
}

func (p *Picker) clickDate(date time.Time) bool {
	if p.status != Ready {
		return false
	}

	date = slot.DateOf(date)
	periods := slot.Periods(p.room.DayOnly)

	if st := p.clickState(); st == CheckInSet || (st == RangeSet && p.blocked()) {
		for i := len(periods) - 1; i >= 0; i-- {
			s := slot.Slot{Date: date, Period: periods[i]}
			if s.After(*p.checkIn) && p.freeCheckOut(s) {
				p.setCheckOut(s)

				return true
			}
		}
	}

	for _, period := range periods {
		s := slot.Slot{Date: date, Period: period}
		if p.selectable(s) {
			p.setCheckIn(s)

			return true
		}
	}

	return false
}

// ClickSlot feeds a click on one period of a date into the state machine.
// Clicks the current state cannot use are ignored and reported as false.
func (p *Picker) ClickSlot(s slot.Slot) bool {
	p.mu.Lock()

	s = slot.New(s.Date, s.Period)
	if !p.clickSlot(s) {
		p.mu.Unlock()

		return false
	}

	p.finish()

	return true
}

// ClickDate resolves a click on a date number to its earliest selectable period
// when starting a stay and to its latest free period when ending one.
func (p *Picker) ClickDate(date time.Time) bool {
	p.mu.Lock()

	if !p.clickDate(date) {
		p.mu.Unlock()

		return false
	}

	p.finish()

	return true
}

func (p *Picker) Clear() {
	p.mu.Lock()

	p.checkIn = nil
	p.checkOut = nil
	p.removed = make(map[string]slot.Slot)

	p.finish()
}

func (p *Picker) derive() derived {
	var d derived

	if p.checkIn == nil {
		return d
	}

	if p.status != Ready {
		d.err = ErrAvailabilityUnavailable

		return d
	}

	if p.elapsed() {
		d.err = ErrSelectionElapsed

		return d
	}

	rng, err := slot.Expand(*p.checkIn, p.checkOut, p.room.DayOnly)
	if err != nil {
		d.err = err

		return d
	}

	if conflicts := slot.Overlaps(rng, p.index); len(conflicts) > 0 {
		d.conflicts = conflicts

		return d
	}

	d.selected = make([]slot.Slot, 0, len(rng))

	for _, s := range rng {
		if _, off := p.removed[s.Key()]; !off {
			d.selected = append(d.selected, s)
		}
	}

	return d
}

// finish recomputes the derived selection, queues a change for listeners if
// anything they can observe changed, then releases the lock. The first caller
// to find no delivery in progress drains the queue; the others return once
// their change is queued. Callers must hold p.mu.
func (p *Picker) finish() {
	next := p.derive()
	if !next.equal(p.derived) {
		p.seq++
		p.outbox = append(p.outbox, delivery{
			listeners: p.subscribers(),
			change: Change{
				Seq:       p.seq,
				Slots:     slices.Clone(next.selected),
				Total:     pricing.Total(next.selected, p.room.Rates),
				Conflicts: slices.Clone(next.conflicts),
				Err:       next.err,
			},
		})
	}

	p.derived = next

	if p.delivering {
		p.mu.Unlock()

		return
	}

	p.delivering = true

	for len(p.outbox) > 0 {
		d := p.outbox[0]
		p.outbox = p.outbox[1:]

		p.mu.Unlock()

		for _, l := range d.listeners {
			l(d.change)
		}

		p.mu.Lock()
	}

	p.delivering = false
	p.mu.Unlock()
}

func (p *Picker) subscribers() []Listener {
	ids := make([]int, 0, len(p.listeners))
	for id := range p.listeners {
		ids = append(ids, id)
	}

	slices.Sort(ids)

	listeners := make([]Listener, 0, len(ids))
	for _, id := range ids {
		listeners = append(listeners, p.listeners[id])
	}

	return listeners
}

func (p *Picker) SetView(v calendar.View) {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.view = v
}

func (p *Picker) NextMonth() calendar.View {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.view = p.view.Next()

	return p.view
}

func (p *Picker) PrevMonth() calendar.View {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.view = p.view.Prev()

	return p.view
}

// Calendar lays out the current view against the clock's current time.
func (p *Picker) Calendar() (calendar.View, []calendar.Cell) {
	p.mu.Lock()
	defer p.mu.Unlock()

	return p.view, calendar.CellsForMonth(p.view, p.now(), p.index, p.room.DayOnly)
}

type Snapshot struct {
	Status    Status            `json:"status"`
	State     State             `json:"state"`
	CheckIn   *slot.Slot        `json:"check_in"`
	CheckOut  *slot.Slot        `json:"check_out"`
	Removed   []slot.Slot       `json:"removed"`
	Selected  []slot.Slot       `json:"selected"`
	Conflicts []slot.Slot       `json:"conflicts"`
	Breakdown pricing.Breakdown `json:"breakdown"`
	Notice    string            `json:"notice,omitempty"`
	View      calendar.View     `json:"view"`
}

func (p *Picker) Snapshot() Snapshot {
	p.mu.Lock()
	defer p.mu.Unlock()

	d := p.derive()

	s := Snapshot{
		Status:    p.status,
		State:     p.state(),
		Removed:   make([]slot.Slot, 0, len(p.removed)),
		Selected:  slices.Clone(d.selected),
		Conflicts: slices.Clone(d.conflicts),
		Breakdown: pricing.Summarize(d.selected, p.room.Rates),
		View:      p.view,
	}

	if p.checkIn != nil {
		in := *p.checkIn
		s.CheckIn = &in
	}

	if p.checkOut != nil {
		out := *p.checkOut
		s.CheckOut = &out
	}

	for _, r := range p.removed {
		s.Removed = append(s.Removed, r)
	}

	slot.Sort(s.Removed)

	switch {
	case d.err != nil:
		s.Notice = d.err.Error()
	case len(d.conflicts) > 0:
		s.Notice = NewConflictError(d.conflicts).Error()
	}

	return s
}

// Request turns the current selection into a booking submission. It refuses
// while availability is unknown, once the check-in has elapsed and while the
// range is blocked.
func (p *Picker) Request(guests int, specialRequests string) (*booking.Request, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.status != Ready {
		return nil, ErrAvailabilityUnavailable
	}

	d := p.derive()

	if d.err != nil {
		return nil, d.err
	}

	if len(d.conflicts) > 0 {
		return nil, NewConflictError(slices.Clone(d.conflicts))
	}

	if len(d.selected) == 0 {
		return nil, ErrEmptySelection
	}

	return &booking.Request{
		Room:            p.room.ID,
		Guests:          guests,
		Slots:           d.selected,
		SpecialRequests: specialRequests,
	}, nil
}
