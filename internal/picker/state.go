package picker

import "fmt"

// State is the position of the selection state machine.
type State int

const (
	Empty State = iota
	CheckInSet
	RangeSet
)

func (s State) String() string {
	switch s {
	case Empty:
		return "empty"
	case CheckInSet:
		return "check_in_set"
	case RangeSet:
		return "range_set"
	default:
		return fmt.Sprintf("state(%d)", int(s))
	}
}

func (s State) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

// Status tracks the availability fetch backing a picker.
type Status int

const (
	Loading Status = iota
	Ready
	Failed
	Closed
)

func (s Status) String() string {
	switch s {
	case Loading:
		return "loading"
	case Ready:
		return "ready"
	case Failed:
		return "failed"
	case Closed:
		return "closed"
	default:
		return fmt.Sprintf("status(%d)", int(s))
	}
}

func (s Status) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}
