package effect

import "fmt"

// Mode selects how a handler interprets sample requests.
type Mode int

const (
	// ModeSample draws fresh randomness at every site.
	ModeSample Mode = iota
	// ModeReplay substitutes recorded values from a reference trace.
	ModeReplay
	// ModeCondition forces observed values and accumulates their
	// log-density into the conditioning weight.
	ModeCondition
	// ModeEnumerate walks every outcome of finite-support sites.
	ModeEnumerate
)

func (m Mode) String() string {
	switch m {
	case ModeSample:
		return "sample"
	case ModeReplay:
		return "replay"
	case ModeCondition:
		return "condition"
	case ModeEnumerate:
		return "enumerate"
	default:
		return fmt.Sprintf("mode(%d)", int(m))
	}
}

// ParseMode maps the wire/CLI spelling back to a Mode.
func ParseMode(s string) (Mode, error) {
	switch s {
	case "", "sample":
		return ModeSample, nil
	case "replay":
		return ModeReplay, nil
	case "condition":
		return ModeCondition, nil
	case "enumerate", "search":
		return ModeEnumerate, nil
	default:
		return 0, fmt.Errorf("unsupported execution mode: %s", s)
	}
}
