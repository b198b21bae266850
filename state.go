package present

// State is the outer presentation lifecycle state.
//
//	OFF --BeginEnable--> ENABLING --MarkEnabled--> ON
//	ON --BeginDisable--> DISABLING
//	any --Shutdown--> OFF
//	any --present failure--> OFF
type State int32

const (
	StateOff State = iota
	StateEnabling
	StateOn
	StateDisabling
)

func (s State) String() string {
	switch s {
	case StateOff:
		return "OFF"
	case StateEnabling:
		return "ENABLING"
	case StateOn:
		return "ON"
	case StateDisabling:
		return "DISABLING"
	default:
		return "UNKNOWN"
	}
}

// Presenting reports whether frames submitted in this state reach the GPU.
// ENABLING is best-effort: the host may present while it finishes
// attaching the surface.
func (s State) Presenting() bool {
	return s == StateEnabling || s == StateOn
}
