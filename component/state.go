package component

// State represents the current lifecycle state of a component
type State int

const (
	// StateRegistered indicates the component is known to the registry but
	// not active. Unloading an active component returns it to this state.
	StateRegistered State = iota
	// StateActive indicates the component has been initialized and receives
	// per-tick updates
	StateActive
	// StateShutdown indicates the registry has torn down and the component
	// will not be reactivated
	StateShutdown
)

// String returns a string representation of the component state
func (s State) String() string {
	switch s {
	case StateRegistered:
		return "registered"
	case StateActive:
		return "active"
	case StateShutdown:
		return "shutdown"
	default:
		return "unknown"
	}
}
