package poller

// State is the lifecycle state of a Cache.
type State int

// Cache states.
const (
	StateIdle State = iota
	StatePolling
	StateUpdated
	StateFailed
	StateStopped
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StatePolling:
		return "polling"
	case StateUpdated:
		return "updated"
	case StateFailed:
		return "failed"
	case StateStopped:
		return "stopped"
	}
	return "unknown"
}
