package presence

// ConnectionState is the lifecycle of the link to the presence service.
type ConnectionState int

const (
	Disconnected ConnectionState = iota
	Connecting
	Ready
)

func (s ConnectionState) String() string {
	switch s {
	case Connecting:
		return "connecting"
	case Ready:
		return "ready"
	default:
		return "disconnected"
	}
}
