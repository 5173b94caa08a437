package entity

// ConnectivityState is the two-state machine the monitor reports: the device is
// either online or offline, nothing in between.
type ConnectivityState string

const (
	ConnectivityOnline  ConnectivityState = "online"
	ConnectivityOffline ConnectivityState = "offline"
)

func (s ConnectivityState) Online() bool {
	return s == ConnectivityOnline
}
