package machine

// Watchdog is fed from every iteration of any long-running loop (executor,
// homing, backoff waits) per spec §5. A nil-safe no-op implementation is
// used in tests that don't care about watchdog feeding.
type Watchdog interface {
	Feed()
}

type noopWatchdog struct{}

func (noopWatchdog) Feed() {}

// NoopWatchdog is a Watchdog that does nothing, for host tests.
var NoopWatchdog Watchdog = noopWatchdog{}
