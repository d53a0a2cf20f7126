package machine

// fakeGPIODriver is the test-local alias for SimGPIODriver, kept as its
// own name in _test.go files since several tests embed it in a
// pin-state-deriving wrapper (posTriggerDriver, dispatcherTriggerDriver)
// and a local type name reads better at the call site than the exported
// production one.
type fakeGPIODriver = SimGPIODriver

func newFakeGPIODriver() *fakeGPIODriver {
	return NewSimGPIODriver()
}
