package gpio

// FakeIndicator is a test double that records output changes.
type FakeIndicator struct {
	// On is the current output state.
	On bool

	// History records every value passed to Set.
	History []bool

	// SetError, if set, will be returned by Set().
	SetError error

	// Closed tracks if Close was called.
	Closed bool
}

// NewFakeIndicator creates a FakeIndicator that starts off.
func NewFakeIndicator() *FakeIndicator {
	return &FakeIndicator{}
}

// Set records the new state.
func (f *FakeIndicator) Set(on bool) error {
	if f.SetError != nil {
		return f.SetError
	}
	f.On = on
	f.History = append(f.History, on)
	return nil
}

// Close turns the output off and marks the indicator as closed.
func (f *FakeIndicator) Close() error {
	f.On = false
	f.Closed = true
	return nil
}

// Reset clears recorded state.
func (f *FakeIndicator) Reset() {
	f.On = false
	f.History = nil
	f.Closed = false
	f.SetError = nil
}
