package sensor

import "errors"

// FakeRanger is a test double that returns fixed readings.
type FakeRanger struct {
	// Range, Status and Lux are returned for every selector.
	Range  uint8
	Status RangeStatus
	Lux    float64

	// ReadError, if set, is returned by every read.
	ReadError error

	// Reads counts calls to ReadRange.
	Reads int

	// Closed tracks if Close was called.
	Closed bool
}

// NewFakeRanger creates a FakeRanger with the given readings.
func NewFakeRanger(rangeMM uint8, status RangeStatus, lux float64) *FakeRanger {
	return &FakeRanger{Range: rangeMM, Status: status, Lux: lux}
}

// ReadRange returns the scripted range.
func (f *FakeRanger) ReadRange(s Selector) (uint8, error) {
	f.Reads++
	if f.ReadError != nil {
		return 0, f.ReadError
	}
	return f.Range, nil
}

// ReadRangeStatus returns the scripted status.
func (f *FakeRanger) ReadRangeStatus(s Selector) (RangeStatus, error) {
	if f.ReadError != nil {
		return 0, f.ReadError
	}
	return f.Status, nil
}

// ReadLux returns the scripted lux.
func (f *FakeRanger) ReadLux(s Selector, g Gain) (float64, error) {
	if f.ReadError != nil {
		return 0, f.ReadError
	}
	return f.Lux, nil
}

// Close marks the ranger as closed.
func (f *FakeRanger) Close() error {
	if f.Closed {
		return errors.New("already closed")
	}
	f.Closed = true
	return nil
}
