package cli

import "errors"

var ErrDestinationLocked = errors.New("destination is being downloaded by another surf process")

// DestinationLock is a no-op on Windows.
type DestinationLock struct{}

func NewDestinationLock(dest string) (*DestinationLock, error) { return &DestinationLock{}, nil }

func (l *DestinationLock) Acquire() error { return nil }

func (l *DestinationLock) Release() error { return nil }
