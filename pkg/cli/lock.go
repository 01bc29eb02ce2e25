//go:build !windows

package cli

import (
	"errors"
	"fmt"
	"os"
	"syscall"

	"github.com/surf-cli/surf/pkg/logging"
)

const lockSuffix = ".surf.lock"

var ErrDestinationLocked = errors.New("destination is being downloaded by another surf process")

// DestinationLock keeps two downloads from writing the same destination.
type DestinationLock struct {
	file *os.File
	fd   int
}

func NewDestinationLock(dest string) (*DestinationLock, error) {
	file, err := os.OpenFile(dest+lockSuffix, os.O_RDWR|os.O_CREATE, 0644)
	if err != nil {
		return nil, err
	}
	return &DestinationLock{file: file, fd: int(file.Fd())}, nil
}

// Acquire takes the lock without waiting and records the holder's PID.
func (l *DestinationLock) Acquire() error {
	logger := logging.GetLogger()
	funcs := []func() error{
		func() error {
			err := syscall.Flock(l.fd, syscall.LOCK_EX|syscall.LOCK_NB)
			if errors.Is(err, syscall.EWOULDBLOCK) {
				logger.Debug().Str("lock_file", l.file.Name()).Msg("Lock held")
				l.file.Close()
				return fmt.Errorf("%w (%s)", ErrDestinationLocked, l.file.Name())
			}
			return err
		},
		func() error { return l.file.Truncate(0) },
		l.writePID,
		l.file.Sync,
	}
	return l.executeFuncs(funcs)
}

func (l *DestinationLock) Release() error {
	funcs := []func() error{
		func() error { return os.Remove(l.file.Name()) },
		func() error { return syscall.Flock(l.fd, syscall.LOCK_UN) },
		l.file.Close,
	}
	return l.executeFuncs(funcs)
}

func (l *DestinationLock) writePID() error {
	_, err := l.file.WriteAt([]byte(fmt.Sprintf("%d", os.Getpid())), 0)
	return err
}

func (l *DestinationLock) executeFuncs(funcs []func() error) error {
	for _, fn := range funcs {
		if err := fn(); err != nil {
			return err
		}
	}
	return nil
}
