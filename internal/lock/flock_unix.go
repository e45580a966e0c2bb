//go:build unix

package lock

import (
	"os"
	"syscall"
)

// flockExclusive takes a non-blocking exclusive flock(2) on f.
// Advisory, tied to the open file description, released on close or
// process exit.
func flockExclusive(f *os.File) error {
	err := syscall.Flock(int(f.Fd()), syscall.LOCK_EX|syscall.LOCK_NB)
	if err == syscall.EWOULDBLOCK {
		return ErrHeld
	}
	return err
}

func funlock(f *os.File) error {
	return syscall.Flock(int(f.Fd()), syscall.LOCK_UN)
}
