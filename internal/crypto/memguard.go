//go:build linux || darwin

package crypto

import "golang.org/x/sys/unix"

// LockMemory pins b so it is never swapped to disk. Best effort: the
// process may lack CAP_IPC_LOCK, in which case callers keep going.
func LockMemory(b []byte) error { return unix.Mlock(b) }

// UnlockMemory releases a LockMemory pin.
func UnlockMemory(b []byte) error { return unix.Munlock(b) }
