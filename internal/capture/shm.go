package capture

import (
	"errors"
	"fmt"
	"time"

	"golang.org/x/sys/unix"
)

// Retry budget shared by the memfd EINTR loop and the shm-open name
// collision loop. Exhausting it surfaces ErrShm.
const shmMaxRetries = 16

// createShmFile returns a file descriptor backed by anonymous memory,
// suitable for handing to the compositor. The primary path is a sealed
// memfd, which never has a name to leak. When the kernel lacks memfd the
// fallback is a named shared-memory object unlinked immediately after
// creation, so the compositor only ever sees the descriptor.
func createShmFile() (int, error) {
	for i := 0; i < shmMaxRetries; i++ {
		fd, err := unix.MemfdCreate("waygrab", unix.MFD_CLOEXEC|unix.MFD_ALLOW_SEALING)
		if err == nil {
			// Sealing is an optimization: the compositor can trust the
			// buffer never to shrink under it. Failure is ignored.
			_, _ = unix.FcntlInt(uintptr(fd), unix.F_ADD_SEALS, unix.F_SEAL_SHRINK|unix.F_SEAL_SEAL)
			return fd, nil
		}
		if errors.Is(err, unix.EINTR) {
			continue
		}
		if errors.Is(err, unix.ENOSYS) {
			return shmOpenAnonymous()
		}
		return -1, fmt.Errorf("%w: memfd_create: %v", ErrShm, err)
	}
	return -1, fmt.Errorf("%w: memfd_create interrupted %d times", ErrShm, shmMaxRetries)
}

// shmOpenAnonymous emulates an anonymous file with a POSIX shared-memory
// object: create with an exclusive fresh name, then unlink before use.
// Name collisions regenerate the name; both collision and interrupt
// retries are bounded.
func shmOpenAnonymous() (int, error) {
	name := shmObjectName()
	for i := 0; i < shmMaxRetries; i++ {
		fd, err := unix.Open(name, unix.O_CREAT|unix.O_EXCL|unix.O_RDWR|unix.O_CLOEXEC, 0o600)
		switch {
		case err == nil:
			if err := unix.Unlink(name); err != nil {
				unix.Close(fd)
				return -1, fmt.Errorf("%w: unlink %s: %v", ErrShm, name, err)
			}
			return fd, nil
		case errors.Is(err, unix.EEXIST):
			name = shmObjectName()
		case errors.Is(err, unix.EINTR):
		default:
			return -1, fmt.Errorf("%w: open %s: %v", ErrShm, name, err)
		}
	}
	return -1, fmt.Errorf("%w: could not create shm object after %d attempts", ErrShm, shmMaxRetries)
}

func shmObjectName() string {
	return fmt.Sprintf("/dev/shm/waygrab-%d", time.Now().UnixNano())
}
