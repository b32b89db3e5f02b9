package system

import (
	"golang.org/x/sys/unix"
)

func getKernelVersion() string {
	var uts unix.Utsname
	if err := unix.Uname(&uts); err != nil {
		return ""
	}

	return unix.ByteSliceToString(uts.Release[:])
}
