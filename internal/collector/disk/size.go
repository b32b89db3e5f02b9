package disk

import (
	"fmt"

	"golang.org/x/sys/unix"
)

// UsedSpace returns the used share of the filesystem holding path as a
// whole percentage, counting only blocks available to unprivileged users
// as free.
func UsedSpace(path string) (float64, error) {
	var st unix.Statfs_t
	if err := unix.Statfs(path, &st); err != nil {
		return 0, fmt.Errorf("statfs %s: %w", path, err)
	}

	return usedPercent(uint64(st.Blocks), uint64(st.Bavail)), nil
}

func usedPercent(blocks, avail uint64) float64 {
	if blocks == 0 {
		return 0
	}

	free := float64(avail) / float64(blocks) * 100
	return float64(int(100 - free))
}
