package main

import "golang.org/x/sys/unix"

// hostMemory reports free and total host memory in bytes.
func hostMemory() (free, total int64, ok bool) {
	var info unix.Sysinfo_t
	if err := unix.Sysinfo(&info); err != nil {
		return 0, 0, false
	}
	unit := int64(info.Unit)
	if unit == 0 {
		unit = 1
	}
	return int64(info.Freeram) * unit, int64(info.Totalram) * unit, true
}
