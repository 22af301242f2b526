//go:build unix

package textsort

import "golang.org/x/sys/unix"

func getFileLimit() (soft, hard uint64, err error) {
	var lim unix.Rlimit
	if err := unix.Getrlimit(unix.RLIMIT_NOFILE, &lim); err != nil {
		return 0, 0, err
	}
	return uint64(lim.Cur), uint64(lim.Max), nil
}

func setFileLimit(soft, hard uint64) error {
	lim := unix.Rlimit{Cur: soft, Max: hard}
	return unix.Setrlimit(unix.RLIMIT_NOFILE, &lim)
}
