package system

import (
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"slices"
	"strings"
	"syscall"
	"time"

	"github.com/rs/zerolog"
	"github.com/shirou/gopsutil/v3/cpu"
)

// BoardExt is the KiCad board file extension.
const BoardExt = ".kicad_pcb"

// openFileTarget covers the stdout/stderr pipes of a full dispatcher with a
// wide margin.
const openFileTarget = 2048

// RaiseOpenFileLimit lifts the soft RLIMIT_NOFILE towards want, capped by the
// hard limit, and returns the soft limit in effect afterwards. A soft limit
// already at or above want is left alone.
func RaiseOpenFileLimit(want uint64) (uint64, error) {
	var lim syscall.Rlimit
	if err := syscall.Getrlimit(syscall.RLIMIT_NOFILE, &lim); err != nil {
		return 0, fmt.Errorf("getrlimit: %w", err)
	}
	if lim.Cur >= want {
		return lim.Cur, nil
	}
	lim.Cur = min(want, lim.Max)
	if err := syscall.Setrlimit(syscall.RLIMIT_NOFILE, &lim); err != nil {
		return 0, fmt.Errorf("setrlimit %d: %w", lim.Cur, err)
	}
	return lim.Cur, nil
}

// InitResourceLimits raises the open file limit and only logs on failure.
func InitResourceLimits(log zerolog.Logger) {
	cur, err := RaiseOpenFileLimit(openFileTarget)
	if err != nil {
		log.Warn().Err(err).Msg("[!] Не удалось изменить лимит открытых файлов")
		return
	}
	log.Debug().Uint64("nofile", cur).Msg("[*] Лимит открытых файлов")
}

// FindLatestBoard returns the most recently modified board file directly in
// dir. Equal modification times resolve to the lexically last name.
func FindLatestBoard(dir string) (string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return "", err
	}

	type board struct {
		name string
		mod  time.Time
	}
	var boards []board
	for _, e := range entries {
		if e.IsDir() || !strings.EqualFold(filepath.Ext(e.Name()), BoardExt) {
			continue
		}
		info, err := e.Info()
		if err != nil {
			continue
		}
		boards = append(boards, board{e.Name(), info.ModTime()})
	}
	if len(boards) == 0 {
		return "", fmt.Errorf("в папке %s нет файлов %s", dir, BoardExt)
	}

	newest := slices.MaxFunc(boards, func(a, b board) int {
		if c := a.mod.Compare(b.mod); c != 0 {
			return c
		}
		return strings.Compare(a.name, b.name)
	})
	return filepath.Join(dir, newest.name), nil
}

// DefaultWorkers returns the logical core count clamped to [1, max].
func DefaultWorkers(max int) int {
	n, err := cpu.Counts(true)
	if err != nil || n < 1 {
		return 1
	}
	if n > max {
		return max
	}
	return n
}

// LookPath reports an error naming program when it is not on PATH.
func LookPath(program string) error {
	if _, err := exec.LookPath(program); err != nil {
		return fmt.Errorf("программа %s не найдена: %w", program, err)
	}
	return nil
}
