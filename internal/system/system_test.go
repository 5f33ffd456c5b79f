package system

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFindLatestBoard(t *testing.T) {
	dir := t.TempDir()

	files := []string{"old.kicad_pcb", "newest.kicad_pcb", "middle.kicad_pcb", "notes.txt"}
	base := time.Now().Add(-time.Hour)
	for i, f := range files {
		path := filepath.Join(dir, f)
		require.NoError(t, os.WriteFile(path, []byte("(kicad_pcb)"), 0644))
		modTime := base
		switch f {
		case "newest.kicad_pcb":
			modTime = base.Add(30 * time.Minute)
		case "notes.txt":
			modTime = base.Add(50 * time.Minute)
		default:
			modTime = base.Add(time.Duration(i) * time.Minute)
		}
		require.NoError(t, os.Chtimes(path, modTime, modTime))
	}

	latest, err := FindLatestBoard(dir)
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, "newest.kicad_pcb"), latest)
}

func TestFindLatestBoardEmpty(t *testing.T) {
	_, err := FindLatestBoard(t.TempDir())
	assert.Error(t, err)

	_, err = FindLatestBoard(filepath.Join(t.TempDir(), "missing"))
	assert.Error(t, err)
}

func TestFindLatestBoardTieAndCase(t *testing.T) {
	dir := t.TempDir()
	stamp := time.Now().Add(-time.Hour)
	for _, f := range []string{"a.kicad_pcb", "B.KICAD_PCB"} {
		path := filepath.Join(dir, f)
		require.NoError(t, os.WriteFile(path, nil, 0644))
		require.NoError(t, os.Chtimes(path, stamp, stamp))
	}
	require.NoError(t, os.Mkdir(filepath.Join(dir, "z.kicad_pcb"), 0755))

	latest, err := FindLatestBoard(dir)
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, "a.kicad_pcb"), latest)
}

func TestRaiseOpenFileLimit(t *testing.T) {
	cur, err := RaiseOpenFileLimit(1)
	require.NoError(t, err)
	assert.GreaterOrEqual(t, cur, uint64(1))

	again, err := RaiseOpenFileLimit(cur)
	require.NoError(t, err)
	assert.Equal(t, cur, again, "a sufficient limit is not touched")
}

func TestDefaultWorkers(t *testing.T) {
	n := DefaultWorkers(8)
	assert.GreaterOrEqual(t, n, 1)
	assert.LessOrEqual(t, n, 8)
	assert.Equal(t, 1, DefaultWorkers(1))
}

func TestLookPath(t *testing.T) {
	assert.NoError(t, LookPath("sh"))
	assert.Error(t, LookPath("definitely-not-a-real-binary-4711"))
}
