package video

import (
	"fmt"
	"os"
	"path/filepath"
)

// FrameNamer builds frame file names:
// <dir>/<basename(board)>.FRAME_<index %06d><suffix>.
type FrameNamer struct {
	Base   string // <dir>/<basename(board)>
	Suffix string // ".png" or ".jpg"
}

// NewFrameNamer places frames for board into dir using the given image format.
func NewFrameNamer(dir, board, format string) FrameNamer {
	return FrameNamer{
		Base:   filepath.Join(dir, filepath.Base(board)),
		Suffix: "." + format,
	}
}

// Path returns the file name of one frame.
func (n FrameNamer) Path(index int) string {
	return fmt.Sprintf("%s.FRAME_%06d%s", n.Base, index, n.Suffix)
}

// Pattern returns the printf-style input pattern understood by ffmpeg.
func (n FrameNamer) Pattern() string {
	return n.Base + ".FRAME_%06d" + n.Suffix
}

// Exists reports whether the frame file is already on disk.
func (n FrameNamer) Exists(index int) bool {
	_, err := os.Stat(n.Path(index))
	return err == nil
}
