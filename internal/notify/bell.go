package notify

import (
	"errors"
	"io"
)

var errEmptySpeechCommand = errors.New("speech command template is empty")

// BellAnnouncer writes the terminal bell - the closest a terminal gets to a
// vibration motor. The phrase itself is ignored.
type BellAnnouncer struct {
	w io.Writer
}

func NewBellAnnouncer(w io.Writer) *BellAnnouncer {
	return &BellAnnouncer{w: w}
}

func (b *BellAnnouncer) Announce(string) {
	// Errors are deliberately dropped; there is nothing useful to do when
	// the terminal refuses a bell.
	_, _ = b.w.Write([]byte{'\a'})
}
