package notify

import (
	"bytes"
	"io"
	"log"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testLogger() *log.Logger {
	return log.New(io.Discard, "", 0)
}

func TestBellAnnouncer_WritesBell(t *testing.T) {
	var buf bytes.Buffer
	bell := NewBellAnnouncer(&buf)

	bell.Announce("Fast pace")
	bell.Announce("Slow pace")

	assert.Equal(t, []byte{'\a', '\a'}, buf.Bytes())
}

func TestMultiAnnouncer_FansOut(t *testing.T) {
	var a, b bytes.Buffer
	multi := MultiAnnouncer{NewBellAnnouncer(&a), NewBellAnnouncer(&b)}

	multi.Announce("Fast pace")

	assert.Equal(t, []byte{'\a'}, a.Bytes())
	assert.Equal(t, []byte{'\a'}, b.Bytes())
}

func TestNopAnnouncer(t *testing.T) {
	assert.NotPanics(t, func() { NopAnnouncer{}.Announce("Fast pace") })
}

func TestNewSpeechAnnouncer_ParsesTemplate(t *testing.T) {
	speech, err := NewSpeechAnnouncer(`say -v "Samantha Premium" {phrase}`, testLogger())
	require.NoError(t, err)
	assert.Equal(t, []string{"say", "-v", "Samantha Premium", "{phrase}"}, speech.argv)
}

func TestNewSpeechAnnouncer_EmptyTemplate(t *testing.T) {
	_, err := NewSpeechAnnouncer("", testLogger())
	assert.ErrorIs(t, err, errEmptySpeechCommand)
}

func TestNewSpeechAnnouncer_UnbalancedQuotes(t *testing.T) {
	_, err := NewSpeechAnnouncer(`say "unterminated`, testLogger())
	assert.Error(t, err)
}

func TestSpeechAnnouncer_SubstitutesPhrase(t *testing.T) {
	marker := filepath.Join(t.TempDir(), "spoken.txt")
	speech, err := NewSpeechAnnouncer("cp /dev/null "+marker+"-{phrase}", testLogger())
	require.NoError(t, err)

	speech.Announce("fast")

	assert.Eventually(t, func() bool {
		_, err := os.Stat(marker + "-fast")
		return err == nil
	}, 2*time.Second, 10*time.Millisecond, "the command should run with the phrase substituted")
}

func TestSpeechAnnouncer_AppendsPhraseWithoutPlaceholder(t *testing.T) {
	speech, err := NewSpeechAnnouncer("say", testLogger())
	require.NoError(t, err)
	assert.Equal(t, []string{"say"}, speech.argv)

	// A failing command must not panic or block the caller.
	assert.NotPanics(t, func() { speech.Announce("Fast pace") })
}
