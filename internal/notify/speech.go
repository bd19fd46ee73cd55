package notify

import (
	"log"
	"os/exec"
	"strings"

	"github.com/google/shlex"

	"github.com/lowaak/interval-walk/interval-walk-app/internal/go_func_utils"
)

// phrasePlaceholder marks where the spoken text goes in the command template.
const phrasePlaceholder = "{phrase}"

// SpeechAnnouncer speaks phrases by running a user-configured command, e.g.
// "espeak {phrase}" or "say {phrase}". The command template is split with
// shlex so quoted arguments survive.
type SpeechAnnouncer struct {
	argv   []string
	logger *log.Logger
}

// NewSpeechAnnouncer parses the command template. An empty template is an
// error; callers wanting silence should use NopAnnouncer instead.
func NewSpeechAnnouncer(commandTemplate string, logger *log.Logger) (*SpeechAnnouncer, error) {
	if logger == nil {
		panic("SpeechAnnouncer: logger cannot be nil")
	}
	argv, err := shlex.Split(commandTemplate)
	if err != nil {
		return nil, err
	}
	if len(argv) == 0 {
		return nil, errEmptySpeechCommand
	}
	return &SpeechAnnouncer{argv: argv, logger: logger}, nil
}

// Announce launches the TTS process in the background. Failures are logged
// and dropped - the timer must keep ticking regardless.
func (s *SpeechAnnouncer) Announce(phrase string) {
	argv := make([]string, len(s.argv))
	substituted := false
	for i, arg := range s.argv {
		if strings.Contains(arg, phrasePlaceholder) {
			arg = strings.ReplaceAll(arg, phrasePlaceholder, phrase)
			substituted = true
		}
		argv[i] = arg
	}
	if !substituted {
		argv = append(argv, phrase)
	}

	go_func_utils.SafeGo(s.logger, func() {
		cmd := exec.Command(argv[0], argv[1:]...)
		output, err := cmd.CombinedOutput()
		if err != nil {
			s.logger.Printf("SpeechAnnouncer: %q failed: %v, output: %s", argv[0], err, string(output))
		}
	})
}
