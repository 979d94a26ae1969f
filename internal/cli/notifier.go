package cli

import (
	"fmt"
	"io"

	"github.com/jaekwang-park/todo-console/internal/mutation"
)

// notifier records every notification and echoes successes to w. Failures
// are printed once by writeErr when the command returns.
type notifier struct {
	*mutation.Recorder
	w     io.Writer
	quiet bool
}

func newNotifier(w io.Writer, quiet bool) *notifier {
	return &notifier{Recorder: &mutation.Recorder{}, w: w, quiet: quiet}
}

func (n *notifier) Success(msg string) {
	n.Recorder.Success(msg)
	if !n.quiet {
		fmt.Fprintln(n.w, msg)
	}
}
