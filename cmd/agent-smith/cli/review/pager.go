package review

import (
	"fmt"
	"io"
	"os"
	"os/exec"
	"strings"

	"github.com/kballard/go-shellquote"
	"golang.org/x/term"
)

// IsInteractive reports whether both stdin and stdout are terminals. Any
// piped or redirected stream makes the whole install flow non-interactive.
func IsInteractive() bool {
	return term.IsTerminal(int(os.Stdin.Fd())) && term.IsTerminal(int(os.Stdout.Fd()))
}

// PagerCommand resolves the pager to use as an argv, or nil when none is
// available. Resolution order: $PAGER (tokenized as a shell command line),
// then less with color passthrough, then more. getenv and lookPath are
// parameters so tests never probe the real environment.
func PagerCommand(getenv func(string) string, lookPath func(string) (string, error)) []string {
	if pager := getenv("PAGER"); pager != "" {
		argv, err := shellquote.Split(pager)
		if err == nil && len(argv) > 0 {
			return argv
		}
	}
	if _, err := lookPath("less"); err == nil {
		return []string{"less", "-R"}
	}
	if _, err := lookPath("more"); err == nil {
		return []string{"more"}
	}
	return nil
}

// ShowInPager displays text through the resolved pager, blocking until the
// pager exits. A missing or unlaunchable pager is not an error: the text is
// printed to w instead, silently. The pager's exit status is ignored.
func ShowInPager(text string, w io.Writer) {
	argv := PagerCommand(os.Getenv, exec.LookPath)
	showWithPager(text, w, argv)
}

func showWithPager(text string, w io.Writer, argv []string) {
	if len(argv) == 0 {
		fmt.Fprint(w, text)
		return
	}

	cmd := exec.Command(argv[0], argv[1:]...) //nolint:gosec // argv comes from $PAGER or a PATH probe
	cmd.Stdin = strings.NewReader(text)
	cmd.Stdout = os.Stdout
	cmd.Stderr = os.Stderr

	if err := cmd.Run(); err != nil {
		// A pager that ran and exited non-zero still showed the content.
		if _, ran := err.(*exec.ExitError); ran {
			return
		}
		fmt.Fprint(w, text)
	}
}
