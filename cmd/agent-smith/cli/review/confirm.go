package review

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"strings"
)

// Confirm asks the operator to accept the pending change and reads one line
// from in. Only "y" or "yes" (any case, surrounding whitespace ignored)
// accept. End of input and context cancellation both decline: an interrupted
// prompt prints a bare newline and behaves exactly like an explicit "no".
func Confirm(ctx context.Context, in io.Reader, out io.Writer) bool {
	fmt.Fprint(out, "Apply these changes? [y/N] ")

	lines := make(chan string, 1)
	go func() {
		scanner := bufio.NewScanner(in)
		if scanner.Scan() {
			lines <- scanner.Text()
			return
		}
		close(lines)
	}()

	select {
	case <-ctx.Done():
		fmt.Fprintln(out)
		return false
	case answer, ok := <-lines:
		if !ok {
			fmt.Fprintln(out)
			return false
		}
		switch strings.ToLower(strings.TrimSpace(answer)) {
		case "y", "yes":
			return true
		}
		return false
	}
}
