package commands

import (
	"context"
	"fmt"
	"io"
	"os"

	"golang.org/x/term"
)

// PasswordPrompt asks the user for the password of username
type PasswordPrompt func(ctx context.Context, username string) (string, error)

// TerminalPrompt reads the password from in without echo. Cancelling ctx restores the terminal.
func TerminalPrompt(in *os.File, out io.Writer) PasswordPrompt {
	return func(ctx context.Context, username string) (string, error) {
		fd := int(in.Fd())
		if !term.IsTerminal(fd) {
			return "", fmt.Errorf("cannot prompt for the password of %s, standard input is not a TTY", username)
		}
		state, err := term.GetState(fd)
		if err != nil {
			return "", fmt.Errorf("failed to read terminal state: %w", err)
		}

		fmt.Fprintf(out, "Password for %s: ", username)

		type result struct {
			password []byte
			err      error
		}
		done := make(chan result, 1)
		go func() {
			password, err := term.ReadPassword(fd)
			done <- result{password: password, err: err}
		}()

		select {
		case <-ctx.Done():
			_ = term.Restore(fd, state)
			return "", ctx.Err()
		case res := <-done:
			fmt.Fprintln(out)
			if res.err != nil {
				return "", fmt.Errorf("failed to read password: %w", res.err)
			}
			return string(res.password), nil
		}
	}
}
