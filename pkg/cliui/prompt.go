package cliui

import (
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"golang.org/x/term"
)

// ReadLine prompts for a single line of visible input. It reads from r so
// commands can pass cmd.InOrStdin() and tests can substitute a buffer.
func ReadLine(r io.Reader, w io.Writer, label string) (string, error) {
	fmt.Fprintf(w, "%s: ", label)

	line, err := readLine(r)
	if err != nil {
		return "", err
	}

	return strings.TrimSpace(line), nil
}

// ReadSecret prompts for a line of hidden input. When r is a terminal the
// input is read without echo; for pipes and test buffers it falls back to
// reading one line.
func ReadSecret(r io.Reader, w io.Writer, label string) (string, error) {
	fmt.Fprintf(w, "%s: ", label)

	if f, ok := r.(*os.File); ok && term.IsTerminal(int(f.Fd())) {
		secret, err := term.ReadPassword(int(f.Fd()))
		fmt.Fprintln(w) // newline after hidden input
		if err != nil {
			return "", fmt.Errorf("reading hidden input: %w", err)
		}
		return strings.TrimSpace(string(secret)), nil
	}

	line, err := readLine(r)
	if err != nil {
		return "", err
	}

	return strings.TrimSpace(line), nil
}

// readLine reads up to the next newline. It reads byte by byte so
// sequential prompts on one reader never consume each other's input.
func readLine(r io.Reader) (string, error) {
	var line []byte
	buf := make([]byte, 1)

	for {
		n, err := r.Read(buf)
		if n > 0 {
			if buf[0] == '\n' {
				break
			}
			line = append(line, buf[0])
		}
		if err != nil {
			if errors.Is(err, io.EOF) && len(line) > 0 {
				break
			}
			if errors.Is(err, io.EOF) {
				return "", errors.New("no input received")
			}
			return "", fmt.Errorf("reading input: %w", err)
		}
	}

	return strings.TrimRight(string(line), "\r"), nil
}
