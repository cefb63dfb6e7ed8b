// Package prompt implements the terminal-based credentials and
// two-factor prompts uploadctl substitutes for the graphical front
// end's dialogs (out of scope per spec §1).
package prompt

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strings"

	"golang.org/x/term"
)

// readPassword is a test seam for term.ReadPassword.
var readPassword = term.ReadPassword

// Credentials reads a username line and a password without echo.
func Credentials(reader *bufio.Reader, w io.Writer) (username, password string, err error) {
	username, err = Line(reader, w, "Username: ")
	if err != nil {
		return "", "", err
	}

	password, err = Password(w)
	if err != nil {
		return "", "", err
	}
	return username, password, nil
}

// Line prints prompt to w and reads a single trimmed line from reader.
func Line(reader *bufio.Reader, w io.Writer, prompt string) (string, error) {
	if _, err := fmt.Fprint(w, prompt); err != nil {
		return "", err
	}
	line, err := reader.ReadString('\n')
	if err != nil && line == "" {
		return "", err
	}
	return strings.TrimSpace(line), nil
}

// Password prints a password prompt to w and reads it from the
// controlling terminal without echo, printing a trailing newline to
// keep the display tidy.
func Password(w io.Writer) (string, error) {
	if _, err := fmt.Fprint(w, "Password: "); err != nil {
		return "", err
	}
	pw, err := readPassword(int(os.Stdin.Fd()))
	fmt.Fprintln(w)
	if err != nil {
		return "", err
	}
	return string(pw), nil
}

// TwoFactorCode prompts for a 6-digit two-factor code.
func TwoFactorCode(reader *bufio.Reader, w io.Writer, kind string) (string, error) {
	return Line(reader, w, fmt.Sprintf("Enter %s code: ", kind))
}
