// terminal control: raw mode, geometry, cursor movement, restore.
//
// ttyScreen is the production screen. it puts stdin in raw mode at
// startup, turns off mouse and in-band resize reporting so neither can
// leak into the key stream, and undoes all of it in restore.

package main

import (
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/charmbracelet/x/ansi"
	"github.com/charmbracelet/x/term"
)

var errNoTerminal = errors.New("not a terminal")

// mouse tracking (x10, button, any-event, sgr) and in-band resize
const disableReporting = "\x1b[?1000l\x1b[?1002l\x1b[?1003l\x1b[?1006l\x1b[?2048l"

type ttyScreen struct {
	in    *os.File
	out   io.Writer
	outFd uintptr

	oldState *term.State
	restored bool
}

// openTTY takes over the controlling terminal. it fails if stdin or
// stdout is not a terminal or its geometry cannot be read; rendering
// cannot proceed without either.
func openTTY(in, out *os.File) (*ttyScreen, error) {
	if !term.IsTerminal(in.Fd()) || !term.IsTerminal(out.Fd()) {
		return nil, errNoTerminal
	}
	if _, _, err := term.GetSize(out.Fd()); err != nil {
		return nil, fmt.Errorf("terminal size: %w", err)
	}
	state, err := term.MakeRaw(in.Fd())
	if err != nil {
		return nil, fmt.Errorf("raw mode: %w", err)
	}

	t := &ttyScreen{in: in, out: out, outFd: out.Fd(), oldState: state}
	_, _ = io.WriteString(out, disableReporting+ansi.HideCursor)
	return t, nil
}

// size returns the current terminal width and height.
func (t *ttyScreen) size() (int, int, error) {
	return term.GetSize(t.outFd)
}

func (t *ttyScreen) cursorUp(n int) error {
	if n <= 0 {
		_, err := io.WriteString(t.out, "\r")
		return err
	}
	_, err := io.WriteString(t.out, "\r"+ansi.CursorUp(n))
	return err
}

func (t *ttyScreen) writeLine(s string) error {
	// raw mode: \n alone does not return the carriage
	_, err := io.WriteString(t.out, "\r"+ansi.EraseEntireLine+s+ansi.ResetStyle+"\r\n")
	return err
}

// restore puts the terminal back the way openTTY found it. safe to
// call more than once.
func (t *ttyScreen) restore() error {
	if t.restored {
		return nil
	}
	t.restored = true
	_, _ = io.WriteString(t.out, ansi.ResetStyle+ansi.ShowCursor)
	return term.Restore(t.in.Fd(), t.oldState)
}
