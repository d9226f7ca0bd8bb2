package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log"
	"os"
	"os/signal"
	"syscall"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/x/ansi"
)

// shutdownSignals stop the loop cleanly so the terminal gets restored.
// raw mode delivers ctrl+c as a key; these only arrive via kill.
var shutdownSignals = []os.Signal{os.Interrupt, syscall.SIGTERM, syscall.SIGHUP, syscall.SIGQUIT}

func main() {
	closeLog, err := setupLogging()
	if err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}

	err = run()
	// os.Exit skips defers
	_ = closeLog()
	if err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

// setupLogging sends the log package to the debug file when debugging
// is enabled and discards it otherwise. the returned func closes the
// file.
func setupLogging() (func() error, error) {
	if !debugEnabled() {
		log.SetOutput(io.Discard)
		return func() error { return nil }, nil
	}
	f, err := tea.LogToFile(debugLogPath, "pmon")
	if err != nil {
		return nil, fmt.Errorf("debug log: %w", err)
	}
	return f.Close, nil
}

// run owns the terminal for the life of the monitor. the terminal is
// restored on every way out: quit key, signal, error or panic.
func run() (err error) {
	ctx, stop := signal.NotifyContext(context.Background(), shutdownSignals...)
	defer stop()

	tty, err := openTTY(os.Stdin, os.Stdout)
	if err != nil {
		return fmt.Errorf("open terminal: %w", err)
	}
	defer func() {
		if rerr := tty.restore(); rerr != nil && err == nil {
			err = fmt.Errorf("restore terminal: %w", rerr)
		}
	}()
	defer func() {
		if r := recover(); r != nil {
			_ = tty.restore()
			panic(r)
		}
	}()

	keys, err := newStdinKeys(os.Stdin)
	if err != nil {
		return fmt.Errorf("input: %w", err)
	}
	defer keys.close()

	setProcessTitle()

	host := readHostInfo(ctx)
	log.Printf("start: %d cores, %d bytes memory", host.cores, host.totalMemory)

	m := newMonitor(gopsutilTable{}, host, tty, tty.size, keys, intervalFromEnv())
	if err := m.run(ctx); err != nil && !errors.Is(err, context.Canceled) {
		return err
	}
	return nil
}

// setProcessTitle sets the tmux window name and xterm title.
func setProcessTitle() {
	fmt.Print("\033kpmon\033\\")
	fmt.Print(ansi.SetWindowTitle("pmon"))
}
