// non-blocking keyboard input.
//
// a reader goroutine blocks on stdin and decodes raw bytes into key
// events on a buffered channel. a lone ESC at the end of a read may be
// the start of an arrow key split across reads, so it is held briefly
// before it counts as the escape key. the loop only ever does a
// non-blocking receive, so input never stalls a tick. the reader is
// cancellable so shutdown does not leave a goroutine stuck in read(2).

package main

import (
	"errors"
	"io"
	"log"
	"sync"
	"time"
	"unicode/utf8"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/x/ansi"
	"github.com/muesli/cancelreader"
)

const (
	keyBuffer = 64
	// how long a lone ESC waits for the rest of a split sequence
	escTimeout = 100 * time.Millisecond
)

// keySource yields at most one pending key event per call, never
// blocking.
type keySource interface {
	pollOnce() (tea.KeyMsg, bool)
}

// stdinKeys reads and decodes keys from a terminal in raw mode.
type stdinKeys struct {
	reader cancelreader.CancelReader
	events chan tea.KeyMsg
	wg     sync.WaitGroup

	mu    sync.Mutex // guards dec
	dec   keyDecoder
	flush *time.Timer // resolves a held ESC; owned by readLoop
}

func newStdinKeys(r io.Reader) (*stdinKeys, error) {
	cr, err := cancelreader.NewReader(r)
	if err != nil {
		return nil, err
	}
	k := &stdinKeys{reader: cr, events: make(chan tea.KeyMsg, keyBuffer)}
	k.wg.Add(1)
	go k.readLoop()
	return k, nil
}

func (k *stdinKeys) readLoop() {
	defer k.wg.Done()
	buf := make([]byte, 256)
	for {
		n, err := k.reader.Read(buf)
		if k.flush != nil {
			k.flush.Stop()
			k.flush = nil
		}

		k.mu.Lock()
		msgs := k.dec.feed(buf[:n])
		held := k.dec.held()
		k.mu.Unlock()
		k.send(msgs)

		if err != nil {
			if !errors.Is(err, cancelreader.ErrCanceled) {
				log.Printf("input: %v", err)
			}
			return
		}
		if held {
			k.flush = time.AfterFunc(escTimeout, k.flushHeld)
		}
	}
}

// flushHeld gives up waiting for the rest of a held sequence.
func (k *stdinKeys) flushHeld() {
	k.mu.Lock()
	msgs := k.dec.flush()
	k.mu.Unlock()
	k.send(msgs)
}

func (k *stdinKeys) send(msgs []tea.KeyMsg) {
	for _, msg := range msgs {
		select {
		case k.events <- msg:
		default:
			// loop is behind; drop rather than block the reader
		}
	}
}

func (k *stdinKeys) pollOnce() (tea.KeyMsg, bool) {
	select {
	case msg := <-k.events:
		return msg, true
	default:
		return tea.KeyMsg{}, false
	}
}

// close stops the reader goroutine and releases the reader.
func (k *stdinKeys) close() error {
	k.reader.Cancel()
	k.wg.Wait()
	if k.flush != nil {
		k.flush.Stop()
	}
	return k.reader.Close()
}

// keyDecoder turns raw terminal bytes into key events. ansi.DecodeSequence
// does the tokenizing; only the mapping to keys lives here. an escape
// sequence cut off at the end of a read is held until the next feed, or
// until flush gives up on it.
type keyDecoder struct {
	pending []byte
}

// feed decodes b, prefixed by any held bytes.
func (d *keyDecoder) feed(b []byte) []tea.KeyMsg {
	buf := append(d.pending, b...)
	d.pending = nil

	var out []tea.KeyMsg
	for len(buf) > 0 {
		// SS3 (ESC O x) arrows; DecodeSequence reads ESC O as alt+O
		if len(buf) > 1 && buf[0] == ansi.ESC && buf[1] == 'O' {
			if len(buf) < 3 {
				d.pending = buf
				break
			}
			if msg, ok := arrowKey(buf[2]); ok {
				out = append(out, msg)
			}
			buf = buf[3:]
			continue
		}

		seq, _, n, state := ansi.DecodeSequence(buf, ansi.NormalState, nil)
		if state != ansi.NormalState {
			d.pending = buf
			break
		}
		if msg, ok := keyFor(seq); ok {
			out = append(out, msg)
		}
		buf = buf[max(n, 1):]
	}
	return out
}

// held reports whether a partial sequence is waiting for more bytes.
func (d *keyDecoder) held() bool {
	return len(d.pending) > 0
}

// flush resolves held bytes without waiting for more. a lone ESC is the
// escape key; any other partial sequence is dropped.
func (d *keyDecoder) flush() []tea.KeyMsg {
	held := d.pending
	d.pending = nil
	if len(held) == 1 && held[0] == ansi.ESC {
		return []tea.KeyMsg{{Type: tea.KeyEsc}}
	}
	return nil
}

// keyFor maps one decoded sequence to a key. only the keys pmon binds
// get dedicated types; other printable input becomes KeyRunes, and
// unknown sequences and control bytes are dropped.
func keyFor(seq []byte) (tea.KeyMsg, bool) {
	if len(seq) == 0 {
		return tea.KeyMsg{}, false
	}
	if ansi.HasCsiPrefix(seq) {
		return arrowKey(seq[len(seq)-1])
	}
	switch c := seq[0]; {
	case len(seq) == 1 && c == '\t':
		return tea.KeyMsg{Type: tea.KeyTab}, true
	case len(seq) == 1 && c == 0x03:
		return tea.KeyMsg{Type: tea.KeyCtrlC}, true
	case len(seq) == 1 && c == ansi.ESC:
		return tea.KeyMsg{Type: tea.KeyEsc}, true
	case c < 0x20 || c == 0x7f:
		// C0 controls and ESC sequences (alt+key)
		return tea.KeyMsg{}, false
	}
	r, _ := utf8.DecodeRune(seq)
	if r == utf8.RuneError {
		return tea.KeyMsg{}, false
	}
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{r}}, true
}

func arrowKey(final byte) (tea.KeyMsg, bool) {
	switch final {
	case 'A':
		return tea.KeyMsg{Type: tea.KeyUp}, true
	case 'B':
		return tea.KeyMsg{Type: tea.KeyDown}, true
	}
	return tea.KeyMsg{}, false
}

// decodeKeys decodes one complete burst of input, resolving any trailing
// partial sequence immediately.
func decodeKeys(b []byte) []tea.KeyMsg {
	var d keyDecoder
	return append(d.feed(b), d.flush()...)
}
