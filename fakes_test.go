package main

import (
	"context"
	"errors"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/x/ansi"
)

var errGone = errors.New("process not running")

// fakeTable is a scripted processTable.
type fakeTable struct {
	entries   []procEntry
	listErr   error
	stats     map[int32]procStat
	rss       map[int32]uint64
	statCalls int
}

func newFakeTable() *fakeTable {
	return &fakeTable{stats: map[int32]procStat{}, rss: map[int32]uint64{}}
}

func (f *fakeTable) add(pid int32, name string, cpuSeconds float64, rss uint64) {
	f.entries = append(f.entries, procEntry{pid: pid, name: name})
	f.stats[pid] = procStat{cpuSeconds: cpuSeconds, started: int64(pid) * 1000}
	f.rss[pid] = rss
}

func (f *fakeTable) list(context.Context) ([]procEntry, error) {
	if f.listErr != nil {
		return nil, f.listErr
	}
	return append([]procEntry(nil), f.entries...), nil
}

func (f *fakeTable) stat(_ context.Context, pid int32) (procStat, error) {
	f.statCalls++
	st, ok := f.stats[pid]
	if !ok {
		return procStat{}, errGone
	}
	return st, nil
}

func (f *fakeTable) residentBytes(_ context.Context, pid int32) (uint64, error) {
	rss, ok := f.rss[pid]
	if !ok {
		return 0, errGone
	}
	return rss, nil
}

// burn adds cpu time to pid.
func (f *fakeTable) burn(pid int32, seconds float64) {
	st := f.stats[pid]
	st.cpuSeconds += seconds
	f.stats[pid] = st
}

type fakeClock struct{ t time.Time }

func newFakeClock() *fakeClock {
	return &fakeClock{t: time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)}
}

func (c *fakeClock) now() time.Time          { return c.t }
func (c *fakeClock) advance(d time.Duration) { c.t = c.t.Add(d) }

// fakeScreen is a grid of plain-text rows with a cursor row.
type fakeScreen struct {
	rows   []string
	cur    int
	writes int
	fail   error
}

func (s *fakeScreen) cursorUp(n int) error {
	s.cur = max(0, s.cur-n)
	return nil
}

func (s *fakeScreen) writeLine(line string) error {
	s.writes++
	if s.fail != nil {
		return s.fail
	}
	for len(s.rows) <= s.cur {
		s.rows = append(s.rows, "")
	}
	s.rows[s.cur] = ansi.Strip(line)
	s.cur++
	return nil
}

// text returns the non-empty rows joined by newlines, trailing blank
// rows trimmed.
func (s *fakeScreen) text() string {
	return strings.TrimRight(strings.Join(s.rows, "\n"), "\n")
}

// scriptedKeys returns one queued key per poll.
type scriptedKeys struct {
	queue []tea.KeyMsg
}

func (k *scriptedKeys) push(msgs ...tea.KeyMsg) { k.queue = append(k.queue, msgs...) }

func (k *scriptedKeys) pollOnce() (tea.KeyMsg, bool) {
	if len(k.queue) == 0 {
		return tea.KeyMsg{}, false
	}
	msg := k.queue[0]
	k.queue = k.queue[1:]
	return msg, true
}

func key(t tea.KeyType) tea.KeyMsg { return tea.KeyMsg{Type: t} }

func runeKey(r rune) tea.KeyMsg { return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{r}} }
