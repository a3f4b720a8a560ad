package clip

import (
	"errors"
	"sync"
)

// ErrInjected is returned by Memory.ReadText for reads armed with FailNext.
var ErrInjected = errors.New("clip: injected read failure")

// Memory is an in-process clipboard. It is safe for concurrent use.
type Memory struct {
	mu       sync.Mutex
	text     string
	failNext int
	reads    int
	writes   int
	readHook func()
}

// NewMemory returns an empty in-memory clipboard.
func NewMemory() *Memory { return &Memory{} }

func (m *Memory) Name() string { return "memory" }

func (m *Memory) ReadText() (string, error) {
	m.mu.Lock()
	m.reads++
	hook := m.readHook
	var err error
	if m.failNext > 0 {
		m.failNext--
		err = ErrInjected
	}
	text := m.text
	m.mu.Unlock()

	if hook != nil {
		hook()
	}
	if err != nil {
		return "", err
	}
	return text, nil
}

func (m *Memory) WriteText(text string) error {
	m.mu.Lock()
	m.text = text
	m.writes++
	m.mu.Unlock()
	return nil
}

func (m *Memory) Close() {}

// FailNext makes the next n reads return ErrInjected.
func (m *Memory) FailNext(n int) {
	m.mu.Lock()
	m.failNext = n
	m.mu.Unlock()
}

// OnRead installs fn to run after every read, outside the lock.
func (m *Memory) OnRead(fn func()) {
	m.mu.Lock()
	m.readHook = fn
	m.mu.Unlock()
}

// Reads returns the number of ReadText calls so far.
func (m *Memory) Reads() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.reads
}

// Writes returns the number of WriteText calls so far.
func (m *Memory) Writes() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.writes
}
