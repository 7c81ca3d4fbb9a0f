package spinner

import (
	"bytes"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

type syncBuffer struct {
	mu  sync.Mutex
	buf bytes.Buffer
}

func (b *syncBuffer) Write(p []byte) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.Write(p)
}

func (b *syncBuffer) String() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.String()
}

func TestNewWithWriter(t *testing.T) {
	s := NewWithWriter(&bytes.Buffer{}, "Classifying changes", true)

	assert.Equal(t, "Classifying changes", s.message)
	assert.False(t, s.active)
	assert.NotEmpty(t, s.chars)
	assert.NotZero(t, s.delay)
}

func TestSpinnerStartStop(t *testing.T) {
	out := &syncBuffer{}
	s := NewWithWriter(out, "Classifying changes", true)

	s.Start()
	assert.True(t, s.active)

	time.Sleep(10 * time.Millisecond)

	s.Stop()
	assert.False(t, s.active)
	assert.Contains(t, out.String(), "Classifying changes")
}

func TestSpinnerDisabledWritesNothing(t *testing.T) {
	out := &syncBuffer{}
	s := NewWithWriter(out, "Publishing", false)

	s.Start()
	assert.False(t, s.active)
	s.Stop()

	assert.Empty(t, out.String())
}

func TestSpinnerDoubleStartAndStop(t *testing.T) {
	s := NewWithWriter(&syncBuffer{}, "Test message", true)

	s.Start()
	s.Start()
	assert.True(t, s.active)

	s.Stop()
	s.Stop()
	assert.False(t, s.active)
}

func TestSpinnerRestart(t *testing.T) {
	s := NewWithWriter(&syncBuffer{}, "first", true)

	s.Start()
	s.Stop()
	s.Start()
	assert.True(t, s.active)
	s.Stop()
}

func TestSpinnerUpdateWhileRunning(t *testing.T) {
	s := NewWithWriter(&syncBuffer{}, "Initial message", true)

	s.Start()
	s.Update("Updated message")

	s.mu.Lock()
	assert.Equal(t, "Updated message", s.message)
	s.mu.Unlock()

	s.Stop()
}

func TestIsTerminal(t *testing.T) {
	assert.False(t, IsTerminal(&bytes.Buffer{}))
}
