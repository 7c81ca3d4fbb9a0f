package spinner

import (
	"fmt"
	"io"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/mattn/go-isatty"
)

type Spinner struct {
	chars   []string
	delay   time.Duration
	message string
	out     io.Writer
	enabled bool
	active  bool
	mu      sync.Mutex
	done    chan struct{}
	wg      sync.WaitGroup
}

// New returns a spinner on stderr. It only animates when stderr is a terminal.
func New(message string) *Spinner {
	return NewWithWriter(os.Stderr, message, IsTerminal(os.Stderr))
}

func NewWithWriter(out io.Writer, message string, enabled bool) *Spinner {
	return &Spinner{
		chars:   []string{"⠋", "⠙", "⠹", "⠸", "⠼", "⠴", "⠦", "⠧", "⠇", "⠏"},
		delay:   100 * time.Millisecond,
		message: message,
		out:     out,
		enabled: enabled,
	}
}

// IsTerminal reports whether w is an interactive terminal
func IsTerminal(w io.Writer) bool {
	f, ok := w.(*os.File)
	if !ok {
		return false
	}
	return isatty.IsTerminal(f.Fd()) || isatty.IsCygwinTerminal(f.Fd())
}

func (s *Spinner) Start() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.active || !s.enabled {
		return
	}
	s.active = true
	s.done = make(chan struct{})

	s.wg.Add(1)
	go s.run(s.done)
}

func (s *Spinner) run(done chan struct{}) {
	defer s.wg.Done()

	ticker := time.NewTicker(s.delay)
	defer ticker.Stop()

	for i := 0; ; i++ {
		s.mu.Lock()
		fmt.Fprintf(s.out, "\r%s %s", s.chars[i%len(s.chars)], s.message)
		s.mu.Unlock()

		select {
		case <-done:
			return
		case <-ticker.C:
		}
	}
}

// Stop halts the animation and clears the line
func (s *Spinner) Stop() {
	s.mu.Lock()
	if !s.active {
		s.mu.Unlock()
		return
	}
	s.active = false
	close(s.done)
	s.mu.Unlock()

	s.wg.Wait()

	s.mu.Lock()
	fmt.Fprint(s.out, "\r"+strings.Repeat(" ", len(s.message)+10)+"\r")
	s.mu.Unlock()
}

func (s *Spinner) Update(message string) {
	s.mu.Lock()
	s.message = message
	s.mu.Unlock()
}
