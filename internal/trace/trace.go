// Package trace logs the wall-clock duration of named pipeline stages.
package trace

import (
	"log"
	"time"

	"github.com/somno-data/sleepstate.report/internal/timeutil"
)

// Span measures one named stage from Start until End.
type Span struct {
	name  string
	clock timeutil.Clock
	start time.Time
	logf  func(format string, args ...any)
}

// Start begins timing a stage and logs that it started.
func Start(clock timeutil.Clock, name string) *Span {
	return start(clock, name, log.Printf)
}

func start(clock timeutil.Clock, name string, logf func(string, ...any)) *Span {
	s := &Span{name: name, clock: clock, start: clock.Now(), logf: logf}
	s.logf("[%s] start", name)
	return s
}

// End logs the elapsed time of the stage and returns it.
func (s *Span) End() time.Duration {
	elapsed := s.clock.Since(s.start)
	s.logf("[%s] done in %s", s.name, elapsed)
	return elapsed
}
