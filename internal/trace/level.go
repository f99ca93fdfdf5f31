package trace

import (
	"fmt"
	"strings"
)

// Level controls how fine-grained the recorded scopes are.
type Level uint8

const (
	LevelOff    Level = iota
	LevelError        // driver spans, for the ring dump after a failure
	LevelPhase        // plus dialect table loading
	LevelDetail       // plus one span per lookup
	LevelDebug        // plus one span per candidate overload
)

var levelNames = [...]string{"off", "error", "phase", "detail", "debug"}

func (l Level) String() string {
	if int(l) < len(levelNames) {
		return levelNames[l]
	}
	return "unknown"
}

// ParseLevel is case-insensitive.
func ParseLevel(s string) (Level, error) {
	s = strings.ToLower(strings.TrimSpace(s))
	for i, name := range levelNames {
		if name == s {
			return Level(i), nil
		}
	}
	return LevelOff, fmt.Errorf("invalid trace level %q (expected off|error|phase|detail|debug)", s)
}

// ShouldEmit reports whether events of scope are recorded at l. Each level
// admits one more scope than the one before it.
func (l Level) ShouldEmit(scope Scope) bool {
	if l == LevelOff {
		return false
	}
	return int(scope) <= int(l)
}
