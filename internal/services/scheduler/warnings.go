package scheduler

import (
	"sort"
	"strings"
	"time"

	"github.com/quotatrack/quotatrack/internal/config"
)

// WarningKind labels which collection path a warning came from.
type WarningKind string

const (
	// WarnUsage marks a failed usage collection.
	WarnUsage WarningKind = "usage"
	// WarnCost marks a failed cost collection.
	WarnCost WarningKind = "cost"
)

// Warning is the most recent failure for one (kind, providers, source)
// combination. The registry keeps only the latest state per key; it is not
// an error log.
type Warning struct {
	Kind      WarningKind `json:"kind"`
	Providers []string    `json:"providers"`
	Source    string      `json:"source"`
	Message   string      `json:"message"`
	Timestamp time.Time   `json:"timestamp"`
}

type warningKey string

func keyFor(kind WarningKind, target config.Target) warningKey {
	return warningKey(string(kind) + "|" + strings.Join(target.Providers, ",") + "|" + target.Source)
}

// recordWarning stores or overwrites the warning for a key with the latest
// failure.
func (s *Service) recordWarning(kind WarningKind, target config.Target, err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.warnings[keyFor(kind, target)] = Warning{
		Kind:      kind,
		Providers: target.Providers,
		Source:    target.Source,
		Message:   err.Error(),
		Timestamp: time.Now().UTC(),
	}
}

// clearWarning removes any warning for a key after a successful cycle.
func (s *Service) clearWarning(kind WarningKind, target config.Target) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.warnings, keyFor(kind, target))
}

// Warnings returns the current warnings, most recent first.
func (s *Service) Warnings() []Warning {
	s.mu.Lock()
	defer s.mu.Unlock()

	warnings := make([]Warning, 0, len(s.warnings))
	for _, w := range s.warnings {
		warnings = append(warnings, w)
	}
	sort.Slice(warnings, func(i, j int) bool {
		return warnings[i].Timestamp.After(warnings[j].Timestamp)
	})
	return warnings
}

// Healthy reports whether the last cycle completed without warnings.
func (s *Service) Healthy() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.warnings) == 0
}
