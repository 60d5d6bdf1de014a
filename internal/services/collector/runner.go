// Package collector invokes the external usage collector process and
// normalizes its output into store rows.
package collector

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"os/exec"
	"strings"
	"time"

	"github.com/quotatrack/quotatrack/internal/logger"
	"github.com/quotatrack/quotatrack/internal/models"
)

// DefaultTimeout bounds a single collector invocation.
const DefaultTimeout = 120 * time.Second

// Runner produces usage and cost payloads for a set of providers from one
// source. The scheduler depends on this interface so tests can substitute a
// fake for the external process.
type Runner interface {
	CollectUsage(ctx context.Context, providers []string, source string) ([]models.UsagePayload, error)
	CollectCost(ctx context.Context, providers []string, source string) ([]models.CostPayload, error)
}

// ProcessRunner runs the collector as a child process. Only environment
// variables matching the allow-list are forwarded to it; cancellation kills
// the process rather than abandoning it.
type ProcessRunner struct {
	// Command is the collector argv prefix, e.g. ["quota-collector"].
	Command []string
	// EnvAllowlist names the variables forwarded to the child. Entries
	// ending in "*" match by prefix.
	EnvAllowlist []string
	// Timeout bounds one invocation; DefaultTimeout when zero.
	Timeout time.Duration
}

// CollectUsage invokes the collector in usage mode and parses its output.
func (r *ProcessRunner) CollectUsage(ctx context.Context, providers []string, source string) ([]models.UsagePayload, error) {
	out, err := r.run(ctx, "usage", providers, source)
	if err != nil {
		return nil, err
	}
	return ParseUsagePayloads(out)
}

// CollectCost invokes the collector in cost mode and parses its output.
func (r *ProcessRunner) CollectCost(ctx context.Context, providers []string, source string) ([]models.CostPayload, error) {
	out, err := r.run(ctx, "cost", providers, source)
	if err != nil {
		return nil, err
	}
	return ParseCostPayloads(out)
}

func (r *ProcessRunner) run(ctx context.Context, mode string, providers []string, source string) ([]byte, error) {
	if len(r.Command) == 0 {
		return nil, fmt.Errorf("collector command not configured")
	}

	timeout := r.Timeout
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	args := append([]string(nil), r.Command[1:]...)
	args = append(args, mode, "--source", source)
	if len(providers) > 0 {
		args = append(args, "--providers", strings.Join(providers, ","))
	}

	cmd := exec.CommandContext(ctx, r.Command[0], args...)
	cmd.Env = FilterEnv(os.Environ(), r.EnvAllowlist)

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	logger.Debug("invoking collector", "mode", mode, "source", source, "providers", providers)

	if err := cmd.Run(); err != nil {
		if ctx.Err() == context.DeadlineExceeded {
			return nil, fmt.Errorf("collector timed out after %s: %w", timeout, ctx.Err())
		}
		msg := strings.TrimSpace(stderr.String())
		if msg != "" {
			return nil, fmt.Errorf("collector failed: %s: %w", msg, err)
		}
		return nil, fmt.Errorf("collector failed: %w", err)
	}

	return stdout.Bytes(), nil
}

// FilterEnv keeps only the environment entries whose names match the
// allow-list. Entries ending in "*" match variables by prefix. The full
// parent environment is never forwarded to the collector.
func FilterEnv(environ, allowlist []string) []string {
	var filtered []string
	for _, entry := range environ {
		name, _, ok := strings.Cut(entry, "=")
		if !ok {
			continue
		}
		for _, allowed := range allowlist {
			if prefix, isPrefix := strings.CutSuffix(allowed, "*"); isPrefix {
				if strings.HasPrefix(name, prefix) {
					filtered = append(filtered, entry)
					break
				}
			} else if name == allowed {
				filtered = append(filtered, entry)
				break
			}
		}
	}
	return filtered
}
