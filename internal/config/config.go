package config

import (
	"time"
)

// HookMode selects what the insertion hook does per inserted row.
type HookMode string

const (
	// HookIncremental pushes only the new rows through normalization and a
	// narrow duplicate check.
	HookIncremental HookMode = "incremental"
	// HookFull re-runs the whole pipeline, skipping when one is in flight.
	HookFull HookMode = "full"
)

// Config holds the cleaning system's runtime settings, all sourced from the
// environment (optionally seeded from a .env file via LoadEnv).
type Config struct {
	// IntervalHours between scheduled full cleaning runs. Default 720 (30 days).
	IntervalHours int
	// CatchUp makes the scheduler fire at most one immediate run on startup
	// when at least one interval elapsed since the recorded last run.
	CatchUp bool
	// RunBudgetSeconds bounds one pipeline run. Exceeding it aborts the run
	// as a retryable failure. Zero disables the budget.
	RunBudgetSeconds int
	HookMode         HookMode

	HTTPHost string
	HTTPPort int

	Debug bool
}

// FromEnv builds a Config from environment variables with defaults.
func FromEnv() Config {
	mode := HookMode(GetEnv("HOOK_MODE", string(HookIncremental)))
	if mode != HookIncremental && mode != HookFull {
		mode = HookIncremental
	}

	return Config{
		IntervalHours:    GetEnvInt("CLEAN_INTERVAL_HOURS", 720),
		CatchUp:          GetEnvBool("CLEAN_CATCH_UP", true),
		RunBudgetSeconds: GetEnvInt("RUN_BUDGET_SECONDS", 300),
		HookMode:         mode,
		HTTPHost:         GetEnv("HTTP_HOST", "0.0.0.0"),
		HTTPPort:         GetEnvInt("HTTP_PORT", 8080),
		Debug:            GetEnvBool("DEBUG", false),
	}
}

// Interval returns the scheduling period.
func (c Config) Interval() time.Duration {
	return time.Duration(c.IntervalHours) * time.Hour
}

// RunBudget returns the per-run execution budget.
func (c Config) RunBudget() time.Duration {
	return time.Duration(c.RunBudgetSeconds) * time.Second
}
