// Package config holds the VM host's runtime configuration: everything
// cmd/egovm's flags populate before constructing a pkg/vm.VM. Grounded on
// the small plain-struct-plus-DefaultConfig shape used throughout the
// retrieval pack (e.g. marmos91-dittofs's internal/telemetry.Config) rather
// than a heavier options-with-validation framework, since this VM has only
// a handful of knobs.
package config

// Config holds the settings a host picks before running bytecode.
type Config struct {
	// EventQueueCapacity bounds the scheduler's event channel (spec.md
	// §6.3: "an implementation may bound the queue").
	EventQueueCapacity int

	// Debug enables the VM's per-opcode dispatch logging (native calls are
	// logged at Info regardless) and is threaded into every native call as
	// the ABI's debug flag (spec.md §6.2).
	Debug bool

	// LogLevel is one of "debug", "info", "warn", "error".
	LogLevel string

	// LogFormat is "text" or "json".
	LogFormat string
}

// Default returns the configuration cmd/egovm starts from before flags are
// applied.
func Default() Config {
	return Config{
		EventQueueCapacity: 64,
		Debug:              false,
		LogLevel:           "info",
		LogFormat:          "text",
	}
}
