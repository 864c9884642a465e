package driven

// ConfigStore is a read-only source of configuration values addressed by
// dotted keys such as "playback.primary".
//
// Values keep whatever type the source decoded them to. TOML yields
// string, int64, bool and []any; environment overrides yield strings.
// Converting them is the caller's job.
type ConfigStore interface {
	// Lookup returns the raw value stored under key.
	Lookup(key string) (any, bool)

	// Load rereads the source, replacing every value.
	Load() error

	// Path names the source in messages.
	Path() string
}
