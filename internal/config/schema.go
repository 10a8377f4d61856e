package config

// Config is the root configuration structure.
type Config struct {
	Library  LibraryConfig  `toml:"library"`
	Defaults DefaultsConfig `toml:"defaults"`
	Audio    AudioConfig    `toml:"audio"`
	State    StateConfig    `toml:"state"`
	TUI      TUIConfig      `toml:"tui"`
	Log      LogConfig      `toml:"log"`
}

// LibraryConfig holds music library settings.
type LibraryConfig struct {
	// Folders are scanned for playable audio files. Entries may start
	// with ~ for the home directory.
	Folders []string `toml:"folders"`
	// Watch keeps the library in sync with folder changes while the
	// player runs.
	Watch bool `toml:"watch"`
}

// DefaultsConfig holds the session values used when nothing has been
// persisted yet.
type DefaultsConfig struct {
	Volume  int    `toml:"volume"`
	Shuffle bool   `toml:"shuffle"`
	Repeat  string `toml:"repeat"`
}

// AudioConfig holds output device settings.
type AudioConfig struct {
	SampleRate int `toml:"sample_rate"`
	BufferMs   int `toml:"buffer_ms"`
	// ForceTouch overrides device detection: "on" forces the
	// touch-capable profile, "off" the pointer profile, "auto"
	// detects.
	ForceTouch string `toml:"force_touch"`
}

// StateConfig holds session persistence settings.
type StateConfig struct {
	// Dir overrides where session state is written. Empty means the
	// default state directory.
	Dir string `toml:"dir"`
}

// TUIConfig holds terminal UI settings.
type TUIConfig struct {
	Theme           string `toml:"theme"`
	RefreshInterval int    `toml:"refresh_interval"`
}

// LogConfig holds logging settings.
type LogConfig struct {
	Level string `toml:"level"`
	File  string `toml:"file"`
}
