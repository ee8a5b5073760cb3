package config

import "runtime"

// Config holds linemark configuration.
// Stored at: ~/.linemark/config.yaml
type Config struct {
	Server   ServerCfg   `mapstructure:"server" yaml:"server"`
	Defaults JobDefaults `mapstructure:"defaults" yaml:"defaults"`
}

// ServerCfg configures the HTTP server.
type ServerCfg struct {
	// Host is the address to bind to (default: 127.0.0.1)
	Host string `mapstructure:"host" yaml:"host"`
	// Port is the port to listen on (default: 8080)
	Port string `mapstructure:"port" yaml:"port"`
}

// JobDefaults are the per-job knobs applied when a request or CLI invocation
// leaves them unset.
type JobDefaults struct {
	IgnoreCase   bool    `mapstructure:"ignore_case" yaml:"ignore_case"`
	RequireOrder bool    `mapstructure:"require_order" yaml:"require_order"`
	TrimCells    bool    `mapstructure:"trim_cells" yaml:"trim_cells"`
	Opacity      float64 `mapstructure:"opacity" yaml:"opacity"`
	Workers      int     `mapstructure:"workers" yaml:"workers"`

	// FullColors overrides the exact-term palette per column label (A-D).
	// Values are six-digit hex without the leading #.
	FullColors map[string]string `mapstructure:"full_colors" yaml:"full_colors"`
}

// DefaultConfig returns configuration with sensible defaults.
func DefaultConfig() *Config {
	workers := runtime.NumCPU() - 1
	if workers < 1 {
		workers = 1
	}
	return &Config{
		Server: ServerCfg{
			Host: "127.0.0.1",
			Port: "8080",
		},
		Defaults: JobDefaults{
			IgnoreCase: true,
			TrimCells:  true,
			Opacity:    0.35,
			Workers:    workers,
			FullColors: map[string]string{
				"A": "FFFF99",
				"B": "FF9999",
				"C": "99BFFF",
				"D": "99FF99",
			},
		},
	}
}
