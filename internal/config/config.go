package config

import "github.com/spf13/viper"

// Config holds typed configuration for studydeck.
type Config struct {
	DBPath        string
	LogLevel      string
	FocusSeconds  int
	BreakSeconds  int
	RetentionDays int
}

// Load reads all values from the given viper instance, applying defaults
// for anything unset.
func Load(v *viper.Viper) Config {
	v.SetDefault("focus_seconds", 1500)
	v.SetDefault("break_seconds", 300)
	v.SetDefault("retention_days", 7)
	v.SetDefault("log_level", "info")

	return Config{
		DBPath:        v.GetString("db_path"),
		LogLevel:      v.GetString("log_level"),
		FocusSeconds:  v.GetInt("focus_seconds"),
		BreakSeconds:  v.GetInt("break_seconds"),
		RetentionDays: v.GetInt("retention_days"),
	}
}
