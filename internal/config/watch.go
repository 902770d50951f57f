package config

import (
	"log/slog"

	"github.com/fsnotify/fsnotify"
)

// WatchFilters calls onChange with the filter section every time the config
// file is written. It returns false when no config file was loaded.
func (l *Loader) WatchFilters(onChange func(FilterConfig), logger *slog.Logger) bool {
	if logger == nil {
		logger = slog.Default()
	}
	if l.v.ConfigFileUsed() == "" {
		return false
	}

	l.v.OnConfigChange(func(e fsnotify.Event) {
		if !e.Has(fsnotify.Write) && !e.Has(fsnotify.Create) {
			return
		}
		var filters FilterConfig
		if err := l.v.UnmarshalKey("filter", &filters); err != nil {
			logger.Warn("ignoring unreadable filter settings", "file", e.Name, "error", err)
			return
		}
		logger.Info("config file changed", "file", e.Name)
		onChange(filters)
	})
	l.v.WatchConfig()
	return true
}
