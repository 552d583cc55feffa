package genphy

import (
	"context"
	"log/slog"
)

// LevelTrace logs individual register transactions, two below debug.
const LevelTrace = slog.LevelDebug - 2

// SetLogger sets the logger used to trace engine activity. A nil logger
// (the default) disables logging entirely.
func (d *Device) SetLogger(log *slog.Logger) {
	d.log = log
}

func (d *Device) logenabled(lvl slog.Level) bool {
	return d.log != nil && d.log.Handler().Enabled(context.Background(), lvl)
}

func (d *Device) logattrs(lvl slog.Level, msg string, attrs ...slog.Attr) {
	if d.logenabled(lvl) {
		d.log.LogAttrs(context.Background(), lvl, msg, attrs...)
	}
}

func (d *Device) debug(msg string, attrs ...slog.Attr) {
	d.logattrs(slog.LevelDebug, msg, attrs...)
}

func (d *Device) trace(msg string, attrs ...slog.Attr) {
	d.logattrs(LevelTrace, msg, attrs...)
}
