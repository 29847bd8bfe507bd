package logfields

import "log/slog"

// Canonical log field name constants to avoid drift across packages.
const (
	KeyBuildID    = "build_id"
	KeyDocID      = "doc_id"
	KeyLocale     = "locale"
	KeySlug       = "slug"
	KeyStage      = "stage"
	KeyDurationMS = "duration_ms"
	KeyTarget     = "target"
	KeyStatus     = "status"
	KeyError      = "error"
)

// Simple helpers returning slog.Attr. Keeping each granular means callers can compose.
func BuildID(id string) slog.Attr      { return slog.String(KeyBuildID, id) }
func DocID(id string) slog.Attr        { return slog.String(KeyDocID, id) }
func Locale(l string) slog.Attr        { return slog.String(KeyLocale, l) }
func Slug(s string) slog.Attr          { return slog.String(KeySlug, s) }
func Stage(name string) slog.Attr      { return slog.String(KeyStage, name) }
func DurationMS(ms float64) slog.Attr  { return slog.Float64(KeyDurationMS, ms) }
func Target(t string) slog.Attr        { return slog.String(KeyTarget, t) }
func Status(s string) slog.Attr        { return slog.String(KeyStatus, s) }
func Error(err error) slog.Attr {
	if err == nil {
		return slog.String(KeyError, "")
	}
	return slog.String(KeyError, err.Error())
}
