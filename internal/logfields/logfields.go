package logfields

import "log/slog"

// Canonical log field name constants to avoid drift across packages.
const (
	KeyRunID      = "run_id"
	KeyPart       = "part"
	KeySource     = "source"
	KeyTag        = "tag"
	KeyBranch     = "branch"
	KeyVersion    = "version"
	KeyCandidates = "candidates"
	KeyForge      = "forge"
	KeyURL        = "url"
	KeyPath       = "path"
	KeyFile       = "file"
	KeyMethod     = "method"
	KeyStatus     = "status"
	KeyAttempt    = "attempt"
	KeySchedule   = "schedule_name"
	KeySubject    = "subject"
	KeyDurationMS = "duration_ms"
	KeyError      = "error"
)

// Simple helpers returning slog.Attr. Keeping each granular means callers can compose.
func RunID(id string) slog.Attr        { return slog.String(KeyRunID, id) }
func Part(name string) slog.Attr       { return slog.String(KeyPart, name) }
func Source(url string) slog.Attr      { return slog.String(KeySource, url) }
func Tag(name string) slog.Attr        { return slog.String(KeyTag, name) }
func Branch(name string) slog.Attr     { return slog.String(KeyBranch, name) }
func Version(v string) slog.Attr       { return slog.String(KeyVersion, v) }
func Candidates(n int) slog.Attr       { return slog.Int(KeyCandidates, n) }
func Forge(name string) slog.Attr      { return slog.String(KeyForge, name) }
func URL(u string) slog.Attr           { return slog.String(KeyURL, u) }
func Path(p string) slog.Attr          { return slog.String(KeyPath, p) }
func File(f string) slog.Attr          { return slog.String(KeyFile, f) }
func Method(m string) slog.Attr        { return slog.String(KeyMethod, m) }
func Status(code int) slog.Attr        { return slog.Int(KeyStatus, code) }
func Attempt(n int) slog.Attr          { return slog.Int(KeyAttempt, n) }
func ScheduleName(n string) slog.Attr  { return slog.String(KeySchedule, n) }
func Subject(s string) slog.Attr       { return slog.String(KeySubject, s) }
func DurationMS(ms float64) slog.Attr  { return slog.Float64(KeyDurationMS, ms) }
func Error(err error) slog.Attr {
	if err == nil {
		return slog.String(KeyError, "")
	}
	return slog.String(KeyError, err.Error())
}
