package persist

import (
	"encoding/json"

	"github.com/example/bookshop-client/internal/logging"
)

// Storage keys mirrored by the stores.
const (
	KeyBooks         = "books"
	KeyCategories    = "categories"
	KeyNotifications = "notifications"
	KeyCart          = "cart"
	KeyAccessToken   = "access_token"
	KeyRefreshToken  = "refresh_token"
)

// Adapter is a scoped durable key-value mirror of in-memory state. Writes
// are best-effort: callers treat failures as diagnostics, never as errors
// that reach the UI.
type Adapter interface {
	Save(key string, value []byte) error
	Load(key string) ([]byte, bool, error)
	Delete(key string) error
	Close() error
}

// SaveJSON serializes v and stores it under key. A marshal or storage
// failure is logged and swallowed.
func SaveJSON(a Adapter, key string, v any) {
	data, err := json.Marshal(v)
	if err != nil {
		logging.Error("persist", "marshal", err, map[string]any{"key": key})
		return
	}
	if err := a.Save(key, data); err != nil {
		logging.Error("persist", "save", err, map[string]any{"key": key})
	}
}

// LoadJSON loads key into out. It reports whether a usable value was found;
// decode failures are logged and treated as absent.
func LoadJSON(a Adapter, key string, out any) bool {
	data, ok, err := a.Load(key)
	if err != nil {
		logging.Error("persist", "load", err, map[string]any{"key": key})
		return false
	}
	if !ok {
		return false
	}
	if err := json.Unmarshal(data, out); err != nil {
		logging.Error("persist", "decode", err, map[string]any{"key": key})
		return false
	}
	return true
}
