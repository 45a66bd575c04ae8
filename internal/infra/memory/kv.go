package memory

import (
	"encoding/json"
	"strconv"
	"sync"
)

// KV wraps a flat string key-value store with JSON-safe reads and clamped
// numeric writes. Reads never fail: a missing key or malformed stored JSON is
// treated as absence and the caller's fallback wins.
type KV struct {
	mu   sync.RWMutex
	data map[string]string
}

func NewKV() *KV {
	return &KV{data: make(map[string]string)}
}

// Has reports whether a key is present, regardless of its value.
func (s *KV) Has(key string) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	_, ok := s.data[key]
	return ok
}

// GetRaw returns the stored string form of a key.
func (s *KV) GetRaw(key string) (string, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	raw, ok := s.data[key]
	return raw, ok
}

// SetRaw stores a string value verbatim.
func (s *KV) SetRaw(key, value string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.data[key] = value
}

// Delete removes a key.
func (s *KV) Delete(key string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.data, key)
}

// GetJSON unmarshals the stored value into out. It returns false, leaving out
// untouched, when the key is missing or the stored JSON is malformed.
func (s *KV) GetJSON(key string, out any) bool {
	raw, ok := s.GetRaw(key)
	if !ok {
		return false
	}
	if err := json.Unmarshal([]byte(raw), out); err != nil {
		return false
	}
	return true
}

// SetJSON marshals v and stores it. Values are plain data structs; a marshal
// failure here would be a programming error, so it drops the write silently
// rather than surfacing an error no caller can act on.
func (s *KV) SetJSON(key string, v any) {
	raw, err := json.Marshal(v)
	if err != nil {
		return
	}
	s.SetRaw(key, string(raw))
}

// GetInt reads a numeric key, returning fallback on absence or a non-number.
func (s *KV) GetInt(key string, fallback int) int {
	raw, ok := s.GetRaw(key)
	if !ok {
		return fallback
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		return fallback
	}
	return n
}

// SetNumber clamps value into [min, max], persists its string form, and
// returns the clamped value.
func (s *KV) SetNumber(key string, value, min, max int) int {
	if value < min {
		value = min
	}
	if value > max {
		value = max
	}
	s.SetRaw(key, strconv.Itoa(value))
	return value
}
