package store

import "rudis/internal/slot"

// DictAccess adapts Slot's expiration-facing methods to expire.DictAccess,
// so internal/expire never needs to import internal/store.
type DictAccess struct{}

// RemoveIfMatch satisfies expire.DictAccess.
func (DictAccess) RemoveIfMatch(s *slot.Slot, key string, want int64) bool {
	return s.RemoveIfExpiresMatch(key, want)
}
