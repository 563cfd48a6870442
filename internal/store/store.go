// Package store implements spec.md §4.D: the fixed array of slots and
// CRC16-XMODEM key routing. Grounded on
// original_source/component/src/db/mod.rs's Db, generalized from its
// DefaultHasher routing to the CRC16 scheme spec.md specifies (so that
// slot routing matches Redis Cluster's hash-slot convention).
package store

import (
	"fmt"

	"rudis/internal/forward"
	"rudis/internal/slot"
)

// DefaultSlotCount matches the Redis cluster hash-slot count, as
// spec.md's reference configuration recommends.
const DefaultSlotCount = 16384

// Db owns every Slot for the process. The slot count is fixed at
// construction and must be a power of two so routing can mask instead
// of mod.
type Db struct {
	slots []*slot.Slot
	mask  uint16
}

// New constructs a Db with n slots (n must be a power of two). Each
// slot shares the given forward bus and expiration notifier.
func New(n int, bus *forward.Bus, expireN slot.ExpireNotifier) (*Db, error) {
	if n <= 0 || n&(n-1) != 0 {
		return nil, fmt.Errorf("store: slot count %d is not a positive power of two", n)
	}
	slots := make([]*slot.Slot, n)
	for i := range slots {
		slots[i] = slot.New(uint16(i), bus, expireN)
	}
	return &Db{slots: slots, mask: uint16(n - 1)}, nil
}

// SlotCount returns the number of slots.
func (d *Db) SlotCount() int { return len(d.slots) }

// SlotID routes key to its owning slot index: CRC16_XMODEM(key) & (N-1),
// exactly as spec.md §3 Key defines.
func (d *Db) SlotID(key []byte) uint16 {
	return crc16(key) & d.mask
}

// Route returns the Slot owning key.
func (d *Db) Route(key []byte) *slot.Slot {
	return d.slots[d.SlotID(key)]
}

// SlotByID exposes a slot directly, used by the expiration scheduler
// and replication (spec.md §4.D "exposes slot_by_id for scheduler and
// replication").
func (d *Db) SlotByID(id uint16) (*slot.Slot, error) {
	if int(id) >= len(d.slots) {
		return nil, fmt.Errorf("store: slot id %d out of range", id)
	}
	return d.slots[id], nil
}

// Each invokes fn for every slot in index order, used by full-DB
// operations like snapshot-all and metrics collection.
func (d *Db) Each(fn func(s *slot.Slot)) {
	for _, s := range d.slots {
		fn(s)
	}
}
