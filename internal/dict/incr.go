package dict

import "rudis/internal/value"

// Incr implements the INCR/DECR/INCRBY/DECRBY family's apply logic:
// on a missing key the value is created as 0 first (spec.md §4.B "on
// missing key, the key is created with value 0 before the operation"),
// then delta is added with overflow detection (spec.md §4.A).
// Grounded on original_source component/dict/src/cmd/kvp/incr.rs.
func (d *Dict) Incr(key string, delta int64, nowMs int64) (int64, error) {
	e := d.GetOrInsertWith(key, nowMs, func() value.Value { return value.FromInt(0) })
	cur, err := e.Value.AsInt()
	if err != nil {
		return 0, err
	}
	sum, err := value.AddInt64(cur, delta)
	if err != nil {
		return 0, err
	}
	e.Value = value.FromInt(sum)
	d.Mutate(key, e)
	return sum, nil
}
