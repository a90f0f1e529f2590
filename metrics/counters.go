package metrics

// Op identifies a recorded cache operation.
type Op int

const (
	OpHit Op = iota
	OpMiss
	OpSet
	OpDelete
	OpNativeSet
	OpNativeGet
	OpNativeDelete
	OpNativeClear
	OpNativeDeleteByTag
)

// String returns the operation name used in logs and metric attributes.
func (o Op) String() string {
	switch o {
	case OpHit:
		return "hit"
	case OpMiss:
		return "miss"
	case OpSet:
		return "set"
	case OpDelete:
		return "delete"
	case OpNativeSet:
		return "native_set"
	case OpNativeGet:
		return "native_get"
	case OpNativeDelete:
		return "native_delete"
	case OpNativeClear:
		return "native_clear"
	case OpNativeDeleteByTag:
		return "native_delete_by_tag"
	default:
		return "unknown"
	}
}

// Native reports whether o bypasses the read-through path.
func (o Op) Native() bool {
	return o >= OpNativeSet
}

// Counters are the scalar counters of a window or a key.
type Counters struct {
	Hits    int64 `json:"hits"`
	Misses  int64 `json:"misses"`
	Sets    int64 `json:"sets"`
	Deletes int64 `json:"deletes"`
	Errors  int64 `json:"errors"`

	NativeSets         int64 `json:"native_sets"`
	NativeGets         int64 `json:"native_gets"`
	NativeDeletes      int64 `json:"native_deletes"`
	NativeClears       int64 `json:"native_clears"`
	NativeDeleteByTags int64 `json:"native_delete_by_tags"`
	NativeErrors       int64 `json:"native_errors"`
}

// ReadThroughOps is hits+misses. Native operations are never included.
func (c Counters) ReadThroughOps() int64 {
	return c.Hits + c.Misses
}

// NativeOps is the total of all native operations, excluding errors.
func (c Counters) NativeOps() int64 {
	return c.NativeSets + c.NativeGets + c.NativeDeletes + c.NativeClears + c.NativeDeleteByTags
}

// Traffic is the eviction weight of a key.
func (c Counters) Traffic() int64 {
	return c.ReadThroughOps() + c.NativeOps()
}

// Add returns the field-wise sum of c and o.
func (c Counters) Add(o Counters) Counters {
	return Counters{
		Hits:               c.Hits + o.Hits,
		Misses:             c.Misses + o.Misses,
		Sets:               c.Sets + o.Sets,
		Deletes:            c.Deletes + o.Deletes,
		Errors:             c.Errors + o.Errors,
		NativeSets:         c.NativeSets + o.NativeSets,
		NativeGets:         c.NativeGets + o.NativeGets,
		NativeDeletes:      c.NativeDeletes + o.NativeDeletes,
		NativeClears:       c.NativeClears + o.NativeClears,
		NativeDeleteByTags: c.NativeDeleteByTags + o.NativeDeleteByTags,
		NativeErrors:       c.NativeErrors + o.NativeErrors,
	}
}

func (c *Counters) inc(op Op) {
	switch op {
	case OpHit:
		c.Hits++
	case OpMiss:
		c.Misses++
	case OpSet:
		c.Sets++
	case OpDelete:
		c.Deletes++
	case OpNativeSet:
		c.NativeSets++
	case OpNativeGet:
		c.NativeGets++
	case OpNativeDelete:
		c.NativeDeletes++
	case OpNativeClear:
		c.NativeClears++
	case OpNativeDeleteByTag:
		c.NativeDeleteByTags++
	}
}
