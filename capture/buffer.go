package capture

const (
	// NoLimit disables the retention cap, or the completion threshold it is
	// applied to. It is also the accepted explicit "unlimited" config value.
	NoLimit = -1

	// DefaultCapacity is the initial buffer capacity used when none is configured.
	DefaultCapacity = 8 * 1024
)

type element interface {
	~byte | ~rune
}

// buffer is a growable store capped at limit elements, plus an uncapped
// counter of everything that passed through. size never exceeds limit;
// total may exceed the true source length when replayed data is captured
// again after a mark/reset.
type buffer[T element] struct {
	data     []T
	initial  int
	limit    int
	total    int64
	limitHit bool
}

func newBuffer[T element](capacity, limit int) *buffer[T] {
	if capacity < 0 {
		capacity = 0
	}
	if limit != NoLimit && capacity > limit {
		capacity = limit
	}
	return &buffer[T]{initial: capacity, limit: limit}
}

// append copies as much of p as the limit allows and counts the full length
// of p into the total regardless. It reports whether this call was the first
// to truncate; a source that fits the limit exactly never trips it.
func (b *buffer[T]) append(p []T) bool {
	b.total += int64(len(p))
	if len(p) == 0 {
		return false
	}

	room := len(p)
	if b.limit != NoLimit {
		room = min(b.limit-len(b.data), len(p))
	}
	if room > 0 {
		b.grow(room)
		b.data = append(b.data, p[:room]...)
	}

	if room < len(p) && !b.limitHit {
		b.limitHit = true
		return true
	}
	return false
}

// grow ensures capacity for n more elements, doubling geometrically from the
// initial capacity and never allocating beyond the limit.
func (b *buffer[T]) grow(n int) {
	need := len(b.data) + n
	if cap(b.data) >= need {
		return
	}

	newCap := cap(b.data)
	if newCap == 0 {
		newCap = b.initial
		if newCap == 0 {
			newCap = DefaultCapacity
		}
	}
	for newCap < need {
		newCap *= 2
	}
	if b.limit != NoLimit && newCap > b.limit {
		newCap = b.limit
	}

	grown := make([]T, len(b.data), newCap)
	copy(grown, b.data)
	b.data = grown
}

// reset discards everything captured so far, including the total counter.
func (b *buffer[T]) reset() {
	b.data = nil
	b.total = 0
	b.limitHit = false
}
