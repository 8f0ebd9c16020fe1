// Package packetcache implements the thread-safe, per-channel circular
// packet cache: a fixed-capacity, time-ordered ring buffer supporting
// out-of-order backfill and range queries, plus a registry mapping channel
// identifiers to cache instances.
package packetcache

import (
	"sort"
	"sync"
	"time"

	"github.com/pkg/errors"

	"github.com/uofuseismo/urts-core/metrics"
	"github.com/uofuseismo/urts-core/waveform"
)

// Buffer holds the most recent Capacity packets for one (network, station,
// channel, location) tuple, ordered by start time, guarded by a single
// mutex so different channels never contend with each other.
type Buffer struct {
	mu       sync.Mutex
	id       waveform.ChannelID
	capacity int
	packets  []waveform.Packet

	// Metrics, if set, has its cache occupancy gauge updated after every
	// Add.
	Metrics *metrics.Metrics
}

// NewBuffer constructs a buffer for id holding at most capacity packets.
func NewBuffer(id waveform.ChannelID, capacity int) (*Buffer, error) {
	if capacity < 1 {
		return nil, errors.New("packet cache capacity must be positive")
	}
	if id.Network == "" || id.Station == "" || id.Channel == "" {
		return nil, errors.New("network, station, and channel must be set")
	}
	return &Buffer{id: id, capacity: capacity}, nil
}

// ChannelID returns the (network, station, channel, location) this buffer
// was initialized with.
func (b *Buffer) ChannelID() waveform.ChannelID {
	return b.id
}

// Capacity returns the maximum number of packets this buffer will hold.
func (b *Buffer) Capacity() int {
	return b.capacity
}

// Size returns the number of packets currently cached.
func (b *Buffer) Size() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.packets)
}

// recordOccupancyLocked updates the cache occupancy gauge; callers must
// already hold b.mu.
func (b *Buffer) recordOccupancyLocked() {
	if b.Metrics == nil {
		return
	}
	b.Metrics.CacheOccupancy.WithLabelValues(b.id.String()).Set(float64(len(b.packets)))
}

func packetEnd(p waveform.Packet) time.Time {
	if end, ok := p.EndTime(); ok {
		return end
	}
	return p.StartTime
}

// Add inserts packet into the buffer, preserving sort order by start time.
//
// Algorithm (spec 4.1): if empty, push. If packet.start is after the most
// recent packet's start, push to the back, evicting the oldest packet if
// the buffer is now over capacity. If packet.start is before the oldest
// packet's start and the buffer is full, the packet has expired and is
// dropped silently. Otherwise the insertion point is located by binary
// search; a packet with an identical start time is overwritten in place
// (treated as a more authoritative copy) rather than duplicated.
func (b *Buffer) Add(packet waveform.Packet) error {
	if packet.ChannelID != b.id {
		return errors.Errorf("packet channel %s does not match buffer channel %s",
			packet.ChannelID, b.id)
	}
	if err := packet.Validate(); err != nil {
		return errors.Wrap(err, "invalid packet")
	}

	b.mu.Lock()
	defer func() {
		b.recordOccupancyLocked()
		b.mu.Unlock()
	}()

	if len(b.packets) == 0 {
		b.packets = append(b.packets, packet)
		return nil
	}

	back := b.packets[len(b.packets)-1]
	if packet.StartTime.After(back.StartTime) {
		b.packets = append(b.packets, packet)
		if len(b.packets) > b.capacity {
			b.packets = b.packets[1:]
		}
		return nil
	}

	front := b.packets[0]
	if packet.StartTime.Before(front.StartTime) && len(b.packets) >= b.capacity {
		return nil // expired; dropped silently
	}

	idx := sort.Search(len(b.packets), func(i int) bool {
		return b.packets[i].StartTime.After(packet.StartTime)
	})
	if idx > 0 && b.packets[idx-1].StartTime.Equal(packet.StartTime) {
		b.packets[idx-1] = packet
		return nil
	}
	b.packets = append(b.packets, waveform.Packet{})
	copy(b.packets[idx+1:], b.packets[idx:])
	b.packets[idx] = packet
	if len(b.packets) > b.capacity {
		b.packets = b.packets[1:]
	}
	return nil
}

// EarliestStartTime returns the start time of the oldest cached packet.
// ok is false when the buffer is empty.
func (b *Buffer) EarliestStartTime() (t time.Time, ok bool) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if len(b.packets) == 0 {
		return time.Time{}, false
	}
	return b.packets[0].StartTime, true
}

// Query returns every cached packet whose [start, end] interval overlaps
// [t0, t1], inclusive of boundary touches.
func (b *Buffer) Query(t0, t1 time.Time) []waveform.Packet {
	b.mu.Lock()
	defer b.mu.Unlock()

	n := len(b.packets)
	if n == 0 {
		return nil
	}

	// Upper bound: first packet whose start time is after t0.
	idx := sort.Search(n, func(i int) bool {
		return b.packets[i].StartTime.After(t0)
	})
	// Step back one: the packet immediately before idx may still overlap
	// the window if its end time reaches into it.
	start := idx
	if start > 0 && !packetEnd(b.packets[start-1]).Before(t0) {
		start--
	}

	result := make([]waveform.Packet, 0, n-start)
	for i := start; i < n; i++ {
		p := b.packets[i]
		if p.StartTime.After(t1) {
			break
		}
		if !packetEnd(p).Before(t0) {
			result = append(result, p)
		}
	}
	return result
}

// QueryAll returns a snapshot copy of every cached packet.
func (b *Buffer) QueryAll() []waveform.Packet {
	b.mu.Lock()
	defer b.mu.Unlock()
	out := make([]waveform.Packet, len(b.packets))
	copy(out, b.packets)
	return out
}

// Clear empties the buffer.
func (b *Buffer) Clear() {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.packets = nil
}

// Clone returns an independent deep copy of the buffer's current contents.
// The source C++ implementation's copy-assignment operator failed to
// return *this; Clone is the explicit, value-semantics-preserving
// replacement called for in the design notes.
func (b *Buffer) Clone() (*Buffer, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	clone, err := NewBuffer(b.id, b.capacity)
	if err != nil {
		return nil, err
	}
	clone.packets = make([]waveform.Packet, len(b.packets))
	copy(clone.packets, b.packets)
	return clone, nil
}
