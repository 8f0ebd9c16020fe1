package packetcache

import (
	"sync"

	"github.com/uofuseismo/urts-core/metrics"
	"github.com/uofuseismo/urts-core/waveform"
)

// Registry maps channel identifiers to their circular buffer, growing only
// (new channels are registered lazily on first use) until Shutdown is
// called. Lookups take the read lock; only registering a brand-new channel
// takes the write lock, so concurrent queries across channels never
// contend with each other.
type Registry struct {
	mu              sync.RWMutex
	buffers         map[waveform.ChannelID]*Buffer
	defaultCapacity int

	// Metrics, if set, is handed to every buffer this registry creates.
	Metrics *metrics.Metrics
}

// NewRegistry creates a registry whose buffers default to defaultCapacity
// packets when lazily created by GetOrCreate.
func NewRegistry(defaultCapacity int) *Registry {
	return &Registry{
		buffers:         make(map[waveform.ChannelID]*Buffer),
		defaultCapacity: defaultCapacity,
	}
}

// Get looks up an existing buffer under the registry's read lock.
func (r *Registry) Get(id waveform.ChannelID) (*Buffer, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	b, ok := r.buffers[id]
	return b, ok
}

// GetOrCreate returns the buffer for id, registering a new one with the
// registry's default capacity if none exists yet.
func (r *Registry) GetOrCreate(id waveform.ChannelID) (*Buffer, error) {
	if b, ok := r.Get(id); ok {
		return b, nil
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if b, ok := r.buffers[id]; ok {
		return b, nil
	}
	b, err := NewBuffer(id, r.defaultCapacity)
	if err != nil {
		return nil, err
	}
	b.Metrics = r.Metrics
	r.buffers[id] = b
	return b, nil
}

// Add is a convenience that registers the channel if necessary and adds
// the packet to its buffer.
func (r *Registry) Add(packet waveform.Packet) error {
	b, err := r.GetOrCreate(packet.ChannelID)
	if err != nil {
		return err
	}
	return b.Add(packet)
}

// Channels returns every channel currently registered.
func (r *Registry) Channels() []waveform.ChannelID {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]waveform.ChannelID, 0, len(r.buffers))
	for id := range r.buffers {
		out = append(out, id)
	}
	return out
}

// Shutdown removes every registered channel. Per the concurrency model,
// registry removal only ever happens at process shutdown.
func (r *Registry) Shutdown() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.buffers = make(map[waveform.ChannelID]*Buffer)
}
