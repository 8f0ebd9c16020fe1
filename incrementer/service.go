package incrementer

import (
	"sync"

	"github.com/pkg/errors"
)

// ReturnCode classifies the outcome of a request to the service.
type ReturnCode int

const (
	Success ReturnCode = iota
	InvalidRequest
	UnknownItem
)

// IncrementRequest asks for the next identifier for a named item (e.g.
// "Pick" or "Origin").
type IncrementRequest struct {
	Item string
}

// IncrementResponse carries the allocated identifier, or a non-Success
// return code on failure.
type IncrementResponse struct {
	Item       string
	Value      uint64
	ReturnCode ReturnCode
}

// ItemsRequest asks the service which named items it can allocate for.
type ItemsRequest struct{}

// ItemsResponse enumerates the service's registered items.
type ItemsResponse struct {
	Items []string
}

// Service is a stateless-from-the-caller's-perspective request handler
// fronting a registry of named Counters. One Service instance is expected
// to be replicated behind a router/dealer load balancer, same as the
// associator; the Service itself holds the only mutable state (the
// counters), guarded by its own mutex.
type Service struct {
	mu       sync.RWMutex
	counters map[string]*Counter
}

// NewService constructs an empty Service; items are added via Register.
func NewService() *Service {
	return &Service{counters: make(map[string]*Counter)}
}

// Register adds a named item with its own counter, starting at
// initialValue and advancing by increment. Registering an already
// registered item is an error — items are meant to be configured once at
// startup.
func (s *Service) Register(item string, initialValue, increment uint64) error {
	if item == "" {
		return errors.New("item name must not be empty")
	}
	counter, err := NewCounter(initialValue, increment)
	if err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.counters[item]; exists {
		return errors.Errorf("item %q already registered", item)
	}
	s.counters[item] = counter
	return nil
}

// Increment handles an IncrementRequest.
func (s *Service) Increment(req IncrementRequest) IncrementResponse {
	if req.Item == "" {
		return IncrementResponse{ReturnCode: InvalidRequest}
	}
	s.mu.RLock()
	counter, ok := s.counters[req.Item]
	s.mu.RUnlock()
	if !ok {
		return IncrementResponse{Item: req.Item, ReturnCode: UnknownItem}
	}
	return IncrementResponse{Item: req.Item, Value: counter.Next(), ReturnCode: Success}
}

// Items handles an ItemsRequest.
func (s *Service) Items(ItemsRequest) ItemsResponse {
	s.mu.RLock()
	defer s.mu.RUnlock()
	items := make([]string, 0, len(s.counters))
	for name := range s.counters {
		items = append(items, name)
	}
	return ItemsResponse{Items: items}
}
