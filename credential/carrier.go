package credential

import (
	"context"
	"errors"
	"sync"
)

// ErrSlotUnavailable is returned when the backing storage cannot be reached.
var ErrSlotUnavailable = errors.New("credential slot unavailable")

// Carrier holds a single opaque bearer credential.
//
// Get reports ok=false when the slot is empty. Implementations must be safe for
// concurrent use and must not require any session state to exist.
type Carrier interface {
	Get(ctx context.Context) (string, bool, error)
	Set(ctx context.Context, credential string) error
	Clear(ctx context.Context) error
}

// Memory keeps the credential in process memory.
type Memory struct {
	mu    sync.RWMutex
	value string
	set   bool
}

// NewMemory returns an empty in-memory slot.
func NewMemory() *Memory {
	return &Memory{}
}

func (m *Memory) Get(context.Context) (string, bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.value, m.set, nil
}

func (m *Memory) Set(_ context.Context, credential string) error {
	m.mu.Lock()
	m.value = credential
	m.set = true
	m.mu.Unlock()
	return nil
}

func (m *Memory) Clear(context.Context) error {
	m.mu.Lock()
	m.value = ""
	m.set = false
	m.mu.Unlock()
	return nil
}
