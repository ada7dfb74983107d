package registry

import (
	"encoding/json"
	"fmt"
	"sync"

	"github.com/TheBeardedParaTrooper/LiveBuyNow/pkg/enums"
)

type DecoderFunc func(payload json.RawMessage) (any, error)

type registryKey struct {
	eventType enums.OutboxEventType
	version   int
}

// DecoderRegistry stores versioned payload decoders for consumers.
type DecoderRegistry struct {
	mtx      sync.RWMutex
	registry map[registryKey]DecoderFunc
}

func NewDecoderRegistry() *DecoderRegistry {
	return &DecoderRegistry{registry: make(map[registryKey]DecoderFunc)}
}

// NewDefaultDecoderRegistry registers v1 decoders for every payments event.
func NewDefaultDecoderRegistry() *DecoderRegistry {
	reg := NewDecoderRegistry()
	for eventType, factory := range PayloadFactories() {
		factory := factory
		reg.Register(eventType, 1, func(payload json.RawMessage) (any, error) {
			out := factory()
			if err := json.Unmarshal(payload, out); err != nil {
				return nil, err
			}
			return out, nil
		})
	}
	return reg
}

func (r *DecoderRegistry) Register(eventType enums.OutboxEventType, version int, decoder DecoderFunc) {
	r.mtx.Lock()
	defer r.mtx.Unlock()
	r.registry[registryKey{eventType: eventType, version: version}] = decoder
}

func (r *DecoderRegistry) Decode(eventType enums.OutboxEventType, version int, payload json.RawMessage) (any, error) {
	r.mtx.RLock()
	decoder, ok := r.registry[registryKey{eventType: eventType, version: version}]
	r.mtx.RUnlock()
	if !ok {
		return nil, fmt.Errorf("decoder not registered for %s@v%d", eventType, version)
	}
	return decoder(payload)
}
