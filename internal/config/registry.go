package config

import (
	"errors"
	"fmt"
	"sync"

	"github.com/seonjhang/gAIm-Systems/pkg/provider/embeddings"
	"github.com/seonjhang/gAIm-Systems/pkg/provider/llm"
)

// ErrProviderNotRegistered is returned by Create* methods when no factory
// has been registered under the requested provider name.
var ErrProviderNotRegistered = errors.New("config: provider not registered")

// factoryTable is one provider kind's name-to-constructor map. The zero
// value is ready to use.
type factoryTable[T any] struct {
	mu        sync.RWMutex
	factories map[string]func(ProviderEntry) (T, error)
}

func (t *factoryTable[T]) register(name string, factory func(ProviderEntry) (T, error)) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.factories == nil {
		t.factories = make(map[string]func(ProviderEntry) (T, error))
	}
	t.factories[name] = factory
}

func (t *factoryTable[T]) create(kind string, entry ProviderEntry) (T, error) {
	t.mu.RLock()
	factory, ok := t.factories[entry.Name]
	t.mu.RUnlock()
	if !ok {
		var zero T
		return zero, fmt.Errorf("%w: %s/%q", ErrProviderNotRegistered, kind, entry.Name)
	}
	return factory(entry)
}

// Registry maps provider names to constructors, one table per provider
// kind. It is safe for concurrent use.
type Registry struct {
	llm        factoryTable[llm.Provider]
	embeddings factoryTable[embeddings.Provider]
}

// NewRegistry returns an empty [Registry].
func NewRegistry() *Registry {
	return &Registry{}
}

// RegisterLLM registers an LLM provider factory under name. Registering the
// same name again overwrites the earlier factory.
func (r *Registry) RegisterLLM(name string, factory func(ProviderEntry) (llm.Provider, error)) {
	r.llm.register(name, factory)
}

// RegisterEmbeddings registers an embeddings provider factory under name.
func (r *Registry) RegisterEmbeddings(name string, factory func(ProviderEntry) (embeddings.Provider, error)) {
	r.embeddings.register(name, factory)
}

// CreateLLM builds an LLM provider with the factory registered under
// entry.Name. The error wraps [ErrProviderNotRegistered] when the name is
// unknown.
func (r *Registry) CreateLLM(entry ProviderEntry) (llm.Provider, error) {
	return r.llm.create("llm", entry)
}

// CreateEmbeddings builds an embeddings provider with the factory
// registered under entry.Name.
func (r *Registry) CreateEmbeddings(entry ProviderEntry) (embeddings.Provider, error) {
	return r.embeddings.create("embeddings", entry)
}
