// Package di provides a minimal service container with lazily constructed,
// type-safe service tokens.
package di

import (
	"fmt"
	"sync"
)

// ServiceRegistry is the read side of the container.
type ServiceRegistry interface {
	// Get returns the service registered under name.
	// Panics if the name is unknown (a missing service is a wiring bug).
	Get(name string) any
}

// Container registers services by name. Factories are invoked once, on first
// Get, and the result is memoized.
type Container interface {
	ServiceRegistry

	// Register stores an already-built service instance.
	Register(name string, svc any)

	// RegisterFactory stores a constructor invoked lazily on first Get.
	RegisterFactory(name string, factory func(ServiceRegistry) any)
}

// NewContainer creates an empty container.
func NewContainer() Container {
	return &container{
		services:  make(map[string]any),
		factories: make(map[string]func(ServiceRegistry) any),
	}
}

type container struct {
	mu        sync.Mutex
	services  map[string]any
	factories map[string]func(ServiceRegistry) any
}

func (c *container) Register(name string, svc any) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.services[name] = svc
}

func (c *container) RegisterFactory(name string, factory func(ServiceRegistry) any) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.factories[name] = factory
}

func (c *container) Get(name string) any {
	c.mu.Lock()

	if svc, ok := c.services[name]; ok {
		c.mu.Unlock()
		return svc
	}

	factory, ok := c.factories[name]
	if !ok {
		c.mu.Unlock()
		panic(fmt.Sprintf("di: service %q not registered", name))
	}

	// Release the lock while building so factories can resolve
	// their own dependencies through Get.
	c.mu.Unlock()
	svc := factory(c)

	c.mu.Lock()
	c.services[name] = svc
	c.mu.Unlock()

	return svc
}

// Token is a typed handle for a named service.
type Token[T any] struct {
	name string
}

// NewToken creates a typed token for the given service name.
func NewToken[T any](name string) Token[T] {
	return Token[T]{name: name}
}

// Name returns the token's service name.
func (t Token[T]) Name() string {
	return t.name
}

// RegisterToken registers a factory under the token's name.
func RegisterToken[T any](c Container, tok Token[T], factory func(ServiceRegistry) T) {
	c.RegisterFactory(tok.name, func(sr ServiceRegistry) any {
		return factory(sr)
	})
}

// GetToken resolves the token to its typed service.
// Panics if the registered service has a different type (a wiring bug).
func GetToken[T any](sr ServiceRegistry, tok Token[T]) T {
	svc := sr.Get(tok.name)
	typed, ok := svc.(T)
	if !ok {
		panic(fmt.Sprintf("di: service %q has type %T, token expects %v", tok.name, svc, tok))
	}
	return typed
}
