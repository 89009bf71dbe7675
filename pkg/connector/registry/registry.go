package registry

import (
	"fmt"
	"sort"
	"sync"

	"go.uber.org/zap"

	"github.com/ajitpratap0/sluice/pkg/config"
	"github.com/ajitpratap0/sluice/pkg/connector/core"
	"github.com/ajitpratap0/sluice/pkg/errors"
	"github.com/ajitpratap0/sluice/pkg/logger"
)

// Registry maps connector type discriminators to factories
type Registry struct {
	sources map[string]SourceFactory
	targets map[string]TargetFactory
	mu      sync.RWMutex
	logger  *zap.Logger
}

// SourceFactory creates a source from its field map. The map always carries
// a type; the factory validates the remaining fields.
type SourceFactory func(spec config.ConnectorSpec) (core.Source, error)

// TargetFactory creates a target from its field map.
type TargetFactory func(spec config.ConnectorSpec) (core.Target, error)

// Global registry instance
var globalRegistry = New()

// New creates an empty connector registry
func New() *Registry {
	return &Registry{
		sources: make(map[string]SourceFactory),
		targets: make(map[string]TargetFactory),
		logger:  logger.Get().With(zap.String("component", "connector_registry")),
	}
}

// RegisterSource registers a source connector factory
func (r *Registry) RegisterSource(connectorType string, factory SourceFactory) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.sources[connectorType]; exists {
		return errors.New(errors.ErrorTypeConfig, fmt.Sprintf("source connector %s already registered", connectorType))
	}

	r.sources[connectorType] = factory
	r.logger.Debug("source connector registered", zap.String("type", connectorType))
	return nil
}

// RegisterTarget registers a target connector factory
func (r *Registry) RegisterTarget(connectorType string, factory TargetFactory) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.targets[connectorType]; exists {
		return errors.New(errors.ErrorTypeConfig, fmt.Sprintf("target connector %s already registered", connectorType))
	}

	r.targets[connectorType] = factory
	r.logger.Debug("target connector registered", zap.String("type", connectorType))
	return nil
}

// ResolveSource builds the source described by spec
func (r *Registry) ResolveSource(spec config.ConnectorSpec) (core.Source, error) {
	connectorType := spec.Type()
	if connectorType == "" {
		return nil, missingType(core.KindSource, spec)
	}

	r.mu.RLock()
	factory, exists := r.sources[connectorType]
	r.mu.RUnlock()

	if !exists {
		return nil, unknownType(core.KindSource, spec)
	}

	source, err := construct[core.Source](core.KindSource, spec, factory)
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrorTypeConstruction,
			fmt.Sprintf("failed to create %s source %q", connectorType, spec.Name())).
			WithDetail("type", connectorType)
	}
	return source, nil
}

// ResolveTarget builds the target described by spec
func (r *Registry) ResolveTarget(spec config.ConnectorSpec) (core.Target, error) {
	connectorType := spec.Type()
	if connectorType == "" {
		return nil, missingType(core.KindTarget, spec)
	}

	r.mu.RLock()
	factory, exists := r.targets[connectorType]
	r.mu.RUnlock()

	if !exists {
		return nil, unknownType(core.KindTarget, spec)
	}

	target, err := construct[core.Target](core.KindTarget, spec, factory)
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrorTypeConstruction,
			fmt.Sprintf("failed to create %s target %q", connectorType, spec.Name())).
			WithDetail("type", connectorType)
	}
	return target, nil
}

// construct runs a factory, converting a panic into an error so one broken
// connector cannot abort the construction of its siblings.
func construct[T any](kind core.ConnectorKind, spec config.ConnectorSpec, factory func(config.ConnectorSpec) (T, error)) (v T, err error) {
	defer func() {
		if r := recover(); r != nil {
			var zero T
			v, err = zero, errors.Newf(errors.ErrorTypeConstruction,
				"%s connector %q panicked during construction: %v", kind, spec.Type(), r)
		}
	}()
	return factory(spec)
}

func missingType(kind core.ConnectorKind, spec config.ConnectorSpec) error {
	return errors.New(errors.ErrorTypeMissingType,
		fmt.Sprintf("%s %q has no type", kind, spec.Name()))
}

func unknownType(kind core.ConnectorKind, spec config.ConnectorSpec) error {
	return errors.New(errors.ErrorTypeUnknownConnector,
		fmt.Sprintf("no %s connector registered for type %q", kind, spec.Type())).
		WithDetail("name", spec.Name())
}

// ListSources returns the registered source types in sorted order
func (r *Registry) ListSources() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	sources := make([]string, 0, len(r.sources))
	for name := range r.sources {
		sources = append(sources, name)
	}
	sort.Strings(sources)
	return sources
}

// ListTargets returns the registered target types in sorted order
func (r *Registry) ListTargets() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	targets := make([]string, 0, len(r.targets))
	for name := range r.targets {
		targets = append(targets, name)
	}
	sort.Strings(targets)
	return targets
}

// HasSource checks if a source connector is registered
func (r *Registry) HasSource(connectorType string) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	_, exists := r.sources[connectorType]
	return exists
}

// HasTarget checks if a target connector is registered
func (r *Registry) HasTarget(connectorType string) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	_, exists := r.targets[connectorType]
	return exists
}

// Global registry functions

// RegisterSource registers a source connector in the global registry
func RegisterSource(connectorType string, factory SourceFactory) error {
	return globalRegistry.RegisterSource(connectorType, factory)
}

// RegisterTarget registers a target connector in the global registry
func RegisterTarget(connectorType string, factory TargetFactory) error {
	return globalRegistry.RegisterTarget(connectorType, factory)
}

// ResolveSource builds a source from the global registry
func ResolveSource(spec config.ConnectorSpec) (core.Source, error) {
	return globalRegistry.ResolveSource(spec)
}

// ResolveTarget builds a target from the global registry
func ResolveTarget(spec config.ConnectorSpec) (core.Target, error) {
	return globalRegistry.ResolveTarget(spec)
}

// ListSources returns registered sources from the global registry
func ListSources() []string {
	return globalRegistry.ListSources()
}

// ListTargets returns registered targets from the global registry
func ListTargets() []string {
	return globalRegistry.ListTargets()
}

// Default returns the global registry instance
func Default() *Registry {
	return globalRegistry
}
