package testutil

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/ajitpratap0/sluice/pkg/config"
	"github.com/ajitpratap0/sluice/pkg/connector/base"
	"github.com/ajitpratap0/sluice/pkg/connector/core"
	"github.com/ajitpratap0/sluice/pkg/connector/registry"
	"github.com/ajitpratap0/sluice/pkg/errors"
	"github.com/ajitpratap0/sluice/pkg/models"
)

// Fake connector types registered by NewRegistry
const (
	FakeType = "fake"
	// FakeUncheckedType connectors do not implement core.Checker
	FakeUncheckedType = "fake_unchecked"
)

// Failure points selectable with the "fail" field of a fake connector
const (
	FailConstruct      = "construct"
	FailConstructPanic = "construct_panic"
	FailExtract        = "extract"
	FailStream         = "stream"
	FailLoad           = "load"
	FailPanic          = "panic"
)

// FakeConfig configures a fake source or target.
//
//	packages: [a, b]    source emits one single-row package per name
//	check: true|false|error|unsupported
//	fail: construct|construct_panic|extract|stream|load|panic
type FakeConfig struct {
	base.Identity `mapstructure:",squash"`
	Packages      []string `mapstructure:"packages"`
	Check         string   `mapstructure:"check"`
	Fail          string   `mapstructure:"fail"`
	// Path is accepted and ignored, so specs can be shared with file connectors
	Path string `mapstructure:"path"`
}

// Recorder observes what fake connectors built from one registry did
type Recorder struct {
	mu           sync.Mutex
	constructed  map[core.ConnectorKind]int
	loaded       map[string][]string
	extractCalls int
}

func newRecorder() *Recorder {
	return &Recorder{
		constructed: make(map[core.ConnectorKind]int),
		loaded:      make(map[string][]string),
	}
}

// Constructed returns how many connectors of kind were built
func (r *Recorder) Constructed(kind core.ConnectorKind) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.constructed[kind]
}

// Extracts returns how many times Extract was called
func (r *Recorder) Extracts() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.extractCalls
}

// Loaded returns the package names loaded into the named target
func (r *Recorder) Loaded(target string) []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]string(nil), r.loaded[target]...)
}

// Targets returns the names of targets that received at least one package
func (r *Recorder) Targets() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	names := make([]string, 0, len(r.loaded))
	for n := range r.loaded {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}

func (r *Recorder) record(fn func()) {
	r.mu.Lock()
	defer r.mu.Unlock()
	fn()
}

// NewRegistry returns a private registry holding the fake connectors, and
// the recorder they report to.
func NewRegistry() (*registry.Registry, *Recorder) {
	reg := registry.New()
	rec := newRecorder()

	for _, typ := range []string{FakeType, FakeUncheckedType} {
		unchecked := typ == FakeUncheckedType
		_ = reg.RegisterSource(typ, func(spec config.ConnectorSpec) (core.Source, error) {
			f, err := newFake(spec, rec, core.KindSource)
			if err != nil {
				return nil, err
			}
			if unchecked {
				return struct{ core.Source }{f}, nil
			}
			return f, nil
		})
		_ = reg.RegisterTarget(typ, func(spec config.ConnectorSpec) (core.Target, error) {
			f, err := newFake(spec, rec, core.KindTarget)
			if err != nil {
				return nil, err
			}
			if unchecked {
				return struct{ core.Target }{f}, nil
			}
			return f, nil
		})
	}
	return reg, rec
}

// Fake is both a source and a target
type Fake struct {
	base.Identity
	cfg FakeConfig
	rec *Recorder
}

func newFake(spec config.ConnectorSpec, rec *Recorder, kind core.ConnectorKind) (*Fake, error) {
	var cfg FakeConfig
	if err := base.Decode(spec, &cfg); err != nil {
		return nil, err
	}
	if cfg.Fail == FailConstruct {
		return nil, fmt.Errorf("fake %s %q refused construction", kind, cfg.Name())
	}
	if cfg.Fail == FailConstructPanic {
		panic(fmt.Sprintf("fake %s %q blew up", kind, cfg.Name()))
	}
	rec.record(func() { rec.constructed[kind]++ })
	return &Fake{Identity: cfg.Identity, cfg: cfg, rec: rec}, nil
}

// Package builds a single-row package
func Package(name string) *core.DataPackage {
	tbl := models.NewTable("name")
	tbl.AddRow(name)
	return &core.DataPackage{Name: name, Table: tbl}
}

// Extract emits the configured packages
func (f *Fake) Extract(ctx context.Context) (*core.PackageStream, error) {
	f.rec.record(func() { f.rec.extractCalls++ })
	switch f.cfg.Fail {
	case FailExtract:
		return nil, fmt.Errorf("fake source %q cannot extract", f.Name())
	case FailPanic:
		panic("fake source exploded")
	}
	return core.NewStream(ctx, func(ctx context.Context, emit core.EmitFunc) error {
		for _, name := range f.cfg.Packages {
			if err := emit(Package(name)); err != nil {
				return err
			}
		}
		if f.cfg.Fail == FailStream {
			return fmt.Errorf("fake source %q lost its data", f.Name())
		}
		return nil
	}), nil
}

// Load records the name of every package
func (f *Fake) Load(ctx context.Context, stream *core.PackageStream) error {
	switch f.cfg.Fail {
	case FailLoad:
		return fmt.Errorf("fake target %q rejected the data", f.Name())
	case FailPanic:
		panic("fake target exploded")
	}
	return stream.Each(ctx, func(pkg *core.DataPackage) error {
		f.rec.record(func() { f.rec.loaded[f.Name()] = append(f.rec.loaded[f.Name()], pkg.Name) })
		return nil
	})
}

// Check answers with the configured result
func (f *Fake) Check(ctx context.Context) (bool, error) {
	switch f.cfg.Check {
	case "", "true":
		return true, nil
	case "false":
		return false, nil
	case "unsupported":
		return false, core.ErrCheckUnsupported(f.Type())
	default:
		return false, errors.New(errors.ErrorTypeConnection, "fake connection refused")
	}
}
