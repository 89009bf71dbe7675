package core

import (
	"context"
	"io"

	"github.com/ajitpratap0/sluice/pkg/errors"
)

// EmitFunc hands one package to the consumer, blocking until it is taken or
// the producer context is cancelled.
type EmitFunc func(pkg *DataPackage) error

// ProduceFunc generates the packages of a stream.
type ProduceFunc func(ctx context.Context, emit EmitFunc) error

// PackageStream is a finite, lazily produced sequence of data packages.
// It is consumed once by a single goroutine and cannot be restarted.
type PackageStream struct {
	packages <-chan *DataPackage
	errs     <-chan error
	cancel   context.CancelFunc

	peeked *DataPackage
	done   bool
	err    error
}

// NewStream runs produce in its own goroutine and exposes what it emits.
// A producer error or panic is reported as an extraction error once the
// packages emitted before it have been consumed.
func NewStream(ctx context.Context, produce ProduceFunc) *PackageStream {
	ctx, cancel := context.WithCancel(ctx)
	packages := make(chan *DataPackage)
	errs := make(chan error, 1)

	emit := func(pkg *DataPackage) error {
		select {
		case packages <- pkg:
			return nil
		case <-ctx.Done():
			return ctx.Err()
		}
	}

	go func() {
		defer close(packages)
		defer close(errs)
		defer func() {
			if r := recover(); r != nil {
				errs <- errors.Newf(errors.ErrorTypeInternal, "package producer panicked: %v", r)
			}
		}()
		if err := produce(ctx, emit); err != nil {
			errs <- err
		}
	}()

	return &PackageStream{packages: packages, errs: errs, cancel: cancel}
}

// FromPackages returns a stream over a fixed set of packages
func FromPackages(pkgs ...*DataPackage) *PackageStream {
	return NewStream(context.Background(), func(ctx context.Context, emit EmitFunc) error {
		for _, p := range pkgs {
			if err := emit(p); err != nil {
				return err
			}
		}
		return nil
	})
}

// Next returns the next package, or io.EOF once the stream is exhausted.
func (s *PackageStream) Next(ctx context.Context) (*DataPackage, error) {
	if s.peeked != nil {
		p := s.peeked
		s.peeked = nil
		return p, nil
	}
	if s.done {
		return nil, s.terminal()
	}

	select {
	case p, ok := <-s.packages:
		if ok {
			return p, nil
		}
		s.done = true
		// errs is closed before packages, so this never blocks
		if err := <-s.errs; err != nil {
			s.err = asExtraction(err)
		}
		s.cancel()
		return nil, s.terminal()
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

// Empty reports whether the stream has no packages at all. The first
// package, if any, stays available to Next.
func (s *PackageStream) Empty(ctx context.Context) (bool, error) {
	if s.peeked != nil {
		return false, nil
	}
	p, err := s.Next(ctx)
	if err == io.EOF {
		return true, nil
	}
	if err != nil {
		return false, err
	}
	s.peeked = p
	return false, nil
}

// Each calls fn for every remaining package, stopping at the first error.
func (s *PackageStream) Each(ctx context.Context, fn func(pkg *DataPackage) error) error {
	for {
		p, err := s.Next(ctx)
		if err == io.EOF {
			return nil
		}
		if err != nil {
			return err
		}
		if err := fn(p); err != nil {
			return err
		}
	}
}

// Collect drains the stream into a slice
func (s *PackageStream) Collect(ctx context.Context) ([]*DataPackage, error) {
	var out []*DataPackage
	err := s.Each(ctx, func(p *DataPackage) error {
		out = append(out, p)
		return nil
	})
	return out, err
}

// Close stops the producer. Packages not consumed yet are dropped.
func (s *PackageStream) Close() {
	s.cancel()
	if !s.done {
		s.done = true
		s.peeked = nil
		// let the producer observe cancellation and exit
		go func(packages <-chan *DataPackage) {
			for range packages {
			}
		}(s.packages)
	}
}

func (s *PackageStream) terminal() error {
	if s.err != nil {
		return s.err
	}
	return io.EOF
}

func asExtraction(err error) error {
	if errors.HasType(err, errors.ErrorTypeExtraction) {
		return err
	}
	return errors.Wrap(err, errors.ErrorTypeExtraction, "failed to produce packages")
}
