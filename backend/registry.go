package backend

import (
	"errors"
	"fmt"
	"log/slog"
	"os/exec"

	"github.com/lexandro/refviewer-mcp/refs"
)

var (
	// ErrUnknownBackend is returned when a variant name is not registered.
	ErrUnknownBackend = errors.New("unknown search backend")
	// ErrBackendUnavailable is returned when a variant's tool is not on PATH.
	ErrBackendUnavailable = errors.New("search backend is not available")
)

// Availability is the probe result for one registered backend.
type Availability struct {
	Descriptor Descriptor
	Available  bool
	Executable string // resolved executable path, empty for in-process backends
}

// Registry holds the backends a host can offer. Availability is decided at
// runtime by looking the tool up on PATH rather than by the build platform.
type Registry struct {
	descriptors []Descriptor
	inProcess   map[Variant]refs.Backend
	lookPath    func(file string) (string, error)
	logger      *slog.Logger
}

// NewRegistry creates a registry containing every process-based backend.
func NewRegistry(logger *slog.Logger) *Registry {
	if logger == nil {
		logger = slog.Default()
	}
	return &Registry{
		descriptors: Descriptors(),
		inProcess:   make(map[Variant]refs.Backend),
		lookPath:    exec.LookPath,
		logger:      logger,
	}
}

// RegisterInProcess adds a backend that needs no external executable.
func (r *Registry) RegisterInProcess(descriptor Descriptor, backend refs.Backend) {
	r.descriptors = append(r.descriptors, descriptor)
	r.inProcess[descriptor.Variant] = backend
}

// Probe checks every registered backend, in preference order.
func (r *Registry) Probe() []Availability {
	results := make([]Availability, 0, len(r.descriptors))
	for _, descriptor := range r.descriptors {
		results = append(results, r.probe(descriptor))
	}
	return results
}

func (r *Registry) probe(descriptor Descriptor) Availability {
	if _, ok := r.inProcess[descriptor.Variant]; ok {
		return Availability{Descriptor: descriptor, Available: true}
	}
	executable, err := r.lookPath(descriptor.Command)
	if err != nil {
		return Availability{Descriptor: descriptor}
	}
	return Availability{Descriptor: descriptor, Available: true, Executable: executable}
}

// Select returns the backend for variant. An empty variant picks the first
// available backend.
func (r *Registry) Select(variant Variant) (refs.Backend, Descriptor, error) {
	if variant == "" {
		for _, availability := range r.Probe() {
			if availability.Available {
				return r.build(availability.Descriptor), availability.Descriptor, nil
			}
		}
		return nil, Descriptor{}, fmt.Errorf("no search backend found on PATH: %w", ErrBackendUnavailable)
	}

	for _, descriptor := range r.descriptors {
		if descriptor.Variant != variant {
			continue
		}
		availability := r.probe(descriptor)
		if !availability.Available {
			return nil, descriptor, fmt.Errorf("%s (%s): %w", variant, descriptor.Command, ErrBackendUnavailable)
		}
		return r.build(descriptor), descriptor, nil
	}
	return nil, Descriptor{}, fmt.Errorf("%q: %w", variant, ErrUnknownBackend)
}

func (r *Registry) build(descriptor Descriptor) refs.Backend {
	if backend, ok := r.inProcess[descriptor.Variant]; ok {
		return backend
	}
	return NewProcessBackend(descriptor, r.logger)
}

// Unavailable stands in for a backend whose tool is missing. Every search
// yields no paths.
type Unavailable struct{}

// Search returns nil.
func (Unavailable) Search(identifier string, searchRoot string, rules refs.ExclusionRules) []string {
	return nil
}
