package sample

import (
	"fmt"
	"math/rand"

	"github.com/muonsuite/muairss/crystal"
)

// Options configures candidate position generation. Zero values are replaced
// with defaults by NewSampler.
type Options struct {
	// Count is the number of candidate positions to generate.
	Count int
	// MinDistance is the minimum muon-muon separation in Angstrom,
	// measured with the periodic metric.
	MinDistance float64
	// MinDistanceFromAtoms is the minimum muon-host-atom separation.
	MinDistanceFromAtoms float64
	// MaxAttempts caps the rejection draws spent on each point before the
	// sampler gives up.
	MaxAttempts int
	// Seed makes the pseudo-random stream reproducible.
	Seed int64
	Log  bool
}

// SamplingExhaustedError reports that the attempt budget ran out before Count
// points were accepted. The points accepted so far are carried along so the
// caller can decide whether a partial set is good enough.
type SamplingExhaustedError struct {
	Requested int
	Accepted  []crystal.Vec3
	Attempts  int
}

func (e *SamplingExhaustedError) Error() string {
	return fmt.Sprintf("sampling exhausted after %d attempts: accepted %d of %d requested points",
		e.Attempts, len(e.Accepted), e.Requested)
}

// Sampler generates well-separated candidate muon positions inside a host
// structure via rejection sampling under periodic boundary conditions.
type Sampler struct {
	host   *crystal.HostStructure
	opts   Options
	metric *crystal.PeriodicMetric
	rng    *rand.Rand
}

// NewSampler builds a sampler over the host with defaults applied.
func NewSampler(host *crystal.HostStructure, opts Options) *Sampler {
	if opts.Count <= 0 {
		opts.Count = 20
	}
	if opts.MinDistance <= 0 {
		opts.MinDistance = 0.8
	}
	if opts.MinDistanceFromAtoms <= 0 {
		opts.MinDistanceFromAtoms = 1.0
	}
	if opts.MaxAttempts <= 0 {
		opts.MaxAttempts = 10000
	}

	return &Sampler{
		host:   host,
		opts:   opts,
		metric: &crystal.PeriodicMetric{Cell: host.Cell},
		rng:    rand.New(rand.NewSource(opts.Seed)),
	}
}

// Generate draws Count Cartesian positions such that every pair is at least
// MinDistance apart and every position is at least MinDistanceFromAtoms from
// every host atom, both under the periodic metric. Draw order is fixed, so a
// fixed seed reproduces the output bit for bit.
//
// When the per-point attempt budget runs out the accepted positions are
// returned inside a SamplingExhaustedError instead of being silently
// truncated.
func (s *Sampler) Generate() ([]crystal.Vec3, error) {
	accepted := make([]crystal.Vec3, 0, s.opts.Count)

	for len(accepted) < s.opts.Count {
		placed := false
		for attempt := 0; attempt < s.opts.MaxAttempts; attempt++ {
			frac := crystal.Vec3{s.rng.Float64(), s.rng.Float64(), s.rng.Float64()}
			pos := s.host.Cell.Cart(frac)
			if s.admissible(pos, accepted) {
				accepted = append(accepted, pos)
				placed = true
				break
			}
		}
		if !placed {
			if s.opts.Log {
				fmt.Printf("Sampling stalled at %d/%d points after %d attempts\n",
					len(accepted), s.opts.Count, s.opts.MaxAttempts)
			}
			return nil, &SamplingExhaustedError{
				Requested: s.opts.Count,
				Accepted:  accepted,
				Attempts:  s.opts.MaxAttempts,
			}
		}
	}

	if s.opts.Log {
		fmt.Printf("Accepted %d candidate positions\n", len(accepted))
	}
	return accepted, nil
}

func (s *Sampler) admissible(pos crystal.Vec3, accepted []crystal.Vec3) bool {
	for _, a := range s.host.Atoms {
		if s.metric.Distance(pos, a.Pos) < s.opts.MinDistanceFromAtoms {
			return false
		}
	}
	for _, p := range accepted {
		if s.metric.Distance(pos, p) < s.opts.MinDistance {
			return false
		}
	}
	return true
}
