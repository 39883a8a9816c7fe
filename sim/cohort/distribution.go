package cohort

import (
	"fmt"
	"math"
	"math/rand/v2"

	"gonum.org/v1/gonum/stat/distuv"
)

// DistSpec parameterizes a count or duration distribution.
type DistSpec struct {
	Type   string             `yaml:"type"`
	Params map[string]float64 `yaml:"params,omitempty"`
}

// CountSampler generates non-negative integer counts.
type CountSampler interface {
	// Sample returns a count >= 0.
	Sample(rng *rand.Rand) int
}

// PoissonSampler draws Poisson counts with a fixed mean.
type PoissonSampler struct {
	lambda float64
}

func (s *PoissonSampler) Sample(rng *rand.Rand) int {
	return poisson(rng, s.lambda)
}

// HurdlePoissonSampler returns zero with probability zeroProb and otherwise
// 1 + Poisson(mean-1), so the positive part has the configured mean.
type HurdlePoissonSampler struct {
	zeroProb float64
	mean     float64
}

func (s *HurdlePoissonSampler) Sample(rng *rand.Rand) int {
	if bernoulli(rng, s.zeroProb) {
		return 0
	}
	return 1 + poisson(rng, s.mean-1)
}

// GaussianCountSampler draws a normal value, rounds it and clamps it to [min, max].
// A max of zero leaves the upper side unbounded.
type GaussianCountSampler struct {
	mean, stdDev float64
	min, max     int
}

func (s *GaussianCountSampler) Sample(rng *rand.Rand) int {
	val := distuv.Normal{Mu: s.mean, Sigma: s.stdDev, Src: rng}.Rand()
	result := int(math.Round(val))
	if result < s.min {
		return s.min
	}
	if s.max > 0 && result > s.max {
		return s.max
	}
	return result
}

// ConstantCountSampler always returns the same count.
type ConstantCountSampler struct {
	value int
}

func (s *ConstantCountSampler) Sample(_ *rand.Rand) int {
	return s.value
}

// DaysSampler generates strictly positive durations in days.
type DaysSampler interface {
	Sample(rng *rand.Rand) float64
}

// LogNormalDaysSampler draws exp(mu + sigma*Z), rounded to whole days and floored at min.
type LogNormalDaysSampler struct {
	mu, sigma float64
	min       float64
}

func (s *LogNormalDaysSampler) Sample(rng *rand.Rand) float64 {
	val := distuv.LogNormal{Mu: s.mu, Sigma: s.sigma, Src: rng}.Rand()
	return floorDays(val, s.min)
}

// GaussianDaysSampler draws a normal duration clipped below at min.
type GaussianDaysSampler struct {
	mean, stdDev float64
	min          float64
}

func (s *GaussianDaysSampler) Sample(rng *rand.Rand) float64 {
	val := distuv.Normal{Mu: s.mean, Sigma: s.stdDev, Src: rng}.Rand()
	return floorDays(val, s.min)
}

// UniformDaysSampler draws a whole number of days uniformly from [min, max].
type UniformDaysSampler struct {
	min, max float64
}

func (s *UniformDaysSampler) Sample(rng *rand.Rand) float64 {
	val := distuv.Uniform{Min: s.min, Max: s.max + 1, Src: rng}.Rand()
	return math.Min(s.max, math.Floor(val))
}

// floorDays rounds to whole days and clamps at min. NaN and Inf fall back to min.
func floorDays(val, min float64) float64 {
	if math.IsNaN(val) || math.IsInf(val, 0) {
		return min
	}
	return math.Max(min, math.Round(val))
}

// poisson draws a Poisson count; a non-positive rate always yields zero.
func poisson(rng *rand.Rand, lambda float64) int {
	if lambda <= 0 {
		return 0
	}
	return int(distuv.Poisson{Lambda: lambda, Src: rng}.Rand())
}

// bernoulli reports whether a uniform draw falls under p.
func bernoulli(rng *rand.Rand, p float64) bool {
	return rng.Float64() < p
}

// requireParam checks that all required keys exist in a params map.
func requireParam(params map[string]float64, keys ...string) error {
	for _, k := range keys {
		if _, ok := params[k]; !ok {
			return fmt.Errorf("distribution requires parameter %q: %w", k, ErrInvalidParameter)
		}
	}
	for name, val := range params {
		if math.IsNaN(val) || math.IsInf(val, 0) {
			return fmt.Errorf("params.%s must be a finite number, got %f: %w", name, val, ErrInvalidParameter)
		}
	}
	return nil
}

// paramOr returns params[key], or def when the key is absent.
func paramOr(params map[string]float64, key string, def float64) float64 {
	if v, ok := params[key]; ok {
		return v
	}
	return def
}

// MaxCountParam bounds every count parameter (means, spreads, clamps and
// constants) so a sampled count always fits in an int.
const MaxCountParam = 1e6

// countParam checks that val is in [0, MaxCountParam].
func countParam(name string, val float64) error {
	if err := nonNegative(name, val); err != nil {
		return err
	}
	if val > MaxCountParam {
		return fmt.Errorf("%s must not exceed %g, got %g: %w", name, MaxCountParam, val, ErrInvalidParameter)
	}
	return nil
}

func nonNegative(name string, val float64) error {
	if val < 0 {
		return fmt.Errorf("%s must be non-negative, got %g: %w", name, val, ErrInvalidParameter)
	}
	return nil
}

// NewCountSampler creates a CountSampler from a DistSpec.
// Valid types: poisson (mean), hurdle_poisson (zero_probability, mean >= 1), gaussian (mean, std_dev, optional min/max), constant (value).
func NewCountSampler(spec DistSpec) (CountSampler, error) {
	switch spec.Type {
	case "poisson":
		if err := requireParam(spec.Params, "mean"); err != nil {
			return nil, err
		}
		mean := spec.Params["mean"]
		if err := countParam("mean", mean); err != nil {
			return nil, err
		}
		return &PoissonSampler{lambda: mean}, nil

	case "hurdle_poisson":
		if err := requireParam(spec.Params, "zero_probability", "mean"); err != nil {
			return nil, err
		}
		s := &HurdlePoissonSampler{zeroProb: spec.Params["zero_probability"], mean: spec.Params["mean"]}
		if s.zeroProb < 0 || s.zeroProb > 1 {
			return nil, fmt.Errorf("zero_probability must be in [0,1], got %g: %w", s.zeroProb, ErrInvalidParameter)
		}
		if s.mean < 1 {
			return nil, fmt.Errorf("mean of the positive part must be >= 1, got %g: %w", s.mean, ErrInvalidParameter)
		}
		if err := countParam("mean", s.mean); err != nil {
			return nil, err
		}
		return s, nil

	case "gaussian":
		if err := requireParam(spec.Params, "mean", "std_dev"); err != nil {
			return nil, err
		}
		for _, name := range []string{"mean", "std_dev", "min", "max"} {
			if err := countParam(name, paramOr(spec.Params, name, 0)); err != nil {
				return nil, err
			}
		}
		s := &GaussianCountSampler{
			mean:   spec.Params["mean"],
			stdDev: spec.Params["std_dev"],
			min:    int(paramOr(spec.Params, "min", 0)),
			max:    int(paramOr(spec.Params, "max", 0)),
		}
		if s.max > 0 && s.max < s.min {
			return nil, fmt.Errorf("max (%d) must not be below min (%d): %w", s.max, s.min, ErrInvalidParameter)
		}
		return s, nil

	case "constant":
		if err := requireParam(spec.Params, "value"); err != nil {
			return nil, err
		}
		val := spec.Params["value"]
		if err := countParam("value", val); err != nil {
			return nil, err
		}
		return &ConstantCountSampler{value: int(math.Round(val))}, nil

	default:
		return nil, fmt.Errorf("unknown count distribution type %q; valid: poisson, hurdle_poisson, gaussian, constant: %w", spec.Type, ErrInvalidParameter)
	}
}

// NewDaysSampler creates a DaysSampler from a DistSpec.
// Valid types: lognormal (mu, sigma), gaussian (mean, std_dev), uniform (min, max).
// lognormal and gaussian accept an optional min (default 1), which must be positive.
func NewDaysSampler(spec DistSpec) (DaysSampler, error) {
	switch spec.Type {
	case "lognormal":
		if err := requireParam(spec.Params, "mu", "sigma"); err != nil {
			return nil, err
		}
		s := &LogNormalDaysSampler{
			mu:    spec.Params["mu"],
			sigma: spec.Params["sigma"],
			min:   paramOr(spec.Params, "min", 1),
		}
		if err := nonNegative("sigma", s.sigma); err != nil {
			return nil, err
		}
		if s.min <= 0 {
			return nil, fmt.Errorf("min must be positive, got %g: %w", s.min, ErrInvalidParameter)
		}
		return s, nil

	case "gaussian":
		if err := requireParam(spec.Params, "mean", "std_dev"); err != nil {
			return nil, err
		}
		s := &GaussianDaysSampler{
			mean:   spec.Params["mean"],
			stdDev: spec.Params["std_dev"],
			min:    paramOr(spec.Params, "min", 1),
		}
		if err := nonNegative("mean", s.mean); err != nil {
			return nil, err
		}
		if err := nonNegative("std_dev", s.stdDev); err != nil {
			return nil, err
		}
		if s.min <= 0 {
			return nil, fmt.Errorf("min must be positive, got %g: %w", s.min, ErrInvalidParameter)
		}
		return s, nil

	case "uniform":
		if err := requireParam(spec.Params, "min", "max"); err != nil {
			return nil, err
		}
		s := &UniformDaysSampler{min: math.Ceil(spec.Params["min"]), max: math.Floor(spec.Params["max"])}
		if s.min <= 0 {
			return nil, fmt.Errorf("min must be positive, got %g: %w", s.min, ErrInvalidParameter)
		}
		if s.max < s.min {
			return nil, fmt.Errorf("max (%g) must not be below min (%g): %w", s.max, s.min, ErrInvalidParameter)
		}
		return s, nil

	default:
		return nil, fmt.Errorf("unknown days distribution type %q; valid: lognormal, gaussian, uniform: %w", spec.Type, ErrInvalidParameter)
	}
}
