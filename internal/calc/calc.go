// ABOUTME: Calculation registry mapping calc keys to pure numeric functions.
// ABOUTME: Built once at construction and injected; no process-wide state.
package calc

import (
	"fmt"
	"math"
)

// Func is a pure calculation over dependency inputs keyed by metric id.
// No I/O, no side effects, deterministic for identical inputs; that is what
// makes re-running it on every query safe.
type Func func(inputs map[int64]float64) (float64, error)

// Registry is an immutable lookup table from calc key to function. Build it
// with NewRegistry (optionally Register more before handing it out) and
// treat it as read-only afterwards.
type Registry struct {
	funcs map[string]Func
}

// NewRegistry returns a registry preloaded with the built-in calculations.
func NewRegistry() *Registry {
	r := &Registry{funcs: make(map[string]Func)}
	r.Register("tyg_v1", calcTygV1)
	r.Register("sum_v1", calcSumV1)
	r.Register("mean_v1", calcMeanV1)
	return r
}

// Register adds a calculation under the given key, replacing any existing
// entry. Intended for construction time and tests.
func (r *Registry) Register(key string, fn Func) {
	r.funcs[key] = fn
}

// Lookup returns the calculation for a key.
func (r *Registry) Lookup(key string) (Func, bool) {
	fn, ok := r.funcs[key]
	return fn, ok
}

// Has reports whether a key is registered.
func (r *Registry) Has(key string) bool {
	_, ok := r.funcs[key]
	return ok
}

// Keys returns the registered calc keys, for listings and error messages.
func (r *Registry) Keys() []string {
	keys := make([]string, 0, len(r.funcs))
	for k := range r.funcs {
		keys = append(keys, k)
	}
	return keys
}

// Catalog metric ids the TyG formula reads. Fixed by the seeded catalog,
// like the rest of the _v1 formulas.
const (
	metricTriglycerides  = 16
	metricFastingGlucose = 18
)

// calcTygV1 is the triglyceride-glucose index: ln(TG * FPG).
func calcTygV1(inputs map[int64]float64) (float64, error) {
	tg, ok := inputs[metricTriglycerides]
	if !ok {
		return 0, fmt.Errorf("tyg_v1: missing triglycerides input (metric %d)", metricTriglycerides)
	}
	fpg, ok := inputs[metricFastingGlucose]
	if !ok {
		return 0, fmt.Errorf("tyg_v1: missing fasting glucose input (metric %d)", metricFastingGlucose)
	}
	return math.Log(tg * fpg), nil
}

// calcSumV1 sums every dependency value.
func calcSumV1(inputs map[int64]float64) (float64, error) {
	if len(inputs) == 0 {
		return 0, fmt.Errorf("sum_v1: no inputs")
	}
	var sum float64
	for _, v := range inputs {
		sum += v
	}
	return sum, nil
}

// calcMeanV1 averages every dependency value.
func calcMeanV1(inputs map[int64]float64) (float64, error) {
	if len(inputs) == 0 {
		return 0, fmt.Errorf("mean_v1: no inputs")
	}
	var sum float64
	for _, v := range inputs {
		sum += v
	}
	return sum / float64(len(inputs)), nil
}
