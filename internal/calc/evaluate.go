// ABOUTME: Evaluator coercing one aligned row and applying a calculation.
// ABOUTME: Missing dependencies and bad literals are distinct, both fatal per row.
package calc

import (
	"fmt"
	"strconv"
	"time"

	"github.com/harperreed/vitals/internal/models"
)

// Evaluate computes one derived point from the dependency values observed at
// a single timestamp. Every metric in deps must be present in values and
// coerce to a float; a dependency absent from the row is a
// MissingDependencyError and a non-numeric literal is a ValidationError
// naming the offending metric. Only then is the registered function applied.
func (r *Registry) Evaluate(calcKey string, deps []int64, at time.Time, values map[int64]models.ObservationValue) (float64, error) {
	fn, ok := r.Lookup(calcKey)
	if !ok {
		return 0, &models.UnknownCalculationError{CalcKey: calcKey}
	}

	inputs := make(map[int64]float64, len(deps))
	for _, dep := range deps {
		raw, ok := values[dep]
		if !ok {
			return 0, &models.MissingDependencyError{MetricID: dep, ObservedAt: at}
		}
		f, err := strconv.ParseFloat(string(raw), 64)
		if err != nil {
			return 0, &models.ValidationError{
				Msg: fmt.Sprintf("metric %d value %q is not numeric", dep, string(raw)),
			}
		}
		inputs[dep] = f
	}

	return fn(inputs)
}
