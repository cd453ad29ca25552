package service

import (
	"fmt"
	"math"
	"sort"

	"github.com/spotlight/userprofile/internal/model"
)

// initialProperties wraps every input value verbatim. It is used for the first
// write to a user id whatever the declared operation.
func initialProperties(input map[string]any) model.Properties {
	props := make(model.Properties, len(input))
	for name, raw := range input {
		props[model.PropertyName(name)] = model.Wrap(raw)
	}
	return props
}

// applyOperation updates props in place. Callers pass a clone so a failure
// leaves the stored document untouched.
func applyOperation(props model.Properties, op model.Operation, input map[string]any) error {
	switch op {
	case model.OperationReplace:
		for name, raw := range input {
			props[model.PropertyName(name)] = model.Wrap(raw)
		}
		return nil
	case model.OperationIncrement:
		return incrementProperties(props, input)
	case model.OperationCollect:
		return collectProperties(props, input)
	default:
		return fmt.Errorf("%w: unknown operation %q", ErrInvalidArgument, op)
	}
}

func incrementProperties(props model.Properties, input map[string]any) error {
	for _, name := range sortedNames(input) {
		delta, err := model.Wrap(input[name]).AsNumber()
		if err != nil {
			return fmt.Errorf("increment %q: delta: %w", name, err)
		}

		current, ok := props[model.PropertyName(name)]
		if !ok {
			current = model.NewInt(0)
		}
		base, err := current.AsNumber()
		if err != nil {
			return fmt.Errorf("increment %q: %w", name, err)
		}

		sum := math.Trunc(base + delta)
		if math.IsNaN(sum) || sum < math.MinInt64 || sum >= math.MaxInt64 {
			return fmt.Errorf("%w: increment %q overflows", ErrInvalidArgument, name)
		}
		props[model.PropertyName(name)] = model.NewInt(int64(sum))
	}
	return nil
}

func collectProperties(props model.Properties, input map[string]any) error {
	for _, name := range sortedNames(input) {
		elems, err := model.Wrap(input[name]).AsList()
		if err != nil {
			return fmt.Errorf("collect %q: values: %w", name, err)
		}

		current, ok := props[model.PropertyName(name)]
		if !ok {
			current = model.EmptyList()
		}
		next, err := current.Append(elems...)
		if err != nil {
			return fmt.Errorf("collect %q: %w", name, err)
		}
		props[model.PropertyName(name)] = next
	}
	return nil
}

// sortedNames returns the input keys in ascending order.
func sortedNames(input map[string]any) []string {
	names := make([]string, 0, len(input))
	for name := range input {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
