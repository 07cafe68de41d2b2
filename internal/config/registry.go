package config

import (
	"errors"
	"fmt"
	"math"
	"reflect"
	"sort"

	"github.com/go-viper/mapstructure/v2"

	"github.com/ironsheep/blob-detector-mcp/internal/filter"
	"github.com/ironsheep/blob-detector-mcp/internal/threshold"
)

// ErrUnknownType is returned when a configuration names a filter or threshold
// policy that is not registered.
var ErrUnknownType = errors.New("unknown type")

// FilterFactory builds a filter from its acceptance interval.
type FilterFactory func(min, max float64) (filter.Filter, error)

// PolicyFactory builds a threshold policy from its attributes.
type PolicyFactory func(attrs Attributes) (threshold.Policy, error)

// Registry maps configuration type names to constructors. It is built once at
// startup and handed to the loader; nothing registers itself implicitly.
type Registry struct {
	filters  map[string]FilterFactory
	policies map[string]PolicyFactory
}

// NewRegistry returns an empty registry.
func NewRegistry() *Registry {
	return &Registry{
		filters:  make(map[string]FilterFactory),
		policies: make(map[string]PolicyFactory),
	}
}

// DefaultRegistry returns a registry holding every built-in filter and policy.
func DefaultRegistry() *Registry {
	r := NewRegistry()

	r.RegisterFilter(filter.AreaName, func(min, max float64) (filter.Filter, error) {
		return filter.NewArea(min, max)
	})
	r.RegisterFilter(filter.CircularityName, func(min, max float64) (filter.Filter, error) {
		return filter.NewCircularity(min, max)
	})
	r.RegisterFilter(filter.ConvexityName, func(min, max float64) (filter.Filter, error) {
		return filter.NewConvexity(min, max)
	})
	r.RegisterFilter(filter.InertiaName, func(min, max float64) (filter.Filter, error) {
		return filter.NewInertia(min, max)
	})
	r.RegisterFilter(filter.ColorName, func(min, max float64) (filter.Filter, error) {
		return filter.NewColor(min, max)
	})
	r.RegisterFilter(filter.ExtentName, func(min, max float64) (filter.Filter, error) {
		return filter.NewExtent(min, max)
	})

	r.RegisterPolicy(threshold.FixedName, func(attrs Attributes) (threshold.Policy, error) {
		params := FixedParams{MinRepeatability: 1}
		if err := decodeAttributes(attrs, &params); err != nil {
			return nil, err
		}
		return threshold.NewFixed(params.Threshold, params.MinRepeatability)
	})
	r.RegisterPolicy(threshold.RangeName, func(attrs Attributes) (threshold.Policy, error) {
		params := RangeParams{MinRepeatability: 1}
		if err := decodeAttributes(attrs, &params); err != nil {
			return nil, err
		}
		return threshold.NewRange(params.Min, params.Max, params.Step, params.MinRepeatability)
	})
	r.RegisterPolicy(threshold.OtsuName, func(attrs Attributes) (threshold.Policy, error) {
		params := OtsuParams{MinRepeatability: 1}
		if err := decodeAttributes(attrs, &params); err != nil {
			return nil, err
		}
		return threshold.NewOtsu(params.MinRepeatability)
	})

	return r
}

// RegisterFilter adds or replaces the filter constructor for name.
func (r *Registry) RegisterFilter(name string, f FilterFactory) {
	r.filters[name] = f
}

// RegisterPolicy adds or replaces the policy constructor for name.
func (r *Registry) RegisterPolicy(name string, f PolicyFactory) {
	r.policies[name] = f
}

// Filter builds the filter described by spec.
func (r *Registry) Filter(spec FilterSpec) (filter.Filter, error) {
	factory, ok := r.filters[spec.Type]
	if !ok {
		return nil, fmt.Errorf("filter %q: %w", spec.Type, ErrUnknownType)
	}
	return factory(spec.Min, spec.Max)
}

// Policy builds the threshold policy described by spec.
func (r *Registry) Policy(spec ThresholdSpec) (threshold.Policy, error) {
	factory, ok := r.policies[spec.Type]
	if !ok {
		return nil, fmt.Errorf("threshold policy %q: %w", spec.Type, ErrUnknownType)
	}
	p, err := factory(spec.Attributes)
	if err != nil {
		return nil, fmt.Errorf("threshold policy %q: %w", spec.Type, err)
	}
	return p, nil
}

// FilterNames returns the registered filter names in sorted order.
func (r *Registry) FilterNames() []string {
	return sortedKeys(r.filters)
}

// PolicyNames returns the registered policy names in sorted order.
func (r *Registry) PolicyNames() []string {
	return sortedKeys(r.policies)
}

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// FixedParams are the attributes of a Fixed threshold policy.
type FixedParams struct {
	Threshold        int `mapstructure:"threshold"`
	MinRepeatability int `mapstructure:"minRepeatability"`
}

// RangeParams are the attributes of a Range threshold policy.
type RangeParams struct {
	Min              int `mapstructure:"min"`
	Max              int `mapstructure:"max"`
	Step             int `mapstructure:"step"`
	MinRepeatability int `mapstructure:"minRepeatability"`
}

// OtsuParams are the attributes of an Otsu threshold policy.
type OtsuParams struct {
	MinRepeatability int `mapstructure:"minRepeatability"`
}

// decodeAttributes copies attrs into the struct pointed to by out. Numbers may
// be given as integers, integral floats or numeric strings; unknown keys and
// fractional values for integer fields are errors.
func decodeAttributes(attrs Attributes, out any) error {
	decoder, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		DecodeHook:       mapstructure.DecodeHookFuncKind(integralFloat),
		WeaklyTypedInput: true,
		ErrorUnused:      true,
		Result:           out,
	})
	if err != nil {
		return err
	}
	if err := decoder.Decode(map[string]any(attrs)); err != nil {
		return fmt.Errorf("invalid attributes: %w", err)
	}
	return nil
}

// integralFloat refuses floats with a fractional part when the target is an
// integer, which weak typing would otherwise truncate.
func integralFloat(from, to reflect.Kind, data any) (any, error) {
	switch to {
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64,
		reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
	default:
		return data, nil
	}
	var f float64
	switch v := data.(type) {
	case float64:
		f = v
	case float32:
		f = float64(v)
	default:
		return data, nil
	}
	if f != math.Trunc(f) {
		return nil, fmt.Errorf("%v is not an integer", f)
	}
	return data, nil
}
