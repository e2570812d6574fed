package capture

import (
	"fmt"
)

// Binding connects a saved field name to a storage slot on a component.
type Binding struct {
	Get func() any
	Set func(any) error
}

// Bindings implements GetField and SetField for a component. Embed it, or
// delegate to it, and fill it in the component's constructor:
//
//	c.Bindings = capture.Bindings{
//		"open":  capture.Value(&c.open),
//		"angle": capture.Float(&c.angle),
//	}
type Bindings map[string]Binding

// Bind adds or replaces a binding.
func (b *Bindings) Bind(name string, binding Binding) {
	if *b == nil {
		*b = Bindings{}
	}
	(*b)[name] = binding
}

// GetField returns the live value of name.
func (b Bindings) GetField(name string) (any, bool) {
	binding, ok := b[name]
	if !ok || binding.Get == nil {
		return nil, false
	}
	return binding.Get(), true
}

// SetField writes value into the slot bound to name.
func (b Bindings) SetField(name string, value any) error {
	binding, ok := b[name]
	if !ok || binding.Set == nil {
		return fmt.Errorf("%w: %q", ErrUnknownField, name)
	}
	return binding.Set(value)
}

// Value binds p, accepting only values of exactly type T.
func Value[T any](p *T) Binding {
	return Binding{
		Get: func() any { return *p },
		Set: func(v any) error {
			t, ok := v.(T)
			if !ok {
				var zero T
				return fmt.Errorf("%w: got %T, want %T", ErrFieldType, v, zero)
			}
			*p = t
			return nil
		},
	}
}

// Int binds an integer slot. Saved integers come back as int64 and are
// converted, failing if the value does not fit.
func Int[T ~int | ~int8 | ~int16 | ~int32 | ~int64](p *T) Binding {
	return Binding{
		Get: func() any { return int64(*p) },
		Set: func(v any) error {
			var n int64
			switch x := v.(type) {
			case int64:
				n = x
			case T:
				*p = x
				return nil
			case int:
				n = int64(x)
			default:
				return fmt.Errorf("%w: got %T, want integer", ErrFieldType, v)
			}
			if int64(T(n)) != n {
				return fmt.Errorf("%w: %d overflows %T", ErrFieldType, n, *p)
			}
			*p = T(n)
			return nil
		},
	}
}

// Float binds a floating point slot. Saved floats come back as float64.
func Float[T ~float32 | ~float64](p *T) Binding {
	return Binding{
		Get: func() any { return float64(*p) },
		Set: func(v any) error {
			switch x := v.(type) {
			case float64:
				*p = T(x)
			case float32:
				*p = T(x)
			default:
				return fmt.Errorf("%w: got %T, want float", ErrFieldType, v)
			}
			return nil
		},
	}
}
