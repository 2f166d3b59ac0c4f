package store

import "reflect"

// strictEqual reports whether two state values are identical.
// Comparable values compare with ==; maps, slices and funcs compare by
// reference identity. Distinct-but-structurally-equal composites are NOT
// equal: a freshly built map always counts as a change.
func strictEqual(a, b any) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}

	// Fast path for the common scalar kinds.
	switch av := a.(type) {
	case int:
		bv, ok := b.(int)
		return ok && av == bv
	case int64:
		bv, ok := b.(int64)
		return ok && av == bv
	case float64:
		bv, ok := b.(float64)
		return ok && av == bv
	case string:
		bv, ok := b.(string)
		return ok && av == bv
	case bool:
		bv, ok := b.(bool)
		return ok && av == bv
	}

	ta := reflect.TypeOf(a)
	tb := reflect.TypeOf(b)
	if ta != tb {
		return false
	}

	if ta.Comparable() {
		return a == b
	}

	va := reflect.ValueOf(a)
	vb := reflect.ValueOf(b)
	switch va.Kind() {
	case reflect.Map, reflect.Func:
		return va.Pointer() == vb.Pointer()
	case reflect.Slice:
		// Same backing array and same window.
		return va.Pointer() == vb.Pointer() && va.Len() == vb.Len()
	default:
		// Uncomparable structs and the like: no identity to compare.
		return false
	}
}
