package classify

import "github.com/sharpness/sharpgen/introspect"

// CleanPayloadType unwraps asynchronous and action-result wrappers from an
// endpoint return type. Parameterized wrappers unwrap to their first type
// argument, repeatedly. It returns ok=false (no payload) when unwrapping
// reaches an unparameterized wrapper such as Task or IActionResult.
func CleanPayloadType(t *introspect.Type) (payload *introspect.Type, ok bool) {
	for t != nil && t.Has(introspect.TraitAsync|introspect.TraitResult) {
		if !t.IsGeneric() {
			return nil, false
		}
		t = t.Args[0]
	}
	return t, t != nil
}
