package contract

// ValidationError represents a contract validation error.
type ValidationError struct {
	Code    string
	Message string
}

func (e *ValidationError) Error() string {
	return e.Message
}

// Validate checks the assembly for structural issues.
// Returns all validation errors found (not just the first).
func (a *Assembly) Validate() []error {
	var errors []*ValidationError

	serviceNames := make(map[string]bool)
	for _, svc := range a.Services {
		name := svc.DisplayName()
		if serviceNames[name] {
			errors = append(errors, &ValidationError{
				Code:    "duplicate_service",
				Message: "duplicate service name: " + name + " (namespace: " + svc.Namespace + ")",
			})
		}
		serviceNames[name] = true

		// Overloads collapse to one client method, so names must be unique.
		endpointNames := make(map[string]bool)
		for _, ep := range svc.Endpoints {
			if endpointNames[ep.Name] {
				errors = append(errors, &ValidationError{
					Code:    "duplicate_endpoint",
					Message: "duplicate endpoint name in service " + name + ": " + ep.Name,
				})
			}
			endpointNames[ep.Name] = true

			if ep.Returns != nil {
				errors = append(errors, validateTypeRef(ep.Returns, "endpoint "+name+"."+ep.Name+" return")...)
			}
			for _, p := range ep.Params {
				if p.IsFile() {
					continue
				}
				errors = append(errors, validateTypeRef(p.Type, "endpoint "+name+"."+ep.Name+" parameter "+p.Name)...)
			}
		}
	}

	var result []error
	for _, e := range errors {
		result = append(result, e)
	}
	return result
}

// validateTypeRef walks a reference outside of model fields and reports
// shapes that cannot be bound.
func validateTypeRef(r *TypeRef, context string) []*ValidationError {
	if r == nil {
		return []*ValidationError{{Code: "missing_type", Message: context + " has no type"}}
	}

	switch r.Kind {
	case KindUnsupported:
		return []*ValidationError{{
			Code:    "unsupported_type",
			Message: context + " uses unsupported type " + r.Source + ": " + r.Reason,
		}}
	case KindTypeParam:
		return []*ValidationError{{
			Code:    "open_type_parameter",
			Message: context + " uses open type parameter " + r.Param,
		}}
	case KindNullable, KindArray:
		return validateTypeRef(r.Elem, context)
	case KindGeneric:
		var errors []*ValidationError
		for _, a := range r.Args {
			errors = append(errors, validateTypeRef(a, context)...)
		}
		return errors
	}
	return nil
}
