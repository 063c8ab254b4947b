// Package targets looks up render targets by name.
package targets

import (
	"fmt"
	"regexp"
	"sort"

	"github.com/go-playground/validator/v10"
	"github.com/gorilla/schema"

	"github.com/sharpness/sharpgen/render"
	"github.com/sharpness/sharpgen/render/angular"
	"github.com/sharpness/sharpgen/render/csharp"
	"github.com/sharpness/sharpgen/render/openapi"
)

var (
	validate      = validator.New()
	schemaDecoder = schema.NewDecoder()

	namespaceRE = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*(\.[A-Za-z_][A-Za-z0-9_]*)*$`)
)

func init() {
	_ = validate.RegisterValidation("namespace", func(fl validator.FieldLevel) bool {
		return namespaceRE.MatchString(fl.Field().String())
	})
}

// Names lists the known target names.
func Names() []string {
	names := []string{"angular", "csharp", "openapi"}
	sort.Strings(names)
	return names
}

// Get returns the target with the given name, configured from opts.
// Unknown option keys are an error.
func Get(name string, opts map[string]string) (render.Target, error) {
	switch name {
	case "angular":
		var o angular.Options
		if err := decode(name, &o, opts); err != nil {
			return nil, err
		}
		return angular.New(o), nil
	case "csharp":
		var o csharp.Options
		if err := decode(name, &o, opts); err != nil {
			return nil, err
		}
		return csharp.New(o), nil
	case "openapi":
		var o openapi.Options
		if err := decode(name, &o, opts); err != nil {
			return nil, err
		}
		return openapi.New(o), nil
	default:
		return nil, fmt.Errorf("unknown target: %q", name)
	}
}

func decode(target string, dst any, opts map[string]string) error {
	values := make(map[string][]string, len(opts))
	for k, v := range opts {
		values[k] = []string{v}
	}
	if err := schemaDecoder.Decode(dst, values); err != nil {
		return fmt.Errorf("%s options: %w", target, err)
	}
	if err := validate.Struct(dst); err != nil {
		return fmt.Errorf("%s options: %w", target, err)
	}
	return nil
}
