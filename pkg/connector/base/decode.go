// Package base holds the building blocks shared by connector implementations:
// config decoding, file selection, SQL assembly, URL templating and JSON
// flattening. Connectors compose these instead of inheriting from a base type.
package base

import (
	"fmt"
	"sort"
	"strings"

	"github.com/mitchellh/mapstructure"

	"github.com/ajitpratap0/sluice/pkg/config"
	"github.com/ajitpratap0/sluice/pkg/errors"
)

// Identity holds the two fields every connector config carries. Embed it
// with `mapstructure:",squash"`.
type Identity struct {
	ConnectorName string `mapstructure:"name"`
	ConnectorType string `mapstructure:"type"`
}

// Name returns the configured connector name
func (i Identity) Name() string { return i.ConnectorName }

// Type returns the connector type
func (i Identity) Type() string { return i.ConnectorType }

// String renders "name [type]"
func (i Identity) String() string {
	return fmt.Sprintf("%s [%s]", i.ConnectorName, i.ConnectorType)
}

// Validator is implemented by configs with required fields or cross-field rules
type Validator interface {
	Validate() error
}

// Defaulter is implemented by configs that fill unset fields after decoding
type Defaulter interface {
	SetDefaults()
}

// Decode maps spec onto out, a pointer to a config struct. Unknown fields
// are rejected. Scalars are converted where unambiguous ("5432" to int).
// Defaults are applied before validation.
func Decode(spec config.ConnectorSpec, out interface{}) error {
	decoder, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		Result:           out,
		WeaklyTypedInput: true,
		ErrorUnused:      true,
		DecodeHook: mapstructure.ComposeDecodeHookFunc(
			mapstructure.StringToTimeDurationHookFunc(),
			mapstructure.StringToSliceHookFunc(","),
		),
	})
	if err != nil {
		return errors.Wrap(err, errors.ErrorTypeInternal, "failed to create config decoder")
	}

	if err := decoder.Decode(map[string]interface{}(spec)); err != nil {
		return errors.Wrap(err, errors.ErrorTypeConstruction, "invalid connector configuration").
			WithDetail("name", spec.Name())
	}

	if d, ok := out.(Defaulter); ok {
		d.SetDefaults()
	}
	if v, ok := out.(Validator); ok {
		if err := v.Validate(); err != nil {
			return errors.Wrap(err, errors.ErrorTypeConstruction, "invalid connector configuration").
				WithDetail("name", spec.Name())
		}
	}
	return nil
}

// Required returns an error naming every empty field
func Required(fields map[string]string) error {
	var missing []string
	for name, value := range fields {
		if strings.TrimSpace(value) == "" {
			missing = append(missing, name)
		}
	}
	if len(missing) == 0 {
		return nil
	}
	sort.Strings(missing)
	return errors.New(errors.ErrorTypeConfig,
		fmt.Sprintf("missing required field(s): %s", strings.Join(missing, ", ")))
}
