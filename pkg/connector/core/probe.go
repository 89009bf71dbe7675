package core

import (
	"context"
	"fmt"

	"github.com/ajitpratap0/sluice/pkg/errors"
)

// CheckStatus is the outcome of a connectivity probe.
type CheckStatus int

const (
	// CheckUnsupported means the connector cannot test its connectivity
	CheckUnsupported CheckStatus = iota
	// CheckConnectable means the backing system answered
	CheckConnectable
	// CheckUnreachable means the check ran and failed
	CheckUnreachable
)

func (s CheckStatus) String() string {
	switch s {
	case CheckConnectable:
		return "true"
	case CheckUnreachable:
		return "false"
	default:
		return "unsupported"
	}
}

// MarshalJSON renders connectable/unreachable as booleans and unsupported as a string
func (s CheckStatus) MarshalJSON() ([]byte, error) {
	if s == CheckUnsupported {
		return []byte(`"unsupported"`), nil
	}
	return []byte(s.String()), nil
}

// MarshalYAML mirrors MarshalJSON
func (s CheckStatus) MarshalYAML() (interface{}, error) {
	switch s {
	case CheckConnectable:
		return true, nil
	case CheckUnreachable:
		return false, nil
	default:
		return "unsupported", nil
	}
}

// ErrCheckUnsupported builds the error a Checker returns when the check
// cannot be performed for this configuration.
func ErrCheckUnsupported(connectorType string) error {
	return errors.New(errors.ErrorTypeCapability,
		fmt.Sprintf("connector type %q does not support connectivity checks", connectorType))
}

// Probe tests a connector's connectivity. Connectors without a Checker, or
// whose Checker reports a capability error, are unsupported. The returned
// error is the check failure, if any, for reporting.
func Probe(ctx context.Context, c Connector) (CheckStatus, error) {
	checker, ok := c.(Checker)
	if !ok {
		return CheckUnsupported, nil
	}

	var (
		reachable bool
		err       error
	)
	func() {
		defer func() {
			if r := recover(); r != nil {
				err = errors.Newf(errors.ErrorTypeInternal, "connectivity check panicked: %v", r)
			}
		}()
		reachable, err = checker.Check(ctx)
	}()

	switch {
	case err != nil && errors.HasType(err, errors.ErrorTypeCapability):
		return CheckUnsupported, nil
	case err != nil:
		return CheckUnreachable, err
	case reachable:
		return CheckConnectable, nil
	default:
		return CheckUnreachable, nil
	}
}
