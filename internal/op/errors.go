package op

import (
	"github.com/pkg/errors"
)

var (
	// ErrShape marks a violated precondition on input rank, type, layout or
	// attribute during shape inference.
	ErrShape = errors.New("shape inference failed")
	// ErrUnknownOperation marks a request for an unregistered operation name.
	ErrUnknownOperation = errors.New("unknown operation")
	// ErrMalformedAttribute marks a missing or mistyped attribute.
	ErrMalformedAttribute = errors.New("malformed attribute")
)

func shapeErrorf(op, format string, args ...any) error {
	return errors.Wrapf(ErrShape, "%s: "+format, append([]any{op}, args...)...)
}

func attributeErrorf(op, format string, args ...any) error {
	return errors.Wrapf(ErrMalformedAttribute, "%s: "+format, append([]any{op}, args...)...)
}

// TuneAxis normalizes a possibly negative axis into [0, rank). Axes outside
// [-rank, rank) are rejected.
func TuneAxis(rank, axis int, opName string) (int, error) {
	if axis < -rank || axis >= rank {
		return 0, shapeErrorf(opName, "axis %d out of range for rank %d", axis, rank)
	}
	if axis < 0 {
		axis += rank
	}
	return axis, nil
}
