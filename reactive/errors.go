package reactive

import "errors"

var (
	ErrPropertyNotFound    = errors.New("property not found")
	ErrObjectDestroyed     = errors.New("object destroyed")
	ErrValueTypeIndex      = errors.New("bindings to value type sub-properties are not supported")
	ErrNoFunction          = errors.New("no function")
	ErrNoParser            = errors.New("engine has no parser")
	ErrUndefinedAssignment = errors.New("cannot assign undefined")
	ErrNotResettable       = errors.New("property is not resettable")
	ErrTypeCoercion        = errors.New("type coercion failed")
	ErrUnresolvedName      = errors.New("unresolved name")
	ErrNullAccess          = errors.New("null access")
	ErrEvaluationPanic     = errors.New("evaluation panicked")
)
