package wasm

import "fmt"

// MalformedError reports a failure to decode a binary module. Offset is
// the position in the input at which decoding could not continue.
type MalformedError struct {
	Offset int
	Cause  error
}

func (e *MalformedError) Error() string {
	return fmt.Sprintf("malformed module at byte %d: %v", e.Offset, e.Cause)
}

func (e *MalformedError) Unwrap() error { return e.Cause }

// ValidationErrorKind classifies validation failures.
type ValidationErrorKind int

const (
	// InvalidIndex means an index referred outside its index space.
	InvalidIndex ValidationErrorKind = iota
	// TypeMismatch means an instruction's operand types did not match,
	// or a block's terminal stack disagreed with its declared results.
	TypeMismatch
	// InvalidExport means an export descriptor referenced an index with
	// no corresponding declaration or import.
	InvalidExport
)

func (k ValidationErrorKind) String() string {
	switch k {
	case InvalidIndex:
		return "invalid index"
	case TypeMismatch:
		return "type mismatch"
	case InvalidExport:
		return "invalid export"
	}
	return "unknown"
}

// ValidationError reports a semantically invalid module.
type ValidationError struct {
	Kind    ValidationErrorKind
	Message string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid module (%s): %s", e.Kind, e.Message)
}

// LinkErrorKind classifies instantiation failures.
type LinkErrorKind int

const (
	// UnresolvedImport means no binding existed for the (module, field) key.
	UnresolvedImport LinkErrorKind = iota
	// ImportKindMismatch means the binding's kind differed from the
	// import declaration's kind.
	ImportKindMismatch
	// ImportSignatureMismatch means a function binding's signature
	// differed from the declared type.
	ImportSignatureMismatch
	// ImportLimitsMismatch means a supplied table or memory did not
	// satisfy the declared limits.
	ImportLimitsMismatch
	// MissingBackingStorage means an export referenced an entity that
	// was neither imported nor locally declared.
	MissingBackingStorage
)

func (k LinkErrorKind) String() string {
	switch k {
	case UnresolvedImport:
		return "unresolved import"
	case ImportKindMismatch:
		return "import kind mismatch"
	case ImportSignatureMismatch:
		return "import signature mismatch"
	case ImportLimitsMismatch:
		return "import limits mismatch"
	case MissingBackingStorage:
		return "missing backing storage"
	}
	return "unknown"
}

// LinkError reports an instantiation failure. Module and Field identify
// the import involved when the failure concerns one.
type LinkError struct {
	Kind          LinkErrorKind
	Module, Field string
	Message       string
}

func (e *LinkError) Error() string {
	if e.Module != "" || e.Field != "" {
		return fmt.Sprintf("link failed (%s) for %q.%q: %s", e.Kind, e.Module, e.Field, e.Message)
	}
	return fmt.Sprintf("link failed (%s): %s", e.Kind, e.Message)
}

// TrapKind classifies runtime traps.
type TrapKind int

const (
	TrapDivideByZero TrapKind = iota
	TrapIntegerOverflow
	TrapInvalidConversionToInteger
	TrapOutOfBoundsMemoryAccess
	TrapOutOfBoundsTableAccess
	TrapIndirectCallTypeMismatch
	TrapUnreachableExecuted
	TrapUninitializedTableEntry
	TrapStackOverflow
)

func (k TrapKind) String() string {
	switch k {
	case TrapDivideByZero:
		return "integer divide by zero"
	case TrapIntegerOverflow:
		return "integer overflow"
	case TrapInvalidConversionToInteger:
		return "invalid conversion to integer"
	case TrapOutOfBoundsMemoryAccess:
		return "out of bounds memory access"
	case TrapOutOfBoundsTableAccess:
		return "out of bounds table access"
	case TrapIndirectCallTypeMismatch:
		return "indirect call type mismatch"
	case TrapUnreachableExecuted:
		return "unreachable executed"
	case TrapUninitializedTableEntry:
		return "uninitialized table entry"
	case TrapStackOverflow:
		return "call stack exhausted"
	}
	return "unknown"
}

// Trap is the error produced when executing code aborts. Traps unwind
// the whole call stack of the invocation that raised them.
type Trap struct {
	Kind TrapKind
}

func (t *Trap) Error() string {
	return fmt.Sprintf("wasm trap: %s", t.Kind)
}

// NewTrap returns a Trap of the given kind.
func NewTrap(kind TrapKind) *Trap { return &Trap{Kind: kind} }
