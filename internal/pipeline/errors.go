package pipeline

import (
	"fmt"

	"github.com/pkg/errors"
)

// Kind classifies a pipeline failure.
type Kind int

const (
	UnclassifiedPipelineFailure Kind = iota
	MissingInputFile
	UnsupportedModelFormat
	NoMeshFoundInScene
	FaceSelectionDegenerate
	ProjectionDegenerate
	TextureBindFailure
	ExportFailure
)

// String returns the kind name.
func (k Kind) String() string {
	switch k {
	case MissingInputFile:
		return "MissingInputFile"
	case UnsupportedModelFormat:
		return "UnsupportedModelFormat"
	case NoMeshFoundInScene:
		return "NoMeshFoundInScene"
	case FaceSelectionDegenerate:
		return "FaceSelectionDegenerate"
	case ProjectionDegenerate:
		return "ProjectionDegenerate"
	case TextureBindFailure:
		return "TextureBindFailure"
	case ExportFailure:
		return "ExportFailure"
	default:
		return "UnclassifiedPipelineFailure"
	}
}

// Error is a classified pipeline failure.
type Error struct {
	Kind Kind
	Op   string // operation or view that failed
	Err  error
}

// Error implements error.
func (e *Error) Error() string {
	if e.Op == "" {
		return fmt.Sprintf("%s: %v", e.Kind, e.Err)
	}
	return fmt.Sprintf("%s: %s: %v", e.Kind, e.Op, e.Err)
}

// Unwrap returns the underlying error.
func (e *Error) Unwrap() error {
	return e.Err
}

// Format prints the underlying stack trace with %+v.
func (e *Error) Format(s fmt.State, verb rune) {
	switch verb {
	case 'v':
		if s.Flag('+') {
			fmt.Fprintf(s, "%s", e.Kind)
			if e.Op != "" {
				fmt.Fprintf(s, ": %s", e.Op)
			}
			fmt.Fprintf(s, ": %+v", e.Err)
			return
		}
		fallthrough
	case 's':
		fmt.Fprint(s, e.Error())
	case 'q':
		fmt.Fprintf(s, "%q", e.Error())
	}
}

// Errorf creates a classified error carrying a stack trace.
func Errorf(kind Kind, op, format string, args ...interface{}) *Error {
	return &Error{Kind: kind, Op: op, Err: errors.Errorf(format, args...)}
}

// Wrap classifies err, adding a stack trace if it has none.
// A nil err returns nil.
func Wrap(kind Kind, op string, err error) error {
	if err == nil {
		return nil
	}
	return &Error{Kind: kind, Op: op, Err: errors.WithStack(err)}
}

// KindOf returns the kind of the first *Error in err's chain, or
// UnclassifiedPipelineFailure.
func KindOf(err error) Kind {
	var pe *Error
	if errors.As(err, &pe) {
		return pe.Kind
	}
	return UnclassifiedPipelineFailure
}
