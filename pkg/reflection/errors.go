package reflection

import (
	goerrors "github.com/goliatone/go-errors"

	"github.com/kangjianwei/LearningJDK-sub038/pkg/native"
	"github.com/kangjianwei/LearningJDK-sub038/pkg/vm"
)

// Text codes of reflection failures. They name the Java exception a
// failure corresponds to.
const (
	CodeAccessDenied       = "ILLEGAL_ACCESS"
	CodeSuppressionDenied  = "INACCESSIBLE_OBJECT"
	CodeInvalidArgument    = "ILLEGAL_ARGUMENT"
	CodePermissionDenied   = "SECURITY"
	CodeFabricationFailure = "ACCESSOR_FABRICATION"
	CodeInstantiation      = "INSTANTIATION"
	CodeInvocationTarget   = "INVOCATION_TARGET"
	CodeNoSuchField        = "NO_SUCH_FIELD"
	CodeNoSuchMethod       = "NO_SUCH_METHOD"
)

func accessDenied(msg string, meta map[string]any) *goerrors.Error {
	return goerrors.New(msg, goerrors.CategoryAuthz).
		WithTextCode(CodeAccessDenied).
		WithMetadata(meta)
}

func suppressionDenied(msg string, meta map[string]any) *goerrors.Error {
	return goerrors.New(msg, goerrors.CategoryAuthz).
		WithTextCode(CodeSuppressionDenied).
		WithMetadata(meta)
}

func invalidArgument(msg string) *goerrors.Error {
	return goerrors.New(msg, goerrors.CategoryBadInput).
		WithTextCode(CodeInvalidArgument).
		WithSeverity(goerrors.SeverityWarning)
}

func permissionDenied(msg string) *goerrors.Error {
	return goerrors.New(msg, goerrors.CategoryAuthz).
		WithTextCode(CodePermissionDenied).
		WithSeverity(goerrors.SeverityCritical)
}

func fabricationFailure(err error, member string) *goerrors.Error {
	return goerrors.Wrap(err, goerrors.CategoryInternal, "cannot fabricate accessor for "+member).
		WithTextCode(CodeFabricationFailure).
		WithSeverity(goerrors.SeverityCritical).
		WithMetadata(map[string]any{"member": member})
}

func instantiationFailure(err error, member string) *goerrors.Error {
	return goerrors.Wrap(err, goerrors.CategoryOperation, "cannot instantiate through "+member).
		WithTextCode(CodeInstantiation)
}

func invocationTarget(err error, member string) *goerrors.Error {
	return goerrors.Wrap(err, goerrors.CategoryOperation, member+" threw").
		WithTextCode(CodeInvocationTarget)
}

func wrapInvalidArgument(err error, member string) *goerrors.Error {
	return goerrors.Wrap(err, goerrors.CategoryBadInput, member).
		WithTextCode(CodeInvalidArgument).
		WithSeverity(goerrors.SeverityWarning)
}

func noSuchMember(code, msg string) *goerrors.Error {
	return goerrors.New(msg, goerrors.CategoryNotFound).
		WithTextCode(code).
		WithSeverity(goerrors.SeverityWarning)
}

// delegationError classifies an error returned by an accessor.
func delegationError(err error, member string) *goerrors.Error {
	var jex *vm.JavaException
	switch {
	case goerrors.As(err, &jex):
		return invocationTarget(err, member)
	case goerrors.Is(err, native.ErrFinalField):
		return goerrors.Wrap(err, goerrors.CategoryAuthz, member).WithTextCode(CodeAccessDenied)
	case goerrors.Is(err, native.ErrIllegalArgument):
		return wrapInvalidArgument(err, member)
	case goerrors.Is(err, native.ErrInstantiation):
		return instantiationFailure(err, member)
	default:
		return goerrors.Wrap(err, goerrors.CategoryInternal, member)
	}
}

func hasTextCode(err error, code string) bool {
	var e *goerrors.Error
	return goerrors.As(err, &e) && e.TextCode == code
}

// IsAccessDenied reports whether err is a language or module visibility failure.
func IsAccessDenied(err error) bool { return hasTextCode(err, CodeAccessDenied) }

// IsSuppressionDenied reports whether err is a refused SetAccessible(true).
func IsSuppressionDenied(err error) bool { return hasTextCode(err, CodeSuppressionDenied) }

// IsInvalidArgument reports whether err is a receiver or argument mismatch.
func IsInvalidArgument(err error) bool { return hasTextCode(err, CodeInvalidArgument) }

// IsPermissionDenied reports whether err comes from the suppression policy.
func IsPermissionDenied(err error) bool { return hasTextCode(err, CodePermissionDenied) }

// IsFabricationFailure reports whether err is a failure to build an accessor.
func IsFabricationFailure(err error) bool { return hasTextCode(err, CodeFabricationFailure) }

// IsInstantiation reports whether err is a refused instantiation.
func IsInstantiation(err error) bool { return hasTextCode(err, CodeInstantiation) }

// IsInvocationTarget reports whether err is an exception thrown by the
// invoked member itself.
func IsInvocationTarget(err error) bool { return hasTextCode(err, CodeInvocationTarget) }
