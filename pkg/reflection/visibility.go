package reflection

import (
	"fmt"

	goerrors "github.com/goliatone/go-errors"

	"github.com/kangjianwei/LearningJDK-sub038/pkg/vm"
)

// verifyModuleAccess reports whether the declaring class's package is
// reachable from caller's module. Readability is assumed.
func verifyModuleAccess(oracle ModuleOracle, caller, declaring *vm.Class) bool {
	if caller.Module == declaring.Module {
		return true
	}
	return oracle.IsExported(declaring.Module, declaring.PackageName(), caller.Module)
}

// verifyMemberAccess decides whether caller may access a member of
// declaring with modifiers mod. target is the receiver type for instance
// members and constructors, nil for static members.
func verifyMemberAccess(oracle ModuleOracle, caller, declaring, target *vm.Class, mod uint16) bool {
	if caller == declaring {
		return true
	}
	if !verifyModuleAccess(oracle, caller, declaring) {
		return false
	}

	samePackage := caller.SamePackage(declaring)
	if !declaring.IsPublic() && !samePackage {
		return false
	}
	if isPublic(mod) {
		return true
	}
	// a private member is reachable from its nest; target may lie outside it
	if isPrivate(mod) && caller.IsNestmateOf(declaring) {
		return true
	}

	allowed := isProtected(mod) && caller.IsSubclassOf(declaring)
	if !allowed && !isPrivate(mod) {
		allowed = samePackage
	}
	if !allowed {
		return false
	}

	// protected instance members and constructors, JLS 6.6.2
	if target != nil && isProtected(mod) && target != caller && !samePackage {
		return target.IsSubclassOf(caller)
	}
	return true
}

// newAccessDenied builds the AccessDenied error for a failed check.
func newAccessDenied(oracle ModuleOracle, caller, declaring, target *vm.Class, mod uint16) *goerrors.Error {
	var callerSuffix, memberSuffix string
	if oracle.IsNamed(caller.Module) {
		callerSuffix = fmt.Sprintf(" (in %s)", caller.Module)
	}
	if oracle.IsNamed(declaring.Module) {
		memberSuffix = fmt.Sprintf(" (in %s)", declaring.Module)
	}

	pn := declaring.PackageName()
	msg := fmt.Sprintf("%s%s cannot access ", caller, callerSuffix)
	if oracle.IsExported(declaring.Module, pn, caller.Module) {
		msg += fmt.Sprintf("a member of %s%s with modifiers %q", declaring, memberSuffix, ModifierString(mod))
	} else {
		msg += fmt.Sprintf("%s%s because %s does not export %s", declaring, memberSuffix, declaring.Module, pn)
		if oracle.IsNamed(declaring.Module) {
			msg += fmt.Sprintf(" to %s", caller.Module)
		}
	}

	meta := map[string]any{
		"caller":          caller.JavaName(),
		"declaring_class": declaring.JavaName(),
		"modifiers":       ModifierString(mod),
	}
	if target != nil {
		meta["target_class"] = target.JavaName()
	}
	return accessDenied(msg, meta)
}
