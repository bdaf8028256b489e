package reflection

import (
	"fmt"
	"sync/atomic"

	"github.com/kangjianwei/LearningJDK-sub038/pkg/vm"
)

// Member is implemented by *Field, *Method and *Constructor.
type Member interface {
	fmt.Stringer
	DeclaringClass() *vm.Class
	Name() string
	Modifiers() uint16
	IsAccessible() bool
	SetAccessible(caller *vm.Class, flag bool) error
	TrySetAccessible(caller *vm.Class) (bool, error)
	CanAccess(caller *vm.Class, receiver *vm.JObject) (bool, error)

	object() *AccessibleObject
}

// AccessibleObject is the access-control state of one reflected handle.
// The override flag and the access cache belong to the handle; accessors
// are shared with the handle's root through the arena record.
type AccessibleObject struct {
	r      *Reflector
	record *memberRecord
	isCopy bool

	override         atomic.Bool
	accessCheckCache atomic.Pointer[accessCache]
	accessors        accessorSlots
}

func (o *AccessibleObject) init(r *Reflector, rec *memberRecord, isCopy bool) {
	o.r, o.record, o.isCopy = r, rec, isCopy
}

func (o *AccessibleObject) object() *AccessibleObject { return o }

// ID returns the arena record shared by this handle's lineage.
func (o *AccessibleObject) ID() MemberID { return o.record.id }

// DeclaringClass returns the class that declares the member.
func (o *AccessibleObject) DeclaringClass() *vm.Class { return o.record.declaring }

// Name returns the member name; "<init>" for constructors.
func (o *AccessibleObject) Name() string { return o.record.name() }

// Descriptor returns the field or method descriptor of the member.
func (o *AccessibleObject) Descriptor() string { return o.record.descriptor() }

// Modifiers returns the Java language modifiers of the member.
func (o *AccessibleObject) Modifiers() uint16 { return o.record.modifiers }

// IsAccessible returns the raw override flag. It does not mean the member
// is accessible to any particular caller.
//
// Deprecated: use CanAccess.
func (o *AccessibleObject) IsAccessible() bool {
	return o.override.Load()
}

func (o *AccessibleObject) checkPermission(caller *vm.Class) error {
	if !o.r.policy.PermitsSuppression(caller) {
		return o.r.report(permissionDenied("suppressAccessChecks permission denied for " + caller.JavaName()))
	}
	return nil
}

func (o *AccessibleObject) isClassConstructor() bool {
	return o.record.kind == kindConstructor && o.record.declaring.Name == vm.ClassClass
}

// checkCanSetAccessible is the strict gate: nil when allowed.
func (o *AccessibleObject) checkCanSetAccessible(caller *vm.Class, member string) error {
	if o.isClassConstructor() {
		return o.r.report(permissionDenied("Cannot make a java.lang.Class constructor accessible"))
	}
	if o.r.gate.canSuppress(caller, o.record.declaring, o.record.modifiers) {
		return nil
	}
	return o.r.report(o.r.gate.deniedError(caller, o.record, member))
}

func (o *AccessibleObject) setAccessible(caller *vm.Class, flag bool, member string) error {
	if err := o.checkPermission(caller); err != nil {
		return err
	}
	if flag {
		if err := o.checkCanSetAccessible(caller, member); err != nil {
			return err
		}
	}
	o.override.Store(flag)
	return nil
}

// TrySetAccessible sets the override flag when the caller may suppress
// checks and reports whether the flag is set. Denial is not an error;
// only the suppression policy produces one.
func (o *AccessibleObject) TrySetAccessible(caller *vm.Class) (bool, error) {
	if err := o.checkPermission(caller); err != nil {
		return false, err
	}
	if o.override.Load() {
		return true, nil
	}
	if o.isClassConstructor() {
		return false, nil
	}
	if !o.r.gate.canSuppress(caller, o.record.declaring, o.record.modifiers) {
		return false, nil
	}
	o.override.Store(true)
	return true, nil
}

// targetFor returns the receiver type used by the visibility rule: the
// declaring class for constructors, nil for static members.
func (o *AccessibleObject) targetFor(receiver *vm.JObject) *vm.Class {
	switch {
	case o.record.kind == kindConstructor:
		return o.record.declaring
	case isStatic(o.record.modifiers):
		return nil
	default:
		return receiver.Class
	}
}

// checkReceiver validates the receiver shape for member, before any access check.
func (o *AccessibleObject) checkReceiver(receiver *vm.JObject, member string) error {
	declaring := o.record.declaring
	if o.record.kind != kindConstructor && !isStatic(o.record.modifiers) {
		if receiver == nil {
			return invalidArgument("null object for " + member)
		}
		if !declaring.IsInstance(receiver) {
			return invalidArgument("object is not an instance of " + declaring.JavaName())
		}
		return nil
	}
	if receiver != nil {
		return invalidArgument("non-null object for " + member)
	}
	return nil
}

func (o *AccessibleObject) canAccess(caller *vm.Class, receiver *vm.JObject, member string) (bool, error) {
	if err := o.checkReceiver(receiver, member); err != nil {
		return false, err
	}
	if o.override.Load() {
		return true, nil
	}
	return o.verifyAccess(caller, o.targetFor(receiver)), nil
}

// verifyAccess consults the access cache, then the visibility rule.
func (o *AccessibleObject) verifyAccess(caller, target *vm.Class) bool {
	declaring, mod := o.record.declaring, o.record.modifiers
	if o.accessCheckCache.Load().tryFast(caller, declaring, target, mod) {
		return true
	}
	return o.slowVerifyAccess(caller, declaring, target, mod)
}

func (o *AccessibleObject) slowVerifyAccess(caller, declaring, target *vm.Class, mod uint16) bool {
	if !verifyMemberAccess(o.r.oracle, caller, declaring, target, mod) {
		return false
	}
	if needsReceiverCache(declaring, target, mod) {
		o.accessCheckCache.Store(callerAndReceiver(caller, target))
	} else {
		o.accessCheckCache.Store(singleCaller(caller))
	}
	return true
}

// checkAccess fails with AccessDenied unless checks are suppressed or the
// caller passes the visibility rule.
func (o *AccessibleObject) checkAccess(caller *vm.Class, receiver *vm.JObject) error {
	if o.override.Load() {
		return nil
	}
	target := o.targetFor(receiver)
	if o.verifyAccess(caller, target) {
		return nil
	}
	return o.r.report(newAccessDenied(o.r.oracle, caller, o.record.declaring, target, o.record.modifiers))
}

// slots returns where this handle caches accessors. A root caches them
// in the shared record.
func (o *AccessibleObject) slots() *accessorSlots {
	if o.isCopy {
		return &o.accessors
	}
	return &o.record.accessors
}

// acquireAccessor returns the accessor of the requested kind, asking the
// root before fabricating, and publishes a fabricated one on the root too.
func (o *AccessibleObject) acquireAccessor(unchecked bool, member string) (any, error) {
	local := o.slots()
	if ref := local.load(unchecked); ref != nil {
		return ref.accessor, nil
	}
	root := &o.record.accessors
	if o.isCopy {
		if ref := root.load(unchecked); ref != nil {
			local.store(unchecked, ref)
			return ref.accessor, nil
		}
	}

	acc, err := o.r.fabricate(o.record, unchecked)
	if err != nil {
		return nil, o.r.report(fabricationFailure(err, member))
	}
	ref := &accessorRef{accessor: acc}
	local.store(unchecked, ref)
	if o.isCopy {
		root.store(unchecked, ref)
	}
	return acc, nil
}

// SetAccessibleAll sets the override flag of every handle, or of none: the
// permission is checked once and every handle is gated before any flag
// changes.
func SetAccessibleAll(caller *vm.Class, flag bool, members ...Member) error {
	if len(members) == 0 {
		return nil
	}
	if err := members[0].object().checkPermission(caller); err != nil {
		return err
	}
	if flag {
		for _, m := range members {
			if err := m.object().checkCanSetAccessible(caller, m.String()); err != nil {
				return err
			}
		}
	}
	for _, m := range members {
		m.object().override.Store(flag)
	}
	return nil
}
