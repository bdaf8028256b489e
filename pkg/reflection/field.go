package reflection

import (
	"github.com/kangjianwei/LearningJDK-sub038/pkg/classfile"
	"github.com/kangjianwei/LearningJDK-sub038/pkg/native"
	"github.com/kangjianwei/LearningJDK-sub038/pkg/vm"
)

// Field is a reflected field handle.
type Field struct {
	AccessibleObject
	root *Field
}

// Type returns the field type as Java source spells it.
func (f *Field) Type() string {
	return classfile.TypeName(f.Descriptor())
}

// String renders the field like java.lang.reflect.Field,
// e.g. "private static final int geom.Point.ORIGIN".
func (f *Field) String() string {
	return withModifiers(f.Modifiers(), f.Type()+" "+f.DeclaringClass().JavaName()+"."+f.Name())
}

// Root returns the handle f was copied from, or nil when f is a root.
func (f *Field) Root() *Field {
	return f.root
}

// Copy returns a new handle on the same member with its own override flag
// and access cache. Copying a copy copies its root.
func (f *Field) Copy() *Field {
	root := f
	if f.root != nil {
		root = f.root
	}
	c := &Field{root: root}
	c.init(root.r, root.record, true)
	return c
}

// SetAccessible sets the override flag; true is subject to the module gate.
func (f *Field) SetAccessible(caller *vm.Class, flag bool) error {
	return f.setAccessible(caller, flag, f.String())
}

// CanAccess reports whether caller may access f on receiver, which must be
// nil for static fields.
func (f *Field) CanAccess(caller *vm.Class, receiver *vm.JObject) (bool, error) {
	return f.canAccess(caller, receiver, f.String())
}

// Get reads the field. obj is ignored for static fields.
func (f *Field) Get(caller *vm.Class, obj *vm.JObject) (vm.Value, error) {
	acc, err := f.fieldAccessor(caller, obj)
	if err != nil {
		return vm.Value{}, err
	}
	v, err := acc.Get(obj)
	if err != nil {
		return vm.Value{}, f.r.report(delegationError(err, f.String()))
	}
	return v, nil
}

// Set writes the field. obj is ignored for static fields. Final fields are
// writable only through an accessible instance field handle.
func (f *Field) Set(caller *vm.Class, obj *vm.JObject, v vm.Value) error {
	acc, err := f.fieldAccessor(caller, obj)
	if err != nil {
		return err
	}
	if err := acc.Set(obj, v); err != nil {
		return f.r.report(delegationError(err, f.String()))
	}
	return nil
}

func (f *Field) fieldAccessor(caller *vm.Class, obj *vm.JObject) (native.FieldAccessor, error) {
	if !isStatic(f.Modifiers()) {
		if err := f.checkReceiver(obj, f.String()); err != nil {
			return nil, err
		}
	}
	if err := f.checkAccess(caller, obj); err != nil {
		return nil, err
	}
	acc, err := f.acquireAccessor(f.override.Load(), f.String())
	if err != nil {
		return nil, err
	}
	return acc.(native.FieldAccessor), nil
}

func withModifiers(mod uint16, rest string) string {
	if s := ModifierString(mod); s != "" {
		return s + " " + rest
	}
	return rest
}
