package reflection

import (
	"strings"

	"github.com/kangjianwei/LearningJDK-sub038/pkg/classfile"
	"github.com/kangjianwei/LearningJDK-sub038/pkg/native"
	"github.com/kangjianwei/LearningJDK-sub038/pkg/vm"
)

// Method is a reflected method handle.
type Method struct {
	AccessibleObject
	root *Method
}

// ReturnType returns the return type as Java source spells it.
func (m *Method) ReturnType() string {
	ret, err := classfile.ReturnType(m.Descriptor())
	if err != nil {
		return m.Descriptor()
	}
	return classfile.TypeName(ret)
}

// ParameterTypes returns the parameter types as Java source spells them.
func (m *Method) ParameterTypes() []string {
	return parameterTypes(m.Descriptor())
}

// String renders the method like java.lang.reflect.Method,
// e.g. "public int java.lang.Integer.intValue()".
func (m *Method) String() string {
	return withModifiers(m.Modifiers(), m.ReturnType()+" "+m.DeclaringClass().JavaName()+"."+m.Name()+
		"("+strings.Join(m.ParameterTypes(), ",")+")")
}

// Root returns the handle m was copied from, or nil when m is a root.
func (m *Method) Root() *Method {
	return m.root
}

// Copy returns a new handle on the same method. Copying a copy copies its root.
func (m *Method) Copy() *Method {
	root := m
	if m.root != nil {
		root = m.root
	}
	c := &Method{root: root}
	c.init(root.r, root.record, true)
	return c
}

func (m *Method) SetAccessible(caller *vm.Class, flag bool) error {
	return m.setAccessible(caller, flag, m.String())
}

func (m *Method) CanAccess(caller *vm.Class, receiver *vm.JObject) (bool, error) {
	return m.canAccess(caller, receiver, m.String())
}

// Invoke calls the method on receiver, which is ignored for static
// methods. An exception thrown by the method comes back as an
// InvocationTarget error wrapping a *vm.JavaException.
func (m *Method) Invoke(caller *vm.Class, receiver *vm.JObject, args ...vm.Value) (vm.Value, error) {
	if !isStatic(m.Modifiers()) {
		if err := m.checkReceiver(receiver, m.String()); err != nil {
			return vm.Value{}, err
		}
	}
	if err := m.checkAccess(caller, receiver); err != nil {
		return vm.Value{}, err
	}
	acc, err := m.acquireAccessor(m.override.Load(), m.String())
	if err != nil {
		return vm.Value{}, err
	}
	v, err := acc.(native.MethodAccessor).Invoke(receiver, args)
	if err != nil {
		return vm.Value{}, m.r.report(delegationError(err, m.String()))
	}
	return v, nil
}

func parameterTypes(descriptor string) []string {
	params, err := classfile.ParamTypes(descriptor)
	if err != nil {
		return nil
	}
	names := make([]string, len(params))
	for i, p := range params {
		names[i] = classfile.TypeName(p)
	}
	return names
}
