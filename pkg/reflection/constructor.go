package reflection

import (
	"strings"

	"github.com/kangjianwei/LearningJDK-sub038/pkg/classfile"
	"github.com/kangjianwei/LearningJDK-sub038/pkg/native"
	"github.com/kangjianwei/LearningJDK-sub038/pkg/vm"
)

// Constructor is a reflected constructor handle.
type Constructor struct {
	AccessibleObject
	root *Constructor
}

// ParameterTypes returns the parameter types as Java source spells them.
func (c *Constructor) ParameterTypes() []string {
	return parameterTypes(c.Descriptor())
}

// String renders the constructor like java.lang.reflect.Constructor,
// e.g. "public java.lang.Integer(int)".
func (c *Constructor) String() string {
	return withModifiers(c.Modifiers(), c.DeclaringClass().JavaName()+"("+strings.Join(c.ParameterTypes(), ",")+")")
}

// Root returns the handle c was copied from, or nil when c is a root.
func (c *Constructor) Root() *Constructor {
	return c.root
}

// Copy returns a new handle on the same constructor. Copying a copy copies its root.
func (c *Constructor) Copy() *Constructor {
	root := c
	if c.root != nil {
		root = c.root
	}
	cp := &Constructor{root: root}
	cp.init(root.r, root.record, true)
	return cp
}

func (c *Constructor) SetAccessible(caller *vm.Class, flag bool) error {
	return c.setAccessible(caller, flag, c.String())
}

// CanAccess reports whether caller may use c. receiver must be nil.
func (c *Constructor) CanAccess(caller *vm.Class, receiver *vm.JObject) (bool, error) {
	return c.canAccess(caller, receiver, c.String())
}

// NewInstance allocates an instance of the declaring class and runs the
// constructor on it.
func (c *Constructor) NewInstance(caller *vm.Class, args ...vm.Value) (*vm.JObject, error) {
	if err := c.checkAccess(caller, nil); err != nil {
		return nil, err
	}
	if c.DeclaringClass().AccessFlags&classfile.AccEnum != 0 {
		return nil, invalidArgument("Cannot reflectively create enum objects")
	}
	acc, err := c.acquireAccessor(c.override.Load(), c.String())
	if err != nil {
		return nil, err
	}
	obj, err := acc.(native.ConstructorAccessor).NewInstance(args)
	if err != nil {
		return nil, c.r.report(delegationError(err, c.String()))
	}
	return obj, nil
}
