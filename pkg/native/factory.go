// Package native supplies the Go implementations behind reflected members
// and fabricates the accessors reflection delegates to.
package native

import (
	"fmt"

	"github.com/puzpuzpuz/xsync/v3"

	"github.com/kangjianwei/LearningJDK-sub038/pkg/classfile"
	"github.com/kangjianwei/LearningJDK-sub038/pkg/vm"
)

// Call is one invocation of a bound member. This is nil for static methods
// and is the freshly allocated instance for constructors.
type Call struct {
	Class *vm.Class
	This  *vm.JObject
	Args  []vm.Value
}

// Func is the Go body of a method or constructor.
type Func func(call Call) (vm.Value, error)

// Factory fabricates accessors from registered bindings.
type Factory struct {
	bindings   *xsync.MapOf[string, Func]
	fabricated *xsync.Counter
}

// Option configures a Factory.
type Option func(*Factory)

// WithoutBuiltins leaves out the java.base bindings.
func WithoutBuiltins() Option {
	return func(f *Factory) {
		f.bindings.Clear()
	}
}

// NewFactory creates a factory with the java.base bindings registered.
func NewFactory(opts ...Option) *Factory {
	f := &Factory{
		bindings:   xsync.NewMapOf[string, Func](),
		fabricated: xsync.NewCounter(),
	}
	registerBuiltins(f)
	for _, opt := range opts {
		opt(f)
	}
	return f
}

func bindingKey(className, name, descriptor string) string {
	return className + "." + name + descriptor
}

// Bind registers fn as the body of className.name with the given descriptor.
// A later Bind for the same member replaces the earlier one.
func (f *Factory) Bind(className, name, descriptor string, fn Func) {
	f.bindings.Store(bindingKey(className, name, descriptor), fn)
}

func (f *Factory) lookup(className, name, descriptor string) (Func, bool) {
	return f.bindings.Load(bindingKey(className, name, descriptor))
}

// resolve finds the most specific body for a virtual call on c.
func (f *Factory) resolve(c *vm.Class, name, descriptor string) (Func, bool) {
	for k := c; k != nil; k = k.Super {
		if fn, ok := f.lookup(k.Name, name, descriptor); ok {
			return fn, true
		}
	}
	return nil, false
}

// Fabricated returns how many accessors this factory has built.
func (f *Factory) Fabricated() int64 {
	return f.fabricated.Value()
}

// NewFieldAccessor builds an accessor for field of c. An unchecked accessor
// may write final instance fields; static final fields are never writable.
func (f *Factory) NewFieldAccessor(c *vm.Class, field *classfile.FieldInfo, unchecked bool) (FieldAccessor, error) {
	if c == nil || field == nil || c.FindField(field.Name) == nil {
		return nil, fmt.Errorf("native: field accessor: no such field: %w", ErrNoBinding)
	}
	final := field.AccessFlags&classfile.AccFinal != 0
	static := field.AccessFlags&classfile.AccStatic != 0
	f.fabricated.Inc()
	return &fieldAccessor{
		class:    c,
		field:    field,
		readOnly: final && (static || !unchecked),
	}, nil
}

// NewMethodAccessor builds an accessor for method of c. Checked and
// unchecked method accessors behave alike.
func (f *Factory) NewMethodAccessor(c *vm.Class, method *classfile.MethodInfo, unchecked bool) (MethodAccessor, error) {
	params, err := f.signature(c, method)
	if err != nil {
		return nil, err
	}
	fn, ok := f.lookup(c.Name, method.Name, method.Descriptor)
	if !ok && method.AccessFlags&classfile.AccAbstract == 0 {
		return nil, fmt.Errorf("native: %s.%s%s: %w", c.JavaName(), method.Name, method.Descriptor, ErrNoBinding)
	}
	f.fabricated.Inc()
	return &methodAccessor{factory: f, class: c, method: method, params: params, fn: fn}, nil
}

// NewConstructorAccessor builds an accessor for constructor of c. A
// constructor without a binding only allocates, which is allowed for the
// no-argument constructor.
func (f *Factory) NewConstructorAccessor(c *vm.Class, ctor *classfile.MethodInfo, unchecked bool) (ConstructorAccessor, error) {
	params, err := f.signature(c, ctor)
	if err != nil {
		return nil, err
	}
	fn, ok := f.lookup(c.Name, ctor.Name, ctor.Descriptor)
	if !ok && len(params) > 0 {
		return nil, fmt.Errorf("native: %s.<init>%s: %w", c.JavaName(), ctor.Descriptor, ErrNoBinding)
	}
	f.fabricated.Inc()
	return &constructorAccessor{class: c, method: ctor, params: params, fn: fn}, nil
}

func (f *Factory) signature(c *vm.Class, m *classfile.MethodInfo) ([]string, error) {
	if c == nil || m == nil || c.FindMethod(m.Name, m.Descriptor) == nil {
		return nil, fmt.Errorf("native: method accessor: no such method: %w", ErrNoBinding)
	}
	params, err := classfile.ParamTypes(m.Descriptor)
	if err != nil {
		return nil, fmt.Errorf("native: %s.%s: %w", c.JavaName(), m.Name, err)
	}
	return params, nil
}
