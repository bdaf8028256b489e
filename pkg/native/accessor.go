package native

import (
	"errors"
	"fmt"

	"github.com/kangjianwei/LearningJDK-sub038/pkg/classfile"
	"github.com/kangjianwei/LearningJDK-sub038/pkg/vm"
)

var (
	// ErrNoBinding means a method body has no Go implementation.
	ErrNoBinding = errors.New("no native binding")
	// ErrIllegalArgument is returned for receivers or arguments of the wrong shape.
	ErrIllegalArgument = errors.New("illegal argument")
	// ErrFinalField is returned when writing a read-only final field.
	ErrFinalField = errors.New("final field is read-only")
	// ErrInstantiation is returned when constructing an abstract class,
	// an interface or java.lang.Class.
	ErrInstantiation = errors.New("cannot instantiate")
)

// FieldAccessor reads and writes one field. obj is ignored for static fields.
type FieldAccessor interface {
	Get(obj *vm.JObject) (vm.Value, error)
	Set(obj *vm.JObject, v vm.Value) error
}

// MethodAccessor invokes one method. obj is ignored for static methods.
type MethodAccessor interface {
	Invoke(obj *vm.JObject, args []vm.Value) (vm.Value, error)
}

// ConstructorAccessor allocates and initialises an instance.
type ConstructorAccessor interface {
	NewInstance(args []vm.Value) (*vm.JObject, error)
}

type fieldAccessor struct {
	class    *vm.Class
	field    *classfile.FieldInfo
	readOnly bool
}

func (a *fieldAccessor) isStatic() bool {
	return a.field.AccessFlags&classfile.AccStatic != 0
}

func (a *fieldAccessor) ensureObj(obj *vm.JObject) error {
	if !a.class.IsInstance(obj) {
		return fmt.Errorf("native: can not access field %s.%s on %v: %w",
			a.class.JavaName(), a.field.Name, obj, ErrIllegalArgument)
	}
	return nil
}

func (a *fieldAccessor) Get(obj *vm.JObject) (vm.Value, error) {
	if a.isStatic() {
		v, _ := a.class.GetStatic(a.field.Name)
		return v, nil
	}
	if err := a.ensureObj(obj); err != nil {
		return vm.Value{}, err
	}
	v, _ := obj.GetField(a.class, a.field.Name)
	return v, nil
}

func (a *fieldAccessor) Set(obj *vm.JObject, v vm.Value) error {
	if !a.isStatic() {
		if err := a.ensureObj(obj); err != nil {
			return err
		}
	}
	if a.readOnly {
		return fmt.Errorf("native: can not set final %s field %s.%s: %w",
			classfile.TypeName(a.field.Descriptor), a.class.JavaName(), a.field.Name, ErrFinalField)
	}
	if !v.Assignable(a.field.Descriptor) {
		return fmt.Errorf("native: can not set %s field %s.%s to %v: %w",
			classfile.TypeName(a.field.Descriptor), a.class.JavaName(), a.field.Name, v, ErrIllegalArgument)
	}
	if a.field.Descriptor == "J" || a.field.Descriptor == "D" {
		v = widen(v)
	}
	if a.isStatic() {
		a.class.SetStatic(a.field.Name, v)
		return nil
	}
	obj.SetField(a.class, a.field.Name, v)
	return nil
}

func widen(v vm.Value) vm.Value {
	if v.Type == vm.TypeInt {
		return vm.LongValue(int64(v.Int))
	}
	return v
}

type methodAccessor struct {
	factory *Factory
	class   *vm.Class
	method  *classfile.MethodInfo
	params  []string
	fn      Func
}

func (a *methodAccessor) isStatic() bool {
	return a.method.AccessFlags&classfile.AccStatic != 0
}

func (a *methodAccessor) Invoke(obj *vm.JObject, args []vm.Value) (vm.Value, error) {
	if !a.isStatic() && !a.class.IsInstance(obj) {
		return vm.Value{}, fmt.Errorf("native: %v is not an instance of %s: %w",
			obj, a.class.JavaName(), ErrIllegalArgument)
	}
	args, err := checkArgs(a.params, args)
	if err != nil {
		return vm.Value{}, err
	}

	fn := a.fn
	// private, static and constructor calls are not virtual
	if !a.isStatic() && a.method.AccessFlags&classfile.AccPrivate == 0 {
		if override, ok := a.factory.resolve(obj.Class, a.method.Name, a.method.Descriptor); ok {
			fn = override
		}
	}
	if fn == nil {
		return vm.Value{}, vm.NewJavaException("java/lang/AbstractMethodError",
			obj.Class.JavaName()+"."+a.method.Name+a.method.Descriptor)
	}
	if a.isStatic() {
		obj = nil
	}
	return fn(Call{Class: a.class, This: obj, Args: args})
}

type constructorAccessor struct {
	class  *vm.Class
	method *classfile.MethodInfo
	params []string
	fn     Func
}

func (a *constructorAccessor) NewInstance(args []vm.Value) (*vm.JObject, error) {
	if a.class.IsAbstract() || a.class.IsInterface() || a.class.Name == vm.ClassClass {
		return nil, fmt.Errorf("native: can not instantiate %s: %w", a.class.JavaName(), ErrInstantiation)
	}
	args, err := checkArgs(a.params, args)
	if err != nil {
		return nil, err
	}
	obj := vm.NewObject(a.class)
	if a.fn != nil {
		if _, err := a.fn(Call{Class: a.class, This: obj, Args: args}); err != nil {
			return nil, err
		}
	}
	return obj, nil
}

// checkArgs validates args against the parameter descriptors and returns a
// copy with int arguments widened for long and double parameters.
func checkArgs(params []string, args []vm.Value) ([]vm.Value, error) {
	if len(params) != len(args) {
		return nil, fmt.Errorf("native: wrong number of arguments: %d expected: %d: %w",
			len(args), len(params), ErrIllegalArgument)
	}
	out := make([]vm.Value, len(args))
	for i, p := range params {
		if !args[i].Assignable(p) {
			return nil, fmt.Errorf("native: argument %d: %v is not a %s: %w",
				i, args[i], classfile.TypeName(p), ErrIllegalArgument)
		}
		out[i] = args[i]
		if p == "J" || p == "D" {
			out[i] = widen(args[i])
		}
	}
	return out, nil
}
