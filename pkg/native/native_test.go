package native

import (
	"bytes"
	"errors"
	"testing"

	"github.com/kangjianwei/LearningJDK-sub038/pkg/classfile"
	"github.com/kangjianwei/LearningJDK-sub038/pkg/module"
	"github.com/kangjianwei/LearningJDK-sub038/pkg/vm"
)

func loadBuiltin(t *testing.T, name string) *vm.Class {
	t.Helper()

	cl := vm.NewBuiltinClassLoader(module.NewGraph())
	c, err := cl.LoadClass(name)
	if err != nil {
		t.Fatalf("failed to load %s: %v", name, err)
	}
	return c
}

func mustMethod(t *testing.T, f *Factory, c *vm.Class, name, desc string) MethodAccessor {
	t.Helper()

	acc, err := f.NewMethodAccessor(c, c.FindMethod(name, desc), false)
	if err != nil {
		t.Fatalf("NewMethodAccessor(%s.%s): %v", c.Name, name, err)
	}
	return acc
}

func mustConstruct(t *testing.T, f *Factory, c *vm.Class, desc string, args ...vm.Value) *vm.JObject {
	t.Helper()

	acc, err := f.NewConstructorAccessor(c, c.FindMethod("<init>", desc), false)
	if err != nil {
		t.Fatalf("NewConstructorAccessor(%s): %v", c.Name, err)
	}
	obj, err := acc.NewInstance(args)
	if err != nil {
		t.Fatalf("NewInstance(%s): %v", c.Name, err)
	}
	return obj
}

func TestNativeHashMap(t *testing.T) {
	integer := loadBuiltin(t, vm.IntegerClass)

	t.Run("put and get", func(t *testing.T) {
		hm := NewNativeHashMap()
		hm.Put(vm.RefValue("key1"), vm.RefValue("value1"))

		got := hm.Get(vm.RefValue("key1"))
		if got.Ref != "value1" {
			t.Errorf("Get(key1): got %v, want %q", got, "value1")
		}
	})

	t.Run("get missing key returns null", func(t *testing.T) {
		hm := NewNativeHashMap()

		got := hm.Get(vm.RefValue("nonexistent"))
		if !got.IsNull() {
			t.Errorf("Get(nonexistent): got %v, want null", got)
		}
	})

	t.Run("overwrite value", func(t *testing.T) {
		hm := NewNativeHashMap()
		hm.Put(vm.RefValue("key"), vm.RefValue("old"))
		prev := hm.Put(vm.RefValue("key"), vm.RefValue("new"))

		if prev.Ref != "old" {
			t.Errorf("Put returned %v, want %q", prev, "old")
		}
		if got := hm.Get(vm.RefValue("key")); got.Ref != "new" {
			t.Errorf("Get(key) after overwrite: got %v, want %q", got, "new")
		}
	})

	t.Run("boxed integer keys compare by value", func(t *testing.T) {
		hm := NewNativeHashMap()
		hm.Put(vm.RefValue(IntegerValueOf(integer, 0)), vm.IntValue(1))
		hm.Put(vm.RefValue(IntegerValueOf(integer, 1)), vm.IntValue(1))

		got := hm.Get(vm.RefValue(IntegerValueOf(integer, 0)))
		if got.Int != 1 {
			t.Errorf("Get(0): got %v, want 1", got)
		}
		if hm.Size() != 2 {
			t.Errorf("Size: got %d, want 2", hm.Size())
		}
	})
}

func TestNativeInteger(t *testing.T) {
	integer := loadBuiltin(t, vm.IntegerClass)

	for _, v := range []int32{42, -100, 0} {
		boxed := IntegerValueOf(integer, v)
		if got := IntegerIntValue(boxed); got != v {
			t.Errorf("intValue(valueOf(%d)): got %d", v, got)
		}
	}
}

func TestPrintStream(t *testing.T) {
	ps := loadBuiltin(t, vm.PrintStream)
	f := NewFactory()

	var out bytes.Buffer
	stream := NewPrintStream(ps, &out)
	printOne := mustMethod(t, f, ps, "println", "(Ljava/lang/Object;)V")

	if _, err := printOne.Invoke(stream, []vm.Value{vm.RefValue("hello")}); err != nil {
		t.Fatalf("println: %v", err)
	}
	if got := out.String(); got != "hello\n" {
		t.Errorf("output: got %q, want %q", got, "hello\n")
	}
}

func TestBuiltinBindings(t *testing.T) {
	graph := module.NewGraph()
	cl := vm.NewBuiltinClassLoader(graph)
	f := NewFactory()

	t.Run("HashMap through accessors", func(t *testing.T) {
		hashMap, _ := cl.LoadClass(vm.HashMapClass)
		m := mustConstruct(t, f, hashMap, "()V")
		put := mustMethod(t, f, hashMap, "put", "(Ljava/lang/Object;Ljava/lang/Object;)Ljava/lang/Object;")
		get := mustMethod(t, f, hashMap, "get", "(Ljava/lang/Object;)Ljava/lang/Object;")

		if _, err := put.Invoke(m, []vm.Value{vm.RefValue("k"), vm.RefValue("v")}); err != nil {
			t.Fatalf("put: %v", err)
		}
		got, err := get.Invoke(m, []vm.Value{vm.RefValue("k")})
		if err != nil {
			t.Fatalf("get: %v", err)
		}
		if got.Ref != "v" {
			t.Errorf("get(k): got %v, want v", got)
		}
	})

	t.Run("static valueOf", func(t *testing.T) {
		integer, _ := cl.LoadClass(vm.IntegerClass)
		valueOf := mustMethod(t, f, integer, "valueOf", "(I)Ljava/lang/Integer;")
		got, err := valueOf.Invoke(nil, []vm.Value{vm.IntValue(7)})
		if err != nil {
			t.Fatalf("valueOf: %v", err)
		}
		boxed, ok := got.Ref.(*vm.JObject)
		if !ok || IntegerIntValue(boxed) != 7 {
			t.Errorf("valueOf(7): got %v", got)
		}
	})

	t.Run("virtual dispatch to Object.hashCode", func(t *testing.T) {
		integer, _ := cl.LoadClass(vm.IntegerClass)
		object, _ := cl.LoadClass(vm.ObjectClass)
		obj := mustConstruct(t, f, integer, "(I)V", vm.IntValue(3))
		hashCode := mustMethod(t, f, object, "hashCode", "()I")

		got, err := hashCode.Invoke(obj, nil)
		if err != nil {
			t.Fatalf("hashCode: %v", err)
		}
		if got.Int != IdentityHash(obj) {
			t.Errorf("hashCode: got %d, want %d", got.Int, IdentityHash(obj))
		}
	})

	t.Run("Class getName", func(t *testing.T) {
		classClass, _ := cl.LoadClass(vm.ClassClass)
		str, _ := cl.LoadClass(vm.StringClass)
		getName := mustMethod(t, f, classClass, "getName", "()Ljava/lang/String;")

		got, err := getName.Invoke(NewClassObject(classClass, str), nil)
		if err != nil {
			t.Fatalf("getName: %v", err)
		}
		if got.Ref != "java.lang.String" {
			t.Errorf("getName: got %v, want java.lang.String", got)
		}
	})
}

func TestFieldAccessor(t *testing.T) {
	integer := loadBuiltin(t, vm.IntegerClass)
	f := NewFactory()
	value := integer.FindField("value")
	maxValue := integer.FindField("MAX_VALUE")

	t.Run("checked accessor refuses final writes", func(t *testing.T) {
		acc, err := f.NewFieldAccessor(integer, value, false)
		if err != nil {
			t.Fatalf("NewFieldAccessor: %v", err)
		}
		obj := IntegerValueOf(integer, 1)
		if err := acc.Set(obj, vm.IntValue(2)); !errors.Is(err, ErrFinalField) {
			t.Errorf("Set: got %v, want ErrFinalField", err)
		}
		got, _ := acc.Get(obj)
		if got.Int != 1 {
			t.Errorf("Get: got %v, want 1", got)
		}
	})

	t.Run("unchecked accessor writes final instance field", func(t *testing.T) {
		acc, err := f.NewFieldAccessor(integer, value, true)
		if err != nil {
			t.Fatalf("NewFieldAccessor: %v", err)
		}
		obj := IntegerValueOf(integer, 1)
		if err := acc.Set(obj, vm.IntValue(2)); err != nil {
			t.Fatalf("Set: %v", err)
		}
		if got := IntegerIntValue(obj); got != 2 {
			t.Errorf("value: got %d, want 2", got)
		}
	})

	t.Run("static final is never writable", func(t *testing.T) {
		acc, err := f.NewFieldAccessor(integer, maxValue, true)
		if err != nil {
			t.Fatalf("NewFieldAccessor: %v", err)
		}
		if err := acc.Set(nil, vm.IntValue(0)); !errors.Is(err, ErrFinalField) {
			t.Errorf("Set: got %v, want ErrFinalField", err)
		}
		got, _ := acc.Get(nil)
		if got.Int != 1<<31-1 {
			t.Errorf("MAX_VALUE: got %v", got)
		}
	})

	t.Run("wrong receiver", func(t *testing.T) {
		acc, _ := f.NewFieldAccessor(integer, value, true)
		other := vm.NewObject(loadBuiltin(t, vm.ObjectClass))
		if _, err := acc.Get(other); !errors.Is(err, ErrIllegalArgument) {
			t.Errorf("Get: got %v, want ErrIllegalArgument", err)
		}
	})

	t.Run("type mismatch", func(t *testing.T) {
		acc, _ := f.NewFieldAccessor(integer, value, true)
		obj := IntegerValueOf(integer, 1)
		if err := acc.Set(obj, vm.RefValue("x")); !errors.Is(err, ErrIllegalArgument) {
			t.Errorf("Set: got %v, want ErrIllegalArgument", err)
		}
	})
}

func TestFabrication(t *testing.T) {
	graph := module.NewGraph()
	cl := vm.NewBuiltinClassLoader(graph)
	object, _ := cl.LoadClass(vm.ObjectClass)
	mod := graph.Unnamed("test")

	shape := vm.NewClass(vm.ClassSpec{
		Name:        "geom/Shape",
		AccessFlags: classfile.AccPublic | classfile.AccAbstract,
		Super:       object,
		Methods: []classfile.MethodInfo{
			{MemberInfo: classfile.MemberInfo{AccessFlags: classfile.AccPublic, Name: "<init>", Descriptor: "()V"}},
			{MemberInfo: classfile.MemberInfo{AccessFlags: classfile.AccPublic | classfile.AccAbstract, Name: "area", Descriptor: "()I"}},
			{MemberInfo: classfile.MemberInfo{AccessFlags: classfile.AccPublic, Name: "scale", Descriptor: "(I)I"}},
			{MemberInfo: classfile.MemberInfo{AccessFlags: classfile.AccPublic | classfile.AccStatic, Name: "span", Descriptor: "(J)J"}},
		},
	}, mod, "test")
	square := vm.NewClass(vm.ClassSpec{
		Name:        "geom/Square",
		AccessFlags: classfile.AccPublic,
		Super:       shape,
		Methods: []classfile.MethodInfo{
			{MemberInfo: classfile.MemberInfo{AccessFlags: classfile.AccPublic, Name: "<init>", Descriptor: "()V"}},
			{MemberInfo: classfile.MemberInfo{AccessFlags: classfile.AccPublic, Name: "<init>", Descriptor: "(J)V"}},
		},
	}, mod, "test")

	t.Run("missing binding is a fabrication failure", func(t *testing.T) {
		f := NewFactory()
		before := f.Fabricated()
		_, err := f.NewMethodAccessor(shape, shape.FindMethod("scale", "(I)I"), false)
		if !errors.Is(err, ErrNoBinding) {
			t.Errorf("got %v, want ErrNoBinding", err)
		}
		if f.Fabricated() != before {
			t.Errorf("failed fabrication should not be counted")
		}
	})

	t.Run("abstract method dispatches to the receiver", func(t *testing.T) {
		f := NewFactory()
		f.Bind("geom/Square", "area", "()I", func(Call) (vm.Value, error) { return vm.IntValue(4), nil })

		area := mustMethod(t, f, shape, "area", "()I")
		got, err := area.Invoke(mustConstruct(t, f, square, "()V"), nil)
		if err != nil {
			t.Fatalf("area: %v", err)
		}
		if got.Int != 4 {
			t.Errorf("area: got %d, want 4", got.Int)
		}
	})

	t.Run("abstract method without override", func(t *testing.T) {
		f := NewFactory()
		area := mustMethod(t, f, shape, "area", "()I")
		_, err := area.Invoke(mustConstruct(t, f, square, "()V"), nil)
		var jex *vm.JavaException
		if !errors.As(err, &jex) || jex.ClassName != "java/lang/AbstractMethodError" {
			t.Errorf("got %v, want AbstractMethodError", err)
		}
	})

	t.Run("abstract class cannot be instantiated", func(t *testing.T) {
		f := NewFactory()
		acc, err := f.NewConstructorAccessor(shape, shape.FindMethod("<init>", "()V"), false)
		if err != nil {
			t.Fatalf("NewConstructorAccessor: %v", err)
		}
		if _, err := acc.NewInstance(nil); !errors.Is(err, ErrInstantiation) {
			t.Errorf("got %v, want ErrInstantiation", err)
		}
	})

	t.Run("argument checks", func(t *testing.T) {
		f := NewFactory()
		f.Bind("geom/Shape", "scale", "(I)I", func(call Call) (vm.Value, error) {
			return vm.IntValue(call.Args[0].Int * 2), nil
		})
		scale := mustMethod(t, f, shape, "scale", "(I)I")
		obj := mustConstruct(t, f, square, "()V")

		if _, err := scale.Invoke(obj, nil); !errors.Is(err, ErrIllegalArgument) {
			t.Errorf("no args: got %v, want ErrIllegalArgument", err)
		}
		if _, err := scale.Invoke(obj, []vm.Value{vm.RefValue("x")}); !errors.Is(err, ErrIllegalArgument) {
			t.Errorf("wrong type: got %v, want ErrIllegalArgument", err)
		}
		got, err := scale.Invoke(obj, []vm.Value{vm.IntValue(5)})
		if err != nil || got.Int != 10 {
			t.Errorf("scale(5): got %v, %v, want 10", got, err)
		}
	})

	t.Run("int arguments widen to long parameters", func(t *testing.T) {
		f := NewFactory()
		f.Bind("geom/Shape", "span", "(J)J", func(call Call) (vm.Value, error) {
			return vm.LongValue(call.Args[0].Long), nil
		})
		var side vm.Value
		f.Bind("geom/Square", "<init>", "(J)V", func(call Call) (vm.Value, error) {
			side = call.Args[0]
			return vm.Value{}, nil
		})

		span := mustMethod(t, f, shape, "span", "(J)J")
		args := []vm.Value{vm.IntValue(5)}
		got, err := span.Invoke(nil, args)
		if err != nil {
			t.Fatalf("span(5): %v", err)
		}
		if got.Type != vm.TypeLong || got.Long != 5 {
			t.Errorf("span(5): got %v, want 5L", got)
		}
		// 呼び出し側のスライスは書き換えない
		if args[0].Type != vm.TypeInt {
			t.Errorf("caller args modified: %v", args[0])
		}

		mustConstruct(t, f, square, "(J)V", vm.IntValue(7))
		if side.Type != vm.TypeLong || side.Long != 7 {
			t.Errorf("<init>(7): got %v, want 7L", side)
		}
	})

	t.Run("counter", func(t *testing.T) {
		f := NewFactory(WithoutBuiltins())
		mustConstruct(t, f, square, "()V")
		mustConstruct(t, f, square, "()V")
		if got := f.Fabricated(); got != 2 {
			t.Errorf("Fabricated: got %d, want 2", got)
		}
	})
}
