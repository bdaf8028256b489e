package native

import (
	"fmt"

	"github.com/cespare/xxhash/v2"

	"github.com/kangjianwei/LearningJDK-sub038/pkg/vm"
)

func void() (vm.Value, error) { return vm.NullValue(), nil }

// IdentityHash returns the identity hash code of obj.
func IdentityHash(obj *vm.JObject) int32 {
	return int32(xxhash.Sum64String(fmt.Sprintf("%p", obj)))
}

func nativeState[T any](call Call) (T, error) {
	state, ok := call.This.Native.(T)
	if !ok {
		var zero T
		return zero, vm.NewJavaException("java/lang/IllegalStateException",
			call.This.Class.JavaName()+" is not initialised")
	}
	return state, nil
}

func registerBuiltins(f *Factory) {
	f.Bind(vm.ObjectClass, "<init>", "()V", func(Call) (vm.Value, error) { return void() })
	f.Bind(vm.ObjectClass, "hashCode", "()I", func(call Call) (vm.Value, error) {
		return vm.IntValue(IdentityHash(call.This)), nil
	})
	f.Bind(vm.ObjectClass, "toString", "()Ljava/lang/String;", func(call Call) (vm.Value, error) {
		return vm.RefValue(fmt.Sprintf("%s@%x", call.This.Class.JavaName(), uint32(IdentityHash(call.This)))), nil
	})

	f.Bind(vm.ClassClass, "getName", "()Ljava/lang/String;", func(call Call) (vm.Value, error) {
		c, err := nativeState[*vm.Class](call)
		if err != nil {
			return vm.Value{}, err
		}
		return vm.RefValue(c.JavaName()), nil
	})

	f.Bind(vm.StringClass, "length", "()I", func(call Call) (vm.Value, error) {
		s, _ := call.This.Native.(string)
		return vm.IntValue(int32(len([]rune(s)))), nil
	})

	f.Bind(vm.IntegerClass, "<init>", "(I)V", func(call Call) (vm.Value, error) {
		call.This.SetField(call.Class, "value", call.Args[0])
		return void()
	})
	f.Bind(vm.IntegerClass, "intValue", "()I", func(call Call) (vm.Value, error) {
		return vm.IntValue(IntegerIntValue(call.This)), nil
	})
	f.Bind(vm.IntegerClass, "valueOf", "(I)Ljava/lang/Integer;", func(call Call) (vm.Value, error) {
		return vm.RefValue(IntegerValueOf(call.Class, call.Args[0].Int)), nil
	})

	f.Bind(vm.HashMapClass, "<init>", "()V", func(call Call) (vm.Value, error) {
		call.This.Native = NewNativeHashMap()
		return void()
	})
	f.Bind(vm.HashMapClass, "get", "(Ljava/lang/Object;)Ljava/lang/Object;", func(call Call) (vm.Value, error) {
		m, err := nativeState[*NativeHashMap](call)
		if err != nil {
			return vm.Value{}, err
		}
		return m.Get(call.Args[0]), nil
	})
	f.Bind(vm.HashMapClass, "put", "(Ljava/lang/Object;Ljava/lang/Object;)Ljava/lang/Object;", func(call Call) (vm.Value, error) {
		m, err := nativeState[*NativeHashMap](call)
		if err != nil {
			return vm.Value{}, err
		}
		return m.Put(call.Args[0], call.Args[1]), nil
	})

	f.Bind(vm.PrintStream, "println", "(Ljava/lang/Object;)V", func(call Call) (vm.Value, error) {
		ps, err := nativeState[*PrintStream](call)
		if err != nil {
			return vm.Value{}, err
		}
		ps.Println(call.Args[0])
		return void()
	})

	f.Bind(vm.UnsafeClass, "<init>", "()V", func(Call) (vm.Value, error) { return void() })
	f.Bind(vm.UnsafeClass, "getUnsafe", "()Ljdk/internal/misc/Unsafe;", func(call Call) (vm.Value, error) {
		if v, ok := call.Class.GetStatic("theUnsafe"); ok && !v.IsNull() {
			return v, nil
		}
		v := vm.RefValue(vm.NewObject(call.Class))
		call.Class.SetStatic("theUnsafe", v)
		return v, nil
	})
}

// NewClassObject creates the java.lang.Class instance mirroring c.
func NewClassObject(classClass, c *vm.Class) *vm.JObject {
	obj := vm.NewObject(classClass)
	obj.Native = c
	return obj
}

// NewString creates a java.lang.String instance holding s.
func NewString(stringClass *vm.Class, s string) *vm.JObject {
	obj := vm.NewObject(stringClass)
	obj.Native = s
	return obj
}
