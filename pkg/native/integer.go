package native

import "github.com/kangjianwei/LearningJDK-sub038/pkg/vm"

// IntegerValueOf boxes v into an instance of integer (java.lang.Integer).
func IntegerValueOf(integer *vm.Class, v int32) *vm.JObject {
	obj := vm.NewObject(integer)
	obj.SetField(integer, "value", vm.IntValue(v))
	return obj
}

// IntegerIntValue unboxes a java.lang.Integer instance.
func IntegerIntValue(obj *vm.JObject) int32 {
	v, _ := obj.GetField(obj.Class, "value")
	return v.Int
}
