package native

import "github.com/kangjianwei/LearningJDK-sub038/pkg/vm"

// NativeHashMap is the Go state behind a java.util.HashMap instance.
type NativeHashMap struct {
	Data map[interface{}]vm.Value
}

// NewNativeHashMap creates an empty NativeHashMap.
func NewNativeHashMap() *NativeHashMap {
	return &NativeHashMap{Data: make(map[interface{}]vm.Value)}
}

// mapKey gives boxed integers and strings value equality; any other object
// is keyed by identity.
func mapKey(key vm.Value) interface{} {
	switch key.Type {
	case vm.TypeInt:
		return key.Int
	case vm.TypeLong:
		return key.Long
	case vm.TypeNull:
		return nil
	}
	if obj, ok := key.Ref.(*vm.JObject); ok && obj.Class.Name == vm.IntegerClass {
		return IntegerIntValue(obj)
	}
	return key.Ref
}

// Get returns the value for key, or null.
func (m *NativeHashMap) Get(key vm.Value) vm.Value {
	if v, ok := m.Data[mapKey(key)]; ok {
		return v
	}
	return vm.NullValue()
}

// Put stores a key-value pair and returns the previous value, or null.
func (m *NativeHashMap) Put(key, value vm.Value) vm.Value {
	k := mapKey(key)
	old, ok := m.Data[k]
	m.Data[k] = value
	if !ok {
		return vm.NullValue()
	}
	return old
}

// Size returns the number of entries.
func (m *NativeHashMap) Size() int {
	return len(m.Data)
}
