package vm

import "fmt"

// ValueType represents the type of a Value held in a field or passed as an argument.
type ValueType int

const (
	TypeInt ValueType = iota
	TypeLong
	TypeRef
	TypeNull
)

// Value is a JVM value: an int, a long, a reference or null.
type Value struct {
	Type ValueType
	Int  int32
	Long int64
	Ref  interface{}
}

// IntValue creates an integer Value.
func IntValue(v int32) Value {
	return Value{Type: TypeInt, Int: v}
}

// LongValue creates a long Value.
func LongValue(v int64) Value {
	return Value{Type: TypeLong, Long: v}
}

// RefValue creates a reference Value.
func RefValue(ref interface{}) Value {
	if ref == nil {
		return NullValue()
	}
	return Value{Type: TypeRef, Ref: ref}
}

// NullValue creates a null reference Value.
func NullValue() Value {
	return Value{Type: TypeNull}
}

// IsNull reports whether v is the null reference.
func (v Value) IsNull() bool {
	return v.Type == TypeNull
}

// ZeroValue returns the default value of a field with the given descriptor.
func ZeroValue(descriptor string) Value {
	if descriptor == "" {
		return NullValue()
	}
	switch descriptor[0] {
	case 'B', 'C', 'F', 'I', 'S', 'Z':
		return IntValue(0)
	case 'D', 'J':
		return LongValue(0)
	default:
		return NullValue()
	}
}

// Assignable reports whether v can be stored in a slot of the given
// field descriptor.
func (v Value) Assignable(descriptor string) bool {
	if descriptor == "" {
		return false
	}
	switch descriptor[0] {
	case 'B', 'C', 'F', 'I', 'S', 'Z':
		return v.Type == TypeInt
	case 'D', 'J':
		return v.Type == TypeLong || v.Type == TypeInt
	default:
		return v.Type == TypeRef || v.Type == TypeNull
	}
}

func (v Value) String() string {
	switch v.Type {
	case TypeInt:
		return fmt.Sprintf("%d", v.Int)
	case TypeLong:
		return fmt.Sprintf("%dL", v.Long)
	case TypeNull:
		return "null"
	default:
		if obj, ok := v.Ref.(*JObject); ok {
			return obj.String()
		}
		return fmt.Sprintf("%v", v.Ref)
	}
}
