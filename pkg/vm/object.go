package vm

import (
	"fmt"

	"github.com/puzpuzpuz/xsync/v3"
)

// JObject represents a JVM object instance.
type JObject struct {
	Class *Class
	// Native holds the Go state of natively backed objects, e.g. the
	// entries of a java.util.HashMap.
	Native interface{}
	fields *xsync.MapOf[string, Value]
}

// NewObject allocates an instance of c with every declared instance field,
// including inherited ones, set to its zero value.
func NewObject(c *Class) *JObject {
	obj := &JObject{Class: c, fields: xsync.NewMapOf[string, Value]()}
	for k := c; k != nil; k = k.Super {
		for _, f := range k.Fields {
			if f.AccessFlags&accStatic != 0 {
				continue
			}
			obj.fields.LoadOrStore(fieldKey(k, f.Name), ZeroValue(f.Descriptor))
		}
	}
	return obj
}

// GetField reads the field name declared by owner.
func (o *JObject) GetField(owner *Class, name string) (Value, bool) {
	return o.fields.Load(fieldKey(owner, name))
}

// SetField writes the field name declared by owner.
func (o *JObject) SetField(owner *Class, name string, v Value) {
	o.fields.Store(fieldKey(owner, name), v)
}

func (o *JObject) String() string {
	return fmt.Sprintf("%s@%p", o.Class.JavaName(), o)
}

// fieldKey qualifies a field by its declaring class so that a subclass
// field does not shadow the superclass one in storage.
func fieldKey(owner *Class, name string) string {
	return owner.Name + "." + name
}

// JArray represents a JVM reference array.
type JArray struct {
	Elements []Value
}
