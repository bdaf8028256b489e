package vm

import (
	"fmt"
	"strings"

	"github.com/puzpuzpuz/xsync/v3"

	"github.com/kangjianwei/LearningJDK-sub038/pkg/classfile"
	"github.com/kangjianwei/LearningJDK-sub038/pkg/module"
)

const (
	accPublic    = classfile.AccPublic
	accStatic    = classfile.AccStatic
	accInterface = classfile.AccInterface
	accAbstract  = classfile.AccAbstract
)

// Class is a class defined in the VM. It is immutable after definition
// except for static field values.
type Class struct {
	Name        string
	AccessFlags uint16
	Super       *Class
	Interfaces  []*Class
	Module      *module.Module
	Loader      string
	Fields      []classfile.FieldInfo
	Methods     []classfile.MethodInfo
	File        *classfile.ClassFile

	nestHost *Class
	statics  *xsync.MapOf[string, Value]
}

// ClassSpec describes a class to define without a class file.
type ClassSpec struct {
	Name        string
	AccessFlags uint16
	Super       *Class
	Interfaces  []*Class
	Fields      []classfile.FieldInfo
	Methods     []classfile.MethodInfo
	NestHost    *Class
}

// NewClass defines a class from spec in mod. It also records the class's
// package in mod.
func NewClass(spec ClassSpec, mod *module.Module, loader string) *Class {
	c := &Class{
		Name:        spec.Name,
		AccessFlags: spec.AccessFlags,
		Super:       spec.Super,
		Interfaces:  spec.Interfaces,
		Module:      mod,
		Loader:      loader,
		Fields:      spec.Fields,
		Methods:     spec.Methods,
		nestHost:    spec.NestHost,
		statics:     xsync.NewMapOf[string, Value](),
	}
	if c.nestHost == nil {
		c.nestHost = c
	}
	if pn := c.PackageName(); pn != "" {
		mod.AddPackage(pn)
	}
	for _, f := range c.Fields {
		if f.AccessFlags&accStatic != 0 {
			c.statics.Store(f.Name, ZeroValue(f.Descriptor))
		}
	}
	return c
}

// DefineClass resolves the super types and nest host of cf through loader
// and defines the class in mod.
func DefineClass(cf *classfile.ClassFile, loader ClassLoader, mod *module.Module) (*Class, error) {
	name, err := cf.ClassName()
	if err != nil {
		return nil, fmt.Errorf("define: %w", err)
	}
	spec := ClassSpec{
		Name:        name,
		AccessFlags: cf.AccessFlags,
		Fields:      cf.Fields,
		Methods:     cf.Methods,
	}

	if superName := cf.SuperClassName(); superName != "" {
		if spec.Super, err = loader.LoadClass(superName); err != nil {
			return nil, fmt.Errorf("define %s: loading super class: %w", name, err)
		}
	}
	ifaceNames, err := cf.InterfaceNames()
	if err != nil {
		return nil, fmt.Errorf("define %s: %w", name, err)
	}
	for _, in := range ifaceNames {
		iface, err := loader.LoadClass(in)
		if err != nil {
			return nil, fmt.Errorf("define %s: loading interface: %w", name, err)
		}
		spec.Interfaces = append(spec.Interfaces, iface)
	}
	if cf.NestHost != "" {
		host, err := loader.LoadClass(cf.NestHost)
		if err != nil {
			return nil, fmt.Errorf("define %s: loading nest host: %w", name, err)
		}
		// a host in another runtime package is ignored, the class is its own host
		if host.Loader == loader.Name() && module.PackageOf(host.Name) == module.PackageOf(name) {
			spec.NestHost = host
		}
	}

	c := NewClass(spec, mod, loader.Name())
	c.File = cf
	return c, nil
}

// JavaName returns the binary name with dots, e.g. java.lang.String.
func (c *Class) JavaName() string {
	return strings.ReplaceAll(c.Name, "/", ".")
}

func (c *Class) String() string {
	if c.IsInterface() {
		return "interface " + c.JavaName()
	}
	return "class " + c.JavaName()
}

// PackageName returns the dotted package name, "" for the unnamed package.
func (c *Class) PackageName() string {
	return module.PackageOf(c.Name)
}

func (c *Class) IsPublic() bool    { return c.AccessFlags&accPublic != 0 }
func (c *Class) IsInterface() bool { return c.AccessFlags&accInterface != 0 }
func (c *Class) IsAbstract() bool  { return c.AccessFlags&accAbstract != 0 }

// NestHost returns the host of the class's nest.
func (c *Class) NestHost() *Class {
	return c.nestHost
}

// IsNestmateOf reports whether c and other share a nest host.
func (c *Class) IsNestmateOf(other *Class) bool {
	return c == other || c.nestHost == other.nestHost
}

// SamePackage reports whether c and other are in the same runtime package:
// same package name and same defining loader.
func (c *Class) SamePackage(other *Class) bool {
	return c.Loader == other.Loader && c.PackageName() == other.PackageName()
}

// IsSubclassOf reports whether of is c or one of c's superclasses.
func (c *Class) IsSubclassOf(of *Class) bool {
	for k := c; k != nil; k = k.Super {
		if k == of {
			return true
		}
	}
	return false
}

// IsAssignableFrom reports whether a value of type other can be stored in
// a variable of type c.
func (c *Class) IsAssignableFrom(other *Class) bool {
	if other == nil {
		return false
	}
	if other == c {
		return true
	}
	if other.Super != nil && c.IsAssignableFrom(other.Super) {
		return true
	}
	for _, iface := range other.Interfaces {
		if c.IsAssignableFrom(iface) {
			return true
		}
	}
	return false
}

// IsInstance reports whether obj is an instance of c.
func (c *Class) IsInstance(obj *JObject) bool {
	return obj != nil && c.IsAssignableFrom(obj.Class)
}

// FindField returns the field declared by c with the given name.
func (c *Class) FindField(name string) *classfile.FieldInfo {
	for i := range c.Fields {
		if c.Fields[i].Name == name {
			return &c.Fields[i]
		}
	}
	return nil
}

// FindMethod returns the method declared by c with the given name and descriptor.
func (c *Class) FindMethod(name, descriptor string) *classfile.MethodInfo {
	for i := range c.Methods {
		if c.Methods[i].Name == name && c.Methods[i].Descriptor == descriptor {
			return &c.Methods[i]
		}
	}
	return nil
}

// GetStatic reads a static field of c.
func (c *Class) GetStatic(name string) (Value, bool) {
	return c.statics.Load(name)
}

// SetStatic writes a static field of c.
func (c *Class) SetStatic(name string, v Value) {
	c.statics.Store(name, v)
}
