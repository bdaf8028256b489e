package classfile

// Access flags shared by classes, fields and methods. Several bits are
// reused with a different meaning depending on where they appear.
const (
	AccPublic       = 0x0001
	AccPrivate      = 0x0002
	AccProtected    = 0x0004
	AccStatic       = 0x0008
	AccFinal        = 0x0010
	AccSuper        = 0x0020 // class
	AccSynchronized = 0x0020 // method
	AccVolatile     = 0x0040 // field
	AccBridge       = 0x0040 // method
	AccTransient    = 0x0080 // field
	AccVarargs      = 0x0080 // method
	AccNative       = 0x0100
	AccInterface    = 0x0200
	AccAbstract     = 0x0400
	AccStrict       = 0x0800
	AccSynthetic    = 0x1000
	AccAnnotation   = 0x2000
	AccEnum         = 0x4000
	AccModule       = 0x8000
)

// Module attribute flags.
const (
	AccOpen     = 0x0020
	AccMandated = 0x8000
)

// ClassFile represents a parsed .class file.
type ClassFile struct {
	MinorVersion uint16
	MajorVersion uint16
	ConstantPool []ConstantPoolEntry
	AccessFlags  uint16
	ThisClass    uint16
	SuperClass   uint16
	Interfaces   []uint16
	Fields       []FieldInfo
	Methods      []MethodInfo

	// NestHost is the internal name of the nest host, "" when the class
	// is its own host.
	NestHost    string
	NestMembers []string
	// Module is set only for module-info.class.
	Module *ModuleAttribute
}

// SuperClassName returns the fully qualified name of the super class.
// Returns "" if this is java/lang/Object (SuperClass == 0).
func (cf *ClassFile) SuperClassName() string {
	if cf.SuperClass == 0 {
		return ""
	}
	name, err := GetClassName(cf.ConstantPool, cf.SuperClass)
	if err != nil {
		return ""
	}
	return name
}

// InterfaceNames resolves the direct superinterfaces.
func (cf *ClassFile) InterfaceNames() ([]string, error) {
	names := make([]string, 0, len(cf.Interfaces))
	for _, idx := range cf.Interfaces {
		name, err := GetClassName(cf.ConstantPool, idx)
		if err != nil {
			return nil, err
		}
		names = append(names, name)
	}
	return names, nil
}

// IsModuleInfo reports whether this class file is a module descriptor.
func (cf *ClassFile) IsModuleInfo() bool {
	return cf.AccessFlags&AccModule != 0
}

// ConstantPoolEntry is an interface implemented by all constant pool types.
type ConstantPoolEntry interface {
	Tag() uint8
}

type ConstantUtf8 struct {
	Value string
}

func (c *ConstantUtf8) Tag() uint8 { return TagUtf8 }

type ConstantClass struct {
	NameIndex uint16
}

func (c *ConstantClass) Tag() uint8 { return TagClass }

type ConstantModule struct {
	NameIndex uint16
}

func (c *ConstantModule) Tag() uint8 { return TagModule }

type ConstantPackage struct {
	NameIndex uint16
}

func (c *ConstantPackage) Tag() uint8 { return TagPackage }

// MemberInfo is the common shape of field_info and method_info.
type MemberInfo struct {
	AccessFlags uint16
	Name        string
	Descriptor  string
	Attributes  []AttributeInfo
}

// MethodInfo represents a method in a class file.
type MethodInfo struct {
	MemberInfo
}

// IsConstructor reports whether the method is an instance initializer.
func (m *MethodInfo) IsConstructor() bool {
	return m.Name == "<init>"
}

// IsClassInitializer reports whether the method is <clinit>.
func (m *MethodInfo) IsClassInitializer() bool {
	return m.Name == "<clinit>"
}

// FieldInfo represents a field in a class file.
type FieldInfo struct {
	MemberInfo
}

// AttributeInfo represents a raw attribute.
type AttributeInfo struct {
	Name string
	Data []byte
}

// ModuleAttribute is the decoded Module attribute of module-info.class.
type ModuleAttribute struct {
	Name    string
	Flags   uint16
	Version string
	Exports []PackageDirective
	Opens   []PackageDirective
}

// IsOpen reports whether the module is declared "open module".
func (m *ModuleAttribute) IsOpen() bool {
	return m.Flags&AccOpen != 0
}

// PackageDirective is an exports or opens entry. An empty To list means
// the package is exported (or opened) to every module.
type PackageDirective struct {
	Package string
	Flags   uint16
	To      []string
}
