package classfile

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"io"
	"os"
)

const classMagic = 0xCAFEBABE

// ParseFile opens and parses a .class file from the given path.
func ParseFile(path string) (*ClassFile, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return Parse(f)
}

// ParseBytes parses an in-memory .class file.
func ParseBytes(data []byte) (*ClassFile, error) {
	return Parse(bytes.NewReader(data))
}

// Parse reads a .class file from the given reader and returns a ClassFile.
func Parse(r io.Reader) (*ClassFile, error) {
	cf := &ClassFile{}

	var magic uint32
	if err := binary.Read(r, binary.BigEndian, &magic); err != nil {
		return nil, fmt.Errorf("reading magic number: %w", err)
	}
	if magic != classMagic {
		return nil, fmt.Errorf("invalid magic number: 0x%X (expected 0xCAFEBABE)", magic)
	}

	if err := binary.Read(r, binary.BigEndian, &cf.MinorVersion); err != nil {
		return nil, fmt.Errorf("reading minor version: %w", err)
	}
	if err := binary.Read(r, binary.BigEndian, &cf.MajorVersion); err != nil {
		return nil, fmt.Errorf("reading major version: %w", err)
	}

	var cpCount uint16
	if err := binary.Read(r, binary.BigEndian, &cpCount); err != nil {
		return nil, fmt.Errorf("reading constant pool count: %w", err)
	}
	pool, err := parseConstantPool(r, cpCount)
	if err != nil {
		return nil, fmt.Errorf("parsing constant pool: %w", err)
	}
	cf.ConstantPool = pool

	for _, field := range []struct {
		name string
		dst  *uint16
	}{
		{"access flags", &cf.AccessFlags},
		{"this_class", &cf.ThisClass},
		{"super_class", &cf.SuperClass},
	} {
		if err := binary.Read(r, binary.BigEndian, field.dst); err != nil {
			return nil, fmt.Errorf("reading %s: %w", field.name, err)
		}
	}

	var interfacesCount uint16
	if err := binary.Read(r, binary.BigEndian, &interfacesCount); err != nil {
		return nil, fmt.Errorf("reading interfaces count: %w", err)
	}
	cf.Interfaces = make([]uint16, interfacesCount)
	if err := binary.Read(r, binary.BigEndian, cf.Interfaces); err != nil {
		return nil, fmt.Errorf("reading interfaces: %w", err)
	}

	fields, err := parseMembers(r, cf.ConstantPool, "field")
	if err != nil {
		return nil, fmt.Errorf("parsing fields: %w", err)
	}
	cf.Fields = make([]FieldInfo, len(fields))
	for i, m := range fields {
		cf.Fields[i] = FieldInfo{MemberInfo: m}
	}

	methods, err := parseMembers(r, cf.ConstantPool, "method")
	if err != nil {
		return nil, fmt.Errorf("parsing methods: %w", err)
	}
	cf.Methods = make([]MethodInfo, len(methods))
	for i, m := range methods {
		cf.Methods[i] = MethodInfo{MemberInfo: m}
	}

	if err := cf.parseClassAttributes(r); err != nil {
		return nil, fmt.Errorf("parsing class attributes: %w", err)
	}

	return cf, nil
}

func parseMembers(r io.Reader, pool []ConstantPoolEntry, kind string) ([]MemberInfo, error) {
	var count uint16
	if err := binary.Read(r, binary.BigEndian, &count); err != nil {
		return nil, fmt.Errorf("reading %ss count: %w", kind, err)
	}
	members := make([]MemberInfo, count)
	for i := uint16(0); i < count; i++ {
		var header [4]uint16 // access_flags, name_index, descriptor_index, attributes_count
		if err := binary.Read(r, binary.BigEndian, &header); err != nil {
			return nil, fmt.Errorf("reading %s %d header: %w", kind, i, err)
		}

		name, err := GetUtf8(pool, header[1])
		if err != nil {
			return nil, fmt.Errorf("resolving %s %d name: %w", kind, i, err)
		}
		desc, err := GetUtf8(pool, header[2])
		if err != nil {
			return nil, fmt.Errorf("resolving %s %d descriptor: %w", kind, i, err)
		}

		attrs, err := parseAttributeInfos(r, pool, header[3])
		if err != nil {
			return nil, fmt.Errorf("parsing %s %d attributes: %w", kind, i, err)
		}

		members[i] = MemberInfo{
			AccessFlags: header[0],
			Name:        name,
			Descriptor:  desc,
			Attributes:  attrs,
		}
	}
	return members, nil
}

func parseAttributeInfos(r io.Reader, pool []ConstantPoolEntry, count uint16) ([]AttributeInfo, error) {
	attrs := make([]AttributeInfo, count)
	for i := uint16(0); i < count; i++ {
		var nameIndex uint16
		if err := binary.Read(r, binary.BigEndian, &nameIndex); err != nil {
			return nil, fmt.Errorf("reading attribute %d name index: %w", i, err)
		}
		var length uint32
		if err := binary.Read(r, binary.BigEndian, &length); err != nil {
			return nil, fmt.Errorf("reading attribute %d length: %w", i, err)
		}
		data := make([]byte, length)
		if _, err := io.ReadFull(r, data); err != nil {
			return nil, fmt.Errorf("reading attribute %d data: %w", i, err)
		}

		name, err := GetUtf8(pool, nameIndex)
		if err != nil {
			return nil, fmt.Errorf("resolving attribute %d name: %w", i, err)
		}

		attrs[i] = AttributeInfo{Name: name, Data: data}
	}
	return attrs, nil
}

func (cf *ClassFile) parseClassAttributes(r io.Reader) error {
	var count uint16
	if err := binary.Read(r, binary.BigEndian, &count); err != nil {
		return err
	}
	attrs, err := parseAttributeInfos(r, cf.ConstantPool, count)
	if err != nil {
		return err
	}
	for _, attr := range attrs {
		switch attr.Name {
		case "NestHost":
			ar := attrReader{data: attr.Data}
			if cf.NestHost, err = GetClassName(cf.ConstantPool, ar.u2()); err != nil || ar.err != nil {
				return fmt.Errorf("parsing NestHost: %w", firstErr(ar.err, err))
			}
		case "NestMembers":
			if cf.NestMembers, err = cf.parseClassList(attr.Data); err != nil {
				return fmt.Errorf("parsing NestMembers: %w", err)
			}
		case "Module":
			if cf.Module, err = cf.parseModuleAttribute(attr.Data); err != nil {
				return fmt.Errorf("parsing Module: %w", err)
			}
		}
	}
	return nil
}

func (cf *ClassFile) parseClassList(data []byte) ([]string, error) {
	ar := attrReader{data: data}
	n := ar.u2()
	names := make([]string, 0, n)
	for i := uint16(0); i < n && ar.err == nil; i++ {
		name, err := GetClassName(cf.ConstantPool, ar.u2())
		if err != nil {
			return nil, err
		}
		names = append(names, name)
	}
	return names, ar.err
}

func (cf *ClassFile) parseModuleAttribute(data []byte) (*ModuleAttribute, error) {
	ar := attrReader{data: data}
	pool := cf.ConstantPool

	name, err := GetModuleName(pool, ar.u2())
	if err != nil {
		return nil, err
	}
	mod := &ModuleAttribute{Name: name, Flags: ar.u2()}
	if vi := ar.u2(); vi != 0 {
		if mod.Version, err = GetUtf8(pool, vi); err != nil {
			return nil, err
		}
	}

	// requires: module, flags, version
	for n := ar.u2(); n > 0 && ar.err == nil; n-- {
		ar.skip(6)
	}

	if mod.Exports, err = cf.parsePackageDirectives(&ar); err != nil {
		return nil, fmt.Errorf("exports: %w", err)
	}
	if mod.Opens, err = cf.parsePackageDirectives(&ar); err != nil {
		return nil, fmt.Errorf("opens: %w", err)
	}
	// uses and provides carry no access information.
	return mod, ar.err
}

func (cf *ClassFile) parsePackageDirectives(ar *attrReader) ([]PackageDirective, error) {
	n := ar.u2()
	dirs := make([]PackageDirective, 0, n)
	for i := uint16(0); i < n && ar.err == nil; i++ {
		pkg, err := GetPackageName(cf.ConstantPool, ar.u2())
		if err != nil {
			return nil, err
		}
		d := PackageDirective{Package: pkg, Flags: ar.u2()}
		for to := ar.u2(); to > 0 && ar.err == nil; to-- {
			target, err := GetModuleName(cf.ConstantPool, ar.u2())
			if err != nil {
				return nil, err
			}
			d.To = append(d.To, target)
		}
		dirs = append(dirs, d)
	}
	return dirs, ar.err
}

// attrReader is a big-endian cursor over attribute data. The first
// out-of-bounds read sets err; later reads return zero.
type attrReader struct {
	data []byte
	off  int
	err  error
}

func (a *attrReader) u2() uint16 {
	if a.err != nil {
		return 0
	}
	if a.off+2 > len(a.data) {
		a.err = fmt.Errorf("attribute truncated at offset %d", a.off)
		return 0
	}
	v := binary.BigEndian.Uint16(a.data[a.off:])
	a.off += 2
	return v
}

func (a *attrReader) skip(n int) {
	if a.err != nil {
		return
	}
	if a.off+n > len(a.data) {
		a.err = fmt.Errorf("attribute truncated at offset %d", a.off)
		return
	}
	a.off += n
}

func firstErr(errs ...error) error {
	for _, err := range errs {
		if err != nil {
			return err
		}
	}
	return nil
}

// ClassName returns the fully qualified name of this class.
func (cf *ClassFile) ClassName() (string, error) {
	return GetClassName(cf.ConstantPool, cf.ThisClass)
}

// FindMethod finds a method by name and descriptor.
func (cf *ClassFile) FindMethod(name, descriptor string) *MethodInfo {
	for i := range cf.Methods {
		if cf.Methods[i].Name == name && cf.Methods[i].Descriptor == descriptor {
			return &cf.Methods[i]
		}
	}
	return nil
}

// FindField finds a field by name.
func (cf *ClassFile) FindField(name string) *FieldInfo {
	for i := range cf.Fields {
		if cf.Fields[i].Name == name {
			return &cf.Fields[i]
		}
	}
	return nil
}
