// Package testsupport assembles small class files in memory so tests do not
// depend on a JDK or on prebuilt .class fixtures.
package testsupport

import (
	"bytes"
	"encoding/binary"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/kangjianwei/LearningJDK-sub038/pkg/classfile"
)

// Member describes a field or method to emit.
type Member struct {
	Flags      uint16
	Name       string
	Descriptor string
}

// Directive is an exports/opens entry of a module descriptor.
type Directive struct {
	Package string // dotted
	To      []string
}

// ModuleSpec describes module-info.class contents.
type ModuleSpec struct {
	Name    string
	Open    bool
	Exports []Directive
	Opens   []Directive
}

// ClassBuilder describes a class file. Names use internal form (a/b/C).
type ClassBuilder struct {
	Name        string
	Super       string
	Flags       uint16
	Interfaces  []string
	Fields      []Member
	Methods     []Member
	NestHost    string
	NestMembers []string
	Module      *ModuleSpec
}

// NewClass starts a public class extending java/lang/Object.
func NewClass(name string) *ClassBuilder {
	return &ClassBuilder{
		Name:  name,
		Super: "java/lang/Object",
		Flags: classfile.AccPublic | classfile.AccSuper,
	}
}

// NewModuleInfo starts a module-info.class for spec.
func NewModuleInfo(spec ModuleSpec) *ClassBuilder {
	return &ClassBuilder{
		Name:   "module-info",
		Flags:  classfile.AccModule,
		Module: &spec,
	}
}

func (b *ClassBuilder) WithFlags(flags uint16) *ClassBuilder {
	b.Flags = flags
	return b
}

func (b *ClassBuilder) WithSuper(super string) *ClassBuilder {
	b.Super = super
	return b
}

func (b *ClassBuilder) WithInterfaces(names ...string) *ClassBuilder {
	b.Interfaces = append(b.Interfaces, names...)
	return b
}

func (b *ClassBuilder) WithField(flags uint16, name, descriptor string) *ClassBuilder {
	b.Fields = append(b.Fields, Member{Flags: flags, Name: name, Descriptor: descriptor})
	return b
}

func (b *ClassBuilder) WithMethod(flags uint16, name, descriptor string) *ClassBuilder {
	b.Methods = append(b.Methods, Member{Flags: flags, Name: name, Descriptor: descriptor})
	return b
}

func (b *ClassBuilder) WithNestHost(host string) *ClassBuilder {
	b.NestHost = host
	return b
}

func (b *ClassBuilder) WithNestMembers(names ...string) *ClassBuilder {
	b.NestMembers = append(b.NestMembers, names...)
	return b
}

// Bytes encodes the class file.
func (b *ClassBuilder) Bytes() []byte {
	cp := newPoolWriter()

	thisClass := cp.class(b.Name)
	var superClass uint16
	if b.Super != "" {
		superClass = cp.class(b.Super)
	}
	ifaces := make([]uint16, len(b.Interfaces))
	for i, name := range b.Interfaces {
		ifaces[i] = cp.class(name)
	}

	var body bytes.Buffer
	w := func(v any) { binary.Write(&body, binary.BigEndian, v) }

	w(b.Flags)
	w(thisClass)
	w(superClass)
	w(uint16(len(ifaces)))
	w(ifaces)

	for _, members := range [][]Member{b.Fields, b.Methods} {
		w(uint16(len(members)))
		for _, m := range members {
			w([4]uint16{m.Flags, cp.utf8(m.Name), cp.utf8(m.Descriptor), 0})
		}
	}

	var attrs [][]byte
	if b.NestHost != "" {
		attrs = append(attrs, cp.attribute("NestHost", u2s(cp.class(b.NestHost))))
	}
	if len(b.NestMembers) > 0 {
		idx := []uint16{uint16(len(b.NestMembers))}
		for _, name := range b.NestMembers {
			idx = append(idx, cp.class(name))
		}
		attrs = append(attrs, cp.attribute("NestMembers", u2s(idx...)))
	}
	if b.Module != nil {
		attrs = append(attrs, cp.attribute("Module", b.moduleAttribute(cp)))
	}
	w(uint16(len(attrs)))
	for _, a := range attrs {
		body.Write(a)
	}

	var out bytes.Buffer
	binary.Write(&out, binary.BigEndian, uint32(0xCAFEBABE))
	binary.Write(&out, binary.BigEndian, [2]uint16{0, 61})
	cp.writeTo(&out)
	out.Write(body.Bytes())
	return out.Bytes()
}

func (b *ClassBuilder) moduleAttribute(cp *poolWriter) []byte {
	var flags uint16
	if b.Module.Open {
		flags |= classfile.AccOpen
	}
	vals := []uint16{cp.module(b.Module.Name), flags, 0, 0}
	for _, dirs := range [][]Directive{b.Module.Exports, b.Module.Opens} {
		vals = append(vals, uint16(len(dirs)))
		for _, d := range dirs {
			vals = append(vals, cp.pkg(d.Package), 0, uint16(len(d.To)))
			for _, to := range d.To {
				vals = append(vals, cp.module(to))
			}
		}
	}
	vals = append(vals, 0, 0) // uses, provides
	return u2s(vals...)
}

// WriteClass writes the encoded class under dir using its internal name
// as relative path and returns the file path.
func WriteClass(t *testing.T, dir string, b *ClassBuilder) string {
	t.Helper()

	path := filepath.Join(dir, filepath.FromSlash(b.Name)+".class")
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		t.Fatalf("failed to create directory for %s: %v", b.Name, err)
	}
	if err := os.WriteFile(path, b.Bytes(), 0644); err != nil {
		t.Fatalf("failed to write class %s: %v", b.Name, err)
	}
	return path
}

// Parse encodes and parses the class, failing the test on error.
func Parse(t *testing.T, b *ClassBuilder) *classfile.ClassFile {
	t.Helper()

	cf, err := classfile.ParseBytes(b.Bytes())
	if err != nil {
		t.Fatalf("failed to parse built class %s: %v", b.Name, err)
	}
	return cf
}

func u2s(vals ...uint16) []byte {
	buf := make([]byte, 2*len(vals))
	for i, v := range vals {
		binary.BigEndian.PutUint16(buf[2*i:], v)
	}
	return buf
}

type poolKey struct {
	tag  uint8
	name string
}

// poolWriter interns constant pool entries.
type poolWriter struct {
	entries [][]byte
	index   map[poolKey]uint16
}

func newPoolWriter() *poolWriter {
	return &poolWriter{index: make(map[poolKey]uint16)}
}

func (p *poolWriter) add(key poolKey, entry []byte) uint16 {
	if idx, ok := p.index[key]; ok {
		return idx
	}
	p.entries = append(p.entries, entry)
	idx := uint16(len(p.entries))
	p.index[key] = idx
	return idx
}

func (p *poolWriter) utf8(s string) uint16 {
	entry := append([]byte{classfile.TagUtf8}, u2s(uint16(len(s)))...)
	return p.add(poolKey{classfile.TagUtf8, s}, append(entry, s...))
}

func (p *poolWriter) named(tag uint8, name string) uint16 {
	nameIdx := p.utf8(name)
	return p.add(poolKey{tag, name}, append([]byte{tag}, u2s(nameIdx)...))
}

func (p *poolWriter) class(name string) uint16  { return p.named(classfile.TagClass, name) }
func (p *poolWriter) module(name string) uint16 { return p.named(classfile.TagModule, name) }
func (p *poolWriter) pkg(name string) uint16 {
	return p.named(classfile.TagPackage, strings.ReplaceAll(name, ".", "/"))
}

func (p *poolWriter) attribute(name string, data []byte) []byte {
	var buf bytes.Buffer
	binary.Write(&buf, binary.BigEndian, p.utf8(name))
	binary.Write(&buf, binary.BigEndian, uint32(len(data)))
	buf.Write(data)
	return buf.Bytes()
}

func (p *poolWriter) writeTo(out *bytes.Buffer) {
	binary.Write(out, binary.BigEndian, uint16(len(p.entries)+1))
	for _, e := range p.entries {
		out.Write(e)
	}
}
