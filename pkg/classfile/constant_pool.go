package classfile

import (
	"encoding/binary"
	"fmt"
	"io"
	"strings"
)

// Constant pool tags
const (
	TagUtf8               = 1
	TagInteger            = 3
	TagFloat              = 4
	TagLong               = 5
	TagDouble             = 6
	TagClass              = 7
	TagString             = 8
	TagFieldref           = 9
	TagMethodref          = 10
	TagInterfaceMethodref = 11
	TagNameAndType        = 12
	TagMethodHandle       = 15
	TagMethodType         = 16
	TagDynamic            = 17
	TagInvokeDynamic      = 18
	TagModule             = 19
	TagPackage            = 20
)

// opaqueSizes is the payload size of the entries only their tag is kept for.
var opaqueSizes = map[uint8]int{
	TagInteger:            4,
	TagFloat:              4,
	TagLong:               8,
	TagDouble:             8,
	TagString:             2,
	TagFieldref:           4,
	TagMethodref:          4,
	TagInterfaceMethodref: 4,
	TagNameAndType:        4,
	TagMethodHandle:       3,
	TagMethodType:         2,
	TagDynamic:            4,
	TagInvokeDynamic:      4,
}

// parseConstantPool reads constant_pool_count-1 entries from the reader.
// The returned slice is 1-indexed: index 0 is nil.
//
// Only the entries needed to name classes, modules and packages are decoded;
// everything else is skipped and kept as a placeholder carrying its tag.
func parseConstantPool(r io.Reader, count uint16) ([]ConstantPoolEntry, error) {
	pool := make([]ConstantPoolEntry, count)

	for i := uint16(1); i < count; i++ {
		var tag uint8
		if err := binary.Read(r, binary.BigEndian, &tag); err != nil {
			return nil, fmt.Errorf("reading constant pool tag at index %d: %w", i, err)
		}

		switch tag {
		case TagUtf8:
			var length uint16
			if err := binary.Read(r, binary.BigEndian, &length); err != nil {
				return nil, fmt.Errorf("reading Utf8 length at index %d: %w", i, err)
			}
			bytes := make([]byte, length)
			if _, err := io.ReadFull(r, bytes); err != nil {
				return nil, fmt.Errorf("reading Utf8 bytes at index %d: %w", i, err)
			}
			pool[i] = &ConstantUtf8{Value: string(bytes)}

		case TagClass, TagModule, TagPackage:
			var nameIndex uint16
			if err := binary.Read(r, binary.BigEndian, &nameIndex); err != nil {
				return nil, fmt.Errorf("reading name index of tag %d at index %d: %w", tag, i, err)
			}
			switch tag {
			case TagClass:
				pool[i] = &ConstantClass{NameIndex: nameIndex}
			case TagModule:
				pool[i] = &ConstantModule{NameIndex: nameIndex}
			default:
				pool[i] = &ConstantPackage{NameIndex: nameIndex}
			}

		default:
			size, ok := opaqueSizes[tag]
			if !ok {
				return nil, fmt.Errorf("unknown constant pool tag %d at index %d", tag, i)
			}
			if _, err := io.CopyN(io.Discard, r, int64(size)); err != nil {
				return nil, fmt.Errorf("skipping tag %d at index %d: %w", tag, i, err)
			}
			pool[i] = &constantPlaceholder{tag: tag}
			if tag == TagLong || tag == TagDouble {
				i++ // 8-byte constants take 2 slots
			}
		}
	}

	return pool, nil
}

// constantPlaceholder is used for constant pool entries we don't decode.
type constantPlaceholder struct {
	tag uint8
}

func (c *constantPlaceholder) Tag() uint8 { return c.tag }

func entryAt(pool []ConstantPoolEntry, index uint16) (ConstantPoolEntry, error) {
	if int(index) >= len(pool) || pool[index] == nil {
		return nil, fmt.Errorf("invalid constant pool index %d", index)
	}
	return pool[index], nil
}

// GetUtf8 returns the Utf8 string at the given constant pool index.
func GetUtf8(pool []ConstantPoolEntry, index uint16) (string, error) {
	entry, err := entryAt(pool, index)
	if err != nil {
		return "", err
	}
	utf8, ok := entry.(*ConstantUtf8)
	if !ok {
		return "", fmt.Errorf("constant pool index %d is not Utf8 (tag=%d)", index, entry.Tag())
	}
	return utf8.Value, nil
}

// GetClassName returns the class name referenced by a CONSTANT_Class entry.
func GetClassName(pool []ConstantPoolEntry, classIndex uint16) (string, error) {
	entry, err := entryAt(pool, classIndex)
	if err != nil {
		return "", err
	}
	class, ok := entry.(*ConstantClass)
	if !ok {
		return "", fmt.Errorf("constant pool index %d is not Class", classIndex)
	}
	return GetUtf8(pool, class.NameIndex)
}

// GetModuleName returns the module name referenced by a CONSTANT_Module entry.
func GetModuleName(pool []ConstantPoolEntry, index uint16) (string, error) {
	entry, err := entryAt(pool, index)
	if err != nil {
		return "", err
	}
	mod, ok := entry.(*ConstantModule)
	if !ok {
		return "", fmt.Errorf("constant pool index %d is not Module", index)
	}
	return GetUtf8(pool, mod.NameIndex)
}

// GetPackageName returns the dotted package name referenced by a
// CONSTANT_Package entry (stored in internal form in the class file).
func GetPackageName(pool []ConstantPoolEntry, index uint16) (string, error) {
	entry, err := entryAt(pool, index)
	if err != nil {
		return "", err
	}
	pkg, ok := entry.(*ConstantPackage)
	if !ok {
		return "", fmt.Errorf("constant pool index %d is not Package", index)
	}
	name, err := GetUtf8(pool, pkg.NameIndex)
	if err != nil {
		return "", err
	}
	return strings.ReplaceAll(name, "/", "."), nil
}
