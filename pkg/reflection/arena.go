package reflection

import (
	"sync/atomic"

	"github.com/puzpuzpuz/xsync/v3"

	"github.com/kangjianwei/LearningJDK-sub038/pkg/classfile"
	"github.com/kangjianwei/LearningJDK-sub038/pkg/vm"
)

// MemberID addresses a member record in an Arena.
type MemberID uint64

type memberKind int

const (
	kindField memberKind = iota
	kindMethod
	kindConstructor
)

func (k memberKind) String() string {
	switch k {
	case kindField:
		return "field"
	case kindMethod:
		return "method"
	default:
		return "constructor"
	}
}

// accessorRef boxes a fabricated accessor so it can be published through
// an atomic pointer.
type accessorRef struct {
	accessor any
}

// accessorSlots holds the checked and the unchecked accessor.
type accessorSlots [2]atomic.Pointer[accessorRef]

func slotIndex(unchecked bool) int {
	if unchecked {
		return 1
	}
	return 0
}

func (s *accessorSlots) load(unchecked bool) *accessorRef {
	return s[slotIndex(unchecked)].Load()
}

func (s *accessorSlots) store(unchecked bool, ref *accessorRef) {
	s[slotIndex(unchecked)].Store(ref)
}

// memberRecord is the state shared by a root handle and all its copies.
// Its accessor slots are the root's slots.
type memberRecord struct {
	id        MemberID
	kind      memberKind
	declaring *vm.Class
	field     *classfile.FieldInfo
	method    *classfile.MethodInfo
	modifiers uint16

	accessors accessorSlots
}

func (r *memberRecord) name() string {
	if r.field != nil {
		return r.field.Name
	}
	return r.method.Name
}

func (r *memberRecord) descriptor() string {
	if r.field != nil {
		return r.field.Descriptor
	}
	return r.method.Descriptor
}

// Arena owns member records. Handles refer to records by ID and hold no
// references to each other beyond a copy's root.
type Arena struct {
	nextID  atomic.Uint64
	records *xsync.MapOf[MemberID, *memberRecord]
}

// NewArena creates an empty arena.
func NewArena() *Arena {
	return &Arena{records: xsync.NewMapOf[MemberID, *memberRecord]()}
}

func (a *Arena) addField(c *vm.Class, f *classfile.FieldInfo) *memberRecord {
	return a.add(&memberRecord{
		kind:      kindField,
		declaring: c,
		field:     f,
		modifiers: f.AccessFlags & fieldModifiers,
	})
}

func (a *Arena) addMethod(c *vm.Class, m *classfile.MethodInfo) *memberRecord {
	kind, mask := kindMethod, uint16(methodModifiers)
	if m.IsConstructor() {
		kind, mask = kindConstructor, constructorModifiers
	}
	return a.add(&memberRecord{
		kind:      kind,
		declaring: c,
		method:    m,
		modifiers: m.AccessFlags & mask,
	})
}

func (a *Arena) add(r *memberRecord) *memberRecord {
	r.id = MemberID(a.nextID.Add(1))
	a.records.Store(r.id, r)
	return r
}

// Len returns the number of records.
func (a *Arena) Len() int {
	return a.records.Size()
}
