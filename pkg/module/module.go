// Package module models the JPMS module graph as seen by reflection:
// which packages a module contains and to whom it exports or opens them.
//
// Relations only ever grow. Nothing removes an export or an open once it
// has been granted, which lets callers cache positive answers forever.
package module

import (
	"fmt"
	"strings"

	"github.com/puzpuzpuz/xsync/v3"
)

// AllUnnamed is the pseudo target name that qualifies every unnamed module.
const AllUnnamed = "ALL-UNNAMED"

// targets is the static target set of one exports/opens directive.
// An empty set of names means the package is granted to every module.
type targets struct {
	everyone bool
	names    map[string]struct{}
}

func newTargets(to []string) targets {
	if len(to) == 0 {
		return targets{everyone: true}
	}
	t := targets{names: make(map[string]struct{}, len(to))}
	for _, name := range to {
		t.names[name] = struct{}{}
	}
	return t
}

func (t targets) admits(other *Module) bool {
	if t.everyone {
		return true
	}
	if other == nil {
		return false
	}
	if !other.IsNamed() {
		_, ok := t.names[AllUnnamed]
		return ok
	}
	_, ok := t.names[other.name]
	return ok
}

// grantKey identifies a runtime-added export or open. A nil target with
// allUnnamed unset means every module.
type grantKey struct {
	pkg        string
	target     *Module
	allUnnamed bool
}

// Module is a named or unnamed module.
type Module struct {
	id     uint64
	name   string
	loader string
	open   bool

	packages *xsync.MapOf[string, struct{}]
	exports  map[string]targets
	opens    map[string]targets

	// grants holds runtime additions; the value is true for an open,
	// false for an export.
	grants *xsync.MapOf[grantKey, bool]
}

func newModule(id uint64, name, loader string, open bool) *Module {
	return &Module{
		id:       id,
		name:     name,
		loader:   loader,
		open:     open,
		packages: xsync.NewMapOf[string, struct{}](),
		exports:  make(map[string]targets),
		opens:    make(map[string]targets),
		grants:   xsync.NewMapOf[grantKey, bool](),
	}
}

// ID returns a process-unique identifier.
func (m *Module) ID() uint64 { return m.id }

// Name returns the module name, "" for an unnamed module.
func (m *Module) Name() string { return m.name }

// Loader returns the name of the class loader the module belongs to.
func (m *Module) Loader() string { return m.loader }

// IsNamed reports whether this is a named module.
func (m *Module) IsNamed() bool { return m.name != "" }

// IsOpen reports whether the module was declared "open module".
func (m *Module) IsOpen() bool { return m.open }

func (m *Module) String() string {
	if m.IsNamed() {
		return "module " + m.name
	}
	return fmt.Sprintf("unnamed module @%d", m.id)
}

// AddPackage records that the module contains pn (dotted form).
func (m *Module) AddPackage(pn string) {
	m.packages.Store(pn, struct{}{})
}

// ContainsPackage reports whether pn is a package of the module.
func (m *Module) ContainsPackage(pn string) bool {
	_, ok := m.packages.Load(pn)
	return ok
}

// Packages returns the module's packages in no particular order.
func (m *Module) Packages() []string {
	pkgs := make([]string, 0, m.packages.Size())
	m.packages.Range(func(pn string, _ struct{}) bool {
		pkgs = append(pkgs, pn)
		return true
	})
	return pkgs
}

// IsExported reports whether pn is exported (or opened) to other.
func (m *Module) IsExported(pn string, other *Module) bool {
	return m.isExportedOrOpen(pn, other, false)
}

// IsOpenTo reports whether pn is opened to other.
func (m *Module) IsOpenTo(pn string, other *Module) bool {
	return m.isExportedOrOpen(pn, other, true)
}

func (m *Module) isExportedOrOpen(pn string, other *Module, open bool) bool {
	// unnamed modules export and open every package
	if !m.IsNamed() {
		return true
	}
	if !m.ContainsPackage(pn) {
		return false
	}
	if other == m || m.open {
		return true
	}
	if t, ok := m.opens[pn]; ok && t.admits(other) {
		return true
	}
	if !open {
		if t, ok := m.exports[pn]; ok && t.admits(other) {
			return true
		}
	}
	return m.isReflectivelyExportedOrOpen(pn, other, open)
}

func (m *Module) isReflectivelyExportedOrOpen(pn string, other *Module, open bool) bool {
	keys := []grantKey{{pkg: pn}}
	if other != nil {
		keys = append(keys, grantKey{pkg: pn, target: other})
		if !other.IsNamed() {
			keys = append(keys, grantKey{pkg: pn, allUnnamed: true})
		}
	}
	for _, k := range keys {
		if isOpen, ok := m.grants.Load(k); ok && (isOpen || !open) {
			return true
		}
	}
	return false
}

// AddExports exports pn to other at runtime. A nil other exports to all.
func (m *Module) AddExports(pn string, other *Module) error {
	return m.grant(grantKey{pkg: pn, target: other}, false)
}

// AddOpens opens pn to other at runtime. A nil other opens to all.
func (m *Module) AddOpens(pn string, other *Module) error {
	return m.grant(grantKey{pkg: pn, target: other}, true)
}

// AddExportsToAllUnnamed exports pn to every unnamed module.
func (m *Module) AddExportsToAllUnnamed(pn string) error {
	return m.grant(grantKey{pkg: pn, allUnnamed: true}, false)
}

// AddOpensToAllUnnamed opens pn to every unnamed module.
func (m *Module) AddOpensToAllUnnamed(pn string) error {
	return m.grant(grantKey{pkg: pn, allUnnamed: true}, true)
}

func (m *Module) grant(key grantKey, open bool) error {
	if !m.IsNamed() {
		return nil
	}
	if !m.ContainsPackage(key.pkg) {
		return fmt.Errorf("module: package %s not in %s", key.pkg, m)
	}
	// an open never degrades to an export
	m.grants.Compute(key, func(old bool, loaded bool) (bool, bool) {
		return old || open, false
	})
	return nil
}

// PackageOf returns the dotted package name of an internal class name.
func PackageOf(className string) string {
	i := strings.LastIndexByte(className, '/')
	if i < 0 {
		return ""
	}
	return strings.ReplaceAll(className[:i], "/", ".")
}
