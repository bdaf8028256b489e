package module

import (
	"fmt"
	"sync/atomic"

	"github.com/puzpuzpuz/xsync/v3"

	"github.com/kangjianwei/LearningJDK-sub038/pkg/classfile"
)

// BaseModule is the name of the platform's foundational module.
const BaseModule = "java.base"

// Directive is an exports or opens entry. An empty To list grants the
// package to every module.
type Directive struct {
	Package string
	To      []string
}

// Descriptor declares a named module.
type Descriptor struct {
	Name     string
	Open     bool
	Packages []string
	Exports  []Directive
	Opens    []Directive
}

// DescriptorFrom converts a decoded module-info Module attribute.
func DescriptorFrom(attr *classfile.ModuleAttribute) Descriptor {
	d := Descriptor{Name: attr.Name, Open: attr.IsOpen()}
	for _, e := range attr.Exports {
		d.Exports = append(d.Exports, Directive{Package: e.Package, To: e.To})
	}
	for _, o := range attr.Opens {
		d.Opens = append(d.Opens, Directive{Package: o.Package, To: o.To})
	}
	return d
}

// BaseDescriptor is the java.base descriptor used when no jmod is available.
func BaseDescriptor() Descriptor {
	exported := []string{
		"java.io",
		"java.lang",
		"java.lang.invoke",
		"java.lang.reflect",
		"java.util",
		"java.util.concurrent",
	}
	d := Descriptor{
		Name:     BaseModule,
		Packages: []string{"jdk.internal.misc", "jdk.internal.reflect", "sun.nio.ch"},
	}
	for _, pn := range exported {
		d.Exports = append(d.Exports, Directive{Package: pn})
	}
	return d
}

// Graph owns every module of a VM and answers the export/open questions
// reflection needs.
type Graph struct {
	nextID  atomic.Uint64
	named   *xsync.MapOf[string, *Module]
	unnamed *xsync.MapOf[string, *Module]
	base    *Module
}

// Option configures a Graph.
type Option func(*graphOptions)

type graphOptions struct {
	base Descriptor
}

// WithBaseDescriptor replaces the built-in java.base descriptor, typically
// with the one read from java.base.jmod.
func WithBaseDescriptor(d Descriptor) Option {
	return func(o *graphOptions) {
		o.base = d
	}
}

// NewGraph creates a graph containing java.base.
func NewGraph(opts ...Option) *Graph {
	o := graphOptions{base: BaseDescriptor()}
	for _, opt := range opts {
		opt(&o)
	}
	o.base.Name = BaseModule

	g := &Graph{
		named:   xsync.NewMapOf[string, *Module](),
		unnamed: xsync.NewMapOf[string, *Module](),
	}
	base, err := g.Define(o.base, "boot")
	if err != nil {
		// the graph is empty, so only a malformed descriptor can fail
		panic(err)
	}
	g.base = base
	return g
}

// Define creates a named module for d in the given loader.
func (g *Graph) Define(d Descriptor, loader string) (*Module, error) {
	if d.Name == "" {
		return nil, fmt.Errorf("module: descriptor has no name")
	}
	m := newModule(g.nextID.Add(1), d.Name, loader, d.Open)
	for _, pn := range d.Packages {
		m.AddPackage(pn)
	}
	for _, e := range d.Exports {
		m.AddPackage(e.Package)
		m.exports[e.Package] = newTargets(e.To)
	}
	for _, o := range d.Opens {
		m.AddPackage(o.Package)
		m.opens[o.Package] = newTargets(o.To)
	}

	if _, loaded := g.named.LoadOrStore(d.Name, m); loaded {
		return nil, fmt.Errorf("module: %s already defined", d.Name)
	}
	return m, nil
}

// Unnamed returns the unnamed module of the named class loader.
func (g *Graph) Unnamed(loader string) *Module {
	m, _ := g.unnamed.LoadOrCompute(loader, func() *Module {
		return newModule(g.nextID.Add(1), "", loader, false)
	})
	return m
}

// Lookup finds a named module.
func (g *Graph) Lookup(name string) (*Module, bool) {
	return g.named.Load(name)
}

// Base returns java.base.
func (g *Graph) Base() *Module {
	return g.base
}

// IsNamed reports whether m is a named module.
func (g *Graph) IsNamed(m *Module) bool {
	return m != nil && m.IsNamed()
}

// IsPlatform reports whether m is java.base of this graph.
func (g *Graph) IsPlatform(m *Module) bool {
	return m == g.base
}

// IsExported reports whether m exports pn to other.
func (g *Graph) IsExported(m *Module, pn string, other *Module) bool {
	return m.IsExported(pn, other)
}

// IsOpen reports whether m opens pn to other.
func (g *Graph) IsOpen(m *Module, pn string, other *Module) bool {
	return m.IsOpenTo(pn, other)
}
