// Package reflection implements reflective access to fields, methods and
// constructors of VM classes: language and module access checks, the
// setAccessible gate, and lazily fabricated accessors shared between a
// root handle and its copies.
package reflection

import (
	"context"
	"fmt"
	"log/slog"

	goerrors "github.com/goliatone/go-errors"
	"github.com/puzpuzpuz/xsync/v3"

	"github.com/kangjianwei/LearningJDK-sub038/pkg/vm"
)

// Reflector owns the root handles of every class it has enumerated.
type Reflector struct {
	cfg     Config
	oracle  ModuleOracle
	factory AccessorFactory
	policy  Policy
	logger  *slog.Logger
	gate    *gate
	arena   *Arena
	classes *xsync.MapOf[*vm.Class, *classMembers]
}

// classMembers holds the root handles of one class in declaration order.
type classMembers struct {
	fields       []*Field
	methods      []*Method
	constructors []*Constructor
}

type options struct {
	cfg          Config
	logger       *slog.Logger
	accessLogger AccessLogger
	policy       Policy
}

// Option configures a Reflector.
type Option func(*options)

// WithConfig replaces DefaultConfig.
func WithConfig(cfg Config) Option {
	return func(o *options) { o.cfg = cfg }
}

// WithLogger sets the logger used for denial diagnostics.
func WithLogger(logger *slog.Logger) Option {
	return func(o *options) { o.logger = logger }
}

// WithAccessLogger installs a logger for accesses from unnamed modules
// into named ones.
func WithAccessLogger(l AccessLogger) Option {
	return func(o *options) { o.accessLogger = l }
}

// WithPolicy installs a suppression policy. Config.DenySuppression still
// denies everything when set.
func WithPolicy(p Policy) Option {
	return func(o *options) { o.policy = p }
}

// New creates a Reflector answering module questions with oracle and
// building accessors with factory.
func New(oracle ModuleOracle, factory AccessorFactory, opts ...Option) (*Reflector, error) {
	o := options{cfg: DefaultConfig()}
	for _, opt := range opts {
		opt(&o)
	}
	if err := o.cfg.Validate(); err != nil {
		return nil, err
	}
	if o.logger == nil {
		o.logger = slog.Default()
	}
	if o.accessLogger == nil {
		o.accessLogger = nopAccessLogger{}
	}
	switch {
	case o.cfg.DenySuppression:
		o.policy = denyAll
	case o.policy == nil:
		o.policy = permitAll
	}

	return &Reflector{
		cfg:     o.cfg,
		oracle:  oracle,
		factory: factory,
		policy:  o.policy,
		logger:  o.logger.With(slog.String("component", "reflection")),
		gate:    newGate(oracle, o.accessLogger, o.cfg.GateCache),
		arena:   NewArena(),
		classes: xsync.NewMapOf[*vm.Class, *classMembers](),
	}, nil
}

// Arena returns the arena holding the member records.
func (r *Reflector) Arena() *Arena {
	return r.arena
}

func (r *Reflector) members(c *vm.Class) *classMembers {
	m, _ := r.classes.LoadOrCompute(c, func() *classMembers {
		return r.enumerate(c)
	})
	return m
}

// enumerate creates the root handles of c.
func (r *Reflector) enumerate(c *vm.Class) *classMembers {
	m := &classMembers{}
	for i := range c.Fields {
		f := &Field{}
		f.init(r, r.arena.addField(c, &c.Fields[i]), false)
		m.fields = append(m.fields, f)
	}
	for i := range c.Methods {
		mi := &c.Methods[i]
		switch {
		case mi.IsClassInitializer():
		case mi.IsConstructor():
			ctor := &Constructor{}
			ctor.init(r, r.arena.addMethod(c, mi), false)
			m.constructors = append(m.constructors, ctor)
		default:
			method := &Method{}
			method.init(r, r.arena.addMethod(c, mi), false)
			m.methods = append(m.methods, method)
		}
	}
	return m
}

// DeclaredFields returns fresh copies of the fields declared by c.
func (r *Reflector) DeclaredFields(c *vm.Class) []*Field {
	roots := r.members(c).fields
	out := make([]*Field, len(roots))
	for i, f := range roots {
		out[i] = f.Copy()
	}
	return out
}

// DeclaredField returns a fresh copy of the field name of c.
func (r *Reflector) DeclaredField(c *vm.Class, name string) (*Field, error) {
	for _, f := range r.members(c).fields {
		if f.Name() == name {
			return f.Copy(), nil
		}
	}
	return nil, noSuchMember(CodeNoSuchField, c.JavaName()+"."+name)
}

// DeclaredMethods returns fresh copies of the methods declared by c.
func (r *Reflector) DeclaredMethods(c *vm.Class) []*Method {
	roots := r.members(c).methods
	out := make([]*Method, len(roots))
	for i, m := range roots {
		out[i] = m.Copy()
	}
	return out
}

// DeclaredMethod returns a fresh copy of the method of c with the given
// name and descriptor.
func (r *Reflector) DeclaredMethod(c *vm.Class, name, descriptor string) (*Method, error) {
	for _, m := range r.members(c).methods {
		if m.Name() == name && m.Descriptor() == descriptor {
			return m.Copy(), nil
		}
	}
	return nil, noSuchMember(CodeNoSuchMethod, c.JavaName()+"."+name+descriptor)
}

// DeclaredConstructors returns fresh copies of the constructors of c.
func (r *Reflector) DeclaredConstructors(c *vm.Class) []*Constructor {
	roots := r.members(c).constructors
	out := make([]*Constructor, len(roots))
	for i, ctor := range roots {
		out[i] = ctor.Copy()
	}
	return out
}

// DeclaredConstructor returns a fresh copy of the constructor of c with
// the given descriptor.
func (r *Reflector) DeclaredConstructor(c *vm.Class, descriptor string) (*Constructor, error) {
	for _, ctor := range r.members(c).constructors {
		if ctor.Descriptor() == descriptor {
			return ctor.Copy(), nil
		}
	}
	return nil, noSuchMember(CodeNoSuchMethod, c.JavaName()+".<init>"+descriptor)
}

// fabricate asks the factory for an accessor of rec.
func (r *Reflector) fabricate(rec *memberRecord, unchecked bool) (any, error) {
	switch rec.kind {
	case kindField:
		return r.factory.NewFieldAccessor(rec.declaring, rec.field, unchecked)
	case kindMethod:
		return r.factory.NewMethodAccessor(rec.declaring, rec.method, unchecked)
	case kindConstructor:
		return r.factory.NewConstructorAccessor(rec.declaring, rec.method, unchecked)
	}
	return nil, fmt.Errorf("reflection: unknown member kind %v", rec.kind)
}

// report returns e, logging it first when denial diagnostics are on.
func (r *Reflector) report(e *goerrors.Error) error {
	if !r.cfg.PrintStackTraceOnDenial {
		return e
	}
	switch e.TextCode {
	case CodeAccessDenied, CodeSuppressionDenied:
		e = e.WithStackTrace()
		r.logger.LogAttrs(context.Background(), slog.LevelError, e.ErrorWithStack(), goerrors.ToSlogAttributes(e)...)
	default:
		goerrors.LogBySeverity(r.logger, e)
	}
	return e
}
