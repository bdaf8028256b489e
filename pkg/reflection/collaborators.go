package reflection

import (
	"log/slog"

	"github.com/kangjianwei/LearningJDK-sub038/pkg/classfile"
	"github.com/kangjianwei/LearningJDK-sub038/pkg/module"
	"github.com/kangjianwei/LearningJDK-sub038/pkg/native"
	"github.com/kangjianwei/LearningJDK-sub038/pkg/vm"
)

// ModuleOracle answers module boundary questions. *module.Graph implements it.
type ModuleOracle interface {
	IsNamed(m *module.Module) bool
	IsPlatform(m *module.Module) bool
	IsExported(m *module.Module, pn string, other *module.Module) bool
	IsOpen(m *module.Module, pn string, other *module.Module) bool
}

// AccessorFactory fabricates the accessors reflected members delegate to.
// *native.Factory implements it.
type AccessorFactory interface {
	NewFieldAccessor(c *vm.Class, f *classfile.FieldInfo, unchecked bool) (native.FieldAccessor, error)
	NewMethodAccessor(c *vm.Class, m *classfile.MethodInfo, unchecked bool) (native.MethodAccessor, error)
	NewConstructorAccessor(c *vm.Class, m *classfile.MethodInfo, unchecked bool) (native.ConstructorAccessor, error)
}

// Policy decides whether checks may be suppressed at all.
type Policy interface {
	PermitsSuppression(caller *vm.Class) bool
}

// PolicyFunc adapts a function to Policy.
type PolicyFunc func(caller *vm.Class) bool

func (f PolicyFunc) PermitsSuppression(caller *vm.Class) bool { return f(caller) }

var (
	permitAll = PolicyFunc(func(*vm.Class) bool { return true })
	denyAll   = PolicyFunc(func(*vm.Class) bool { return false })
)

// AccessLogger is told when a caller in an unnamed module reaches into a
// named module through an export or an open. It never affects the decision.
// With the gate memo enabled it hears about a crossing once per caller,
// declaring class and modifiers; later decisions come from the memo.
type AccessLogger interface {
	LogIfExported(caller, declaring *vm.Class)
	LogIfOpened(caller, declaring *vm.Class)
}

// SlogAccessLogger reports illegal-access style crossings to a slog.Logger.
type SlogAccessLogger struct {
	Logger *slog.Logger
}

// NewSlogAccessLogger creates an AccessLogger writing to logger, or to the
// default logger when logger is nil.
func NewSlogAccessLogger(logger *slog.Logger) *SlogAccessLogger {
	if logger == nil {
		logger = slog.Default()
	}
	return &SlogAccessLogger{Logger: logger.With(slog.String("component", "reflection"))}
}

func (l *SlogAccessLogger) LogIfExported(caller, declaring *vm.Class) {
	l.log("exported", caller, declaring)
}

func (l *SlogAccessLogger) LogIfOpened(caller, declaring *vm.Class) {
	l.log("opened", caller, declaring)
}

func (l *SlogAccessLogger) log(how string, caller, declaring *vm.Class) {
	l.Logger.Info("reflective access across module boundary",
		slog.String("caller", caller.JavaName()),
		slog.String("caller_module", caller.Module.String()),
		slog.String("declaring_class", declaring.JavaName()),
		slog.String("declaring_module", declaring.Module.String()),
		slog.String("via", how),
	)
}

type nopAccessLogger struct{}

func (nopAccessLogger) LogIfExported(caller, declaring *vm.Class) {}
func (nopAccessLogger) LogIfOpened(caller, declaring *vm.Class)   {}
