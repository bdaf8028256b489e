package reflection

import (
	"testing"

	"github.com/kangjianwei/LearningJDK-sub038/pkg/classfile"
	"github.com/kangjianwei/LearningJDK-sub038/pkg/module"
	"github.com/kangjianwei/LearningJDK-sub038/pkg/native"
	"github.com/kangjianwei/LearningJDK-sub038/pkg/vm"
)

const loader = "app"

func field(flags uint16, name, desc string) classfile.FieldInfo {
	return classfile.FieldInfo{MemberInfo: classfile.MemberInfo{AccessFlags: flags, Name: name, Descriptor: desc}}
}

func method(flags uint16, name, desc string) classfile.MethodInfo {
	return classfile.MethodInfo{MemberInfo: classfile.MemberInfo{AccessFlags: flags, Name: name, Descriptor: desc}}
}

// world is a small VM: java.base from the builtin loader, a named module
// "a" holding the caller classes, a named module "b" that exports b.api
// and conceals b.impl, and classes in the unnamed module.
type world struct {
	graph   *module.Graph
	factory *native.Factory
	r       *Reflector

	a, b, unnamed *module.Module

	object, classClass, integer *vm.Class

	// module a
	main *vm.Class // a/app/Main
	sub  *vm.Class // a/app/Sub extends b/api/Service

	// module b
	service *vm.Class // b/api/Service
	secret  *vm.Class // b/impl/Secret

	// unnamed module
	tool   *vm.Class // client/Tool
	point  *vm.Class // geom/Point
	inner  *vm.Class // geom/Point$Inner, nestmate of Point
	other  *vm.Class // geom/Other
	hidden *vm.Class // geom/Hidden, package-private class
	circle *vm.Class // shapes/Circle extends geom/Point
	disk   *vm.Class // shapes/Disk extends shapes/Circle
	suit   *vm.Class // cards/Suit, an enum
}

func newWorld(t *testing.T, opts ...Option) *world {
	t.Helper()

	w := &world{graph: module.NewGraph(), factory: native.NewFactory()}
	boot := vm.NewBuiltinClassLoader(w.graph)
	for name, dst := range map[string]**vm.Class{
		vm.ObjectClass:  &w.object,
		vm.ClassClass:   &w.classClass,
		vm.IntegerClass: &w.integer,
	} {
		c, err := boot.LoadClass(name)
		if err != nil {
			t.Fatalf("load %s: %v", name, err)
		}
		*dst = c
	}

	var err error
	if w.a, err = w.graph.Define(module.Descriptor{Name: "a"}, loader); err != nil {
		t.Fatalf("define a: %v", err)
	}
	w.b, err = w.graph.Define(module.Descriptor{
		Name:     "b",
		Packages: []string{"b.impl"},
		Exports:  []module.Directive{{Package: "b.api"}},
	}, loader)
	if err != nil {
		t.Fatalf("define b: %v", err)
	}
	w.unnamed = w.graph.Unnamed(loader)

	def := func(mod *module.Module, spec vm.ClassSpec) *vm.Class {
		if spec.Super == nil {
			spec.Super = w.object
		}
		return vm.NewClass(spec, mod, loader)
	}

	w.service = def(w.b, vm.ClassSpec{
		Name:        "b/api/Service",
		AccessFlags: classfile.AccPublic,
		Fields: []classfile.FieldInfo{
			field(classfile.AccPublic, "name", "Ljava/lang/String;"),
			field(classfile.AccProtected, "count", "I"),
			field(classfile.AccPrivate, "token", "I"),
		},
		Methods: []classfile.MethodInfo{
			method(classfile.AccPublic, "<init>", "()V"),
			method(classfile.AccProtected|classfile.AccStatic, "helper", "()I"),
			method(classfile.AccStatic, "<clinit>", "()V"),
		},
	})
	w.secret = def(w.b, vm.ClassSpec{
		Name:        "b/impl/Secret",
		AccessFlags: classfile.AccPublic,
		Fields: []classfile.FieldInfo{
			field(classfile.AccPrivate, "key", "I"),
		},
		Methods: []classfile.MethodInfo{
			method(classfile.AccPrivate, "<init>", "()V"),
			method(classfile.AccPrivate, "reveal", "()I"),
			method(classfile.AccPublic, "ping", "()I"),
		},
	})

	w.main = def(w.a, vm.ClassSpec{Name: "a/app/Main", AccessFlags: classfile.AccPublic})
	w.sub = def(w.a, vm.ClassSpec{Name: "a/app/Sub", AccessFlags: classfile.AccPublic, Super: w.service})

	w.tool = def(w.unnamed, vm.ClassSpec{Name: "client/Tool", AccessFlags: classfile.AccPublic})
	w.point = def(w.unnamed, vm.ClassSpec{
		Name:        "geom/Point",
		AccessFlags: classfile.AccPublic,
		Fields: []classfile.FieldInfo{
			field(classfile.AccPrivate, "x", "I"),
			field(classfile.AccProtected, "y", "I"),
			field(0, "z", "I"),
			field(classfile.AccPublic, "w", "J"),
			field(classfile.AccPublic|classfile.AccStatic, "count", "I"),
			field(classfile.AccPublic|classfile.AccFinal, "id", "I"),
			field(classfile.AccProtected|classfile.AccStatic|classfile.AccFinal, "ORIGIN", "Lgeom/Point;"),
		},
		Methods: []classfile.MethodInfo{
			method(classfile.AccPublic, "<init>", "()V"),
			method(classfile.AccProtected, "<init>", "(II)V"),
			method(classfile.AccPublic, "norm", "()I"),
			method(classfile.AccPublic|classfile.AccStatic, "dist", "(Lgeom/Point;Lgeom/Point;)J"),
			method(classfile.AccPrivate|classfile.AccSynchronized, "shift", "([I)V"),
			method(classfile.AccPublic, "fail", "()V"),
		},
	})
	w.inner = def(w.unnamed, vm.ClassSpec{Name: "geom/Point$Inner", NestHost: w.point})
	w.other = def(w.unnamed, vm.ClassSpec{Name: "geom/Other", AccessFlags: classfile.AccPublic})
	w.hidden = def(w.unnamed, vm.ClassSpec{
		Name:    "geom/Hidden",
		Fields:  []classfile.FieldInfo{field(classfile.AccPublic, "v", "I")},
		Methods: []classfile.MethodInfo{method(classfile.AccPublic, "<init>", "()V")},
	})
	w.circle = def(w.unnamed, vm.ClassSpec{Name: "shapes/Circle", AccessFlags: classfile.AccPublic, Super: w.point})
	w.disk = def(w.unnamed, vm.ClassSpec{Name: "shapes/Disk", AccessFlags: classfile.AccPublic, Super: w.circle})
	w.suit = def(w.unnamed, vm.ClassSpec{
		Name:        "cards/Suit",
		AccessFlags: classfile.AccPublic | classfile.AccFinal | classfile.AccEnum,
		Methods:     []classfile.MethodInfo{method(classfile.AccPrivate, "<init>", "()V")},
	})

	w.factory.Bind("b/impl/Secret", "reveal", "()I", func(native.Call) (vm.Value, error) {
		return vm.IntValue(42), nil
	})
	w.factory.Bind("b/impl/Secret", "ping", "()I", func(native.Call) (vm.Value, error) {
		return vm.IntValue(1), nil
	})
	w.factory.Bind("b/api/Service", "helper", "()I", func(native.Call) (vm.Value, error) {
		return vm.IntValue(7), nil
	})
	w.factory.Bind("geom/Point", "<init>", "(II)V", func(call native.Call) (vm.Value, error) {
		call.This.SetField(call.Class, "x", call.Args[0])
		call.This.SetField(call.Class, "y", call.Args[1])
		return vm.NullValue(), nil
	})
	w.factory.Bind("geom/Point", "norm", "()I", func(call native.Call) (vm.Value, error) {
		x, _ := call.This.GetField(call.Class, "x")
		y, _ := call.This.GetField(call.Class, "y")
		return vm.IntValue(x.Int*x.Int + y.Int*y.Int), nil
	})
	w.factory.Bind("geom/Point", "dist", "(Lgeom/Point;Lgeom/Point;)J", func(native.Call) (vm.Value, error) {
		return vm.LongValue(5), nil
	})
	w.factory.Bind("geom/Point", "fail", "()V", func(native.Call) (vm.Value, error) {
		return vm.Value{}, vm.NewJavaException("java/lang/IllegalStateException", "boom")
	})

	r, err := New(w.graph, w.factory, opts...)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	w.r = r
	return w
}

func (w *world) field(t *testing.T, c *vm.Class, name string) *Field {
	t.Helper()

	f, err := w.r.DeclaredField(c, name)
	if err != nil {
		t.Fatalf("DeclaredField(%s, %s): %v", c.Name, name, err)
	}
	return f
}

func (w *world) method(t *testing.T, c *vm.Class, name, desc string) *Method {
	t.Helper()

	m, err := w.r.DeclaredMethod(c, name, desc)
	if err != nil {
		t.Fatalf("DeclaredMethod(%s, %s%s): %v", c.Name, name, desc, err)
	}
	return m
}

func (w *world) constructor(t *testing.T, c *vm.Class, desc string) *Constructor {
	t.Helper()

	ctor, err := w.r.DeclaredConstructor(c, desc)
	if err != nil {
		t.Fatalf("DeclaredConstructor(%s, %s): %v", c.Name, desc, err)
	}
	return ctor
}

// recordingLogger remembers the crossings it was told about.
type recordingLogger struct {
	calls []string
}

func (l *recordingLogger) LogIfExported(caller, declaring *vm.Class) {
	l.calls = append(l.calls, "exported "+caller.Name+" -> "+declaring.Name)
}

func (l *recordingLogger) LogIfOpened(caller, declaring *vm.Class) {
	l.calls = append(l.calls, "opened "+caller.Name+" -> "+declaring.Name)
}
