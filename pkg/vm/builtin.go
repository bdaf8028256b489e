package vm

import (
	"fmt"

	"github.com/kangjianwei/LearningJDK-sub038/pkg/classfile"
	"github.com/kangjianwei/LearningJDK-sub038/pkg/module"
)

// Well-known java.base class names.
const (
	ObjectClass  = "java/lang/Object"
	ClassClass   = "java/lang/Class"
	StringClass  = "java/lang/String"
	IntegerClass = "java/lang/Integer"
	HashMapClass = "java/util/HashMap"
	PrintStream  = "java/io/PrintStream"
	UnsafeClass  = "jdk/internal/misc/Unsafe"
)

type builtinMember struct {
	flags      uint16
	name, desc string
}

type builtinClass struct {
	name       string
	flags      uint16
	super      string
	interfaces []string
	fields     []builtinMember
	methods    []builtinMember
}

const (
	pub   = classfile.AccPublic
	priv  = classfile.AccPrivate
	prot  = classfile.AccProtected
	stat  = classfile.AccStatic
	final = classfile.AccFinal
	abs   = classfile.AccAbstract
	nat   = classfile.AccNative
)

// builtinClasses is the subset of java.base available without a jmod.
// Supers come before subclasses.
var builtinClasses = []builtinClass{
	{
		name:  ObjectClass,
		flags: pub | classfile.AccSuper,
		methods: []builtinMember{
			{pub, "<init>", "()V"},
			{pub | nat, "hashCode", "()I"},
			{pub, "toString", "()Ljava/lang/String;"},
			{prot | nat, "clone", "()Ljava/lang/Object;"},
			{prot, "finalize", "()V"},
		},
	},
	{
		name:  "java/lang/Runnable",
		flags: pub | classfile.AccInterface | abs,
		super: ObjectClass,
		methods: []builtinMember{
			{pub | abs, "run", "()V"},
		},
	},
	{
		name:  ClassClass,
		flags: pub | final | classfile.AccSuper,
		super: ObjectClass,
		fields: []builtinMember{
			{priv | final, "classLoader", "Ljava/lang/ClassLoader;"},
		},
		methods: []builtinMember{
			{priv, "<init>", "(Ljava/lang/ClassLoader;Ljava/lang/Class;)V"},
			{pub, "getName", "()Ljava/lang/String;"},
		},
	},
	{
		name:  StringClass,
		flags: pub | final | classfile.AccSuper,
		super: ObjectClass,
		fields: []builtinMember{
			{priv | final, "value", "[B"},
			{priv, "hash", "I"},
		},
		methods: []builtinMember{
			{pub, "<init>", "()V"},
			{pub, "length", "()I"},
		},
	},
	{
		name:  IntegerClass,
		flags: pub | final | classfile.AccSuper,
		super: ObjectClass,
		fields: []builtinMember{
			{pub | stat | final, "MAX_VALUE", "I"},
			{priv | final, "value", "I"},
		},
		methods: []builtinMember{
			{pub, "<init>", "(I)V"},
			{pub, "intValue", "()I"},
			{pub | stat, "valueOf", "(I)Ljava/lang/Integer;"},
		},
	},
	{
		name:  HashMapClass,
		flags: pub | classfile.AccSuper,
		super: ObjectClass,
		fields: []builtinMember{
			{classfile.AccTransient, "size", "I"},
		},
		methods: []builtinMember{
			{pub, "<init>", "()V"},
			{pub, "get", "(Ljava/lang/Object;)Ljava/lang/Object;"},
			{pub, "put", "(Ljava/lang/Object;Ljava/lang/Object;)Ljava/lang/Object;"},
		},
	},
	{
		name:  PrintStream,
		flags: pub | classfile.AccSuper,
		super: ObjectClass,
		methods: []builtinMember{
			{pub, "println", "(Ljava/lang/Object;)V"},
		},
	},
	{
		name:  UnsafeClass,
		flags: pub | final | classfile.AccSuper,
		super: ObjectClass,
		fields: []builtinMember{
			{priv | stat | final, "theUnsafe", "Ljdk/internal/misc/Unsafe;"},
		},
		methods: []builtinMember{
			{priv, "<init>", "()V"},
			{pub | stat, "getUnsafe", "()Ljdk/internal/misc/Unsafe;"},
		},
	},
}

// BuiltinClassLoader is a bootstrap loader that defines a small, fixed
// part of java.base in memory. It stands in for JmodClassLoader when no
// JDK is installed.
type BuiltinClassLoader struct {
	graph *module.Graph
	cache classCache
}

// NewBuiltinClassLoader defines the built-in classes into graph's java.base.
func NewBuiltinClassLoader(graph *module.Graph) *BuiltinClassLoader {
	cl := &BuiltinClassLoader{graph: graph, cache: newClassCache()}
	for _, bc := range builtinClasses {
		spec := ClassSpec{Name: bc.name, AccessFlags: bc.flags}
		if bc.super != "" {
			spec.Super, _ = cl.cache.load(bc.super)
		}
		for _, in := range bc.interfaces {
			iface, _ := cl.cache.load(in)
			spec.Interfaces = append(spec.Interfaces, iface)
		}
		for _, f := range bc.fields {
			spec.Fields = append(spec.Fields, classfile.FieldInfo{MemberInfo: classfile.MemberInfo{
				AccessFlags: f.flags, Name: f.name, Descriptor: f.desc,
			}})
		}
		for _, m := range bc.methods {
			spec.Methods = append(spec.Methods, classfile.MethodInfo{MemberInfo: classfile.MemberInfo{
				AccessFlags: m.flags, Name: m.name, Descriptor: m.desc,
			}})
		}
		cl.cache.publish(NewClass(spec, graph.Base(), BootLoader))
	}
	if integer, ok := cl.cache.load(IntegerClass); ok {
		integer.SetStatic("MAX_VALUE", IntValue(1<<31-1))
	}
	return cl
}

func (cl *BuiltinClassLoader) Name() string { return BootLoader }

func (cl *BuiltinClassLoader) LoadClass(name string) (*Class, error) {
	if c, ok := cl.cache.load(name); ok {
		return c, nil
	}
	return nil, fmt.Errorf("builtin: class %s: %w", name, ErrClassNotFound)
}
