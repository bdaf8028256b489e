package main

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/kangjianwei/LearningJDK-sub038/pkg/classfile"
	"github.com/kangjianwei/LearningJDK-sub038/pkg/module"
	"github.com/kangjianwei/LearningJDK-sub038/pkg/native"
	"github.com/kangjianwei/LearningJDK-sub038/pkg/reflection"
	"github.com/kangjianwei/LearningJDK-sub038/pkg/vm"
)

func findJmodPath() string {
	// 1. Explicit env var
	if env := os.Getenv("JAVA_BASE_JMOD"); env != "" {
		return env
	}
	// 2. JAVA_HOME
	if javaHome := os.Getenv("JAVA_HOME"); javaHome != "" {
		p := filepath.Join(javaHome, "jmods", "java.base.jmod")
		if _, err := os.Stat(p); err == nil {
			return p
		}
	}
	// 3. Glob fallback
	matches, _ := filepath.Glob("/usr/lib/jvm/java-*-openjdk-*/jmods/java.base.jmod")
	if len(matches) > 0 {
		return matches[0]
	}
	return ""
}

// bootLoader returns the java.base loader, backed by the jmod when one is found.
func bootLoader(logger *slog.Logger) (*module.Graph, vm.ClassLoader, error) {
	jmodPath := findJmodPath()
	if jmodPath == "" {
		logger.Warn("java.base.jmod not found, using built-in classes")
		graph := module.NewGraph()
		return graph, vm.NewBuiltinClassLoader(graph), nil
	}
	d, err := vm.ReadJmodDescriptor(jmodPath)
	if err != nil {
		return nil, nil, err
	}
	graph := module.NewGraph(module.WithBaseDescriptor(d))
	return graph, vm.NewJmodClassLoader(jmodPath, graph), nil
}

func main() {
	if len(os.Args) < 2 {
		fmt.Fprintf(os.Stderr, "Usage: gojvm <classfile>\n")
		os.Exit(1)
	}

	filename := os.Args[1]
	dir := filepath.Dir(filename)
	className := strings.TrimSuffix(filepath.Base(filename), ".class")

	logger := slog.New(slog.NewTextHandler(os.Stderr, nil))

	cfg, err := reflection.ConfigFromEnv()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	graph, bootstrap, err := bootLoader(logger)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
	userCL := vm.NewUserClassLoader(dir, bootstrap, graph)

	c, err := userCL.LoadClass(className)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error loading %s: %v\n", className, err)
		os.Exit(1)
	}

	r, err := reflection.New(graph, native.NewFactory(),
		reflection.WithConfig(cfg),
		reflection.WithLogger(logger),
		reflection.WithAccessLogger(reflection.NewSlogAccessLogger(logger)),
	)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	report(r, c, inspector(graph, bootstrap))
}

// inspector defines the class on whose behalf members are inspected. It
// lives in its own unnamed module, so it sees c the way unrelated
// classpath code would.
func inspector(graph *module.Graph, boot vm.ClassLoader) *vm.Class {
	const loader = "gojvm"
	object, _ := boot.LoadClass(vm.ObjectClass)
	return vm.NewClass(vm.ClassSpec{
		Name:        "gojvm/Inspector",
		AccessFlags: classfile.AccPublic,
		Super:       object,
	}, graph.Unnamed(loader), loader)
}

func report(r *reflection.Reflector, c *vm.Class, caller *vm.Class) {
	fmt.Printf("%s (%s), inspected from %s\n", c, c.Module, caller.Module)

	var members []reflection.Member
	for _, f := range r.DeclaredFields(c) {
		members = append(members, f)
	}
	for _, ctor := range r.DeclaredConstructors(c) {
		members = append(members, ctor)
	}
	for _, m := range r.DeclaredMethods(c) {
		members = append(members, m)
	}

	var instance *vm.JObject
	if !c.IsAbstract() && !c.IsInterface() {
		instance = vm.NewObject(c)
	}
	for _, m := range members {
		receiver := instance
		if _, ctor := m.(*reflection.Constructor); ctor || m.Modifiers()&reflection.Static != 0 {
			receiver = nil
		} else if receiver == nil {
			fmt.Printf("  %s: no instance\n", m)
			continue
		}

		canAccess, err := m.CanAccess(caller, receiver)
		if err != nil {
			fmt.Printf("  %s: %v\n", m, err)
			continue
		}
		suppressed, err := m.TrySetAccessible(caller)
		if err != nil {
			fmt.Printf("  %s: %v\n", m, err)
			continue
		}
		fmt.Printf("  %s: canAccess=%t trySetAccessible=%t\n", m, canAccess, suppressed)
	}
}
