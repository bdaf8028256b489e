package classfile_test

import (
	"bytes"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/kangjianwei/LearningJDK-sub038/pkg/classfile"
	"github.com/kangjianwei/LearningJDK-sub038/pkg/testsupport"
)

func TestParseClassFile(t *testing.T) {
	b := testsupport.NewClass("p/Counter").
		WithInterfaces("java/lang/Runnable").
		WithField(classfile.AccPrivate, "count", "I").
		WithField(classfile.AccProtected|classfile.AccStatic|classfile.AccFinal, "LIMIT", "J").
		WithMethod(classfile.AccPublic, "<init>", "()V").
		WithMethod(classfile.AccPublic, "run", "()V").
		WithMethod(classfile.AccPrivate|classfile.AccStatic, "add", "(IJ)I")

	cf, err := classfile.Parse(bytes.NewReader(b.Bytes()))
	if err != nil {
		t.Fatalf("failed to parse p/Counter: %v", err)
	}

	// メジャーバージョンの検証 (Java 17 = 61)
	if cf.MajorVersion != 61 {
		t.Errorf("major version: got %d, want 61", cf.MajorVersion)
	}

	className, err := cf.ClassName()
	if err != nil {
		t.Fatalf("resolving this_class: %v", err)
	}
	if className != "p/Counter" {
		t.Errorf("this_class: got %q, want %q", className, "p/Counter")
	}
	if got := cf.SuperClassName(); got != "java/lang/Object" {
		t.Errorf("super_class: got %q, want %q", got, "java/lang/Object")
	}

	ifaces, err := cf.InterfaceNames()
	if err != nil {
		t.Fatalf("resolving interfaces: %v", err)
	}
	if diff := cmp.Diff([]string{"java/lang/Runnable"}, ifaces); diff != "" {
		t.Errorf("interfaces mismatch (-want +got):\n%s", diff)
	}

	limit := cf.FindField("LIMIT")
	if limit == nil {
		t.Fatal("field LIMIT not found")
	}
	if limit.AccessFlags != classfile.AccProtected|classfile.AccStatic|classfile.AccFinal {
		t.Errorf("LIMIT flags: got 0x%04x", limit.AccessFlags)
	}

	add := cf.FindMethod("add", "(IJ)I")
	if add == nil {
		t.Fatal("method add not found")
	}
	if add.AccessFlags&classfile.AccPrivate == 0 {
		t.Error("add should be private")
	}

	ctor := cf.FindMethod("<init>", "()V")
	if ctor == nil || !ctor.IsConstructor() {
		t.Fatal("constructor not found")
	}
	if cf.IsModuleInfo() {
		t.Error("ordinary class reported as module-info")
	}
}

func TestParseNestAttributes(t *testing.T) {
	host := testsupport.Parse(t, testsupport.NewClass("p/Outer").WithNestMembers("p/Outer$Inner", "p/Outer$Other"))
	if diff := cmp.Diff([]string{"p/Outer$Inner", "p/Outer$Other"}, host.NestMembers); diff != "" {
		t.Errorf("nest members mismatch (-want +got):\n%s", diff)
	}
	if host.NestHost != "" {
		t.Errorf("host NestHost: got %q, want empty", host.NestHost)
	}

	inner := testsupport.Parse(t, testsupport.NewClass("p/Outer$Inner").WithNestHost("p/Outer"))
	if inner.NestHost != "p/Outer" {
		t.Errorf("inner NestHost: got %q, want %q", inner.NestHost, "p/Outer")
	}
}

func TestParseModuleInfo(t *testing.T) {
	cf := testsupport.Parse(t, testsupport.NewModuleInfo(testsupport.ModuleSpec{
		Name: "com.example.b",
		Exports: []testsupport.Directive{
			{Package: "com.example.b.api"},
			{Package: "com.example.b.spi", To: []string{"com.example.a"}},
		},
		Opens: []testsupport.Directive{
			{Package: "com.example.b.impl", To: []string{"com.example.a", "com.example.c"}},
		},
	}))

	if !cf.IsModuleInfo() {
		t.Fatal("module-info not recognised")
	}
	want := &classfile.ModuleAttribute{
		Name: "com.example.b",
		Exports: []classfile.PackageDirective{
			{Package: "com.example.b.api"},
			{Package: "com.example.b.spi", To: []string{"com.example.a"}},
		},
		Opens: []classfile.PackageDirective{
			{Package: "com.example.b.impl", To: []string{"com.example.a", "com.example.c"}},
		},
	}
	if diff := cmp.Diff(want, cf.Module); diff != "" {
		t.Errorf("module attribute mismatch (-want +got):\n%s", diff)
	}
	if cf.Module.IsOpen() {
		t.Error("module should not be open")
	}

	open := testsupport.Parse(t, testsupport.NewModuleInfo(testsupport.ModuleSpec{Name: "m.open", Open: true}))
	if !open.Module.IsOpen() {
		t.Error("open module not flagged as open")
	}
}

func TestParseInvalidMagic(t *testing.T) {
	_, err := classfile.ParseBytes([]byte{0xCA, 0xFE, 0xBA, 0xBF, 0, 0, 0, 61})
	if err == nil {
		t.Fatal("expected error for invalid magic number, got nil")
	}
}

func TestParseTruncated(t *testing.T) {
	data := testsupport.NewClass("p/A").WithField(classfile.AccPublic, "x", "I").Bytes()
	for _, n := range []int{10, len(data) / 2, len(data) - 1} {
		if _, err := classfile.ParseBytes(data[:n]); err == nil {
			t.Errorf("parsing %d of %d bytes: expected error, got nil", n, len(data))
		}
	}
}
