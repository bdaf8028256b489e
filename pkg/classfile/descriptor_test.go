package classfile

import (
	"testing"

	"github.com/google/go-cmp/cmp"
)

func TestParamTypes(t *testing.T) {
	tests := []struct {
		desc string
		want []string
	}{
		{"()V", nil},
		{"(I)V", []string{"I"}},
		{"(IJ)I", []string{"I", "J"}},
		{"(Ljava/lang/String;I)V", []string{"Ljava/lang/String;", "I"}},
		{"([I[[Ljava/lang/Object;Z)V", []string{"[I", "[[Ljava/lang/Object;", "Z"}},
	}
	for _, tt := range tests {
		t.Run(tt.desc, func(t *testing.T) {
			got, err := ParamTypes(tt.desc)
			if err != nil {
				t.Fatalf("ParamTypes(%q): %v", tt.desc, err)
			}
			if diff := cmp.Diff(tt.want, got); diff != "" {
				t.Errorf("ParamTypes(%q) mismatch (-want +got):\n%s", tt.desc, diff)
			}
			n, _ := ParamCount(tt.desc)
			if n != len(tt.want) {
				t.Errorf("ParamCount(%q): got %d, want %d", tt.desc, n, len(tt.want))
			}
		})
	}
}

func TestParamTypesInvalid(t *testing.T) {
	for _, desc := range []string{"I", "(Ljava/lang/String", "(Q)V", "([)V"} {
		if _, err := ParamTypes(desc); err == nil {
			t.Errorf("ParamTypes(%q): expected error, got nil", desc)
		}
	}
}

func TestReturnType(t *testing.T) {
	got, err := ReturnType("(I)Ljava/lang/String;")
	if err != nil {
		t.Fatalf("ReturnType: %v", err)
	}
	if got != "Ljava/lang/String;" {
		t.Errorf("ReturnType: got %q, want %q", got, "Ljava/lang/String;")
	}
	if _, err := ReturnType("(I)"); err == nil {
		t.Error("expected error for missing return type")
	}
}

func TestTypeName(t *testing.T) {
	tests := map[string]string{
		"I":                  "int",
		"Z":                  "boolean",
		"V":                  "void",
		"Ljava/lang/String;": "java.lang.String",
		"[I":                 "int[]",
		"[[Ljava/util/List;": "java.util.List[][]",
	}
	for desc, want := range tests {
		if got := TypeName(desc); got != want {
			t.Errorf("TypeName(%q): got %q, want %q", desc, got, want)
		}
	}
}
