package native

import (
	"fmt"
	"io"

	"github.com/kangjianwei/LearningJDK-sub038/pkg/vm"
)

// PrintStream is the Go state behind a java.io.PrintStream instance.
type PrintStream struct {
	Writer io.Writer
}

// NewPrintStream creates a java.io.PrintStream instance of class c that
// writes to w.
func NewPrintStream(c *vm.Class, w io.Writer) *vm.JObject {
	obj := vm.NewObject(c)
	obj.Native = &PrintStream{Writer: w}
	return obj
}

// Println prints a value followed by a newline.
func (ps *PrintStream) Println(args ...vm.Value) {
	if len(args) == 0 {
		fmt.Fprintln(ps.Writer)
		return
	}
	arg := args[0]
	if obj, ok := arg.Ref.(*vm.JObject); ok && obj.Class.Name == vm.IntegerClass {
		fmt.Fprintln(ps.Writer, IntegerIntValue(obj))
		return
	}
	fmt.Fprintln(ps.Writer, arg)
}
