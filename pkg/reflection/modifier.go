package reflection

import (
	"strings"

	"github.com/kangjianwei/LearningJDK-sub038/pkg/classfile"
)

// Modifier flags of reflected members, as in java.lang.reflect.Modifier.
const (
	Public       = classfile.AccPublic
	Private      = classfile.AccPrivate
	Protected    = classfile.AccProtected
	Static       = classfile.AccStatic
	Final        = classfile.AccFinal
	Synchronized = classfile.AccSynchronized
	Volatile     = classfile.AccVolatile
	Transient    = classfile.AccTransient
	Native       = classfile.AccNative
	Interface    = classfile.AccInterface
	Abstract     = classfile.AccAbstract
	Strict       = classfile.AccStrict
)

// Modifiers a member of each kind can carry. Access flags outside the mask
// (bridge, varargs, synthetic) are not modifiers.
const (
	fieldModifiers       = Public | Protected | Private | Static | Final | Transient | Volatile
	methodModifiers      = Public | Protected | Private | Abstract | Static | Final | Synchronized | Native | Strict
	constructorModifiers = Public | Protected | Private
)

var modifierNames = []struct {
	flag uint16
	name string
}{
	{Public, "public"},
	{Protected, "protected"},
	{Private, "private"},
	{Abstract, "abstract"},
	{Static, "static"},
	{Final, "final"},
	{Transient, "transient"},
	{Volatile, "volatile"},
	{Synchronized, "synchronized"},
	{Native, "native"},
	{Strict, "strictfp"},
	{Interface, "interface"},
}

// ModifierString renders mod in canonical Java order, e.g. "private static final".
func ModifierString(mod uint16) string {
	var parts []string
	for _, m := range modifierNames {
		if mod&m.flag != 0 {
			parts = append(parts, m.name)
		}
	}
	return strings.Join(parts, " ")
}

func isPublic(mod uint16) bool    { return mod&Public != 0 }
func isPrivate(mod uint16) bool   { return mod&Private != 0 }
func isProtected(mod uint16) bool { return mod&Protected != 0 }
func isStatic(mod uint16) bool    { return mod&Static != 0 }
