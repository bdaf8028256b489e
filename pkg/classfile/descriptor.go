package classfile

import (
	"fmt"
	"strings"
)

// ParamTypes splits a method descriptor into its parameter field descriptors.
func ParamTypes(descriptor string) ([]string, error) {
	start := strings.Index(descriptor, "(")
	end := strings.Index(descriptor, ")")
	if start != 0 || end == -1 {
		return nil, fmt.Errorf("invalid method descriptor: %s", descriptor)
	}

	params := descriptor[start+1 : end]
	var types []string
	for i := 0; i < len(params); {
		n, err := fieldTypeLen(params[i:])
		if err != nil {
			return nil, fmt.Errorf("%w in %s", err, descriptor)
		}
		types = append(types, params[i:i+n])
		i += n
	}
	return types, nil
}

// ParamCount returns the number of parameters declared by a method descriptor.
func ParamCount(descriptor string) (int, error) {
	types, err := ParamTypes(descriptor)
	if err != nil {
		return 0, err
	}
	return len(types), nil
}

// ReturnType returns the return descriptor of a method descriptor.
func ReturnType(descriptor string) (string, error) {
	end := strings.Index(descriptor, ")")
	if end == -1 || end == len(descriptor)-1 {
		return "", fmt.Errorf("invalid method descriptor: %s", descriptor)
	}
	return descriptor[end+1:], nil
}

// fieldTypeLen returns the length of the leading field descriptor in s.
func fieldTypeLen(s string) (int, error) {
	i := 0
	for i < len(s) && s[i] == '[' {
		i++
	}
	if i == len(s) {
		return 0, fmt.Errorf("truncated array descriptor")
	}
	switch s[i] {
	case 'B', 'C', 'D', 'F', 'I', 'J', 'S', 'Z':
		return i + 1, nil
	case 'L':
		semi := strings.IndexByte(s[i:], ';')
		if semi == -1 {
			return 0, fmt.Errorf("unterminated class descriptor")
		}
		return i + semi + 1, nil
	default:
		return 0, fmt.Errorf("invalid type descriptor char '%c'", s[i])
	}
}

var primitiveNames = map[byte]string{
	'B': "byte",
	'C': "char",
	'D': "double",
	'F': "float",
	'I': "int",
	'J': "long",
	'S': "short",
	'Z': "boolean",
	'V': "void",
}

// TypeName renders a field descriptor the way Java source spells it,
// e.g. "[Ljava/lang/String;" becomes "java.lang.String[]".
func TypeName(descriptor string) string {
	dims := 0
	for dims < len(descriptor) && descriptor[dims] == '[' {
		dims++
	}
	elem := descriptor[dims:]
	var name string
	switch {
	case len(elem) == 1 && primitiveNames[elem[0]] != "":
		name = primitiveNames[elem[0]]
	case strings.HasPrefix(elem, "L") && strings.HasSuffix(elem, ";"):
		name = strings.ReplaceAll(elem[1:len(elem)-1], "/", ".")
	default:
		name = elem
	}
	return name + strings.Repeat("[]", dims)
}
