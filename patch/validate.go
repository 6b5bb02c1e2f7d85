package patch

import (
	"fmt"
	"strings"
)

// Validate checks that every operation addresses an allowed field, either the
// member itself ("/email") or the append slot of a sequence ("/commitments/-").
func Validate(ops []Operation, allowed map[string]bool) error {
	for i, op := range ops {
		if err := validatePathAllowed(op.Path, allowed); err != nil {
			return fmt.Errorf("operation %d: %w", i, err)
		}
		switch op.Op {
		case OperationAdd, OperationReplace:
		default:
			return fmt.Errorf("operation %d: op %q is not allowed on a record", i, op.Op)
		}
	}
	return nil
}

func validatePathAllowed(path string, allowed map[string]bool) error {
	if !strings.HasPrefix(path, "/") {
		return fmt.Errorf("path %q is not a JSON pointer", path)
	}
	rest := path[1:]
	field, tail, nested := strings.Cut(rest, "/")
	name := unescapePointer(field)
	if !allowed[name] {
		return fmt.Errorf("path %q is not in the allowed paths set", path)
	}
	if nested && tail != "-" {
		return fmt.Errorf("path %q reaches inside field %q", path, name)
	}
	return nil
}
