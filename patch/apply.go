package patch

import (
	"encoding/json"
	"fmt"
	"strings"

	jsonpatch "github.com/evanphx/json-patch/v5"
	"github.com/tbxark/loanagent/types"
)

// Apply runs ops against rec and returns the patched copy. Members the patch
// introduces outside the record's field set are dropped.
func Apply(rec *types.Record, ops []Operation) (*types.Record, error) {
	if len(ops) == 0 {
		return rec.Clone(), nil
	}

	currentJSON, err := json.Marshal(rec)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal record: %w", err)
	}

	ops = FixOperations(rec, ops)

	patchJSON, err := json.Marshal(ops)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal patch operations: %w", err)
	}

	p, err := jsonpatch.DecodePatch(patchJSON)
	if err != nil {
		return nil, fmt.Errorf("failed to decode patch: %w", err)
	}

	modifiedJSON, err := p.Apply(currentJSON)
	if err != nil {
		return nil, fmt.Errorf("failed to apply patch: %w", err)
	}

	var values map[string]types.Value
	if err := json.Unmarshal(modifiedJSON, &values); err != nil {
		return nil, fmt.Errorf("patched record is not a valid record: %w", err)
	}

	out := types.NewRecord(rec.Fields()...)
	for _, name := range out.Fields() {
		if err := out.Set(name, values[name]); err != nil {
			return nil, err
		}
	}
	return out, nil
}

// FixOperations turns replace into add and drops remove when the target member
// does not exist yet, so models and callers need not track which fields were
// ever written.
func FixOperations(rec *types.Record, ops []Operation) []Operation {
	fixed := make([]Operation, 0, len(ops))
	for _, op := range ops {
		exists := rec.Has(FieldName(op.Path))
		switch op.Op {
		case OperationReplace:
			if !exists {
				op.Op = OperationAdd
			}
			fixed = append(fixed, op)
		case OperationRemove:
			if exists {
				fixed = append(fixed, op)
			}
		default:
			fixed = append(fixed, op)
		}
	}
	return fixed
}

// FieldName returns the record field a pointer addresses: "/commitments/-" is
// "commitments".
func FieldName(path string) string {
	if !strings.HasPrefix(path, "/") {
		return ""
	}
	token := strings.SplitN(path[1:], "/", 2)[0]
	return unescapePointer(token)
}

// Pointer returns the JSON pointer of a record field.
func Pointer(field string) string {
	return "/" + escapePointer(field)
}

func escapePointer(token string) string {
	token = strings.ReplaceAll(token, "~", "~0")
	return strings.ReplaceAll(token, "/", "~1")
}

func unescapePointer(token string) string {
	token = strings.ReplaceAll(token, "~1", "/")
	return strings.ReplaceAll(token, "~0", "~")
}
