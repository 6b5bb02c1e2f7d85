package patch

import (
	"sort"

	"github.com/tbxark/loanagent/types"
)

// Diff returns the operations that copy initial's values into the fields that are
// still absent in current. Fields current already holds are left alone; a prefill
// never edits an answer.
func Diff(current, initial *types.Record) []Operation {
	ops := make([]Operation, 0)
	if initial == nil {
		return ops
	}
	for _, name := range initial.Fields() {
		v := initial.Get(name)
		if isZeroValue(v) {
			continue
		}
		if current.Has(name) && !current.IsAbsent(name) {
			continue
		}
		op := Operation{Op: OperationAdd, Path: Pointer(name)}
		if current.Has(name) {
			op.Op = OperationReplace
		}
		if v.Kind() == types.ValueSequence {
			op.Value = v.Items()
		} else {
			op.Value = v.Text()
		}
		ops = append(ops, op)
	}
	return ops
}

// FromStrings builds a record from a flat map, the shape prefill values arrive in
// over HTTP and config.
// Names outside fields are kept so validation can reject them.
func FromStrings(fields []string, values map[string]string) *types.Record {
	known := make(map[string]bool, len(fields))
	for _, name := range fields {
		known[name] = true
	}
	all := append([]string{}, fields...)
	extra := make([]string, 0)
	for name := range values {
		if !known[name] {
			extra = append(extra, name)
		}
	}
	sort.Strings(extra)
	rec := types.NewRecord(append(all, extra...)...)
	for name, v := range values {
		_ = rec.Set(name, types.Scalar(v))
	}
	return rec
}

func isZeroValue(v types.Value) bool {
	switch v.Kind() {
	case types.ValueScalar:
		return v.Text() == ""
	case types.ValueSequence:
		return len(v.Items()) == 0
	default:
		return true
	}
}
