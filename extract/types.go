package extract

import (
	"context"

	"github.com/tbxark/loanagent/types"
)

// Extractor pulls the value of a single field out of free text. ok is false when
// the text does not contain the field.
type Extractor interface {
	Extract(ctx context.Context, req *types.ExtractRequest) (value string, ok bool, err error)
}

// Func adapts a plain function to Extractor.
type Func func(ctx context.Context, req *types.ExtractRequest) (string, bool, error)

func (f Func) Extract(ctx context.Context, req *types.ExtractRequest) (string, bool, error) {
	return f(ctx, req)
}
