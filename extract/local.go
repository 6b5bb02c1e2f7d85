package extract

import (
	"context"
	"strings"

	"github.com/tbxark/loanagent/types"
)

// LocalExtractor treats the whole answer as the field value. It works offline and
// serves deployments that run without a model.
type LocalExtractor struct {
	DeclineKeywords []string
}

func NewLocalExtractor() *LocalExtractor {
	return &LocalExtractor{
		DeclineKeywords: []string{"none", "null", "n/a", "na", "skip", "pass", "-"},
	}
}

func (e *LocalExtractor) Extract(ctx context.Context, req *types.ExtractRequest) (string, bool, error) {
	value := strings.TrimSpace(req.Answer)
	if IsAbsentText(value, e.DeclineKeywords...) {
		return "", false, nil
	}
	return value, true, nil
}

// IsAbsentText reports whether an extracted value means "nothing found".
func IsAbsentText(value string, extra ...string) bool {
	normalized := strings.ToLower(strings.TrimSpace(value))
	if normalized == "" || normalized == "none" || normalized == "null" {
		return true
	}
	for _, keyword := range extra {
		if normalized == keyword {
			return true
		}
	}
	return false
}

// New returns the extractor a deployment should hand to the engine. A configured
// model is used alone, so its failures reach the engine and the question is
// asked again instead of the raw answer being stored.
func New(model Extractor) Extractor {
	if model == nil {
		return NewLocalExtractor()
	}
	return model
}
