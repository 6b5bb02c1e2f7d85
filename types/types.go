package types

type Phase string

const (
	PhaseCollecting Phase = "collecting"
	PhaseCompleted  Phase = "completed"
)

type FieldKind string

const (
	KindScalar     FieldKind = "scalar"
	KindCompound   FieldKind = "compound"
	KindRepeatable FieldKind = "repeatable"
)

type FieldInfo struct {
	Name        string    `json:"name" yaml:"name"`
	DisplayName string    `json:"display_name,omitempty" yaml:"display_name,omitempty"`
	Description string    `json:"description,omitempty" yaml:"description,omitempty"`
	Kind        FieldKind `json:"kind" yaml:"kind"`
	// Spill names the field a compound field fills from the remaining tokens.
	Spill    string `json:"spill,omitempty" yaml:"spill,omitempty"`
	Question string `json:"question,omitempty" yaml:"question,omitempty"`
}

// Label returns the display name, falling back to the field name.
func (f FieldInfo) Label() string {
	if f.DisplayName != "" {
		return f.DisplayName
	}
	return f.Name
}
