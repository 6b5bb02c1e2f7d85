package types

// ExtractRequest is what the extraction collaborator sees for a single turn.
type ExtractRequest struct {
	Field    FieldInfo
	Question string
	Answer   string
	// Record is a read-only view of the values collected so far; may be nil.
	Record *Record
}
