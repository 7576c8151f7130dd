package query

// Type classifies what a user utterance is asking for.
type Type string

// The closed set of query types. LIST, LOCATION and PHOTO are answerable
// straight from the database; the rest need a generation call for the
// final answer.
const (
	TypeList      Type = "LIST"      // "What plants do I have?"
	TypeLocation  Type = "LOCATION"  // "Where is my tomato?"
	TypePhoto     Type = "PHOTO"     // "Show me my roses"
	TypeCare      Type = "CARE"      // "How do I water my basil?"
	TypeDiagnosis Type = "DIAGNOSIS" // "Why are my leaves yellow?"
	TypeAdvice    Type = "ADVICE"    // "How do I prune my roses?"
	TypeGeneral   Type = "GENERAL"   // Everything else
)

var validTypes = map[Type]bool{
	TypeList:      true,
	TypeLocation:  true,
	TypePhoto:     true,
	TypeCare:      true,
	TypeDiagnosis: true,
	TypeAdvice:    true,
	TypeGeneral:   true,
}

// Valid reports whether t is one of the enumerated query types.
func (t Type) Valid() bool {
	return validTypes[t]
}

// RequiresGeneration reports whether answering a query of this type needs
// a language-generation call. This is the only place the direct vs.
// generation-required partition is defined.
func (t Type) RequiresGeneration() bool {
	switch t {
	case TypeCare, TypeDiagnosis, TypeAdvice, TypeGeneral:
		return true
	}
	return false
}

// Classification is the structured result of analyzing an utterance.
type Classification struct {
	QueryType       Type     `json:"query_type"`
	PlantReferences []string `json:"plant_references"`
	Confidence      float64  `json:"confidence"`
	Reasoning       string   `json:"reasoning,omitempty"`
}

// RequiresGeneration is derived from the query type; it is never stored
// independently.
func (c Classification) RequiresGeneration() bool {
	return c.QueryType.RequiresGeneration()
}
