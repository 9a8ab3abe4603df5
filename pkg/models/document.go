package models

import "time"

// Document is a free-form knowledge record with its own DOC-{n} ID
// namespace. The body is opaque to the store apart from the title heading.
type Document struct {
	ID           string
	Title        string
	Type         string
	CreatedDate  string
	UpdatedDate  string
	Body         string
	FilePath     string
	LastModified time.Time
}

// DecisionSection names one of the fixed body sections of a decision record.
type DecisionSection string

const (
	SectionContext      DecisionSection = "Context"
	SectionDecision     DecisionSection = "Decision"
	SectionConsequences DecisionSection = "Consequences"
	SectionAlternatives DecisionSection = "Alternatives"
)

// DecisionSections lists the fixed sections in emission order.
var DecisionSections = []DecisionSection{
	SectionContext,
	SectionDecision,
	SectionConsequences,
	SectionAlternatives,
}

// Decision is an architecture-decision record with a DECISION-{n} ID
// namespace and a fixed set of named sections, each independently
// round-trippable.
type Decision struct {
	ID           string
	Title        string
	Status       string
	CreatedDate  string
	Context      string
	Decision     string
	Consequences string
	Alternatives string
	FilePath     string
	LastModified time.Time
}
