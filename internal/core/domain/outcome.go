package domain

// OutcomeKind tags the closed set of terminal states a prediction can
// resolve to. Exactly one arm of Outcome is populated per kind.
type OutcomeKind string

const (
	OutcomeUnsupported OutcomeKind = "unsupported"
	OutcomeHealthy     OutcomeKind = "healthy"
	OutcomeDiseased    OutcomeKind = "diseased"
	OutcomeIncomplete  OutcomeKind = "incomplete"
)

type UnsupportedReason string

const (
	ReasonDomainMismatch UnsupportedReason = "domain-mismatch"
	ReasonLowConfidence  UnsupportedReason = "low-confidence"
)

type UnsupportedOutcome struct {
	Reason UnsupportedReason `json:"reason"`
}

type HealthyOutcome struct {
	CropDisplay DisplayInfo `json:"crop"`
	Confidence  float64     `json:"confidence"`
	// Ambiguous is advisory only: shown as a disclaimer, never blocking.
	Ambiguous bool `json:"ambiguous"`
}

type DiseasedOutcome struct {
	CropDisplay       DisplayInfo `json:"crop"`
	DiseaseDisplay    DisplayInfo `json:"disease"`
	HealthConfidence  float64     `json:"health_confidence"`
	DiseaseConfidence float64     `json:"disease_confidence"`
	Ambiguous         bool        `json:"ambiguous"`
}

// IncompleteOutcome marks a backend contract violation at the business
// level: the service asserted "diseased" but sent no disease payload, or
// crop data was missing. It is a data-quality outcome, not an error, and
// renders as its own state rather than being coerced into healthy or
// diseased.
type IncompleteOutcome struct {
	Cause string `json:"cause"`
}

type Outcome struct {
	Kind        OutcomeKind         `json:"kind"`
	Unsupported *UnsupportedOutcome `json:"unsupported,omitempty"`
	Healthy     *HealthyOutcome     `json:"healthy,omitempty"`
	Diseased    *DiseasedOutcome    `json:"diseased,omitempty"`
	Incomplete  *IncompleteOutcome  `json:"incomplete,omitempty"`
}

func newUnsupported(reason UnsupportedReason) Outcome {
	return Outcome{Kind: OutcomeUnsupported, Unsupported: &UnsupportedOutcome{Reason: reason}}
}

func newHealthy(crop DisplayInfo, confidence float64, ambiguous bool) Outcome {
	return Outcome{Kind: OutcomeHealthy, Healthy: &HealthyOutcome{
		CropDisplay: crop,
		Confidence:  confidence,
		Ambiguous:   ambiguous,
	}}
}

func newDiseased(crop, disease DisplayInfo, healthConf, diseaseConf float64, ambiguous bool) Outcome {
	return Outcome{Kind: OutcomeDiseased, Diseased: &DiseasedOutcome{
		CropDisplay:       crop,
		DiseaseDisplay:    disease,
		HealthConfidence:  healthConf,
		DiseaseConfidence: diseaseConf,
		Ambiguous:         ambiguous,
	}}
}

func newIncomplete(cause string) Outcome {
	return Outcome{Kind: OutcomeIncomplete, Incomplete: &IncompleteOutcome{Cause: cause}}
}
