package domain

// WhitelistGate selects what the domain gate does when no trained-crop
// whitelist is available (metadata never fetched or fetch failed).
type WhitelistGate string

const (
	// GateFailOpen lets otherwise-valid predictions through without a
	// whitelist; only the confidence floor still gates. This matches the
	// deployed behavior and is the default.
	GateFailOpen WhitelistGate = "fail-open"
	// GateFailClosed treats a missing whitelist as a domain mismatch.
	// Stricter deployments opt in via the policy file.
	GateFailClosed WhitelistGate = "fail-closed"
)

// DecisionPolicy carries the tunable constants of the decision engine.
// MinDisplayConfidence and AmbiguityThreshold serve different purposes
// (display-quality floor vs. advisory disclaimer band) and are deliberately
// independent values, never derived from one another.
type DecisionPolicy struct {
	MinDisplayConfidence float64       `yaml:"min_display_confidence"`
	AmbiguityThreshold   float64       `yaml:"ambiguity_threshold"`
	WhitelistGate        WhitelistGate `yaml:"whitelist_gate"`
	SentinelLabel        string        `yaml:"sentinel_label"`
}

func DefaultDecisionPolicy() DecisionPolicy {
	return DecisionPolicy{
		MinDisplayConfidence: 0.55,
		AmbiguityThreshold:   0.98,
		WhitelistGate:        GateFailOpen,
		SentinelLabel:        "NON_CROP",
	}
}

// Normalize fills zero or out-of-range fields with defaults so a partially
// specified policy file cannot disable the gates by accident.
func (p DecisionPolicy) Normalize() DecisionPolicy {
	def := DefaultDecisionPolicy()
	out := p
	if out.MinDisplayConfidence <= 0 || out.MinDisplayConfidence > 1 {
		out.MinDisplayConfidence = def.MinDisplayConfidence
	}
	if out.AmbiguityThreshold <= 0 || out.AmbiguityThreshold > 1 {
		out.AmbiguityThreshold = def.AmbiguityThreshold
	}
	if out.WhitelistGate != GateFailClosed {
		out.WhitelistGate = GateFailOpen
	}
	if out.SentinelLabel == "" {
		out.SentinelLabel = def.SentinelLabel
	}
	return out
}

// Resolve maps one validated prediction to exactly one terminal outcome.
// The evaluation order is the tie-break policy and must not be reordered:
//
//  1. domain gate: sentinel label / non-crop status, then the trained-crop
//     whitelist when one is available;
//  2. display-quality floor on crop confidence;
//  3. healthy short-circuit (disease payload is never inspected for a
//     healthy prediction);
//  4. diseased with payload, else incomplete.
//
// Resolve never errors: inconsistencies in already-validated data are
// data-quality outcomes. Confidences pass through untouched; clamping and
// rounding happen at the formatting boundary.
func Resolve(pred PredictionResult, registry *LabelRegistry, policy DecisionPolicy) Outcome {
	policy = policy.Normalize()

	cropLabel := pred.Crop.Label
	if NormalizeLabel(cropLabel) == "" {
		return newIncomplete("crop payload missing")
	}

	if isDomainMismatch(pred, registry, policy) {
		return newUnsupported(ReasonDomainMismatch)
	}

	if pred.Crop.Confidence < policy.MinDisplayConfidence {
		return newUnsupported(ReasonLowConfidence)
	}

	cropDisplay := registry.Lookup(CollectionCrops, cropLabel)
	ambiguous := pred.Crop.Confidence < policy.AmbiguityThreshold

	if pred.Health.Status == HealthHealthy {
		return newHealthy(cropDisplay, pred.Crop.Confidence, ambiguous)
	}

	if pred.Disease == nil {
		return newIncomplete("diseased without disease payload")
	}

	diseaseDisplay := registry.Lookup(CollectionDiseases, pred.Disease.Label)
	return newDiseased(cropDisplay, diseaseDisplay, pred.Health.Probability, pred.Disease.Confidence, ambiguous)
}

func isDomainMismatch(pred PredictionResult, registry *LabelRegistry, policy DecisionPolicy) bool {
	if NormalizeLabel(pred.Crop.Label) == NormalizeLabel(policy.SentinelLabel) {
		return true
	}
	if pred.Health.Status == HealthNonCrop {
		return true
	}
	if registry.HasWhitelist() {
		return !registry.IsTrainedCrop(pred.Crop.Label)
	}
	return policy.WhitelistGate == GateFailClosed
}
