package domain

import "strings"

// LabelCollection names one of the three lookup tables in a LabelRegistry.
type LabelCollection string

const (
	CollectionCrops          LabelCollection = "crops"
	CollectionDiseases       LabelCollection = "diseases"
	CollectionHealthStatuses LabelCollection = "health_statuses"
)

type DisplayInfo struct {
	DisplayName string `json:"display_name"`
	Description string `json:"description,omitempty"`
}

// LabelRegistry holds normalized-label lookups derived from a
// MetadataCatalog, plus the set of crop labels the deployed model was
// trained on. A registry is immutable after construction; callers swap in
// a freshly built one when the catalog changes rather than mutating in
// place. All methods are nil-safe so code paths that never obtained a
// catalog (metadata fetch failed, offline mode) keep working fail-open.
type LabelRegistry struct {
	crops          map[string]DisplayInfo
	diseases       map[string]DisplayInfo
	healthStatuses map[string]DisplayInfo
	trainedCrops   map[string]struct{}
}

// NewLabelRegistry builds all lookup tables from the catalog. Two raw
// labels that normalize to the same key collapse into one entry,
// last write wins.
func NewLabelRegistry(catalog MetadataCatalog) *LabelRegistry {
	reg := &LabelRegistry{
		crops:          buildLookup(catalog.Crops),
		diseases:       buildLookup(catalog.Diseases),
		healthStatuses: buildLookup(catalog.HealthStatuses),
		trainedCrops:   make(map[string]struct{}, len(catalog.Crops)),
	}
	for _, entry := range catalog.Crops {
		key := NormalizeLabel(entry.Label)
		if key == "" {
			continue
		}
		reg.trainedCrops[key] = struct{}{}
	}
	return reg
}

func buildLookup(entries []ClassEntry) map[string]DisplayInfo {
	lookup := make(map[string]DisplayInfo, len(entries))
	for _, entry := range entries {
		key := NormalizeLabel(entry.Label)
		if key == "" {
			continue
		}
		lookup[key] = DisplayInfo{
			DisplayName: entry.Label,
			Description: entry.Description,
		}
	}
	return lookup
}

// NormalizeLabel reduces a raw label to its lookup key: lower-case with
// runs of whitespace, underscores and hyphens collapsed to single spaces.
func NormalizeLabel(raw string) string {
	mapped := strings.Map(func(r rune) rune {
		switch r {
		case '_', '-':
			return ' '
		default:
			return r
		}
	}, strings.ToLower(raw))
	return strings.Join(strings.Fields(mapped), " ")
}

// Lookup resolves a raw label against one collection. Enrichment is
// best-effort: on a miss (or a nil registry) it falls back to a display
// name generated from the raw label instead of failing.
func (r *LabelRegistry) Lookup(collection LabelCollection, rawLabel string) DisplayInfo {
	if r != nil {
		if info, ok := r.table(collection)[NormalizeLabel(rawLabel)]; ok {
			return info
		}
	}
	return DisplayInfo{DisplayName: fallbackDisplayName(rawLabel)}
}

// IsTrainedCrop reports whitelist membership for a raw crop label. It is
// false for empty or unknown input and always false when the registry has
// no whitelist.
func (r *LabelRegistry) IsTrainedCrop(rawLabel string) bool {
	if r == nil || len(r.trainedCrops) == 0 {
		return false
	}
	key := NormalizeLabel(rawLabel)
	if key == "" {
		return false
	}
	_, ok := r.trainedCrops[key]
	return ok
}

// HasWhitelist is true only when the registry was built from a non-empty
// crop collection. When false, domain gating must not block predictions;
// the confidence floor is the only remaining gate.
func (r *LabelRegistry) HasWhitelist() bool {
	return r != nil && len(r.trainedCrops) > 0
}

func (r *LabelRegistry) table(collection LabelCollection) map[string]DisplayInfo {
	switch collection {
	case CollectionCrops:
		return r.crops
	case CollectionDiseases:
		return r.diseases
	case CollectionHealthStatuses:
		return r.healthStatuses
	default:
		return nil
	}
}

// TrainedCrops lists display names for the whitelist entries. Order is
// not guaranteed; callers that need stable output sort it themselves.
func (r *LabelRegistry) TrainedCrops() []string {
	if r == nil {
		return nil
	}
	out := make([]string, 0, len(r.trainedCrops))
	for key := range r.trainedCrops {
		if info, ok := r.crops[key]; ok {
			out = append(out, info.DisplayName)
			continue
		}
		out = append(out, fallbackDisplayName(key))
	}
	return out
}

func fallbackDisplayName(raw string) string {
	words := strings.Fields(strings.NewReplacer("_", " ", "-", " ").Replace(raw))
	for i, word := range words {
		runes := []rune(word)
		words[i] = strings.ToUpper(string(runes[:1])) + strings.ToLower(string(runes[1:]))
	}
	return strings.Join(words, " ")
}
