package domain

type ClassEntry struct {
	ID          string `json:"id"`
	Label       string `json:"label"`
	Description string `json:"description,omitempty"`
}

// MetadataCatalog is the raw class listing served by the remote model.
// It is only ever used to build a LabelRegistry and to answer the
// metadata endpoint; decisions never read it directly.
type MetadataCatalog struct {
	Crops          []ClassEntry `json:"crops"`
	Diseases       []ClassEntry `json:"diseases"`
	HealthStatuses []ClassEntry `json:"health_statuses"`
}
