// Package api holds the versioned wire types shared by the snapshot store
// and the report exporters.
package api

// SnapshotVersion tags the on-disk snapshot layout. Bump on any change to the
// descriptor record shape.
const SnapshotVersion = "v1"

// Record is the serialized form of one attribute descriptor, keyed by
// normalized address and source.
type Record struct {
	Path            string            `json:"path"`
	Source          string            `json:"source"`
	FoundTypes      []string          `json:"foundTypes"`
	DescriptiveType string            `json:"descriptiveType,omitempty"`
	Description     string            `json:"description,omitempty"`
	Unique          *bool             `json:"unique,omitempty"`
	Default         any               `json:"default,omitempty"`
	Examples        []any             `json:"examples,omitempty"`
	Regex           string            `json:"regex,omitempty"`
	Extra           map[string]string `json:"extra,omitempty"`

	// Value is only set on enriched-tree exports, where a record stands for a
	// concrete leaf node rather than an inferred descriptor.
	Value any `json:"value,omitempty"`
}

// Frame is the JSON-LD export envelope: a context plus one record per
// descriptor.
type Frame struct {
	Context map[string]string `json:"@context"`
	Name    string            `json:"name"`
	Records []Record          `json:"records"`
}

// DefaultContext maps the exported field names onto a shared vocabulary so
// models from different tools stay comparable.
func DefaultContext() map[string]string {
	return map[string]string{
		"path":            "https://schema.org/identifier",
		"foundTypes":      "https://schema.org/additionalType",
		"descriptiveType": "@type",
		"unique":          "https://schema.org/valueRequired",
		"default":         "https://schema.org/defaultValue",
		"description":     "https://schema.org/description",
		"examples":        "https://schema.org/Thing",
		"regex":           "https://schema.org/valuePattern",
		"value":           "https://schema.org/value",
	}
}
