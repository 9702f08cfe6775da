package domain

// Manifest is the metadata projection parsed from a .leaf file. All scalar
// fields are optional; a nil pointer means the key was never declared, which
// is distinct from an empty value.
type Manifest struct {
	Name         *string  `json:"name,omitempty"`
	Version      *string  `json:"version,omitempty"`
	Description  *string  `json:"description,omitempty"`
	Author       *string  `json:"author,omitempty"`
	License      *string  `json:"license,omitempty"`
	Repository   *string  `json:"repository,omitempty"`
	Homepage     *string  `json:"homepage,omitempty"`
	Files        []string `json:"files,omitempty"`
	Dependencies []string `json:"dependencies,omitempty"`
	Raw          string   `json:"-"`
}
