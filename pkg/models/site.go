package models

import "time"

// Site is a row of the sites collection.
// SiteID is optional; when empty the row's own ID is the site identifier.
type Site struct {
	ID           string    `json:"id"`
	SiteID       *string   `json:"site_id,omitempty"`
	DisplayName  string    `json:"display_name"`
	BlogsEnabled bool      `json:"blogs_enabled"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

// EffectiveID returns the explicit site identifier, falling back to the row ID.
func (s *Site) EffectiveID() string {
	if s.SiteID != nil && *s.SiteID != "" {
		return *s.SiteID
	}
	return s.ID
}

// SiteFeatures holds per-site feature flags.
type SiteFeatures struct {
	Blogs bool `json:"blogs" yaml:"blogs"`
}

// SiteConfig is the per-site generation configuration, read from the
// sites config directory and cached for the lifetime of the process.
type SiteConfig struct {
	SiteID       string       `json:"siteId" yaml:"siteId"`
	DisplayName  string       `json:"displayName" yaml:"displayName"`
	Features     SiteFeatures `json:"features" yaml:"features"`
	Persona      string       `json:"persona" yaml:"persona"`
	Pain         string       `json:"pain" yaml:"pain"`
	TemplateName string       `json:"templateName" yaml:"templateName"`
	Timezone     string       `json:"timezone,omitempty" yaml:"timezone,omitempty"`
}
