package models

import "time"

// Offer is a promotional inventory item eligible to be written about.
// The content engine never creates, mutates or deletes offers.
type Offer struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	SiteIDs   []string  `json:"site_ids"`
	Tags      []string  `json:"tags"`
	Archived  bool      `json:"archived"`
	UpdatedAt time.Time `json:"updated_at"`
}
