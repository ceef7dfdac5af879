package models

type Theme struct {
	ID   int    `json:"id"`
	Name string `json:"name"`
}

// Set is a catalog entry keyed by its manufacturer set number.
type Set struct {
	SetNum   string `json:"set_num"`
	Name     string `json:"name"`
	Year     int    `json:"year"`
	NumParts int    `json:"num_parts"`
	ThemeID  int    `json:"theme_id"`
	ImgURL   string `json:"img_url"`

	// Populated on reads.
	Theme *Theme `json:"theme,omitempty"`
}

// SetInput carries the writable fields of a Set.
type SetInput struct {
	SetNum   string
	Name     string
	Year     int
	NumParts int
	ThemeID  int
	ImgURL   string
}
