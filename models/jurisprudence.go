package models

// JurisprudenceEntry is one case summary returned by the case-law search.
type JurisprudenceEntry struct {
	Title   string `json:"title"`
	Link    string `json:"link"`
	Summary string `json:"summary"`
}
