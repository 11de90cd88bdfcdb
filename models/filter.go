package models

// FilterAll — сентинел "без ограничения" для фасетов platform/region/status.
const FilterAll = "all"

// FilterState — эфемерное состояние фасетов каталога турниров.
// Фасеты комбинируются конъюнкцией; пустая строка или "all" снимает фасет.
type FilterState struct {
	Search   string `json:"search"`
	Game     string `json:"game"`
	Platform string `json:"platform"`
	Region   string `json:"region"`
	Status   string `json:"status"`
}

// Active reports whether any facet constrains the result set.
func (f FilterState) Active() bool {
	return f.Search != "" || f.Game != "" ||
		facetSet(f.Platform) || facetSet(f.Region) || facetSet(f.Status)
}

func facetSet(v string) bool {
	return v != "" && v != FilterAll
}

// PlatformFacet возвращает ограничение по платформе, если оно активно.
func (f FilterState) PlatformFacet() (GamePlatform, bool) {
	if !facetSet(f.Platform) {
		return "", false
	}
	return GamePlatform(f.Platform), true
}

func (f FilterState) RegionFacet() (Region, bool) {
	if !facetSet(f.Region) {
		return "", false
	}
	return Region(f.Region), true
}

func (f FilterState) StatusFacet() (TournamentStatus, bool) {
	if !facetSet(f.Status) {
		return "", false
	}
	return TournamentStatus(f.Status), true
}
