package checkout

import "slices"

var provinces = []string{
	"Western",
	"Central",
	"Southern",
	"Northern",
	"Eastern",
	"North Western",
	"North Central",
	"Uva",
	"Sabaragamuwa",
}

var districts = map[string][]string{
	"Western":       {"Colombo", "Gampaha", "Kalutara"},
	"Central":       {"Kandy", "Matale", "Nuwara Eliya"},
	"Southern":      {"Galle", "Matara", "Hambantota"},
	"Northern":      {"Jaffna", "Kilinochchi", "Mannar", "Vavuniya", "Mullaitivu"},
	"Eastern":       {"Batticaloa", "Ampara", "Trincomalee"},
	"North Western": {"Kurunegala", "Puttalam"},
	"North Central": {"Anuradhapura", "Polonnaruwa"},
	"Uva":           {"Badulla", "Monaragala"},
	"Sabaragamuwa":  {"Ratnapura", "Kegalle"},
}

func Provinces() []string {
	return slices.Clone(provinces)
}

// Districts lists the districts of a province. An unknown province has none.
func Districts(province string) []string {
	return slices.Clone(districts[province])
}

func isProvince(province string) bool {
	_, ok := districts[province]
	return ok
}

func inProvince(province, district string) bool {
	return slices.Contains(districts[province], district)
}
