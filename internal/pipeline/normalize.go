package pipeline

import "strings"

// eventCodes maps the Finnish discipline names used in registration forms to
// the result system's event codes. Misspellings seen in real exports are kept.
var eventCodes = map[string]string{
	"pallonheitto": "bt",
	"palloheitto":  "bt",
	"pituus":       "lj",
	"kolmiloikka":  "tj",
	"3-loikka":     "tj",
	"korkeus":      "hj",
	"seiväs":       "pv",
	"kuula":        "sp",
	"moukari":      "ht",
	"kiekko":       "dt",
	"keihäs":       "jt",
	"Keihäs":       "jt",

	"60m aj":  "60mh",
	"80m aj":  "80mh",
	"100m aj": "100mh",
	"110m aj": "110mh",
	"200m aj": "200mh",
	"300m aj": "300mh",
	"400m aj": "400mh",

	"1500m esteet": "1500mst",
	"2000m esteet": "2000mst",
	"3000m esteet": "3000mst",
	"1500m ej":     "1500mst",
	"1500m ej.":    "1500mst",
	"2000m ej":     "2000mst",
	"3000m ej":     "3000mst",

	"2000m kävely": "2000mw",
	"3000m kävely": "3000mw",
}

// NormalizeEvent returns the event code for a discipline name, or the trimmed
// name itself when it has no code.
func NormalizeEvent(name string) string {
	name = strings.TrimSpace(name)
	if code, ok := eventCodes[name]; ok {
		return code
	}
	return name
}
