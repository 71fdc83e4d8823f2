package parser

import "strings"

// DocumentOrigin identifies the issuer layout a document follows.
type DocumentOrigin int

const (
	OriginGeneric DocumentOrigin = iota
	OriginKotak
	OriginPhonePe
)

var originNames = map[DocumentOrigin]string{
	OriginGeneric: "generic",
	OriginKotak:   "kotak",
	OriginPhonePe: "phonepe",
}

func (o DocumentOrigin) String() string {
	if name, ok := originNames[o]; ok {
		return name
	}
	return "unknown"
}

// ParseOrigin maps a platform or file name to an origin by case-insensitive
// substring match. Unknown values are generic.
func ParseOrigin(s string) DocumentOrigin {
	s = strings.ToLower(s)
	switch {
	case strings.Contains(s, "kotak"):
		return OriginKotak
	case strings.Contains(s, "phonepe"), strings.Contains(s, "phone pe"):
		return OriginPhonePe
	default:
		return OriginGeneric
	}
}

// DetectOrigin prefers the explicit hint and falls back to the filename.
func DetectOrigin(hint, filename string) DocumentOrigin {
	if o := ParseOrigin(hint); o != OriginGeneric {
		return o
	}
	return ParseOrigin(filename)
}
