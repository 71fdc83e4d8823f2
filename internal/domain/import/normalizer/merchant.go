package normalizer

import (
	"regexp"
	"strings"
)

// MerchantInfo is the counterparty read out of a statement narration.
type MerchantInfo struct {
	OriginalName   string `json:"original_name"`
	NormalizedName string `json:"normalized_name"`
	Rail           string `json:"rail,omitempty"` // Payment rail, e.g. UPI, NEFT, POS
}

// MerchantPattern maps a narration fragment to a canonical merchant name.
type MerchantPattern struct {
	Pattern *regexp.Regexp
	Name    string
}

// MerchantSanitizer extracts merchant names from Indian bank and wallet
// narrations such as "UPI/SWIGGY/412345678901/Payment" or "Paid to Ravi".
type MerchantSanitizer struct {
	patterns []MerchantPattern
}

// NewMerchantSanitizer creates a new sanitizer with common merchant patterns
func NewMerchantSanitizer() *MerchantSanitizer {
	return &MerchantSanitizer{
		patterns: defaultMerchantPatterns(),
	}
}

var (
	railPrefix   = regexp.MustCompile(`(?i)^(UPI|NEFT|IMPS|RTGS|POS|ATM|ECS|NACH|BIL|CHQ|MB)\s*[-/:]\s*`)
	walletPrefix = regexp.MustCompile(`(?i)^(paid to|sent to|received from|payment to|payment from)\s+`)
	vpaHandle    = regexp.MustCompile(`(?i)@[a-z0-9.\-]+`)
	refNumber    = regexp.MustCompile(`\b[A-Z]*\d{6,}[A-Z0-9]*\b`)
	trailingDate = regexp.MustCompile(`\s+\d{1,2}/\d{1,2}/?$`)
	spaceRun     = regexp.MustCompile(`\s+`)
)

// Sanitize normalizes a narration into a merchant name.
func (s *MerchantSanitizer) Sanitize(raw string) MerchantInfo {
	result := MerchantInfo{
		OriginalName:   raw,
		NormalizedName: raw,
	}

	cleaned, rail := cleanMerchantName(raw)
	result.Rail = rail

	upper := strings.ToUpper(cleaned)
	for _, pattern := range s.patterns {
		if pattern.Pattern.MatchString(upper) {
			result.NormalizedName = pattern.Name
			return result
		}
	}

	result.NormalizedName = titleCase(cleaned)
	return result
}

// AddPattern adds a custom merchant pattern
func (s *MerchantSanitizer) AddPattern(pattern string, name string) error {
	re, err := regexp.Compile(pattern)
	if err != nil {
		return err
	}
	s.patterns = append(s.patterns, MerchantPattern{Pattern: re, Name: name})
	return nil
}

// cleanMerchantName strips the rail prefix, VPA handles and reference numbers
// and keeps the first remaining segment of a slash or dash separated
// narration.
func cleanMerchantName(raw string) (string, string) {
	result := strings.TrimSpace(raw)

	rail := ""
	if m := railPrefix.FindStringSubmatch(result); m != nil {
		rail = strings.ToUpper(m[1])
		result = result[len(m[0]):]
	} else if m := walletPrefix.FindString(result); m != "" {
		rail = "WALLET"
		result = result[len(m):]
	}

	result = vpaHandle.ReplaceAllString(result, "")
	result = refNumber.ReplaceAllString(result, "")
	result = trailingDate.ReplaceAllString(result, "")

	if rail != "" {
		for _, seg := range strings.FieldsFunc(result, func(r rune) bool { return r == '/' || r == '-' }) {
			if seg = strings.TrimSpace(seg); seg != "" {
				result = seg
				break
			}
		}
	}

	result = spaceRun.ReplaceAllString(result, " ")
	return strings.Trim(result, " /-:"), rail
}

// titleCase converts a string to title case
func titleCase(s string) string {
	words := strings.Fields(s)
	for i, word := range words {
		if len(word) > 0 {
			words[i] = strings.ToUpper(string(word[0])) + strings.ToLower(word[1:])
		}
	}
	return strings.Join(words, " ")
}

func defaultMerchantPatterns() []MerchantPattern {
	return []MerchantPattern{
		// Food delivery (before ride hailing so UBER EATS wins over UBER)
		{regexp.MustCompile(`SWIGGY`), "Swiggy"},
		{regexp.MustCompile(`ZOMATO`), "Zomato"},
		{regexp.MustCompile(`UBER\s*EATS`), "Uber Eats"},
		{regexp.MustCompile(`DOMINO`), "Domino's"},

		// Transport
		{regexp.MustCompile(`\bUBER\b`), "Uber"},
		{regexp.MustCompile(`\bOLA\s*CABS|\bANI\s*TECHNOLOGIES`), "Ola"},
		{regexp.MustCompile(`RAPIDO`), "Rapido"},
		{regexp.MustCompile(`IRCTC`), "IRCTC"},
		{regexp.MustCompile(`MAKEMYTRIP|\bMMT\b`), "MakeMyTrip"},

		// Shopping
		{regexp.MustCompile(`AMAZON`), "Amazon"},
		{regexp.MustCompile(`FLIPKART`), "Flipkart"},
		{regexp.MustCompile(`MYNTRA`), "Myntra"},
		{regexp.MustCompile(`BIGBASKET|BIG\s*BASKET`), "BigBasket"},
		{regexp.MustCompile(`BLINKIT|GROFERS`), "Blinkit"},
		{regexp.MustCompile(`\bDMART\b|AVENUE\s*SUPERMARTS`), "DMart"},

		// Telecom and bills
		{regexp.MustCompile(`AIRTEL`), "Airtel"},
		{regexp.MustCompile(`\bJIO\b|RELIANCE\s*JIO`), "Jio"},
		{regexp.MustCompile(`BESCOM|TATA\s*POWER|ADANI\s*ELECTRICITY`), "Electricity"},

		// Entertainment
		{regexp.MustCompile(`NETFLIX`), "Netflix"},
		{regexp.MustCompile(`SPOTIFY`), "Spotify"},
		{regexp.MustCompile(`HOTSTAR`), "Disney+ Hotstar"},
		{regexp.MustCompile(`BOOKMYSHOW`), "BookMyShow"},

		// Finance
		{regexp.MustCompile(`\bLIC\b`), "LIC"},
		{regexp.MustCompile(`ZERODHA`), "Zerodha"},
		{regexp.MustCompile(`GROWW`), "Groww"},
	}
}
