package bot

import "strings"

// Removed in this order, so "imei:" goes before the bare "imei".
var imeiPrefixes = []string{"imei:", "imei", "number:", "number", "code:", "code", "#"}

// CleanIMEI extracts the digits of a free-form IMEI submission such as
// "IMEI: 357369092971157" or "35736-90929-71157".
func CleanIMEI(text string) string {
	text = strings.ToLower(text)
	for _, prefix := range imeiPrefixes {
		text = strings.ReplaceAll(text, prefix, "")
	}

	var b strings.Builder
	b.Grow(len(text))
	for i := 0; i < len(text); i++ {
		if c := text[i]; c >= '0' && c <= '9' {
			b.WriteByte(c)
		}
	}
	return b.String()
}
