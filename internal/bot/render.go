package bot

import (
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/spec-kit/imei-service/internal/api/dto"
	"github.com/spec-kit/imei-service/internal/domain"
)

const notAvailable = "N/A"

var markdownEscaper = strings.NewReplacer("_", "\\_", "*", "\\*", "`", "\\`", "[", "\\[")

// RenderResult turns a check response into the chat reply. Missing upstream fields
// render as N/A.
func RenderResult(original, cleaned string, resp *dto.CheckResponse) Reply {
	if resp.Status != dto.StatusValid {
		return Reply{Text: fmt.Sprintf("❌ Invalid IMEI: %s\n\nOriginal input: %s\nCleaned number: %s",
			resp.Message, original, cleaned)}
	}

	details := resp.Details
	props := details.Object("properties")

	var b strings.Builder
	b.WriteString("✅ *IMEI Check Results*\n\n")
	fmt.Fprintf(&b, "IMEI: `%s`\n", cleaned)
	fmt.Fprintf(&b, "Original input: %s\n\n", escapeMarkdown(original))

	b.WriteString("*Device Information:*\n")
	fmt.Fprintf(&b, "• Model: %s\n", textField(props, "deviceName"))
	fmt.Fprintf(&b, "• Serial Number: `%s`\n", codeField(props, "serial"))
	fmt.Fprintf(&b, "• IMEI 2: `%s`\n", codeField(props, "imei2"))
	fmt.Fprintf(&b, "• MEID: `%s`\n", codeField(props, "meid"))
	fmt.Fprintf(&b, "• Network: %s\n", textField(props, "network"))
	fmt.Fprintf(&b, "• Est. Purchase Date: %s\n\n", timestampField(props, "estPurchaseDate", time.DateOnly))

	b.WriteString("*Status Information:*\n")
	fmt.Fprintf(&b, "• Block Status: %s\n", textField(props, "usaBlockStatus"))
	fmt.Fprintf(&b, "• Replaced: %s\n", yesNo(props.Truthy("replaced")))
	fmt.Fprintf(&b, "• Demo Unit: %s\n\n", yesNo(props.Truthy("demoUnit")))

	b.WriteString("*Service Information:*\n")
	fmt.Fprintf(&b, "• Service: %s\n", textField(details.Object("service"), "title"))
	fmt.Fprintf(&b, "• Check ID: `%s`\n", codeField(details, "id"))
	fmt.Fprintf(&b, "• Processed: %s", timestampField(details, "processedAt", time.DateTime))

	reply := Reply{Text: b.String(), Markdown: true}
	if image, ok := props.Value("image"); ok {
		if url := formatValue(image); url != "" {
			reply.PhotoURL = url
		}
	}
	return reply
}

func textField(d domain.LookupDetails, key string) string {
	v, ok := d.Value(key)
	if !ok {
		return notAvailable
	}
	return escapeMarkdown(formatValue(v))
}

func codeField(d domain.LookupDetails, key string) string {
	v, ok := d.Value(key)
	if !ok {
		return notAvailable
	}
	return strings.ReplaceAll(formatValue(v), "`", "'")
}

// timestampField renders a unix-seconds value in UTC. Non-numeric values are shown as sent.
func timestampField(d domain.LookupDetails, key, layout string) string {
	v, ok := d.Value(key)
	if !ok {
		return notAvailable
	}
	var seconds float64
	switch t := v.(type) {
	case float64:
		seconds = t
	case int64:
		seconds = float64(t)
	case int:
		seconds = float64(t)
	case string:
		parsed, err := strconv.ParseFloat(t, 64)
		if err != nil {
			return escapeMarkdown(t)
		}
		seconds = parsed
	default:
		return escapeMarkdown(formatValue(v))
	}
	if seconds == 0 || math.IsNaN(seconds) || math.IsInf(seconds, 0) {
		return notAvailable
	}
	sec, frac := math.Modf(seconds)
	return time.Unix(int64(sec), int64(frac*1e9)).UTC().Format(layout)
}

func formatValue(v any) string {
	switch t := v.(type) {
	case string:
		return t
	case float64:
		return strconv.FormatFloat(t, 'f', -1, 64)
	case bool:
		if t {
			return "True"
		}
		return "False"
	}
	return fmt.Sprint(v)
}

func yesNo(b bool) string {
	if b {
		return "Yes"
	}
	return "No"
}

func escapeMarkdown(s string) string {
	return markdownEscaper.Replace(s)
}
