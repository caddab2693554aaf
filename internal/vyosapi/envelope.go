package vyosapi

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"
	"unicode/utf8"

	"golang.org/x/net/html"
)

const maxMessageLen = 300

// ParseErrorBody extracts a message and optional structured details from a
// failed response body. It understands JSON bodies carrying detail, message
// or error (including FastAPI validation lists), HTML error pages and plain
// text. An empty body yields an empty message.
func ParseErrorBody(contentType string, body []byte) (string, any) {
	trimmed := bytes.TrimSpace(body)
	if len(trimmed) == 0 {
		return "", nil
	}

	if strings.Contains(contentType, "json") || trimmed[0] == '{' || trimmed[0] == '[' {
		if msg, details, ok := parseJSONError(trimmed); ok {
			return msg, details
		}
	}

	if strings.Contains(contentType, "html") || trimmed[0] == '<' {
		return truncate(htmlText(trimmed)), nil
	}

	return truncate(string(trimmed)), nil
}

func parseJSONError(body []byte) (string, any, bool) {
	var raw any
	if err := json.Unmarshal(body, &raw); err != nil {
		return "", nil, false
	}

	obj, ok := raw.(map[string]any)
	if !ok {
		return "", raw, true
	}

	for _, key := range []string{"detail", "message", "error"} {
		v, present := obj[key]
		if !present || v == nil {
			continue
		}
		if msg := messageOf(v); msg != "" {
			details := any(obj)
			if list, isList := v.([]any); isList {
				details = list
			}
			return msg, details, true
		}
	}
	return "", obj, true
}

// messageOf renders one detail/message/error value as text.
func messageOf(v any) string {
	switch val := v.(type) {
	case string:
		return strings.TrimSpace(val)
	case []any:
		parts := make([]string, 0, len(val))
		for _, item := range val {
			if m := messageOf(item); m != "" {
				parts = append(parts, m)
			}
		}
		return strings.Join(parts, "; ")
	case map[string]any:
		msg := ""
		for _, key := range []string{"msg", "message", "error", "detail"} {
			if s, ok := val[key].(string); ok && s != "" {
				msg = s
				break
			}
		}
		if msg == "" {
			return ""
		}
		if loc := locationOf(val["loc"]); loc != "" {
			return fmt.Sprintf("%s: %s", loc, msg)
		}
		return msg
	case bool, float64:
		return ""
	default:
		return fmt.Sprint(val)
	}
}

func locationOf(v any) string {
	parts, ok := v.([]any)
	if !ok {
		return ""
	}
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		s := fmt.Sprint(p)
		if s == "body" {
			continue
		}
		out = append(out, s)
	}
	return strings.Join(out, ".")
}

// htmlText returns an error page's <title> or, when absent, its visible text.
func htmlText(body []byte) string {
	z := html.NewTokenizer(bytes.NewReader(body))

	var title string
	var text []string
	inTitle, skip := false, 0

	for {
		switch z.Next() {
		case html.ErrorToken:
			if title != "" {
				return title
			}
			return strings.Join(text, " ")
		case html.StartTagToken:
			name, _ := z.TagName()
			switch string(name) {
			case "title":
				inTitle = true
			case "script", "style":
				skip++
			}
		case html.EndTagToken:
			name, _ := z.TagName()
			switch string(name) {
			case "title":
				inTitle = false
			case "script", "style":
				if skip > 0 {
					skip--
				}
			}
		case html.TextToken:
			s := strings.Join(strings.Fields(string(z.Text())), " ")
			if s == "" || skip > 0 {
				continue
			}
			if inTitle {
				title = s
				continue
			}
			text = append(text, s)
		}
	}
}

func truncate(s string) string {
	if len(s) <= maxMessageLen {
		return s
	}
	cut := maxMessageLen
	for cut > 0 && !utf8.RuneStart(s[cut]) {
		cut--
	}
	return s[:cut] + "..."
}
