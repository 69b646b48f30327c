package presenter

import (
	"fmt"
	"sort"
	"strconv"
	"strings"
	"unicode"
	"unicode/utf8"
)

// maxDepth stops runaway nesting in the generic renderer.
const maxDepth = 6

// renderGeneric writes any JSON-shaped map as indented key/value lines.
func (t *Terminal) renderGeneric(sb *strings.Builder, data map[string]any, depth int) {
	keys := make([]string, 0, len(data))
	for k := range data {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	for _, k := range keys {
		t.renderEntry(sb, humanize(k), data[k], depth)
	}
}

func (t *Terminal) renderEntry(sb *strings.Builder, label string, v any, depth int) {
	indent := strings.Repeat("  ", depth)
	key := t.styles.Key.Render(label + ":")

	if depth >= maxDepth {
		sb.WriteString(indent + key + " " + Truncate(compact(v), MaxValueWidth) + "\n")
		return
	}

	switch val := v.(type) {
	case map[string]any:
		if len(val) == 0 {
			sb.WriteString(indent + key + " " + t.styles.Muted.Render("(empty)") + "\n")
			return
		}
		sb.WriteString(indent + key + "\n")
		t.renderGeneric(sb, val, depth+1)

	case []any:
		if len(val) == 0 {
			sb.WriteString(indent + key + " " + t.styles.Muted.Render("(none)") + "\n")
			return
		}
		sb.WriteString(indent + key + "\n")
		for _, item := range val {
			t.renderItem(sb, item, depth+1)
		}

	default:
		sb.WriteString(indent + key + " " + Truncate(scalar(val), MaxValueWidth) + "\n")
	}
}

func (t *Terminal) renderItem(sb *strings.Builder, item any, depth int) {
	indent := strings.Repeat("  ", depth)
	switch val := item.(type) {
	case map[string]any:
		sb.WriteString(indent + "- " + Truncate(compact(val), MaxValueWidth) + "\n")
	case []any:
		sb.WriteString(indent + "-\n")
		for _, inner := range val {
			if depth+1 >= maxDepth {
				sb.WriteString(indent + "  - " + Truncate(compact(inner), MaxValueWidth) + "\n")
				continue
			}
			t.renderItem(sb, inner, depth+1)
		}
	default:
		sb.WriteString(indent + "- " + Truncate(scalar(val), MaxValueWidth) + "\n")
	}
}

// scalar formats a JSON scalar.
func scalar(v any) string {
	switch val := v.(type) {
	case nil:
		return "-"
	case string:
		return val
	case bool:
		return strconv.FormatBool(val)
	case float64:
		return strconv.FormatFloat(val, 'f', -1, 64)
	default:
		return fmt.Sprintf("%v", val)
	}
}

// compact renders a value on one line, maps as "k=v" pairs in key order.
func compact(v any) string {
	switch val := v.(type) {
	case map[string]any:
		keys := make([]string, 0, len(val))
		for k := range val {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		parts := make([]string, 0, len(keys))
		for _, k := range keys {
			parts = append(parts, k+"="+compact(val[k]))
		}
		return strings.Join(parts, ", ")
	case []any:
		parts := make([]string, 0, len(val))
		for _, item := range val {
			parts = append(parts, compact(item))
		}
		return "[" + strings.Join(parts, ", ") + "]"
	default:
		return scalar(val)
	}
}

// humanize turns "tests_generated" into "Tests Generated".
func humanize(key string) string {
	words := strings.FieldsFunc(key, func(r rune) bool { return r == '_' || r == '-' })
	for i, w := range words {
		r, size := utf8.DecodeRuneInString(w)
		words[i] = string(unicode.ToUpper(r)) + w[size:]
	}
	if len(words) == 0 {
		return key
	}
	return strings.Join(words, " ")
}
