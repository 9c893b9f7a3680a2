package stream

// Lenient coercion helpers. A value of the wrong type is treated as absent
// and coerces to the zero value, never an error.

func asString(v any) string {
	s, _ := v.(string)
	return s
}

func asBool(v any) bool {
	b, _ := v.(bool)
	return b
}

// asInt accepts both int and float64 (the type encoding/json produces for
// all JSON numbers).
func asInt(v any) int {
	switch n := v.(type) {
	case int:
		return n
	case int64:
		return int(n)
	case float64:
		return int(n)
	default:
		return 0
	}
}

func asObject(v any) map[string]any {
	m, _ := v.(map[string]any)
	return m
}

func asStrings(v any) []string {
	list, ok := v.([]any)
	if !ok {
		return nil
	}
	out := make([]string, 0, len(list))
	for _, item := range list {
		if s, ok := item.(string); ok {
			out = append(out, s)
		}
	}
	return out
}

func asTasks(v any) []Task {
	list, ok := v.([]any)
	if !ok {
		return nil
	}
	out := make([]Task, 0, len(list))
	for _, item := range list {
		obj := asObject(item)
		out = append(out, Task{
			ID:          asString(obj["id"]),
			Description: asString(obj["description"]),
			Status:      asString(obj["status"]),
		})
	}
	return out
}

func asSources(v any) []Source {
	list, ok := v.([]any)
	if !ok {
		return nil
	}
	out := make([]Source, 0, len(list))
	for _, item := range list {
		obj := asObject(item)
		out = append(out, Source{
			Title:    asString(obj["title"]),
			URL:      asString(obj["url"]),
			Label:    asString(obj["label"]),
			Snippet:  asString(obj["snippet"]),
			Value:    asString(obj["value"]),
			ShortURL: asString(obj["short_url"]),
		})
	}
	return out
}
