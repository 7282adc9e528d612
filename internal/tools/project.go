package tools

// Helpers for projecting fields out of decoded upstream JSON. Missing or
// mistyped fields project to zero values; tools surface what is present
// rather than failing on shape drift between Discourse versions.

func asMap(v any) map[string]any {
	m, _ := v.(map[string]any)
	return m
}

func str(m map[string]any, key string) string {
	s, _ := m[key].(string)
	return s
}

func num(m map[string]any, key string) int {
	f, _ := m[key].(float64)
	return int(f)
}

func boolean(m map[string]any, key string) bool {
	b, _ := m[key].(bool)
	return b
}

func arr(m map[string]any, key string) []any {
	a, _ := m[key].([]any)
	return a
}

func sub(m map[string]any, key string) map[string]any {
	return asMap(m[key])
}
