package domain

// LookupDetails is the upstream device payload. It is passed through untouched and only
// a handful of fields are read when rendering it for chat.
type LookupDetails map[string]any

// Object returns the nested mapping under key, or an empty one.
func (d LookupDetails) Object(key string) LookupDetails {
	if d == nil {
		return LookupDetails{}
	}
	if nested, ok := d[key].(map[string]any); ok {
		return LookupDetails(nested)
	}
	if nested, ok := d[key].(LookupDetails); ok {
		return nested
	}
	return LookupDetails{}
}

// Value returns the raw value under key and whether it was present and non-null.
func (d LookupDetails) Value(key string) (any, bool) {
	if d == nil {
		return nil, false
	}
	v, ok := d[key]
	if !ok || v == nil {
		return nil, false
	}
	return v, true
}

// Truthy mirrors loose truthiness for flags that upstream may send as bool, number or string.
func (d LookupDetails) Truthy(key string) bool {
	v, ok := d.Value(key)
	if !ok {
		return false
	}
	switch t := v.(type) {
	case bool:
		return t
	case float64:
		return t != 0
	case string:
		return t != ""
	}
	return true
}
