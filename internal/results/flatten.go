package results

import "sort"

// Flatten rewrites nested map values into dotted top-level keys, so a value
// like {"address": {"city": "Graz"}} becomes "address.city": "Graz". Nested
// keys are emitted in sorted order; everything else keeps record order.
// Records without nested maps come back unchanged, so flattening twice is a
// no-op.
func Flatten(record Record) Record {
	var out Record
	for _, key := range record.Keys() {
		value, _ := record.Get(key)
		flattenValue(&out, key, value)
	}
	return out
}

func flattenValue(out *Record, key string, value any) {
	nested, ok := value.(map[string]any)
	if !ok {
		out.Set(key, value)
		return
	}
	childKeys := make([]string, 0, len(nested))
	for childKey := range nested {
		childKeys = append(childKeys, childKey)
	}
	sort.Strings(childKeys)
	for _, childKey := range childKeys {
		flattenValue(out, key+"."+childKey, nested[childKey])
	}
}

// FlattenAll flattens every record in a result set.
func FlattenAll(records []Record) []Record {
	out := make([]Record, 0, len(records))
	for _, record := range records {
		out = append(out, Flatten(record))
	}
	return out
}
