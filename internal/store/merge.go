package store

import "encoding/json"

// mergeValues deep-merges patch into base.
//
// Objects merge key by key; a null in patch removes the key; any other value
// (including arrays) replaces what was there. Neither input is modified.
func mergeValues(base, patch any) any {
	pm, ok := patch.(map[string]any)
	if !ok {
		return stripNulls(patch)
	}
	bm, ok := base.(map[string]any)
	if !ok {
		return stripNulls(pm)
	}
	out := make(map[string]any, len(bm)+len(pm))
	for k, v := range bm {
		out[k] = v
	}
	for k, v := range pm {
		if v == nil {
			delete(out, k)
			continue
		}
		out[k] = mergeValues(out[k], v)
	}
	return out
}

func stripNulls(v any) any {
	m, ok := v.(map[string]any)
	if !ok {
		return v
	}
	out := make(map[string]any, len(m))
	for k, x := range m {
		if x == nil {
			continue
		}
		out[k] = stripNulls(x)
	}
	return out
}

// toGeneric round-trips v through JSON so struct values (including ones nested in
// maps) merge the same way decoded ones do.
func toGeneric(v any) (any, error) {
	switch t := v.(type) {
	case nil:
		return nil, nil
	case json.RawMessage:
		var out any
		if err := json.Unmarshal(t, &out); err != nil {
			return nil, err
		}
		return out, nil
	case string, bool, float64:
		return t, nil
	}
	b, err := json.Marshal(v)
	if err != nil {
		return nil, err
	}
	var out any
	if err := json.Unmarshal(b, &out); err != nil {
		return nil, err
	}
	return out, nil
}
