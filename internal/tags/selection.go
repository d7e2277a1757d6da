package tags

import "sort"

// Selection maps raw tag name to selected. Reducers return a new Selection and
// never modify the receiver.
type Selection map[string]bool

func (s Selection) clone() Selection {
	out := make(Selection, len(s))
	for k, v := range s {
		if v {
			out[k] = true
		}
	}
	return out
}

// Toggle flips one tag.
func (s Selection) Toggle(name string) Selection {
	out := s.clone()
	if out[name] {
		delete(out, name)
	} else {
		out[name] = true
	}
	return out
}

// ToggleAll selects every eligible item (not pending deletion), unless all of
// them are already selected, in which case it clears the selection.
func (s Selection) ToggleAll(items []Item) Selection {
	eligible := make([]string, 0, len(items))
	allSelected := true
	for _, it := range items {
		if it.IsDisabled {
			continue
		}
		eligible = append(eligible, it.Value)
		if !s[it.Value] {
			allSelected = false
		}
	}
	if allSelected {
		return Selection{}
	}
	out := make(Selection, len(eligible))
	for _, name := range eligible {
		out[name] = true
	}
	return out
}

func (s Selection) Clear() Selection { return Selection{} }

// Prune drops selected names that are no longer selectable rows, so a selection
// never outlives the tags it refers to.
func (s Selection) Prune(items []Item) Selection {
	byName := KeyByName(items)
	out := Selection{}
	for name, on := range s {
		if !on {
			continue
		}
		if it, ok := byName[name]; ok && !it.IsDisabled {
			out[name] = true
		}
	}
	return out
}

// Names returns the selected tag names, sorted.
func (s Selection) Names() []string {
	out := make([]string, 0, len(s))
	for name, on := range s {
		if on {
			out = append(out, name)
		}
	}
	sort.Strings(out)
	return out
}

func (s Selection) Count() int {
	n := 0
	for _, on := range s {
		if on {
			n++
		}
	}
	return n
}
