package mutate

import (
	"sort"
	"strconv"

	"expense-cli/internal/model"
	"expense-cli/internal/policy"
	"expense-cli/internal/store"
)

// Remote command names.
const (
	CommandSetTagsEnabled  = "SetPolicyTagsEnabled"
	CommandSetTagsRequired = "SetPolicyTagListsRequired"
	CommandDeleteTags      = "DeletePolicyTags"
	CommandOpenTagsPage    = "OpenPolicyTagsPage"
)

func tagList(policyID string, lists model.PolicyTagLists, orderWeight int) (model.PolicyTagList, error) {
	if lists == nil {
		return model.PolicyTagList{}, NotFoundError{Kind: "policy tags", ID: policyID}
	}
	l, ok := policy.TagList(lists, orderWeight)
	if !ok {
		return model.PolicyTagList{}, NotFoundError{Kind: "tag list", ID: policyID + "/" + strconv.Itoa(orderWeight)}
	}
	return l, nil
}

func listPatch(listName string, fields map[string]any) map[string]any {
	return map[string]any{listName: fields}
}

func tagsPatch(listName string, tags map[string]any, extra map[string]any) map[string]any {
	fields := map[string]any{"tags": tags}
	for k, v := range extra {
		fields[k] = v
	}
	return listPatch(listName, fields)
}

// SetTagsEnabled flips the enabled flag of tags in the list at orderWeight.
// tags maps tag name to the new value. When the change leaves a required list
// without any enabled tag, "required" is turned off in the same request.
func SetTagsEnabled(policyID string, lists model.PolicyTagLists, tags map[string]bool, orderWeight int) (Result, error) {
	if len(tags) == 0 {
		return Result{}, ErrNoTags
	}
	l, err := tagList(policyID, lists, orderWeight)
	if err != nil {
		return Result{}, err
	}

	names := make([]string, 0, len(tags))
	for name := range tags {
		tag, ok := l.Tags[name]
		if !ok {
			return Result{}, NotFoundError{Kind: "tag", ID: name}
		}
		if tag.PendingAction == model.PendingDelete {
			return Result{}, ErrPendingDelete
		}
		names = append(names, name)
	}
	sort.Strings(names)

	after := l
	after.Tags = make(map[string]model.PolicyTag, len(l.Tags))
	for name, tag := range l.Tags {
		if v, ok := tags[name]; ok {
			tag.Enabled = v
		}
		after.Tags[name] = tag
	}
	clearRequired := l.Required && !policy.HasEnabledTag(after)

	optimistic := map[string]any{}
	success := map[string]any{}
	failure := map[string]any{}
	params := make([]map[string]any, 0, len(names))
	for _, name := range names {
		enabled := tags[name]
		optimistic[name] = map[string]any{
			"name":          name,
			"enabled":       enabled,
			"errors":        nil,
			"pendingFields": map[string]any{"enabled": model.PendingUpdate},
			"pendingAction": model.PendingUpdate,
		}
		success[name] = map[string]any{
			"errors":        nil,
			"pendingFields": map[string]any{"enabled": nil},
			"pendingAction": nil,
		}
		failure[name] = map[string]any{
			"enabled":       l.Tags[name].Enabled,
			"pendingFields": map[string]any{"enabled": nil},
			"pendingAction": nil,
			"errors":        map[string]any{errorKey(): genericFailure},
		}
		params = append(params, map[string]any{"name": name, "enabled": enabled})
	}

	var optExtra, okExtra, failExtra map[string]any
	if clearRequired {
		optExtra = map[string]any{"required": false, "pendingFields": map[string]any{"required": model.PendingUpdate}}
		okExtra = map[string]any{"pendingFields": map[string]any{"required": nil}}
		failExtra = map[string]any{"required": true, "pendingFields": map[string]any{"required": nil}}
	}

	key := store.PolicyTagsKey(policyID)
	return Result{
		Optimistic: []store.Update{store.MergeUpdate(key, tagsPatch(l.Name, optimistic, optExtra))},
		Request: newRequest(CommandSetTagsEnabled,
			map[string]any{"policyID": policyID, "tagListIndex": orderWeight, "tags": params},
			[]store.Update{store.MergeUpdate(key, tagsPatch(l.Name, success, okExtra))},
			[]store.Update{store.MergeUpdate(key, tagsPatch(l.Name, failure, failExtra))},
		),
	}, nil
}

// SetTagsRequired sets the required flag of the list at orderWeight.
func SetTagsRequired(policyID string, lists model.PolicyTagLists, required bool, orderWeight int) (Result, error) {
	l, err := tagList(policyID, lists, orderWeight)
	if err != nil {
		return Result{}, err
	}
	key := store.PolicyTagsKey(policyID)
	return Result{
		Optimistic: []store.Update{store.MergeUpdate(key, listPatch(l.Name, map[string]any{
			"required":      required,
			"pendingFields": map[string]any{"required": model.PendingUpdate},
			"errorFields":   map[string]any{"required": nil},
		}))},
		Request: newRequest(CommandSetTagsRequired,
			map[string]any{"policyID": policyID, "tagListIndex": orderWeight, "requireTagList": required},
			[]store.Update{store.MergeUpdate(key, listPatch(l.Name, map[string]any{
				"pendingFields": map[string]any{"required": nil},
			}))},
			[]store.Update{store.MergeUpdate(key, listPatch(l.Name, map[string]any{
				"required":      l.Required,
				"pendingFields": map[string]any{"required": nil},
				"errorFields":   map[string]any{"required": map[string]any{errorKey(): genericFailure}},
			}))},
		),
	}, nil
}

// DeleteTags marks tags of the first list pending deletion. The remote's success
// removes them; failure restores them with an error attached.
func DeleteTags(policyID string, lists model.PolicyTagLists, names []string) (Result, error) {
	if len(names) == 0 {
		return Result{}, ErrNoTags
	}
	l, err := tagList(policyID, lists, 0)
	if err != nil {
		return Result{}, err
	}
	sorted := append([]string(nil), names...)
	sort.Strings(sorted)

	optimistic := map[string]any{}
	success := map[string]any{}
	failure := map[string]any{}
	for _, name := range sorted {
		if _, ok := l.Tags[name]; !ok {
			return Result{}, NotFoundError{Kind: "tag", ID: name}
		}
		optimistic[name] = map[string]any{"pendingAction": model.PendingDelete}
		success[name] = nil
		failure[name] = map[string]any{
			"pendingAction": nil,
			"errors":        map[string]any{errorKey(): genericFailure},
		}
	}

	key := store.PolicyTagsKey(policyID)
	return Result{
		Optimistic: []store.Update{store.MergeUpdate(key, tagsPatch(l.Name, optimistic, nil))},
		Request: newRequest(CommandDeleteTags,
			map[string]any{"policyID": policyID, "tags": sorted},
			[]store.Update{store.MergeUpdate(key, tagsPatch(l.Name, success, nil))},
			[]store.Update{store.MergeUpdate(key, tagsPatch(l.Name, failure, nil))},
		),
	}, nil
}

// ClearTagErrors dismisses the errors of one tag. A tag whose creation failed is
// dropped entirely.
func ClearTagErrors(policyID string, lists model.PolicyTagLists, tagName string, orderWeight int) (Result, error) {
	l, err := tagList(policyID, lists, orderWeight)
	if err != nil {
		return Result{}, err
	}
	tag, ok := l.Tags[tagName]
	if !ok {
		return Result{}, NotFoundError{Kind: "tag", ID: tagName}
	}
	var patch any = map[string]any{"errors": nil, "pendingAction": nil}
	if tag.PendingAction == model.PendingAdd {
		patch = nil
	}
	return Result{Optimistic: []store.Update{
		store.MergeUpdate(store.PolicyTagsKey(policyID), tagsPatch(l.Name, map[string]any{tagName: patch}, nil)),
	}}, nil
}

// ClearTagListErrors dismisses the list-level error banner.
func ClearTagListErrors(policyID string, lists model.PolicyTagLists, orderWeight int) (Result, error) {
	l, err := tagList(policyID, lists, orderWeight)
	if err != nil {
		return Result{}, err
	}
	return Result{Optimistic: []store.Update{
		store.MergeUpdate(store.PolicyTagsKey(policyID), listPatch(l.Name, map[string]any{"errors": nil})),
	}}, nil
}

// ClearTagListErrorField dismisses the error of one list field (e.g. "required").
func ClearTagListErrorField(policyID string, lists model.PolicyTagLists, orderWeight int, field string) (Result, error) {
	l, err := tagList(policyID, lists, orderWeight)
	if err != nil {
		return Result{}, err
	}
	return Result{Optimistic: []store.Update{
		store.MergeUpdate(store.PolicyTagsKey(policyID), listPatch(l.Name, map[string]any{
			"errorFields": map[string]any{field: nil},
		})),
	}}, nil
}

// OpenTagsPage asks the remote for the latest tag lists of policyID. The
// response carries the data; nothing is written up front.
func OpenTagsPage(policyID string) Result {
	req := newRequest(CommandOpenTagsPage, map[string]any{"policyID": policyID}, nil, nil)
	req.Read = true
	return Result{Request: req}
}
