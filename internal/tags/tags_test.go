package tags

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"expense-cli/internal/i18n"
	"expense-cli/internal/model"
)

func sampleList() model.PolicyTagList {
	return model.PolicyTagList{
		Name: "Department",
		Tags: map[string]model.PolicyTag{
			"item 10":  {Name: "item 10", Enabled: true},
			"item 2":   {Name: "item 2", Enabled: false},
			`Ops\: HQ`: {Name: `Ops\: HQ`, Enabled: true},
			"Legacy":   {Name: "Legacy", Enabled: true, PendingAction: model.PendingDelete},
		},
	}
}

func TestBuildItems_SortsAndProjects(t *testing.T) {
	tr := i18n.MustNew("en")
	items := BuildItems(sampleList(), Selection{"item 2": true}, true, tr.Comparer())
	require.Len(t, items, 4)

	var texts []string
	for _, it := range items {
		texts = append(texts, it.Text)
	}
	assert.Equal(t, []string{"item 2", "item 10", "Legacy", "Ops: HQ"}, texts)

	byName := KeyByName(items)
	assert.True(t, byName["item 2"].IsSelected)
	assert.False(t, byName["item 10"].IsSelected)
	assert.True(t, byName["Legacy"].IsDisabled)
	assert.Equal(t, "Ops: HQ", byName[`Ops\: HQ`].Text)
}

func TestBuildItems_SelectionHiddenWithoutMultiSelect(t *testing.T) {
	items := BuildItems(sampleList(), Selection{"item 2": true}, false, nil)
	for _, it := range items {
		assert.False(t, it.IsSelected, it.Value)
	}
}

func TestCanSelectMultiple(t *testing.T) {
	assert.True(t, CanSelectMultiple(false, false))
	assert.False(t, CanSelectMultiple(true, false))
	assert.True(t, CanSelectMultiple(true, true))
}

func TestIsLoading(t *testing.T) {
	assert.True(t, IsLoading(false, nil))
	assert.False(t, IsLoading(true, nil))
	assert.False(t, IsLoading(false, model.PolicyTagLists{}))
}

func TestSelection_Toggle(t *testing.T) {
	s := Selection{}
	s2 := s.Toggle("a")
	assert.Empty(t, s)
	assert.Equal(t, []string{"a"}, s2.Names())
	assert.Empty(t, s2.Toggle("a").Names())
}

func TestSelection_ToggleAll(t *testing.T) {
	items := BuildItems(sampleList(), nil, true, nil)

	all := Selection{}.ToggleAll(items)
	assert.Equal(t, []string{"Ops\\: HQ", "item 10", "item 2"}, all.Names())
	assert.False(t, all["Legacy"], "pending-delete rows are not selectable")

	assert.Zero(t, all.ToggleAll(items).Count())

	partial := Selection{"item 2": true}
	assert.Equal(t, 3, partial.ToggleAll(items).Count())
}

func TestSelection_Prune(t *testing.T) {
	items := BuildItems(sampleList(), nil, true, nil)
	s := Selection{"item 2": true, "gone": true, "Legacy": true}
	assert.Equal(t, []string{"item 2"}, s.Prune(items).Names())
}

func TestBulkActions_Partition(t *testing.T) {
	items := BuildItems(sampleList(), nil, true, nil)
	byName := KeyByName(items)

	actions := BulkActions([]string{"item 10", "item 2"}, byName, BulkContext{})
	require.Len(t, actions, 3)
	assert.Equal(t, BulkDelete, actions[0].Kind)
	assert.Equal(t, i18n.TagsDeleteTags, actions[0].LabelKey)
	assert.Equal(t, 2, actions[0].Count)

	assert.Equal(t, BulkDisable, actions[1].Kind)
	assert.Equal(t, map[string]bool{"item 10": false}, actions[1].Tags)
	assert.Equal(t, i18n.TagsDisableTag, actions[1].LabelKey)

	assert.Equal(t, BulkEnable, actions[2].Kind)
	assert.Equal(t, map[string]bool{"item 2": true}, actions[2].Tags)
	assert.Equal(t, i18n.TagsEnableTag, actions[2].LabelKey)
}

func TestBulkActions_DeleteSuppressed(t *testing.T) {
	byName := KeyByName(BuildItems(sampleList(), nil, true, nil))

	for _, ctx := range []BulkContext{{MultiLevel: true}, {HasConnections: true}} {
		actions := BulkActions([]string{"item 10", "Ops\\: HQ"}, byName, ctx)
		require.Len(t, actions, 1)
		assert.Equal(t, BulkDisable, actions[0].Kind)
		assert.Equal(t, i18n.TagsDisableTags, actions[0].LabelKey)
		_, ok := FindBulkAction(actions, BulkDelete)
		assert.False(t, ok)
	}
	assert.Nil(t, BulkActions(nil, byName, BulkContext{}))
}

func TestNewBulkContext(t *testing.T) {
	p := &model.Policy{Connections: map[string]model.Connection{"xero": {Name: "xero"}}}
	lists := model.PolicyTagLists{"A": {Name: "A"}, "B": {Name: "B", OrderWeight: 1}}
	ctx := NewBulkContext(p, lists)
	assert.True(t, ctx.HasConnections)
	assert.True(t, ctx.MultiLevel)
}

func TestHeaderButton(t *testing.T) {
	assert.False(t, HeaderButton(0, false, false).Visible)
	assert.Equal(t, Header{Visible: true, SelectedCount: 2}, HeaderButton(2, false, false))
	assert.False(t, HeaderButton(3, true, false).Visible)
	assert.Equal(t, Header{Visible: true, Disabled: true}, HeaderButton(0, true, true))
}

func TestDeleteConfirmKeys(t *testing.T) {
	title, prompt := DeleteConfirmKeys(1)
	assert.Equal(t, i18n.TagsDeleteTag, title)
	assert.Equal(t, i18n.TagsDeleteTagConfirmation, prompt)
	title, prompt = DeleteConfirmKeys(4)
	assert.Equal(t, i18n.TagsDeleteTags, title)
	assert.Equal(t, i18n.TagsDeleteTagsConfirmation, prompt)
}

func TestRequiredAndShouldClear(t *testing.T) {
	p := &model.Policy{ID: "pol-1"}
	none := model.PolicyTagList{Name: "D", Required: true, Tags: map[string]model.PolicyTag{"a": {Name: "a"}}}
	lists := model.PolicyTagLists{"D": none}

	assert.True(t, ShouldClearRequired(none))
	r := Required(p, lists, none)
	assert.True(t, r.Visible)
	assert.True(t, r.Active)
	assert.False(t, r.Disabled)

	off := none
	off.Required = false
	assert.False(t, ShouldClearRequired(off))
	assert.True(t, Required(p, lists, off).Disabled)

	on := model.PolicyTagList{Name: "D", Required: true, Tags: map[string]model.PolicyTag{"a": {Name: "a", Enabled: true}}}
	assert.False(t, ShouldClearRequired(on))
}

func TestBuildScreen(t *testing.T) {
	p := &model.Policy{ID: "p1", Role: model.PolicyRoleAdmin, Type: model.PolicyTypeTeam, AreTagsEnabled: true}
	lists := model.PolicyTagLists{"Department": sampleList()}
	s := BuildScreen(ScreenInput{
		Policy:    p,
		Lists:     lists,
		Selection: Selection{"item 2": true, "item 10": true, "Legacy": true, "gone": true},
		Compare:   i18n.MustNew("en").Comparer(),
	})

	assert.Equal(t, "Department", s.ListName)
	assert.False(t, s.Loading)
	assert.Equal(t, []string{"item 10", "item 2"}, s.Selection.Names())
	assert.Equal(t, Header{Visible: true, SelectedCount: 2}, s.Header)
	require.Len(t, s.BulkActions, 3)
	assert.Equal(t, BulkDelete, s.BulkActions[0].Kind)
	assert.Equal(t, []string{"item 10"}, s.BulkActions[1].Names)
	assert.Equal(t, []string{"item 2"}, s.BulkActions[2].Names)
	assert.True(t, s.Required.Visible)
}

func TestBuildScreen_NarrowWithoutSelectionMode(t *testing.T) {
	s := BuildScreen(ScreenInput{
		Lists:     model.PolicyTagLists{"Department": sampleList()},
		Selection: Selection{"item 2": true},
		Narrow:    true,
	})
	assert.Zero(t, s.Selection.Count())
	assert.Empty(t, s.BulkActions)
	assert.False(t, s.Header.Visible)
}

func TestBuildScreen_NotLoaded(t *testing.T) {
	s := BuildScreen(ScreenInput{})
	assert.True(t, s.Loading)
	assert.Empty(t, s.Items)
	assert.False(t, s.Header.Visible)
}
