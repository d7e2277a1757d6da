package policy

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"expense-cli/internal/model"
)

func TestIDOrDefault(t *testing.T) {
	assert.Equal(t, "-1", IDOrDefault(""))
	assert.Equal(t, "-1", IDOrDefault(OwnerEmailFakeID))
	assert.Equal(t, "pol-1", IDOrDefault(" pol-1 "))
}

func TestTagListName_ByOrderWeight(t *testing.T) {
	lists := model.PolicyTagLists{
		"Region":     {Name: "Region", OrderWeight: 1},
		"Department": {Name: "Department", OrderWeight: 0},
	}
	assert.Equal(t, "Department", TagListName(lists, 0))
	assert.Equal(t, "Region", TagListName(lists, 1))
	assert.Equal(t, "", TagListName(lists, 2))
	assert.True(t, IsMultiLevelTags(lists))

	l, ok := TagList(lists, 1)
	assert.True(t, ok)
	assert.Equal(t, "Region", l.Name)
}

func TestHasDependentTags(t *testing.T) {
	p := &model.Policy{ID: "pol-1"}
	independent := model.PolicyTagLists{
		"Department": {Tags: map[string]model.PolicyTag{"Audit": {Name: "Audit"}}},
	}
	dependent := model.PolicyTagLists{
		"State": {Tags: map[string]model.PolicyTag{"CA": {Name: "CA"}}},
		"City": {Tags: map[string]model.PolicyTag{
			"San Francisco": {Name: "San Francisco", Rules: &model.TagRules{ParentTagsFilter: "^CA$"}},
		}},
	}
	assert.False(t, HasDependentTags(p, independent))
	assert.True(t, HasDependentTags(p, dependent))
	assert.False(t, HasDependentTags(nil, dependent))
}

func TestCleanedTagName(t *testing.T) {
	assert.Equal(t, "Travel: Air", CleanedTagName(`Travel\: Air`))
	assert.Equal(t, "Plain", CleanedTagName("Plain"))
}

func TestHasAccountingConnections(t *testing.T) {
	assert.False(t, HasAccountingConnections(nil))
	assert.False(t, HasAccountingConnections(&model.Policy{}))
	assert.True(t, HasAccountingConnections(&model.Policy{Connections: map[string]model.Connection{"xero": {Name: "xero"}}}))
}
