package tags

import (
	"expense-cli/internal/model"
	"expense-cli/internal/policy"
)

// ScreenInput is what the tags screen reads from the store plus its own UI state.
type ScreenInput struct {
	Policy        *model.Policy
	Lists         model.PolicyTagLists
	OrderWeight   int
	Selection     Selection
	Narrow        bool
	SelectionMode bool
	Offline       bool
	Compare       CompareFunc
}

// Screen is the whole tags screen as it should render.
type Screen struct {
	ListName    string         `json:"listName"`
	OrderWeight int            `json:"orderWeight"`
	Loading     bool           `json:"loading"`
	Items       []Item         `json:"items"`
	Required    RequiredToggle `json:"required"`
	Header      Header         `json:"header"`
	BulkActions []BulkAction   `json:"bulkActions,omitempty"`
	Errors      model.Errors   `json:"errors,omitempty"`
	// Selection is the input selection pruned to selectable rows.
	Selection Selection `json:"-"`
}

// BuildScreen projects the input. The selection is pruned first so bulk actions
// never name a tag that disappeared or went pending delete.
func BuildScreen(in ScreenInput) Screen {
	s := Screen{
		OrderWeight: in.OrderWeight,
		Loading:     IsLoading(in.Offline, in.Lists),
		Items:       []Item{},
	}
	list, ok := policy.TagList(in.Lists, in.OrderWeight)
	if !ok {
		s.Selection = Selection{}
		s.Header = HeaderButton(0, in.Narrow, in.SelectionMode)
		return s
	}
	s.ListName = list.Name
	s.Errors = list.Errors
	s.Required = Required(in.Policy, in.Lists, list)

	multi := CanSelectMultiple(in.Narrow, in.SelectionMode)
	unselected := BuildItems(list, nil, multi, in.Compare)
	s.Selection = in.Selection.Prune(unselected)
	if !multi {
		s.Selection = Selection{}
	}
	s.Items = BuildItems(list, s.Selection, multi, in.Compare)

	s.Header = HeaderButton(s.Selection.Count(), in.Narrow, in.SelectionMode)
	s.BulkActions = BulkActions(s.Selection.Names(), KeyByName(s.Items), NewBulkContext(in.Policy, in.Lists))
	return s
}
