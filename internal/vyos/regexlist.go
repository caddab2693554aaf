package vyos

import (
	"strconv"

	"github.com/vyconsole/vyconsole/internal/opbuilder"
	"github.com/vyconsole/vyconsole/internal/urls"
)

// RegexListRule mirrors one rule of an AS-path, community or extended
// community list. All three share the same shape.
type RegexListRule struct {
	Name        string `json:"name"`
	Rule        int    `json:"rule"`
	Action      string `json:"action,omitempty"`
	Description string `json:"description,omitempty"`
	Regex       string `json:"regex,omitempty"`
}

// RegexListForm is the editable state of a regex list rule.
type RegexListForm struct {
	Action      string `json:"action" validate:"required,oneof=permit deny"`
	Description string `json:"description" validate:"max=255"`
	Regex       string `json:"regex" validate:"required,regex"`
}

// InitializeRegexListForm seeds the form from a rule.
func InitializeRegexListForm(r *RegexListRule) RegexListForm {
	if r == nil {
		return RegexListForm{Action: "permit"}
	}
	return RegexListForm{Action: r.Action, Description: r.Description, Regex: r.Regex}
}

// RegexListSpec maps RegexListForm to batch operations.
var RegexListSpec = &opbuilder.Spec{
	Fields: []opbuilder.FieldSpec{
		{Name: "action", Kind: opbuilder.Scalar, SetOp: "set_action"},
		{Name: "description", Kind: opbuilder.Scalar, SetOp: "set_description", DeleteOp: "delete_description"},
		{Name: "regex", Kind: opbuilder.Scalar, SetOp: "set_regex"},
	},
}

func regexListKind(name, title, path string) *Kind[RegexListRule, RegexListForm] {
	return &Kind[RegexListRule, RegexListForm]{
		Name:       name,
		Title:      title,
		Path:       path,
		Collection: "rules",
		Keys: []KeyField{
			{Name: "name", Help: "list name"},
			{Name: "rule", Numeric: true, Help: "rule number"},
		},
		Spec:     RegexListSpec,
		DeleteOp: "delete_rule",
		ListKey:  "name",
		RuleKey:  "rule",
		DocURL:   urls.VyOSPolicy,
		KeyOf: func(r *RegexListRule) Key {
			return Key{"name": r.Name, "rule": strconv.Itoa(r.Rule)}
		},
		Initialize: InitializeRegexListForm,
	}
}

var (
	ASPathLists       = regexListKind("as-path-list", "AS-path list rules", "/vyos/as-path-list")
	CommunityLists    = regexListKind("community-list", "Community list rules", "/vyos/community-list")
	ExtCommunityLists = regexListKind("extcommunity-list", "Extended community list rules", "/vyos/extcommunity-list")
)
