package domain

// SubTypeAdd marks a request to join a group (as opposed to an invite)
const SubTypeAdd = "add"

// ActionSetGroupAddRequest is the bot action that answers a join request
const ActionSetGroupAddRequest = "set_group_add_request"

// Rule names which policy step produced a decision
type Rule string

const (
	RuleAutoAccept    Rule = "auto_accept"
	RuleAutoReject    Rule = "auto_reject"
	RuleRejectKeyword Rule = "reject_keyword"
	RuleAcceptKeyword Rule = "accept_keyword"
)

// Decision is the verdict for one join request
type Decision struct {
	Approve bool   `json:"approve"`
	Reason  string `json:"reason,omitempty"`
	Rule    Rule   `json:"rule"`
	Keyword string `json:"keyword,omitempty"`
}

// GroupAddRequestParams is the payload of set_group_add_request
type GroupAddRequestParams struct {
	Flag    string `json:"flag"`
	SubType string `json:"sub_type"`
	Approve bool   `json:"approve"`
	Reason  string `json:"reason"`
}

// NewGroupAddRequestParams builds the outbound payload for a decision
func NewGroupAddRequestParams(req JoinRequest, d Decision) GroupAddRequestParams {
	return GroupAddRequestParams{
		Flag:    req.Flag,
		SubType: SubTypeAdd,
		Approve: d.Approve,
		Reason:  d.Reason,
	}
}

// Kwargs renders the payload as generic keyword arguments
func (p GroupAddRequestParams) Kwargs() map[string]any {
	return map[string]any{
		"flag":     p.Flag,
		"sub_type": p.SubType,
		"approve":  p.Approve,
		"reason":   p.Reason,
	}
}

// BotStatus is the result of the get_status action
type BotStatus struct {
	Online bool `json:"online"`
	Good   bool `json:"good"`
}
