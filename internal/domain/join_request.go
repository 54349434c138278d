package domain

import (
	"encoding/json"
	"fmt"
	"strconv"
)

// UnknownSession is used when neither a group nor a user id is present
const UnknownSession = "unknown_session"

// Event is one inbound notification from the bot backend
type Event struct {
	ID  string         `json:"id"`
	Raw map[string]any `json:"raw"`
}

// JoinRequest is a pending request to enter a group
type JoinRequest struct {
	Flag      string `json:"flag"`
	UserID    string `json:"user_id"`
	GroupID   string `json:"group_id"`
	Comment   string `json:"comment"`
	SessionID string `json:"session_id"`
}

// ParseJoinRequest extracts a group-add request from a raw event payload.
// It reports false for anything that is not a group join request.
func ParseJoinRequest(raw map[string]any) (JoinRequest, bool) {
	if len(raw) == 0 {
		return JoinRequest{}, false
	}
	if field(raw, "post_type") != "request" {
		return JoinRequest{}, false
	}
	if field(raw, "request_type") != "group" || field(raw, "sub_type") != SubTypeAdd {
		return JoinRequest{}, false
	}

	req := JoinRequest{
		Flag:    field(raw, "flag"),
		UserID:  field(raw, "user_id"),
		GroupID: field(raw, "group_id"),
		Comment: field(raw, "comment"),
	}
	return req.Normalize(), true
}

// Normalize returns a copy with a resolvable session id
func (r JoinRequest) Normalize() JoinRequest {
	if r.SessionID != "" {
		return r
	}
	switch {
	case r.GroupID != "":
		r.SessionID = r.GroupID
	case r.UserID != "":
		r.SessionID = r.UserID
	default:
		r.SessionID = UnknownSession
	}
	return r
}

// field renders a payload value as a string; ids arrive as JSON numbers
func field(raw map[string]any, key string) string {
	switch v := raw[key].(type) {
	case nil:
		return ""
	case string:
		return v
	case json.Number:
		return v.String()
	case float64:
		return strconv.FormatFloat(v, 'f', -1, 64)
	case int:
		return strconv.Itoa(v)
	case int64:
		return strconv.FormatInt(v, 10)
	case bool:
		return strconv.FormatBool(v)
	default:
		return fmt.Sprint(v)
	}
}
