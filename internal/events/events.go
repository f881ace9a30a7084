// Package events defines the messages exchanged between the redirect service,
// the HTTP event stream and the dashboard.
package events

import (
	"encoding/json"
	"fmt"
)

// RedirectCreatedMsg is emitted after a redirect has been stored.
type RedirectCreatedMsg struct {
	Key string `json:"key"`
	URL string `json:"url"`
}

// RedirectUpdatedMsg is emitted after a redirect points at a new URL.
type RedirectUpdatedMsg struct {
	Key string `json:"key"`
	URL string `json:"url"`
}

// RedirectDeletedMsg is emitted after a redirect is removed.
type RedirectDeletedMsg struct {
	Key string `json:"key"`
}

// RedirectVisitedMsg is emitted when a short link has been followed.
type RedirectVisitedMsg struct {
	Key    string `json:"key"`
	Visits int64  `json:"visits"`
}

// RedirectsImportedMsg is emitted after a bulk import.
type RedirectsImportedMsg struct {
	Count int `json:"count"`
}

// RequestCompletedMsg reports the outcome of a request made by the dashboard.
type RequestCompletedMsg struct {
	RequestPath string
	Successful  bool
	Key         string
	Err         error
}

// SSE event names.
const (
	TypeCreated  = "created"
	TypeUpdated  = "updated"
	TypeDeleted  = "deleted"
	TypeVisited  = "visited"
	TypeImported = "imported"
)

// Type returns the SSE event name for msg, or false for messages that are
// not streamed.
func Type(msg any) (string, bool) {
	switch msg.(type) {
	case RedirectCreatedMsg:
		return TypeCreated, true
	case RedirectUpdatedMsg:
		return TypeUpdated, true
	case RedirectDeletedMsg:
		return TypeDeleted, true
	case RedirectVisitedMsg:
		return TypeVisited, true
	case RedirectsImportedMsg:
		return TypeImported, true
	default:
		return "", false
	}
}

// Decode turns an SSE event back into its message.
func Decode(eventType string, data []byte) (any, error) {
	switch eventType {
	case TypeCreated:
		var m RedirectCreatedMsg
		err := json.Unmarshal(data, &m)
		return m, err
	case TypeUpdated:
		var m RedirectUpdatedMsg
		err := json.Unmarshal(data, &m)
		return m, err
	case TypeDeleted:
		var m RedirectDeletedMsg
		err := json.Unmarshal(data, &m)
		return m, err
	case TypeVisited:
		var m RedirectVisitedMsg
		err := json.Unmarshal(data, &m)
		return m, err
	case TypeImported:
		var m RedirectsImportedMsg
		err := json.Unmarshal(data, &m)
		return m, err
	default:
		return nil, fmt.Errorf("unknown event type %q", eventType)
	}
}
