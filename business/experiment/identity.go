package experiment

import "myEventReco/domain"

// Identity is the subject of an assignment. When both ids are present the
// authenticated user id takes precedence; the session id is only consulted
// for assignments made before login.
type Identity struct {
	UserID    string `json:"user_id,omitempty"`
	SessionID string `json:"session_id,omitempty"`
}

func (i Identity) Empty() bool {
	return i.UserID == "" && i.SessionID == ""
}

// Subject is the canonical subject string used for hashing, telemetry and
// click de-duplication. Scopes are prefixed so a user id can never collide
// with a session id.
func (i Identity) Subject() string {
	switch {
	case i.UserID != "":
		return "u:" + i.UserID
	case i.SessionID != "":
		return "s:" + i.SessionID
	default:
		return ""
	}
}

// primaryScope returns where a fresh assignment is persisted.
func (i Identity) primaryScope() (string, string) {
	if i.UserID != "" {
		return domain.SubjectScopeUser, i.UserID
	}
	return domain.SubjectScopeSession, i.SessionID
}
