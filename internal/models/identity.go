package models

// Identity is an opaque learner identifier with an optional credential.
//
// A zero Identity means the learner is not signed in. An Identity with an ID but without
// a Token is waiting for its credential to be confirmed.
type Identity struct {
	ID    string
	Token string
}

// IsZero reports whether no learner is signed in
func (i Identity) IsZero() bool {
	return i.ID == ""
}

// Pending reports whether the learner is known but the credential is not confirmed yet
func (i Identity) Pending() bool {
	return i.ID != "" && i.Token == ""
}

// Authenticated reports whether remote calls can be made for this identity
func (i Identity) Authenticated() bool {
	return i.ID != "" && i.Token != ""
}

// StorageKey derives the local cache key: baseKey or baseKey::id
func (i Identity) StorageKey(baseKey string) string {
	if i.IsZero() {
		return baseKey
	}
	return baseKey + "::" + i.ID
}
