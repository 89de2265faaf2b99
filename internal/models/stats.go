package models

// Stats is the progress summary shown to the learner
type Stats struct {
	DueCount         int    `json:"dueCount"`
	NewRemaining     int    `json:"newRemaining"`
	ReviewsToday     int    `json:"reviewsToday"`
	TotalCards       int    `json:"totalCards"`
	NextDueTimestamp *int64 `json:"nextDueTimestamp"`
}

// NoticeKind classifies sync status messages
type NoticeKind string

const (
	NoticeNone                 NoticeKind = ""
	NoticeSyncUnavailable      NoticeKind = "sync_unavailable"
	NoticeReauthenticate       NoticeKind = "reauthenticate"
	NoticeServerUnreachable    NoticeKind = "server_unreachable"
	NoticeWaitingConfirmation  NoticeKind = "waiting_confirmation"
	NoticeCorruptLocalState    NoticeKind = "corrupt_local_state"
	NoticeConfigurationMissing NoticeKind = "configuration_missing"
	NoticeSaveFailed           NoticeKind = "save_failed"
)

// Notice is a transient, non-blocking sync status message
type Notice struct {
	Kind    NoticeKind `json:"kind"`
	Message string     `json:"message"`
}

// IsZero reports whether there is nothing to show
func (n Notice) IsZero() bool {
	return n.Kind == NoticeNone
}
