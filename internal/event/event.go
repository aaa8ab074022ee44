package event

type Type string

const (
	TypeSessionLogin       Type = "session.login"
	TypeSessionLogout      Type = "session.logout"
	TypeSessionLoginFailed Type = "session.login_failed"
	TypeSessionCleared     Type = "session.cleared"
	TypeFPOApproved        Type = "fpo.approved"
	TypeFPORejected        Type = "fpo.rejected"
	TypeFPORegistered      Type = "fpo.registered"
	TypeTurnoverRecorded   Type = "agri_business.recorded"
)

type Event struct {
	ID        string         `json:"id"`
	Type      Type           `json:"type"`
	Payload   map[string]any `json:"payload,omitempty"`
	Timestamp string         `json:"timestamp"`
	ActorID   string         `json:"actor_id,omitempty"` // email of the signed-in user, when known
}

type Bus interface {
	Publish(e Event)
	Subscribe() (<-chan Event, func()) // Returns channel and unsubscribe function
}
