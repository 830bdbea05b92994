package mqtt

import (
	"time"

	"github.com/patrickmn/go-cache"
)

// sessionTTL mirrors a generous MQTT keep-alive window; entries outlive any
// single keep-alive interval so a slow-polling adapter doesn't lose track of
// a client between CONNECT and the next packet it inspects.
const sessionTTL = 10 * time.Minute

// SessionState is what the Sessions store remembers about a client between
// packets, since a PUBLISH or SUBSCRIBE on its own doesn't say which MQTT
// version produced it.
type SessionState struct {
	ClientID      string
	ProtocolLevel uint8
	CleanSession  bool
}

// Sessions is a TTL-bounded table of in-flight MQTT sessions keyed by client
// id, populated from decoded CONNECT packets so that later PUBLISH/SUBSCRIBE
// packets on the same connection can be interpreted with the right protocol
// version in mind.
type Sessions struct {
	store *cache.Cache
}

// NewSessions creates an empty session table.
func NewSessions() *Sessions {
	return &Sessions{store: cache.New(sessionTTL, sessionTTL/2)}
}

// Observe records (or refreshes) the session implied by a decoded CONNECT
// body.
func (s *Sessions) Observe(body *ConnectBody) {
	if body == nil || body.ClientID == "" {
		return
	}
	s.store.Set(body.ClientID, SessionState{
		ClientID:      body.ClientID,
		ProtocolLevel: body.ProtocolLevel,
		CleanSession:  body.CleanSession,
	}, cache.DefaultExpiration)
}

// Lookup returns the remembered session state for clientID, if any.
func (s *Sessions) Lookup(clientID string) (SessionState, bool) {
	v, ok := s.store.Get(clientID)
	if !ok {
		return SessionState{}, false
	}
	state, ok := v.(SessionState)
	return state, ok
}

// Forget drops a client's session state, e.g. once a DISCONNECT is seen.
func (s *Sessions) Forget(clientID string) {
	s.store.Delete(clientID)
}
