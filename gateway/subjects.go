package gateway

// Subjects derives the NATS subject names used by the gateway from a
// configurable prefix, so multiple games can share one server.
type Subjects struct {
	prefix string
}

// NewSubjects creates the subject set for a prefix.
func NewSubjects(prefix string) Subjects {
	if prefix == "" {
		prefix = "sanabotti"
	}
	return Subjects{prefix: prefix}
}

// WordsSubmitted carries inbound word submissions.
func (s Subjects) WordsSubmitted() string {
	return s.prefix + ".words.submitted"
}

// GameReset carries game reset requests.
func (s Subjects) GameReset() string {
	return s.prefix + ".game.reset"
}

// ReactionsIndicate carries outcome indications for submitted words.
func (s Subjects) ReactionsIndicate() string {
	return s.prefix + ".reactions.indicate"
}

// ReactionsClearPending carries pending-indicator removals.
func (s Subjects) ReactionsClearPending() string {
	return s.prefix + ".reactions.clear_pending"
}
