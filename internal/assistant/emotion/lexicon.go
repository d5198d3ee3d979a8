package emotion

// Tag identifies one detected emotion category.
type Tag string

const (
	TagAngry        Tag = "angry"
	TagImpatient    Tag = "impatient"
	TagDissatisfied Tag = "dissatisfied"
	TagComplaint    Tag = "complaint"
	TagTransfer     Tag = "transfer"
	TagFrustrated   Tag = "frustrated"
)

// Lexicon maps emotion categories to the keyword phrases that trigger them.
// It is plain data so deployments can extend or replace categories without
// touching the matching logic.
type Lexicon map[Tag][]string

// DefaultLexicon returns the built-in negative-emotion keyword tables.
func DefaultLexicon() Lexicon {
	return Lexicon{
		TagAngry: {
			"angry", "mad", "furious", "pissed", "irritated", "annoyed", "frustrated",
		},
		TagImpatient: {
			"hurry", "urgent", "asap", "immediately", "quickly", "fast", "now", "waiting too long",
		},
		TagDissatisfied: {
			"terrible", "awful", "horrible", "useless", "stupid", "worst", "hate", "disappointed",
		},
		TagComplaint: {
			"complain", "complaint", "report", "escalate", "manager", "supervisor",
		},
		TagTransfer: {
			"human", "person", "agent", "representative", "transfer", "speak to someone", "talk to someone",
		},
	}
}
