// Package wizard defines the closed set of multi-step guided interactions a
// chat can be in. At most one wizard is active per chat, held on the chat's
// session record; clearing a session resets it to none.
package wizard

// Kind identifies a wizard variant.
type Kind string

const (
	// KindDNIEdit is the admin flow for correcting a user's DNI.
	KindDNIEdit Kind = "dni_edit"
	// KindAuthorization is the photo-based authorization flow.
	KindAuthorization Kind = "authorization"
	// KindSearch is a user lookup flow, in admin or user scope.
	KindSearch Kind = "search"
)

// State is an in-progress wizard. Implementations are small value types
// carrying only the fields their flow needs.
type State interface {
	Kind() Kind
}

// DNIEdit tracks an admin editing the DNI of a target user.
type DNIEdit struct {
	TargetUserID string
}

// Kind implements State.
func (DNIEdit) Kind() Kind { return KindDNIEdit }

// AuthStep is the current step of the authorization flow.
type AuthStep string

const (
	// StepAwaitingSignature waits for the signature photo.
	StepAwaitingSignature AuthStep = "awaiting_signature"
	// StepAwaitingFingerprint waits for the fingerprint photo.
	StepAwaitingFingerprint AuthStep = "awaiting_fingerprint"
	// StepConfirm waits for the final confirmation.
	StepConfirm AuthStep = "confirm"
)

// Authorization tracks the photo-upload authorization flow.
type Authorization struct {
	Step AuthStep
	// Data accumulates flow inputs, keyed by field name (e.g. uploaded
	// file ids).
	Data map[string]string
}

// Kind implements State.
func (Authorization) Kind() Kind { return KindAuthorization }

// NewAuthorization starts the authorization flow at its first step.
func NewAuthorization() Authorization {
	return Authorization{
		Step: StepAwaitingSignature,
		Data: make(map[string]string),
	}
}

// Advance moves the flow to its next step. Returns false when already at the
// final step.
func (a Authorization) Advance() (Authorization, bool) {
	switch a.Step {
	case StepAwaitingSignature:
		a.Step = StepAwaitingFingerprint
		return a, true
	case StepAwaitingFingerprint:
		a.Step = StepConfirm
		return a, true
	default:
		return a, false
	}
}

// SearchDomain scopes a search wizard.
type SearchDomain string

const (
	// DomainAdmin searches across all users (admin only).
	DomainAdmin SearchDomain = "admin"
	// DomainUser searches the user's own records.
	DomainUser SearchDomain = "user"
)

// Search tracks an in-progress user lookup.
type Search struct {
	Domain SearchDomain
}

// Kind implements State.
func (Search) Kind() Kind { return KindSearch }
