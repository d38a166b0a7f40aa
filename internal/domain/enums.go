package domain

import "fmt"

// SubjectKind describes how the caller proved who they are. It is embedded
// in session token claims and drives the conversation-mismatch resolution.
type SubjectKind string

const (
	SubjectAnonymous SubjectKind = "anonymous"
	SubjectExternal  SubjectKind = "external"
	SubjectAccount   SubjectKind = "account"
)

// ParseSubjectKind converts a string to a SubjectKind.
func ParseSubjectKind(s string) (SubjectKind, error) {
	switch SubjectKind(s) {
	case SubjectAnonymous, SubjectExternal, SubjectAccount:
		return SubjectKind(s), nil
	default:
		return "", fmt.Errorf("unknown subject kind %q", s)
	}
}

func (k SubjectKind) String() string { return string(k) }

// VoteValue is the participant's verdict on a comment.
type VoteValue int16

const (
	VoteAgree    VoteValue = -1
	VotePass     VoteValue = 0
	VoteDisagree VoteValue = 1
)

// Valid reports whether v is one of the three defined verdicts.
func (v VoteValue) Valid() bool {
	return v == VoteAgree || v == VotePass || v == VoteDisagree
}

// ModStatus is the moderation state of a comment.
type ModStatus int16

const (
	// ModPending means no moderation verdict exists yet, including the case
	// where the classifiers were unreachable. Pending comments stay inactive
	// under strict moderation and active otherwise.
	ModPending  ModStatus = 0
	ModApproved ModStatus = 1
	ModRejected ModStatus = -1
)

func (m ModStatus) String() string {
	switch m {
	case ModApproved:
		return "approved"
	case ModRejected:
		return "rejected"
	default:
		return "pending"
	}
}
