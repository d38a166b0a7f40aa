package auth

import (
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/openagora/agora/internal/domain"
)

const testSecret = "0123456789abcdef0123456789abcdef"

func newTestManager(ttl time.Duration) *TokenManager {
	return NewTokenManager(testSecret, "agora-test", ttl)
}

func TestIssueAndParse_RoundTrip(t *testing.T) {
	t.Parallel()

	m := newTestManager(time.Hour)
	want := SessionClaims{
		Kind:           domain.SubjectExternal,
		SubjectID:      uuid.New(),
		ConversationID: uuid.New(),
		PID:            42,
		ExternalID:     "xid-abc",
	}

	token, err := m.Issue(want)
	if err != nil {
		t.Fatalf("issue: %v", err)
	}

	got, err := m.Parse(token)
	if err != nil {
		t.Fatalf("parse: %v", err)
	}

	if got != want {
		t.Errorf("claims round trip: got %+v, want %+v", got, want)
	}
}

func TestParse_EmptyToken(t *testing.T) {
	t.Parallel()

	m := newTestManager(time.Hour)
	if _, err := m.Parse(""); err == nil {
		t.Fatal("expected error for empty token")
	}
}

func TestParse_ExpiredToken(t *testing.T) {
	t.Parallel()

	m := newTestManager(-time.Minute)
	token, err := m.Issue(SessionClaims{
		Kind:           domain.SubjectAnonymous,
		SubjectID:      uuid.New(),
		ConversationID: uuid.New(),
		PID:            1,
	})
	if err != nil {
		t.Fatalf("issue: %v", err)
	}

	if _, err := m.Parse(token); err == nil {
		t.Fatal("expected error for expired token")
	}
}

func TestParse_WrongSecret(t *testing.T) {
	t.Parallel()

	m := newTestManager(time.Hour)
	token, err := m.Issue(SessionClaims{
		Kind:           domain.SubjectAnonymous,
		SubjectID:      uuid.New(),
		ConversationID: uuid.New(),
		PID:            1,
	})
	if err != nil {
		t.Fatalf("issue: %v", err)
	}

	other := NewTokenManager(strings.Repeat("x", 32), "agora-test", time.Hour)
	if _, err := other.Parse(token); err == nil {
		t.Fatal("expected error for wrong secret")
	}
}

func TestParse_WrongIssuer(t *testing.T) {
	t.Parallel()

	m := newTestManager(time.Hour)
	token, err := m.Issue(SessionClaims{
		Kind:           domain.SubjectAccount,
		SubjectID:      uuid.New(),
		ConversationID: uuid.New(),
		PID:            7,
	})
	if err != nil {
		t.Fatalf("issue: %v", err)
	}

	other := NewTokenManager(testSecret, "someone-else", time.Hour)
	if _, err := other.Parse(token); err == nil {
		t.Fatal("expected error for wrong issuer")
	}
}

func TestParse_TamperedToken(t *testing.T) {
	t.Parallel()

	m := newTestManager(time.Hour)
	token, err := m.Issue(SessionClaims{
		Kind:           domain.SubjectAnonymous,
		SubjectID:      uuid.New(),
		ConversationID: uuid.New(),
		PID:            1,
	})
	if err != nil {
		t.Fatalf("issue: %v", err)
	}

	tampered := token[:len(token)-2] + "zz"
	if _, err := m.Parse(tampered); err == nil {
		t.Fatal("expected error for tampered signature")
	}
}
