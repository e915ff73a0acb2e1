package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"strings"
	"sync"
	"time"
)

// VerifiedIdentity is what the identity provider attests to.
type VerifiedIdentity struct {
	PhoneNumber string
	Name        string
}

// IdentityVerifier validates a provider payload and returns the verified
// identity, or an error when the payload cannot be trusted.
type IdentityVerifier interface {
	Verify(ctx context.Context, payload map[string]string) (*VerifiedIdentity, error)
}

var (
	ErrVerificationFailed  = errors.New("identity verification failed")
	ErrVerificationPending = errors.New("identity verification pending")
)

// HTTPIdentityVerifier checks an access token against the provider's
// profile endpoint. In strict mode any provider error rejects the login;
// in lenient mode (dev) a provider outage falls back to the payload's own
// claims.
type HTTPIdentityVerifier struct {
	ProfileURL string
	Strict     bool
	Client     *http.Client

	mu      sync.Mutex
	pending map[string]pendingVerification
}

type pendingVerification struct {
	identity *VerifiedIdentity
	expires  time.Time
}

const (
	pendingTTL          = 10 * time.Minute
	pendingPollInterval = 2 * time.Second
	pendingPollTimeout  = 2 * time.Minute
)

// NewIdentityVerifier builds the verifier from the environment.
// IDENTITY_STRICT_VERIFY=false switches to lenient mode for local
// development.
func NewIdentityVerifier() *HTTPIdentityVerifier {
	strict := strings.ToLower(os.Getenv("IDENTITY_STRICT_VERIFY")) != "false"
	return &HTTPIdentityVerifier{
		ProfileURL: os.Getenv("IDENTITY_VERIFY_URL"),
		Strict:     strict,
		Client:     &http.Client{Timeout: 10 * time.Second},
		pending:    make(map[string]pendingVerification),
	}
}

// Verify resolves the payload's access token to a verified identity.
func (v *HTTPIdentityVerifier) Verify(ctx context.Context, payload map[string]string) (*VerifiedIdentity, error) {
	token := payload["accessToken"]
	if token == "" {
		return nil, fmt.Errorf("%w: missing access token", ErrVerificationFailed)
	}

	if identity := v.takePending(token); identity != nil {
		return identity, nil
	}

	identity, err := v.fetchProfile(ctx, token)
	if err != nil {
		if v.Strict {
			return nil, err
		}
		// Lenient mode trusts the client's claims when the provider is
		// unreachable. Never enabled in production.
		log.Printf("⚠️ Identity provider unavailable, lenient fallback: %v", err)
		phone := normalizePhone(payload["phoneNumber"])
		if phone == "" {
			return nil, ErrVerificationFailed
		}
		return &VerifiedIdentity{PhoneNumber: phone, Name: payload["name"]}, nil
	}
	return identity, nil
}

// AwaitVerification polls for a deferred provider callback. The provider
// posts the profile asynchronously for some login flows; this blocks the
// handler with bounded polling until the callback lands or times out.
func (v *HTTPIdentityVerifier) AwaitVerification(ctx context.Context, token string) (*VerifiedIdentity, error) {
	deadline := time.Now().Add(pendingPollTimeout)
	ticker := time.NewTicker(pendingPollInterval)
	defer ticker.Stop()

	for {
		if identity := v.takePending(token); identity != nil {
			return identity, nil
		}
		if time.Now().After(deadline) {
			return nil, ErrVerificationPending
		}
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-ticker.C:
		}
	}
}

// CompleteVerification records a provider callback for later pickup.
func (v *HTTPIdentityVerifier) CompleteVerification(token string, identity VerifiedIdentity) {
	identity.PhoneNumber = normalizePhone(identity.PhoneNumber)

	v.mu.Lock()
	defer v.mu.Unlock()
	v.expirePendingLocked()
	v.pending[token] = pendingVerification{
		identity: &identity,
		expires:  time.Now().Add(pendingTTL),
	}
}

func (v *HTTPIdentityVerifier) takePending(token string) *VerifiedIdentity {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.expirePendingLocked()

	entry, ok := v.pending[token]
	if !ok {
		return nil
	}
	delete(v.pending, token)
	return entry.identity
}

func (v *HTTPIdentityVerifier) expirePendingLocked() {
	now := time.Now()
	for token, entry := range v.pending {
		if now.After(entry.expires) {
			delete(v.pending, token)
		}
	}
}

func (v *HTTPIdentityVerifier) fetchProfile(ctx context.Context, token string) (*VerifiedIdentity, error) {
	if v.ProfileURL == "" {
		return nil, fmt.Errorf("%w: no profile endpoint configured", ErrVerificationFailed)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, v.ProfileURL, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Authorization", "Bearer "+token)

	resp, err := v.Client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrVerificationFailed, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("%w: provider returned %d", ErrVerificationFailed, resp.StatusCode)
	}

	var profile struct {
		PhoneNumbers []string `json:"phoneNumbers"`
		Name         struct {
			First string `json:"first"`
			Last  string `json:"last"`
		} `json:"name"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&profile); err != nil {
		return nil, fmt.Errorf("%w: undecodable profile", ErrVerificationFailed)
	}
	if len(profile.PhoneNumbers) == 0 {
		return nil, fmt.Errorf("%w: profile has no phone number", ErrVerificationFailed)
	}

	return &VerifiedIdentity{
		PhoneNumber: normalizePhone(profile.PhoneNumbers[0]),
		Name:        strings.TrimSpace(profile.Name.First + " " + profile.Name.Last),
	}, nil
}

// normalizePhone strips separators and ensures a leading plus so the same
// number always maps to the same account.
func normalizePhone(raw string) string {
	var b strings.Builder
	for _, r := range raw {
		if r >= '0' && r <= '9' {
			b.WriteRune(r)
		}
	}
	digits := b.String()
	if digits == "" {
		return ""
	}
	return "+" + digits
}
