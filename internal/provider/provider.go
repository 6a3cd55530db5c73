// Package provider turns payment notifications into settlement events.
package provider

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"net/http"
	"sort"
	"strings"

	"github.com/gilson954/sistema-rifa-sub001/internal/entity"
)

const SignatureHeader = "X-Signature"

// Notification is a raw inbound webhook.
type Notification struct {
	Body   []byte
	Header http.Header
}

// Result is either a settlement event or an ignored notification.
type Result struct {
	Event   *entity.SettlementEvent
	Ignored bool
	Reason  string
}

func ignored(reason string) *Result {
	return &Result{Ignored: true, Reason: reason}
}

// Adapter parses one provider's payload.
type Adapter interface {
	Name() string
	Parse(ctx context.Context, n *Notification) (*Result, error)
}

// Registry maps provider names to adapters.
type Registry struct {
	adapters map[string]Adapter
}

func NewRegistry(adapters ...Adapter) *Registry {
	r := &Registry{adapters: make(map[string]Adapter, len(adapters))}
	for _, a := range adapters {
		r.Register(a)
	}
	return r
}

func (r *Registry) Register(a Adapter) {
	r.adapters[strings.ToLower(a.Name())] = a
}

func (r *Registry) Get(name string) (Adapter, error) {
	a, ok := r.adapters[strings.ToLower(name)]
	if !ok {
		return nil, fmt.Errorf("%w: %s", entity.ErrUnknownProvider, name)
	}
	return a, nil
}

// Names returns the registered providers, sorted.
func (r *Registry) Names() []string {
	names := make([]string, 0, len(r.adapters))
	for name := range r.adapters {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Sign returns the hex HMAC-SHA256 of body.
func Sign(body []byte, secret string) string {
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write(body)
	return hex.EncodeToString(mac.Sum(nil))
}

// verifySignature is a no-op when no secret is configured.
func verifySignature(n *Notification, secret string) error {
	if secret == "" {
		return nil
	}
	received := strings.TrimPrefix(n.Header.Get(SignatureHeader), "sha256=")
	if received == "" {
		return entity.ErrInvalidSignature
	}
	expected := Sign(n.Body, secret)
	if !hmac.Equal([]byte(strings.ToLower(received)), []byte(expected)) {
		return entity.ErrInvalidSignature
	}
	return nil
}
