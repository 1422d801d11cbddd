// Package newsletter handles "Special Offers & News" signups.
package newsletter

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/mail"
	"net/url"
	"slices"
	"strings"
	"time"

	"crustline/internal/cache"

	"github.com/google/uuid"
	"github.com/samber/lo"
)

const subscriberPrefix = "newsletter/"

var ErrInvalidEmail = errors.New("invalid email address")

type Subscriber struct {
	ID        string    `json:"id"`
	Email     string    `json:"email"`
	CreatedAt time.Time `json:"created_at"`
}

type Storage struct {
	cache cache.ListCache
	now   func() time.Time
}

func NewStorage(c cache.ListCache) *Storage {
	return &Storage{cache: c, now: time.Now}
}

// NormalizeEmail validates a bare address and lowercases it.
func NormalizeEmail(raw string) (string, error) {
	raw = strings.TrimSpace(raw)
	addr, err := mail.ParseAddress(raw)
	if err != nil || addr.Address != raw || addr.Name != "" {
		return "", fmt.Errorf("%w: %q", ErrInvalidEmail, raw)
	}
	return strings.ToLower(addr.Address), nil
}

// Subscribe records email once. created is false when the address was
// already subscribed; the existing record is returned in that case.
func (s *Storage) Subscribe(ctx context.Context, email string) (sub *Subscriber, created bool, err error) {
	normalized, err := NormalizeEmail(email)
	if err != nil {
		return nil, false, err
	}

	record := Subscriber{
		ID:        uuid.NewString(),
		Email:     normalized,
		CreatedAt: s.now().UTC(),
	}
	payload, err := json.Marshal(record)
	if err != nil {
		return nil, false, fmt.Errorf("marshal subscriber: %w", err)
	}

	key := subscriberKey(normalized)
	err = s.cache.Put(ctx, key, string(payload), cache.IfNoneMatch())
	switch {
	case err == nil:
		return &record, true, nil
	case errors.Is(err, cache.ErrAlreadyExists):
		existing, getErr := s.get(ctx, key)
		if getErr != nil {
			return nil, false, getErr
		}
		return existing, false, nil
	default:
		return nil, false, fmt.Errorf("store subscriber: %w", err)
	}
}

// List returns every subscribed address in sorted order.
func (s *Storage) List(ctx context.Context) ([]string, error) {
	keys, err := s.cache.List(ctx, subscriberPrefix, "")
	if err != nil {
		return nil, fmt.Errorf("list subscribers: %w", err)
	}
	emails := lo.FilterMap(keys, func(k string, _ int) (string, bool) {
		if k == "" || strings.Contains(k, "/") {
			return "", false
		}
		email, err := url.PathUnescape(k)
		return email, err == nil
	})
	slices.Sort(emails)
	return emails, nil
}

// subscriberKey escapes the address so a "/" in its local part stays inside
// one key segment.
func subscriberKey(email string) string {
	return subscriberPrefix + url.PathEscape(email)
}

func (s *Storage) get(ctx context.Context, key string) (*Subscriber, error) {
	rc, err := s.cache.Get(ctx, key)
	if err != nil {
		return nil, fmt.Errorf("read subscriber: %w", err)
	}
	defer func() {
		_ = rc.Close()
	}()
	var sub Subscriber
	if err := json.NewDecoder(rc).Decode(&sub); err != nil {
		return nil, fmt.Errorf("decode subscriber: %w", err)
	}
	return &sub, nil
}
