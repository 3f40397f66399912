package service

import (
	"context"
	"errors"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/spec-kit/property-market/internal/events"
	"github.com/spec-kit/property-market/internal/persistence"
	apperrors "github.com/spec-kit/property-market/pkg/util/errorutil"
)

var errIdentityUnavailable = errors.New("identity provider not configured")

// Cache keys for read-through listings.
func buyerOffersKey(email string) string { return "offers:buyer:" + normalizeEmail(email) }

func agentOffersKey(email string) string { return "offers:agent:" + normalizeEmail(email) }

func soldKey(email string) string { return "sold:" + normalizeEmail(email) }

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

func publishEvent(ctx context.Context, dispatcher events.Dispatcher, event events.Event) {
	if dispatcher == nil {
		return
	}
	if event.ID == "" {
		event.ID = uuid.NewString()
	}
	if event.Timestamp.IsZero() {
		event.Timestamp = time.Now()
	}
	_ = dispatcher.Publish(ctx, event)
}

// missingFields returns the sorted names whose values are blank.
func missingFields(fields map[string]string) []string {
	var missing []string
	for name, value := range fields {
		if strings.TrimSpace(value) == "" {
			missing = append(missing, name)
		}
	}
	sort.Strings(missing)
	return missing
}

func requireFields(fields map[string]string) error {
	if missing := missingFields(fields); len(missing) > 0 {
		return apperrors.NewValidationError("missing required fields", map[string]any{"fields": missing})
	}
	return nil
}

// notFound turns a store miss into a typed NotFound for resource.
func notFound(err error, resource, id string) error {
	if apperrors.IsNotFound(err) {
		return apperrors.NewNotFound(resource, map[string]any{"id": id})
	}
	return err
}

func invalidate(ctx context.Context, cache *persistence.Cache, keys ...string) {
	cache.Delete(ctx, keys...)
}
