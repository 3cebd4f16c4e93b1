// Package sentryhelper provides utilities for Sentry hub and span management.
// The gin middleware clones a hub per request; these helpers find it again
// from the request context so breadcrumbs and events stay isolated per request.
package sentryhelper

import (
	"context"

	sentry "github.com/getsentry/sentry-go"
)

// HubFromContext retrieves the request hub from context.
// Falls back to CurrentHub if the context carries none.
func HubFromContext(ctx context.Context) *sentry.Hub {
	if ctx == nil {
		return sentry.CurrentHub()
	}
	if hub := sentry.GetHubFromContext(ctx); hub != nil {
		return hub
	}
	return sentry.CurrentHub()
}

// AddBreadcrumb adds a breadcrumb to the hub in context.
func AddBreadcrumb(ctx context.Context, category, message string, data map[string]interface{}) {
	HubFromContext(ctx).AddBreadcrumb(&sentry.Breadcrumb{
		Category: category,
		Message:  message,
		Data:     data,
		Level:    sentry.LevelInfo,
	}, nil)
}

// CaptureException captures an exception on the hub in context.
func CaptureException(ctx context.Context, err error) *sentry.EventID {
	return HubFromContext(ctx).CaptureException(err)
}

// ConfigureScope configures the scope on the hub in context.
func ConfigureScope(ctx context.Context, f func(*sentry.Scope)) {
	HubFromContext(ctx).ConfigureScope(f)
}

// StartSpan starts a child span of the request transaction in context.
// Without a transaction in context it starts an unattached span.
func StartSpan(ctx context.Context, operation, description string) *sentry.Span {
	return sentry.StartSpan(ctx, operation, sentry.WithDescription(description))
}
