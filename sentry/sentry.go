package sentry

import (
	"time"

	sentry "github.com/getsentry/sentry-go"
	sentrygin "github.com/getsentry/sentry-go/gin"
	"github.com/gin-gonic/gin"
	log "github.com/sirupsen/logrus"
)

type Options struct {
	DSN              string
	Release          string
	Environment      string
	TracesSampleRate float64
}

// Init configures the global Sentry client. With an empty DSN the client is
// still installed but drops every event, so callers need no special casing.
func Init(opts Options) error {
	if err := sentry.Init(sentry.ClientOptions{
		Dsn:              opts.DSN,
		Release:          opts.Release,
		Environment:      opts.Environment,
		TracesSampleRate: opts.TracesSampleRate,
	}); err != nil {
		return err
	}
	if opts.DSN == "" {
		log.Info("Sentry DSN not set, error reporting disabled")
	}
	return nil
}

// GetSentryGin returns the middleware that clones a hub per request and
// recovers panics into Sentry events before gin's own recovery sees them.
func GetSentryGin() gin.HandlerFunc {
	return sentrygin.New(sentrygin.Options{
		Repanic: true,
		Timeout: 2 * time.Second,
	})
}

func ReportError(err error) {
	sentry.CaptureException(err)
}

// Flush waits for buffered events before the process exits.
func Flush() {
	sentry.Flush(2 * time.Second)
}
