package http

import (
	"context"
	"fmt"
	"net/http"
	"runtime/debug"
	"time"

	"storefront/internal/auth"
	"storefront/internal/notify/application"
	"storefront/internal/notify/domain"
)

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(status int) {
	r.status = status
	r.ResponseWriter.WriteHeader(status)
}

// IncidentMiddleware reports panics and 5xx responses to the targeting
// service. Reporting runs off the request goroutine so a slow flag store
// never delays the response.
func IncidentMiddleware(service *application.Service) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}

			defer func() {
				if p := recover(); p != nil {
					debug.PrintStack()
					report(service, r, "panic", fmt.Sprintf("%v", p))
					http.Error(rec, "internal error", http.StatusInternalServerError)
					return
				}
				if rec.status >= http.StatusInternalServerError {
					report(service, r, "server_error", fmt.Sprintf("request failed with status %d", rec.status))
				}
			}()

			next.ServeHTTP(rec, r)
		})
	}
}

func report(service *application.Service, r *http.Request, errorType, msg string) {
	inc := domain.Incident{
		ErrorType:  errorType,
		Message:    msg,
		Path:       r.URL.Path,
		Method:     r.Method,
		OccurredAt: time.Now().UTC(),
	}
	if id, ok := auth.FromContext(r.Context()); ok {
		userID := id.UserID
		inc.UserID = &userID
	}

	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		service.Report(ctx, inc)
	}()
}
