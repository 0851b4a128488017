package application

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"storefront/internal/notify/domain"
)

var ErrFlagNotFound = errors.New("feature flag not found")

const FlagErrorNotifications = "error_notifications"

type Service struct {
	log      *slog.Logger
	flags    FlagStore
	groups   GroupLookup
	dispatch Dispatcher
}

func NewService(log *slog.Logger, flags FlagStore, groups GroupLookup, dispatch Dispatcher) *Service {
	return &Service{log: log, flags: flags, groups: groups, dispatch: dispatch}
}

// Report decides whether the incident is eligible under the governing
// flag and, if so, dispatches exactly one notification. It never fails
// the caller: targeting problems are logged and swallowed.
func (s *Service) Report(ctx context.Context, inc domain.Incident) {
	flag, err := s.flags.Flag(ctx, FlagErrorNotifications)
	if err != nil {
		if !errors.Is(err, ErrFlagNotFound) {
			s.log.Error("flag lookup failed", "flag", FlagErrorNotifications, "err", err)
		}
		return
	}
	if !flag.Enabled {
		return
	}
	if len(flag.Recipients) == 0 {
		s.log.Warn("incident notification skipped: no recipients configured", "flag", flag.Name)
		return
	}

	if flag.TargetGroup != "" {
		if inc.UserID == nil {
			return
		}
		member, err := s.groups.IsMember(ctx, *inc.UserID, flag.TargetGroup)
		if err != nil {
			s.log.Error("group membership lookup failed", "group", flag.TargetGroup, "err", err)
			return
		}
		if !member {
			return
		}
	}

	subject, body := format(inc)
	if err := s.dispatch.Send(ctx, flag.Recipients, subject, body); err != nil {
		s.log.Error("incident dispatch failed", "err", err)
		return
	}
	s.log.Info("incident dispatched", "error_type", inc.ErrorType, "recipients", len(flag.Recipients))
}

func format(inc domain.Incident) (subject, body string) {
	subject = fmt.Sprintf("[storefront] %s", inc.ErrorType)

	var b strings.Builder
	fmt.Fprintf(&b, "Error: %s\n", inc.ErrorType)
	fmt.Fprintf(&b, "Message: %s\n", inc.Message)
	fmt.Fprintf(&b, "Request: %s %s\n", inc.Method, inc.Path)
	return subject, b.String()
}
