package service

import (
	"context"
	"strings"
	"time"

	"github.com/agfi/registro-backend/internal/logging"
	"github.com/agfi/registro-backend/internal/metrics"
	"github.com/agfi/registro-backend/internal/model"
)

// Entry is one audit record.
type Entry struct {
	Actor          string
	Action         string
	Description    string
	EventID        uint64
	AttendeeID     uint64
	RegistrationID uint64
	WalkInID       uint64
}

// Auditor writes the append-only audit log. Writes are best effort: a
// failure is logged and counted but never returned, and never undoes the
// operation being recorded.
type Auditor struct {
	repos Repos
}

func NewAuditor(r Repos) *Auditor { return &Auditor{repos: r} }

// Record stores e outside of any caller transaction.
func (a *Auditor) Record(ctx context.Context, e Entry) {
	entry := &model.LogEntry{
		Actor:          optString(e.Actor),
		Action:         truncate(e.Action, 255),
		Description:    optString(e.Description),
		EventID:        optID(e.EventID),
		AttendeeID:     optID(e.AttendeeID),
		RegistrationID: optID(e.RegistrationID),
		WalkInID:       optID(e.WalkInID),
		CreatedAt:      time.Now().UTC(),
	}
	// The request may have been cancelled after the primary write committed.
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 3*time.Second)
	defer cancel()
	if err := a.repos.InsertLog(ctx, entry); err != nil {
		metrics.AuditWriteFailures.Inc()
		logging.Error().Err(err).Str("action", entry.Action).Msg("audit log write failed")
	}
}

// Logs returns the most recent audit entries for management users.
func (s *Service) Logs(ctx context.Context, actor Actor, limit int) ([]model.LogEntry, error) {
	if err := requireManager(actor); err != nil {
		return nil, err
	}
	switch {
	case limit <= 0:
		limit = 100
	case limit > 500:
		limit = 500
	}
	logs, err := s.store.ListLogs(ctx, limit)
	return logs, wrapRepo(err, "")
}

func optString(s string) *string {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil
	}
	return &s
}

func optID(id uint64) *uint64 {
	if id == 0 {
		return nil
	}
	return &id
}

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n])
}
