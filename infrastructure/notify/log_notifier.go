// Package notify provides Notifier implementations for announcing
// final team membership.
package notify

import (
	"context"

	"go.uber.org/zap"

	"github.com/deklol/valorant-skirmish-nexus-sub000/internal/domain"
	"github.com/deklol/valorant-skirmish-nexus-sub000/internal/ports"
)

var _ ports.Notifier = (*LogNotifier)(nil)

// LogNotifier announces team membership through structured logs. It
// stands in for outbound messaging integrations (Discord webhooks,
// mail) in deployments that have none configured.
type LogNotifier struct {
	log *zap.Logger
}

// NewLogNotifier creates a notifier writing to the given logger. A nil
// logger gets a no-op one.
func NewLogNotifier(log *zap.Logger) *LogNotifier {
	if log == nil {
		log = zap.NewNop()
	}
	return &LogNotifier{log: log}
}

// NotifyTeams implements ports.Notifier.
func (n *LogNotifier) NotifyTeams(ctx context.Context, tournamentID string, teams []domain.Team) error {
	for _, t := range teams {
		captain := ""
		if c, ok := t.Captain(); ok {
			captain = c.Name
		}
		members := make([]string, 0, t.Len())
		for _, m := range t.Members {
			members = append(members, m.Name)
		}
		n.log.Info("team formed",
			zap.String("tournament", tournamentID),
			zap.Int("team", t.Index+1),
			zap.String("captain", captain),
			zap.Strings("members", members),
			zap.Float64("total", t.Total()),
		)
	}
	return nil
}
