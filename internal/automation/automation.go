// Package automation hands case lifecycle events to externally managed rules.
// Rule contents are opaque here; an Executor delivers them.
package automation

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/aldoetobex/glojourn-backend/internal/metrics"
	"github.com/aldoetobex/glojourn-backend/internal/store"
	"github.com/aldoetobex/glojourn-backend/pkg/models"
)

type EventType string

const (
	EventCaseCreated  EventType = "case_created"
	EventStatusChange EventType = "status_change"
)

// EventContext carries what changed. Statuses are empty for case_created.
type EventContext struct {
	OldStatus models.CaseStatus
	NewStatus models.CaseStatus
	ActorID   uuid.UUID
}

// Trigger receives case events after the mutating save succeeded.
type Trigger interface {
	OnCaseEvent(ctx context.Context, event EventType, c *models.Case, ec EventContext) error
}

// Fire calls t and absorbs any error or panic so the request that caused the
// event is never affected.
func Fire(ctx context.Context, t Trigger, event EventType, c *models.Case, ec EventContext) {
	if t == nil {
		return
	}
	defer func() {
		if r := recover(); r != nil {
			slog.Error("automation panicked", "event", event, "case_id", c.ID, "panic", fmt.Sprint(r))
			metrics.AutomationFailed(string(event))
		}
	}()
	if err := t.OnCaseEvent(ctx, event, c, ec); err != nil {
		slog.Error("automation failed", "event", event, "case_id", c.ID, "error", err)
		metrics.AutomationFailed(string(event))
	}
}

// Message is what an Executor delivers for one matched rule.
type Message struct {
	RuleID     uuid.UUID         `json:"ruleId"`
	RuleName   string            `json:"ruleName"`
	Event      EventType         `json:"event"`
	CaseID     uuid.UUID         `json:"caseId"`
	CaseNumber string            `json:"caseNumber"`
	ClientID   uuid.UUID         `json:"clientId"`
	OldStatus  models.CaseStatus `json:"oldStatus,omitempty"`
	NewStatus  models.CaseStatus `json:"newStatus,omitempty"`
	ActorID    uuid.UUID         `json:"actorId"`
	Action     json.RawMessage   `json:"action,omitempty"`
	OccurredAt time.Time         `json:"occurredAt"`
}

type Executor interface {
	Execute(ctx context.Context, msg Message) error
}

// Engine matches active rules and executes each one. A failing rule does not
// stop the others.
type Engine struct {
	rules store.RuleStore
	exec  Executor
	now   func() time.Time
}

func NewEngine(rules store.RuleStore, exec Executor) *Engine {
	return &Engine{rules: rules, exec: exec, now: time.Now}
}

var _ Trigger = (*Engine)(nil)

// OnCaseEvent loads the active rules for event and executes each match. One
// failing rule does not stop the others; their errors are joined.
func (e *Engine) OnCaseEvent(ctx context.Context, event EventType, c *models.Case, ec EventContext) error {
	rules, err := e.rules.ActiveRules(ctx, string(event))
	if err != nil {
		return fmt.Errorf("load rules: %w", err)
	}
	var errs []error
	for _, r := range rules {
		if !Matches(r, event, ec) {
			continue
		}
		msg := Message{
			RuleID:     r.ID,
			RuleName:   r.Name,
			Event:      event,
			CaseID:     c.ID,
			CaseNumber: c.CaseNumber,
			ClientID:   c.ClientID,
			OldStatus:  ec.OldStatus,
			NewStatus:  ec.NewStatus,
			ActorID:    ec.ActorID,
			Action:     json.RawMessage(r.Action),
			OccurredAt: e.now(),
		}
		if err := e.exec.Execute(ctx, msg); err != nil {
			errs = append(errs, fmt.Errorf("rule %s: %w", r.ID, err))
		}
	}
	return errors.Join(errs...)
}

// Matches reports whether rule r applies. A status_change rule with a
// condition only fires when the new status equals it.
func Matches(r models.AutomationRule, event EventType, ec EventContext) bool {
	if !r.IsActive || r.TriggerType != string(event) {
		return false
	}
	if event == EventStatusChange && r.ConditionStatus != nil && *r.ConditionStatus != "" {
		return *r.ConditionStatus == ec.NewStatus
	}
	return true
}

// LogExecutor only logs matched rules.
type LogExecutor struct{}

func (LogExecutor) Execute(_ context.Context, msg Message) error {
	slog.Info("automation rule matched",
		"rule_id", msg.RuleID,
		"rule", msg.RuleName,
		"event", msg.Event,
		"case_id", msg.CaseID,
		"new_status", msg.NewStatus,
	)
	return nil
}
