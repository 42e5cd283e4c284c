package automation

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/google/uuid"
	"github.com/segmentio/kafka-go"
	"gorm.io/datatypes"

	"github.com/aldoetobex/glojourn-backend/internal/store"
	"github.com/aldoetobex/glojourn-backend/pkg/models"
)

var ctx = context.Background()

type recordingExecutor struct {
	msgs []Message
	fail map[string]error
}

func (r *recordingExecutor) Execute(_ context.Context, msg Message) error {
	r.msgs = append(r.msgs, msg)
	return r.fail[msg.RuleName]
}

func status(s models.CaseStatus) *models.CaseStatus { return &s }

func TestMatches(t *testing.T) {
	tests := []struct {
		name  string
		rule  models.AutomationRule
		event EventType
		ec    EventContext
		want  bool
	}{
		{"created", models.AutomationRule{TriggerType: "case_created", IsActive: true}, EventCaseCreated, EventContext{}, true},
		{"wrong type", models.AutomationRule{TriggerType: "case_created", IsActive: true}, EventStatusChange, EventContext{}, false},
		{"inactive", models.AutomationRule{TriggerType: "case_created"}, EventCaseCreated, EventContext{}, false},
		{"any status", models.AutomationRule{TriggerType: "status_change", IsActive: true}, EventStatusChange, EventContext{NewStatus: models.CaseApproved}, true},
		{"status match", models.AutomationRule{TriggerType: "status_change", IsActive: true, ConditionStatus: status(models.CaseApproved)}, EventStatusChange, EventContext{NewStatus: models.CaseApproved}, true},
		{"status mismatch", models.AutomationRule{TriggerType: "status_change", IsActive: true, ConditionStatus: status(models.CaseApproved)}, EventStatusChange, EventContext{NewStatus: models.CaseRejected}, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Matches(tt.rule, tt.event, tt.ec); got != tt.want {
				t.Errorf("Expected %v, got %v", tt.want, got)
			}
		})
	}
}

func TestEngine_RunsEveryMatchingRuleDespiteFailures(t *testing.T) {
	rules := store.NewMemory()
	rules.AddRule(models.AutomationRule{Name: "notify", TriggerType: "status_change", IsActive: true, ConditionStatus: status(models.CaseApproved), Action: datatypes.JSON(`{"type":"email"}`)})
	rules.AddRule(models.AutomationRule{Name: "broken", TriggerType: "status_change", IsActive: true})
	rules.AddRule(models.AutomationRule{Name: "other", TriggerType: "status_change", IsActive: true, ConditionStatus: status(models.CaseRejected)})

	exec := &recordingExecutor{fail: map[string]error{"broken": errors.New("boom")}}
	eng := NewEngine(rules, exec)
	c := &models.Case{ID: uuid.New(), CaseNumber: "CASE-1-0001"}

	err := eng.OnCaseEvent(ctx, EventStatusChange, c, EventContext{OldStatus: models.CaseProcessing, NewStatus: models.CaseApproved})
	if err == nil {
		t.Fatalf("Expected the broken rule to surface")
	}
	if len(exec.msgs) != 2 {
		t.Fatalf("Expected 2 executions, got %d", len(exec.msgs))
	}
	for _, m := range exec.msgs {
		if m.CaseID != c.ID || m.NewStatus != models.CaseApproved {
			t.Errorf("unexpected message %+v", m)
		}
	}
}

type panicTrigger struct{}

func (panicTrigger) OnCaseEvent(context.Context, EventType, *models.Case, EventContext) error {
	panic("rule exploded")
}

type errTrigger struct{ calls int }

func (e *errTrigger) OnCaseEvent(context.Context, EventType, *models.Case, EventContext) error {
	e.calls++
	return errors.New("down")
}

func TestFire_IsolatesFailures(t *testing.T) {
	c := &models.Case{ID: uuid.New()}
	Fire(ctx, panicTrigger{}, EventCaseCreated, c, EventContext{})

	et := &errTrigger{}
	Fire(ctx, et, EventCaseCreated, c, EventContext{})
	if et.calls != 1 {
		t.Fatalf("Expected one call, got %d", et.calls)
	}
	Fire(ctx, nil, EventCaseCreated, c, EventContext{})
}

type fakeWriter struct {
	msgs []kafka.Message
	err  error
}

func (f *fakeWriter) WriteMessages(_ context.Context, msgs ...kafka.Message) error {
	f.msgs = append(f.msgs, msgs...)
	return f.err
}

func (f *fakeWriter) Close() error { return nil }

func TestKafkaExecutor_PublishesKeyedByCase(t *testing.T) {
	w := &fakeWriter{}
	k := newKafkaExecutorWithWriter(w, "case-automation")
	msg := Message{RuleID: uuid.New(), Event: EventCaseCreated, CaseID: uuid.New(), Action: json.RawMessage(`{"notify":true}`)}

	if err := k.Execute(ctx, msg); err != nil {
		t.Fatalf("execute: %v", err)
	}
	if len(w.msgs) != 1 {
		t.Fatalf("Expected 1 message, got %d", len(w.msgs))
	}
	got := w.msgs[0]
	if got.Topic != "case-automation" || string(got.Key) != msg.CaseID.String() {
		t.Fatalf("unexpected message %+v", got)
	}
	var decoded Message
	if err := json.Unmarshal(got.Value, &decoded); err != nil || decoded.RuleID != msg.RuleID {
		t.Fatalf("payload mismatch: %v", err)
	}

	w.err = errors.New("broker down")
	if err := k.Execute(ctx, msg); err == nil {
		t.Fatalf("Expected publish error")
	}
}
