package rules

import (
	"context"
	"errors"
	"testing"

	"github.com/google/uuid"
)

type mockRuleRepo struct {
	rows    map[uuid.UUID]*Rule
	members map[uuid.UUID]map[uuid.UUID]bool // ruleSetID -> ruleID set
}

func newMockRuleRepo() *mockRuleRepo {
	return &mockRuleRepo{
		rows:    make(map[uuid.UUID]*Rule),
		members: make(map[uuid.UUID]map[uuid.UUID]bool),
	}
}

func (m *mockRuleRepo) Create(_ context.Context, r *Rule) error {
	if r.ID == uuid.Nil {
		r.ID = uuid.New()
	}
	cp := *r
	m.rows[r.ID] = &cp
	return nil
}

func (m *mockRuleRepo) GetByID(_ context.Context, id uuid.UUID) (*Rule, error) {
	r, ok := m.rows[id]
	if !ok {
		return nil, ErrNotFound
	}
	cp := *r
	return &cp, nil
}

func (m *mockRuleRepo) Update(_ context.Context, r *Rule) error {
	if _, ok := m.rows[r.ID]; !ok {
		return ErrNotFound
	}
	cp := *r
	m.rows[r.ID] = &cp
	return nil
}

func (m *mockRuleRepo) Delete(_ context.Context, id uuid.UUID) error {
	if _, ok := m.rows[id]; !ok {
		return ErrNotFound
	}
	delete(m.rows, id)
	return nil
}

func (m *mockRuleRepo) ListByRuleSet(_ context.Context, ruleSetID uuid.UUID) ([]*Rule, error) {
	var out []*Rule
	for id := range m.members[ruleSetID] {
		cp := *m.rows[id]
		out = append(out, &cp)
	}
	return out, nil
}

func (m *mockRuleRepo) CountReferences(_ context.Context, ruleID uuid.UUID) (int, error) {
	n := 0
	for _, set := range m.members {
		if set[ruleID] {
			n++
		}
	}
	return n, nil
}

func (m *mockRuleRepo) Attach(_ context.Context, ruleSetID, ruleID uuid.UUID) error {
	if m.members[ruleSetID] == nil {
		m.members[ruleSetID] = make(map[uuid.UUID]bool)
	}
	m.members[ruleSetID][ruleID] = true
	return nil
}

func (m *mockRuleRepo) Detach(_ context.Context, ruleSetID, ruleID uuid.UUID) error {
	delete(m.members[ruleSetID], ruleID)
	return nil
}

func (m *mockRuleRepo) Replace(_ context.Context, ruleSetID, oldRuleID, newRuleID uuid.UUID) error {
	delete(m.members[ruleSetID], oldRuleID)
	return m.Attach(context.Background(), ruleSetID, newRuleID)
}

// allowAllDrafts accepts every rule set as the draft.
type allowAllDrafts struct{}

func (allowAllDrafts) EnsureDraft(context.Context, uuid.UUID) error { return nil }

// rejectDrafts refuses every rule set.
type rejectDrafts struct{}

func (rejectDrafts) EnsureDraft(context.Context, uuid.UUID) error { return ErrNotDraft }

func validRule(name string) *Rule {
	return &Rule{
		ID:        uuid.New(),
		Name:      name,
		Type:      RuleTypeBlock,
		Priority:  5,
		Enabled:   true,
		Condition: AppointmentType{IDs: []string{"consult"}},
	}
}

func TestCreateRule_AttachesToDraft(t *testing.T) {
	repo := newMockRuleRepo()
	svc := NewService(repo, allowAllDrafts{})
	draftID := uuid.New()

	r := validRule("no consults")
	if err := svc.CreateRule(context.Background(), draftID, r); err != nil {
		t.Fatalf("CreateRule: %v", err)
	}
	if !repo.members[draftID][r.ID] {
		t.Error("rule not attached to the draft")
	}
}

func TestCreateRule_RejectsInvalid(t *testing.T) {
	svc := NewService(newMockRuleRepo(), allowAllDrafts{})

	bad := validRule("bad")
	bad.Condition = And{}
	if err := svc.CreateRule(context.Background(), uuid.New(), bad); err == nil {
		t.Error("expected validation error")
	}
}

func TestCreateRule_RequiresDraft(t *testing.T) {
	svc := NewService(newMockRuleRepo(), rejectDrafts{})

	err := svc.CreateRule(context.Background(), uuid.New(), validRule("r"))
	if !errors.Is(err, ErrNotDraft) {
		t.Errorf("err = %v, want ErrNotDraft", err)
	}
}

func TestUpdateRule_InPlaceWhenUnshared(t *testing.T) {
	repo := newMockRuleRepo()
	svc := NewService(repo, allowAllDrafts{})
	draftID := uuid.New()

	r := validRule("original")
	if err := svc.CreateRule(context.Background(), draftID, r); err != nil {
		t.Fatalf("CreateRule: %v", err)
	}

	changed := *r
	changed.Name = "renamed"
	updated, err := svc.UpdateRule(context.Background(), draftID, &changed)
	if err != nil {
		t.Fatalf("UpdateRule: %v", err)
	}
	if updated.ID != r.ID {
		t.Errorf("unshared rule must keep its id, got %s", updated.ID)
	}
	if repo.rows[r.ID].Name != "renamed" {
		t.Errorf("row name = %q", repo.rows[r.ID].Name)
	}
}

func TestUpdateRule_ClonesSharedRow(t *testing.T) {
	repo := newMockRuleRepo()
	svc := NewService(repo, allowAllDrafts{})
	draftID := uuid.New()
	savedSetID := uuid.New()

	r := validRule("shared")
	if err := svc.CreateRule(context.Background(), draftID, r); err != nil {
		t.Fatalf("CreateRule: %v", err)
	}
	// The same row is also referenced by a saved snapshot.
	if err := repo.Attach(context.Background(), savedSetID, r.ID); err != nil {
		t.Fatal(err)
	}

	changed := *r
	changed.Name = "edited in draft"
	updated, err := svc.UpdateRule(context.Background(), draftID, &changed)
	if err != nil {
		t.Fatalf("UpdateRule: %v", err)
	}
	if updated.ID == r.ID {
		t.Fatal("shared rule must be cloned, not edited in place")
	}
	if repo.rows[r.ID].Name != "shared" {
		t.Errorf("original row changed: %q", repo.rows[r.ID].Name)
	}
	if !repo.members[savedSetID][r.ID] {
		t.Error("saved snapshot lost its reference")
	}
	if repo.members[draftID][r.ID] || !repo.members[draftID][updated.ID] {
		t.Error("draft must reference the clone instead of the original")
	}
}

func TestDeleteRule_KeepsSharedRow(t *testing.T) {
	repo := newMockRuleRepo()
	svc := NewService(repo, allowAllDrafts{})
	draftID := uuid.New()
	savedSetID := uuid.New()

	r := validRule("shared")
	if err := svc.CreateRule(context.Background(), draftID, r); err != nil {
		t.Fatalf("CreateRule: %v", err)
	}
	if err := repo.Attach(context.Background(), savedSetID, r.ID); err != nil {
		t.Fatal(err)
	}

	if err := svc.DeleteRule(context.Background(), draftID, r.ID); err != nil {
		t.Fatalf("DeleteRule: %v", err)
	}
	if _, ok := repo.rows[r.ID]; !ok {
		t.Error("row referenced elsewhere must survive the delete")
	}
	if repo.members[draftID][r.ID] {
		t.Error("draft reference must be gone")
	}
}

func TestDeleteRule_RemovesOrphanRow(t *testing.T) {
	repo := newMockRuleRepo()
	svc := NewService(repo, allowAllDrafts{})
	draftID := uuid.New()

	r := validRule("only here")
	if err := svc.CreateRule(context.Background(), draftID, r); err != nil {
		t.Fatalf("CreateRule: %v", err)
	}
	if err := svc.DeleteRule(context.Background(), draftID, r.ID); err != nil {
		t.Fatalf("DeleteRule: %v", err)
	}
	if _, ok := repo.rows[r.ID]; ok {
		t.Error("unreferenced row must be deleted")
	}
}

func TestRestoreRule_RecreatesOrReattaches(t *testing.T) {
	repo := newMockRuleRepo()
	svc := NewService(repo, allowAllDrafts{})
	draftID := uuid.New()

	// Row gone entirely: restore recreates it.
	r := validRule("restored")
	if err := svc.RestoreRule(context.Background(), draftID, r); err != nil {
		t.Fatalf("RestoreRule: %v", err)
	}
	if _, ok := repo.rows[r.ID]; !ok {
		t.Error("restore must recreate the missing row")
	}
	if !repo.members[draftID][r.ID] {
		t.Error("restore must attach the rule to the draft")
	}

	// Row still present as a shared reference: restore only reattaches.
	if err := repo.Detach(context.Background(), draftID, r.ID); err != nil {
		t.Fatal(err)
	}
	if err := svc.RestoreRule(context.Background(), draftID, r); err != nil {
		t.Fatalf("RestoreRule again: %v", err)
	}
	if !repo.members[draftID][r.ID] {
		t.Error("restore must reattach the surviving row")
	}
}
