package contracttest

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/techsum/newsletter-api/internal/domain"
	subscriberrepoport "github.com/techsum/newsletter-api/internal/ports/out/subscriberrepo"
)

type CleanupFunc = func()

type SubscriberRepoFactory func(t *testing.T) (subscriberrepoport.Repository, CleanupFunc)

// RunSubscriberRepo exercises the Repository contract shared by every
// adapter: upsert insert/refresh semantics, the canonical uniqueness key,
// status updates, tag mutation, deletion, listing order, and counts.
func RunSubscriberRepo(t *testing.T, newRepo SubscriberRepoFactory) {
	t.Helper()
	ctx := context.Background()

	repo, cleanup := newRepo(t)
	if cleanup != nil {
		t.Cleanup(cleanup)
	}

	t0 := time.Unix(1000, 0).UTC()
	t1 := t0.Add(time.Minute)
	t2 := t0.Add(2 * time.Minute)

	// Insert.
	alice, err := repo.Upsert(ctx, subscriberrepoport.UpsertArgs{
		ID:             domain.SubscriberID(uuid.NewString()),
		Email:          "Alice@Example.com",
		CanonicalEmail: "alice@example.com",
		InsertTags:     []string{"weekly", "ai"},
		Now:            t0,
	})
	if err != nil {
		t.Fatalf("Upsert insert: %v", err)
	}
	if alice.Status != domain.StatusActive {
		t.Fatalf("status=%q, want active", alice.Status)
	}
	if !alice.CreatedAt.Equal(t0) || !alice.UpdatedAt.Equal(t0) {
		t.Fatalf("createdAt=%v updatedAt=%v, want both %v", alice.CreatedAt, alice.UpdatedAt, t0)
	}
	if len(alice.Tags) != 2 {
		t.Fatalf("tags=%v, want 2 entries", alice.Tags)
	}

	// Refresh: same canonical key must not create a second record, must keep
	// createdAt and tags, and must take the new raw email.
	refreshed, err := repo.Upsert(ctx, subscriberrepoport.UpsertArgs{
		ID:             domain.SubscriberID(uuid.NewString()),
		Email:          "ALICE@example.com",
		CanonicalEmail: "alice@example.com",
		InsertTags:     []string{"ignored"},
		Now:            t1,
	})
	if err != nil {
		t.Fatalf("Upsert refresh: %v", err)
	}
	if refreshed.ID != alice.ID {
		t.Fatalf("refresh created a new record: id %q vs %q", refreshed.ID, alice.ID)
	}
	if refreshed.Email != "ALICE@example.com" {
		t.Fatalf("email=%q, want refreshed raw form", refreshed.Email)
	}
	if !refreshed.CreatedAt.Equal(t0) {
		t.Fatalf("createdAt mutated on refresh: %v", refreshed.CreatedAt)
	}
	if !refreshed.UpdatedAt.Equal(t1) {
		t.Fatalf("updatedAt=%v, want %v", refreshed.UpdatedAt, t1)
	}
	if len(refreshed.Tags) != 2 {
		t.Fatalf("tags reset on refresh: %v", refreshed.Tags)
	}

	// Find by canonical key.
	got, err := repo.Find(ctx, "alice@example.com")
	if err != nil {
		t.Fatalf("Find: %v", err)
	}
	if got.ID != alice.ID {
		t.Fatalf("Find returned id %q, want %q", got.ID, alice.ID)
	}
	if _, err := repo.Find(ctx, "missing@example.com"); err != subscriberrepoport.ErrNotFound {
		t.Fatalf("Find missing err=%v, want ErrNotFound", err)
	}

	// SetStatus on an existing record.
	matched, err := repo.SetStatus(ctx, "alice@example.com", domain.StatusInactive, t2)
	if err != nil || !matched {
		t.Fatalf("SetStatus matched=%v err=%v", matched, err)
	}
	got, err = repo.Find(ctx, "alice@example.com")
	if err != nil {
		t.Fatalf("Find: %v", err)
	}
	if got.Status != domain.StatusInactive || !got.UpdatedAt.Equal(t2) {
		t.Fatalf("after SetStatus: status=%q updatedAt=%v", got.Status, got.UpdatedAt)
	}

	// SetStatus on a never-seen key is a no-op success.
	matched, err = repo.SetStatus(ctx, "ghost@example.com", domain.StatusInactive, t2)
	if err != nil {
		t.Fatalf("SetStatus ghost: %v", err)
	}
	if matched {
		t.Fatalf("expected matched=false for unknown key")
	}
	if _, err := repo.Find(ctx, "ghost@example.com"); err != subscriberrepoport.ErrNotFound {
		t.Fatalf("SetStatus must not create records, err=%v", err)
	}

	// Tag mutation.
	tags, err := repo.MutateTag(ctx, "alice@example.com", "go", true, t2)
	if err != nil {
		t.Fatalf("MutateTag add: %v", err)
	}
	if !containsTag(tags, "go") {
		t.Fatalf("tags=%v, want go present", tags)
	}
	// Re-adding must not duplicate.
	tags, err = repo.MutateTag(ctx, "alice@example.com", "go", true, t2)
	if err != nil {
		t.Fatalf("MutateTag re-add: %v", err)
	}
	if countTag(tags, "go") != 1 {
		t.Fatalf("tags=%v, want exactly one go", tags)
	}
	tags, err = repo.MutateTag(ctx, "alice@example.com", "go", false, t2)
	if err != nil {
		t.Fatalf("MutateTag remove: %v", err)
	}
	if containsTag(tags, "go") {
		t.Fatalf("tags=%v, want go removed", tags)
	}
	// Removing an absent tag is a no-op, not an error.
	if _, err := repo.MutateTag(ctx, "alice@example.com", "never-there", false, t2); err != nil {
		t.Fatalf("MutateTag remove absent: %v", err)
	}
	if _, err := repo.MutateTag(ctx, "missing@example.com", "x", true, t2); err != subscriberrepoport.ErrNotFound {
		t.Fatalf("MutateTag missing err=%v, want ErrNotFound", err)
	}

	// Listing order: updatedAt desc, createdAt desc.
	if _, err := repo.Upsert(ctx, subscriberrepoport.UpsertArgs{
		ID:             domain.SubscriberID(uuid.NewString()),
		Email:          "bob@example.com",
		CanonicalEmail: "bob@example.com",
		Now:            t1,
	}); err != nil {
		t.Fatalf("Upsert bob: %v", err)
	}
	ss, err := repo.List(ctx)
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(ss) != 2 {
		t.Fatalf("List len=%d, want 2", len(ss))
	}
	if ss[0].CanonicalEmail != "alice@example.com" || ss[1].CanonicalEmail != "bob@example.com" {
		t.Fatalf("List order: %q, %q", ss[0].CanonicalEmail, ss[1].CanonicalEmail)
	}

	// Counts.
	counts, err := repo.Counts(ctx)
	if err != nil {
		t.Fatalf("Counts: %v", err)
	}
	if counts.Total != 2 || counts.Active != 1 || counts.Inactive != 1 {
		t.Fatalf("counts=%+v, want total=2 active=1 inactive=1", counts)
	}

	// Delete.
	deleted, err := repo.Delete(ctx, "alice@example.com")
	if err != nil || !deleted {
		t.Fatalf("Delete deleted=%v err=%v", deleted, err)
	}
	deleted, err = repo.Delete(ctx, "alice@example.com")
	if err != nil {
		t.Fatalf("Delete again: %v", err)
	}
	if deleted {
		t.Fatalf("expected deleted=false on second delete")
	}
	if _, err := repo.Find(ctx, "alice@example.com"); err != subscriberrepoport.ErrNotFound {
		t.Fatalf("Find after delete err=%v, want ErrNotFound", err)
	}

	// A subscribe after delete recreates the identity from scratch.
	recreated, err := repo.Upsert(ctx, subscriberrepoport.UpsertArgs{
		ID:             domain.SubscriberID(uuid.NewString()),
		Email:          "alice@example.com",
		CanonicalEmail: "alice@example.com",
		Now:            t2,
	})
	if err != nil {
		t.Fatalf("Upsert after delete: %v", err)
	}
	if recreated.ID == alice.ID {
		t.Fatalf("expected a fresh record after delete")
	}
	if len(recreated.Tags) != 0 {
		t.Fatalf("tags=%v, want empty after recreate", recreated.Tags)
	}
}

func containsTag(tags []string, tag string) bool {
	return countTag(tags, tag) > 0
}

func countTag(tags []string, tag string) int {
	n := 0
	for _, t := range tags {
		if t == tag {
			n++
		}
	}
	return n
}
