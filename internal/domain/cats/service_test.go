package cats

import (
	"context"
	"errors"
	"testing"
	"time"

	"adopt-meow/internal/ports/auth"
)

// -------------------------
// Test repo (in-memory, versionado)
// -------------------------

type testRepo struct {
	byID map[string]Cat

	listErr error
	// conflictNext fuerza ErrConflict en los próximos N updates,
	// simulando otro cliente ganando la carrera.
	conflictNext int
	updates      int
}

func newTestRepo() *testRepo {
	return &testRepo{byID: map[string]Cat{}}
}

func (r *testRepo) Create(ctx context.Context, c Cat) error {
	if c.ID == "" {
		return errors.New("repo: id required")
	}
	if _, ok := r.byID[c.ID]; ok {
		return errors.New("repo: already exists")
	}
	r.byID[c.ID] = c
	return nil
}

func (r *testRepo) Update(ctx context.Context, c Cat) error {
	r.updates++
	if r.conflictNext > 0 {
		r.conflictNext--
		return ErrConflict
	}
	current, ok := r.byID[c.ID]
	if !ok {
		return ErrNotFound
	}
	if current.Version != c.Version {
		return ErrConflict
	}
	c.Version++
	r.byID[c.ID] = c
	return nil
}

func (r *testRepo) GetByID(ctx context.Context, id string) (Cat, error) {
	c, ok := r.byID[id]
	if !ok {
		return Cat{}, ErrNotFound
	}
	if c.AdopterIDs != nil {
		c.AdopterIDs = append([]string(nil), c.AdopterIDs...)
	}
	return c, nil
}

func (r *testRepo) List(ctx context.Context) ([]Cat, error) {
	if r.listErr != nil {
		return nil, r.listErr
	}
	out := make([]Cat, 0, len(r.byID))
	for _, c := range r.byID {
		out = append(out, c)
	}
	return out, nil
}

func (r *testRepo) Delete(ctx context.Context, id string) error {
	delete(r.byID, id)
	return nil
}

// -------------------------
// Helpers
// -------------------------

var (
	owner   = auth.Claims{UserID: "owner-1", UserType: auth.UserTypeOwner}
	adopter = auth.Claims{UserID: "adopter-1", UserType: auth.UserTypeAdopter}
	anon    = auth.Claims{}
)

func newTestService(repo *testRepo) *Service {
	svc := NewService(repo, nil)
	svc.now = func() time.Time {
		return time.Date(2026, 8, 30, 12, 0, 0, 0, time.UTC)
	}
	return svc
}

func seedCat(t *testing.T, svc *Service) Cat {
	t.Helper()
	c, err := svc.Create(context.Background(), owner, CreateInput{
		Name:      "Michi",
		Sex:       "female",
		Weight:    3.2,
		Castrated: "yes",
		Location:  Location{Lat: -34.6, Lng: -58.4},
	})
	if err != nil {
		t.Fatalf("Create error: %v", err)
	}
	return c
}

// assertInvariants valida las invariantes del modelo después de cada
// operación: adopted ⟺ confirmado seteado, confirmado postulante, sin
// duplicados en la lista.
func assertInvariants(t *testing.T, c Cat) {
	t.Helper()

	if c.Adopted != (c.ConfirmedAdopterID != "") {
		t.Fatalf("invariant broken: adopted=%v but confirmedAdopterId=%q", c.Adopted, c.ConfirmedAdopterID)
	}
	if c.ConfirmedAdopterID != "" && !c.IsApplicant(c.ConfirmedAdopterID) {
		t.Fatalf("invariant broken: confirmed adopter %q not in adopterIds %v", c.ConfirmedAdopterID, c.AdopterIDs)
	}
	seen := map[string]struct{}{}
	for _, id := range c.AdopterIDs {
		if _, dup := seen[id]; dup {
			t.Fatalf("invariant broken: duplicate adopter %q in %v", id, c.AdopterIDs)
		}
		seen[id] = struct{}{}
	}
}

func mustGet(t *testing.T, repo *testRepo, id string) Cat {
	t.Helper()
	c, err := repo.GetByID(context.Background(), id)
	if err != nil {
		t.Fatalf("GetByID error: %v", err)
	}
	return c
}

// -------------------------
// Tests
// -------------------------

func TestService_Create_RequiresOwnerRole(t *testing.T) {
	svc := newTestService(newTestRepo())

	_, err := svc.Create(context.Background(), adopter, CreateInput{
		Name: "Michi", Sex: "male",
	})
	if !errors.Is(err, ErrForbidden) {
		t.Fatalf("expected ErrForbidden for adopter creating a report, got %v", err)
	}

	_, err = svc.Create(context.Background(), anon, CreateInput{
		Name: "Michi", Sex: "male",
	})
	if !errors.Is(err, ErrUnauthorized) {
		t.Fatalf("expected ErrUnauthorized for anonymous create, got %v", err)
	}
}

func TestService_Create_SetsInitialState(t *testing.T) {
	repo := newTestRepo()
	svc := newTestService(repo)

	c := seedCat(t, svc)

	if c.OwnerID != owner.UserID {
		t.Fatalf("expected ownerId = caller id, got %q", c.OwnerID)
	}
	if c.Adopted || c.ConfirmedAdopterID != "" || len(c.AdopterIDs) != 0 {
		t.Fatalf("expected fresh report without adoption state, got %+v", c)
	}
	assertInvariants(t, c)
}

func TestService_Apply_IsIdempotent(t *testing.T) {
	repo := newTestRepo()
	svc := newTestService(repo)
	c := seedCat(t, svc)

	ctx := context.Background()
	if err := svc.Apply(ctx, adopter, c.ID, adopter.UserID); err != nil {
		t.Fatalf("Apply #1 error: %v", err)
	}
	if err := svc.Apply(ctx, adopter, c.ID, adopter.UserID); err != nil {
		t.Fatalf("Apply #2 (re-apply) error: %v", err)
	}

	got := mustGet(t, repo, c.ID)
	if len(got.AdopterIDs) != 1 || got.AdopterIDs[0] != adopter.UserID {
		t.Fatalf("expected single applicant, got %v", got.AdopterIDs)
	}
	if got.Adopted {
		t.Fatalf("Apply must never set adopted")
	}
	assertInvariants(t, got)
}

func TestService_Apply_PreservesApplicationOrder(t *testing.T) {
	repo := newTestRepo()
	svc := newTestService(repo)
	c := seedCat(t, svc)

	ctx := context.Background()
	a1 := auth.Claims{UserID: "a1", UserType: auth.UserTypeAdopter}
	a2 := auth.Claims{UserID: "a2", UserType: auth.UserTypeAdopter}

	if err := svc.Apply(ctx, a1, c.ID, "a1"); err != nil {
		t.Fatalf("Apply a1: %v", err)
	}
	if err := svc.Apply(ctx, a2, c.ID, "a2"); err != nil {
		t.Fatalf("Apply a2: %v", err)
	}

	got := mustGet(t, repo, c.ID)
	if len(got.AdopterIDs) != 2 || got.AdopterIDs[0] != "a1" || got.AdopterIDs[1] != "a2" {
		t.Fatalf("expected application order [a1 a2], got %v", got.AdopterIDs)
	}
}

func TestService_Apply_OwnerCannotApplyToOwnListing(t *testing.T) {
	repo := newTestRepo()
	svc := newTestService(repo)
	c := seedCat(t, svc)

	err := svc.Apply(context.Background(), owner, c.ID, owner.UserID)
	if !errors.Is(err, ErrForbidden) {
		t.Fatalf("expected ErrForbidden, got %v", err)
	}
}

func TestService_Apply_OnBehalfOfAnotherIsForbidden(t *testing.T) {
	repo := newTestRepo()
	svc := newTestService(repo)
	c := seedCat(t, svc)

	err := svc.Apply(context.Background(), adopter, c.ID, "someone-else")
	if !errors.Is(err, ErrForbidden) {
		t.Fatalf("expected ErrForbidden, got %v", err)
	}
}

func TestService_Confirm_RequiresApplicant(t *testing.T) {
	repo := newTestRepo()
	svc := newTestService(repo)
	c := seedCat(t, svc)

	err := svc.Confirm(context.Background(), owner, c.ID, "nunca-postulo")
	if !errors.Is(err, ErrBadState) {
		t.Fatalf("expected ErrBadState confirming a non-applicant, got %v", err)
	}
}

func TestService_Confirm_SetsAdoptedAndConfirmed(t *testing.T) {
	repo := newTestRepo()
	svc := newTestService(repo)
	c := seedCat(t, svc)

	ctx := context.Background()
	if err := svc.Apply(ctx, adopter, c.ID, adopter.UserID); err != nil {
		t.Fatalf("Apply error: %v", err)
	}
	if err := svc.Confirm(ctx, owner, c.ID, adopter.UserID); err != nil {
		t.Fatalf("Confirm error: %v", err)
	}

	got := mustGet(t, repo, c.ID)
	if !got.Adopted || got.ConfirmedAdopterID != adopter.UserID {
		t.Fatalf("expected adopted + confirmed %q, got %+v", adopter.UserID, got)
	}
	// Confirm no transfiere custodia.
	if got.OwnerID != owner.UserID {
		t.Fatalf("Confirm must not transfer ownership, got owner %q", got.OwnerID)
	}
	assertInvariants(t, got)
}

func TestService_Confirm_OnlyOwner(t *testing.T) {
	repo := newTestRepo()
	svc := newTestService(repo)
	c := seedCat(t, svc)

	ctx := context.Background()
	if err := svc.Apply(ctx, adopter, c.ID, adopter.UserID); err != nil {
		t.Fatalf("Apply error: %v", err)
	}

	err := svc.Confirm(ctx, adopter, c.ID, adopter.UserID)
	if !errors.Is(err, ErrForbidden) {
		t.Fatalf("expected ErrForbidden confirming as non-owner, got %v", err)
	}
}

func TestService_Finalize_ConfirmsAndTransfersInOneWrite(t *testing.T) {
	repo := newTestRepo()
	svc := newTestService(repo)
	c := seedCat(t, svc)

	ctx := context.Background()
	if err := svc.Apply(ctx, adopter, c.ID, adopter.UserID); err != nil {
		t.Fatalf("Apply error: %v", err)
	}

	updatesBefore := repo.updates
	got, err := svc.Finalize(ctx, owner, c.ID, adopter.UserID)
	if err != nil {
		t.Fatalf("Finalize error: %v", err)
	}

	if repo.updates != updatesBefore+1 {
		t.Fatalf("expected a single write, got %d", repo.updates-updatesBefore)
	}
	if !got.Adopted || got.ConfirmedAdopterID != adopter.UserID || got.OwnerID != adopter.UserID {
		t.Fatalf("expected adopted + confirmed + transferred, got %+v", got)
	}
	assertInvariants(t, got)
}

func TestService_RemoveAdopter_RejectionOverridesConfirmation(t *testing.T) {
	repo := newTestRepo()
	svc := newTestService(repo)
	c := seedCat(t, svc)

	ctx := context.Background()
	if err := svc.Apply(ctx, adopter, c.ID, adopter.UserID); err != nil {
		t.Fatalf("Apply error: %v", err)
	}
	if err := svc.Confirm(ctx, owner, c.ID, adopter.UserID); err != nil {
		t.Fatalf("Confirm error: %v", err)
	}

	// Rechazo posterior a la confirmación: manda el rechazo.
	if err := svc.RemoveAdopter(ctx, owner, c.ID, adopter.UserID); err != nil {
		t.Fatalf("RemoveAdopter error: %v", err)
	}

	got := mustGet(t, repo, c.ID)
	if got.Adopted || got.ConfirmedAdopterID != "" {
		t.Fatalf("expected adoption cleared after rejection, got %+v", got)
	}
	if got.IsApplicant(adopter.UserID) {
		t.Fatalf("expected adopter removed from pool")
	}
	if DeriveNovedad(got, adopter.UserID) != NovedadNone {
		t.Fatalf("removed adopter must have no status")
	}
	assertInvariants(t, got)
}

func TestService_RemoveAdopter_SelfRemovalAllowed(t *testing.T) {
	repo := newTestRepo()
	svc := newTestService(repo)
	c := seedCat(t, svc)

	ctx := context.Background()
	if err := svc.Apply(ctx, adopter, c.ID, adopter.UserID); err != nil {
		t.Fatalf("Apply error: %v", err)
	}

	// El propio postulante puede bajarse, sin ser el dueño.
	if err := svc.RemoveAdopter(ctx, adopter, c.ID, adopter.UserID); err != nil {
		t.Fatalf("self RemoveAdopter error: %v", err)
	}

	got := mustGet(t, repo, c.ID)
	if got.IsApplicant(adopter.UserID) {
		t.Fatalf("expected applicant removed")
	}

	// Un tercero no puede sacar a otro.
	third := auth.Claims{UserID: "otro", UserType: auth.UserTypeAdopter}
	if err := svc.Apply(ctx, adopter, c.ID, adopter.UserID); err != nil {
		t.Fatalf("re-Apply error: %v", err)
	}
	err := svc.RemoveAdopter(ctx, third, c.ID, adopter.UserID)
	if !errors.Is(err, ErrForbidden) {
		t.Fatalf("expected ErrForbidden, got %v", err)
	}
}

func TestService_Delete_IsIdempotent(t *testing.T) {
	repo := newTestRepo()
	svc := newTestService(repo)
	c := seedCat(t, svc)

	ctx := context.Background()

	// Borrar un id inexistente no es error y no toca el store.
	if err := svc.Delete(ctx, owner, "no-existe"); err != nil {
		t.Fatalf("Delete of missing id must not fail, got %v", err)
	}
	if len(repo.byID) != 1 {
		t.Fatalf("store must be unchanged, got %d records", len(repo.byID))
	}

	if err := svc.Delete(ctx, owner, c.ID); err != nil {
		t.Fatalf("Delete error: %v", err)
	}
	if err := svc.Delete(ctx, owner, c.ID); err != nil {
		t.Fatalf("second Delete must not fail, got %v", err)
	}
}

func TestService_Delete_OnlyOwnerWhenPresent(t *testing.T) {
	repo := newTestRepo()
	svc := newTestService(repo)
	c := seedCat(t, svc)

	err := svc.Delete(context.Background(), adopter, c.ID)
	if !errors.Is(err, ErrForbidden) {
		t.Fatalf("expected ErrForbidden, got %v", err)
	}
}

func TestService_MutationsOnMissingCat_ReturnNotFound(t *testing.T) {
	svc := newTestService(newTestRepo())
	ctx := context.Background()

	if err := svc.Apply(ctx, adopter, "ghost", adopter.UserID); !errors.Is(err, ErrNotFound) {
		t.Fatalf("Apply: expected ErrNotFound, got %v", err)
	}
	if err := svc.Confirm(ctx, owner, "ghost", adopter.UserID); !errors.Is(err, ErrNotFound) {
		t.Fatalf("Confirm: expected ErrNotFound, got %v", err)
	}
	if err := svc.RemoveAdopter(ctx, owner, "ghost", adopter.UserID); !errors.Is(err, ErrNotFound) {
		t.Fatalf("RemoveAdopter: expected ErrNotFound, got %v", err)
	}
}

func TestService_Conflict_RetriedExactlyOnce(t *testing.T) {
	repo := newTestRepo()
	svc := newTestService(repo)
	c := seedCat(t, svc)

	ctx := context.Background()

	// Un conflicto: el reintento único lo absorbe.
	repo.conflictNext = 1
	if err := svc.Apply(ctx, adopter, c.ID, adopter.UserID); err != nil {
		t.Fatalf("expected retry to absorb one conflict, got %v", err)
	}

	// Dos conflictos seguidos: se rinde y surge ErrConflict.
	repo.conflictNext = 2
	updatesBefore := repo.updates
	err := svc.RemoveAdopter(ctx, owner, c.ID, adopter.UserID)
	if !errors.Is(err, ErrConflict) {
		t.Fatalf("expected ErrConflict after second defeat, got %v", err)
	}
	if repo.updates != updatesBefore+2 {
		t.Fatalf("expected exactly 2 update attempts, got %d", repo.updates-updatesBefore)
	}
}

func TestService_List_SwallowsStoreErrors(t *testing.T) {
	repo := newTestRepo()
	svc := newTestService(repo)
	seedCat(t, svc)

	repo.listErr = errors.New("store down")
	items := svc.List(context.Background(), adopter)
	if items == nil || len(items) != 0 {
		t.Fatalf("expected empty (non-nil) fallback, got %v", items)
	}

	repo.listErr = nil
	items = svc.List(context.Background(), adopter)
	if len(items) != 1 {
		t.Fatalf("expected 1 cat after recovery, got %d", len(items))
	}
}

func TestService_AnonymousCallsFail(t *testing.T) {
	repo := newTestRepo()
	svc := newTestService(repo)
	c := seedCat(t, svc)

	ctx := context.Background()
	if err := svc.Apply(ctx, anon, c.ID, "x"); !errors.Is(err, ErrUnauthorized) {
		t.Fatalf("Apply: expected ErrUnauthorized, got %v", err)
	}
	if err := svc.Confirm(ctx, anon, c.ID, "x"); !errors.Is(err, ErrUnauthorized) {
		t.Fatalf("Confirm: expected ErrUnauthorized, got %v", err)
	}
	if err := svc.Delete(ctx, anon, c.ID); !errors.Is(err, ErrUnauthorized) {
		t.Fatalf("Delete: expected ErrUnauthorized, got %v", err)
	}
	if items := svc.List(ctx, anon); len(items) != 0 {
		t.Fatalf("anonymous List must be empty, got %d", len(items))
	}
}
