package crud_test

import (
	"context"
	"errors"
	"io"
	"net/url"
	"strconv"
	"testing"

	"github.com/rs/zerolog"

	"github.com/mkraev/crudkit/internal/crud"
	"github.com/mkraev/crudkit/internal/model"
	"github.com/mkraev/crudkit/internal/query"
	"github.com/mkraev/crudkit/internal/repository"
)

// fakeResource implements repository.Resource[model.Album] in memory and
// records which calls ran, so tests can assert the sequencing contract.
type fakeResource struct {
	items  map[int64]model.Album
	nextID int64
	calls  []string

	countErr  error
	searchErr error
}

func newFakeResource(seed ...model.Album) *fakeResource {
	f := &fakeResource{items: map[int64]model.Album{}, nextID: 1}
	for _, a := range seed {
		f.items[a.ID] = a
		if a.ID >= f.nextID {
			f.nextID = a.ID + 1
		}
	}
	return f
}

func (f *fakeResource) Count(_ context.Context, _ query.Descriptor) (int, error) {
	f.calls = append(f.calls, "count")
	return len(f.items), f.countErr
}

func (f *fakeResource) Search(_ context.Context, d query.Descriptor) ([]model.Album, error) {
	f.calls = append(f.calls, "search")
	if f.searchErr != nil {
		return nil, f.searchErr
	}
	out := make([]model.Album, 0, len(f.items))
	for _, a := range f.items {
		out = append(out, a)
	}
	if d.Paged() && len(out) > *d.Limit {
		out = out[:*d.Limit]
	}
	return out, nil
}

func (f *fakeResource) Fetch(_ context.Context, key string) (model.Album, error) {
	f.calls = append(f.calls, "fetch")
	id, err := strconv.ParseInt(key, 10, 64)
	if err != nil {
		return model.Album{}, repository.ErrNotFound
	}
	a, ok := f.items[id]
	if !ok {
		return model.Album{}, repository.ErrNotFound
	}
	return a, nil
}

func (f *fakeResource) Create(_ context.Context, rec model.Album) (model.Album, error) {
	f.calls = append(f.calls, "create")
	rec.ID = f.nextID
	f.nextID++
	f.items[rec.ID] = rec
	return rec, nil
}

func (f *fakeResource) Update(_ context.Context, rec model.Album) (model.Album, error) {
	f.calls = append(f.calls, "update")
	f.items[rec.ID] = rec
	return rec, nil
}

func (f *fakeResource) Delete(_ context.Context, key string) error {
	f.calls = append(f.calls, "delete")
	id, _ := strconv.ParseInt(key, 10, 64)
	delete(f.items, id)
	return nil
}

var _ repository.Resource[model.Album] = (*fakeResource)(nil)

// spyHooks records hook invocations in order and can veto selectively.
type spyHooks struct {
	crud.BaseHooks[model.Album]
	calls        *[]string
	canWriteErr  error
	precommitErr error
	postOutcome  *crud.Outcome[model.Album]
}

func (h spyHooks) CanWrite(_ context.Context, _ model.Album) error {
	*h.calls = append(*h.calls, "can_write")
	return h.canWriteErr
}

func (h spyHooks) Precommit(_ context.Context, a crud.Action, _ model.Album) error {
	*h.calls = append(*h.calls, "precommit:"+string(a))
	return h.precommitErr
}

func (h spyHooks) Postcommit(_ context.Context, a crud.Action, _ model.Album) (*crud.Outcome[model.Album], error) {
	*h.calls = append(*h.calls, "postcommit:"+string(a))
	return h.postOutcome, nil
}

func albumConfig() crud.Config[model.Album] {
	return crud.Config[model.Album]{
		ModelName:  "albums",
		PrimaryKey: "id",
		Fields:     []string{"title", "artist", "genre"},
		PageSize:   25,
		NewRecord:  func() model.Album { return model.Album{} },
		KeyOf:      func(a model.Album) string { return strconv.FormatInt(a.ID, 10) },
	}
}

func newController(t *testing.T, cfg crud.Config[model.Album], res *fakeResource, hooks crud.Hooks[model.Album]) *crud.Controller[model.Album] {
	t.Helper()
	c, err := crud.New(cfg, res, hooks, zerolog.New(io.Discard))
	if err != nil {
		t.Fatalf("controller: %v", err)
	}
	return c
}

func TestSave_Create_RunsFullSequence(t *testing.T) {
	res := newFakeResource()
	var hookCalls []string
	ctl := newController(t, albumConfig(), res, spyHooks{calls: &hookCalls})

	out, err := ctl.Save(context.Background(), crud.NewKey, model.Album{Title: "Kind of Blue", Artist: "Miles Davis"})
	if err != nil {
		t.Fatalf("save: %v", err)
	}
	if out.Kind != crud.OutcomeRedirect || out.Location != "/albums/1" {
		t.Fatalf("expected redirect to /albums/1, got %+v", out)
	}
	wantHooks := []string{"can_write", "precommit:create", "postcommit:create"}
	if len(hookCalls) != len(wantHooks) {
		t.Fatalf("hook calls: got %v want %v", hookCalls, wantHooks)
	}
	for i := range wantHooks {
		if hookCalls[i] != wantHooks[i] {
			t.Fatalf("hook order: got %v want %v", hookCalls, wantHooks)
		}
	}
	if res.calls[len(res.calls)-1] != "create" {
		t.Fatalf("expected backend create, got %v", res.calls)
	}
}

func TestSave_Update_FetchesFirst(t *testing.T) {
	res := newFakeResource(model.Album{ID: 7, Title: "Blue Train", Artist: "John Coltrane"})
	var hookCalls []string
	ctl := newController(t, albumConfig(), res, spyHooks{calls: &hookCalls})

	out, err := ctl.Save(context.Background(), "7", model.Album{ID: 7, Title: "Blue Train", Artist: "Coltrane"})
	if err != nil {
		t.Fatalf("save: %v", err)
	}
	if res.calls[0] != "fetch" {
		t.Fatalf("expected fetch before mutation, got %v", res.calls)
	}
	if out.Location != "/albums/7" {
		t.Fatalf("expected canonical redirect, got %q", out.Location)
	}
}

func TestSave_MissingRecordIsNotFound(t *testing.T) {
	res := newFakeResource()
	ctl := newController(t, albumConfig(), res, nil)
	_, err := ctl.Save(context.Background(), "99", model.Album{Title: "x", Artist: "y"})
	if !errors.Is(err, repository.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestSave_PermissionDeniedStopsBeforeValidation(t *testing.T) {
	res := newFakeResource()
	var hookCalls []string
	ctl := newController(t, albumConfig(), res, spyHooks{calls: &hookCalls, canWriteErr: crud.ErrPermissionDenied})

	_, err := ctl.Save(context.Background(), crud.NewKey, model.Album{})
	if !errors.Is(err, crud.ErrPermissionDenied) {
		t.Fatalf("expected ErrPermissionDenied, got %v", err)
	}
	for _, c := range res.calls {
		if c == "create" || c == "update" {
			t.Fatalf("backend mutated after denied write: %v", res.calls)
		}
	}
}

func TestSave_ValidationFailureCarriesFields(t *testing.T) {
	res := newFakeResource()
	ctl := newController(t, albumConfig(), res, nil)

	_, err := ctl.Save(context.Background(), crud.NewKey, model.Album{Title: "", Artist: ""})
	if !errors.Is(err, crud.ErrValidationFailed) {
		t.Fatalf("expected ErrValidationFailed, got %v", err)
	}
	fields := crud.FieldErrors(err)
	if len(fields) < 2 {
		t.Fatalf("expected field errors for title and artist, got %+v", fields)
	}
}

func TestSave_PrecommitVetoAbortsMutation(t *testing.T) {
	res := newFakeResource()
	var hookCalls []string
	veto := errors.New("not today")
	ctl := newController(t, albumConfig(), res, spyHooks{calls: &hookCalls, precommitErr: veto})

	_, err := ctl.Save(context.Background(), crud.NewKey, model.Album{Title: "a", Artist: "b"})
	if !errors.Is(err, veto) {
		t.Fatalf("expected veto error, got %v", err)
	}
	if len(res.items) != 0 {
		t.Fatalf("record created despite veto")
	}
}

func TestSave_PostcommitOverridesResponse(t *testing.T) {
	res := newFakeResource()
	var hookCalls []string
	custom := &crud.Outcome[model.Album]{Kind: crud.OutcomeRedirect, Location: "/elsewhere"}
	ctl := newController(t, albumConfig(), res, spyHooks{calls: &hookCalls, postOutcome: custom})

	out, err := ctl.Save(context.Background(), crud.NewKey, model.Album{Title: "a", Artist: "b"})
	if err != nil {
		t.Fatalf("save: %v", err)
	}
	if out.Location != "/elsewhere" {
		t.Fatalf("postcommit outcome ignored: %+v", out)
	}
}

func TestRemove_DefaultsToListRedirect(t *testing.T) {
	res := newFakeResource(model.Album{ID: 3, Title: "t", Artist: "a"})
	var hookCalls []string
	ctl := newController(t, albumConfig(), res, spyHooks{calls: &hookCalls})

	out, err := ctl.Remove(context.Background(), "3")
	if err != nil {
		t.Fatalf("remove: %v", err)
	}
	if out.Kind != crud.OutcomeRedirect || out.Location != "/albums" {
		t.Fatalf("expected redirect to listing, got %+v", out)
	}
	if _, ok := res.items[3]; ok {
		t.Fatalf("record still present after delete")
	}
	wantFirst := "can_write"
	if hookCalls[0] != wantFirst || hookCalls[1] != "precommit:delete" {
		t.Fatalf("unexpected hook order: %v", hookCalls)
	}
}

func TestView_ChecksCanRead(t *testing.T) {
	res := newFakeResource(model.Album{ID: 1, Title: "t", Artist: "a"})
	ctl := newController(t, albumConfig(), res, denyReadHooks{})
	_, err := ctl.View(context.Background(), "1")
	if !errors.Is(err, crud.ErrPermissionDenied) {
		t.Fatalf("expected ErrPermissionDenied, got %v", err)
	}
}

type denyReadHooks struct{ crud.BaseHooks[model.Album] }

func (denyReadHooks) CanRead(context.Context, model.Album) error { return crud.ErrPermissionDenied }

func TestSearch_EmptyResult(t *testing.T) {
	res := newFakeResource()
	ctl := newController(t, albumConfig(), res, nil)

	out, err := ctl.Search(context.Background(), url.Values{})
	if err != nil {
		t.Fatalf("search: %v", err)
	}
	if out.Kind != crud.OutcomeListing || len(out.Records) != 0 {
		t.Fatalf("expected empty listing, got %+v", out)
	}
	if out.Pager == nil || out.Pager.Count != 0 {
		t.Fatalf("expected zeroed pager, got %+v", out.Pager)
	}
	// Count alone decides; no row fetch for an empty result.
	for _, c := range res.calls {
		if c == "search" {
			t.Fatalf("search ran despite zero count: %v", res.calls)
		}
	}
}

func TestSearch_SingleResultRedirects(t *testing.T) {
	res := newFakeResource(model.Album{ID: 5, Title: "t", Artist: "a"})
	cfg := albumConfig()
	cfg.ViewOnSingleResult = true
	ctl := newController(t, cfg, res, nil)

	out, err := ctl.Search(context.Background(), url.Values{"title": {"t"}})
	if err != nil {
		t.Fatalf("search: %v", err)
	}
	if out.Kind != crud.OutcomeRedirect || out.Location != "/albums/5" {
		t.Fatalf("expected single-result redirect, got %+v", out)
	}
}

func TestSearch_SingleResultListsWhenDisabled(t *testing.T) {
	res := newFakeResource(model.Album{ID: 5, Title: "t", Artist: "a"})
	ctl := newController(t, albumConfig(), res, nil)

	out, err := ctl.Search(context.Background(), url.Values{})
	if err != nil {
		t.Fatalf("search: %v", err)
	}
	if out.Kind != crud.OutcomeListing || len(out.Records) != 1 {
		t.Fatalf("expected one-row listing, got %+v", out)
	}
}

func TestSearch_ListingCarriesPagerAndDisplay(t *testing.T) {
	res := newFakeResource(
		model.Album{ID: 1, Title: "a", Artist: "x"},
		model.Album{ID: 2, Title: "b", Artist: "x"},
		model.Album{ID: 3, Title: "c", Artist: "x"},
	)
	ctl := newController(t, albumConfig(), res, nil)

	out, err := ctl.Search(context.Background(), url.Values{
		"artist":     {"x"},
		"_page":      {"2"},
		"_page_size": {"2"},
	})
	if err != nil {
		t.Fatalf("search: %v", err)
	}
	if out.Pager == nil {
		t.Fatalf("expected pager on paged listing")
	}
	if out.Pager.Current != 2 || out.Pager.Count != 2 || out.Pager.Total != 3 {
		t.Fatalf("unexpected pager: %+v", out.Pager)
	}
	if out.Query.Display != "artist = x" {
		t.Fatalf("unexpected display string: %q", out.Query.Display)
	}
}

func TestSearch_InvalidParameterRejected(t *testing.T) {
	ctl := newController(t, albumConfig(), newFakeResource(), nil)
	_, err := ctl.Search(context.Background(), url.Values{"_page": {"two"}})
	if !errors.Is(err, query.ErrInvalidParameter) {
		t.Fatalf("expected ErrInvalidParameter, got %v", err)
	}
}

func TestSearch_NoPageListsEverything(t *testing.T) {
	res := newFakeResource(
		model.Album{ID: 1, Title: "a", Artist: "x"},
		model.Album{ID: 2, Title: "b", Artist: "x"},
	)
	ctl := newController(t, albumConfig(), res, nil)

	out, err := ctl.Search(context.Background(), url.Values{"_no_page": {"1"}})
	if err != nil {
		t.Fatalf("search: %v", err)
	}
	if out.Query.Paged() {
		t.Fatalf("descriptor should be unpaged")
	}
	if out.Pager != nil {
		t.Fatalf("unpaged listing should carry no pager")
	}
	if len(out.Records) != 2 {
		t.Fatalf("expected all records, got %d", len(out.Records))
	}
}

// fakeTx counts transaction boundaries and records whether the unit of work
// succeeded, standing in for a real transaction manager.
type fakeTx struct {
	begun     int
	committed int
}

func (f *fakeTx) WithinTx(ctx context.Context, fn repository.TxFunc) error {
	f.begun++
	if err := fn(ctx); err != nil {
		return err
	}
	f.committed++
	return nil
}

func TestSave_MutationRunsInsideTx(t *testing.T) {
	res := newFakeResource()
	tx := &fakeTx{}
	cfg := albumConfig()
	cfg.Tx = tx
	ctl := newController(t, cfg, res, nil)

	_, err := ctl.Save(context.Background(), crud.NewKey, model.Album{Title: "Mingus Ah Um", Artist: "Charles Mingus"})
	if err != nil {
		t.Fatalf("save: %v", err)
	}
	if tx.begun != 1 || tx.committed != 1 {
		t.Fatalf("expected one committed tx, got begun=%d committed=%d", tx.begun, tx.committed)
	}
}

func TestSave_PrecommitVetoRollsBackTx(t *testing.T) {
	res := newFakeResource()
	tx := &fakeTx{}
	cfg := albumConfig()
	cfg.Tx = tx
	veto := errors.New("not today")
	var hookCalls []string
	ctl := newController(t, cfg, res, spyHooks{calls: &hookCalls, precommitErr: veto})

	_, err := ctl.Save(context.Background(), crud.NewKey, model.Album{Title: "Mingus Ah Um", Artist: "Charles Mingus"})
	if !errors.Is(err, veto) {
		t.Fatalf("expected veto error, got %v", err)
	}
	if tx.begun != 1 || tx.committed != 0 {
		t.Fatalf("expected uncommitted tx, got begun=%d committed=%d", tx.begun, tx.committed)
	}
	for _, call := range res.calls {
		if call == "create" || call == "update" {
			t.Fatalf("backend mutated despite veto: %v", res.calls)
		}
	}
}

func TestRemove_DeleteRunsInsideTx(t *testing.T) {
	res := newFakeResource(model.Album{ID: 4, Title: "Moanin'", Artist: "Art Blakey"})
	tx := &fakeTx{}
	cfg := albumConfig()
	cfg.Tx = tx
	ctl := newController(t, cfg, res, nil)

	if _, err := ctl.Remove(context.Background(), "4"); err != nil {
		t.Fatalf("remove: %v", err)
	}
	if tx.begun != 1 || tx.committed != 1 {
		t.Fatalf("expected one committed tx, got begun=%d committed=%d", tx.begun, tx.committed)
	}
	if len(res.items) != 0 {
		t.Fatalf("record not deleted")
	}
}
