package service

import (
	"errors"
	"sort"
	"testing"
	"time"

	"pressroom/internal/post/model"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeStore is an in-memory PostStore with the same conditional-update lock
// semantics as the SQL repository.
type fakeStore struct {
	posts     map[int64]*model.Post
	users     map[int64]string
	revisions []model.Revision
	nextRevID int64
}

func newFakeStore() *fakeStore {
	return &fakeStore{
		posts: make(map[int64]*model.Post),
		users: make(map[int64]string),
	}
}

func (f *fakeStore) GetAll() ([]model.PostSummary, error) {
	var out []model.PostSummary
	for _, p := range f.posts {
		out = append(out, model.PostSummary{ID: p.ID, Title: p.Title, Slug: p.Slug, Status: p.Status,
			DeletedAt: p.DeletedAt, PublishedAt: p.PublishedAt, LockedBy: p.LockedBy})
	}
	return out, nil
}

func (f *fakeStore) Find(id int64) (*model.Post, error) {
	p, ok := f.posts[id]
	if !ok || p.DeletedAt != nil {
		return nil, nil
	}
	cp := *p
	return &cp, nil
}

func (f *fakeStore) SlugExists(slug string) (bool, error) {
	for _, p := range f.posts {
		if p.Slug == slug && p.DeletedAt == nil {
			return true, nil
		}
	}
	return false, nil
}

func (f *fakeStore) Create(title, slug string, c model.PostContent, publishedAt *time.Time, createdAt time.Time) (int64, error) {
	id := int64(len(f.posts) + 1)
	f.posts[id] = &model.Post{ID: id, Title: title, Slug: slug, Content: c.Content, Status: c.Status,
		FeaturedMediaID: c.FeaturedMediaID, PublishedAt: publishedAt,
		MetaTitle: c.MetaTitle, MetaDescription: c.MetaDescription, CreatedAt: createdAt}
	return id, nil
}

func (f *fakeStore) Update(id int64, slug string, c model.PostContent, publishedAt *time.Time) error {
	p, ok := f.posts[id]
	if !ok || p.DeletedAt != nil {
		return nil
	}
	p.Title = c.Title
	p.Slug = slug
	p.Content = c.Content
	p.Status = c.Status
	p.FeaturedMediaID = c.FeaturedMediaID
	p.PublishedAt = publishedAt
	p.MetaTitle = c.MetaTitle
	p.MetaDescription = c.MetaDescription
	return nil
}

func (f *fakeStore) SoftDelete(id int64, deletedAt time.Time) (int64, error) {
	p, ok := f.posts[id]
	if !ok || p.DeletedAt != nil {
		return 0, nil
	}
	p.DeletedAt = &deletedAt
	return 1, nil
}

func (f *fakeStore) Undelete(id int64) (int64, error) {
	p, ok := f.posts[id]
	if !ok || p.DeletedAt == nil {
		return 0, nil
	}
	p.DeletedAt = nil
	return 1, nil
}

func (f *fakeStore) PublishedLatest(limit int, now time.Time) ([]model.Post, error) {
	var out []model.Post
	for _, p := range f.posts {
		if p.Status == model.StatusPublished && p.DeletedAt == nil &&
			(p.PublishedAt == nil || !p.PublishedAt.After(now)) {
			out = append(out, *p)
		}
	}
	return out, nil
}

func (f *fakeStore) FindPublishedBySlug(slug string, now time.Time) (*model.Post, error) {
	for _, p := range f.posts {
		if p.Slug == slug && p.Status == model.StatusPublished && p.DeletedAt == nil &&
			(p.PublishedAt == nil || !p.PublishedAt.After(now)) {
			cp := *p
			return &cp, nil
		}
	}
	return nil, nil
}

func (f *fakeStore) AcquireLock(postID, userID int64, now, cutoff time.Time) (bool, error) {
	p, ok := f.posts[postID]
	if !ok || p.DeletedAt != nil {
		return false, nil
	}
	if p.LockedBy == nil || p.LockedAt == nil || p.LockedAt.Before(cutoff) {
		uid, at := userID, now
		p.LockedBy = &uid
		p.LockedAt = &at
		return true, nil
	}
	return false, nil
}

func (f *fakeStore) Unlock(postID int64) error {
	if p, ok := f.posts[postID]; ok {
		p.LockedBy = nil
		p.LockedAt = nil
	}
	return nil
}

func (f *fakeStore) GetLock(postID int64) (*model.LockInfo, error) {
	p, ok := f.posts[postID]
	if !ok || p.LockedBy == nil || p.LockedAt == nil {
		return nil, nil
	}
	return &model.LockInfo{UserID: *p.LockedBy, UserName: f.users[*p.LockedBy], LockedAt: *p.LockedAt}, nil
}

func (f *fakeStore) SaveRevision(postID int64, title, content string, metaTitle, metaDescription *string, createdAt time.Time, keep int) error {
	f.nextRevID++
	f.revisions = append(f.revisions, model.Revision{
		ID: f.nextRevID, PostID: postID, Title: title, Content: content,
		MetaTitle: metaTitle, MetaDescription: metaDescription, CreatedAt: createdAt,
	})

	of := f.forPost(postID)
	if len(of) > keep {
		evict := make(map[int64]bool)
		for _, rev := range of[keep:] {
			evict[rev.ID] = true
		}
		kept := f.revisions[:0]
		for _, rev := range f.revisions {
			if !evict[rev.ID] {
				kept = append(kept, rev)
			}
		}
		f.revisions = kept
	}
	return nil
}

// forPost returns the post's revisions newest first, ties to the higher id.
func (f *fakeStore) forPost(postID int64) []model.Revision {
	var out []model.Revision
	for _, rev := range f.revisions {
		if rev.PostID == postID {
			out = append(out, rev)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].CreatedAt.After(out[j].CreatedAt)
		}
		return out[i].ID > out[j].ID
	})
	return out
}

func (f *fakeStore) ListRevisions(postID int64) ([]model.RevisionSummary, error) {
	var out []model.RevisionSummary
	for _, rev := range f.forPost(postID) {
		out = append(out, model.RevisionSummary{ID: rev.ID, Title: rev.Title, CreatedAt: rev.CreatedAt})
	}
	return out, nil
}

func (f *fakeStore) FindRevision(revisionID int64) (*model.Revision, error) {
	for _, rev := range f.revisions {
		if rev.ID == revisionID {
			cp := rev
			return &cp, nil
		}
	}
	return nil, nil
}

// ---- fixtures ----

type fixture struct {
	store *fakeStore
	svc   *PostService
	clock time.Time
}

func newFixture() *fixture {
	fx := &fixture{
		store: newFakeStore(),
		clock: time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC),
	}
	fx.svc = NewPostService(fx.store, nil)
	fx.svc.now = func() time.Time { return fx.clock }

	fx.store.users[1] = "Alice"
	fx.store.users[2] = "Bob"
	fx.store.posts[10] = &model.Post{
		ID: 10, Title: "First post", Slug: "first-post",
		Content: "Original body with plenty of text.", Status: model.StatusDraft,
		CreatedAt: fx.clock.Add(-24 * time.Hour),
	}
	return fx
}

func (fx *fixture) advance(d time.Duration) { fx.clock = fx.clock.Add(d) }

func validContent(title, body string) model.PostContent {
	return model.PostContent{Title: title, Content: body, Status: model.StatusDraft}
}

// ---- lock behaviour ----

func TestBeginEditGrantsAndInspectReportsHolder(t *testing.T) {
	fx := newFixture()

	grant, err := fx.svc.BeginEdit(10, 1)
	require.NoError(t, err)
	require.NotNil(t, grant)
	assert.Equal(t, int64(10), grant.Post.ID)
	assert.Empty(t, grant.Revisions)

	lock, err := fx.svc.InspectLock(10)
	require.NoError(t, err)
	require.NotNil(t, lock)
	assert.Equal(t, int64(1), lock.UserID)
	assert.Equal(t, "Alice", lock.UserName)
	assert.Equal(t, fx.clock, lock.LockedAt)
}

func TestBeginEditDeniedWhileLockUnexpired(t *testing.T) {
	fx := newFixture()

	_, err := fx.svc.BeginEdit(10, 1)
	require.NoError(t, err)

	fx.advance(EditLockTTL - time.Second)
	_, err = fx.svc.BeginEdit(10, 2)
	var lockErr *LockError
	require.ErrorAs(t, err, &lockErr)
	assert.Equal(t, "Alice", lockErr.HolderName)
	assert.False(t, lockErr.Lost)
}

func TestBeginEditSucceedsAfterLockExpires(t *testing.T) {
	fx := newFixture()

	_, err := fx.svc.BeginEdit(10, 1)
	require.NoError(t, err)

	fx.advance(EditLockTTL + time.Second)
	grant, err := fx.svc.BeginEdit(10, 2)
	require.NoError(t, err)
	require.NotNil(t, grant)

	lock, err := fx.svc.InspectLock(10)
	require.NoError(t, err)
	require.NotNil(t, lock)
	assert.Equal(t, int64(2), lock.UserID)
}

func TestBeginEditByHolderReleasesLock(t *testing.T) {
	fx := newFixture()

	_, err := fx.svc.BeginEdit(10, 1)
	require.NoError(t, err)

	_, err = fx.svc.BeginEdit(10, 1)
	assert.ErrorIs(t, err, ErrAlreadyEditing)

	// The duplicate visit released the lock; the next visit re-acquires.
	lock, err := fx.svc.InspectLock(10)
	require.NoError(t, err)
	assert.Nil(t, lock)

	_, err = fx.svc.BeginEdit(10, 1)
	assert.NoError(t, err)
}

func TestInspectLockIgnoresExpiredFields(t *testing.T) {
	fx := newFixture()

	_, err := fx.svc.BeginEdit(10, 1)
	require.NoError(t, err)

	fx.advance(EditLockTTL + time.Minute)
	lock, err := fx.svc.InspectLock(10)
	require.NoError(t, err)
	assert.Nil(t, lock, "expired lock must read as absent")

	// The columns themselves are only cleared lazily.
	assert.NotNil(t, fx.store.posts[10].LockedBy)
}

func TestCancelEditReleasesOnlyOwnLock(t *testing.T) {
	fx := newFixture()

	_, err := fx.svc.BeginEdit(10, 1)
	require.NoError(t, err)

	require.NoError(t, fx.svc.CancelEdit(10, 2))
	lock, _ := fx.svc.InspectLock(10)
	assert.NotNil(t, lock, "someone else's cancel must not release the lock")

	require.NoError(t, fx.svc.CancelEdit(10, 1))
	lock, _ = fx.svc.InspectLock(10)
	assert.Nil(t, lock)

	// Cancelling again is a no-op.
	require.NoError(t, fx.svc.CancelEdit(10, 1))
}

func TestBeginEditMissingPost(t *testing.T) {
	fx := newFixture()
	_, err := fx.svc.BeginEdit(999, 1)
	assert.ErrorIs(t, err, ErrPostNotFound)
}

// ---- save flow ----

func TestSaveEditCapturesPreSaveStateAndReleasesLock(t *testing.T) {
	fx := newFixture()

	_, err := fx.svc.BeginEdit(10, 1)
	require.NoError(t, err)

	err = fx.svc.SaveEdit(10, 1, validContent("New Title!", "Sufficiently long body text."))
	require.NoError(t, err)

	revs, err := fx.svc.ListRevisions(10)
	require.NoError(t, err)
	require.Len(t, revs, 1)
	assert.Equal(t, "First post", revs[0].Title, "revision holds the pre-save title")

	post, err := fx.svc.GetPost(10)
	require.NoError(t, err)
	assert.Equal(t, "New Title!", post.Title)
	assert.Equal(t, "Sufficiently long body text.", post.Content)

	lock, _ := fx.svc.InspectLock(10)
	assert.Nil(t, lock, "save must release the lock")
}

func TestFourSavesKeepThreeNewestRevisions(t *testing.T) {
	fx := newFixture()

	titles := []string{"Edit one!", "Edit two!", "Edit three!", "Edit four!"}
	for _, title := range titles {
		_, err := fx.svc.BeginEdit(10, 1)
		require.NoError(t, err)
		require.NoError(t, fx.svc.SaveEdit(10, 1, validContent(title, "A body long enough to pass.")))
		fx.advance(time.Minute)
	}

	revs, err := fx.svc.ListRevisions(10)
	require.NoError(t, err)
	require.Len(t, revs, 3)

	// Newest first; the original title's snapshot (save #1's input) was
	// evicted, leaving the pre-states of saves #2, #3 and #4.
	assert.Equal(t, "Edit three!", revs[0].Title)
	assert.Equal(t, "Edit two!", revs[1].Title)
	assert.Equal(t, "Edit one!", revs[2].Title)
}

func TestSaveEditValidationLeavesNoTrace(t *testing.T) {
	fx := newFixture()

	_, err := fx.svc.BeginEdit(10, 1)
	require.NoError(t, err)

	cases := []model.PostContent{
		validContent("ab", "A body long enough to pass."), // title < 3
		validContent("Fine title", "too short"),           // body < 10
		{Title: "Fine title", Content: "A body long enough to pass.", Status: "archived"},
	}
	for _, c := range cases {
		err := fx.svc.SaveEdit(10, 1, c)
		var verrs ValidationErrors
		require.ErrorAs(t, err, &verrs)
		assert.NotEmpty(t, verrs)
	}

	revs, _ := fx.svc.ListRevisions(10)
	assert.Empty(t, revs, "failed validation must not create a revision")
	post, _ := fx.svc.GetPost(10)
	assert.Equal(t, "First post", post.Title, "failed validation must not mutate the post")
}

func TestSaveEditLockLost(t *testing.T) {
	fx := newFixture()

	_, err := fx.svc.BeginEdit(10, 1)
	require.NoError(t, err)

	// Alice's lock expires and Bob takes over.
	fx.advance(EditLockTTL + time.Second)
	_, err = fx.svc.BeginEdit(10, 2)
	require.NoError(t, err)

	err = fx.svc.SaveEdit(10, 1, validContent("Late save", "A body long enough to pass."))
	var lockErr *LockError
	require.ErrorAs(t, err, &lockErr)
	assert.True(t, lockErr.Lost)
	assert.Equal(t, "Bob", lockErr.HolderName)

	post, _ := fx.svc.GetPost(10)
	assert.Equal(t, "First post", post.Title, "a refused save must not write")
}

func TestSaveEditWithoutLockProceeds(t *testing.T) {
	// An expired or never-taken lock does not block a save; that is the
	// documented availability trade-off of the TTL policy.
	fx := newFixture()
	err := fx.svc.SaveEdit(10, 1, validContent("Direct save", "A body long enough to pass."))
	assert.NoError(t, err)
}

func TestSaveEditStampsPublishTime(t *testing.T) {
	fx := newFixture()

	require.NoError(t, fx.svc.SaveEdit(10, 1, model.PostContent{
		Title: "Going live", Content: "A body long enough to pass.", Status: model.StatusPublished,
	}))
	post, _ := fx.svc.GetPost(10)
	require.NotNil(t, post.PublishedAt)
	assert.Equal(t, fx.clock, *post.PublishedAt, "publishing without a date stamps now")

	// An explicit timestamp is preserved verbatim.
	explicit := fx.clock.Add(48 * time.Hour)
	require.NoError(t, fx.svc.SaveEdit(10, 1, model.PostContent{
		Title: "Scheduled", Content: "A body long enough to pass.", Status: model.StatusPublished,
		PublishedAt: &explicit,
	}))
	post, _ = fx.svc.GetPost(10)
	assert.Equal(t, explicit, *post.PublishedAt)
}

func TestSaveEditMissingPost(t *testing.T) {
	fx := newFixture()
	err := fx.svc.SaveEdit(999, 1, validContent("Anything", "A body long enough to pass."))
	assert.ErrorIs(t, err, ErrPostNotFound)
}

// ---- restore flow ----

func TestRestoreRevisionForcesDraft(t *testing.T) {
	fx := newFixture()

	// Publish an edit so the pre-save snapshot exists and the post carries
	// a publish timestamp and featured image.
	media := int64(7)
	fx.store.posts[10].FeaturedMediaID = &media
	require.NoError(t, fx.svc.SaveEdit(10, 1, model.PostContent{
		Title: "Published title", Content: "A body long enough to pass.",
		Status: model.StatusPublished, FeaturedMediaID: &media,
	}))

	revs, _ := fx.svc.ListRevisions(10)
	require.Len(t, revs, 1)

	post, _ := fx.svc.GetPost(10)
	stamp := post.PublishedAt
	require.NotNil(t, stamp)

	require.NoError(t, fx.svc.RestoreRevision(10, revs[0].ID))

	post, _ = fx.svc.GetPost(10)
	assert.Equal(t, model.StatusDraft, post.Status, "restore never auto-publishes")
	assert.Equal(t, "First post", post.Title)
	assert.Equal(t, media, *post.FeaturedMediaID, "featured media preserved")
	assert.Equal(t, *stamp, *post.PublishedAt, "publish timestamp preserved")

	// Restoring is exempt from the revision trail.
	revs, _ = fx.svc.ListRevisions(10)
	assert.Len(t, revs, 1)
}

func TestRestoreRevisionLeavesLockAlone(t *testing.T) {
	fx := newFixture()

	require.NoError(t, fx.svc.SaveEdit(10, 1, validContent("Edited once", "A body long enough to pass.")))
	revs, _ := fx.svc.ListRevisions(10)
	require.Len(t, revs, 1)

	_, err := fx.svc.BeginEdit(10, 2)
	require.NoError(t, err)

	require.NoError(t, fx.svc.RestoreRevision(10, revs[0].ID))
	lock, _ := fx.svc.InspectLock(10)
	require.NotNil(t, lock)
	assert.Equal(t, int64(2), lock.UserID)
}

func TestRestoreRevisionRejectsForeignRevision(t *testing.T) {
	fx := newFixture()
	fx.store.posts[11] = &model.Post{ID: 11, Title: "Other post", Slug: "other-post",
		Content: "Another body long enough.", Status: model.StatusDraft, CreatedAt: fx.clock}

	require.NoError(t, fx.svc.SaveEdit(11, 1, validContent("Other edited", "A body long enough to pass.")))
	revs, _ := fx.svc.ListRevisions(11)
	require.Len(t, revs, 1)

	err := fx.svc.RestoreRevision(10, revs[0].ID)
	assert.ErrorIs(t, err, ErrRevisionMismatch)
}

func TestRestoreRevisionNotFound(t *testing.T) {
	fx := newFixture()
	assert.ErrorIs(t, fx.svc.RestoreRevision(10, 999), ErrRevisionNotFound)
}

// ---- the full contention scenario ----

func TestEditContentionScenario(t *testing.T) {
	fx := newFixture()

	grant, err := fx.svc.BeginEdit(10, 1)
	require.NoError(t, err)
	require.NotNil(t, grant)

	_, err = fx.svc.BeginEdit(10, 2)
	var lockErr *LockError
	require.ErrorAs(t, err, &lockErr)
	assert.Equal(t, "Alice", lockErr.HolderName)

	err = fx.svc.SaveEdit(10, 1, validContent("New Title!", "Sufficiently long body text."))
	require.NoError(t, err)

	revs, _ := fx.svc.ListRevisions(10)
	require.Len(t, revs, 1)
	assert.Equal(t, "First post", revs[0].Title)

	lock, _ := fx.svc.InspectLock(10)
	assert.Nil(t, lock)

	grant, err = fx.svc.BeginEdit(10, 2)
	require.NoError(t, err)
	require.NotNil(t, grant)
}

// ---- create / delete / public ----

func TestCreatePostSlugAndStamping(t *testing.T) {
	fx := newFixture()

	id, err := fx.svc.CreatePost(model.PostContent{
		Title: "Hello, World!", Content: "A body long enough to pass.", Status: model.StatusPublished,
	})
	require.NoError(t, err)

	post, err := fx.svc.GetPost(id)
	require.NoError(t, err)
	assert.Equal(t, "hello-world", post.Slug)
	require.NotNil(t, post.PublishedAt)
	assert.Equal(t, fx.clock, *post.PublishedAt)

	_, err = fx.svc.CreatePost(model.PostContent{
		Title: "Hello world", Content: "A body long enough to pass.", Status: model.StatusDraft,
	})
	assert.ErrorIs(t, err, ErrSlugTaken)
}

func TestDeleteAndRestorePost(t *testing.T) {
	fx := newFixture()

	require.NoError(t, fx.svc.DeletePost(10))
	_, err := fx.svc.GetPost(10)
	assert.ErrorIs(t, err, ErrPostNotFound)
	assert.ErrorIs(t, fx.svc.DeletePost(10), ErrPostNotFound)

	require.NoError(t, fx.svc.RestorePost(10))
	_, err = fx.svc.GetPost(10)
	assert.NoError(t, err)
}

func TestPublishedBySlugHidesDraftsAndFuturePosts(t *testing.T) {
	fx := newFixture()

	_, err := fx.svc.PublishedBySlug("first-post")
	assert.ErrorIs(t, err, ErrPostNotFound, "drafts are not public")

	future := fx.clock.Add(time.Hour)
	require.NoError(t, fx.svc.SaveEdit(10, 1, model.PostContent{
		Title: "Scheduled post", Content: "A body long enough to pass.",
		Status: model.StatusPublished, PublishedAt: &future,
	}))
	_, err = fx.svc.PublishedBySlug("first-post")
	assert.ErrorIs(t, err, ErrPostNotFound, "future-dated posts are not public yet")

	fx.advance(2 * time.Hour)
	post, err := fx.svc.PublishedBySlug("first-post")
	require.NoError(t, err)
	assert.Equal(t, "Scheduled post", post.Title)
}

func TestValidationErrorsUnwrap(t *testing.T) {
	fx := newFixture()
	_, err := fx.svc.CreatePost(validContent("ab", "short"))
	var verrs ValidationErrors
	require.True(t, errors.As(err, &verrs))
	assert.Len(t, verrs, 2)
}
