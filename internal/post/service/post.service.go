package service

import (
	"time"

	"pressroom/internal/post/model"
	"pressroom/pkg/slug"
	"pressroom/socket"

	"github.com/go-playground/validator/v10"
)

const (
	// EditLockTTL bounds how long an abandoned edit keeps a post locked.
	// An expired lock behaves as absent; nothing clears the columns until
	// the next lock interaction.
	EditLockTTL = 15 * time.Minute

	// RevisionKeep is the retention bound on a post's revision history.
	RevisionKeep = 3
)

// PostStore is the persistence surface the coordinator drives. Implemented
// by repository.PostRepository.
type PostStore interface {
	GetAll() ([]model.PostSummary, error)
	Find(id int64) (*model.Post, error)
	SlugExists(slug string) (bool, error)
	Create(title, slug string, c model.PostContent, publishedAt *time.Time, createdAt time.Time) (int64, error)
	Update(id int64, slug string, c model.PostContent, publishedAt *time.Time) error
	SoftDelete(id int64, deletedAt time.Time) (int64, error)
	Undelete(id int64) (int64, error)
	PublishedLatest(limit int, now time.Time) ([]model.Post, error)
	FindPublishedBySlug(slug string, now time.Time) (*model.Post, error)

	AcquireLock(postID, userID int64, now, cutoff time.Time) (bool, error)
	Unlock(postID int64) error
	GetLock(postID int64) (*model.LockInfo, error)

	SaveRevision(postID int64, title, content string, metaTitle, metaDescription *string, createdAt time.Time, keep int) error
	ListRevisions(postID int64) ([]model.RevisionSummary, error)
	FindRevision(revisionID int64) (*model.Revision, error)
}

// PostService is the only mutation path for posts: every write goes through
// its lock and validation gates.
type PostService struct {
	Repo PostStore
	Hub  *socket.Hub

	validate *validator.Validate
	now      func() time.Time
}

func NewPostService(repo PostStore, hub *socket.Hub) *PostService {
	return &PostService{
		Repo:     repo,
		Hub:      hub,
		validate: validator.New(),
		now:      time.Now,
	}
}

// activeLock reads the stored lock and applies the expiry predicate. Stale
// lock fields past the TTL are reported as no lock at all.
func (s *PostService) activeLock(postID int64) (*model.LockInfo, error) {
	info, err := s.Repo.GetLock(postID)
	if err != nil {
		return nil, err
	}
	if info == nil || s.now().Sub(info.LockedAt) > EditLockTTL {
		return nil, nil
	}
	return info, nil
}

// InspectLock exposes the current unexpired lock, if any, for the admin list.
func (s *PostService) InspectLock(postID int64) (*model.LockInfo, error) {
	return s.activeLock(postID)
}

// BeginEdit claims the edit lock and returns the post with its revision
// history. Outcomes: the grant; *LockError when another editor holds it;
// ErrAlreadyEditing when the caller still had an open lock (released, caller
// must re-enter); ErrPostNotFound.
func (s *PostService) BeginEdit(postID, userID int64) (*model.EditGrant, error) {
	lock, err := s.activeLock(postID)
	if err != nil {
		return nil, err
	}
	if lock != nil {
		if lock.UserID != userID {
			return nil, &LockError{HolderID: lock.UserID, HolderName: lock.UserName}
		}
		// Same editor re-entering: drop the stale session instead of
		// silently opening a second editor on the same post.
		if err := s.Repo.Unlock(postID); err != nil {
			return nil, err
		}
		s.publish(socket.Event{Type: socket.LockReleasedType, PostID: postID, UserID: userID, At: s.now()})
		return nil, ErrAlreadyEditing
	}

	now := s.now()
	granted, err := s.Repo.AcquireLock(postID, userID, now, now.Add(-EditLockTTL))
	if err != nil {
		return nil, err
	}
	if !granted {
		// Either the post is gone or a concurrent request won the lock.
		if lock, err := s.activeLock(postID); err == nil && lock != nil {
			return nil, &LockError{HolderID: lock.UserID, HolderName: lock.UserName}
		}
		return nil, ErrPostNotFound
	}

	post, err := s.Repo.Find(postID)
	if err != nil {
		return nil, err
	}
	if post == nil {
		_ = s.Repo.Unlock(postID)
		return nil, ErrPostNotFound
	}

	revisions, err := s.Repo.ListRevisions(postID)
	if err != nil {
		return nil, err
	}

	s.publish(socket.Event{Type: socket.LockAcquiredType, PostID: postID, UserID: userID, At: now})
	return &model.EditGrant{Post: post, Revisions: revisions}, nil
}

// CancelEdit releases the caller's lock if they still hold it. A cancel
// without a lock is a no-op, not an error.
func (s *PostService) CancelEdit(postID, userID int64) error {
	lock, err := s.activeLock(postID)
	if err != nil {
		return err
	}
	if lock == nil || lock.UserID != userID {
		return nil
	}
	if err := s.Repo.Unlock(postID); err != nil {
		return err
	}
	s.publish(socket.Event{Type: socket.LockReleasedType, PostID: postID, UserID: userID, At: s.now()})
	return nil
}

// SaveEdit commits an edit: re-checks the lock, validates, snapshots the
// pre-save content, applies the update and releases the lock. The snapshot
// and trim run in one transaction; the update and unlock are separate
// statements, which is acceptable because an orphaned lock self-heals via
// the TTL and an extra revision is harmless history.
func (s *PostService) SaveEdit(postID, userID int64, c model.PostContent) error {
	lock, err := s.activeLock(postID)
	if err != nil {
		return err
	}
	if lock != nil && lock.UserID != userID {
		return &LockError{HolderID: lock.UserID, HolderName: lock.UserName, Lost: true}
	}

	post, err := s.Repo.Find(postID)
	if err != nil {
		return err
	}
	if post == nil {
		return ErrPostNotFound
	}

	if verrs := s.validateContent(c); verrs != nil {
		return verrs
	}

	if err := s.Repo.SaveRevision(postID, post.Title, post.Content, post.MetaTitle, post.MetaDescription, s.now(), RevisionKeep); err != nil {
		return err
	}

	publishedAt := s.publishStamp(c, post)
	if err := s.Repo.Update(postID, post.Slug, c, publishedAt); err != nil {
		return err
	}

	if err := s.Repo.Unlock(postID); err != nil {
		return err
	}
	s.publish(socket.Event{Type: socket.LockReleasedType, PostID: postID, UserID: userID, At: s.now()})
	s.publish(socket.Event{Type: socket.PostUpdatedType, PostID: postID, UserID: userID, At: s.now()})
	return nil
}

// publishStamp decides the stored publish timestamp: publishing without an
// explicit time keeps an existing stamp or takes the current time; anything
// explicitly supplied wins.
func (s *PostService) publishStamp(c model.PostContent, prev *model.Post) *time.Time {
	if c.PublishedAt != nil {
		return c.PublishedAt
	}
	if c.Status != model.StatusPublished {
		return nil
	}
	if prev != nil && prev.PublishedAt != nil {
		return prev.PublishedAt
	}
	now := s.now()
	return &now
}

// ListRevisions returns the post's revision summaries, newest first.
func (s *PostService) ListRevisions(postID int64) ([]model.RevisionSummary, error) {
	return s.Repo.ListRevisions(postID)
}

// GetRevision fetches a full revision, confirming it belongs to the post in
// the caller's context.
func (s *PostService) GetRevision(postID, revisionID int64) (*model.Revision, error) {
	rev, err := s.Repo.FindRevision(revisionID)
	if err != nil {
		return nil, err
	}
	if rev == nil {
		return nil, ErrRevisionNotFound
	}
	if rev.PostID != postID {
		return nil, ErrRevisionMismatch
	}
	return rev, nil
}

// RestoreRevision copies a revision's content back onto the post. Status is
// forced to draft so a restore never auto-publishes; the featured media and
// publish timestamp stay as they are. The overwritten content is not
// snapshotted, and the lock is untouched.
func (s *PostService) RestoreRevision(postID, revisionID int64) error {
	rev, err := s.GetRevision(postID, revisionID)
	if err != nil {
		return err
	}

	post, err := s.Repo.Find(postID)
	if err != nil {
		return err
	}
	if post == nil {
		return ErrPostNotFound
	}

	restored := model.PostContent{
		Title:           rev.Title,
		Content:         rev.Content,
		Status:          model.StatusDraft,
		FeaturedMediaID: post.FeaturedMediaID,
		MetaTitle:       rev.MetaTitle,
		MetaDescription: rev.MetaDescription,
	}
	if err := s.Repo.Update(postID, post.Slug, restored, post.PublishedAt); err != nil {
		return err
	}

	s.publish(socket.Event{Type: socket.PostUpdatedType, PostID: postID, At: s.now()})
	return nil
}

// CreatePost validates the content, derives a slug from the title and
// inserts the post. The slug must be free among live posts.
func (s *PostService) CreatePost(c model.PostContent) (int64, error) {
	if verrs := s.validateContent(c); verrs != nil {
		return 0, verrs
	}

	postSlug := slug.Make(c.Title)
	taken, err := s.Repo.SlugExists(postSlug)
	if err != nil {
		return 0, err
	}
	if taken {
		return 0, ErrSlugTaken
	}

	publishedAt := s.publishStamp(c, nil)
	return s.Repo.Create(c.Title, postSlug, c, publishedAt, s.now())
}

func (s *PostService) ListPosts() ([]model.PostSummary, error) {
	return s.Repo.GetAll()
}

func (s *PostService) GetPost(postID int64) (*model.Post, error) {
	post, err := s.Repo.Find(postID)
	if err != nil {
		return nil, err
	}
	if post == nil {
		return nil, ErrPostNotFound
	}
	return post, nil
}

// DeletePost tombstones the post. The revision history is kept.
func (s *PostService) DeletePost(postID int64) error {
	n, err := s.Repo.SoftDelete(postID, s.now())
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrPostNotFound
	}
	return nil
}

// RestorePost clears the tombstone.
func (s *PostService) RestorePost(postID int64) error {
	n, err := s.Repo.Undelete(postID)
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrPostNotFound
	}
	return nil
}

// PublishedPosts lists the public site's posts, newest first.
func (s *PostService) PublishedPosts(limit int) ([]model.Post, error) {
	return s.Repo.PublishedLatest(limit, s.now())
}

func (s *PostService) PublishedBySlug(postSlug string) (*model.Post, error) {
	post, err := s.Repo.FindPublishedBySlug(postSlug, s.now())
	if err != nil {
		return nil, err
	}
	if post == nil {
		return nil, ErrPostNotFound
	}
	return post, nil
}

func (s *PostService) validateContent(c model.PostContent) ValidationErrors {
	err := s.validate.Struct(c)
	if err == nil {
		return nil
	}

	fieldErrs, ok := err.(validator.ValidationErrors)
	if !ok {
		return ValidationErrors{{Field: "content", Message: err.Error()}}
	}

	verrs := make(ValidationErrors, 0, len(fieldErrs))
	for _, fe := range fieldErrs {
		verrs = append(verrs, ValidationError{Field: fe.Field(), Message: messageFor(fe)})
	}
	return verrs
}

func messageFor(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "is required"
	case "min":
		return "is too short (minimum " + fe.Param() + " characters)"
	case "oneof":
		return "must be one of: " + fe.Param()
	default:
		return "is invalid"
	}
}

func (s *PostService) publish(evt socket.Event) {
	if s.Hub == nil {
		return
	}
	s.Hub.Broadcast <- evt
}
