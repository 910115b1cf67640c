package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"
	"unicode/utf8"

	"go.uber.org/zap"

	"github.com/dimitrije/jsoncrack-api/internal/models"
	"github.com/dimitrije/jsoncrack-api/internal/password"
	"github.com/dimitrije/jsoncrack-api/internal/store"
)

const minPasswordLength = 4

// ShareInput is a create or update request that already passed request-shape
// validation. Empty Type, Mode and AccessType take defaults.
type ShareInput struct {
	Slug       string
	Type       models.ShareType
	Content    string
	Mode       models.Mode
	IsPrivate  bool
	AccessType models.AccessType
	Password   string
}

// ShareView is what readers see of a share. Data is nil when the content is
// withheld.
type ShareView struct {
	Type       models.ShareType  `json:"type"`
	Data       any               `json:"data"`
	Slug       string            `json:"slug"`
	IsPrivate  bool              `json:"isPrivate"`
	AccessType models.AccessType `json:"accessType"`
	Mode       models.Mode       `json:"mode"`
}

type ShareConfig struct {
	TTL             time.Duration
	SlugLength      int
	SlugMaxAttempts int
	UploadMaxBytes  int64
}

type ShareService struct {
	store   store.ShareStore
	hasher  *password.Hasher
	cfg     ShareConfig
	logger  *zap.Logger
	now     func() time.Time
	newSlug func() (string, error)
}

func NewShareService(st store.ShareStore, hasher *password.Hasher, cfg ShareConfig, logger *zap.Logger) *ShareService {
	if cfg.SlugLength < MinSlugLength {
		cfg.SlugLength = 10
	}
	if cfg.SlugMaxAttempts <= 0 {
		cfg.SlugMaxAttempts = 10
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	s := &ShareService{
		store:  st,
		hasher: hasher,
		cfg:    cfg,
		logger: logger,
		now:    time.Now,
	}
	s.newSlug = func() (string, error) { return NewSlug(s.cfg.SlugLength) }
	return s
}

func (s *ShareService) Create(ctx context.Context, in ShareInput) (*models.Share, error) {
	if err := normalize(&in, models.AccessViewer); err != nil {
		return nil, err
	}

	now := s.now().UTC()
	share := &models.Share{
		Slug:       in.Slug,
		Type:       in.Type,
		Content:    in.Content,
		Mode:       in.Mode,
		IsPrivate:  in.IsPrivate,
		AccessType: in.AccessType,
		CreatedAt:  now,
		UpdatedAt:  now,
	}
	if in.IsPrivate {
		hash, err := s.hasher.Hash(in.Password)
		if err != nil {
			return nil, fmt.Errorf("hash password: %w", err)
		}
		share.PasswordHash = &hash
	}

	if share.Slug != "" {
		err := s.insertExplicit(ctx, share, now)
		if errors.Is(err, store.ErrDuplicateSlug) {
			return nil, ErrSlugTaken
		}
		if err != nil {
			return nil, err
		}
		return share, nil
	}

	if err := s.insertGenerated(ctx, share); err != nil {
		return nil, err
	}
	return share, nil
}

// insertExplicit claims a caller-chosen slug. A record whose lease has run
// out no longer owns its slug, even before the purge removes it.
func (s *ShareService) insertExplicit(ctx context.Context, share *models.Share, now time.Time) error {
	if s.cfg.TTL <= 0 {
		return s.store.InsertUnique(ctx, share)
	}
	return s.store.ReplaceExpired(ctx, share, now.Add(-s.cfg.TTL))
}

// insertGenerated assigns a random slug to share and inserts it. The lookup
// skips known collisions early; the store's unique insert is what actually
// guarantees uniqueness.
func (s *ShareService) insertGenerated(ctx context.Context, share *models.Share) error {
	for attempt := 0; attempt < s.cfg.SlugMaxAttempts; attempt++ {
		slug, err := s.newSlug()
		if err != nil {
			return err
		}

		_, err = s.store.FindOne(ctx, slug)
		if err == nil {
			continue
		}
		if !errors.Is(err, store.ErrNotFound) {
			return err
		}

		share.Slug = slug
		err = s.store.InsertUnique(ctx, share)
		if errors.Is(err, store.ErrDuplicateSlug) {
			continue
		}
		if err != nil {
			share.Slug = ""
			return err
		}
		return nil
	}

	share.Slug = ""
	s.logger.Error("slug allocation exhausted", zap.Int("attempts", s.cfg.SlugMaxAttempts))
	return ErrSlugExhausted
}

// Get returns the stored record without applying any privacy rules. Records
// whose lease has run out are reported as not found.
func (s *ShareService) Get(ctx context.Context, slug string) (*models.Share, error) {
	share, err := s.store.FindOne(ctx, slug)
	if errors.Is(err, store.ErrNotFound) {
		return nil, ErrShareNotFound
	}
	if err != nil {
		return nil, err
	}
	if share.Expired(s.now(), s.cfg.TTL) {
		return nil, ErrShareNotFound
	}
	return share, nil
}

// GetRaw returns decoded content. Private shares need the right password.
func (s *ShareService) GetRaw(ctx context.Context, slug, candidate string) (any, error) {
	share, err := s.Get(ctx, slug)
	if err != nil {
		return nil, err
	}
	if share.IsPrivate {
		if candidate == "" {
			return nil, ErrPasswordRequired
		}
		if !s.VerifyPassword(share, candidate) {
			return nil, ErrInvalidPassword
		}
	}
	return decodeContent(share)
}

// GetMetadata describes a share, withholding content when it is private.
func (s *ShareService) GetMetadata(ctx context.Context, slug string) (*ShareView, error) {
	share, err := s.Get(ctx, slug)
	if err != nil {
		return nil, err
	}
	if share.IsPrivate {
		return view(share, nil), nil
	}
	data, err := decodeContent(share)
	if err != nil {
		return nil, err
	}
	return view(share, data), nil
}

// Unlock always checks the password, so it fails for public shares too.
func (s *ShareService) Unlock(ctx context.Context, slug, candidate string) (*ShareView, error) {
	share, err := s.Get(ctx, slug)
	if err != nil {
		return nil, err
	}
	if !s.VerifyPassword(share, candidate) {
		return nil, ErrInvalidPassword
	}
	data, err := decodeContent(share)
	if err != nil {
		return nil, err
	}
	return view(share, data), nil
}

// Update rewrites an existing share or, when none exists, creates one under
// slug. A private share cannot be made public here.
func (s *ShareService) Update(ctx context.Context, slug string, in ShareInput) (bool, error) {
	in.Slug = slug

	existing, err := s.Get(ctx, slug)
	if errors.Is(err, ErrShareNotFound) {
		if _, err := s.Create(ctx, withDefaultAccess(in, models.AccessEditor)); err != nil {
			return false, err
		}
		return true, nil
	}
	if err != nil {
		return false, err
	}

	if existing.IsPrivate && !in.IsPrivate {
		return false, ErrInvalidTransition
	}
	if err := normalize(&in, models.AccessViewer); err != nil {
		return false, err
	}

	update := store.ShareUpdate{
		Type:       &in.Type,
		Content:    &in.Content,
		Mode:       &in.Mode,
		IsPrivate:  &in.IsPrivate,
		AccessType: &in.AccessType,
		UpdatedAt:  s.now().UTC(),
	}
	if in.IsPrivate {
		hash, err := s.hasher.Hash(in.Password)
		if err != nil {
			return false, fmt.Errorf("hash password: %w", err)
		}
		update.PasswordHash = &hash
	} else {
		update.ClearPassword = true
	}

	_, err = s.store.UpdateSet(ctx, slug, update)
	if errors.Is(err, store.ErrNotFound) {
		return false, ErrShareNotFound
	}
	if err != nil {
		return false, err
	}
	return false, nil
}

// CreateFromUpload stores an uploaded file as a public, editable share.
func (s *ShareService) CreateFromUpload(ctx context.Context, data []byte, shareType models.ShareType) (*models.Share, error) {
	if s.cfg.UploadMaxBytes > 0 && int64(len(data)) > s.cfg.UploadMaxBytes {
		return nil, ErrPayloadTooLarge
	}
	if shareType == "" {
		shareType = models.ShareTypeJSON
	}

	switch shareType {
	case models.ShareTypeJSON:
		if !json.Valid(data) {
			return nil, invalid("file", "invalid JSON file")
		}
	case models.ShareTypeText:
		if !utf8.Valid(data) {
			return nil, invalid("file", "file must be UTF-8 text")
		}
	default:
		return nil, invalid("type", "must be either json or text")
	}

	return s.Create(ctx, ShareInput{
		Type:       shareType,
		Content:    string(data),
		Mode:       models.ModeVisualize,
		AccessType: models.AccessEditor,
	})
}

// VerifyPassword is false for public shares and for shares without a digest.
func (s *ShareService) VerifyPassword(share *models.Share, candidate string) bool {
	if !share.IsPrivate || share.PasswordHash == nil {
		return false
	}
	return s.hasher.Verify(*share.PasswordHash, candidate)
}

func withDefaultAccess(in ShareInput, access models.AccessType) ShareInput {
	if in.AccessType == "" {
		in.AccessType = access
	}
	return in
}

func normalize(in *ShareInput, defaultAccess models.AccessType) error {
	if in.Slug != "" && !ValidSlug(in.Slug) {
		return invalid("slug", fmt.Sprintf("must be %d to %d alphanumeric characters", MinSlugLength, MaxSlugLength))
	}

	if in.Type == "" {
		in.Type = models.ShareTypeJSON
	}
	if !in.Type.Valid() {
		return invalid("type", "must be either json or text")
	}

	if in.Mode == "" {
		if in.Type == models.ShareTypeJSON {
			return invalid("mode", "is required for json shares")
		}
		in.Mode = models.ModeFormatter
	}
	if !in.Mode.Valid() {
		return invalid("mode", "must be one of: visualize, tree, formatter")
	}

	if in.AccessType == "" {
		in.AccessType = defaultAccess
	}
	if !in.AccessType.Valid() {
		return invalid("accessType", "must be either editor or viewer")
	}

	if in.Type == models.ShareTypeJSON && !json.Valid([]byte(in.Content)) {
		return invalid("content", "must be valid JSON")
	}

	if in.IsPrivate && in.Password == "" {
		return invalid("password", "is required for private links")
	}
	if in.Password != "" && utf8.RuneCountInString(in.Password) < minPasswordLength {
		return invalid("password", fmt.Sprintf("must be at least %d characters", minPasswordLength))
	}
	return nil
}

func decodeContent(share *models.Share) (any, error) {
	if share.Type != models.ShareTypeJSON {
		return share.Content, nil
	}
	dec := json.NewDecoder(strings.NewReader(share.Content))
	dec.UseNumber()
	var v any
	if err := dec.Decode(&v); err != nil {
		return nil, fmt.Errorf("decode share %s: %w", share.Slug, err)
	}
	return v, nil
}

func view(share *models.Share, data any) *ShareView {
	return &ShareView{
		Type:       share.Type,
		Data:       data,
		Slug:       share.Slug,
		IsPrivate:  share.IsPrivate,
		AccessType: share.AccessType,
		Mode:       share.Mode,
	}
}
