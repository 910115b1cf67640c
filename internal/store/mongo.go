package store

import (
	"context"
	"errors"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/dimitrije/jsoncrack-api/internal/models"
)

const shareCollection = "share_links"

type shareDoc struct {
	Slug         string    `bson:"slug"`
	Type         string    `bson:"type"`
	Content      string    `bson:"content"`
	Mode         string    `bson:"mode"`
	IsPrivate    bool      `bson:"isPrivate"`
	AccessType   string    `bson:"accessType"`
	PasswordHash *string   `bson:"passwordHash,omitempty"`
	CreatedAt    time.Time `bson:"createdAt"`
	UpdatedAt    time.Time `bson:"updatedAt"`
}

func toDoc(s *models.Share) shareDoc {
	return shareDoc{
		Slug:         s.Slug,
		Type:         string(s.Type),
		Content:      s.Content,
		Mode:         string(s.Mode),
		IsPrivate:    s.IsPrivate,
		AccessType:   string(s.AccessType),
		PasswordHash: s.PasswordHash,
		CreatedAt:    s.CreatedAt.UTC(),
		UpdatedAt:    s.UpdatedAt.UTC(),
	}
}

func (d shareDoc) model() *models.Share {
	return &models.Share{
		Slug:         d.Slug,
		Type:         models.ShareType(d.Type),
		Content:      d.Content,
		Mode:         models.Mode(d.Mode),
		IsPrivate:    d.IsPrivate,
		AccessType:   models.AccessType(d.AccessType),
		PasswordHash: d.PasswordHash,
		CreatedAt:    d.CreatedAt,
		UpdatedAt:    d.UpdatedAt,
	}
}

// MongoStore persists shares in MongoDB. A TTL index on createdAt lets the
// server expire leases on its own.
type MongoStore struct {
	c   *mongo.Collection
	ttl time.Duration
}

func NewMongoStore(db *mongo.Database, ttl time.Duration) *MongoStore {
	return &MongoStore{c: db.Collection(shareCollection), ttl: ttl}
}

// EnsureIndexes creates the unique slug index and the lease TTL index.
func (s *MongoStore) EnsureIndexes(ctx context.Context) error {
	indexes := []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "slug", Value: 1}},
			Options: options.Index().SetUnique(true).SetName("idx_share_slug"),
		},
		{
			Keys:    bson.D{{Key: "createdAt", Value: 1}},
			Options: options.Index().SetExpireAfterSeconds(int32(s.ttl / time.Second)).SetName("idx_share_ttl"),
		},
	}
	_, err := s.c.Indexes().CreateMany(ctx, indexes)
	return err
}

func (s *MongoStore) FindOne(ctx context.Context, slug string) (*models.Share, error) {
	var doc shareDoc
	err := s.c.FindOne(ctx, bson.M{"slug": slug}).Decode(&doc)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return doc.model(), nil
}

func (s *MongoStore) InsertUnique(ctx context.Context, share *models.Share) error {
	_, err := s.c.InsertOne(ctx, toDoc(share))
	if mongo.IsDuplicateKeyError(err) {
		return ErrDuplicateSlug
	}
	return err
}

// ReplaceExpired upserts over an expired lease. When a live record holds the
// slug the filter misses, the upsert hits the unique index and fails.
func (s *MongoStore) ReplaceExpired(ctx context.Context, share *models.Share, cutoff time.Time) error {
	filter := bson.M{"slug": share.Slug, "createdAt": bson.M{"$lte": cutoff.UTC()}}
	_, err := s.c.ReplaceOne(ctx, filter, toDoc(share), options.Replace().SetUpsert(true))
	if mongo.IsDuplicateKeyError(err) {
		return ErrDuplicateSlug
	}
	return err
}

func (s *MongoStore) UpdateSet(ctx context.Context, slug string, update ShareUpdate) (*models.Share, error) {
	set := bson.M{}
	if update.Type != nil {
		set["type"] = string(*update.Type)
	}
	if update.Content != nil {
		set["content"] = *update.Content
	}
	if update.Mode != nil {
		set["mode"] = string(*update.Mode)
	}
	if update.IsPrivate != nil {
		set["isPrivate"] = *update.IsPrivate
	}
	if update.AccessType != nil {
		set["accessType"] = string(*update.AccessType)
	}
	if !update.ClearPassword && update.PasswordHash != nil {
		set["passwordHash"] = *update.PasswordHash
	}
	updatedAt := update.UpdatedAt
	if updatedAt.IsZero() {
		updatedAt = time.Now()
	}
	set["updatedAt"] = updatedAt.UTC()

	change := bson.M{"$set": set}
	if update.ClearPassword {
		change["$unset"] = bson.M{"passwordHash": ""}
	}

	var doc shareDoc
	err := s.c.FindOneAndUpdate(ctx, bson.M{"slug": slug}, change,
		options.FindOneAndUpdate().SetReturnDocument(options.After),
	).Decode(&doc)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return doc.model(), nil
}

// DeleteExpired backs up the TTL index, whose monitor only runs about once
// a minute.
func (s *MongoStore) DeleteExpired(ctx context.Context, cutoff time.Time) (int64, error) {
	result, err := s.c.DeleteMany(ctx, bson.M{"createdAt": bson.M{"$lt": cutoff.UTC()}})
	if err != nil {
		return 0, err
	}
	return result.DeletedCount, nil
}
