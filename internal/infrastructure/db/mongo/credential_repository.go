package mongo

import (
	"context"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/passop/passop-api/internal/core/domain"
)

const credentialsCollection = "passwords"

// CredentialRepository implements ports.CredentialRepository. Every query
// carries the owner's userId in its filter.
type CredentialRepository struct {
	col *mongo.Collection
}

func NewCredentialRepository(db *mongo.Database) *CredentialRepository {
	return &CredentialRepository{col: db.Collection(credentialsCollection)}
}

type mongoCredential struct {
	ID        primitive.ObjectID `bson:"_id,omitempty"`
	UserID    primitive.ObjectID `bson:"userId"`
	Site      string             `bson:"site"`
	Username  string             `bson:"username"`
	Password  string             `bson:"password"`
	CreatedAt time.Time          `bson:"created_at"`
}

func (m mongoCredential) toDomain() *domain.Credential {
	return &domain.Credential{
		ID:        m.ID.Hex(),
		OwnerID:   m.UserID.Hex(),
		Site:      m.Site,
		Username:  m.Username,
		Password:  m.Password,
		CreatedAt: m.CreatedAt.UTC(),
	}
}

// Create inserts a new credential document.
func (r *CredentialRepository) Create(ctx context.Context, c *domain.Credential) (*domain.Credential, error) {
	owner, err := primitive.ObjectIDFromHex(c.OwnerID)
	if err != nil {
		return nil, domain.ErrInvalidID
	}

	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	doc := mongoCredential{
		ID:        primitive.NewObjectID(),
		UserID:    owner,
		Site:      c.Site,
		Username:  c.Username,
		Password:  c.Password,
		CreatedAt: c.CreatedAt.UTC(),
	}
	if _, err := r.col.InsertOne(ctx, doc); err != nil {
		return nil, fmt.Errorf("insert credential: %w", err)
	}
	return doc.toDomain(), nil
}

// ListByOwner returns the owner's credentials in insertion order.
func (r *CredentialRepository) ListByOwner(ctx context.Context, ownerID string) ([]*domain.Credential, error) {
	owner, err := primitive.ObjectIDFromHex(ownerID)
	if err != nil {
		return nil, domain.ErrInvalidID
	}

	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	opts := options.Find().SetSort(bson.D{{Key: "_id", Value: 1}})
	cursor, err := r.col.Find(ctx, bson.M{"userId": owner}, opts)
	if err != nil {
		return nil, fmt.Errorf("find credentials: %w", err)
	}
	defer cursor.Close(ctx)

	var docs []mongoCredential
	if err := cursor.All(ctx, &docs); err != nil {
		return nil, fmt.Errorf("decode credentials: %w", err)
	}

	items := make([]*domain.Credential, 0, len(docs))
	for _, d := range docs {
		items = append(items, d.toDomain())
	}
	return items, nil
}

// DeleteByOwner removes the document matching both _id and userId. A record
// id that is not an ObjectID cannot match anything and is reported as a miss.
func (r *CredentialRepository) DeleteByOwner(ctx context.Context, ownerID, id string) (bool, error) {
	owner, err := primitive.ObjectIDFromHex(ownerID)
	if err != nil {
		return false, domain.ErrInvalidID
	}
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return false, nil
	}

	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	res, err := r.col.DeleteOne(ctx, bson.M{"_id": oid, "userId": owner})
	if err != nil {
		return false, fmt.Errorf("delete credential: %w", err)
	}
	return res.DeletedCount > 0, nil
}

// EnsureIndexes creates the owner index used by list and delete.
func (r *CredentialRepository) EnsureIndexes(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()

	_, err := r.col.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys: bson.D{{Key: "userId", Value: 1}},
	})
	if err != nil {
		return fmt.Errorf("create passwords indexes: %w", err)
	}
	return nil
}
