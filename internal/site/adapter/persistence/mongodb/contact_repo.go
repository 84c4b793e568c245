package mongodb

import (
	"context"
	"fmt"
	"time"

	shareddb "agency-cms/internal/shared/database/mongodb"
	apperrors "agency-cms/internal/shared/errors"
	"agency-cms/internal/site/domain/model"
	"agency-cms/internal/site/domain/repository"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

const contactsCollection = "contact_messages"

// MongoContactRepository implements ContactRepository
type MongoContactRepository struct {
	col shareddb.CollectionInterface
}

// NewMongoContactRepository creates the repository and its indexes
func NewMongoContactRepository(ctx context.Context, db *mongo.Database) (*MongoContactRepository, error) {
	repo := NewMongoContactRepositoryWithCollection(shareddb.NewMongoCollectionAdapter(db.Collection(contactsCollection)))
	err := repo.col.CreateIndexes(ctx, []mongo.IndexModel{
		{Keys: bson.D{{Key: "isRead", Value: 1}, {Key: "createdAt", Value: -1}}},
		{Keys: bson.D{{Key: "visitorId", Value: 1}}},
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create contact indexes: %w", err)
	}
	return repo, nil
}

// NewMongoContactRepositoryWithCollection wraps an existing collection
func NewMongoContactRepositoryWithCollection(col shareddb.CollectionInterface) *MongoContactRepository {
	return &MongoContactRepository{col: col}
}

func notFound() error {
	return apperrors.NewNotFoundError("contact message")
}

func (r *MongoContactRepository) Create(ctx context.Context, msg *model.ContactMessage) error {
	if msg.ID.IsZero() {
		msg.ID = primitive.NewObjectID()
	}
	if _, err := r.col.InsertOne(ctx, msg); err != nil {
		return fmt.Errorf("failed to store contact message: %w", err)
	}
	return nil
}

func (r *MongoContactRepository) List(ctx context.Context, q repository.ContactQuery) ([]model.ContactMessage, int64, error) {
	filter := bson.M{}
	if q.IsRead != nil {
		filter["isRead"] = *q.IsRead
	}

	total, err := r.col.CountDocuments(ctx, filter)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to count contact messages: %w", err)
	}

	opts := options.Find().SetSort(bson.D{{Key: "createdAt", Value: -1}}).SetSkip(q.Skip)
	if q.Limit > 0 {
		opts.SetLimit(q.Limit)
	}
	cur, err := r.col.Find(ctx, filter, opts)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list contact messages: %w", err)
	}
	items, err := shareddb.DecodeAll[model.ContactMessage](ctx, cur)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to decode contact messages: %w", err)
	}
	return items, total, nil
}

func (r *MongoContactRepository) SetRead(ctx context.Context, id string, read bool, at time.Time) (*model.ContactMessage, error) {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return nil, notFound()
	}

	var msg model.ContactMessage
	err = r.col.FindOneAndUpdate(ctx,
		bson.M{"_id": oid},
		bson.M{"$set": bson.M{"isRead": read, "updatedAt": at}},
		options.FindOneAndUpdate().SetReturnDocument(options.After),
	).Decode(&msg)
	if err != nil {
		if shareddb.IsNoDocuments(err) {
			return nil, notFound()
		}
		return nil, fmt.Errorf("failed to update contact message: %w", err)
	}
	return &msg, nil
}

func (r *MongoContactRepository) Delete(ctx context.Context, id string) error {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return notFound()
	}
	res, err := r.col.DeleteOne(ctx, bson.M{"_id": oid})
	if err != nil {
		return fmt.Errorf("failed to delete contact message: %w", err)
	}
	if res.Deleted() == 0 {
		return notFound()
	}
	return nil
}

var _ repository.ContactRepository = (*MongoContactRepository)(nil)
