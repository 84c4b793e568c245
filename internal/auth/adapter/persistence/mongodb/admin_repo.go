package mongodb

import (
	"context"
	"time"

	"agency-cms/internal/auth/domain/model"
	"agency-cms/internal/auth/domain/repository"
	shareddb "agency-cms/internal/shared/database/mongodb"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

const (
	adminsCollection   = "admins"
	sessionsCollection = "admin_sessions"
)

// MongoAuthRepository implements the AuthRepository interface using MongoDB
type MongoAuthRepository struct {
	admins   shareddb.CollectionInterface
	sessions shareddb.CollectionInterface
}

// NewMongoAuthRepository creates the repository and its indexes
func NewMongoAuthRepository(ctx context.Context, db *mongo.Database) (*MongoAuthRepository, error) {
	repo := NewMongoAuthRepositoryWithCollections(
		shareddb.NewMongoCollectionAdapter(db.Collection(adminsCollection)),
		shareddb.NewMongoCollectionAdapter(db.Collection(sessionsCollection)),
	)
	if err := repo.EnsureIndexes(ctx); err != nil {
		return nil, err
	}
	return repo, nil
}

// NewMongoAuthRepositoryWithCollections is used by tests to inject collections
func NewMongoAuthRepositoryWithCollections(admins, sessions shareddb.CollectionInterface) *MongoAuthRepository {
	return &MongoAuthRepository{admins: admins, sessions: sessions}
}

// EnsureIndexes creates the unique email index and the session TTL index
func (r *MongoAuthRepository) EnsureIndexes(ctx context.Context) error {
	if err := r.admins.CreateIndexes(ctx, []mongo.IndexModel{{
		Keys:    bson.D{{Key: "email", Value: 1}},
		Options: options.Index().SetUnique(true),
	}}); err != nil {
		return err
	}
	return r.sessions.CreateIndexes(ctx, []mongo.IndexModel{
		{Keys: bson.D{{Key: "admin_id", Value: 1}}},
		{
			Keys:    bson.D{{Key: "expires_at", Value: 1}},
			Options: options.Index().SetExpireAfterSeconds(0),
		},
	})
}

// CreateAdmin inserts a new admin
func (r *MongoAuthRepository) CreateAdmin(ctx context.Context, admin *model.Admin) error {
	now := time.Now().UTC()
	admin.CreatedAt = now
	admin.UpdatedAt = now

	if _, err := r.admins.InsertOne(ctx, admin); err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return model.ErrAdminExists
		}
		return err
	}
	return nil
}

// GetAdminByEmail retrieves an admin by normalized email
func (r *MongoAuthRepository) GetAdminByEmail(ctx context.Context, email string) (*model.Admin, error) {
	return r.findAdmin(ctx, bson.M{"email": model.NormalizeEmail(email)})
}

// GetAdminByID retrieves an admin by ID
func (r *MongoAuthRepository) GetAdminByID(ctx context.Context, id string) (*model.Admin, error) {
	return r.findAdmin(ctx, bson.M{"_id": id})
}

func (r *MongoAuthRepository) findAdmin(ctx context.Context, filter bson.M) (*model.Admin, error) {
	var admin model.Admin
	if err := r.admins.FindOne(ctx, filter).Decode(&admin); err != nil {
		if shareddb.IsNoDocuments(err) {
			return nil, model.ErrAdminNotFound
		}
		return nil, err
	}
	return &admin, nil
}

// CountAdmins returns the number of admin accounts
func (r *MongoAuthRepository) CountAdmins(ctx context.Context) (int64, error) {
	return r.admins.CountDocuments(ctx, bson.M{})
}

// TouchLastLogin records a successful login
func (r *MongoAuthRepository) TouchLastLogin(ctx context.Context, id string) error {
	now := time.Now().UTC()
	res, err := r.admins.UpdateOne(ctx, bson.M{"_id": id}, bson.M{"$set": bson.M{"last_login_at": now, "updated_at": now}})
	if err != nil {
		return err
	}
	if res.Matched() == 0 {
		return model.ErrAdminNotFound
	}
	return nil
}

// CreateSession stores an issued token session
func (r *MongoAuthRepository) CreateSession(ctx context.Context, session *model.Session) error {
	session.CreatedAt = time.Now().UTC()
	_, err := r.sessions.InsertOne(ctx, session)
	return err
}

// GetSessionByID retrieves a session by its token ID
func (r *MongoAuthRepository) GetSessionByID(ctx context.Context, id string) (*model.Session, error) {
	var session model.Session
	if err := r.sessions.FindOne(ctx, bson.M{"_id": id}).Decode(&session); err != nil {
		if shareddb.IsNoDocuments(err) {
			return nil, model.ErrSessionNotFound
		}
		return nil, err
	}
	return &session, nil
}

// DeleteSession deletes a session by ID
func (r *MongoAuthRepository) DeleteSession(ctx context.Context, id string) error {
	res, err := r.sessions.DeleteOne(ctx, bson.M{"_id": id})
	if err != nil {
		return err
	}
	if res.Deleted() == 0 {
		return model.ErrSessionNotFound
	}
	return nil
}

var _ repository.AuthRepository = (*MongoAuthRepository)(nil)
