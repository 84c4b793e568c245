package mongodb

import (
	"context"
	"fmt"
	"regexp"
	"time"

	"agency-cms/internal/content/domain/model"
	"agency-cms/internal/content/domain/repository"
	shareddb "agency-cms/internal/shared/database/mongodb"
	apperrors "agency-cms/internal/shared/errors"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// countersCollection holds one sequence counter document per collection
const countersCollection = "content_counters"

// MongoContentRepository stores one entity type in its own collection
type MongoContentRepository[T model.Document] struct {
	col      shareddb.CollectionInterface
	counters shareddb.CollectionInterface
	desc     model.Descriptor
}

// NewMongoContentRepository creates the repository and its indexes
func NewMongoContentRepository[T model.Document](ctx context.Context, db *mongo.Database, desc model.Descriptor) (*MongoContentRepository[T], error) {
	repo := NewMongoContentRepositoryWithCollections[T](
		shareddb.NewMongoCollectionAdapter(db.Collection(desc.Name)),
		shareddb.NewMongoCollectionAdapter(db.Collection(countersCollection)),
		desc,
	)
	if err := repo.EnsureIndexes(ctx); err != nil {
		return nil, fmt.Errorf("failed to create %s indexes: %w", desc.Name, err)
	}
	return repo, nil
}

// NewMongoContentRepositoryWithCollections wraps existing document and
// counter collections
func NewMongoContentRepositoryWithCollections[T model.Document](col, counters shareddb.CollectionInterface, desc model.Descriptor) *MongoContentRepository[T] {
	return &MongoContentRepository[T]{col: col, counters: counters, desc: desc}
}

// EnsureIndexes creates the list index and, for sluggable entities, a unique
// slug index
func (r *MongoContentRepository[T]) EnsureIndexes(ctx context.Context) error {
	models := []mongo.IndexModel{
		{Keys: bson.D{{Key: "isActive", Value: 1}, {Key: r.desc.OrderField, Value: 1}}},
	}
	if r.desc.HasSlug {
		models = append(models, mongo.IndexModel{
			Keys: bson.D{{Key: "slug", Value: 1}},
			Options: options.Index().SetUnique(true).
				SetPartialFilterExpression(bson.M{"slug": bson.M{"$type": "string", "$gt": ""}}),
		})
	}
	if r.desc.HasCategory {
		models = append(models, mongo.IndexModel{Keys: bson.D{{Key: "category", Value: 1}}})
	}
	return r.col.CreateIndexes(ctx, models)
}

func (r *MongoContentRepository[T]) Descriptor() model.Descriptor {
	return r.desc
}

func (r *MongoContentRepository[T]) notFound(err error) error {
	if shareddb.IsNoDocuments(err) {
		return apperrors.NewNotFoundError(r.desc.Resource).WithCause(apperrors.ErrDocumentNotFound)
	}
	return fmt.Errorf("failed to query %s: %w", r.desc.Name, err)
}

func (r *MongoContentRepository[T]) filter(q repository.ListQuery) bson.M {
	f := bson.M{}
	if q.Active != nil {
		f["isActive"] = *q.Active
	}
	if q.Category != "" && r.desc.HasCategory {
		f["category"] = q.Category
	}
	if q.Featured != nil && r.desc.HasFeatured {
		f["isFeatured"] = *q.Featured
	}
	if q.Tag != "" && r.desc.TagsField != "" {
		f[r.desc.TagsField] = q.Tag
	}
	if q.Published != nil && r.desc.PublishedField != "" {
		f[r.desc.PublishedField] = *q.Published
	}
	if q.Search != "" {
		f[r.desc.TitleField] = bson.M{"$regex": regexp.QuoteMeta(q.Search), "$options": "i"}
	}
	return f
}

func (r *MongoContentRepository[T]) sortable(field string) bool {
	for _, s := range r.desc.SortFields {
		if s == field {
			return true
		}
	}
	return false
}

// List returns matching documents and the total match count
func (r *MongoContentRepository[T]) List(ctx context.Context, q repository.ListQuery) ([]T, int64, error) {
	filter := r.filter(q)

	total, err := r.col.CountDocuments(ctx, filter)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to count %s: %w", r.desc.Name, err)
	}

	sortField := r.desc.OrderField
	if r.sortable(q.SortBy) {
		sortField = q.SortBy
	}
	dir := 1
	if q.SortDesc {
		dir = -1
	}
	opts := options.Find().
		SetSort(bson.D{{Key: sortField, Value: dir}, {Key: "createdAt", Value: -1}, {Key: "_id", Value: 1}}).
		SetSkip(q.Skip)
	if q.Limit > 0 {
		opts.SetLimit(q.Limit)
	}

	cur, err := r.col.Find(ctx, filter, opts)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list %s: %w", r.desc.Name, err)
	}
	items, err := shareddb.DecodeAll[T](ctx, cur)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to decode %s: %w", r.desc.Name, err)
	}
	return items, total, nil
}

func (r *MongoContentRepository[T]) findOne(ctx context.Context, filter bson.M) (T, error) {
	var doc T
	if err := r.col.FindOne(ctx, filter).Decode(&doc); err != nil {
		var zero T
		return zero, r.notFound(err)
	}
	return doc, nil
}

func (r *MongoContentRepository[T]) GetByID(ctx context.Context, id string) (T, error) {
	return r.findOne(ctx, bson.M{"_id": id})
}

func (r *MongoContentRepository[T]) GetBySlug(ctx context.Context, slug string) (T, error) {
	return r.findOne(ctx, bson.M{"slug": slug})
}

func (r *MongoContentRepository[T]) SlugExists(ctx context.Context, slug string, excludeID string) (bool, error) {
	filter := bson.M{"slug": slug}
	if excludeID != "" {
		filter["_id"] = bson.M{"$ne": excludeID}
	}
	n, err := r.col.CountDocuments(ctx, filter, options.Count().SetLimit(1))
	if err != nil {
		return false, fmt.Errorf("failed to check slug: %w", err)
	}
	return n > 0, nil
}

func (r *MongoContentRepository[T]) maxSequence(ctx context.Context) (int, bool, error) {
	var doc struct {
		Sequence int `bson:"sequence"`
	}
	opts := options.FindOne().SetSort(bson.D{{Key: "sequence", Value: -1}}).SetProjection(bson.M{"sequence": 1})
	if err := r.col.FindOne(ctx, bson.M{}, opts).Decode(&doc); err != nil {
		if shareddb.IsNoDocuments(err) {
			return 0, false, nil
		}
		return 0, false, fmt.Errorf("failed to read max sequence: %w", err)
	}
	return doc.Sequence, true, nil
}

// NextSequence hands out sequences from an atomic counter. The counter is
// raised to max(sequence)+1 first so documents written without it are never
// collided with.
func (r *MongoContentRepository[T]) NextSequence(ctx context.Context) (int, error) {
	highest, found, err := r.maxSequence(ctx)
	if err != nil {
		return 0, err
	}
	floor := 0
	if found {
		floor = highest + 1
	}

	key := bson.M{"_id": r.desc.Name + ".sequence"}
	seed := func() error {
		_, err := r.counters.UpdateOne(ctx, key, bson.M{"$max": bson.M{"next": floor}}, options.Update().SetUpsert(true))
		return err
	}
	err = seed()
	if mongo.IsDuplicateKeyError(err) {
		// lost the first upsert race, the counter exists now
		err = seed()
	}
	if err != nil {
		return 0, fmt.Errorf("failed to seed %s sequence: %w", r.desc.Name, err)
	}

	var counter struct {
		Next int `bson:"next"`
	}
	opts := options.FindOneAndUpdate().SetReturnDocument(options.Before)
	if err := r.counters.FindOneAndUpdate(ctx, key, bson.M{"$inc": bson.M{"next": 1}}, opts).Decode(&counter); err != nil {
		return 0, fmt.Errorf("failed to allocate %s sequence: %w", r.desc.Name, err)
	}
	return counter.Next, nil
}

func (r *MongoContentRepository[T]) Create(ctx context.Context, doc T) error {
	if _, err := r.col.InsertOne(ctx, doc); err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return apperrors.NewConflictError("slug already exists").WithCause(apperrors.ErrDuplicateSlug)
		}
		return fmt.Errorf("failed to create %s: %w", r.desc.Resource, err)
	}
	return nil
}

// Update replaces every field except _id and createdAt
func (r *MongoContentRepository[T]) Update(ctx context.Context, doc T) error {
	raw, err := bson.Marshal(doc)
	if err != nil {
		return fmt.Errorf("failed to encode %s: %w", r.desc.Resource, err)
	}
	var set bson.M
	if err := bson.Unmarshal(raw, &set); err != nil {
		return fmt.Errorf("failed to encode %s: %w", r.desc.Resource, err)
	}
	delete(set, "_id")
	delete(set, "createdAt")

	res, err := r.col.UpdateOne(ctx, bson.M{"_id": doc.GetBase().ID}, bson.M{"$set": set})
	if err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return apperrors.NewConflictError("slug already exists").WithCause(apperrors.ErrDuplicateSlug)
		}
		return fmt.Errorf("failed to update %s: %w", r.desc.Resource, err)
	}
	if res.Matched() == 0 {
		return apperrors.NewNotFoundError(r.desc.Resource)
	}
	return nil
}

func (r *MongoContentRepository[T]) SetActive(ctx context.Context, id string, active bool, at time.Time) error {
	res, err := r.col.UpdateOne(ctx, bson.M{"_id": id}, bson.M{"$set": bson.M{"isActive": active, "updatedAt": at}})
	if err != nil {
		return fmt.Errorf("failed to update %s: %w", r.desc.Resource, err)
	}
	if res.Matched() == 0 {
		return apperrors.NewNotFoundError(r.desc.Resource)
	}
	return nil
}

func (r *MongoContentRepository[T]) Delete(ctx context.Context, id string) error {
	res, err := r.col.DeleteOne(ctx, bson.M{"_id": id})
	if err != nil {
		return fmt.Errorf("failed to delete %s: %w", r.desc.Resource, err)
	}
	if res.Deleted() == 0 {
		return apperrors.NewNotFoundError(r.desc.Resource)
	}
	return nil
}

// SetOrder verifies every id exists before writing, so an unknown id leaves
// the collection untouched
func (r *MongoContentRepository[T]) SetOrder(ctx context.Context, ids []string, at time.Time) error {
	n, err := r.col.CountDocuments(ctx, bson.M{"_id": bson.M{"$in": ids}})
	if err != nil {
		return fmt.Errorf("failed to reorder %s: %w", r.desc.Name, err)
	}
	if n != int64(len(ids)) {
		return apperrors.NewNotFoundError(r.desc.Resource).WithCause(apperrors.ErrDocumentNotFound)
	}

	models := make([]mongo.WriteModel, 0, len(ids))
	for i, id := range ids {
		models = append(models, mongo.NewUpdateOneModel().
			SetFilter(bson.M{"_id": id}).
			SetUpdate(bson.M{"$set": bson.M{r.desc.OrderField: i, "updatedAt": at}}))
	}
	matched, err := r.col.BulkWrite(ctx, models, options.BulkWrite().SetOrdered(true))
	if err != nil {
		return fmt.Errorf("failed to reorder %s: %w", r.desc.Name, err)
	}
	if matched != int64(len(ids)) {
		return apperrors.NewNotFoundError(r.desc.Resource).WithCause(apperrors.ErrDocumentNotFound)
	}
	return nil
}

var _ repository.ContentRepository[*model.Service] = (*MongoContentRepository[*model.Service])(nil)
