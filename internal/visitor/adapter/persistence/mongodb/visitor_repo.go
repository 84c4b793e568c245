package mongodb

import (
	"context"
	"fmt"
	"regexp"
	"time"

	shareddb "agency-cms/internal/shared/database/mongodb"
	apperrors "agency-cms/internal/shared/errors"
	"agency-cms/internal/visitor/domain/model"
	"agency-cms/internal/visitor/domain/repository"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

const visitorsCollection = "visitors"

var sortableFields = map[string]bool{
	"lastVisit":  true,
	"firstVisit": true,
	"visitCount": true,
	"createdAt":  true,
	"status":     true,
}

// MongoVisitorRepository implements VisitorRepository on a single collection
// keyed by a unique visitorId index.
type MongoVisitorRepository struct {
	col shareddb.CollectionInterface
}

// NewMongoVisitorRepository creates the repository and its indexes
func NewMongoVisitorRepository(ctx context.Context, db *mongo.Database) (*MongoVisitorRepository, error) {
	repo := NewMongoVisitorRepositoryWithCollection(shareddb.NewMongoCollectionAdapter(db.Collection(visitorsCollection)))
	if err := repo.EnsureIndexes(ctx); err != nil {
		return nil, fmt.Errorf("failed to create visitor indexes: %w", err)
	}
	return repo, nil
}

// NewMongoVisitorRepositoryWithCollection wraps an existing collection
func NewMongoVisitorRepositoryWithCollection(col shareddb.CollectionInterface) *MongoVisitorRepository {
	return &MongoVisitorRepository{col: col}
}

// EnsureIndexes creates the unique visitorId index plus list indexes
func (r *MongoVisitorRepository) EnsureIndexes(ctx context.Context) error {
	return r.col.CreateIndexes(ctx, []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "visitorId", Value: 1}},
			Options: options.Index().SetUnique(true),
		},
		{Keys: bson.D{{Key: "status", Value: 1}, {Key: "lastVisit", Value: -1}}},
		{Keys: bson.D{{Key: "lastVisit", Value: -1}}},
	})
}

func insertDefaults(meta model.Metadata, at time.Time) bson.M {
	onInsert := bson.M{
		"firstVisit": at,
		"status":     model.StatusNew,
		"createdAt":  at,
	}
	if meta.Device != nil {
		onInsert["device"] = meta.Device
	}
	if !meta.Location.IsZero() {
		onInsert["location"] = meta.Location
	}
	if meta.Referrer != "" {
		onInsert["referrer"] = meta.Referrer
	}
	return onInsert
}

func returnAfter(upsert bool) *options.FindOneAndUpdateOptions {
	return options.FindOneAndUpdate().SetUpsert(upsert).SetReturnDocument(options.After)
}

// Upsert applies a storage report in one findOneAndUpdate. Concurrent reports
// for the same visitor are serialized by the server and each increments the
// counter exactly once.
func (r *MongoVisitorRepository) Upsert(ctx context.Context, report model.Report) (*model.VisitorRecord, error) {
	set := bson.M{
		"lastVisit":      report.At,
		"rawStorageData": report.Snapshot.Normalize(),
		"updatedAt":      report.At,
	}
	if report.ClientTimestamp != nil {
		set["lastReportedAt"] = *report.ClientTimestamp
	}
	onInsert := insertDefaults(report.Metadata, report.At)
	onInsert["pagesVisited"] = []model.PageVisit{}

	update := bson.M{
		"$set":         set,
		"$inc":         bson.M{"visitCount": 1},
		"$setOnInsert": onInsert,
	}

	var record model.VisitorRecord
	err := r.col.FindOneAndUpdate(ctx, bson.M{"visitorId": report.VisitorID}, update, returnAfter(true)).Decode(&record)
	if err != nil {
		// two first reports racing on the unique index; the loser retries as an update
		if mongo.IsDuplicateKeyError(err) {
			err = r.col.FindOneAndUpdate(ctx, bson.M{"visitorId": report.VisitorID}, update, returnAfter(true)).Decode(&record)
		}
		if err != nil {
			return nil, fmt.Errorf("failed to upsert visitor: %w", err)
		}
	}
	return &record, nil
}

// AppendPageVisit pushes a page visit, creating the record if needed
func (r *MongoVisitorRepository) AppendPageVisit(ctx context.Context, visitorID string, visit model.PageVisit, meta model.Metadata) (*model.VisitorRecord, error) {
	onInsert := insertDefaults(meta, visit.VisitedAt)
	onInsert["visitCount"] = 0
	onInsert["rawStorageData"] = model.StorageSnapshot{}.Normalize()

	update := bson.M{
		"$push":        bson.M{"pagesVisited": visit},
		"$set":         bson.M{"lastVisit": visit.VisitedAt, "updatedAt": visit.VisitedAt},
		"$setOnInsert": onInsert,
	}

	var record model.VisitorRecord
	if err := r.col.FindOneAndUpdate(ctx, bson.M{"visitorId": visitorID}, update, returnAfter(true)).Decode(&record); err != nil {
		return nil, fmt.Errorf("failed to append page visit: %w", err)
	}
	return &record, nil
}

func (r *MongoVisitorRepository) updateExisting(ctx context.Context, visitorID string, set bson.M) (*model.VisitorRecord, error) {
	var record model.VisitorRecord
	err := r.col.FindOneAndUpdate(ctx, bson.M{"visitorId": visitorID}, bson.M{"$set": set}, returnAfter(false)).Decode(&record)
	if err != nil {
		if shareddb.IsNoDocuments(err) {
			return nil, apperrors.ErrVisitorNotFound
		}
		return nil, err
	}
	return &record, nil
}

// SetContactInfo records the identity supplied through a form
func (r *MongoVisitorRepository) SetContactInfo(ctx context.Context, visitorID string, info model.ContactInfo, at time.Time) (*model.VisitorRecord, error) {
	return r.updateExisting(ctx, visitorID, bson.M{"contactInfo": info, "updatedAt": at})
}

// UpdateStatus changes the lead status
func (r *MongoVisitorRepository) UpdateStatus(ctx context.Context, visitorID string, status model.Status, at time.Time) (*model.VisitorRecord, error) {
	return r.updateExisting(ctx, visitorID, bson.M{"status": status, "updatedAt": at})
}

// GetByVisitorID returns a single record
func (r *MongoVisitorRepository) GetByVisitorID(ctx context.Context, visitorID string) (*model.VisitorRecord, error) {
	var record model.VisitorRecord
	if err := r.col.FindOne(ctx, bson.M{"visitorId": visitorID}).Decode(&record); err != nil {
		if shareddb.IsNoDocuments(err) {
			return nil, apperrors.ErrVisitorNotFound
		}
		return nil, err
	}
	return &record, nil
}

func listFilter(q repository.ListQuery) bson.M {
	filter := bson.M{}
	if q.Status != "" {
		filter["status"] = q.Status
	}
	if q.Search != "" {
		pattern := primitiveRegex(q.Search)
		filter["$or"] = bson.A{
			bson.M{"visitorId": pattern},
			bson.M{"contactInfo.name": pattern},
			bson.M{"contactInfo.email": pattern},
		}
	}
	return filter
}

func primitiveRegex(s string) bson.M {
	return bson.M{"$regex": regexp.QuoteMeta(s), "$options": "i"}
}

// List returns a page of records and the total matching count
func (r *MongoVisitorRepository) List(ctx context.Context, q repository.ListQuery) ([]model.VisitorRecord, int64, error) {
	filter := listFilter(q)

	total, err := r.col.CountDocuments(ctx, filter)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to count visitors: %w", err)
	}

	sortField := "lastVisit"
	if sortableFields[q.SortBy] {
		sortField = q.SortBy
	}
	direction := 1
	if q.SortDesc {
		direction = -1
	}

	opts := options.Find().
		SetSort(bson.D{{Key: sortField, Value: direction}, {Key: "_id", Value: direction}}).
		SetSkip(q.Skip)
	if q.Limit > 0 {
		opts.SetLimit(q.Limit)
	}

	cur, err := r.col.Find(ctx, filter, opts)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list visitors: %w", err)
	}
	records, err := shareddb.DecodeAll[model.VisitorRecord](ctx, cur)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to decode visitors: %w", err)
	}
	return records, total, nil
}

// Delete removes a record
func (r *MongoVisitorRepository) Delete(ctx context.Context, visitorID string) error {
	res, err := r.col.DeleteOne(ctx, bson.M{"visitorId": visitorID})
	if err != nil {
		return fmt.Errorf("failed to delete visitor: %w", err)
	}
	if res.Deleted() == 0 {
		return apperrors.ErrVisitorNotFound
	}
	return nil
}

// Stats aggregates counts per status in one pipeline
func (r *MongoVisitorRepository) Stats(ctx context.Context, since time.Time) (*model.Stats, error) {
	pipeline := mongo.Pipeline{
		{{Key: "$facet", Value: bson.M{
			"byStatus": bson.A{
				bson.M{"$group": bson.M{"_id": "$status", "count": bson.M{"$sum": 1}}},
			},
			"identified": bson.A{
				bson.M{"$match": bson.M{"contactInfo.email": bson.M{"$exists": true, "$ne": ""}}},
				bson.M{"$count": "count"},
			},
			"active": bson.A{
				bson.M{"$match": bson.M{"lastVisit": bson.M{"$gte": since}}},
				bson.M{"$count": "count"},
			},
		}}},
	}

	cur, err := r.col.Aggregate(ctx, pipeline)
	if err != nil {
		return nil, fmt.Errorf("failed to aggregate visitor stats: %w", err)
	}

	type bucket struct {
		ID    string `bson:"_id"`
		Count int64  `bson:"count"`
	}
	type facet struct {
		ByStatus   []bucket `bson:"byStatus"`
		Identified []bucket `bson:"identified"`
		Active     []bucket `bson:"active"`
	}

	facets, err := shareddb.DecodeAll[facet](ctx, cur)
	if err != nil {
		return nil, fmt.Errorf("failed to decode visitor stats: %w", err)
	}

	stats := &model.Stats{ByStatus: map[model.Status]int64{}}
	for _, s := range model.Statuses {
		stats.ByStatus[s] = 0
	}
	if len(facets) == 0 {
		return stats, nil
	}
	f := facets[0]
	for _, b := range f.ByStatus {
		stats.ByStatus[model.Status(b.ID)] = b.Count
		stats.Total += b.Count
	}
	if len(f.Identified) > 0 {
		stats.Identified = f.Identified[0].Count
	}
	if len(f.Active) > 0 {
		stats.ActiveLast24 = f.Active[0].Count
	}
	return stats, nil
}

var _ repository.VisitorRepository = (*MongoVisitorRepository)(nil)
