package audit

import (
	"context"
	"medbridge-service/internal/app/contracts"
	"medbridge-service/internal/app/models"
	"medbridge-service/internal/pkg/constvars"
	"medbridge-service/internal/pkg/exceptions"
	"regexp"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

type AuditMongoRepository struct {
	Collection *mongo.Collection
}

func NewAuditMongoRepository(db *mongo.Database) (contracts.AuditRepository, error) {
	collection := db.Collection(constvars.MongoCollectionAuditEvents)

	// The unique provider+seq index is what makes concurrent appends to
	// the same chain safe: a lost race fails the insert instead of
	// forking the chain.
	_, err := collection.Indexes().CreateMany(context.Background(), []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "provider", Value: 1}, {Key: "seq", Value: 1}},
			Options: options.Index().SetUnique(true),
		},
		{
			Keys: bson.D{{Key: "timestamp", Value: 1}, {Key: "_id", Value: 1}},
		},
		{
			Keys: bson.D{{Key: "subject", Value: 1}, {Key: "timestamp", Value: 1}},
		},
	})
	if err != nil {
		return nil, exceptions.ErrMongoDBInsertDocument(err)
	}

	return &AuditMongoRepository{Collection: collection}, nil
}

// typePrefixPattern anchors a caller-supplied event-type prefix as a
// literal. Prefixes like "ehr." contain regex metacharacters, so the
// value must never reach $regex unescaped.
func typePrefixPattern(prefix string) string {
	return "^" + regexp.QuoteMeta(prefix)
}

func (r *AuditMongoRepository) AppendEvent(ctx context.Context, event *models.AuditEvent) error {
	_, err := r.Collection.InsertOne(ctx, event)
	if err != nil {
		return exceptions.ErrMongoDBInsertDocument(err)
	}
	return nil
}

func (r *AuditMongoRepository) LastEvent(ctx context.Context, provider string) (*models.AuditEvent, error) {
	var event models.AuditEvent
	opts := options.FindOne().SetSort(bson.D{{Key: "seq", Value: -1}})
	err := r.Collection.FindOne(ctx, bson.M{"provider": provider}, opts).Decode(&event)
	if err != nil {
		if err == mongo.ErrNoDocuments {
			return nil, nil
		}
		return nil, exceptions.ErrMongoDBFindDocument(err)
	}
	return &event, nil
}

func (r *AuditMongoRepository) EventBySeq(ctx context.Context, provider string, seq int64) (*models.AuditEvent, error) {
	var event models.AuditEvent
	err := r.Collection.FindOne(ctx, bson.M{"provider": provider, "seq": seq}).Decode(&event)
	if err != nil {
		if err == mongo.ErrNoDocuments {
			return nil, nil
		}
		return nil, exceptions.ErrMongoDBFindDocument(err)
	}
	return &event, nil
}

func (r *AuditMongoRepository) ListEvents(ctx context.Context, query *models.AuditQuery) ([]models.AuditEvent, error) {
	filter := bson.M{}
	if query.TypePrefix != "" {
		filter["type"] = bson.M{"$regex": typePrefixPattern(query.TypePrefix)}
	}
	if len(query.Types) > 0 {
		filter["type"] = bson.M{"$in": query.Types}
	}
	if query.Actor != "" {
		filter["actor"] = query.Actor
	}
	if query.Subject != "" {
		filter["subject"] = query.Subject
	}
	if query.Provider != "" {
		filter["provider"] = query.Provider
	}

	timeFilter := bson.M{}
	if !query.From.IsZero() {
		timeFilter["$gte"] = query.From
	}
	if !query.To.IsZero() {
		timeFilter["$lte"] = query.To
	}
	if len(timeFilter) > 0 {
		filter["timestamp"] = timeFilter
	}

	if query.Cursor != "" {
		afterTime, afterID, err := decodeCursor(query.Cursor)
		if err != nil {
			return nil, err
		}
		filter["$or"] = []bson.M{
			{"timestamp": bson.M{"$gt": afterTime}},
			{"timestamp": afterTime, "_id": bson.M{"$gt": afterID}},
		}
	}

	opts := options.Find().
		SetSort(bson.D{{Key: "timestamp", Value: 1}, {Key: "_id", Value: 1}}).
		SetLimit(int64(query.Limit))

	cursor, err := r.Collection.Find(ctx, filter, opts)
	if err != nil {
		return nil, exceptions.ErrMongoDBFindDocument(err)
	}
	defer cursor.Close(ctx)

	var events []models.AuditEvent
	if err := cursor.All(ctx, &events); err != nil {
		return nil, exceptions.ErrMongoDBIterateDocuments(err)
	}
	return events, nil
}

func (r *AuditMongoRepository) ListBySeqRange(ctx context.Context, provider string, fromSeq, toSeq int64) ([]models.AuditEvent, error) {
	filter := bson.M{
		"provider": provider,
		"seq":      bson.M{"$gte": fromSeq, "$lte": toSeq},
	}
	opts := options.Find().SetSort(bson.D{{Key: "seq", Value: 1}})

	cursor, err := r.Collection.Find(ctx, filter, opts)
	if err != nil {
		return nil, exceptions.ErrMongoDBFindDocument(err)
	}
	defer cursor.Close(ctx)

	var events []models.AuditEvent
	if err := cursor.All(ctx, &events); err != nil {
		return nil, exceptions.ErrMongoDBIterateDocuments(err)
	}
	return events, nil
}

func (r *AuditMongoRepository) ListOlderThan(ctx context.Context, cutoff time.Time, limit int) ([]models.AuditEvent, error) {
	filter := bson.M{"timestamp": bson.M{"$lt": cutoff}}
	opts := options.Find().
		SetSort(bson.D{{Key: "timestamp", Value: 1}, {Key: "_id", Value: 1}}).
		SetLimit(int64(limit))

	cursor, err := r.Collection.Find(ctx, filter, opts)
	if err != nil {
		return nil, exceptions.ErrMongoDBFindDocument(err)
	}
	defer cursor.Close(ctx)

	var events []models.AuditEvent
	if err := cursor.All(ctx, &events); err != nil {
		return nil, exceptions.ErrMongoDBIterateDocuments(err)
	}
	return events, nil
}

func (r *AuditMongoRepository) DeleteByIDs(ctx context.Context, ids []string) (int64, error) {
	result, err := r.Collection.DeleteMany(ctx, bson.M{"_id": bson.M{"$in": ids}})
	if err != nil {
		return 0, exceptions.ErrMongoDBDeleteDocument(err)
	}
	return result.DeletedCount, nil
}
