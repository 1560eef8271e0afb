package mongo

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	adminapp "github.com/sngm3741/portfolio-services/api/internal/admin/application"
	admindomain "github.com/sngm3741/portfolio-services/api/internal/admin/domain"
	"github.com/sngm3741/portfolio-services/api/internal/intake/domain"
)

const relayFailureTarget = "message_relay"

// RelayFailureRepository は failed_notifications コレクションへの読み書きを担う。
// 書き込みは intake 側、読み取りと状態更新は admin 側から利用される。
type RelayFailureRepository struct {
	collection *mongo.Collection
}

// NewRelayFailureRepository は MongoDB コレクションを束縛した RelayFailureRepository を生成する。
func NewRelayFailureRepository(db *mongo.Database, collection string) *RelayFailureRepository {
	return &RelayFailureRepository{collection: db.Collection(collection)}
}

// RecordRelayFailure inserts a pending failure record. The service never re-sends it.
func (r *RelayFailureRepository) RecordRelayFailure(ctx context.Context, failure domain.RelayFailure) error {
	occurred := failure.OccurredAt
	if occurred.IsZero() {
		occurred = time.Now().UTC()
	}
	doc := toRelayFailureDocument(failure, occurred)
	if _, err := r.collection.InsertOne(ctx, doc); err != nil {
		return fmt.Errorf("failed_notifications への保存に失敗: %w", err)
	}
	return nil
}

// Find は新しい順にリレー失敗レコードを返す。
func (r *RelayFailureRepository) Find(ctx context.Context, filter adminapp.RelayFailureFilter, paging adminapp.Paging) ([]admindomain.RelayFailure, error) {
	mongoFilter := bson.M{"target": relayFailureTarget}
	if filter.Status != "" {
		mongoFilter["status"] = filter.Status.String()
	}
	if filter.SourceKey != "" {
		mongoFilter["sourceKey"] = filter.SourceKey
	}

	limit := int64(paging.Limit)
	skip := int64(0)
	if paging.Page > 1 {
		skip = int64(paging.Page-1) * limit
	}
	opts := options.Find().
		SetSort(bson.D{{Key: "createdAt", Value: -1}}).
		SetSkip(skip).
		SetLimit(limit)

	cursor, err := r.collection.Find(ctx, mongoFilter, opts)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	var docs []RelayFailureDocument
	if err := cursor.All(ctx, &docs); err != nil {
		return nil, err
	}

	items := make([]admindomain.RelayFailure, 0, len(docs))
	for _, doc := range docs {
		items = append(items, toAdminRelayFailure(doc))
	}
	return items, nil
}

// UpdateStatus sets the operator status of one record and returns the updated document.
func (r *RelayFailureRepository) UpdateStatus(ctx context.Context, id string, status admindomain.Status) (*admindomain.RelayFailure, error) {
	objectID, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return nil, fmt.Errorf("%w: id %q: %v", adminapp.ErrInvalidArgument, id, err)
	}

	now := time.Now().UTC()
	update := bson.M{"$set": bson.M{"status": status.String(), "updatedAt": now}}
	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)

	var doc RelayFailureDocument
	err = r.collection.FindOneAndUpdate(ctx, bson.M{"_id": objectID, "target": relayFailureTarget}, update, opts).Decode(&doc)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, adminapp.ErrNotFound
	}
	if err != nil {
		return nil, err
	}

	failure := toAdminRelayFailure(doc)
	return &failure, nil
}

func toRelayFailureDocument(failure domain.RelayFailure, occurred time.Time) RelayFailureDocument {
	return RelayFailureDocument{
		Target:     relayFailureTarget,
		IncidentID: failure.IncidentID,
		SourceKey:  failure.SourceKey,
		Message:    failure.Message,
		Origin: RelayFailureOriginDocument{
			Country:   failure.Origin.Country,
			Region:    failure.Origin.Region,
			City:      failure.Origin.City,
			Latitude:  failure.Origin.Latitude,
			Longitude: failure.Origin.Longitude,
		},
		Error:       failure.Error,
		Attempts:    1,
		Status:      admindomain.StatusPending.String(),
		CreatedAt:   occurred,
		LastTriedAt: occurred,
	}
}

func toAdminRelayFailure(doc RelayFailureDocument) admindomain.RelayFailure {
	failure := admindomain.RelayFailure{
		ID:         doc.ID.Hex(),
		IncidentID: doc.IncidentID,
		SourceKey:  doc.SourceKey,
		Message:    doc.Message,
		Country:    doc.Origin.Country,
		Region:     doc.Origin.Region,
		City:       doc.Origin.City,
		Latitude:   doc.Origin.Latitude,
		Longitude:  doc.Origin.Longitude,
		Error:      doc.Error,
		Attempts:   doc.Attempts,
		Status:     admindomain.Status(doc.Status),
		CreatedAt:  doc.CreatedAt,
		UpdatedAt:  doc.LastTriedAt,
	}
	if doc.UpdatedAt != nil {
		failure.UpdatedAt = *doc.UpdatedAt
	}
	return failure
}
