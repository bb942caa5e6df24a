package mongo

import (
	"context"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/kpicentral/kpi-central/internal/core/domain"
	"github.com/kpicentral/kpi-central/internal/core/ports"
)

const (
	collectionAccessLog = "access_log"
	accessLogRetention  = 90 * 24 * time.Hour
)

// AccessLogRepository implements ports.AccessLogRepository using MongoDB.
type AccessLogRepository struct {
	col *mongo.Collection
}

// NewAccessLogRepository creates a new AccessLogRepository.
func NewAccessLogRepository(db *mongo.Database) *AccessLogRepository {
	return &AccessLogRepository{col: db.Collection(collectionAccessLog)}
}

// Insert persists one access record.
func (r *AccessLogRepository) Insert(ctx context.Context, rec domain.AccessRecord) error {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	rec.Timestamp = rec.Timestamp.UTC()
	_, err := r.col.InsertOne(ctx, rec)
	return err
}

// Recent returns the newest records matching f.
func (r *AccessLogRepository) Recent(ctx context.Context, f ports.AccessLogFilter) ([]domain.AccessRecord, error) {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	filter := bson.M{}
	if f.IdentityID != "" {
		filter["identity_id"] = f.IdentityID
	}
	if f.Outcome != "" {
		filter["outcome"] = f.Outcome
	}

	opts := options.Find().
		SetSort(bson.D{{Key: "timestamp", Value: -1}}).
		SetLimit(int64(f.Limit))

	cur, err := r.col.Find(ctx, filter, opts)
	if err != nil {
		return nil, fmt.Errorf("find access records: %w", err)
	}
	defer cur.Close(ctx)

	records := make([]domain.AccessRecord, 0)
	if err := cur.All(ctx, &records); err != nil {
		return nil, fmt.Errorf("decode access records: %w", err)
	}
	return records, nil
}

// EnsureIndexes adds the lookup indexes and a TTL index bounding retention.
func (r *AccessLogRepository) EnsureIndexes(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()

	_, err := r.col.Indexes().CreateMany(ctx, []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "timestamp", Value: 1}},
			Options: options.Index().SetExpireAfterSeconds(int32(accessLogRetention.Seconds())),
		},
		{Keys: bson.D{{Key: "identity_id", Value: 1}, {Key: "timestamp", Value: -1}}},
	})
	if err != nil {
		return fmt.Errorf("access log indexes: %w", err)
	}
	return nil
}
