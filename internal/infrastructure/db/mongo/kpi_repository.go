package mongo

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/kpicentral/kpi-central/internal/core/domain"
	"github.com/kpicentral/kpi-central/internal/core/ports"
)

const collectionKPIs = "kpis"

type KPIRepository struct {
	col *mongo.Collection
}

func NewKPIRepository(db *mongo.Database) *KPIRepository {
	return &KPIRepository{col: db.Collection(collectionKPIs)}
}

// Create inserts a new KPI document with a fresh ObjectID hex as its id.
func (r *KPIRepository) Create(ctx context.Context, k *domain.KPI) (*domain.KPI, error) {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	doc := *k
	doc.ID = primitive.NewObjectID().Hex()
	if _, err := r.col.InsertOne(ctx, &doc); err != nil {
		return nil, fmt.Errorf("insert kpi: %w", err)
	}
	return &doc, nil
}

func (r *KPIRepository) FindByID(ctx context.Context, id string) (*domain.KPI, error) {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	var k domain.KPI
	if err := r.col.FindOne(ctx, bson.M{"_id": id}).Decode(&k); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, domain.ErrKPINotFound
		}
		return nil, fmt.Errorf("find kpi: %w", err)
	}
	return &k, nil
}

// Update sets the mutable fields and appends entry to the history atomically.
func (r *KPIRepository) Update(ctx context.Context, k *domain.KPI, entry domain.KPIHistoryEntry) error {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	update := bson.M{
		"$set": bson.M{
			"status":      k.Status,
			"current":     k.Current,
			"review_note": k.ReviewNote,
			"updated_at":  k.UpdatedAt,
		},
		"$push": bson.M{"history": entry},
	}

	res, err := r.col.UpdateOne(ctx, bson.M{"_id": k.ID}, update)
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		return domain.ErrKPINotFound
	}
	return nil
}

func (r *KPIRepository) Delete(ctx context.Context, id string) error {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	res, err := r.col.DeleteOne(ctx, bson.M{"_id": id})
	if err != nil {
		return fmt.Errorf("delete kpi: %w", err)
	}
	if res.DeletedCount == 0 {
		return domain.ErrKPINotFound
	}
	return nil
}

// List returns the KPIs matching f ordered by due date. A zero Page returns
// every match.
func (r *KPIRepository) List(ctx context.Context, f ports.ListKPIsFilter) ([]*domain.KPI, int64, error) {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	filter := kpiFilter(f)

	total, err := r.col.CountDocuments(ctx, filter)
	if err != nil {
		return nil, 0, fmt.Errorf("count kpis: %w", err)
	}

	opts := options.Find().SetSort(bson.D{
		{Key: "due_date", Value: 1},
		{Key: "created_at", Value: -1},
	})
	if f.Page > 0 && f.Limit > 0 {
		opts.SetSkip(int64((f.Page - 1) * f.Limit)).SetLimit(int64(f.Limit))
	}

	cur, err := r.col.Find(ctx, filter, opts)
	if err != nil {
		return nil, 0, fmt.Errorf("find kpis: %w", err)
	}
	defer cur.Close(ctx)

	kpis := make([]*domain.KPI, 0)
	if err := cur.All(ctx, &kpis); err != nil {
		return nil, 0, fmt.Errorf("decode kpis: %w", err)
	}
	return kpis, total, nil
}

// EnsureIndexes creates necessary indexes on the kpis collection.
func (r *KPIRepository) EnsureIndexes(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()

	indexes := []mongo.IndexModel{
		{Keys: bson.D{{Key: "assigned_to", Value: 1}, {Key: "due_date", Value: 1}}},
		{Keys: bson.D{{Key: "department", Value: 1}, {Key: "status", Value: 1}}},
	}

	if _, err := r.col.Indexes().CreateMany(ctx, indexes); err != nil {
		return fmt.Errorf("kpi indexes: %w", err)
	}
	return nil
}

func kpiFilter(f ports.ListKPIsFilter) bson.M {
	filter := bson.M{}
	if f.AssignedTo != "" {
		filter["assigned_to"] = f.AssignedTo
	}
	if f.Department != "" {
		filter["department"] = f.Department
	}
	if f.Status != "" {
		filter["status"] = f.Status
	}
	if f.Search != "" {
		filter["title"] = primitive.Regex{Pattern: regexp.QuoteMeta(f.Search), Options: "i"}
	}
	if !f.DueBefore.IsZero() {
		filter["due_date"] = bson.M{"$lte": f.DueBefore}
	}
	return filter
}
