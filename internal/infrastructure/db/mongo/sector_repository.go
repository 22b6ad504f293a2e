package mongo

import (
	"context"
	"fmt"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/wekeza/investment-platform/internal/core/domain"
)

const sectorCollection = "sectors"

// MongoSectorRepository persists the sector catalogue.
type MongoSectorRepository struct {
	coll     *mongo.Collection
	counters *mongo.Collection
}

func NewSectorRepository(db *mongo.Database) *MongoSectorRepository {
	return &MongoSectorRepository{
		coll:     db.Collection(sectorCollection),
		counters: db.Collection(counterCollection),
	}
}

type mongoSector struct {
	ID          int64  `bson:"_id"`
	Name        string `bson:"name"`
	Description string `bson:"description"`
}

func (r *MongoSectorRepository) List(ctx context.Context) ([]domain.Sector, error) {
	cur, err := r.coll.Find(ctx, bson.M{}, options.Find().SetSort(bson.D{{Key: "_id", Value: 1}}))
	if err != nil {
		return nil, fmt.Errorf("list sectors: %w", err)
	}
	defer cur.Close(ctx)

	sectors := []domain.Sector{}
	for cur.Next(ctx) {
		var ms mongoSector
		if err := cur.Decode(&ms); err != nil {
			return nil, fmt.Errorf("decode sector: %w", err)
		}
		sectors = append(sectors, domain.Sector{ID: ms.ID, Name: ms.Name, Description: ms.Description})
	}
	if err := cur.Err(); err != nil {
		return nil, fmt.Errorf("list sectors: %w", err)
	}
	return sectors, nil
}

func (r *MongoSectorRepository) Seed(ctx context.Context, sectors []domain.Sector) error {
	n, err := r.coll.CountDocuments(ctx, bson.M{})
	if err != nil {
		return fmt.Errorf("count sectors: %w", err)
	}
	if n > 0 {
		return nil
	}

	docs := make([]interface{}, 0, len(sectors))
	for _, s := range sectors {
		id, err := nextSequence(ctx, r.counters, sectorSequenceName)
		if err != nil {
			return err
		}
		docs = append(docs, mongoSector{ID: id, Name: s.Name, Description: s.Description})
	}

	if _, err := r.coll.InsertMany(ctx, docs); err != nil {
		return fmt.Errorf("seed sectors: %w", err)
	}
	return nil
}
