package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"vmp-edtech-backend/internal/domain"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

const modulesCollection = "modules"

type moduleRepo struct {
	db *mongo.Database
}

func NewModuleRepository(db *mongo.Database) domain.ModuleRepository {
	return &moduleRepo{db}
}

// EnsureModuleIndexes creates the indexes the module queries rely on.
func EnsureModuleIndexes(ctx context.Context, db *mongo.Database) error {
	_, err := db.Collection(modulesCollection).Indexes().CreateMany(ctx, []mongo.IndexModel{
		{Keys: bson.D{{Key: "course_id", Value: 1}, {Key: "order", Value: 1}}, Options: options.Index().SetUnique(true)},
		{Keys: bson.D{{Key: "tasks.id", Value: 1}}},
	})
	return err
}

// Create stores the module with a hex ObjectID as its string _id.
func (r *moduleRepo) Create(ctx context.Context, module *domain.Module) error {
	if module.ID == "" {
		module.ID = primitive.NewObjectID().Hex()
	}
	if module.CreatedAt.IsZero() {
		module.CreatedAt = time.Now()
	}
	_, err := r.db.Collection(modulesCollection).InsertOne(ctx, module)
	if mongo.IsDuplicateKeyError(err) {
		return fmt.Errorf("%w: order %d", domain.ErrDuplicateOrder, module.Order)
	}
	return err
}

func (r *moduleRepo) GetByID(ctx context.Context, id string) (*domain.Module, error) {
	return r.findOne(ctx, bson.M{"_id": id})
}

func (r *moduleRepo) GetByTaskID(ctx context.Context, taskID string) (*domain.Module, error) {
	return r.findOne(ctx, bson.M{"tasks.id": taskID})
}

func (r *moduleRepo) findOne(ctx context.Context, filter bson.M) (*domain.Module, error) {
	var module domain.Module
	err := r.db.Collection(modulesCollection).FindOne(ctx, filter).Decode(&module)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, fmt.Errorf("module %w", domain.ErrNotFound)
	}
	if err != nil {
		return nil, err
	}
	return &module, nil
}

// GetByCourseID returns the course modules sorted by order.
func (r *moduleRepo) GetByCourseID(ctx context.Context, courseID uint) ([]domain.Module, error) {
	opts := options.Find().SetSort(bson.D{{Key: "order", Value: 1}})
	cursor, err := r.db.Collection(modulesCollection).Find(ctx, bson.M{"course_id": courseID}, opts)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	modules := []domain.Module{}
	if err := cursor.All(ctx, &modules); err != nil {
		return nil, err
	}
	return modules, nil
}

func (r *moduleRepo) Update(ctx context.Context, module *domain.Module) error {
	res, err := r.db.Collection(modulesCollection).ReplaceOne(ctx, bson.M{"_id": module.ID}, module)
	if mongo.IsDuplicateKeyError(err) {
		return fmt.Errorf("%w: order %d", domain.ErrDuplicateOrder, module.Order)
	}
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		return fmt.Errorf("module %w", domain.ErrNotFound)
	}
	return nil
}

func (r *moduleRepo) Delete(ctx context.Context, id string) error {
	res, err := r.db.Collection(modulesCollection).DeleteOne(ctx, bson.M{"_id": id})
	if err != nil {
		return err
	}
	if res.DeletedCount == 0 {
		return fmt.Errorf("module %w", domain.ErrNotFound)
	}
	return nil
}

// DeleteByCourseID drops every module of a course and reports how many went.
func (r *moduleRepo) DeleteByCourseID(ctx context.Context, courseID uint) (int64, error) {
	res, err := r.db.Collection(modulesCollection).DeleteMany(ctx, bson.M{"course_id": courseID})
	if err != nil {
		return 0, err
	}
	return res.DeletedCount, nil
}
