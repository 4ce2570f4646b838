package repository

import (
	"context"
	"errors"
	"fmt"

	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo"
	"go.mongodb.org/mongo-driver/v2/mongo/options"

	apperrors "smp/internal/errors"
	"smp/internal/model"
)

// Collection names per role.
const (
	AdminCollection   = "admins"
	TeacherCollection = "teachers"
)

// MongoStore persists actors as documents, one collection per role.
type MongoStore[T any, PT model.ActorPtr[T]] struct {
	coll *mongo.Collection
}

var (
	_ AdminStore   = (*MongoStore[model.Admin, *model.Admin])(nil)
	_ TeacherStore = (*MongoStore[model.Teacher, *model.Teacher])(nil)
)

// NewMongoStore creates a store on the given collection.
func NewMongoStore[T any, PT model.ActorPtr[T]](coll *mongo.Collection) *MongoStore[T, PT] {
	return &MongoStore[T, PT]{coll: coll}
}

func (s *MongoStore[T, PT]) role() model.Role {
	var zero T
	return PT(&zero).Role()
}

// EnsureIndexes creates the unique indexes email and phone uniqueness rely on.
func (s *MongoStore[T, PT]) EnsureIndexes(ctx context.Context) error {
	models := make([]mongo.IndexModel, 0, len(model.UniqueFields))
	for _, field := range model.UniqueFields {
		models = append(models, mongo.IndexModel{
			Keys:    bson.D{{Key: field, Value: 1}},
			Options: options.Index().SetUnique(true).SetName(field + "_unique"),
		})
	}
	if _, err := s.coll.Indexes().CreateMany(ctx, models); err != nil {
		return fmt.Errorf("create %s indexes: %w", s.coll.Name(), err)
	}
	return nil
}

// ParseID implements Store.
func (s *MongoStore[T, PT]) ParseID(id string) error {
	return parseID(id)
}

// Create implements Store.
func (s *MongoStore[T, PT]) Create(ctx context.Context, actor PT) error {
	_, err := s.coll.InsertOne(ctx, actor)
	if err == nil {
		return nil
	}
	if mongo.IsDuplicateKeyError(err) {
		return duplicateKey(ctx, s.role(), actor.Identity(), nil, s.taken(actor.Identity().ID))
	}
	return apperrors.Internal(fmt.Errorf("insert %s: %w", s.role(), err))
}

// FindByID implements Store.
func (s *MongoStore[T, PT]) FindByID(ctx context.Context, id string) (PT, error) {
	return s.findOne(ctx, id, bson.M{"_id": id})
}

// FindByEmail implements Store.
func (s *MongoStore[T, PT]) FindByEmail(ctx context.Context, email string) (PT, error) {
	return s.findOne(ctx, email, bson.M{model.FieldEmail: email})
}

func (s *MongoStore[T, PT]) findOne(ctx context.Context, key string, filter bson.M) (PT, error) {
	var rec T
	if err := s.coll.FindOne(ctx, filter).Decode(&rec); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, notFound(key)
		}
		return nil, apperrors.Internal(fmt.Errorf("find %s: %w", s.role(), err))
	}
	return PT(&rec), nil
}

// Update implements Store.
func (s *MongoStore[T, PT]) Update(ctx context.Context, actor PT, fields ...string) error {
	if len(fields) == 0 {
		return nil
	}
	res, err := s.updateOne(ctx, actor, bson.M{"_id": actor.Identity().ID}, fields)
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		return notFound(actor.Identity().ID)
	}
	return nil
}

// UpdateIf implements Store.
func (s *MongoStore[T, PT]) UpdateIf(ctx context.Context, actor PT, field string, expected any, fields ...string) error {
	res, err := s.updateOne(ctx, actor, bson.M{"_id": actor.Identity().ID, field: expected}, fields)
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		return ErrPreconditionFailed
	}
	return nil
}

func (s *MongoStore[T, PT]) updateOne(ctx context.Context, actor PT, filter bson.M, fields []string) (*mongo.UpdateResult, error) {
	set, err := setDocument(actor, fields)
	if err != nil {
		return nil, err
	}
	res, err := s.coll.UpdateOne(ctx, filter, bson.M{"$set": set})
	if err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return nil, duplicateKey(ctx, s.role(), actor.Identity(), fields, s.taken(actor.Identity().ID))
		}
		return nil, apperrors.Internal(fmt.Errorf("update %s: %w", s.role(), err))
	}
	return res, nil
}

// Delete implements Store.
func (s *MongoStore[T, PT]) Delete(ctx context.Context, id string) error {
	res, err := s.coll.DeleteOne(ctx, bson.M{"_id": id})
	if err != nil {
		return apperrors.Internal(fmt.Errorf("delete %s: %w", s.role(), err))
	}
	if res.DeletedCount == 0 {
		return notFound(id)
	}
	return nil
}

func (s *MongoStore[T, PT]) taken(selfID string) takenFunc {
	return func(ctx context.Context, field, value string) (bool, error) {
		n, err := s.coll.CountDocuments(ctx, bson.M{field: value, "_id": bson.M{"$ne": selfID}})
		return n > 0, err
	}
}

// setDocument encodes actor and keeps only the named fields.
func setDocument(actor any, fields []string) (bson.M, error) {
	raw, err := bson.Marshal(actor)
	if err != nil {
		return nil, apperrors.Internal(fmt.Errorf("encode document: %w", err))
	}
	var doc bson.M
	if err := bson.Unmarshal(raw, &doc); err != nil {
		return nil, apperrors.Internal(fmt.Errorf("decode document: %w", err))
	}
	set := bson.M{}
	for _, field := range fields {
		v, ok := doc[field]
		if !ok {
			return nil, apperrors.Internal(fmt.Errorf("field %s cannot be updated", field))
		}
		set[field] = v
	}
	return set, nil
}
