package auth

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/ZackMurry/cardtown-sub000/internal/keyvault"
)

type MongoCredentialStore struct {
	coll *mongo.Collection
}

func NewMongoCredentialStore(ctx context.Context, db *mongo.Database) (*MongoCredentialStore, error) {
	coll := db.Collection("credentials")
	_, err := coll.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys:    bson.D{{Key: "email", Value: 1}},
		Options: options.Index().SetUnique(true),
	})
	if err != nil {
		return nil, err
	}
	return &MongoCredentialStore{coll: coll}, nil
}

type accountDoc struct {
	ID         string    `bson:"_id"`
	Email      string    `bson:"email"`
	FirstName  string    `bson:"first_name"`
	LastName   string    `bson:"last_name"`
	PassHash   string    `bson:"pass_hash"`
	WrappedKey string    `bson:"wrapped_key"`
	Roles      []string  `bson:"roles"`
	CreatedAt  time.Time `bson:"created_at"`
}

func (s *MongoCredentialStore) Add(ctx context.Context, a *Account) error {
	roles := make([]string, len(a.Roles))
	for i, r := range a.Roles {
		roles[i] = string(r)
	}
	_, err := s.coll.InsertOne(ctx, accountDoc{
		ID:         a.ID.String(),
		Email:      normalizeEmail(a.Email),
		FirstName:  a.FirstName,
		LastName:   a.LastName,
		PassHash:   a.PassHash,
		WrappedKey: a.WrappedKey,
		Roles:      roles,
		CreatedAt:  a.CreatedAt,
	})
	var wex mongo.WriteException
	if errors.As(err, &wex) {
		for _, we := range wex.WriteErrors {
			if we.Code == 11000 {
				return ErrAccountExists
			}
		}
	}
	return err
}

func (s *MongoCredentialStore) FindByEmail(ctx context.Context, email string) (*Account, error) {
	return s.findOne(ctx, bson.M{"email": normalizeEmail(email)})
}

func (s *MongoCredentialStore) FindByID(ctx context.Context, id uuid.UUID) (*Account, error) {
	return s.findOne(ctx, bson.M{"_id": id.String()})
}

func (s *MongoCredentialStore) WrappedPersonalKey(ctx context.Context, email string) (string, error) {
	a, err := s.FindByEmail(ctx, email)
	if errors.Is(err, ErrAccountNotFound) {
		return "", keyvault.ErrPrincipalNotFound
	}
	if err != nil {
		return "", err
	}
	return a.WrappedKey, nil
}

func (s *MongoCredentialStore) findOne(ctx context.Context, filter any) (*Account, error) {
	var doc accountDoc
	err := s.coll.FindOne(ctx, filter).Decode(&doc)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, ErrAccountNotFound
	}
	if err != nil {
		return nil, err
	}
	id, err := uuid.Parse(doc.ID)
	if err != nil {
		return nil, err
	}
	roles := make([]Role, len(doc.Roles))
	for i, r := range doc.Roles {
		roles[i] = Role(r)
	}
	return &Account{
		ID:         id,
		Email:      doc.Email,
		FirstName:  doc.FirstName,
		LastName:   doc.LastName,
		PassHash:   doc.PassHash,
		WrappedKey: doc.WrappedKey,
		Roles:      roles,
		CreatedAt:  doc.CreatedAt,
	}, nil
}
