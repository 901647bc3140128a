package team

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

type MongoStore struct {
	teams       *mongo.Collection
	memberships *mongo.Collection
}

// NewMongoStore attaches to the teams and memberships collections. A
// unique index on membership user_id enforces the one-team-per-user rule
// at the storage layer as well.
func NewMongoStore(ctx context.Context, db *mongo.Database) (*MongoStore, error) {
	s := &MongoStore{
		teams:       db.Collection("teams"),
		memberships: db.Collection("team_memberships"),
	}
	_, err := s.memberships.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys:    bson.D{{Key: "user_id", Value: 1}},
		Options: options.Index().SetUnique(true),
	})
	if err != nil {
		return nil, err
	}
	return s, nil
}

type teamDoc struct {
	ID            string    `bson:"_id"`
	Name          string    `bson:"name"`
	KeyCommitment string    `bson:"key_commitment"`
	CreatedAt     time.Time `bson:"created_at"`
}

type membershipDoc struct {
	TeamID     string `bson:"team_id"`
	UserID     string `bson:"user_id"`
	WrappedKey string `bson:"wrapped_key"`
	Role       string `bson:"role"`
}

func (s *MongoStore) InsertTeam(ctx context.Context, t *Team) error {
	_, err := s.teams.InsertOne(ctx, teamDoc{
		ID:            t.ID.String(),
		Name:          t.Name,
		KeyCommitment: t.KeyCommitment,
		CreatedAt:     t.CreatedAt,
	})
	return err
}

func (s *MongoStore) FindTeam(ctx context.Context, id uuid.UUID) (*Team, error) {
	var doc teamDoc
	err := s.teams.FindOne(ctx, bson.M{"_id": id.String()}).Decode(&doc)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, ErrTeamNotFound
	}
	if err != nil {
		return nil, err
	}
	tid, err := uuid.Parse(doc.ID)
	if err != nil {
		return nil, err
	}
	return &Team{
		ID:            tid,
		Name:          doc.Name,
		KeyCommitment: doc.KeyCommitment,
		CreatedAt:     doc.CreatedAt,
	}, nil
}

func (s *MongoStore) InsertMembership(ctx context.Context, m *Membership) error {
	_, err := s.memberships.InsertOne(ctx, membershipDoc{
		TeamID:     m.TeamID.String(),
		UserID:     m.UserID.String(),
		WrappedKey: m.WrappedKey,
		Role:       string(m.Role),
	})
	var wex mongo.WriteException
	if errors.As(err, &wex) {
		for _, we := range wex.WriteErrors {
			if we.Code == 11000 {
				return ErrAlreadyMember
			}
		}
	}
	return err
}

func (s *MongoStore) FindMembershipByUser(ctx context.Context, userID uuid.UUID) (*Membership, error) {
	var doc membershipDoc
	err := s.memberships.FindOne(ctx, bson.M{"user_id": userID.String()}).Decode(&doc)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, ErrNotMember
	}
	if err != nil {
		return nil, err
	}
	return decodeMembership(doc)
}

func (s *MongoStore) ListMemberships(ctx context.Context, teamID uuid.UUID) ([]Membership, error) {
	cur, err := s.memberships.Find(ctx, bson.M{"team_id": teamID.String()})
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)

	var out []Membership
	for cur.Next(ctx) {
		var doc membershipDoc
		if err := cur.Decode(&doc); err != nil {
			return nil, err
		}
		m, err := decodeMembership(doc)
		if err != nil {
			return nil, err
		}
		out = append(out, *m)
	}
	return out, cur.Err()
}

func decodeMembership(doc membershipDoc) (*Membership, error) {
	tid, err := uuid.Parse(doc.TeamID)
	if err != nil {
		return nil, err
	}
	uid, err := uuid.Parse(doc.UserID)
	if err != nil {
		return nil, err
	}
	return &Membership{
		TeamID:     tid,
		UserID:     uid,
		WrappedKey: doc.WrappedKey,
		Role:       Role(doc.Role),
	}, nil
}
