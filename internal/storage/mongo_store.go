package storage

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/ZackMurry/cardtown-sub000/internal/entity"
)

type MongoEntityStore struct {
	cards     *mongo.Collection
	arguments *mongo.Collection
	analytics *mongo.Collection
}

func NewMongoEntityStore(db *mongo.Database) *MongoEntityStore {
	return &MongoEntityStore{
		cards:     db.Collection("cards"),
		arguments: db.Collection("arguments"),
		analytics: db.Collection("analytics"),
	}
}

type cardDoc struct {
	ID              string    `bson:"_id"`
	OwnerID         string    `bson:"owner_id"`
	Tag             string    `bson:"tag"`
	Cite            string    `bson:"cite"`
	CiteInformation string    `bson:"cite_information"`
	BodyHTML        string    `bson:"body_html"`
	BodyDraft       string    `bson:"body_draft"`
	BodyText        string    `bson:"body_text"`
	CreatedAt       time.Time `bson:"created_at"`
	UpdatedAt       time.Time `bson:"updated_at"`
}

type argumentDoc struct {
	ID        string    `bson:"_id"`
	OwnerID   string    `bson:"owner_id"`
	Name      string    `bson:"name"`
	CardIDs   []string  `bson:"card_ids"`
	CreatedAt time.Time `bson:"created_at"`
	UpdatedAt time.Time `bson:"updated_at"`
}

type analyticDoc struct {
	ID         string `bson:"_id"`
	ArgumentID string `bson:"argument_id"`
	Position   int    `bson:"position"`
	Body       string `bson:"body"`
}

func (s *MongoEntityStore) PutCard(ctx context.Context, c *entity.Card) error {
	doc := cardDoc{
		ID:              c.ID.String(),
		OwnerID:         c.OwnerID.String(),
		Tag:             c.Tag,
		Cite:            c.Cite,
		CiteInformation: c.CiteInformation,
		BodyHTML:        c.BodyHTML,
		BodyDraft:       c.BodyDraft,
		BodyText:        c.BodyText,
		CreatedAt:       c.CreatedAt,
		UpdatedAt:       c.UpdatedAt,
	}
	return upsert(ctx, s.cards, doc.ID, doc)
}

func (s *MongoEntityStore) GetCard(ctx context.Context, id uuid.UUID) (*entity.Card, error) {
	var doc cardDoc
	if err := findByID(ctx, s.cards, id, &doc); err != nil {
		return nil, err
	}
	return decodeCard(doc)
}

func (s *MongoEntityStore) ListCardsByOwner(ctx context.Context, ownerID uuid.UUID) ([]entity.Card, error) {
	cur, err := s.cards.Find(ctx, bson.M{"owner_id": ownerID.String()})
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)

	var out []entity.Card
	for cur.Next(ctx) {
		var doc cardDoc
		if err := cur.Decode(&doc); err != nil {
			return nil, err
		}
		c, err := decodeCard(doc)
		if err != nil {
			return nil, err
		}
		out = append(out, *c)
	}
	return out, cur.Err()
}

func (s *MongoEntityStore) DeleteCard(ctx context.Context, id uuid.UUID) error {
	return deleteByID(ctx, s.cards, id)
}

func (s *MongoEntityStore) PutArgument(ctx context.Context, a *entity.Argument) error {
	ids := make([]string, len(a.CardIDs))
	for i, cid := range a.CardIDs {
		ids[i] = cid.String()
	}
	doc := argumentDoc{
		ID:        a.ID.String(),
		OwnerID:   a.OwnerID.String(),
		Name:      a.Name,
		CardIDs:   ids,
		CreatedAt: a.CreatedAt,
		UpdatedAt: a.UpdatedAt,
	}
	return upsert(ctx, s.arguments, doc.ID, doc)
}

func (s *MongoEntityStore) GetArgument(ctx context.Context, id uuid.UUID) (*entity.Argument, error) {
	var doc argumentDoc
	if err := findByID(ctx, s.arguments, id, &doc); err != nil {
		return nil, err
	}
	return decodeArgument(doc)
}

func (s *MongoEntityStore) ListArgumentsByOwner(ctx context.Context, ownerID uuid.UUID) ([]entity.Argument, error) {
	cur, err := s.arguments.Find(ctx, bson.M{"owner_id": ownerID.String()})
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)

	var out []entity.Argument
	for cur.Next(ctx) {
		var doc argumentDoc
		if err := cur.Decode(&doc); err != nil {
			return nil, err
		}
		a, err := decodeArgument(doc)
		if err != nil {
			return nil, err
		}
		out = append(out, *a)
	}
	return out, cur.Err()
}

func (s *MongoEntityStore) DeleteArgument(ctx context.Context, id uuid.UUID) error {
	if err := deleteByID(ctx, s.arguments, id); err != nil {
		return err
	}
	_, err := s.analytics.DeleteMany(ctx, bson.M{"argument_id": id.String()})
	return err
}

func (s *MongoEntityStore) PutAnalytic(ctx context.Context, a *entity.Analytic) error {
	doc := analyticDoc{
		ID:         a.ID.String(),
		ArgumentID: a.ArgumentID.String(),
		Position:   a.Position,
		Body:       a.Body,
	}
	return upsert(ctx, s.analytics, doc.ID, doc)
}

func (s *MongoEntityStore) ListAnalyticsByArgument(ctx context.Context, argumentID uuid.UUID) ([]entity.Analytic, error) {
	cur, err := s.analytics.Find(ctx, bson.M{"argument_id": argumentID.String()})
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)

	var out []entity.Analytic
	for cur.Next(ctx) {
		var doc analyticDoc
		if err := cur.Decode(&doc); err != nil {
			return nil, err
		}
		a, err := decodeAnalytic(doc)
		if err != nil {
			return nil, err
		}
		out = append(out, *a)
	}
	return out, cur.Err()
}

func (s *MongoEntityStore) DeleteAnalytic(ctx context.Context, id uuid.UUID) error {
	return deleteByID(ctx, s.analytics, id)
}

func upsert(ctx context.Context, coll *mongo.Collection, id string, doc any) error {
	_, err := coll.ReplaceOne(ctx, bson.M{"_id": id}, doc, options.Replace().SetUpsert(true))
	return err
}

func findByID(ctx context.Context, coll *mongo.Collection, id uuid.UUID, out any) error {
	err := coll.FindOne(ctx, bson.M{"_id": id.String()}).Decode(out)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return ErrNotFound
	}
	return err
}

func deleteByID(ctx context.Context, coll *mongo.Collection, id uuid.UUID) error {
	res, err := coll.DeleteOne(ctx, bson.M{"_id": id.String()})
	if err != nil {
		return err
	}
	if res.DeletedCount == 0 {
		return ErrNotFound
	}
	return nil
}

func decodeCard(doc cardDoc) (*entity.Card, error) {
	id, err := uuid.Parse(doc.ID)
	if err != nil {
		return nil, err
	}
	owner, err := uuid.Parse(doc.OwnerID)
	if err != nil {
		return nil, err
	}
	return &entity.Card{
		ID:              id,
		OwnerID:         owner,
		Tag:             doc.Tag,
		Cite:            doc.Cite,
		CiteInformation: doc.CiteInformation,
		BodyHTML:        doc.BodyHTML,
		BodyDraft:       doc.BodyDraft,
		BodyText:        doc.BodyText,
		CreatedAt:       doc.CreatedAt,
		UpdatedAt:       doc.UpdatedAt,
	}, nil
}

func decodeArgument(doc argumentDoc) (*entity.Argument, error) {
	id, err := uuid.Parse(doc.ID)
	if err != nil {
		return nil, err
	}
	owner, err := uuid.Parse(doc.OwnerID)
	if err != nil {
		return nil, err
	}
	cardIDs := make([]uuid.UUID, len(doc.CardIDs))
	for i, raw := range doc.CardIDs {
		cid, err := uuid.Parse(raw)
		if err != nil {
			return nil, err
		}
		cardIDs[i] = cid
	}
	return &entity.Argument{
		ID:        id,
		OwnerID:   owner,
		Name:      doc.Name,
		CardIDs:   cardIDs,
		CreatedAt: doc.CreatedAt,
		UpdatedAt: doc.UpdatedAt,
	}, nil
}

func decodeAnalytic(doc analyticDoc) (*entity.Analytic, error) {
	id, err := uuid.Parse(doc.ID)
	if err != nil {
		return nil, err
	}
	argID, err := uuid.Parse(doc.ArgumentID)
	if err != nil {
		return nil, err
	}
	return &entity.Analytic{
		ID:         id,
		ArgumentID: argID,
		Position:   doc.Position,
		Body:       doc.Body,
	}, nil
}
