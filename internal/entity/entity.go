// Package entity defines the stored content types and the field-encryption
// facade applied around every persistence call. Each type has a fixed set
// of confidential fields that hold base64 ciphertext at rest; ids,
// timestamps and positions pass through in plaintext. Confidential fields
// are never compared, indexed, or queried at the storage layer.
package entity

import (
	"time"

	"github.com/google/uuid"

	"github.com/ZackMurry/cardtown-sub000/internal/crypto"
)

// Card is one piece of evidence. OwnerID is the user or, for team content,
// the team.
type Card struct {
	ID      uuid.UUID `json:"id" bson:"_id"`
	OwnerID uuid.UUID `json:"owner_id" bson:"owner_id"`

	// Confidential fields.
	Tag             string `json:"tag" bson:"tag"`
	Cite            string `json:"cite" bson:"cite"`
	CiteInformation string `json:"cite_information" bson:"cite_information"`
	BodyHTML        string `json:"body_html" bson:"body_html"`
	BodyDraft       string `json:"body_draft" bson:"body_draft"`
	BodyText        string `json:"body_text" bson:"body_text"`

	CreatedAt time.Time `json:"created_at" bson:"created_at"`
	UpdatedAt time.Time `json:"updated_at" bson:"updated_at"`
}

// Argument is a named ordering of cards.
type Argument struct {
	ID      uuid.UUID `json:"id" bson:"_id"`
	OwnerID uuid.UUID `json:"owner_id" bson:"owner_id"`

	// Confidential field.
	Name string `json:"name" bson:"name"`

	CardIDs   []uuid.UUID `json:"card_ids" bson:"card_ids"`
	CreatedAt time.Time   `json:"created_at" bson:"created_at"`
	UpdatedAt time.Time   `json:"updated_at" bson:"updated_at"`
}

// Analytic is a free-text note at a position inside an argument.
type Analytic struct {
	ID         uuid.UUID `json:"id" bson:"_id"`
	ArgumentID uuid.UUID `json:"argument_id" bson:"argument_id"`
	Position   int       `json:"position" bson:"position"`

	// Confidential field.
	Body string `json:"body" bson:"body"`
}

func EncryptCard(c *Card, key []byte) error {
	return encryptFields(key, &c.Tag, &c.Cite, &c.CiteInformation, &c.BodyHTML, &c.BodyDraft, &c.BodyText)
}

func DecryptCard(c *Card, key []byte) error {
	return decryptFields(key, &c.Tag, &c.Cite, &c.CiteInformation, &c.BodyHTML, &c.BodyDraft, &c.BodyText)
}

func EncryptArgument(a *Argument, key []byte) error {
	return encryptFields(key, &a.Name)
}

func DecryptArgument(a *Argument, key []byte) error {
	return decryptFields(key, &a.Name)
}

func EncryptAnalytic(a *Analytic, key []byte) error {
	return encryptFields(key, &a.Body)
}

func DecryptAnalytic(a *Analytic, key []byte) error {
	return decryptFields(key, &a.Body)
}

func encryptFields(key []byte, fields ...*string) error {
	for _, f := range fields {
		enc, err := crypto.EncryptText(*f, key)
		if err != nil {
			return err
		}
		*f = enc
	}
	return nil
}

func decryptFields(key []byte, fields ...*string) error {
	for _, f := range fields {
		pt, err := crypto.DecryptText(*f, key)
		if err != nil {
			return err
		}
		*f = pt
	}
	return nil
}
