package entity

import (
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/ZackMurry/cardtown-sub000/internal/crypto"
)

func testKey(t *testing.T) []byte {
	t.Helper()
	k, err := crypto.NewContentKey()
	if err != nil {
		t.Fatalf("new key: %v", err)
	}
	return k
}

func TestCardRoundTrip(t *testing.T) {
	key := testKey(t)
	now := time.Now().UTC()
	c := Card{
		ID:              uuid.New(),
		OwnerID:         uuid.New(),
		Tag:             "Fishing DA uniqueness",
		Cite:            "Smith '19",
		CiteInformation: "Jane Smith, marine policy fellow, 2019-04-02",
		BodyHTML:        "<p>They work deep in the <b>EEZ</b></p>",
		BodyDraft:       `{"blocks":[{"text":"They work deep in the EEZ"}]}`,
		BodyText:        "They work deep in the EEZ",
		CreatedAt:       now,
		UpdatedAt:       now,
	}
	orig := c

	if err := EncryptCard(&c, key); err != nil {
		t.Fatalf("encrypt: %v", err)
	}
	for name, pair := range map[string][2]string{
		"tag":       {orig.Tag, c.Tag},
		"cite":      {orig.Cite, c.Cite},
		"cite_info": {orig.CiteInformation, c.CiteInformation},
		"body_html": {orig.BodyHTML, c.BodyHTML},
		"draft":     {orig.BodyDraft, c.BodyDraft},
		"body_text": {orig.BodyText, c.BodyText},
	} {
		if pair[0] == pair[1] {
			t.Fatalf("field %s left in plaintext", name)
		}
	}
	if c.ID != orig.ID || !c.CreatedAt.Equal(orig.CreatedAt) {
		t.Fatal("non-confidential fields must pass through untouched")
	}

	if err := DecryptCard(&c, key); err != nil {
		t.Fatalf("decrypt: %v", err)
	}
	if c != orig {
		t.Fatalf("round trip mismatch:\n got %+v\nwant %+v", c, orig)
	}
}

func TestCardWrongKeyFails(t *testing.T) {
	key := testKey(t)
	c := Card{Tag: "hello"}
	if err := EncryptCard(&c, key); err != nil {
		t.Fatalf("encrypt: %v", err)
	}
	if err := DecryptCard(&c, testKey(t)); err == nil {
		t.Fatal("decrypt under a different key must fail, not return garbage")
	}
}

func TestArgumentRoundTrip(t *testing.T) {
	key := testKey(t)
	a := Argument{
		ID:      uuid.New(),
		OwnerID: uuid.New(),
		Name:    "AT: Fishing DA",
		CardIDs: []uuid.UUID{uuid.New(), uuid.New()},
	}
	origName := a.Name
	origCards := append([]uuid.UUID(nil), a.CardIDs...)

	if err := EncryptArgument(&a, key); err != nil {
		t.Fatalf("encrypt: %v", err)
	}
	if a.Name == origName {
		t.Fatal("argument name left in plaintext")
	}
	for i := range origCards {
		if a.CardIDs[i] != origCards[i] {
			t.Fatal("card ordering must pass through untouched")
		}
	}
	if err := DecryptArgument(&a, key); err != nil {
		t.Fatalf("decrypt: %v", err)
	}
	if a.Name != origName {
		t.Fatal("argument name round trip mismatch")
	}
}

func TestAnalyticRoundTrip(t *testing.T) {
	key := testKey(t)
	an := Analytic{ID: uuid.New(), ArgumentID: uuid.New(), Position: 3, Body: "extend the Smith ev"}
	if err := EncryptAnalytic(&an, key); err != nil {
		t.Fatalf("encrypt: %v", err)
	}
	if an.Body == "extend the Smith ev" {
		t.Fatal("analytic body left in plaintext")
	}
	if an.Position != 3 {
		t.Fatal("position must pass through untouched")
	}
	if err := DecryptAnalytic(&an, key); err != nil {
		t.Fatalf("decrypt: %v", err)
	}
	if an.Body != "extend the Smith ev" {
		t.Fatal("analytic body round trip mismatch")
	}
}

func TestEmptyFieldsRoundTrip(t *testing.T) {
	key := testKey(t)
	c := Card{}
	if err := EncryptCard(&c, key); err != nil {
		t.Fatalf("encrypt: %v", err)
	}
	if c.Tag == "" {
		t.Fatal("empty plaintext still produces ciphertext")
	}
	if err := DecryptCard(&c, key); err != nil {
		t.Fatalf("decrypt: %v", err)
	}
	if c.Tag != "" {
		t.Fatal("empty field round trip mismatch")
	}
}
