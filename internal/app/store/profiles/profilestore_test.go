package profilestore_test

import (
	"errors"
	"testing"

	profilestore "github.com/zm10123/taskhive/internal/app/store/profiles"
	"github.com/zm10123/taskhive/internal/testutil"
	"go.mongodb.org/mongo-driver/mongo"
)

func TestStore_GetByEmail_CaseInsensitive(t *testing.T) {
	db := testutil.SetupTestDB(t)
	store := profilestore.New(db)
	fixtures := testutil.NewFixtures(t, db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	p := fixtures.CreateProfile(ctx, "B.Smith@Uni.ac.uk", "User B")

	got, err := store.GetByEmail(ctx, "b.smith@uni.AC.UK")
	if err != nil {
		t.Fatalf("GetByEmail failed: %v", err)
	}
	if got.ID != p.ID {
		t.Errorf("ID: got %s, want %s", got.ID.Hex(), p.ID.Hex())
	}
	if got.Email != "B.Smith@Uni.ac.uk" {
		t.Errorf("Email should keep its original casing, got %q", got.Email)
	}
}

func TestStore_GetByEmail_NotFound(t *testing.T) {
	db := testutil.SetupTestDB(t)
	store := profilestore.New(db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	_, err := store.GetByEmail(ctx, "nobody@uni.ac.uk")
	if !errors.Is(err, mongo.ErrNoDocuments) {
		t.Fatalf("expected ErrNoDocuments, got %v", err)
	}
}

func TestStore_GetByID(t *testing.T) {
	db := testutil.SetupTestDB(t)
	store := profilestore.New(db)
	fixtures := testutil.NewFixtures(t, db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	p := fixtures.CreateProfile(ctx, "a@uni.ac.uk", "User A")

	got, err := store.GetByID(ctx, p.ID)
	if err != nil {
		t.Fatalf("GetByID failed: %v", err)
	}
	if got.FullName != "User A" {
		t.Errorf("FullName: got %q, want %q", got.FullName, "User A")
	}
}
