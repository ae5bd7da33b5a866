// internal/testutil/db.go
package testutil

import (
	"context"
	"os"
	"testing"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// SetupTestDB connects to the Mongo instance named by
// TASKHIVE_TEST_MONGO_URI and returns a database unique to this test.
// Tests that need a real database are skipped when the variable is
// unset or the instance is unreachable, so the rest of the suite stays
// runnable anywhere.
func SetupTestDB(t *testing.T) *mongo.Database {
	t.Helper()

	uri := os.Getenv("TASKHIVE_TEST_MONGO_URI")
	if uri == "" {
		t.Skip("TASKHIVE_TEST_MONGO_URI not set; skipping database test")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	client, err := mongo.Connect(ctx, options.Client().ApplyURI(uri))
	if err != nil {
		t.Skipf("cannot connect to test mongo: %v", err)
	}
	if err := client.Ping(ctx, nil); err != nil {
		t.Skipf("test mongo unreachable: %v", err)
	}

	db := client.Database("taskhive_test_" + primitive.NewObjectID().Hex())

	t.Cleanup(func() {
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		_ = db.Drop(ctx)
		_ = client.Disconnect(ctx)
	})

	return db
}

// TestContext returns a context with the standard test timeout.
func TestContext() (context.Context, context.CancelFunc) {
	return context.WithTimeout(context.Background(), 10*time.Second)
}
