//go:build integration

package repository

import (
	"context"
	"fmt"
	"testing"

	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/modules/mongodb"
	"go.mongodb.org/mongo-driver/v2/mongo"
	"go.mongodb.org/mongo-driver/v2/mongo/options"

	"smp/internal/model"
)

// setupMongoContainer starts a MongoDB container and returns a connected client.
func setupMongoContainer(t *testing.T) *mongo.Client {
	t.Helper()
	ctx := context.Background()

	container, err := mongodb.Run(ctx, "mongo:7")
	testcontainers.CleanupContainer(t, container)
	require.NoError(t, err)

	uri, err := container.ConnectionString(ctx)
	require.NoError(t, err)

	client, err := mongo.Connect(options.Client().ApplyURI(uri))
	require.NoError(t, err)
	t.Cleanup(func() { _ = client.Disconnect(context.Background()) })
	return client
}

func TestMongoStore_Contract(t *testing.T) {
	client := setupMongoContainer(t)
	n := 0

	testTeacherStore(t, func(t *testing.T) TeacherStore {
		n++
		coll := client.Database("smp_test").Collection(fmt.Sprintf("%s_%d", TeacherCollection, n))
		store := NewMongoStore[model.Teacher](coll)
		require.NoError(t, store.EnsureIndexes(context.Background()))
		return store
	})
}
