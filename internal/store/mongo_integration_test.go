//go:build integration

package store

import (
	"context"
	"fmt"
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func openTestMongo(t *testing.T) *Mongo {
	t.Helper()
	uri := os.Getenv("TEST_MONGO_URI")
	if uri == "" {
		t.Skip("TEST_MONGO_URI not set")
	}
	ctx := context.Background()
	m, err := NewMongo(ctx, uri, fmt.Sprintf("attendtrack_test_%d", time.Now().UnixNano()))
	require.NoError(t, err)
	t.Cleanup(func() {
		_ = m.DB.Drop(ctx)
		_ = m.Close(ctx)
	})
	require.NoError(t, m.EnsureIndexes(ctx))
	return m
}

func TestMongoUsers(t *testing.T) {
	m := openTestMongo(t)
	testUsersRepo(t, NewMongoUsers(m))
}

func TestMongoAttendance(t *testing.T) {
	m := openTestMongo(t)
	testAttendanceRepo(t, NewMongoUsers(m), NewMongoAttendance(m))
}

func TestMongoConcurrentInsert(t *testing.T) {
	m := openTestMongo(t)
	testConcurrentInsert(t, NewMongoUsers(m), NewMongoAttendance(m))
}
