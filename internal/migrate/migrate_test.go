package migrate

import (
	"context"
	"io"
	"testing"

	"github.com/golang-migrate/migrate/v4/source/iofs"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo/integration/mtest"
	"go.uber.org/zap"
)

func TestDatabaseURL(t *testing.T) {
	tests := []struct {
		name     string
		uri      string
		database string
		want     string
	}{
		{name: "host only", uri: "mongodb://mongo:27017", database: "bank_accounts", want: "mongodb://mongo:27017/bank_accounts"},
		{name: "replaces existing path", uri: "mongodb://mongo:27017/admin", database: "test_db", want: "mongodb://mongo:27017/test_db"},
		{name: "keeps query", uri: "mongodb+srv://u:p@cluster.example.net/?retryWrites=true", database: "bank_accounts", want: "mongodb+srv://u:p@cluster.example.net/bank_accounts?retryWrites=true"},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			got, err := databaseURL(tc.uri, tc.database)
			require.NoError(t, err)
			assert.Equal(t, tc.want, got)
		})
	}

	_, err := databaseURL("mongodb://mongo:27017", "")
	assert.Error(t, err)
}

func TestEmbeddedMigrationsAreValidCommands(t *testing.T) {
	src, err := iofs.New(migrationFiles, "migrations")
	require.NoError(t, err)
	defer src.Close()

	version, err := src.First()
	require.NoError(t, err)
	assert.Equal(t, uint(1), version)

	var seen []uint
	for {
		seen = append(seen, version)

		for _, read := range []func(uint) (io.ReadCloser, string, error){src.ReadUp, src.ReadDown} {
			r, _, err := read(version)
			require.NoError(t, err)
			body, err := io.ReadAll(r)
			r.Close()
			require.NoError(t, err)

			var cmds []bson.D
			require.NoError(t, bson.UnmarshalExtJSON(body, true, &cmds), "migration %d", version)
			assert.NotEmpty(t, cmds)
		}

		next, err := src.Next(version)
		if err != nil {
			break
		}
		version = next
	}

	assert.Equal(t, []uint{1, 2}, seen)
}

func TestEnsureIndexes(t *testing.T) {
	mt := mtest.New(t, mtest.NewOptions().ClientType(mtest.Mock))

	mt.Run("creates created_at index", func(mt *mtest.T) {
		mt.AddMockResponses(mtest.CreateSuccessResponse())

		require.NoError(mt, ensureIndexes(context.Background(), mt.DB, zap.NewNop()))

		started := mt.GetStartedEvent()
		require.NotNil(mt, started)
		assert.Equal(mt, "createIndexes", started.CommandName)
		assert.Equal(mt, "accounts", started.Command.Lookup("createIndexes").StringValue())
	})

	mt.Run("surfaces server errors", func(mt *mtest.T) {
		mt.AddMockResponses(mtest.CreateCommandErrorResponse(mtest.CommandError{
			Code:    13,
			Message: "not authorized",
			Name:    "Unauthorized",
		}))

		assert.Error(mt, ensureIndexes(context.Background(), mt.DB, zap.NewNop()))
	})
}
