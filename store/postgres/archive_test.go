package postgres_test

import (
	"context"
	"os"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/kode4food/tremor/store"
	"github.com/kode4food/tremor/store/postgres"
	"github.com/kode4food/tremor/store/storetest"
)

const dsnEnv = "TREMOR_POSTGRES_URL"

func TestArchiveContract(t *testing.T) {
	dsn := os.Getenv(dsnEnv)
	if dsn == "" {
		t.Skipf("%s not set", dsnEnv)
	}

	storetest.Run(t, func(t *testing.T) store.Archive {
		ctx := context.Background()
		a, err := postgres.Open(ctx, dsn)
		require.NoError(t, err)
		t.Cleanup(func() { _ = a.Close() })

		_, err = a.Pool().Exec(ctx, `TRUNCATE datasets CASCADE`)
		require.NoError(t, err)
		return a
	})
}
