// Copyright © 2018 One Concern

package kvblob

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"testing"

	"github.com/oneconcern/blobimport/internal/rand"
	"github.com/oneconcern/blobimport/pkg/blobstore/status"
	"github.com/oneconcern/blobimport/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type opener func(string, ...Option) (*Store, error)

func engines() map[string]opener {
	return map[string]opener{
		"pebble": OpenPebble,
		"badger": OpenBadger,
	}
}

func tempDir(t testing.TB) string {
	dir, err := os.MkdirTemp("", "kvblob")
	require.NoError(t, err)
	t.Cleanup(func() {
		_ = os.RemoveAll(dir)
	})
	return dir
}

func TestKVStore(t *testing.T) {
	for name, open := range engines() {
		open := open
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()
			pth := filepath.Join(tempDir(t), "blobs")

			t.Run("should fail to open a missing DB", func(t *testing.T) {
				_, err := open(pth, CreateIfMissing(false))
				require.Error(t, err)
				assert.True(t, errors.Is(err, status.ErrNotFoundStore))
			})

			bs, err := open(pth, PostponeCompaction(true), Logger(zap.NewNop()))
			require.NoError(t, err)
			assert.Contains(t, bs.String(), name+"@")

			payloads := make(map[string][]byte, 100)
			for i := 0; i < 100; i++ {
				payloads[fmt.Sprintf("sha1-%s", rand.HexHash())] = rand.Bytes(256)
			}

			t.Run("should put concurrently", func(t *testing.T) {
				var wg sync.WaitGroup
				for k, v := range payloads {
					wg.Add(1)
					go func(k string, v []byte) {
						defer wg.Done()
						assert.NoError(t, bs.Put(ctx, k, v))
					}(k, v)
				}
				wg.Wait()
			})

			t.Run("should get", func(t *testing.T) {
				for k, v := range payloads {
					got, err := bs.Get(ctx, k)
					require.NoError(t, err)
					require.Equal(t, v, got)
				}
			})

			t.Run("should report missing keys", func(t *testing.T) {
				_, err := bs.Get(ctx, "nowhere")
				require.Error(t, err)
				assert.True(t, errors.Is(err, status.ErrNotExists))
			})

			t.Run("should compact", func(t *testing.T) {
				require.NoError(t, bs.Compact(ctx))
			})

			require.NoError(t, bs.Close())
			require.NoError(t, bs.Close())

			t.Run("should refuse operations once closed", func(t *testing.T) {
				require.Error(t, bs.Put(ctx, "late", []byte("late")))
				_, err := bs.Get(ctx, "late")
				require.Error(t, err)
			})

			t.Run("should reopen an existing DB", func(t *testing.T) {
				reopened, err := open(pth, CreateIfMissing(false))
				require.NoError(t, err)
				defer func() {
					_ = reopened.Close()
				}()

				require.NoError(t, reopened.Compact(ctx))
				for k, v := range payloads {
					got, err := reopened.Get(ctx, k)
					require.NoError(t, err)
					require.Equal(t, v, got)
				}
			})
		})
	}
}

func TestCompactEmpty(t *testing.T) {
	bs, err := OpenPebble(filepath.Join(tempDir(t), "blobs"))
	require.NoError(t, err)
	defer func() {
		_ = bs.Close()
	}()

	require.NoError(t, bs.Compact(context.Background()))
}
