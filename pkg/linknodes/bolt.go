// Copyright © 2018 One Concern

package linknodes

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	jsoniter "github.com/json-iterator/go"
	"github.com/oneconcern/blobimport/pkg/model"
	bolt "go.etcd.io/bbolt"
	"go.uber.org/zap"
)

const (
	// Dir is the subtree of the output root where linknodes are kept
	Dir = "linknodes"

	dbFile      = "linknodes.db"
	openTimeout = 5 * time.Second
)

var (
	json           = jsoniter.ConfigCompatibleWithStandardLibrary
	linknodeBucket = []byte("linknodes")
)

// record is the persisted form of a linknode
type record struct {
	Path     model.RepoPath `json:"path"`
	Node     model.NodeHash `json:"node"`
	Linknode model.NodeHash `json:"linknode"`
}

// Store persists linknodes in a bolt database under <root>/linknodes
type Store struct {
	db *bolt.DB
	l  *zap.Logger
}

// Option for the bolt linknodes store
type Option func(*Store)

// Logger specifies a logger for this store
func Logger(l *zap.Logger) Option {
	return func(s *Store) {
		if l != nil {
			s.l = l
		}
	}
}

// Open (or create) a linknodes store under root. The store must be closed.
func Open(root string, opts ...Option) (*Store, error) {
	s := &Store{l: zap.NewNop()}
	for _, apply := range opts {
		apply(s)
	}

	dir := filepath.Join(root, Dir)
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return nil, ErrStorage.Wrap(fmt.Errorf("create root directory %q: %w", dir, err))
	}

	pth := filepath.Join(dir, dbFile)
	db, err := bolt.Open(pth, 0o600, &bolt.Options{Timeout: openTimeout})
	if err != nil {
		return nil, ErrStorage.Wrap(fmt.Errorf("open %q: %w", pth, err))
	}

	if err = db.Update(func(tx *bolt.Tx) error {
		_, e := tx.CreateBucketIfNotExists(linknodeBucket)
		return e
	}); err != nil {
		_ = db.Close()
		return nil, ErrStorage.Wrap(fmt.Errorf("init bucket: %w", err))
	}

	s.l.Info("opened linknodes store", zap.String("path", pth))
	s.db = db
	return s, nil
}

// key is the fixed-size node hash followed by the path
func key(path model.RepoPath, node model.NodeHash) []byte {
	k := make([]byte, 0, model.NodeHashSize+len(path.Path)+5)
	k = append(k, node[:]...)
	return append(k, path.String()...)
}

// Add a linknode in a single bolt transaction; a differing value for a known key is an AlreadyExistsError
func (s *Store) Add(_ context.Context, path model.RepoPath, node, linknode model.NodeHash) error {
	value, err := json.Marshal(record{Path: path, Node: node, Linknode: linknode})
	if err != nil {
		return ErrStorage.Wrap(err)
	}

	return s.db.Update(func(tx *bolt.Tx) error {
		b := tx.Bucket(linknodeBucket)
		k := key(path, node)

		if existing := b.Get(k); existing != nil {
			var old record
			if e := json.Unmarshal(existing, &old); e != nil {
				return ErrStorage.Wrap(fmt.Errorf("decode linknode for %s@%s: %w", path, node, e))
			}
			if old.Linknode == linknode {
				return nil
			}
			return &AlreadyExistsError{Path: path, Node: node, Old: old.Linknode, New: linknode}
		}

		if e := b.Put(k, value); e != nil {
			return ErrStorage.Wrap(e)
		}
		return nil
	})
}

// Get the linknode of a (path, node) pair, or an ErrNotFound error
func (s *Store) Get(_ context.Context, path model.RepoPath, node model.NodeHash) (model.NodeHash, error) {
	var rec record
	found := false
	err := s.db.View(func(tx *bolt.Tx) error {
		value := tx.Bucket(linknodeBucket).Get(key(path, node))
		if value == nil {
			return nil
		}
		found = true
		return json.Unmarshal(value, &rec)
	})
	if err != nil {
		return model.NullHash, ErrStorage.Wrap(err)
	}
	if !found {
		return model.NullHash, notFound(path, node)
	}
	return rec.Linknode, nil
}

// Close the bolt database
func (s *Store) Close() error {
	if err := s.db.Close(); err != nil {
		return ErrStorage.Wrap(err)
	}
	return nil
}
