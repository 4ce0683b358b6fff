package tokencache

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	bolt "go.etcd.io/bbolt"

	"github.com/joseph-ayodele/po-extractor/internal/auth"
)

var bucketName = []byte("tokens")

// Bolt keeps the token in an embedded bbolt database.
type Bolt struct {
	db     *bolt.DB
	key    []byte
	logger *slog.Logger
}

func OpenBolt(path, key string, logger *slog.Logger) (*Bolt, error) {
	if logger == nil {
		logger = slog.Default()
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("failed to create directory for BoltDB: %w", err)
	}

	db, err := bolt.Open(path, 0o600, &bolt.Options{Timeout: time.Second})
	if err != nil {
		return nil, fmt.Errorf("failed to open BoltDB: %w", err)
	}

	err = db.Update(func(tx *bolt.Tx) error {
		_, err := tx.CreateBucketIfNotExists(bucketName)
		return err
	})
	if err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to create bucket: %w", err)
	}
	return &Bolt{db: db, key: []byte(key), logger: logger}, nil
}

func (b *Bolt) Load(_ context.Context) (auth.Token, bool) {
	var data []byte
	err := b.db.View(func(tx *bolt.Tx) error {
		if v := tx.Bucket(bucketName).Get(b.key); v != nil {
			data = append([]byte(nil), v...)
		}
		return nil
	})
	if err != nil {
		b.logger.Warn("tokencache.bolt.read_error", "error", err)
		return auth.Token{}, false
	}
	if data == nil {
		return auth.Token{}, false
	}
	tok, err := auth.DecodeToken(data)
	if err != nil {
		b.logger.Warn("tokencache.bolt.corrupt", "key", string(b.key), "error", err)
		return auth.Token{}, false
	}
	return tok, true
}

func (b *Bolt) Save(_ context.Context, tok auth.Token) error {
	data, err := auth.EncodeToken(tok)
	if err != nil {
		return err
	}
	return b.db.Update(func(tx *bolt.Tx) error {
		return tx.Bucket(bucketName).Put(b.key, data)
	})
}

func (b *Bolt) Close() error {
	return b.db.Close()
}
