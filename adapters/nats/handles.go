package nats

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/nats-io/nats.go/jetstream"

	"github.com/codewandler/redispatch-go/core/handles"
)

type HandleStoreConfig struct {
	Connect Connector
	// Bucket is the KV bucket name (default "handle_records").
	Bucket string
}

// HandleStore is a handles.Store backed by a NATS JetStream KV bucket.
// Records are written with Create, so the write-once property holds
// even across processes racing on the same key.
type HandleStore struct {
	kv jetstream.KeyValue
}

func NewHandleStore(cfg HandleStoreConfig) (*HandleStore, error) {
	doConnect := cfg.Connect
	if doConnect == nil {
		doConnect = ConnectDefault()
	}

	bucket := cfg.Bucket
	if bucket == "" {
		bucket = "handle_records"
	}

	nc, _, err := doConnect()
	if err != nil {
		return nil, err
	}

	js, err := jetstream.New(nc)
	if err != nil {
		return nil, err
	}

	kv, err := js.CreateOrUpdateKeyValue(context.Background(), jetstream.KeyValueConfig{
		Bucket:  bucket,
		Storage: jetstream.FileStorage,
	})
	if err != nil {
		return nil, err
	}

	return &HandleStore{kv: kv}, nil
}

func (s *HandleStore) Exists(ctx context.Context, eventID string, handlerCode int) (bool, error) {
	_, err := s.kv.Get(ctx, recordKey(eventID, handlerCode))
	if err != nil {
		if errors.Is(err, jetstream.ErrKeyNotFound) {
			return false, nil
		}
		return false, fmt.Errorf("failed to look up handle record: %w", err)
	}
	return true, nil
}

func (s *HandleStore) Add(ctx context.Context, rec handles.Record) error {
	data, err := json.Marshal(rec)
	if err != nil {
		return err
	}
	_, err = s.kv.Create(ctx, recordKey(rec.EventID, rec.HandlerCode), data)
	if err != nil {
		if errors.Is(err, jetstream.ErrKeyExists) {
			return handles.ErrDuplicateRecord
		}
		return fmt.Errorf("failed to persist handle record: %w", err)
	}
	return nil
}

func recordKey(eventID string, handlerCode int) string {
	return fmt.Sprintf("%s.%d", eventID, handlerCode)
}

var _ handles.Store = (*HandleStore)(nil)
