// Package valkeystore adapts valkey to the typing lease contract: small
// keyed records with a server-enforced TTL. Nothing here needs durability
// beyond the TTL window.
package valkeystore

import (
	"context"
	"fmt"
	"time"

	"github.com/valkey-io/valkey-go"
)

type LeaseStore struct {
	client valkey.Client
}

// NewLeaseStore dials valkey at addr.
func NewLeaseStore(addr string) (*LeaseStore, error) {
	client, err := valkey.NewClient(valkey.ClientOption{InitAddress: []string{addr}})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to valkey: %w", err)
	}
	return &LeaseStore{client: client}, nil
}

func (s *LeaseStore) Put(ctx context.Context, key, value string, ttl time.Duration) error {
	return s.client.Do(ctx, s.client.B().Set().Key(key).Value(value).Ex(ttl).Build()).Error()
}

func (s *LeaseStore) Delete(ctx context.Context, key string) error {
	return s.client.Do(ctx, s.client.B().Del().Key(key).Build()).Error()
}

// List scans keys under prefix and fetches their values. Keys that expire
// between the scan and the fetch are skipped.
func (s *LeaseStore) List(ctx context.Context, prefix string) ([]string, error) {
	var keys []string
	var cursor uint64
	for {
		entry, err := s.client.Do(ctx, s.client.B().Scan().Cursor(cursor).Match(prefix+"*").Count(64).Build()).AsScanEntry()
		if err != nil {
			return nil, err
		}
		keys = append(keys, entry.Elements...)
		cursor = entry.Cursor
		if cursor == 0 {
			break
		}
	}
	if len(keys) == 0 {
		return nil, nil
	}

	items, err := s.client.Do(ctx, s.client.B().Mget().Key(keys...).Build()).ToArray()
	if err != nil {
		return nil, err
	}
	var out []string
	for _, item := range items {
		v, err := item.ToString()
		if err != nil {
			continue
		}
		out = append(out, v)
	}
	return out, nil
}

func (s *LeaseStore) Close() {
	s.client.Close()
}
