package storage

import "context"

// AssetStore serves club logo assets. The bracket engine resolves keys to
// public URLs for display and removes stored objects when the bracket that
// references them is torn down; asset ingestion happens through the club
// administration screens, outside this engine.
type AssetStore interface {
	Delete(ctx context.Context, key string) error

	GetPublicURL(key string) string
}

// NoopAssetStore serves deployments without object storage configured. It
// renders no logo URLs and has nothing to tear down.
type NoopAssetStore struct{}

func (NoopAssetStore) Delete(ctx context.Context, key string) error { return nil }

func (NoopAssetStore) GetPublicURL(key string) string { return "" }
