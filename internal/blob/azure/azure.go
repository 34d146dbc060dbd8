// Package azure implements blob.Store over an Azure Blob Storage container.
//
// Authentication uses the connection string when one is configured, otherwise
// the account URL with the default Azure credential chain (environment,
// managed identity, Azure CLI).
package azure

import (
	"context"
	"errors"
	"fmt"
	"io"
	"sort"
	"strings"

	"github.com/Azure/azure-sdk-for-go/sdk/azidentity"
	"github.com/Azure/azure-sdk-for-go/sdk/storage/azblob"
	"github.com/Azure/azure-sdk-for-go/sdk/storage/azblob/bloberror"

	"loadctl/internal/blob"
)

// api is the subset of the container operations the store needs.
type api interface {
	list(ctx context.Context, container, prefix string) ([]string, error)
	download(ctx context.Context, container, name string) ([]byte, error)
}

// Store reads objects from one container, optionally under a name prefix.
type Store struct {
	api       api
	container string
	prefix    string
}

var _ blob.Store = (*Store)(nil)

// newAPI is a test hook.
var newAPI = func(cfg blob.Config) (api, error) {
	if cfg.ConnectionString != "" {
		c, err := azblob.NewClientFromConnectionString(cfg.ConnectionString, nil)
		if err != nil {
			return nil, fmt.Errorf("azure client from connection string: %w", err)
		}
		return sdkClient{c}, nil
	}
	cred, err := azidentity.NewDefaultAzureCredential(nil)
	if err != nil {
		return nil, fmt.Errorf("azure default credential: %w", err)
	}
	c, err := azblob.NewClient(cfg.AccountURL, cred, nil)
	if err != nil {
		return nil, fmt.Errorf("azure client for %s: %w", cfg.AccountURL, err)
	}
	return sdkClient{c}, nil
}

func init() {
	blob.Register("azure", func(_ context.Context, cfg blob.Config) (blob.Store, error) {
		return New(cfg)
	})
}

// New builds a Store from cfg. Container is required, as is either
// ConnectionString or AccountURL.
func New(cfg blob.Config) (*Store, error) {
	if cfg.Container == "" {
		return nil, errors.New("blob azure: container is required")
	}
	if cfg.ConnectionString == "" && cfg.AccountURL == "" {
		return nil, errors.New("blob azure: connection string or account url is required")
	}
	a, err := newAPI(cfg)
	if err != nil {
		return nil, err
	}
	return &Store{api: a, container: cfg.Container, prefix: cfg.Prefix}, nil
}

// List implements blob.Store. Returned names are relative to the store prefix.
func (s *Store) List(ctx context.Context, prefix string) ([]string, error) {
	names, err := s.api.list(ctx, s.container, s.prefix+prefix)
	if err != nil {
		return nil, fmt.Errorf("list %s/%s: %w", s.container, s.prefix+prefix, err)
	}
	out := make([]string, 0, len(names))
	for _, n := range names {
		out = append(out, strings.TrimPrefix(n, s.prefix))
	}
	sort.Strings(out)
	return out, nil
}

// Get implements blob.Store.
func (s *Store) Get(ctx context.Context, name string) ([]byte, error) {
	b, err := s.api.download(ctx, s.container, s.prefix+name)
	if err != nil {
		return nil, fmt.Errorf("get %s/%s: %w", s.container, s.prefix+name, err)
	}
	return b, nil
}

// Close is a no-op; the SDK client holds no resources that need releasing.
func (s *Store) Close() error { return nil }

type sdkClient struct{ c *azblob.Client }

func (a sdkClient) list(ctx context.Context, container, prefix string) ([]string, error) {
	opts := &azblob.ListBlobsFlatOptions{}
	if prefix != "" {
		opts.Prefix = &prefix
	}
	var out []string
	pager := a.c.NewListBlobsFlatPager(container, opts)
	for pager.More() {
		page, err := pager.NextPage(ctx)
		if err != nil {
			return nil, err
		}
		for _, item := range page.Segment.BlobItems {
			if item.Name != nil {
				out = append(out, *item.Name)
			}
		}
	}
	return out, nil
}

func (a sdkClient) download(ctx context.Context, container, name string) ([]byte, error) {
	resp, err := a.c.DownloadStream(ctx, container, name, nil)
	if err != nil {
		if bloberror.HasCode(err, bloberror.BlobNotFound, bloberror.ContainerNotFound) {
			return nil, fmt.Errorf("%w: %v", blob.ErrNotFound, err)
		}
		return nil, err
	}
	defer resp.Body.Close()
	return io.ReadAll(resp.Body)
}
