package usecase

import (
	"archive/zip"
	"context"
	"fmt"
	"io"
	"log/slog"
	"path"
	"strings"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"
)

type Collection struct {
	ID         uuid.UUID
	Name       string
	AssetCount int
	CreatedAt  time.Time
	UpdatedAt  time.Time
}

func (u Usecase) CreateCollection(ctx context.Context, col Collection, assetIDs uuid.UUIDs) (Collection, error) {
	if col.Name == "" {
		return Collection{}, &ValidationError{Msg: "name is required"}
	}

	created, err := u.repo.CreateCollection(ctx, col)
	if err != nil {
		return Collection{}, err
	}

	if len(assetIDs) > 0 {
		if err := u.repo.AddCollectionAssets(ctx, created.ID, assetIDs); err != nil {
			return Collection{}, err
		}
		created.AssetCount = len(assetIDs)
	}

	return created, nil
}

func (u Usecase) GetCollectionByID(ctx context.Context, id uuid.UUID) (Collection, error) {
	return u.repo.GetCollectionByID(ctx, id)
}

func (u Usecase) AddCollectionAssets(ctx context.Context, id uuid.UUID, assetIDs uuid.UUIDs) error {
	if len(assetIDs) == 0 {
		return &ValidationError{Msg: "asset_ids is required"}
	}
	if _, err := u.repo.GetCollectionByID(ctx, id); err != nil {
		return err
	}
	return u.repo.AddCollectionAssets(ctx, id, assetIDs)
}

// ExportCollection streams a zip of the collection's members to w. Entries
// are written in member order; the next blob is fetched concurrently with
// writing the previous entry to hide object-store latency. A member whose
// fetch fails is logged and skipped so one missing blob does not abort the
// archive; the trailer is written only after every member was attempted.
//
// Output is produced incrementally — nothing buffers the whole archive.
func (u Usecase) ExportCollection(ctx context.Context, id uuid.UUID, w io.Writer) error {
	if _, err := u.repo.GetCollectionByID(ctx, id); err != nil {
		return err
	}

	members, err := u.repo.ListCollectionAssets(ctx, id)
	if err != nil {
		return err
	}
	if len(members) == 0 {
		return &NotFoundError{Resource: "collection assets"}
	}

	type entry struct {
		asset Asset
		body  io.ReadCloser
		err   error
	}

	g, ctx := errgroup.WithContext(ctx)
	// Unbuffered on purpose: the producer blocks holding the next blob
	// while the consumer writes the current one — a one-entry prefetch.
	entries := make(chan entry)

	g.Go(func() error {
		defer close(entries)
		for _, a := range members {
			if a.StoragePath == "" {
				continue
			}
			body, _, err := u.fileStorageProvider.GetObject(ctx, a.StoragePath)
			select {
			case entries <- entry{asset: a, body: body, err: err}:
			case <-ctx.Done():
				if err == nil {
					body.Close()
				}
				return ctx.Err()
			}
		}
		return nil
	})

	g.Go(func() error {
		zw := zip.NewWriter(w)
		used := make(map[string]int)
		for e := range entries {
			if e.err != nil {
				slog.WarnContext(ctx, "skipping collection member",
					"collection_id", id, "asset_id", e.asset.ID, "error", e.err)
				continue
			}
			name := uniqueEntryName(DescriptiveFilename(e.asset), used)
			f, err := zw.Create(name)
			if err != nil {
				e.body.Close()
				return fmt.Errorf("create archive entry %s: %w", name, err)
			}
			_, copyErr := io.Copy(f, e.body)
			e.body.Close()
			if copyErr != nil {
				return fmt.Errorf("write archive entry %s: %w", name, copyErr)
			}
		}
		return zw.Close()
	})

	return g.Wait()
}

func uniqueEntryName(name string, used map[string]int) string {
	n := used[name]
	used[name] = n + 1
	if n == 0 {
		return name
	}
	ext := path.Ext(name)
	return fmt.Sprintf("%s_%d%s", strings.TrimSuffix(name, ext), n+1, ext)
}
