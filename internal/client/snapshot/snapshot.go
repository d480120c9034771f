// Package snapshot loads the authoritative vault snapshot the sync service
// reconciles against. A snapshot is a JSON document carrying every vault with
// its entries, members and files; it can be read from a local file or from an
// S3-compatible object store.
package snapshot

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/dmitrijs2005/gophsync/internal/client/models"
	"github.com/dmitrijs2005/gophsync/internal/timex"
	"github.com/goccy/go-json"
)

var (
	// ErrNotFound means the source holds no snapshot yet.
	ErrNotFound = errors.New("snapshot not found")
	// ErrMalformed wraps decoding failures.
	ErrMalformed = errors.New("malformed snapshot")
)

// Snapshot is one published state of the remote vault graph. Revision
// identifies the publication; an empty Revision is never treated as already
// applied.
type Snapshot struct {
	Revision    string            `json:"revision"`
	GeneratedAt time.Time         `json:"generated_at"`
	Vaults      []models.VaultDTO `json:"vaults"`
}

// Source yields the current snapshot.
type Source interface {
	Fetch(ctx context.Context) (*Snapshot, error)
	// String describes the source for logs.
	String() string
}

// Decode reads a snapshot document from r.
func Decode(r io.Reader) (*Snapshot, error) {
	var s Snapshot
	dec := json.NewDecoder(r)
	if err := dec.Decode(&s); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrMalformed, err)
	}
	if err := s.validate(); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrMalformed, err)
	}
	return &s, nil
}

// validate requires an id and a storable updated_at on every record at
// every level.
func (s *Snapshot) validate() error {
	for i, v := range s.Vaults {
		where := fmt.Sprintf("vault #%d", i)
		if err := check(where, v.ID, v.UpdatedAt); err != nil {
			return err
		}
		for j, e := range v.Entries {
			where := fmt.Sprintf("vault %s: entry #%d", v.ID, j)
			if err := check(where, e.ID, e.UpdatedAt); err != nil {
				return err
			}
			for k, f := range e.Files {
				where := fmt.Sprintf("vault %s: entry %s: file #%d", v.ID, e.ID, k)
				if err := check(where, f.ID, f.UpdatedAt); err != nil {
					return err
				}
			}
		}
		for j, m := range v.Members {
			where := fmt.Sprintf("vault %s: member #%d", v.ID, j)
			if err := check(where, m.ID, m.UpdatedAt); err != nil {
				return err
			}
		}
	}
	return nil
}

func check(where, id string, updatedAt time.Time) error {
	if id == "" {
		return fmt.Errorf("%s has no id", where)
	}
	if err := timex.CheckStamp(updatedAt); err != nil {
		return fmt.Errorf("%s %s: updated_at: %w", where, id, err)
	}
	return nil
}

// Location is a parsed snapshot location: either a filesystem path or an
// s3://bucket/key URL.
type Location struct {
	Path   string
	Bucket string
	Key    string
}

// IsS3 reports whether the location names an object.
func (l Location) IsS3() bool {
	return l.Bucket != ""
}

// ParseLocation accepts "s3://bucket/key" or a plain path.
func ParseLocation(s string) (Location, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return Location{}, errors.New("empty snapshot location")
	}
	rest, ok := strings.CutPrefix(s, "s3://")
	if !ok {
		return Location{Path: s}, nil
	}
	bucket, key, _ := strings.Cut(rest, "/")
	if bucket == "" || key == "" {
		return Location{}, fmt.Errorf("invalid s3 location %q: want s3://bucket/key", s)
	}
	return Location{Bucket: bucket, Key: key}, nil
}

// Open returns the Source for location. For s3:// locations, bucket and key
// come from the location and the rest from c.
func Open(ctx context.Context, location string, c S3Config) (Source, error) {
	loc, err := ParseLocation(location)
	if err != nil {
		return nil, err
	}
	if !loc.IsS3() {
		return NewFileSource(loc.Path), nil
	}
	c.Bucket, c.Key = loc.Bucket, loc.Key
	return NewS3Source(ctx, c)
}
