package curate

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"os"

	"reviewflow/internal/bootstrap/logging"
	"reviewflow/internal/domain/review"
	"reviewflow/internal/errs"
)

// Directory is the in-memory customer lookup, built once at startup and
// never mutated afterwards, so concurrent reads need no synchronization.
type Directory struct {
	byExternalID map[string]review.CustomerProfile
}

func LoadDirectory(ctx context.Context, path string) (*Directory, error) {
	if ctx == nil {
		return nil, errors.New("context is required")
	}
	if err := ctx.Err(); err != nil {
		return nil, errs.Wrap(err, "check context")
	}

	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, errs.Wrapf(err, "read customers file %q", path)
	}

	var profiles []review.CustomerProfile
	if err := json.Unmarshal(raw, &profiles); err != nil {
		return nil, errs.Wrapf(err, "parse customers file %q", path)
	}

	dir := NewDirectory(profiles)
	logging.Info(
		logging.WithAttrs(ctx, slog.String("component", "curate.directory")),
		"customer directory loaded",
		slog.String("path", path),
		slog.Int("profiles", dir.Len()),
	)
	return dir, nil
}

func NewDirectory(profiles []review.CustomerProfile) *Directory {
	byID := make(map[string]review.CustomerProfile, len(profiles))
	for _, p := range profiles {
		if p.ExternalCustomerID == "" {
			continue
		}
		byID[p.ExternalCustomerID] = p
	}
	return &Directory{byExternalID: byID}
}

func (d *Directory) Lookup(externalCustomerID string) (review.CustomerProfile, bool) {
	p, ok := d.byExternalID[externalCustomerID]
	return p, ok
}

func (d *Directory) Len() int {
	return len(d.byExternalID)
}
