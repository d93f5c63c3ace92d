// ABOUTME: Metric lookup by name or ID prefix for CLI and MCP callers.
// ABOUTME: Names match case-insensitively before IDs are tried.
package storage

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/harperreed/moody/internal/models"
)

// ResolveMetric finds a visible metric whose name equals ref
// (case-insensitive) or whose ID starts with ref.
func ResolveMetric(ctx context.Context, repo Repository, owner, ref string) (*models.Metric, error) {
	ref = strings.TrimSpace(ref)
	if ref == "" {
		return nil, fmt.Errorf("%w: empty metric reference", ErrNotFound)
	}

	metrics, err := repo.ListMetrics(ctx, owner)
	if err != nil {
		return nil, err
	}

	var named []*models.Metric
	for _, m := range metrics {
		if strings.EqualFold(m.Name, ref) {
			named = append(named, m)
		}
	}
	switch len(named) {
	case 1:
		return named[0], nil
	case 0:
	default:
		// An owner's metric shadows a system metric of the same name.
		for _, m := range named {
			if !m.IsSystem() {
				return m, nil
			}
		}
		return nil, fmt.Errorf("%w %q: matches multiple metrics", ErrAmbiguous, ref)
	}

	m, err := repo.GetMetric(ctx, owner, ref)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return nil, fmt.Errorf("%w: no metric named or prefixed %q", ErrNotFound, ref)
		}
		return nil, err
	}
	return m, nil
}
