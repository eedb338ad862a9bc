package infra

import (
	"fmt"

	"github.com/eliteGoblin/focusd/app_guard/internal/domain"
)

// StaticLabelResolver resolves display labels from a configured table.
// Unknown ids return an error; callers fall back to the raw id.
type StaticLabelResolver struct {
	labels map[string]string
}

// NewStaticLabelResolver creates a resolver over the given table.
func NewStaticLabelResolver(labels map[string]string) *StaticLabelResolver {
	if labels == nil {
		labels = map[string]string{}
	}
	return &StaticLabelResolver{labels: labels}
}

func (r *StaticLabelResolver) Resolve(itemID string) (string, error) {
	label, ok := r.labels[itemID]
	if !ok || label == "" {
		return "", fmt.Errorf("no label for item %q", itemID)
	}
	return label, nil
}

// Ensure StaticLabelResolver implements domain.LabelResolver.
var _ domain.LabelResolver = (*StaticLabelResolver)(nil)
