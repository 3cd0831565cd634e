package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/josephowusu/bizcore/internal/features"
	"github.com/josephowusu/bizcore/internal/models"
	apperrors "github.com/josephowusu/bizcore/pkg/errors"
)

// SubscriptionService resolves a business's purchased feature set from the
// central catalog.
type SubscriptionService struct {
	catalog *gorm.DB
	log     *zap.Logger
}

// NewSubscriptionService constructs a SubscriptionService over the catalog
// connection.
func NewSubscriptionService(catalog *gorm.DB, log *zap.Logger) (*SubscriptionService, error) {
	if catalog == nil {
		return nil, errors.New("subscription service: catalog db is required")
	}
	if log == nil {
		log = zap.NewNop()
	}
	return &SubscriptionService{catalog: catalog, log: log}, nil
}

// ActiveFeatures returns the deduplicated, insertion-ordered union of feature
// names across every package owned by the business whose end date is on or
// after asOf. A business with no active package yields an empty set, which
// fails every privilege-gated operation closed.
func (s *SubscriptionService) ActiveFeatures(ctx context.Context, businessCode string, asOf time.Time) ([]features.Feature, error) {
	ctx = ensureContext(ctx)
	businessCode = strings.TrimSpace(businessCode)
	if businessCode == "" {
		return nil, apperrors.ErrMissingParameter
	}

	var packages []models.SubscriptionPackage
	err := s.catalog.WithContext(ctx).
		Where("business_code = ? AND end_of_subscription >= ?", businessCode, asOf).
		Order("created_at ASC").
		Find(&packages).Error
	if err != nil {
		return nil, fmt.Errorf("subscription service: load packages: %w", err)
	}

	seen := make(map[features.Feature]struct{})
	var active []features.Feature
	for _, pkg := range packages {
		names, err := decodeFeatureList(pkg.Features)
		if err != nil {
			s.log.Warn("skipping malformed feature list",
				zap.String("business_code", businessCode),
				zap.String("package_id", pkg.ID),
				zap.Error(err),
			)
			continue
		}

		for _, name := range names {
			feature, ok := features.FromCatalogName(name)
			if !ok {
				// Unknown catalog entries are ignored for forward compatibility.
				continue
			}
			if _, exists := seen[feature]; exists {
				continue
			}
			seen[feature] = struct{}{}
			active = append(active, feature)
		}
	}

	return active, nil
}

func decodeFeatureList(raw []byte) ([]string, error) {
	if len(raw) == 0 {
		return nil, nil
	}
	var names []string
	if err := json.Unmarshal(raw, &names); err != nil {
		return nil, err
	}
	return names, nil
}
