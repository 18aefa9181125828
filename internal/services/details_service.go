package services

import (
	"context"
	"errors"
	"net/url"
	"strings"
	"time"

	"github.com/saifelleuhci/kanouwood2/internal/domain"
	"github.com/saifelleuhci/kanouwood2/internal/repositories"
)

// DetailsID is the identifier of the single details row.
const DetailsID = "site"

const maxHeroImages = 12

// DefaultDetails returns the details shown before an admin saves any.
func DefaultDetails() domain.Details {
	return domain.Details{
		ID:          DetailsID,
		PhoneNumber: "+216 96 794 242",
		CatalogURL:  "/CATALOGUE SOCRATE WOOD.pdf",
		HeroImages: []string{
			"/files/WhatsApp Image 2025-06-07 at 20.40.28.jpeg",
			"/files/WhatsApp Image 2025-06-07 at 20.40.31.jpeg",
			"/files/logo.jpeg",
		},
	}
}

// DetailsServiceDeps bundles constructor inputs for the details service.
type DetailsServiceDeps struct {
	Details  repositories.DetailsRepository
	Defaults *domain.Details
	Clock    func() time.Time
}

type detailsService struct {
	repo     repositories.DetailsRepository
	defaults domain.Details
	clock    func() time.Time
}

func NewDetailsService(deps DetailsServiceDeps) (DetailsService, error) {
	if deps.Details == nil {
		return nil, errors.New("details service: details repository is required")
	}
	defaults := DefaultDetails()
	if deps.Defaults != nil {
		defaults = *deps.Defaults
	}
	clock := deps.Clock
	if clock == nil {
		clock = time.Now
	}
	return &detailsService{
		repo:     deps.Details,
		defaults: defaults,
		clock:    func() time.Time { return clock().UTC() },
	}, nil
}

// Get returns the saved details or the defaults when none were saved yet.
func (s *detailsService) Get(ctx context.Context) (domain.Details, error) {
	details, err := s.repo.Get(ctx)
	if err != nil {
		if repositories.IsNotFound(err) {
			return s.defaults, nil
		}
		return domain.Details{}, translateRepositoryError("details: get", err)
	}
	return details, nil
}

func (s *detailsService) Update(ctx context.Context, input DetailsInput) (domain.Details, error) {
	phone := strings.TrimSpace(input.PhoneNumber)
	if phone == "" {
		return domain.Details{}, invalid("phone number is required")
	}
	catalog := strings.TrimSpace(input.CatalogURL)
	if catalog != "" && !validLink(catalog) {
		return domain.Details{}, invalid("catalog url must be an absolute http(s) URL or a site path")
	}
	images := make([]string, 0, len(input.HeroImages))
	for _, img := range input.HeroImages {
		img = strings.TrimSpace(img)
		if img == "" {
			continue
		}
		if !validLink(img) {
			return domain.Details{}, invalid("hero image %q must be an absolute http(s) URL or a site path", img)
		}
		images = append(images, img)
	}
	if len(images) > maxHeroImages {
		return domain.Details{}, invalid("at most %d hero images are allowed", maxHeroImages)
	}

	current, err := s.Get(ctx)
	if err != nil {
		return domain.Details{}, err
	}
	now := s.clock()
	if current.CreatedAt.IsZero() {
		current.CreatedAt = now
	}
	current.ID = DetailsID
	current.PhoneNumber = phone
	current.CatalogURL = catalog
	current.HeroImages = images
	current.UpdatedAt = now
	if err := s.repo.Save(ctx, current); err != nil {
		return domain.Details{}, translateRepositoryError("details: save", err)
	}
	return current, nil
}

func validLink(raw string) bool {
	if strings.HasPrefix(raw, "/") && !strings.HasPrefix(raw, "//") {
		return true
	}
	u, err := url.Parse(raw)
	if err != nil {
		return false
	}
	return (u.Scheme == "http" || u.Scheme == "https") && u.Host != ""
}
