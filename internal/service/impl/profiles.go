package impl

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"github.com/monadsocial/agora/internal/entities"
	"github.com/monadsocial/agora/internal/guard"
	"github.com/monadsocial/agora/internal/service"
	"github.com/monadsocial/agora/internal/storage"
)

// UpsertProfile creates or replaces the profile. JoinedDate is set once on creation.
func (s *srv) UpsertProfile(ctx context.Context, address string, p *service.ProfileParams) (*entities.Profile, error) {
	address = guard.Normalize(address)
	name := strings.TrimSpace(p.DisplayName)

	switch {
	case address == "":
		return nil, fmt.Errorf("%w: address is required", service.ErrValidation)
	case name == "":
		return nil, fmt.Errorf("%w: display name is required", service.ErrValidation)
	}

	now := s.now()
	profile := entities.Profile{
		Address:      address,
		DisplayName:  name,
		ProfilePhoto: copyString(p.ProfilePhoto),
		Bio:          strings.TrimSpace(p.Bio),
		JoinedDate:   now,
		UpdatedDate:  now,
		TxHash:       copyString(p.TxHash),
		BlockNumber:  copyUint64(p.BlockNumber),
		FeesPaid:     copyString(p.FeesPaid),
	}

	s.mu.Lock()
	existing, ok := s.profiles[address]
	if ok {
		profile.JoinedDate = existing.JoinedDate
	}
	s.profiles[address] = profile
	s.mu.Unlock()

	s.persistBestEffort(ctx, storage.ProfilesCollection)

	log.WithField("address", address).WithField("created", !ok).Info("profile saved")

	out := copyProfile(profile)
	return &out, nil
}

func (s *srv) GetProfile(_ context.Context, address string) (*entities.Profile, error) {
	address = guard.Normalize(address)

	s.mu.RLock()
	defer s.mu.RUnlock()

	p, ok := s.profiles[address]
	if !ok {
		return nil, fmt.Errorf("%w: profile %s", service.ErrNotFound, address)
	}

	out := copyProfile(p)
	return &out, nil
}

// ListProfiles returns all profiles ordered by address.
func (s *srv) ListProfiles(_ context.Context) ([]*entities.Profile, error) {
	s.mu.RLock()
	out := make([]*entities.Profile, 0, len(s.profiles))
	for _, p := range s.profiles {
		c := copyProfile(p)
		out = append(out, &c)
	}
	s.mu.RUnlock()

	sort.Slice(out, func(i, j int) bool {
		return out[i].Address < out[j].Address
	})

	return out, nil
}
