package service

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/planexa/exam-planner-api/internal/dto"
	"github.com/planexa/exam-planner-api/internal/repository"
)

const proposalCachePrefix = "exam-planner:proposal:"

// scheduleProposal keeps a generated schedule retrievable between the
// generate and save calls. A failed write leaves the proposal in place so the
// caller can retry the write without recomputation.
type scheduleProposal struct {
	Result      dto.ScheduleResult `json:"result"`
	RequestedAt time.Time          `json:"requestedAt"`
}

// proposalStore is an in-memory TTL store with optional Redis write-through,
// so a save can land on a different instance than the generate.
type proposalStore struct {
	ttl    time.Duration
	cache  *repository.CacheRepository
	logger *zap.Logger

	mu    sync.RWMutex
	items map[string]scheduleProposal
}

func newProposalStore(ttl time.Duration, cache *repository.CacheRepository, logger *zap.Logger) *proposalStore {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &proposalStore{
		ttl:    ttl,
		cache:  cache,
		logger: logger,
		items:  make(map[string]scheduleProposal),
	}
}

func (s *proposalStore) Save(ctx context.Context, proposal scheduleProposal) {
	s.mu.Lock()
	s.items[proposal.Result.ProposalID] = proposal
	s.mu.Unlock()

	if err := s.cache.Set(ctx, proposalCachePrefix+proposal.Result.ProposalID, proposal, s.ttl); err != nil {
		s.logger.Warn("proposal cache write failed", zap.String("proposal_id", proposal.Result.ProposalID), zap.Error(err))
	}
}

func (s *proposalStore) Get(ctx context.Context, id string) (scheduleProposal, bool) {
	s.mu.RLock()
	proposal, ok := s.items[id]
	s.mu.RUnlock()
	if ok {
		if time.Since(proposal.RequestedAt) > s.ttl {
			s.Delete(ctx, id)
			return scheduleProposal{}, false
		}
		return proposal, true
	}

	var cached scheduleProposal
	if err := s.cache.Get(ctx, proposalCachePrefix+id, &cached); err != nil {
		return scheduleProposal{}, false
	}
	if time.Since(cached.RequestedAt) > s.ttl {
		s.Delete(ctx, id)
		return scheduleProposal{}, false
	}

	s.mu.Lock()
	s.items[id] = cached
	s.mu.Unlock()
	return cached, true
}

func (s *proposalStore) Delete(ctx context.Context, id string) {
	s.mu.Lock()
	delete(s.items, id)
	s.mu.Unlock()

	if err := s.cache.Delete(ctx, proposalCachePrefix+id); err != nil {
		s.logger.Warn("proposal cache delete failed", zap.String("proposal_id", id), zap.Error(err))
	}
}
