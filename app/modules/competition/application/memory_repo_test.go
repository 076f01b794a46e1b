package competitionservice

import (
	"bytes"
	"cmp"
	"context"
	"slices"
	"sync"
	"time"

	competitiondomain "github.com/Black-And-White-Club/stride-league/app/modules/competition/domain"
	competitiondb "github.com/Black-And-White-Club/stride-league/app/modules/competition/infrastructure/repositories"
	"github.com/google/uuid"
	"github.com/uptrace/bun"
)

// memoryRepository is a stateful in-memory Repository. Each method is atomic,
// which mirrors the single-statement guards of the SQL implementation.
type memoryRepository struct {
	mu sync.Mutex

	competitions map[uuid.UUID]*competitiondb.Competition
	teams        map[uuid.UUID]competitiondb.Team
	participants map[uuid.UUID]*competitiondb.Participant
	results      map[string]competitiondb.CompetitionResult
	pools        map[uuid.UUID]*competitiondb.PrizePool
	buyIns       map[string]competitiondb.BuyIn
	payouts      []competitiondb.PrizePayout
	profiles     map[uuid.UUID]competitiondb.UserProfile
}

func newMemoryRepository() *memoryRepository {
	return &memoryRepository{
		competitions: map[uuid.UUID]*competitiondb.Competition{},
		teams:        map[uuid.UUID]competitiondb.Team{},
		participants: map[uuid.UUID]*competitiondb.Participant{},
		results:      map[string]competitiondb.CompetitionResult{},
		pools:        map[uuid.UUID]*competitiondb.PrizePool{},
		buyIns:       map[string]competitiondb.BuyIn{},
		profiles:     map[uuid.UUID]competitiondb.UserProfile{},
	}
}

func (m *memoryRepository) addCompetition(c competitiondb.Competition) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.competitions[c.ID] = &c
}

func (m *memoryRepository) addTeam(t competitiondb.Team) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.teams[t.ID] = t
}

func (m *memoryRepository) addParticipant(p competitiondb.Participant) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.participants[p.ID] = &p
}

func (m *memoryRepository) addPool(p competitiondb.PrizePool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.pools[p.CompetitionID] = &p
	if c, ok := m.competitions[p.CompetitionID]; ok {
		c.HasPrizePool = true
	}
}

func (m *memoryRepository) addProfile(p competitiondb.UserProfile) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.profiles[p.UserID] = p
}

func (m *memoryRepository) allPayouts() []competitiondb.PrizePayout {
	m.mu.Lock()
	defer m.mu.Unlock()
	return slices.Clone(m.payouts)
}

func (m *memoryRepository) allResults() []competitiondb.CompetitionResult {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]competitiondb.CompetitionResult, 0, len(m.results))
	for _, r := range m.results {
		out = append(out, r)
	}
	return out
}

func (m *memoryRepository) pool(competitionID uuid.UUID) competitiondb.PrizePool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return *m.pools[competitionID]
}

func (m *memoryRepository) GetCompetition(_ context.Context, _ bun.IDB, competitionID uuid.UUID) (*competitiondb.Competition, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	c, ok := m.competitions[competitionID]
	if !ok {
		return nil, competitiondb.ErrNotFound
	}
	cp := *c
	return &cp, nil
}

func (m *memoryRepository) ListParticipantsByScore(_ context.Context, _ bun.IDB, competitionID uuid.UUID) ([]competitiondb.Participant, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []competitiondb.Participant
	for _, p := range m.participants {
		if p.CompetitionID != competitionID {
			continue
		}
		cp := *p
		if p.TeamID != nil {
			cp.TeamNumber = m.teams[*p.TeamID].TeamNumber
		}
		out = append(out, cp)
	}
	slices.SortFunc(out, func(a, b competitiondb.Participant) int {
		if c := cmp.Compare(b.TotalPoints, a.TotalPoints); c != 0 {
			return c
		}
		return bytes.Compare(a.ID[:], b.ID[:])
	})
	return out, nil
}

func (m *memoryRepository) GetParticipant(_ context.Context, _ bun.IDB, competitionID, participantID uuid.UUID) (*competitiondb.Participant, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	p, ok := m.participants[participantID]
	if !ok || p.CompetitionID != competitionID {
		return nil, competitiondb.ErrNotFound
	}
	cp := *p
	return &cp, nil
}

func (m *memoryRepository) LockParticipantScore(_ context.Context, _ bun.IDB, competitionID, participantID uuid.UUID, lockedAt time.Time) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	p, ok := m.participants[participantID]
	if !ok || p.CompetitionID != competitionID || p.ScoreLockedAt != nil {
		return false, nil
	}
	p.ScoreLockedAt = &lockedAt
	return true, nil
}

func (m *memoryRepository) UpdateParticipantScore(_ context.Context, _ bun.IDB, competitionID, participantID uuid.UUID, totalPoints float64, now time.Time) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	p, ok := m.participants[participantID]
	if !ok || p.CompetitionID != competitionID || p.ScoreLockedAt != nil {
		return false, nil
	}
	if c := m.competitions[competitionID]; c == nil || c.Status != competitiondomain.CompetitionActive {
		return false, nil
	}
	p.TotalPoints = totalPoints
	p.UpdatedAt = now
	return true, nil
}

func (m *memoryRepository) MarkPrizeEligible(_ context.Context, _ bun.IDB, competitionID, participantID uuid.UUID, eligible bool) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	p, ok := m.participants[participantID]
	if !ok || p.CompetitionID != competitionID {
		return competitiondb.ErrNoRowsAffected
	}
	p.PrizeEligible = eligible
	return nil
}

func (m *memoryRepository) SetAllPrizeEligible(_ context.Context, _ bun.IDB, competitionID uuid.UUID, eligible bool) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, p := range m.participants {
		if p.CompetitionID == competitionID {
			p.PrizeEligible = eligible
		}
	}
	return nil
}

func (m *memoryRepository) InsertWinnerRecords(_ context.Context, _ bun.IDB, records []competitiondb.CompetitionResult) ([]competitiondb.CompetitionResult, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var inserted []competitiondb.CompetitionResult
	for _, r := range records {
		key := r.UserID.String() + "/" + r.CompetitionID.String() + "/" + r.Kind
		if _, exists := m.results[key]; exists {
			continue
		}
		m.results[key] = r
		inserted = append(inserted, r)
	}
	return inserted, nil
}

func (m *memoryRepository) GetPrizePool(_ context.Context, _ bun.IDB, competitionID uuid.UUID) (*competitiondb.PrizePool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	p, ok := m.pools[competitionID]
	if !ok {
		return nil, competitiondb.ErrNotFound
	}
	cp := *p
	return &cp, nil
}

func (m *memoryRepository) CreatePrizePool(_ context.Context, _ bun.IDB, pool *competitiondb.PrizePool) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, exists := m.pools[pool.CompetitionID]; exists {
		return false, nil
	}
	cp := *pool
	m.pools[pool.CompetitionID] = &cp
	return true, nil
}

func (m *memoryRepository) SetHasPrizePool(_ context.Context, _ bun.IDB, competitionID uuid.UUID) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	c, ok := m.competitions[competitionID]
	if !ok {
		return competitiondb.ErrNoRowsAffected
	}
	c.HasPrizePool = true
	return nil
}

func (m *memoryRepository) BeginPoolDistribution(_ context.Context, _ bun.IDB, competitionID uuid.UUID, now time.Time) (*competitiondb.PrizePool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	p, ok := m.pools[competitionID]
	if !ok || p.Status != competitiondomain.PoolActive {
		return nil, nil
	}
	p.Status = competitiondomain.PoolDistributing
	p.UpdatedAt = now
	cp := *p
	return &cp, nil
}

func (m *memoryRepository) CompletePoolDistribution(_ context.Context, _ bun.IDB, poolID uuid.UUID, now time.Time) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, p := range m.pools {
		if p.ID == poolID && p.Status == competitiondomain.PoolDistributing {
			p.Status = competitiondomain.PoolDistributed
			p.DistributedAt = &now
			p.UpdatedAt = now
			return nil
		}
	}
	return competitiondb.ErrNoRowsAffected
}

func (m *memoryRepository) RecordBuyIn(_ context.Context, _ bun.IDB, buyIn *competitiondb.BuyIn) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, exists := m.buyIns[buyIn.PaymentRef]; exists {
		return false, nil
	}
	m.buyIns[buyIn.PaymentRef] = *buyIn
	return true, nil
}

func (m *memoryRepository) AddToPoolTotal(_ context.Context, _ bun.IDB, poolID uuid.UUID, amount competitiondomain.Cents, now time.Time) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, p := range m.pools {
		if p.ID == poolID && p.Status == competitiondomain.PoolActive {
			p.TotalAmount += amount
			p.UpdatedAt = now
			return nil
		}
	}
	return competitiondb.ErrNoRowsAffected
}

func (m *memoryRepository) SumBuyIns(_ context.Context, _ bun.IDB, poolID uuid.UUID) (competitiondomain.Cents, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var sum competitiondomain.Cents
	for _, b := range m.buyIns {
		if b.PrizePoolID == poolID {
			sum += b.Amount
		}
	}
	return sum, nil
}

func (m *memoryRepository) ListStuckPools(_ context.Context, _ bun.IDB, olderThan time.Time) ([]competitiondb.StuckPool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []competitiondb.StuckPool
	for _, p := range m.pools {
		if p.Status == competitiondomain.PoolDistributing && p.UpdatedAt.Before(olderThan) {
			out = append(out, competitiondb.StuckPool{PrizePool: *p})
		}
	}
	return out, nil
}

func (m *memoryRepository) CountPayouts(_ context.Context, _ bun.IDB, competitionID uuid.UUID) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	n := 0
	for _, p := range m.payouts {
		if p.CompetitionID == competitionID {
			n++
		}
	}
	return n, nil
}

func (m *memoryRepository) InsertPayouts(_ context.Context, _ bun.IDB, payouts []competitiondb.PrizePayout) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	inserted := 0
	for _, p := range payouts {
		dup := slices.ContainsFunc(m.payouts, func(e competitiondb.PrizePayout) bool {
			return e.CompetitionID == p.CompetitionID && e.UserID == p.UserID && e.Placement == p.Placement
		})
		if dup {
			continue
		}
		m.payouts = append(m.payouts, p)
		inserted++
	}
	return inserted, nil
}

func (m *memoryRepository) ListPayouts(_ context.Context, _ bun.IDB, competitionID uuid.UUID) ([]competitiondb.PrizePayout, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []competitiondb.PrizePayout
	for _, p := range m.payouts {
		if p.CompetitionID == competitionID {
			out = append(out, p)
		}
	}
	slices.SortFunc(out, func(a, b competitiondb.PrizePayout) int {
		if c := cmp.Compare(a.Placement, b.Placement); c != 0 {
			return c
		}
		return bytes.Compare(a.UserID[:], b.UserID[:])
	})
	return out, nil
}

func (m *memoryRepository) GetPayout(_ context.Context, _ bun.IDB, payoutID uuid.UUID) (*competitiondb.PrizePayout, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, p := range m.payouts {
		if p.ID == payoutID {
			cp := p
			return &cp, nil
		}
	}
	return nil, competitiondb.ErrNotFound
}

func (m *memoryRepository) ClaimPayout(_ context.Context, _ bun.IDB, payoutID, userID uuid.UUID, now time.Time) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for i := range m.payouts {
		p := &m.payouts[i]
		if p.ID != payoutID || p.UserID != userID {
			continue
		}
		if p.ClaimStatus != competitiondomain.ClaimUnclaimed || now.After(p.ClaimExpires) {
			return false, nil
		}
		p.ClaimStatus = competitiondomain.ClaimClaimed
		p.ClaimedAt = &now
		return true, nil
	}
	return false, nil
}

func (m *memoryRepository) GetUserProfiles(_ context.Context, _ bun.IDB, userIDs []uuid.UUID) ([]competitiondb.UserProfile, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []competitiondb.UserProfile
	for _, id := range userIDs {
		if p, ok := m.profiles[id]; ok {
			out = append(out, p)
		}
	}
	return out, nil
}

var _ competitiondb.Repository = (*memoryRepository)(nil)
