package decision

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"

	"sentinelle/internal/policy"
	"sentinelle/pkg/sentinel"
)

type InMemoryStoreSuite struct {
	suite.Suite
	store *InMemoryStore
}

func TestInMemoryStoreSuite(t *testing.T) {
	suite.Run(t, new(InMemoryStoreSuite))
}

func (s *InMemoryStoreSuite) SetupTest() {
	s.store = NewInMemoryStore()
}

func (s *InMemoryStoreSuite) record(d policy.Decision) *Record {
	now := time.Now().UTC()
	return &Record{
		DecisionID:   NewDecisionID(now),
		ClientIDHash: HashClientID("store-test-salt", "client-42"),
		RiskScore:    0.5,
		FraudScore:   0.1,
		Decision:     d,
		PolicyRule:   "otherwise => ACCEPT",
		CreatedAt:    now,
	}
}

func (s *InMemoryStoreSuite) TestCreateAndGet() {
	ctx := context.Background()
	record := s.record(policy.DecisionAccept)

	s.Require().NoError(s.store.Create(ctx, record))
	s.Equal(1, s.store.Len())

	got, err := s.store.Get(ctx, record.DecisionID)
	s.Require().NoError(err)
	s.Equal(record.DecisionID, got.DecisionID)
	s.Equal(policy.DecisionAccept, got.Decision)
}

func (s *InMemoryStoreSuite) TestCreateDuplicateConflicts() {
	ctx := context.Background()
	record := s.record(policy.DecisionAccept)

	s.Require().NoError(s.store.Create(ctx, record))
	s.ErrorIs(s.store.Create(ctx, record), sentinel.ErrConflict)
}

func (s *InMemoryStoreSuite) TestGetUnknownID() {
	_, err := s.store.Get(context.Background(), "dcn_missing")
	s.ErrorIs(err, sentinel.ErrNotFound)
}

func (s *InMemoryStoreSuite) TestGetReturnsCopy() {
	ctx := context.Background()
	record := s.record(policy.DecisionAccept)
	s.Require().NoError(s.store.Create(ctx, record))

	first, err := s.store.Get(ctx, record.DecisionID)
	s.Require().NoError(err)
	first.Decision = policy.DecisionAlert
	first.Reviews = append(first.Reviews, ReviewEntry{ReviewerID: "rogue"})

	second, err := s.store.Get(ctx, record.DecisionID)
	s.Require().NoError(err)
	s.Equal(policy.DecisionAccept, second.Decision)
	s.Empty(second.Reviews)
}

func (s *InMemoryStoreSuite) TestAppendReview() {
	ctx := context.Background()
	record := s.record(policy.DecisionReview)
	s.Require().NoError(s.store.Create(ctx, record))

	got, entry, err := s.store.AppendReview(ctx, record.DecisionID, func(current policy.Decision) ReviewEntry {
		return ReviewEntry{
			ReviewerID:       "analyst-7",
			HumanDecision:    HumanReject,
			Comment:          "insufficient history",
			PreviousDecision: current,
			FinalDecision:    Resolve(current, HumanReject),
			CreatedAt:        time.Now().UTC(),
		}
	})
	s.Require().NoError(err)
	s.Equal(policy.DecisionReject, got.Decision)
	s.Equal("analyst-7", entry.ReviewerID)
	s.Equal(policy.DecisionReject, entry.FinalDecision)
	s.Require().Len(got.Reviews, 1)
	s.Equal(policy.DecisionReview, got.Reviews[0].PreviousDecision)
}

func (s *InMemoryStoreSuite) TestAppendReviewUnknownID() {
	_, _, err := s.store.AppendReview(context.Background(), "dcn_missing", func(current policy.Decision) ReviewEntry {
		return ReviewEntry{FinalDecision: current}
	})
	s.ErrorIs(err, sentinel.ErrNotFound)
}

// TestAppendReviewReturnsOwnEntry pins that every caller gets back the entry
// its ReviewFunc produced, not whichever entry happens to sit last in the
// re-read trail when reviews interleave.
func (s *InMemoryStoreSuite) TestAppendReviewReturnsOwnEntry() {
	ctx := context.Background()
	record := s.record(policy.DecisionReview)
	s.Require().NoError(s.store.Create(ctx, record))

	const goroutines = 20
	var wg sync.WaitGroup
	entries := make([]ReviewEntry, goroutines)
	errs := make([]error, goroutines)

	for i := 0; i < goroutines; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			reviewer := fmt.Sprintf("analyst-%d", i)
			_, entries[i], errs[i] = s.store.AppendReview(ctx, record.DecisionID, func(current policy.Decision) ReviewEntry {
				return ReviewEntry{
					ReviewerID:       reviewer,
					HumanDecision:    HumanApprove,
					Comment:          "interleaved pass",
					PreviousDecision: current,
					FinalDecision:    Resolve(current, HumanApprove),
					CreatedAt:        time.Now().UTC(),
				}
			})
		}(i)
	}
	wg.Wait()

	for i := 0; i < goroutines; i++ {
		s.Require().NoError(errs[i])
		s.Equal(fmt.Sprintf("analyst-%d", i), entries[i].ReviewerID)
	}

	got, err := s.store.Get(ctx, record.DecisionID)
	s.Require().NoError(err)
	s.Len(got.Reviews, goroutines)
}
