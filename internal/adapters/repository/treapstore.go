package repository

import (
	"context"
	"math/rand/v2"
	"sync"
	"time"

	"github.com/okian/ladder/internal/domain/model"
	"github.com/okian/ladder/pkg/metrics"
)

// Treap-based, in-memory Store implementation.
//
// Ordering: verified DESC, then userID ASC. "less" means ranks earlier, so
// an in-order traversal yields the leaderboard from best to worst.

type node struct {
	id       string
	verified int
	prio     uint64
	left     *node
	right    *node
	size     int
}

func nsize(n *node) int {
	if n == nil {
		return 0
	}
	return n.size
}

func fix(n *node) {
	if n != nil {
		n.size = 1 + nsize(n.left) + nsize(n.right)
	}
}

func less(aVerified int, aID string, bVerified int, bID string) bool {
	if aVerified != bVerified {
		return aVerified > bVerified
	}
	return aID < bID
}

func rotateRight(y *node) *node {
	x := y.left
	y.left = x.right
	x.right = y
	fix(y)
	fix(x)
	return x
}

func rotateLeft(x *node) *node {
	y := x.right
	x.right = y.left
	y.left = x
	fix(x)
	fix(y)
	return y
}

func insert(n *node, id string, verified int, prio uint64) *node {
	if n == nil {
		return &node{id: id, verified: verified, prio: prio, size: 1}
	}
	if less(verified, id, n.verified, n.id) {
		n.left = insert(n.left, id, verified, prio)
		if n.left.prio > n.prio {
			n = rotateRight(n)
		}
	} else {
		n.right = insert(n.right, id, verified, prio)
		if n.right.prio > n.prio {
			n = rotateLeft(n)
		}
	}
	fix(n)
	return n
}

func deleteNode(n *node, id string, verified int) *node {
	if n == nil {
		return nil
	}
	switch {
	case verified == n.verified && id == n.id:
		if n.left == nil {
			return n.right
		}
		if n.right == nil {
			return n.left
		}
		if n.left.prio > n.right.prio {
			n = rotateRight(n)
			n.right = deleteNode(n.right, id, verified)
		} else {
			n = rotateLeft(n)
			n.left = deleteNode(n.left, id, verified)
		}
	case less(verified, id, n.verified, n.id):
		n.left = deleteNode(n.left, id, verified)
	default:
		n.right = deleteNode(n.right, id, verified)
	}
	fix(n)
	return n
}

// collectTopN appends up to limit entries in rank order.
func collectTopN(n *node, limit int, out *[]model.Entry) {
	if n == nil || len(*out) >= limit {
		return
	}
	collectTopN(n.left, limit, out)
	if len(*out) < limit {
		*out = append(*out, model.Entry{UserID: n.id, Verified: n.verified})
	}
	if len(*out) < limit {
		collectTopN(n.right, limit, out)
	}
}

// assignRanksWithTies gives equal counts the same rank; the next distinct
// count takes the following rank.
func assignRanksWithTies(entries []model.Entry) {
	rank := 0
	for i := range entries {
		if i == 0 || entries[i].Verified != entries[i-1].Verified {
			rank++
		}
		entries[i].Rank = rank
	}
}

// TreapStore keeps verdicts in a map and users in a treap ordered by
// verified count.
type TreapStore struct {
	mu       sync.RWMutex
	root     *node
	verified map[string]int
	verdicts map[string]model.Verdict

	seed uint64
	rng  *rand.Rand
}

// NewTreapStore constructs a store.
func NewTreapStore(opts ...Option) *TreapStore {
	s := &TreapStore{
		verified: make(map[string]int),
		verdicts: make(map[string]model.Verdict),
		seed:     uint64(time.Now().UnixNano()), //nolint:gosec // priorities only need to be spread
	}
	for _, opt := range opts {
		opt(s)
	}
	s.rng = rand.New(rand.NewPCG(s.seed, s.seed^0x9e3779b97f4a7c15)) //nolint:gosec // not security sensitive

	metrics.UpdateVerdictsStored(0)
	metrics.UpdateUsersRanked(0)
	return s
}

// PutVerdict implements Store.
func (s *TreapStore) PutVerdict(_ context.Context, v model.Verdict) error {
	if v.SubmissionID == "" {
		metrics.RecordErrorByComponent("repository", "empty_id")
		return ErrEmptyID
	}

	s.mu.Lock()
	prev, seen := s.verdicts[v.SubmissionID]
	s.verdicts[v.SubmissionID] = v
	if v.Accepted && (!seen || !prev.Accepted) {
		s.bump(v.UserID)
	}
	stored, ranked := len(s.verdicts), len(s.verified)
	s.mu.Unlock()

	metrics.UpdateVerdictsStored(stored)
	metrics.UpdateUsersRanked(ranked)
	return nil
}

// bump increments a user's verified count. Caller holds the write lock.
func (s *TreapStore) bump(userID string) {
	old, ok := s.verified[userID]
	if ok {
		s.root = deleteNode(s.root, userID, old)
	}
	s.verified[userID] = old + 1
	s.root = insert(s.root, userID, old+1, s.rng.Uint64())
}

// Verdict implements Store.
func (s *TreapStore) Verdict(_ context.Context, submissionID string) (model.Verdict, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	v, ok := s.verdicts[submissionID]
	if !ok {
		return model.Verdict{}, ErrNotFound
	}
	return v, nil
}

// Rank implements Store.
func (s *TreapStore) Rank(_ context.Context, userID string) (model.Entry, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	verified, ok := s.verified[userID]
	if !ok {
		metrics.RecordErrorByComponent("repository", "not_found")
		return model.Entry{}, ErrNotFound
	}

	// Dense rank: one plus the number of distinct counts above this one.
	rank, last := 1, -1
	walk(s.root, func(n *node) bool {
		if n.verified <= verified {
			return false
		}
		if n.verified != last {
			if last != -1 {
				rank++
			}
			last = n.verified
		}
		return true
	})
	if last != -1 {
		rank++
	}
	return model.Entry{Rank: rank, UserID: userID, Verified: verified}, nil
}

// walk visits nodes in rank order until visit returns false.
func walk(n *node, visit func(*node) bool) bool {
	if n == nil {
		return true
	}
	if !walk(n.left, visit) {
		return false
	}
	if !visit(n) {
		return false
	}
	return walk(n.right, visit)
}

// TopN implements Store.
func (s *TreapStore) TopN(_ context.Context, n int) ([]model.Entry, error) {
	if n < 1 {
		metrics.RecordErrorByComponent("repository", "invalid_limit")
		return nil, ErrInvalidLimit
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]model.Entry, 0, min(n, nsize(s.root)))
	collectTopN(s.root, n, &out)
	assignRanksWithTies(out)
	return out, nil
}

// Count implements Store.
func (s *TreapStore) Count(context.Context) int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.verified)
}

// Verdicts implements Store.
func (s *TreapStore) Verdicts(context.Context) int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.verdicts)
}
