package series

import (
	"time"

	"github.com/google/uuid"
	"github.com/patrickmn/go-cache"

	"practice-scheduler-backend/internal/recur"
)

// Proposal is a series request waiting for the user to pick a resolution.
// The write pipeline is suspended here instead of in any UI mechanism.
type Proposal struct {
	ID        string       `json:"proposal_id"`
	Request   Request      `json:"request"`
	Plans     []recur.Plan `json:"plans"`
	CreatedAt time.Time    `json:"created_at"`
}

// ProposalStore keeps pending proposals until they are committed or expire.
// Expiry doubles as cancellation: an uncommitted proposal changes nothing.
type ProposalStore struct {
	cache *cache.Cache
}

// NewProposalStore creates a store whose proposals expire after ttl.
func NewProposalStore(ttl time.Duration) *ProposalStore {
	if ttl <= 0 {
		ttl = 10 * time.Minute
	}
	return &ProposalStore{cache: cache.New(ttl, 2*ttl)}
}

// Put registers a proposal and returns it with its generated id.
func (ps *ProposalStore) Put(req Request, plans []recur.Plan) Proposal {
	proposal := Proposal{
		ID:        uuid.NewString(),
		Request:   req,
		Plans:     plans,
		CreatedAt: time.Now(),
	}
	ps.cache.Set(proposal.ID, proposal, cache.DefaultExpiration)
	return proposal
}

// Take removes and returns the proposal with the given id. A proposal can be
// committed at most once.
func (ps *ProposalStore) Take(id string) (Proposal, bool) {
	v, found := ps.cache.Get(id)
	if !found {
		return Proposal{}, false
	}
	ps.cache.Delete(id)
	return v.(Proposal), true
}
