package vcs

import (
	"fmt"
	"slices"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/jun-simons/chronograph/chronoerr"
	"github.com/jun-simons/chronograph/graph"
	"github.com/jun-simons/chronograph/timeline"
)

// Repository is the branch registry, HEAD, working graph, and commit store.
// Like graph.Graph, it is not reentrant: mutating methods must be
// externally serialized.
type Repository struct {
	branches map[string]CommitId
	head     string
	working  *graph.Graph
	commits  map[CommitId]*Commit

	log    *logrus.Logger
	author string
	clock  func() int64
}

// Init creates a repository with an empty working graph and a single empty
// root commit on branchName.
func Init(branchName string, opts ...Option) *Repository {
	r := &Repository{
		branches: make(map[string]CommitId),
		commits:  make(map[CommitId]*Commit),
		working:  graph.New(),
		log:      silentLogger(),
		clock:    defaultClock,
	}
	for _, opt := range opts {
		opt(r)
	}

	root := &Commit{
		Parents:   nil,
		Message:   "",
		Author:    r.author,
		CreatedAt: r.clock(),
		State:     GraphState{NodeHistories: map[string]timeline.History{}, EdgeHistories: map[string]timeline.History{}, EdgeEndpoints: map[string][]graph.EdgeEndpointRecord{}},
	}
	id, err := contentHash(root.State, root.Parents, root.Message, root.Author, root.CreatedAt)
	if err != nil {
		// Marshaling a freshly-built empty GraphState cannot fail; a
		// panic here would indicate a broken canonicalizer, not bad input.
		panic(fmt.Sprintf("chronograph: failed to hash root commit: %v", err))
	}
	root.ID = id

	r.commits[id] = root
	r.branches[branchName] = id
	r.head = branchName
	return r
}

// Graph returns the current working graph.
func (r *Repository) Graph() *graph.Graph {
	return r.working
}

// Head returns the name of the currently checked-out branch.
func (r *Repository) Head() string {
	return r.head
}

// AddNode delegates to the working graph.
func (r *Repository) AddNode(id graph.NodeId, attrs map[string]string, at timeline.LogicalTime) error {
	return r.working.AddNode(id, attrs, at)
}

// UpdateNode delegates to the working graph.
func (r *Repository) UpdateNode(id graph.NodeId, attrs map[string]string, at timeline.LogicalTime) error {
	return r.working.UpdateNode(id, attrs, at)
}

// DelNode delegates to the working graph.
func (r *Repository) DelNode(id graph.NodeId, at timeline.LogicalTime) error {
	return r.working.DelNode(id, at)
}

// AddEdge delegates to the working graph.
func (r *Repository) AddEdge(id graph.EdgeId, src, dst graph.NodeId, attrs map[string]string, at timeline.LogicalTime) error {
	return r.working.AddEdge(id, src, dst, attrs, at)
}

// UpdateEdge delegates to the working graph.
func (r *Repository) UpdateEdge(id graph.EdgeId, attrs map[string]string, at timeline.LogicalTime) error {
	return r.working.UpdateEdge(id, attrs, at)
}

// DelEdge delegates to the working graph.
func (r *Repository) DelEdge(id graph.EdgeId, at timeline.LogicalTime) error {
	return r.working.DelEdge(id, at)
}

// Branch creates a new branch pointing at HEAD's commit.
func (r *Repository) Branch(name string) error {
	if _, exists := r.branches[name]; exists {
		return chronoerr.New(chronoerr.BranchExists, name, "branch already exists")
	}
	r.branches[name] = r.branches[r.head]
	return nil
}

// isDirty reports whether the working graph's state differs from HEAD's
// committed state.
func (r *Repository) isDirty() (bool, error) {
	working := captureGraphState(r.working)
	workingHash, err := stateHash(working)
	if err != nil {
		return false, err
	}
	headHash, err := stateHash(r.commits[r.branches[r.head]].State)
	if err != nil {
		return false, err
	}
	return workingHash != headHash, nil
}

// Checkout replaces the working graph with one materialised from the
// target branch's commit. It fails UnknownBranch for an unregistered name
// and DirtyWorkingSet if the working graph has uncommitted mutations.
func (r *Repository) Checkout(name string) error {
	target, exists := r.branches[name]
	if !exists {
		return chronoerr.New(chronoerr.UnknownBranch, name, "no such branch")
	}

	dirty, err := r.isDirty()
	if err != nil {
		return err
	}
	if dirty {
		return chronoerr.New(chronoerr.DirtyWorkingSet, r.head, "working graph has uncommitted mutations")
	}

	r.working = r.commits[target].State.materialize()
	r.head = name
	r.log.WithFields(logrus.Fields{"branch": name}).Debug("checkout")
	return nil
}

// DiscardWorkingChanges resets the working graph back to HEAD's committed
// state, discarding any uncommitted mutations. Checkout requires this (or
// a commit) before switching branches with a dirty working set.
func (r *Repository) DiscardWorkingChanges() {
	r.working = r.commits[r.branches[r.head]].State.materialize()
}

// Commit snapshots the working graph, builds a commit whose sole parent is
// the branch tip, advances the branch, and returns the new commit id. A
// commit with no changes returns the existing tip id.
func (r *Repository) Commit(message string) (CommitId, error) {
	tipId := r.branches[r.head]
	tip := r.commits[tipId]

	state := captureGraphState(r.working)

	tipHash, err := stateHash(tip.State)
	if err != nil {
		return "", err
	}
	newHash, err := stateHash(state)
	if err != nil {
		return "", err
	}
	if tipHash == newHash {
		return tipId, nil
	}

	commit := &Commit{
		Parents:   []CommitId{tipId},
		Message:   message,
		Author:    r.author,
		CreatedAt: r.clock(),
		State:     state,
	}
	id, err := contentHash(commit.State, commit.Parents, commit.Message, commit.Author, commit.CreatedAt)
	if err != nil {
		return "", err
	}
	commit.ID = id

	if _, exists := r.commits[id]; !exists {
		r.commits[id] = commit
	}
	r.branches[r.head] = id

	r.log.WithFields(logrus.Fields{"op_id": uuid.NewString(), "branch": r.head, "commit": id}).Debug("commit")
	return id, nil
}

// ancestors returns the transitive closure of cid's parents, cid included.
func (r *Repository) ancestors(cid CommitId) (map[CommitId]struct{}, error) {
	if _, found := r.commits[cid]; !found {
		return nil, chronoerr.New(chronoerr.UnknownCommit, cid, "no such commit")
	}

	visited := make(map[CommitId]struct{})
	queue := []CommitId{cid}
	for len(queue) > 0 {
		current := queue[0]
		queue = queue[1:]
		if _, seen := visited[current]; seen {
			continue
		}
		visited[current] = struct{}{}
		commit, found := r.commits[current]
		if !found {
			continue
		}
		queue = append(queue, commit.Parents...)
	}
	return visited, nil
}

// lowestCommonAncestor returns the lowest ancestor common to both a and b
// (one that is not itself an ancestor of another common ancestor). When
// there are several, it picks the one with the largest CreatedAt timestamp,
// tie-broken by lexicographically smallest id — a deterministic fallback for
// criss-cross histories with no single LCA.
func (r *Repository) lowestCommonAncestor(a, b CommitId) (CommitId, error) {
	ancestorsA, err := r.ancestors(a)
	if err != nil {
		return "", err
	}
	ancestorsB, err := r.ancestors(b)
	if err != nil {
		return "", err
	}

	var common []CommitId
	for cid := range ancestorsA {
		if _, inB := ancestorsB[cid]; inB {
			common = append(common, cid)
		}
	}
	if len(common) == 0 {
		return "", chronoerr.New(chronoerr.UnknownCommit, "", "no common ancestor between commits")
	}

	var lowest []CommitId
	for _, c := range common {
		dominated := false
		for _, d := range common {
			if d == c {
				continue
			}
			ancestorsD, _ := r.ancestors(d)
			if _, below := ancestorsD[c]; below {
				dominated = true
				break
			}
		}
		if !dominated {
			lowest = append(lowest, c)
		}
	}
	common = lowest

	slices.SortFunc(common, func(x, y CommitId) int {
		cx, cy := r.commits[x], r.commits[y]
		switch {
		case cx.CreatedAt > cy.CreatedAt:
			return -1 // larger timestamp first
		case cx.CreatedAt < cy.CreatedAt:
			return 1
		default:
			if x < y {
				return -1
			} else if x > y {
				return 1
			}
			return 0
		}
	})
	return common[0], nil
}

// Merge computes the lowest common ancestor of HEAD and sourceBranch, then
// either no-ops, fast-forwards, or produces a three-way merge commit per
// policy.
func (r *Repository) Merge(sourceBranch string, policy MergePolicy) (MergeResult, error) {
	sourceId, exists := r.branches[sourceBranch]
	if !exists {
		return MergeResult{}, chronoerr.New(chronoerr.UnknownBranch, sourceBranch, "no such branch")
	}
	targetId := r.branches[r.head]

	lca, err := r.lowestCommonAncestor(targetId, sourceId)
	if err != nil {
		return MergeResult{}, err
	}

	if lca == sourceId {
		// Source is already an ancestor of HEAD: nothing to do.
		return MergeResult{MergeCommitID: targetId, Conflicts: nil}, nil
	}

	if lca == targetId {
		// Fast-forward: HEAD is an ancestor of source, so simply adopt it.
		r.branches[r.head] = sourceId
		r.working = r.commits[sourceId].State.materialize()
		r.log.WithFields(logrus.Fields{"op_id": uuid.NewString(), "branch": r.head, "source": sourceBranch}).Debug("fast-forward merge")
		return MergeResult{MergeCommitID: sourceId, Conflicts: nil}, nil
	}

	target := r.commits[targetId]
	source := r.commits[sourceId]
	base := r.commits[lca]

	mergedState, conflicts := resolveGraphState(base.State, target.State, source.State, policy)

	commit := &Commit{
		Parents:   []CommitId{targetId, sourceId},
		Message:   fmt.Sprintf("merge %s into %s", sourceBranch, r.head),
		Author:    r.author,
		CreatedAt: r.clock(),
		State:     mergedState,
	}
	id, err := contentHash(commit.State, commit.Parents, commit.Message, commit.Author, commit.CreatedAt)
	if err != nil {
		return MergeResult{}, err
	}
	commit.ID = id

	if _, exists := r.commits[id]; !exists {
		r.commits[id] = commit
	}
	r.branches[r.head] = id
	r.working = mergedState.materialize()

	if len(conflicts) > 0 {
		r.log.WithFields(logrus.Fields{"op_id": uuid.NewString(), "branch": r.head, "source": sourceBranch, "conflicts": conflicts}).Warn("merge resolved conflicts")
	}

	return MergeResult{MergeCommitID: id, Conflicts: conflicts}, nil
}
