package vcs_test

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jun-simons/chronograph/chronoerr"
	"github.com/jun-simons/chronograph/vcs"
)

func tickingClock() func() int64 {
	t := int64(0)
	return func() int64 {
		t++
		return t
	}
}

func constantClock(value int64) func() int64 {
	return func() int64 { return value }
}

func TestInitCreatesRootCommitOnMain(t *testing.T) {
	repo := vcs.Init("main", vcs.WithClock(tickingClock()))
	assert.Equal(t, "main", repo.Head())
	assert.Empty(t, repo.Graph().GetNodes())
}

func TestBranchIsolation(t *testing.T) {
	repo := vcs.Init("main", vcs.WithClock(tickingClock()))
	require.NoError(t, repo.AddNode("A", map[string]string{"v": "1"}, 1))
	_, err := repo.Commit("seed")
	require.NoError(t, err)

	require.NoError(t, repo.Branch("feature"))
	require.NoError(t, repo.Checkout("feature"))
	require.NoError(t, repo.AddNode("B", nil, 2))
	_, err = repo.Commit("add B on feature")
	require.NoError(t, err)

	require.NoError(t, repo.Checkout("main"))
	assert.NotContains(t, repo.Graph().GetNodes(), "B")

	require.NoError(t, repo.Checkout("feature"))
	assert.Contains(t, repo.Graph().GetNodes(), "B")
}

func TestCheckoutRejectsDirtyWorkingSet(t *testing.T) {
	repo := vcs.Init("main", vcs.WithClock(tickingClock()))
	require.NoError(t, repo.Branch("feature"))
	require.NoError(t, repo.AddNode("A", nil, 1))

	err := repo.Checkout("feature")
	var tagged *chronoerr.Error
	assert.True(t, errors.As(err, &tagged))
	assert.Equal(t, chronoerr.DirtyWorkingSet, tagged.Kind)
}

func TestCheckoutUnknownBranch(t *testing.T) {
	repo := vcs.Init("main", vcs.WithClock(tickingClock()))
	err := repo.Checkout("ghost")
	var tagged *chronoerr.Error
	assert.True(t, errors.As(err, &tagged))
	assert.Equal(t, chronoerr.UnknownBranch, tagged.Kind)
}

func TestBranchExists(t *testing.T) {
	repo := vcs.Init("main", vcs.WithClock(tickingClock()))
	require.NoError(t, repo.Branch("feature"))

	err := repo.Branch("feature")
	var tagged *chronoerr.Error
	assert.True(t, errors.As(err, &tagged))
	assert.Equal(t, chronoerr.BranchExists, tagged.Kind)
}

func TestCommitIsNoOpWhenUnchanged(t *testing.T) {
	repo := vcs.Init("main", vcs.WithClock(tickingClock()))
	require.NoError(t, repo.AddNode("A", nil, 1))
	first, err := repo.Commit("seed")
	require.NoError(t, err)

	second, err := repo.Commit("seed again, nothing changed")
	require.NoError(t, err)
	assert.Equal(t, first, second)
}

func TestDiscardWorkingChanges(t *testing.T) {
	repo := vcs.Init("main", vcs.WithClock(tickingClock()))
	require.NoError(t, repo.AddNode("A", nil, 1))
	_, err := repo.Commit("seed")
	require.NoError(t, err)

	require.NoError(t, repo.AddNode("B", nil, 2))
	assert.Contains(t, repo.Graph().GetNodes(), "B")

	repo.DiscardWorkingChanges()
	assert.NotContains(t, repo.Graph().GetNodes(), "B")
}

func TestFastForwardMerge(t *testing.T) {
	repo := vcs.Init("main", vcs.WithClock(tickingClock()))
	require.NoError(t, repo.AddNode("A", nil, 1))
	_, err := repo.Commit("seed")
	require.NoError(t, err)

	require.NoError(t, repo.Branch("feature"))
	require.NoError(t, repo.Checkout("feature"))
	require.NoError(t, repo.AddNode("B", nil, 2))
	featureTip, err := repo.Commit("add B")
	require.NoError(t, err)

	require.NoError(t, repo.Checkout("main"))
	result, err := repo.Merge("feature", vcs.OURS)
	require.NoError(t, err)

	assert.Equal(t, featureTip, result.MergeCommitID)
	assert.Empty(t, result.Conflicts)
	assert.Contains(t, repo.Graph().GetNodes(), "B")
}

func TestMergeNoOpWhenSourceIsAncestor(t *testing.T) {
	repo := vcs.Init("main", vcs.WithClock(tickingClock()))
	require.NoError(t, repo.AddNode("A", nil, 1))
	tip, err := repo.Commit("seed")
	require.NoError(t, err)
	require.NoError(t, repo.Branch("feature"))

	result, err := repo.Merge("feature", vcs.OURS)
	require.NoError(t, err)
	assert.Equal(t, tip, result.MergeCommitID)
	assert.Empty(t, result.Conflicts)
}

func TestDivergentMergeWithOurs(t *testing.T) {
	repo := vcs.Init("main", vcs.WithClock(tickingClock()))
	require.NoError(t, repo.AddNode("X", map[string]string{"v": "0"}, 1))
	_, err := repo.Commit("seed")
	require.NoError(t, err)

	require.NoError(t, repo.Branch("feature"))
	require.NoError(t, repo.Checkout("feature"))
	require.NoError(t, repo.UpdateNode("X", map[string]string{"v": "2"}, 3))
	_, err = repo.Commit("feature updates X to 2")
	require.NoError(t, err)

	require.NoError(t, repo.Checkout("main"))
	require.NoError(t, repo.UpdateNode("X", map[string]string{"v": "1"}, 2))
	_, err = repo.Commit("main updates X to 1")
	require.NoError(t, err)

	result, err := repo.Merge("feature", vcs.OURS)
	require.NoError(t, err)

	assert.Equal(t, []string{"X"}, result.Conflicts)
	assert.Equal(t, "1", repo.Graph().GetNodes()["X"]["v"])
}

func TestDivergentMergeWithTheirs(t *testing.T) {
	repo := vcs.Init("main", vcs.WithClock(tickingClock()))
	require.NoError(t, repo.AddNode("X", map[string]string{"v": "0"}, 1))
	_, err := repo.Commit("seed")
	require.NoError(t, err)

	require.NoError(t, repo.Branch("feature"))
	require.NoError(t, repo.Checkout("feature"))
	require.NoError(t, repo.UpdateNode("X", map[string]string{"v": "2"}, 3))
	_, err = repo.Commit("feature updates X to 2")
	require.NoError(t, err)

	require.NoError(t, repo.Checkout("main"))
	require.NoError(t, repo.UpdateNode("X", map[string]string{"v": "1"}, 2))
	_, err = repo.Commit("main updates X to 1")
	require.NoError(t, err)

	result, err := repo.Merge("feature", vcs.THEIRS)
	require.NoError(t, err)

	assert.Equal(t, []string{"X"}, result.Conflicts)
	assert.Equal(t, "2", repo.Graph().GetNodes()["X"]["v"])
}

func TestMergeUnknownBranch(t *testing.T) {
	repo := vcs.Init("main", vcs.WithClock(tickingClock()))
	_, err := repo.Merge("ghost", vcs.OURS)
	var tagged *chronoerr.Error
	assert.True(t, errors.As(err, &tagged))
	assert.Equal(t, chronoerr.UnknownBranch, tagged.Kind)
}

func TestDivergentMergeWithUnion(t *testing.T) {
	repo := vcs.Init("main", vcs.WithClock(tickingClock()))
	require.NoError(t, repo.AddNode("X", map[string]string{"v": "0"}, 1))
	_, err := repo.Commit("seed")
	require.NoError(t, err)

	require.NoError(t, repo.Branch("feature"))
	require.NoError(t, repo.Checkout("feature"))
	require.NoError(t, repo.UpdateNode("X", map[string]string{"v": "2"}, 3))
	_, err = repo.Commit("feature updates X to 2")
	require.NoError(t, err)

	require.NoError(t, repo.Checkout("main"))
	require.NoError(t, repo.UpdateNode("X", map[string]string{"v": "1"}, 2))
	_, err = repo.Commit("main updates X to 1")
	require.NoError(t, err)

	result, err := repo.Merge("feature", vcs.UNION)
	require.NoError(t, err)

	assert.Equal(t, []string{"X"}, result.Conflicts)
	// Union replays both branches' updates in time order: main's t=2 update
	// applies, then feature's t=3 update applies over it, so 2 wins.
	assert.Equal(t, "2", repo.Graph().GetNodes()["X"]["v"])
}

func TestCommitContentHashDedupesIdenticalSiblingCommits(t *testing.T) {
	repo := vcs.Init("main", vcs.WithClock(constantClock(5)), vcs.WithAuthor("ada"))
	require.NoError(t, repo.AddNode("X", map[string]string{"v": "0"}, 1))
	seed, err := repo.Commit("seed")
	require.NoError(t, err)

	require.NoError(t, repo.Branch("left"))
	require.NoError(t, repo.Branch("right"))

	require.NoError(t, repo.Checkout("left"))
	require.NoError(t, repo.AddNode("Y", nil, 2))
	leftId, err := repo.Commit("add Y")
	require.NoError(t, err)

	require.NoError(t, repo.Checkout("right"))
	require.NoError(t, repo.AddNode("Y", nil, 2))
	rightId, err := repo.Commit("add Y")
	require.NoError(t, err)

	// Same parent, message, author, timestamp and resulting state: the
	// content hash must land on the same id regardless of which branch
	// produced it.
	assert.Equal(t, leftId, rightId)
	assert.NotEqual(t, seed, leftId)
}

func TestMergeCrissCrossTieBreakIsDeterministic(t *testing.T) {
	build := func() vcs.CommitId {
		repo := vcs.Init("main", vcs.WithClock(constantClock(1)), vcs.WithAuthor("ada"))
		require.NoError(t, repo.AddNode("X", map[string]string{"v": "0"}, 1))
		_, err := repo.Commit("seed")
		require.NoError(t, err)

		require.NoError(t, repo.Branch("left"))
		require.NoError(t, repo.Branch("right"))

		require.NoError(t, repo.Checkout("left"))
		require.NoError(t, repo.AddNode("L", nil, 2))
		_, err = repo.Commit("left adds L")
		require.NoError(t, err)

		require.NoError(t, repo.Checkout("right"))
		require.NoError(t, repo.AddNode("R", nil, 2))
		_, err = repo.Commit("right adds R")
		require.NoError(t, err)

		// Pin left's pre-merge tip so both cross-merges start from the same
		// pair of tips.
		require.NoError(t, repo.Checkout("left"))
		require.NoError(t, repo.Branch("left-pre"))

		// Cross-merge: left takes right, and right takes left's pre-merge
		// tip. Both merge commits have the left and right tips as parents,
		// so merging them has two lowest common ancestors. Every commit
		// shares the same CreatedAt (the clock is constant), so the choice
		// falls to the lexicographic tie-break to stay deterministic.
		_, err = repo.Merge("right", vcs.UNION)
		require.NoError(t, err)

		require.NoError(t, repo.Checkout("right"))
		_, err = repo.Merge("left-pre", vcs.UNION)
		require.NoError(t, err)

		require.NoError(t, repo.Checkout("left"))
		result, err := repo.Merge("right", vcs.UNION)
		require.NoError(t, err)
		return result.MergeCommitID
	}

	first := build()
	second := build()
	assert.Equal(t, first, second)
}
