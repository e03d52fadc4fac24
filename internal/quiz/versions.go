package quiz

import (
	"context"
	"fmt"
	"math/rand"
	"strings"
	"sync"
)

// MaxVersions caps the pre-generated version pool per quiz.
const MaxVersions = 10

// Generator builds the immutable presentation orderings of a quiz.
type Generator struct {
	store Store

	mu  sync.Mutex
	rnd *rand.Rand
}

func NewGenerator(store Store, rnd *rand.Rand) *Generator {
	return &Generator{store: store, rnd: rnd}
}

// Generate materializes the version pool for a quiz and persists it in
// one transaction. Non-random quizzes get exactly one version in
// natural order; random quizzes get up to MaxVersions distinct
// question orderings with independently shuffled selections. Runs once
// per quiz, after creation.
func (g *Generator) Generate(ctx context.Context, q Quiz) error {
	questions, err := g.store.QuestionsByQuiz(ctx, q.ID)
	if err != nil {
		return fmt.Errorf("load questions: %w", err)
	}
	questionIDs := make([]int64, len(questions))
	for i, qu := range questions {
		questionIDs[i] = qu.ID
	}

	selectionsOf := make(map[int64][]int64, len(questionIDs))
	for _, id := range questionIDs {
		ids, err := g.store.SelectionIDsByQuestion(ctx, id)
		if err != nil {
			return fmt.Errorf("load selections for question %d: %w", id, err)
		}
		selectionsOf[id] = ids
	}

	var versions []Version
	if q.IsRandom {
		versions = g.randomVersions(q, questionIDs, selectionsOf)
	} else {
		ordered := questionIDs[:q.SelectCount]
		v := Version{QuizID: q.ID, Number: 1, QuestionIDs: ordered, SelectionIDs: map[int64][]int64{}}
		for _, id := range ordered {
			v.SelectionIDs[id] = selectionsOf[id]
		}
		versions = []Version{v}
	}

	return g.store.PutVersions(ctx, versions)
}

// randomVersions samples distinct select-count-sized orderings instead
// of enumerating every permutation, so large quizzes stay cheap. The
// pool size is capped at MaxVersions by construction.
func (g *Generator) randomVersions(q Quiz, questionIDs []int64, selectionsOf map[int64][]int64) []Version {
	g.mu.Lock()
	defer g.mu.Unlock()

	target := orderingCount(len(questionIDs), q.SelectCount, MaxVersions)
	seen := make(map[string]bool, target)
	pool := make([]int64, len(questionIDs))
	copy(pool, questionIDs)

	versions := make([]Version, 0, target)
	for len(versions) < target {
		g.rnd.Shuffle(len(pool), func(i, j int) { pool[i], pool[j] = pool[j], pool[i] })
		ordered := make([]int64, q.SelectCount)
		copy(ordered, pool[:q.SelectCount])

		key := orderingKey(ordered)
		if seen[key] {
			continue
		}
		seen[key] = true

		v := Version{
			QuizID:       q.ID,
			Number:       len(versions) + 1,
			QuestionIDs:  ordered,
			SelectionIDs: make(map[int64][]int64, len(ordered)),
		}
		for _, id := range ordered {
			ids := make([]int64, len(selectionsOf[id]))
			copy(ids, selectionsOf[id])
			g.rnd.Shuffle(len(ids), func(i, j int) { ids[i], ids[j] = ids[j], ids[i] })
			v.SelectionIDs[id] = ids
		}
		versions = append(versions, v)
	}
	return versions
}

// orderingCount is min(cap, P(n, k)): the number of distinct ordered
// question sequences of length k drawn from n questions.
func orderingCount(n, k, max int) int {
	total := 1
	for i := 0; i < k; i++ {
		total *= n - i
		if total >= max {
			return max
		}
	}
	return total
}

func orderingKey(ids []int64) string {
	var b strings.Builder
	for _, id := range ids {
		fmt.Fprintf(&b, "%d,", id)
	}
	return b.String()
}
