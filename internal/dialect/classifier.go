package dialect

// Classification is the result of scoring evidence for a batch.
type Classification struct {
	Kind     Kind
	Score    int // hints for Kind
	Total    int // all hints
	RunnerUp Kind
	// Conflicting is set when hints point at more than one extension dialect;
	// Kind is then the highest-scoring one and some calls will still fail.
	Conflicting bool
}

// Classifier picks the dialect a batch of calls was written against.
// Without evidence the answer is Core.
type Classifier struct{}

func (Classifier) Classify(e *Evidence) Classification {
	hints := e.Hints()
	if len(hints) == 0 {
		return Classification{Kind: Core}
	}

	var scores [kindCount]int
	for _, h := range hints {
		if h.Dialect <= Core || h.Dialect >= kindCount {
			continue
		}
		scores[h.Dialect]++
	}

	best, bestScore := Core, 0
	runner, runnerScore := Core, 0
	for k := Core + 1; k < kindCount; k++ {
		s := scores[k]
		if s > bestScore {
			runner, runnerScore = best, bestScore
			best, bestScore = k, s
			continue
		}
		if s > runnerScore {
			runner, runnerScore = k, s
		}
	}
	return Classification{
		Kind:        best,
		Score:       bestScore,
		Total:       len(hints),
		RunnerUp:    runner,
		Conflicting: runnerScore > 0,
	}
}
