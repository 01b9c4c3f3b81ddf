package classification

import (
	"math"
	"math/rand/v2"
	"sort"

	"github.com/stoik/email-fraud-classifier/internal/domain"
)

// DefaultTestFraction is the share of the corpus held out for evaluation
const DefaultTestFraction = 0.2

// Split is a stratified partition of a corpus
type Split struct {
	Train domain.Corpus
	Test  domain.Corpus
}

// StratifiedSplit partitions corpus into train and test subsets that each keep
// the corpus class proportions.
//
// The test size is ceil(testFraction * n). Per-class test counts are the floor
// of their exact share, with leftovers going to the largest remainders, and
// every class keeps at least one training example. Selection within a class is
// a seeded shuffle, so the same corpus, fraction and seed always give the same
// partition. Both subsets preserve the corpus order.
func StratifiedSplit(corpus domain.Corpus, testFraction float64, seed uint64) (Split, error) {
	if testFraction <= 0 || testFraction >= 1 {
		return Split{}, domain.NewConfigError("test fraction must be in (0, 1), got %g", testFraction)
	}
	if err := corpus.Validate(); err != nil {
		return Split{}, err
	}

	byClass := make(map[domain.Label][]int)
	for i, ex := range corpus {
		byClass[ex.Label] = append(byClass[ex.Label], i)
	}
	if len(byClass) < 2 {
		return Split{}, domain.NewDataError(nil, "stratified split needs both classes, corpus has only %s", corpus[0].Label)
	}
	for _, label := range domain.Labels {
		if len(byClass[label]) < 2 {
			return Split{}, domain.NewDataError(nil, "class %s has %d example(s), at least 2 are required", label, len(byClass[label]))
		}
	}

	n := len(corpus)
	nTest := int(math.Ceil(testFraction * float64(n)))
	alloc := allocateTestCounts(byClass, nTest, n)

	rng := rand.New(rand.NewPCG(seed, seed))
	inTest := make([]bool, n)
	for _, label := range domain.Labels {
		members := byClass[label]
		for _, p := range rng.Perm(len(members))[:alloc[label]] {
			inTest[members[p]] = true
		}
	}

	var split Split
	for i, ex := range corpus {
		if inTest[i] {
			split.Test = append(split.Test, ex)
		} else {
			split.Train = append(split.Train, ex)
		}
	}
	return split, nil
}

// allocateTestCounts distributes nTest held-out slots across classes in
// proportion to class size.
func allocateTestCounts(byClass map[domain.Label][]int, nTest, n int) map[domain.Label]int {
	type share struct {
		label     domain.Label
		count     int
		remainder float64
	}

	alloc := make(map[domain.Label]int, len(byClass))
	shares := make([]share, 0, len(byClass))
	assigned := 0
	for _, label := range domain.Labels {
		count := len(byClass[label])
		exact := float64(nTest) * float64(count) / float64(n)
		floor := int(math.Floor(exact))
		alloc[label] = floor
		assigned += floor
		shares = append(shares, share{label: label, count: count, remainder: exact - float64(floor)})
	}

	sort.SliceStable(shares, func(i, j int) bool {
		if shares[i].remainder != shares[j].remainder {
			return shares[i].remainder > shares[j].remainder
		}
		if shares[i].count != shares[j].count {
			return shares[i].count > shares[j].count
		}
		return shares[i].label < shares[j].label
	})
	for i := 0; assigned < nTest && i < len(shares); i++ {
		alloc[shares[i].label]++
		assigned++
	}

	for _, label := range domain.Labels {
		if maxTest := len(byClass[label]) - 1; alloc[label] > maxTest {
			alloc[label] = maxTest
		}
	}
	return alloc
}
