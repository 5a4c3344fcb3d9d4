package service

import (
	"errors"
	"fmt"
	"math/rand/v2"

	"roro/internal/models"
)

const (
	PolicyUniform  = "uniform"
	PolicyWeighted = "weighted"
)

// errEmptyPool is returned when nothing in the pool can be drawn, including a
// weighted pool whose only candidates have weight 0.
var errEmptyPool = errors.New("candidate pool is empty")

// Rand is the randomness a draw needs. *rand.Rand satisfies it.
type Rand interface {
	IntN(n int) int
	Float64() float64
}

type globalRand struct{}

func (globalRand) IntN(n int) int   { return rand.IntN(n) }
func (globalRand) Float64() float64 { return rand.Float64() }

// DrawPolicy picks one prize from a non-empty pool.
type DrawPolicy interface {
	Name() string
	Draw(pool []models.Prize, rnd Rand) (models.Prize, error)
}

type uniformPolicy struct{}

// NewUniformPolicy gives every pool entry the same probability regardless of type.
func NewUniformPolicy() DrawPolicy {
	return uniformPolicy{}
}

func (uniformPolicy) Name() string { return PolicyUniform }

func (uniformPolicy) Draw(pool []models.Prize, rnd Rand) (models.Prize, error) {
	if len(pool) == 0 {
		return models.Prize{}, errEmptyPool
	}
	return pool[rnd.IntN(len(pool))], nil
}

type weightedPolicy struct {
	weights map[string]float64
}

// NewWeightedPolicy picks a prize type by weight, then an entry uniformly within
// that type. Weights are renormalised over the types present in the pool; a type
// with weight 0 is never drawn.
func NewWeightedPolicy(weights map[string]float64) (DrawPolicy, error) {
	for t, w := range weights {
		if !isPrizeType(t) {
			return nil, fmt.Errorf("unknown prize type %q in weights", t)
		}
		if w < 0 {
			return nil, fmt.Errorf("negative weight for %q", t)
		}
	}
	return weightedPolicy{weights: weights}, nil
}

func (weightedPolicy) Name() string { return PolicyWeighted }

func (p weightedPolicy) Draw(pool []models.Prize, rnd Rand) (models.Prize, error) {
	if len(pool) == 0 {
		return models.Prize{}, errEmptyPool
	}

	byType := make(map[string][]models.Prize, len(models.PrizeTypes))
	for _, prize := range pool {
		byType[prize.Type] = append(byType[prize.Type], prize)
	}

	var total float64
	var eligible []string
	for _, t := range models.PrizeTypes {
		if len(byType[t]) > 0 && p.weights[t] > 0 {
			eligible = append(eligible, t)
			total += p.weights[t]
		}
	}
	// only zero-weight types have candidates
	if len(eligible) == 0 {
		return models.Prize{}, errEmptyPool
	}

	u := rnd.Float64() * total
	chosen := eligible[len(eligible)-1]
	var cumulative float64
	for _, t := range eligible {
		cumulative += p.weights[t]
		if u < cumulative {
			chosen = t
			break
		}
	}

	candidates := byType[chosen]
	return candidates[rnd.IntN(len(candidates))], nil
}

func isPrizeType(t string) bool {
	for _, known := range models.PrizeTypes {
		if known == t {
			return true
		}
	}
	return false
}

// NewDrawPolicy builds the policy named by GACHA_POLICY.
func NewDrawPolicy(name string, weights map[string]float64) (DrawPolicy, error) {
	switch name {
	case PolicyUniform, "":
		return NewUniformPolicy(), nil
	case PolicyWeighted:
		return NewWeightedPolicy(weights)
	default:
		return nil, fmt.Errorf("unknown gacha policy %q", name)
	}
}
