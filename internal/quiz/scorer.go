package quiz

import (
	"math"
	"math/rand"
	"sync"
	"time"
)

// Scorer turns the stored answers into a percentage score.
type Scorer interface {
	Score(questions []Question, answers map[int]int) int
	// Demo reports whether scores are simulated rather than graded.
	Demo() bool
}

// KeyScorer grades answers against each question's answer key.
type KeyScorer struct{}

func (KeyScorer) Score(questions []Question, answers map[int]int) int {
	if len(questions) == 0 {
		return 0
	}
	correct := 0
	for i, question := range questions {
		answer, ok := answers[i]
		if ok && question.Answer != nil && *question.Answer == answer {
			correct++
		}
	}
	return int(math.Round(float64(correct) / float64(len(questions)) * 100))
}

func (KeyScorer) Demo() bool { return false }

// DemoScorer ignores the answers and returns a random passing score between
// 70 and 100. It exists for quizzes shipped without an answer key.
type DemoScorer struct {
	mu  sync.Mutex
	rnd *rand.Rand
}

// NewDemoScorer seeds a demo scorer. A zero seed uses the current time.
func NewDemoScorer(seed int64) *DemoScorer {
	if seed == 0 {
		seed = time.Now().UnixNano()
	}
	return &DemoScorer{rnd: rand.New(rand.NewSource(seed))}
}

func (s *DemoScorer) Score([]Question, map[int]int) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return PassMark + s.rnd.Intn(100-PassMark+1)
}

func (s *DemoScorer) Demo() bool { return true }

func hasAnswerKey(questions []Question) bool {
	if len(questions) == 0 {
		return false
	}
	for _, question := range questions {
		if question.Answer == nil {
			return false
		}
	}
	return true
}
