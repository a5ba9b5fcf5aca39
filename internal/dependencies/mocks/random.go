package mocks

import (
	"sync"

	"github.com/mcoot/cardduel/internal/dependencies/random"
)

// MockRandom is a mock implementation of Random for testing
type MockRandom struct {
	mu sync.Mutex

	// IntnResults is a queue of results to return from Intn
	IntnResults []int
	intnIndex   int

	// SampleResults is a queue of results to return from Sample. When it is
	// empty Sample falls back to drawing through Intn, which yields the
	// first k indexes if no Intn results are queued.
	SampleResults [][]int
	sampleIndex   int

	// StringResults is a queue of results to return from String
	StringResults []string
	stringIndex   int
}

// Ensure MockRandom implements Random
var _ random.Random = (*MockRandom)(nil)

// NewMockRandom creates a new MockRandom
func NewMockRandom() *MockRandom {
	return &MockRandom{}
}

// Intn returns the next queued result, or 0 if none remaining
func (r *MockRandom) Intn(n int) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.nextIntn()
}

func (r *MockRandom) nextIntn() int {
	if r.intnIndex >= len(r.IntnResults) {
		return 0
	}
	result := r.IntnResults[r.intnIndex]
	r.intnIndex++
	return result
}

// Sample returns the next queued sample, or draws through the Intn queue
func (r *MockRandom) Sample(n, k int) []int {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.sampleIndex < len(r.SampleResults) {
		result := r.SampleResults[r.sampleIndex]
		r.sampleIndex++
		return result
	}
	return random.SampleWith(intnFunc(func(int) int { return r.nextIntn() }), n, k)
}

// String returns the next queued result, or empty string if none remaining
func (r *MockRandom) String(length int, alphabet string) string {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.stringIndex >= len(r.StringResults) {
		return ""
	}
	result := r.StringResults[r.stringIndex]
	r.stringIndex++
	return result
}

// QueueIntn adds values to the Intn result queue
func (r *MockRandom) QueueIntn(values ...int) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.IntnResults = append(r.IntnResults, values...)
}

// QueueSample adds one Sample result
func (r *MockRandom) QueueSample(indexes ...int) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.SampleResults = append(r.SampleResults, indexes)
}

// QueueString adds values to the String result queue
func (r *MockRandom) QueueString(values ...string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.StringResults = append(r.StringResults, values...)
}

// Reset clears all queued results
func (r *MockRandom) Reset() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.IntnResults = nil
	r.intnIndex = 0
	r.SampleResults = nil
	r.sampleIndex = 0
	r.StringResults = nil
	r.stringIndex = 0
}

type intnFunc func(int) int

func (f intnFunc) Intn(n int) int { return f(n) }
