package persona

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type mockHealthScorer struct {
	mock.Mock
}

func (m *mockHealthScorer) Score(ctx context.Context, p Persona) (HealthScore, error) {
	args := m.Called(ctx, p.ID)
	return args.Get(0).(HealthScore), args.Error(1)
}

func TestRegistry_Load(t *testing.T) {
	t.Run("stores copies", func(t *testing.T) {
		personas := []Persona{eligible("a", ToneFriendly, UseCaseOnboarding)}
		rules := []SelectionRule{{ID: "r", Conditions: RuleConditions{CallTypes: []string{"x"}}, Action: RuleAction{UsePersona: "a"}}}

		r := NewRegistry()
		require.NoError(t, r.Load(personas, rules))

		personas[0].UseCases[0] = UseCaseEmergency
		rules[0].Conditions.CallTypes[0] = "y"

		got, ok := r.Lookup("a")
		require.True(t, ok)
		assert.Equal(t, UseCaseOnboarding, got.UseCases[0])
		assert.Equal(t, "x", r.Rules()[0].Conditions.CallTypes[0])

		got.UseCases[0] = UseCaseCollections
		again, _ := r.Lookup("a")
		assert.Equal(t, UseCaseOnboarding, again.UseCases[0])
	})

	t.Run("rejects empty id", func(t *testing.T) {
		r := NewRegistry()
		err := r.Load([]Persona{{Name: "nameless"}}, nil)
		assert.ErrorIs(t, err, ErrEmptyPersonaID)
	})

	t.Run("rejects duplicates and keeps old set", func(t *testing.T) {
		r := NewRegistry()
		require.NoError(t, r.Load([]Persona{eligible("keep", ToneFriendly)}, nil))

		err := r.Load([]Persona{eligible("dup", ToneFriendly), eligible("dup", TonePlayful)}, nil)
		assert.ErrorIs(t, err, ErrDuplicatePersona)

		assert.Equal(t, 1, r.Len())
		_, ok := r.Lookup("keep")
		assert.True(t, ok)
	})

	t.Run("accepts rules with unknown personas", func(t *testing.T) {
		r := NewRegistry()
		err := r.Load(nil, []SelectionRule{{ID: "orphan", Action: RuleAction{UsePersona: "nobody"}}})
		assert.NoError(t, err)
		assert.Len(t, r.Rules(), 1)
	})

	t.Run("preserves order", func(t *testing.T) {
		r := NewRegistry()
		require.NoError(t, r.Load([]Persona{
			eligible("c", ToneFriendly),
			eligible("a", ToneFriendly),
			eligible("b", ToneFriendly),
		}, nil))

		var ids []string
		for _, p := range r.Personas() {
			ids = append(ids, p.ID)
		}
		assert.Equal(t, []string{"c", "a", "b"}, ids)
	})
}

func TestRegistry_ConcurrentLoadIsAtomic(t *testing.T) {
	setA := []Persona{eligible("a1", ToneFriendly), eligible("a2", ToneFriendly)}
	setB := []Persona{eligible("b1", ToneFriendly), eligible("b2", ToneFriendly), eligible("b3", ToneFriendly)}

	r := NewRegistry()
	require.NoError(t, r.Load(setA, nil))

	var wg sync.WaitGroup
	stop := make(chan struct{})

	wg.Add(1)
	go func() {
		defer wg.Done()
		for i := 0; i < 200; i++ {
			if i%2 == 0 {
				_ = r.Load(setB, nil)
			} else {
				_ = r.Load(setA, nil)
			}
		}
		close(stop)
	}()

	for {
		select {
		case <-stop:
			wg.Wait()
			return
		default:
		}
		ps := r.Personas()
		require.NotEmpty(t, ps)
		prefix := ps[0].ID[:1]
		for _, p := range ps {
			require.Equal(t, prefix, p.ID[:1], "reader observed a mixed persona set")
		}
		if prefix == "a" {
			require.Len(t, ps, 2)
		} else {
			require.Len(t, ps, 3)
		}
	}
}

func TestRegistry_ApplyHealth(t *testing.T) {
	at := time.Date(2026, 10, 1, 0, 0, 0, 0, time.UTC)
	good := NewHealthScore(90, 80, 70, 60, at)

	stale := eligible("stale", ToneFriendly)
	stale.Health.Overall = 42

	r := NewRegistry()
	require.NoError(t, r.Load([]Persona{eligible("fresh", ToneFriendly), stale}, nil))

	scorer := new(mockHealthScorer)
	scorer.On("Score", mock.Anything, "fresh").Return(good, nil)
	scorer.On("Score", mock.Anything, "stale").Return(HealthScore{}, errors.New("analyzer down"))

	require.NoError(t, r.ApplyHealth(context.Background(), scorer))

	fresh, _ := r.Lookup("fresh")
	assert.InDelta(t, good.Overall, fresh.Health.Overall, 1e-9)
	assert.Equal(t, at, fresh.Health.AssessedAt)

	kept, _ := r.Lookup("stale")
	assert.InDelta(t, 42.0, kept.Health.Overall, 1e-9)

	scorer.AssertExpectations(t)
}

func TestRegistry_ApplyHealthCancelled(t *testing.T) {
	r := NewRegistry()
	require.NoError(t, r.Load([]Persona{eligible("p", ToneFriendly)}, nil))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	scorer := new(mockHealthScorer)
	scorer.On("Score", mock.Anything, "p").Return(HealthScore{}, context.Canceled)

	err := r.ApplyHealth(ctx, scorer)
	assert.ErrorIs(t, err, context.Canceled)
}
