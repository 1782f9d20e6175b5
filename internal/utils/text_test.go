package utils

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFold(t *testing.T) {
	t.Parallel()

	tests := []struct {
		input string
		want  string
	}{
		{input: "São Paulo", want: "sao paulo"},
		{input: "  Full-Stack   Developer ", want: "full stack developer"},
		{input: "U.S.A.", want: "u s a"},
		{input: "Zürich", want: "zurich"},
		{input: "", want: ""},
		{input: "---", want: ""},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tt.want, Fold(tt.input))
		})
	}
}

func TestSlugify(t *testing.T) {
	t.Parallel()

	assert.Equal(t, "underwater_basket_weaver", Slugify("Underwater Basket-Weaver"))
	assert.Equal(t, "chef_de_cuisine", Slugify("Chef de Cuisine"))
	assert.Equal(t, "", Slugify("  "))
}

func TestTitleCase(t *testing.T) {
	t.Parallel()

	assert.Equal(t, "Texas", TitleCase("texas"))
	assert.Equal(t, "North Holland", TitleCase("  north   holland "))
	assert.Equal(t, "", TitleCase(" "))
}

func TestRound(t *testing.T) {
	t.Parallel()

	assert.InDelta(t, 114800, Round(114750, 100), 1e-9)
	assert.InDelta(t, 12.35, Round(12.346, 0), 1e-9)
	assert.Equal(t, 6561.33, Round(78736.0/12, 0.01))
}

func TestWaitForRespectsContext(t *testing.T) {
	original := sleep
	block := make(chan struct{})
	sleep = func(time.Duration) { <-block }
	t.Cleanup(func() {
		close(block)
		sleep = original
	})

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := WaitFor(ctx, time.Hour)
	require.ErrorIs(t, err, context.Canceled)
	require.NoError(t, WaitFor(context.Background(), 0))
}
