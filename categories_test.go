package main

import (
	"testing"

	"github.com/samber/lo"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRandomCategory_AlwaysFromAReachableEntry(t *testing.T) {
	reachable := make(map[string]bool)
	for _, tier := range difficulties {
		list := categories[tier]
		require.NotEmpty(t, list)
		for _, category := range list[:len(list)-1] {
			reachable[category] = true
		}
	}

	for i := 0; i < 2000; i++ {
		category := randomCategory()
		assert.True(t, reachable[category], "unexpected category %q", category)
	}
}

func TestRandomCategory_CoversEveryTier(t *testing.T) {
	seen := make(map[Difficulty]bool)

	for i := 0; i < 2000; i++ {
		category := randomCategory()
		for _, tier := range difficulties {
			if lo.Contains(categories[tier], category) {
				seen[tier] = true
			}
		}
	}

	for _, tier := range difficulties {
		assert.True(t, seen[tier], "tier %s never selected", tier)
	}
}
