package refs

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func Test_ReferenceIndex_LookupComputesOnce(t *testing.T) {
	index := NewReferenceIndex()
	computed := 0
	compute := func() SearchRecord {
		computed++
		return SearchRecord{Identifier: "x", Subject: "Assets/X.prefab"}
	}

	first := index.Lookup("x", compute)
	second := index.Lookup("x", compute)

	assert.Equal(t, 1, computed)
	assert.Equal(t, first, second)
	assert.Equal(t, IndexStats{Entries: 1, Hits: 1, Misses: 1}, index.Stats())
}

func Test_ReferenceIndex_ClearEvictsAll(t *testing.T) {
	index := NewReferenceIndex()
	computed := 0
	compute := func() SearchRecord {
		computed++
		return SearchRecord{}
	}

	index.Lookup("a", compute)
	index.Lookup("b", compute)
	index.Clear()

	assert.Equal(t, 0, index.Stats().Entries)

	index.Lookup("a", compute)
	assert.Equal(t, 3, computed)
}

func Test_ReferenceIndex_KeysByIdentifier(t *testing.T) {
	index := NewReferenceIndex()

	a := index.Lookup("a", func() SearchRecord { return SearchRecord{Subject: "Assets/A.prefab"} })
	b := index.Lookup("b", func() SearchRecord { return SearchRecord{Subject: "Assets/B.prefab"} })

	assert.Equal(t, "Assets/A.prefab", a.Subject)
	assert.Equal(t, "Assets/B.prefab", b.Subject)
	assert.Equal(t, 2, index.Stats().Entries)
}
