package journal_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/jvilaplana/cartera/internal/journal"
)

func TestJournal_BeginIsMonotonicPerID(t *testing.T) {
	j := journal.New()

	assert.Equal(t, uint64(1), j.Begin("a"))
	assert.Equal(t, uint64(2), j.Begin("a"))
	assert.Equal(t, uint64(1), j.Begin("b"), "ids are sequenced independently")
}

func TestJournal_SettleRejectsStaleCompletion(t *testing.T) {
	j := journal.New()

	first := j.Begin("tx")
	second := j.Begin("tx")

	assert.True(t, j.Settle("tx", second))
	assert.False(t, j.Settle("tx", first), "older completion arriving late is discarded")
}

func TestJournal_SettleInOrder(t *testing.T) {
	j := journal.New()

	first := j.Begin("tx")
	second := j.Begin("tx")

	assert.True(t, j.Settle("tx", first))
	assert.True(t, j.Settle("tx", second))
}

func TestJournal_RenameCarriesHistory(t *testing.T) {
	j := journal.New()

	seq := j.Begin("provisional")
	j.Rename("provisional", "server-id")

	assert.True(t, j.Settle("server-id", seq))
	assert.Equal(t, seq+1, j.Begin("server-id"), "sequence continues under the new id")
}

func TestJournal_RenameKeepsNewerTarget(t *testing.T) {
	j := journal.New()

	j.Begin("old")
	j.Begin("new")
	newer := j.Begin("new")

	j.Rename("old", "new")

	assert.Equal(t, newer+1, j.Begin("new"))
}

func TestJournal_Reset(t *testing.T) {
	j := journal.New()

	j.Begin("a")
	j.Begin("a")
	j.Reset()

	assert.Equal(t, uint64(1), j.Begin("a"))
}
