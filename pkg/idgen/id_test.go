package idgen_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/plaenen/modqueue/pkg/idgen"
)

func TestSortableID(t *testing.T) {
	a := idgen.SortableID()
	time.Sleep(2 * time.Millisecond)
	b := idgen.SortableID()

	assert.Len(t, a, 26)
	assert.NotEqual(t, a, b)
	assert.Less(t, a, b, "later IDs sort after earlier ones")
}
