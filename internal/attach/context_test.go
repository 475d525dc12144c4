package attach

import (
	"testing"

	"github.com/kutbudev/invctl/internal/models"
	"github.com/stretchr/testify/assert"
)

func TestContextSetOperations(t *testing.T) {
	c := newContext(models.Entity{Kind: models.KindBox, ID: 1, TagIDs: []int{3, 1, 3}})
	assert.Equal(t, []int{3, 1}, c.TagIDs)

	assert.False(t, c.add(1))
	assert.True(t, c.add(2))
	assert.Equal(t, []int{3, 1, 2}, c.TagIDs)

	snapshot := c.clone()
	assert.True(t, c.remove(3))
	assert.False(t, c.remove(3))
	assert.Equal(t, []int{1, 2}, c.TagIDs)
	assert.Equal(t, []int{3, 1, 2}, snapshot.TagIDs, "clones do not share storage")
}

func TestContextCopiesBoxID(t *testing.T) {
	boxID := 4
	e := models.Entity{Kind: models.KindItem, ID: 1, BoxID: &boxID}
	c := newContext(e)
	boxID = 5
	assert.Equal(t, 4, *c.BoxID)
}

func TestAvailableKeepsStoreOrder(t *testing.T) {
	c := newContext(models.Entity{Kind: models.KindTab, ID: 1, TagIDs: []int{2}})
	all := []models.Tag{{ID: 5}, {ID: 2}, {ID: 1}}
	got := c.Available(all)
	assert.Equal(t, []int{5, 1}, tagIDs(got))
	assert.Empty(t, c.Available(nil))
}
