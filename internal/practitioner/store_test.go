package practitioner

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	id "cpdtrack/pkg/domain"
)

func put(store *InMemoryStore, fullName string) id.PractitionerID {
	p := Practitioner{
		ID:         id.NewPractitionerID(),
		UnitID:     id.NewUnitID(),
		FullName:   fullName,
		WorkStatus: WorkStatusActive,
	}
	store.Put(p)
	return p.ID
}

func TestEscapeLike(t *testing.T) {
	assert.Equal(t, `100\% certain`, escapeLike(`100% certain`))
	assert.Equal(t, `under\_score`, escapeLike(`under_score`))
	assert.Equal(t, `back\\slash`, escapeLike(`back\slash`))
	assert.Equal(t, `plain name`, escapeLike(`plain name`))
}

func TestSearchMatchesWildcardsLiterally(t *testing.T) {
	store := NewInMemoryStore()
	wanted := put(store, "Dr. 100% Nguyen")
	put(store, "Dr. 1000 Nguyen")
	put(store, "Dr. Tran")

	// A search term containing LIKE wildcards matches as plain text, never
	// as a pattern.
	page, err := store.ListFiltered(context.Background(), Filter{Search: "100%"}, 10, 0)
	require.NoError(t, err)
	require.Len(t, page, 1)
	assert.Equal(t, wanted, page[0].ID)
}

func TestListFilteredStableOrderAndPaging(t *testing.T) {
	store := NewInMemoryStore()
	put(store, "Binh")
	put(store, "An")
	put(store, "Chi")

	first, err := store.ListFiltered(context.Background(), Filter{}, 2, 0)
	require.NoError(t, err)
	require.Len(t, first, 2)
	assert.Equal(t, "An", first[0].FullName)
	assert.Equal(t, "Binh", first[1].FullName)

	second, err := store.ListFiltered(context.Background(), Filter{}, 2, 2)
	require.NoError(t, err)
	require.Len(t, second, 1)
	assert.Equal(t, "Chi", second[0].FullName)
}
