package menu

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const orangeChicken = `{"data":{"itemPage":{"itemHeader":{"name":"Orange Chicken","description":"Tangy","unitAmount":1099},"optionLists":[{"options":[{"name":"Spicy","unitAmount":50}]}]}}}`

func TestParseItemPage(t *testing.T) {
	items, err := ParseItemPage([]byte(orangeChicken))
	require.NoError(t, err)
	require.Len(t, items, 1)

	assert.Equal(t, Item{
		Name:        "Orange Chicken",
		Description: "Tangy",
		Price:       10.99,
		Options:     []Option{{Name: "Spicy", Price: 0.5}},
	}, items[0])
}

func TestParseItemPageDefaults(t *testing.T) {
	testCases := []struct {
		name     string
		body     string
		expected Item
	}{
		{
			name: "no description, no amount",
			body: `{"data":{"itemPage":{"itemHeader":{"name":"Rice"}}}}`,
			expected: Item{
				Name:        "Rice",
				Description: DefaultDescription,
				Options:     []Option{},
			},
		},
		{
			name: "list without options key",
			body: `{"data":{"itemPage":{"itemHeader":{"name":"Bowl","unitAmount":850},"optionLists":[{"name":"Size"},{"options":[{"name":"Large","unitAmount":150},{"name":"Extra sauce"}]}]}}}`,
			expected: Item{
				Name:        "Bowl",
				Description: DefaultDescription,
				Price:       8.5,
				Options: []Option{
					{Name: "Large", Price: 1.5},
					{Name: "Extra sauce", Price: 0},
				},
			},
		},
		{
			name: "options flattened across lists in order",
			body: `{"data":{"itemPage":{"itemHeader":{"name":"Plate","description":"Two entrees","unitAmount":1150},"optionLists":[{"options":[{"name":"A","unitAmount":100}]},{"options":[{"name":"B","unitAmount":200},{"name":"C","unitAmount":300}]}]}}}`,
			expected: Item{
				Name:        "Plate",
				Description: "Two entrees",
				Price:       11.5,
				Options: []Option{
					{Name: "A", Price: 1},
					{Name: "B", Price: 2},
					{Name: "C", Price: 3},
				},
			},
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			items, err := ParseItemPage([]byte(tc.body))
			require.NoError(t, err)
			require.Len(t, items, 1)
			assert.Equal(t, tc.expected, items[0])
		})
	}
}

func TestParseItemPageBatched(t *testing.T) {
	body := `[` + orangeChicken + `,{"data":{"itemPage":{"itemHeader":{"name":"Chow Mein","unitAmount":500}}}}]`

	items, err := ParseItemPage([]byte(body))
	require.NoError(t, err)
	require.Len(t, items, 2)
	assert.Equal(t, "Orange Chicken", items[0].Name)
	assert.Equal(t, "Chow Mein", items[1].Name)
	assert.Equal(t, 5.0, items[1].Price)
}

func TestParseItemPageErrors(t *testing.T) {
	_, err := ParseItemPage([]byte(`{"data":`))
	require.Error(t, err)

	_, err = ParseItemPage([]byte(`{"data":{"storepageFeed":{}}}`))
	require.ErrorIs(t, err, ErrNoItemPage)

	items, err := ParseItemPage([]byte(`{"data":{"itemPage":{"itemHeader":{"description":"nameless","unitAmount":100}}}}`))
	require.ErrorIs(t, err, ErrMissingName)
	assert.Empty(t, items)
}

func TestParseItemPagePartialBatch(t *testing.T) {
	body := `[{"data":{"itemPage":{"itemHeader":{}}}},` + orangeChicken + `]`

	items, err := ParseItemPage([]byte(body))
	require.ErrorIs(t, err, ErrMissingName)
	require.Len(t, items, 1)
	assert.Equal(t, "Orange Chicken", items[0].Name)
}

func TestMatchesEndpoint(t *testing.T) {
	prefix := "https://www.doordash.com/graphql/itemPage?operation=itemPage"

	assert.True(t, MatchesEndpoint(prefix+"&itemId=1", prefix))
	assert.True(t, MatchesEndpoint(prefix, prefix))
	assert.False(t, MatchesEndpoint("https://www.doordash.com/graphql/storepageFeed?operation=storepageFeed", prefix))
	assert.False(t, MatchesEndpoint("http://www.doordash.com/graphql/itemPage?operation=itemPage", prefix))
	assert.False(t, MatchesEndpoint(prefix, ""))
}

func TestParseItemPageIgnoresNestedPages(t *testing.T) {
	body := `{"data":{"itemPage":{"itemHeader":{"name":"Orange Chicken","unitAmount":1099},` +
		`"recommended":[{"itemPage":{"itemHeader":{"name":"Egg Roll","unitAmount":200}}}]}},` +
		`"extensions":{"itemPage":{"itemHeader":{"name":"Orange Chicken"}}}}`

	for i := 0; i < 50; i++ {
		items, err := ParseItemPage([]byte(body))
		require.NoError(t, err)
		require.Len(t, items, 1)
		assert.Equal(t, "Orange Chicken", items[0].Name)
		assert.Equal(t, 10.99, items[0].Price)
	}
}

func TestParseItemPageRequiresDataEnvelope(t *testing.T) {
	_, err := ParseItemPage([]byte(`{"itemPage":{"itemHeader":{"name":"Rice"}}}`))
	require.ErrorIs(t, err, ErrNoItemPage)

	_, err = ParseItemPage([]byte(`[{"data":{"storepageFeed":{"itemPage":{"itemHeader":{"name":"Rice"}}}}}]`))
	require.ErrorIs(t, err, ErrNoItemPage)
}

func TestParseItemPageBlankFields(t *testing.T) {
	items, err := ParseItemPage([]byte(`{"data":{"itemPage":{"itemHeader":{"name":"Rice","description":"   "}}}}`))
	require.NoError(t, err)
	require.Len(t, items, 1)
	assert.Equal(t, DefaultDescription, items[0].Description)

	items, err = ParseItemPage([]byte(`{"data":{"itemPage":{"itemHeader":{"name":"  ","description":"blank"}}}}`))
	require.ErrorIs(t, err, ErrMissingName)
	assert.Empty(t, items)
}
