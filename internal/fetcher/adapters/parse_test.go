package adapters

import (
	"strings"
	"testing"

	"github.com/PuerkitoBio/goquery"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseApproxCount(t *testing.T) {
	cases := []struct {
		raw  string
		want int64
	}{
		{"1234", 1234},
		{"1,234", 1234},
		{"12.3K", 12300},
		{"12.3k", 12300},
		{"4.5M", 4500000},
		{"1B", 1000000000},
		{" 42 ", 42},
		{"0", 0},
	}
	for _, tc := range cases {
		got, err := ParseApproxCount(tc.raw)
		require.NoError(t, err, tc.raw)
		assert.Equal(t, tc.want, got, tc.raw)
	}

	for _, raw := range []string{"", "abc", "-5", "  "} {
		_, err := ParseApproxCount(raw)
		assert.ErrorIs(t, err, ErrNoCount, raw)
	}
}

func TestCountBefore(t *testing.T) {
	got, err := CountBefore("1,234 Followers, 56 Following, 7 Posts", "Followers")
	require.NoError(t, err)
	assert.Equal(t, int64(1234), got)

	got, err = CountBefore("1,234 Followers, 56 Following, 7 Posts", "following")
	require.NoError(t, err)
	assert.Equal(t, int64(56), got)

	got, err = CountBefore("12.5K subscribers", "subscribers")
	require.NoError(t, err)
	assert.Equal(t, int64(12500), got)

	_, err = CountBefore("no numbers here", "Followers")
	assert.ErrorIs(t, err, ErrNoCount)

	_, err = CountBefore("Followers 100", "Followers")
	assert.ErrorIs(t, err, ErrNoCount, "label at position zero has no preceding count")
}

func TestMetaContent(t *testing.T) {
	html := `<html><head>
		<meta property="og:description" content="1,234 Followers" />
		<meta name="description" content="fallback text" />
	</head><body></body></html>`
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	require.NoError(t, err)

	assert.Equal(t, "1,234 Followers", MetaContent(doc, "og:description"))
	assert.Equal(t, "fallback text", MetaContent(doc, "description"))
	assert.Equal(t, "", MetaContent(doc, "og:title"))
}

func TestJSONFields(t *testing.T) {
	html := `{"user":{"username":"djsample","followerCount":48210,"followingCount":120}}`

	assert.Equal(t, "djsample", JSONStringField(html, "username"))
	assert.Equal(t, "", JSONStringField(html, "missing"))

	count, ok := JSONNumberField(html, "followerCount")
	require.True(t, ok)
	assert.Equal(t, int64(48210), count)

	_, ok = JSONNumberField(html, "missing")
	assert.False(t, ok)

	_, ok = JSONNumberField(`{"followerCount":"quoted"}`, "followerCount")
	assert.False(t, ok)
}
