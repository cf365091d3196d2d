package platform

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParse(t *testing.T) {
	p, err := Parse("  Instagram ")
	require.NoError(t, err)
	assert.Equal(t, Instagram, p)

	_, err = Parse("myspace")
	assert.ErrorIs(t, err, ErrUnsupported)

	_, err = Parse("")
	assert.ErrorIs(t, err, ErrUnsupported)
}

func TestCategory(t *testing.T) {
	assert.Equal(t, CategoryFollower, Instagram.Category())
	assert.Equal(t, CategoryFollower, TikTok.Category())
	assert.Equal(t, CategoryFollower, Facebook.Category())
	assert.Equal(t, CategoryFollower, Twitter.Category())
	assert.Equal(t, CategorySubscriber, YouTube.Category())
	assert.Equal(t, CategoryListener, Spotify.Category())
	assert.Equal(t, CategoryListener, SoundCloud.Category())
}

func TestNormalizeUsername(t *testing.T) {
	assert.Equal(t, "djsample", NormalizeUsername(" @djsample "))
	assert.Equal(t, "djsample", NormalizeUsername("djsample"))
	assert.Equal(t, "", NormalizeUsername(" @ "))
}
