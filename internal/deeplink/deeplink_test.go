package deeplink

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCapturePriority(t *testing.T) {
	link, ok := Capture("https://wallet.example/?id=low&code=mid&session=%20top%20")
	require.True(t, ok)
	assert.Equal(t, "top", link.SessionID)
	assert.Equal(t, DefaultSource, link.Source)

	link, ok = Capture("https://wallet.example/?qr=q1&id=i1")
	require.True(t, ok)
	assert.Equal(t, "q1", link.SessionID)
}

func TestCaptureFromFragment(t *testing.T) {
	link, ok := Capture("https://wallet.example/app#/wallet?code=abc&intent=USE_CARD&source=Push")
	require.True(t, ok)
	assert.Equal(t, Link{SessionID: "abc", Intent: "use_card", Source: "push"}, link)
}

func TestCaptureSkipsBadEscapes(t *testing.T) {
	link, ok := Capture("https://wallet.example/app#/wallet?session=abc&note=100%")
	require.True(t, ok)
	assert.Equal(t, "abc", link.SessionID)

	link, ok = Capture("https://wallet.example/?note=%zz&code=c1")
	require.True(t, ok)
	assert.Equal(t, "c1", link.SessionID)
}

func TestCaptureQueryIntentWins(t *testing.T) {
	link, ok := Capture("https://wallet.example/?intent=add_card#/x?session=s1&intent=use_card")
	require.True(t, ok)
	assert.Equal(t, "s1", link.SessionID)
	assert.Equal(t, "add_card", link.Intent)
}

func TestCaptureNothing(t *testing.T) {
	_, ok := Capture("https://wallet.example/?session=%20&other=1")
	assert.False(t, ok)
	_, ok = Capture("://bad")
	assert.False(t, ok)
}

func TestScrub(t *testing.T) {
	assert.Equal(t, "https://wallet.example/?keep=1#/wallet?tab=2",
		Scrub("https://wallet.example/?session=s1&keep=1&intent=use_card#/wallet?code=c&tab=2&source=qr"))
	assert.Equal(t, "https://wallet.example/app#/share",
		Scrub("https://wallet.example/app#/share?qr=x"))

	assert.Equal(t, "https://wallet.example/app#/wallet?note=100%",
		Scrub("https://wallet.example/app#/wallet?session=abc&note=100%"))
	assert.Equal(t, "https://wallet.example/?b=2&a=1",
		Scrub("https://wallet.example/?b=2&session=s1&a=1"))

	untouched := "https://wallet.example/?keep=1"
	assert.Equal(t, untouched, Scrub(untouched))
}

func TestBuildRoundTrip(t *testing.T) {
	raw, err := Build("http://localhost:8080/", "abc", "use_card", "qr")
	require.NoError(t, err)

	link, ok := Capture(raw)
	require.True(t, ok)
	assert.Equal(t, Link{SessionID: "abc", Intent: "use_card", Source: "qr"}, link)
	assert.Equal(t, "http://localhost:8080/", Scrub(raw))
}
