package session

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

const loginURL = "https://portal.example.edu/login"

func markers(n int) []Cookie {
	cookies := make([]Cookie, n)
	for i := range cookies {
		cookies[i] = Cookie{Name: RememberMeCookie, Value: "tok"}
	}
	return cookies
}

func TestIsLoginResponseRequiresLoginURL(t *testing.T) {
	cookies := markers(2)

	assert.True(t, IsLoginResponse(loginURL, loginURL, cookies))
	assert.False(t, IsLoginResponse("https://portal.example.edu/schedule", loginURL, cookies))
	assert.False(t, IsLoginResponse(loginURL+"?next=/", loginURL, cookies))
}

func TestIsLoginResponseRequiresExactlyTwoMarkers(t *testing.T) {
	for count, want := range map[int]bool{0: false, 1: false, 2: true, 3: false, 5: false} {
		cookies := markers(count)
		assert.Equal(t, want, IsLoginResponse(loginURL, loginURL, cookies),
			"marker count %d", count)
	}
}

func TestIsLoginResponseIgnoresOtherCookies(t *testing.T) {
	cookies := append(markers(2),
		Cookie{Name: "JSESSIONID", Value: "abc"},
		Cookie{Name: "route", Value: "node1"},
	)
	assert.True(t, IsLoginResponse(loginURL, loginURL, cookies))
}

func TestIsLoggedIn(t *testing.T) {
	assert.False(t, IsLoggedIn(nil))
	assert.False(t, IsLoggedIn(markers(1)))
	assert.True(t, IsLoggedIn(markers(2)))
	assert.False(t, IsLoggedIn(markers(3)))
}
