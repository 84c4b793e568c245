package slug

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestMake(t *testing.T) {
	cases := map[string]string{
		"My New Service!!":           "my-new-service",
		"  Web   Design & SEO  ":     "web-design-seo",
		"---Already-Slugged---":      "already-slugged",
		"UPPER_case_With_Underscore": "upper-case-with-underscore",
		"Café Menu 2024":             "caf-menu-2024",
		"!!!":                        "",
		"":                           "",
	}
	for in, want := range cases {
		assert.Equal(t, want, Make(in), "input %q", in)
	}
}

func TestIsValid(t *testing.T) {
	assert.True(t, IsValid("my-new-service"))
	assert.False(t, IsValid("My-New-Service"))
	assert.False(t, IsValid("-leading"))
	assert.False(t, IsValid(""))
}
