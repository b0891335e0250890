package checkers

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/wordsift/wordsift/internal/types"
)

func TestURL(t *testing.T) {
	c := NewURL(5, 70)
	cases := []struct {
		text string
		pos  int
		want int
	}{
		{"http://a.cn now", 0, 11},
		{"HTTPS://Example.COM/path?q=1 x", 0, 28},
		{"www.example.com.", 0, 15},
		{"see http://a.cn", 4, 11},
		{"a.cn", 0, 0},
		{"visit", 0, 0},
		{"example.com", 0, 0},
		{"ftp://files.example.org:21/pub", 0, 30},
		{"http://x.y/" + strings.Repeat("a", 80), 0, 0},
		{"二货", 0, 0},
		{"http://a", 0, 0},
		{"http://localhost", 0, 0},
		{"http://localhost:8080/x", 0, 0},
		{"http://10.0.0.1/x", 0, 0},
		{"http://a.c", 0, 0},
		{"www.cn", 0, 0},
		{"http://my-host.co.uk:8080/a", 0, 27},
	}
	for _, tc := range cases {
		res := classify(t, c, tc.text, tc.pos)
		assert.Equal(t, tc.want, res.Deny, tc.text)
		assert.Equal(t, 0, res.Allow)
		if tc.want > 0 {
			assert.Equal(t, types.TypeURL, res.Type)
		}
	}
}

func TestEmail(t *testing.T) {
	c := NewEmail()
	assert.Equal(t, 17, classify(t, c, "bob.smith@mail.io.", 0).Deny)
	assert.Equal(t, 0, classify(t, c, "bob@localhost", 0).Deny)
	assert.Equal(t, 0, classify(t, c, "@mail.io", 0).Deny)
}

func TestNum(t *testing.T) {
	c := NewNum(8)
	assert.Equal(t, 11, classify(t, c, "13800138000", 0).Deny)
	assert.Equal(t, 0, classify(t, c, "1234567", 0).Deny)
	// styled digits fold to ASCII before the run is measured
	assert.Equal(t, 8, classify(t, c, "①②③④⑤⑥⑦⑧", 0).Deny)
}

func TestIPv4(t *testing.T) {
	c := NewIPv4()
	assert.Equal(t, 11, classify(t, c, "192.168.1.1.", 0).Deny)
	assert.Equal(t, 0, classify(t, c, "999.1.1.1", 0).Deny)
	assert.Equal(t, 0, classify(t, c, "1.2.3", 0).Deny)
}
