package sanitize

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestStrip(t *testing.T) {
	cases := []struct {
		name string
		in   string
		want string
	}{
		{"plain text unchanged", "oi galera", "oi galera"},
		{"trims whitespace", "  Ana  ", "Ana"},
		{"removes tags", "<b>Ana</b>", "Ana"},
		{"removes nested markup", "<div><a href='x'>hi</a></div>", "hi"},
		{"empty after stripping", " <p></p> ", ""},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, Strip(tc.in))
		})
	}
}

func TestFieldsDoesNotMutateInput(t *testing.T) {
	in := map[string]string{"name": " <b>Ana</b> ", "text": "oi"}
	out := Fields(in)

	assert.Equal(t, map[string]string{"name": "Ana", "text": "oi"}, out)
	assert.Equal(t, " <b>Ana</b> ", in["name"])
}
