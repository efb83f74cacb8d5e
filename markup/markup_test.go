package markup

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLink(t *testing.T) {
	got := Link("UC-1", "", "Login")
	assert.Equal(t,
		`<a href="#UC-1" data-proteus-id="UC-1" data-proteus-intent="select-and-navigate" onclick="selectAndNavigate('UC-1', event)">Login</a>`,
		got)

	got = Link("x", "glossary-term", "term", `data-tippy-content="d"`)
	assert.Contains(t, got, `class="glossary-term" data-tippy-content="d">term</a>`)
}

func TestLink_EscapesID(t *testing.T) {
	got := Link(`a"b'c`, "", "x")
	assert.Contains(t, got, `href="#a&#34;b&#39;c"`)
	assert.Contains(t, got, `selectAndNavigate('a&#34;b\&#39;c', event)`)
	assert.NotContains(t, got, `"b'`)
}

func TestBlockAttrs(t *testing.T) {
	assert.Equal(t, `id="o1" data-proteus-id="o1" data-proteus-intent="open-properties"`, BlockAttrs("o1"))
}

func TestMarkdown(t *testing.T) {
	tests := []struct {
		name string
		src  string
		want string
	}{
		{name: "empty", src: "  \n", want: ""},
		{name: "paragraph", src: "Hello *world*", want: "<p>Hello <em>world</em></p>"},
		{name: "strikethrough", src: "~~old~~", want: "<p><del>old</del></p>"},
		{name: "raw html omitted", src: "<script>x</script>", want: "<!-- raw HTML omitted -->"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Markdown(tt.src)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}
