package htmltext

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestText(t *testing.T) {
	assert.Empty(t, Text(""))
	assert.Equal(t, "Hello world again", Text("<p>Hello <b>world</b></p><p>again</p>"))
	assert.Equal(t, "one two", Text("<p>one</p><script>var x = 1</script><br>two"))
}

func TestWordCount(t *testing.T) {
	assert.Equal(t, 0, WordCount("<p></p>"))
	assert.Equal(t, 4, WordCount("<h2>Title here</h2><p>two&nbsp;words</p>"))
	assert.Equal(t, 3, WordCount("<ul><li>a</li><li>b</li><li>c</li></ul>"))
}

func TestExcerpt(t *testing.T) {
	assert.Equal(t, "short", Excerpt("<p>short</p>", 50))
	assert.Equal(t, "The quick brown…", Excerpt("<p>The quick brown fox jumps</p>", 17))
}

func TestSanitize(t *testing.T) {
	out := Sanitize(`<p onclick="x()">Hi<script>alert(1)</script></p><a href="javascript:alert(1)">bad</a><figure class="wide"><img src="https://cdn/x.jpg"><figcaption>c</figcaption></figure>`)
	assert.NotContains(t, out, "onclick")
	assert.NotContains(t, out, "<script")
	assert.NotContains(t, out, "javascript:")
	assert.Contains(t, out, `<figure class="wide">`)
	assert.Contains(t, out, `<figcaption>c</figcaption>`)
}
