package listings

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSanitizeDescriptionStripsScripts(t *testing.T) {
	in := `<p>Great role</p><script>alert("x")</script><p>Apply now</p>`
	out := sanitizeDescription(in)
	assert.Equal(t, `<p>Great role</p><p>Apply now</p>`, out)
}

func TestSanitizeDescriptionIsCaseInsensitive(t *testing.T) {
	in := "before<SCRIPT type=\"text/javascript\">\nsteal()\n</ScRiPt>after"
	out := sanitizeDescription(in)
	assert.Equal(t, "beforeafter", out)
}

func TestSanitizeDescriptionStripsEventHandlers(t *testing.T) {
	in := `<img src="logo.png" onerror="pwn()"><a href="#" onclick="pwn()">apply</a>`
	out := sanitizeDescription(in)
	assert.NotContains(t, out, "onerror")
	assert.NotContains(t, out, "onclick")
	assert.Contains(t, out, `src="logo.png"`)
	assert.Contains(t, out, `href="#"`)
}

func TestSanitizeDescriptionKeepsPlainMarkup(t *testing.T) {
	in := "<h2>About</h2><ul><li>Go</li><li>Postgres</li></ul>"
	assert.Equal(t, in, sanitizeDescription(in))
}
