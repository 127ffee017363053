package cvassess

import (
	"io/fs"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPageScriptClearsLoadingOnEveryExit(t *testing.T) {
	b, err := fs.ReadFile(StaticFS, "static/js/main.js")
	require.NoError(t, err)
	script := string(b)

	submit := script[strings.Index(script, `form.addEventListener("submit"`):strings.Index(script, "new EventSource")]

	// A rejected fetch re-enables the button with a notice.
	catchBlock := submit[strings.Index(submit, "} catch (err) {"):]
	catchBlock = catchBlock[:strings.Index(catchBlock, "return;")]
	assert.Contains(t, catchBlock, "setLoading(false)")
	assert.Contains(t, catchBlock, "showError(")

	// The loading region of the POST response never replaces a region an SSE event already delivered.
	assert.Contains(t, submit, "updated = false;")
	assert.Contains(t, submit, "if (!updated) {\n      replaceResult(html);")
	for _, event := range []string{`"assessment"`, `"assessmentDone"`} {
		handler := script[strings.Index(script, "addEventListener("+event):]
		handler = handler[:strings.Index(handler, "});")]
		assert.Contains(t, handler, "updated = true;", "handler of %s", event)
	}
}

func TestTemplatesEmbedded(t *testing.T) {
	for _, name := range []string{
		"templates/layout/base.html",
		"templates/pages/home.html",
		"templates/pages/history.html",
		"templates/partials/result.html",
		"templates/partials/history_item.html",
	} {
		_, err := fs.Stat(TemplateFS, name)
		assert.NoError(t, err, name)
	}
}
