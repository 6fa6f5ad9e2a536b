package export

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestEscape_QuoteCommaNewline(t *testing.T) {
	in := "He said, \"hi\"\nBye"
	want := "\"He said, \"\"hi\"\"\nBye\""
	assert.Equal(t, want, Escape(in))
}

func TestEscape_PlainValueUntouched(t *testing.T) {
	assert.Equal(t, "plain value", Escape("plain value"))
	assert.Equal(t, "", Escape(""))
}

func TestEscape_CommaOnly(t *testing.T) {
	assert.Equal(t, `"a,b"`, Escape("a,b"))
}

func TestEscape_QuoteOnly(t *testing.T) {
	assert.Equal(t, `"say ""hi"""`, Escape(`say "hi"`))
}

func TestEscape_LeadingSpaceNotQuoted(t *testing.T) {
	// Only comma, quote and newline trigger quoting.
	assert.Equal(t, " padded ", Escape(" padded "))
}

func TestField(t *testing.T) {
	assert.Equal(t, "", Field(nil))
	assert.Equal(t, "text", Field("text"))
	assert.Equal(t, "42", Field(42))
	assert.Equal(t, "42", Field(int64(42)))
	assert.Equal(t, "true", Field(true))
	assert.Equal(t, "3.5", Field(3.5))
	assert.Equal(t, "40", Field(40.0))
}

func TestWriteCSV(t *testing.T) {
	var buf bytes.Buffer
	err := WriteCSV(&buf,
		[]string{"id", "note"},
		[][]interface{}{
			{"a1", "plain"},
			{"a2", "needs, quoting"},
		},
	)
	assert.NoError(t, err)
	assert.Equal(t, "id,note\na1,plain\na2,\"needs, quoting\"\n", buf.String())
}

func TestWriteCSV_EmptyRows(t *testing.T) {
	var buf bytes.Buffer
	err := WriteCSV(&buf, []string{"id"}, nil)
	assert.NoError(t, err)
	assert.Equal(t, "id\n", buf.String())
}

func TestFilename(t *testing.T) {
	assert.Equal(t, "attribution-agents.csv", Filename("attribution", "agents"))
}
