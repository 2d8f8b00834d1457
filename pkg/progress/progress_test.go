package progress

import (
	"bytes"
	"os"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCounter_RendersInPlace(t *testing.T) {
	var buf bytes.Buffer
	c := NewCounter("Translating", "chunks", true)
	c.SetWriter(&buf)

	c.Start()
	assert.Equal(t, "\rTranslating...", buf.String())

	buf.Reset()
	c.Increment()
	c.Increment()
	assert.Equal(t, "\rTranslating... 1 chunks\rTranslating... 2 chunks", buf.String())
	assert.Equal(t, 2, c.Count())
}

func TestCounter_PadsShorterLine(t *testing.T) {
	var buf bytes.Buffer
	c := &Counter{writer: &buf, op: "Auditing", unit: "parts", enabled: true, lastLen: 30}
	c.Start()
	assert.Equal(t, "\rAuditing..."+strings.Repeat(" ", 30-len("Auditing...")), buf.String())
}

func TestCounter_Done(t *testing.T) {
	var buf bytes.Buffer
	c := NewCounter("Translating", "chunks", true)
	c.SetWriter(&buf)
	c.Increment()

	buf.Reset()
	c.Done("finished")
	out := buf.String()
	assert.True(t, strings.HasPrefix(out, "\r"))
	assert.True(t, strings.HasSuffix(out, "\rfinished\n"))

	buf.Reset()
	c.Done("")
	assert.Empty(t, buf.String())
}

func TestCounter_Disabled(t *testing.T) {
	var buf bytes.Buffer
	c := NewCounter("Translating", "chunks", false)
	c.SetWriter(&buf)

	c.Start()
	c.Increment()
	c.Done("finished")
	assert.Empty(t, buf.String())
	assert.Equal(t, 1, c.Count())
}

func TestIsTerminal_Pipe(t *testing.T) {
	r, w, err := os.Pipe()
	if err != nil {
		t.Fatal(err)
	}
	defer r.Close()
	defer w.Close()
	assert.False(t, IsTerminal(w))
}
