package notification

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRenderEscapesOnlyHTML(t *testing.T) {
	data := map[string]string{"Device": "<script>x</script>"}

	text, err := renderText("text", "Device: {{.Device}}", data)
	require.NoError(t, err)
	assert.Equal(t, "Device: <script>x</script>", text)

	html, err := renderHTML("html", "<p>{{.Device}}</p>", data)
	require.NoError(t, err)
	assert.Equal(t, "<p>&lt;script&gt;x&lt;/script&gt;</p>", html)

	missing, err := renderText("text", "[{{.Nope}}]", data)
	require.NoError(t, err)
	assert.Equal(t, "[]", missing)

	_, err = renderText("text", "{{.Broken", data)
	assert.Error(t, err)
}

func TestNewEmailNotifierValidates(t *testing.T) {
	_, err := NewEmailNotifier(SMTPConfig{Port: 587})
	assert.Error(t, err)
}

func TestBuildMessage(t *testing.T) {
	e, err := NewEmailNotifier(SMTPConfig{Host: "localhost", Port: 1025, From: "noreply@ukhsc.org"})
	require.NoError(t, err)

	msg, err := e.buildMessage(
		NotificationData{To: "student@example.com", Data: map[string]string{"Name": "Student"}},
		NoticeTemplate{Subject: "Hello {{.Name}}", Text: "text body", Html: "<p>html body</p>"},
	)
	require.NoError(t, err)

	var buf bytes.Buffer
	_, err = msg.WriteTo(&buf)
	require.NoError(t, err)
	raw := buf.String()
	assert.Contains(t, raw, "Subject: Hello Student")
	assert.Contains(t, raw, "text body")
	assert.Contains(t, raw, "html body")
	assert.Contains(t, raw, "multipart/alternative")

	_, err = e.buildMessage(NotificationData{To: "not an address"}, NoticeTemplate{Subject: "x", Text: "y"})
	assert.Error(t, err)
}
