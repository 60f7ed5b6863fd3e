package dispatch

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNormalizePhone(t *testing.T) {
	cases := []struct {
		name    string
		in      string
		want    string
		wantErr bool
	}{
		{name: "local prefix rewritten", in: "09121234567", want: "989121234567"},
		{name: "separators stripped", in: "0912-123 4567", want: "989121234567"},
		{name: "already international", in: "+98 912 123 4567", want: "989121234567"},
		{name: "empty", in: "", wantErr: true},
		{name: "no digits", in: "n/a", wantErr: true},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got, err := NormalizePhone(tc.in)
			if tc.wantErr {
				require.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tc.want, got)
		})
	}
}

func TestWhatsAppLink(t *testing.T) {
	link, err := WhatsAppLink("09121234567", "سلام Ali")
	require.NoError(t, err)
	assert.Contains(t, link, "https://wa.me/989121234567?text=")

	_, err = WhatsAppLink("", "hello")
	require.Error(t, err)
}

func TestMailtoLink(t *testing.T) {
	link, err := MailtoLink("ali@example.com", "Interview 1", "Hi Ali")
	require.NoError(t, err)
	assert.Contains(t, link, "mailto:ali@example.com?")
	assert.Contains(t, link, "subject=Interview%201")
	assert.Contains(t, link, "body=Hi%20Ali")

	_, err = MailtoLink("  ", "s", "b")
	require.Error(t, err)
}
