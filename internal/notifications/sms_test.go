package notifications

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNormalizePhone(t *testing.T) {
	t.Parallel()
	tests := []struct {
		name  string
		phone string
		want  string
	}{
		{"Bare National Number", "9876543210", "+919876543210"},
		{"Already E164", "+14155551234", "+14155551234"},
		{"With Separators", "98765-43210", "+919876543210"},
		{"With Spaces", " 98765 43210 ", "+919876543210"},
		{"Empty", "", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, NormalizePhone(tt.phone, "+91"))
		})
	}
}

func TestTwilioSender_Send(t *testing.T) {
	var gotPath, gotTo, gotFrom, gotBody string
	var gotUser, gotPass string

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		gotUser, gotPass, _ = r.BasicAuth()
		require.NoError(t, r.ParseForm())
		gotTo = r.PostFormValue("To")
		gotFrom = r.PostFormValue("From")
		gotBody = r.PostFormValue("Body")
		w.WriteHeader(http.StatusCreated)
	}))
	defer srv.Close()

	sender := NewTwilioSender(TwilioConfig{
		AccountSID: "AC123",
		AuthToken:  "token",
		FromNumber: "+15005550006",
		BaseURL:    srv.URL,
	})

	err := sender.Send(context.Background(), "+919876543210", acceptedBody)
	require.NoError(t, err)
	assert.Equal(t, "/2010-04-01/Accounts/AC123/Messages.json", gotPath)
	assert.Equal(t, "AC123", gotUser)
	assert.Equal(t, "token", gotPass)
	assert.Equal(t, "+919876543210", gotTo)
	assert.Equal(t, "+15005550006", gotFrom)
	assert.Equal(t, "Your disaster relief request has been accepted!", gotBody)
}

func TestTwilioSender_Send_APIError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
		_, _ = w.Write([]byte(`{"code": 20003}`))
	}))
	defer srv.Close()

	sender := NewTwilioSender(TwilioConfig{AccountSID: "AC123", AuthToken: "bad", BaseURL: srv.URL})
	err := sender.Send(context.Background(), "+919876543210", rejectedBody)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "401")
}
