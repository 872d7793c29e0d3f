package federated

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/oauth2"
	"google.golang.org/api/idtoken"
)

func tokenServer(t *testing.T, body string) *httptest.Server {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, r.ParseForm())
		assert.Equal(t, "the-code", r.PostForm.Get("code"))
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(body))
	}))
	t.Cleanup(srv.Close)
	return srv
}

func newTestGoogleProvider(srv *httptest.Server, v IDTokenValidator) *GoogleProvider {
	return NewGoogleProvider("client-id", "client-secret", "http://localhost/callback",
		WithEndpoint(oauth2.Endpoint{
			AuthURL:   srv.URL + "/auth",
			TokenURL:  srv.URL + "/token",
			AuthStyle: oauth2.AuthStyleInParams,
		}),
		WithIDTokenValidator(v),
	)
}

func TestGoogleProviderExchange(t *testing.T) {
	srv := tokenServer(t, `{"access_token":"at","token_type":"Bearer","expires_in":3600,"id_token":"raw-id-token"}`)

	var gotToken, gotAudience string
	p := newTestGoogleProvider(srv, func(ctx context.Context, token, audience string) (*idtoken.Payload, error) {
		gotToken, gotAudience = token, audience
		return &idtoken.Payload{
			Subject: "109876543210",
			Claims: map[string]interface{}{
				"email":          "student@example.edu.tw",
				"email_verified": true,
				"name":           "Student",
			},
		}, nil
	})

	identity, err := p.Exchange(context.Background(), "the-code")
	require.NoError(t, err)
	assert.Equal(t, "raw-id-token", gotToken)
	assert.Equal(t, "client-id", gotAudience)
	assert.Equal(t, ExternalIdentity{
		Provider:      ProviderGoogle,
		Subject:       "109876543210",
		Email:         "student@example.edu.tw",
		EmailVerified: true,
		Name:          "Student",
	}, identity)
}

func TestGoogleProviderExchangeFailures(t *testing.T) {
	ok := func(ctx context.Context, token, audience string) (*idtoken.Payload, error) {
		return &idtoken.Payload{Subject: "1"}, nil
	}

	t.Run("no id_token", func(t *testing.T) {
		srv := tokenServer(t, `{"access_token":"at","token_type":"Bearer"}`)
		_, err := newTestGoogleProvider(srv, ok).Exchange(context.Background(), "the-code")
		assert.ErrorIs(t, err, ErrMissingIDToken)
	})

	t.Run("invalid id_token", func(t *testing.T) {
		srv := tokenServer(t, `{"access_token":"at","token_type":"Bearer","id_token":"forged"}`)
		_, err := newTestGoogleProvider(srv, func(ctx context.Context, token, audience string) (*idtoken.Payload, error) {
			return nil, errors.New("audience mismatch")
		}).Exchange(context.Background(), "the-code")
		assert.Error(t, err)
	})

	t.Run("no subject", func(t *testing.T) {
		srv := tokenServer(t, `{"access_token":"at","token_type":"Bearer","id_token":"raw"}`)
		_, err := newTestGoogleProvider(srv, func(ctx context.Context, token, audience string) (*idtoken.Payload, error) {
			return &idtoken.Payload{}, nil
		}).Exchange(context.Background(), "the-code")
		assert.Error(t, err)
	})
}

func TestGoogleProviderAuthCodeURL(t *testing.T) {
	p := NewGoogleProvider("client-id", "secret", "http://localhost/callback")

	u, err := url.Parse(p.AuthCodeURL("xyz"))
	require.NoError(t, err)
	assert.Equal(t, "accounts.google.com", u.Host)
	q := u.Query()
	assert.Equal(t, "xyz", q.Get("state"))
	assert.Equal(t, "client-id", q.Get("client_id"))
	assert.Equal(t, "http://localhost/callback", q.Get("redirect_uri"))
	assert.Contains(t, q.Get("scope"), "openid")
	assert.Equal(t, ProviderGoogle, p.Name())
}
