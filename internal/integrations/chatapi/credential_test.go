package chatapi

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/require"
)

// fakeGetter is a minimal paramstore.Getter stub for use within this package.
type fakeGetter struct {
	val string
	err error
}

func (f *fakeGetter) GetParameter(_ context.Context, _ string) (string, error) {
	return f.val, f.err
}

func TestFetchCredential_JSONToken(t *testing.T) {
	key, err := FetchCredential(context.Background(), &fakeGetter{val: `{"token":"sk-from-json"}`}, "/chat-client/api-key")
	require.NoError(t, err)
	require.Equal(t, "sk-from-json", key)
}

func TestFetchCredential_Failures(t *testing.T) {
	cases := []struct {
		name   string
		getter Getter
		param  string
		want   string
	}{
		{"missing token", &fakeGetter{val: `{"other":"value"}`}, "/p", "token is empty"},
		{"malformed", &fakeGetter{val: `{"broken`}, "/p", "unmarshal"},
		{"getter error", &fakeGetter{err: errors.New("ssm unavailable")}, "/p", "ssm unavailable"},
		{"nil getter", nil, "/p", "nil"},
		{"empty name", &fakeGetter{val: `{"token":"x"}`}, " ", "empty"},
	}
	for _, tc := range cases {
		_, err := FetchCredential(context.Background(), tc.getter, tc.param)
		require.Error(t, err, tc.name)
		require.Contains(t, err.Error(), tc.want, tc.name)
	}
}
