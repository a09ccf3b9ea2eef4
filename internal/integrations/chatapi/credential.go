package chatapi

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
)

// tokenPayload is the expected JSON shape of a credential parameter.
type tokenPayload struct {
	Token string `json:"token"`
}

// Getter is the interface that wraps GetParameter.
type Getter interface {
	GetParameter(ctx context.Context, name string) (string, error)
}

// FetchCredential reads a {"token": "..."} parameter and returns the token.
func FetchCredential(ctx context.Context, getter Getter, name string) (string, error) {
	if getter == nil {
		return "", errors.New("chatapi: paramstore getter is nil")
	}
	name = strings.TrimSpace(name)
	if name == "" {
		return "", errors.New("chatapi: credential parameter name is empty")
	}

	raw, err := getter.GetParameter(ctx, name)
	if err != nil {
		return "", fmt.Errorf("chatapi: fetch credential from paramstore: %w", err)
	}
	var tp tokenPayload
	if err := json.Unmarshal([]byte(raw), &tp); err != nil {
		return "", fmt.Errorf("chatapi: unmarshal paramstore credential value as JSON: %w", err)
	}
	if strings.TrimSpace(tp.Token) == "" {
		return "", fmt.Errorf("chatapi: credential token is empty")
	}
	return tp.Token, nil
}
