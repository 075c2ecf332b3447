package client

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"
)

type cognitoTokens struct {
	AccessToken string `json:"access_token"`
}

type credentialsFile struct {
	CognitoTokens json.RawMessage `json:"cognito_tokens"`
}

// LoadAccessToken reads the workspace credentials file and extracts the
// bearer token. The cognito_tokens field arrives either as an object or as
// a JSON string containing the object; both shapes are handled.
func LoadAccessToken(path string) (string, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return "", fmt.Errorf("granola client: read credentials: %w", err)
	}

	var file credentialsFile
	if err := json.Unmarshal(raw, &file); err != nil {
		return "", fmt.Errorf("granola client: parse credentials: %w", err)
	}
	if len(file.CognitoTokens) == 0 {
		return "", ErrCredentialsMissing
	}

	var tokens cognitoTokens
	if err := json.Unmarshal(file.CognitoTokens, &tokens); err != nil {
		var nested string
		if err := json.Unmarshal(file.CognitoTokens, &nested); err != nil {
			return "", fmt.Errorf("granola client: parse cognito tokens: %w", err)
		}
		if err := json.Unmarshal([]byte(nested), &tokens); err != nil {
			return "", fmt.Errorf("granola client: parse cognito tokens: %w", err)
		}
	}
	if strings.TrimSpace(tokens.AccessToken) == "" {
		return "", ErrCredentialsMissing
	}
	return tokens.AccessToken, nil
}
