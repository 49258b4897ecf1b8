package feishu

import (
	"encoding/base64"
	"encoding/json"
	"fmt"

	"github.com/yugasun/Feishu-MCP/internal/core/domain"
)

// authState is the opaque state value bound into authorization URLs.
// It round-trips everything the callback needs to correlate the grant
// with the identity that requested it, so no server-side session
// storage is involved.
//
// Carrying the app secret inside the state mirrors the original
// correlation scheme. TODO: replace the embedded secret with an HMAC
// over the remaining fields once callers no longer depend on
// state-only correlation.
type authState struct {
	AppID       string `json:"app_id"`
	AppSecret   string `json:"app_secret"`
	UserKey     string `json:"user_key"`
	RedirectURI string `json:"redirect_uri"`
	Nonce       string `json:"nonce"`
}

func encodeState(st authState) (string, error) {
	data, err := json.Marshal(st)
	if err != nil {
		return "", fmt.Errorf("encode state: %w", err)
	}
	return base64.RawURLEncoding.EncodeToString(data), nil
}

func decodeState(s string) (authState, error) {
	data, err := base64.RawURLEncoding.DecodeString(s)
	if err != nil {
		return authState{}, fmt.Errorf("%w: %v", domain.ErrInvalidState, err)
	}
	var st authState
	if err := json.Unmarshal(data, &st); err != nil {
		return authState{}, fmt.Errorf("%w: %v", domain.ErrInvalidState, err)
	}
	if st.AppID == "" {
		return authState{}, fmt.Errorf("%w: missing app identity", domain.ErrInvalidState)
	}
	return st, nil
}
