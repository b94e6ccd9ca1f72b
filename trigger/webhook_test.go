package trigger

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"forgecd.dev/core/model"
)

func sign(secret string, body []byte) string {
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write(body)
	return "sha256=" + hex.EncodeToString(mac.Sum(nil))
}

func TestVerifySignature_GitHub(t *testing.T) {
	body := []byte(`{"ref":"refs/heads/main"}`)
	sig := sign("s3cret", body)
	require.NoError(t, VerifySignature(PlatformGitHub, "s3cret", body, sig))
}

func TestVerifySignature_GitHub_Mismatch(t *testing.T) {
	body := []byte(`{"ref":"refs/heads/main"}`)
	err := VerifySignature(PlatformGitHub, "s3cret", body, "sha256=deadbeef")
	require.Error(t, err)
	e, ok := model.AsError(err)
	require.True(t, ok)
	assert.Equal(t, model.KindSignatureInvalid, e.Kind)
}

func TestVerifySignature_GitLab_ExactToken(t *testing.T) {
	require.NoError(t, VerifySignature(PlatformGitLab, "my-token", nil, "my-token"))
	require.Error(t, VerifySignature(PlatformGitLab, "my-token", nil, "wrong-token"))
}

func TestVerifySignature_EmptySecretSkipsCheck(t *testing.T) {
	require.NoError(t, VerifySignature(PlatformGitHub, "", []byte("anything"), ""))
}

func TestParsePushEvent_GitHubBranch(t *testing.T) {
	body := []byte(`{"ref":"refs/heads/main","head_commit":{"id":"abc123","author":{"name":"alice"}}}`)
	ev, err := ParsePushEvent(PlatformGitHub, body)
	require.NoError(t, err)
	assert.Equal(t, "main", ev.Branch)
	assert.Equal(t, "abc123", ev.CommitSHA)
	assert.Equal(t, "alice", ev.CommitAuthor)
	assert.False(t, ev.IsTagPush)
}

func TestParsePushEvent_GitHubTag(t *testing.T) {
	body := []byte(`{"ref":"refs/tags/v1.2.3","head_commit":{"id":"abc123"}}`)
	ev, err := ParsePushEvent(PlatformGitHub, body)
	require.NoError(t, err)
	assert.Equal(t, "v1.2.3", ev.Tag)
	assert.True(t, ev.IsTagPush)
}

func TestParsePushEvent_GitLab(t *testing.T) {
	body := []byte(`{"ref":"refs/heads/develop","checkout_sha":"def456","user_name":"bob"}`)
	ev, err := ParsePushEvent(PlatformGitLab, body)
	require.NoError(t, err)
	assert.Equal(t, "develop", ev.Branch)
	assert.Equal(t, "def456", ev.CommitSHA)
}
