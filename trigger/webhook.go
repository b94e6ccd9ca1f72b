// Package trigger implements the Pipeline Registry & Trigger Router
// (C5/C6): verifying inbound webhook signatures, resolving which
// branch/tag a push should build, evaluating cron schedules, and
// handling manual run requests. HMAC verification is hand-rolled
// against crypto/hmac/crypto/sha256 directly, the same way
// services/encryption_service.go reaches for crypto/rsa/crypto/sha256
// without a wrapper library — no library in the retrieved examples
// implements GitHub/GitLab/Gitee's specific signature schemes.
package trigger

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"

	"forgecd.dev/core/model"
)

// Platform identifies which Git host's webhook conventions a payload
// follows, spec.md §4.5.
type Platform string

const (
	PlatformGitHub Platform = "github"
	PlatformGitLab Platform = "gitlab"
	PlatformGitee  Platform = "gitee"
)

// PushEvent is the platform-agnostic shape this package extracts from
// a webhook payload.
type PushEvent struct {
	Branch        string
	Tag           string
	CommitSHA     string
	CommitAuthor  string
	IsTagPush     bool
}

// VerifySignature checks an inbound webhook's signature header against
// body using the pipeline's configured secret, per platform.
//
//   - GitHub: X-Hub-Signature-256: "sha256=<hex hmac>"
//   - GitLab: X-Gitlab-Token: "<raw shared secret>" (no HMAC, exact match)
//   - Gitee:  X-Gitee-Token: "<raw shared secret>" (no HMAC, exact match)
func VerifySignature(platform Platform, secret string, body []byte, headerValue string) error {
	if secret == "" {
		return nil
	}
	if headerValue == "" {
		return model.NewError(model.KindSignatureInvalid, "missing webhook signature header")
	}

	switch platform {
	case PlatformGitHub:
		return verifyHMACSHA256(secret, body, headerValue)
	case PlatformGitLab, PlatformGitee:
		if !hmac.Equal([]byte(headerValue), []byte(secret)) {
			return model.NewError(model.KindSignatureInvalid, "webhook token mismatch")
		}
		return nil
	default:
		return model.NewError(model.KindValidation, "unknown webhook platform: "+string(platform))
	}
}

func verifyHMACSHA256(secret string, body []byte, headerValue string) error {
	const prefix = "sha256="
	if len(headerValue) <= len(prefix) || headerValue[:len(prefix)] != prefix {
		return model.NewError(model.KindSignatureInvalid, "malformed X-Hub-Signature-256 header")
	}
	got, err := hex.DecodeString(headerValue[len(prefix):])
	if err != nil {
		return model.Wrap(model.KindSignatureInvalid, "decoding signature hex", err)
	}

	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write(body)
	want := mac.Sum(nil)

	if !hmac.Equal(got, want) {
		return model.NewError(model.KindSignatureInvalid, "signature does not match payload")
	}
	return nil
}

// ParsePushEvent extracts branch/tag/commit information from a
// platform's push payload. Gitee's payload shape mirrors GitHub's
// closely enough to share a parser.
func ParsePushEvent(platform Platform, body []byte) (*PushEvent, error) {
	switch platform {
	case PlatformGitHub, PlatformGitee:
		return parseGitHubLikePush(body)
	case PlatformGitLab:
		return parseGitLabPush(body)
	default:
		return nil, model.NewError(model.KindValidation, "unknown webhook platform: "+string(platform))
	}
}

type githubLikePayload struct {
	Ref     string `json:"ref"`
	Before  string `json:"before"`
	After   string `json:"after"`
	HeadCommit struct {
		ID     string `json:"id"`
		Author struct {
			Name string `json:"name"`
		} `json:"author"`
	} `json:"head_commit"`
}

func parseGitHubLikePush(body []byte) (*PushEvent, error) {
	var p githubLikePayload
	if err := json.Unmarshal(body, &p); err != nil {
		return nil, model.Wrap(model.KindValidation, "decoding push payload", err)
	}
	return refToPushEvent(p.Ref, p.HeadCommit.ID, p.HeadCommit.Author.Name), nil
}

type gitlabPayload struct {
	Ref       string `json:"ref"`
	CheckoutSHA string `json:"checkout_sha"`
	UserName  string `json:"user_name"`
}

func parseGitLabPush(body []byte) (*PushEvent, error) {
	var p gitlabPayload
	if err := json.Unmarshal(body, &p); err != nil {
		return nil, model.Wrap(model.KindValidation, "decoding push payload", err)
	}
	return refToPushEvent(p.Ref, p.CheckoutSHA, p.UserName), nil
}

func refToPushEvent(ref, commitSHA, author string) *PushEvent {
	const branchPrefix = "refs/heads/"
	const tagPrefix = "refs/tags/"

	ev := &PushEvent{CommitSHA: commitSHA, CommitAuthor: author}
	switch {
	case len(ref) > len(branchPrefix) && ref[:len(branchPrefix)] == branchPrefix:
		ev.Branch = ref[len(branchPrefix):]
	case len(ref) > len(tagPrefix) && ref[:len(tagPrefix)] == tagPrefix:
		ev.Tag = ref[len(tagPrefix):]
		ev.IsTagPush = true
	default:
		ev.Branch = ref
	}
	return ev
}
