package httpapi

import (
	"io"
	"net/http"

	"github.com/gin-gonic/gin"

	"forgecd.dev/core/model"
	"forgecd.dev/core/trigger"
)

// HandleWebhook handles POST /api/webhook/{token}, spec.md §4.6's
// Webhook trigger entry point.
func (a *App) HandleWebhook(c *gin.Context) {
	token := c.Param("token")
	p, err := a.Pipelines.GetByWebhookToken(token)
	if err != nil {
		writeError(c, err)
		return
	}

	if !a.WebhookLimiter.Allow(p.PipelineID) {
		c.JSON(http.StatusTooManyRequests, gin.H{"detail": "webhook rate limit exceeded for this pipeline"})
		return
	}

	body, err := io.ReadAll(c.Request.Body)
	if err != nil {
		writeError(c, model.Wrap(model.KindValidation, "reading webhook body", err))
		return
	}

	platform, sigHeader := detectPlatform(c.Request.Header)
	if platform == "" {
		writeError(c, model.NewError(model.KindValidation, "unrecognized webhook platform"))
		return
	}

	if err := trigger.VerifySignature(platform, p.WebhookSecret, body, sigHeader); err != nil {
		writeError(c, err)
		return
	}

	if !isPushEvent(c.Request.Header, platform) {
		c.JSON(http.StatusOK, gin.H{"status": "ignored", "reason": "non-push event"})
		return
	}

	ev, err := trigger.ParsePushEvent(platform, body)
	if err != nil {
		writeError(c, err)
		return
	}

	branch, ok := trigger.ResolveBranch(p, ev.Branch)
	if !ok {
		c.JSON(http.StatusOK, gin.H{"status": "ignored", "reason": "branch does not match webhook_branch_strategy"})
		return
	}
	tag := trigger.ResolveTag(p, branch)

	sigBefore := a.Scheduler.QueueSignals(p.PipelineID)
	wasIdle := !sigBefore.HasQueuedTasks

	task, err := a.Scheduler.Enqueue(p, trigger.NewWebhookTrigger(ev), branch, tag, ev.CommitSHA)
	if err != nil {
		writeError(c, err)
		return
	}
	a.bumpTriggerStats(p)
	a.Inspector.Invalidate(p.GitURL)

	if wasIdle {
		c.JSON(http.StatusOK, gin.H{"task_id": task.TaskID, "branch": branch})
		return
	}
	sig := a.Scheduler.QueueSignals(p.PipelineID)
	c.JSON(http.StatusOK, gin.H{"status": "queued", "queue_length": sig.QueueLength, "branch": branch})
}

// detectPlatform inspects the headers a push webhook carries to decide
// which provider sent it and which header carries its signature/token,
// spec.md §4.6 step 2.
func detectPlatform(h http.Header) (trigger.Platform, string) {
	switch {
	case h.Get("X-Hub-Signature-256") != "" || h.Get("X-GitHub-Event") != "":
		return trigger.PlatformGitHub, h.Get("X-Hub-Signature-256")
	case h.Get("X-Gitlab-Token") != "" || h.Get("X-Gitlab-Event") != "":
		return trigger.PlatformGitLab, h.Get("X-Gitlab-Token")
	case h.Get("X-Gitee-Token") != "" || h.Get("X-Gitee-Event") != "":
		return trigger.PlatformGitee, h.Get("X-Gitee-Token")
	default:
		return "", ""
	}
}

// isPushEvent reports whether the event-type header names a push
// event; non-push events are acknowledged but produce no build
// (spec.md §4.6 step 3).
func isPushEvent(h http.Header, platform trigger.Platform) bool {
	switch platform {
	case trigger.PlatformGitHub:
		event := h.Get("X-GitHub-Event")
		return event == "" || event == "push"
	case trigger.PlatformGitLab:
		event := h.Get("X-Gitlab-Event")
		return event == "" || event == "Push Hook"
	case trigger.PlatformGitee:
		event := h.Get("X-Gitee-Event")
		return event == "" || event == "Push Hook"
	default:
		return false
	}
}
