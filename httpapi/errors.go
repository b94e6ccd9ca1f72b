package httpapi

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"forgecd.dev/core/model"
)

// statusForKind maps spec.md §7's error taxonomy to an HTTP status,
// the one place in the module that does this translation.
func statusForKind(kind model.Kind) int {
	switch kind {
	case model.KindValidation, model.KindDockerfileBad, model.KindTemplateRender, model.KindInvalidResource:
		return http.StatusBadRequest
	case model.KindNotFound, model.KindHostNotFound:
		return http.StatusNotFound
	case model.KindConflict:
		return http.StatusConflict
	case model.KindSignatureInvalid, model.KindAuthRequired:
		return http.StatusUnauthorized
	case model.KindRepoUnreachable, model.KindDockerfileMissing:
		return http.StatusUnprocessableEntity
	case model.KindBuildFailed, model.KindPushFailed, model.KindRemoteExecFailed:
		return http.StatusUnprocessableEntity
	default:
		return http.StatusInternalServerError
	}
}

// writeError renders err as {detail: string} with the status its Kind
// maps to, per spec.md §6 ("errors follow {detail: string} with
// 4xx/5xx"). A non-model.Error is treated as an opaque internal error.
func writeError(c *gin.Context, err error) {
	if e, ok := model.AsError(err); ok {
		c.JSON(statusForKind(e.Kind), gin.H{"detail": e.Message})
		return
	}
	c.JSON(http.StatusInternalServerError, gin.H{"detail": err.Error()})
}
