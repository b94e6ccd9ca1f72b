package httpapi

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"forgecd.dev/core/model"
)

// ListHosts handles GET /hosts. Not named in spec.md §6, but deploy
// targets reference hosts by (host_type, host_name), and without a
// registration surface an ssh target can never be resolved (spec.md
// §4.9 step 1).
func (a *App) ListHosts(c *gin.Context) {
	hosts, err := a.Hosts.List()
	if err != nil {
		writeError(c, model.Wrap(model.KindInternal, "listing hosts", err))
		return
	}
	c.JSON(http.StatusOK, gin.H{"hosts": hosts})
}

// CreateHost handles POST /hosts.
func (a *App) CreateHost(c *gin.Context) {
	var h model.DeployHost
	if err := c.ShouldBindJSON(&h); err != nil {
		writeError(c, model.Wrap(model.KindValidation, "invalid host body", err))
		return
	}
	if h.Name == "" {
		writeError(c, model.NewError(model.KindValidation, "name is required"))
		return
	}
	switch h.Type {
	case model.HostTypeAgent, model.HostTypePortainer, model.HostTypeSSH:
	default:
		writeError(c, model.NewError(model.KindValidation, "type must be one of agent, portainer, ssh"))
		return
	}

	h.HostID = uuid.NewString()
	if err := a.Hosts.Create(&h); err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusCreated, h)
}

// DeleteHost handles DELETE /hosts/{id}.
func (a *App) DeleteHost(c *gin.Context) {
	if err := a.Hosts.Delete(c.Param("id")); err != nil {
		writeError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}
