package repoinspect

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"forgecd.dev/core/model"
)

func TestDetectServices_MultiStageDockerfile(t *testing.T) {
	dockerfile := []byte(`FROM golang:1.22 AS builder
WORKDIR /app
COPY . .
RUN go build -o /app/main .

FROM alpine:latest AS final
COPY --from=builder /app/main .
CMD ["./main"]
`)
	services := detectServices(dockerfile)
	assert.Equal(t, []string{"builder", "final", "final (final)"}, namesOf(services))
}

func TestDetectServices_SingleStageFallsBackToDefault(t *testing.T) {
	dockerfile := []byte(`FROM alpine:latest
CMD ["/bin/true"]
`)
	services := detectServices(dockerfile)
	assert.Equal(t, []string{"default"}, namesOf(services))
}

func namesOf(services []model.ServiceDefinition) []string {
	out := make([]string, len(services))
	for i, s := range services {
		out[i] = s.Name
	}
	return out
}
