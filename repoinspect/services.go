package repoinspect

import (
	"bufio"
	"bytes"
	"fmt"
	"strings"

	"forgecd.dev/core/model"
)

// detectServices scans a Dockerfile's FROM lines for named build
// stages ("FROM golang:1.22 AS builder") and reports one
// ServiceDefinition per named stage, plus one more entry named
// "<stage> (final)" for the last named stage (the one that actually
// gets tagged), matching the
// multi-stage layout bx/build/templates.go's generated Dockerfiles use.
func detectServices(dockerfile []byte) []model.ServiceDefinition {
	var services []model.ServiceDefinition
	var lastStage string

	scanner := bufio.NewScanner(bytes.NewReader(dockerfile))
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		upper := strings.ToUpper(line)
		if !strings.HasPrefix(upper, "FROM ") {
			continue
		}
		fields := strings.Fields(line)
		stage := ""
		for i, f := range fields {
			if strings.ToUpper(f) == "AS" && i+1 < len(fields) {
				stage = fields[i+1]
			}
		}
		if stage != "" {
			services = append(services, model.ServiceDefinition{
				Name:      stage,
				StageName: stage,
			})
			lastStage = stage
		}
	}

	if len(services) == 0 {
		return []model.ServiceDefinition{{Name: "default"}}
	}
	if lastStage != "" {
		services = append(services, model.ServiceDefinition{
			Name:      fmt.Sprintf("%s (final)", lastStage),
			StageName: lastStage,
		})
	}
	return services
}
