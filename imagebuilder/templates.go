package imagebuilder

import (
	"bytes"
	"os"
	"path/filepath"
	"text/template"

	"forgecd.dev/core/model"
)

// dockerfileTemplates maps a pipeline's project_type to a Go text
// template for its Dockerfile, the way bx/build/templates.go's
// DockerfileTemplates maps a "Language-PackageManager" key to a raw
// Dockerfile string. Ours are templates rather than plain strings so
// service_template_params (spec.md §3) can customize the base image
// version, exposed port, and entrypoint without forking the template.
var dockerfileTemplates = map[model.ProjectType]string{
	model.ProjectTypeGo: `FROM golang:{{.GoVersion | default "1.22"}}-alpine AS builder
WORKDIR /app
COPY go.* ./
RUN go mod download
COPY . .
RUN CGO_ENABLED=0 go build -ldflags="-w -s" -o /app/main .

FROM alpine:latest AS final
RUN addgroup -S app && adduser -S app -G app
USER app
WORKDIR /app
COPY --from=builder /app/main .
EXPOSE {{.Port | default 8080}}
CMD ["./main"]
`,
	model.ProjectTypeNodeJS: `FROM node:{{.NodeVersion | default "20"}}-alpine AS builder
WORKDIR /app
COPY package*.json ./
RUN npm ci --omit=dev
COPY . .
{{if .BuildCommand}}RUN {{.BuildCommand}}{{end}}

FROM node:{{.NodeVersion | default "20"}}-alpine AS final
WORKDIR /app
COPY --from=builder /app .
EXPOSE {{.Port | default 3000}}
CMD ["node", "{{.Entrypoint | default "index.js"}}"]
`,
	model.ProjectTypePython: `FROM python:{{.PythonVersion | default "3.12"}}-slim AS final
WORKDIR /app
COPY requirements.txt ./
RUN pip install --no-cache-dir -r requirements.txt
COPY . .
EXPOSE {{.Port | default 8000}}
CMD ["python", "{{.Entrypoint | default "main.py"}}"]
`,
	model.ProjectTypeJar: `FROM eclipse-temurin:{{.JavaVersion | default "21"}}-jdk AS builder
WORKDIR /app
COPY . .
RUN ./mvnw -q -DskipTests package

FROM eclipse-temurin:{{.JavaVersion | default "21"}}-jre AS final
WORKDIR /app
COPY --from=builder /app/target/*.jar app.jar
EXPOSE {{.Port | default 8080}}
CMD ["java", "-jar", "app.jar"]
`,
	model.ProjectTypeWeb: `FROM node:{{.NodeVersion | default "20"}}-alpine AS builder
WORKDIR /app
COPY package*.json ./
RUN npm ci
COPY . .
RUN npm run build

FROM nginx:alpine AS final
COPY --from=builder /app/dist /usr/share/nginx/html
EXPOSE 80
`,
}

// defaultTemplateParams documents the placeholders each built-in
// template recognizes, for GET /template-params (A.3 ambient template
// introspection the HTTP layer needs to drive a pipeline-creation form).
var defaultTemplateParams = map[model.ProjectType]map[string]any{
	model.ProjectTypeGo:     {"GoVersion": "1.22", "Port": 8080},
	model.ProjectTypeNodeJS: {"NodeVersion": "20", "Port": 3000, "BuildCommand": "", "Entrypoint": "index.js"},
	model.ProjectTypePython: {"PythonVersion": "3.12", "Port": 8000, "Entrypoint": "main.py"},
	model.ProjectTypeJar:    {"JavaVersion": "21", "Port": 8080},
	model.ProjectTypeWeb:    {"NodeVersion": "20"},
}

// TemplateParams reports the known placeholder defaults for a built-in
// Dockerfile template, for the GET /template-params introspection
// endpoint. Reports ok=false for an unknown project type.
func TemplateParams(projectType model.ProjectType) (params map[string]any, ok bool) {
	p, ok := defaultTemplateParams[projectType]
	return p, ok
}

var templateFuncs = template.FuncMap{
	"default": func(fallback any, value any) any {
		if value == nil || value == "" {
			return fallback
		}
		return value
	},
}

// renderTemplate produces a Dockerfile body for projectType using
// params, or a model.KindTemplateRender error if the project type is
// unknown or the template fails to execute.
func renderTemplate(projectType model.ProjectType, params map[string]any) ([]byte, error) {
	tmplBody, ok := dockerfileTemplates[projectType]
	if !ok {
		return nil, model.NewError(model.KindTemplateRender, "no Dockerfile template for project_type "+string(projectType))
	}

	tmpl, err := template.New(string(projectType)).Funcs(templateFuncs).Parse(tmplBody)
	if err != nil {
		return nil, model.Wrap(model.KindTemplateRender, "parsing template", err)
	}

	data := make(map[string]any, len(params))
	for k, v := range params {
		data[k] = v
	}

	var buf bytes.Buffer
	if err := tmpl.Execute(&buf, data); err != nil {
		return nil, model.Wrap(model.KindTemplateRender, "rendering template", err)
	}
	return buf.Bytes(), nil
}

// materializeDockerfile either locates the project's own Dockerfile
// (use_project_dockerfile) or renders one from a template into the
// build context, returning its path.
func (b *Builder) materializeDockerfile(contextDir string, plan Plan, logf func(string, ...any)) (string, error) {
	if plan.UseProjectDockerfile {
		path := filepath.Join(contextDir, plan.DockerfileName)
		if _, err := os.Stat(path); err != nil {
			return "", model.Wrap(model.KindDockerfileMissing, "locating "+plan.DockerfileName, err)
		}
		return path, nil
	}

	logf("rendering Dockerfile from template %q\n", plan.Template)
	content, err := renderTemplate(model.ProjectType(plan.Template), plan.ServiceTemplateParams)
	if err != nil {
		return "", err
	}

	path := filepath.Join(contextDir, "Dockerfile.generated")
	if err := os.WriteFile(path, content, 0644); err != nil {
		return "", model.Wrap(model.KindInternal, "writing generated Dockerfile", err)
	}
	return path, nil
}
