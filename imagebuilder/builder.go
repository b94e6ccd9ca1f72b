// Package imagebuilder implements the Image Builder (C2): materializing
// a pipeline's source into a build context, rendering or locating its
// Dockerfile, injecting resource packages, running the Docker build for
// one or more services, and optionally pushing each result. The shape
// follows bx/build/builder.go's BuildService — clone, build context tar,
// ImageBuild, jsonmessage decode loop — generalized from the teacher's
// ad hoc BuildSpec to a Pipeline-driven multi-service build.
package imagebuilder

import (
	"archive/tar"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/docker/docker/api/types"
	"github.com/docker/docker/api/types/image"
	"github.com/docker/docker/client"
	"github.com/docker/docker/pkg/archive"
	"github.com/docker/docker/pkg/jsonmessage"
	"github.com/sirupsen/logrus"

	"forgecd.dev/core/model"
)

// LogSink receives a build's streamed output one chunk at a time, so
// the caller can both append it to the task's log file and fan it out
// over wsstream to any attached viewer.
type LogSink interface {
	Write(chunk []byte) error
}

// Builder runs Docker builds against one docker daemon connection,
// guarded by a mutex the way BuildService serializes access to its
// shared dockerClient/workDir.
type Builder struct {
	docker *client.Client
	workDir string
	log    *logrus.Entry

	secretFetcher SecretFetcher
	remoteResources *RemoteResourceFetcher // nil when B2 isn't configured

	mu sync.Mutex
}

// New builds an imagebuilder bound to a docker daemon at dockerHost (
// empty uses the ambient DOCKER_HOST/socket) and a scratch directory
// under which every build gets its own subdirectory.
func New(dockerHost, workDir string, log *logrus.Entry, secretFetcher SecretFetcher, remoteResources *RemoteResourceFetcher) (*Builder, error) {
	opts := []client.Opt{client.FromEnv, client.WithAPIVersionNegotiation()}
	if dockerHost != "" {
		opts = append(opts, client.WithHost(dockerHost))
	}
	cli, err := client.NewClientWithOpts(opts...)
	if err != nil {
		return nil, model.Wrap(model.KindInternal, "creating docker client", err)
	}
	if err := os.MkdirAll(workDir, 0755); err != nil {
		return nil, model.Wrap(model.KindInternal, "creating build work directory", err)
	}
	if secretFetcher == nil {
		secretFetcher = DummySecretFetcher{}
	}
	return &Builder{
		docker:          cli,
		workDir:         workDir,
		log:             log,
		secretFetcher:   secretFetcher,
		remoteResources: remoteResources,
	}, nil
}

// Result is one service's build outcome.
type Result struct {
	ServiceName string
	ImageName   string
	Tag         string
	ImageID     string
	Pushed      bool
	Error       error
}

// Plan is everything Build needs to run one pipeline's build task,
// already resolved by the caller (scheduler) from the pipeline
// snapshot and the trigger.
type Plan struct {
	GitURL     string
	Branch     string
	CommitSHA  string
	SubPath    string

	UseProjectDockerfile bool
	DockerfileName       string
	Template             string
	ServiceTemplateParams map[string]any

	PushMode         model.PushMode
	SelectedServices []string
	ServicePush      map[string]model.ServicePushConfig

	ImageName string
	Tag       string
	Push      bool

	ResourcePackages []model.ResourcePackageConfig
}

// Build clones the source, prepares the Dockerfile, runs one docker
// build per selected service (or a single build when push_mode=single),
// and pushes each one that's configured to. ctx cancellation is checked
// between services and at each log flush, never mid-layer, per the
// cancellation semantics recorded in the design ledger.
func (b *Builder) Build(ctx context.Context, taskID string, plan Plan, sink LogSink) ([]Result, error) {
	buildDir := filepath.Join(b.workDir, taskID)
	defer os.RemoveAll(buildDir)

	logf := func(format string, args ...any) {
		_ = sink.Write([]byte(fmt.Sprintf(format, args...)))
	}

	logf("cloning %s (branch %s)\n", plan.GitURL, plan.Branch)
	if err := cloneInto(ctx, plan.GitURL, plan.Branch, plan.CommitSHA, buildDir); err != nil {
		return nil, err
	}

	contextDir := buildDir
	if plan.SubPath != "" {
		contextDir = filepath.Join(buildDir, plan.SubPath)
	}

	dockerfilePath, err := b.materializeDockerfile(contextDir, plan, logf)
	if err != nil {
		return nil, err
	}

	if err := b.injectResources(ctx, contextDir, plan.ResourcePackages); err != nil {
		return nil, err
	}

	services := plan.SelectedServices
	if len(services) == 0 {
		services = []string{""}
	}

	var results []Result
	for _, svc := range services {
		select {
		case <-ctx.Done():
			return results, ctx.Err()
		default:
		}

		imageName, tag := plan.ImageName, plan.Tag
		push := plan.Push
		if cfg, ok := plan.ServicePush[svc]; ok {
			push = cfg.Push
			if cfg.ImageName != "" {
				imageName = cfg.ImageName
			}
			if cfg.Tag != "" {
				tag = cfg.Tag
			}
		}

		logf("building service %q as %s:%s\n", serviceLabel(svc), imageName, tag)
		imageID, err := b.buildOne(ctx, contextDir, dockerfilePath, svc, imageName, tag, sink)
		res := Result{ServiceName: svc, ImageName: imageName, Tag: tag, ImageID: imageID}
		if err != nil {
			res.Error = err
			results = append(results, res)
			logf("service %q failed: %v\n", serviceLabel(svc), err)
			continue
		}

		if push {
			logf("pushing %s:%s\n", imageName, tag)
			if err := b.push(ctx, imageName, tag, sink); err != nil {
				res.Error = err
				results = append(results, res)
				continue
			}
			res.Pushed = true
		}
		results = append(results, res)
	}

	return results, nil
}

func serviceLabel(name string) string {
	if name == "" {
		return "default"
	}
	return name
}

func (b *Builder) buildOne(ctx context.Context, contextDir, dockerfilePath, target, imageName, tag string, sink LogSink) (string, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	buildContextTar, err := archive.TarWithOptions(contextDir, &archive.TarOptions{})
	if err != nil {
		return "", model.Wrap(model.KindInternal, "creating build context tar", err)
	}
	defer buildContextTar.Close()

	fullTag := imageName + ":" + tag
	opts := types.ImageBuildOptions{
		Dockerfile:  filepath.Base(dockerfilePath),
		Tags:        []string{fullTag},
		Remove:      true,
		ForceRemove: true,
		Version:     types.BuilderBuildKit,
	}
	if target != "" {
		opts.Target = target
	}

	resp, err := b.docker.ImageBuild(ctx, buildContextTar, opts)
	if err != nil {
		return "", model.Wrap(model.KindBuildFailed, "starting docker build", err)
	}
	defer resp.Body.Close()

	return decodeBuildStream(resp.Body, sink, fullTag)
}

func decodeBuildStream(r io.Reader, sink LogSink, fullTag string) (string, error) {
	decoder := json.NewDecoder(r)
	imageID := ""
	for {
		var msg jsonmessage.JSONMessage
		if err := decoder.Decode(&msg); err != nil {
			if err == io.EOF {
				break
			}
			return imageID, model.Wrap(model.KindBuildFailed, "reading build output stream", err)
		}

		if msg.Stream != "" {
			_ = sink.Write([]byte(msg.Stream))
			if id, ok := parseBuiltImageID(msg.Stream); ok {
				imageID = id
			}
		}
		if msg.Error != nil || msg.ErrorMessage != "" {
			errText := msg.ErrorMessage
			if msg.Error != nil {
				errText = msg.Error.Message
			}
			return imageID, model.WrapBuildFailed(model.KindBuildFailed, "docker build "+fullTag, errText, fmt.Errorf("%s", errText))
		}
		if msg.Aux != nil {
			var aux struct {
				ID string `json:"ID"`
			}
			if json.Unmarshal(*msg.Aux, &aux) == nil && aux.ID != "" {
				imageID = strings.TrimPrefix(aux.ID, "sha256:")
			}
		}
	}
	return imageID, nil
}

func parseBuiltImageID(line string) (string, bool) {
	if !strings.Contains(line, "Successfully built ") {
		return "", false
	}
	fields := strings.Fields(line)
	if len(fields) < 3 {
		return "", false
	}
	return strings.TrimPrefix(fields[2], "sha256:"), true
}

func (b *Builder) push(ctx context.Context, imageName, tag string, sink LogSink) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	rc, err := b.docker.ImagePush(ctx, imageName+":"+tag, image.PushOptions{RegistryAuth: "{}"})
	if err != nil {
		return model.Wrap(model.KindPushFailed, "starting docker push", err)
	}
	defer rc.Close()

	decoder := json.NewDecoder(rc)
	for {
		var msg jsonmessage.JSONMessage
		if err := decoder.Decode(&msg); err != nil {
			if err == io.EOF {
				break
			}
			return model.Wrap(model.KindPushFailed, "reading push output stream", err)
		}
		if msg.Status != "" {
			_ = sink.Write([]byte(msg.Status + "\n"))
		}
		if msg.Error != nil {
			return model.NewError(model.KindPushFailed, msg.Error.Message)
		}
	}
	return nil
}

// writeTarEntry is a small helper shared by resources.go for injecting
// a single in-memory file into an extracted directory tree.
func writeTarEntry(hdr *tar.Header, r io.Reader, destRoot string) error {
	target := filepath.Join(destRoot, hdr.Name)
	if !strings.HasPrefix(target, filepath.Clean(destRoot)+string(os.PathSeparator)) {
		return model.NewError(model.KindInvalidResource, "resource entry escapes target directory: "+hdr.Name)
	}
	if hdr.Typeflag == tar.TypeDir {
		return os.MkdirAll(target, 0755)
	}
	if err := os.MkdirAll(filepath.Dir(target), 0755); err != nil {
		return err
	}
	f, err := os.OpenFile(target, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, os.FileMode(hdr.Mode))
	if err != nil {
		return err
	}
	defer f.Close()
	_, err = io.Copy(f, r)
	return err
}
