package publish

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"

	"github.com/Kavex/Third3D-uploader/internal/archive"
	"github.com/Kavex/Third3D-uploader/internal/codec"
	"github.com/Kavex/Third3D-uploader/internal/config"
	"github.com/Kavex/Third3D-uploader/internal/errsx"
	"github.com/Kavex/Third3D-uploader/internal/logging"
	"github.com/Kavex/Third3D-uploader/internal/serviceclient"
	"github.com/Kavex/Third3D-uploader/internal/upload"
)

// Publisher drives one avatar's full publication, per spec §4.6.
type Publisher struct {
	client   *serviceclient.Client
	uploader *upload.Driver
	cfg      *config.Runtime
	logger   logging.Logger
}

// NewPublisher builds a Publisher over an authenticated client.
func NewPublisher(client *serviceclient.Client, uploader *upload.Driver, cfg *config.Runtime, logger logging.Logger) *Publisher {
	return &Publisher{client: client, uploader: uploader, cfg: cfg, logger: logger}
}

// Publish runs a bundle through the full state machine and closes sink
// when the publication reaches a terminal state (completed or error).
// The caller retains ownership of bundle and must Close it itself;
// Publish only reads from it.
func (p *Publisher) Publish(ctx context.Context, bundle *archive.Unpacked, sink Sink) error {
	defer close(sink)

	emit := func(e Event) {
		select {
		case sink <- e:
		case <-ctx.Done():
		}
	}

	if err := p.run(ctx, bundle, emit); err != nil {
		emit(Event{Kind: EventError, Err: err})
		return err
	}
	emit(Event{Kind: EventCompleted})
	return nil
}

func (p *Publisher) run(ctx context.Context, bundle *archive.Unpacked, emit func(Event)) error {
	p.logger.Info(ctx, "publication starting", "blueprintId", bundle.Manifest.BlueprintID, "platforms", len(bundle.Platforms))
	emit(Event{Kind: EventInit})

	existingAvatar, err := p.lookupExistingAvatar(ctx, bundle.Manifest.BlueprintID)
	if err != nil {
		return err
	}
	if existingAvatar != nil {
		p.logger.Info(ctx, "reusing existing avatar", "avatarId", existingAvatar.ID)
	}

	emit(Event{Kind: EventThumbnail})
	thumbnailResult, err := p.uploadThumbnail(ctx, bundle, existingAvatar)
	if err != nil {
		return err
	}

	avatar, err := p.upsertAvatar(ctx, bundle.Manifest, existingAvatar, thumbnailResult.AssetURL)
	if err != nil {
		return err
	}

	emit(Event{Kind: EventWaiting})
	return p.publishPlatforms(ctx, bundle, avatar, existingAvatar, emit)
}

// lookupExistingAvatar recovers errsx.ErrAvatarNotFound into (nil, nil)
// per spec §4.6 step 1 and §7's propagation policy.
func (p *Publisher) lookupExistingAvatar(ctx context.Context, blueprintID string) (*serviceclient.Avatar, error) {
	avatar, err := p.client.GetAvatar(ctx, blueprintID)
	if errors.Is(err, errsx.ErrAvatarNotFound) {
		return nil, nil
	}
	return avatar, err
}

func (p *Publisher) uploadThumbnail(ctx context.Context, bundle *archive.Unpacked, existingAvatar *serviceclient.Avatar) (fileUploadResult, error) {
	reuseFileID := ""
	if existingAvatar != nil && existingAvatar.ImageURL != "" {
		if id, err := serviceclient.ParseFileID(existingAvatar.ImageURL); err == nil {
			reuseFileID = id
		}
	}
	return p.uploadFile(ctx, bundle.Manifest.Name+" thumbnail", bundle.ThumbnailPath, "image/png", reuseFileID, nil)
}

// defaultUnityVersion is sent as createAvatar's top-level unityVersion
// field, which the Service requires even though per-platform entries
// carry their own.
const defaultUnityVersion = "2022.3.6f1"

func (p *Publisher) upsertAvatar(ctx context.Context, manifest archive.Manifest, existingAvatar *serviceclient.Avatar, imageURL string) (*serviceclient.Avatar, error) {
	if existingAvatar != nil {
		return p.client.UpdateAvatar(ctx, existingAvatar.BlueprintID, map[string]any{
			"name":     manifest.Name,
			"imageUrl": imageURL,
		})
	}
	return p.client.CreateAvatar(ctx, serviceclient.CreateAvatarInput{
		BlueprintID:   manifest.BlueprintID,
		Name:          manifest.Name,
		ImageURL:      imageURL,
		ReleaseStatus: "private",
		UnityVersion:  defaultUnityVersion,
	})
}

// platformReady is a completed (or failed) transcode, drained from the
// completion queue described in spec §9's "promise race" design note.
type platformReady struct {
	Platform archive.Platform
	Path     string
	Err      error
}

// publishPlatforms transcodes every platform concurrently, yields each
// as soon as it is ready (first-done-first-served), and uploads it in
// that order. The first transcode or upload error is returned at once;
// transcodes still running are not interrupted, and their results are
// discarded.
func (p *Publisher) publishPlatforms(ctx context.Context, bundle *archive.Unpacked, avatar, existingAvatar *serviceclient.Avatar, emit func(Event)) error {
	totalPlatforms := len(bundle.Platforms)
	ready := make(chan platformReady, totalPlatforms)

	workCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	for platform, file := range bundle.Platforms {
		platform, file := platform, file
		go func() {
			result := platformReady{Platform: platform}
			if file.Compressed {
				dst := filepath.Join(filepath.Dir(file.Path), string(platform)+".vrca")
				if err := codec.Transcode(file.Path, dst); err != nil {
					result.Err = fmt.Errorf("transcode %s: %w", platform, err)
				} else {
					result.Path = dst
				}
			} else {
				result.Path = file.Path
			}
			select {
			case ready <- result:
			case <-workCtx.Done():
			}
		}()
	}

	for platformIndex := 0; platformIndex < totalPlatforms; platformIndex++ {
		result := <-ready
		if result.Err != nil {
			cancel()
			return result.Err
		}

		manifestEntry := bundle.Manifest.AssetBundles[result.Platform]
		if err := p.publishPlatform(ctx, result.Platform, result.Path, manifestEntry, avatar, existingAvatar, platformIndex, totalPlatforms, emit); err != nil {
			cancel()
			return err
		}
	}
	return nil
}

func (p *Publisher) publishPlatform(ctx context.Context, platform archive.Platform, path string, entry archive.AssetBundleEntry, avatar, existingAvatar *serviceclient.Avatar, platformIndex, totalPlatforms int, emit func(Event)) error {
	token := platformToken(platform)

	reuseFileID := ""
	if existingAvatar != nil {
		if pkg, ok := findUnityPackage(existingAvatar, token, "standard"); ok {
			if id, err := serviceclient.ParseFileID(pkg.AssetURL); err == nil {
				reuseFileID = id
			}
		}
	}

	onProgress := func(part, totalParts int) {
		emit(Event{
			Kind:           EventBundle,
			Part:           part,
			TotalParts:     totalParts,
			PlatformIndex:  platformIndex,
			TotalPlatforms: totalPlatforms,
		})
	}

	result, err := p.uploadFile(ctx, string(platform)+" bundle", path, "application/x-avatar", reuseFileID, onProgress)
	if err != nil {
		return err
	}

	_, err = p.client.UpdateAvatar(ctx, avatar.BlueprintID, map[string]any{
		"assetUrl":     result.AssetURL,
		"platform":     token,
		"unityVersion": entry.UnityVersion,
		"assetVersion": 1,
	})
	return err
}

func findUnityPackage(avatar *serviceclient.Avatar, platform, variant string) (serviceclient.UnityPackage, bool) {
	for _, pkg := range avatar.UnityPackages {
		if pkg.Platform == platform && pkg.Variant == variant {
			return pkg, true
		}
	}
	return serviceclient.UnityPackage{}, false
}
