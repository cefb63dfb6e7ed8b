package serviceclient

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/Kavex/Third3D-uploader/internal/errsx"
)

// UnityPackage is one platform build attached to an avatar record.
type UnityPackage struct {
	Platform     string `json:"platform"`
	Variant      string `json:"variant,omitempty"`
	AssetURL     string `json:"assetUrl"`
	AssetVersion int    `json:"assetVersion"`
	UnityVersion string `json:"unityVersion"`
}

// Avatar is the Service's record of a published avatar.
type Avatar struct {
	ID            string         `json:"id"`
	Name          string         `json:"name"`
	BlueprintID   string         `json:"blueprintId"`
	ImageURL      string         `json:"imageUrl"`
	UnityPackages []UnityPackage `json:"unityPackages"`
}

// CreateAvatarInput is the initial record for a never-before-published
// blueprint ID.
type CreateAvatarInput struct {
	BlueprintID   string
	Name          string
	ImageURL      string
	ReleaseStatus string
	UnityVersion  string
}

// GetAvatar fetches an avatar by blueprint ID. A 404 is reported as
// (nil, errsx.ErrAvatarNotFound) so callers can branch on
// errors.Is rather than a second return value, matching the other
// sentinel-driven branches of the publish flow.
func (c *Client) GetAvatar(ctx context.Context, blueprintID string) (*Avatar, error) {
	resp, err := c.do(ctx, "GET", fmt.Sprintf("/avatars/%s", blueprintID), nil, nil)
	if err != nil {
		return nil, err
	}
	if resp.StatusCode == 404 {
		return nil, errsx.ErrAvatarNotFound
	}
	if !isSuccess(resp.StatusCode) {
		return nil, asServiceError(resp)
	}
	var avatar Avatar
	if err := json.Unmarshal(resp.Body, &avatar); err != nil {
		return nil, fmt.Errorf("decode avatar: %w", err)
	}
	return &avatar, nil
}

// CreateAvatar registers a new avatar. The Service reports a blueprint
// ID collision as a 500 with no machine-readable body, which is
// recovered here into errsx.ErrBlueprintIDTaken rather than a generic
// ServiceError.
func (c *Client) CreateAvatar(ctx context.Context, in CreateAvatarInput) (*Avatar, error) {
	body := map[string]string{
		"id":            in.BlueprintID,
		"name":          in.Name,
		"imageUrl":      in.ImageURL,
		"releaseStatus": in.ReleaseStatus,
		"unityVersion":  in.UnityVersion,
	}
	resp, err := c.do(ctx, "POST", "/avatars", body, nil)
	if err != nil {
		return nil, err
	}
	if resp.StatusCode == 500 {
		return nil, errsx.ErrBlueprintIDTaken
	}
	if !isSuccess(resp.StatusCode) {
		return nil, asServiceError(resp)
	}
	var avatar Avatar
	if err := json.Unmarshal(resp.Body, &avatar); err != nil {
		return nil, fmt.Errorf("decode avatar: %w", err)
	}
	return &avatar, nil
}

// UpdateAvatar applies a partial patch (e.g. a new image URL or the
// freshly built unityPackages list) to an existing avatar.
func (c *Client) UpdateAvatar(ctx context.Context, blueprintID string, patch map[string]any) (*Avatar, error) {
	resp, err := c.do(ctx, "PUT", fmt.Sprintf("/avatars/%s", blueprintID), patch, nil)
	if err != nil {
		return nil, err
	}
	if resp.StatusCode == 404 {
		return nil, errsx.ErrAvatarNotFound
	}
	if !isSuccess(resp.StatusCode) {
		return nil, asServiceError(resp)
	}
	var avatar Avatar
	if err := json.Unmarshal(resp.Body, &avatar); err != nil {
		return nil, fmt.Errorf("decode avatar: %w", err)
	}
	return &avatar, nil
}
