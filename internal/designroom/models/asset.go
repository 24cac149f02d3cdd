package models

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/tidwall/gjson"
)

// ============================================================
// Asset provider records
// ============================================================

type Asset struct {
	ID       string  `json:"id"`
	Title    string  `json:"title"`
	FileURL  string  `json:"file_url"`
	MimeType string  `json:"mime_type"`
	Width    float64 `json:"width"`
	Height   float64 `json:"height"`
}

// IsImage: ассет можно положить на холст как image-asset.
func (a Asset) IsImage() bool {
	return strings.HasPrefix(strings.ToLower(a.MimeType), "image/")
}

// ============================================================
// Drag-and-drop payload
// ============================================================

const (
	PayloadAsset        = "asset"
	PayloadCanvasObject = "canvas-object"
)

var ErrInvalidPayload = errors.New("invalid drop payload")

// DropPayload: содержимое межкомпонентного drag-and-drop.
// Для PayloadAsset заполнен Asset, для PayloadCanvasObject: ObjectID.
type DropPayload struct {
	Type     string
	Asset    Asset
	ObjectID string
}

type canvasObjectPayload struct {
	Type string `json:"type"`
	ID   string `json:"id"`
}

type assetPayload struct {
	Type string `json:"type"`
	Asset
}

// ParseDropPayload разбирает JSON payload и ветвится по полю type.
func ParseDropPayload(raw []byte) (DropPayload, error) {
	if !gjson.ValidBytes(raw) {
		return DropPayload{}, fmt.Errorf("%w: malformed json", ErrInvalidPayload)
	}

	kind := gjson.GetBytes(raw, "type").String()
	switch kind {
	case PayloadAsset:
		var p assetPayload
		if err := json.Unmarshal(raw, &p); err != nil {
			return DropPayload{}, fmt.Errorf("%w: %v", ErrInvalidPayload, err)
		}
		if p.FileURL == "" {
			return DropPayload{}, fmt.Errorf("%w: asset without file_url", ErrInvalidPayload)
		}
		if !p.Asset.IsImage() {
			return DropPayload{}, fmt.Errorf("%w: unsupported mime type %q", ErrInvalidPayload, p.MimeType)
		}
		return DropPayload{Type: PayloadAsset, Asset: p.Asset}, nil

	case PayloadCanvasObject:
		var p canvasObjectPayload
		if err := json.Unmarshal(raw, &p); err != nil {
			return DropPayload{}, fmt.Errorf("%w: %v", ErrInvalidPayload, err)
		}
		if p.ID == "" {
			return DropPayload{}, fmt.Errorf("%w: canvas-object without id", ErrInvalidPayload)
		}
		return DropPayload{Type: PayloadCanvasObject, ObjectID: p.ID}, nil
	}

	return DropPayload{}, fmt.Errorf("%w: unknown type %q", ErrInvalidPayload, kind)
}
