package codec

import (
	"encoding/hex"
	"errors"
	"fmt"
	"reflect"

	"design-room/internal/designroom/geom"
	"design-room/internal/designroom/models"

	"github.com/fxamacker/cbor/v2"
	"github.com/klauspost/compress/zstd"
	"github.com/zeebo/blake3"
)

// ============================================================
// Scene document
// ============================================================

// FormatVersion растёт при несовместимых изменениях формата.
const FormatVersion = 1

// Document: сериализуемая сцена целиком: коллекция объектов,
// выделение и вьюпорт.
type Document struct {
	Version    int               `json:"version" cbor:"version"`
	ID         string            `json:"id" cbor:"id"`
	Name       string            `json:"name" cbor:"name"`
	Objects    []*models.Object  `json:"objects" cbor:"objects"`
	SelectedID string            `json:"selectedId,omitempty" cbor:"selectedId,omitempty"`
	Viewport   geom.Viewport     `json:"viewport" cbor:"viewport"`
	Meta       map[string]string `json:"meta,omitempty" cbor:"meta,omitempty"`
}

var ErrCorrupt = errors.New("corrupt scene snapshot")

// ============================================================
// Encoding
// ============================================================

var (
	encMode cbor.EncMode
	decMode cbor.DecMode

	zstdEncoder *zstd.Encoder
	zstdDecoder *zstd.Decoder
)

// revisionKey: ключ BLAKE3 для ревизий снапшотов.
var revisionKey = [32]byte{
	'd', 'e', 's', 'i', 'g', 'n', '-', 'r', 'o', 'o', 'm', '.',
	's', 'n', 'a', 'p', 's', 'h', 'o', 't',
}

func init() {
	var err error

	// детерминированная кодировка: одинаковая сцена даёт одинаковые байты,
	// от этого зависит ревизия
	encMode, err = cbor.CoreDetEncOptions().EncMode()
	if err != nil {
		panic("codec: cbor encoder: " + err.Error())
	}
	decMode, err = cbor.DecOptions{
		DefaultMapType: reflect.TypeOf(map[string]any(nil)),
	}.DecMode()
	if err != nil {
		panic("codec: cbor decoder: " + err.Error())
	}

	zstdEncoder, err = zstd.NewWriter(nil, zstd.WithEncoderLevel(zstd.SpeedDefault))
	if err != nil {
		panic("codec: zstd encoder: " + err.Error())
	}
	zstdDecoder, err = zstd.NewReader(nil)
	if err != nil {
		panic("codec: zstd decoder: " + err.Error())
	}
}

// Encode сериализует документ в CBOR и сжимает zstd.
// Возвращает сжатые байты и ревизию несжатого содержимого.
func Encode(doc *Document) ([]byte, string, error) {
	if doc == nil {
		return nil, "", fmt.Errorf("document is nil")
	}
	doc.Version = FormatVersion

	raw, err := encMode.Marshal(doc)
	if err != nil {
		return nil, "", fmt.Errorf("cbor encode: %w", err)
	}
	return zstdEncoder.EncodeAll(raw, nil), Revision(raw), nil
}

// Decode: обратная операция к Encode.
func Decode(data []byte) (*Document, error) {
	raw, err := zstdDecoder.DecodeAll(data, nil)
	if err != nil {
		return nil, fmt.Errorf("%w: zstd: %v", ErrCorrupt, err)
	}

	var doc Document
	if err := decMode.Unmarshal(raw, &doc); err != nil {
		return nil, fmt.Errorf("%w: cbor: %v", ErrCorrupt, err)
	}
	if doc.Version > FormatVersion {
		return nil, fmt.Errorf("%w: unsupported version %d", ErrCorrupt, doc.Version)
	}
	return &doc, nil
}

// Revision: keyed BLAKE3 от несжатой CBOR-формы, hex.
func Revision(raw []byte) string {
	h, err := blake3.NewKeyed(revisionKey[:])
	if err != nil {
		panic("codec: blake3: " + err.Error())
	}
	h.Write(raw)
	return hex.EncodeToString(h.Sum(nil))
}
