package bitmap

import (
	"context"
	"fmt"
	"image"
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"
	"io"
	"log"
	"net/http"
	"time"

	_ "golang.org/x/image/bmp"
	_ "golang.org/x/image/webp"
	"golang.org/x/sync/errgroup"
)

// ============================================================
// Bitmap Loader
// ============================================================

// Максимальный размер загружаемого файла.
const maxBitmapBytes = 32 << 20

// Request: запрос на загрузку картинки для image-asset объекта.
type Request struct {
	ObjectID string
	URL      string
}

// Result: итог загрузки. При ошибке Image == nil.
type Result struct {
	ObjectID string
	URL      string
	Image    image.Image
	Err      error
}

type Loader struct {
	client      *http.Client
	timeout     time.Duration
	concurrency int
}

func NewLoader(client *http.Client, timeout time.Duration, concurrency int) *Loader {
	if client == nil {
		client = http.DefaultClient
	}
	if concurrency < 1 {
		concurrency = 1
	}
	return &Loader{client: client, timeout: timeout, concurrency: concurrency}
}

// Fetch скачивает и декодирует картинку.
func (l *Loader) Fetch(ctx context.Context, url string) (image.Image, error) {
	if l.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, l.timeout)
		defer cancel()
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	resp, err := l.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetch: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("fetch: unexpected status %d", resp.StatusCode)
	}

	img, _, err := image.Decode(io.LimitReader(resp.Body, maxBitmapBytes))
	if err != nil {
		return nil, fmt.Errorf("decode: %w", err)
	}
	return img, nil
}

// Load запускает загрузку в фоне и вызывает done по завершении.
// Ошибка логируется; повторных попыток нет.
func (l *Loader) Load(ctx context.Context, req Request, done func(Result)) {
	go func() {
		done(l.load(ctx, req))
	}()
}

// Preload грузит пачку картинок с ограничением параллельности и ждёт
// завершения всех. Ошибки отдельных загрузок не прерывают остальные.
func (l *Loader) Preload(ctx context.Context, reqs []Request, done func(Result)) error {
	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(l.concurrency)

	for _, req := range reqs {
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			done(l.load(ctx, req))
			return nil
		})
	}
	return g.Wait()
}

func (l *Loader) load(ctx context.Context, req Request) Result {
	img, err := l.Fetch(ctx, req.URL)
	if err != nil {
		log.Printf("[BITMAP] load %s for object %s failed: %v", req.URL, req.ObjectID, err)
		return Result{ObjectID: req.ObjectID, URL: req.URL, Err: err}
	}
	return Result{ObjectID: req.ObjectID, URL: req.URL, Image: img}
}
