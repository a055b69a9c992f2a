package api

import (
	"context"
	"time"

	"github.com/inferio-2004/recipe-generator/config"
	"github.com/inferio-2004/recipe-generator/internal/logging"
	"github.com/inferio-2004/recipe-generator/internal/model"
)

// ImageResolver turns a stored image reference into a URL a browser can load.
type ImageResolver interface {
	Resolve(ctx context.Context, ref string) string
}

// S3ImageResolver presigns references of the form s3://<bucket>/<key>. Other
// references are returned unchanged.
type S3ImageResolver struct {
	s3     *config.S3Config
	expiry time.Duration
}

func NewS3ImageResolver(s3 *config.S3Config, expiry time.Duration) *S3ImageResolver {
	if expiry <= 0 {
		expiry = time.Hour
	}
	return &S3ImageResolver{s3: s3, expiry: expiry}
}

func (r *S3ImageResolver) Resolve(ctx context.Context, ref string) string {
	key, ok := r.s3.ObjectKey(ref)
	if !ok {
		return ref
	}
	url, err := r.s3.GeneratePresignedURL(ctx, key, r.expiry)
	if err != nil {
		log := logging.Component("images")
		log.Warn().Err(err).Str("key", key).Msg("failed to presign image")
		return ""
	}
	return url
}

func resolveImages(ctx context.Context, images ImageResolver, recipes []model.Recipe) {
	if images == nil {
		return
	}
	for i := range recipes {
		if recipes[i].ImageURL != "" {
			recipes[i].ImageURL = images.Resolve(ctx, recipes[i].ImageURL)
		}
	}
}
