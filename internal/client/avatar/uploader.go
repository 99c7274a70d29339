// Package avatar uploads profile pictures to the project's object storage
// through its S3-compatible endpoint.
//
// Requests are signed with the project ref as access key, the API key as
// secret and the user's access token as session token, so storage policies
// see the signed-in user.
package avatar

import (
	"bytes"
	"context"
	"fmt"
	"net/http"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/google/uuid"

	"github.com/dmitrijs2005/gophboard/internal/client/tokenstore"
	"github.com/dmitrijs2005/gophboard/internal/common"
)

// MaxSize is the largest accepted avatar in bytes.
const MaxSize = 2 << 20

var allowedExt = map[string]bool{".png": true, ".jpg": true, ".jpeg": true, ".gif": true, ".webp": true}

type objectPutter interface {
	PutObject(ctx context.Context, in *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error)
}

var (
	loadDefaultAWSConfig = config.LoadDefaultConfig
	newS3Client          = func(cfg aws.Config, optFns ...func(*s3.Options)) objectPutter {
		return s3.NewFromConfig(cfg, optFns...)
	}
)

// SessionSource yields the signed-in user's token and id.
type SessionSource interface {
	Load(ctx context.Context) (tokenstore.Session, bool, error)
}

type Config struct {
	ProjectURL string
	APIKey     string
	Bucket     string
	Region     string
}

type Uploader struct {
	cfg      Config
	sessions SessionSource
	now      func() time.Time
}

func NewUploader(cfg Config, sessions SessionSource) *Uploader {
	cfg.ProjectURL = strings.TrimRight(cfg.ProjectURL, "/")
	return &Uploader{cfg: cfg, sessions: sessions, now: time.Now}
}

// StorageKey builds users/<user_id>/<yyyy>/<mm>/<uuid><ext>.
func StorageKey(userID string, t time.Time, ext string) string {
	return fmt.Sprintf("users/%s/%04d/%02d/%s%s", userID, t.Year(), int(t.Month()), uuid.New(), strings.ToLower(ext))
}

// PublicURL is where a stored object can be fetched without credentials.
func (u *Uploader) PublicURL(key string) string {
	return u.cfg.ProjectURL + "/storage/v1/object/public/" + u.cfg.Bucket + "/" + key
}

func (u *Uploader) endpoint() string {
	return u.cfg.ProjectURL + "/storage/v1/s3"
}

// projectRef is the first label of the project host, e.g. "abcd" for
// https://abcd.supabase.co.
func projectRef(projectURL string) (string, error) {
	parsed, err := url.Parse(projectURL)
	if err != nil || parsed.Hostname() == "" {
		return "", fmt.Errorf("invalid project url %q", projectURL)
	}
	host := parsed.Hostname()
	if i := strings.IndexByte(host, '.'); i > 0 {
		return host[:i], nil
	}
	return host, nil
}

// UploadFile reads the image at path and uploads it.
func (u *Uploader) UploadFile(ctx context.Context, path string) (string, error) {
	info, err := os.Stat(path)
	if err != nil {
		return "", err
	}
	if info.Size() > MaxSize {
		return "", fmt.Errorf("%w: avatar is larger than %d bytes", common.ErrValidation, MaxSize)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return "", err
	}
	return u.Upload(ctx, filepath.Base(path), data)
}

// Upload stores data under a fresh key for the signed-in user and returns
// its public URL.
func (u *Uploader) Upload(ctx context.Context, name string, data []byte) (string, error) {
	ext := strings.ToLower(filepath.Ext(name))
	if !allowedExt[ext] {
		return "", fmt.Errorf("%w: unsupported image type %q", common.ErrValidation, ext)
	}
	if len(data) == 0 || len(data) > MaxSize {
		return "", fmt.Errorf("%w: avatar must be between 1 and %d bytes", common.ErrValidation, MaxSize)
	}
	contentType := http.DetectContentType(data)
	if !strings.HasPrefix(contentType, "image/") {
		return "", fmt.Errorf("%w: %s is not an image", common.ErrValidation, name)
	}

	sess, ok, err := u.sessions.Load(ctx)
	if err != nil {
		return "", fmt.Errorf("failed to read session: %w", err)
	}
	if !ok || sess.UserID == "" {
		return "", common.ErrUnauthorized
	}

	client, err := u.client(ctx, sess.AccessToken)
	if err != nil {
		return "", err
	}

	key := StorageKey(sess.UserID, u.now(), ext)
	_, err = client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:        aws.String(u.cfg.Bucket),
		Key:           aws.String(key),
		Body:          bytes.NewReader(data),
		ContentType:   aws.String(contentType),
		ContentLength: aws.Int64(int64(len(data))),
		CacheControl:  aws.String("max-age=3600"),
	})
	if err != nil {
		return "", fmt.Errorf("upload avatar: %w", err)
	}
	return u.PublicURL(key), nil
}

func (u *Uploader) client(ctx context.Context, accessToken string) (objectPutter, error) {
	ref, err := projectRef(u.cfg.ProjectURL)
	if err != nil {
		return nil, err
	}

	cfg, err := loadDefaultAWSConfig(ctx,
		config.WithRegion(u.cfg.Region),
		config.WithCredentialsProvider(credentials.NewStaticCredentialsProvider(ref, u.cfg.APIKey, accessToken)),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to load storage config: %w", err)
	}

	endpoint := u.endpoint()
	return newS3Client(cfg, func(o *s3.Options) {
		o.BaseEndpoint = aws.String(endpoint)
		o.UsePathStyle = true
	}), nil
}
