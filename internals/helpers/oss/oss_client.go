package helper

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/aliyun/aliyun-oss-go-sdk/oss"
	"github.com/rs/zerolog/log"
)

func getEnv(k string) string { return strings.TrimSpace(os.Getenv(k)) }

/* =======================================================================
   OSS Service
======================================================================= */

type OSSService struct {
	Client     *oss.Client
	Bucket     *oss.Bucket
	Endpoint   string
	BucketName string
	Prefix     string // kalau diisi, hanya key di bawah prefix ini yang boleh dihapus
}

// OSSConfigured: semua ENV wajib ALI_OSS_* terisi.
func OSSConfigured() bool {
	return getEnv("ALI_OSS_ENDPOINT") != "" && getEnv("ALI_OSS_ACCESS_KEY") != "" &&
		getEnv("ALI_OSS_SECRET_KEY") != "" && getEnv("ALI_OSS_BUCKET") != ""
}

func NewOSSServiceFromEnv(prefix string) (*OSSService, error) {
	endpoint := normalizeEndpoint(getEnv("ALI_OSS_ENDPOINT"))
	ak := getEnv("ALI_OSS_ACCESS_KEY")
	sk := getEnv("ALI_OSS_SECRET_KEY")
	sts := getEnv("ALI_OSS_SECURITY_TOKEN")
	bucketName := getEnv("ALI_OSS_BUCKET")
	if endpoint == "" || ak == "" || sk == "" || bucketName == "" {
		return nil, fmt.Errorf("missing env: ALI_OSS_ENDPOINT/ACCESS_KEY/SECRET_KEY/BUCKET")
	}

	var (
		client *oss.Client
		err    error
	)
	if sts != "" {
		client, err = oss.New(endpoint, ak, sk, oss.SecurityToken(sts))
	} else {
		client, err = oss.New(endpoint, ak, sk)
	}
	if err != nil {
		return nil, fmt.Errorf("oss.New: %w", err)
	}

	bkt, err := client.Bucket(bucketName)
	if err != nil {
		return nil, fmt.Errorf("client.Bucket: %w", err)
	}

	// Verifikasi ringan lokasi bucket
	if loc, err := client.GetBucketLocation(bucketName); err != nil {
		if se, ok := err.(oss.ServiceError); ok && se.StatusCode == 403 && se.Code == "AccessDenied" {
			log.Warn().Str("bucket", bucketName).Msg("[OSS] skip location check due to AccessDenied")
		} else {
			return nil, fmt.Errorf("verify bucket: %w", err)
		}
	} else {
		log.Info().Str("bucket", bucketName).Str("location", loc).Msg("[OSS] bucket ready")
	}

	return &OSSService{
		Client:     client,
		Bucket:     bkt,
		Endpoint:   endpoint,
		BucketName: bucketName,
		Prefix:     strings.Trim(prefix, "/"),
	}, nil
}

func normalizeEndpoint(ep string) string {
	ep = strings.TrimSpace(ep)
	if ep == "" {
		return ""
	}
	if !strings.HasPrefix(ep, "http://") && !strings.HasPrefix(ep, "https://") {
		ep = "https://" + ep
	}
	return strings.TrimRight(ep, "/")
}

/* =======================================================================
   Key utils
======================================================================= */

func ExtractKeyFromPublicURL(publicURL string) (string, error) {
	if publicURL == "" {
		return "", fmt.Errorf("empty url")
	}
	if base := getEnv("ALI_OSS_PUBLIC_BASE"); base != "" {
		base = strings.TrimRight(base, "/") + "/"
		if strings.HasPrefix(publicURL, base) {
			return strings.TrimPrefix(publicURL, base), nil
		}
	}
	u := publicURL
	if i := strings.Index(u, "://"); i >= 0 {
		u = u[i+3:]
	}
	// buang query string (?x-oss-process=...)
	if i := strings.IndexAny(u, "?#"); i >= 0 {
		u = u[:i]
	}
	if i := strings.Index(u, "/"); i >= 0 && i+1 < len(u) {
		return u[i+1:], nil
	}
	return "", fmt.Errorf("cannot extract key from url: %s", publicURL)
}

/* =======================================================================
   Delete helpers by public URL
======================================================================= */

const maxDeleteChunk = 1000

func (s *OSSService) ownsKey(key string) bool {
	return s.Prefix == "" || strings.HasPrefix(key, s.Prefix+"/")
}

func (s *OSSService) DeleteManyByPublicURL(ctx context.Context, publicURLs []string) (deleted []string, failed map[string]error) {
	failed = make(map[string]error)
	if len(publicURLs) == 0 {
		return nil, failed
	}

	type item struct{ url, key string }
	items := make([]item, 0, len(publicURLs))
	for _, u := range publicURLs {
		u = strings.TrimSpace(u)
		if u == "" {
			continue
		}
		key, err := ExtractKeyFromPublicURL(u)
		if err != nil {
			failed[u] = fmt.Errorf("extract key: %w", err)
			continue
		}
		if !s.ownsKey(key) {
			failed[u] = fmt.Errorf("key %q di luar prefix %q", key, s.Prefix)
			continue
		}
		items = append(items, item{url: u, key: key})
	}

	for start := 0; start < len(items); start += maxDeleteChunk {
		end := start + maxDeleteChunk
		if end > len(items) {
			end = len(items)
		}
		chunk := items[start:end]

		keys := make([]string, 0, len(chunk))
		urlsByKey := make(map[string][]string, len(chunk))
		for _, it := range chunk {
			if _, seen := urlsByKey[it.key]; !seen {
				keys = append(keys, it.key)
			}
			urlsByKey[it.key] = append(urlsByKey[it.key], it.url)
		}

		// object yang sudah tidak ada tidak dianggap gagal (DeleteObjects idempotent di OSS)
		if _, err := s.Bucket.DeleteObjects(keys, oss.DeleteObjectsQuiet(true), oss.WithContext(ctx)); err != nil {
			for _, k := range keys {
				for _, u := range urlsByKey[k] {
					failed[u] = fmt.Errorf("delete: %w", err)
				}
			}
			continue
		}
		for _, k := range keys {
			deleted = append(deleted, urlsByKey[k]...)
		}
	}
	return deleted, failed
}
