package crawlers

import (
	"bytes"
	"compress/flate"
	"compress/gzip"
	"context"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/andybalholm/brotli"
	"github.com/gocolly/colly/v2"

	"github.com/RecoveryAshes/VisitKoreaCrawl/internal/models"
	"github.com/RecoveryAshes/VisitKoreaCrawl/internal/utils"
)

// StaticDetailFetcher 直接请求详情页HTML(使用Colly)
// 不执行页面脚本,依赖服务端输出中已包含的详情区域
type StaticDetailFetcher struct {
	SiteOptions
	headers models.HeaderProvider
	timeout time.Duration
}

// NewStaticDetailFetcher 创建静态详情获取器
func NewStaticDetailFetcher(site SiteOptions, headers models.HeaderProvider, timeout time.Duration) *StaticDetailFetcher {
	return &StaticDetailFetcher{
		SiteOptions: site,
		headers:     headers,
		timeout:     timeout,
	}
}

// Fetch 请求详情页
func (f *StaticDetailFetcher) Fetch(ctx context.Context, id string) (*DetailSnapshot, error) {
	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrCanceled, err)
	}

	snapshot := &DetailSnapshot{ID: id, URL: f.DetailURL(id)}

	c := colly.NewCollector(
		colly.AllowURLRevisit(),
		colly.StdlibContext(ctx),
	)
	if f.timeout > 0 {
		c.SetRequestTimeout(f.timeout)
	}

	var (
		body     []byte
		fetchErr error
	)

	c.OnRequest(func(r *colly.Request) {
		if f.headers != nil {
			headers, err := f.headers.GetHeaders()
			if err != nil {
				utils.Warnf("获取HTTP头部失败: %v", err)
			} else {
				for name, values := range headers {
					if len(values) > 0 {
						r.Headers.Set(name, values[0])
					}
				}
			}
		}
		r.Headers.Set("Accept-Encoding", "gzip, deflate, br")
	})

	c.OnResponse(func(r *colly.Response) {
		body, fetchErr = decompressResponse(r.Headers.Get("Content-Encoding"), r.Body)
	})

	c.OnError(func(r *colly.Response, err error) {
		fetchErr = fmt.Errorf("HTTP %d: %w", r.StatusCode, err)
	})

	utils.Infof("📄 请求详情页: %s", id)
	if err := c.Visit(snapshot.URL); err != nil && fetchErr == nil {
		fetchErr = err
	}
	c.Wait()

	if fetchErr != nil {
		return nil, fmt.Errorf("%w: %v", ErrNavigate, fetchErr)
	}
	snapshot.HTML = string(body)

	return snapshot, nil
}

// decompressResponse 根据Content-Encoding解压响应体
// 支持 gzip, deflate, br;底层客户端已解压时原样返回
func decompressResponse(contentEncoding string, body []byte) ([]byte, error) {
	encoding := strings.ToLower(strings.TrimSpace(contentEncoding))

	switch encoding {
	case "gzip":
		// Colly会自动解压gzip,此时不再有魔数
		if len(body) < 2 || body[0] != 0x1f || body[1] != 0x8b {
			return body, nil
		}
		reader, err := gzip.NewReader(bytes.NewReader(body))
		if err != nil {
			return nil, fmt.Errorf("gzip解压失败: %w", err)
		}
		defer reader.Close()

		decompressed, err := io.ReadAll(reader)
		if err != nil {
			return nil, fmt.Errorf("gzip读取失败: %w", err)
		}
		return decompressed, nil

	case "deflate":
		reader := flate.NewReader(bytes.NewReader(body))
		defer reader.Close()

		decompressed, err := io.ReadAll(reader)
		if err != nil {
			return nil, fmt.Errorf("deflate读取失败: %w", err)
		}
		return decompressed, nil

	case "br":
		decompressed, err := io.ReadAll(brotli.NewReader(bytes.NewReader(body)))
		if err != nil {
			return nil, fmt.Errorf("brotli读取失败: %w", err)
		}
		return decompressed, nil

	case "", "identity":
		return body, nil

	default:
		utils.Warnf("未知的Content-Encoding: %s", contentEncoding)
		return body, nil
	}
}
