package parser

import (
	"strings"

	"github.com/PuerkitoBio/goquery"
)

// GallerySelector 照片区域
const GallerySelector = "div#galleryGo"

// ExtractPhotos 提取相册中的照片URL
// 没有相册时返回空切片
func ExtractPhotos(doc *goquery.Document) []string {
	photos := make([]string, 0)

	gallery := doc.Find(GallerySelector).First()
	if gallery.Length() == 0 {
		return photos
	}

	seen := make(map[string]bool)
	gallery.Find("div.swiper-slide").Each(func(_ int, slide *goquery.Selection) {
		img := slide.Find("img").First()
		if img.Length() == 0 {
			return
		}

		src := img.AttrOr("src", "")
		if src == "" {
			src = img.AttrOr("data-src", "")
		}
		if !strings.HasPrefix(src, "http") {
			return
		}

		src = strings.ReplaceAll(src, "&amp;", "&")
		if seen[src] {
			return
		}
		seen[src] = true
		photos = append(photos, src)
	})

	return photos
}
