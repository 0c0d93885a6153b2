package parser

import (
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/RecoveryAshes/VisitKoreaCrawl/internal/models"
)

const listingHTML = `<html><body>
<ul id="contentList" class="list_thum_type type1">
  <li><a href="/detail/ms_detail.do?coid=3fa85f64-5717-4562-b3fc-2c963f66afa6&amp;con_type=12000"><strong>경복궁</strong></a></li>
  <li><a href="javascript:goDetailPage('abc-123');"><strong>창덕궁</strong></a></li>
  <li><a href="/detail/ms_detail.do?coid=3fa85f64-5717-4562-b3fc-2c963f66afa6">경복궁 중복</a></li>
  <li><a href="#" onclick="goDetailPage('onclick-77')">이름만</a></li>
  <li><a href="/main/other.do">무관한 링크</a></li>
  <li><a href="javascript:goDetailPage('abc-123');"></a></li>
  <li><a href="javascript:goDetailPage('no-name');"></a></li>
</ul>
</body></html>`

func TestExtractIdentifiers(t *testing.T) {
	refs, err := ExtractIdentifiersFromHTML(listingHTML)
	require.NoError(t, err)

	want := []models.ItemRef{
		{ID: "3fa85f64-5717-4562-b3fc-2c963f66afa6", Name: "경복궁"},
		{ID: "abc-123", Name: "창덕궁"},
		{ID: "onclick-77", Name: "이름만"},
		{ID: "no-name", Name: models.DefaultItemName},
	}
	if diff := cmp.Diff(want, refs); diff != "" {
		t.Errorf("ExtractIdentifiers() mismatch (-want +got):\n%s", diff)
	}
}

func TestExtractIdentifiers_Idempotent(t *testing.T) {
	doc, err := Parse(listingHTML)
	require.NoError(t, err)

	first := ExtractIdentifiers(doc)
	second := ExtractIdentifiers(doc)
	assert.Equal(t, first, second)
}

func TestMatchIdentifier(t *testing.T) {
	tests := []struct {
		name   string
		markup string
		wantID string
		wantOK bool
	}{
		{
			name:   "查询参数形式",
			markup: `<a href="https://korean.visitkorea.or.kr/detail/ms_detail.do?coid=3fa85f64-5717-4562-b3fc-2c963f66afa6">x</a>`,
			wantID: "3fa85f64-5717-4562-b3fc-2c963f66afa6",
			wantOK: true,
		},
		{
			name:   "内联调用形式",
			markup: `<a href="javascript:goDetailPage('abc-123')">x</a>`,
			wantID: "abc-123",
			wantOK: true,
		},
		{
			name:   "两种形式同时存在时查询参数优先",
			markup: `<a href="javascript:goDetailPage('other')" onclick="location.href='?coid=11111111-2222-3333-4444-555555555555'">x</a>`,
			wantID: "11111111-2222-3333-4444-555555555555",
			wantOK: true,
		},
		{
			name:   "标识长度不足",
			markup: `<a href="?coid=1234">x</a>`,
			wantOK: false,
		},
		{
			name:   "无标识",
			markup: `<a href="/main/area_list.do">x</a>`,
			wantOK: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			doc, err := Parse(tt.markup)
			require.NoError(t, err)

			id, ok := MatchIdentifier(doc.Find("a").First())
			assert.Equal(t, tt.wantOK, ok)
			assert.Equal(t, tt.wantID, id)
		})
	}
}

func TestParseFields(t *testing.T) {
	tests := []struct {
		name   string
		markup string
		want   map[string]string
		order  []string
	}{
		{
			name:   "带pc样式的值",
			markup: `<ul><li><strong>주소</strong><span class="pc">서울시 종로구</span></li></ul>`,
			want:   map[string]string{"주소": "서울시 종로구"},
			order:  []string{"주소"},
		},
		{
			name:   "无值元素时取剩余文本",
			markup: `<ul><li><strong>지역문화</strong> 축제</li></ul>`,
			want:   map[string]string{"지역문화": "축제"},
			order:  []string{"지역문화"},
		},
		{
			name:   "pc样式优先于普通span",
			markup: `<ul><li><strong>문의</strong><span class="mo">모바일</span><span class="pc">02-123-4567</span></li></ul>`,
			want:   map[string]string{"문의": "02-123-4567"},
			order:  []string{"문의"},
		},
		{
			name:   "多个值用分隔符连接",
			markup: `<ul><li><strong>쉬는날</strong><span>월요일</span><span> </span><span>설날</span></li></ul>`,
			want:   map[string]string{"쉬는날": "월요일 / 설날"},
			order:  []string{"쉬는날"},
		},
		{
			name:   "空值被丢弃",
			markup: `<ul><li><strong>주차</strong><span>  </span></li><li><strong>빈값</strong></li></ul>`,
			want:   map[string]string{},
			order:  []string{},
		},
		{
			name:   "无标签的li被忽略",
			markup: `<ul><li><span>라벨 없음</span></li></ul>`,
			want:   map[string]string{},
			order:  []string{},
		},
		{
			name: "重复标签后者覆盖",
			markup: `<ul><li><strong>주소</strong><span>옛 주소</span></li>` +
				`<li><strong>입장료</strong><span>무료</span></li>` +
				`<li><strong>주소</strong><span>새 주소</span></li></ul>`,
			want:  map[string]string{"주소": "새 주소", "입장료": "무료"},
			order: []string{"주소", "입장료"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			doc, err := Parse(tt.markup)
			require.NoError(t, err)

			fields := ParseFields(doc)
			assert.Equal(t, tt.want, fields.Map())
			assert.Equal(t, tt.order, fields.Keys())
		})
	}
}

func TestExtractPhotos(t *testing.T) {
	tests := []struct {
		name   string
		markup string
		want   []string
	}{
		{
			name:   "无相册区域",
			markup: `<div class="swiper-slide"><img src="http://img/a.jpg"></div>`,
			want:   []string{},
		},
		{
			name: "转义的&与普通&去重",
			markup: `<div id="galleryGo">
				<div class="swiper-slide"><img src="http://tong.visitkorea.or.kr/cms/a.jpg?w=1&amp;amp;h=2"></div>
				<div class="swiper-slide"><img src="http://tong.visitkorea.or.kr/cms/a.jpg?w=1&h=2"></div>
			</div>`,
			want: []string{"http://tong.visitkorea.or.kr/cms/a.jpg?w=1&h=2"},
		},
		{
			name: "data-src回退与相对地址过滤",
			markup: `<div id="galleryGo">
				<div class="swiper-slide"><img data-src="https://img/b.jpg"></div>
				<div class="swiper-slide"><img src="/relative/c.jpg"></div>
				<div class="swiper-slide"><span>no image</span></div>
				<div class="swiper-slide"><img src="http://img/d.jpg"></div>
			</div>`,
			want: []string{"https://img/b.jpg", "http://img/d.jpg"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			doc, err := Parse(tt.markup)
			require.NoError(t, err)
			assert.Equal(t, tt.want, ExtractPhotos(doc))
		})
	}
}

func TestParseDetail(t *testing.T) {
	markup := `<html><body>
		<h2>경복궁</h2>
		<div id="galleryGo"><div class="swiper-slide"><img src="http://img/1.jpg"></div></div>
		<div id="detailGo"><ul>
			<li><strong>주소</strong><span class="pc">서울특별시 종로구 사직로 161</span></li>
			<li><strong>쉬는날</strong><span>매주 화요일</span></li>
		</ul></div>
	</body></html>`

	rec, err := ParseDetail("id-1", "https://example.com/d?cotid=id-1", markup)
	require.NoError(t, err)

	assert.Equal(t, "id-1", rec.ID)
	assert.Equal(t, "경복궁", rec.Name)
	assert.Equal(t, []string{"http://img/1.jpg"}, rec.Photos)
	assert.Equal(t, []string{"주소", "쉬는날"}, rec.Fields.Keys())
	assert.False(t, rec.Failed())
}

func TestParseTitle(t *testing.T) {
	tests := []struct {
		name   string
		markup string
		want   string
	}{
		{"h2优先", `<h1 class="tit_main">H1</h1><h2> 제목 </h2>`, "제목"},
		{"h1回退", `<h1 class="tit_main">H1 제목</h1>`, "H1 제목"},
		{"h1无tit样式", `<h1 class="logo">로고</h1>`, models.UntitledName},
		{"无标题", `<div>본문</div>`, models.UntitledName},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			doc, err := Parse(tt.markup)
			require.NoError(t, err)
			assert.Equal(t, tt.want, ParseTitle(doc))
		})
	}
}

func TestExtractTitle(t *testing.T) {
	title, ok := ExtractTitle(`<h2>경복궁</h2><h2>상세정보</h2>`)
	assert.True(t, ok)
	assert.Equal(t, "경복궁", title)

	title, ok = ExtractTitle(`<div>본문</div>`)
	assert.False(t, ok)
	assert.Empty(t, title)
}
