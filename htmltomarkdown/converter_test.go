package htmltomarkdown_test

import (
	"testing"

	"github.com/fwojciec/harvest"
	"github.com/fwojciec/harvest/htmltomarkdown"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// Ensure Converter implements harvest.Converter at compile time.
var _ harvest.Converter = (*htmltomarkdown.Converter)(nil)

func TestConverter_Convert(t *testing.T) {
	t.Parallel()

	t.Run("converts basic paragraph", func(t *testing.T) {
		t.Parallel()

		md, err := htmltomarkdown.NewConverter().Convert(`<p>무사고 차량입니다.</p>`)

		require.NoError(t, err)
		assert.Equal(t, "무사고 차량입니다.", md)
	})

	t.Run("keeps line breaks from description markup", func(t *testing.T) {
		t.Parallel()

		md, err := htmltomarkdown.NewConverter().Convert(`<p>타이어 신품<br>정기점검 완료</p>`)

		require.NoError(t, err)
		assert.Contains(t, md, "타이어 신품")
		assert.Contains(t, md, "정기점검 완료")
		assert.NotEqual(t, "타이어 신품정기점검 완료", md)
	})

	t.Run("converts bold and lists", func(t *testing.T) {
		t.Parallel()

		md, err := htmltomarkdown.NewConverter().Convert(`<p><b>특징</b></p><ul><li>적재함 신품</li><li>후축 보강</li></ul>`)

		require.NoError(t, err)
		assert.Contains(t, md, "**특징**")
		assert.Contains(t, md, "- 적재함 신품")
		assert.Contains(t, md, "- 후축 보강")
	})

	t.Run("converts tables", func(t *testing.T) {
		t.Parallel()

		html := `<table><tr><th>항목</th><th>내용</th></tr><tr><td>적재함</td><td>5.2m</td></tr></table>`

		md, err := htmltomarkdown.NewConverter().Convert(html)

		require.NoError(t, err)
		assert.Contains(t, md, "| 항목")
		assert.Contains(t, md, "적재함")
		assert.Contains(t, md, "5.2m")
	})

	t.Run("drops images and scripts", func(t *testing.T) {
		t.Parallel()

		html := `<p>사진 참고</p><img src="/photo/a.jpg"><script>alert(1)</script>`

		md, err := htmltomarkdown.NewConverter().Convert(html)

		require.NoError(t, err)
		assert.Equal(t, "사진 참고", md)
	})

	t.Run("returns error for empty input", func(t *testing.T) {
		t.Parallel()

		_, err := htmltomarkdown.NewConverter().Convert("   ")

		require.Error(t, err)
		assert.Equal(t, harvest.EINVALID, harvest.ErrorCode(err))
	})
}
