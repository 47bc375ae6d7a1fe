package harvest_test

import (
	"strings"
	"testing"

	"github.com/fwojciec/harvest"
	"github.com/stretchr/testify/assert"
)

func TestFormatManuscript(t *testing.T) {
	t.Parallel()

	t.Run("fills listing fields into template", func(t *testing.T) {
		t.Parallel()

		l := &harvest.Listing{
			CategoryName:       "카고 5톤",
			DisplayName:        "메가트럭",
			RegistrationNumber: "경기12가3456",
			Price:              harvest.NewPrice(4500),
			ModelYear:          "2019",
			Odometer:           "123,456km",
			Options:            "냉동기 / 후방카메라",
			Images:             []string{"https://img/a.jpg", "https://img/b.jpg"},
		}

		result := harvest.FormatManuscript(l)

		assert.True(t, strings.HasPrefix(result, "카고 5톤 매매 가격 시세\n45000000\n"))
		assert.Contains(t, result, "차명 :  메가트럭")
		assert.Contains(t, result, "차량번호 :  경기12가3456")
		assert.Contains(t, result, "연식 :  2019")
		assert.Contains(t, result, "주행거리 :  123,456km")
		assert.Contains(t, result, "기타사항 :  냉동기 / 후방카메라")
		assert.Contains(t, result, "가격 :  4,500만원")
		assert.True(t, strings.HasSuffix(result, "#사진:K-001.jpg\n#사진:K-002.jpg"))
		assert.NotContains(t, result, "{{")
	})

	t.Run("notes missing images", func(t *testing.T) {
		t.Parallel()

		result := harvest.FormatManuscript(&harvest.Listing{RegistrationNumber: "1"})

		assert.True(t, strings.HasSuffix(result, "이미지 없음"))
	})
}
