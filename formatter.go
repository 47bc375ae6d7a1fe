package harvest

import (
	"strconv"
	"strings"
)

const manuscriptTemplate = `{{categoryName}} 매매 가격 시세
{{priceWon}}
생활/건강,공구,운반용품

{{categoryName}} 매매 가격 시세



차종 :  {{categoryName}}

차명 :  {{displayName}}

차량번호 :  {{registrationNumber}}

연식 :  {{modelYear}}

주행거리 :  {{odometer}}

기타사항 :  {{options}}




가격 :  {{priceLabel}}





화물차, 특장차를 전문으로 매매하는 오픈매장으로 

충분한 상담을 통해 용도에 딱 맞는 차량을 권해드리고 있습니다.

최고가 매입, 매매 /전국 어디든 출장 매입 가능!!



언제든지 문의 주시면 최선을 다해 상담하겠습니다.
상담문의 010-4082-8945 트럭판매왕

{{images}}`

// FormatManuscript renders the listing text file that accompanies the images
// in a bundle. Images are referenced by their bundle file names.
func FormatManuscript(l *Listing) string {
	images := "이미지 없음"
	if len(l.Images) > 0 {
		refs := make([]string, len(l.Images))
		for i := range l.Images {
			refs[i] = "#사진:" + ImageFileName(i)
		}
		images = strings.Join(refs, "\n")
	}

	fields := l.Fields()
	pairs := make([]string, 0, 2*len(fields)+4)
	for _, f := range fields {
		pairs = append(pairs, "{{"+f.Name+"}}", f.Value)
	}
	pairs = append(pairs,
		"{{priceWon}}", strconv.FormatInt(l.Price.AmountWon, 10),
		"{{images}}", images,
	)

	r := strings.NewReplacer(pairs...)
	return r.Replace(manuscriptTemplate)
}
