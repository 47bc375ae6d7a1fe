package main_test

import (
	"bytes"
	"encoding/json"
	"testing"

	"github.com/fwojciec/harvest"
	main "github.com/fwojciec/harvest/cmd/harvest"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCheckCmd_Run(t *testing.T) {
	t.Parallel()

	t.Run("reports valid, invalid and duplicate URLs", func(t *testing.T) {
		t.Parallel()

		stdout := &bytes.Buffer{}
		deps := newDeps(stdout, &bytes.Buffer{})

		cmd := &main.CheckCmd{URLInput: main.URLInput{URLs: []string{
			urlA,
			"http://www.truck-no1.co.kr/model/DetailView.asp?ShopNo=1",
			urlA,
		}}}
		err := cmd.Run(deps)

		assert.Equal(t, harvest.EINVALID, harvest.ErrorCode(err))
		out := stdout.String()
		assert.Contains(t, out, "ok    "+urlA)
		assert.Contains(t, out, "missing required parameter: MemberNo")
		assert.Contains(t, out, "dup   "+urlA)
		assert.Contains(t, out, "1 valid, 1 invalid, 1 duplicate")
	})

	t.Run("succeeds when every URL is valid", func(t *testing.T) {
		t.Parallel()

		stdout := &bytes.Buffer{}
		deps := newDeps(stdout, &bytes.Buffer{})

		cmd := &main.CheckCmd{URLInput: main.URLInput{URLs: []string{urlA, urlB}}}
		require.NoError(t, cmd.Run(deps))
		assert.Contains(t, stdout.String(), "2 valid, 0 invalid, 0 duplicate")
	})

	t.Run("prints valid URLs as a JSON batch request", func(t *testing.T) {
		t.Parallel()

		stdout, stderr := &bytes.Buffer{}, &bytes.Buffer{}
		deps := newDeps(stdout, stderr)

		cmd := &main.CheckCmd{URLInput: main.URLInput{URLs: []string{urlA, "ftp://example.com", urlB, urlA}}, JSON: true}
		err := cmd.Run(deps)

		assert.Equal(t, harvest.EINVALID, harvest.ErrorCode(err))
		assert.Contains(t, stderr.String(), "2 valid, 1 invalid, 1 duplicate")
		assert.JSONEq(t, `{"urls":["`+urlA+`","`+urlB+`"]}`, stdout.String())

		var req harvest.BatchRequest
		require.NoError(t, json.Unmarshal(stdout.Bytes(), &req))
		assert.Equal(t, []string{urlA, urlB}, req.URLs)
	})

	t.Run("rejects empty input", func(t *testing.T) {
		t.Parallel()

		stderr := &bytes.Buffer{}
		deps := newDeps(&bytes.Buffer{}, stderr)

		err := (&main.CheckCmd{}).Run(deps)
		assert.Equal(t, harvest.EINVALID, harvest.ErrorCode(err))
		assert.Contains(t, stderr.String(), "no URLs given")
	})
}
