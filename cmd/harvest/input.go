package main

import (
	"io"
	"os"
	"strings"

	"github.com/fwojciec/harvest"
)

// readInput reads a file, or stdin when path is "-".
func readInput(path string, stdin io.Reader) ([]byte, error) {
	var data []byte
	var err error
	if path == "-" {
		data, err = io.ReadAll(stdin)
	} else {
		data, err = os.ReadFile(path)
	}
	if err != nil {
		return nil, harvest.Errorf(harvest.EINVALID, "reading %s: %v", path, err)
	}
	return data, nil
}

// readText joins the URL arguments, any extra URLs and the optional file
// into one newline-separated block.
func (in *URLInput) readText(stdin io.Reader, extra []string) (string, error) {
	lines := append(append([]string(nil), in.URLs...), extra...)
	if in.File != "" {
		data, err := readInput(in.File, stdin)
		if err != nil {
			return "", err
		}
		lines = append(lines, string(data))
	}
	return strings.Join(lines, "\n"), nil
}

func (in *URLInput) policy() harvest.URLPolicy {
	if in.AnyHost {
		return harvest.URLPolicy{}
	}
	return harvest.DefaultURLPolicy
}

// check reads and checks the input URLs. extra URLs come after the
// arguments and before the file.
func (in *URLInput) check(stdin io.Reader, extra ...string) ([]harvest.URLCheck, error) {
	text, err := in.readText(stdin, extra)
	if err != nil {
		return nil, err
	}
	checks := harvest.CheckURLs(text, in.policy())
	if len(checks) == 0 {
		return nil, harvest.Errorf(harvest.EINVALID, "no URLs given")
	}
	return checks, nil
}
