package device

import (
	"testing"

	"github.com/jtagscan/jtagscan/pkg/bsdl"
)

func mustParse(t *testing.T, text string) *bsdl.Data {
	t.Helper()
	return bsdl.ParseString(text)
}
