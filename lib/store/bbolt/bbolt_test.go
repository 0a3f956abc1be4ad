package bbolt

import (
	"encoding/json"
	"fmt"
	"path/filepath"
	"testing"

	"github.com/uvensys/anchorauth/lib/store/storetest"
)

func TestImpl(t *testing.T) {
	path := filepath.Join(t.TempDir(), "anchorauth.bdb")

	storetest.Common(t, Factory{}, json.RawMessage(fmt.Sprintf(`{"path": %q}`, path)))
}
