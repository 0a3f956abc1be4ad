package memory

import (
	"encoding/json"
	"testing"

	"github.com/uvensys/anchorauth/lib/store/storetest"
)

func TestImpl(t *testing.T) {
	storetest.Common(t, factory{}, json.RawMessage(`{}`))
}
