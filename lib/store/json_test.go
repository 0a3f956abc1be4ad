package store_test

import (
	"errors"
	"testing"
	"time"

	"github.com/uvensys/anchorauth/lib/store"
	"github.com/uvensys/anchorauth/lib/store/memory"
)

type usedChallenge struct {
	Account string `json:"account"`
	Hash    string `json:"hash"`
}

func TestJSON(t *testing.T) {
	j := &store.JSON[usedChallenge]{
		Underlying: memory.New(t.Context()),
		Prefix:     "used:",
	}

	want := usedChallenge{
		Account: "GDEADBEEF",
		Hash:    "cafe",
	}

	if err := j.Set(t.Context(), "key", want, 5*time.Minute); err != nil {
		t.Fatal(err)
	}

	got, err := j.Get(t.Context(), "key")
	if err != nil {
		t.Fatal(err)
	}

	if got != want {
		t.Logf("want: %#v", want)
		t.Logf("got:  %#v", got)
		t.Error("wrong value round-tripped")
	}

	if err := j.Delete(t.Context(), "key"); err != nil {
		t.Fatal(err)
	}

	if _, err := j.Get(t.Context(), "key"); !errors.Is(err, store.ErrNotFound) {
		t.Errorf("wanted ErrNotFound after delete, got: %v", err)
	}
}
