package plugin

import (
	"context"
	"errors"
	"slices"
	"strings"
	"testing"
)

type fakePlugin struct {
	name    string
	initErr error
	log     *[]string
}

func (f *fakePlugin) Name() string { return f.name }

func (f *fakePlugin) Init(context.Context) error {
	*f.log = append(*f.log, "init:"+f.name)
	return f.initErr
}

func (f *fakePlugin) Close() error {
	*f.log = append(*f.log, "close:"+f.name)
	if f.name == "bad-close" {
		return errors.New("close failed")
	}
	return nil
}

func TestRegisterRejectsDuplicates(t *testing.T) {
	var log []string
	r := NewRegistry()
	if err := r.Register(&fakePlugin{name: "store", log: &log}); err != nil {
		t.Fatal(err)
	}
	if err := r.Register(&fakePlugin{name: "store", log: &log}); err == nil {
		t.Fatal("duplicate name should be rejected")
	}
	if _, ok := r.Get("store"); !ok {
		t.Fatal("Get(store) should succeed")
	}
	if _, ok := r.Get("missing"); ok {
		t.Fatal("Get(missing) should fail")
	}
}

func TestInitOrderAndReverseClose(t *testing.T) {
	var log []string
	r := NewRegistry()
	for _, n := range []string{"store", "shell", "os", "deep-link"} {
		if err := r.Register(&fakePlugin{name: n, log: &log}); err != nil {
			t.Fatal(err)
		}
	}
	if got := r.Names(); !slices.Equal(got, []string{"store", "shell", "os", "deep-link"}) {
		t.Fatalf("Names = %v", got)
	}
	if err := r.InitAll(context.Background()); err != nil {
		t.Fatalf("InitAll: %v", err)
	}
	if err := r.CloseAll(); err != nil {
		t.Fatalf("CloseAll: %v", err)
	}
	want := "init:store,init:shell,init:os,init:deep-link,close:deep-link,close:os,close:shell,close:store"
	if got := strings.Join(log, ","); got != want {
		t.Fatalf("order = %s", got)
	}
}

func TestInitStopsOnFirstError(t *testing.T) {
	var log []string
	r := NewRegistry()
	_ = r.Register(&fakePlugin{name: "a", log: &log})
	_ = r.Register(&fakePlugin{name: "b", log: &log, initErr: errors.New("boom")})
	_ = r.Register(&fakePlugin{name: "c", log: &log})

	err := r.InitAll(context.Background())
	if err == nil || !strings.Contains(err.Error(), "init plugin b") {
		t.Fatalf("expected init error for b, got %v", err)
	}
	_ = r.CloseAll()
	want := "init:a,init:b,close:a"
	if got := strings.Join(log, ","); got != want {
		t.Fatalf("order = %s", got)
	}
}

func TestCloseAllJoinsErrors(t *testing.T) {
	var log []string
	r := NewRegistry()
	_ = r.Register(&fakePlugin{name: "bad-close", log: &log})
	if err := r.InitAll(context.Background()); err != nil {
		t.Fatal(err)
	}
	if err := r.CloseAll(); err == nil {
		t.Fatal("expected close error")
	}
	// second close is a no-op
	if err := r.CloseAll(); err != nil {
		t.Fatalf("second CloseAll: %v", err)
	}
}
