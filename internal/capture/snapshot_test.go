package capture

import (
	"context"
	"testing"
)

func TestSnapshotRequiresTargets(t *testing.T) {
	cases := []Options{
		{Output: "/tmp/x.png"},
		{URL: "http://127.0.0.1/calendar/month"},
	}
	for _, opts := range cases {
		if err := Snapshot(context.Background(), opts); err == nil {
			t.Fatalf("Snapshot(%+v) succeeded", opts)
		}
	}
}

func TestNormalizeDefaults(t *testing.T) {
	o := Options{URL: "http://x", Output: "y"}
	if err := o.normalize(); err != nil {
		t.Fatal(err)
	}
	if o.Width != DefaultWidth || o.Height != DefaultHeight || o.Timeout != DefaultTimeout {
		t.Fatalf("defaults = %+v", o)
	}
}
